package qstash

import (
	"context"
	"net/url"
)

// Endpoint is a single subscriber of a topic.
type Endpoint struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url"`
}

// TopicInfo describes a topic and the endpoints subscribed to it. Publishing
// to the topic fans out to every listed endpoint.
type TopicInfo struct {
	Name      string     `json:"name"`
	Endpoints []Endpoint `json:"endpoints"`
	CreatedAt int64      `json:"createdAt,omitempty"`
	UpdatedAt int64      `json:"updatedAt,omitempty"`
}

// ListTopics returns all topics of the account.
func (c *Client) ListTopics(ctx context.Context) ([]TopicInfo, error) {
	var topics []TopicInfo
	if err := c.transport.get(ctx, c.transport.path("/topics"), &topics); err != nil {
		return nil, err
	}
	return topics, nil
}

// GetTopic retrieves a topic and its subscribed endpoints by name.
func (c *Client) GetTopic(ctx context.Context, name string) (*TopicInfo, error) {
	var topic TopicInfo
	path := c.transport.path("/topics/" + url.PathEscape(name))
	if err := c.transport.get(ctx, path, &topic); err != nil {
		return nil, err
	}
	return &topic, nil
}

// UpsertTopic creates the topic if needed and subscribes the given endpoints
// to it. Existing endpoints are kept.
func (c *Client) UpsertTopic(ctx context.Context, name string, endpoints []Endpoint) error {
	if name == "" {
		return &ConfigError{Reason: "topic name is required"}
	}
	if len(endpoints) == 0 {
		return &ConfigError{Reason: "at least one endpoint is required"}
	}
	body := struct {
		Endpoints []Endpoint `json:"endpoints"`
	}{Endpoints: endpoints}
	path := c.transport.path("/topics/" + url.PathEscape(name) + "/endpoints")
	return c.transport.post(ctx, path, nil, body, nil)
}

// DeleteTopic removes a topic and all its endpoint subscriptions.
func (c *Client) DeleteTopic(ctx context.Context, name string) error {
	path := c.transport.path("/topics/" + url.PathEscape(name))
	return c.transport.delete(ctx, path)
}
