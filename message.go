package qstash

import (
	"context"
	"net/url"
)

// Message is a message held by QStash, as returned by the messages endpoint.
// Only messages that have not reached a terminal delivery state are
// retrievable.
type Message struct {
	MessageID    string              `json:"messageId"`
	URL          string              `json:"url"`
	TopicName    string              `json:"topicName,omitempty"`
	EndpointName string              `json:"endpointName,omitempty"`
	Key          string              `json:"key,omitempty"`
	Method       string              `json:"method,omitempty"`
	Header       map[string][]string `json:"header,omitempty"`
	Body         string              `json:"body,omitempty"`
	MaxRetries   int                 `json:"maxRetries,omitempty"`
	NotBefore    int64               `json:"notBefore,omitempty"`
	CreatedAt    int64               `json:"createdAt"`
	Callback     string              `json:"callback,omitempty"`
}

// GetMessage retrieves a message by its id.
func (c *Client) GetMessage(ctx context.Context, messageID string) (*Message, error) {
	var msg Message
	path := c.transport.path("/messages/" + url.PathEscape(messageID))
	if err := c.transport.get(ctx, path, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// CancelMessage removes a message from QStash so it is not delivered.
// A message already in flight to the destination may be too late to cancel.
func (c *Client) CancelMessage(ctx context.Context, messageID string) error {
	path := c.transport.path("/messages/" + url.PathEscape(messageID))
	return c.transport.delete(ctx, path)
}
