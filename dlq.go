package qstash

import (
	"context"
	"net/url"
)

// DLQMessage is a message that exhausted its delivery retries and was moved
// to the dead letter queue. It keeps the original message plus the final
// response from the destination.
type DLQMessage struct {
	Message

	// DLQID identifies the entry within the dead letter queue; use it with
	// [Client.DeleteDLQMessage].
	DLQID string `json:"dlqId"`

	// ResponseStatus is the HTTP status of the last delivery attempt.
	ResponseStatus int `json:"responseStatus,omitempty"`

	// ResponseBody is the body of the last delivery attempt's response.
	ResponseBody string `json:"responseBody,omitempty"`
}

// DLQPage is one page of the dead letter queue listing.
type DLQPage struct {
	// Cursor points at the next page, empty when this is the last page.
	Cursor string `json:"cursor,omitempty"`

	Messages []DLQMessage `json:"messages"`
}

// ListDLQMessages retrieves a page of the dead letter queue. An empty cursor
// fetches the first page.
func (c *Client) ListDLQMessages(ctx context.Context, cursor string) (*DLQPage, error) {
	path := c.transport.path("/dlq")
	if cursor != "" {
		path += "?cursor=" + cursor
	}
	var page DLQPage
	if err := c.transport.get(ctx, path, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// DeleteDLQMessage permanently removes a message from the dead letter queue.
func (c *Client) DeleteDLQMessage(ctx context.Context, dlqID string) error {
	path := c.transport.path("/dlq/" + url.PathEscape(dlqID))
	return c.transport.delete(ctx, path)
}
