package qstash

import (
	"context"
	"encoding/json"
)

// State is the delivery state of a message as reported by the event log.
type State string

const (
	StateCreated   State = "CREATED"
	StateActive    State = "ACTIVE"
	StateDelivered State = "DELIVERED"
	StateError     State = "ERROR"
	StateCanceled  State = "CANCELED"
	StateRetry     State = "RETRY"
	StateFailed    State = "FAILED"
)

// UnmarshalJSON decodes a state value, mapping anything outside the known
// vocabulary to [StateError] instead of failing, so new server-side states
// never break event listing.
func (s *State) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*s = StateError
		return nil
	}
	switch State(raw) {
	case StateCreated, StateActive, StateDelivered, StateError, StateCanceled, StateRetry, StateFailed:
		*s = State(raw)
	default:
		*s = StateError
	}
	return nil
}

// Event is one entry of the delivery log.
type Event struct {
	// Time is when the event occurred, as a unix timestamp in milliseconds.
	Time int64 `json:"time"`

	// State is the delivery state the message entered.
	State State `json:"state"`

	// MessageID identifies the message the event belongs to.
	MessageID string `json:"messageId"`

	// NextDeliveryTime is the scheduled time of the next delivery attempt,
	// unix milliseconds, zero when no further attempt is scheduled.
	NextDeliveryTime int64 `json:"nextDeliveryTime,omitempty"`

	// Error is the delivery failure reason, empty for non-failure states.
	Error string `json:"error,omitempty"`

	URL          string `json:"url,omitempty"`
	TopicName    string `json:"topicName,omitempty"`
	EndpointName string `json:"endpointName,omitempty"`
}

// EventPage is one page of the delivery log. The log returns at most 100
// events per page; pass Cursor to [Client.ListEvents] to fetch the next one.
type EventPage struct {
	// Cursor points at the next page, empty when this is the last page.
	// It is a unix timestamp with millisecond precision.
	Cursor string `json:"cursor,omitempty"`

	Events []Event `json:"events"`
}

// ListEvents retrieves a page of the delivery event log. An empty cursor
// fetches the most recent page.
func (c *Client) ListEvents(ctx context.Context, cursor string) (*EventPage, error) {
	path := c.transport.path("/events")
	if cursor != "" {
		path += "?cursor=" + cursor
	}
	var page EventPage
	if err := c.transport.get(ctx, path, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
