package qstash

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

type destinationKind int

const (
	destinationURL destinationKind = iota
	destinationTopic
)

// Destination identifies where a published message is delivered: a single
// endpoint URL, or a named topic that fans out to every endpoint subscribed
// to it. Construct one with [URL] or [Topic]; the zero value is invalid.
type Destination struct {
	kind  destinationKind
	value string
}

// URL addresses a single destination endpoint. The value must be an absolute
// http or https URL; it is validated when the message is published.
func URL(raw string) Destination {
	return Destination{kind: destinationURL, value: raw}
}

// Topic addresses a named topic. Publishing to a topic returns one response
// entry per subscribed endpoint.
func Topic(name string) Destination {
	return Destination{kind: destinationTopic, value: name}
}

// String returns the raw URL or topic name.
func (d Destination) String() string { return d.value }

func (d Destination) validate() error {
	if d.value == "" {
		return &ConfigError{Reason: "destination is required"}
	}
	if d.kind == destinationURL {
		u, err := url.Parse(d.value)
		if err != nil {
			return &ConfigError{Reason: "invalid destination URL: " + err.Error()}
		}
		if !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return &ConfigError{Reason: "destination URL must be absolute http(s), got " + d.value}
		}
	}
	return nil
}

// PublishResponse is the per-destination outcome of a publish call. A topic
// publish yields one entry per subscribed endpoint; each entry succeeds or
// fails independently and must be checked via [PublishResponse.Err].
type PublishResponse struct {
	// MessageID identifies the enqueued message for later lookup,
	// cancellation, and event correlation.
	MessageID string `json:"messageId"`

	// URL is the resolved destination endpoint for this entry.
	URL string `json:"url,omitempty"`

	// Deduplicated reports that the message matched an earlier deduplication
	// id and was accepted without being enqueued again.
	Deduplicated bool `json:"deduplicated,omitempty"`

	// Error is the server-side rejection reason for this destination, empty
	// on success.
	Error string `json:"error,omitempty"`
}

// Err returns a non-nil error when this destination's entry was rejected.
// A rejected entry never fails the publish call as a whole.
func (r PublishResponse) Err() error {
	if r.Error == "" {
		return nil
	}
	if r.URL != "" {
		return fmt.Errorf("qstash: destination %s: %s", r.URL, r.Error)
	}
	return fmt.Errorf("qstash: destination rejected: %s", r.Error)
}

// wireHeaders translates a resolved publish configuration into the Upstash-*
// request headers the API expects. Caller-supplied headers go in verbatim.
func (c publishConfig) wireHeaders() http.Header {
	h := make(http.Header)
	for k, values := range c.headers {
		for _, v := range values {
			h.Add(k, v)
		}
	}

	method := c.method
	if method == "" {
		method = http.MethodPost
	}
	h.Set("Upstash-Method", method)

	if c.contentType != "" {
		h.Set("Content-Type", c.contentType)
	}
	if c.delay > 0 {
		h.Set("Upstash-Delay", strconv.Itoa(int(c.delay.Seconds()))+"s")
	}
	if c.notBefore > 0 {
		h.Set("Upstash-Not-Before", strconv.FormatInt(c.notBefore, 10))
	}
	if c.deduplicationID != "" {
		h.Set("Upstash-Deduplication-Id", c.deduplicationID)
	}
	if c.contentBasedDedup != nil {
		h.Set("Upstash-Content-Based-Deduplication", strconv.FormatBool(*c.contentBasedDedup))
	}
	if c.retries != nil {
		h.Set("Upstash-Retries", strconv.Itoa(*c.retries))
	}
	if c.callback != "" {
		h.Set("Upstash-Callback", c.callback)
	}
	if c.cron != "" {
		h.Set("Upstash-Cron", c.cron)
	}
	return h
}

// Publish submits a raw message body for delivery. The body is passed
// through untouched; set a Content-Type with [WithContentType] so the
// destination can interpret it. A nil body publishes an empty message.
//
// The returned slice holds one entry per resolved destination: exactly one
// for a [URL] destination, one per subscribed endpoint for a [Topic].
func (c *Client) Publish(ctx context.Context, dest Destination, body []byte, opts ...PublishOption) ([]PublishResponse, error) {
	return c.publish(ctx, dest, body, resolvePublishConfig(opts))
}

// PublishJSON serializes body as JSON and publishes it with
// Content-Type: application/json.
//
// Example:
//
//	responses, err := client.PublishJSON(ctx,
//	    qstash.URL("https://example.com/webhook"),
//	    map[string]string{"event": "signup"},
//	    qstash.WithDelay(time.Minute),
//	)
func (c *Client) PublishJSON(ctx context.Context, dest Destination, body any, opts ...PublishOption) ([]PublishResponse, error) {
	cfg := resolvePublishConfig(opts)
	if cfg.contentType == "" {
		cfg.contentType = "application/json"
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("qstash: marshal body: %w", err)
	}
	return c.publish(ctx, dest, data, cfg)
}

func (c *Client) publish(ctx context.Context, dest Destination, body []byte, cfg publishConfig) ([]PublishResponse, error) {
	if err := dest.validate(); err != nil {
		return nil, err
	}

	// The destination rides on the request path, URL destinations included:
	// POST /v2/publish/https://example.com/webhook
	path := c.transport.path("/publish/" + dest.value)

	var reqBody any
	if len(body) > 0 {
		reqBody = body
	}
	respBody, err := c.transport.do(ctx, http.MethodPost, path, cfg.wireHeaders(), reqBody)
	if err != nil {
		return nil, err
	}
	return decodePublishResponses(dest, respBody)
}

// decodePublishResponses normalizes the two response shapes of the publish
// endpoint: a single object for a URL destination, an array for a topic.
func decodePublishResponses(dest Destination, body []byte) ([]PublishResponse, error) {
	if dest.kind == destinationTopic {
		var responses []PublishResponse
		if err := json.Unmarshal(body, &responses); err != nil {
			return nil, &DecodeError{Err: err, Body: body}
		}
		return responses, nil
	}

	var single PublishResponse
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, &DecodeError{Err: err, Body: body}
	}
	return []PublishResponse{single}, nil
}

// BatchEntry is one message in a [Client.PublishBatch] call.
type BatchEntry struct {
	Destination Destination
	Body        []byte
	Options     []PublishOption
}

type batchEntryWire struct {
	Destination string              `json:"destination"`
	Headers     map[string][]string `json:"headers,omitempty"`
	Body        string              `json:"body,omitempty"`
}

// PublishBatch publishes multiple messages in a single request. The result
// is ordered like the input: one inner slice per entry, fanned out per
// destination exactly as in [Client.Publish].
func (c *Client) PublishBatch(ctx context.Context, entries []BatchEntry) ([][]PublishResponse, error) {
	wire := make([]batchEntryWire, len(entries))
	for i, e := range entries {
		if err := e.Destination.validate(); err != nil {
			return nil, fmt.Errorf("entry[%d]: %w", i, err)
		}
		cfg := resolvePublishConfig(e.Options)
		wire[i] = batchEntryWire{
			Destination: e.Destination.value,
			Headers:     cfg.wireHeaders(),
			Body:        string(e.Body),
		}
	}

	respBody, err := c.transport.do(ctx, http.MethodPost, c.transport.path("/batch"), nil, wire)
	if err != nil {
		return nil, err
	}

	// Each element mirrors its entry's destination shape: object for a URL,
	// array for a topic.
	var raw []json.RawMessage
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, &DecodeError{Err: err, Body: respBody}
	}
	results := make([][]PublishResponse, len(raw))
	for i, elem := range raw {
		if len(elem) > 0 && elem[0] == '[' {
			if err := json.Unmarshal(elem, &results[i]); err != nil {
				return nil, &DecodeError{Err: err, Body: respBody}
			}
			continue
		}
		var single PublishResponse
		if err := json.Unmarshal(elem, &single); err != nil {
			return nil, &DecodeError{Err: err, Body: respBody}
		}
		results[i] = []PublishResponse{single}
	}
	return results, nil
}
