package qstash

import (
	"net/url"
	"os"
)

// APIVersion selects the QStash REST API version.
type APIVersion string

const (
	V1 APIVersion = "v1"
	V2 APIVersion = "v2"
)

// Environment variables read by [NewClientFromEnv].
const (
	EnvToken = "QSTASH_TOKEN"
	EnvURL   = "QSTASH_URL"
)

// Client is a QStash API client. It holds the bearer token and transport
// configuration, all of which is immutable after construction, so a single
// Client is safe for concurrent use. Each call is an independent request;
// the client keeps no state between calls.
type Client struct {
	transport *transport
}

// NewClient creates a QStash client authenticated with the given token.
// The token is required; base URL, API version, HTTP client, and logging are
// configured through options. No network call is made here.
//
// Example:
//
//	client, err := qstash.NewClient(os.Getenv("QSTASH_TOKEN"))
func NewClient(token string, opts ...ClientOption) (*Client, error) {
	if token == "" {
		return nil, &ConfigError{Reason: "token is required"}
	}
	cfg := resolveClientConfig(opts)
	if err := validateBaseURL(cfg.baseURL); err != nil {
		return nil, err
	}
	return &Client{
		transport: newTransport(token, cfg),
	}, nil
}

// NewClientFromEnv creates a QStash client from the QSTASH_TOKEN and
// optional QSTASH_URL environment variables. Explicit options still apply on
// top and take precedence over the environment.
func NewClientFromEnv(opts ...ClientOption) (*Client, error) {
	if u := os.Getenv(EnvURL); u != "" {
		opts = append([]ClientOption{WithBaseURL(u)}, opts...)
	}
	return NewClient(os.Getenv(EnvToken), opts...)
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &ConfigError{Reason: "invalid base URL: " + err.Error()}
	}
	if !u.IsAbs() || u.Host == "" {
		return &ConfigError{Reason: "base URL must be absolute with a host, got " + raw}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ConfigError{Reason: "base URL scheme must be http or https, got " + u.Scheme}
	}
	return nil
}
