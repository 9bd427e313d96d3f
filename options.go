package qstash

import (
	"log/slog"
	"net/http"
	"time"
)

// --- Client Options ---

// clientConfig holds the resolved configuration for a Client.
type clientConfig struct {
	baseURL    string
	version    APIVersion
	httpClient *http.Client
	headers    map[string]string
	logger     *slog.Logger
	retryCount int
	debug      bool
}

// ClientOption configures the QStash client.
type ClientOption func(*clientConfig)

// WithBaseURL overrides the QStash API base URL. The default is
// https://qstash.upstash.io. Mostly useful for tests and self-hosted proxies.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = baseURL
	}
}

// WithAPIVersion selects the QStash REST API version. Default: [V2].
func WithAPIVersion(v APIVersion) ClientOption {
	return func(c *clientConfig) {
		c.version = v
	}
}

// WithHTTPClient sets a custom net/http.Client for all requests. The client
// is shared, not owned: it is never closed or mutated by this package.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithHeader sets a custom header on every request the client sends.
func WithHeader(key, value string) ClientOption {
	return func(c *clientConfig) {
		if c.headers == nil {
			c.headers = make(map[string]string)
		}
		c.headers[key] = value
	}
}

// WithLogger sets a structured logger for the client's transport. When set,
// every request logs its method, path, and status at debug level, and
// failures log at error level. Pass nil to disable logging (the default).
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithRetryCount enables transport-level retries for failed requests
// (network errors, 5xx, and 429 responses). The default is 0: each call maps
// to exactly one outbound request and any failure surfaces to the caller.
//
// This is unrelated to delivery retries, which QStash performs server-side
// and which are configured per message with [WithDeliveryRetries].
func WithRetryCount(n int) ClientOption {
	return func(c *clientConfig) {
		c.retryCount = n
	}
}

// WithDebug enables verbose request/response dumps from the underlying HTTP
// library. Intended for local troubleshooting only; dumps include headers.
func WithDebug(debug bool) ClientOption {
	return func(c *clientConfig) {
		c.debug = debug
	}
}

func resolveClientConfig(opts []ClientOption) clientConfig {
	cfg := clientConfig{
		baseURL: defaultBaseURL,
		version: V2,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// --- Publish Options ---

// publishConfig holds the resolved configuration for a publish operation.
// Every field maps onto an Upstash-* request header.
type publishConfig struct {
	headers           http.Header
	method            string
	contentType       string
	delay             time.Duration
	notBefore         int64
	deduplicationID   string
	contentBasedDedup *bool
	retries           *int
	callback          string
	cron              string
}

// PublishOption configures a single publish or schedule call.
type PublishOption func(*publishConfig)

// WithMethod sets the HTTP method QStash uses when delivering the message to
// its destination. Default: POST.
func WithMethod(method string) PublishOption {
	return func(c *publishConfig) {
		c.method = method
	}
}

// WithDelay delays delivery of the message by the given duration, rounded
// down to whole seconds.
func WithDelay(d time.Duration) PublishOption {
	return func(c *publishConfig) {
		c.delay = d
	}
}

// WithNotBefore sets the earliest delivery time of the message. It overrides
// [WithDelay] when both are present.
func WithNotBefore(t time.Time) PublishOption {
	return func(c *publishConfig) {
		c.notBefore = t.Unix()
	}
}

// WithDeduplicationID sets an explicit deduplication id for the message.
// A duplicate is accepted by the API but not enqueued again; the response
// entry reports Deduplicated=true. Deduplication ids are retained by the
// service for 90 days.
func WithDeduplicationID(id string) PublishOption {
	return func(c *publishConfig) {
		c.deduplicationID = id
	}
}

// WithContentBasedDeduplication derives the deduplication id from a hash of
// the message headers, body, and destination.
func WithContentBasedDeduplication(enabled bool) PublishOption {
	return func(c *publishConfig) {
		c.contentBasedDedup = &enabled
	}
}

// WithDeliveryRetries caps how many times QStash retries delivery when the
// destination responds outside the 200-299 range. The service default is the
// maximum retry quota of the account.
func WithDeliveryRetries(n int) PublishOption {
	return func(c *publishConfig) {
		c.retries = &n
	}
}

// WithCallback sets a publicly reachable callback URL that receives the
// destination's response after delivery.
func WithCallback(url string) PublishOption {
	return func(c *publishConfig) {
		c.callback = url
	}
}

// WithPublishHeader attaches a header to the published message. Headers are
// sent to QStash verbatim and forwarded to the destination.
func WithPublishHeader(key, value string) PublishOption {
	return func(c *publishConfig) {
		if c.headers == nil {
			c.headers = make(http.Header)
		}
		c.headers.Add(key, value)
	}
}

// WithContentType sets the Content-Type of the message body. Without it,
// [Client.Publish] lets the transport sniff one from the raw bytes;
// [Client.PublishJSON] defaults to application/json.
func WithContentType(ct string) PublishOption {
	return func(c *publishConfig) {
		c.contentType = ct
	}
}

func resolvePublishConfig(opts []PublishOption) publishConfig {
	var cfg publishConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
