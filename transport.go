package qstash

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://qstash.upstash.io"
	userAgent      = "qstash-go/1.0.0"
)

// transport is a thin wrapper around resty for QStash API communication.
// The bearer token and default headers are attached once at construction.
type transport struct {
	client  *resty.Client
	version APIVersion
	logger  *slog.Logger
}

func newTransport(token string, cfg clientConfig) *transport {
	var rc *resty.Client
	if cfg.httpClient != nil {
		rc = resty.NewWithClient(cfg.httpClient)
	} else {
		rc = resty.New()
	}

	rc.SetBaseURL(strings.TrimRight(cfg.baseURL, "/")).
		SetAuthToken(token).
		SetHeader("User-Agent", userAgent)

	for k, v := range cfg.headers {
		rc.SetHeader(k, v)
	}

	if cfg.retryCount > 0 {
		rc.SetRetryCount(cfg.retryCount).
			SetRetryWaitTime(100 * time.Millisecond).
			SetRetryMaxWaitTime(2 * time.Second).
			AddRetryCondition(retryCondition)
	}
	if cfg.debug {
		rc.SetDebug(true)
	}

	return &transport{
		client:  rc,
		version: cfg.version,
		logger:  cfg.logger,
	}
}

// retryCondition applies only when retries are enabled via WithRetryCount.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == http.StatusTooManyRequests
}

// path prefixes an endpoint suffix with the configured API version.
func (t *transport) path(suffix string) string {
	return "/" + string(t.version) + suffix
}

// do executes an HTTP request and returns the raw response body.
// Network failures surface as *TransportError, non-2xx responses as
// *APIError. The body is returned undecoded so callers control decoding.
func (t *transport) do(ctx context.Context, method, path string, headers http.Header, body any) ([]byte, error) {
	req := t.client.R().SetContext(ctx)
	for k, values := range headers {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		if t.logger != nil {
			t.logger.Error("qstash request failed", "method", method, "path", path, "error", err)
		}
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode() >= 400 {
		apiErr := parseErrorResponse(resp.Body(), resp.StatusCode())
		if t.logger != nil {
			t.logger.Error("qstash request rejected",
				"method", method, "path", path, "status", resp.StatusCode(), "error", apiErr.Message)
		}
		return nil, apiErr
	}

	if t.logger != nil {
		t.logger.Debug("qstash request completed",
			"method", method, "path", path, "status", resp.StatusCode())
	}
	return resp.Body(), nil
}

// get performs an HTTP GET request and decodes the JSON response.
func (t *transport) get(ctx context.Context, path string, result any) error {
	body, err := t.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	return decodeJSON(body, result)
}

// post performs an HTTP POST request and decodes the JSON response.
func (t *transport) post(ctx context.Context, path string, headers http.Header, body, result any) error {
	respBody, err := t.do(ctx, http.MethodPost, path, headers, body)
	if err != nil {
		return err
	}
	return decodeJSON(respBody, result)
}

// delete performs an HTTP DELETE request, discarding any response body.
func (t *transport) delete(ctx context.Context, path string) error {
	_, err := t.do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// decodeJSON unmarshals a response body, mapping failures to *DecodeError.
func decodeJSON(body []byte, result any) error {
	if result == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return &DecodeError{Err: err, Body: body}
	}
	return nil
}

// parseErrorResponse parses a QStash error body into an *APIError.
// The API reports errors as {"error": "..."}; anything else is kept raw.
func parseErrorResponse(body []byte, statusCode int) *APIError {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == "" {
		return &APIError{
			StatusCode: statusCode,
			Message:    strings.TrimSpace(string(body)),
		}
	}
	return &APIError{
		StatusCode: statusCode,
		Message:    envelope.Error,
	}
}
