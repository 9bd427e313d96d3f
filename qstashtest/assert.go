package qstashtest

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// MatchOption narrows which recorded messages an assertion considers.
type MatchOption func(*matchCriteria)

type matchCriteria struct {
	body   []byte
	header map[string]string
	count  int // 0 means "at least 1"
}

// MatchBody requires the message body to equal the given bytes.
func MatchBody(body []byte) MatchOption {
	return func(c *matchCriteria) { c.body = body }
}

// MatchHeader requires the message to carry the given header value.
func MatchHeader(key, value string) MatchOption {
	return func(c *matchCriteria) {
		if c.header == nil {
			c.header = make(map[string]string)
		}
		c.header[key] = value
	}
}

// MatchCount requires exactly n matching messages.
func MatchCount(n int) MatchOption {
	return func(c *matchCriteria) { c.count = n }
}

// AssertPublished asserts that at least one message was published to the
// given destination (URL or topic name), or exactly N with [MatchCount].
func (s *Server) AssertPublished(t *testing.T, destination string, opts ...MatchOption) {
	t.Helper()
	criteria := buildCriteria(opts)
	matches := s.match(destination, criteria)

	if criteria.count > 0 {
		if len(matches) != criteria.count {
			t.Errorf("AssertPublished: expected %d message(s) to %q, found %d%s",
				criteria.count, destination, len(matches), s.describe(destination))
		}
	} else if len(matches) == 0 {
		t.Errorf("AssertPublished: expected at least one message to %q, found none%s",
			destination, s.describe(destination))
	}
}

// RefutePublished asserts that no matching message was published to the
// given destination.
func (s *Server) RefutePublished(t *testing.T, destination string, opts ...MatchOption) {
	t.Helper()
	matches := s.match(destination, buildCriteria(opts))
	if len(matches) > 0 {
		t.Errorf("RefutePublished: expected no messages to %q, found %d", destination, len(matches))
	}
}

// Published returns all recorded messages, optionally filtered by the
// destination they were addressed to.
func (s *Server) Published(destination ...string) []PublishedMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(destination) == 0 {
		result := make([]PublishedMessage, len(s.published))
		copy(result, s.published)
		return result
	}
	var result []PublishedMessage
	for _, m := range s.published {
		if m.Destination == destination[0] {
			result = append(result, m)
		}
	}
	return result
}

// Reset clears all recorded messages, events, and DLQ entries. Topic
// subscriptions and schedules survive a reset.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = nil
	s.events = nil
	s.messages = make(map[string]PublishedMessage)
	s.dlq = make(map[string]PublishedMessage)
	s.dedup = make(map[string]string)
}

func buildCriteria(opts []MatchOption) matchCriteria {
	var c matchCriteria
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (s *Server) match(destination string, criteria matchCriteria) []PublishedMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []PublishedMessage
	for _, m := range s.published {
		if m.Destination != destination {
			continue
		}
		if criteria.body != nil && !bytes.Equal(m.Body, criteria.body) {
			continue
		}
		if !headersMatch(m, criteria.header) {
			continue
		}
		matches = append(matches, m)
	}
	return matches
}

func headersMatch(m PublishedMessage, want map[string]string) bool {
	for k, v := range want {
		if m.Header.Get(k) != v {
			return false
		}
	}
	return true
}

func (s *Server) describe(destination string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.published) == 0 {
		return " (nothing was published)"
	}
	var others []string
	for _, m := range s.published {
		if m.Destination != destination {
			others = append(others, m.Destination)
		}
	}
	if len(others) == 0 {
		return ""
	}
	return fmt.Sprintf(" (messages were published to: %s)", strings.Join(others, ", "))
}
