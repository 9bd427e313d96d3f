// Package qstashtest provides an in-memory fake of the QStash API for
// testing code that publishes through this SDK, without network access to
// the real service.
//
// # Usage
//
// Start a fake server, point a real [qstash.Client] at it, and assert on
// what was published:
//
//	func TestSignupNotification(t *testing.T) {
//	    srv := qstashtest.NewServer(t)
//	    client := srv.Client(t)
//
//	    notifySignup(client, "user@example.com")
//
//	    srv.AssertPublished(t, "https://example.com/webhook",
//	        qstashtest.MatchHeader("Content-Type", "application/json"),
//	    )
//	}
//
// Topics registered with [Server.Subscribe] fan out exactly like the real
// service: publishing to the topic yields one response entry per endpoint.
package qstashtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	qstash "github.com/qstash-community/qstash-go"
)

// Token is the bearer token the fake server accepts.
const Token = "qstashtest-token"

// PublishedMessage is a message recorded by the fake server.
type PublishedMessage struct {
	MessageID string

	// Destination is the URL or topic name the publish call addressed.
	Destination string

	// URL is the resolved endpoint; for a topic publish each fan-out entry
	// records its own endpoint URL.
	URL string

	Body      []byte
	Header    http.Header
	CreatedAt time.Time
}

// Server is an in-memory fake of the QStash REST API.
type Server struct {
	mu         sync.Mutex
	httpServer *httptest.Server
	topics     map[string][]qstash.Endpoint
	published  []PublishedMessage
	messages   map[string]PublishedMessage
	dlq        map[string]PublishedMessage
	events     []qstash.Event
	schedules  map[string]qstash.Schedule
	dedup      map[string]string
}

// NewServer starts a fake QStash server. It is shut down automatically when
// the test finishes.
func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		topics:    make(map[string][]qstash.Endpoint),
		messages:  make(map[string]PublishedMessage),
		dlq:       make(map[string]PublishedMessage),
		schedules: make(map[string]qstash.Schedule),
		dedup:     make(map[string]string),
	}
	s.httpServer = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.httpServer.Close)
	return s
}

// URL returns the base URL of the fake server.
func (s *Server) URL() string { return s.httpServer.URL }

// Client returns a real [qstash.Client] pointed at the fake server.
func (s *Server) Client(t *testing.T, opts ...qstash.ClientOption) *qstash.Client {
	t.Helper()
	opts = append([]qstash.ClientOption{qstash.WithBaseURL(s.httpServer.URL)}, opts...)
	client, err := qstash.NewClient(Token, opts...)
	if err != nil {
		t.Fatalf("qstashtest: Client: %v", err)
	}
	return client
}

// Subscribe registers endpoint URLs under a topic name. Publishing to the
// topic afterwards fans out one message per endpoint.
func (s *Server) Subscribe(topic string, endpointURLs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range endpointURLs {
		s.topics[topic] = append(s.topics[topic], qstash.Endpoint{URL: u})
	}
}

// FailDelivery simulates the service exhausting delivery retries for a
// message: it moves the message to the dead letter queue and appends a
// FAILED event. Returns the DLQ id, or "" when the message is unknown.
func (s *Server) FailDelivery(messageID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.messages[messageID]
	if !ok {
		return ""
	}
	delete(s.messages, messageID)
	dlqID := "dlq_" + uuid.NewString()
	s.dlq[dlqID] = msg
	s.events = append(s.events, qstash.Event{
		Time:      time.Now().UnixMilli(),
		State:     qstash.StateFailed,
		MessageID: messageID,
		URL:       msg.URL,
	})
	return dlqID
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Header.Get("Authorization") != "Bearer "+Token {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	path := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/v2"), "/v1")
	switch {
	case strings.HasPrefix(path, "/publish/"):
		s.handlePublish(w, r, strings.TrimPrefix(path, "/publish/"))
	case path == "/batch":
		s.handleBatch(w, r)
	case strings.HasPrefix(path, "/messages/"):
		s.handleMessage(w, r, strings.TrimPrefix(path, "/messages/"))
	case path == "/events":
		s.handleEvents(w, r)
	case path == "/dlq":
		s.handleDLQList(w)
	case strings.HasPrefix(path, "/dlq/"):
		s.handleDLQDelete(w, strings.TrimPrefix(path, "/dlq/"))
	case path == "/schedules" || strings.HasPrefix(path, "/schedules/"):
		s.handleSchedules(w, r, strings.TrimPrefix(path, "/schedules"))
	case path == "/topics" || strings.HasPrefix(path, "/topics/"):
		s.handleTopics(w, r, strings.TrimPrefix(path, "/topics"))
	default:
		writeError(w, http.StatusNotFound, "unknown endpoint "+r.URL.Path)
	}
}

// record stores one message addressed to destination and resolved to url.
// Caller must hold s.mu.
func (s *Server) record(destination, url string, body []byte, header http.Header) qstash.PublishResponse {
	if id := header.Get("Upstash-Deduplication-Id"); id != "" {
		if existing, ok := s.dedup[id]; ok {
			return qstash.PublishResponse{MessageID: existing, URL: url, Deduplicated: true}
		}
	}

	msg := PublishedMessage{
		MessageID:   "msg_" + uuid.NewString(),
		Destination: destination,
		URL:         url,
		Body:        body,
		Header:      header.Clone(),
		CreatedAt:   time.Now(),
	}
	s.published = append(s.published, msg)
	s.messages[msg.MessageID] = msg
	s.events = append(s.events, qstash.Event{
		Time:      msg.CreatedAt.UnixMilli(),
		State:     qstash.StateCreated,
		MessageID: msg.MessageID,
		URL:       url,
	})
	if id := header.Get("Upstash-Deduplication-Id"); id != "" {
		s.dedup[id] = msg.MessageID
	}
	return qstash.PublishResponse{MessageID: msg.MessageID, URL: url}
}

func (s *Server) publishTo(destination string, body []byte, header http.Header) (responses []qstash.PublishResponse, topic bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	endpoints, isTopic := s.topics[destination]
	if !isTopic {
		return []qstash.PublishResponse{s.record(destination, destination, body, header)}, false
	}
	for _, ep := range endpoints {
		responses = append(responses, s.record(destination, ep.URL, body, header))
	}
	return responses, true
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request, destination string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "publish requires POST")
		return
	}
	body, _ := io.ReadAll(r.Body)

	responses, topic := s.publishTo(destination, body, r.Header)
	w.WriteHeader(http.StatusCreated)
	if topic {
		json.NewEncoder(w).Encode(responses)
		return
	}
	json.NewEncoder(w).Encode(responses[0])
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var entries []struct {
		Destination string              `json:"destination"`
		Headers     map[string][]string `json:"headers"`
		Body        string              `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		writeError(w, http.StatusBadRequest, "invalid batch body: "+err.Error())
		return
	}

	results := make([]any, 0, len(entries))
	for _, e := range entries {
		responses, topic := s.publishTo(e.Destination, []byte(e.Body), http.Header(e.Headers))
		if topic {
			results = append(results, responses)
		} else {
			results = append(results, responses[0])
		}
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(results)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request, id string) {
	s.mu.Lock()
	msg, ok := s.messages[id]
	if ok && r.Method == http.MethodDelete {
		delete(s.messages, id)
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "message "+id+" not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		json.NewEncoder(w).Encode(qstash.Message{
			MessageID: msg.MessageID,
			URL:       msg.URL,
			Method:    msg.Header.Get("Upstash-Method"),
			Header:    msg.Header,
			Body:      string(msg.Body),
			CreatedAt: msg.CreatedAt.UnixMilli(),
		})
	case http.MethodDelete:
		w.WriteHeader(http.StatusOK)
	default:
		writeError(w, http.StatusMethodNotAllowed, "unsupported method")
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	events := make([]qstash.Event, len(s.events))
	copy(events, s.events)
	s.mu.Unlock()

	json.NewEncoder(w).Encode(map[string]any{"events": events})
}

func (s *Server) handleDLQList(w http.ResponseWriter) {
	s.mu.Lock()
	messages := make([]map[string]any, 0, len(s.dlq))
	for dlqID, msg := range s.dlq {
		messages = append(messages, map[string]any{
			"dlqId":     dlqID,
			"messageId": msg.MessageID,
			"url":       msg.URL,
			"body":      string(msg.Body),
			"createdAt": msg.CreatedAt.UnixMilli(),
		})
	}
	s.mu.Unlock()

	json.NewEncoder(w).Encode(map[string]any{"messages": messages})
}

func (s *Server) handleDLQDelete(w http.ResponseWriter, dlqID string) {
	s.mu.Lock()
	_, ok := s.dlq[dlqID]
	delete(s.dlq, dlqID)
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "dlq entry "+dlqID+" not found")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleSchedules(w http.ResponseWriter, r *http.Request, rest string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && rest == "":
		schedules := make([]qstash.Schedule, 0, len(s.schedules))
		for _, sched := range s.schedules {
			schedules = append(schedules, sched)
		}
		json.NewEncoder(w).Encode(schedules)

	case r.Method == http.MethodPost:
		destination := strings.TrimPrefix(rest, "/")
		body, _ := io.ReadAll(r.Body)
		sched := qstash.Schedule{
			ScheduleID:  "scd_" + uuid.NewString(),
			Cron:        r.Header.Get("Upstash-Cron"),
			Destination: destination,
			Method:      r.Header.Get("Upstash-Method"),
			Body:        string(body),
			CreatedAt:   time.Now().UnixMilli(),
		}
		s.schedules[sched.ScheduleID] = sched
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"scheduleId": sched.ScheduleID})

	case r.Method == http.MethodGet:
		id := strings.TrimPrefix(rest, "/")
		sched, ok := s.schedules[id]
		if !ok {
			writeError(w, http.StatusNotFound, "schedule "+id+" not found")
			return
		}
		json.NewEncoder(w).Encode(sched)

	case r.Method == http.MethodDelete:
		id := strings.TrimPrefix(rest, "/")
		if _, ok := s.schedules[id]; !ok {
			writeError(w, http.StatusNotFound, "schedule "+id+" not found")
			return
		}
		delete(s.schedules, id)
		w.WriteHeader(http.StatusOK)

	default:
		writeError(w, http.StatusMethodNotAllowed, "unsupported method")
	}
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request, rest string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := strings.TrimPrefix(rest, "/")
	name = strings.TrimSuffix(name, "/endpoints")

	switch {
	case r.Method == http.MethodGet && name == "":
		topics := make([]qstash.TopicInfo, 0, len(s.topics))
		for topicName, endpoints := range s.topics {
			topics = append(topics, qstash.TopicInfo{Name: topicName, Endpoints: endpoints})
		}
		json.NewEncoder(w).Encode(topics)

	case r.Method == http.MethodGet:
		endpoints, ok := s.topics[name]
		if !ok {
			writeError(w, http.StatusNotFound, "topic "+name+" not found")
			return
		}
		json.NewEncoder(w).Encode(qstash.TopicInfo{Name: name, Endpoints: endpoints})

	case r.Method == http.MethodPost:
		var body struct {
			Endpoints []qstash.Endpoint `json:"endpoints"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid endpoints body: "+err.Error())
			return
		}
		s.topics[name] = append(s.topics[name], body.Endpoints...)
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodDelete:
		if _, ok := s.topics[name]; !ok {
			writeError(w, http.StatusNotFound, "topic "+name+" not found")
			return
		}
		delete(s.topics, name)
		w.WriteHeader(http.StatusOK)

	default:
		writeError(w, http.StatusMethodNotAllowed, "unsupported method")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
