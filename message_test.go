package qstash

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func TestGetMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/v2/messages/msg_123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"messageId": "msg_123",
			"url":       "https://example.com/webhook",
			"method":    "POST",
			"body":      `{"k":"v"}`,
			"createdAt": 1756200000000,
		})
	})

	msg, err := client.GetMessage(context.Background(), "msg_123")
	if err != nil {
		t.Fatalf("GetMessage() error = %v", err)
	}
	if msg.MessageID != "msg_123" {
		t.Errorf("expected msg_123, got %s", msg.MessageID)
	}
	if msg.URL != "https://example.com/webhook" {
		t.Errorf("unexpected url %s", msg.URL)
	}
	if msg.CreatedAt != 1756200000000 {
		t.Errorf("unexpected createdAt %d", msg.CreatedAt)
	}
}

func TestGetMessageNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "message not found"})
	})

	_, err := client.GetMessage(context.Background(), "msg_gone")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCancelMessage(t *testing.T) {
	var gotMethod, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	if err := client.CancelMessage(context.Background(), "msg_123"); err != nil {
		t.Fatalf("CancelMessage() error = %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("expected DELETE, got %s", gotMethod)
	}
	if gotPath != "/v2/messages/msg_123" {
		t.Errorf("unexpected path %s", gotPath)
	}
}

func TestCancelMessageFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "already delivered"})
	})

	err := client.CancelMessage(context.Background(), "msg_123")
	if err == nil {
		t.Fatal("expected error for non-2xx cancel")
	}
}

func TestMessageIDPathEscaping(t *testing.T) {
	var gotURI string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotURI = r.RequestURI
		json.NewEncoder(w).Encode(map[string]any{"messageId": "weird/id"})
	})

	_, err := client.GetMessage(context.Background(), "weird/id")
	if err != nil {
		t.Fatalf("GetMessage() error = %v", err)
	}
	if gotURI != "/v2/messages/weird%2Fid" {
		t.Errorf("expected escaped id in path, got %q", gotURI)
	}
}
