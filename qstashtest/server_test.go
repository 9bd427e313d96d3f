package qstashtest

import (
	"context"
	"errors"
	"testing"

	qstash "github.com/qstash-community/qstash-go"
)

func TestPublishIsRecorded(t *testing.T) {
	srv := NewServer(t)
	client := srv.Client(t)

	responses, err := client.PublishJSON(context.Background(),
		qstash.URL("https://example.com/webhook"),
		map[string]string{"hello": "world"},
	)
	if err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}
	if len(responses) != 1 || responses[0].MessageID == "" {
		t.Fatalf("unexpected responses %+v", responses)
	}

	srv.AssertPublished(t, "https://example.com/webhook",
		MatchBody([]byte(`{"hello":"world"}`)),
		MatchHeader("Content-Type", "application/json"),
	)
	srv.RefutePublished(t, "https://example.com/other")
}

func TestTopicFanOut(t *testing.T) {
	srv := NewServer(t)
	srv.Subscribe("orders",
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
	)
	client := srv.Client(t)

	responses, err := client.PublishJSON(context.Background(),
		qstash.Topic("orders"), map[string]int{"order": 7})
	if err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}
	if len(responses) != 3 {
		t.Fatalf("expected 3 fan-out entries, got %d", len(responses))
	}
	seen := make(map[string]bool)
	for _, resp := range responses {
		if resp.MessageID == "" {
			t.Errorf("entry missing message id: %+v", resp)
		}
		seen[resp.URL] = true
	}
	if len(seen) != 3 {
		t.Errorf("expected 3 distinct endpoint URLs, got %v", seen)
	}

	srv.AssertPublished(t, "orders", MatchCount(3))
}

func TestDeduplication(t *testing.T) {
	srv := NewServer(t)
	client := srv.Client(t)
	ctx := context.Background()

	first, err := client.PublishJSON(ctx, qstash.URL("https://example.com/hook"),
		map[string]string{"n": "1"}, qstash.WithDeduplicationID("evt-42"))
	if err != nil {
		t.Fatalf("first publish: %v", err)
	}
	second, err := client.PublishJSON(ctx, qstash.URL("https://example.com/hook"),
		map[string]string{"n": "2"}, qstash.WithDeduplicationID("evt-42"))
	if err != nil {
		t.Fatalf("second publish: %v", err)
	}

	if !second[0].Deduplicated {
		t.Error("expected second publish to be deduplicated")
	}
	if second[0].MessageID != first[0].MessageID {
		t.Errorf("deduplicated publish returned a new message id: %s vs %s",
			second[0].MessageID, first[0].MessageID)
	}
	srv.AssertPublished(t, "https://example.com/hook", MatchCount(1))
}

func TestFailDeliveryMovesToDLQ(t *testing.T) {
	srv := NewServer(t)
	client := srv.Client(t)
	ctx := context.Background()

	responses, err := client.PublishJSON(ctx,
		qstash.URL("https://example.com/flaky"), map[string]bool{"ok": false})
	if err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}
	messageID := responses[0].MessageID

	dlqID := srv.FailDelivery(messageID)
	if dlqID == "" {
		t.Fatal("FailDelivery returned empty dlq id for a known message")
	}

	page, err := client.ListDLQMessages(ctx, "")
	if err != nil {
		t.Fatalf("ListDLQMessages() error = %v", err)
	}
	if len(page.Messages) != 1 || page.Messages[0].DLQID != dlqID {
		t.Fatalf("unexpected dlq page %+v", page)
	}

	if _, err := client.GetMessage(ctx, messageID); !errors.Is(err, qstash.ErrNotFound) {
		t.Errorf("expected failed message to be gone, got %v", err)
	}

	if err := client.DeleteDLQMessage(ctx, dlqID); err != nil {
		t.Fatalf("DeleteDLQMessage() error = %v", err)
	}
	page, err = client.ListDLQMessages(ctx, "")
	if err != nil {
		t.Fatalf("ListDLQMessages() after delete: %v", err)
	}
	if len(page.Messages) != 0 {
		t.Errorf("expected empty dlq, got %d entries", len(page.Messages))
	}
}

func TestEventLifecycle(t *testing.T) {
	srv := NewServer(t)
	client := srv.Client(t)
	ctx := context.Background()

	responses, err := client.PublishJSON(ctx,
		qstash.URL("https://example.com/hook"), map[string]int{"n": 1})
	if err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}
	srv.FailDelivery(responses[0].MessageID)

	page, err := client.ListEvents(ctx, "")
	if err != nil {
		t.Fatalf("ListEvents() error = %v", err)
	}
	if len(page.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(page.Events))
	}
	if page.Events[0].State != qstash.StateCreated || page.Events[1].State != qstash.StateFailed {
		t.Errorf("unexpected event states %+v", page.Events)
	}
}

func TestRejectsWrongToken(t *testing.T) {
	srv := NewServer(t)
	client, err := qstash.NewClient("wrong-token", qstash.WithBaseURL(srv.URL()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = client.PublishJSON(context.Background(),
		qstash.URL("https://example.com/hook"), map[string]int{"n": 1})
	if !errors.Is(err, qstash.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestScheduleRoundTrip(t *testing.T) {
	srv := NewServer(t)
	client := srv.Client(t)
	ctx := context.Background()

	created, err := client.CreateSchedule(ctx,
		qstash.URL("https://example.com/report"), "0 8 * * *", []byte(`{"k":"v"}`))
	if err != nil {
		t.Fatalf("CreateSchedule() error = %v", err)
	}

	got, err := client.GetSchedule(ctx, created.ScheduleID)
	if err != nil {
		t.Fatalf("GetSchedule() error = %v", err)
	}
	if got.Cron != "0 8 * * *" || got.Destination != "https://example.com/report" {
		t.Errorf("unexpected schedule %+v", got)
	}

	if err := client.DeleteSchedule(ctx, created.ScheduleID); err != nil {
		t.Fatalf("DeleteSchedule() error = %v", err)
	}
	if _, err := client.GetSchedule(ctx, created.ScheduleID); !errors.Is(err, qstash.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestTopicRoundTrip(t *testing.T) {
	srv := NewServer(t)
	client := srv.Client(t)
	ctx := context.Background()

	err := client.UpsertTopic(ctx, "orders", []qstash.Endpoint{
		{URL: "https://example.com/a"},
		{URL: "https://example.com/b"},
	})
	if err != nil {
		t.Fatalf("UpsertTopic() error = %v", err)
	}

	topic, err := client.GetTopic(ctx, "orders")
	if err != nil {
		t.Fatalf("GetTopic() error = %v", err)
	}
	if len(topic.Endpoints) != 2 {
		t.Fatalf("expected 2 endpoints, got %d", len(topic.Endpoints))
	}

	responses, err := client.PublishJSON(ctx, qstash.Topic("orders"), map[string]int{"n": 1})
	if err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}
	if len(responses) != 2 {
		t.Errorf("expected fan-out to 2 endpoints, got %d", len(responses))
	}

	if err := client.DeleteTopic(ctx, "orders"); err != nil {
		t.Fatalf("DeleteTopic() error = %v", err)
	}
	if _, err := client.GetTopic(ctx, "orders"); !errors.Is(err, qstash.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestResetClearsRecorded(t *testing.T) {
	srv := NewServer(t)
	srv.Subscribe("orders", "https://example.com/a")
	client := srv.Client(t)
	ctx := context.Background()

	if _, err := client.PublishJSON(ctx, qstash.Topic("orders"), map[string]int{"n": 1}); err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}
	srv.Reset()

	if got := srv.Published(); len(got) != 0 {
		t.Errorf("expected no published messages after reset, got %d", len(got))
	}

	// Subscriptions survive a reset.
	responses, err := client.PublishJSON(ctx, qstash.Topic("orders"), map[string]int{"n": 2})
	if err != nil {
		t.Fatalf("PublishJSON() after reset: %v", err)
	}
	if len(responses) != 1 {
		t.Errorf("expected fan-out to surviving subscription, got %d entries", len(responses))
	}
}
