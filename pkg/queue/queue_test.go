package queue

import (
	"testing"
	"time"
)

func TestShareAccessedRoundTrip(t *testing.T) {
	accessedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	payload := ShareAccessedPayload{
		ShareToken: "sh_01ABCDEF",
		Owner:      "alice@example.com",
		AccessedAt: accessedAt,
		UserAgent:  "Mozilla/5.0",
		Country:    "DE",
	}

	msg, err := NewWatermillMessage(TopicShareAccessed, payload, WithTraceID("trace-123"))
	if err != nil {
		t.Fatalf("NewWatermillMessage: %v", err)
	}

	if msg.UUID == "" {
		t.Error("message UUID should not be empty")
	}

	if got := msg.Metadata.Get("topic"); got != TopicShareAccessed {
		t.Errorf("metadata topic = %q, want %q", got, TopicShareAccessed)
	}

	if got := msg.Metadata.Get("trace_id"); got != "trace-123" {
		t.Errorf("metadata trace_id = %q, want %q", got, "trace-123")
	}

	env, err := ParseShareAccessed(msg)
	if err != nil {
		t.Fatalf("ParseShareAccessed: %v", err)
	}

	if env.Header.Topic != TopicShareAccessed {
		t.Errorf("header topic = %q, want %q", env.Header.Topic, TopicShareAccessed)
	}

	if env.Header.Version != PayloadVersionV1 {
		t.Errorf("header version = %q, want %q", env.Header.Version, PayloadVersionV1)
	}

	if env.Payload.ShareToken != payload.ShareToken {
		t.Errorf("payload token = %q, want %q", env.Payload.ShareToken, payload.ShareToken)
	}

	if !env.Payload.AccessedAt.Equal(accessedAt) {
		t.Errorf("payload accessed_at = %v, want %v", env.Payload.AccessedAt, accessedAt)
	}

	if env.Payload.Country != "DE" {
		t.Errorf("payload country = %q, want %q", env.Payload.Country, "DE")
	}
}

func TestEventHeaderDefaults(t *testing.T) {
	before := time.Now().UTC()
	hdr := NewEventHeader(TopicDepositStored)

	if hdr.Producer != "vaultshare" {
		t.Errorf("producer = %q, want %q", hdr.Producer, "vaultshare")
	}

	if hdr.OccurredAt.Before(before) {
		t.Errorf("occurred_at %v earlier than %v", hdr.OccurredAt, before)
	}

	custom := NewEventHeader(TopicDepositStored, WithProducer("edge"))
	if custom.Producer != "edge" {
		t.Errorf("producer = %q, want %q", custom.Producer, "edge")
	}
}
