package producer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"multitenant-cms/internal/telemetry/domain"
)

func TestNewKafkaProducer_Disabled(t *testing.T) {
	p, err := NewKafkaProducer(nil, "cms-session-events")
	if err != nil || p != nil {
		t.Fatalf("no brokers: want (nil, nil), got (%v, %v)", p, err)
	}
	p, err = NewKafkaProducer([]string{"localhost:9092"}, "")
	if err != nil || p != nil {
		t.Fatalf("no topic: want (nil, nil), got (%v, %v)", p, err)
	}
}

func TestKafkaProducer_NilIsNoop(t *testing.T) {
	var p *KafkaProducer
	if err := p.Emit(context.Background(), &domain.Event{Type: domain.EventSessionIssued}); err != nil {
		t.Fatalf("nil Emit: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
}

func TestNewKafkaConsumer_RequiresGroup(t *testing.T) {
	if _, err := NewKafkaConsumer([]string{"localhost:9092"}, "cms-session-events", "", nil); err == nil {
		t.Fatal("expected error without group id")
	}
}

func TestDecode(t *testing.T) {
	account := int64(1)
	in := &domain.Event{
		ID: "e1", Type: domain.EventSessionIssued, SessionID: "s1", UserID: 2, AccountID: &account,
		Source: "session-manager", OccurredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	payload, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.SessionID != "s1" || out.UserID != 2 || out.AccountID == nil || *out.AccountID != 1 {
		t.Errorf("decoded %+v", out)
	}
	if !out.OccurredAt.Equal(in.OccurredAt) {
		t.Errorf("occurred_at = %v, want %v", out.OccurredAt, in.OccurredAt)
	}
}

func TestDecode_Invalid(t *testing.T) {
	for _, payload := range []string{"not json", `{"id":"x"}`} {
		if _, err := Decode([]byte(payload)); err == nil {
			t.Errorf("Decode(%q): expected error", payload)
		}
	}
}
