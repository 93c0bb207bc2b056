package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"agora/contexts/governance-core/governance-engine/adapters/memory"
	"agora/contexts/governance-core/governance-engine/ports"
	"agora/internal/shared/events"
)

type capturingPublisher struct {
	published []events.Outbound
	failOn    string
}

func (p *capturingPublisher) Publish(_ context.Context, _ string, envelope events.Outbound) error {
	if p.failOn != "" && envelope.EventID == p.failOn {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, envelope)
	return nil
}

func seedOutbox(t *testing.T, store *memory.Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		err := store.AppendOutbox(context.Background(), ports.OutboxMessage{
			ID:        id,
			EventType: "vote.cast",
			Payload:   []byte(`{"entity_id":"1"}`),
			Status:    "pending",
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("seed outbox failed: %v", err)
		}
	}
}

func TestRelayPublishesPendingAndMarksPublished(t *testing.T) {
	store := memory.NewStore(nil)
	seedOutbox(t, store, "m1", "m2")
	publisher := &capturingPublisher{}

	relay := OutboxRelay{Outbox: store, Publisher: publisher}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}

	if len(publisher.published) != 2 {
		t.Fatalf("expected 2 published envelopes, got %d", len(publisher.published))
	}
	if publisher.published[0].EntityID != "1" {
		t.Fatalf("expected entity id resolved from payload, got %q", publisher.published[0].EntityID)
	}

	pending, _ := store.ListPendingOutbox(context.Background(), 10)
	if len(pending) != 0 {
		t.Fatalf("expected no pending rows after relay, got %d", len(pending))
	}
}

func TestRelayStopsOnPublishFailureAndMarksRowFailed(t *testing.T) {
	store := memory.NewStore(nil)
	seedOutbox(t, store, "m1", "m2", "m3")
	publisher := &capturingPublisher{failOn: "m2"}

	relay := OutboxRelay{Outbox: store, Publisher: publisher}
	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatal("expected relay error on broker failure")
	}

	if len(publisher.published) != 1 {
		t.Fatalf("expected publishing to stop after failure, got %d published", len(publisher.published))
	}

	var failed, pending int
	for _, message := range store.OutboxMessages() {
		switch message.Status {
		case "failed":
			failed++
		case "pending":
			pending++
		}
	}
	if failed != 1 || pending != 1 {
		t.Fatalf("expected 1 failed and 1 still pending, got failed=%d pending=%d", failed, pending)
	}
}

func TestRelayNoPendingIsNoop(t *testing.T) {
	store := memory.NewStore(nil)
	publisher := &capturingPublisher{}
	relay := OutboxRelay{Outbox: store, Publisher: publisher, BatchSize: 5}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("expected noop run, got %v", err)
	}
	if len(publisher.published) != 0 {
		t.Fatalf("expected nothing published, got %d", len(publisher.published))
	}
}
