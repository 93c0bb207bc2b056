package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"agora/contexts/governance-core/exchange-gateway/adapters/memory"
	"agora/contexts/governance-core/exchange-gateway/application"
	"agora/contexts/governance-core/exchange-gateway/ports"
	"agora/internal/platform/ledger"
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

func TestRelayPublishesSettledPurchaseEvents(t *testing.T) {
	store := memory.NewStore()
	service := application.Service{
		Ledger:         ledger.NewMemory(map[string]uint64{"treasury": 10_000}),
		Receipts:       store,
		Outbox:         store,
		Clock:          store,
		IDGen:          store,
		Rate:           100,
		ReserveAccount: "treasury",
		Gate:           &sync.Mutex{},
	}
	ctx := context.Background()

	receipt, err := service.Purchase(ctx, application.PurchaseInput{Buyer: "bob", PaymentAmount: 2})
	if err != nil {
		t.Fatalf("purchase failed: %v", err)
	}

	publisher := &capturingPublisher{}
	relay := OutboxRelay{Outbox: store, Publisher: publisher}
	if err := relay.RunOnce(ctx); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}

	if len(publisher.published) != 1 {
		t.Fatalf("expected 1 published envelope, got %d", len(publisher.published))
	}
	envelope := publisher.published[0]
	if envelope.EventType != "exchange.purchased" {
		t.Fatalf("expected exchange.purchased, got %q", envelope.EventType)
	}
	if envelope.EntityID != receipt.ReceiptID {
		t.Fatalf("expected entity id %q, got %q", receipt.ReceiptID, envelope.EntityID)
	}

	// The purchase event must leave the pending state once published.
	pending, _ := store.ListPendingOutbox(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("expected no pending rows after relay, got %d", len(pending))
	}
	messages := store.OutboxMessages()
	if messages[0].Status != "published" || messages[0].PublishedAt == nil {
		t.Fatalf("expected published row, got %+v", messages[0])
	}
}

func TestRelayStopsOnPublishFailureAndMarksRowFailed(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	for _, id := range []string{"m1", "m2", "m3"} {
		err := store.AppendOutbox(ctx, ports.OutboxMessage{
			ID:        id,
			EventType: "exchange.purchased",
			Payload:   []byte(`{"entity_id":"r1"}`),
			Status:    "pending",
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("seed outbox failed: %v", err)
		}
	}

	publisher := &capturingPublisher{failOn: "m2"}
	relay := OutboxRelay{Outbox: store, Publisher: publisher}
	if err := relay.RunOnce(ctx); err == nil {
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
	store := memory.NewStore()
	publisher := &capturingPublisher{}
	relay := OutboxRelay{Outbox: store, Publisher: publisher, BatchSize: 5}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("expected noop run, got %v", err)
	}
	if len(publisher.published) != 0 {
		t.Fatalf("expected nothing published, got %d", len(publisher.published))
	}
}
