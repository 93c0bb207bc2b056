package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"agora/contexts/governance-core/exchange-gateway/ports"

	"github.com/google/uuid"
)

// Store is the in-memory receipt and outbox store for tests and dev wiring.
type Store struct {
	mu       sync.RWMutex
	receipts map[string]ports.PurchaseReceipt
	outbox   []ports.OutboxMessage
}

func NewStore() *Store {
	return &Store{
		receipts: make(map[string]ports.PurchaseReceipt),
	}
}

func (s *Store) SaveReceipt(_ context.Context, receipt ports.PurchaseReceipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts[strings.TrimSpace(receipt.ReceiptID)] = receipt
	return nil
}

func (s *Store) ListReceiptsByBuyer(_ context.Context, buyer string) ([]ports.PurchaseReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	buyer = strings.TrimSpace(buyer)
	items := make([]ports.PurchaseReceipt, 0)
	// Account identity is case-sensitive, matching the ledger keys.
	for _, receipt := range s.receipts {
		if receipt.Buyer == buyer {
			items = append(items, receipt)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].PurchasedAt.Before(items[j].PurchasedAt) })
	return items, nil
}

func (s *Store) AppendOutbox(_ context.Context, message ports.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, message)
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.OutboxMessage, 0, limit)
	for _, message := range s.outbox {
		if message.Status != "pending" {
			continue
		}
		items = append(items, message)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, messageID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].ID == messageID {
			s.outbox[i].Status = "published"
			at := publishedAt
			s.outbox[i].PublishedAt = &at
			return nil
		}
	}
	return nil
}

func (s *Store) MarkOutboxFailed(_ context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].ID == messageID {
			s.outbox[i].Status = "failed"
			s.outbox[i].RetryCount++
			return nil
		}
	}
	return nil
}

// OutboxMessages returns a copy of the outbox for test assertions.
func (s *Store) OutboxMessages() []ports.OutboxMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.OutboxMessage(nil), s.outbox...)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
