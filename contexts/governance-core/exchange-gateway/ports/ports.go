package ports

import (
	"context"
	"time"
)

// BalanceLedger is the slice of the external fungible balance ledger the
// gateway needs. Burn fails when amount exceeds the account balance; both
// mint and burn adjust total supply.
type BalanceLedger interface {
	BalanceOf(ctx context.Context, account string) (uint64, error)
	Mint(ctx context.Context, account string, amount uint64) error
	Burn(ctx context.Context, account string, amount uint64) error
	TotalSupply(ctx context.Context) (uint64, error)
}

// PurchaseReceipt is the persisted audit record for one settled purchase.
type PurchaseReceipt struct {
	ReceiptID     string
	Buyer         string
	PaymentAmount uint64
	MintedAmount  uint64
	Rate          uint64
	PurchasedAt   time.Time
}

type ReceiptRepository interface {
	SaveReceipt(ctx context.Context, receipt PurchaseReceipt) error
	ListReceiptsByBuyer(ctx context.Context, buyer string) ([]PurchaseReceipt, error)
}

type OutboxMessage struct {
	ID          string
	EventType   string
	Payload     []byte
	Status      string
	RetryCount  int
	CreatedAt   time.Time
	PublishedAt *time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, message OutboxMessage) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, messageID string, publishedAt time.Time) error
	MarkOutboxFailed(ctx context.Context, messageID string) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
