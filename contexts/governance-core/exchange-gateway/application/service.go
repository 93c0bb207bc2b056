package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	domainerrors "agora/contexts/governance-core/exchange-gateway/domain/errors"
	"agora/contexts/governance-core/exchange-gateway/ports"
	"agora/internal/shared/events"
)

const eventTypePurchaseSettled = "exchange.purchased"

// Service settles governance balance purchases. mintedAmount is
// paymentAmount times the fixed rate; the reserve burn and the buyer mint
// settle as one serialized unit, reserve debit first, so a failed burn never
// leaves a partial mint behind.
type Service struct {
	Ledger         ports.BalanceLedger
	Receipts       ports.ReceiptRepository
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	Rate           uint64
	ReserveAccount string
	DisableEvents  bool
	// Gate serializes purchases so no caller observes a half-settled pair.
	Gate   *sync.Mutex
	Logger *slog.Logger
}

type PurchaseInput struct {
	Buyer         string
	PaymentAmount uint64
}

func (s Service) Purchase(ctx context.Context, input PurchaseInput) (ports.PurchaseReceipt, error) {
	logger := resolveLogger(s.Logger)
	buyer := strings.TrimSpace(input.Buyer)
	if buyer == "" {
		return ports.PurchaseReceipt{}, domainerrors.ErrInvalidPurchaseInput
	}
	if input.PaymentAmount == 0 {
		logger.Warn("purchase rejected for non-positive payment",
			"event", "exchange_purchase_insufficient_payment",
			"module", "governance-core/exchange-gateway",
			"layer", "application",
			"buyer", buyer,
		)
		return ports.PurchaseReceipt{}, domainerrors.ErrInsufficientPayment
	}

	rate := s.resolveRate()
	// Reject payments whose minted amount would wrap uint64; a wrapped product
	// would credit the buyer less than paid for.
	if input.PaymentAmount > math.MaxUint64/rate {
		logger.Warn("purchase rejected for overflowing payment",
			"event", "exchange_purchase_payment_overflow",
			"module", "governance-core/exchange-gateway",
			"layer", "application",
			"buyer", buyer,
			"payment_amount", input.PaymentAmount,
		)
		return ports.PurchaseReceipt{}, domainerrors.ErrInvalidPurchaseInput
	}
	minted := input.PaymentAmount * rate
	now := s.now()

	if s.Gate != nil {
		s.Gate.Lock()
		defer s.Gate.Unlock()
	}

	// Reserve debit precedes the buyer credit: a burn shortfall aborts the
	// purchase before any mint exists, and net total supply stays unchanged
	// on success.
	if err := s.Ledger.Burn(ctx, s.ReserveAccount, minted); err != nil {
		logger.Warn("purchase reserve burn failed",
			"event", "exchange_purchase_reserve_exhausted",
			"module", "governance-core/exchange-gateway",
			"layer", "application",
			"buyer", buyer,
			"minted_amount", minted,
			"error", err.Error(),
		)
		return ports.PurchaseReceipt{}, domainerrors.ErrReserveExhausted
	}
	if err := s.Ledger.Mint(ctx, buyer, minted); err != nil {
		// Restore the reserve so the ledger never keeps a burned-but-unminted
		// purchase.
		if restoreErr := s.Ledger.Mint(ctx, s.ReserveAccount, minted); restoreErr != nil {
			logger.Error("purchase rollback failed",
				"event", "exchange_purchase_rollback_failed",
				"module", "governance-core/exchange-gateway",
				"layer", "application",
				"buyer", buyer,
				"minted_amount", minted,
				"error", restoreErr.Error(),
			)
		}
		return ports.PurchaseReceipt{}, err
	}

	receiptID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.PurchaseReceipt{}, err
	}
	receipt := ports.PurchaseReceipt{
		ReceiptID:     receiptID,
		Buyer:         buyer,
		PaymentAmount: input.PaymentAmount,
		MintedAmount:  minted,
		Rate:          rate,
		PurchasedAt:   now,
	}
	if s.Receipts != nil {
		if err := s.Receipts.SaveReceipt(ctx, receipt); err != nil {
			return ports.PurchaseReceipt{}, err
		}
	}
	if err := s.appendPurchaseOutbox(ctx, receipt); err != nil {
		return ports.PurchaseReceipt{}, err
	}

	logger.Info("purchase settled",
		"event", "exchange_purchase_settled",
		"module", "governance-core/exchange-gateway",
		"layer", "application",
		"buyer", buyer,
		"payment_amount", input.PaymentAmount,
		"minted_amount", minted,
		"rate", rate,
	)
	return receipt, nil
}

func (s Service) ListPurchases(ctx context.Context, buyer string) ([]ports.PurchaseReceipt, error) {
	buyer = strings.TrimSpace(buyer)
	if buyer == "" {
		return nil, domainerrors.ErrInvalidPurchaseInput
	}
	if s.Receipts == nil {
		return []ports.PurchaseReceipt{}, nil
	}
	return s.Receipts.ListReceiptsByBuyer(ctx, buyer)
}

func (s Service) appendPurchaseOutbox(ctx context.Context, receipt ports.PurchaseReceipt) error {
	if s.Outbox == nil || s.DisableEvents {
		return nil
	}
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope := events.Envelope{
		EventID:        eventID,
		EventType:      eventTypePurchaseSettled,
		SourceService:  "agora",
		OccurredAtUTC:  receipt.PurchasedAt.UTC(),
		EntityType:     "purchase",
		EntityID:       receipt.ReceiptID,
		PayloadVersion: 1,
		Payload: map[string]any{
			"receipt_id":     receipt.ReceiptID,
			"buyer":          receipt.Buyer,
			"payment_amount": receipt.PaymentAmount,
			"minted_amount":  receipt.MintedAmount,
			"rate":           receipt.Rate,
		},
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return s.Outbox.AppendOutbox(ctx, ports.OutboxMessage{
		ID:        eventID,
		EventType: eventTypePurchaseSettled,
		Payload:   payload,
		Status:    "pending",
		CreatedAt: receipt.PurchasedAt.UTC(),
	})
}

func (s Service) resolveRate() uint64 {
	if s.Rate == 0 {
		return 100
	}
	return s.Rate
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
