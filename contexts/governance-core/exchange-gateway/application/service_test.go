package application

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	domainerrors "agora/contexts/governance-core/exchange-gateway/domain/errors"
	"agora/contexts/governance-core/exchange-gateway/ports"
	"agora/internal/platform/ledger"
)

type fakeReceipts struct {
	saved []ports.PurchaseReceipt
}

func (r *fakeReceipts) SaveReceipt(_ context.Context, receipt ports.PurchaseReceipt) error {
	r.saved = append(r.saved, receipt)
	return nil
}

func (r *fakeReceipts) ListReceiptsByBuyer(_ context.Context, buyer string) ([]ports.PurchaseReceipt, error) {
	var matched []ports.PurchaseReceipt
	for _, receipt := range r.saved {
		if receipt.Buyer == buyer {
			matched = append(matched, receipt)
		}
	}
	return matched, nil
}

type fakeOutbox struct {
	messages []ports.OutboxMessage
}

func (o *fakeOutbox) AppendOutbox(_ context.Context, message ports.OutboxMessage) error {
	o.messages = append(o.messages, message)
	return nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type staticIDGen struct{ id string }

func (g staticIDGen) NewID(_ context.Context) (string, error) { return g.id, nil }

func newService(reserve uint64) (Service, *ledger.Memory, *fakeReceipts, *fakeOutbox) {
	balances := ledger.NewMemory(map[string]uint64{"treasury": reserve})
	receipts := &fakeReceipts{}
	outbox := &fakeOutbox{}
	service := Service{
		Ledger:         balances,
		Receipts:       receipts,
		Outbox:         outbox,
		Clock:          fixedClock{now: time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)},
		IDGen:          staticIDGen{id: "receipt-1"},
		Rate:           100,
		ReserveAccount: "treasury",
		Gate:           &sync.Mutex{},
	}
	return service, balances, receipts, outbox
}

func TestPurchaseMintsPaymentTimesRate(t *testing.T) {
	service, balances, receipts, outbox := newService(10_000)
	ctx := context.Background()

	supplyBefore, _ := balances.TotalSupply(ctx)
	receipt, err := service.Purchase(ctx, PurchaseInput{Buyer: "bob", PaymentAmount: 2})
	if err != nil {
		t.Fatalf("purchase failed: %v", err)
	}
	if receipt.MintedAmount != 200 {
		t.Fatalf("expected minted amount 200, got %d", receipt.MintedAmount)
	}
	if receipt.Rate != 100 {
		t.Fatalf("expected rate 100, got %d", receipt.Rate)
	}

	buyerBalance, _ := balances.BalanceOf(ctx, "bob")
	if buyerBalance != 200 {
		t.Fatalf("expected buyer balance 200, got %d", buyerBalance)
	}
	reserveBalance, _ := balances.BalanceOf(ctx, "treasury")
	if reserveBalance != 9_800 {
		t.Fatalf("expected reserve balance 9800, got %d", reserveBalance)
	}

	// The mint and the reserve burn cancel out: net supply never moves.
	supplyAfter, _ := balances.TotalSupply(ctx)
	if supplyAfter != supplyBefore {
		t.Fatalf("expected unchanged total supply %d, got %d", supplyBefore, supplyAfter)
	}

	if len(receipts.saved) != 1 {
		t.Fatalf("expected one receipt, got %d", len(receipts.saved))
	}
	if len(outbox.messages) != 1 || outbox.messages[0].EventType != eventTypePurchaseSettled {
		t.Fatalf("expected one %s event, got %+v", eventTypePurchaseSettled, outbox.messages)
	}
}

func TestPurchaseZeroPaymentFailsWithoutLedgerChange(t *testing.T) {
	service, balances, receipts, _ := newService(10_000)
	ctx := context.Background()

	_, err := service.Purchase(ctx, PurchaseInput{Buyer: "bob", PaymentAmount: 0})
	if !errors.Is(err, domainerrors.ErrInsufficientPayment) {
		t.Fatalf("expected ErrInsufficientPayment, got %v", err)
	}

	buyerBalance, _ := balances.BalanceOf(ctx, "bob")
	if buyerBalance != 0 {
		t.Fatalf("expected buyer balance 0, got %d", buyerBalance)
	}
	reserveBalance, _ := balances.BalanceOf(ctx, "treasury")
	if reserveBalance != 10_000 {
		t.Fatalf("expected untouched reserve, got %d", reserveBalance)
	}
	if len(receipts.saved) != 0 {
		t.Fatalf("expected no receipt, got %d", len(receipts.saved))
	}
}

func TestPurchaseFailsWhenReserveCannotCoverBurn(t *testing.T) {
	// 2 * 100 = 200 exceeds the 150 reserve.
	service, balances, receipts, _ := newService(150)
	ctx := context.Background()

	_, err := service.Purchase(ctx, PurchaseInput{Buyer: "bob", PaymentAmount: 2})
	if !errors.Is(err, domainerrors.ErrReserveExhausted) {
		t.Fatalf("expected ErrReserveExhausted, got %v", err)
	}

	buyerBalance, _ := balances.BalanceOf(ctx, "bob")
	if buyerBalance != 0 {
		t.Fatalf("expected no mint on failed burn, got buyer balance %d", buyerBalance)
	}
	reserveBalance, _ := balances.BalanceOf(ctx, "treasury")
	if reserveBalance != 150 {
		t.Fatalf("expected reserve to stay 150, got %d", reserveBalance)
	}
	if len(receipts.saved) != 0 {
		t.Fatalf("expected no receipt, got %d", len(receipts.saved))
	}
}

func TestPurchaseRejectsPaymentThatWouldOverflowMint(t *testing.T) {
	service, balances, receipts, _ := newService(10_000)
	ctx := context.Background()

	_, err := service.Purchase(ctx, PurchaseInput{Buyer: "bob", PaymentAmount: math.MaxUint64/100 + 1})
	if !errors.Is(err, domainerrors.ErrInvalidPurchaseInput) {
		t.Fatalf("expected ErrInvalidPurchaseInput, got %v", err)
	}

	buyerBalance, _ := balances.BalanceOf(ctx, "bob")
	reserveBalance, _ := balances.BalanceOf(ctx, "treasury")
	if buyerBalance != 0 || reserveBalance != 10_000 {
		t.Fatalf("expected untouched ledger, got buyer=%d reserve=%d", buyerBalance, reserveBalance)
	}
	if len(receipts.saved) != 0 {
		t.Fatalf("expected no receipt, got %d", len(receipts.saved))
	}
}

func TestPurchaseAcceptsLargestNonOverflowingPayment(t *testing.T) {
	service, _, _, _ := newService(10_000)
	service.Ledger = ledger.NewMemory(map[string]uint64{"treasury": math.MaxUint64 / 100 * 100})

	receipt, err := service.Purchase(context.Background(), PurchaseInput{Buyer: "bob", PaymentAmount: math.MaxUint64 / 100})
	if err != nil {
		t.Fatalf("purchase failed: %v", err)
	}
	if receipt.MintedAmount != (math.MaxUint64/100)*100 {
		t.Fatalf("unexpected minted amount %d", receipt.MintedAmount)
	}
}

func TestPurchaseRejectsBlankBuyer(t *testing.T) {
	service, _, _, _ := newService(10_000)
	_, err := service.Purchase(context.Background(), PurchaseInput{Buyer: "  ", PaymentAmount: 1})
	if !errors.Is(err, domainerrors.ErrInvalidPurchaseInput) {
		t.Fatalf("expected ErrInvalidPurchaseInput, got %v", err)
	}
}

func TestPurchaseDefaultsRateWhenUnset(t *testing.T) {
	service, _, _, _ := newService(10_000)
	service.Rate = 0

	receipt, err := service.Purchase(context.Background(), PurchaseInput{Buyer: "carol", PaymentAmount: 3})
	if err != nil {
		t.Fatalf("purchase failed: %v", err)
	}
	if receipt.MintedAmount != 300 || receipt.Rate != 100 {
		t.Fatalf("expected default rate 100 minting 300, got rate=%d minted=%d", receipt.Rate, receipt.MintedAmount)
	}
}

func TestListPurchasesFiltersByBuyer(t *testing.T) {
	service, _, _, _ := newService(100_000)
	ctx := context.Background()

	if _, err := service.Purchase(ctx, PurchaseInput{Buyer: "bob", PaymentAmount: 1}); err != nil {
		t.Fatalf("purchase failed: %v", err)
	}
	if _, err := service.Purchase(ctx, PurchaseInput{Buyer: "carol", PaymentAmount: 5}); err != nil {
		t.Fatalf("purchase failed: %v", err)
	}

	purchases, err := service.ListPurchases(ctx, "carol")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(purchases) != 1 || purchases[0].MintedAmount != 500 {
		t.Fatalf("expected one carol receipt minting 500, got %+v", purchases)
	}
}
