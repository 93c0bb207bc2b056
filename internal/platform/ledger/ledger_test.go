package ledger

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryMintAndBurnAdjustSupply(t *testing.T) {
	l := NewMemory(map[string]uint64{"treasury": 1_000})
	ctx := context.Background()

	if err := l.Mint(ctx, "bob", 200); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	supply, _ := l.TotalSupply(ctx)
	if supply != 1_200 {
		t.Fatalf("expected supply 1200, got %d", supply)
	}

	if err := l.Burn(ctx, "treasury", 300); err != nil {
		t.Fatalf("burn failed: %v", err)
	}
	supply, _ = l.TotalSupply(ctx)
	if supply != 900 {
		t.Fatalf("expected supply 900, got %d", supply)
	}

	balance, _ := l.BalanceOf(ctx, "treasury")
	if balance != 700 {
		t.Fatalf("expected treasury balance 700, got %d", balance)
	}
}

func TestMemoryBurnBeyondBalanceFails(t *testing.T) {
	l := NewMemory(map[string]uint64{"bob": 50})
	ctx := context.Background()

	err := l.Burn(ctx, "bob", 51)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	balance, _ := l.BalanceOf(ctx, "bob")
	if balance != 50 {
		t.Fatalf("expected untouched balance 50, got %d", balance)
	}
	supply, _ := l.TotalSupply(ctx)
	if supply != 50 {
		t.Fatalf("expected untouched supply 50, got %d", supply)
	}
}

func TestMemoryTransferMovesBalanceWithoutSupplyChange(t *testing.T) {
	l := NewMemory(map[string]uint64{"alice": 80})
	ctx := context.Background()

	if err := l.Transfer(ctx, "alice", "bob", 30); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	aliceBalance, _ := l.BalanceOf(ctx, "alice")
	bobBalance, _ := l.BalanceOf(ctx, "bob")
	if aliceBalance != 50 || bobBalance != 30 {
		t.Fatalf("expected 50/30 split, got %d/%d", aliceBalance, bobBalance)
	}
	supply, _ := l.TotalSupply(ctx)
	if supply != 80 {
		t.Fatalf("expected supply 80, got %d", supply)
	}

	if err := l.Transfer(ctx, "alice", "bob", 51); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestMemoryNormalizesAccountNames(t *testing.T) {
	l := NewMemory(map[string]uint64{" bob ": 10})
	balance, _ := l.BalanceOf(context.Background(), "bob")
	if balance != 10 {
		t.Fatalf("expected trimmed account match, got %d", balance)
	}
}
