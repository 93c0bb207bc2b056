package ledger

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrInsufficientBalance is returned when a burn or transfer exceeds the
// account's current balance.
var ErrInsufficientBalance = errors.New("ledger: insufficient balance")

// Memory is the in-process fungible balance ledger used by tests and dev
// wiring. Every operation commits atomically under one lock; balances and
// the total-supply counter never go negative.
type Memory struct {
	mu          sync.RWMutex
	balances    map[string]uint64
	totalSupply uint64
}

func NewMemory(seed map[string]uint64) *Memory {
	balances := make(map[string]uint64, len(seed))
	var supply uint64
	for account, balance := range seed {
		balances[normalize(account)] = balance
		supply += balance
	}
	return &Memory{
		balances:    balances,
		totalSupply: supply,
	}
}

func (l *Memory) BalanceOf(_ context.Context, account string) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[normalize(account)], nil
}

func (l *Memory) TotalSupply(_ context.Context) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalSupply, nil
}

func (l *Memory) Mint(_ context.Context, account string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[normalize(account)] += amount
	l.totalSupply += amount
	return nil
}

func (l *Memory) Burn(_ context.Context, account string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := normalize(account)
	if l.balances[key] < amount {
		return ErrInsufficientBalance
	}
	l.balances[key] -= amount
	l.totalSupply -= amount
	return nil
}

func (l *Memory) Transfer(_ context.Context, from string, to string, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	fromKey := normalize(from)
	if l.balances[fromKey] < amount {
		return ErrInsufficientBalance
	}
	l.balances[fromKey] -= amount
	l.balances[normalize(to)] += amount
	return nil
}

func normalize(account string) string {
	return strings.TrimSpace(account)
}
