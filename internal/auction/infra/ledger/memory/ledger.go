package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInsufficientFunds is returned when a transfer would overdraw an account.
var ErrInsufficientFunds = errors.New("ledger: insufficient balance")

// Ledger is a map-backed implementation of domain.AssetLedger and
// domain.PaymentLedger for tests and the dev ledger mode.
type Ledger struct {
	mu      sync.Mutex
	custody uuid.UUID
	// asset -> account -> quantity
	assets map[string]map[uuid.UUID]int64
	// account -> payment currency balance
	funds map[uuid.UUID]decimal.Decimal
}

func NewLedger(custody uuid.UUID) *Ledger {
	return &Ledger{
		custody: custody,
		assets:  make(map[string]map[uuid.UUID]int64),
		funds:   make(map[uuid.UUID]decimal.Decimal),
	}
}

// Credit mints asset quantity for an account.
func (l *Ledger) Credit(account uuid.UUID, asset string, quantity int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.assets[asset] == nil {
		l.assets[asset] = make(map[uuid.UUID]int64)
	}
	l.assets[asset][account] += quantity
}

// CreditFunds mints payment currency for an account.
func (l *Ledger) CreditFunds(account uuid.UUID, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.funds[account] = l.funds[account].Add(amount)
}

// FundsBalance reports an account's payment currency balance.
func (l *Ledger) FundsBalance(account uuid.UUID) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.funds[account]
}

func (l *Ledger) BalanceOf(_ context.Context, owner uuid.UUID, asset string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.assets[asset][owner], nil
}

func (l *Ledger) TransferIn(_ context.Context, owner uuid.UUID, asset string, quantity int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(owner, l.custody, asset, quantity)
}

func (l *Ledger) TransferOut(_ context.Context, recipient uuid.UUID, asset string, quantity int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(l.custody, recipient, asset, quantity)
}

func (l *Ledger) Settle(_ context.Context, payer, payee uuid.UUID, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.funds[payer].LessThan(amount) {
		return ErrInsufficientFunds
	}
	l.funds[payer] = l.funds[payer].Sub(amount)
	l.funds[payee] = l.funds[payee].Add(amount)
	return nil
}

// move assumes the lock is held.
func (l *Ledger) move(from, to uuid.UUID, asset string, quantity int64) error {
	if l.assets[asset][from] < quantity {
		return ErrInsufficientFunds
	}
	if l.assets[asset] == nil {
		l.assets[asset] = make(map[uuid.UUID]int64)
	}
	l.assets[asset][from] -= quantity
	l.assets[asset][to] += quantity
	return nil
}
