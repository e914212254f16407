package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrInsufficientFunds is returned when a transfer would overdraw the source
// account. Transfers fail atomically: no row is touched.
var ErrInsufficientFunds = errors.New("ledger: insufficient balance")

// Ledger is a balances-table implementation of both domain.AssetLedger and
// domain.PaymentLedger. Asset custody moves quantities between owner accounts
// and the custody account; payment settlement moves amounts of the configured
// currency between payer and payee.
type Ledger struct {
	pool     *pgxpool.Pool
	custody  uuid.UUID
	currency string
}

func NewLedger(pool *pgxpool.Pool, custody uuid.UUID, currency string) *Ledger {
	return &Ledger{pool: pool, custody: custody, currency: currency}
}

func (l *Ledger) BalanceOf(ctx context.Context, owner uuid.UUID, asset string) (int64, error) {
	amount, err := l.balance(ctx, owner, asset)
	if err != nil {
		return 0, err
	}
	return amount.IntPart(), nil
}

// TransferIn pulls quantity of asset from the owner into custody.
func (l *Ledger) TransferIn(ctx context.Context, owner uuid.UUID, asset string, quantity int64) error {
	return l.transfer(ctx, owner, l.custody, asset, decimal.NewFromInt(quantity))
}

// TransferOut delivers quantity of asset from custody to the recipient.
func (l *Ledger) TransferOut(ctx context.Context, recipient uuid.UUID, asset string, quantity int64) error {
	return l.transfer(ctx, l.custody, recipient, asset, decimal.NewFromInt(quantity))
}

// Settle moves payment currency from payer to payee.
func (l *Ledger) Settle(ctx context.Context, payer, payee uuid.UUID, amount decimal.Decimal) error {
	return l.transfer(ctx, payer, payee, l.currency, amount)
}

func (l *Ledger) balance(ctx context.Context, account uuid.UUID, asset string) (decimal.Decimal, error) {
	var amount string
	err := l.pool.QueryRow(ctx,
		`SELECT amount::text FROM balances WHERE account = $1 AND asset = $2`,
		account, asset,
	).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(amount)
}

// transfer debits from and credits to inside one transaction, locking the
// source row so concurrent transfers cannot overdraw it.
func (l *Ledger) transfer(ctx context.Context, from, to uuid.UUID, asset string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("ledger: transfer amount must be positive, got %s", amount)
	}

	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("ledger: begin transfer: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var available string
	err = tx.QueryRow(ctx,
		`SELECT amount::text FROM balances WHERE account = $1 AND asset = $2 FOR UPDATE`,
		from, asset,
	).Scan(&available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInsufficientFunds
		}
		return fmt.Errorf("ledger: lock source balance: %w", err)
	}
	availableDec, err := decimal.NewFromString(available)
	if err != nil {
		return fmt.Errorf("ledger: parse source balance: %w", err)
	}
	if availableDec.LessThan(amount) {
		return ErrInsufficientFunds
	}

	_, err = tx.Exec(ctx,
		`UPDATE balances SET amount = amount - $3 WHERE account = $1 AND asset = $2`,
		from, asset, amount.String(),
	)
	if err != nil {
		return fmt.Errorf("ledger: debit source: %w", err)
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO balances (account, asset, amount)
        VALUES ($1, $2, $3)
        ON CONFLICT (account, asset) DO UPDATE
        SET amount = balances.amount + EXCLUDED.amount`,
		to, asset, amount.String(),
	)
	if err != nil {
		return fmt.Errorf("ledger: credit recipient: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ledger: commit transfer: %w", err)
	}
	return nil
}
