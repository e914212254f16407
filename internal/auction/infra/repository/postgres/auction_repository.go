package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/potlabs/dutchAuctionEngine/internal/auction/domain"
	"github.com/shopspring/decimal"
)

// AuctionRepository implements domain.AuctionRepository over pgx. Prices are
// stored as NUMERIC and moved through text to keep decimal exactness.
type AuctionRepository struct {
	pool *pgxpool.Pool
}

func NewAuctionRepository(pool *pgxpool.Pool) *AuctionRepository {
	return &AuctionRepository{pool: pool}
}

// Save upserts an auction snapshot. created_at keeps its insert-time default.
func (r *AuctionRepository) Save(ctx context.Context, tx pgx.Tx, snap domain.Snapshot) error {
	query := `
        INSERT INTO auctions (id, seller, asset, reserve_price, start_price, period_seconds,
                              total_quantity, remaining, phase, close_reason, opened_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        ON CONFLICT (id) DO UPDATE
        SET
            asset = EXCLUDED.asset,
            total_quantity = EXCLUDED.total_quantity,
            remaining = EXCLUDED.remaining,
            phase = EXCLUDED.phase,
            close_reason = EXCLUDED.close_reason,
            opened_at = EXCLUDED.opened_at,
            updated_at = NOW();
    `
	var openedAt *time.Time
	if !snap.OpenedAt.IsZero() {
		openedAt = &snap.OpenedAt
	}
	_, err := tx.Exec(ctx, query,
		snap.ID,
		snap.Seller,
		snap.Asset,
		snap.ReservePrice.String(),
		snap.StartPrice.String(),
		int64(snap.Period/time.Second),
		snap.TotalQuantity,
		snap.Remaining,
		string(snap.Phase),
		string(snap.CloseReason),
		openedAt,
		snap.UpdatedAt,
	)
	return err
}

// GetByID reads a persisted auction snapshot.
func (r *AuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Snapshot, error) {
	query := `
        SELECT id, seller, asset, reserve_price::text, start_price::text, period_seconds,
               total_quantity, remaining, phase, close_reason, opened_at, created_at, updated_at
        FROM auctions
        WHERE id = $1
    `
	snap, err := scanSnapshot(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, err
	}
	return snap, nil
}

// GetActiveAuctions lists persisted auctions not yet closed: unopened ones
// waiting for the seller and open ones still settling bids.
func (r *AuctionRepository) GetActiveAuctions(ctx context.Context) ([]*domain.Snapshot, error) {
	query := `
        SELECT id, seller, asset, reserve_price::text, start_price::text, period_seconds,
               total_quantity, remaining, phase, close_reason, opened_at, created_at, updated_at
        FROM auctions
        WHERE phase IN ($1, $2)
    `
	rows, err := r.pool.Query(ctx, query, string(domain.PhaseUnopened), string(domain.PhaseOpen))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*domain.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return snaps, nil
}

func scanSnapshot(row pgx.Row) (*domain.Snapshot, error) {
	var (
		snap          domain.Snapshot
		reserve       string
		start         string
		periodSeconds int64
		phase         string
		closeReason   string
		openedAt      *time.Time
	)
	err := row.Scan(
		&snap.ID,
		&snap.Seller,
		&snap.Asset,
		&reserve,
		&start,
		&periodSeconds,
		&snap.TotalQuantity,
		&snap.Remaining,
		&phase,
		&closeReason,
		&openedAt,
		&snap.CreatedAt,
		&snap.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if snap.ReservePrice, err = decimal.NewFromString(reserve); err != nil {
		return nil, err
	}
	if snap.StartPrice, err = decimal.NewFromString(start); err != nil {
		return nil, err
	}
	snap.Period = time.Duration(periodSeconds) * time.Second
	snap.Phase = domain.Phase(phase)
	snap.CloseReason = domain.CloseReason(closeReason)
	if openedAt != nil {
		snap.OpenedAt = *openedAt
	}
	return &snap, nil
}
