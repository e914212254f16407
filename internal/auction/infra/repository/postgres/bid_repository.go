package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/potlabs/dutchAuctionEngine/internal/auction/domain"
	"github.com/shopspring/decimal"
)

// BidRepository implements domain.BidRepository over pgx.
type BidRepository struct {
	pool *pgxpool.Pool
}

func NewBidRepository(pool *pgxpool.Pool) *BidRepository {
	return &BidRepository{pool: pool}
}

// Save inserts an admitted bid; the auction snapshot update shares the same
// transaction in the application layer.
func (r *BidRepository) Save(ctx context.Context, tx pgx.Tx, bid *domain.Bid) error {
	query := `
        INSERT INTO bids (id, auction_id, bidder, quantity, price_per_unit, total_paid, bid_time)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := tx.Exec(ctx, query,
		bid.ID,
		bid.AuctionID,
		bid.Bidder,
		bid.Quantity,
		bid.PricePerUnit.String(),
		bid.TotalPaid.String(),
		bid.Timestamp,
	)
	return err
}

func (r *BidRepository) GetBidsByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*domain.Bid, error) {
	query := `
        SELECT id, auction_id, bidder, quantity, price_per_unit::text, total_paid::text, bid_time
        FROM bids
        WHERE auction_id = $1
        ORDER BY bid_time ASC
    `
	rows, err := r.pool.Query(ctx, query, auctionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, bid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bids, nil
}

func (r *BidRepository) GetLatestBidByAuctionID(ctx context.Context, auctionID uuid.UUID) (*domain.Bid, error) {
	query := `
        SELECT id, auction_id, bidder, quantity, price_per_unit::text, total_paid::text, bid_time
        FROM bids
        WHERE auction_id = $1
        ORDER BY bid_time DESC
        LIMIT 1
    `
	bid, err := scanBid(r.pool.QueryRow(ctx, query, auctionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return bid, nil
}

func scanBid(row pgx.Row) (*domain.Bid, error) {
	var (
		bid   domain.Bid
		price string
		paid  string
	)
	err := row.Scan(
		&bid.ID,
		&bid.AuctionID,
		&bid.Bidder,
		&bid.Quantity,
		&price,
		&paid,
		&bid.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	if bid.PricePerUnit, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	if bid.TotalPaid, err = decimal.NewFromString(paid); err != nil {
		return nil, err
	}
	return &bid, nil
}
