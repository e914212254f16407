package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/potlabs/dutchAuctionEngine/internal/auction/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PlaceBidDTO is the input for the PlaceBid use case.
type PlaceBidDTO struct {
	AuctionID uuid.UUID
	Bidder    uuid.UUID
	Quantity  int64
	Tendered  decimal.Decimal
}

// PlaceBidResult carries the admitted bid plus the ordered event log of the
// call. The order is a contract: a supply-exhausting bid reports the closure
// before its own BidPlaced.
type PlaceBidResult struct {
	Bid    *domain.Bid
	Events []domain.Event
}

// PlaceBidUseCase settles a bid against the live aggregate and audits it.
type PlaceBidUseCase struct {
	registry    *Registry
	auctionRepo domain.AuctionRepository
	bidRepo     domain.BidRepository
	dbPool      *pgxpool.Pool
}

func NewPlaceBidUseCase(registry *Registry,
	auctionRepo domain.AuctionRepository,
	bidRepo domain.BidRepository,
	dbPool *pgxpool.Pool) *PlaceBidUseCase {

	return &PlaceBidUseCase{
		registry:    registry,
		auctionRepo: auctionRepo,
		bidRepo:     bidRepo,
		dbPool:      dbPool,
	}
}

func (uc *PlaceBidUseCase) Execute(ctx context.Context, cmd PlaceBidDTO) (*PlaceBidResult, error) {
	log.Info("Executing PlaceBidUseCase",
		zap.String("auctionID", cmd.AuctionID.String()),
		zap.String("bidder", cmd.Bidder.String()),
		zap.Int64("quantity", cmd.Quantity),
		zap.String("tendered", cmd.Tendered.String()),
	)

	auction, err := uc.registry.Get(cmd.AuctionID)
	if err != nil {
		return nil, fmt.Errorf("place bid use case: %w", err)
	}

	// The aggregate serializes settlement under its own lock; rejection
	// leaves no state behind.
	bid, events, err := auction.MakeBid(ctx, cmd.Bidder, cmd.Quantity, cmd.Tendered)
	if err != nil {
		return nil, fmt.Errorf("place bid use case: bid failed for auction %s: %w", cmd.AuctionID, err)
	}

	snap := auction.Snapshot()
	err = runInTx(ctx, uc.dbPool, func(tx pgx.Tx) error {
		if err := uc.bidRepo.Save(ctx, tx, bid); err != nil {
			return fmt.Errorf("failed to save bid: %w", err)
		}
		if err := uc.auctionRepo.Save(ctx, tx, snap); err != nil {
			return fmt.Errorf("failed to save auction snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error("PlaceBidUseCase: failed to persist admitted bid",
			zap.String("auctionID", cmd.AuctionID.String()),
			zap.String("bidID", bid.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("place bid use case: %w", err)
	}

	return &PlaceBidResult{Bid: bid, Events: events}, nil
}
