package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/potlabs/dutchAuctionEngine/internal/auction/domain"
	"go.uber.org/zap"
)

// OpenAuctionDTO carries the seller's open request.
type OpenAuctionDTO struct {
	AuctionID uuid.UUID
	Seller    uuid.UUID
	Asset     string
	Quantity  int64
}

// OpenAuctionUseCase pulls the offered supply into custody and starts the
// price decay, then persists the opened snapshot.
type OpenAuctionUseCase struct {
	registry    *Registry
	auctionRepo domain.AuctionRepository
	dbPool      *pgxpool.Pool
}

func NewOpenAuctionUseCase(registry *Registry,
	auctionRepo domain.AuctionRepository,
	dbPool *pgxpool.Pool) *OpenAuctionUseCase {

	return &OpenAuctionUseCase{
		registry:    registry,
		auctionRepo: auctionRepo,
		dbPool:      dbPool,
	}
}

func (uc *OpenAuctionUseCase) Execute(ctx context.Context, cmd OpenAuctionDTO) ([]domain.Event, error) {
	auction, err := uc.registry.Get(cmd.AuctionID)
	if err != nil {
		return nil, fmt.Errorf("open auction use case: %w", err)
	}

	events, err := auction.Open(ctx, cmd.Seller, cmd.Asset, cmd.Quantity)
	if err != nil {
		return nil, fmt.Errorf("open auction use case: auction %s: %w", cmd.AuctionID, err)
	}

	snap := auction.Snapshot()
	err = runInTx(ctx, uc.dbPool, func(tx pgx.Tx) error {
		return uc.auctionRepo.Save(ctx, tx, snap)
	})
	if err != nil {
		log.Error("OpenAuctionUseCase: failed to persist opened auction",
			zap.String("auctionID", cmd.AuctionID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("open auction use case: %w", err)
	}

	return events, nil
}
