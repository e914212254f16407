package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/potlabs/dutchAuctionEngine/internal/auction/domain"
)

// CloseAuctionDTO carries the seller's close request.
type CloseAuctionDTO struct {
	AuctionID uuid.UUID
	Seller    uuid.UUID
}

// CloseAuctionUseCase performs the explicit seller close.
type CloseAuctionUseCase struct {
	registry    *Registry
	auctionRepo domain.AuctionRepository
	dbPool      *pgxpool.Pool
}

func NewCloseAuctionUseCase(registry *Registry,
	auctionRepo domain.AuctionRepository,
	dbPool *pgxpool.Pool) *CloseAuctionUseCase {

	return &CloseAuctionUseCase{
		registry:    registry,
		auctionRepo: auctionRepo,
		dbPool:      dbPool,
	}
}

func (uc *CloseAuctionUseCase) Execute(ctx context.Context, cmd CloseAuctionDTO) ([]domain.Event, error) {
	auction, err := uc.registry.Get(cmd.AuctionID)
	if err != nil {
		return nil, fmt.Errorf("close auction use case: %w", err)
	}

	events, err := auction.Close(cmd.Seller)
	if err != nil {
		return nil, fmt.Errorf("close auction use case: auction %s: %w", cmd.AuctionID, err)
	}

	snap := auction.Snapshot()
	err = runInTx(ctx, uc.dbPool, func(tx pgx.Tx) error {
		return uc.auctionRepo.Save(ctx, tx, snap)
	})
	if err != nil {
		return nil, fmt.Errorf("close auction use case: %w", err)
	}

	return events, nil
}
