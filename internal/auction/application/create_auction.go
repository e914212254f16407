package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/potlabs/dutchAuctionEngine/internal/auction/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateAuctionDTO carries the configuration surface of a new auction.
// Prices are integer amounts in the payment currency's smallest unit.
type CreateAuctionDTO struct {
	Seller        uuid.UUID
	ReservePrice  decimal.Decimal
	StartPrice    decimal.Decimal
	PeriodSeconds int64
}

// CreateAuctionUseCase validates the configuration, builds the aggregate
// around the ledgers and the clock, registers it and persists its snapshot.
type CreateAuctionUseCase struct {
	registry    *Registry
	auctionRepo domain.AuctionRepository
	dbPool      *pgxpool.Pool
	assets      domain.AssetLedger
	payments    domain.PaymentLedger
	clock       domain.Clock
}

func NewCreateAuctionUseCase(registry *Registry,
	auctionRepo domain.AuctionRepository,
	dbPool *pgxpool.Pool,
	assets domain.AssetLedger,
	payments domain.PaymentLedger,
	clock domain.Clock) *CreateAuctionUseCase {

	return &CreateAuctionUseCase{
		registry:    registry,
		auctionRepo: auctionRepo,
		dbPool:      dbPool,
		assets:      assets,
		payments:    payments,
		clock:       clock,
	}
}

func (uc *CreateAuctionUseCase) Execute(ctx context.Context, cmd CreateAuctionDTO) (*domain.Snapshot, error) {
	cfg, err := domain.NewAuctionConfig(cmd.Seller, cmd.ReservePrice, cmd.StartPrice,
		time.Duration(cmd.PeriodSeconds)*time.Second)
	if err != nil {
		log.Warn("CreateAuctionUseCase: invalid configuration",
			zap.String("seller", cmd.Seller.String()),
			zap.Error(err),
		)
		return nil, err
	}

	auction, err := domain.NewAuction(uuid.New(), cfg, uc.assets, uc.payments, uc.clock)
	if err != nil {
		return nil, err
	}

	snap := auction.Snapshot()
	err = runInTx(ctx, uc.dbPool, func(tx pgx.Tx) error {
		return uc.auctionRepo.Save(ctx, tx, snap)
	})
	if err != nil {
		return nil, fmt.Errorf("create auction use case: %w", err)
	}

	uc.registry.Add(auction)
	log.Info("Auction created",
		zap.String("auctionID", snap.ID.String()),
		zap.String("seller", snap.Seller.String()),
	)
	return &snap, nil
}
