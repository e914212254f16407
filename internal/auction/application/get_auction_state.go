package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/potlabs/dutchAuctionEngine/internal/auction/domain"
	"github.com/shopspring/decimal"
)

// AuctionStateDTO exposes auction state to the HTTP/WS surface. Phase folds
// lazy expiry in, so an open-but-expired auction reads as closed/expired.
type AuctionStateDTO struct {
	AuctionID     uuid.UUID        `json:"auction_id"`
	Seller        uuid.UUID        `json:"seller"`
	Asset         string           `json:"asset,omitempty"`
	ReservePrice  decimal.Decimal  `json:"reserve_price"`
	StartPrice    decimal.Decimal  `json:"start_price"`
	PeriodSeconds int64            `json:"period_seconds"`
	TotalQuantity int64            `json:"total_quantity"`
	Remaining     int64            `json:"remaining"`
	Phase         string           `json:"phase"`
	CloseReason   string           `json:"close_reason,omitempty"`
	CurrentPrice  *decimal.Decimal `json:"current_price,omitempty"`
	OpenedAt      *time.Time       `json:"opened_at,omitempty"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// GetAuctionStateUseCase reads the live aggregate when available and falls
// back to the persisted snapshot for auctions no longer in memory.
type GetAuctionStateUseCase struct {
	registry    *Registry
	auctionRepo domain.AuctionRepository
}

func NewGetAuctionStateUseCase(registry *Registry, auctionRepo domain.AuctionRepository) *GetAuctionStateUseCase {
	return &GetAuctionStateUseCase{
		registry:    registry,
		auctionRepo: auctionRepo,
	}
}

func (uc *GetAuctionStateUseCase) Execute(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error) {
	if auction, err := uc.registry.Get(auctionID); err == nil {
		snap := auction.Snapshot()
		dto := snapshotToDTO(snap)
		if price, err := auction.CurrentPrice(); err == nil {
			dto.CurrentPrice = &price
		}
		return dto, nil
	}

	snap, err := uc.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	return snapshotToDTO(*snap), nil
}

func snapshotToDTO(snap domain.Snapshot) *AuctionStateDTO {
	dto := &AuctionStateDTO{
		AuctionID:     snap.ID,
		Seller:        snap.Seller,
		Asset:         snap.Asset,
		ReservePrice:  snap.ReservePrice,
		StartPrice:    snap.StartPrice,
		PeriodSeconds: int64(snap.Period / time.Second),
		TotalQuantity: snap.TotalQuantity,
		Remaining:     snap.Remaining,
		Phase:         string(snap.Phase),
		CloseReason:   string(snap.CloseReason),
		UpdatedAt:     snap.UpdatedAt,
	}
	if !snap.OpenedAt.IsZero() {
		openedAt := snap.OpenedAt
		dto.OpenedAt = &openedAt
	}
	return dto
}
