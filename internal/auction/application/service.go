package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/potlabs/dutchAuctionEngine/internal/auction/domain"
	"github.com/shopspring/decimal"
)

// AuctionService is the application interface of the auction module, exposed
// to the infra layer (HTTP and WebSocket handlers).
type AuctionService interface {
	CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (*domain.Snapshot, error)
	OpenAuction(ctx context.Context, cmd OpenAuctionDTO) ([]domain.Event, error)
	CloseAuction(ctx context.Context, cmd CloseAuctionDTO) ([]domain.Event, error)
	PlaceBid(ctx context.Context, cmd PlaceBidDTO) (*PlaceBidResult, error)
	GetAuctionState(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error)
	GetCurrentPrice(auctionID uuid.UUID) (decimal.Decimal, error)
}

type auctionService struct {
	registry   *Registry
	createUC   *CreateAuctionUseCase
	openUC     *OpenAuctionUseCase
	closeUC    *CloseAuctionUseCase
	placeBidUC *PlaceBidUseCase
	getStateUC *GetAuctionStateUseCase
}

func NewAuctionService(registry *Registry,
	createUC *CreateAuctionUseCase,
	openUC *OpenAuctionUseCase,
	closeUC *CloseAuctionUseCase,
	placeBidUC *PlaceBidUseCase,
	getStateUC *GetAuctionStateUseCase) AuctionService {

	return &auctionService{
		registry:   registry,
		createUC:   createUC,
		openUC:     openUC,
		closeUC:    closeUC,
		placeBidUC: placeBidUC,
		getStateUC: getStateUC,
	}
}

func (s *auctionService) CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (*domain.Snapshot, error) {
	return s.createUC.Execute(ctx, cmd)
}

func (s *auctionService) OpenAuction(ctx context.Context, cmd OpenAuctionDTO) ([]domain.Event, error) {
	return s.openUC.Execute(ctx, cmd)
}

func (s *auctionService) CloseAuction(ctx context.Context, cmd CloseAuctionDTO) ([]domain.Event, error) {
	return s.closeUC.Execute(ctx, cmd)
}

func (s *auctionService) PlaceBid(ctx context.Context, cmd PlaceBidDTO) (*PlaceBidResult, error) {
	return s.placeBidUC.Execute(ctx, cmd)
}

func (s *auctionService) GetAuctionState(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error) {
	return s.getStateUC.Execute(ctx, auctionID)
}

// GetCurrentPrice queries the live price schedule; read-only, never blocks
// settlement.
func (s *auctionService) GetCurrentPrice(auctionID uuid.UUID) (decimal.Decimal, error) {
	auction, err := s.registry.Get(auctionID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return auction.CurrentPrice()
}
