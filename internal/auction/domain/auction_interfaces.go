package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Clock supplies the trusted current time. The engine never waits on timers;
// expiry is checked on demand against this source.
type Clock interface {
	Now() time.Time
}

// AssetLedger is the external custody collaborator for the asset being sold.
// TransferIn pulls from an owner into custody and must fail atomically when
// the owner's balance is insufficient; TransferOut delivers from custody.
type AssetLedger interface {
	BalanceOf(ctx context.Context, owner uuid.UUID, asset string) (int64, error)
	TransferIn(ctx context.Context, owner uuid.UUID, asset string, quantity int64) error
	TransferOut(ctx context.Context, recipient uuid.UUID, asset string, quantity int64) error
}

// PaymentLedger settles already-tendered payment currency. Settle must fail
// the whole operation when the amount exceeds what the payer tendered.
type PaymentLedger interface {
	Settle(ctx context.Context, payer, payee uuid.UUID, amount decimal.Decimal) error
}

type AuctionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Snapshot, error)
	Save(ctx context.Context, tx pgx.Tx, snap Snapshot) error
	// GetActiveAuctions lists auctions that still accept operations, i.e.
	// unopened and open ones.
	GetActiveAuctions(ctx context.Context) ([]*Snapshot, error)
}

type BidRepository interface {
	Save(ctx context.Context, tx pgx.Tx, bid *Bid) error
	GetBidsByAuctionID(ctx context.Context, auctionID uuid.UUID) ([]*Bid, error)
	GetLatestBidByAuctionID(ctx context.Context, auctionID uuid.UUID) (*Bid, error)
}
