package domain

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/potlabs/dutchAuctionEngine/internal/shared/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Phase represents the lifecycle position of an auction.
type Phase string

const (
	PhaseUnopened Phase = "unopened"
	PhaseOpen     Phase = "open"
	PhaseClosed   Phase = "closed"
)

// CloseReason records why an auction reached its terminal phase.
type CloseReason string

const (
	CloseReasonNone         CloseReason = ""
	CloseReasonSoldOut      CloseReason = "sold_out"
	CloseReasonSellerClosed CloseReason = "seller_closed"
	CloseReasonExpired      CloseReason = "expired"
)

// AuctionConfig is the immutable configuration of a descending-price auction.
// Prices are integer amounts in the payment currency's smallest unit.
type AuctionConfig struct {
	Seller       uuid.UUID
	ReservePrice decimal.Decimal
	StartPrice   decimal.Decimal
	Period       time.Duration
}

// NewAuctionConfig validates and builds an AuctionConfig. Invalid
// configuration is fatal: no instance is ever created from it.
func NewAuctionConfig(seller uuid.UUID, reservePrice, startPrice decimal.Decimal, period time.Duration) (AuctionConfig, error) {
	cfg := AuctionConfig{
		Seller:       seller,
		ReservePrice: reservePrice,
		StartPrice:   startPrice,
		Period:       period,
	}
	if err := cfg.validate(); err != nil {
		return AuctionConfig{}, err
	}
	return cfg, nil
}

func (c AuctionConfig) validate() error {
	switch {
	case c.Seller == uuid.Nil:
		return ErrInvalidSeller
	case !c.ReservePrice.IsPositive() || !c.ReservePrice.IsInteger():
		return ErrInvalidReservePrice
	case !c.StartPrice.IsInteger() || !c.StartPrice.GreaterThan(c.ReservePrice):
		return ErrInvalidStartPrice
	case c.Period < time.Second:
		return ErrInvalidPeriod
	}
	return nil
}

// Auction is the aggregate owning all auction state. Every state-changing
// operation runs as an indivisible transaction under the aggregate's write
// lock; price queries take the read lock only.
type Auction struct {
	id            uuid.UUID
	config        AuctionConfig
	asset         string
	totalQuantity int64
	remaining     int64
	phase         Phase
	closeReason   CloseReason
	openedAt      time.Time
	createdAt     time.Time
	updatedAt     time.Time

	assets   AssetLedger
	payments PaymentLedger
	clock    Clock

	mu sync.RWMutex
}

// Snapshot is a plain copy of auction state, safe to read outside the lock.
// Phase and CloseReason fold lazy expiry in, so an open-but-expired auction
// reads as Closed/Expired.
type Snapshot struct {
	ID            uuid.UUID
	Seller        uuid.UUID
	Asset         string
	ReservePrice  decimal.Decimal
	StartPrice    decimal.Decimal
	Period        time.Duration
	TotalQuantity int64
	Remaining     int64
	Phase         Phase
	CloseReason   CloseReason
	OpenedAt      time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewAuction builds an unopened auction around its external collaborators.
func NewAuction(id uuid.UUID, config AuctionConfig, assets AssetLedger, payments PaymentLedger, clock Clock) (*Auction, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	now := clock.Now()
	return &Auction{
		id:        id,
		config:    config,
		phase:     PhaseUnopened,
		createdAt: now,
		updatedAt: now,
		assets:    assets,
		payments:  payments,
		clock:     clock,
	}, nil
}

// RestoreAuction rebuilds a live aggregate from a persisted snapshot, e.g.
// when repopulating the in-memory registry after a restart. A snapshot saved
// while the auction was open may have expired in the meantime; the derived
// expiry check covers that without any fixup here.
func RestoreAuction(snap Snapshot, assets AssetLedger, payments PaymentLedger, clock Clock) (*Auction, error) {
	cfg, err := NewAuctionConfig(snap.Seller, snap.ReservePrice, snap.StartPrice, snap.Period)
	if err != nil {
		return nil, err
	}
	return &Auction{
		id:            snap.ID,
		config:        cfg,
		asset:         snap.Asset,
		totalQuantity: snap.TotalQuantity,
		remaining:     snap.Remaining,
		phase:         snap.Phase,
		closeReason:   snap.CloseReason,
		openedAt:      snap.OpenedAt,
		createdAt:     snap.CreatedAt,
		updatedAt:     snap.UpdatedAt,
		assets:        assets,
		payments:      payments,
		clock:         clock,
	}, nil
}

func (a *Auction) ID() uuid.UUID         { return a.id }
func (a *Auction) Seller() uuid.UUID     { return a.config.Seller }
func (a *Auction) Config() AuctionConfig { return a.config }

func (a *Auction) schedule() PriceSchedule {
	return PriceSchedule{
		StartPrice:   a.config.StartPrice,
		ReservePrice: a.config.ReservePrice,
		OpenedAt:     a.openedAt,
		Period:       a.config.Period,
	}
}

// Open transitions Unopened -> Open: pulls totalQuantity of the asset from
// the seller into custody and starts the price decay.
func (a *Auction) Open(ctx context.Context, caller uuid.UUID, asset string, totalQuantity int64) ([]Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireSeller(caller); err != nil {
		log.Warn("Open rejected: caller is not the seller",
			zap.String("auctionID", a.id.String()),
			zap.String("caller", caller.String()),
		)
		return nil, err
	}
	if a.phase != PhaseUnopened {
		log.Warn("Open rejected: auction already opened",
			zap.String("auctionID", a.id.String()),
			zap.String("phase", string(a.phase)),
		)
		return nil, ErrAlreadyOpened
	}
	if asset == "" {
		return nil, ErrInvalidAsset
	}
	if totalQuantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	balance, err := a.assets.BalanceOf(ctx, a.config.Seller, asset)
	if err != nil {
		return nil, fmt.Errorf("asset ledger balance check: %w", err)
	}
	if balance < totalQuantity {
		log.Warn("Open rejected: not enough seller balance",
			zap.String("auctionID", a.id.String()),
			zap.Int64("balance", balance),
			zap.Int64("totalQuantity", totalQuantity),
		)
		return nil, ErrInsufficientBalance
	}
	if err := a.assets.TransferIn(ctx, a.config.Seller, asset, totalQuantity); err != nil {
		return nil, fmt.Errorf("asset custody pull: %w", err)
	}

	now := a.clock.Now()
	a.asset = asset
	a.totalQuantity = totalQuantity
	a.remaining = totalQuantity
	a.phase = PhaseOpen
	a.openedAt = now
	a.updatedAt = now

	log.Info("Auction opened",
		zap.String("auctionID", a.id.String()),
		zap.String("asset", asset),
		zap.Int64("totalQuantity", totalQuantity),
		zap.Time("openedAt", now),
	)
	return []Event{AuctionOpened{AuctionID: a.id, Asset: asset, TotalQuantity: totalQuantity}}, nil
}

// Close transitions Open -> Closed on the seller's request. No funds move;
// undelivered supply stays in custody.
func (a *Auction) Close(caller uuid.UUID) ([]Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.requireSeller(caller); err != nil {
		log.Warn("Close rejected: caller is not the seller",
			zap.String("auctionID", a.id.String()),
			zap.String("caller", caller.String()),
		)
		return nil, err
	}
	now := a.clock.Now()
	if err := a.requireOpen(now); err != nil {
		log.Warn("Close rejected: auction not open",
			zap.String("auctionID", a.id.String()),
			zap.String("phase", string(a.phase)),
			zap.Error(err),
		)
		return nil, err
	}

	a.phase = PhaseClosed
	a.closeReason = CloseReasonSellerClosed
	a.updatedAt = now

	log.Info("Auction closed by seller",
		zap.String("auctionID", a.id.String()),
		zap.Int64("remaining", a.remaining),
	)
	return []Event{AuctionClosed{AuctionID: a.id, Reason: CloseReasonSellerClosed}}, nil
}

// MakeBid validates and settles a bid at the prevailing price. Preconditions
// are checked strictly in order: phase, quantity, payment, supply; the first
// failure determines the rejection and nothing is mutated on any rejection.
// On admission exactly the required amount is settled (excess tendered is
// never captured), the asset is delivered, and supply is decremented. A bid
// that empties the supply closes the auction in the same operation, with the
// closure event ordered before the bid's own event.
func (a *Auction) MakeBid(ctx context.Context, bidder uuid.UUID, quantity int64, tendered decimal.Decimal) (*Bid, []Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	if err := a.requireOpen(now); err != nil {
		log.Warn("Bid rejected: auction not open",
			zap.String("auctionID", a.id.String()),
			zap.String("bidder", bidder.String()),
			zap.Error(err),
		)
		return nil, nil, err
	}
	if quantity <= 0 {
		return nil, nil, ErrInvalidQuantity
	}

	price := a.schedule().PriceAt(now)
	required := price.Mul(decimal.NewFromInt(quantity))
	if tendered.LessThan(required) {
		log.Warn("Bid rejected: invalid payment",
			zap.String("auctionID", a.id.String()),
			zap.String("bidder", bidder.String()),
			zap.String("required", required.String()),
			zap.String("tendered", tendered.String()),
		)
		return nil, nil, ErrInvalidPayment
	}
	if quantity > a.remaining {
		log.Warn("Bid rejected: over-request",
			zap.String("auctionID", a.id.String()),
			zap.String("bidder", bidder.String()),
			zap.Int64("quantity", quantity),
			zap.Int64("remaining", a.remaining),
		)
		return nil, nil, ErrInsufficientSupply
	}

	if err := a.payments.Settle(ctx, bidder, a.config.Seller, required); err != nil {
		return nil, nil, fmt.Errorf("payment settlement: %w", err)
	}
	if err := a.assets.TransferOut(ctx, bidder, a.asset, quantity); err != nil {
		// The payment already moved; refund it so a failed delivery never
		// keeps the buyer's funds.
		if refundErr := a.payments.Settle(context.WithoutCancel(ctx), a.config.Seller, bidder, required); refundErr != nil {
			log.Error("Refund after failed delivery also failed",
				zap.String("auctionID", a.id.String()),
				zap.String("bidder", bidder.String()),
				zap.String("amount", required.String()),
				zap.NamedError("deliveryError", err),
				zap.Error(refundErr),
			)
			return nil, nil, fmt.Errorf("asset delivery: %v (refund failed: %w)", err, refundErr)
		}
		return nil, nil, fmt.Errorf("asset delivery: %w", err)
	}

	a.remaining -= quantity
	a.updatedAt = now
	bid := NewBid(uuid.New(), a.id, bidder, quantity, price, required, now)

	var events []Event
	if a.remaining == 0 {
		a.phase = PhaseClosed
		a.closeReason = CloseReasonSoldOut
		// Closure is announced as a consequence of the triggering bid and
		// precedes the bid's own confirmation in event order.
		events = append(events, AuctionClosed{AuctionID: a.id, Reason: CloseReasonSoldOut})
		log.Info("Auction sold out", zap.String("auctionID", a.id.String()))
	}
	events = append(events, BidPlaced{
		AuctionID:    a.id,
		Bidder:       bidder,
		Quantity:     quantity,
		PricePerUnit: price,
		TotalPaid:    required,
	})

	log.Info("Bid placed",
		zap.String("auctionID", a.id.String()),
		zap.String("bidID", bid.ID.String()),
		zap.String("bidder", bidder.String()),
		zap.Int64("quantity", quantity),
		zap.String("pricePerUnit", price.String()),
		zap.String("totalPaid", required.String()),
		zap.Int64("remaining", a.remaining),
	)
	return bid, events, nil
}

// CurrentPrice returns the prevailing price. It is a read-only query: it
// never blocks state-changing operations beyond the read lock and is
// rejected before the auction has an open timestamp.
func (a *Auction) CurrentPrice() (decimal.Decimal, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.openedAt.IsZero() {
		return decimal.Decimal{}, ErrAuctionNotOpened
	}
	return a.schedule().PriceAt(a.clock.Now()), nil
}

// Snapshot copies the current state for readers and persistence.
func (a *Auction) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	phase, reason := a.effectivePhase(a.clock.Now())
	return Snapshot{
		ID:            a.id,
		Seller:        a.config.Seller,
		Asset:         a.asset,
		ReservePrice:  a.config.ReservePrice,
		StartPrice:    a.config.StartPrice,
		Period:        a.config.Period,
		TotalQuantity: a.totalQuantity,
		Remaining:     a.remaining,
		Phase:         phase,
		CloseReason:   reason,
		OpenedAt:      a.openedAt,
		CreatedAt:     a.createdAt,
		UpdatedAt:     a.updatedAt,
	}
}
