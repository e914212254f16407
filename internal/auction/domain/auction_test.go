package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
)

// in-test collaborator fakes

type fakeClock struct{ now time.Time }

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(1_700_000_000, 0)} }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeAssetLedger struct {
	balances  map[uuid.UUID]int64
	custody   int64
	delivered map[uuid.UUID]int64
}

func newFakeAssetLedger() *fakeAssetLedger {
	return &fakeAssetLedger{
		balances:  make(map[uuid.UUID]int64),
		delivered: make(map[uuid.UUID]int64),
	}
}

func (l *fakeAssetLedger) BalanceOf(_ context.Context, owner uuid.UUID, _ string) (int64, error) {
	return l.balances[owner], nil
}

func (l *fakeAssetLedger) TransferIn(_ context.Context, owner uuid.UUID, _ string, quantity int64) error {
	if l.balances[owner] < quantity {
		return errors.New("fake ledger: insufficient balance")
	}
	l.balances[owner] -= quantity
	l.custody += quantity
	return nil
}

func (l *fakeAssetLedger) TransferOut(_ context.Context, recipient uuid.UUID, _ string, quantity int64) error {
	if l.custody < quantity {
		return errors.New("fake ledger: insufficient custody")
	}
	l.custody -= quantity
	l.delivered[recipient] += quantity
	return nil
}

// failingAssetLedger admits custody pulls but fails every delivery.
type failingAssetLedger struct {
	*fakeAssetLedger
}

func (l *failingAssetLedger) TransferOut(context.Context, uuid.UUID, string, int64) error {
	return errors.New("fake ledger: delivery unavailable")
}

type settlement struct {
	payer  uuid.UUID
	payee  uuid.UUID
	amount decimal.Decimal
}

type fakePaymentLedger struct {
	settlements []settlement
}

func (l *fakePaymentLedger) Settle(_ context.Context, payer, payee uuid.UUID, amount decimal.Decimal) error {
	l.settlements = append(l.settlements, settlement{payer: payer, payee: payee, amount: amount})
	return nil
}

type fixture struct {
	seller   uuid.UUID
	assets   *fakeAssetLedger
	payments *fakePaymentLedger
	clock    *fakeClock
	auction  *Auction
}

// newFixture builds an unopened auction with the reviewed scenario
// parameters: reserve 10000, start 20000, period 10 days.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	seller := uuid.New()
	assets := newFakeAssetLedger()
	assets.balances[seller] = 1000
	payments := &fakePaymentLedger{}
	clk := newFakeClock()

	cfg, err := NewAuctionConfig(seller,
		decimal.NewFromInt(10000), decimal.NewFromInt(20000), 10*24*time.Hour)
	assert.NoError(t, err)

	auction, err := NewAuction(uuid.New(), cfg, assets, payments, clk)
	assert.NoError(t, err)

	return &fixture{
		seller:   seller,
		assets:   assets,
		payments: payments,
		clock:    clk,
		auction:  auction,
	}
}

func (f *fixture) open(t *testing.T, quantity int64) {
	t.Helper()
	_, err := f.auction.Open(context.Background(), f.seller, "asset-token", quantity)
	assert.NoError(t, err)
}

func (f *fixture) bidAtCurrentPrice(t *testing.T, bidder uuid.UUID, quantity int64) (*Bid, []Event, error) {
	t.Helper()
	price, err := f.auction.CurrentPrice()
	assert.NoError(t, err)
	return f.auction.MakeBid(context.Background(), bidder, quantity, price.Mul(decimal.NewFromInt(quantity)))
}

func TestNewAuctionConfigValidation(t *testing.T) {
	seller := uuid.New()
	reserve := decimal.NewFromInt(10000)
	start := decimal.NewFromInt(20000)
	period := 10 * 24 * time.Hour

	tests := []struct {
		name     string
		seller   uuid.UUID
		reserve  decimal.Decimal
		start    decimal.Decimal
		period   time.Duration
		expected error
	}{
		{"nil seller", uuid.Nil, reserve, start, period, ErrInvalidSeller},
		{"zero reserve price", seller, decimal.Zero, start, period, ErrInvalidReservePrice},
		{"negative reserve price", seller, decimal.NewFromInt(-1), start, period, ErrInvalidReservePrice},
		{"fractional reserve price", seller, decimal.NewFromFloat(0.5), start, period, ErrInvalidReservePrice},
		{"start below reserve", seller, reserve, decimal.NewFromInt(100), period, ErrInvalidStartPrice},
		{"start equal to reserve", seller, reserve, reserve, period, ErrInvalidStartPrice},
		{"fractional start price", seller, reserve, decimal.NewFromFloat(20000.5), period, ErrInvalidStartPrice},
		{"zero period", seller, reserve, start, 0, ErrInvalidPeriod},
		{"sub-second period", seller, reserve, start, 500 * time.Millisecond, ErrInvalidPeriod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAuctionConfig(tt.seller, tt.reserve, tt.start, tt.period)
			check.True(t, errors.Is(err, tt.expected))
		})
	}

	t.Run("valid config", func(t *testing.T) {
		cfg, err := NewAuctionConfig(seller, reserve, start, period)
		assert.NoError(t, err)
		check.Equal(t, seller, cfg.Seller)
	})
}

func TestOpenAuction(t *testing.T) {
	t.Run("only seller can open", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.auction.Open(context.Background(), uuid.New(), "asset-token", 20)
		check.True(t, errors.Is(err, ErrNotSeller))
		check.Equal(t, PhaseUnopened, f.auction.Snapshot().Phase)
	})

	t.Run("invalid asset", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.auction.Open(context.Background(), f.seller, "", 20)
		check.True(t, errors.Is(err, ErrInvalidAsset))
	})

	t.Run("invalid quantity", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.auction.Open(context.Background(), f.seller, "asset-token", 0)
		check.True(t, errors.Is(err, ErrInvalidQuantity))
	})

	t.Run("not enough balance", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.auction.Open(context.Background(), f.seller, "asset-token", 2000)
		check.True(t, errors.Is(err, ErrInsufficientBalance))
		check.Equal(t, int64(0), f.assets.custody)
	})

	t.Run("succeeds and pulls custody", func(t *testing.T) {
		f := newFixture(t)
		events, err := f.auction.Open(context.Background(), f.seller, "asset-token", 20)
		assert.NoError(t, err)

		assert.Equal(t, 1, len(events))
		opened, ok := events[0].(AuctionOpened)
		assert.True(t, ok)
		check.Equal(t, "asset-token", opened.Asset)
		check.Equal(t, int64(20), opened.TotalQuantity)

		snap := f.auction.Snapshot()
		check.Equal(t, PhaseOpen, snap.Phase)
		check.Equal(t, int64(20), snap.Remaining)
		check.Equal(t, int64(20), f.assets.custody)
		check.Equal(t, int64(980), f.assets.balances[f.seller])
	})

	t.Run("opening twice is rejected", func(t *testing.T) {
		f := newFixture(t)
		f.open(t, 20)
		_, err := f.auction.Open(context.Background(), f.seller, "asset-token", 20)
		check.True(t, errors.Is(err, ErrAlreadyOpened))
	})
}

func TestMakeBidRejections(t *testing.T) {
	t.Run("before open", func(t *testing.T) {
		f := newFixture(t)
		_, _, err := f.auction.MakeBid(context.Background(), uuid.New(), 10, decimal.NewFromInt(200000))
		check.True(t, errors.Is(err, ErrAuctionNotOpened))
	})

	t.Run("zero quantity", func(t *testing.T) {
		f := newFixture(t)
		f.open(t, 20)
		_, _, err := f.auction.MakeBid(context.Background(), uuid.New(), 0, decimal.NewFromInt(200000))
		check.True(t, errors.Is(err, ErrInvalidQuantity))
	})

	t.Run("invalid payment", func(t *testing.T) {
		f := newFixture(t)
		f.open(t, 20)
		// 10 units at start price 20000 requires 200000
		_, _, err := f.auction.MakeBid(context.Background(), uuid.New(), 10, decimal.NewFromInt(199999))
		check.True(t, errors.Is(err, ErrInvalidPayment))
		check.Equal(t, 0, len(f.payments.settlements))
		check.Equal(t, int64(20), f.auction.Snapshot().Remaining)
	})

	t.Run("payment is checked before supply", func(t *testing.T) {
		f := newFixture(t)
		f.open(t, 20)
		// over-request and underpayment at once: payment precedes supply in
		// the precondition order
		_, _, err := f.auction.MakeBid(context.Background(), uuid.New(), 30, decimal.NewFromInt(1))
		check.True(t, errors.Is(err, ErrInvalidPayment))
	})

	t.Run("over-request is rejected, never capped", func(t *testing.T) {
		f := newFixture(t)
		f.open(t, 20)
		price, err := f.auction.CurrentPrice()
		assert.NoError(t, err)
		_, _, err = f.auction.MakeBid(context.Background(), uuid.New(), 21, price.Mul(decimal.NewFromInt(21)))
		check.True(t, errors.Is(err, ErrInsufficientSupply))
		check.Equal(t, int64(20), f.auction.Snapshot().Remaining)
		check.Equal(t, 0, len(f.payments.settlements))
	})
}

// The reviewed scenario: open 20 units, admit 10 and 7, reject an 11-unit
// over-request against the remaining 3, then sell out with an exact bid.
func TestMakeBidScenario(t *testing.T) {
	f := newFixture(t)
	buyer1, buyer2, buyer3 := uuid.New(), uuid.New(), uuid.New()
	ctx := context.Background()

	f.open(t, 20)

	// day 1: price 19000
	f.clock.Advance(24 * time.Hour)
	bid1, events, err := f.bidAtCurrentPrice(t, buyer1, 10)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(events))
	check.True(t, bid1.PricePerUnit.Equal(decimal.NewFromInt(19000)))
	check.True(t, bid1.TotalPaid.Equal(decimal.NewFromInt(190000)))
	check.Equal(t, int64(10), f.auction.Snapshot().Remaining)

	// day 2: price 18000
	f.clock.Advance(24 * time.Hour)
	bid2, _, err := f.bidAtCurrentPrice(t, buyer2, 7)
	assert.NoError(t, err)
	check.True(t, bid2.TotalPaid.Equal(decimal.NewFromInt(126000)))
	check.Equal(t, int64(3), f.auction.Snapshot().Remaining)

	// 11 units against 3 remaining must be rejected outright
	_, _, err = f.bidAtCurrentPrice(t, buyer3, 11)
	check.True(t, errors.Is(err, ErrInsufficientSupply))
	check.Equal(t, int64(3), f.auction.Snapshot().Remaining)
	check.Equal(t, 2, len(f.payments.settlements))

	// the exact remainder closes the auction as sold out
	bid3, events, err := f.bidAtCurrentPrice(t, buyer3, 3)
	assert.NoError(t, err)
	check.True(t, bid3.TotalPaid.Equal(decimal.NewFromInt(54000)))

	// closure precedes the bid's own confirmation in event order
	assert.Equal(t, 2, len(events))
	closed, ok := events[0].(AuctionClosed)
	assert.True(t, ok)
	check.Equal(t, CloseReasonSoldOut, closed.Reason)
	placed, ok := events[1].(BidPlaced)
	assert.True(t, ok)
	check.Equal(t, buyer3, placed.Bidder)

	snap := f.auction.Snapshot()
	check.Equal(t, PhaseClosed, snap.Phase)
	check.Equal(t, CloseReasonSoldOut, snap.CloseReason)
	check.Equal(t, int64(0), snap.Remaining)

	// all supply delivered, exact payments captured
	check.Equal(t, int64(0), f.assets.custody)
	check.Equal(t, int64(10), f.assets.delivered[buyer1])
	check.Equal(t, int64(7), f.assets.delivered[buyer2])
	check.Equal(t, int64(3), f.assets.delivered[buyer3])
	for _, s := range f.payments.settlements {
		check.Equal(t, f.seller, s.payee)
	}

	// no further state change succeeds
	_, _, err = f.auction.MakeBid(ctx, buyer1, 1, decimal.NewFromInt(20000))
	check.True(t, errors.Is(err, ErrAuctionClosed))
	_, err = f.auction.Close(f.seller)
	check.True(t, errors.Is(err, ErrAuctionClosed))
}

func TestMakeBidRemainingBoundaries(t *testing.T) {
	f := newFixture(t)
	buyer := uuid.New()

	f.open(t, 5)

	// remaining-1 first, then exactly the rest
	_, _, err := f.bidAtCurrentPrice(t, buyer, 4)
	assert.NoError(t, err)
	check.Equal(t, int64(1), f.auction.Snapshot().Remaining)
	check.Equal(t, PhaseOpen, f.auction.Snapshot().Phase)

	_, events, err := f.bidAtCurrentPrice(t, buyer, 1)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(events))
	check.Equal(t, EventAuctionClosed, events[0].EventType())
	check.Equal(t, EventBidPlaced, events[1].EventType())
	check.Equal(t, CloseReasonSoldOut, f.auction.Snapshot().CloseReason)
}

// Excess tendered payment is never captured: settlement always moves exactly
// the required amount.
func TestMakeBidExcessPaymentNotCaptured(t *testing.T) {
	f := newFixture(t)
	buyer := uuid.New()

	f.open(t, 20)
	required := decimal.NewFromInt(2 * 20000)
	_, _, err := f.auction.MakeBid(context.Background(), buyer, 2, required.Add(decimal.NewFromInt(5000)))
	assert.NoError(t, err)

	assert.Equal(t, 1, len(f.payments.settlements))
	check.True(t, f.payments.settlements[0].amount.Equal(required))
}

// Ceiling rounding must flow through to the required payment.
func TestMakeBidCeilingPrice(t *testing.T) {
	seller := uuid.New()
	assets := newFakeAssetLedger()
	assets.balances[seller] = 100
	payments := &fakePaymentLedger{}
	clk := newFakeClock()

	cfg, err := NewAuctionConfig(seller, decimal.NewFromInt(10), decimal.NewFromInt(100), 7*time.Second)
	assert.NoError(t, err)
	auction, err := NewAuction(uuid.New(), cfg, assets, payments, clk)
	assert.NoError(t, err)

	_, err = auction.Open(context.Background(), seller, "asset-token", 10)
	assert.NoError(t, err)

	clk.Advance(time.Second) // true price 87.142..., charged price 88
	buyer := uuid.New()

	_, _, err = auction.MakeBid(context.Background(), buyer, 2, decimal.NewFromInt(175))
	check.True(t, errors.Is(err, ErrInvalidPayment))

	bid, _, err := auction.MakeBid(context.Background(), buyer, 2, decimal.NewFromInt(176))
	assert.NoError(t, err)
	check.True(t, bid.PricePerUnit.Equal(decimal.NewFromInt(88)))
	check.True(t, bid.TotalPaid.Equal(decimal.NewFromInt(176)))
}

func TestSellerClose(t *testing.T) {
	t.Run("close before open", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.auction.Close(f.seller)
		check.True(t, errors.Is(err, ErrAuctionNotOpened))
	})

	t.Run("only seller can close", func(t *testing.T) {
		f := newFixture(t)
		f.open(t, 20)
		_, err := f.auction.Close(uuid.New())
		check.True(t, errors.Is(err, ErrNotSeller))
		check.Equal(t, PhaseOpen, f.auction.Snapshot().Phase)
	})

	t.Run("close stops further bids", func(t *testing.T) {
		f := newFixture(t)
		f.open(t, 20)

		events, err := f.auction.Close(f.seller)
		assert.NoError(t, err)
		assert.Equal(t, 1, len(events))
		closed, ok := events[0].(AuctionClosed)
		assert.True(t, ok)
		check.Equal(t, CloseReasonSellerClosed, closed.Reason)

		// no funds moved on a seller close
		check.Equal(t, int64(20), f.assets.custody)
		check.Equal(t, 0, len(f.payments.settlements))

		_, _, err = f.auction.MakeBid(context.Background(), uuid.New(), 1, decimal.NewFromInt(20000))
		check.True(t, errors.Is(err, ErrAuctionClosed))
		check.Equal(t, int64(20), f.auction.Snapshot().Remaining)

		_, err = f.auction.Close(f.seller)
		check.True(t, errors.Is(err, ErrAuctionClosed))
	})
}

func TestExpiry(t *testing.T) {
	f := newFixture(t)
	buyer := uuid.New()

	f.open(t, 20)
	f.clock.Advance(11 * 24 * time.Hour) // past the 10 day period

	t.Run("bid after expiry is rejected without mutation", func(t *testing.T) {
		_, _, err := f.auction.MakeBid(context.Background(), buyer, 1, decimal.NewFromInt(20000))
		check.True(t, errors.Is(err, ErrAuctionClosed))
		check.Equal(t, int64(20), f.auction.Snapshot().Remaining)
		check.Equal(t, 0, len(f.payments.settlements))
	})

	t.Run("seller close after expiry is rejected", func(t *testing.T) {
		_, err := f.auction.Close(f.seller)
		check.True(t, errors.Is(err, ErrAuctionClosed))
	})

	t.Run("state reads as closed by expiry", func(t *testing.T) {
		snap := f.auction.Snapshot()
		check.Equal(t, PhaseClosed, snap.Phase)
		check.Equal(t, CloseReasonExpired, snap.CloseReason)
	})

	t.Run("price holds at the reserve indefinitely", func(t *testing.T) {
		price, err := f.auction.CurrentPrice()
		assert.NoError(t, err)
		check.True(t, price.Equal(decimal.NewFromInt(10000)))

		f.clock.Advance(365 * 24 * time.Hour)
		price, err = f.auction.CurrentPrice()
		assert.NoError(t, err)
		check.True(t, price.Equal(decimal.NewFromInt(10000)))
	})
}

func TestCurrentPriceBeforeOpen(t *testing.T) {
	f := newFixture(t)
	_, err := f.auction.CurrentPrice()
	check.True(t, errors.Is(err, ErrAuctionNotOpened))
}

// A failed delivery must refund the already-settled payment: the buyer never
// ends up having paid for an undelivered asset.
func TestMakeBidRefundsOnFailedDelivery(t *testing.T) {
	seller := uuid.New()
	buyer := uuid.New()
	inner := newFakeAssetLedger()
	inner.balances[seller] = 100
	assets := &failingAssetLedger{fakeAssetLedger: inner}
	payments := &fakePaymentLedger{}
	clk := newFakeClock()

	cfg, err := NewAuctionConfig(seller,
		decimal.NewFromInt(10000), decimal.NewFromInt(20000), 10*24*time.Hour)
	assert.NoError(t, err)
	auction, err := NewAuction(uuid.New(), cfg, assets, payments, clk)
	assert.NoError(t, err)

	_, err = auction.Open(context.Background(), seller, "asset-token", 20)
	assert.NoError(t, err)

	_, _, err = auction.MakeBid(context.Background(), buyer, 2, decimal.NewFromInt(40000))
	check.Error(t, err)

	// the charge and its refund cancel out
	assert.Equal(t, 2, len(payments.settlements))
	charge, refund := payments.settlements[0], payments.settlements[1]
	check.Equal(t, buyer, charge.payer)
	check.Equal(t, seller, charge.payee)
	check.Equal(t, seller, refund.payer)
	check.Equal(t, buyer, refund.payee)
	check.True(t, charge.amount.Equal(refund.amount))

	snap := auction.Snapshot()
	check.Equal(t, int64(20), snap.Remaining)
	check.Equal(t, PhaseOpen, snap.Phase)
}

func TestRestoreAuction(t *testing.T) {
	f := newFixture(t)
	buyer := uuid.New()

	f.open(t, 20)
	_, _, err := f.bidAtCurrentPrice(t, buyer, 5)
	assert.NoError(t, err)

	snap := f.auction.Snapshot()
	restored, err := RestoreAuction(snap, f.assets, f.payments, f.clock)
	assert.NoError(t, err)

	got := restored.Snapshot()
	check.Equal(t, snap.ID, got.ID)
	check.Equal(t, int64(15), got.Remaining)
	check.Equal(t, PhaseOpen, got.Phase)

	// the restored aggregate keeps settling bids on the same schedule
	price, err := restored.CurrentPrice()
	assert.NoError(t, err)
	check.True(t, price.Equal(decimal.NewFromInt(20000)))

	_, _, err = restored.MakeBid(context.Background(), buyer, 1, decimal.NewFromInt(20000))
	assert.NoError(t, err)
	check.Equal(t, int64(14), restored.Snapshot().Remaining)
}

func TestRestoreAuctionUnopened(t *testing.T) {
	f := newFixture(t)
	persisted := f.auction.Snapshot()

	restored, err := RestoreAuction(persisted, f.assets, f.payments, f.clock)
	assert.NoError(t, err)
	check.Equal(t, PhaseUnopened, restored.Snapshot().Phase)

	// the seller can still open it after a restart
	_, err = restored.Open(context.Background(), f.seller, "asset-token", 20)
	assert.NoError(t, err)
	check.Equal(t, PhaseOpen, restored.Snapshot().Phase)
}

func TestRestoreAuctionExpiredWhileDown(t *testing.T) {
	f := newFixture(t)
	f.open(t, 20)
	persisted := f.auction.Snapshot()

	f.clock.Advance(11 * 24 * time.Hour)
	restored, err := RestoreAuction(persisted, f.assets, f.payments, f.clock)
	assert.NoError(t, err)

	_, _, err = restored.MakeBid(context.Background(), uuid.New(), 1, decimal.NewFromInt(20000))
	check.True(t, errors.Is(err, ErrAuctionClosed))
	check.Equal(t, CloseReasonExpired, restored.Snapshot().CloseReason)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err      error
		expected ErrorKind
	}{
		{ErrInvalidReservePrice, KindConfiguration},
		{ErrNotSeller, KindAuthorization},
		{ErrAuctionClosed, KindPhase},
		{ErrInsufficientSupply, KindValidation},
		{ErrInvalidPayment, KindPayment},
		{errors.New("something else"), KindUnknown},
	}
	for _, tt := range tests {
		check.Equal(t, tt.expected, KindOf(tt.err))
	}
}
