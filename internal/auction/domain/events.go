package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType identifies the kind of an observable auction event.
type EventType string

const (
	EventAuctionOpened EventType = "auction_opened"
	EventBidPlaced     EventType = "bid_placed"
	EventAuctionClosed EventType = "auction_closed"
)

// Event is a fact committed by an auction operation. Every state-changing
// operation returns its events as an ordered slice; that order is part of the
// contract. In particular, a bid that exhausts the supply yields
// AuctionClosed(SoldOut) before its own BidPlaced.
type Event interface {
	EventType() EventType
}

// AuctionOpened is emitted when the seller opens the auction and the asset is
// pulled into custody.
type AuctionOpened struct {
	AuctionID     uuid.UUID
	Asset         string
	TotalQuantity int64
}

func (AuctionOpened) EventType() EventType { return EventAuctionOpened }

// BidPlaced is emitted for every admitted bid.
type BidPlaced struct {
	AuctionID    uuid.UUID
	Bidder       uuid.UUID
	Quantity     int64
	PricePerUnit decimal.Decimal
	TotalPaid    decimal.Decimal
}

func (BidPlaced) EventType() EventType { return EventBidPlaced }

// AuctionClosed is emitted when the auction reaches its terminal phase,
// either sold out or closed by the seller. Expiry is never emitted: it is a
// derived predicate, observed lazily, and expired calls are rejected without
// state change.
type AuctionClosed struct {
	AuctionID uuid.UUID
	Reason    CloseReason
}

func (AuctionClosed) EventType() EventType { return EventAuctionClosed }
