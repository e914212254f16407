package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bid records a single admitted bid. A bid is either fully admitted or fully
// rejected; the engine never adjusts a requested quantity.
type Bid struct {
	ID           uuid.UUID
	AuctionID    uuid.UUID
	Bidder       uuid.UUID
	Quantity     int64
	PricePerUnit decimal.Decimal
	TotalPaid    decimal.Decimal
	Timestamp    time.Time
}

// NewBid creates a new Bid instance.
func NewBid(id, auctionID, bidder uuid.UUID, quantity int64, pricePerUnit, totalPaid decimal.Decimal, timestamp time.Time) *Bid {
	return &Bid{
		ID:           id,
		AuctionID:    auctionID,
		Bidder:       bidder,
		Quantity:     quantity,
		PricePerUnit: pricePerUnit,
		TotalPaid:    totalPaid,
		Timestamp:    timestamp,
	}
}
