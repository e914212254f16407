package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSchedule is the pure price-decay function of the auction. The price
// equals StartPrice at OpenedAt, decays linearly at one-second resolution, and
// reaches ReservePrice at OpenedAt+Period; from then on it stays at the
// reserve indefinitely.
type PriceSchedule struct {
	StartPrice   decimal.Decimal
	ReservePrice decimal.Decimal
	OpenedAt     time.Time
	Period       time.Duration
}

// PriceAt computes the prevailing price at the given instant. The fractional
// part of the linear interpolation is resolved in the seller's favor: the
// accumulated discount is rounded down, which rounds the price up (ceiling).
func (s PriceSchedule) PriceAt(now time.Time) decimal.Decimal {
	elapsed := now.Sub(s.OpenedAt)
	if elapsed <= 0 {
		return s.StartPrice
	}
	if elapsed >= s.Period {
		return s.ReservePrice
	}

	elapsedSec := decimal.NewFromInt(int64(elapsed / time.Second))
	periodSec := decimal.NewFromInt(int64(s.Period / time.Second))
	discount := s.StartPrice.Sub(s.ReservePrice).Mul(elapsedSec).Div(periodSec).Floor()
	return s.StartPrice.Sub(discount)
}
