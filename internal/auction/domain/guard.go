package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle guard: caller and phase checks shared by open, close and bid
// settlement. All guard methods expect the aggregate lock to be held.

func (a *Auction) requireSeller(caller uuid.UUID) error {
	if caller != a.config.Seller {
		return ErrNotSeller
	}
	return nil
}

// expired reports whether an open auction is past its deadline. Expiry is a
// derived predicate, never a stored transition.
func (a *Auction) expired(now time.Time) bool {
	if a.phase != PhaseOpen {
		return false
	}
	return !now.Before(a.openedAt.Add(a.config.Period))
}

// requireOpen rejects any state-changing call unless the auction is open and
// not past its deadline. An open-but-expired auction rejects like a closed
// one.
func (a *Auction) requireOpen(now time.Time) error {
	switch {
	case a.phase == PhaseUnopened:
		return ErrAuctionNotOpened
	case a.phase == PhaseClosed, a.expired(now):
		return ErrAuctionClosed
	}
	return nil
}

// effectivePhase resolves the observable phase, folding lazy expiry into
// Closed/Expired for readers.
func (a *Auction) effectivePhase(now time.Time) (Phase, CloseReason) {
	if a.expired(now) {
		return PhaseClosed, CloseReasonExpired
	}
	return a.phase, a.closeReason
}
