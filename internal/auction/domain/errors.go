package domain

import "errors"

// ErrorKind classifies the rejection of a call so that transport layers can
// map it without matching every sentinel individually.
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindAuthorization ErrorKind = "authorization"
	KindPhase         ErrorKind = "phase"
	KindValidation    ErrorKind = "validation"
	KindPayment       ErrorKind = "payment"
	KindUnknown       ErrorKind = "unknown"
)

var (
	// configuration errors, fatal at construction
	ErrInvalidSeller       = errors.New("invalid seller identity")
	ErrInvalidReservePrice = errors.New("reserve price must be a positive integer amount")
	ErrInvalidStartPrice   = errors.New("start price must be an integer amount greater than the reserve price")
	ErrInvalidPeriod       = errors.New("auction period must be at least one second")

	// authorization
	ErrNotSeller = errors.New("caller is not the auction seller")

	// phase
	ErrAuctionNotOpened = errors.New("auction has not been opened")
	ErrAlreadyOpened    = errors.New("auction was already opened")
	ErrAuctionClosed    = errors.New("auction is closed")

	// validation
	ErrInvalidQuantity     = errors.New("quantity must be greater than zero")
	ErrInvalidAsset        = errors.New("invalid asset identity")
	ErrInsufficientBalance = errors.New("seller balance is below the offered quantity")
	ErrInsufficientSupply  = errors.New("requested quantity exceeds remaining supply")

	// payment
	ErrInvalidPayment = errors.New("tendered payment does not cover the bid")

	ErrAuctionNotFound = errors.New("auction not found")
)

// KindOf resolves the taxonomy kind of a (possibly wrapped) domain error.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidSeller),
		errors.Is(err, ErrInvalidReservePrice),
		errors.Is(err, ErrInvalidStartPrice),
		errors.Is(err, ErrInvalidPeriod):
		return KindConfiguration
	case errors.Is(err, ErrNotSeller):
		return KindAuthorization
	case errors.Is(err, ErrAuctionNotOpened),
		errors.Is(err, ErrAlreadyOpened),
		errors.Is(err, ErrAuctionClosed):
		return KindPhase
	case errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidAsset),
		errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrInsufficientSupply):
		return KindValidation
	case errors.Is(err, ErrInvalidPayment):
		return KindPayment
	default:
		return KindUnknown
	}
}
