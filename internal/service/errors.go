package service

import (
	"errors"

	"github.com/Shivanand-hulikatti/rental-ledger/internal/repository"
)

// Business rule violations. Each leaves ledger state unchanged and is never
// retried by the ledger itself.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = repository.ErrNotFound
	ErrNotAvailable    = errors.New("property is not available")
	ErrInvalidDates    = errors.New("invalid dates")
	ErrDateConflict    = errors.New("dates conflict with an existing rental")
	ErrPaymentMismatch = errors.New("payment does not match the expected amount")
	ErrUnauthorized    = errors.New("caller is not a party to this rental")
	ErrInvalidState    = errors.New("rental is not active")
	ErrNotYetEnded     = errors.New("rental period has not ended")
	ErrAlreadyFinal    = errors.New("escrow already settled")
)

var businessErrors = []error{
	ErrInvalidInput, ErrNotFound, ErrNotAvailable, ErrInvalidDates, ErrDateConflict,
	ErrPaymentMismatch, ErrUnauthorized, ErrInvalidState, ErrNotYetEnded, ErrAlreadyFinal,
}

// IsBusinessError reports whether err is a rule violation rather than a
// storage or infrastructure failure.
func IsBusinessError(err error) bool {
	for _, target := range businessErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
