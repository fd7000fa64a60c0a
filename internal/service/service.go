package service

import (
	"github.com/Shivanand-hulikatti/rental-ledger/internal/events"
	"github.com/Shivanand-hulikatti/rental-ledger/internal/logger"
	"github.com/Shivanand-hulikatti/rental-ledger/internal/repository"
)

// Ledger groups the three capabilities over one store. Callers receive the
// narrow component they need rather than the whole ledger.
type Ledger struct {
	Properties *PropertyRegistry
	Bookings   *BookingLedger
	Escrow     *EscrowAccount
}

// New wires the ledger components together.
func New(store repository.Store, publisher events.Publisher, log logger.Logger) *Ledger {
	escrow := NewEscrowAccount(store)
	return &Ledger{
		Properties: NewPropertyRegistry(store, log),
		Bookings:   NewBookingLedger(store, escrow, publisher, log),
		Escrow:     escrow,
	}
}
