// Package repository implements persistence for the booking ledger.
// Two stores satisfy the same contract: an in-process memory store and a
// PostgreSQL store built on pgx (no ORM).
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Shivanand-hulikatti/rental-ledger/internal/model"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Tx is the mutation API available inside a unit of work. Every write made
// through a Tx becomes visible together on commit or not at all.
type Tx interface {
	// CreateProperty inserts p and assigns p.ID.
	CreateProperty(ctx context.Context, p *model.Property) error

	// LockProperty returns the property and holds an exclusive section on it
	// until the unit of work ends. All booking writes against one property
	// go through this lock.
	LockProperty(ctx context.Context, id int64) (*model.Property, error)
	SetPropertyAvailability(ctx context.Context, id int64, available bool) error

	ActiveAgreements(ctx context.Context, propertyID int64) ([]model.RentalAgreement, error)
	GetAgreement(ctx context.Context, id int64) (*model.RentalAgreement, error)

	// CreateAgreement inserts a, assigns a.ID and appends it to the
	// owning property's rental ids.
	CreateAgreement(ctx context.Context, a *model.RentalAgreement) error
	UpdateAgreementStatus(ctx context.Context, id int64, status model.RentalStatus) error

	CreateEscrow(ctx context.Context, e *model.Escrow) error
	GetEscrow(ctx context.Context, rentalID int64) (*model.Escrow, error)
	MarkEscrowSettled(ctx context.Context, rentalID int64, at time.Time) error
	CreatePayout(ctx context.Context, p *model.Payout) error
}

// Store is the ledger's authoritative record.
type Store interface {
	// InTx runs fn as one atomic unit of work. If fn returns an error every
	// write it made is discarded and the error is returned unchanged.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	GetProperty(ctx context.Context, id int64) (*model.Property, error)
	ListAvailableProperties(ctx context.Context) ([]model.Property, error)
	ListPropertyIDsByOwner(ctx context.Context, owner string) ([]int64, error)

	ActiveAgreements(ctx context.Context, propertyID int64) ([]model.RentalAgreement, error)
	GetAgreement(ctx context.Context, id int64) (*model.RentalAgreement, error)
	ListRentalIDsByTenant(ctx context.Context, tenant string) ([]int64, error)

	GetEscrow(ctx context.Context, rentalID int64) (*model.Escrow, error)
	ListPayouts(ctx context.Context, rentalID int64) ([]model.Payout, error)

	Ping(ctx context.Context) error
	Close()
}
