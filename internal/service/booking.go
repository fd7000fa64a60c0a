package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/rental-ledger/internal/events"
	"github.com/Shivanand-hulikatti/rental-ledger/internal/logger"
	"github.com/Shivanand-hulikatti/rental-ledger/internal/model"
	"github.com/Shivanand-hulikatti/rental-ledger/internal/repository"
	"github.com/google/uuid"
)

// BookingLedger owns rental agreements and drives their lifecycle.
type BookingLedger struct {
	store     repository.Store
	escrow    *EscrowAccount
	publisher events.Publisher
	log       logger.Logger
}

// NewBookingLedger constructs a BookingLedger.
func NewBookingLedger(store repository.Store, escrow *EscrowAccount, publisher events.Publisher, log logger.Logger) *BookingLedger {
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}
	return &BookingLedger{
		store:     store,
		escrow:    escrow,
		publisher: publisher,
		log:       log.WithFields(logger.Fields{"component": "booking_ledger"}),
	}
}

// IsAvailableForDates reports whether the property exists, is active and has
// no active agreement overlapping [start, end).
func (l *BookingLedger) IsAvailableForDates(ctx context.Context, propertyID int64, start, end time.Time) (bool, error) {
	if !start.Before(end) {
		return false, nil
	}
	p, err := l.store.GetProperty(ctx, propertyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get property: %w", err)
	}
	if !p.IsAvailable {
		return false, nil
	}
	active, err := l.store.ActiveAgreements(ctx, propertyID)
	if err != nil {
		return false, fmt.Errorf("load active rentals: %w", err)
	}
	return !hasConflict(active, start, end), nil
}

// HasDateConflict reports whether an active agreement overlaps
// [start, end), regardless of the property's availability flag.
func (l *BookingLedger) HasDateConflict(ctx context.Context, propertyID int64, start, end time.Time) (bool, error) {
	active, err := l.activeAgreements(ctx, propertyID)
	if err != nil {
		return false, err
	}
	return hasConflict(active, start, end), nil
}

// GetBookedDates returns parallel start/end sequences, one pair per active
// agreement.
func (l *BookingLedger) GetBookedDates(ctx context.Context, propertyID int64) (starts, ends []time.Time, err error) {
	active, err := l.activeAgreements(ctx, propertyID)
	if err != nil {
		return nil, nil, err
	}
	starts = make([]time.Time, 0, len(active))
	ends = make([]time.Time, 0, len(active))
	for _, a := range active {
		starts = append(starts, a.StartDate)
		ends = append(ends, a.EndDate)
	}
	return starts, ends, nil
}

func (l *BookingLedger) activeAgreements(ctx context.Context, propertyID int64) ([]model.RentalAgreement, error) {
	active, err := l.store.ActiveAgreements(ctx, propertyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("property %d: %w", propertyID, ErrNotFound)
		}
		return nil, fmt.Errorf("load active rentals: %w", err)
	}
	return active, nil
}

// RentProperty books [start, end) for tenant and locks paidAmount in escrow.
//
// Preconditions are checked in order and the first failure is reported:
// the property must exist and be active, the range must be non-empty and
// not in the past, it must not overlap an active agreement, and the payment
// must equal rent plus deposit. The availability check and the insert run
// under the property's exclusive section, so two overlapping requests can
// never both succeed.
//
// An owner booking their own property with a zero payment creates a block:
// an ordinary active agreement with nothing in escrow.
func (l *BookingLedger) RentProperty(ctx context.Context, tenant string, propertyID int64, start, end time.Time, paidAmount int64, now time.Time) (int64, error) {
	if tenant == "" {
		return 0, fmt.Errorf("%w: tenant identity is required", ErrUnauthorized)
	}

	var (
		agreement *model.RentalAgreement
		owner     string
	)
	err := l.store.InTx(ctx, func(tx repository.Tx) error {
		p, err := tx.LockProperty(ctx, propertyID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%w: property %d does not exist", ErrNotAvailable, propertyID)
			}
			return err
		}
		if !p.IsAvailable {
			return fmt.Errorf("%w: property %d is inactive", ErrNotAvailable, propertyID)
		}
		owner = p.Owner

		if !start.Before(end) {
			return fmt.Errorf("%w: start must be before end", ErrInvalidDates)
		}
		if start.Before(now) {
			return fmt.Errorf("%w: start is in the past", ErrInvalidDates)
		}

		active, err := tx.ActiveAgreements(ctx, propertyID)
		if err != nil {
			return err
		}
		if hasConflict(active, start, end) {
			return fmt.Errorf("%w: property %d", ErrDateConflict, propertyID)
		}

		// A block holds no funds, so it records zero rent and deposit rather
		// than the quote; its escrow balances at zero.
		var q Quote
		if isBlock := tenant == p.Owner && paidAmount == 0; !isBlock {
			if q, err = quote(p, start, end); err != nil {
				return err
			}
			if paidAmount != q.Expected() {
				return fmt.Errorf("%w: paid %d, expected %d", ErrPaymentMismatch, paidAmount, q.Expected())
			}
		}

		agreement = &model.RentalAgreement{
			PropertyID: propertyID,
			Tenant:     tenant,
			StartDate:  start.UTC(),
			EndDate:    end.UTC(),
			TotalPrice: q.TotalPrice,
			Deposit:    q.Deposit,
			Status:     model.StatusActive,
			CreatedAt:  now.UTC(),
		}
		if err := tx.CreateAgreement(ctx, agreement); err != nil {
			return err
		}
		return l.escrow.lock(ctx, tx, agreement)
	})
	if err != nil {
		if IsBusinessError(err) {
			return 0, err
		}
		return 0, fmt.Errorf("rent property: %w", err)
	}

	l.log.Info("rental created", logger.Fields{
		"rental_id":   agreement.ID,
		"property_id": propertyID,
		"tenant":      tenant,
		"escrowed":    agreement.Escrowed(),
	})
	l.publish(ctx, events.RentalCreated, agreement, owner, now)
	return agreement.ID, nil
}

// CompleteRental settles an agreement whose stay has ended: rent to the
// owner, deposit back to the tenant.
func (l *BookingLedger) CompleteRental(ctx context.Context, rentalID int64, caller string, now time.Time) error {
	return l.finish(ctx, rentalID, caller, now, model.StatusCompleted)
}

// CancelRental settles an active agreement early. See
// EscrowAccount.settleOnCancellation for the split.
func (l *BookingLedger) CancelRental(ctx context.Context, rentalID int64, caller string, now time.Time) error {
	return l.finish(ctx, rentalID, caller, now, model.StatusCancelled)
}

// finish moves an agreement to a terminal status and settles its escrow in
// the same unit of work. Guards run in order: existence, caller, current
// status, then (for completion) the end date.
func (l *BookingLedger) finish(ctx context.Context, rentalID int64, caller string, now time.Time, to model.RentalStatus) error {
	var (
		agreement *model.RentalAgreement
		owner     string
		payouts   []model.Payout
	)
	err := l.store.InTx(ctx, func(tx repository.Tx) error {
		a, err := tx.GetAgreement(ctx, rentalID)
		if err != nil {
			return err
		}
		p, err := tx.LockProperty(ctx, a.PropertyID)
		if err != nil {
			return err
		}
		// Re-read under the property lock; a concurrent transition may
		// have committed in between.
		if a, err = tx.GetAgreement(ctx, rentalID); err != nil {
			return err
		}

		if err := authorize(a, p, caller); err != nil {
			return err
		}
		if err := checkTransition(a, to); err != nil {
			return err
		}

		switch to {
		case model.StatusCompleted:
			if now.Before(a.EndDate) {
				return fmt.Errorf("%w: rental %d ends at %s", ErrNotYetEnded, a.ID, a.EndDate.Format(time.RFC3339))
			}
			payouts, err = l.escrow.settleOnCompletion(ctx, tx, a, p.Owner, now)
		case model.StatusCancelled:
			payouts, err = l.escrow.settleOnCancellation(ctx, tx, a, p.Owner, now)
		}
		if err != nil {
			return err
		}

		if err := tx.UpdateAgreementStatus(ctx, a.ID, to); err != nil {
			return err
		}
		a.Status = to
		agreement, owner = a, p.Owner
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("rental %d: %w", rentalID, ErrNotFound)
		}
		if IsBusinessError(err) {
			return err
		}
		return fmt.Errorf("finish rental %d: %w", rentalID, err)
	}

	l.log.Info("rental settled", logger.Fields{
		"rental_id": rentalID,
		"status":    string(to),
		"payouts":   len(payouts),
		"caller":    caller,
	})

	evtType := events.RentalCompleted
	if to == model.StatusCancelled {
		evtType = events.RentalCancelled
	}
	l.publish(ctx, evtType, agreement, owner, now)
	return nil
}

// GetRentalAgreement returns a single agreement or ErrNotFound.
func (l *BookingLedger) GetRentalAgreement(ctx context.Context, id int64) (*model.RentalAgreement, error) {
	a, err := l.store.GetAgreement(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("rental %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get rental: %w", err)
	}
	return a, nil
}

// GetUserRentals returns the ids of agreements where tenant is the renter.
func (l *BookingLedger) GetUserRentals(ctx context.Context, tenant string) ([]int64, error) {
	ids, err := l.store.ListRentalIDsByTenant(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("list tenant rentals: %w", err)
	}
	return ids, nil
}

// publish runs after commit. A failure is logged and otherwise ignored:
// the ledger state is already final.
func (l *BookingLedger) publish(ctx context.Context, evtType string, a *model.RentalAgreement, owner string, now time.Time) {
	evt := events.LedgerEvent{
		ID:         uuid.NewString(),
		Type:       evtType,
		RentalID:   a.ID,
		PropertyID: a.PropertyID,
		Tenant:     a.Tenant,
		Owner:      owner,
		Status:     string(a.Status),
		Escrowed:   a.Escrowed(),
		OccurredAt: now.UTC(),
	}
	if err := l.publisher.Publish(context.WithoutCancel(ctx), evt); err != nil {
		l.log.Error("failed to publish ledger event", err, logger.Fields{"type": evtType, "rental_id": a.ID})
	}
}
