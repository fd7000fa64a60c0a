package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/rental-ledger/internal/model"
	"github.com/Shivanand-hulikatti/rental-ledger/internal/repository"
	"github.com/google/uuid"
)

// EscrowAccount holds the funds paid for each agreement and disburses them
// exactly once. Only BookingLedger drives it, always inside the unit of
// work that changes the agreement's status.
type EscrowAccount struct {
	store repository.Store
	newID func() string
}

// NewEscrowAccount constructs an EscrowAccount.
func NewEscrowAccount(store repository.Store) *EscrowAccount {
	return &EscrowAccount{store: store, newID: uuid.NewString}
}

// lock records the agreement's full escrowed balance.
func (e *EscrowAccount) lock(ctx context.Context, tx repository.Tx, a *model.RentalAgreement) error {
	if err := tx.CreateEscrow(ctx, &model.Escrow{RentalID: a.ID, Amount: a.Escrowed()}); err != nil {
		return fmt.Errorf("lock escrow for rental %d: %w", a.ID, err)
	}
	return nil
}

// settleOnCompletion pays the rent to the owner and returns the deposit to
// the tenant.
func (e *EscrowAccount) settleOnCompletion(ctx context.Context, tx repository.Tx, a *model.RentalAgreement, owner string, now time.Time) ([]model.Payout, error) {
	return e.settle(ctx, tx, a, now, []model.Payout{
		{Recipient: owner, Amount: a.TotalPrice, Reason: model.ReasonRent},
		{Recipient: a.Tenant, Amount: a.Deposit, Reason: model.ReasonDepositReturn},
	})
}

// settleOnCancellation refunds everything before the stay starts. Once it
// has started the rent goes back to the tenant and the deposit goes to the
// owner as compensation; there is no pro-rata accounting.
func (e *EscrowAccount) settleOnCancellation(ctx context.Context, tx repository.Tx, a *model.RentalAgreement, owner string, now time.Time) ([]model.Payout, error) {
	if now.Before(a.StartDate) {
		return e.settle(ctx, tx, a, now, []model.Payout{
			{Recipient: a.Tenant, Amount: a.Escrowed(), Reason: model.ReasonRefund},
		})
	}
	return e.settle(ctx, tx, a, now, []model.Payout{
		{Recipient: a.Tenant, Amount: a.TotalPrice, Reason: model.ReasonRefund},
		{Recipient: owner, Amount: a.Deposit, Reason: model.ReasonDepositForfeit},
	})
}

func (e *EscrowAccount) settle(ctx context.Context, tx repository.Tx, a *model.RentalAgreement, now time.Time, split []model.Payout) ([]model.Payout, error) {
	esc, err := tx.GetEscrow(ctx, a.ID)
	if err != nil {
		return nil, fmt.Errorf("load escrow for rental %d: %w", a.ID, err)
	}
	if esc.Settled {
		return nil, fmt.Errorf("%w: rental %d", ErrAlreadyFinal, a.ID)
	}

	var total int64
	for _, p := range split {
		total += p.Amount
	}
	if total != esc.Amount {
		return nil, fmt.Errorf("escrow for rental %d holds %d but settlement pays %d", a.ID, esc.Amount, total)
	}

	payouts := make([]model.Payout, 0, len(split))
	for _, p := range split {
		if p.Amount == 0 {
			continue
		}
		p.ID = e.newID()
		p.RentalID = a.ID
		p.CreatedAt = now
		if err := tx.CreatePayout(ctx, &p); err != nil {
			return nil, fmt.Errorf("record payout for rental %d: %w", a.ID, err)
		}
		payouts = append(payouts, p)
	}

	if err := tx.MarkEscrowSettled(ctx, a.ID, now); err != nil {
		return nil, fmt.Errorf("settle escrow for rental %d: %w", a.ID, err)
	}
	return payouts, nil
}

// Balance returns the escrow record for a rental.
func (e *EscrowAccount) Balance(ctx context.Context, rentalID int64) (*model.Escrow, error) {
	esc, err := e.store.GetEscrow(ctx, rentalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("escrow for rental %d: %w", rentalID, ErrNotFound)
		}
		return nil, fmt.Errorf("get escrow: %w", err)
	}
	return esc, nil
}

// Payouts returns the disbursements made when the rental was settled.
func (e *EscrowAccount) Payouts(ctx context.Context, rentalID int64) ([]model.Payout, error) {
	if _, err := e.Balance(ctx, rentalID); err != nil {
		return nil, err
	}
	payouts, err := e.store.ListPayouts(ctx, rentalID)
	if err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	return payouts, nil
}
