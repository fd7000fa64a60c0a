package service

import (
	"fmt"

	"github.com/Shivanand-hulikatti/rental-ledger/internal/model"
)

// transitions lists every legal status change. Terminal states have none.
var transitions = map[model.RentalStatus][]model.RentalStatus{
	model.StatusActive: {model.StatusCompleted, model.StatusCancelled},
}

func canTransition(from, to model.RentalStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// authorize admits only the tenant and the property owner.
func authorize(a *model.RentalAgreement, p *model.Property, caller string) error {
	if caller == "" || (caller != a.Tenant && caller != p.Owner) {
		return fmt.Errorf("%w: rental %d", ErrUnauthorized, a.ID)
	}
	return nil
}

func checkTransition(a *model.RentalAgreement, to model.RentalStatus) error {
	if a.Status.IsTerminal() {
		return fmt.Errorf("%w: rental %d is already %s", ErrInvalidState, a.ID, a.Status)
	}
	if !canTransition(a.Status, to) {
		return fmt.Errorf("%w: rental %d is %s", ErrInvalidState, a.ID, a.Status)
	}
	return nil
}
