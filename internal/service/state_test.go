package service

import (
	"errors"
	"testing"

	"github.com/Shivanand-hulikatti/rental-ledger/internal/model"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from    model.RentalStatus
		to      model.RentalStatus
		wantErr bool
	}{
		{model.StatusActive, model.StatusCompleted, false},
		{model.StatusActive, model.StatusCancelled, false},
		{model.StatusActive, model.StatusActive, true},
		{model.StatusCompleted, model.StatusCancelled, true},
		{model.StatusCompleted, model.StatusCompleted, true},
		{model.StatusCancelled, model.StatusActive, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := checkTransition(&model.RentalAgreement{ID: 1, Status: tt.from}, tt.to)
			if tt.wantErr != (err != nil) {
				t.Fatalf("got %v, wantErr %t", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidState) {
				t.Errorf("got %v, want ErrInvalidState", err)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	if model.StatusActive.IsTerminal() {
		t.Error("Active reported terminal")
	}
	if !model.StatusCompleted.IsTerminal() || !model.StatusCancelled.IsTerminal() {
		t.Error("Completed and Cancelled must be terminal")
	}
}
