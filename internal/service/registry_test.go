package service

import (
	"errors"
	"slices"
	"testing"

	"github.com/Shivanand-hulikatti/rental-ledger/internal/model"
)

func TestListPropertyValidation(t *testing.T) {
	valid := model.ListPropertyRequest{Title: "Loft", Location: "Porto", PricePerDay: 5, Deposit: 0}

	tests := []struct {
		name   string
		owner  string
		mutate func(*model.ListPropertyRequest)
	}{
		{"empty owner", "", func(*model.ListPropertyRequest) {}},
		{"empty title", owner, func(r *model.ListPropertyRequest) { r.Title = "" }},
		{"blank title", owner, func(r *model.ListPropertyRequest) { r.Title = "   " }},
		{"empty location", owner, func(r *model.ListPropertyRequest) { r.Location = "" }},
		{"zero price", owner, func(r *model.ListPropertyRequest) { r.PricePerDay = 0 }},
		{"negative price", owner, func(r *model.ListPropertyRequest) { r.PricePerDay = -1 }},
		{"negative deposit", owner, func(r *model.ListPropertyRequest) { r.Deposit = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := valid
			tt.mutate(&req)
			_, err := f.ledger.Properties.ListProperty(f.ctx, tt.owner, req)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("got %v, want ErrInvalidInput", err)
			}
			props, _ := f.ledger.Properties.GetAvailableProperties(f.ctx)
			if len(props) != 0 {
				t.Errorf("invalid listing was stored: %+v", props)
			}
		})
	}
}

func TestListPropertyAssignsMonotonicIDs(t *testing.T) {
	f := newFixture(t)
	first := f.listProperty(t)
	second := f.listProperty(t)
	if first != 1 || second != 2 {
		t.Fatalf("ids: got %d, %d", first, second)
	}

	p, err := f.ledger.Properties.GetProperty(f.ctx, second)
	if err != nil {
		t.Fatalf("GetProperty: %v", err)
	}
	if !p.IsAvailable || p.Owner != owner || len(p.RentalIDs) != 0 {
		t.Errorf("unexpected property: %+v", p)
	}
}

func TestGetPropertyNotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.ledger.Properties.GetProperty(f.ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestAvailablePropertiesAndOwnership(t *testing.T) {
	f := newFixture(t)
	a := f.listProperty(t)
	b := f.listProperty(t)
	other, err := f.ledger.Properties.ListProperty(f.ctx, tenantA, model.ListPropertyRequest{
		Title: "Cabin", Location: "Sintra", PricePerDay: 7,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := f.ledger.Properties.SetAvailability(f.ctx, b, owner, false); err != nil {
		t.Fatalf("SetAvailability: %v", err)
	}

	props, err := f.ledger.Properties.GetAvailableProperties(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	var ids []int64
	for _, p := range props {
		ids = append(ids, p.ID)
	}
	if !slices.Equal(ids, []int64{a, other}) {
		t.Errorf("available: got %v", ids)
	}

	owned, err := f.ledger.Properties.GetUserProperties(f.ctx, owner)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(owned, []int64{a, b}) {
		t.Errorf("owned: got %v", owned)
	}
}

func TestSetAvailability(t *testing.T) {
	f := newFixture(t)
	id := f.listProperty(t)

	if err := f.ledger.Properties.SetAvailability(f.ctx, id, tenantA, false); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger: got %v", err)
	}
	if err := f.ledger.Properties.SetAvailability(f.ctx, 99, owner, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: got %v", err)
	}

	rentalID := f.rent(t, tenantA, id, 10, 13, 80)
	if err := f.ledger.Properties.SetAvailability(f.ctx, id, owner, false); err != nil {
		t.Fatal(err)
	}

	_, err := f.ledger.Bookings.RentProperty(f.ctx, tenantB, id, dayAt(20), dayAt(21), 60, dayAt(0))
	if !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("rent inactive: got %v", err)
	}
	ok, err := f.ledger.Bookings.IsAvailableForDates(f.ctx, id, dayAt(20), dayAt(21))
	if err != nil || ok {
		t.Fatalf("IsAvailableForDates inactive: %v, %v", ok, err)
	}

	// Existing agreements survive deactivation and can still settle.
	if err := f.ledger.Bookings.CancelRental(f.ctx, rentalID, tenantA, dayAt(1)); err != nil {
		t.Fatalf("cancel on inactive property: %v", err)
	}

	if err := f.ledger.Properties.SetAvailability(f.ctx, id, owner, true); err != nil {
		t.Fatal(err)
	}
	f.rent(t, tenantB, id, 20, 21, 60)
}

func TestGetPropertyRentals(t *testing.T) {
	f := newFixture(t)
	id := f.listProperty(t)
	r1 := f.rent(t, tenantA, id, 1, 2, 60)
	r2 := f.rent(t, tenantB, id, 2, 3, 60)
	if err := f.ledger.Bookings.CancelRental(f.ctx, r1, tenantA, dayAt(0)); err != nil {
		t.Fatal(err)
	}

	ids, err := f.ledger.Properties.GetPropertyRentals(f.ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids, []int64{r1, r2}) {
		t.Errorf("rental ids: got %v", ids)
	}
}
