// Package service implements the booking ledger: the property registry,
// rental agreements with their lifecycle, and the escrow that holds funds
// until an agreement is settled.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/rental-ledger/internal/logger"
	"github.com/Shivanand-hulikatti/rental-ledger/internal/model"
	"github.com/Shivanand-hulikatti/rental-ledger/internal/repository"
)

// PropertyRegistry owns property records and their availability flags.
type PropertyRegistry struct {
	store repository.Store
	log   logger.Logger
}

// NewPropertyRegistry constructs a PropertyRegistry.
func NewPropertyRegistry(store repository.Store, log logger.Logger) *PropertyRegistry {
	return &PropertyRegistry{store: store, log: log.WithFields(logger.Fields{"component": "property_registry"})}
}

// ListProperty validates the listing and records it as available.
func (r *PropertyRegistry) ListProperty(ctx context.Context, owner string, req model.ListPropertyRequest) (int64, error) {
	owner = strings.TrimSpace(owner)
	req.Title = strings.TrimSpace(req.Title)
	req.Location = strings.TrimSpace(req.Location)

	switch {
	case owner == "":
		return 0, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	case req.Title == "":
		return 0, fmt.Errorf("%w: title is required", ErrInvalidInput)
	case req.Location == "":
		return 0, fmt.Errorf("%w: location is required", ErrInvalidInput)
	case req.PricePerDay <= 0:
		return 0, fmt.Errorf("%w: price per day must be positive", ErrInvalidInput)
	case req.Deposit < 0:
		return 0, fmt.Errorf("%w: deposit must not be negative", ErrInvalidInput)
	}

	p := &model.Property{
		Owner:       owner,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		PricePerDay: req.PricePerDay,
		Deposit:     req.Deposit,
		IsAvailable: true,
		RentalIDs:   []int64{},
	}
	err := r.store.InTx(ctx, func(tx repository.Tx) error {
		return tx.CreateProperty(ctx, p)
	})
	if err != nil {
		return 0, fmt.Errorf("list property: %w", err)
	}

	r.log.Info("property listed", logger.Fields{"property_id": p.ID, "owner": owner})
	return p.ID, nil
}

// GetProperty returns a single property or ErrNotFound.
func (r *PropertyRegistry) GetProperty(ctx context.Context, id int64) (*model.Property, error) {
	p, err := r.store.GetProperty(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("property %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get property: %w", err)
	}
	return p, nil
}

// GetAvailableProperties returns active listings in insertion order.
func (r *PropertyRegistry) GetAvailableProperties(ctx context.Context) ([]model.Property, error) {
	props, err := r.store.ListAvailableProperties(ctx)
	if err != nil {
		return nil, fmt.Errorf("list available properties: %w", err)
	}
	return props, nil
}

// GetUserProperties returns the ids of properties listed by owner.
func (r *PropertyRegistry) GetUserProperties(ctx context.Context, owner string) ([]int64, error) {
	ids, err := r.store.ListPropertyIDsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list owner properties: %w", err)
	}
	return ids, nil
}

// GetPropertyRentals returns every agreement id ever created on the property.
func (r *PropertyRegistry) GetPropertyRentals(ctx context.Context, id int64) ([]int64, error) {
	p, err := r.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.RentalIDs, nil
}

// SetAvailability activates or deactivates a listing. Only the owner may
// do so. Existing agreements are unaffected; an inactive property just
// stops accepting new bookings.
func (r *PropertyRegistry) SetAvailability(ctx context.Context, id int64, caller string, available bool) error {
	err := r.store.InTx(ctx, func(tx repository.Tx) error {
		p, err := tx.LockProperty(ctx, id)
		if err != nil {
			return err
		}
		if caller == "" || caller != p.Owner {
			return fmt.Errorf("%w: only the owner may change availability of property %d", ErrUnauthorized, id)
		}
		if p.IsAvailable == available {
			return nil
		}
		return tx.SetPropertyAvailability(ctx, id, available)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("property %d: %w", id, ErrNotFound)
		}
		if IsBusinessError(err) {
			return err
		}
		return fmt.Errorf("set availability: %w", err)
	}

	r.log.Info("property availability changed", logger.Fields{"property_id": id, "available": available})
	return nil
}
