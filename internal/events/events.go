// Package events publishes ledger state changes to RabbitMQ after they
// commit. Delivery is best-effort: the ledger is the source of truth.
package events

import (
	"context"
	"time"
)

// Event types.
const (
	RentalCreated   = "rental.created"
	RentalCompleted = "rental.completed"
	RentalCancelled = "rental.cancelled"
)

// LedgerEvent describes one committed transition of a rental agreement.
type LedgerEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	RentalID   int64     `json:"rental_id"`
	PropertyID int64     `json:"property_id"`
	Tenant     string    `json:"tenant"`
	Owner      string    `json:"owner"`
	Status     string    `json:"status"`
	Escrowed   int64     `json:"escrowed"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers ledger events.
type Publisher interface {
	Publish(ctx context.Context, evt LedgerEvent) error
	Close() error
}

type nopPublisher struct{}

// NewNopPublisher returns a Publisher that drops every event.
func NewNopPublisher() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, LedgerEvent) error { return nil }
func (nopPublisher) Close() error { return nil }
