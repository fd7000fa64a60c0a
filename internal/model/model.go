// Package model defines the core domain types for the rental booking ledger.
package model

import "time"

// SecondsPerDay is the length of one billable day.
const SecondsPerDay = 86400

// Property is a rental unit listed by an owner.
type Property struct {
	ID          int64   `json:"id"`
	Owner       string  `json:"owner"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	PricePerDay int64   `json:"price_per_day"`
	Deposit     int64   `json:"deposit"`
	IsAvailable bool    `json:"is_available"`
	RentalIDs   []int64 `json:"rental_ids"`
}

// Clone returns a copy that shares no memory with p.
func (p *Property) Clone() *Property {
	c := *p
	c.RentalIDs = append([]int64(nil), p.RentalIDs...)
	return &c
}

// RentalStatus is the lifecycle state of a rental agreement.
type RentalStatus string

const (
	StatusActive    RentalStatus = "Active"
	StatusCompleted RentalStatus = "Completed"
	StatusCancelled RentalStatus = "Cancelled"
)

// IsTerminal reports whether no further transition is possible.
func (s RentalStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// RentalAgreement is one booked (or owner-blocked) date range on one property.
// The interval is half-open: [StartDate, EndDate).
type RentalAgreement struct {
	ID         int64        `json:"id"`
	PropertyID int64        `json:"property_id"`
	Tenant     string       `json:"tenant"`
	StartDate  time.Time    `json:"start_date"`
	EndDate    time.Time    `json:"end_date"`
	TotalPrice int64        `json:"total_price"`
	Deposit    int64        `json:"deposit"`
	Status     RentalStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Escrowed is the amount locked against the agreement at creation.
func (a *RentalAgreement) Escrowed() int64 {
	return a.TotalPrice + a.Deposit
}

// Escrow tracks the funds held against a single agreement.
type Escrow struct {
	RentalID  int64      `json:"rental_id"`
	Amount    int64      `json:"amount"`
	Settled   bool       `json:"settled"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

// PayoutReason labels why funds left escrow.
type PayoutReason string

const (
	ReasonRent           PayoutReason = "rent"
	ReasonDepositReturn  PayoutReason = "deposit_return"
	ReasonRefund         PayoutReason = "refund"
	ReasonDepositForfeit PayoutReason = "deposit_forfeit"
)

// Payout is a single disbursement written by settlement.
type Payout struct {
	ID        string       `json:"id"`
	RentalID  int64        `json:"rental_id"`
	Recipient string       `json:"recipient"`
	Amount    int64        `json:"amount"`
	Reason    PayoutReason `json:"reason"`
	CreatedAt time.Time    `json:"created_at"`
}

// ListPropertyRequest is the payload for listing a new property.
type ListPropertyRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	PricePerDay int64  `json:"price_per_day"`
	Deposit     int64  `json:"deposit"`
}

// AvailabilityRequest toggles a property's administrative availability.
type AvailabilityRequest struct {
	Available bool `json:"available"`
}

// RentRequest is the payload for booking a property. Dates are Unix seconds.
type RentRequest struct {
	StartDate  int64 `json:"start_date"`
	EndDate    int64 `json:"end_date"`
	PaidAmount int64 `json:"paid_amount"`
}

// BookedDates holds parallel start/end sequences, one pair per active agreement.
type BookedDates struct {
	Starts []int64 `json:"starts"`
	Ends   []int64 `json:"ends"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
