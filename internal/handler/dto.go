package handler

import (
	"time"

	"github.com/Shivanand-hulikatti/rental-ledger/internal/model"
)

// rentalResponse is a RentalAgreement with Unix-second timestamps.
type rentalResponse struct {
	ID         int64              `json:"id"`
	PropertyID int64              `json:"property_id"`
	Tenant     string             `json:"tenant"`
	StartDate  int64              `json:"start_date"`
	EndDate    int64              `json:"end_date"`
	TotalPrice int64              `json:"total_price"`
	Deposit    int64              `json:"deposit"`
	Status     model.RentalStatus `json:"status"`
	CreatedAt  int64              `json:"created_at"`
}

func toRentalResponse(a *model.RentalAgreement) rentalResponse {
	return rentalResponse{
		ID:         a.ID,
		PropertyID: a.PropertyID,
		Tenant:     a.Tenant,
		StartDate:  a.StartDate.Unix(),
		EndDate:    a.EndDate.Unix(),
		TotalPrice: a.TotalPrice,
		Deposit:    a.Deposit,
		Status:     a.Status,
		CreatedAt:  a.CreatedAt.Unix(),
	}
}

type payoutResponse struct {
	ID        string             `json:"id"`
	RentalID  int64              `json:"rental_id"`
	Recipient string             `json:"recipient"`
	Amount    int64              `json:"amount"`
	Reason    model.PayoutReason `json:"reason"`
	CreatedAt int64              `json:"created_at"`
}

func toPayoutResponses(payouts []model.Payout) []payoutResponse {
	out := make([]payoutResponse, 0, len(payouts))
	for _, p := range payouts {
		out = append(out, payoutResponse{
			ID:        p.ID,
			RentalID:  p.RentalID,
			Recipient: p.Recipient,
			Amount:    p.Amount,
			Reason:    p.Reason,
			CreatedAt: p.CreatedAt.Unix(),
		})
	}
	return out
}

type escrowResponse struct {
	RentalID  int64  `json:"rental_id"`
	Amount    int64  `json:"amount"`
	Settled   bool   `json:"settled"`
	SettledAt *int64 `json:"settled_at,omitempty"`
}

func toEscrowResponse(e *model.Escrow) escrowResponse {
	resp := escrowResponse{RentalID: e.RentalID, Amount: e.Amount, Settled: e.Settled}
	if e.SettledAt != nil {
		at := e.SettledAt.Unix()
		resp.SettledAt = &at
	}
	return resp
}

func toBookedDates(starts, ends []time.Time) model.BookedDates {
	bd := model.BookedDates{Starts: make([]int64, 0, len(starts)), Ends: make([]int64, 0, len(ends))}
	for i := range starts {
		bd.Starts = append(bd.Starts, starts[i].Unix())
		bd.Ends = append(bd.Ends, ends[i].Unix())
	}
	return bd
}

type idResponse struct {
	ID int64 `json:"id"`
}

type idsResponse struct {
	IDs []int64 `json:"ids"`
}

func newIDsResponse(ids []int64) idsResponse {
	if ids == nil {
		ids = []int64{}
	}
	return idsResponse{IDs: ids}
}

type availabilityResponse struct {
	Available bool `json:"available"`
}

type conflictResponse struct {
	Conflict bool `json:"conflict"`
}
