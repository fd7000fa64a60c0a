package service

import (
	"fmt"
	"math"
	"time"

	"github.com/Shivanand-hulikatti/rental-ledger/internal/model"
)

// overlaps is the half-open interval test for [s1,e1) and [s2,e2).
func overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// hasConflict reports whether [start,end) overlaps any of the given active
// agreements. Availability queries and booking both decide through here.
func hasConflict(active []model.RentalAgreement, start, end time.Time) bool {
	for _, a := range active {
		if overlaps(start, end, a.StartDate, a.EndDate) {
			return true
		}
	}
	return false
}

// billableDays rounds the stay up to whole days. It counts in Unix seconds
// because time.Duration saturates at about 292 years.
func billableDays(start, end time.Time) int64 {
	secs := end.Unix() - start.Unix()
	days := secs / model.SecondsPerDay
	if secs%model.SecondsPerDay != 0 {
		days++
	}
	return days
}

// Quote is the amount a tenant must pay to book a date range.
type Quote struct {
	Days       int64
	TotalPrice int64
	Deposit    int64
}

// Expected is rent plus deposit.
func (q Quote) Expected() int64 {
	return q.TotalPrice + q.Deposit
}

// quote prices [start, end) on p. An amount too large for int64 can never
// be matched by any payment, so it is reported as ErrPaymentMismatch.
func quote(p *model.Property, start, end time.Time) (Quote, error) {
	days := billableDays(start, end)
	if days > math.MaxInt64/p.PricePerDay {
		return Quote{}, fmt.Errorf("%w: %d days at %d per day overflows", ErrPaymentMismatch, days, p.PricePerDay)
	}
	total := days * p.PricePerDay
	if total > math.MaxInt64-p.Deposit {
		return Quote{}, fmt.Errorf("%w: price plus deposit overflows", ErrPaymentMismatch)
	}
	return Quote{Days: days, TotalPrice: total, Deposit: p.Deposit}, nil
}
