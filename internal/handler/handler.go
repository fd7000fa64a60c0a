// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the booking ledger.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/rental-ledger/internal/logger"
	"github.com/Shivanand-hulikatti/rental-ledger/internal/model"
	"github.com/Shivanand-hulikatti/rental-ledger/internal/service"
	"github.com/go-chi/chi/v5"
)

// LedgerHandler holds all HTTP handlers for the rental API.
type LedgerHandler struct {
	properties *service.PropertyRegistry
	bookings   *service.BookingLedger
	escrow     *service.EscrowAccount
	now        func() time.Time
}

// NewLedgerHandler constructs a LedgerHandler. A nil clock means time.Now.
func NewLedgerHandler(ledger *service.Ledger, now func() time.Time) *LedgerHandler {
	if now == nil {
		now = time.Now
	}
	return &LedgerHandler{
		properties: ledger.Properties,
		bookings:   ledger.Bookings,
		escrow:     ledger.Escrow,
		now:        now,
	}
}

// Routes mounts the API on r.
func (h *LedgerHandler) Routes(r chi.Router) {
	r.Route("/properties", func(r chi.Router) {
		r.Post("/", h.ListProperty)
		r.Get("/", h.GetAvailableProperties)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetProperty)
			r.Patch("/availability", h.SetAvailability)
			r.Get("/availability", h.IsAvailableForDates)
			r.Get("/conflicts", h.HasDateConflict)
			r.Get("/booked-dates", h.GetBookedDates)
			r.Get("/rentals", h.GetPropertyRentals)
			r.Post("/rentals", h.RentProperty)
		})
	})
	r.Get("/owners/{address}/properties", h.GetUserProperties)

	r.Route("/rentals/{id}", func(r chi.Router) {
		r.Get("/", h.GetRentalAgreement)
		r.Post("/complete", h.CompleteRental)
		r.Post("/cancel", h.CancelRental)
		r.Get("/payouts", h.GetPayouts)
		r.Get("/escrow", h.GetEscrow)
	})
	r.Get("/tenants/{address}/rentals", h.GetUserRentals)
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps ledger errors to HTTP status codes. Anything that
// is not a business rule violation is a storage failure and is reported
// without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidDates),
		errors.Is(err, service.ErrPaymentMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotAvailable),
		errors.Is(err, service.ErrDateConflict),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrNotYetEnded),
		errors.Is(err, service.ErrAlreadyFinal):
		writeError(w, http.StatusConflict, err.Error())
	default:
		loggerFrom(r.Context()).Error("ledger operation failed", err, logger.Fields{"http_path": r.URL.Path})
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

// dateRange parses the start and end query parameters (Unix seconds).
func dateRange(r *http.Request) (start, end time.Time, err error) {
	q := r.URL.Query()
	s, err := strconv.ParseInt(q.Get("start"), 10, 64)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start %q", q.Get("start"))
	}
	e, err := strconv.ParseInt(q.Get("end"), 10, 64)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end %q", q.Get("end"))
	}
	return time.Unix(s, 0).UTC(), time.Unix(e, 0).UTC(), nil
}

func caller(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(CallerHeader))
}

// requireCaller writes 401 and returns false when no identity is present.
func requireCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	c := caller(r)
	if c == "" {
		writeError(w, http.StatusUnauthorized, "missing "+CallerHeader+" header")
		return "", false
	}
	return c, true
}

// ─── Properties ───────────────────────────────────────────────────────────────

// ListProperty handles POST /properties
func (h *LedgerHandler) ListProperty(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req model.ListPropertyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	id, err := h.properties.ListProperty(r.Context(), owner, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

// GetAvailableProperties handles GET /properties
func (h *LedgerHandler) GetAvailableProperties(w http.ResponseWriter, r *http.Request) {
	props, err := h.properties.GetAvailableProperties(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	// Return an empty array rather than null for better client compatibility.
	if props == nil {
		props = []model.Property{}
	}
	writeJSON(w, http.StatusOK, props)
}

// GetProperty handles GET /properties/{id}
func (h *LedgerHandler) GetProperty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.properties.GetProperty(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SetAvailability handles PATCH /properties/{id}/availability
func (h *LedgerHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req model.AvailabilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.properties.SetAvailability(r.Context(), id, c, req.Available); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetUserProperties handles GET /owners/{address}/properties
func (h *LedgerHandler) GetUserProperties(w http.ResponseWriter, r *http.Request) {
	ids, err := h.properties.GetUserProperties(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newIDsResponse(ids))
}

// GetPropertyRentals handles GET /properties/{id}/rentals
func (h *LedgerHandler) GetPropertyRentals(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ids, err := h.properties.GetPropertyRentals(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newIDsResponse(ids))
}

// ─── Availability ─────────────────────────────────────────────────────────────

// IsAvailableForDates handles GET /properties/{id}/availability?start=&end=
func (h *LedgerHandler) IsAvailableForDates(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, end, err := dateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ok, err := h.bookings.IsAvailableForDates(r.Context(), id, start, end)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{Available: ok})
}

// HasDateConflict handles GET /properties/{id}/conflicts?start=&end=
func (h *LedgerHandler) HasDateConflict(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, end, err := dateRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	conflict, err := h.bookings.HasDateConflict(r.Context(), id, start, end)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conflictResponse{Conflict: conflict})
}

// GetBookedDates handles GET /properties/{id}/booked-dates
func (h *LedgerHandler) GetBookedDates(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	starts, ends, err := h.bookings.GetBookedDates(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookedDates(starts, ends))
}

// ─── Rentals ──────────────────────────────────────────────────────────────────

// RentProperty handles POST /properties/{id}/rentals
// Books the dates and locks the payment in escrow in one atomic step.
func (h *LedgerHandler) RentProperty(w http.ResponseWriter, r *http.Request) {
	tenant, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req model.RentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rentalID, err := h.bookings.RentProperty(r.Context(), tenant, id,
		time.Unix(req.StartDate, 0).UTC(), time.Unix(req.EndDate, 0).UTC(), req.PaidAmount, h.now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: rentalID})
}

// GetRentalAgreement handles GET /rentals/{id}
func (h *LedgerHandler) GetRentalAgreement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a, err := h.bookings.GetRentalAgreement(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRentalResponse(a))
}

// CompleteRental handles POST /rentals/{id}/complete
func (h *LedgerHandler) CompleteRental(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, h.bookings.CompleteRental, model.StatusCompleted)
}

// CancelRental handles POST /rentals/{id}/cancel
func (h *LedgerHandler) CancelRental(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, h.bookings.CancelRental, model.StatusCancelled)
}

type transitionFunc func(ctx context.Context, rentalID int64, caller string, now time.Time) error

// finish runs the transition and echoes the settled agreement. The
// transition has committed once it returns nil, so a failed re-read still
// reports success with the id and new status only.
func (h *LedgerHandler) finish(w http.ResponseWriter, r *http.Request, transition transitionFunc, to model.RentalStatus) {
	c, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := transition(r.Context(), id, c, h.now()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	a, err := h.bookings.GetRentalAgreement(r.Context(), id)
	if err != nil {
		loggerFrom(r.Context()).Warn("re-read after settlement failed", logger.Fields{"rental_id": id, "error": err.Error()})
		writeJSON(w, http.StatusOK, rentalResponse{ID: id, Status: to})
		return
	}
	writeJSON(w, http.StatusOK, toRentalResponse(a))
}

// GetPayouts handles GET /rentals/{id}/payouts
func (h *LedgerHandler) GetPayouts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	payouts, err := h.escrow.Payouts(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayoutResponses(payouts))
}

// GetEscrow handles GET /rentals/{id}/escrow
func (h *LedgerHandler) GetEscrow(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	esc, err := h.escrow.Balance(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEscrowResponse(esc))
}

// GetUserRentals handles GET /tenants/{address}/rentals
func (h *LedgerHandler) GetUserRentals(w http.ResponseWriter, r *http.Request) {
	ids, err := h.bookings.GetUserRentals(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newIDsResponse(ids))
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
