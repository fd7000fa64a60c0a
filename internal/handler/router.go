package handler

import (
	"github.com/Shivanand-hulikatti/rental-ledger/internal/logger"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the full HTTP surface with the global middleware stack.
func NewRouter(h *LedgerHandler, log logger.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(log))
	r.Use(CORS())

	r.Get("/health", HealthCheck)
	h.Routes(r)
	return r
}
