package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Shivanand-hulikatti/rental-ledger/internal/logger"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

// CallerHeader carries the caller's wallet address. Authentication happens
// upstream; the ledger trusts this value.
const CallerHeader = "X-Wallet-Address"

type ctxKey struct{}

// Logger attaches a request-scoped logger carrying a trace id and writes
// one access line per request.
func Logger(base logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get("X-Trace-ID")
			if _, err := uuid.Parse(traceID); err != nil {
				traceID = uuid.NewString()
			}
			reqLogger := base.WithFields(logger.Fields{"trace_id": traceID})

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Header().Set("X-Trace-ID", traceID)
			start := time.Now()

			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), ctxKey{}, reqLogger)))

			reqLogger.Info("request finished", logger.Fields{
				"http_method":   r.Method,
				"http_path":     r.URL.Path,
				"status_code":   ww.Status(),
				"bytes_written": ww.BytesWritten(),
				"duration_ms":   time.Since(start).Milliseconds(),
			})
		})
	}
}

func loggerFrom(ctx context.Context) logger.Logger {
	if l, ok := ctx.Value(ctxKey{}).(logger.Logger); ok {
		return l
	}
	return logger.Nop()
}

// CORS is permissive so browser wallets on any origin can reach the API.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", CallerHeader, "X-Trace-ID"},
		ExposedHeaders: []string{"X-Trace-ID"},
		MaxAge:         300,
	})
}
