// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/rental-ledger/internal/config"
	"github.com/Shivanand-hulikatti/rental-ledger/internal/database"
	"github.com/Shivanand-hulikatti/rental-ledger/internal/events"
	"github.com/Shivanand-hulikatti/rental-ledger/internal/handler"
	"github.com/Shivanand-hulikatti/rental-ledger/internal/logger"
	"github.com/Shivanand-hulikatti/rental-ledger/internal/repository"
	"github.com/Shivanand-hulikatti/rental-ledger/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := run(cfg); err != nil {
		os.Exit(1)
	}
}

// run owns every deferred cleanup so that main can exit non-zero only after
// the loggers have flushed.
func run(cfg *config.AppConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Logging ────────────────────────────────────────────────────────
	appLog, closeLog := newLogger(cfg)
	defer closeLog()

	// ── 2. Storage ────────────────────────────────────────────────────────
	store, err := newStore(ctx, cfg, appLog)
	if err != nil {
		appLog.Error("storage setup failed", err, nil)
		return err
	}
	defer store.Close()

	// ── 3. Event publisher ───────────────────────────────────────────────
	publisher := newPublisher(cfg, appLog)
	defer func() {
		if err := publisher.Close(); err != nil {
			appLog.Warn("closing event publisher", logger.Fields{"error": err.Error()})
		}
	}()

	// ── 4. Wire up layers ────────────────────────────────────────────────
	ledger := service.New(store, publisher, appLog)
	ledgerHandler := handler.NewLedgerHandler(ledger, time.Now)
	r := handler.NewRouter(ledgerHandler, appLog)

	// ── 5. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLog.Info("server listening", logger.Fields{"port": cfg.Port, "store": cfg.StoreDriver})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serverErr:
		appLog.Error("server error", runErr, nil)
	}

	appLog.Info("shutting down server", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("graceful shutdown failed", err, nil)
		return err
	}
	appLog.Info("server stopped", nil)
	return runErr
}

// newLogger builds the stdout logger and, when configured, fans out to
// Fluent Bit as well. The returned func flushes the Fluent client.
func newLogger(cfg *config.AppConfig) (logger.Logger, func()) {
	level, ok := logger.ParseLevel(cfg.Log.Level)
	stdout := logger.NewSlogAdapter(logger.SlogConfig{Level: level, IsJSON: cfg.Log.JSON})
	if !ok {
		stdout.Warn("unknown LOG_LEVEL, using info", logger.Fields{"value": cfg.Log.Level})
	}
	base := stdout.WithFields(logger.Fields{"app": cfg.AppName})

	if !cfg.FluentBit.Enabled {
		return base, func() {}
	}

	client, err := logger.NewFluentClient(logger.FluentConfig{
		Host:      cfg.FluentBit.Host,
		Port:      cfg.FluentBit.Port,
		TagPrefix: cfg.AppName,
	})
	if err != nil {
		base.Error("fluent bit disabled", err, nil)
		return base, func() {}
	}
	fluentLevel, _ := logger.ParseLevel(cfg.FluentBit.Level)
	fluentLog, err := logger.NewFluentAdapter(client, fluentLevel)
	if err != nil {
		_ = client.Close()
		base.Error("fluent bit disabled", err, nil)
		return base, func() {}
	}

	multi := logger.NewMulti(stdout, fluentLog).WithFields(logger.Fields{"app": cfg.AppName})
	return multi, func() { _ = client.Close() }
}

func newStore(ctx context.Context, cfg *config.AppConfig, log logger.Logger) (repository.Store, error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Info("using in-memory store", nil)
		return repository.NewMemoryStore(), nil
	}

	pool, err := database.NewPool(ctx, cfg.Database.DSN(), log)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info("connected to PostgreSQL", nil)
	return repository.NewPostgresStore(pool), nil
}

// newPublisher falls back to a no-op publisher when RabbitMQ is disabled or
// unreachable; events are best effort and never block the ledger.
func newPublisher(cfg *config.AppConfig, log logger.Logger) events.Publisher {
	if !cfg.RabbitMQ.Enabled {
		return events.NewNopPublisher()
	}
	p, err := events.NewRabbitPublisher(events.RabbitConfig{
		URL:      cfg.RabbitMQ.URL,
		Exchange: cfg.RabbitMQ.Exchange,
	}, log.WithFields(logger.Fields{"component": "rabbitmq"}))
	if err != nil {
		log.Error("rabbitmq unavailable, events disabled", err, nil)
		return events.NewNopPublisher()
	}
	return p
}
