package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/rental-ledger/internal/events"
	"github.com/Shivanand-hulikatti/rental-ledger/internal/logger"
	"github.com/Shivanand-hulikatti/rental-ledger/internal/model"
	"github.com/Shivanand-hulikatti/rental-ledger/internal/repository"
)

const (
	owner   = "0xowner"
	tenantA = "0xtenant-a"
	tenantB = "0xtenant-b"
	tenantC = "0xtenant-c"
)

var epoch = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

// dayAt returns midnight of day n counted from epoch.
func dayAt(n int) time.Time {
	return epoch.Add(time.Duration(n) * 24 * time.Hour)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.LedgerEvent
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	ctx       context.Context
	store     *repository.MemoryStore
	ledger    *Ledger
	publisher *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	pub := &recordingPublisher{}
	return &fixture{
		ctx:       context.Background(),
		store:     store,
		ledger:    New(store, pub, logger.Nop()),
		publisher: pub,
	}
}

// listProperty lists a property at 10 per day with a 50 deposit.
func (f *fixture) listProperty(t *testing.T) int64 {
	t.Helper()
	id, err := f.ledger.Properties.ListProperty(f.ctx, owner, model.ListPropertyRequest{
		Title:       "Sea view flat",
		Description: "Two rooms",
		Location:    "Lisbon",
		PricePerDay: 10,
		Deposit:     50,
	})
	if err != nil {
		t.Fatalf("ListProperty: %v", err)
	}
	return id
}

func (f *fixture) rent(t *testing.T, tenant string, propertyID int64, start, end int, paid int64) int64 {
	t.Helper()
	id, err := f.ledger.Bookings.RentProperty(f.ctx, tenant, propertyID, dayAt(start), dayAt(end), paid, dayAt(0))
	if err != nil {
		t.Fatalf("RentProperty(%s, %d..%d): %v", tenant, start, end, err)
	}
	return id
}

func (f *fixture) payoutTotal(t *testing.T, rentalID int64) int64 {
	t.Helper()
	payouts, err := f.ledger.Escrow.Payouts(f.ctx, rentalID)
	if err != nil {
		t.Fatalf("Payouts: %v", err)
	}
	var total int64
	for _, p := range payouts {
		total += p.Amount
	}
	return total
}
