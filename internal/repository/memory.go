package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/rental-ledger/internal/model"
)

// MemoryStore keeps the ledger in process memory.
//
// Units of work take the write lock for their whole duration, which makes
// InTx a single global exclusive section. Reads share the read lock and
// always see a committed snapshot.
type MemoryStore struct {
	mu sync.RWMutex

	lastPropertyID int64
	lastRentalID   int64

	propertyOrder []int64
	properties    map[int64]*model.Property
	byOwner       map[string][]int64

	agreements map[int64]*model.RentalAgreement
	byTenant   map[string][]int64

	escrows map[int64]*model.Escrow
	payouts map[int64][]model.Payout
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		properties: make(map[int64]*model.Property),
		byOwner:    make(map[string][]int64),
		agreements: make(map[int64]*model.RentalAgreement),
		byTenant:   make(map[string][]int64),
		escrows:    make(map[int64]*model.Escrow),
		payouts:    make(map[int64][]model.Payout),
	}
}

// InTx runs fn under the store's exclusive lock. Each write records an undo
// step; if fn fails or panics the steps are replayed in reverse.
func (s *MemoryStore) InTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{s: s}
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (s *MemoryStore) GetProperty(_ context.Context, id int64) (*model.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.properties[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (s *MemoryStore) ListAvailableProperties(_ context.Context) ([]model.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Property, 0, len(s.propertyOrder))
	for _, id := range s.propertyOrder {
		p := s.properties[id]
		if p.IsAvailable {
			result = append(result, *p.Clone())
		}
	}
	return result, nil
}

func (s *MemoryStore) ListPropertyIDsByOwner(_ context.Context, owner string) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]int64{}, s.byOwner[owner]...), nil
}

func (s *MemoryStore) ActiveAgreements(_ context.Context, propertyID int64) ([]model.RentalAgreement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.activeAgreements(propertyID)
}

func (s *MemoryStore) GetAgreement(_ context.Context, id int64) (*model.RentalAgreement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.agreement(id)
}

func (s *MemoryStore) ListRentalIDsByTenant(_ context.Context, tenant string) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]int64{}, s.byTenant[tenant]...), nil
}

func (s *MemoryStore) GetEscrow(_ context.Context, rentalID int64) (*model.Escrow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.escrow(rentalID)
}

func (s *MemoryStore) ListPayouts(_ context.Context, rentalID int64) ([]model.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]model.Payout{}, s.payouts[rentalID]...), nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() {}

// The helpers below assume the caller holds s.mu.

func (s *MemoryStore) activeAgreements(propertyID int64) ([]model.RentalAgreement, error) {
	p, ok := s.properties[propertyID]
	if !ok {
		return nil, ErrNotFound
	}
	var active []model.RentalAgreement
	for _, id := range p.RentalIDs {
		if a := s.agreements[id]; a.Status == model.StatusActive {
			active = append(active, *a)
		}
	}
	return active, nil
}

func (s *MemoryStore) agreement(id int64) (*model.RentalAgreement, error) {
	a, ok := s.agreements[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *a
	return &c, nil
}

func (s *MemoryStore) escrow(rentalID int64) (*model.Escrow, error) {
	e, ok := s.escrows[rentalID]
	if !ok {
		return nil, ErrNotFound
	}
	c := *e
	return &c, nil
}

// memoryTx is only valid while its InTx call holds the store lock.
type memoryTx struct {
	s    *MemoryStore
	undo []func()
}

func (t *memoryTx) onRollback(f func()) {
	t.undo = append(t.undo, f)
}

func (t *memoryTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memoryTx) CreateProperty(_ context.Context, p *model.Property) error {
	s := t.s
	s.lastPropertyID++
	p.ID = s.lastPropertyID
	stored := p.Clone()
	if stored.RentalIDs == nil {
		stored.RentalIDs = []int64{}
	}

	s.properties[p.ID] = stored
	s.propertyOrder = append(s.propertyOrder, p.ID)
	prevOwned := s.byOwner[p.Owner]
	s.byOwner[p.Owner] = append(prevOwned[:len(prevOwned):len(prevOwned)], p.ID)

	t.onRollback(func() {
		delete(s.properties, p.ID)
		s.propertyOrder = s.propertyOrder[:len(s.propertyOrder)-1]
		if len(prevOwned) == 0 {
			delete(s.byOwner, p.Owner)
		} else {
			s.byOwner[p.Owner] = prevOwned
		}
		s.lastPropertyID--
	})
	return nil
}

func (t *memoryTx) LockProperty(_ context.Context, id int64) (*model.Property, error) {
	p, ok := t.s.properties[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (t *memoryTx) SetPropertyAvailability(_ context.Context, id int64, available bool) error {
	p, ok := t.s.properties[id]
	if !ok {
		return ErrNotFound
	}
	prev := p.IsAvailable
	p.IsAvailable = available
	t.onRollback(func() { p.IsAvailable = prev })
	return nil
}

func (t *memoryTx) ActiveAgreements(_ context.Context, propertyID int64) ([]model.RentalAgreement, error) {
	return t.s.activeAgreements(propertyID)
}

func (t *memoryTx) GetAgreement(_ context.Context, id int64) (*model.RentalAgreement, error) {
	return t.s.agreement(id)
}

func (t *memoryTx) CreateAgreement(_ context.Context, a *model.RentalAgreement) error {
	s := t.s
	p, ok := s.properties[a.PropertyID]
	if !ok {
		return fmt.Errorf("create agreement for property %d: %w", a.PropertyID, ErrNotFound)
	}

	s.lastRentalID++
	a.ID = s.lastRentalID
	stored := *a
	s.agreements[a.ID] = &stored

	prevRentals := p.RentalIDs
	p.RentalIDs = append(prevRentals[:len(prevRentals):len(prevRentals)], a.ID)
	prevTenant := s.byTenant[a.Tenant]
	s.byTenant[a.Tenant] = append(prevTenant[:len(prevTenant):len(prevTenant)], a.ID)

	t.onRollback(func() {
		delete(s.agreements, a.ID)
		p.RentalIDs = prevRentals
		if len(prevTenant) == 0 {
			delete(s.byTenant, a.Tenant)
		} else {
			s.byTenant[a.Tenant] = prevTenant
		}
		s.lastRentalID--
	})
	return nil
}

func (t *memoryTx) UpdateAgreementStatus(_ context.Context, id int64, status model.RentalStatus) error {
	a, ok := t.s.agreements[id]
	if !ok {
		return ErrNotFound
	}
	prev := a.Status
	a.Status = status
	t.onRollback(func() { a.Status = prev })
	return nil
}

func (t *memoryTx) CreateEscrow(_ context.Context, e *model.Escrow) error {
	s := t.s
	if _, exists := s.escrows[e.RentalID]; exists {
		return fmt.Errorf("escrow for rental %d already exists", e.RentalID)
	}
	stored := *e
	s.escrows[e.RentalID] = &stored
	t.onRollback(func() { delete(s.escrows, e.RentalID) })
	return nil
}

func (t *memoryTx) GetEscrow(_ context.Context, rentalID int64) (*model.Escrow, error) {
	return t.s.escrow(rentalID)
}

func (t *memoryTx) MarkEscrowSettled(_ context.Context, rentalID int64, at time.Time) error {
	e, ok := t.s.escrows[rentalID]
	if !ok {
		return ErrNotFound
	}
	prevSettled, prevAt := e.Settled, e.SettledAt
	settledAt := at
	e.Settled, e.SettledAt = true, &settledAt
	t.onRollback(func() { e.Settled, e.SettledAt = prevSettled, prevAt })
	return nil
}

func (t *memoryTx) CreatePayout(_ context.Context, p *model.Payout) error {
	s := t.s
	prev := s.payouts[p.RentalID]
	s.payouts[p.RentalID] = append(prev[:len(prev):len(prev)], *p)
	t.onRollback(func() {
		if len(prev) == 0 {
			delete(s.payouts, p.RentalID)
		} else {
			s.payouts[p.RentalID] = prev
		}
	})
	return nil
}
