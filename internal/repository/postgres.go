package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shivanand-hulikatti/rental-ledger/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists the ledger in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// InTx runs fn inside one database transaction.
//
// Serialisation comes from LockProperty: it issues SELECT … FOR UPDATE on
// the property row, so a second transaction touching the same property
// blocks until the first one commits or rolls back. The availability check
// and the insert of the new agreement therefore observe the same state.
func (s *PostgresStore) InTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if err = fn(&postgresTx{q: tx}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetProperty(ctx context.Context, id int64) (*model.Property, error) {
	return getProperty(ctx, s.db, id, false)
}

func (s *PostgresStore) ListAvailableProperties(ctx context.Context) ([]model.Property, error) {
	rows, err := s.db.Query(ctx,
		`SELECT p.id, p.owner, p.title, p.description, p.location, p.price_per_day, p.deposit, p.is_available,
		        ARRAY(SELECT r.id FROM rentals r WHERE r.property_id = p.id ORDER BY r.id)
		 FROM properties p
		 WHERE p.is_available
		 ORDER BY p.id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var props []model.Property
	for rows.Next() {
		var p model.Property
		if err := rows.Scan(&p.ID, &p.Owner, &p.Title, &p.Description, &p.Location,
			&p.PricePerDay, &p.Deposit, &p.IsAvailable, &p.RentalIDs); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		props = append(props, p)
	}
	return props, rows.Err()
}

func (s *PostgresStore) ListPropertyIDsByOwner(ctx context.Context, owner string) ([]int64, error) {
	return queryIDs(ctx, s.db, `SELECT id FROM properties WHERE owner = $1 ORDER BY id ASC`, owner)
}

func (s *PostgresStore) ActiveAgreements(ctx context.Context, propertyID int64) ([]model.RentalAgreement, error) {
	return activeAgreements(ctx, s.db, propertyID)
}

func (s *PostgresStore) GetAgreement(ctx context.Context, id int64) (*model.RentalAgreement, error) {
	return getAgreement(ctx, s.db, id)
}

func (s *PostgresStore) ListRentalIDsByTenant(ctx context.Context, tenant string) ([]int64, error) {
	return queryIDs(ctx, s.db, `SELECT id FROM rentals WHERE tenant = $1 ORDER BY id ASC`, tenant)
}

func (s *PostgresStore) GetEscrow(ctx context.Context, rentalID int64) (*model.Escrow, error) {
	return getEscrow(ctx, s.db, rentalID)
}

func (s *PostgresStore) ListPayouts(ctx context.Context, rentalID int64) ([]model.Payout, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, rental_id, recipient, amount, reason, created_at
		 FROM payouts
		 WHERE rental_id = $1
		 ORDER BY created_at ASC, reason ASC`,
		rentalID,
	)
	if err != nil {
		return nil, fmt.Errorf("list payouts: %w", err)
	}
	defer rows.Close()

	var payouts []model.Payout
	for rows.Next() {
		var p model.Payout
		if err := rows.Scan(&p.ID, &p.RentalID, &p.Recipient, &p.Amount, &p.Reason, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payout: %w", err)
		}
		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.db.Close()
}

type postgresTx struct {
	q querier
}

func (t *postgresTx) CreateProperty(ctx context.Context, p *model.Property) error {
	err := t.q.QueryRow(ctx,
		`INSERT INTO properties (owner, title, description, location, price_per_day, deposit, is_available)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		p.Owner, p.Title, p.Description, p.Location, p.PricePerDay, p.Deposit, p.IsAvailable,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert property: %w", err)
	}
	if p.RentalIDs == nil {
		p.RentalIDs = []int64{}
	}
	return nil
}

func (t *postgresTx) LockProperty(ctx context.Context, id int64) (*model.Property, error) {
	return getProperty(ctx, t.q, id, true)
}

func (t *postgresTx) SetPropertyAvailability(ctx context.Context, id int64, available bool) error {
	tag, err := t.q.Exec(ctx, `UPDATE properties SET is_available = $2 WHERE id = $1`, id, available)
	if err != nil {
		return fmt.Errorf("update property availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *postgresTx) ActiveAgreements(ctx context.Context, propertyID int64) ([]model.RentalAgreement, error) {
	return activeAgreements(ctx, t.q, propertyID)
}

func (t *postgresTx) GetAgreement(ctx context.Context, id int64) (*model.RentalAgreement, error) {
	return getAgreement(ctx, t.q, id)
}

func (t *postgresTx) CreateAgreement(ctx context.Context, a *model.RentalAgreement) error {
	err := t.q.QueryRow(ctx,
		`INSERT INTO rentals (property_id, tenant, start_date, end_date, total_price, deposit, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		a.PropertyID, a.Tenant, a.StartDate, a.EndDate, a.TotalPrice, a.Deposit, a.Status, a.CreatedAt,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert rental: %w", err)
	}
	return nil
}

func (t *postgresTx) UpdateAgreementStatus(ctx context.Context, id int64, status model.RentalStatus) error {
	tag, err := t.q.Exec(ctx, `UPDATE rentals SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update rental status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *postgresTx) CreateEscrow(ctx context.Context, e *model.Escrow) error {
	_, err := t.q.Exec(ctx,
		`INSERT INTO escrows (rental_id, amount, settled, settled_at) VALUES ($1, $2, $3, $4)`,
		e.RentalID, e.Amount, e.Settled, e.SettledAt,
	)
	if err != nil {
		return fmt.Errorf("insert escrow: %w", err)
	}
	return nil
}

func (t *postgresTx) GetEscrow(ctx context.Context, rentalID int64) (*model.Escrow, error) {
	return getEscrow(ctx, t.q, rentalID)
}

func (t *postgresTx) MarkEscrowSettled(ctx context.Context, rentalID int64, at time.Time) error {
	tag, err := t.q.Exec(ctx,
		`UPDATE escrows SET settled = TRUE, settled_at = $2 WHERE rental_id = $1`,
		rentalID, at,
	)
	if err != nil {
		return fmt.Errorf("settle escrow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *postgresTx) CreatePayout(ctx context.Context, p *model.Payout) error {
	_, err := t.q.Exec(ctx,
		`INSERT INTO payouts (id, rental_id, recipient, amount, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.RentalID, p.Recipient, p.Amount, p.Reason, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payout: %w", err)
	}
	return nil
}

func getProperty(ctx context.Context, q querier, id int64, forUpdate bool) (*model.Property, error) {
	query := `SELECT id, owner, title, description, location, price_per_day, deposit, is_available
		 FROM properties WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var p model.Property
	err := q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Owner, &p.Title, &p.Description, &p.Location, &p.PricePerDay, &p.Deposit, &p.IsAvailable,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get property: %w", err)
	}

	p.RentalIDs, err = queryIDs(ctx, q, `SELECT id FROM rentals WHERE property_id = $1 ORDER BY id ASC`, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func activeAgreements(ctx context.Context, q querier, propertyID int64) ([]model.RentalAgreement, error) {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM properties WHERE id = $1)`, propertyID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check property: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := q.Query(ctx,
		`SELECT id, property_id, tenant, start_date, end_date, total_price, deposit, status, created_at
		 FROM rentals
		 WHERE property_id = $1 AND status = $2
		 ORDER BY start_date ASC`,
		propertyID, model.StatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("list active rentals: %w", err)
	}
	defer rows.Close()

	var active []model.RentalAgreement
	for rows.Next() {
		a, err := scanAgreement(rows)
		if err != nil {
			return nil, err
		}
		active = append(active, *a)
	}
	return active, rows.Err()
}

func getAgreement(ctx context.Context, q querier, id int64) (*model.RentalAgreement, error) {
	row := q.QueryRow(ctx,
		`SELECT id, property_id, tenant, start_date, end_date, total_price, deposit, status, created_at
		 FROM rentals WHERE id = $1`,
		id,
	)
	a, err := scanAgreement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func scanAgreement(row pgx.Row) (*model.RentalAgreement, error) {
	var a model.RentalAgreement
	err := row.Scan(&a.ID, &a.PropertyID, &a.Tenant, &a.StartDate, &a.EndDate,
		&a.TotalPrice, &a.Deposit, &a.Status, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan rental: %w", err)
	}
	a.StartDate, a.EndDate, a.CreatedAt = a.StartDate.UTC(), a.EndDate.UTC(), a.CreatedAt.UTC()
	return &a, nil
}

func getEscrow(ctx context.Context, q querier, rentalID int64) (*model.Escrow, error) {
	var e model.Escrow
	err := q.QueryRow(ctx,
		`SELECT rental_id, amount, settled, settled_at FROM escrows WHERE rental_id = $1`,
		rentalID,
	).Scan(&e.RentalID, &e.Amount, &e.Settled, &e.SettledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get escrow: %w", err)
	}
	return &e, nil
}

func queryIDs(ctx context.Context, q querier, sql string, args ...any) ([]int64, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("collect ids: %w", err)
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}
