package customers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duamedical/medserve/internal/platform/db"
	"github.com/duamedical/medserve/internal/seqid"
	"github.com/duamedical/medserve/internal/shared"
)

// ErrNotFound is returned when a customer id does not resolve.
var ErrNotFound = shared.NotFound("Customer")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id uuid.UUID) (*Customer, error)
	// GetForUpdate locks the customer row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Customer, error)
	List(ctx context.Context) ([]Customer, error)
	Insert(ctx context.Context, c *Customer) error
	Save(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
	LatestCode(ctx context.Context, prefix string) (string, error)
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if _, inTx := r.db.(pgx.Tx); inTx {
		return fn(ctx, r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const selectCustomer = `
	SELECT id, serial_number, customer_name, phone_number, city,
	       total_balance, debit_credit, ledger, created_at, updated_at
	FROM customers`

func scanCustomer(row pgx.Row) (*Customer, error) {
	var c Customer
	var dir string
	err := row.Scan(&c.ID, &c.SerialNumber, &c.CustomerName, &c.PhoneNumber, &c.City,
		&c.TotalBalance, &dir, &c.Ledger, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.DebitCredit = Direction(dir)
	if c.Ledger == nil {
		c.Ledger = []LedgerEntry{}
	}
	return &c, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx, selectCustomer+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, db.Translate(err, "Customer")
}

func (r *repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*Customer, error) {
	c, err := scanCustomer(r.db.QueryRow(ctx, selectCustomer+` WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, db.Translate(err, "Customer")
}

func (r *repository) List(ctx context.Context) ([]Customer, error) {
	rows, err := r.db.Query(ctx, selectCustomer+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, db.Translate(err, "Customer")
	}
	defer rows.Close()

	out := []Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, db.Translate(err, "Customer")
		}
		out = append(out, *c)
	}
	return out, db.Translate(rows.Err(), "Customer")
}

func (r *repository) Insert(ctx context.Context, c *Customer) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO customers (id, serial_number, customer_name, phone_number, city,
		                       total_balance, debit_credit, ledger, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.SerialNumber, c.CustomerName, c.PhoneNumber, c.City,
		c.TotalBalance, string(c.DebitCredit), c.Ledger, c.CreatedAt, c.UpdatedAt)
	return db.Translate(err, "Customer")
}

func (r *repository) Save(ctx context.Context, c *Customer) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE customers
		SET customer_name = $2, phone_number = $3, city = $4,
		    total_balance = $5, debit_credit = $6, ledger = $7, updated_at = $8
		WHERE id = $1`,
		c.ID, c.CustomerName, c.PhoneNumber, c.City,
		c.TotalBalance, string(c.DebitCredit), c.Ledger, c.UpdatedAt)
	if err != nil {
		return db.Translate(err, "Customer")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "Customer")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) LatestCode(ctx context.Context, prefix string) (string, error) {
	return seqid.LatestCode(ctx, r.db, "customers", "serial_number", prefix)
}
