package accounting

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duamedical/medserve/internal/platform/db"
	"github.com/duamedical/medserve/internal/shared"
)

var ErrNotFound = shared.NotFound("Accounting entry")

// Repository provides persistence for accounting entries.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	// LockBook serialises balance rewrites for the rest of the transaction.
	LockBook(ctx context.Context) error
	Get(ctx context.Context, id uuid.UUID) (*Entry, error)
	// List returns matching entries newest first.
	List(ctx context.Context, filter Filter) ([]Entry, error)
	// Chronological returns all entries in running balance order.
	Chronological(ctx context.Context) ([]Entry, error)
	// Between returns entries dated within [from, to] oldest first. Zero
	// bounds are open.
	Between(ctx context.Context, from, to time.Time) ([]Entry, error)
	Insert(ctx context.Context, e *Entry) error
	Save(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id uuid.UUID) error
	SaveBalances(ctx context.Context, entries []Entry) error
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

// WithTx wraps callback in a transaction unless one is already open.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if _, inTx := r.db.(pgx.Tx); inTx {
		return fn(ctx, r)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) LockBook(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('accounting_entries'))`)
	return db.Translate(err, "")
}

const selectEntry = `
	SELECT id, date, account, debit, credit, balance, category, expense_type,
	       description, reference, customer, created_at, updated_at
	FROM accounting_entries`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	var category, expenseType string
	err := row.Scan(&e.ID, &e.Date, &e.Account, &e.Debit, &e.Credit, &e.Balance, &category,
		&expenseType, &e.Description, &e.Reference, &e.Customer, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Category = Category(category)
	e.ExpenseType = ExpenseType(expenseType)
	return &e, nil
}

func (r *repository) collect(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, db.Translate(err, "Accounting entry")
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, db.Translate(err, "Accounting entry")
		}
		out = append(out, *e)
	}
	return out, db.Translate(rows.Err(), "Accounting entry")
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	e, err := scanEntry(r.db.QueryRow(ctx, selectEntry+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, db.Translate(err, "Accounting entry")
}

func (r *repository) List(ctx context.Context, filter Filter) ([]Entry, error) {
	return r.collect(ctx, selectEntry+`
		WHERE ($1 = '' OR category = $1) AND ($2 = '' OR expense_type = $2)
		ORDER BY date DESC, created_at DESC, id DESC`,
		string(filter.Category), string(filter.ExpenseType))
}

func (r *repository) Chronological(ctx context.Context) ([]Entry, error) {
	return r.collect(ctx, selectEntry+` ORDER BY date, created_at, id`)
}

func (r *repository) Between(ctx context.Context, from, to time.Time) ([]Entry, error) {
	var lo, hi *time.Time
	if !from.IsZero() {
		lo = &from
	}
	if !to.IsZero() {
		hi = &to
	}
	return r.collect(ctx, selectEntry+`
		WHERE ($1::timestamptz IS NULL OR date >= $1) AND ($2::timestamptz IS NULL OR date <= $2)
		ORDER BY date, created_at, id`, lo, hi)
}

func (r *repository) Insert(ctx context.Context, e *Entry) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO accounting_entries (id, date, account, debit, credit, balance, category, expense_type,
		                                description, reference, customer, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID, e.Date, e.Account, e.Debit, e.Credit, e.Balance, string(e.Category), string(e.ExpenseType),
		e.Description, e.Reference, e.Customer, e.CreatedAt, e.UpdatedAt)
	return db.Translate(err, "Accounting entry")
}

func (r *repository) Save(ctx context.Context, e *Entry) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE accounting_entries
		SET date = $2, account = $3, debit = $4, credit = $5, category = $6, expense_type = $7,
		    description = $8, reference = $9, customer = $10, updated_at = $11
		WHERE id = $1`,
		e.ID, e.Date, e.Account, e.Debit, e.Credit, string(e.Category), string(e.ExpenseType),
		e.Description, e.Reference, e.Customer, e.UpdatedAt)
	if err != nil {
		return db.Translate(err, "Accounting entry")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounting_entries WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "Accounting entry")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SaveBalances(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]string, len(entries))
	balances := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID.String()
		balances[i] = strconv.FormatFloat(e.Balance, 'f', -1, 64)
	}
	_, err := r.db.Exec(ctx, `
		UPDATE accounting_entries AS a
		SET balance = b.balance
		FROM unnest($1::uuid[], $2::numeric[]) AS b(id, balance)
		WHERE a.id = b.id`, ids, balances)
	return db.Translate(err, "Accounting entry")
}
