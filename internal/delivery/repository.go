package delivery

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duamedical/medserve/internal/platform/db"
	salesshared "github.com/duamedical/medserve/internal/sales/shared"
	"github.com/duamedical/medserve/internal/seqid"
	"github.com/duamedical/medserve/internal/shared"
)

var ErrNotFound = shared.NotFound("Delivery challan")

// Repository provides persistence for delivery challans.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id uuid.UUID) (*Challan, error)
	List(ctx context.Context) ([]Challan, error)
	// FindForQuotation returns the challan generated for a quotation, matched
	// by back-link, source quotation, challan number or reference number.
	FindForQuotation(ctx context.Context, lookup salesshared.DocumentLookup) (*Challan, error)
	Insert(ctx context.Context, c *Challan) error
	Save(ctx context.Context, c *Challan) error
	Delete(ctx context.Context, id uuid.UUID) error
	LatestCode(ctx context.Context, prefix string) (string, error)
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

const selectChallan = `
	SELECT id, challan_no, reference_no, source_quotation_id, date, customer, customer_id,
	       address, items, status, vehicle_no, created_at, updated_at
	FROM delivery_challans`

func scanChallan(row pgx.Row) (*Challan, error) {
	var c Challan
	var status string
	err := row.Scan(&c.ID, &c.ChallanNo, &c.ReferenceNo, &c.SourceQuotationID, &c.Date,
		&c.Customer, &c.CustomerID, &c.Address, &c.Items, &status, &c.VehicleNo,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Status = Status(status)
	if c.Items == nil {
		c.Items = []Item{}
	}
	return &c, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Challan, error) {
	c, err := scanChallan(r.db.QueryRow(ctx, selectChallan+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, db.Translate(err, "Delivery challan")
}

func (r *repository) List(ctx context.Context) ([]Challan, error) {
	rows, err := r.db.Query(ctx, selectChallan+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, db.Translate(err, "Delivery challan")
	}
	defer rows.Close()

	out := []Challan{}
	for rows.Next() {
		c, err := scanChallan(rows)
		if err != nil {
			return nil, db.Translate(err, "Delivery challan")
		}
		out = append(out, *c)
	}
	return out, db.Translate(rows.Err(), "Delivery challan")
}

func (r *repository) FindForQuotation(ctx context.Context, lookup salesshared.DocumentLookup) (*Challan, error) {
	lookup = lookup.Normalized()
	if lookup.Empty() {
		return nil, ErrNotFound
	}
	row := r.db.QueryRow(ctx, selectChallan+`
		WHERE ($1::uuid IS NOT NULL AND id = $1)
		   OR ($2::uuid IS NOT NULL AND source_quotation_id = $2)
		   OR ($3 <> '' AND upper(challan_no) = $3)
		   OR ($4 <> '' AND upper(reference_no) = $4)
		ORDER BY (id = $1) IS TRUE DESC, (source_quotation_id = $2) IS TRUE DESC, created_at
		LIMIT 1`,
		db.NullUUID(lookup.LinkedID), db.NullUUID(lookup.SourceQuotationID), lookup.Code, lookup.ReferenceNo)
	c, err := scanChallan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, db.Translate(err, "Delivery challan")
}

func (r *repository) Insert(ctx context.Context, c *Challan) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO delivery_challans (id, challan_no, reference_no, source_quotation_id, date, customer,
		                               customer_id, address, items, status, vehicle_no, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID, c.ChallanNo, c.ReferenceNo, c.SourceQuotationID, c.Date, c.Customer,
		c.CustomerID, c.Address, c.Items, string(c.Status), c.VehicleNo, c.CreatedAt, c.UpdatedAt)
	return db.Translate(err, "Delivery challan")
}

func (r *repository) Save(ctx context.Context, c *Challan) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE delivery_challans
		SET reference_no = $2, source_quotation_id = $3, date = $4, customer = $5, customer_id = $6,
		    address = $7, items = $8, status = $9, vehicle_no = $10, updated_at = $11
		WHERE id = $1`,
		c.ID, c.ReferenceNo, c.SourceQuotationID, c.Date, c.Customer, c.CustomerID,
		c.Address, c.Items, string(c.Status), c.VehicleNo, c.UpdatedAt)
	if err != nil {
		return db.Translate(err, "Delivery challan")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM delivery_challans WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "Delivery challan")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) LatestCode(ctx context.Context, prefix string) (string, error) {
	return seqid.LatestCode(ctx, r.db, "delivery_challans", "challan_no", prefix)
}
