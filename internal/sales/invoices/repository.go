package invoices

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

var ErrNotFound = shared.NotFound("Invoice")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id uuid.UUID) (*Invoice, error)
	List(ctx context.Context) ([]Invoice, error)
	// FindForQuotation returns the invoice generated for a quotation, matched
	// by back-link, source quotation, invoice number, legacy subject or
	// reference number. ErrNotFound when nothing matches.
	FindForQuotation(ctx context.Context, lookup salesshared.DocumentLookup) (*Invoice, error)
	Insert(ctx context.Context, inv *Invoice) error
	Save(ctx context.Context, inv *Invoice) error
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

const selectInvoice = `
	SELECT id, invoice_no, reference_no, source_quotation_id, date, customer, customer_id,
	       subject, address, email, products,
	       sales_tax_enabled, sales_tax_rate, sales_tax_amount,
	       fbr_tax_enabled, fbr_tax_rate, fbr_tax_amount,
	       sub_total, total_amount, status, due_date, created_at, updated_at
	FROM invoices`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var status string
	err := row.Scan(&inv.ID, &inv.InvoiceNo, &inv.ReferenceNo, &inv.SourceQuotationID, &inv.Date,
		&inv.Customer, &inv.CustomerID, &inv.Subject, &inv.Address, &inv.Email, &inv.Products,
		&inv.SalesTaxEnabled, &inv.SalesTaxRate, &inv.SalesTaxAmount,
		&inv.FBRTaxEnabled, &inv.FBRTaxRate, &inv.FBRTaxAmount,
		&inv.SubTotal, &inv.TotalAmount, &status, &inv.DueDate, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	inv.Status = Status(status)
	if inv.Products == nil {
		inv.Products = []salesshared.LineItem{}
	}
	return &inv, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, selectInvoice+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return inv, db.Translate(err, "Invoice")
}

func (r *repository) List(ctx context.Context) ([]Invoice, error) {
	rows, err := r.db.Query(ctx, selectInvoice+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, db.Translate(err, "Invoice")
	}
	defer rows.Close()

	out := []Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, db.Translate(err, "Invoice")
		}
		out = append(out, *inv)
	}
	return out, db.Translate(rows.Err(), "Invoice")
}

func (r *repository) FindForQuotation(ctx context.Context, lookup salesshared.DocumentLookup) (*Invoice, error) {
	lookup = lookup.Normalized()
	if lookup.Empty() {
		return nil, ErrNotFound
	}
	row := r.db.QueryRow(ctx, selectInvoice+`
		WHERE ($1::uuid IS NOT NULL AND id = $1)
		   OR ($2::uuid IS NOT NULL AND source_quotation_id = $2)
		   OR ($3 <> '' AND (upper(invoice_no) = $3 OR subject = 'Invoice for ' || $3))
		   OR ($4 <> '' AND upper(reference_no) = $4)
		ORDER BY (id = $1) IS TRUE DESC, (source_quotation_id = $2) IS TRUE DESC, created_at
		LIMIT 1`,
		db.NullUUID(lookup.LinkedID), db.NullUUID(lookup.SourceQuotationID), lookup.Code, lookup.ReferenceNo)
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return inv, db.Translate(err, "Invoice")
}

func (r *repository) Insert(ctx context.Context, inv *Invoice) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO invoices (id, invoice_no, reference_no, source_quotation_id, date, customer, customer_id,
		                      subject, address, email, products,
		                      sales_tax_enabled, sales_tax_rate, sales_tax_amount,
		                      fbr_tax_enabled, fbr_tax_rate, fbr_tax_amount,
		                      sub_total, total_amount, status, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		inv.ID, inv.InvoiceNo, inv.ReferenceNo, inv.SourceQuotationID, inv.Date, inv.Customer, inv.CustomerID,
		inv.Subject, inv.Address, inv.Email, inv.Products,
		inv.SalesTaxEnabled, inv.SalesTaxRate, inv.SalesTaxAmount,
		inv.FBRTaxEnabled, inv.FBRTaxRate, inv.FBRTaxAmount,
		inv.SubTotal, inv.TotalAmount, string(inv.Status), inv.DueDate, inv.CreatedAt, inv.UpdatedAt)
	return db.Translate(err, "Invoice")
}

func (r *repository) Save(ctx context.Context, inv *Invoice) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE invoices
		SET reference_no = $2, source_quotation_id = $3, date = $4, customer = $5, customer_id = $6,
		    subject = $7, address = $8, email = $9, products = $10,
		    sales_tax_enabled = $11, sales_tax_rate = $12, sales_tax_amount = $13,
		    fbr_tax_enabled = $14, fbr_tax_rate = $15, fbr_tax_amount = $16,
		    sub_total = $17, total_amount = $18, status = $19, due_date = $20, updated_at = $21
		WHERE id = $1`,
		inv.ID, inv.ReferenceNo, inv.SourceQuotationID, inv.Date, inv.Customer, inv.CustomerID,
		inv.Subject, inv.Address, inv.Email, inv.Products,
		inv.SalesTaxEnabled, inv.SalesTaxRate, inv.SalesTaxAmount,
		inv.FBRTaxEnabled, inv.FBRTaxRate, inv.FBRTaxAmount,
		inv.SubTotal, inv.TotalAmount, string(inv.Status), inv.DueDate, inv.UpdatedAt)
	if err != nil {
		return db.Translate(err, "Invoice")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "Invoice")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) LatestCode(ctx context.Context, prefix string) (string, error) {
	return seqid.LatestCode(ctx, r.db, "invoices", "invoice_no", prefix)
}
