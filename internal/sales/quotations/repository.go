package quotations

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

var ErrNotFound = shared.NotFound("Quotation")

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id uuid.UUID) (*Quotation, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Quotation, error)
	List(ctx context.Context) ([]Quotation, error)
	Insert(ctx context.Context, q *Quotation) error
	Save(ctx context.Context, q *Quotation) error
	// SaveLinks persists the reference number and document back-links only.
	SaveLinks(ctx context.Context, q *Quotation) error
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

const selectQuotation = `
	SELECT id, quotation_no, reference_no, date, customer, customer_id, subject, address, email,
	       products, sales_tax_enabled, sales_tax_rate, sales_tax_amount,
	       fbr_tax_enabled, fbr_tax_rate, fbr_tax_amount, sub_total, total_amount,
	       status, valid_until, terms_and_conditions, buyback_description,
	       linked_invoice_id, linked_delivery_challan_id, created_at, updated_at
	FROM quotations`

func scanQuotation(row pgx.Row) (*Quotation, error) {
	var q Quotation
	var status string
	err := row.Scan(&q.ID, &q.QuotationNo, &q.ReferenceNo, &q.Date, &q.Customer, &q.CustomerID,
		&q.Subject, &q.Address, &q.Email, &q.Products,
		&q.SalesTaxEnabled, &q.SalesTaxRate, &q.SalesTaxAmount,
		&q.FBRTaxEnabled, &q.FBRTaxRate, &q.FBRTaxAmount, &q.SubTotal, &q.TotalAmount,
		&status, &q.ValidUntil, &q.TermsAndConditions, &q.BuybackDescription,
		&q.LinkedInvoiceID, &q.LinkedDeliveryChallanID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	q.Status = QuotationStatus(status)
	if q.Products == nil {
		q.Products = []salesshared.LineItem{}
	}
	if q.TermsAndConditions == nil {
		q.TermsAndConditions = []string{}
	}
	return &q, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	q, err := scanQuotation(r.db.QueryRow(ctx, selectQuotation+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return q, db.Translate(err, "Quotation")
}

func (r *repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*Quotation, error) {
	q, err := scanQuotation(r.db.QueryRow(ctx, selectQuotation+` WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return q, db.Translate(err, "Quotation")
}

func (r *repository) List(ctx context.Context) ([]Quotation, error) {
	rows, err := r.db.Query(ctx, selectQuotation+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, db.Translate(err, "Quotation")
	}
	defer rows.Close()

	out := []Quotation{}
	for rows.Next() {
		q, err := scanQuotation(rows)
		if err != nil {
			return nil, db.Translate(err, "Quotation")
		}
		out = append(out, *q)
	}
	return out, db.Translate(rows.Err(), "Quotation")
}

func (r *repository) Insert(ctx context.Context, q *Quotation) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO quotations (id, quotation_no, reference_no, date, customer, customer_id, subject, address,
		                        email, products, sales_tax_enabled, sales_tax_rate, sales_tax_amount,
		                        fbr_tax_enabled, fbr_tax_rate, fbr_tax_amount, sub_total, total_amount,
		                        status, valid_until, terms_and_conditions, buyback_description,
		                        linked_invoice_id, linked_delivery_challan_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
		        $19, $20, $21, $22, $23, $24, $25, $26)`,
		q.ID, q.QuotationNo, q.ReferenceNo, q.Date, q.Customer, q.CustomerID, q.Subject, q.Address,
		q.Email, q.Products, q.SalesTaxEnabled, q.SalesTaxRate, q.SalesTaxAmount,
		q.FBRTaxEnabled, q.FBRTaxRate, q.FBRTaxAmount, q.SubTotal, q.TotalAmount,
		string(q.Status), q.ValidUntil, q.TermsAndConditions, q.BuybackDescription,
		q.LinkedInvoiceID, q.LinkedDeliveryChallanID, q.CreatedAt, q.UpdatedAt)
	return db.Translate(err, "Quotation")
}

func (r *repository) Save(ctx context.Context, q *Quotation) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotations
		SET quotation_no = $2, reference_no = $3, date = $4, customer = $5, customer_id = $6,
		    subject = $7, address = $8, email = $9, products = $10,
		    sales_tax_enabled = $11, sales_tax_rate = $12, sales_tax_amount = $13,
		    fbr_tax_enabled = $14, fbr_tax_rate = $15, fbr_tax_amount = $16,
		    sub_total = $17, total_amount = $18, status = $19, valid_until = $20,
		    terms_and_conditions = $21, buyback_description = $22,
		    linked_invoice_id = $23, linked_delivery_challan_id = $24, updated_at = $25
		WHERE id = $1`,
		q.ID, q.QuotationNo, q.ReferenceNo, q.Date, q.Customer, q.CustomerID,
		q.Subject, q.Address, q.Email, q.Products,
		q.SalesTaxEnabled, q.SalesTaxRate, q.SalesTaxAmount,
		q.FBRTaxEnabled, q.FBRTaxRate, q.FBRTaxAmount,
		q.SubTotal, q.TotalAmount, string(q.Status), q.ValidUntil,
		q.TermsAndConditions, q.BuybackDescription,
		q.LinkedInvoiceID, q.LinkedDeliveryChallanID, q.UpdatedAt)
	if err != nil {
		return db.Translate(err, "Quotation")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) SaveLinks(ctx context.Context, q *Quotation) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotations
		SET reference_no = $2, linked_invoice_id = $3, linked_delivery_challan_id = $4, updated_at = $5
		WHERE id = $1`,
		q.ID, q.ReferenceNo, q.LinkedInvoiceID, q.LinkedDeliveryChallanID, q.UpdatedAt)
	if err != nil {
		return db.Translate(err, "Quotation")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quotations WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "Quotation")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) LatestCode(ctx context.Context, prefix string) (string, error) {
	return seqid.LatestCode(ctx, r.db, "quotations", "quotation_no", prefix)
}
