package quotations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/duamedical/medserve/internal/delivery"
	"github.com/duamedical/medserve/internal/sales/invoices"
	salesshared "github.com/duamedical/medserve/internal/sales/shared"
	"github.com/duamedical/medserve/internal/shared"
)

// InvoiceStore is the slice of invoice persistence the workflow needs.
type InvoiceStore interface {
	FindForQuotation(ctx context.Context, lookup salesshared.DocumentLookup) (*invoices.Invoice, error)
	Insert(ctx context.Context, inv *invoices.Invoice) error
	Save(ctx context.Context, inv *invoices.Invoice) error
}

// ChallanStore is the slice of challan persistence the workflow needs.
type ChallanStore interface {
	FindForQuotation(ctx context.Context, lookup salesshared.DocumentLookup) (*delivery.Challan, error)
	Insert(ctx context.Context, c *delivery.Challan) error
	Save(ctx context.Context, c *delivery.Challan) error
}

// AcceptanceObserver receives one outcome per materialized document:
// created, reused, refreshed, skipped or failed.
type AcceptanceObserver interface {
	AcceptanceOutcome(document, outcome string)
}

// Mode selects what Materialize does when a linked document is missing or
// already exists.
type Mode int

const (
	// ModeCreate finds or creates both documents. Used on first acceptance
	// and by reconciliation.
	ModeCreate Mode = iota
	// ModeRefresh rewrites existing documents from the quotation and never
	// creates new ones.
	ModeRefresh
)

const (
	outcomeCreated   = "created"
	outcomeReused    = "reused"
	outcomeRefreshed = "refreshed"
	outcomeSkipped   = "skipped"
	outcomeFailed    = "failed"
)

// Materialization reports what the workflow did.
type Materialization struct {
	Invoice *invoices.Invoice
	Challan *delivery.Challan
}

// Workflow materializes the invoice and delivery challan of an accepted
// quotation. Unique indexes on the generated documents are the idempotency
// guarantee; the per-quotation lock only narrows the race window.
type Workflow struct {
	invoices InvoiceStore
	challans ChallanStore
	locker   shared.Locker
	lockTTL  time.Duration
	defaults salesshared.Defaults
	observer AcceptanceObserver
	logger   *slog.Logger
	now      func() time.Time
}

func NewWorkflow(inv InvoiceStore, dc ChallanStore, locker shared.Locker, lockTTL time.Duration, defaults salesshared.Defaults, observer AcceptanceObserver, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &Workflow{
		invoices: inv,
		challans: dc,
		locker:   locker,
		lockTTL:  lockTTL,
		defaults: defaults,
		observer: observer,
		logger:   logger,
		now:      time.Now,
	}
}

// Materialize makes sure q has an invoice and a challan and sets the
// back-links and reference number on q. It does not persist q. Failures of
// either document are joined into the returned error; whatever succeeded is
// still reported and linked.
func (w *Workflow) Materialize(ctx context.Context, q *Quotation, mode Mode) (Materialization, error) {
	if w.locker != nil {
		release, err := w.locker.Acquire(ctx, shared.QuotationAcceptLockKey(q.ID), w.lockTTL)
		if err != nil {
			w.logger.Debug("acceptance lock unavailable", slog.String("quotation_no", q.QuotationNo), slog.Any("error", err))
		}
		defer release()
	}

	if q.ReferenceNo == "" {
		q.ReferenceNo = salesshared.NormalizeCode(q.QuotationNo)
	}

	var out Materialization
	var errs []error

	inv, err := w.ensureInvoice(ctx, q, mode)
	if err != nil {
		errs = append(errs, fmt.Errorf("invoice for %s: %w", q.QuotationNo, err))
	} else if inv != nil {
		out.Invoice = inv
		q.LinkedInvoiceID = &inv.ID
	}

	dc, err := w.ensureChallan(ctx, q, mode)
	if err != nil {
		errs = append(errs, fmt.Errorf("delivery challan for %s: %w", q.QuotationNo, err))
	} else if dc != nil {
		out.Challan = dc
		q.LinkedDeliveryChallanID = &dc.ID
	}

	return out, errors.Join(errs...)
}

// lookup matches on the quotation's own code. ReferenceNo is editable and
// may name another quotation, so it never selects documents.
func (w *Workflow) lookup(q *Quotation, linked *uuid.UUID) salesshared.DocumentLookup {
	code := salesshared.NormalizeCode(q.QuotationNo)
	l := salesshared.DocumentLookup{
		SourceQuotationID: q.ID,
		Code:              code,
		ReferenceNo:       code,
	}
	if linked != nil {
		l.LinkedID = *linked
	}
	return l
}

func (w *Workflow) ensureInvoice(ctx context.Context, q *Quotation, mode Mode) (*invoices.Invoice, error) {
	lookup := w.lookup(q, q.LinkedInvoiceID)
	existing, err := w.invoices.FindForQuotation(ctx, lookup)
	if err == nil && !ownedBy(existing.SourceQuotationID, q.ID) {
		existing, err = nil, invoices.ErrNotFound
	}
	switch {
	case err == nil:
		return w.updateInvoice(ctx, q, existing, mode)
	case !errors.Is(err, shared.ErrNotFound):
		w.observe("invoice", outcomeFailed)
		return nil, err
	}

	if mode == ModeRefresh {
		w.observe("invoice", outcomeSkipped)
		return nil, nil
	}

	inv := w.newInvoice(q)
	if err := w.invoices.Insert(ctx, inv); err != nil {
		if !errors.Is(err, shared.ErrDuplicate) {
			w.observe("invoice", outcomeFailed)
			return nil, err
		}
		// Lost a race with a concurrent acceptance.
		existing, ferr := w.invoices.FindForQuotation(ctx, lookup)
		if ferr == nil && !ownedBy(existing.SourceQuotationID, q.ID) {
			ferr = fmt.Errorf("invoice %s belongs to another quotation", existing.InvoiceNo)
		}
		if ferr != nil {
			w.observe("invoice", outcomeFailed)
			return nil, errors.Join(err, ferr)
		}
		w.observe("invoice", outcomeReused)
		return existing, nil
	}
	w.observe("invoice", outcomeCreated)
	w.logger.Info("invoice generated from quotation",
		slog.String("quotation_no", q.QuotationNo), slog.String("invoice_no", inv.InvoiceNo))
	return inv, nil
}

func (w *Workflow) updateInvoice(ctx context.Context, q *Quotation, inv *invoices.Invoice, mode Mode) (*invoices.Invoice, error) {
	switch mode {
	case ModeRefresh:
		w.fillInvoice(inv, q)
	default:
		if inv.ReferenceNo != "" && inv.SourceQuotationID != nil {
			w.observe("invoice", outcomeReused)
			return inv, nil
		}
		if inv.ReferenceNo == "" {
			inv.ReferenceNo = q.ReferenceNo
		}
		if inv.SourceQuotationID == nil {
			inv.SourceQuotationID = &q.ID
		}
	}
	inv.UpdatedAt = w.now().UTC()
	if err := w.invoices.Save(ctx, inv); err != nil {
		w.observe("invoice", outcomeFailed)
		return nil, err
	}
	if mode == ModeRefresh {
		w.observe("invoice", outcomeRefreshed)
	} else {
		w.observe("invoice", outcomeReused)
	}
	return inv, nil
}

func (w *Workflow) newInvoice(q *Quotation) *invoices.Invoice {
	now := w.now().UTC()
	inv := &invoices.Invoice{
		ID:          uuid.New(),
		InvoiceNo:   salesshared.NormalizeCode(q.QuotationNo),
		ReferenceNo: q.ReferenceNo,
		Status:      invoices.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	w.fillInvoice(inv, q)
	return inv
}

// fillInvoice copies the header, rows and tax configuration of q and
// recomputes invoice totals.
func (w *Workflow) fillInvoice(inv *invoices.Invoice, q *Quotation) {
	id := q.ID
	inv.SourceQuotationID = &id
	if inv.ReferenceNo == "" {
		inv.ReferenceNo = q.ReferenceNo
	}
	inv.Date = q.Date
	inv.Customer = q.Customer
	inv.CustomerID = q.CustomerID
	inv.Subject = q.Subject
	if inv.Subject == "" {
		inv.Subject = "Invoice for " + salesshared.NormalizeCode(q.QuotationNo)
	}
	inv.Address = q.Address
	inv.Email = q.Email
	if inv.Email == "" {
		inv.Email = w.defaults.Email
	}
	inv.Products = copyLines(q.Products)
	inv.TaxConfig = q.TaxConfig
	due := q.ValidUntil
	inv.DueDate = &due
	inv.Recompute()
}

func (w *Workflow) ensureChallan(ctx context.Context, q *Quotation, mode Mode) (*delivery.Challan, error) {
	lookup := w.lookup(q, q.LinkedDeliveryChallanID)
	existing, err := w.challans.FindForQuotation(ctx, lookup)
	if err == nil && !ownedBy(existing.SourceQuotationID, q.ID) {
		existing, err = nil, delivery.ErrNotFound
	}
	switch {
	case err == nil:
		return w.updateChallan(ctx, q, existing, mode)
	case !errors.Is(err, shared.ErrNotFound):
		w.observe("challan", outcomeFailed)
		return nil, err
	}

	if mode == ModeRefresh {
		w.observe("challan", outcomeSkipped)
		return nil, nil
	}

	dc := w.newChallan(q)
	if err := w.challans.Insert(ctx, dc); err != nil {
		if !errors.Is(err, shared.ErrDuplicate) {
			w.observe("challan", outcomeFailed)
			return nil, err
		}
		existing, ferr := w.challans.FindForQuotation(ctx, lookup)
		if ferr == nil && !ownedBy(existing.SourceQuotationID, q.ID) {
			ferr = fmt.Errorf("delivery challan %s belongs to another quotation", existing.ChallanNo)
		}
		if ferr != nil {
			w.observe("challan", outcomeFailed)
			return nil, errors.Join(err, ferr)
		}
		w.observe("challan", outcomeReused)
		return existing, nil
	}
	w.observe("challan", outcomeCreated)
	w.logger.Info("delivery challan generated from quotation",
		slog.String("quotation_no", q.QuotationNo), slog.String("challan_no", dc.ChallanNo))
	return dc, nil
}

func (w *Workflow) updateChallan(ctx context.Context, q *Quotation, dc *delivery.Challan, mode Mode) (*delivery.Challan, error) {
	switch mode {
	case ModeRefresh:
		w.fillChallan(dc, q)
	default:
		if dc.ReferenceNo != "" && dc.SourceQuotationID != nil {
			w.observe("challan", outcomeReused)
			return dc, nil
		}
		if dc.ReferenceNo == "" {
			dc.ReferenceNo = q.ReferenceNo
		}
		if dc.SourceQuotationID == nil {
			dc.SourceQuotationID = &q.ID
		}
	}
	dc.UpdatedAt = w.now().UTC()
	if err := w.challans.Save(ctx, dc); err != nil {
		w.observe("challan", outcomeFailed)
		return nil, err
	}
	if mode == ModeRefresh {
		w.observe("challan", outcomeRefreshed)
	} else {
		w.observe("challan", outcomeReused)
	}
	return dc, nil
}

func (w *Workflow) newChallan(q *Quotation) *delivery.Challan {
	now := w.now().UTC()
	dc := &delivery.Challan{
		ID:          uuid.New(),
		ChallanNo:   salesshared.NormalizeCode(q.QuotationNo),
		ReferenceNo: q.ReferenceNo,
		Status:      delivery.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	w.fillChallan(dc, q)
	return dc
}

// fillChallan copies the header and rows of q. Status and vehicle number
// belong to the delivery and are left alone.
func (w *Workflow) fillChallan(dc *delivery.Challan, q *Quotation) {
	id := q.ID
	dc.SourceQuotationID = &id
	if dc.ReferenceNo == "" {
		dc.ReferenceNo = q.ReferenceNo
	}
	dc.Date = q.Date
	dc.Customer = q.Customer
	dc.CustomerID = q.CustomerID
	dc.Address = q.Address
	dc.Items = delivery.FromLineItems(q.Products)
}

// ownedBy reports whether a document with source may be linked to quotation
// id. Legacy documents without a source are claimable.
func ownedBy(source *uuid.UUID, id uuid.UUID) bool {
	return source == nil || *source == id
}

func (w *Workflow) observe(document, outcome string) {
	if w.observer != nil {
		w.observer.AcceptanceOutcome(document, outcome)
	}
}

// copyLines returns the non-blank rows with fresh ids.
func copyLines(lines []salesshared.LineItem) []salesshared.LineItem {
	out := salesshared.NonBlank(lines)
	for i := range out {
		out[i].ID = ""
	}
	return salesshared.AssignLineIDs(out)
}
