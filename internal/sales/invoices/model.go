package invoices

import (
	"time"

	"github.com/google/uuid"

	salesshared "github.com/duamedical/medserve/internal/sales/shared"
)

type Status string

const (
	StatusPending Status = "Pending"
	StatusPaid    Status = "Paid"
	StatusPartial Status = "Partial"
)

// CodePrefix is the sequential code prefix for manually created invoices.
// Invoices generated from a quotation reuse the quotation number.
const CodePrefix = "INV"

type Invoice struct {
	ID                uuid.UUID              `json:"id"`
	InvoiceNo         string                 `json:"invoiceNo"`
	ReferenceNo       string                 `json:"referenceNo"`
	SourceQuotationID *uuid.UUID             `json:"sourceQuotationId,omitempty"`
	Date              time.Time              `json:"date"`
	Customer          string                 `json:"customer"`
	CustomerID        *uuid.UUID             `json:"customerId,omitempty"`
	Subject           string                 `json:"subject"`
	Address           string                 `json:"address"`
	Email             string                 `json:"email"`
	Products          []salesshared.LineItem `json:"products"`
	salesshared.TaxConfig
	salesshared.Totals
	Status    Status     `json:"status"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Recompute derives totals from the products. Invoice totals never trust a
// caller-supplied amount.
func (inv *Invoice) Recompute() {
	inv.Totals = salesshared.InvoiceTotals(inv.Products, inv.TaxConfig)
}

type Stats struct {
	TotalInvoices int     `json:"totalInvoices"`
	TotalAmount   float64 `json:"totalAmount"`
	PaidAmount    float64 `json:"paidAmount"`
	PendingAmount float64 `json:"pendingAmount"`
}

type ListResult struct {
	Invoices []Invoice `json:"invoices"`
	Stats    Stats     `json:"stats"`
}
