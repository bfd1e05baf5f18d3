package quotations

import (
	"time"

	"github.com/google/uuid"

	salesshared "github.com/duamedical/medserve/internal/sales/shared"
)

type QuotationStatus string

const (
	QuotationStatusPending  QuotationStatus = "Pending"
	QuotationStatusAccepted QuotationStatus = "Accepted"
	QuotationStatusRejected QuotationStatus = "Rejected"
)

// CodePrefix is the sequential code prefix for quotation numbers.
const CodePrefix = "QUO"

type Quotation struct {
	ID          uuid.UUID              `json:"id"`
	QuotationNo string                 `json:"quotationNo"`
	ReferenceNo string                 `json:"referenceNo"`
	Date        time.Time              `json:"date"`
	Customer    string                 `json:"customer"`
	CustomerID  *uuid.UUID             `json:"customerId,omitempty"`
	Subject     string                 `json:"subject"`
	Address     string                 `json:"address"`
	Email       string                 `json:"email"`
	Products    []salesshared.LineItem `json:"products"`
	salesshared.TaxConfig
	salesshared.Totals
	Status                  QuotationStatus `json:"status"`
	ValidUntil              time.Time       `json:"validUntil"`
	TermsAndConditions      []string        `json:"termsAndConditions"`
	BuybackDescription      string          `json:"buybackDescription"`
	LinkedInvoiceID         *uuid.UUID      `json:"linkedInvoiceId,omitempty"`
	LinkedDeliveryChallanID *uuid.UUID      `json:"linkedDeliveryChallanId,omitempty"`
	CreatedAt               time.Time       `json:"createdAt"`
	UpdatedAt               time.Time       `json:"updatedAt"`
}

// Accepted reports whether the quotation is in the Accepted state.
func (q *Quotation) Accepted() bool {
	return q.Status == QuotationStatusAccepted
}

// UpdateResult is the quotation after a save, with any recoverable
// warnings raised while materializing its invoice and challan.
type UpdateResult struct {
	*Quotation
	Warnings []string `json:"warnings,omitempty"`
}

type Stats struct {
	TotalQuotations int     `json:"totalQuotations"`
	TotalAmount     float64 `json:"totalAmount"`
	Accepted        int     `json:"accepted"`
	Pending         int     `json:"pending"`
}

type ListResult struct {
	Quotations []Quotation `json:"quotations"`
	Stats      Stats       `json:"stats"`
}
