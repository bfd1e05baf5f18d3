package invoices

import (
	"github.com/google/uuid"

	"github.com/duamedical/medserve/internal/shared"
	salesshared "github.com/duamedical/medserve/internal/sales/shared"
)

// InvoiceRequest is used for both create and update. On update only the
// fields present in the payload change.
type InvoiceRequest struct {
	ReferenceNo       *string                `json:"referenceNo"`
	SourceQuotationID *uuid.UUID             `json:"sourceQuotationId"`
	Date              *shared.Date           `json:"date"`
	Customer          *string                `json:"customer"`
	CustomerID        *uuid.UUID             `json:"customerId"`
	Subject           *string                `json:"subject"`
	Address           *string                `json:"address"`
	Email             *string                `json:"email"`
	Products          []salesshared.LineItem `json:"products" validate:"omitempty,dive"`
	SalesTaxEnabled   *bool                  `json:"salesTaxEnabled"`
	SalesTaxRate      *shared.Number         `json:"salesTaxRate" validate:"omitempty,gte=0"`
	FBRTaxEnabled     *bool                  `json:"fbrTaxEnabled"`
	FBRTaxRate        *shared.Number         `json:"fbrTaxRate" validate:"omitempty,gte=0"`
	Status            *string                `json:"status" validate:"omitempty,oneof=Pending Paid Partial"`
	DueDate           *shared.Date           `json:"dueDate"`
}

// Apply copies the present fields onto inv. defaultEmail fills a blank email.
func (r InvoiceRequest) Apply(inv *Invoice, defaultEmail string) {
	if r.ReferenceNo != nil {
		inv.ReferenceNo = salesshared.NormalizeCode(*r.ReferenceNo)
	}
	if r.SourceQuotationID != nil {
		inv.SourceQuotationID = r.SourceQuotationID
	}
	if r.Date != nil && !r.Date.IsZero() {
		inv.Date = r.Date.Time
	}
	if r.Customer != nil {
		inv.Customer = *r.Customer
	}
	if r.CustomerID != nil {
		inv.CustomerID = r.CustomerID
	}
	if r.Subject != nil {
		inv.Subject = *r.Subject
	}
	if r.Address != nil {
		inv.Address = *r.Address
	}
	if r.Email != nil {
		inv.Email = *r.Email
	}
	if inv.Email == "" {
		inv.Email = defaultEmail
	}
	if r.Products != nil {
		inv.Products = salesshared.AssignLineIDs(r.Products)
	}
	if r.SalesTaxEnabled != nil {
		inv.SalesTaxEnabled = *r.SalesTaxEnabled
	}
	if r.SalesTaxRate != nil {
		inv.SalesTaxRate = r.SalesTaxRate.Float()
	}
	if r.FBRTaxEnabled != nil {
		inv.FBRTaxEnabled = *r.FBRTaxEnabled
	}
	if r.FBRTaxRate != nil {
		inv.FBRTaxRate = r.FBRTaxRate.Float()
	}
	if r.Status != nil && *r.Status != "" {
		inv.Status = Status(*r.Status)
	}
	if r.DueDate != nil {
		if r.DueDate.IsZero() {
			inv.DueDate = nil
		} else {
			due := r.DueDate.Time
			inv.DueDate = &due
		}
	}
}
