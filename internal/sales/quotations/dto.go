package quotations

import (
	"github.com/google/uuid"

	"github.com/duamedical/medserve/internal/shared"
	salesshared "github.com/duamedical/medserve/internal/sales/shared"
)

// QuotationRequest is used for both create and update. On update only the
// fields present in the payload change.
type QuotationRequest struct {
	QuotationNo        *string                `json:"quotationNo"`
	ReferenceNo        *string                `json:"referenceNo"`
	Date               *shared.Date           `json:"date"`
	Customer           *string                `json:"customer"`
	CustomerID         *uuid.UUID             `json:"customerId"`
	Subject            *string                `json:"subject"`
	Address            *string                `json:"address"`
	Email              *string                `json:"email"`
	Products           []salesshared.LineItem `json:"products" validate:"omitempty,dive"`
	SalesTaxEnabled    *bool                  `json:"salesTaxEnabled"`
	SalesTaxRate       *shared.Number         `json:"salesTaxRate" validate:"omitempty,gte=0"`
	FBRTaxEnabled      *bool                  `json:"fbrTaxEnabled"`
	FBRTaxRate         *shared.Number         `json:"fbrTaxRate" validate:"omitempty,gte=0"`
	TotalAmount        *shared.Number         `json:"totalAmount" validate:"omitempty,gte=0"`
	Status             *string                `json:"status" validate:"omitempty,oneof=Pending Accepted Rejected"`
	ValidUntil         *shared.Date           `json:"validUntil"`
	TermsAndConditions []string               `json:"termsAndConditions"`
	BuybackDescription *string                `json:"buybackDescription"`
}

// suppliedTotal is the client total carried by this request, 0 when absent.
func (r QuotationRequest) suppliedTotal() float64 {
	if r.TotalAmount == nil {
		return 0
	}
	return r.TotalAmount.Float()
}

// apply copies the present fields onto q. It reports whether the quotation
// number changed.
func (r QuotationRequest) apply(q *Quotation) (codeChanged bool) {
	if r.QuotationNo != nil {
		if code := salesshared.NormalizeCode(*r.QuotationNo); code != "" && code != q.QuotationNo {
			q.QuotationNo = code
			codeChanged = true
		}
	}
	if r.ReferenceNo != nil {
		q.ReferenceNo = salesshared.NormalizeCode(*r.ReferenceNo)
	}
	if r.Date != nil && !r.Date.IsZero() {
		q.Date = r.Date.Time
	}
	if r.Customer != nil {
		q.Customer = *r.Customer
	}
	if r.CustomerID != nil {
		q.CustomerID = r.CustomerID
	}
	if r.Subject != nil {
		q.Subject = *r.Subject
	}
	if r.Address != nil {
		q.Address = *r.Address
	}
	if r.Email != nil {
		q.Email = *r.Email
	}
	if r.Products != nil {
		q.Products = salesshared.AssignLineIDs(r.Products)
	}
	if r.SalesTaxEnabled != nil {
		q.SalesTaxEnabled = *r.SalesTaxEnabled
	}
	if r.SalesTaxRate != nil {
		q.SalesTaxRate = r.SalesTaxRate.Float()
	}
	if r.FBRTaxEnabled != nil {
		q.FBRTaxEnabled = *r.FBRTaxEnabled
	}
	if r.FBRTaxRate != nil {
		q.FBRTaxRate = r.FBRTaxRate.Float()
	}
	if r.TotalAmount != nil {
		q.TotalAmount = r.TotalAmount.Float()
	}
	if r.Status != nil && *r.Status != "" {
		q.Status = QuotationStatus(*r.Status)
	}
	if r.ValidUntil != nil && !r.ValidUntil.IsZero() {
		q.ValidUntil = r.ValidUntil.Time
	}
	if r.TermsAndConditions != nil {
		q.TermsAndConditions = r.TermsAndConditions
	}
	if r.BuybackDescription != nil {
		q.BuybackDescription = *r.BuybackDescription
	}
	return codeChanged
}
