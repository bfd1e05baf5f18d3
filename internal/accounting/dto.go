package accounting

import "github.com/duamedical/medserve/internal/shared"

// EntryRequest is the create/update payload. On update only the fields
// present change.
type EntryRequest struct {
	Date        *shared.Date   `json:"date"`
	Account     *string        `json:"account"`
	Debit       *shared.Number `json:"debit" validate:"omitempty,gte=0"`
	Credit      *shared.Number `json:"credit" validate:"omitempty,gte=0"`
	Category    *string        `json:"category" validate:"omitempty,oneof=Income Expense"`
	ExpenseType *string        `json:"expenseType" validate:"omitempty,oneof='Office Expense' 'Home Expense'"`
	Description *string        `json:"description"`
	Reference   *string        `json:"reference"`
	Customer    *string        `json:"customer"`
}

func (r EntryRequest) apply(e *Entry) {
	if r.Date != nil && !r.Date.IsZero() {
		e.Date = r.Date.Time
	}
	if r.Account != nil {
		e.Account = *r.Account
	}
	if r.Debit != nil {
		e.Debit = r.Debit.Float()
	}
	if r.Credit != nil {
		e.Credit = r.Credit.Float()
	}
	if r.Category != nil {
		e.Category = Category(*r.Category)
	}
	if r.ExpenseType != nil {
		e.ExpenseType = ExpenseType(*r.ExpenseType)
	}
	if r.Description != nil {
		e.Description = *r.Description
	}
	if r.Reference != nil {
		e.Reference = *r.Reference
	}
	if r.Customer != nil {
		e.Customer = *r.Customer
	}
}
