package customers

import "github.com/duamedical/medserve/internal/shared"

type CreateCustomerRequest struct {
	CustomerName string        `json:"customerName" validate:"required"`
	PhoneNumber  string        `json:"phoneNumber"`
	City         string        `json:"city"`
	Amount       *shared.Number `json:"amount"`
	DebitCredit  string        `json:"debitCredit" validate:"omitempty,oneof=Debit Credit"`
}

// UpdateCustomerRequest is a partial update. The opening balance is only
// rewritten when both Amount and DebitCredit are present.
type UpdateCustomerRequest struct {
	CustomerName *string        `json:"customerName"`
	PhoneNumber  *string        `json:"phoneNumber"`
	City         *string        `json:"city"`
	Amount       *shared.Number `json:"amount"`
	DebitCredit  *string        `json:"debitCredit"`
}

type LedgerEntryRequest struct {
	Date         *shared.Date   `json:"date"`
	Particulars  string         `json:"particulars" validate:"required"`
	DebitAmount  shared.Number  `json:"debitAmount" validate:"gte=0"`
	CreditAmount shared.Number  `json:"creditAmount" validate:"gte=0"`
	Reference    string         `json:"reference"`
	Quantity     *shared.Number `json:"quantity" validate:"omitempty,gte=0"`
	UnitPrice    *shared.Number `json:"unitPrice" validate:"omitempty,gte=0"`
}

// LedgerEntryPatch changes only the fields present.
type LedgerEntryPatch struct {
	Date         *shared.Date   `json:"date"`
	Particulars  *string        `json:"particulars"`
	DebitAmount  *shared.Number `json:"debitAmount" validate:"omitempty,gte=0"`
	CreditAmount *shared.Number `json:"creditAmount" validate:"omitempty,gte=0"`
	Reference    *string        `json:"reference"`
	Quantity     *shared.Number `json:"quantity" validate:"omitempty,gte=0"`
	UnitPrice    *shared.Number `json:"unitPrice" validate:"omitempty,gte=0"`
}
