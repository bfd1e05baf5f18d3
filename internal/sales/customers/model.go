package customers

import (
	"time"

	"github.com/google/uuid"
)

// Direction is the sign indicator of a balance or opening amount.
type Direction string

const (
	Debit  Direction = "Debit"
	Credit Direction = "Credit"
)

// CodePrefix is the sequential code prefix for customer serial numbers.
const CodePrefix = "CUST"

// LedgerEntry is one dated movement on a customer's account. Entries have
// no lifecycle outside their customer.
type LedgerEntry struct {
	ID           string    `json:"id"`
	Date         time.Time `json:"date"`
	Particulars  string    `json:"particulars"`
	DebitAmount  float64   `json:"debitAmount"`
	CreditAmount float64   `json:"creditAmount"`
	// TotalAmount is the running balance snapshot taken when the entry was added.
	TotalAmount float64   `json:"totalAmount"`
	Reference   string    `json:"reference,omitempty"`
	Quantity    *float64  `json:"quantity,omitempty"`
	UnitPrice   *float64  `json:"unitPrice,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Customer owns an ordered ledger. Ledger order is meaningful: an
// "Initial Balance" entry, when present, is always first.
type Customer struct {
	ID           uuid.UUID     `json:"id"`
	SerialNumber string        `json:"serialNumber"`
	CustomerName string        `json:"customerName"`
	PhoneNumber  string        `json:"phoneNumber"`
	City         string        `json:"city"`
	TotalBalance float64       `json:"totalBalance"`
	DebitCredit  Direction     `json:"debitCredit"`
	Ledger       []LedgerEntry `json:"ledger"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// Stats summarises balances across customers.
type Stats struct {
	TotalBalance   float64 `json:"totalBalance"`
	TotalCustomers int     `json:"totalCustomers"`
	TotalCredit    float64 `json:"totalCredit"`
	TotalDebit     float64 `json:"totalDebit"`
}

// ListResult is returned by the list endpoint when stats are requested.
type ListResult struct {
	Customers []Customer `json:"customers"`
	Stats     Stats      `json:"stats"`
}
