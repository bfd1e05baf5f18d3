// Package accounting keeps the income and expense book with its running
// balance.
package accounting

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/duamedical/medserve/internal/shared"
)

// Category enumerates entry kinds.
type Category string

const (
	CategoryIncome  Category = "Income"
	CategoryExpense Category = "Expense"
)

// ExpenseType classifies an expense.
type ExpenseType string

const (
	ExpenseOffice ExpenseType = "Office Expense"
	ExpenseHome   ExpenseType = "Home Expense"
)

// Entry is one line of the book. Balance is the running balance after this
// entry in chronological order.
type Entry struct {
	ID          uuid.UUID   `json:"id"`
	Date        time.Time   `json:"date"`
	Account     string      `json:"account"`
	Debit       float64     `json:"debit"`
	Credit      float64     `json:"credit"`
	Balance     float64     `json:"balance"`
	Category    Category    `json:"category"`
	ExpenseType ExpenseType `json:"expenseType,omitempty"`
	Description string      `json:"description"`
	Reference   string      `json:"reference"`
	Customer    string      `json:"customer"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Validate enforces amounts, category and the expense type rule.
func (e *Entry) Validate() error {
	verr := &shared.ValidationError{}
	if e.Debit < 0 {
		verr.Add("debit", "must be greater than or equal to 0")
	}
	if e.Credit < 0 {
		verr.Add("credit", "must be greater than or equal to 0")
	}
	switch e.Category {
	case CategoryIncome, CategoryExpense:
	case "":
		verr.Add("category", "is required")
	default:
		verr.Add("category", "must be one of: Income Expense")
	}
	switch e.ExpenseType {
	case ExpenseOffice, ExpenseHome:
	case "":
		if e.Category == CategoryExpense {
			verr.Add("expenseType", "is required for expenses")
		}
	default:
		verr.Add("expenseType", "must be one of: Office Expense, Home Expense")
	}
	if !verr.Empty() {
		return verr
	}
	return nil
}

func (e *Entry) normalize() {
	e.Account = strings.TrimSpace(e.Account)
	e.Description = strings.TrimSpace(e.Description)
	e.Reference = strings.TrimSpace(e.Reference)
	e.Customer = strings.TrimSpace(e.Customer)
}

// Filter narrows the entry list.
type Filter struct {
	Category    Category
	ExpenseType ExpenseType
}

func (f Filter) match(e Entry) bool {
	return (f.Category == "" || e.Category == f.Category) &&
		(f.ExpenseType == "" || e.ExpenseType == f.ExpenseType)
}

// SortChronological orders entries by date, then creation time, then id.
func SortChronological(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return strings.Compare(a.ID.String(), b.ID.String()) < 0
	})
}

// ApplyRunningBalance sorts entries chronologically and sets each balance to
// the cumulative credit minus debit. It returns the entries whose stored
// balance changed.
func ApplyRunningBalance(entries []Entry) []Entry {
	SortChronological(entries)
	running := decimal.Zero
	var changed []Entry
	for i := range entries {
		running = running.Add(decimal.NewFromFloat(entries[i].Credit)).Sub(decimal.NewFromFloat(entries[i].Debit))
		balance := running.InexactFloat64()
		if entries[i].Balance != balance {
			entries[i].Balance = balance
			changed = append(changed, entries[i])
		}
	}
	return changed
}

// Stats summarise the book.
type Stats struct {
	TotalIncome   float64 `json:"totalIncome"`
	TotalExpenses float64 `json:"totalExpenses"`
	NetBalance    float64 `json:"netBalance"`
}

// ComputeStats expects chronologically ordered entries with balances applied.
func ComputeStats(entries []Entry) Stats {
	income, expenses := decimal.Zero, decimal.Zero
	for _, e := range entries {
		switch e.Category {
		case CategoryIncome:
			income = income.Add(decimal.NewFromFloat(e.Credit))
		case CategoryExpense:
			expenses = expenses.Add(decimal.NewFromFloat(e.Debit))
		}
	}
	stats := Stats{TotalIncome: income.InexactFloat64(), TotalExpenses: expenses.InexactFloat64()}
	if n := len(entries); n > 0 {
		stats.NetBalance = entries[n-1].Balance
	}
	return stats
}

type ListResult struct {
	Entries []Entry `json:"accountingEntries"`
	Stats   Stats   `json:"accountingStats"`
}

// Drift reports an entry whose stored balance disagrees with the book.
type Drift struct {
	ID       uuid.UUID `json:"id"`
	Stored   float64   `json:"stored"`
	Computed float64   `json:"computed"`
}
