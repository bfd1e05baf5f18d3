package customers

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/duamedical/medserve/internal/shared"
)

// InitialBalance is the reserved particulars value of the opening entry.
const InitialBalance = "Initial Balance"

// IsInitialBalance reports whether particulars names the opening entry,
// ignoring case and surrounding space.
func IsInitialBalance(particulars string) bool {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(particulars)) == fold.String(InitialBalance)
}

// Recalculate sets TotalBalance to Σdebit − Σcredit over the ledger in
// stored order and derives DebitCredit from the sign.
func Recalculate(c *Customer) {
	bal := decimal.Zero
	for _, e := range c.Ledger {
		bal = bal.Add(decimal.NewFromFloat(e.DebitAmount)).Sub(decimal.NewFromFloat(e.CreditAmount))
	}
	c.TotalBalance = bal.InexactFloat64()
	if bal.IsNegative() {
		c.DebitCredit = Credit
	} else {
		c.DebitCredit = Debit
	}
}

// AddEntry appends entry with a fresh id, snapshots the running total
// against the current balance and recalculates.
func AddEntry(c *Customer, entry LedgerEntry, now time.Time) LedgerEntry {
	entry.ID = uuid.NewString()
	if entry.Date.IsZero() {
		entry.Date = now
	}
	entry.CreatedAt = now
	entry.UpdatedAt = now
	entry.TotalAmount = decimal.NewFromFloat(c.TotalBalance).
		Add(decimal.NewFromFloat(entry.DebitAmount)).
		Sub(decimal.NewFromFloat(entry.CreditAmount)).
		InexactFloat64()
	c.Ledger = append(c.Ledger, entry)
	Recalculate(c)
	return entry
}

// UpdateEntry applies patch to the entry with id.
func UpdateEntry(c *Customer, id string, patch LedgerEntryPatch, now time.Time) error {
	idx := entryIndex(c, id)
	if idx < 0 {
		return shared.NotFound("Ledger entry")
	}
	e := &c.Ledger[idx]
	if patch.Date != nil && !patch.Date.IsZero() {
		e.Date = patch.Date.Time
	}
	if patch.Particulars != nil && strings.TrimSpace(*patch.Particulars) != "" {
		if IsInitialBalance(*patch.Particulars) && !IsInitialBalance(e.Particulars) {
			return errReservedParticulars()
		}
		e.Particulars = *patch.Particulars
	}
	if patch.DebitAmount != nil {
		e.DebitAmount = patch.DebitAmount.Float()
	}
	if patch.CreditAmount != nil {
		e.CreditAmount = patch.CreditAmount.Float()
	}
	if patch.Reference != nil {
		e.Reference = *patch.Reference
	}
	if patch.Quantity != nil {
		e.Quantity = shared.FloatPtr(patch.Quantity)
	}
	if patch.UnitPrice != nil {
		e.UnitPrice = shared.FloatPtr(patch.UnitPrice)
	}
	e.UpdatedAt = now
	Recalculate(c)
	return nil
}

// DeleteEntry removes the entry with id. Its id is never reused.
func DeleteEntry(c *Customer, id string) error {
	idx := entryIndex(c, id)
	if idx < 0 {
		return shared.NotFound("Ledger entry")
	}
	c.Ledger = append(c.Ledger[:idx], c.Ledger[idx+1:]...)
	Recalculate(c)
	return nil
}

// SetInitialBalance makes sure exactly one opening entry exists, first in
// the ledger, carrying |amount| on the side given by dir. Further entries
// named like the opening one are folded into it; other entries are left
// untouched. A newly inserted entry is dated at the customer's creation.
func SetInitialBalance(c *Customer, amount float64, dir Direction, now time.Time) {
	amount = math.Abs(amount)
	debit, credit := amount, 0.0
	if dir == Credit {
		debit, credit = 0, amount
	}

	idx := -1
	kept := c.Ledger[:0]
	for _, e := range c.Ledger {
		if IsInitialBalance(e.Particulars) {
			if idx >= 0 {
				continue
			}
			idx = len(kept)
		}
		kept = append(kept, e)
	}
	c.Ledger = kept

	if idx < 0 {
		date := c.CreatedAt
		if date.IsZero() {
			date = now
		}
		opening := LedgerEntry{
			ID:           uuid.NewString(),
			Date:         date,
			Particulars:  InitialBalance,
			DebitAmount:  debit,
			CreditAmount: credit,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		c.Ledger = append([]LedgerEntry{opening}, c.Ledger...)
	} else {
		opening := c.Ledger[idx]
		if idx > 0 {
			copy(c.Ledger[1:idx+1], c.Ledger[:idx])
			c.Ledger[0] = opening
		}
		c.Ledger[0].Particulars = InitialBalance
		c.Ledger[0].DebitAmount = debit
		c.Ledger[0].CreditAmount = credit
		c.Ledger[0].UpdatedAt = now
	}
	Recalculate(c)
}

func errReservedParticulars() error {
	return shared.NewValidationError("particulars", "\""+InitialBalance+"\" is reserved for the opening balance")
}

// ComputeStats sums absolute balances, split by direction.
func ComputeStats(list []Customer) Stats {
	total, credit, debit := decimal.Zero, decimal.Zero, decimal.Zero
	for _, c := range list {
		abs := decimal.NewFromFloat(c.TotalBalance).Abs()
		total = total.Add(abs)
		switch c.DebitCredit {
		case Credit:
			credit = credit.Add(abs)
		case Debit:
			debit = debit.Add(abs)
		}
	}
	return Stats{
		TotalBalance:   total.InexactFloat64(),
		TotalCustomers: len(list),
		TotalCredit:    credit.InexactFloat64(),
		TotalDebit:     debit.InexactFloat64(),
	}
}

func entryIndex(c *Customer, id string) int {
	for i, e := range c.Ledger {
		if e.ID == id {
			return i
		}
	}
	return -1
}
