package customers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duamedical/medserve/internal/shared"
)

var ledgerNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func assertBalanced(t *testing.T, c *Customer) {
	t.Helper()
	var sum float64
	for _, e := range c.Ledger {
		sum += e.DebitAmount - e.CreditAmount
	}
	assert.InDelta(t, sum, c.TotalBalance, 0.0001)
	if c.TotalBalance < 0 {
		assert.Equal(t, Credit, c.DebitCredit)
	} else {
		assert.Equal(t, Debit, c.DebitCredit)
	}
}

func TestRecalculateEmptyLedger(t *testing.T) {
	c := &Customer{TotalBalance: 99, DebitCredit: Credit}
	Recalculate(c)
	assert.Equal(t, 0.0, c.TotalBalance)
	assert.Equal(t, Debit, c.DebitCredit)
}

func TestLedgerMutationsKeepBalance(t *testing.T) {
	c := &Customer{}

	first := AddEntry(c, LedgerEntry{Particulars: "Sale", DebitAmount: 500}, ledgerNow)
	assertBalanced(t, c)
	assert.Equal(t, 500.0, first.TotalAmount)

	second := AddEntry(c, LedgerEntry{Particulars: "Payment", CreditAmount: 800}, ledgerNow)
	assertBalanced(t, c)
	assert.Equal(t, -300.0, second.TotalAmount)
	assert.Equal(t, Credit, c.DebitCredit)

	debit := 1000.0
	credit := 200.0
	require.NoError(t, UpdateEntry(c, first.ID, LedgerEntryPatch{DebitAmount: numberPtr(debit)}, ledgerNow))
	require.NoError(t, UpdateEntry(c, second.ID, LedgerEntryPatch{CreditAmount: numberPtr(credit)}, ledgerNow))
	assertBalanced(t, c)
	assert.Equal(t, 800.0, c.TotalBalance)

	require.NoError(t, DeleteEntry(c, first.ID))
	assertBalanced(t, c)
	assert.Equal(t, -200.0, c.TotalBalance)
}

func TestAddEntryAppendsAndDefaultsDate(t *testing.T) {
	c := &Customer{}
	AddEntry(c, LedgerEntry{Particulars: "A", DebitAmount: 1}, ledgerNow)
	AddEntry(c, LedgerEntry{Particulars: "B", DebitAmount: 2}, ledgerNow)

	require.Len(t, c.Ledger, 2)
	assert.Equal(t, "A", c.Ledger[0].Particulars)
	assert.Equal(t, "B", c.Ledger[1].Particulars)
	assert.Equal(t, ledgerNow, c.Ledger[1].Date)
}

func TestUnknownEntryIsNotFound(t *testing.T) {
	c := &Customer{}
	err := UpdateEntry(c, "missing", LedgerEntryPatch{}, ledgerNow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ledger entry not found")

	require.Error(t, DeleteEntry(c, "missing"))
}

func TestDeletedEntryIDIsNotResurrected(t *testing.T) {
	c := &Customer{}
	removed := AddEntry(c, LedgerEntry{Particulars: "Sale", DebitAmount: 100}, ledgerNow)
	require.NoError(t, DeleteEntry(c, removed.ID))

	added := AddEntry(c, LedgerEntry{Particulars: "Sale", DebitAmount: 40}, ledgerNow)
	assert.NotEqual(t, removed.ID, added.ID)
	assert.Equal(t, -1, entryIndex(c, removed.ID))
	assert.Equal(t, 40.0, c.TotalBalance)
	assertBalanced(t, c)
}

func TestSetInitialBalanceInsertsFirst(t *testing.T) {
	created := ledgerNow.Add(-48 * time.Hour)
	c := &Customer{CreatedAt: created}
	AddEntry(c, LedgerEntry{Particulars: "Sale", DebitAmount: 100}, ledgerNow)

	SetInitialBalance(c, 250, Credit, ledgerNow)

	require.Len(t, c.Ledger, 2)
	assert.Equal(t, InitialBalance, c.Ledger[0].Particulars)
	assert.Equal(t, created, c.Ledger[0].Date)
	assert.Equal(t, 250.0, c.Ledger[0].CreditAmount)
	assert.Equal(t, 0.0, c.Ledger[0].DebitAmount)
	assert.Equal(t, -150.0, c.TotalBalance)
	assertBalanced(t, c)
}

func TestSetInitialBalanceMovesExistingEntry(t *testing.T) {
	c := &Customer{}
	AddEntry(c, LedgerEntry{Particulars: "Sale", DebitAmount: 100}, ledgerNow)
	opening := AddEntry(c, LedgerEntry{Particulars: "  INITIAL balance ", DebitAmount: 5}, ledgerNow)
	AddEntry(c, LedgerEntry{Particulars: "Payment", CreditAmount: 30}, ledgerNow)

	SetInitialBalance(c, -400, Debit, ledgerNow)
	SetInitialBalance(c, 300, Debit, ledgerNow)

	require.Len(t, c.Ledger, 3)
	assert.Equal(t, opening.ID, c.Ledger[0].ID)
	assert.Equal(t, "Sale", c.Ledger[1].Particulars)
	assert.Equal(t, "Payment", c.Ledger[2].Particulars)

	var openings int
	for _, e := range c.Ledger {
		if IsInitialBalance(e.Particulars) {
			openings++
		}
	}
	assert.Equal(t, 1, openings)
	assert.Equal(t, 300.0, c.Ledger[0].DebitAmount)
	assert.Equal(t, 370.0, c.TotalBalance)
	assertBalanced(t, c)
}

func TestSetInitialBalanceFoldsDuplicateOpenings(t *testing.T) {
	c := &Customer{}
	SetInitialBalance(c, 100, Debit, ledgerNow)
	AddEntry(c, LedgerEntry{Particulars: "Sale", DebitAmount: 20}, ledgerNow)
	AddEntry(c, LedgerEntry{Particulars: "initial balance", DebitAmount: 50}, ledgerNow)

	SetInitialBalance(c, 300, Debit, ledgerNow)

	require.Len(t, c.Ledger, 2)
	assert.Equal(t, InitialBalance, c.Ledger[0].Particulars)
	assert.Equal(t, 300.0, c.Ledger[0].DebitAmount)
	assert.Equal(t, "Sale", c.Ledger[1].Particulars)
	assert.Equal(t, 320.0, c.TotalBalance)
	assertBalanced(t, c)
}

func TestUpdateEntryCannotRenameToOpening(t *testing.T) {
	c := &Customer{}
	SetInitialBalance(c, 100, Debit, ledgerNow)
	sale := AddEntry(c, LedgerEntry{Particulars: "Sale", DebitAmount: 20}, ledgerNow)

	reserved := " INITIAL BALANCE"
	err := UpdateEntry(c, sale.ID, LedgerEntryPatch{Particulars: &reserved}, ledgerNow)
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, "Sale", c.Ledger[1].Particulars)

	// The opening entry itself may keep its name.
	err = UpdateEntry(c, c.Ledger[0].ID, LedgerEntryPatch{Particulars: &reserved}, ledgerNow)
	require.NoError(t, err)
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats([]Customer{
		{TotalBalance: 100, DebitCredit: Debit},
		{TotalBalance: -40, DebitCredit: Credit},
		{TotalBalance: 0, DebitCredit: Debit},
	})
	assert.Equal(t, 3, stats.TotalCustomers)
	assert.Equal(t, 140.0, stats.TotalBalance)
	assert.Equal(t, 40.0, stats.TotalCredit)
	assert.Equal(t, 100.0, stats.TotalDebit)
}
