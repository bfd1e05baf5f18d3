package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotationTotalsSubtractsTaxesAfterBuyback(t *testing.T) {
	lines := []LineItem{
		{Product: "Ultrasound", Total: 600, BuyPrice: 200},
		{Product: "Probe", Total: 400},
	}
	tax := TaxConfig{SalesTaxEnabled: true, SalesTaxRate: 10, FBRTaxEnabled: true, FBRTaxRate: 5}

	got := QuotationTotals(lines, tax, 0, false)
	require.InDelta(t, 1000, got.SubTotal, 0.0001)
	require.InDelta(t, 200, got.Buyback, 0.0001)
	require.InDelta(t, 80, got.SalesTaxAmount, 0.0001)
	require.InDelta(t, 40, got.FBRTaxAmount, 0.0001)
	require.InDelta(t, 680, got.TotalAmount, 0.0001)
}

func TestQuotationTotalsSuppliedTotal(t *testing.T) {
	lines := []LineItem{{Product: "X", Total: 1000, BuyPrice: 200}}
	tax := TaxConfig{SalesTaxEnabled: true, SalesTaxRate: 10, FBRTaxEnabled: true, FBRTaxRate: 5}

	assert.InDelta(t, 680, QuotationTotals(lines, tax, 700, false).TotalAmount, 0.0001)
	assert.InDelta(t, 700, QuotationTotals(lines, tax, 700, true).TotalAmount, 0.0001)
	assert.InDelta(t, 680, QuotationTotals(lines, tax, 0, true).TotalAmount, 0.0001)
}

func TestQuotationTotalsRounding(t *testing.T) {
	lines := []LineItem{{Product: "X", Total: 105}}
	tax := TaxConfig{SalesTaxEnabled: true, SalesTaxRate: 10}

	got := QuotationTotals(lines, tax, 0, false)
	// 10.5 rounds up
	require.InDelta(t, 11, got.SalesTaxAmount, 0.0001)
	require.InDelta(t, 94, got.TotalAmount, 0.0001)
}

func TestQuotationTotalsDisabledTaxAndFloor(t *testing.T) {
	lines := []LineItem{{Product: "X", Total: 100, BuyPrice: 250}}
	tax := TaxConfig{SalesTaxEnabled: false, SalesTaxRate: 10, FBRTaxEnabled: true, FBRTaxRate: 0}

	got := QuotationTotals(lines, tax, 0, false)
	require.Zero(t, got.SalesTaxAmount)
	require.Zero(t, got.FBRTaxAmount)
	require.Zero(t, got.TotalAmount)
}

func TestQuotationTotalsEmpty(t *testing.T) {
	got := QuotationTotals(nil, TaxConfig{}, 0, false)
	require.Equal(t, Totals{}, got)
}

func TestInvoiceTotalsAddsUnroundedTaxes(t *testing.T) {
	lines := []LineItem{{Product: "A", Total: 250}, {Product: "B", Total: 750, BuyPrice: 500}}
	tax := TaxConfig{SalesTaxEnabled: true, SalesTaxRate: 10, FBRTaxEnabled: true, FBRTaxRate: 5}

	got := InvoiceTotals(lines, tax)
	require.InDelta(t, 1000, got.SubTotal, 0.0001)
	require.InDelta(t, 100, got.SalesTaxAmount, 0.0001)
	require.InDelta(t, 50, got.FBRTaxAmount, 0.0001)
	require.InDelta(t, 1150, got.TotalAmount, 0.0001)

	odd := InvoiceTotals([]LineItem{{Product: "A", Total: 105}}, TaxConfig{SalesTaxEnabled: true, SalesTaxRate: 10})
	require.InDelta(t, 10.5, odd.SalesTaxAmount, 0.0001)
	require.InDelta(t, 115.5, odd.TotalAmount, 0.0001)
}

func TestNonBlank(t *testing.T) {
	lines := []LineItem{{Product: "A"}, {Product: "  "}, {Product: ""}, {Product: "B"}}
	got := NonBlank(lines)
	require.Len(t, got, 2)
	require.Equal(t, "A", got[0].Product)
	require.Equal(t, "B", got[1].Product)
}

func TestAssignLineIDsKeepsExisting(t *testing.T) {
	lines := AssignLineIDs([]LineItem{{ID: "keep"}, {}})
	require.Equal(t, "keep", lines[0].ID)
	require.NotEmpty(t, lines[1].ID)
}
