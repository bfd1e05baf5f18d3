package shared

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.NewFromFloat(0.5)
)

// LineItem is a quotation or invoice product row. Total is owned by the
// caller (quantity × unit price as entered) and never recomputed here.
type LineItem struct {
	ID             string  `json:"id"`
	Product        string  `json:"product"`
	Description    string  `json:"description"`
	BuyDescription string  `json:"buyDescription"`
	Quantity       float64 `json:"quantity" validate:"gte=0"`
	UnitPrice      float64 `json:"unitPrice" validate:"gte=0"`
	Total          float64 `json:"total" validate:"gte=0"`
	BuyPrice       float64 `json:"buyPrice" validate:"gte=0"`
	SellPrice      float64 `json:"sellPrice" validate:"gte=0"`
}

// TaxConfig holds the two independently toggleable percentage taxes.
type TaxConfig struct {
	SalesTaxEnabled bool    `json:"salesTaxEnabled"`
	SalesTaxRate    float64 `json:"salesTaxRate" validate:"gte=0"`
	FBRTaxEnabled   bool    `json:"fbrTaxEnabled"`
	FBRTaxRate      float64 `json:"fbrTaxRate" validate:"gte=0"`
}

// Totals are the derived document amounts.
type Totals struct {
	SubTotal       float64 `json:"subTotal"`
	Buyback        float64 `json:"-"`
	SalesTaxAmount float64 `json:"salesTaxAmount"`
	FBRTaxAmount   float64 `json:"fbrTaxAmount"`
	TotalAmount    float64 `json:"totalAmount"`
}

// QuotationTotals applies buyback then withholding-style taxes, rounded to
// whole units, subtracted from the amount after buyback and floored at zero.
// When trustSupplied is set, a nonzero supplied total is kept as is.
func QuotationTotals(lines []LineItem, tax TaxConfig, supplied float64, trustSupplied bool) Totals {
	sub := subTotal(lines)
	buyback := decimal.Zero
	for _, l := range lines {
		buyback = buyback.Add(decimal.NewFromFloat(l.BuyPrice))
	}
	afterBuyback := sub.Sub(buyback)

	salesTax := decimal.Zero
	if rate := effectiveRate(tax.SalesTaxEnabled, tax.SalesTaxRate); rate.IsPositive() {
		salesTax = roundHalfUp(afterBuyback.Mul(rate).Div(hundred))
	}
	fbrTax := decimal.Zero
	if rate := effectiveRate(tax.FBRTaxEnabled, tax.FBRTaxRate); rate.IsPositive() {
		fbrTax = roundHalfUp(afterBuyback.Mul(rate).Div(hundred))
	}

	total := decimal.Max(decimal.Zero, afterBuyback.Sub(salesTax).Sub(fbrTax))
	if trustSupplied && supplied != 0 {
		total = decimal.NewFromFloat(supplied)
	}

	return Totals{
		SubTotal:       sub.InexactFloat64(),
		Buyback:        buyback.InexactFloat64(),
		SalesTaxAmount: salesTax.InexactFloat64(),
		FBRTaxAmount:   fbrTax.InexactFloat64(),
		TotalAmount:    total.InexactFloat64(),
	}
}

// InvoiceTotals adds unrounded taxes on the subtotal. Always recomputed.
func InvoiceTotals(lines []LineItem, tax TaxConfig) Totals {
	sub := subTotal(lines)

	salesTax := decimal.Zero
	if rate := effectiveRate(tax.SalesTaxEnabled, tax.SalesTaxRate); rate.IsPositive() {
		salesTax = sub.Mul(rate).Div(hundred)
	}
	fbrTax := decimal.Zero
	if rate := effectiveRate(tax.FBRTaxEnabled, tax.FBRTaxRate); rate.IsPositive() {
		fbrTax = sub.Mul(rate).Div(hundred)
	}

	return Totals{
		SubTotal:       sub.InexactFloat64(),
		SalesTaxAmount: salesTax.InexactFloat64(),
		FBRTaxAmount:   fbrTax.InexactFloat64(),
		TotalAmount:    sub.Add(salesTax).Add(fbrTax).InexactFloat64(),
	}
}

// NonBlank drops rows whose product name is blank.
func NonBlank(lines []LineItem) []LineItem {
	out := make([]LineItem, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l.Product) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// AssignLineIDs gives every row without an id a fresh one.
func AssignLineIDs(lines []LineItem) []LineItem {
	for i := range lines {
		if lines[i].ID == "" {
			lines[i].ID = uuid.NewString()
		}
	}
	return lines
}

func subTotal(lines []LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(l.Total))
	}
	return sum
}

func effectiveRate(enabled bool, rate float64) decimal.Decimal {
	if !enabled {
		return decimal.Zero
	}
	return decimal.NewFromFloat(rate)
}

// roundHalfUp matches the rounding the frontend uses: halves go towards +∞.
func roundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}
