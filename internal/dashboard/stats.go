package dashboard

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/duamedical/medserve/internal/accounting"
	"github.com/duamedical/medserve/internal/inventory"
	"github.com/duamedical/medserve/internal/sales/invoices"
)

var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Chart colours for the profit/loss breakdown.
const (
	colorProfit   = "#10b981"
	colorLoss     = "#ef4444"
	colorExpenses = "#f59e0b"
)

// Summary holds the headline counters.
type Summary struct {
	TotalExpenses   float64 `json:"totalExpenses"`
	TotalStockCount int     `json:"totalStockCount"`
	Probes          int     `json:"probs"`
	Machines        int     `json:"machine"`
	Parts           int     `json:"parts"`
	SaleRevenue     float64 `json:"saleRevenue"`
	SoldItems       int     `json:"soldItems"`
}

// MonthRevenue is one bar of the revenue chart.
type MonthRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

// Slice is one segment of the profit/loss chart, valued as a percentage of income.
type Slice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Stats is the dashboard payload.
type Stats struct {
	Year            int            `json:"year"`
	Summary         Summary        `json:"dashboardStats"`
	SaleRevenueData []MonthRevenue `json:"saleRevenueData"`
	ProfitLoss      []Slice        `json:"profitLossChartData"`
}

// Build derives the dashboard from the raw records. Revenue per month only
// counts invoices dated in year; the headline totals cover everything.
func Build(year int, invs []invoices.Invoice, items []inventory.Item, entries []accounting.Entry) Stats {
	out := Stats{Year: year}

	income, expenses := decimal.Zero, decimal.Zero
	for _, e := range entries {
		switch e.Category {
		case accounting.CategoryIncome:
			income = income.Add(decimal.NewFromFloat(e.Credit))
		case accounting.CategoryExpense:
			expenses = expenses.Add(decimal.NewFromFloat(e.Debit))
		}
	}
	out.Summary.TotalExpenses = money(expenses)

	out.Summary.TotalStockCount = len(items)
	for _, it := range items {
		switch it.Category() {
		case inventory.CategoryProbes:
			out.Summary.Probes++
		case inventory.CategoryMachines:
			out.Summary.Machines++
		case inventory.CategoryParts:
			out.Summary.Parts++
		}
		if it.Sold() {
			out.Summary.SoldItems++
		}
	}

	var months [12]decimal.Decimal
	revenue := decimal.Zero
	for _, inv := range invs {
		amount := decimal.NewFromFloat(inv.TotalAmount)
		revenue = revenue.Add(amount)
		d := inv.Date.UTC()
		if d.Year() == year {
			months[d.Month()-1] = months[d.Month()-1].Add(amount)
		}
	}
	out.Summary.SaleRevenue = money(revenue)
	out.SaleRevenueData = make([]MonthRevenue, 0, len(monthNames))
	for i, name := range monthNames {
		out.SaleRevenueData = append(out.SaleRevenueData, MonthRevenue{Month: name, Revenue: money(months[i])})
	}

	out.ProfitLoss = profitLoss(income, expenses)
	return out
}

// profitLoss expresses profit, loss and expenses as percentages of income.
// Profit and loss are mutually exclusive; all values are 0 without income.
func profitLoss(income, expenses decimal.Decimal) []Slice {
	var profitPct, lossPct, expensePct decimal.Decimal
	if income.IsPositive() {
		hundred := decimal.NewFromInt(100)
		net := income.Sub(expenses)
		if net.IsPositive() {
			profitPct = net.Div(income).Mul(hundred)
		} else {
			lossPct = net.Neg().Div(income).Mul(hundred)
		}
		expensePct = expenses.Div(income).Mul(hundred)
	}
	return []Slice{
		{Name: "Profit", Value: money(profitPct), Color: colorProfit},
		{Name: "Loss", Value: money(lossPct), Color: colorLoss},
		{Name: "Expenses", Value: money(expensePct), Color: colorExpenses},
	}
}

func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

func currentYear(now func() time.Time) int {
	return now().UTC().Year()
}
