package ledger

import (
	"sort"

	"github.com/ashmitsharp/trackmoney-api/internal/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CategoryShare is one row of the spending-by-category list
type CategoryShare struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Percent  decimal.Decimal `json:"percent"`  // Of total expenses, one decimal place
	BarWidth float64         `json:"barWidth"` // 0-100, relative to total expenses
}

// Breakdown lists the populated expense categories with their share of total expenses.
// Empty categories are left out, and so is everything when there are no expenses.
func Breakdown(b Balances) []CategoryShare {
	shares := []CategoryShare{}
	if !b.TotalExpenses.IsPositive() {
		return shares
	}

	for _, category := range orderedCategories(b.CategoryTotals) {
		amount := b.CategoryTotals[category]
		if !amount.IsPositive() {
			continue
		}
		ratio := amount.Div(b.TotalExpenses).Mul(hundred)
		width, _ := ratio.Float64()
		shares = append(shares, CategoryShare{
			Category: category,
			Amount:   amount,
			Percent:  ratio.Round(1),
			BarWidth: width,
		})
	}
	return shares
}

// orderedCategories follows the expense category list, then any stray keys alphabetically
func orderedCategories(totals map[string]decimal.Decimal) []string {
	ordered := make([]string, 0, len(totals))
	known := make(map[string]bool)
	for _, c := range models.ExpenseCategories() {
		known[c] = true
		if _, ok := totals[c]; ok {
			ordered = append(ordered, c)
		}
	}

	var extra []string
	for c := range totals {
		if !known[c] {
			extra = append(extra, c)
		}
	}
	sort.Strings(extra)
	return append(ordered, extra...)
}
