package ledger

import (
	"github.com/ashmitsharp/trackmoney-api/internal/models"
	"github.com/shopspring/decimal"
)

// Balances is everything Derive computes from a State
type Balances struct {
	General        decimal.Decimal            `json:"generalBalance"`
	Debt           decimal.Decimal            `json:"debtBalance"`
	Savings        decimal.Decimal            `json:"savingsBalance"`
	TotalIncome    decimal.Decimal            `json:"totalIncome"`
	TotalExpenses  decimal.Decimal            `json:"totalExpenses"`
	CategoryTotals map[string]decimal.Decimal `json:"categoryTotals"`
}

// Derive recomputes every balance from the log and the overrides.
func Derive(s State) Balances {
	var (
		income, expenses decimal.Decimal
		debt, savings    decimal.Decimal
		totals           = make(map[string]decimal.Decimal)
	)

	for _, tx := range s.Transactions {
		switch tx.Type {
		case models.TransactionTypeIncome:
			income = income.Add(tx.Amount)
		case models.TransactionTypeExpense:
			expenses = expenses.Add(tx.Amount)

			bucket := expenseBucket(tx.Category)
			totals[bucket] = totals[bucket].Add(tx.Amount)

			if models.IsDebtCategory(tx.Category) {
				debt = debt.Add(tx.Amount)
			}
			if models.IsSavingsCategory(tx.Category) {
				savings = savings.Add(tx.Amount)
			}
		}
	}

	return Balances{
		General:        income.Sub(expenses),
		Debt:           clampDebt(resolve(s.Debt, debt)),
		Savings:        resolve(s.Savings, savings),
		TotalIncome:    income,
		TotalExpenses:  expenses,
		CategoryTotals: totals,
	}
}

// resolve picks the pinned baseline over the calculated figure
func resolve(o Override, calculated decimal.Decimal) decimal.Decimal {
	if baseline, ok := o.Baseline(); ok {
		return baseline
	}
	return calculated
}

// clampDebt is the one place a debt figure is kept non-negative.
func clampDebt(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func expenseBucket(category string) string {
	if category == "" || !models.IsExpenseCategory(category) {
		return models.CategoryOther
	}
	return category
}
