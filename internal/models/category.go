package models

// CategoryOther collects anything without a known category
const CategoryOther = "Other"

var (
	baseExpenseCategories = []string{"Bills/Utilities", "Groceries", "Subscriptions", "Misc", CategoryOther}
	debtCategories        = []string{"Debt Payment", "Loan Payment", "Credit Card Payment"}
	savingsCategories     = []string{"Savings", "Retirement", "Emergency Fund"}
	incomeCategories      = []string{"Salary", "Freelance", "Investments", "Gifts", CategoryOther}

	expenseCategories = dedupe(baseExpenseCategories, debtCategories, savingsCategories)

	expenseSet = toSet(expenseCategories)
	incomeSet  = toSet(incomeCategories)
	debtSet    = toSet(debtCategories)
	savingsSet = toSet(savingsCategories)
)

// ExpenseCategories returns every expense category, debt and savings ones included
func ExpenseCategories() []string { return clone(expenseCategories) }

// IncomeCategories returns every income category
func IncomeCategories() []string { return clone(incomeCategories) }

// DebtCategories returns the expense categories that pay down debt
func DebtCategories() []string { return clone(debtCategories) }

// SavingsCategories returns the expense categories that feed savings
func SavingsCategories() []string { return clone(savingsCategories) }

// CategoriesFor returns the active category set for a transaction type
func CategoriesFor(t TransactionType) []string {
	if t == TransactionTypeIncome {
		return IncomeCategories()
	}
	return ExpenseCategories()
}

func IsExpenseCategory(category string) bool { return expenseSet[category] }
func IsIncomeCategory(category string) bool  { return incomeSet[category] }
func IsDebtCategory(category string) bool    { return debtSet[category] }
func IsSavingsCategory(category string) bool { return savingsSet[category] }

// IsKnownCategory reports whether category belongs to the set for t
func IsKnownCategory(t TransactionType, category string) bool {
	if t == TransactionTypeIncome {
		return IsIncomeCategory(category)
	}
	return IsExpenseCategory(category)
}

func dedupe(groups ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, group := range groups {
		for _, c := range group {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func clone(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}
