package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakdown_Percentages(t *testing.T) {
	b := Derive(stateOf(
		expense("50", "Groceries"),
		expense("25", "Bills/Utilities"),
		expense("25", "Groceries"),
		expense("50", "Credit Card Payment"),
		income("1000", "Salary"),
	))

	shares := Breakdown(b)

	require.Len(t, shares, 3)
	// Ordered by the expense category list, not by amount.
	assert.Equal(t, "Bills/Utilities", shares[0].Category)
	assert.Equal(t, "16.7", shares[0].Percent.StringFixed(1))
	assert.Equal(t, "Groceries", shares[1].Category)
	assert.Equal(t, "75.00", shares[1].Amount.StringFixed(2))
	assert.Equal(t, "50.0", shares[1].Percent.StringFixed(1))
	assert.InDelta(t, 50.0, shares[1].BarWidth, 0.0001)
	assert.Equal(t, "Credit Card Payment", shares[2].Category)
	assert.Equal(t, "33.3", shares[2].Percent.StringFixed(1))
}

func TestBreakdown_OmitsEmptyCategories(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  []string
	}{
		{
			name:  "empty log",
			state: NewState(),
			want:  []string{},
		},
		{
			name:  "income only means no expense rows",
			state: stateOf(income("10", "Salary"), income("5", "Gifts")),
			want:  []string{},
		},
		{
			name:  "single category",
			state: stateOf(expense("9.99", "Subscriptions"), income("100", "Salary")),
			want:  []string{"Subscriptions"},
		},
		{
			name:  "unknown categories fold into other",
			state: stateOf(expense("1", "Dining"), expense("1", "Misc")),
			want:  []string{"Misc", "Other"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares := Breakdown(Derive(tt.state))

			got := []string{}
			for _, s := range shares {
				got = append(got, s.Category)
				assert.True(t, s.Amount.IsPositive())
				assert.False(t, s.Percent.IsNegative())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBreakdown_SingleCategoryIsWholePie(t *testing.T) {
	shares := Breakdown(Derive(stateOf(expense("42", "Misc"))))

	require.Len(t, shares, 1)
	assert.Equal(t, "100.0", shares[0].Percent.StringFixed(1))
	assert.InDelta(t, 100.0, shares[0].BarWidth, 0.0001)
}
