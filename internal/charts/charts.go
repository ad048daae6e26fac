// Package charts prepares the series the browser plots: totals by category and the
// trailing six months of totals, for either expenses or income.
package charts

import (
	"fmt"
	"time"

	"github.com/ashmitsharp/trackmoney-api/internal/models"
	"github.com/shopspring/decimal"
)

// MonthsShown is how many calendar months MonthlySeries covers, the current one included
const MonthsShown = 6

// Point is a single labelled value of a series
type Point struct {
	Key   string          `json:"key"`
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// Dataset is everything a chart panel needs for one transaction type
type Dataset struct {
	Type       models.TransactionType `json:"type"`
	Title      string                 `json:"title"`
	HasData    bool                   `json:"hasData"`
	Categories []Point                `json:"categories"`
	Monthly    []Point                `json:"monthly"`
}

// Prepare builds both series for transactions of type typ
func Prepare(txs []models.Transaction, typ models.TransactionType, now time.Time) Dataset {
	title := "Monthly Expenses"
	if typ == models.TransactionTypeIncome {
		title = "Monthly Income"
	}

	hasData := false
	for _, tx := range txs {
		if tx.Type == typ {
			hasData = true
			break
		}
	}

	return Dataset{
		Type:       typ,
		Title:      title,
		HasData:    hasData,
		Categories: CategorySeries(txs, typ),
		Monthly:    MonthlySeries(txs, typ, now),
	}
}

// CategorySeries totals transactions of type typ per category. The active category set
// for typ comes first in its own order, categories outside it follow in order of first
// appearance, and categories that sum to zero are dropped.
func CategorySeries(txs []models.Transaction, typ models.TransactionType) []Point {
	order := models.CategoriesFor(typ)
	totals := make(map[string]decimal.Decimal, len(order))
	for _, c := range order {
		totals[c] = decimal.Zero
	}

	for _, tx := range txs {
		if tx.Type != typ {
			continue
		}
		category := tx.Category
		if category == "" {
			category = models.CategoryOther
		}
		if _, seen := totals[category]; !seen {
			order = append(order, category)
		}
		totals[category] = totals[category].Add(tx.Amount)
	}

	points := []Point{}
	for _, c := range order {
		if total := totals[c]; total.IsPositive() {
			points = append(points, Point{Key: c, Label: c, Value: total})
		}
	}
	return points
}

// MonthlySeries totals transactions of type typ for each of the last MonthsShown calendar
// months, oldest first. Keys look like "3/2024" and labels like "Mar 2024".
func MonthlySeries(txs []models.Transaction, typ models.TransactionType, now time.Time) []Point {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	points := make([]Point, MonthsShown)
	index := make(map[string]int, MonthsShown)
	for i := 0; i < MonthsShown; i++ {
		month := start.AddDate(0, i-(MonthsShown-1), 0)
		key := monthKey(month)
		index[key] = i
		points[i] = Point{Key: key, Label: month.Format("Jan 2006"), Value: decimal.Zero}
	}

	for _, tx := range txs {
		if tx.Type != typ {
			continue
		}
		ts, ok := tx.Timestamp()
		if !ok {
			continue
		}
		if i, ok := index[monthKey(ts)]; ok {
			points[i].Value = points[i].Value.Add(tx.Amount)
		}
	}
	return points
}

func monthKey(t time.Time) string {
	return fmt.Sprintf("%d/%d", int(t.Month()), t.Year())
}
