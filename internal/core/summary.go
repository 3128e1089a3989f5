package core

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Italian month names used for display labels only; grouping always keys
// on the structural (year, month) pair.
var monthNamesIT = [...]string{
	"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno",
	"luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre",
}

type (
	// Totals is the headline summary of a transaction set.
	Totals struct {
		Income  decimal.Decimal `json:"totalIncome"`
		Expense decimal.Decimal `json:"totalExpense"`
		Balance decimal.Decimal `json:"balance"`
	}

	// MonthlyPoint is one calendar-month bucket of the trend series.
	// JSON field names match the original dashboard wire shape.
	MonthlyPoint struct {
		Year    int             `json:"year"`
		Month   int             `json:"month"`
		Label   string          `json:"mese"`
		Income  decimal.Decimal `json:"entrate"`
		Expense decimal.Decimal `json:"uscite"`
	}

	// CategoryShare is one category's slice of a type's total.
	CategoryShare struct {
		Category   string          `json:"category"`
		Amount     decimal.Decimal `json:"amount"`
		Percentage decimal.Decimal `json:"percentage"`
	}

	// Breakdown holds the two independent per-type category breakdowns.
	Breakdown struct {
		Income  []CategoryShare `json:"entrate"`
		Expense []CategoryShare `json:"uscite"`
	}
)

// CalculateTotals sums income and expense magnitudes exactly.
// An empty input yields all-zero totals, and Balance is always exactly
// Income minus Expense.
func CalculateTotals(txs []Transaction) Totals {
	totals := Totals{
		Income:  decimal.Zero,
		Expense: decimal.Zero,
	}
	for _, t := range txs {
		switch t.Type {
		case Income:
			totals.Income = totals.Income.Add(t.Amount)
		case Expense:
			totals.Expense = totals.Expense.Add(t.Amount)
		}
	}
	totals.Balance = totals.Income.Sub(totals.Expense)
	return totals
}

// monthKey is the structural grouping key for the trend. Formatted labels
// never participate in equality.
type monthKey struct {
	year  int
	month int
}

// MonthlyTrend buckets transactions by calendar month and accumulates
// income and expense per bucket. Output is sorted chronologically.
func MonthlyTrend(txs []Transaction) []MonthlyPoint {
	buckets := make(map[monthKey]*MonthlyPoint)
	for _, t := range txs {
		key := monthKey{year: t.Date.Year(), month: t.Date.Month()}
		p, ok := buckets[key]
		if !ok {
			p = &MonthlyPoint{
				Year:    key.year,
				Month:   key.month,
				Label:   MonthLabel(key.year, key.month),
				Income:  decimal.Zero,
				Expense: decimal.Zero,
			}
			buckets[key] = p
		}
		switch t.Type {
		case Income:
			p.Income = p.Income.Add(t.Amount)
		case Expense:
			p.Expense = p.Expense.Add(t.Amount)
		}
	}

	out := make([]MonthlyPoint, 0, len(buckets))
	for _, p := range buckets {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// MonthLabel renders the Italian display label for a month bucket,
// e.g. "gennaio 2024".
func MonthLabel(year, month int) string {
	if month < 1 || month > 12 {
		return fmt.Sprintf("%d-%02d", year, month)
	}
	return fmt.Sprintf("%s %d", monthNamesIT[month-1], year)
}

// CategoryBreakdown splits the set by type and groups each side by
// category. Percentages are of the type's own total, rounded to one
// decimal place; a zero type total yields zero percentages rather than
// division artifacts. Categories are sorted by amount descending, ties
// keeping first-encountered order.
func CategoryBreakdown(txs []Transaction) Breakdown {
	return Breakdown{
		Income:  breakdownByCategory(txs, Income),
		Expense: breakdownByCategory(txs, Expense),
	}
}

func breakdownByCategory(txs []Transaction, typ Type) []CategoryShare {
	sums := make(map[string]decimal.Decimal)
	var order []string
	total := decimal.Zero

	for _, t := range txs {
		if t.Type != typ {
			continue
		}
		if _, seen := sums[t.Category]; !seen {
			order = append(order, t.Category)
		}
		sums[t.Category] = sums[t.Category].Add(t.Amount)
		total = total.Add(t.Amount)
	}

	shares := make([]CategoryShare, 0, len(order))
	for _, cat := range order {
		amount := sums[cat]
		pct := decimal.Zero
		if total.IsPositive() {
			pct = amount.Mul(decimal.NewFromInt(100)).Div(total).Round(1)
		}
		shares = append(shares, CategoryShare{
			Category:   cat,
			Amount:     amount,
			Percentage: pct,
		})
	}

	// Stable sort keeps first-encountered order for equal amounts.
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Amount.GreaterThan(shares[j].Amount)
	})
	return shares
}
