package ledger

import (
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Summary aggregates the expenses of one calendar month.
type Summary struct {
	Year  int
	Month time.Month
	// Totals maps category to the sum of its amounts.
	Totals map[string]float64
	Total  float64
	Count  int
}

// Categories returns the summarized categories sorted by name.
func (s Summary) Categories() []string {
	out := make([]string, 0, len(s.Totals))
	for c := range s.Totals {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// MonthlySummary totals the expenses recorded in the same UTC calendar month
// and year as ref. ErrNoExpensesThisMonth is returned when none match.
func (l *Ledger) MonthlySummary(ref time.Time) (Summary, error) {
	ref = ref.UTC()
	year, month := ref.Year(), ref.Month()

	sums := make(map[string]decimal.Decimal)
	total := decimal.Zero
	count := 0
	for _, e := range l.expenses {
		ts := e.Timestamp.UTC()
		if ts.Year() != year || ts.Month() != month {
			continue
		}
		amount := decimal.NewFromFloat(e.Amount)
		sums[e.Category] = sums[e.Category].Add(amount)
		total = total.Add(amount)
		count++
	}

	if count == 0 {
		return Summary{}, ErrNoExpensesThisMonth
	}

	totals := make(map[string]float64, len(sums))
	for c, sum := range sums {
		totals[c] = sum.InexactFloat64()
	}

	return Summary{
		Year:   year,
		Month:  month,
		Totals: totals,
		Total:  total.InexactFloat64(),
		Count:  count,
	}, nil
}

// ExportHeader is the first row produced by ExportRecords.
var ExportHeader = []string{"Category", "Amount", "Timestamp"}

// FormatAmount renders an amount the way it is shown on screen and exported.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

// FormatTimestamp renders a timestamp as RFC 3339 in UTC, or "" when unset.
func FormatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

// ExportRecords returns the header followed by one row per expense in the
// current order.
func (l *Ledger) ExportRecords() [][]string {
	rows := make([][]string, 0, len(l.expenses)+1)
	rows = append(rows, slices.Clone(ExportHeader))
	for _, e := range l.expenses {
		rows = append(rows, []string{
			e.Category,
			FormatAmount(e.Amount),
			FormatTimestamp(e.Timestamp),
		})
	}
	return rows
}
