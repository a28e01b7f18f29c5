// Package ledger holds the in-memory expense collection and the queries run over it.
//
// A Ledger is owned by a single goroutine. Every mutating operation (Add, Sort,
// DeleteAt) writes the full collection back through its Persister before
// returning.
package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/spendlog/pkg/api"
)

var (
	// ErrInvalidAmount is returned for amounts that are not finite numbers.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidSortKey is returned by Sort and ParseSortKey for unknown keys.
	ErrInvalidSortKey = errors.New("invalid sort choice")
	// ErrIndexOutOfRange is returned by DeleteAt for positions outside 1..Len.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrNoExpenses is returned by Filter when nothing has been recorded.
	ErrNoExpenses = errors.New("no expenses recorded")
	// ErrNoExpensesThisMonth is returned by MonthlySummary for an empty month.
	ErrNoExpensesThisMonth = errors.New("no expenses this month")
)

// Options configures a Ledger.
type Options struct {
	Logger *slog.Logger
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Ledger is the expense store.
type Ledger struct {
	persister api.Persister
	expenses  []api.Expense
	budgets   map[string]float64
	now       func() time.Time
	logger    *slog.Logger
}

// BudgetNotice reports that spending in a category went over its limit.
type BudgetNotice struct {
	Category string
	Limit    float64
	Spent    float64
}

// AddResult is returned by Add.
type AddResult struct {
	Expense api.Expense
	// Budget is set when the add pushed its category over the limit.
	Budget *BudgetNotice
}

// New creates a Ledger and loads the existing collection from p.
func New(p api.Persister, opts Options) *Ledger {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	l := &Ledger{
		persister: p,
		expenses:  p.Load(),
		budgets:   make(map[string]float64),
		now:       opts.Now,
		logger:    opts.Logger,
	}
	if l.expenses == nil {
		l.expenses = []api.Expense{}
	}

	l.logger.Info("ledger loaded", "count", len(l.expenses))
	return l
}

// ParseAmount parses user input as a finite decimal number.
func ParseAmount(text string) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, text)
	}
	if !isFinite(amount) {
		return 0, fmt.Errorf("%w: %q is not finite", ErrInvalidAmount, text)
	}
	return amount, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Add records a new expense stamped with the current UTC time and saves the
// collection. If the save fails the expense stays in memory and the error is
// returned alongside the result.
func (l *Ledger) Add(amount float64, category string) (AddResult, error) {
	if !isFinite(amount) {
		return AddResult{}, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}

	e := api.Expense{
		Amount:    amount,
		Category:  category,
		Timestamp: l.now().UTC(),
	}
	l.expenses = append(l.expenses, e)
	l.logger.Debug("expense added", "amount", amount, "category", category)

	res := AddResult{Expense: e, Budget: l.checkBudget(category)}
	if res.Budget != nil {
		l.logger.Info("budget exceeded",
			"category", category,
			"limit", res.Budget.Limit,
			"spent", res.Budget.Spent,
		)
	}

	if err := l.save(); err != nil {
		return res, err
	}
	return res, nil
}

// checkBudget compares the category sum against its limit. The match is
// case-sensitive and the limit itself is still within budget.
func (l *Ledger) checkBudget(category string) *BudgetNotice {
	limit, ok := l.budgets[category]
	if !ok {
		return nil
	}

	spent := decimal.Zero
	for _, e := range l.expenses {
		if e.Category == category {
			spent = spent.Add(decimal.NewFromFloat(e.Amount))
		}
	}

	if !spent.GreaterThan(decimal.NewFromFloat(limit)) {
		return nil
	}
	return &BudgetNotice{
		Category: category,
		Limit:    limit,
		Spent:    spent.InexactFloat64(),
	}
}

// SetBudget sets the spending limit for category, replacing any previous one.
// Budgets live for the session only.
func (l *Ledger) SetBudget(category string, limit float64) error {
	if !isFinite(limit) {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, limit)
	}
	l.budgets[category] = limit
	l.logger.Debug("budget set", "category", category, "limit", limit)
	return nil
}

// Budget is a category spending limit.
type Budget struct {
	Category string
	Limit    float64
}

// Budgets returns the configured limits sorted by category.
func (l *Ledger) Budgets() []Budget {
	out := make([]Budget, 0, len(l.budgets))
	for c, limit := range l.budgets {
		out = append(out, Budget{Category: c, Limit: limit})
	}
	slices.SortFunc(out, func(a, b Budget) int {
		return strings.Compare(a.Category, b.Category)
	})
	return out
}

// Filter returns the expenses whose category matches, ignoring case.
// ErrNoExpenses is returned when nothing has been recorded at all.
func (l *Ledger) Filter(category string) ([]api.Expense, error) {
	if len(l.expenses) == 0 {
		return nil, ErrNoExpenses
	}

	out := []api.Expense{}
	for _, e := range l.expenses {
		if strings.EqualFold(e.Category, category) {
			out = append(out, e)
		}
	}
	return out, nil
}

// DeleteAt removes the expense at the 1-based position in the current order.
func (l *Ledger) DeleteAt(position int) (api.Expense, error) {
	if position < 1 || position > len(l.expenses) {
		return api.Expense{}, fmt.Errorf("%w: %d not in [1, %d]", ErrIndexOutOfRange, position, len(l.expenses))
	}

	i := position - 1
	removed := l.expenses[i]
	l.expenses = slices.Delete(l.expenses, i, i+1)
	l.logger.Debug("expense deleted", "position", position, "category", removed.Category)

	if err := l.save(); err != nil {
		return removed, err
	}
	return removed, nil
}

// List returns a copy of the collection in its current order.
func (l *Ledger) List() []api.Expense {
	return slices.Clone(l.expenses)
}

// Len returns the number of recorded expenses.
func (l *Ledger) Len() int {
	return len(l.expenses)
}

// Total returns the sum of all recorded amounts.
func (l *Ledger) Total() float64 {
	sum := decimal.Zero
	for _, e := range l.expenses {
		sum = sum.Add(decimal.NewFromFloat(e.Amount))
	}
	return sum.InexactFloat64()
}

// Save writes the collection through the persister.
func (l *Ledger) Save() error {
	return l.save()
}

func (l *Ledger) save() error {
	if err := l.persister.Save(l.expenses); err != nil {
		l.logger.Error("failed to save expenses", "error", err)
		return fmt.Errorf("saving expenses: %w", err)
	}
	return nil
}
