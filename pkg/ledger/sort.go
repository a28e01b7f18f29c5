package ledger

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/ArionMiles/spendlog/pkg/api"
)

// SortKey selects the ordering applied by Sort.
type SortKey string

const (
	// SortAmountAsc orders by amount, smallest first.
	SortAmountAsc SortKey = "amount-asc"
	// SortAmountDesc orders by amount, largest first.
	SortAmountDesc SortKey = "amount-desc"
	// SortCategory orders by category name, case-sensitive.
	SortCategory SortKey = "category"
	// SortNewest orders by timestamp, most recent first.
	SortNewest SortKey = "newest"
	// SortOldest orders by timestamp, earliest first.
	SortOldest SortKey = "oldest"
)

// SortKeys lists the keys in menu order.
var SortKeys = []SortKey{SortAmountAsc, SortAmountDesc, SortCategory, SortNewest, SortOldest}

// Label returns a human readable description of the key.
func (k SortKey) Label() string {
	switch k {
	case SortAmountAsc:
		return "Amount (low to high)"
	case SortAmountDesc:
		return "Amount (high to low)"
	case SortCategory:
		return "Category (A-Z)"
	case SortNewest:
		return "Date (newest first)"
	case SortOldest:
		return "Date (oldest first)"
	default:
		return string(k)
	}
}

// ParseSortKey accepts a key name or its 1-based menu number.
func ParseSortKey(input string) (SortKey, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	for i, k := range SortKeys {
		if input == string(k) || input == fmt.Sprint(i+1) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSortKey, input)
}

// Sort reorders the collection in place and saves the new order.
// Equal keys keep their relative order. An unknown key leaves the collection
// untouched and returns ErrInvalidSortKey.
func (l *Ledger) Sort(key SortKey) error {
	cmpFn, ok := comparators[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidSortKey, key)
	}

	slices.SortStableFunc(l.expenses, cmpFn)
	l.logger.Debug("expenses sorted", "key", key)
	return l.save()
}

var comparators = map[SortKey]func(a, b api.Expense) int{
	SortAmountAsc: func(a, b api.Expense) int {
		return compareAmounts(a.Amount, b.Amount)
	},
	SortAmountDesc: func(a, b api.Expense) int {
		return compareAmounts(b.Amount, a.Amount)
	},
	SortCategory: func(a, b api.Expense) int {
		return strings.Compare(a.Category, b.Category)
	},
	SortNewest: func(a, b api.Expense) int {
		return b.Timestamp.Compare(a.Timestamp)
	},
	SortOldest: func(a, b api.Expense) int {
		return a.Timestamp.Compare(b.Timestamp)
	},
}

// compareAmounts orders amounts as reals. NaN has no place in that order and
// can only get here if validation was bypassed.
func compareAmounts(a, b float64) int {
	if math.IsNaN(a) || math.IsNaN(b) {
		panic(fmt.Sprintf("ledger: NaN amount in comparison (%v, %v)", a, b))
	}
	return cmp.Compare(a, b)
}
