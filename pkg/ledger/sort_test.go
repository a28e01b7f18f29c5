package ledger

import (
	"errors"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/ArionMiles/spendlog/pkg/api"
)

func TestSort(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	initial := []api.Expense{
		{Amount: 20, Category: "Transport", Timestamp: base.Add(2 * time.Hour)},
		{Amount: 5, Category: "Food", Timestamp: base},
		{Amount: 12.5, Category: "Bills", Timestamp: base.Add(time.Hour)},
	}

	tests := []struct {
		key  SortKey
		want []string
	}{
		{key: SortAmountAsc, want: []string{"Food", "Bills", "Transport"}},
		{key: SortAmountDesc, want: []string{"Transport", "Bills", "Food"}},
		{key: SortCategory, want: []string{"Bills", "Food", "Transport"}},
		{key: SortNewest, want: []string{"Transport", "Bills", "Food"}},
		{key: SortOldest, want: []string{"Food", "Bills", "Transport"}},
	}

	for _, tc := range tests {
		t.Run(string(tc.key), func(t *testing.T) {
			l, p, _ := newTestLedger(t, initial...)
			if err := l.Sort(tc.key); err != nil {
				t.Fatalf("sort: %v", err)
			}
			if got := categories(l.List()); !slices.Equal(got, tc.want) {
				t.Errorf("order: got %v, want %v", got, tc.want)
			}
			if got := categories(p.saved); !slices.Equal(got, tc.want) {
				t.Errorf("persisted order: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSortAscendingThenDescendingIsReverse(t *testing.T) {
	l, _, _ := newTestLedger(t,
		api.Expense{Amount: 3, Category: "c"},
		api.Expense{Amount: -1, Category: "a"},
		api.Expense{Amount: 7.25, Category: "d"},
		api.Expense{Amount: 2, Category: "b"},
	)

	if err := l.Sort(SortAmountAsc); err != nil {
		t.Fatalf("sort asc: %v", err)
	}
	asc := l.List()

	if err := l.Sort(SortAmountDesc); err != nil {
		t.Fatalf("sort desc: %v", err)
	}
	desc := l.List()

	slices.Reverse(asc)
	if !slices.Equal(asc, desc) {
		t.Errorf("descending is not the reverse of ascending:\nasc reversed %v\ndesc         %v", asc, desc)
	}
}

func TestSortIsStable(t *testing.T) {
	l, _, _ := newTestLedger(t,
		api.Expense{Amount: 1, Category: "first"},
		api.Expense{Amount: 0, Category: "zero"},
		api.Expense{Amount: 1, Category: "second"},
	)

	if err := l.Sort(SortAmountAsc); err != nil {
		t.Fatalf("sort: %v", err)
	}
	if got, want := categories(l.List()), []string{"zero", "first", "second"}; !slices.Equal(got, want) {
		t.Errorf("order: got %v, want %v", got, want)
	}
}

func TestSortInvalidKey(t *testing.T) {
	l, p, _ := newTestLedger(t,
		api.Expense{Amount: 2, Category: "B"},
		api.Expense{Amount: 1, Category: "A"},
	)

	if err := l.Sort("price"); !errors.Is(err, ErrInvalidSortKey) {
		t.Errorf("error: got %v, want ErrInvalidSortKey", err)
	}
	if got := categories(l.List()); !slices.Equal(got, []string{"B", "A"}) {
		t.Errorf("order changed: %v", got)
	}
	if p.saves != 0 {
		t.Errorf("saves: got %d, want 0", p.saves)
	}
}

func TestSortPanicsOnNaN(t *testing.T) {
	// Loaded data bypasses ParseAmount, which is the only way NaN gets in.
	l, _, _ := newTestLedger(t,
		api.Expense{Amount: 1, Category: "A"},
		api.Expense{Amount: math.NaN(), Category: "B"},
	)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on NaN amount")
		}
	}()
	_ = l.Sort(SortAmountAsc)
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		input   string
		want    SortKey
		wantErr bool
	}{
		{input: "1", want: SortAmountAsc},
		{input: "2", want: SortAmountDesc},
		{input: "3", want: SortCategory},
		{input: "4", want: SortNewest},
		{input: "5", want: SortOldest},
		{input: " Newest ", want: SortNewest},
		{input: "amount-desc", want: SortAmountDesc},
		{input: "0", wantErr: true},
		{input: "6", wantErr: true},
		{input: "price", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseSortKey(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidSortKey) {
					t.Errorf("error: got %v, want ErrInvalidSortKey", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("key: got %q, want %q", got, tc.want)
			}
		})
	}
}
