package ledger

import (
	"strconv"
	"strings"
)

// FallbackCategory is the catch-all category every list ends with.
const FallbackCategory = "Other"

// DefaultCategories is the category list offered when none is configured.
var DefaultCategories = []string{
	"Food",
	"Transport",
	"Entertainment",
	"Utilities",
	"Shopping",
	"Health",
	FallbackCategory,
}

// ResolveCategoryIndex maps a 1-based menu pick onto a 0-based index into list.
//
// A pick that is not a number or falls outside [1, len(list)] is not an
// error: it resolves to the last entry, so a bad pick never prevents an
// expense from being recorded. list must not be empty.
func ResolveCategoryIndex(input string, list []string) int {
	last := len(list) - 1
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > len(list) {
		return last
	}
	return n - 1
}

// CategoryAt returns the category chosen by input, see ResolveCategoryIndex.
func CategoryAt(input string, list []string) string {
	if len(list) == 0 {
		return FallbackCategory
	}
	return list[ResolveCategoryIndex(input, list)]
}

// NormalizeCategories trims and dedupes list, keeping the first spelling, and
// makes sure the fallback category is last.
func NormalizeCategories(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list)+1)
	for _, c := range list {
		c = strings.TrimSpace(c)
		if c == "" || strings.EqualFold(c, FallbackCategory) {
			continue
		}
		key := strings.ToLower(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return append(out, FallbackCategory)
}
