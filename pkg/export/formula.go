package export

import (
	"strconv"
	"strings"
)

// EscapeFormula prefixes text that a spreadsheet would evaluate as a formula
// with a single quote, which makes it a literal. Numbers such as "-5.00" are
// left alone.
func EscapeFormula(v string) string {
	if v == "" || !strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return v
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return v
	}
	return "'" + v
}
