package export

import "testing"

func TestEscapeFormula(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Food", "Food"},
		{"", ""},
		{"=HYPERLINK(\"http://x\")", "'=HYPERLINK(\"http://x\")"},
		{"+cmd", "'+cmd"},
		{"-sum", "'-sum"},
		{"@SUM(A1)", "'@SUM(A1)"},
		{"\tTab", "'\tTab"},
		{"-5.00", "-5.00"},
		{"12.50", "12.50"},
		{"2024-05-01T10:00:00Z", "2024-05-01T10:00:00Z"},
	}

	for _, tc := range tests {
		if got := EscapeFormula(tc.in); got != tc.want {
			t.Errorf("EscapeFormula(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}
