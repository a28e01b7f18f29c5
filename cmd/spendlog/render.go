package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ArionMiles/spendlog/pkg/api"
	"github.com/ArionMiles/spendlog/pkg/ledger"
)

// theme holds the console styles for one output stream. Colors are dropped
// automatically when the stream is not a terminal.
type theme struct {
	out      io.Writer
	renderer *lipgloss.Renderer

	heading lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	muted   lipgloss.Style
	amount  lipgloss.Style
}

func newTheme(out io.Writer) *theme {
	r := lipgloss.NewRenderer(out)
	return &theme{
		out:      out,
		renderer: r,
		heading:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		success:  r.NewStyle().Foreground(lipgloss.Color("10")),
		warning:  r.NewStyle().Foreground(lipgloss.Color("11")),
		muted:    r.NewStyle().Foreground(lipgloss.Color("8")),
		amount:   r.NewStyle().Bold(true),
	}
}

func (t *theme) Heading(text string) {
	fmt.Fprintln(t.out, t.heading.Render(text))
}

func (t *theme) Success(format string, args ...any) {
	fmt.Fprintln(t.out, t.success.Render("✓ "+fmt.Sprintf(format, args...)))
}

func (t *theme) Warn(format string, args ...any) {
	fmt.Fprintln(t.out, t.warning.Render("⚠ "+fmt.Sprintf(format, args...)))
}

func (t *theme) Info(format string, args ...any) {
	fmt.Fprintln(t.out, t.muted.Render(fmt.Sprintf(format, args...)))
}

func (t *theme) Prompt(text string) {
	fmt.Fprint(t.out, text)
}

// Amount formats a value with two decimals, the same as exports.
func (t *theme) Amount(v float64) string {
	return t.amount.Render(ledger.FormatAmount(v))
}

// Expenses renders a numbered table; numbers are the positions DeleteAt expects.
func (t *theme) Expenses(expenses []api.Expense) {
	rows := make([][]string, 0, len(expenses))
	for i, e := range expenses {
		ts := "-"
		if !e.Timestamp.IsZero() {
			ts = e.Timestamp.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), e.Category, ledger.FormatAmount(e.Amount), ts})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(t.muted).
		Headers("#", "Category", "Amount", "Date").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := t.renderer.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true)
			}
			if col == 2 {
				return s.Align(lipgloss.Right)
			}
			return s
		})

	fmt.Fprintln(t.out, tbl.Render())
}

// Summary renders per-category totals for a month.
func (t *theme) Summary(s ledger.Summary) {
	t.Heading(fmt.Sprintf("Summary for %s %d", s.Month, s.Year))

	rows := make([][]string, 0, len(s.Totals))
	for _, c := range s.Categories() {
		rows = append(rows, []string{c, ledger.FormatAmount(s.Totals[c])})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(t.muted).
		Headers("Category", "Total").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := t.renderer.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true)
			}
			if col == 1 {
				return s.Align(lipgloss.Right)
			}
			return s
		})

	fmt.Fprintln(t.out, tbl.Render())
	fmt.Fprintf(t.out, "Total: %s across %d expenses\n", t.Amount(s.Total), s.Count)
}

// Budgets lists the category limits. When spent is set, each line also shows
// the month's spending against the limit.
func (t *theme) Budgets(budgets []ledger.Budget, spent map[string]float64) {
	if len(budgets) == 0 {
		return
	}
	fmt.Fprintln(t.out, "Budgets:")
	for _, b := range budgets {
		if spent == nil {
			fmt.Fprintf(t.out, "  %s: %s\n", b.Category, ledger.FormatAmount(b.Limit))
			continue
		}
		line := fmt.Sprintf("  %s: %s of %s", b.Category, ledger.FormatAmount(spent[b.Category]), ledger.FormatAmount(b.Limit))
		if spent[b.Category] > b.Limit {
			fmt.Fprintln(t.out, t.warning.Render(line+" (over)"))
			continue
		}
		fmt.Fprintln(t.out, line)
	}
}
