package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ArionMiles/spendlog/pkg/ledger"
)

// session is one interactive run of the menu.
type session struct {
	ctx        context.Context
	ledger     *ledger.Ledger
	lines      <-chan scanResult
	ui         *theme
	categories []string
	freeform   bool
	now        func() time.Time
	logger     *slog.Logger

	// export sends the export records to the configured sink and
	// returns a description of where they went.
	export      func(ctx context.Context, records [][]string) (string, error)
	exportLabel string
}

type menuItem struct {
	key    string
	label  string
	action func(*session) error
}

var menu = []menuItem{
	{"1", "Add expense", (*session).add},
	{"2", "View expenses", (*session).view},
	{"3", "Sort expenses", (*session).sort},
	{"4", "Filter by category", (*session).filter},
	{"5", "Monthly summary", (*session).summary},
	{"6", "Set budget", (*session).setBudget},
	{"7", "Delete expense", (*session).delete},
	{"8", "Export", (*session).exportRecords},
	{"9", "Save and exit", nil},
}

// errQuit ends the loop after a final save.
var errQuit = errors.New("quit")

// scanResult is one line of input, or the error that ended it.
type scanResult struct {
	line string
	err  error
}

// scanLines feeds lines from in until it ends or ctx is done, so a blocked
// read never holds up cancellation.
func scanLines(ctx context.Context, in io.Reader) <-chan scanResult {
	lines := make(chan scanResult)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- scanResult{line: sc.Text()}:
			case <-ctx.Done():
				return
			}
		}
		err := io.EOF
		if sc.Err() != nil {
			err = fmt.Errorf("reading input: %w", sc.Err())
		}
		select {
		case lines <- scanResult{err: err}:
		case <-ctx.Done():
		}
	}()
	return lines
}

// newSession reads menu input from in until it ends or ctx is cancelled.
func newSession(ctx context.Context, l *ledger.Ledger, in io.Reader, out io.Writer, categories []string) *session {
	return &session{
		ctx:        ctx,
		ledger:     l,
		lines:      scanLines(ctx, in),
		ui:         newTheme(out),
		categories: categories,
		now:        time.Now,
		logger:     slog.Default(),
	}
}

// run shows the menu until the user exits, input ends or the context is
// cancelled, then saves.
func (s *session) run() error {
	s.ui.Heading("spendlog")
	s.ui.Info("%d expenses loaded", s.ledger.Len())

	for {
		s.printMenu()
		choice, err := s.readLine("Choose an option: ")
		if err != nil {
			break
		}

		if err := s.dispatch(choice); err != nil {
			if errors.Is(err, errQuit) || errors.Is(err, io.EOF) || s.ctx.Err() != nil {
				break
			}
			s.ui.Warn("%v", err)
		}
		if s.ctx.Err() != nil {
			break
		}
	}

	if s.ctx.Err() != nil {
		s.logger.Info("session interrupted", "error", s.ctx.Err())
		fmt.Fprintln(s.ui.out)
		s.ui.Info("Interrupted.")
	}

	if err := s.ledger.Save(); err != nil {
		s.logger.Error("final save failed", "error", err)
		s.ui.Warn("Could not save expenses: %v", err)
		return err
	}
	s.logger.Info("session ended", "count", s.ledger.Len())
	s.ui.Success("Saved %d expenses. Goodbye!", s.ledger.Len())
	return nil
}

func (s *session) printMenu() {
	fmt.Fprintln(s.ui.out)
	for _, item := range s.menuItems() {
		fmt.Fprintf(s.ui.out, "  %s. %s\n", item.key, item.label)
	}
}

func (s *session) menuItems() []menuItem {
	items := make([]menuItem, len(menu))
	copy(items, menu)
	for i := range items {
		if items[i].key == "8" && s.exportLabel != "" {
			items[i].label = "Export to " + s.exportLabel
		}
	}
	return items
}

func (s *session) dispatch(choice string) error {
	choice = strings.ToLower(strings.TrimSpace(choice))
	switch choice {
	case "9", "exit", "quit":
		return errQuit
	}

	for _, item := range menu {
		if item.key == choice && item.action != nil {
			return item.action(s)
		}
	}
	s.ui.Warn("Invalid choice %q, pick 1-9", choice)
	return nil
}

// readLine prompts and returns the trimmed line. It returns io.EOF when input
// ends and the context error once the session is cancelled.
func (s *session) readLine(prompt string) (string, error) {
	if err := s.ctx.Err(); err != nil {
		return "", err
	}
	s.ui.Prompt(prompt)

	select {
	case <-s.ctx.Done():
		return "", s.ctx.Err()
	case r, ok := <-s.lines:
		if !ok {
			return "", io.EOF
		}
		if r.err != nil {
			if errors.Is(r.err, io.EOF) {
				fmt.Fprintln(s.ui.out)
			}
			return "", r.err
		}
		return strings.TrimSpace(r.line), nil
	}
}

// chooseCategory lists the categories and resolves the reply, falling back
// to the last entry for anything that is not a valid number.
func (s *session) chooseCategory() (string, error) {
	for i, c := range s.categories {
		fmt.Fprintf(s.ui.out, "  %d. %s\n", i+1, c)
	}
	input, err := s.readLine("Category: ")
	if err != nil {
		return "", err
	}

	if s.freeform && input != "" {
		if _, err := strconv.Atoi(input); err != nil {
			return input, nil
		}
	}
	return ledger.CategoryAt(input, s.categories), nil
}

func (s *session) add() error {
	input, err := s.readLine("Amount: ")
	if err != nil {
		return err
	}
	amount, err := ledger.ParseAmount(input)
	if err != nil {
		s.ui.Warn("Invalid input, please enter a number.")
		return nil
	}

	category, err := s.chooseCategory()
	if err != nil {
		return err
	}

	res, err := s.ledger.Add(amount, category)
	s.logger.Debug("expense added", "category", res.Expense.Category, "amount", res.Expense.Amount)
	s.ui.Success("Added %s to %s", s.ui.Amount(res.Expense.Amount), res.Expense.Category)
	if res.Budget != nil {
		s.ui.Warn("Budget exceeded for %s: spent %s of %s",
			res.Budget.Category, ledger.FormatAmount(res.Budget.Spent), ledger.FormatAmount(res.Budget.Limit))
	}
	if err != nil {
		s.ui.Warn("Could not save expenses: %v", err)
	}
	s.ui.Info("Total spent: %s", ledger.FormatAmount(s.ledger.Total()))
	return nil
}

func (s *session) view() error {
	if s.ledger.Len() == 0 {
		s.ui.Info("No expenses recorded.")
		return nil
	}
	s.ui.Expenses(s.ledger.List())
	s.ui.Info("Total spent: %s", ledger.FormatAmount(s.ledger.Total()))
	return nil
}

func (s *session) sort() error {
	for i, k := range ledger.SortKeys {
		fmt.Fprintf(s.ui.out, "  %d. %s\n", i+1, k.Label())
	}
	input, err := s.readLine("Sort by: ")
	if err != nil {
		return err
	}

	key, err := ledger.ParseSortKey(input)
	if err != nil {
		s.ui.Warn("Invalid sort choice.")
		return nil
	}
	if err := s.ledger.Sort(key); err != nil {
		s.ui.Warn("Could not save expenses: %v", err)
		return nil
	}
	s.ui.Success("Sorted by %s", strings.ToLower(key.Label()))
	return nil
}

func (s *session) filter() error {
	category, err := s.readLine("Category to show: ")
	if err != nil {
		return err
	}

	matches, err := s.ledger.Filter(category)
	switch {
	case errors.Is(err, ledger.ErrNoExpenses):
		s.ui.Info("No expenses recorded.")
	case err != nil:
		return err
	case len(matches) == 0:
		s.ui.Info("No expenses found in category %q.", category)
	default:
		s.ui.Expenses(matches)
	}
	return nil
}

func (s *session) summary() error {
	sum, err := s.ledger.MonthlySummary(s.now())
	if errors.Is(err, ledger.ErrNoExpensesThisMonth) {
		s.ui.Info("No expenses this month.")
		return nil
	}
	if err != nil {
		return err
	}
	s.ui.Summary(sum)
	if budgets := s.ledger.Budgets(); len(budgets) > 0 {
		s.ui.Budgets(budgets, sum.Totals)
	}
	return nil
}

// budgetCategory is like chooseCategory but rejects picks that do not name a
// category instead of falling back.
func (s *session) budgetCategory() (string, bool, error) {
	for i, c := range s.categories {
		fmt.Fprintf(s.ui.out, "  %d. %s\n", i+1, c)
	}
	input, err := s.readLine("Category: ")
	if err != nil {
		return "", false, err
	}

	n, convErr := strconv.Atoi(input)
	switch {
	case convErr != nil && s.freeform && input != "":
		return input, true, nil
	case convErr != nil || n < 1 || n > len(s.categories):
		s.ui.Warn("Invalid category, pick 1-%d.", len(s.categories))
		return "", false, nil
	}
	return s.categories[n-1], true, nil
}

func (s *session) setBudget() error {
	category, ok, err := s.budgetCategory()
	if err != nil || !ok {
		return err
	}
	input, err := s.readLine("Monthly limit: ")
	if err != nil {
		return err
	}
	limit, err := ledger.ParseAmount(input)
	if err != nil {
		s.ui.Warn("Invalid input, please enter a number.")
		return nil
	}

	if err := s.ledger.SetBudget(category, limit); err != nil {
		s.ui.Warn("%v", err)
		return nil
	}
	s.logger.Info("budget set", "category", category, "limit", limit)
	s.ui.Success("Budget for %s set to %s", category, s.ui.Amount(limit))
	s.ui.Budgets(s.ledger.Budgets(), nil)
	return nil
}

func (s *session) delete() error {
	if s.ledger.Len() == 0 {
		s.ui.Info("No expenses to delete.")
		return nil
	}
	s.ui.Expenses(s.ledger.List())

	input, err := s.readLine("Number to delete: ")
	if err != nil {
		return err
	}
	position, err := strconv.Atoi(input)
	if err != nil {
		s.ui.Warn("Invalid input, please enter a number.")
		return nil
	}

	removed, err := s.ledger.DeleteAt(position)
	if errors.Is(err, ledger.ErrIndexOutOfRange) {
		s.ui.Warn("Invalid number, pick 1-%d.", s.ledger.Len())
		return nil
	}
	s.logger.Debug("expense deleted", "position", position, "category", removed.Category)
	s.ui.Success("Deleted %s from %s", s.ui.Amount(removed.Amount), removed.Category)
	if err != nil {
		s.ui.Warn("Could not save expenses: %v", err)
	}
	return nil
}

func (s *session) exportRecords() error {
	if s.export == nil {
		s.ui.Warn("Export is not configured.")
		return nil
	}

	target, err := s.export(s.ctx, s.ledger.ExportRecords())
	if err != nil {
		s.logger.Error("export failed", "sink", s.exportLabel, "error", err)
		s.ui.Warn("Export failed: %v", err)
		return nil
	}
	s.ui.Success("Exported %d expenses to %s", s.ledger.Len(), target)
	return nil
}
