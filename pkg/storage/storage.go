// Package storage persists the expense collection as a single JSON document.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ArionMiles/spendlog/pkg/api"
)

// DefaultPath is the expenses file used when none is configured.
const DefaultPath = "expenses.json"

// File reads and writes expenses to a JSON file on disk.
// The whole array is rewritten on every save.
type File struct {
	path   string
	logger *slog.Logger
}

// New creates a JSON file store for path.
func New(path string, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		path = DefaultPath
	}

	return &File{
		path:   path,
		logger: logger,
	}
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Load returns the stored expenses. A missing, unreadable or corrupt file
// yields an empty collection instead of an error.
func (f *File) Load() []api.Expense {
	expenses, err := f.read()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		f.logger.Info("no expenses file found, starting empty", "file", f.path)
		return []api.Expense{}
	case err != nil:
		f.logger.Warn("could not load expenses, starting empty", "file", f.path, "error", err)
		return []api.Expense{}
	}

	f.logger.Debug("loaded expenses", "file", f.path, "count", len(expenses))
	return expenses
}

// Inspect reports the number of stored records, or the error Load swallowed.
func (f *File) Inspect() (int, error) {
	expenses, err := f.read()
	if err != nil {
		return 0, err
	}
	return len(expenses), nil
}

func (f *File) read() ([]api.Expense, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}

	if len(data) == 0 {
		return []api.Expense{}, nil
	}

	var expenses []api.Expense
	if err := json.Unmarshal(data, &expenses); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f.path, err)
	}
	if expenses == nil {
		expenses = []api.Expense{}
	}
	return expenses, nil
}

// Save overwrites the file with the given expenses as indented JSON.
func (f *File) Save(expenses []api.Expense) error {
	if expenses == nil {
		expenses = []api.Expense{}
	}

	data, err := json.MarshalIndent(expenses, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling expenses: %w", err)
	}

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("writing expenses file: %w", err)
	}

	f.logger.Debug("saved expenses", "file", f.path, "count", len(expenses))
	return nil
}
