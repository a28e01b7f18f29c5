package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ArionMiles/spendlog/pkg/client"
	"github.com/ArionMiles/spendlog/pkg/config"
	"github.com/ArionMiles/spendlog/pkg/storage"
)

// errNotReady is returned by runStatus when any check failed.
var errNotReady = errors.New("configuration issues detected")

// runStatus prints the configuration, data file and credential state.
func runStatus(cfg config.Config, configPath string, out io.Writer) error {
	ui := newTheme(out)
	ui.Heading("=== spendlog status ===")
	fmt.Fprintln(out)

	allGood := true

	fmt.Fprintf(out, "Config file (%s): ", configPath)
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintln(out, "✓ Found")
	} else {
		fmt.Fprintln(out, "- Not found, using environment and defaults")
	}

	fmt.Fprint(out, "Configuration: ")
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "✗ %s\n", strings.ReplaceAll(err.Error(), "\n", "; "))
		allGood = false
	} else {
		fmt.Fprintln(out, "✓ Valid")
	}

	checkDataFile(out, storage.New(cfg.ExpensesFile, nil), &allGood)

	fmt.Fprintf(out, "Categories: %s\n", strings.Join(cfg.CategoryList(), ", "))
	fmt.Fprintf(out, "Export sink: %s\n", cfg.ExportSink)

	switch cfg.ExportSink {
	case "csv", "json":
		fmt.Fprintf(out, "Export file: %s\n", cfg.ExportFile)
	case "sheets":
		checkGoogleCredentials(out, cfg.Google, &allGood)
	case "postgres":
		fmt.Fprintf(out, "PostgreSQL: %s:%d/%s\n", cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.Database)
	}

	fmt.Fprintln(out)
	if !allGood {
		ui.Warn("Status: %v", errNotReady)
		fmt.Fprintln(out, "Fix the issues above, then run 'spendlog status' again.")
		return errNotReady
	}
	ui.Success("Status: ready")
	return nil
}

func checkDataFile(out io.Writer, store *storage.File, allGood *bool) {
	fmt.Fprintf(out, "Expenses file (%s): ", store.Path())

	count, err := store.Inspect()
	switch {
	case errors.Is(err, os.ErrNotExist):
		fmt.Fprintln(out, "- Not created yet")
	case err != nil:
		fmt.Fprintf(out, "✗ Unreadable, it will be replaced on the next save (%v)\n", err)
		*allGood = false
	default:
		fmt.Fprintf(out, "✓ %d expenses\n", count)
	}
}

func checkGoogleCredentials(out io.Writer, g config.GoogleConfig, allGood *bool) {
	fmt.Fprintf(out, "Client secret (%s): ", g.ClientSecretFile)
	if _, err := os.Stat(g.ClientSecretFile); err != nil {
		fmt.Fprintln(out, "✗ Not found")
		*allGood = false
	} else {
		fmt.Fprintln(out, "✓ Found")
	}

	fmt.Fprintf(out, "OAuth token (%s): ", g.TokenFile)
	token, err := client.LoadToken(g.TokenFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
		fmt.Fprintln(out, "✗ Not found (run 'spendlog setup')")
		*allGood = false
	case err != nil:
		fmt.Fprintf(out, "✗ %v\n", err)
		*allGood = false
	case !token.Expiry.IsZero() && token.Expiry.Before(time.Now()):
		fmt.Fprintln(out, "⚠ Expired (will refresh on next export)")
	default:
		fmt.Fprintln(out, "✓ Valid")
	}

	if g.SheetID != "" {
		fmt.Fprintf(out, "Spreadsheet: %s (tab %s)\n", g.SheetID, g.SheetName)
	} else {
		fmt.Fprintf(out, "Spreadsheet: new %q (tab %s)\n", g.SheetTitle, g.SheetName)
	}
}
