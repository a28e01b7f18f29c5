package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ArionMiles/spendlog/pkg/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	return config.Config{
		ExpensesFile: filepath.Join(dir, "expenses.json"),
		ExportFile:   filepath.Join(dir, "expenses.csv"),
		ExportSink:   "csv",
		Google: config.GoogleConfig{
			ClientSecretFile: filepath.Join(dir, "client_secret.json"),
			TokenFile:        filepath.Join(dir, "token.json"),
			SheetTitle:       "spendlog",
			SheetName:        "Expenses",
		},
		Postgres: config.PostgresConfig{Host: "db", Port: 5432, Database: "spendlog", SSLMode: "disable"},
	}
}

func TestSinkConfig(t *testing.T) {
	cfg := testConfig(t)

	tests := []struct {
		sink       string
		out        string
		wantTarget string
		wantKey    string
		wantValue  any
	}{
		{sink: "csv", wantTarget: cfg.ExportFile, wantKey: "filePath", wantValue: cfg.ExportFile},
		{sink: "csv", out: "custom.csv", wantTarget: "custom.csv", wantKey: "filePath", wantValue: "custom.csv"},
		{sink: "json", wantTarget: strings.TrimSuffix(cfg.ExportFile, ".csv") + "-export.json", wantKey: "filePath", wantValue: strings.TrimSuffix(cfg.ExportFile, ".csv") + "-export.json"},
		{sink: "sheets", wantTarget: "Google Sheets", wantKey: "sheetName", wantValue: "Expenses"},
		{sink: "postgres", wantTarget: "postgres://db:5432/spendlog", wantKey: "database", wantValue: "spendlog"},
	}

	for _, tc := range tests {
		t.Run(tc.sink+tc.out, func(t *testing.T) {
			raw, target, err := sinkConfig(cfg, tc.sink, tc.out)
			if err != nil {
				t.Fatalf("sinkConfig: %v", err)
			}
			if target != tc.wantTarget {
				t.Errorf("target: got %q, want %q", target, tc.wantTarget)
			}

			var fields map[string]any
			if err := json.Unmarshal(raw, &fields); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if fields[tc.wantKey] != tc.wantValue {
				t.Errorf("%s: got %v, want %v", tc.wantKey, fields[tc.wantKey], tc.wantValue)
			}
		})
	}

	if _, _, err := sinkConfig(cfg, "xml", ""); err == nil {
		t.Error("expected error for unknown sink")
	}
}

func TestExportSnapshotCSV(t *testing.T) {
	cfg := testConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	records := [][]string{
		{"Category", "Amount", "Timestamp"},
		{"Food", "12.50", "2024-05-15T12:00:00Z"},
	}

	target, err := exportSnapshot(context.Background(), newRegistry(), cfg, "csv", "", records, logger)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if target != cfg.ExportFile {
		t.Errorf("target: got %q", target)
	}

	data, err := os.ReadFile(cfg.ExportFile)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "Category,Amount,Timestamp\nFood,12.50,2024-05-15T12:00:00Z\n"
	if string(data) != want {
		t.Errorf("csv: got %q, want %q", data, want)
	}
}

func TestExportSnapshotSheetsWithoutCredentials(t *testing.T) {
	cfg := testConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := exportSnapshot(context.Background(), newRegistry(), cfg, "sheets", "", [][]string{{"Category"}}, logger)
	if err == nil {
		t.Fatal("expected error without client secret")
	}
}

func TestExportSnapshotUnknownSink(t *testing.T) {
	cfg := testConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if _, err := exportSnapshot(context.Background(), newRegistry(), cfg, "xml", "", nil, logger); err == nil {
		t.Error("expected error for unknown sink")
	}
}

func TestRunExportCommand(t *testing.T) {
	cfg := testConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	seed := `[{"amount": 3, "category": "Transport", "timestamp": "2024-05-01T08:00:00Z"}]`
	if err := os.WriteFile(cfg.ExpensesFile, []byte(seed), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	out := filepath.Join(t.TempDir(), "out.json")

	if err := runExport(context.Background(), cfg, []string{"-to", "json", "-out", out}, logger); err != nil {
		t.Fatalf("runExport: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var rows []map[string]string
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rows) != 1 || rows[0]["Category"] != "Transport" || rows[0]["Amount"] != "3.00" {
		t.Errorf("rows: got %v", rows)
	}
}

func TestNewRegistry(t *testing.T) {
	names := newRegistry().Names()
	if strings.Join(names, ",") != strings.Join([]string{"csv", "json", "postgres", "sheets"}, ",") {
		t.Errorf("names: got %v", names)
	}
}

func TestUsageListsSinks(t *testing.T) {
	var out strings.Builder
	printUsage(&out, newRegistry())

	for _, p := range newRegistry().List() {
		want := p.Name() + " "
		if !strings.Contains(out.String(), want) || !strings.Contains(out.String(), p.Description()) {
			t.Errorf("usage should list %s with %q:\n%s", p.Name(), p.Description(), out.String())
		}
	}
}
