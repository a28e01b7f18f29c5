package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"EXPENSES_FILE", "EXPORT_FILE", "EXPORT_SINK", "CATEGORIES", "CATEGORY_FREEFORM",
		"LOG_LEVEL", "LOG_JSON", "GOOGLE_CLIENT_SECRET_FILE", "GOOGLE_TOKEN_FILE",
		"GSHEETS_ID", "GSHEETS_TITLE", "GSHEETS_NAME", "POSTGRES_HOST", "POSTGRES_PORT",
		"POSTGRES_DB", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_SSLMODE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.ExpensesFile != "expenses.json" {
		t.Errorf("expenses file: got %q", cfg.ExpensesFile)
	}
	if cfg.ExportFile != DefaultExportFile {
		t.Errorf("export file: got %q", cfg.ExportFile)
	}
	if cfg.ExportSink != "csv" {
		t.Errorf("export sink: got %q", cfg.ExportSink)
	}
	if cfg.Postgres.Port != 5432 || cfg.Postgres.SSLMode != "disable" {
		t.Errorf("postgres defaults: got %+v", cfg.Postgres)
	}
	if cfg.Google.SheetName != DefaultSheetName || cfg.Google.SheetTitle != DefaultSheetTitle {
		t.Errorf("sheets defaults: got %+v", cfg.Google)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXPENSES_FILE", "/tmp/mine.json")
	t.Setenv("EXPORT_SINK", " JSON ")
	t.Setenv("CATEGORY_FREEFORM", "true")
	t.Setenv("LOG_JSON", "1")
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("GSHEETS_ID", "sheet-123")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.ExpensesFile != "/tmp/mine.json" {
		t.Errorf("expenses file: got %q", cfg.ExpensesFile)
	}
	if cfg.ExportSink != "json" {
		t.Errorf("export sink: got %q", cfg.ExportSink)
	}
	if !cfg.CategoryFreeform || !cfg.LogJSON {
		t.Errorf("bools: freeform=%v json=%v", cfg.CategoryFreeform, cfg.LogJSON)
	}
	if cfg.Postgres.Port != 6543 {
		t.Errorf("postgres port: got %d", cfg.Postgres.Port)
	}
	if cfg.Google.SheetID != "sheet-123" || cfg.Google.SheetTitle != "" {
		t.Errorf("sheets: got %+v", cfg.Google)
	}
}

func TestLoadFileThenEnvironment(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"EXPENSES_FILE": "from-file.json", "EXPORT_FILE": "file.csv", "LOG_LEVEL": "DEBUG"}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("EXPORT_FILE", "env.csv")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.ExpensesFile != "from-file.json" {
		t.Errorf("expenses file: got %q, want value from file", cfg.ExpensesFile)
	}
	if cfg.ExportFile != "env.csv" {
		t.Errorf("export file: got %q, want environment override", cfg.ExportFile)
	}
	if cfg.LogLevel != "DEBUG" {
		t.Errorf("log level: got %q", cfg.LogLevel)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid config file")
	}
}

func TestCategoryList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "default", raw: "", want: []string{"Food", "Transport", "Entertainment", "Utilities", "Shopping", "Health", "Other"}},
		{name: "custom", raw: "Rent, Groceries ,Fun", want: []string{"Rent", "Groceries", "Fun", "Other"}},
		{name: "custom with other", raw: "Other,Rent", want: []string{"Rent", "Other"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Config{Categories: tc.raw}.CategoryList()
			if !slices.Equal(got, tc.want) {
				t.Errorf("categories: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	valid := Config{ExportSink: "csv", Postgres: PostgresConfig{Port: 5432}}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr []string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "unknown sink",
			mutate:  func(c *Config) { c.ExportSink = "xml" },
			wantErr: []string{"EXPORT_SINK"},
		},
		{
			name:    "postgres without connection",
			mutate:  func(c *Config) { c.ExportSink = "postgres" },
			wantErr: []string{"POSTGRES_HOST", "POSTGRES_DB"},
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Postgres.Port = 70000 },
			wantErr: []string{"POSTGRES_PORT"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)

			err := cfg.Validate()
			if len(tc.wantErr) == 0 {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			for _, want := range tc.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q should mention %s", err, want)
				}
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	const key = "SPENDLOG_TEST_DOTENV"
	t.Setenv(key, "")
	os.Unsetenv(key)

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(key+"=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	LoadEnvFile(path)
	if got := os.Getenv(key); got != "from-dotenv" {
		t.Errorf("env: got %q, want from-dotenv", got)
	}

	// Missing files are not an error.
	LoadEnvFile(filepath.Join(t.TempDir(), "absent.env"))
}
