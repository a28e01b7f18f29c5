// Package config loads spendlog settings from an optional JSON file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ArionMiles/spendlog/pkg/ledger"
	"github.com/ArionMiles/spendlog/pkg/storage"
)

// DefaultConfigFile is read when SPENDLOG_CONFIG is not set.
const DefaultConfigFile = "config.json"

// Defaults for the remaining settings.
const (
	DefaultExportFile       = "expenses.csv"
	DefaultExportSink       = "csv"
	DefaultClientSecretFile = "data/client_secret.json"
	DefaultTokenFile        = "data/token.json"
	DefaultSheetName        = "Expenses"
	DefaultSheetTitle       = "spendlog"
)

// Sinks lists the export destinations EXPORT_SINK accepts.
var Sinks = []string{"csv", "json", "sheets", "postgres"}

// Config holds the application configuration.
type Config struct {
	// ExpensesFile is the JSON document holding every recorded expense.
	// Environment variable: EXPENSES_FILE
	ExpensesFile string `koanf:"EXPENSES_FILE"`

	// ExportFile is where the csv and json sinks write.
	// Environment variable: EXPORT_FILE
	ExportFile string `koanf:"EXPORT_FILE"`

	// ExportSink picks the destination used by the export command.
	// Environment variable: EXPORT_SINK
	ExportSink string `koanf:"EXPORT_SINK"`

	// Categories is a comma separated list offered when adding an expense.
	// Environment variable: CATEGORIES
	Categories string `koanf:"CATEGORIES"`

	// CategoryFreeform lets a typed name be used instead of a list pick.
	// Environment variable: CATEGORY_FREEFORM
	CategoryFreeform bool `koanf:"CATEGORY_FREEFORM"`

	// Environment variables: LOG_LEVEL, LOG_JSON
	LogLevel string `koanf:"LOG_LEVEL"`
	LogJSON  bool   `koanf:"LOG_JSON"`

	Google   GoogleConfig   `koanf:",squash"`
	Postgres PostgresConfig `koanf:",squash"`
}

// GoogleConfig configures OAuth and the Google Sheets sink.
type GoogleConfig struct {
	ClientSecretFile string `koanf:"GOOGLE_CLIENT_SECRET_FILE"`
	TokenFile        string `koanf:"GOOGLE_TOKEN_FILE"`

	// SheetID is the ID of an existing spreadsheet; SheetTitle names a new one.
	SheetID    string `koanf:"GSHEETS_ID"`
	SheetTitle string `koanf:"GSHEETS_TITLE"`
	SheetName  string `koanf:"GSHEETS_NAME"`
}

// PostgresConfig holds PostgreSQL connection settings for the postgres sink.
type PostgresConfig struct {
	Host     string `koanf:"POSTGRES_HOST"`
	Port     int    `koanf:"POSTGRES_PORT"`
	Database string `koanf:"POSTGRES_DB"`
	User     string `koanf:"POSTGRES_USER"`
	Password string `koanf:"POSTGRES_PASSWORD"`
	SSLMode  string `koanf:"POSTGRES_SSLMODE"`
}

// LoadEnvFile loads .env files into the environment for local use.
// Missing files are ignored and existing variables are never overridden.
func LoadEnvFile(paths ...string) {
	_ = godotenv.Load(paths...)
}

// Load reads the JSON config file at path, when it exists, and overlays the
// environment on top. Unset values get their defaults.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), kjson.Parser()); err != nil {
				return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return Config{}, fmt.Errorf("loading config from environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ExpensesFile == "" {
		c.ExpensesFile = storage.DefaultPath
	}
	if c.ExportFile == "" {
		c.ExportFile = DefaultExportFile
	}
	if c.ExportSink == "" {
		c.ExportSink = DefaultExportSink
	}
	c.ExportSink = strings.ToLower(strings.TrimSpace(c.ExportSink))
	if c.Google.ClientSecretFile == "" {
		c.Google.ClientSecretFile = DefaultClientSecretFile
	}
	if c.Google.TokenFile == "" {
		c.Google.TokenFile = DefaultTokenFile
	}
	if c.Google.SheetName == "" {
		c.Google.SheetName = DefaultSheetName
	}
	if c.Google.SheetID == "" && c.Google.SheetTitle == "" {
		c.Google.SheetTitle = DefaultSheetTitle
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.SSLMode == "" {
		c.Postgres.SSLMode = "disable"
	}
}

// CategoryList returns the configured categories, always ending with the
// fallback category.
func (c Config) CategoryList() []string {
	if strings.TrimSpace(c.Categories) == "" {
		return slices.Clone(ledger.DefaultCategories)
	}
	return ledger.NormalizeCategories(strings.Split(c.Categories, ","))
}

// Validate reports every problem with the configuration.
func (c Config) Validate() error {
	var errs []error

	if !slices.Contains(Sinks, c.ExportSink) {
		errs = append(errs, fmt.Errorf("EXPORT_SINK %q must be one of %v", c.ExportSink, Sinks))
	}
	if c.ExportSink == "postgres" {
		if c.Postgres.Host == "" {
			errs = append(errs, errors.New("POSTGRES_HOST is required for the postgres sink"))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, errors.New("POSTGRES_DB is required for the postgres sink"))
		}
	}
	if c.Postgres.Port < 1 || c.Postgres.Port > 65535 {
		errs = append(errs, fmt.Errorf("POSTGRES_PORT %d must be between 1 and 65535", c.Postgres.Port))
	}

	return errors.Join(errs...)
}
