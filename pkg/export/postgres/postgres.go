// Package postgres implements an exporter that mirrors expenses into a PostgreSQL table.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/avast/retry-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ArionMiles/spendlog/pkg/api"
)

//go:embed 001_create_expenses.sql
var schemaSQL string

// Table receives the exported rows.
const Table = "expenses"

var columns = []string{"position", "category", "amount", "recorded_at"}

// Config holds the PostgreSQL exporter configuration.
type Config struct {
	Host     string `json:"host"`
	Port     int    `json:"port,omitempty"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password"`
	SSLMode  string `json:"sslmode,omitempty"`

	// MaxPoolSize is the maximum number of connections in the pool.
	MaxPoolSize int `json:"maxPoolSize,omitempty"`
	// ConnectAttempts is how many times the initial ping is tried.
	ConnectAttempts int `json:"connectAttempts,omitempty"`
}

// Exporter replaces the expenses table with the export snapshot.
type Exporter struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New connects to PostgreSQL and makes sure the expenses table exists.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Exporter, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = 4
	}
	if cfg.ConnectAttempts == 0 {
		cfg.ConnectAttempts = 3
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxPoolSize)
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	err = retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return pool.Ping(pingCtx)
		},
		retry.Context(ctx),
		retry.Attempts(uint(cfg.ConnectAttempts)),
		retry.Delay(2*time.Second),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("database not reachable, retrying", "attempt", n+1, "error", err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("connected to PostgreSQL",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Database,
	)

	e := &Exporter{pool: pool, logger: logger}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return e, nil
}

// Export deletes every row and copies the snapshot in one transaction.
func (e *Exporter) Export(ctx context.Context, header []string, rows [][]string) error {
	records, err := toRecords(header, rows)
	if err != nil {
		return err
	}

	tx, err := e.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM "+Table); err != nil {
		return fmt.Errorf("clearing %s: %w", Table, err)
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{Table}, columns, pgx.CopyFromRows(records))
	if err != nil {
		return fmt.Errorf("copying rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	e.logger.Info("exported expenses to postgres", "table", Table, "count", copied)
	return nil
}

// Close closes the database connection pool.
func (e *Exporter) Close() {
	if e.pool != nil {
		e.pool.Close()
		e.logger.Info("closed PostgreSQL connection pool")
	}
}

// toRecords converts export rows into typed values for COPY.
func toRecords(header []string, rows [][]string) ([][]any, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range []string{"Category", "Amount", "Timestamp"} {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("export header is missing %s column", name)
		}
	}

	records := make([][]any, 0, len(rows))
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", i+1, len(row), len(header))
		}

		amount, err := strconv.ParseFloat(row[idx["Amount"]], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d amount: %w", i+1, err)
		}

		var recordedAt any
		if ts := row[idx["Timestamp"]]; ts != "" {
			t, err := time.Parse(time.RFC3339, ts)
			if err != nil {
				return nil, fmt.Errorf("row %d timestamp: %w", i+1, err)
			}
			recordedAt = t
		}

		records = append(records, []any{i + 1, row[idx["Category"]], amount, recordedAt})
	}
	return records, nil
}

// Plugin registers the PostgreSQL exporter with an export.Registry.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "postgres"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Mirror expenses into a PostgreSQL table"
}

// RequiredScopes returns nil; PostgreSQL does not use OAuth.
func (p *Plugin) RequiredScopes() []string {
	return nil
}

// NewExporter creates a PostgreSQL exporter.
// httpClient is ignored.
func (p *Plugin) NewExporter(ctx context.Context, _ *http.Client, configData json.RawMessage, logger *slog.Logger) (api.Exporter, error) {
	var cfg Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling postgres config: %w", err)
	}

	if cfg.Host == "" {
		return nil, errors.New("host is required")
	}
	if cfg.Database == "" {
		return nil, errors.New("database is required")
	}

	return New(ctx, cfg, logger)
}
