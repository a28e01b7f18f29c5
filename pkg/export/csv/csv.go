// Package csv implements an exporter that writes expense rows to a CSV file.
package csv

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/ArionMiles/spendlog/pkg/api"
	"github.com/ArionMiles/spendlog/pkg/export"
)

// Config holds configuration for the CSV exporter.
type Config struct {
	// FilePath is the path to the CSV output file. It is replaced on every export.
	FilePath string `json:"filePath"`
}

// Exporter writes the full export snapshot to a CSV file.
type Exporter struct {
	filePath string
	logger   *slog.Logger
}

// New creates a new CSV exporter.
func New(cfg Config, logger *slog.Logger) (*Exporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.FilePath == "" {
		return nil, errors.New("filePath is required")
	}

	return &Exporter{
		filePath: cfg.FilePath,
		logger:   logger,
	}, nil
}

// Export truncates the file and writes header followed by rows.
func (e *Exporter) Export(_ context.Context, header []string, rows [][]string) (err error) {
	file, err := os.Create(e.filePath)
	if err != nil {
		return fmt.Errorf("creating csv file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing csv file: %w", closeErr)
		}
	}()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, row := range rows {
		escaped := make([]string, len(row))
		for i, v := range row {
			escaped[i] = export.EscapeFormula(v)
		}
		if err := w.Write(escaped); err != nil {
			return fmt.Errorf("writing csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing csv records: %w", err)
	}

	e.logger.Info("exported expenses to csv", "file", e.filePath, "count", len(rows))
	return nil
}

// Plugin registers the CSV exporter with an export.Registry.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "csv"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Write expenses to a CSV file"
}

// RequiredScopes returns nil; no OAuth is involved.
func (p *Plugin) RequiredScopes() []string {
	return nil
}

// NewExporter creates a CSV exporter from its JSON configuration.
func (p *Plugin) NewExporter(_ context.Context, _ *http.Client, configData json.RawMessage, logger *slog.Logger) (api.Exporter, error) {
	var cfg Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling csv config: %w", err)
	}
	return New(cfg, logger)
}
