// Package json implements an exporter that writes expense rows to a JSON file.
package json

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/ArionMiles/spendlog/pkg/api"
)

// Config holds configuration for the JSON exporter.
type Config struct {
	// FilePath is the path to the JSON output file.
	FilePath string `json:"filePath"`
}

// Exporter writes the export snapshot as an array of objects keyed by header.
type Exporter struct {
	filePath string
	logger   *slog.Logger
}

// New creates a new JSON exporter.
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

// Export replaces the file with the rows encoded as JSON objects.
func (e *Exporter) Export(_ context.Context, header []string, rows [][]string) error {
	records := make([]map[string]string, 0, len(rows))
	for i, row := range rows {
		if len(row) != len(header) {
			return fmt.Errorf("row %d has %d fields, header has %d", i+1, len(row), len(header))
		}
		record := make(map[string]string, len(header))
		for j, column := range header {
			record[column] = row[j]
		}
		records = append(records, record)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling json: %w", err)
	}

	if err := os.WriteFile(e.filePath, data, 0o600); err != nil {
		return fmt.Errorf("writing json file: %w", err)
	}

	e.logger.Info("exported expenses to json", "file", e.filePath, "count", len(records))
	return nil
}

// Plugin registers the JSON exporter with an export.Registry.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "json"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Write expenses to a JSON file"
}

// RequiredScopes returns nil; no OAuth is involved.
func (p *Plugin) RequiredScopes() []string {
	return nil
}

// NewExporter creates a JSON exporter from its JSON configuration.
func (p *Plugin) NewExporter(_ context.Context, _ *http.Client, configData json.RawMessage, logger *slog.Logger) (api.Exporter, error) {
	var cfg Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling json config: %w", err)
	}
	return New(cfg, logger)
}
