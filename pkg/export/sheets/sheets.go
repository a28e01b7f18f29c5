// Package sheets implements an exporter that mirrors expenses into a Google Sheet.
package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ArionMiles/spendlog/pkg/api"
	"github.com/ArionMiles/spendlog/pkg/export"
)

// Defaults for appends.
const (
	DefaultBatchSize  = 100
	DefaultRetryDelay = 60 * time.Second
	retryAttempts     = 3
)

// Config holds configuration for the Sheets exporter.
type Config struct {
	// SheetID is the ID of an existing spreadsheet to use.
	SheetID string `json:"sheetId,omitempty"`
	// SheetTitle is the title for a new spreadsheet, used when SheetID is
	// empty or cannot be opened.
	SheetTitle string `json:"sheetTitle,omitempty"`
	// SheetName is the tab inside the spreadsheet that receives the rows.
	SheetName string `json:"sheetName"`
	// BatchSize is the number of rows sent per append call.
	BatchSize int `json:"batchSize,omitempty"`
	// RetryDelay is the wait between attempts after the API rate limits us.
	RetryDelay time.Duration `json:"-"`
}

// Exporter replaces the contents of one sheet tab with the export snapshot.
type Exporter struct {
	client      *sheets.Service
	cfg         Config
	logger      *slog.Logger
	spreadsheet string
}

// New creates a Sheets exporter on top of an authorized service.
func New(client *sheets.Service, cfg Config, logger *slog.Logger) (*Exporter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SheetName == "" {
		return nil, errors.New("sheetName is required")
	}
	if cfg.SheetID == "" && cfg.SheetTitle == "" {
		return nil, errors.New("one of sheetId or sheetTitle is required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	return &Exporter{
		client: client,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Export clears the sheet tab, writes the header row and appends rows in batches.
func (e *Exporter) Export(ctx context.Context, header []string, rows [][]string) error {
	spreadsheet, err := e.openSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("opening spreadsheet: %w", err)
	}
	e.spreadsheet = spreadsheet.SpreadsheetId

	if err := e.ensureTab(ctx, spreadsheet); err != nil {
		return err
	}

	if _, err := e.client.Spreadsheets.Values.Clear(e.spreadsheet, e.cfg.SheetName, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("clearing sheet %s: %w", e.cfg.SheetName, err)
	}

	headerReq := sheets.ValueRange{Values: [][]any{toCells(header)}}
	if _, err := e.client.Spreadsheets.Values.Update(e.spreadsheet, e.cfg.SheetName+"!A1", &headerReq).
		ValueInputOption("RAW").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for start := 0; start < len(rows); start += e.cfg.BatchSize {
		end := min(start+e.cfg.BatchSize, len(rows))
		if err := e.appendBatch(ctx, rows[start:end]); err != nil {
			return err
		}
	}

	e.logger.Info("exported expenses to sheets",
		"spreadsheet_id", e.spreadsheet,
		"sheet", e.cfg.SheetName,
		"count", len(rows),
	)
	return nil
}

// SpreadsheetID returns the ID of the spreadsheet written by the last export.
func (e *Exporter) SpreadsheetID() string {
	return e.spreadsheet
}

func (e *Exporter) openSpreadsheet(ctx context.Context) (*sheets.Spreadsheet, error) {
	if e.cfg.SheetID != "" {
		spreadsheet, err := e.client.Spreadsheets.Get(e.cfg.SheetID).Context(ctx).Do()
		if err == nil {
			e.logger.Info("using existing spreadsheet", "title", spreadsheet.Properties.Title, "id", e.cfg.SheetID)
			return spreadsheet, nil
		}
		if e.cfg.SheetTitle == "" {
			return nil, fmt.Errorf("getting spreadsheet %s: %w", e.cfg.SheetID, err)
		}
		e.logger.Warn("failed to get spreadsheet, will create new one", "id", e.cfg.SheetID, "error", err)
	}

	spreadsheet, err := e.client.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: e.cfg.SheetTitle},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: e.cfg.SheetName}},
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("creating spreadsheet: %w", err)
	}

	e.logger.Info("created new spreadsheet", "title", e.cfg.SheetTitle, "id", spreadsheet.SpreadsheetId)
	return spreadsheet, nil
}

// ensureTab adds the configured tab when the spreadsheet does not have it yet.
func (e *Exporter) ensureTab(ctx context.Context, spreadsheet *sheets.Spreadsheet) error {
	for _, s := range spreadsheet.Sheets {
		if s.Properties != nil && s.Properties.Title == e.cfg.SheetName {
			return nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: e.cfg.SheetName},
			}},
		},
	}
	if _, err := e.client.Spreadsheets.BatchUpdate(e.spreadsheet, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("adding sheet %s: %w", e.cfg.SheetName, err)
	}

	e.logger.Info("added sheet to spreadsheet", "sheet", e.cfg.SheetName)
	return nil
}

func (e *Exporter) appendBatch(ctx context.Context, rows [][]string) error {
	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		values = append(values, toCells(row))
	}
	writeReq := sheets.ValueRange{Values: values}

	err := retry.Do(
		func() error {
			_, err := e.client.Spreadsheets.Values.Append(e.spreadsheet, e.cfg.SheetName+"!A2", &writeReq).
				ValueInputOption("USER_ENTERED").
				InsertDataOption("INSERT_ROWS").
				Context(ctx).
				Do()
			return err
		},
		retry.RetryIf(func(err error) bool {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
				e.logger.Warn("rate limited, will retry", "error", err)
				return true
			}
			return false
		}),
		retry.Context(ctx),
		retry.Attempts(retryAttempts),
		retry.Delay(e.cfg.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("appending batch to sheet: %w", err)
	}

	e.logger.Debug("appended batch", "count", len(rows))
	return nil
}

func toCells(row []string) []any {
	cells := make([]any, len(row))
	for i, v := range row {
		cells[i] = export.EscapeFormula(v)
	}
	return cells
}

// Plugin registers the Sheets exporter with an export.Registry.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "sheets"
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Mirror expenses into a Google Sheet"
}

// RequiredScopes returns the OAuth scopes needed to edit spreadsheets.
func (p *Plugin) RequiredScopes() []string {
	return []string{sheets.SpreadsheetsScope}
}

// NewExporter creates a Sheets exporter using an OAuth-authorized client.
func (p *Plugin) NewExporter(ctx context.Context, httpClient *http.Client, configData json.RawMessage, logger *slog.Logger) (api.Exporter, error) {
	if httpClient == nil {
		return nil, errors.New("sheets export requires an authorized http client")
	}

	var cfg Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling sheets config: %w", err)
	}

	client, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return New(client, cfg, logger)
}
