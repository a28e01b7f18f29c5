package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ArionMiles/spendlog/pkg/client"
	"github.com/ArionMiles/spendlog/pkg/config"
	"github.com/ArionMiles/spendlog/pkg/export"
	csvexport "github.com/ArionMiles/spendlog/pkg/export/csv"
	jsonexport "github.com/ArionMiles/spendlog/pkg/export/json"
	pgexport "github.com/ArionMiles/spendlog/pkg/export/postgres"
	sheetsexport "github.com/ArionMiles/spendlog/pkg/export/sheets"
)

func newRegistry() *export.Registry {
	registry := export.NewRegistry()
	for _, p := range []export.Plugin{
		&csvexport.Plugin{},
		&jsonexport.Plugin{},
		&sheetsexport.Plugin{},
		&pgexport.Plugin{},
	} {
		if err := registry.Register(p); err != nil {
			panic(err)
		}
	}
	return registry
}

// runExport writes the stored expenses to a sink without opening the menu.
func runExport(ctx context.Context, cfg config.Config, args []string, logger *slog.Logger) error {
	registry := newRegistry()
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	to := fs.String("to", cfg.ExportSink, "export sink: "+strings.Join(registry.Names(), ", "))
	out := fs.String("out", "", "output file for the csv and json sinks (default EXPORT_FILE)")
	fs.Usage = func() {
		w := fs.Output()
		fmt.Fprintln(w, "Usage: spendlog export [-to sink] [-out path]")
		fs.PrintDefaults()
		fmt.Fprintln(w, "\nSinks:")
		printSinks(w, registry)
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	l := openLedger(cfg, logger)
	target, err := exportSnapshot(ctx, registry, cfg, *to, *out, l.ExportRecords(), logger)
	if err != nil {
		return err
	}

	ui := newTheme(os.Stdout)
	ui.Success("Exported %d expenses to %s", l.Len(), target)
	return nil
}

// exportSnapshot builds the named sink and sends records to it. It returns a
// description of the destination.
func exportSnapshot(ctx context.Context, registry *export.Registry, cfg config.Config, sink, out string, records [][]string, logger *slog.Logger) (string, error) {
	plugin, err := registry.Get(sink)
	if err != nil {
		return "", err
	}

	raw, target, err := sinkConfig(cfg, sink, out)
	if err != nil {
		return "", err
	}

	var httpClient *http.Client
	if scopes := plugin.RequiredScopes(); len(scopes) > 0 {
		httpClient, err = client.New(ctx, client.Config{
			SecretFile: cfg.Google.ClientSecretFile,
			TokenFile:  cfg.Google.TokenFile,
		}, logger.With("component", "oauth"), scopes...)
		if err != nil {
			return "", fmt.Errorf("creating http client: %w", err)
		}
	}

	exp, err := registry.Create(ctx, sink, httpClient, raw, logger.With("component", sink+"_exporter"))
	if err != nil {
		return "", fmt.Errorf("creating %s exporter: %w", sink, err)
	}

	if err := export.Snapshot(ctx, exp, records); err != nil {
		return "", err
	}

	if se, ok := exp.(*sheetsexport.Exporter); ok {
		target = "https://docs.google.com/spreadsheets/d/" + se.SpreadsheetID()
	}
	return target, nil
}

// sinkConfig translates the application config into the sink's JSON config.
func sinkConfig(cfg config.Config, sink, out string) (json.RawMessage, string, error) {
	var (
		v      any
		target string
	)

	switch sink {
	case "csv":
		path := out
		if path == "" {
			path = cfg.ExportFile
		}
		v, target = csvexport.Config{FilePath: path}, path
	case "json":
		path := out
		if path == "" {
			path = strings.TrimSuffix(cfg.ExportFile, filepath.Ext(cfg.ExportFile)) + "-export.json"
		}
		v, target = jsonexport.Config{FilePath: path}, path
	case "sheets":
		v = sheetsexport.Config{
			SheetID:    cfg.Google.SheetID,
			SheetTitle: cfg.Google.SheetTitle,
			SheetName:  cfg.Google.SheetName,
		}
		target = "Google Sheets"
	case "postgres":
		v = pgexport.Config{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
		}
		target = fmt.Sprintf("postgres://%s:%d/%s", cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.Database)
	default:
		return nil, "", fmt.Errorf("unknown export sink %q", sink)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, "", fmt.Errorf("marshaling %s config: %w", sink, err)
	}
	return raw, target, nil
}
