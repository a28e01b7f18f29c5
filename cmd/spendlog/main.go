package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ArionMiles/spendlog/pkg/config"
	"github.com/ArionMiles/spendlog/pkg/export"
	"github.com/ArionMiles/spendlog/pkg/ledger"
	"github.com/ArionMiles/spendlog/pkg/logging"
	"github.com/ArionMiles/spendlog/pkg/storage"
)

func main() {
	config.LoadEnvFile()

	command := "run"
	args := os.Args[1:]
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	switch command {
	case "help", "-h", "--help":
		printUsage(os.Stdout, newRegistry())
		return
	case "run", "export", "status", "setup":
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage(os.Stderr, newRegistry())
		os.Exit(2)
	}

	configPath := os.Getenv("SPENDLOG_CONFIG")
	if configPath == "" {
		configPath = config.DefaultConfigFile
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.NewConfig(cfg.LogLevel, cfg.LogJSON))

	if command == "status" {
		// status reports configuration problems instead of refusing to start
		if err := runStatus(cfg, configPath, os.Stdout); err != nil {
			os.Exit(1)
		}
		return
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration:\n%v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	switch command {
	case "run":
		err = runInteractive(ctx, cfg, logger)
	case "export":
		err = runExport(ctx, cfg, args, logger)
	case "setup":
		err = runSetup(ctx, cfg, args, logger)
	}
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer, registry *export.Registry) {
	fmt.Fprintln(w, "spendlog - personal expense tracker")
	fmt.Fprintln(w, "\nUsage:")
	fmt.Fprintln(w, "  spendlog [command] [options]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  run       Interactive menu (default)")
	fmt.Fprintln(w, "  export    Export all expenses (-to sink, -out path)")
	fmt.Fprintln(w, "  status    Show configuration, data file and credential status")
	fmt.Fprintln(w, "  setup     Authorize Google Sheets export (-force to re-authorize)")
	fmt.Fprintln(w, "  help      Show this help message")
	fmt.Fprintln(w, "\nExport sinks:")
	printSinks(w, registry)
	fmt.Fprintln(w, "\nConfiguration is read from config.json (or $SPENDLOG_CONFIG), .env and the environment.")
}

func printSinks(w io.Writer, registry *export.Registry) {
	for _, p := range registry.List() {
		fmt.Fprintf(w, "  %-9s %s\n", p.Name(), p.Description())
	}
}

func openLedger(cfg config.Config, logger *slog.Logger) *ledger.Ledger {
	store := storage.New(cfg.ExpensesFile, logger.With("component", "storage"))
	return ledger.New(store, ledger.Options{Logger: logger.With("component", "ledger")})
}

// runInteractive starts the menu on stdin and stdout. Cancelling ctx aborts
// any export in flight, then saves and ends the session.
func runInteractive(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	registry := newRegistry()
	s := newSession(ctx, openLedger(cfg, logger), os.Stdin, os.Stdout, cfg.CategoryList())
	s.freeform = cfg.CategoryFreeform
	s.logger = logger.With("component", "session")
	s.exportLabel = cfg.ExportSink
	s.export = func(ctx context.Context, records [][]string) (string, error) {
		return exportSnapshot(ctx, registry, cfg, cfg.ExportSink, "", records, logger)
	}
	return s.run()
}
