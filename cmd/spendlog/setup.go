package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/ArionMiles/spendlog/pkg/client"
	"github.com/ArionMiles/spendlog/pkg/config"
	sheetsexport "github.com/ArionMiles/spendlog/pkg/export/sheets"
)

// runSetup handles the OAuth setup flow for the sheets sink.
func runSetup(ctx context.Context, cfg config.Config, args []string, logger *slog.Logger) error {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	force := fs.Bool("force", false, "discard the saved token and authorize again")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	secretsPath := cfg.Google.ClientSecretFile
	tokenFile := cfg.Google.TokenFile

	fmt.Println("=== spendlog setup ===")
	fmt.Println()

	if _, err := os.Stat(secretsPath); os.IsNotExist(err) {
		return fmt.Errorf("credentials file not found: %s\n\nTo get your credentials:\n"+
			"1. Go to https://console.cloud.google.com/apis/credentials\n"+
			"2. Create an OAuth 2.0 Client ID (Desktop application)\n"+
			"3. Download the JSON file and save it as '%s'", secretsPath, secretsPath)
	}

	if !*force {
		if _, err := os.Stat(tokenFile); err == nil {
			fmt.Printf("Already authenticated! Token file exists: %s\n", tokenFile)
			fmt.Println()
			fmt.Println("To re-authenticate, run: spendlog setup -force")
			return nil
		}
	} else {
		if err := os.Remove(tokenFile); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove existing token", "error", err)
		}
		fmt.Println("Forcing re-authentication...")
		fmt.Println()
	}

	plugin := &sheetsexport.Plugin{}
	fmt.Println("This will authorize spendlog to write to your Google Sheets.")
	fmt.Println()
	fmt.Println("Requested scopes:")
	for _, scope := range plugin.RequiredScopes() {
		fmt.Printf("  - %s\n", scope)
	}
	fmt.Println()

	_, err := client.New(ctx, client.Config{
		SecretFile:  secretsPath,
		TokenFile:   tokenFile,
		Interactive: true,
	}, logger.With("component", "oauth"), plugin.RequiredScopes()...)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	fmt.Println()
	fmt.Println("=== Setup Complete ===")
	fmt.Println()
	fmt.Printf("Token saved to: %s\n", tokenFile)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Set EXPORT_SINK=sheets (and GSHEETS_ID to reuse a spreadsheet)")
	fmt.Println("  2. Run 'spendlog export' or pick Export from the menu")
	fmt.Println()

	return nil
}
