// Package client provides OAuth2 client setup for the Google Sheets export.
package client

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// DefaultCallbackPort is the port for the local OAuth callback server.
	DefaultCallbackPort = 8085
	// callbackPath is the path for the OAuth callback.
	callbackPath = "/callback"
	// serverTimeout is how long to wait for the OAuth callback.
	serverTimeout = 5 * time.Minute
)

// ErrNoToken is returned when no saved token exists and the browser flow is disabled.
var ErrNoToken = errors.New("no saved OAuth token, run `spendlog setup` first")

// Config controls where credentials live and whether the browser flow may run.
type Config struct {
	// SecretFile is the OAuth client secret downloaded from Google Cloud.
	SecretFile string
	// TokenFile caches the token obtained by the browser flow.
	TokenFile string
	// Interactive allows the browser consent flow when no token is saved.
	Interactive bool
	// Out receives instructions for the browser flow. Defaults to os.Stdout.
	Out io.Writer
	// CallbackPort defaults to DefaultCallbackPort.
	CallbackPort int
}

// New creates an HTTP client with OAuth2 credentials read from cfg.SecretFile.
func New(ctx context.Context, cfg Config, logger *slog.Logger, scope ...string) (*http.Client, error) {
	b, err := os.ReadFile(cfg.SecretFile)
	if err != nil {
		return nil, fmt.Errorf("reading client secret file: %w", err)
	}

	return NewFromJSON(ctx, b, cfg, logger, scope...)
}

// NewFromJSON creates an HTTP client with OAuth2 credentials from JSON content.
func NewFromJSON(ctx context.Context, secretJSON []byte, cfg Config, logger *slog.Logger, scope ...string) (*http.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.CallbackPort == 0 {
		cfg.CallbackPort = DefaultCallbackPort
	}

	oauthCfg, err := google.ConfigFromJSON(secretJSON, scope...)
	if err != nil {
		return nil, fmt.Errorf("parsing client secret: %w", err)
	}

	tok, err := LoadToken(cfg.TokenFile)
	if err != nil {
		if !cfg.Interactive {
			return nil, ErrNoToken
		}

		logger.Info("no existing token found, initiating OAuth flow")
		tok, err = tokenFromWeb(ctx, oauthCfg, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("getting oauth token: %w", err)
		}
		if err := SaveToken(cfg.TokenFile, tok); err != nil {
			logger.Error("failed to save token", "error", err)
		} else {
			logger.Info("saved credential file", "path", cfg.TokenFile)
		}
	}

	return oauthCfg.Client(ctx, tok), nil
}

func tokenFromWeb(ctx context.Context, oauthCfg *oauth2.Config, cfg Config, logger *slog.Logger) (*oauth2.Token, error) {
	oauthCfg.RedirectURL = fmt.Sprintf("http://localhost:%d%s", cfg.CallbackPort, callbackPath)

	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generating state token: %w", err)
	}

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	server, err := startCallbackServer(ctx, cfg.CallbackPort, callbackHandler(state, codeChan, errChan), errChan, logger)
	if err != nil {
		return nil, fmt.Errorf("starting callback server: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error shutting down callback server", "error", err)
		}
	}()

	authURL := oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline)

	fmt.Fprintf(cfg.Out, "\nOpening browser for Google authentication...\n")
	fmt.Fprintf(cfg.Out, "If the browser doesn't open automatically, visit this URL:\n%s\n\n", authURL)

	if err := openBrowser(ctx, authURL); err != nil {
		logger.Warn("failed to open browser automatically", "error", err)
	}

	select {
	case code := <-codeChan:
		tok, err := oauthCfg.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("exchanging authorization code for token: %w", err)
		}
		fmt.Fprintln(cfg.Out, "Authentication successful!")
		return tok, nil
	case err := <-errChan:
		return nil, fmt.Errorf("oauth callback error: %w", err)
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(serverTimeout):
		return nil, fmt.Errorf("oauth flow timed out after %v", serverTimeout)
	}
}

// callbackHandler checks the state and forwards the authorization code.
func callbackHandler(expectedState string, codeChan chan<- string, errChan chan<- error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if state := q.Get("state"); state != expectedState {
			sendErr(errChan, errors.New("invalid state parameter"))
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		if errMsg := q.Get("error"); errMsg != "" {
			sendErr(errChan, fmt.Errorf("%s: %s", errMsg, q.Get("error_description")))
			http.Error(w, fmt.Sprintf("Authentication failed: %s", errMsg), http.StatusBadRequest)
			return
		}

		code := q.Get("code")
		if code == "" {
			sendErr(errChan, errors.New("no authorization code received"))
			http.Error(w, "No authorization code received", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, `<!DOCTYPE html>
<html>
<head><title>spendlog authorized</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 20vh;">
<h1>spendlog is authorized</h1>
<p>You can close this window and return to the terminal.</p>
</body>
</html>`)

		select {
		case codeChan <- code:
		default:
		}
	}
}

// sendErr never blocks; only the first callback error matters.
func sendErr(errChan chan<- error, err error) {
	select {
	case errChan <- err:
	default:
	}
}

func startCallbackServer(ctx context.Context, port int, handler http.Handler, errChan chan<- error, logger *slog.Logger) (*http.Server, error) {
	mux := http.NewServeMux()
	mux.Handle(callbackPath, handler)

	server := &http.Server{
		Addr:              fmt.Sprintf("localhost:%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", server.Addr)
	if err != nil {
		return nil, fmt.Errorf("port %d unavailable: %w", port, err)
	}

	go func() {
		logger.Debug("starting OAuth callback server", "port", port)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("callback server error", "error", err)
			sendErr(errChan, err)
		}
	}()

	return server, nil
}

func openBrowser(ctx context.Context, url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", url)
	case "linux":
		cmd = exec.CommandContext(ctx, "xdg-open", url)
	case "windows":
		cmd = exec.CommandContext(ctx, "cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// LoadToken reads a cached token.
func LoadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decoding token %s: %w", path, err)
	}
	return tok, nil
}

// SaveToken writes the token with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating token file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	return nil
}
