// Package export provides a registry of export sinks and the snapshot runner.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/ArionMiles/spendlog/pkg/api"
)

// Plugin describes an export sink.
type Plugin interface {
	// Name returns the sink name (e.g., "csv", "sheets").
	Name() string
	// Description returns a human-readable description.
	Description() string
	// RequiredScopes returns the OAuth scopes needed by this sink.
	RequiredScopes() []string
	// NewExporter creates an exporter from the sink's JSON configuration.
	// httpClient is nil unless RequiredScopes is non-empty.
	NewExporter(ctx context.Context, httpClient *http.Client, config json.RawMessage, logger *slog.Logger) (api.Exporter, error)
}

// Registry manages the available export sinks.
type Registry struct {
	plugins map[string]Plugin
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register adds a plugin. Names must be unique.
func (r *Registry) Register(plugin Plugin) error {
	name := plugin.Name()
	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("export plugin %q already registered", name)
	}
	r.plugins[name] = plugin
	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) (Plugin, error) {
	plugin, exists := r.plugins[name]
	if !exists {
		return nil, fmt.Errorf("export plugin %q not found (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return plugin, nil
}

// Names returns the registered plugin names in alphabetical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// List returns the registered plugins ordered by name.
func (r *Registry) List() []Plugin {
	plugins := make([]Plugin, 0, len(r.plugins))
	for _, name := range r.Names() {
		plugins = append(plugins, r.plugins[name])
	}
	return plugins
}

// Create builds an exporter from the named plugin.
func (r *Registry) Create(ctx context.Context, name string, httpClient *http.Client, config json.RawMessage, logger *slog.Logger) (api.Exporter, error) {
	plugin, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return plugin.NewExporter(ctx, httpClient, config, logger)
}

// Snapshot sends records, whose first row is the header, to exp and closes it
// afterwards when it holds resources.
func Snapshot(ctx context.Context, exp api.Exporter, records [][]string) error {
	if c, ok := exp.(api.Closer); ok {
		defer c.Close()
	}

	if len(records) == 0 {
		return errors.New("export records must start with a header row")
	}

	if err := exp.Export(ctx, records[0], records[1:]); err != nil {
		return fmt.Errorf("exporting records: %w", err)
	}
	return nil
}
