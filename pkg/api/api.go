// Package api defines the core data structures shared across spendlog.
package api

import (
	"context"
	"time"
)

// Expense is one recorded transaction.
type Expense struct {
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	// Timestamp is the creation time in UTC. Records written before timestamps
	// existed carry the zero value and omit the field on disk.
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// Persister loads and saves the full expense collection.
type Persister interface {
	Load() []Expense
	Save(expenses []Expense) error
}

// Exporter writes a snapshot of export rows to a destination.
// header names the columns of every row.
type Exporter interface {
	Export(ctx context.Context, header []string, rows [][]string) error
}

// Closer is implemented by exporters holding connections.
type Closer interface {
	Close()
}
