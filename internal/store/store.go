// Package store persists evaluation runs.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a run ID is unknown.
var ErrNotFound = errors.New("run not found")

// Kind names the stage a run evaluated.
type Kind string

const (
	KindValuation Kind = "valuation"
	KindCashflow  Kind = "cashflow"
	KindDeals     Kind = "deals"
	KindEvaluate  Kind = "evaluate"
)

// Run is one stored evaluation. Request and Result hold the snake_case wire
// documents.
type Run struct {
	ID        string          `json:"id"`
	Kind      Kind            `json:"kind"`
	CreatedAt time.Time       `json:"created_at"`
	Request   json.RawMessage `json:"request"`
	Result    json.RawMessage `json:"result"`
}

// Summary is the list view of a run.
type Summary struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Store saves and loads runs. Implementations are safe for concurrent use.
type Store interface {
	Save(ctx context.Context, run Run) error
	Get(ctx context.Context, id string) (Run, error)
	// List returns the newest runs first, at most limit of them.
	List(ctx context.Context, limit int) ([]Summary, error)
	Close()
}
