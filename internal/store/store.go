// Package store provides the append-only result store that records one outcome per asset.
// The store is the single source of truth for resuming a batch.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonathan/clip-curator/internal/types"
)

// ErrDuplicate is returned when appending an asset_id that is already recorded.
var ErrDuplicate = errors.New("asset already recorded")

// Reader loads the recorded results.
type Reader interface {
	// Load returns every record in insertion order.
	Load(ctx context.Context) ([]types.ResultRecord, error)
	// Close releases the underlying handle.
	Close() error
}

// Store is an append-only record of attempted assets keyed by asset_id.
type Store interface {
	Reader
	// DoneIDs returns the set of asset ids already recorded.
	DoneIDs(ctx context.Context) (map[string]struct{}, error)
	// Append durably writes rec. It returns ErrDuplicate if rec.AssetID exists.
	Append(ctx context.Context, rec types.ResultRecord) error
}

// Error represents a store I/O failure. These are fatal to a batch.
type Error struct {
	Location string
	Op       string
	Cause    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("result store %s: %s: %v", e.Location, e.Op, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options selects a store backend.
type Options struct {
	// Path of the CSV store, used when DatabaseURL is empty
	Path string
	// DatabaseURL selects the PostgreSQL store
	DatabaseURL string
}

// Open returns a PostgreSQL store when DatabaseURL is set and a CSV store otherwise.
func Open(ctx context.Context, opts Options) (Store, error) {
	if opts.DatabaseURL != "" {
		pg, err := OpenPostgres(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	}
	if opts.Path == "" {
		return nil, errors.New("either a store path or a database URL is required")
	}
	return OpenCSV(opts.Path)
}

// OpenReader opens a store for reading only. A CSV store is never created or
// truncated, so it is safe to read while a batch is appending to it.
func OpenReader(ctx context.Context, opts Options) (Reader, error) {
	if opts.DatabaseURL != "" {
		st, err := Open(ctx, opts)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	if opts.Path == "" {
		return nil, errors.New("either a store path or a database URL is required")
	}
	return NewCSVReader(opts.Path), nil
}

// Stats summarises store contents by status and decision.
type Stats struct {
	Total      int                    `json:"total"`
	ByStatus   map[types.Status]int   `json:"by_status"`
	ByDecision map[types.Decision]int `json:"by_decision"`
}

// Summarize counts records per status and decision.
func Summarize(records []types.ResultRecord) Stats {
	s := Stats{
		Total:      len(records),
		ByStatus:   make(map[types.Status]int),
		ByDecision: make(map[types.Decision]int),
	}
	for _, r := range records {
		s.ByStatus[r.Status]++
		if r.Decision != "" {
			s.ByDecision[r.Decision]++
		}
	}
	return s
}
