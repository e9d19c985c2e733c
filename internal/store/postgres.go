package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/clip-curator/internal/types"
)

// schemaSQL creates the result table. asset_id is the primary key so the
// database enforces one row per asset even with several writers.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS clip_results (
	seq        BIGSERIAL,
	asset_id   TEXT PRIMARY KEY,
	filename   TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	decision   TEXT NOT NULL DEFAULT '',
	metrics    JSONB,
	run_id     UUID,
	catalog_index INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS clip_results_seq_idx ON clip_results (seq);
ALTER TABLE clip_results ADD COLUMN IF NOT EXISTS catalog_index INTEGER NOT NULL DEFAULT 0;
`

// PostgresStore keeps result records in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres establishes a connection pool to the database.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, &Error{Location: "postgres", Op: "connect", Cause: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &Error{Location: "postgres", Op: "ping", Cause: err}
	}
	return &PostgresStore{pool: pool}, nil
}

// Migrate creates the result table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return &Error{Location: "postgres", Op: "migrate", Cause: err}
	}
	return nil
}

// DoneIDs returns every recorded asset id.
func (s *PostgresStore) DoneIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, `SELECT asset_id FROM clip_results`)
	if err != nil {
		return nil, &Error{Location: "postgres", Op: "query done ids", Cause: err}
	}
	defer rows.Close()

	done := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, &Error{Location: "postgres", Op: "scan done id", Cause: err}
		}
		done[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, &Error{Location: "postgres", Op: "iterate done ids", Cause: err}
	}
	return done, nil
}

// Append inserts rec. An existing asset_id is left untouched and reported as ErrDuplicate.
func (s *PostgresStore) Append(ctx context.Context, rec types.ResultRecord) error {
	var metricsJSON []byte
	if rec.Metrics != nil {
		var err error
		metricsJSON, err = json.Marshal(rec.Metrics)
		if err != nil {
			return &Error{Location: "postgres", Op: "marshal metrics", Cause: err}
		}
	}

	var runID *uuid.UUID
	if rec.RunID != "" {
		id, err := uuid.Parse(rec.RunID)
		if err != nil {
			return &Error{Location: "postgres", Op: "parse run id", Cause: err}
		}
		runID = &id
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO clip_results (asset_id, filename, status, error, decision, metrics, run_id, catalog_index)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (asset_id) DO NOTHING`,
		rec.AssetID, rec.Filename, string(rec.Status), rec.Error, string(rec.Decision), metricsJSON, runID, rec.CatalogIndex,
	)
	if err != nil {
		return &Error{Location: "postgres", Op: "insert " + rec.AssetID, Cause: err}
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrDuplicate, rec.AssetID)
	}
	return nil
}

// Load returns every record in insertion order.
func (s *PostgresStore) Load(ctx context.Context) ([]types.ResultRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT asset_id, filename, status, error, decision, metrics, run_id, catalog_index
		 FROM clip_results ORDER BY seq`)
	if err != nil {
		return nil, &Error{Location: "postgres", Op: "query records", Cause: err}
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.ResultRecord, error) {
		var (
			rec         types.ResultRecord
			status      string
			decision    string
			metricsJSON []byte
			runID       *uuid.UUID
		)
		if err := row.Scan(&rec.AssetID, &rec.Filename, &status, &rec.Error, &decision, &metricsJSON, &runID, &rec.CatalogIndex); err != nil {
			return rec, err
		}
		rec.Status = types.Status(status)
		if !rec.Status.Valid() {
			return rec, fmt.Errorf("asset %s has unknown status %q", rec.AssetID, status)
		}
		rec.Decision = types.Decision(decision)
		if runID != nil {
			rec.RunID = runID.String()
		}
		if len(metricsJSON) > 0 {
			var m types.Metrics
			if err := json.Unmarshal(metricsJSON, &m); err != nil {
				return rec, fmt.Errorf("failed to unmarshal metrics for %s: %w", rec.AssetID, err)
			}
			rec.Metrics = &m
		}
		return rec, nil
	})
	if err != nil {
		return nil, &Error{Location: "postgres", Op: "scan records", Cause: err}
	}
	return records, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
