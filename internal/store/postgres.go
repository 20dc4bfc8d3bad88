package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/iwvelando/exit-valuation/pkg/constants"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the runs table. Request and result are kept as JSONB.
const Schema = `
CREATE TABLE IF NOT EXISTS valuation_runs (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	request     JSONB NOT NULL,
	result      JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS valuation_runs_created_at_idx ON valuation_runs (created_at DESC);
`

// Postgres stores runs in the valuation_runs table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to databaseURL and ensures the schema exists.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL not set")
	}
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	if _, err := pool.Exec(ctx, Schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Save upserts run by ID.
func (p *Postgres) Save(ctx context.Context, run Run) error {
	query := `
		INSERT INTO valuation_runs (id, kind, created_at, request, result)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id)
		DO UPDATE SET
			kind = EXCLUDED.kind,
			created_at = EXCLUDED.created_at,
			request = EXCLUDED.request,
			result = EXCLUDED.result;
	`
	_, err := p.pool.Exec(ctx, query, run.ID, string(run.Kind), run.CreatedAt,
		[]byte(run.Request), []byte(run.Result))
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// Get loads the run with the given ID.
func (p *Postgres) Get(ctx context.Context, id string) (Run, error) {
	query := `SELECT id, kind, created_at, request, result FROM valuation_runs WHERE id = $1`

	var (
		run             Run
		kind            string
		request, result []byte
	)
	err := p.pool.QueryRow(ctx, query, id).Scan(&run.ID, &kind, &run.CreatedAt, &request, &result)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Run{}, ErrNotFound
		}
		return Run{}, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	run.Kind = Kind(kind)
	run.Request = request
	run.Result = result
	return run, nil
}

// List returns up to limit summaries, newest first.
func (p *Postgres) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = constants.DefaultRunListLimit
	}
	query := `SELECT id, kind, created_at FROM valuation_runs ORDER BY created_at DESC, id LIMIT $1`

	rows, err := p.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	out := make([]Summary, 0, limit)
	for rows.Next() {
		var (
			s    Summary
			kind string
		)
		if err := rows.Scan(&s.ID, &kind, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.Kind = Kind(kind)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return out, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}
