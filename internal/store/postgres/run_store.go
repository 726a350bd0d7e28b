package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jackleZac/trading-algorithm/internal/domain"
)

// RunStore implements domain.RunStore using PostgreSQL.
type RunStore struct {
	pool *pgxpool.Pool
}

// NewRunStore creates a RunStore backed by pool.
func NewRunStore(pool *pgxpool.Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Start inserts the run row.
func (s *RunStore) Start(ctx context.Context, run domain.Run) error {
	const query = `
		INSERT INTO runs (id, mode, symbols, strategies, started_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.pool.Exec(ctx, query, run.ID, run.Mode, run.Symbols, run.Strategies, run.StartedAt.UTC()); err != nil {
		return fmt.Errorf("postgres: start run %s: %w", run.ID, err)
	}
	return nil
}

// Finish records the outcome of a run.
func (s *RunStore) Finish(ctx context.Context, run domain.Run) error {
	const query = `
		UPDATE runs SET finished_at = $2, bars = $3, intents = $4, error = $5
		WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, run.ID, run.FinishedAt, run.Bars, run.Intents, run.Error)
	if err != nil {
		return fmt.Errorf("postgres: finish run %s: %w", run.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: finish run %s: %w", run.ID, domain.ErrNotFound)
	}
	return nil
}

// GetByID loads a run.
func (s *RunStore) GetByID(ctx context.Context, id string) (domain.Run, error) {
	const query = `
		SELECT id, mode, symbols, strategies, started_at, finished_at, bars, intents, error
		FROM runs WHERE id = $1`
	var r domain.Run
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&r.ID, &r.Mode, &r.Symbols, &r.Strategies,
		&r.StartedAt, &r.FinishedAt, &r.Bars, &r.Intents, &r.Error,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Run{}, fmt.Errorf("postgres: run %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Run{}, fmt.Errorf("postgres: get run %s: %w", id, err)
	}
	return r, nil
}
