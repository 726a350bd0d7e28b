package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jackleZac/trading-algorithm/internal/domain"
)

// BarStore implements domain.BarStore using PostgreSQL.
type BarStore struct {
	pool *pgxpool.Pool
}

// NewBarStore creates a BarStore backed by pool.
func NewBarStore(pool *pgxpool.Pool) *BarStore {
	return &BarStore{pool: pool}
}

// InsertBatch upserts bars in one pgx batch. Rows already present for the
// same (symbol, timeframe, ts) are left alone. It returns the rows inserted.
func (s *BarStore) InsertBatch(ctx context.Context, symbol, timeframe string, bars []domain.Bar) (int64, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	const query = `
		INSERT INTO bars (symbol, timeframe, ts, open, high, low, close)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, timeframe, ts) DO NOTHING`

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(query, symbol, timeframe, b.Time.UTC(), b.Open, b.High, b.Low, b.Close)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	var inserted int64
	for i := range bars {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("postgres: insert bar batch item %d: %w", i, err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

// barListQuery builds the ascending bar query. Since is exclusive and Until
// inclusive so callers can page by the last bar time they saw.
func barListQuery(symbol, timeframe string, opts domain.ListOpts) (string, []any) {
	query := `SELECT ts, open, high, low, close FROM bars WHERE symbol = $1 AND timeframe = $2`
	args := []any{symbol, timeframe}
	if opts.Since != nil {
		args = append(args, opts.Since.UTC())
		query += fmt.Sprintf(" AND ts > $%d", len(args))
	}
	if opts.Until != nil {
		args = append(args, opts.Until.UTC())
		query += fmt.Sprintf(" AND ts <= $%d", len(args))
	}
	query += " ORDER BY ts ASC"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args
}

// ListBars returns bars oldest first.
func (s *BarStore) ListBars(ctx context.Context, symbol, timeframe string, opts domain.ListOpts) ([]domain.Bar, error) {
	query, args := barListQuery(symbol, timeframe, opts)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list bars %s/%s: %w", symbol, timeframe, err)
	}
	defer rows.Close()

	var bars []domain.Bar
	for rows.Next() {
		var b domain.Bar
		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close); err != nil {
			return nil, fmt.Errorf("postgres: scan bar: %w", err)
		}
		b.Time = b.Time.UTC()
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// LastTime returns the newest stored bar time, or the zero time when the
// symbol has no bars.
func (s *BarStore) LastTime(ctx context.Context, symbol, timeframe string) (time.Time, error) {
	var ts *time.Time
	err := s.pool.QueryRow(ctx,
		"SELECT MAX(ts) FROM bars WHERE symbol = $1 AND timeframe = $2", symbol, timeframe,
	).Scan(&ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("postgres: last bar time: %w", err)
	}
	if ts == nil {
		return time.Time{}, nil
	}
	return ts.UTC(), nil
}
