package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jackleZac/trading-algorithm/internal/domain"
)

// IntentStore implements domain.IntentStore using PostgreSQL.
type IntentStore struct {
	pool *pgxpool.Pool
}

// NewIntentStore creates an IntentStore backed by pool.
func NewIntentStore(pool *pgxpool.Pool) *IntentStore {
	return &IntentStore{pool: pool}
}

const intentSelectCols = `id, run_id, strategy, symbol, action, side, size, price,
	stop_loss, take_profit, layer, reason, bar_time, created_at`

func scanIntentRows(rows pgx.Rows) ([]domain.TradeIntent, error) {
	var out []domain.TradeIntent
	for rows.Next() {
		var in domain.TradeIntent
		var action, side string
		if err := rows.Scan(
			&in.ID, &in.RunID, &in.Strategy, &in.Symbol, &action, &side,
			&in.Size, &in.Price, &in.StopLoss, &in.TakeProfit,
			&in.Layer, &in.Reason, &in.BarTime, &in.CreatedAt,
		); err != nil {
			return nil, err
		}
		in.Action = domain.IntentAction(action)
		in.Side = domain.Side(side)
		out = append(out, in)
	}
	return out, rows.Err()
}

// Insert stores an intent. Re-inserting the same ID is a no-op.
func (s *IntentStore) Insert(ctx context.Context, in domain.TradeIntent) error {
	const query = `
		INSERT INTO intents (
			id, run_id, strategy, symbol, action, side, size, price,
			stop_loss, take_profit, layer, reason, bar_time, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14
		) ON CONFLICT (id) DO NOTHING`
	_, err := s.pool.Exec(ctx, query,
		in.ID, in.RunID, in.Strategy, in.Symbol, string(in.Action), string(in.Side),
		in.Size, in.Price, in.StopLoss, in.TakeProfit,
		in.Layer, in.Reason, in.BarTime.UTC(), in.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("postgres: insert intent %s: %w", in.ID, err)
	}
	return nil
}

// ListByRun returns a run's intents in bar order.
func (s *IntentStore) ListByRun(ctx context.Context, runID string, opts domain.ListOpts) ([]domain.TradeIntent, error) {
	query := `SELECT ` + intentSelectCols + ` FROM intents WHERE run_id = $1 ORDER BY bar_time ASC, created_at ASC`
	args := []any{runID}
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list intents for run %s: %w", runID, err)
	}
	defer rows.Close()

	intents, err := scanIntentRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan intents: %w", err)
	}
	return intents, nil
}
