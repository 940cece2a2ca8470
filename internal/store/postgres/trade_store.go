package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/policastlabs/policastd/internal/domain"
)

// TradeStore implements domain.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *pgxpool.Pool
}

// NewTradeStore creates a new TradeStore backed by the given pool.
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

var _ domain.TradeStore = (*TradeStore)(nil)

// Insert appends one trade to the log. Duplicate ids are ignored so a
// replayed confirmation does not double-count.
func (s *TradeStore) Insert(ctx context.Context, t domain.TradeRecord) error {
	const query = `
		INSERT INTO trades (id, user_address, market_id, option_id, side, quantity, cost, tx_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		t.ID, strings.ToLower(t.User), t.MarketID, t.OptionID, t.Side,
		bigText(t.Quantity), bigText(t.Cost), t.TxHash, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert trade %s: %w", t.ID, err)
	}
	return nil
}

const tradeCols = `id, user_address, market_id, option_id, side, quantity, cost, tx_hash, created_at`

func (s *TradeStore) list(ctx context.Context, where string, arg any, opts domain.ListOpts) ([]domain.TradeRecord, error) {
	query := `SELECT ` + tradeCols + ` FROM trades WHERE ` + where + ` ORDER BY created_at DESC`
	args := []any{arg}
	argIdx := 2

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trades: %w", err)
	}
	defer rows.Close()

	var trades []domain.TradeRecord
	for rows.Next() {
		var (
			t        domain.TradeRecord
			quantity string
			cost     string
		)
		if err := rows.Scan(&t.ID, &t.User, &t.MarketID, &t.OptionID, &t.Side,
			&quantity, &cost, &t.TxHash, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan trade: %w", err)
		}
		t.Quantity = bigFromText(quantity)
		t.Cost = bigFromText(cost)
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list trades rows: %w", err)
	}
	return trades, nil
}

// ListByUser returns a user's trades, newest first.
func (s *TradeStore) ListByUser(ctx context.Context, user string, opts domain.ListOpts) ([]domain.TradeRecord, error) {
	return s.list(ctx, "user_address = $1", strings.ToLower(user), opts)
}

// ListByMarket returns a market's trades, newest first.
func (s *TradeStore) ListByMarket(ctx context.Context, marketID uint64, opts domain.ListOpts) ([]domain.TradeRecord, error) {
	return s.list(ctx, "market_id = $1", marketID, opts)
}

// CountByUser returns the number of trades a user has made.
func (s *TradeStore) CountByUser(ctx context.Context, user string) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM trades WHERE user_address = $1`,
		strings.ToLower(user)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: count trades for %s: %w", user, err)
	}
	return count, nil
}

// Participants returns the distinct wallets that appear in the trade log.
// The leaderboard ranks these against contract-reported portfolios.
func (s *TradeStore) Participants(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT user_address FROM trades`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list participants: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("postgres: scan participant: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list participants rows: %w", err)
	}
	return users, nil
}
