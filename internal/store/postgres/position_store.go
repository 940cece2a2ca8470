package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/policastlabs/policastd/internal/domain"
)

// PositionStore implements domain.PositionStore using PostgreSQL. The
// shares vector is stored as a JSONB array of decimal strings.
type PositionStore struct {
	pool *pgxpool.Pool
}

// NewPositionStore creates a new PositionStore backed by the given pool.
func NewPositionStore(pool *pgxpool.Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

var _ domain.PositionStore = (*PositionStore)(nil)

// UpsertBatch replaces position rows in a single batch.
func (s *PositionStore) UpsertBatch(ctx context.Context, positions []domain.Position) error {
	if len(positions) == 0 {
		return nil
	}

	const query = `
		INSERT INTO positions (id, user_address, market_id, shares, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			user_address = EXCLUDED.user_address,
			market_id    = EXCLUDED.market_id,
			shares       = EXCLUDED.shares,
			updated_at   = NOW()`

	batch := &pgx.Batch{}
	for _, p := range positions {
		shares, err := json.Marshal(p.Shares)
		if err != nil {
			return fmt.Errorf("postgres: marshal shares for position %s: %w", p.ID, err)
		}
		batch.Queue(query, p.ID, strings.ToLower(p.User), p.MarketID, shares)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range positions {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert position batch item %d: %w", i, err)
		}
	}
	return nil
}

// ListByUser returns all of a user's positions ordered by market id.
func (s *PositionStore) ListByUser(ctx context.Context, user string) ([]domain.Position, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_address, market_id, shares
		 FROM positions WHERE user_address = $1 ORDER BY market_id`,
		strings.ToLower(user))
	if err != nil {
		return nil, fmt.Errorf("postgres: list positions for %s: %w", user, err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		var (
			p      domain.Position
			shares []byte
		)
		if err := rows.Scan(&p.ID, &p.User, &p.MarketID, &shares); err != nil {
			return nil, fmt.Errorf("postgres: scan position: %w", err)
		}
		if err := json.Unmarshal(shares, &p.Shares); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal shares for position %s: %w", p.ID, err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list positions rows: %w", err)
	}
	return positions, nil
}

// DeleteByUser removes all of a user's position rows. The sync loop calls
// this before re-projecting, so stale markets drop out.
func (s *PositionStore) DeleteByUser(ctx context.Context, user string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM positions WHERE user_address = $1`, strings.ToLower(user)); err != nil {
		return fmt.Errorf("postgres: delete positions for %s: %w", user, err)
	}
	return nil
}
