package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/policastlabs/policastd/internal/domain"
)

// MarketStore implements domain.MarketStore using PostgreSQL. Options are
// stored as a JSONB document since their count varies per market.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a new MarketStore backed by the given connection pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

var _ domain.MarketStore = (*MarketStore)(nil)

const marketUpsert = `
	INSERT INTO markets (
		id, question, description, category, options,
		status, winning_option_id, creator, free_entry,
		early_resolution_allowed, volume, end_time, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9,
		$10, $11, $12, $13, NOW()
	)
	ON CONFLICT (id) DO UPDATE SET
		question                 = EXCLUDED.question,
		description              = EXCLUDED.description,
		category                 = EXCLUDED.category,
		options                  = EXCLUDED.options,
		status                   = EXCLUDED.status,
		winning_option_id        = EXCLUDED.winning_option_id,
		creator                  = EXCLUDED.creator,
		free_entry               = EXCLUDED.free_entry,
		early_resolution_allowed = EXCLUDED.early_resolution_allowed,
		volume                   = EXCLUDED.volume,
		end_time                 = EXCLUDED.end_time,
		updated_at               = NOW()`

func marketArgs(m domain.Market) ([]any, error) {
	options, err := json.Marshal(m.Options)
	if err != nil {
		return nil, fmt.Errorf("postgres: marshal options for market %d: %w", m.ID, err)
	}
	return []any{
		m.ID, m.Question, m.Description, int16(m.Category), options,
		string(m.Status), m.WinningOptionID, m.Creator, m.FreeEntry,
		m.EarlyResolutionAllowed, bigText(m.Volume), m.EndTime, m.CreatedAt,
	}, nil
}

// Upsert inserts or updates a single market.
func (s *MarketStore) Upsert(ctx context.Context, m domain.Market) error {
	args, err := marketArgs(m)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, marketUpsert, args...); err != nil {
		return fmt.Errorf("postgres: upsert market %d: %w", m.ID, err)
	}
	return nil
}

// UpsertBatch inserts or updates multiple markets in a single batch.
func (s *MarketStore) UpsertBatch(ctx context.Context, markets []domain.Market) error {
	if len(markets) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, m := range markets {
		args, err := marketArgs(m)
		if err != nil {
			return err
		}
		batch.Queue(marketUpsert, args...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range markets {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert market batch item %d: %w", i, err)
		}
	}
	return nil
}

const marketCols = `id, question, description, category, options,
	status, winning_option_id, creator, free_entry,
	early_resolution_allowed, volume, end_time, created_at, updated_at`

// scanMarket scans a single market row into a domain.Market.
func scanMarket(row pgx.Row) (domain.Market, error) {
	var (
		m        domain.Market
		category int16
		options  []byte
		status   string
		volume   string
	)
	err := row.Scan(
		&m.ID, &m.Question, &m.Description, &category, &options,
		&status, &m.WinningOptionID, &m.Creator, &m.FreeEntry,
		&m.EarlyResolutionAllowed, &volume, &m.EndTime, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return domain.Market{}, err
	}
	if err := json.Unmarshal(options, &m.Options); err != nil {
		return domain.Market{}, fmt.Errorf("unmarshal options for market %d: %w", m.ID, err)
	}
	m.Category = domain.MarketCategory(category)
	m.Status = domain.MarketStatus(status)
	m.Volume = bigFromText(volume)
	return m, nil
}

// GetByID retrieves a market by its contract id.
func (s *MarketStore) GetByID(ctx context.Context, id uint64) (domain.Market, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+marketCols+` FROM markets WHERE id = $1`, id)
	m, err := scanMarket(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Market{}, domain.ErrNotFound
		}
		return domain.Market{}, fmt.Errorf("postgres: get market %d: %w", id, err)
	}
	return m, nil
}

// List returns markets filtered by status, newest first. An empty status
// returns every market.
func (s *MarketStore) List(ctx context.Context, status domain.MarketStatus, opts domain.ListOpts) ([]domain.Market, error) {
	query := `SELECT ` + marketCols + ` FROM markets`
	args := []any{}
	argIdx := 1

	where := []string{}
	if status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, string(status))
		argIdx++
	}
	if opts.Since != nil {
		where = append(where, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		where = append(where, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *opts.Until)
		argIdx++
	}
	for i, w := range where {
		if i == 0 {
			query += " WHERE " + w
		} else {
			query += " AND " + w
		}
	}

	query += " ORDER BY created_at DESC"

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
		return nil, fmt.Errorf("postgres: list markets: %w", err)
	}
	defer rows.Close()

	var markets []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan market: %w", err)
		}
		markets = append(markets, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list markets rows: %w", err)
	}
	return markets, nil
}

// Count returns the total number of markets in the projection.
func (s *MarketStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM markets").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("postgres: count markets: %w", err)
	}
	return count, nil
}
