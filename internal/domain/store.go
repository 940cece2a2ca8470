package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// MarketStore persists the local read projection of indexed markets.
type MarketStore interface {
	Upsert(ctx context.Context, market Market) error
	UpsertBatch(ctx context.Context, markets []Market) error
	GetByID(ctx context.Context, id uint64) (Market, error)
	List(ctx context.Context, status MarketStatus, opts ListOpts) ([]Market, error)
	Count(ctx context.Context) (int64, error)
}

// PositionStore persists per-user position projections.
type PositionStore interface {
	UpsertBatch(ctx context.Context, positions []Position) error
	ListByUser(ctx context.Context, user string) ([]Position, error)
	DeleteByUser(ctx context.Context, user string) error
}

// TradeStore persists the trade log used by the leaderboard and archiver.
type TradeStore interface {
	Insert(ctx context.Context, trade TradeRecord) error
	ListByUser(ctx context.Context, user string, opts ListOpts) ([]TradeRecord, error)
	ListByMarket(ctx context.Context, marketID uint64, opts ListOpts) ([]TradeRecord, error)
	CountByUser(ctx context.Context, user string) (int64, error)
	Participants(ctx context.Context) ([]string, error)
}
