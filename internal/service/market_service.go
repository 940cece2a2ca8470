// Package service orchestrates the domain: stores and caches below,
// chain client and tx sequencer at the boundary, HTTP handlers above.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/policastlabs/policastd/internal/domain"
	"github.com/policastlabs/policastd/internal/listing"
	"github.com/policastlabs/policastd/internal/odds"
)

// OddsReader is the slice of the chain client the market service needs
// for live odds.
type OddsReader interface {
	GetMarketOdds(ctx context.Context, marketID uint64) ([]*big.Int, error)
}

// MarketView is a market projection paired with its display odds.
type MarketView struct {
	domain.Market
	Odds []float64 `json:"odds"`
}

// MarketService serves market listings and detail views. Reads go cache
// first, then the postgres projection; odds come from the odds cache with
// a live chain fallback.
type MarketService struct {
	markets   domain.MarketStore
	cache     domain.MarketCache
	oddsCache domain.OddsCache
	chain     OddsReader
	logger    *slog.Logger
}

// NewMarketService creates a MarketService with all required dependencies.
func NewMarketService(
	markets domain.MarketStore,
	cache domain.MarketCache,
	oddsCache domain.OddsCache,
	chain OddsReader,
	logger *slog.Logger,
) *MarketService {
	return &MarketService{
		markets:   markets,
		cache:     cache,
		oddsCache: oddsCache,
		chain:     chain,
		logger:    logger,
	}
}

// ListMarkets returns filtered, sorted market views. Filtering and sorting
// happen over the full projection; pagination is applied last so the page
// boundaries follow the sorted order.
func (s *MarketService) ListMarkets(ctx context.Context, filter listing.Filter, order listing.SortOrder, opts domain.ListOpts) ([]MarketView, error) {
	markets, err := s.markets.List(ctx, filter.Status, domain.ListOpts{})
	if err != nil {
		return nil, fmt.Errorf("market_service: list: %w", err)
	}

	markets = listing.Sort(listing.Apply(markets, filter), order)

	if opts.Offset > 0 {
		if opts.Offset >= len(markets) {
			markets = nil
		} else {
			markets = markets[opts.Offset:]
		}
	}
	if opts.Limit > 0 && len(markets) > opts.Limit {
		markets = markets[:opts.Limit]
	}

	views := make([]MarketView, 0, len(markets))
	for _, m := range markets {
		views = append(views, MarketView{Market: m, Odds: s.oddsFor(ctx, m)})
	}
	return views, nil
}

// GetMarket retrieves one market with live odds. Unknown ids map to
// domain.ErrNotFound.
func (s *MarketService) GetMarket(ctx context.Context, id uint64) (MarketView, error) {
	m, err := s.cache.Get(ctx, id)
	if err != nil {
		m, err = s.markets.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return MarketView{}, domain.ErrNotFound
			}
			return MarketView{}, fmt.Errorf("market_service: get %d: %w", id, err)
		}
		if cacheErr := s.cache.Set(ctx, m); cacheErr != nil {
			s.logger.WarnContext(ctx, "market_service: cache set failed",
				slog.Uint64("market_id", m.ID),
				slog.String("error", cacheErr.Error()),
			)
		}
	}

	return MarketView{Market: m, Odds: s.oddsFor(ctx, m)}, nil
}

// SyncMarkets upserts a batch of projections and invalidates their cache
// entries so subsequent reads pick up fresh data.
func (s *MarketService) SyncMarkets(ctx context.Context, markets []domain.Market) error {
	if len(markets) == 0 {
		return nil
	}

	if err := s.markets.UpsertBatch(ctx, markets); err != nil {
		return fmt.Errorf("market_service: upsert batch: %w", err)
	}

	for _, m := range markets {
		if err := s.cache.Invalidate(ctx, m.ID); err != nil {
			// Non-fatal: the cache entry expires on its own.
			s.logger.WarnContext(ctx, "market_service: cache invalidate failed",
				slog.Uint64("market_id", m.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "market_service: synced markets",
		slog.Int("count", len(markets)),
	)
	return nil
}

// oddsFor resolves a market's display odds: cached vector first, live
// chain read as fallback, raw projection weights as a last resort. Every
// path ends in the same normalization.
func (s *MarketService) oddsFor(ctx context.Context, m domain.Market) []float64 {
	if percents, err := s.oddsCache.Get(ctx, m.ID); err == nil {
		return percents
	}

	if raw, err := s.chain.GetMarketOdds(ctx, m.ID); err == nil {
		percents := odds.Normalize(raw)
		if cacheErr := s.oddsCache.Set(ctx, m.ID, percents); cacheErr != nil {
			s.logger.WarnContext(ctx, "market_service: odds cache set failed",
				slog.Uint64("market_id", m.ID),
				slog.String("error", cacheErr.Error()),
			)
		}
		return percents
	}

	raw := make([]*big.Int, len(m.Options))
	for i, opt := range m.Options {
		raw[i] = opt.RawPrice
	}
	return odds.Normalize(raw)
}
