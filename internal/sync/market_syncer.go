// Package sync keeps the local projection current: the subgraph feeds the
// market table, the chain feeds the odds cache, and every refresh fans out
// over the signal bus to WebSocket clients.
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/policastlabs/policastd/internal/chain"
	"github.com/policastlabs/policastd/internal/domain"
)

// MarketSource pages markets out of the subgraph.
type MarketSource interface {
	FetchMarkets(ctx context.Context, first, skip int) ([]domain.Market, error)
}

// OptionReader reads option metadata from contract views. The subgraph does
// not index options, so every fetched market is completed here before it
// reaches the sink.
type OptionReader interface {
	GetMarketInfo(ctx context.Context, marketID uint64) (chain.MarketInfo, error)
	GetMarketOption(ctx context.Context, marketID, optionID uint64) (chain.OptionInfo, error)
}

// MarketSink persists a batch of market projections.
type MarketSink interface {
	SyncMarkets(ctx context.Context, markets []domain.Market) error
}

// MarketSyncer pulls the full market set from the subgraph, fills in each
// market's option list from the contract, and pushes the batch into the
// projection, announcing each completed pass on ch:markets.
type MarketSyncer struct {
	source  MarketSource
	options OptionReader
	sink    MarketSink
	bus     domain.SignalBus
	logger  *slog.Logger
}

// NewMarketSyncer creates a MarketSyncer.
func NewMarketSyncer(source MarketSource, options OptionReader, sink MarketSink, bus domain.SignalBus, logger *slog.Logger) *MarketSyncer {
	return &MarketSyncer{
		source:  source,
		options: options,
		sink:    sink,
		bus:     bus,
		logger:  logger.With(slog.String("component", "market_syncer")),
	}
}

// Run executes one full sync pass, paginating through the subgraph and
// upserting each batch.
func (s *MarketSyncer) Run(ctx context.Context) error {
	const pageSize = 100
	skip := 0
	total := 0

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("sync: cancelled: %w", err)
		}

		markets, err := s.source.FetchMarkets(ctx, pageSize, skip)
		if err != nil {
			return fmt.Errorf("sync: fetch markets at skip %d: %w", skip, err)
		}
		if len(markets) == 0 {
			break
		}

		for i := range markets {
			if err := s.fillOptions(ctx, &markets[i]); err != nil {
				s.logger.WarnContext(ctx, "option backfill failed",
					slog.Uint64("market_id", markets[i].ID),
					slog.String("error", err.Error()),
				)
			}
		}

		if err := s.sink.SyncMarkets(ctx, markets); err != nil {
			return fmt.Errorf("sync: persist %d markets at skip %d: %w", len(markets), skip, err)
		}

		total += len(markets)
		if len(markets) < pageSize {
			break
		}
		skip += pageSize
	}

	s.announce(ctx, total)
	s.logger.InfoContext(ctx, "market sync complete", slog.Int("total", total))
	return nil
}

// RunLoop runs sync passes on a repeating interval until the context is
// cancelled. Individual pass failures are logged, not fatal.
func (s *MarketSyncer) RunLoop(ctx context.Context, interval time.Duration) error {
	if err := s.Run(ctx); err != nil {
		s.logger.ErrorContext(ctx, "market sync failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "market sync loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.Run(ctx); err != nil {
				s.logger.ErrorContext(ctx, "market sync failed", slog.String("error", err.Error()))
			}
		}
	}
}

// fillOptions reads the market's option count and then each option in id
// order, so the projected list stays positionally aligned with the
// contract's share and odds vectors.
func (s *MarketSyncer) fillOptions(ctx context.Context, m *domain.Market) error {
	info, err := s.options.GetMarketInfo(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("market info: %w", err)
	}

	options := make([]domain.MarketOption, 0, info.OptionCount)
	for id := uint64(0); id < info.OptionCount; id++ {
		opt, err := s.options.GetMarketOption(ctx, m.ID, id)
		if err != nil {
			return fmt.Errorf("option %d: %w", id, err)
		}
		options = append(options, domain.MarketOption{
			Name:        opt.Name,
			Description: opt.Description,
			TotalShares: opt.TotalShares,
			TotalVolume: opt.TotalVolume,
			RawPrice:    opt.RawPrice,
		})
	}
	m.Options = options
	return nil
}

// announce publishes a markets_synced event so clients refetch listings.
func (s *MarketSyncer) announce(ctx context.Context, count int) {
	payload, err := json.Marshal(map[string]any{
		"type": "markets_synced",
		"payload": map[string]any{
			"count":     count,
			"synced_at": time.Now().UTC(),
		},
	})
	if err != nil {
		return
	}
	if err := s.bus.Publish(ctx, "ch:markets", payload); err != nil {
		s.logger.WarnContext(ctx, "publish markets_synced failed",
			slog.String("error", err.Error()),
		)
	}
}
