package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/policastlabs/policastd/internal/domain"
	"github.com/policastlabs/policastd/internal/odds"
)

// OddsSource reads a market's raw odds weights from the contract.
type OddsSource interface {
	GetMarketOdds(ctx context.Context, marketID uint64) ([]*big.Int, error)
}

// OddsRefresher polls the contract for every active market's odds, caches
// the normalized percentages, and publishes changes on ch:odds:{id}.
type OddsRefresher struct {
	markets domain.MarketStore
	chain   OddsSource
	cache   domain.OddsCache
	bus     domain.SignalBus
	logger  *slog.Logger

	// last holds the previously published vector per market so unchanged
	// odds do not generate traffic.
	last map[uint64][]float64
}

// NewOddsRefresher creates an OddsRefresher.
func NewOddsRefresher(
	markets domain.MarketStore,
	chain OddsSource,
	cache domain.OddsCache,
	bus domain.SignalBus,
	logger *slog.Logger,
) *OddsRefresher {
	return &OddsRefresher{
		markets: markets,
		chain:   chain,
		cache:   cache,
		bus:     bus,
		logger:  logger.With(slog.String("component", "odds_refresher")),
		last:    make(map[uint64][]float64),
	}
}

// Run refreshes odds for every active market once. Per-market failures are
// logged and skipped so one flaky read does not stall the rest.
func (r *OddsRefresher) Run(ctx context.Context) error {
	active, err := r.markets.List(ctx, domain.MarketStatusActive, domain.ListOpts{})
	if err != nil {
		return fmt.Errorf("sync: list active markets: %w", err)
	}

	refreshed := 0
	for _, m := range active {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("sync: cancelled: %w", err)
		}
		if err := r.refreshOne(ctx, m.ID); err != nil {
			r.logger.WarnContext(ctx, "odds refresh failed",
				slog.Uint64("market_id", m.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		refreshed++
	}

	r.logger.DebugContext(ctx, "odds refresh complete",
		slog.Int("active", len(active)),
		slog.Int("refreshed", refreshed),
	)
	return nil
}

// RunLoop runs refresh passes on a repeating interval until the context is
// cancelled.
func (r *OddsRefresher) RunLoop(ctx context.Context, interval time.Duration) error {
	if err := r.Run(ctx); err != nil {
		r.logger.ErrorContext(ctx, "odds refresh pass failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "odds refresh loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := r.Run(ctx); err != nil {
				r.logger.ErrorContext(ctx, "odds refresh pass failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (r *OddsRefresher) refreshOne(ctx context.Context, marketID uint64) error {
	raw, err := r.chain.GetMarketOdds(ctx, marketID)
	if err != nil {
		return fmt.Errorf("read odds: %w", err)
	}
	percents := odds.Normalize(raw)

	if err := r.cache.Set(ctx, marketID, percents); err != nil {
		return fmt.Errorf("cache odds: %w", err)
	}

	if equalOdds(r.last[marketID], percents) {
		return nil
	}
	r.last[marketID] = percents

	payload, err := json.Marshal(map[string]any{
		"type": "odds_update",
		"payload": map[string]any{
			"market_id": marketID,
			"odds":      percents,
		},
	})
	if err != nil {
		return fmt.Errorf("encode odds event: %w", err)
	}
	channel := fmt.Sprintf("ch:odds:%d", marketID)
	if err := r.bus.Publish(ctx, channel, payload); err != nil {
		return fmt.Errorf("publish odds event: %w", err)
	}
	return nil
}

func equalOdds(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
