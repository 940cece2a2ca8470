package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/policastlabs/policastd/internal/notify"
)

// Orchestrator runs the sync goroutines: market projection refresh from
// the subgraph and odds polling from the contract.
type Orchestrator struct {
	marketSyncer  *MarketSyncer
	oddsRefresher *OddsRefresher
	syncInterval  time.Duration
	oddsInterval  time.Duration
	notifier      *notify.Notifier
	logger        *slog.Logger
}

// NewOrchestrator creates an Orchestrator coordinating both sync loops.
func NewOrchestrator(
	marketSyncer *MarketSyncer,
	oddsRefresher *OddsRefresher,
	syncInterval, oddsInterval time.Duration,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		marketSyncer:  marketSyncer,
		oddsRefresher: oddsRefresher,
		syncInterval:  syncInterval,
		oddsInterval:  oddsInterval,
		notifier:      notifier,
		logger:        logger.With(slog.String("component", "orchestrator")),
	}
}

// Run starts both loops under an errgroup. Context cancellation shuts
// everything down cleanly; any other loop exit cancels its sibling and
// is reported through the notifier before Run returns.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("sync orchestrator starting",
		slog.Duration("sync_interval", o.syncInterval),
		slog.Duration("odds_interval", o.oddsInterval),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := o.marketSyncer.RunLoop(ctx, o.syncInterval)
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("market syncer: %w", err)
	})

	g.Go(func() error {
		err := o.oddsRefresher.RunLoop(ctx, o.oddsInterval)
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("odds refresher: %w", err)
	})

	if err := g.Wait(); err != nil {
		o.logger.Error("sync orchestrator stopped with error", slog.String("error", err.Error()))
		o.reportFailure(err)
		return err
	}

	o.logger.Info("sync orchestrator stopped cleanly")
	return nil
}

// reportFailure pushes a sync failure to the notifier. Uses a fresh
// context: the loop context is already cancelled at this point.
func (o *Orchestrator) reportFailure(cause error) {
	if o.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.notifier.Notify(ctx, notify.EventSyncError, "Sync stopped", cause.Error()); err != nil {
		o.logger.Warn("notify sync failure failed", slog.String("error", err.Error()))
	}
}
