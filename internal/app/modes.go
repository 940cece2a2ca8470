package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/policastlabs/policastd/internal/server"
	"github.com/policastlabs/policastd/internal/server/handler"
	"github.com/policastlabs/policastd/internal/server/ws"
	"github.com/policastlabs/policastd/internal/service"
	syncer "github.com/policastlabs/policastd/internal/sync"
)

// shutdownGrace bounds how long in-flight HTTP requests may run after the
// context is cancelled.
const shutdownGrace = 10 * time.Second

// ServerMode runs the HTTP + WebSocket gateway without the sync loops.
// Projections are only refreshed by a separate sync-mode process.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	return a.runServer(ctx, deps)
}

// SyncMode runs only the projection sync loops: markets from the subgraph
// and odds from the contract.
func (a *App) SyncMode(ctx context.Context, deps *Dependencies) error {
	return a.buildOrchestrator(deps).Run(ctx)
}

// FullMode runs the gateway and the sync loops in one process.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	g, ctx := errgroup.WithContext(ctx)

	if a.cfg.Sync.Enabled {
		orch := a.buildOrchestrator(deps)
		g.Go(func() error {
			return orch.Run(ctx)
		})
	} else {
		a.logger.InfoContext(ctx, "sync disabled by config")
	}

	g.Go(func() error {
		return a.runServer(ctx, deps)
	})

	return g.Wait()
}

// runServer assembles the hub, handlers, and HTTP server, then serves
// until the context is cancelled.
func (a *App) runServer(ctx context.Context, deps *Dependencies) error {
	if !a.cfg.Server.Enabled {
		a.logger.InfoContext(ctx, "server disabled by config, blocking until shutdown")
		<-ctx.Done()
		return nil
	}

	startedAt := time.Now().UTC()

	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:         a.cfg.Mode,
		StartedAt:    startedAt,
		ReplayStream: service.TxStream,
	})
	go func() {
		if err := hub.Run(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("ws hub stopped", slog.String("error", err.Error()))
		}
	}()

	handlers := server.Handlers{
		Health: handler.NewHealthHandler([]handler.Check{
			{Name: "postgres", Probe: deps.Postgres.Ping},
			{Name: "redis", Probe: deps.Redis.Ping},
			{Name: "s3", Probe: deps.S3.Health},
		}),
		Status:     handler.NewStatusHandler(a.cfg.Mode, deps.Chain.Operator(), startedAt, deps.MarketStore, deps.Indexer),
		Markets:    handler.NewMarketHandler(deps.Markets),
		Trades:     handler.NewTradeHandler(deps.Trades),
		Portfolios: handler.NewPortfolioHandler(deps.Portfolios, deps.Leaderboard),
		Liquidity:  handler.NewLiquidityHandler(deps.Liquidity),
		Archive:    handler.NewArchiveHandler(deps.BlobReader),
		Admin:      handler.NewAdminHandler(deps.Admin),
	}

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		TradeRateLimit:  a.cfg.Server.TradeRateLimit,
		TradeRateWindow: a.cfg.Server.TradeRateWindow.Duration,
	}, handlers, hub, deps.Roles, deps.RateLimiter, a.logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("app: server: %w", err)
		}
		return nil
	}
}

// buildOrchestrator wires the sync loops to their sources and sinks.
func (a *App) buildOrchestrator(deps *Dependencies) *syncer.Orchestrator {
	marketSyncer := syncer.NewMarketSyncer(deps.Indexer, deps.Chain, deps.Markets, deps.SignalBus, a.logger)
	oddsRefresher := syncer.NewOddsRefresher(deps.MarketStore, deps.Chain, deps.OddsCache, deps.SignalBus, a.logger)
	return syncer.NewOrchestrator(
		marketSyncer,
		oddsRefresher,
		a.cfg.Sync.MarketInterval.Duration,
		a.cfg.Sync.OddsInterval.Duration,
		deps.Notifier,
		a.logger,
	)
}
