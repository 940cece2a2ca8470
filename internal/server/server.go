// Package server assembles the HTTP API: routes, middleware chain, and
// the WebSocket endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/policastlabs/policastd/internal/auth"
	"github.com/policastlabs/policastd/internal/domain"
	"github.com/policastlabs/policastd/internal/server/handler"
	"github.com/policastlabs/policastd/internal/server/middleware"
	"github.com/policastlabs/policastd/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// Rate limiting for write endpoints.
	TradeRateLimit  int
	TradeRateWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server registers.
type Handlers struct {
	Health     *handler.HealthHandler
	Status     *handler.StatusHandler
	Markets    *handler.MarketHandler
	Trades     *handler.TradeHandler
	Portfolios *handler.PortfolioHandler
	Liquidity  *handler.LiquidityHandler
	Archive    *handler.ArchiveHandler
	Admin      *handler.AdminHandler
}

// Server is the gateway's HTTP + WebSocket front.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers all routes and wires the middleware chain. Trade
// and liquidity writes get a per-IP rate limit on top of the global
// chain; admin routes hide behind the wallet allow-list.
func NewServer(
	cfg Config,
	handlers Handlers,
	wsHub *ws.Hub,
	roles *auth.RoleSet,
	limiter domain.RateLimiter,
	logger *slog.Logger,
) *Server {
	mux := http.NewServeMux()

	// Health and status (no auth beyond the global chain).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)

	// Marketplace reads.
	mux.HandleFunc("GET /api/markets", handlers.Markets.ListMarkets)
	mux.HandleFunc("GET /api/markets/{id}", handlers.Markets.GetMarket)

	// Portfolio and leaderboard reads.
	mux.HandleFunc("GET /api/portfolio/{address}", handlers.Portfolios.GetPortfolio)
	mux.HandleFunc("GET /api/leaderboard", handlers.Portfolios.GetLeaderboard)
	mux.HandleFunc("GET /api/liquidity/{address}", handlers.Liquidity.GetPositions)

	// Archived snapshots of settled markets.
	mux.HandleFunc("GET /api/archive/markets", handlers.Archive.ListArchives)
	mux.HandleFunc("GET /api/archive/markets/{id}", handlers.Archive.GetArchive)

	// Chain writes, rate limited per client IP.
	writeLimit := middleware.RateLimit(limiter, cfg.TradeRateLimit, cfg.TradeRateWindow)
	mux.Handle("GET /api/trade/quote", http.HandlerFunc(handlers.Trades.Quote))
	mux.Handle("POST /api/trade/buy", writeLimit(http.HandlerFunc(handlers.Trades.Buy)))
	mux.Handle("POST /api/trade/sell", writeLimit(http.HandlerFunc(handlers.Trades.Sell)))
	mux.Handle("POST /api/trade/swap", writeLimit(http.HandlerFunc(handlers.Trades.Swap)))
	mux.Handle("POST /api/trade/claim", writeLimit(http.HandlerFunc(handlers.Trades.Claim)))
	mux.Handle("POST /api/liquidity/add", writeLimit(http.HandlerFunc(handlers.Liquidity.Add)))
	mux.Handle("POST /api/liquidity/claim", writeLimit(http.HandlerFunc(handlers.Liquidity.ClaimRewards)))

	// Admin lifecycle, gated on the wallet allow-list.
	adminOnly := middleware.AdminOnly(roles)
	mux.Handle("GET /api/admin/validation-queue", adminOnly(http.HandlerFunc(handlers.Admin.ValidationQueue)))
	mux.Handle("GET /api/admin/resolution-queue", adminOnly(http.HandlerFunc(handlers.Admin.ResolutionQueue)))
	mux.Handle("POST /api/admin/markets", adminOnly(http.HandlerFunc(handlers.Admin.CreateMarket)))
	mux.Handle("POST /api/admin/markets/{id}/validate", adminOnly(http.HandlerFunc(handlers.Admin.Validate)))
	mux.Handle("POST /api/admin/markets/{id}/resolve", adminOnly(http.HandlerFunc(handlers.Admin.Resolve)))
	mux.Handle("POST /api/admin/markets/{id}/invalidate", adminOnly(http.HandlerFunc(handlers.Admin.Invalidate)))
	mux.Handle("POST /api/admin/markets/{id}/dispute", adminOnly(http.HandlerFunc(handlers.Admin.Dispute)))

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger.With(slog.String("component", "server")),
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight
// requests to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
