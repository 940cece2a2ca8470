package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/policastlabs/policastd/internal/auth"
	"github.com/policastlabs/policastd/internal/domain"
	"github.com/policastlabs/policastd/internal/notify"
	"github.com/policastlabs/policastd/internal/units"
)

// AdminChain is the slice of the chain client the admin service needs.
type AdminChain interface {
	CreateMarket(ctx context.Context, draft domain.MarketDraft, initialLiquidity *big.Int) (common.Hash, error)
	ValidateMarket(ctx context.Context, marketID uint64) (common.Hash, error)
	ResolveMarket(ctx context.Context, marketID, winningOptionID uint64) (common.Hash, error)
	InvalidateMarket(ctx context.Context, marketID uint64) (common.Hash, error)
	DisputeMarket(ctx context.Context, marketID uint64, reason string) (common.Hash, error)
}

// AdminService drives the market lifecycle: creation, validation,
// resolution, invalidation, and disputes. Every write is gated on the
// allow-list before it reaches the sequencer; the contract's own role
// checks are the real enforcement.
type AdminService struct {
	chain     AdminChain
	seq       Executor
	roles     *auth.RoleSet
	markets   domain.MarketStore
	cache     domain.MarketCache
	oddsCache domain.OddsCache
	archiver  domain.Archiver
	notifier  *notify.Notifier
	logger    *slog.Logger
}

// NewAdminService creates an AdminService.
func NewAdminService(
	chain AdminChain,
	seq Executor,
	roles *auth.RoleSet,
	markets domain.MarketStore,
	cache domain.MarketCache,
	oddsCache domain.OddsCache,
	archiver domain.Archiver,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		chain:     chain,
		seq:       seq,
		roles:     roles,
		markets:   markets,
		cache:     cache,
		oddsCache: oddsCache,
		archiver:  archiver,
		notifier:  notifier,
		logger:    logger,
	}
}

// CreateMarketRequest carries the user-supplied market parameters.
type CreateMarketRequest struct {
	Question               string   `json:"question"`
	Description            string   `json:"description"`
	OptionNames            []string `json:"option_names"`
	OptionDescriptions     []string `json:"option_descriptions"`
	DurationHours          int64    `json:"duration_hours"`
	Category               string   `json:"category"`
	InitialLiquidity       string   `json:"initial_liquidity"`
	EarlyResolutionAllowed bool     `json:"early_resolution_allowed"`
}

// CreateMarket submits a new market. The initial liquidity is spent from
// the operator wallet, so the write runs through the allowance gate.
func (s *AdminService) CreateMarket(ctx context.Context, actor string, req CreateMarketRequest) (TradeResult, error) {
	if err := s.requireAdmin(actor); err != nil {
		return TradeResult{}, err
	}

	if req.Question == "" || len(req.OptionNames) < 2 {
		return TradeResult{}, fmt.Errorf("admin_service: a market needs a question and at least two options")
	}
	if len(req.OptionDescriptions) != len(req.OptionNames) {
		return TradeResult{}, fmt.Errorf("admin_service: option descriptions must match option names")
	}

	liquidity, err := units.ParseToken(req.InitialLiquidity)
	if err != nil {
		return TradeResult{}, fmt.Errorf("admin_service: initial_liquidity: %w", err)
	}
	if liquidity.Sign() <= 0 {
		return TradeResult{}, domain.ErrInvalidAmount
	}

	draft := domain.MarketDraft{
		Question:               req.Question,
		Description:            req.Description,
		OptionNames:            req.OptionNames,
		OptionDescriptions:     req.OptionDescriptions,
		Duration:               time.Duration(req.DurationHours) * time.Hour,
		Category:               domain.ParseCategory(req.Category),
		InitialLiquidity:       req.InitialLiquidity,
		EarlyResolutionAllowed: req.EarlyResolutionAllowed,
	}

	receipt, err := s.seq.Execute(ctx, liquidity,
		func(ctx context.Context) (common.Hash, error) {
			return s.chain.CreateMarket(ctx, draft, liquidity)
		}, nil)
	if err != nil {
		return TradeResult{}, fmt.Errorf("admin_service: create market: %w", err)
	}

	s.notifyEvent(ctx, notify.EventMarketCreated, "Market created", req.Question)
	return TradeResult{TxHash: receipt.TxHash.Hex()}, nil
}

// ValidationQueue lists markets awaiting validation.
func (s *AdminService) ValidationQueue(ctx context.Context, actor string) ([]domain.Market, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	markets, err := s.markets.List(ctx, domain.MarketStatusPending, domain.ListOpts{})
	if err != nil {
		return nil, fmt.Errorf("admin_service: validation queue: %w", err)
	}
	return markets, nil
}

// ResolutionQueue lists active markets eligible for resolution: past
// their end time, or flagged for early resolution.
func (s *AdminService) ResolutionQueue(ctx context.Context, actor string) ([]domain.Market, error) {
	if err := s.requireAdmin(actor); err != nil {
		return nil, err
	}
	active, err := s.markets.List(ctx, domain.MarketStatusActive, domain.ListOpts{})
	if err != nil {
		return nil, fmt.Errorf("admin_service: resolution queue: %w", err)
	}

	eligible := make([]domain.Market, 0, len(active))
	for _, m := range active {
		if m.Ended() || m.EarlyResolutionAllowed {
			eligible = append(eligible, m)
		}
	}
	return eligible, nil
}

// Validate transitions a pending market to active.
func (s *AdminService) Validate(ctx context.Context, actor string, marketID uint64) (TradeResult, error) {
	if err := s.requireAdmin(actor); err != nil {
		return TradeResult{}, err
	}
	receipt, err := s.seq.Execute(ctx, nil,
		func(ctx context.Context) (common.Hash, error) {
			return s.chain.ValidateMarket(ctx, marketID)
		}, nil)
	if err != nil {
		return TradeResult{}, fmt.Errorf("admin_service: validate market %d: %w", marketID, err)
	}
	s.refresh(ctx, marketID, domain.MarketStatusActive, nil)
	return TradeResult{TxHash: receipt.TxHash.Hex()}, nil
}

// Resolve settles a market on the winning option and archives a snapshot.
func (s *AdminService) Resolve(ctx context.Context, actor string, marketID, winningOptionID uint64) (TradeResult, error) {
	if err := s.requireAdmin(actor); err != nil {
		return TradeResult{}, err
	}
	receipt, err := s.seq.Execute(ctx, nil,
		func(ctx context.Context) (common.Hash, error) {
			return s.chain.ResolveMarket(ctx, marketID, winningOptionID)
		}, nil)
	if err != nil {
		return TradeResult{}, fmt.Errorf("admin_service: resolve market %d: %w", marketID, err)
	}

	s.refresh(ctx, marketID, domain.MarketStatusResolved, &winningOptionID)
	s.archive(ctx, marketID)
	s.notifyEvent(ctx, notify.EventMarketResolved, "Market resolved",
		fmt.Sprintf("market %d settled on option %d", marketID, winningOptionID))
	return TradeResult{TxHash: receipt.TxHash.Hex()}, nil
}

// Invalidate voids a market, refunding participants contract-side.
func (s *AdminService) Invalidate(ctx context.Context, actor string, marketID uint64) (TradeResult, error) {
	if err := s.requireAdmin(actor); err != nil {
		return TradeResult{}, err
	}
	receipt, err := s.seq.Execute(ctx, nil,
		func(ctx context.Context) (common.Hash, error) {
			return s.chain.InvalidateMarket(ctx, marketID)
		}, nil)
	if err != nil {
		return TradeResult{}, fmt.Errorf("admin_service: invalidate market %d: %w", marketID, err)
	}
	s.refresh(ctx, marketID, domain.MarketStatusInvalidated, nil)
	return TradeResult{TxHash: receipt.TxHash.Hex()}, nil
}

// Dispute flags a resolved market as contested.
func (s *AdminService) Dispute(ctx context.Context, actor string, marketID uint64, reason string) (TradeResult, error) {
	if err := s.requireAdmin(actor); err != nil {
		return TradeResult{}, err
	}
	if reason == "" {
		return TradeResult{}, fmt.Errorf("admin_service: a dispute needs a reason")
	}
	receipt, err := s.seq.Execute(ctx, nil,
		func(ctx context.Context) (common.Hash, error) {
			return s.chain.DisputeMarket(ctx, marketID, reason)
		}, nil)
	if err != nil {
		return TradeResult{}, fmt.Errorf("admin_service: dispute market %d: %w", marketID, err)
	}
	s.refresh(ctx, marketID, domain.MarketStatusDisputed, nil)
	s.notifyEvent(ctx, notify.EventMarketDisputed, "Market disputed",
		fmt.Sprintf("market %d: %s", marketID, reason))
	return TradeResult{TxHash: receipt.TxHash.Hex()}, nil
}

// requireAdmin maps a failed allow-list check onto ErrUnauthorized.
func (s *AdminService) requireAdmin(actor string) error {
	if !s.roles.IsAdmin(actor) {
		return domain.ErrUnauthorized
	}
	return nil
}

// refresh updates the local projection after a confirmed lifecycle write
// so the UI reflects the transition before the next sync pass.
func (s *AdminService) refresh(ctx context.Context, marketID uint64, status domain.MarketStatus, winner *uint64) {
	m, err := s.markets.GetByID(ctx, marketID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "admin_service: projection refresh failed",
				slog.Uint64("market_id", marketID),
				slog.String("error", err.Error()),
			)
		}
		return
	}
	m.Status = status
	if winner != nil {
		m.WinningOptionID = winner
	}
	if err := s.markets.Upsert(ctx, m); err != nil {
		s.logger.WarnContext(ctx, "admin_service: projection upsert failed",
			slog.Uint64("market_id", marketID),
			slog.String("error", err.Error()),
		)
	}
	if err := s.cache.Invalidate(ctx, marketID); err != nil {
		s.logger.WarnContext(ctx, "admin_service: cache invalidate failed",
			slog.Uint64("market_id", marketID),
			slog.String("error", err.Error()),
		)
	}
}

// archive snapshots a settled market with its final odds. Best-effort:
// the resolution already succeeded on chain.
func (s *AdminService) archive(ctx context.Context, marketID uint64) {
	if s.archiver == nil {
		return
	}
	m, err := s.markets.GetByID(ctx, marketID)
	if err != nil {
		return
	}
	finalOdds, err := s.oddsCache.Get(ctx, marketID)
	if err != nil {
		finalOdds = nil
	}
	if err := s.archiver.ArchiveResolved(ctx, m, finalOdds); err != nil {
		s.logger.ErrorContext(ctx, "admin_service: archive failed",
			slog.Uint64("market_id", marketID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *AdminService) notifyEvent(ctx context.Context, event, title, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, event, title, message); err != nil {
		s.logger.WarnContext(ctx, "admin_service: notify failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
