package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/policastlabs/policastd/internal/domain"
	"github.com/policastlabs/policastd/internal/units"
)

// LiquidityChain is the slice of the chain client the liquidity service needs.
type LiquidityChain interface {
	Operator() common.Address
	GetLPInfo(ctx context.Context, marketID uint64, lp common.Address) (domain.LPPosition, error)
	AddLiquidity(ctx context.Context, marketID uint64, amount *big.Int) (common.Hash, error)
	ClaimLPRewards(ctx context.Context, marketID uint64) (common.Hash, error)
}

// LiquidityService manages AMM liquidity provision and LP reward claims.
type LiquidityService struct {
	chain   LiquidityChain
	seq     Executor
	markets domain.MarketStore
	logger  *slog.Logger
}

// NewLiquidityService creates a LiquidityService.
func NewLiquidityService(chain LiquidityChain, seq Executor, markets domain.MarketStore, logger *slog.Logger) *LiquidityService {
	return &LiquidityService{
		chain:   chain,
		seq:     seq,
		markets: markets,
		logger:  logger,
	}
}

// Add contributes tokens to a market's AMM pool through the
// allowance-gated pipeline.
func (s *LiquidityService) Add(ctx context.Context, marketID uint64, amount string) (TradeResult, error) {
	value, err := units.ParseToken(amount)
	if err != nil {
		return TradeResult{}, fmt.Errorf("liquidity_service: amount: %w", err)
	}
	if value.Sign() <= 0 {
		return TradeResult{}, domain.ErrInvalidAmount
	}

	m, err := s.markets.GetByID(ctx, marketID)
	if err != nil {
		return TradeResult{}, fmt.Errorf("liquidity_service: market %d: %w", marketID, err)
	}
	if m.Status != domain.MarketStatusActive {
		return TradeResult{}, domain.ErrMarketNotTradable
	}

	receipt, err := s.seq.Execute(ctx, value,
		func(ctx context.Context) (common.Hash, error) {
			return s.chain.AddLiquidity(ctx, marketID, value)
		}, nil)
	if err != nil {
		return TradeResult{}, fmt.Errorf("liquidity_service: add to market %d: %w", marketID, err)
	}

	s.logger.InfoContext(ctx, "liquidity_service: liquidity added",
		slog.Uint64("market_id", marketID),
		slog.String("amount", units.FormatToken(value)),
	)
	return TradeResult{TxHash: receipt.TxHash.Hex(), Cost: units.FormatToken(value)}, nil
}

// ClaimRewards collects accumulated LP rewards from a settled market.
func (s *LiquidityService) ClaimRewards(ctx context.Context, marketID uint64) (TradeResult, error) {
	info, err := s.chain.GetLPInfo(ctx, marketID, s.chain.Operator())
	if err != nil {
		return TradeResult{}, fmt.Errorf("liquidity_service: lp info for market %d: %w", marketID, err)
	}
	if info.RewardsClaimed {
		return TradeResult{}, domain.ErrAlreadyExists
	}

	receipt, err := s.seq.Execute(ctx, nil,
		func(ctx context.Context) (common.Hash, error) {
			return s.chain.ClaimLPRewards(ctx, marketID)
		}, nil)
	if err != nil {
		return TradeResult{}, fmt.Errorf("liquidity_service: claim market %d: %w", marketID, err)
	}
	return TradeResult{TxHash: receipt.TxHash.Hex()}, nil
}

// Positions returns the operator's LP positions across the given markets.
// Markets where the user has no contribution are filtered out.
func (s *LiquidityService) Positions(ctx context.Context, user common.Address) ([]domain.LPPosition, error) {
	markets, err := s.markets.List(ctx, "", domain.ListOpts{})
	if err != nil {
		return nil, fmt.Errorf("liquidity_service: list markets: %w", err)
	}

	var positions []domain.LPPosition
	for _, m := range markets {
		info, err := s.chain.GetLPInfo(ctx, m.ID, user)
		if err != nil {
			s.logger.WarnContext(ctx, "liquidity_service: lp info failed",
				slog.Uint64("market_id", m.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if info.Contribution == nil || info.Contribution.Sign() == 0 {
			continue
		}
		positions = append(positions, info)
	}
	return positions, nil
}
