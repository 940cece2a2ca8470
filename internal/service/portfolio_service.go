package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/policastlabs/policastd/internal/domain"
)

// PortfolioChain is the slice of the chain client the portfolio service needs.
type PortfolioChain interface {
	GetUserPortfolio(ctx context.Context, user common.Address) (domain.Portfolio, error)
}

// PositionSource fetches a user's positions from the subgraph.
type PositionSource interface {
	FetchUserPositions(ctx context.Context, user string) ([]domain.Position, error)
}

// PositionView pairs a position with its market projection and the
// position's current value at cached odds.
type PositionView struct {
	domain.Position
	CurrentValue *big.Int `json:"current_value"`
}

// PortfolioSummary is the full portfolio page payload.
type PortfolioSummary struct {
	Portfolio domain.Portfolio `json:"portfolio"`
	Positions []PositionView   `json:"positions"`
}

// PortfolioService assembles the portfolio view: contract-computed
// aggregates plus per-market positions from the subgraph, valued at the
// latest odds.
type PortfolioService struct {
	chain     PortfolioChain
	indexer   PositionSource
	positions domain.PositionStore
	markets   domain.MarketStore
	oddsCache domain.OddsCache
	logger    *slog.Logger
}

// NewPortfolioService creates a PortfolioService.
func NewPortfolioService(
	chain PortfolioChain,
	indexer PositionSource,
	positions domain.PositionStore,
	markets domain.MarketStore,
	oddsCache domain.OddsCache,
	logger *slog.Logger,
) *PortfolioService {
	return &PortfolioService{
		chain:     chain,
		indexer:   indexer,
		positions: positions,
		markets:   markets,
		oddsCache: oddsCache,
		logger:    logger,
	}
}

// Summary builds the portfolio payload for one wallet. The subgraph is
// the position source of truth; the local projection serves as fallback
// when the subgraph is unreachable.
func (s *PortfolioService) Summary(ctx context.Context, address string) (PortfolioSummary, error) {
	portfolio, err := s.chain.GetUserPortfolio(ctx, common.HexToAddress(address))
	if err != nil {
		return PortfolioSummary{}, fmt.Errorf("portfolio_service: aggregates for %s: %w", address, err)
	}

	positions, err := s.indexer.FetchUserPositions(ctx, address)
	if err != nil {
		s.logger.WarnContext(ctx, "portfolio_service: subgraph unavailable, using projection",
			slog.String("user", address),
			slog.String("error", err.Error()),
		)
		positions, err = s.positions.ListByUser(ctx, address)
		if err != nil {
			return PortfolioSummary{}, fmt.Errorf("portfolio_service: positions for %s: %w", address, err)
		}
	} else {
		// Refresh the projection opportunistically.
		if storeErr := s.positions.UpsertBatch(ctx, positions); storeErr != nil {
			s.logger.WarnContext(ctx, "portfolio_service: projection refresh failed",
				slog.String("user", address),
				slog.String("error", storeErr.Error()),
			)
		}
	}

	views := make([]PositionView, 0, len(positions))
	for _, p := range positions {
		views = append(views, s.valueOf(ctx, p))
	}

	return PortfolioSummary{Portfolio: portfolio, Positions: views}, nil
}

// valueOf attaches the market projection and values the position's shares
// at the cached odds. A share of option i is worth odds[i]% of one token.
func (s *PortfolioService) valueOf(ctx context.Context, p domain.Position) PositionView {
	view := PositionView{Position: p, CurrentValue: big.NewInt(0)}

	market, err := s.markets.GetByID(ctx, p.MarketID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "portfolio_service: market lookup failed",
				slog.Uint64("market_id", p.MarketID),
				slog.String("error", err.Error()),
			)
		}
		return view
	}
	view.Market = &market

	percents, err := s.oddsCache.Get(ctx, p.MarketID)
	if err != nil {
		return view
	}

	total := new(big.Int)
	for i, shares := range p.Shares {
		if shares == nil || i >= len(percents) {
			continue
		}
		// value = shares * odds_bp / 10000, with odds in basis points to
		// keep the arithmetic integral.
		bp := big.NewInt(int64(percents[i] * 100))
		part := new(big.Int).Mul(shares, bp)
		part.Div(part, big.NewInt(10000))
		total.Add(total, part)
	}
	view.CurrentValue = total
	return view
}
