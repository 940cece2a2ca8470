package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/policastlabs/policastd/internal/domain"
)

// LeaderboardEntry is one ranked wallet.
type LeaderboardEntry struct {
	Rank      int              `json:"rank"`
	Portfolio domain.Portfolio `json:"portfolio"`
}

// LeaderboardService ranks every wallet in the trade log by total profit
// as reported by the contract's portfolio view.
type LeaderboardService struct {
	trades domain.TradeStore
	chain  PortfolioChain
	logger *slog.Logger
}

// NewLeaderboardService creates a LeaderboardService.
func NewLeaderboardService(trades domain.TradeStore, chain PortfolioChain, logger *slog.Logger) *LeaderboardService {
	return &LeaderboardService{
		trades: trades,
		chain:  chain,
		logger: logger,
	}
}

// Top returns up to limit entries ranked by realized plus unrealized
// profit, highest first. Wallets whose portfolio read fails are skipped
// rather than failing the whole board.
func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	participants, err := s.trades.Participants(ctx)
	if err != nil {
		return nil, fmt.Errorf("leaderboard_service: participants: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(participants))
	for _, user := range participants {
		portfolio, err := s.chain.GetUserPortfolio(ctx, common.HexToAddress(user))
		if err != nil {
			s.logger.WarnContext(ctx, "leaderboard_service: portfolio read failed",
				slog.String("user", user),
				slog.String("error", err.Error()),
			)
			continue
		}
		entries = append(entries, LeaderboardEntry{Portfolio: portfolio})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return profit(entries[i].Portfolio).Cmp(profit(entries[j].Portfolio)) > 0
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// profit is the ranking key: realized plus unrealized PnL.
func profit(p domain.Portfolio) *big.Int {
	total := new(big.Int)
	if p.RealizedPnL != nil {
		total.Add(total, p.RealizedPnL)
	}
	if p.UnrealizedPnL != nil {
		total.Add(total, p.UnrealizedPnL)
	}
	return total
}
