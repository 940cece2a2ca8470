package domain

import (
	"math/big"
	"time"
)

// Position holds a user's per-option share balances for one market. The
// Shares vector is aligned positionally with Market.Options. Positions are
// created and mutated by the contract; this is a read-only projection.
type Position struct {
	ID       string     `json:"id"`
	User     string     `json:"user"`
	MarketID uint64     `json:"market_id"`
	Shares   []*big.Int `json:"shares"`
	Market   *Market    `json:"market,omitempty"`
}

// ShareBalance returns the held share quantity for the given option index,
// or zero when the index is out of range.
func (p Position) ShareBalance(optionID uint64) *big.Int {
	if optionID >= uint64(len(p.Shares)) || p.Shares[optionID] == nil {
		return big.NewInt(0)
	}
	return p.Shares[optionID]
}

// Portfolio is the per-user aggregate computed by the contract's
// getUserPortfolio view. Entirely owned externally; displayed as-is.
type Portfolio struct {
	User          string   `json:"user"`
	TotalInvested *big.Int `json:"total_invested"`
	TotalWinnings *big.Int `json:"total_winnings"`
	RealizedPnL   *big.Int `json:"realized_pnl"`
	UnrealizedPnL *big.Int `json:"unrealized_pnl"`
	TradeCount    uint64   `json:"trade_count"`
}

// LPPosition is a user's liquidity contribution to one market, as reported
// by the contract's getLPInfo view.
type LPPosition struct {
	User             string   `json:"user"`
	MarketID         uint64   `json:"market_id"`
	Contribution     *big.Int `json:"contribution"`
	RewardsClaimed   bool     `json:"rewards_claimed"`
	EstimatedRewards *big.Int `json:"estimated_rewards"`
}

// TradeRecord is one executed trade kept in the local projection for the
// leaderboard and archive views.
type TradeRecord struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	MarketID  uint64    `json:"market_id"`
	OptionID  uint64    `json:"option_id"`
	Side      string    `json:"side"` // "buy", "sell", "swap"
	Quantity  *big.Int  `json:"quantity"`
	Cost      *big.Int  `json:"cost"`
	TxHash    string    `json:"tx_hash"`
	CreatedAt time.Time `json:"created_at"`
}
