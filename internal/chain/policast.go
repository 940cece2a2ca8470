package chain

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/policastlabs/policastd/internal/domain"
)

// marketTypePaid is the contract's MarketType enum value for paid-entry
// markets; free-entry markets are created through createFreeMarket instead.
const marketTypePaid uint8 = 0

// MarketInfo mirrors the getMarketInfo view outputs.
type MarketInfo struct {
	Question               string
	Description            string
	EndTime                time.Time
	Category               domain.MarketCategory
	OptionCount            uint64
	Resolved               bool
	Disputed               bool
	FreeEntry              bool
	Invalidated            bool
	WinningOptionID        uint64
	Creator                common.Address
	EarlyResolutionAllowed bool
}

// OptionInfo mirrors the getMarketOption view outputs.
type OptionInfo struct {
	Name        string
	Description string
	TotalShares *big.Int
	TotalVolume *big.Int
	RawPrice    *big.Int
	IsActive    bool
}

// MarketStatus mirrors the getMarketStatus view outputs.
type MarketStatus struct {
	IsActive      bool
	IsResolved    bool
	IsExpired     bool
	CanTrade      bool
	CanResolve    bool
	TimeRemaining time.Duration
}

// GetMarketCount returns the total number of markets ever created.
func (c *Client) GetMarketCount(ctx context.Context) (uint64, error) {
	out, err := c.call(ctx, c.contract, c.policast, "getMarketCount")
	if err != nil {
		return 0, err
	}
	return out[0].(*big.Int).Uint64(), nil
}

// GetMarketInfo reads a market's metadata.
func (c *Client) GetMarketInfo(ctx context.Context, marketID uint64) (MarketInfo, error) {
	out, err := c.call(ctx, c.contract, c.policast, "getMarketInfo", new(big.Int).SetUint64(marketID))
	if err != nil {
		return MarketInfo{}, err
	}
	return MarketInfo{
		Question:               out[0].(string),
		Description:            out[1].(string),
		EndTime:                time.Unix(out[2].(*big.Int).Int64(), 0).UTC(),
		Category:               domain.MarketCategory(out[3].(uint8)),
		OptionCount:            out[4].(*big.Int).Uint64(),
		Resolved:               out[5].(bool),
		Disputed:               out[6].(bool),
		FreeEntry:              out[7].(uint8) != marketTypePaid,
		Invalidated:            out[8].(bool),
		WinningOptionID:        out[9].(*big.Int).Uint64(),
		Creator:                out[10].(common.Address),
		EarlyResolutionAllowed: out[11].(bool),
	}, nil
}

// GetMarketOption reads one option's data for a market.
func (c *Client) GetMarketOption(ctx context.Context, marketID, optionID uint64) (OptionInfo, error) {
	out, err := c.call(ctx, c.contract, c.policast, "getMarketOption",
		new(big.Int).SetUint64(marketID), new(big.Int).SetUint64(optionID))
	if err != nil {
		return OptionInfo{}, err
	}
	return OptionInfo{
		Name:        out[0].(string),
		Description: out[1].(string),
		TotalShares: out[2].(*big.Int),
		TotalVolume: out[3].(*big.Int),
		RawPrice:    out[4].(*big.Int),
		IsActive:    out[5].(bool),
	}, nil
}

// GetMarketOdds returns the raw per-option price weights. Display
// percentages come from odds.Normalize, not from here.
func (c *Client) GetMarketOdds(ctx context.Context, marketID uint64) ([]*big.Int, error) {
	out, err := c.call(ctx, c.contract, c.policast, "getMarketOdds", new(big.Int).SetUint64(marketID))
	if err != nil {
		return nil, err
	}
	return out[0].([]*big.Int), nil
}

// GetMarketStatus reads the market's tradability flags.
func (c *Client) GetMarketStatus(ctx context.Context, marketID uint64) (MarketStatus, error) {
	out, err := c.call(ctx, c.contract, c.policast, "getMarketStatus", new(big.Int).SetUint64(marketID))
	if err != nil {
		return MarketStatus{}, err
	}
	return MarketStatus{
		IsActive:      out[0].(bool),
		IsResolved:    out[1].(bool),
		IsExpired:     out[2].(bool),
		CanTrade:      out[3].(bool),
		CanResolve:    out[4].(bool),
		TimeRemaining: time.Duration(out[5].(*big.Int).Int64()) * time.Second,
	}, nil
}

// GetMarketTiming reads a market's creation and end timestamps.
func (c *Client) GetMarketTiming(ctx context.Context, marketID uint64) (createdAt, endTime time.Time, err error) {
	out, err := c.call(ctx, c.contract, c.policast, "getMarketTiming", new(big.Int).SetUint64(marketID))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	createdAt = time.Unix(out[0].(*big.Int).Int64(), 0).UTC()
	endTime = time.Unix(out[1].(*big.Int).Int64(), 0).UTC()
	return createdAt, endTime, nil
}

// GetUserShares returns the user's share balances for a market, aligned
// positionally with the market's options.
func (c *Client) GetUserShares(ctx context.Context, marketID uint64, user common.Address) ([]*big.Int, error) {
	out, err := c.call(ctx, c.contract, c.policast, "getUserShares", new(big.Int).SetUint64(marketID), user)
	if err != nil {
		return nil, err
	}
	return out[0].([]*big.Int), nil
}

// GetUserPortfolio reads the contract-computed per-user aggregates.
func (c *Client) GetUserPortfolio(ctx context.Context, user common.Address) (domain.Portfolio, error) {
	out, err := c.call(ctx, c.contract, c.policast, "getUserPortfolio", user)
	if err != nil {
		return domain.Portfolio{}, err
	}
	return domain.Portfolio{
		User:          user.Hex(),
		TotalInvested: out[0].(*big.Int),
		TotalWinnings: out[1].(*big.Int),
		RealizedPnL:   out[2].(*big.Int),
		UnrealizedPnL: out[3].(*big.Int),
		TradeCount:    out[4].(*big.Int).Uint64(),
	}, nil
}

// GetLPInfo reads a user's liquidity position for a market.
func (c *Client) GetLPInfo(ctx context.Context, marketID uint64, lp common.Address) (domain.LPPosition, error) {
	out, err := c.call(ctx, c.contract, c.policast, "getLPInfo", new(big.Int).SetUint64(marketID), lp)
	if err != nil {
		return domain.LPPosition{}, err
	}
	return domain.LPPosition{
		User:             lp.Hex(),
		MarketID:         marketID,
		Contribution:     out[0].(*big.Int),
		RewardsClaimed:   out[1].(bool),
		EstimatedRewards: out[2].(*big.Int),
	}, nil
}

// GetUnresolvedMarkets returns the ids of markets awaiting resolution.
func (c *Client) GetUnresolvedMarkets(ctx context.Context) ([]uint64, error) {
	out, err := c.call(ctx, c.contract, c.policast, "getUnresolvedMarkets")
	if err != nil {
		return nil, err
	}
	raw := out[0].([]*big.Int)
	ids := make([]uint64, len(raw))
	for i, v := range raw {
		ids[i] = v.Uint64()
	}
	return ids, nil
}

// CalculateBuyCost quotes the token cost of buying quantity shares of an
// option, AMM fee included.
func (c *Client) CalculateBuyCost(ctx context.Context, marketID, optionID uint64, quantity *big.Int) (*big.Int, error) {
	out, err := c.call(ctx, c.contract, c.policast, "calculateAMMBuyCost",
		new(big.Int).SetUint64(marketID), new(big.Int).SetUint64(optionID), quantity)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// CalculateSellRevenue quotes the token revenue of selling quantity shares.
func (c *Client) CalculateSellRevenue(ctx context.Context, marketID, optionID uint64, quantity *big.Int) (*big.Int, error) {
	out, err := c.call(ctx, c.contract, c.policast, "calculateAMMSellRevenue",
		new(big.Int).SetUint64(marketID), new(big.Int).SetUint64(optionID), quantity)
	if err != nil {
		return nil, err
	}
	return out[0].(*big.Int), nil
}

// HasClaimedWinnings reports whether the user already claimed a resolved
// market's payout.
func (c *Client) HasClaimedWinnings(ctx context.Context, marketID uint64, user common.Address) (bool, error) {
	out, err := c.call(ctx, c.contract, c.policast, "hasUserClaimedWinnings", new(big.Int).SetUint64(marketID), user)
	if err != nil {
		return false, err
	}
	return out[0].(bool), nil
}

// ---------------------------------------------------------------------------
// Writes. Each returns the submitted transaction hash; confirmation is the
// caller's concern (txflow drives WaitMined).
// ---------------------------------------------------------------------------

// CreateMarket submits a createMarket transaction for a paid market.
func (c *Client) CreateMarket(ctx context.Context, draft domain.MarketDraft, initialLiquidity *big.Int) (common.Hash, error) {
	return c.submit(ctx, c.contract, c.policast, "createMarket",
		draft.Question,
		draft.Description,
		draft.OptionNames,
		draft.OptionDescriptions,
		new(big.Int).SetInt64(int64(draft.Duration/time.Second)),
		uint8(draft.Category),
		marketTypePaid,
		initialLiquidity,
		draft.EarlyResolutionAllowed,
	)
}

// BuyShares submits a buyShares transaction.
func (c *Client) BuyShares(ctx context.Context, marketID, optionID uint64, quantity, maxPricePerShare *big.Int) (common.Hash, error) {
	return c.submit(ctx, c.contract, c.policast, "buyShares",
		new(big.Int).SetUint64(marketID), new(big.Int).SetUint64(optionID), quantity, maxPricePerShare)
}

// SellShares submits a sellShares transaction.
func (c *Client) SellShares(ctx context.Context, marketID, optionID uint64, quantity, minPricePerShare *big.Int) (common.Hash, error) {
	return c.submit(ctx, c.contract, c.policast, "sellShares",
		new(big.Int).SetUint64(marketID), new(big.Int).SetUint64(optionID), quantity, minPricePerShare)
}

// SwapShares submits an ammSwap moving shares from one option to another.
func (c *Client) SwapShares(ctx context.Context, marketID, optionIn, optionOut uint64, amountIn, minAmountOut *big.Int) (common.Hash, error) {
	return c.submit(ctx, c.contract, c.policast, "ammSwap",
		new(big.Int).SetUint64(marketID), new(big.Int).SetUint64(optionIn),
		new(big.Int).SetUint64(optionOut), amountIn, minAmountOut)
}

// AddLiquidity submits an addAMMLiquidity transaction.
func (c *Client) AddLiquidity(ctx context.Context, marketID uint64, amount *big.Int) (common.Hash, error) {
	return c.submit(ctx, c.contract, c.policast, "addAMMLiquidity",
		new(big.Int).SetUint64(marketID), amount)
}

// ClaimWinnings submits a claimWinnings transaction.
func (c *Client) ClaimWinnings(ctx context.Context, marketID uint64) (common.Hash, error) {
	return c.submit(ctx, c.contract, c.policast, "claimWinnings", new(big.Int).SetUint64(marketID))
}

// ClaimLPRewards submits a claimLPRewards transaction.
func (c *Client) ClaimLPRewards(ctx context.Context, marketID uint64) (common.Hash, error) {
	return c.submit(ctx, c.contract, c.policast, "claimLPRewards", new(big.Int).SetUint64(marketID))
}

// ValidateMarket transitions a pending market to active.
func (c *Client) ValidateMarket(ctx context.Context, marketID uint64) (common.Hash, error) {
	return c.submit(ctx, c.contract, c.policast, "validateMarket", new(big.Int).SetUint64(marketID))
}

// ResolveMarket settles a market on the winning option.
func (c *Client) ResolveMarket(ctx context.Context, marketID, winningOptionID uint64) (common.Hash, error) {
	return c.submit(ctx, c.contract, c.policast, "resolveMarket",
		new(big.Int).SetUint64(marketID), new(big.Int).SetUint64(winningOptionID))
}

// InvalidateMarket voids a market.
func (c *Client) InvalidateMarket(ctx context.Context, marketID uint64) (common.Hash, error) {
	return c.submit(ctx, c.contract, c.policast, "invalidateMarket", new(big.Int).SetUint64(marketID))
}

// DisputeMarket flags a resolved market as disputed.
func (c *Client) DisputeMarket(ctx context.Context, marketID uint64, reason string) (common.Hash, error) {
	return c.submit(ctx, c.contract, c.policast, "disputeMarket", new(big.Int).SetUint64(marketID), reason)
}
