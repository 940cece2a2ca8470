package domain

import (
	"math/big"
	"time"
)

// MarketStatus represents the lifecycle state of a Policast market.
type MarketStatus string

const (
	MarketStatusPending     MarketStatus = "pending"
	MarketStatusActive      MarketStatus = "active"
	MarketStatusResolved    MarketStatus = "resolved"
	MarketStatusInvalidated MarketStatus = "invalidated"
	MarketStatusDisputed    MarketStatus = "disputed"
)

// MarketCategory is the fixed category enumeration used by the Policast
// contract. The numeric values mirror the on-chain uint8 encoding.
type MarketCategory uint8

const (
	CategoryPolitics MarketCategory = iota
	CategorySports
	CategoryCrypto
	CategoryEntertainment
	CategoryTech
	CategoryFinance
	CategoryOther
)

var categoryNames = map[MarketCategory]string{
	CategoryPolitics:      "POLITICS",
	CategorySports:        "SPORTS",
	CategoryCrypto:        "CRYPTO",
	CategoryEntertainment: "ENTERTAINMENT",
	CategoryTech:          "TECH",
	CategoryFinance:       "FINANCE",
	CategoryOther:         "OTHER",
}

// String returns the display name for the category. Unknown values map to
// OTHER, matching the contract's fallback bucket.
func (c MarketCategory) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "OTHER"
}

// ParseCategory converts a display name back to its enum value. Unknown names
// map to CategoryOther.
func ParseCategory(name string) MarketCategory {
	for c, n := range categoryNames {
		if n == name {
			return c
		}
	}
	return CategoryOther
}

// MarketOption is one tradable outcome of a market. RawPrice is the raw
// on-chain price weight; display percentages are derived by normalizing
// against the sum of all option weights.
type MarketOption struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	TotalShares *big.Int `json:"total_shares"`
	TotalVolume *big.Int `json:"total_volume"`
	RawPrice    *big.Int `json:"raw_price"`
}

// Market is the read projection of a Policast prediction market. The contract
// owns the canonical state; this struct only caches what the indexer and view
// calls return for a render pass.
type Market struct {
	ID                     uint64         `json:"id"`
	Question               string         `json:"question"`
	Description            string         `json:"description"`
	Category               MarketCategory `json:"category"`
	Options                []MarketOption `json:"options"`
	Status                 MarketStatus   `json:"status"`
	WinningOptionID        *uint64        `json:"winning_option_id,omitempty"`
	Creator                string         `json:"creator"`
	FreeEntry              bool           `json:"free_entry"`
	EarlyResolutionAllowed bool           `json:"early_resolution_allowed"`
	Volume                 *big.Int       `json:"volume"`
	EndTime                time.Time      `json:"end_time"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// Ended reports whether the market's end time has passed.
func (m Market) Ended() bool {
	return time.Now().After(m.EndTime)
}

// MarketDraft carries the user-supplied fields for a createMarket call.
// The initial liquidity is a human decimal string; conversion to the token's
// fixed-point representation happens at the chain boundary.
type MarketDraft struct {
	Question               string
	Description            string
	OptionNames            []string
	OptionDescriptions     []string
	Duration               time.Duration
	Category               MarketCategory
	InitialLiquidity       string
	EarlyResolutionAllowed bool
}
