package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/policastlabs/policastd/internal/domain"
)

// Odds refresh on a short cycle, so the TTL is tight: a stale percentage
// is worse than a cache miss that falls through to the chain.
const oddsTTL = 30 * time.Second

// OddsCache implements domain.OddsCache, storing the latest normalized
// odds per market under odds:{id} keys.
type OddsCache struct {
	rdb *redis.Client
}

// NewOddsCache creates an OddsCache backed by the given Client.
func NewOddsCache(c *Client) *OddsCache {
	return &OddsCache{rdb: c.Underlying()}
}

func oddsKey(marketID uint64) string {
	return "odds:" + strconv.FormatUint(marketID, 10)
}

// Set stores the normalized odds vector for a market.
func (oc *OddsCache) Set(ctx context.Context, marketID uint64, percents []float64) error {
	data, err := json.Marshal(percents)
	if err != nil {
		return fmt.Errorf("redis: marshal odds for market %d: %w", marketID, err)
	}
	if err := oc.rdb.Set(ctx, oddsKey(marketID), data, oddsTTL).Err(); err != nil {
		return fmt.Errorf("redis: set odds for market %d: %w", marketID, err)
	}
	return nil
}

// Get retrieves the odds vector, returning domain.ErrNotFound on a miss.
func (oc *OddsCache) Get(ctx context.Context, marketID uint64) ([]float64, error) {
	data, err := oc.rdb.Get(ctx, oddsKey(marketID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get odds for market %d: %w", marketID, err)
	}

	var percents []float64
	if err := json.Unmarshal(data, &percents); err != nil {
		return nil, fmt.Errorf("redis: unmarshal odds for market %d: %w", marketID, err)
	}
	return percents, nil
}

// Invalidate removes a market's odds from the cache.
func (oc *OddsCache) Invalidate(ctx context.Context, marketID uint64) error {
	if err := oc.rdb.Del(ctx, oddsKey(marketID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate odds for market %d: %w", marketID, err)
	}
	return nil
}

var _ domain.OddsCache = (*OddsCache)(nil)
