package oracle

import (
	"context"
	"time"

	"solana-basket-engine/internal/analytics"
)

// CacheVolatility derives rolling volatility estimates from the feed
// cache's retained observation window.
type CacheVolatility struct {
	cache    *Cache
	interval time.Duration
	lookback int
}

// NewCacheVolatility creates an estimator over the trailing interval.
// lookback limits the number of returns used; 0 uses the whole window.
func NewCacheVolatility(cache *Cache, interval time.Duration, lookback int) *CacheVolatility {
	return &CacheVolatility{cache: cache, interval: interval, lookback: lookback}
}

// VolatilityBps returns the sample volatility of log returns over the
// cached price series, in basis points.
func (v *CacheVolatility) VolatilityBps(_ context.Context, symbol string) (uint64, error) {
	prices, err := v.cache.PriceSeries(symbol, v.interval)
	if err != nil {
		return 0, err
	}
	return analytics.RollingVolatilityBps(prices, v.lookback)
}
