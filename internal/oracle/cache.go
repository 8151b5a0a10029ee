package oracle

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// observation is one feed tick retained for TWAP/VWAP computation.
type observation struct {
	price  uint64
	volume uint64
	ts     int64 // unix seconds
}

// Cache is an in-memory PriceOracle fed by one or more streaming feeds.
// It keeps a bounded window of observations per symbol and enforces the
// configured freshness bound on spot reads.
type Cache struct {
	maxAge    time.Duration
	retention time.Duration
	clock     func() time.Time

	mu      sync.RWMutex
	symbols map[string][]observation
}

// NewCache creates a cache. maxAge bounds spot-quote staleness; retention
// bounds how much feed history is kept for TWAP/VWAP.
func NewCache(maxAge, retention time.Duration) *Cache {
	if retention < maxAge {
		retention = maxAge
	}
	return &Cache{
		maxAge:    maxAge,
		retention: retention,
		clock:     time.Now,
		symbols:   make(map[string][]observation),
	}
}

// SetClock overrides the time source. Tests only.
func (c *Cache) SetClock(clock func() time.Time) {
	c.clock = clock
}

// Observe folds one feed tick into the cache. Out-of-order ticks older
// than the latest observation are dropped.
func (c *Cache) Observe(symbol string, price, volume uint64, ts int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	obs := c.symbols[symbol]
	if n := len(obs); n > 0 && obs[n-1].ts > ts {
		return
	}
	obs = append(obs, observation{price: price, volume: volume, ts: ts})

	// Trim history beyond retention.
	cutoff := c.clock().Add(-c.retention).Unix()
	start := 0
	for start < len(obs)-1 && obs[start].ts < cutoff {
		start++
	}
	c.symbols[symbol] = obs[start:]
}

// GetPrice returns the latest quote. Fails with ErrStaleData when the
// newest observation is older than the freshness bound.
func (c *Cache) GetPrice(_ context.Context, symbol string) (Quote, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	obs := c.symbols[symbol]
	if len(obs) == 0 {
		return Quote{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	latest := obs[len(obs)-1]
	if c.clock().Unix()-latest.ts > int64(c.maxAge.Seconds()) {
		return Quote{}, fmt.Errorf("%w: %s as of %d", ErrStaleData, symbol, latest.ts)
	}
	return Quote{Symbol: symbol, Price: latest.price, AsOf: latest.ts}, nil
}

// GetTWAP returns the time-weighted average price over the interval ending
// now. Each observation is weighted by the time it was the live price.
func (c *Cache) GetTWAP(_ context.Context, symbol string, interval time.Duration) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	window, now, err := c.window(symbol, interval)
	if err != nil {
		return 0, err
	}

	var weighted, elapsed uint64
	for i, o := range window {
		var until int64
		if i+1 < len(window) {
			until = window[i+1].ts
		} else {
			until = now
		}
		dt := uint64(until - o.ts)
		if dt == 0 {
			dt = 1
		}
		weighted += o.price * dt
		elapsed += dt
	}
	return weighted / elapsed, nil
}

// GetVWAP returns the volume-weighted average price over the interval
// ending now. Zero-volume windows fall back to ErrInsufficientData.
func (c *Cache) GetVWAP(_ context.Context, symbol string, interval time.Duration) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	window, _, err := c.window(symbol, interval)
	if err != nil {
		return 0, err
	}

	var notional, volume uint64
	for _, o := range window {
		notional += o.price * o.volume
		volume += o.volume
	}
	if volume == 0 {
		return 0, fmt.Errorf("%w: %s has no volume in interval", ErrInsufficientData, symbol)
	}
	return notional / volume, nil
}

// PriceSeries returns the cached prices within the interval ending now,
// oldest first. Used by volatility estimation.
func (c *Cache) PriceSeries(symbol string, interval time.Duration) ([]uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	window, _, err := c.window(symbol, interval)
	if err != nil {
		return nil, err
	}
	prices := make([]uint64, len(window))
	for i, o := range window {
		prices[i] = o.price
	}
	return prices, nil
}

// window returns observations within the interval ending now. Caller holds
// at least a read lock.
func (c *Cache) window(symbol string, interval time.Duration) ([]observation, int64, error) {
	obs := c.symbols[symbol]
	if len(obs) == 0 {
		return nil, 0, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	now := c.clock().Unix()
	cutoff := now - int64(interval.Seconds())
	start := 0
	for start < len(obs) && obs[start].ts < cutoff {
		start++
	}
	if start == len(obs) {
		return nil, 0, fmt.Errorf("%w: %s", ErrInsufficientData, symbol)
	}
	return obs[start:], now, nil
}

var _ PriceOracle = (*Cache)(nil)
