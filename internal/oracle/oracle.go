// Package oracle provides the uniform price-lookup capability consumed by
// the weight strategies and the execution engine: spot, TWAP and VWAP per
// symbol, with explicit freshness bounds.
package oracle

import (
	"context"
	"errors"
	"time"
)

// Oracle errors.
var (
	ErrSymbolNotFound   = errors.New("symbol not found")
	ErrStaleData        = errors.New("price data is stale")
	ErrInsufficientData = errors.New("not enough observations in interval")
)

// Quote is a spot price observation. Price is PricePrecision-scaled.
type Quote struct {
	Symbol string
	Price  uint64
	AsOf   int64 // unix seconds
}

// PriceOracle is the adapter capability. Implementations must be safe for
// concurrent use; calls may block on network I/O and honor ctx.
type PriceOracle interface {
	// GetPrice returns the latest spot quote for a symbol.
	GetPrice(ctx context.Context, symbol string) (Quote, error)

	// GetTWAP returns the time-weighted average price over the interval
	// ending now.
	GetTWAP(ctx context.Context, symbol string, interval time.Duration) (uint64, error)

	// GetVWAP returns the volume-weighted average price over the interval
	// ending now.
	GetVWAP(ctx context.Context, symbol string, interval time.Duration) (uint64, error)
}
