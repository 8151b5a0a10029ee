// Package dex provides the swap-execution capability consumed by the
// execution engine: quote and swap between two tokens under a slippage
// bound.
package dex

import (
	"context"
	"errors"

	"solana-basket-engine/internal/domain"
)

// DEX errors.
var (
	ErrSlippageExceeded      = errors.New("realized output below min_amount_out")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity for swap")
	ErrUnknownPair           = errors.New("no pool for token pair")
)

// Adapter is the uniform DEX capability. Implementations must be safe for
// concurrent use; calls may block on network I/O and honor ctx.
type Adapter interface {
	// Quote estimates output for a swap without executing it.
	Quote(ctx context.Context, input, output domain.Mint, amountIn uint64) (uint64, error)

	// Swap executes. Fails with ErrSlippageExceeded if the realized output
	// would fall below minAmountOut; no partial execution in that case.
	Swap(ctx context.Context, input, output domain.Mint, amountIn, minAmountOut uint64) (uint64, error)
}
