// Package weights provides the pluggable target-weight strategies. A
// strategy is a pure function from a basket snapshot plus market data to a
// target weight vector summing to exactly 10000 bps.
package weights

import (
	"context"

	"solana-basket-engine/internal/domain"
)

// Strategy computes target weights over a basket's constituent set.
type Strategy interface {
	// ComputeTargetWeights returns one weight per constituent, in the
	// basket's canonical order, each in [0, 10000] bps, summing to exactly
	// 10000. Deterministic: identical inputs produce identical output.
	ComputeTargetWeights(ctx context.Context, input *Input) ([]uint64, error)

	// ID returns the strategy identifier (includes parameters).
	ID() string
}

// Input holds all data needed for weight computation.
type Input struct {
	// Constituents is the basket snapshot in canonical order.
	Constituents []domain.BasketConstituent

	// Prices maps oracle symbol to PricePrecision-scaled spot price.
	Prices map[string]uint64

	// TwapPrices maps symbol to TWAP over the configured lookback.
	// Required by MOMENTUM.
	TwapPrices map[string]uint64

	// VolatilityBps maps symbol to a rolling volatility estimate in bps.
	// Required by RISK_PARITY.
	VolatilityBps map[string]uint64

	// AISignals and ExternalSignals are opaque per-constituent vectors
	// consumed by SIGNAL_WEIGHTED. Indexed like Constituents; shorter
	// vectors are treated as zero-padded.
	AISignals       []float64
	ExternalSignals []float64
}

func (in *Input) signalAt(i int) float64 {
	var s float64
	if i < len(in.AISignals) {
		s += in.AISignals[i]
	}
	if i < len(in.ExternalSignals) {
		s += in.ExternalSignals[i]
	}
	return s
}
