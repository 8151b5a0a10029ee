package weights

import (
	"context"
	"fmt"
)

// MarketCap weights constituents proportionally to price × balance, i.e.
// the value each position contributes to the basket, with an optional
// per-asset clamp.
type MarketCap struct {
	MinWeightBps *uint64
	MaxWeightBps *uint64
}

// NewMarketCap creates a market-cap-weighted strategy.
func NewMarketCap(minBps, maxBps *uint64) *MarketCap {
	return &MarketCap{MinWeightBps: minBps, MaxWeightBps: maxBps}
}

// ID returns the strategy identifier including clamp parameters.
func (s *MarketCap) ID() string {
	id := "MARKET_CAP"
	if s.MinWeightBps != nil {
		id += fmt.Sprintf("_min%d", *s.MinWeightBps)
	}
	if s.MaxWeightBps != nil {
		id += fmt.Sprintf("_max%d", *s.MaxWeightBps)
	}
	return id
}

// ComputeTargetWeights weights by constituent value.
func (s *MarketCap) ComputeTargetWeights(_ context.Context, input *Input) ([]uint64, error) {
	scores := make([]float64, len(input.Constituents))
	for i, c := range input.Constituents {
		price, ok := input.Prices[c.Symbol]
		if !ok {
			return nil, fmt.Errorf("price missing for %s", c.Symbol)
		}
		scores[i] = float64(price) * float64(c.Balance)
	}
	return NormalizeBps(ClampScores(scores, s.MinWeightBps, s.MaxWeightBps))
}

var _ Strategy = (*MarketCap)(nil)
