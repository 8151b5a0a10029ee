package weights

import (
	"context"
	"fmt"
)

// Momentum weights constituents by their spot-over-TWAP ratio: tokens
// trading above their recent average get proportionally more weight. A
// flat market degenerates to near-equal weights.
type Momentum struct {
	MinWeightBps *uint64
	MaxWeightBps *uint64
}

// NewMomentum creates a momentum-weighted strategy.
func NewMomentum(minBps, maxBps *uint64) *Momentum {
	return &Momentum{MinWeightBps: minBps, MaxWeightBps: maxBps}
}

// ID returns the strategy identifier.
func (s *Momentum) ID() string {
	return "MOMENTUM"
}

// ComputeTargetWeights weights by spot/TWAP ratio.
func (s *Momentum) ComputeTargetWeights(_ context.Context, input *Input) ([]uint64, error) {
	scores := make([]float64, len(input.Constituents))
	for i, c := range input.Constituents {
		spot, ok := input.Prices[c.Symbol]
		if !ok {
			return nil, fmt.Errorf("price missing for %s", c.Symbol)
		}
		twap, ok := input.TwapPrices[c.Symbol]
		if !ok || twap == 0 {
			return nil, fmt.Errorf("TWAP missing for %s", c.Symbol)
		}
		scores[i] = float64(spot) / float64(twap)
	}
	return NormalizeBps(ClampScores(scores, s.MinWeightBps, s.MaxWeightBps))
}

var _ Strategy = (*Momentum)(nil)
