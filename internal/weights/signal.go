package weights

import (
	"context"
	"fmt"

	"solana-basket-engine/internal/domain"
)

// Signal blends the basket's opaque signal vectors with an equal-weight
// base. The blend factor controls the tilt: 0 bps ignores signals, 10000
// bps follows them entirely. Negative signal mass is floored at zero.
type Signal struct {
	BlendBps     uint64
	MinWeightBps *uint64
	MaxWeightBps *uint64
}

// NewSignal creates a signal-weighted strategy.
func NewSignal(blendBps uint64, minBps, maxBps *uint64) *Signal {
	return &Signal{BlendBps: blendBps, MinWeightBps: minBps, MaxWeightBps: maxBps}
}

// ID returns the strategy identifier including the blend factor.
func (s *Signal) ID() string {
	return fmt.Sprintf("SIGNAL_WEIGHTED_blend%d", s.BlendBps)
}

// ComputeTargetWeights blends normalized signal shares with the base.
func (s *Signal) ComputeTargetWeights(_ context.Context, input *Input) ([]uint64, error) {
	n := len(input.Constituents)
	if n == 0 {
		return nil, ErrEmptyBasket
	}

	// Signal shares, floored at zero and normalized to 1.
	raw := make([]float64, n)
	var signalMass float64
	for i := 0; i < n; i++ {
		v := input.signalAt(i)
		if v < 0 {
			v = 0
		}
		raw[i] = v
		signalMass += v
	}

	base := 1 / float64(n)
	lambda := float64(s.BlendBps) / float64(domain.BasisPointsMax)

	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		signalShare := base // no signal mass: tilt degenerates to the base
		if signalMass > 0 {
			signalShare = raw[i] / signalMass
		}
		scores[i] = (1-lambda)*base + lambda*signalShare
	}
	return NormalizeBps(ClampScores(scores, s.MinWeightBps, s.MaxWeightBps))
}

var _ Strategy = (*Signal)(nil)
