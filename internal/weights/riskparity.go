package weights

import (
	"context"
	"errors"
	"fmt"
)

// Risk parity errors.
var (
	ErrMissingVolatility = errors.New("volatility estimate missing")
)

// RiskParity weights constituents inversely to their rolling volatility,
// so each contributes a comparable share of portfolio risk. The volatility
// estimate is supplied by the caller.
type RiskParity struct{}

// NewRiskParity creates a risk-parity strategy.
func NewRiskParity() *RiskParity {
	return &RiskParity{}
}

// ID returns the strategy identifier.
func (s *RiskParity) ID() string {
	return "RISK_PARITY"
}

// ComputeTargetWeights weights by inverse volatility. Every constituent
// needs a positive volatility estimate.
func (s *RiskParity) ComputeTargetWeights(_ context.Context, input *Input) ([]uint64, error) {
	scores := make([]float64, len(input.Constituents))
	for i, c := range input.Constituents {
		vol, ok := input.VolatilityBps[c.Symbol]
		if !ok || vol == 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingVolatility, c.Symbol)
		}
		scores[i] = 1 / float64(vol)
	}
	return NormalizeBps(scores)
}

var _ Strategy = (*RiskParity)(nil)
