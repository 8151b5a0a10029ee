package weights

import (
	"context"
)

// Equal assigns each constituent the same weight, with the rounding
// residual going to the lowest indexes.
type Equal struct{}

// NewEqual creates an equal-weight strategy.
func NewEqual() *Equal {
	return &Equal{}
}

// ID returns the strategy identifier.
func (s *Equal) ID() string {
	return "EQUAL_WEIGHT"
}

// ComputeTargetWeights returns a uniform weight vector.
func (s *Equal) ComputeTargetWeights(_ context.Context, input *Input) ([]uint64, error) {
	scores := make([]float64, len(input.Constituents))
	for i := range scores {
		scores[i] = 1
	}
	return NormalizeBps(scores)
}

var _ Strategy = (*Equal)(nil)
