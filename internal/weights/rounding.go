package weights

import (
	"errors"
	"fmt"

	"solana-basket-engine/internal/domain"
)

// Rounding errors.
var (
	ErrNoWeightMass  = errors.New("weight scores sum to zero")
	ErrNegativeScore = errors.New("negative weight score")
	ErrEmptyBasket   = errors.New("no constituents")
)

// NormalizeBps converts raw non-negative scores to a bps weight vector
// summing to exactly 10000. Scores are scaled in float64, floored to bps,
// and the residual is assigned in ascending-index order one bp at a time.
// Deterministic given identical inputs.
func NormalizeBps(scores []float64) ([]uint64, error) {
	if len(scores) == 0 {
		return nil, ErrEmptyBasket
	}

	var total float64
	for i, s := range scores {
		if s < 0 {
			return nil, fmt.Errorf("%w: index %d", ErrNegativeScore, i)
		}
		total += s
	}
	if total <= 0 {
		return nil, ErrNoWeightMass
	}

	out := make([]uint64, len(scores))
	var sum uint64
	for i, s := range scores {
		w := uint64(s / total * float64(domain.BasisPointsMax))
		if w > domain.BasisPointsMax {
			w = domain.BasisPointsMax
		}
		out[i] = w
		sum += w
	}

	// Floor rounding leaves a residual strictly below len(scores) bps;
	// distribute it one bp per constituent, wrapping if clamping above
	// left a larger gap.
	for residual := domain.BasisPointsMax - sum; residual > 0; {
		for i := range out {
			if residual == 0 {
				break
			}
			out[i]++
			residual--
		}
	}
	return out, nil
}

// ClampScores bounds each score's share to [minBps, maxBps] before
// normalization. Bounds are applied to the raw shares; renormalization may
// relax them slightly, matching threshold semantics, not hard constraints.
func ClampScores(scores []float64, minBps, maxBps *uint64) []float64 {
	var total float64
	for _, s := range scores {
		total += s
	}
	if total <= 0 {
		return scores
	}

	out := make([]float64, len(scores))
	copy(out, scores)
	for i := range out {
		share := out[i] / total * float64(domain.BasisPointsMax)
		if minBps != nil && share < float64(*minBps) {
			share = float64(*minBps)
		}
		if maxBps != nil && share > float64(*maxBps) {
			share = float64(*maxBps)
		}
		out[i] = share
	}
	return out
}
