// Package analytics computes NAV-series statistics used by the weight
// strategies and the risk trigger: rolling volatility, drawdown and a
// composite risk score.
package analytics

import (
	"errors"
	"math"

	"solana-basket-engine/internal/domain"
)

var (
	ErrTooFewSamples = errors.New("too few samples")
	ErrZeroPrice     = errors.New("zero price in series")
)

// RollingVolatilityBps computes the sample standard deviation of log
// returns over the trailing lookback window, expressed in basis points.
// prices must be in chronological order; lookback counts returns, so the
// window spans lookback+1 prices. A lookback of 0 uses the whole series.
func RollingVolatilityBps(prices []uint64, lookback int) (uint64, error) {
	if lookback > 0 && len(prices) > lookback+1 {
		prices = prices[len(prices)-lookback-1:]
	}
	if len(prices) < 3 {
		return 0, ErrTooFewSamples
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 || prices[i] == 0 {
			return 0, ErrZeroPrice
		}
		returns = append(returns, math.Log(float64(prices[i])/float64(prices[i-1])))
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	sumSq := 0.0
	for _, r := range returns {
		d := r - mean
		sumSq += d * d
	}
	// Sample stddev, n-1 denominator.
	stddev := math.Sqrt(sumSq / float64(len(returns)-1))

	bps := stddev * float64(domain.BasisPointsMax)
	if bps >= float64(math.MaxUint64) {
		return math.MaxUint64, nil
	}
	return uint64(bps), nil
}
