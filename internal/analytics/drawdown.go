package analytics

import "solana-basket-engine/internal/domain"

// MaxDrawdownBps computes the worst peak-to-trough decline over a NAV
// series, in basis points of the peak. The series must be chronological.
func MaxDrawdownBps(navs []uint64) uint64 {
	var peak, worst uint64
	for _, nav := range navs {
		if nav > peak {
			peak = nav
		}
		if peak == 0 {
			continue
		}
		dd := (peak - nav) * domain.BasisPointsMax / peak
		if dd > worst {
			worst = dd
		}
	}
	return worst
}

// RiskScore folds drawdown and volatility into a single 0..10000 score.
// Each input saturates at 10000 bps and contributes half the scale, so a
// basket at its drawdown limit with extreme volatility scores 10000.
func RiskScore(drawdownBps, volatilityBps uint64) uint64 {
	cap64 := func(x uint64) uint64 {
		if x > domain.BasisPointsMax {
			return domain.BasisPointsMax
		}
		return x
	}
	return (cap64(drawdownBps) + cap64(volatilityBps)) / 2
}
