package policy

import (
	"errors"

	"solana-basket-engine/internal/domain"
)

var ErrNoAnchor = errors.New("no volatility data to pick a defensive anchor")

// buildRiskReductionPlan rotates the basket toward its lowest-volatility
// constituent. Every other constituent is sold down to the defensive
// floor; the anchor absorbs all proceeds. Normal target weights are
// ignored on this path.
func buildRiskReductionPlan(in *Inputs, cfg domain.RebalancingConfig, risk domain.RiskSettings) (*domain.TradePlan, error) {
	if in.Nav == 0 {
		return nil, ErrZeroNav
	}

	anchor, err := defensiveAnchor(in)
	if err != nil {
		return nil, err
	}

	var sells []side
	for i := range in.Constituents {
		if i == anchor || in.CurrentWeightBps[i] <= risk.DefensiveFloorBps {
			continue
		}
		excessBps := in.CurrentWeightBps[i] - risk.DefensiveFloorBps
		value, err := domain.MulDiv(in.Nav, excessBps, domain.BasisPointsMax)
		if err != nil {
			return nil, err
		}
		if value > 0 {
			sells = append(sells, side{index: i, remaining: value})
		}
	}

	plan := &domain.TradePlan{ShouldRebalance: true, Trigger: domain.TriggerRisk}
	anchorMint := in.Constituents[anchor]
	for _, s := range sells {
		if s.remaining < cfg.DustThresholdValue {
			plan.DeferredValue += s.remaining
			continue
		}
		c := in.Constituents[s.index]
		plan.Legs = append(plan.Legs, domain.TradeLeg{
			SellMint:   c.Mint,
			SellSymbol: c.Symbol,
			BuyMint:    anchorMint.Mint,
			BuySymbol:  anchorMint.Symbol,
			Value:      s.remaining,
		})
	}
	if len(plan.Legs) == 0 {
		// Already at or below the floor everywhere; nothing to rotate,
		// but the trigger still fired so the caller can freeze.
		plan.ShouldRebalance = false
	}
	return plan, nil
}

// defensiveAnchor picks the lowest-volatility constituent, breaking ties
// on ascending index. Constituents without a volatility estimate are
// never chosen as anchor.
func defensiveAnchor(in *Inputs) (int, error) {
	best := -1
	var bestVol uint64
	for i, c := range in.Constituents {
		vol, ok := in.VolatilityBps[c.Symbol]
		if !ok {
			continue
		}
		if best == -1 || vol < bestVol {
			best, bestVol = i, vol
		}
	}
	if best == -1 {
		return 0, ErrNoAnchor
	}
	return best, nil
}
