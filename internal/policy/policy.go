// Package policy decides whether a basket needs rebalancing and builds
// the trade plan. It is a pure function over a basket snapshot plus
// market data: no storage or adapter calls happen here.
package policy

import (
	"errors"

	"solana-basket-engine/internal/domain"
)

var (
	ErrWeightLengthMismatch = errors.New("target weight vector length mismatch")
	ErrZeroNav              = errors.New("basket NAV is zero")
)

// Inputs is the snapshot the policy evaluates. Current weights are the
// live composition derived from balances and prices, target weights come
// from the bound weight strategy. VolatilityBps is consulted only by the
// risk-reduction path to pick the anchor constituent.
type Inputs struct {
	Constituents     []domain.BasketConstituent
	CurrentWeightBps []uint64
	TargetWeightBps  []uint64
	Nav              uint64
	ElapsedSec       int64
	Risk             *domain.RiskMetrics
	VolatilityBps    map[string]uint64
}

// CurrentWeightsBps derives the live weight vector from balances and
// prices. Each weight is value_i * 10000 / NAV, floor-rounded; the vector
// may therefore sum slightly below 10000.
func CurrentWeightsBps(constituents []domain.BasketConstituent, prices map[string]uint64, nav uint64) ([]uint64, error) {
	if nav == 0 {
		return nil, ErrZeroNav
	}
	out := make([]uint64, len(constituents))
	for i, c := range constituents {
		price, ok := prices[c.Symbol]
		if !ok {
			return nil, domain.ErrPriceUnavailable
		}
		value, err := domain.MulDiv(c.Balance, price, domain.PricePrecision)
		if err != nil {
			return nil, err
		}
		w, err := domain.MulDiv(value, domain.BasisPointsMax, nav)
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

// Evaluate applies the trigger checks and, when one fires, builds the
// trade plan. The risk emergency is checked before drift and time so a
// breached basket always gets the defensive plan, whatever its drift.
func Evaluate(in *Inputs, cfg domain.RebalancingConfig, risk domain.RiskSettings) (*domain.TradePlan, error) {
	if len(in.TargetWeightBps) != len(in.Constituents) || len(in.CurrentWeightBps) != len(in.Constituents) {
		return nil, ErrWeightLengthMismatch
	}

	if riskBreached(in.Risk, risk) {
		return buildRiskReductionPlan(in, cfg, risk)
	}

	if maxDriftBps(in.CurrentWeightBps, in.TargetWeightBps) > cfg.DriftThresholdBps {
		return buildPlan(in, cfg, domain.TriggerDrift)
	}

	if cfg.MaxIntervalSec > 0 && in.ElapsedSec > cfg.MaxIntervalSec {
		return buildPlan(in, cfg, domain.TriggerTime)
	}

	return &domain.TradePlan{ShouldRebalance: false, Trigger: domain.TriggerNone}, nil
}

func riskBreached(m *domain.RiskMetrics, settings domain.RiskSettings) bool {
	if m == nil || settings.MaxDrawdownLimitBps == 0 {
		return false
	}
	return m.MaxDrawdownBps > settings.MaxDrawdownLimitBps
}

func maxDriftBps(current, target []uint64) uint64 {
	var worst uint64
	for i := range current {
		var d uint64
		if current[i] > target[i] {
			d = current[i] - target[i]
		} else {
			d = target[i] - current[i]
		}
		if d > worst {
			worst = d
		}
	}
	return worst
}
