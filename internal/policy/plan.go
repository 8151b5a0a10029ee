package policy

import (
	"sort"

	"solana-basket-engine/internal/domain"
)

// side is one half of the order book the planner pairs: a constituent
// with value still to move, in smallest value units.
type side struct {
	index     int
	remaining uint64
}

// buildPlan converts weight deltas into legs. Each constituent's delta is
// (target - current) bps of NAV; negative deltas sell, positive buy.
// Legs are paired greedily by descending remaining value so the largest
// imbalances clear in the fewest swaps. Matched value below the dust
// threshold is deferred, which keeps executed buy value equal to executed
// sell value exactly.
func buildPlan(in *Inputs, cfg domain.RebalancingConfig, trigger string) (*domain.TradePlan, error) {
	if in.Nav == 0 {
		return nil, ErrZeroNav
	}

	var sells, buys []side
	for i := range in.Constituents {
		cur, err := domain.MulDiv(in.Nav, in.CurrentWeightBps[i], domain.BasisPointsMax)
		if err != nil {
			return nil, err
		}
		tgt, err := domain.MulDiv(in.Nav, in.TargetWeightBps[i], domain.BasisPointsMax)
		if err != nil {
			return nil, err
		}
		switch {
		case cur > tgt:
			sells = append(sells, side{index: i, remaining: cur - tgt})
		case tgt > cur:
			buys = append(buys, side{index: i, remaining: tgt - cur})
		}
	}

	plan := &domain.TradePlan{ShouldRebalance: true, Trigger: trigger}
	plan.Legs, plan.DeferredValue = pairLegs(in.Constituents, sells, buys, cfg.DustThresholdValue)
	if len(plan.Legs) == 0 {
		// Every delta fell under the dust threshold.
		plan.ShouldRebalance = false
		plan.Trigger = domain.TriggerNone
	}
	return plan, nil
}

// pairLegs matches sell value against buy value, largest remaining first.
// Ties break on ascending constituent index so plans are deterministic.
func pairLegs(constituents []domain.BasketConstituent, sells, buys []side, dust uint64) ([]domain.TradeLeg, uint64) {
	var legs []domain.TradeLeg
	var deferred uint64

	for len(sells) > 0 && len(buys) > 0 {
		sortSides(sells)
		sortSides(buys)
		s, b := &sells[0], &buys[0]

		value := s.remaining
		if b.remaining < value {
			value = b.remaining
		}
		if value < dust {
			// The largest matchable value is under dust; everything left
			// on both sides waits for the next evaluation.
			break
		}

		sell, buy := constituents[s.index], constituents[b.index]
		legs = append(legs, domain.TradeLeg{
			SellMint:   sell.Mint,
			SellSymbol: sell.Symbol,
			BuyMint:    buy.Mint,
			BuySymbol:  buy.Symbol,
			Value:      value,
		})
		s.remaining -= value
		b.remaining -= value

		var dropped uint64
		sells, dropped = pruneSides(sells, dust)
		deferred += dropped
		buys, dropped = pruneSides(buys, dust)
		deferred += dropped
	}

	for _, s := range sells {
		deferred += s.remaining
	}
	for _, b := range buys {
		deferred += b.remaining
	}
	return legs, deferred
}

func sortSides(s []side) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].remaining != s[j].remaining {
			return s[i].remaining > s[j].remaining
		}
		return s[i].index < s[j].index
	})
}

// pruneSides drops entries whose remaining value cannot form a leg at or
// above the dust threshold, returning the total value dropped.
func pruneSides(s []side, dust uint64) ([]side, uint64) {
	out := s[:0]
	var dropped uint64
	for _, x := range s {
		if x.remaining >= dust && x.remaining > 0 {
			out = append(out, x)
		} else {
			dropped += x.remaining
		}
	}
	return out, dropped
}
