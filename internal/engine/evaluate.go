package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"solana-basket-engine/internal/analytics"
	"solana-basket-engine/internal/domain"
	"solana-basket-engine/internal/oracle"
	"solana-basket-engine/internal/policy"
	"solana-basket-engine/internal/storage"
	"solana-basket-engine/internal/weights"
)

// Compute-unit cost booked per executed swap leg.
const swapComputeUnits = 90_000

// EvaluateAndExecute runs one full evaluation for a basket: load, price,
// weigh, decide, execute, commit. Leg failures do not roll back already
// executed legs; residual drift is corrected on the next call. When no
// trigger fires the basket is left completely untouched.
func (e *Engine) EvaluateAndExecute(ctx context.Context, basketID uint64) (*domain.ExecutionResult, error) {
	lock := e.basketLock(basketID)
	lock.Lock()
	defer lock.Unlock()

	started := time.Now()
	result, err := e.evaluateLocked(ctx, basketID)
	if e.metrics != nil {
		e.metrics.EvaluationSeconds.Observe(time.Since(started).Seconds())
		if err != nil {
			e.metrics.EvaluationErrors.WithLabelValues(string(ClassOf(err))).Inc()
		}
		if result != nil {
			e.metrics.EvaluationsTotal.WithLabelValues(string(result.Outcome)).Inc()
		}
	}
	return result, err
}

func (e *Engine) evaluateLocked(ctx context.Context, basketID uint64) (*domain.ExecutionResult, error) {
	reject := func(err error) (*domain.ExecutionResult, error) {
		return &domain.ExecutionResult{
			BasketID: basketID,
			Outcome:  domain.OutcomeRejected,
			Reason:   err.Error(),
		}, err
	}

	b, err := e.baskets.GetByID(ctx, basketID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return reject(stateErr(fmt.Errorf("basket %d: %w", basketID, err)))
		}
		return reject(adapterErr(err))
	}

	cfg, err := e.configs.GetByID(ctx, b.StrategyConfigID)
	if err != nil {
		return reject(stateErr(fmt.Errorf("strategy config %d: %w", b.StrategyConfigID, err)))
	}

	riskBreach := riskBreached(b.RiskMetrics, cfg.Risk)

	switch b.Status {
	case domain.StatusActive:
	case domain.StatusFrozen:
		// Frozen permits only the forced risk-reduction path.
		if !riskBreach {
			return reject(stateErr(fmt.Errorf("%w: status %s", domain.ErrBasketNotActive, b.Status)))
		}
	default:
		return reject(stateErr(fmt.Errorf("%w: status %s", domain.ErrBasketNotActive, b.Status)))
	}
	if !b.EnableRebalancing {
		return reject(stateErr(domain.ErrRebalancingDisabled))
	}

	now := e.clock()

	prices, err := e.fetchPrices(ctx, b, cfg.Optimization, now)
	if err != nil {
		return reject(err)
	}

	nav, err := b.ComputeNav(prices)
	if err != nil {
		return reject(validationErr(err))
	}

	vols, err := e.fetchVolatility(ctx, b, cfg, riskBreach)
	if err != nil {
		return reject(err)
	}

	target, err := e.computeTargetWeights(ctx, b, cfg, prices, vols)
	if err != nil {
		return reject(err)
	}

	current, err := policy.CurrentWeightsBps(b.Constituents, prices, nav)
	if err != nil {
		return reject(validationErr(err))
	}

	plan, err := policy.Evaluate(&policy.Inputs{
		Constituents:     b.Constituents,
		CurrentWeightBps: current,
		TargetWeightBps:  target,
		Nav:              nav,
		ElapsedSec:       now - b.LastRebalanced,
		Risk:             b.RiskMetrics,
		VolatilityBps:    vols,
	}, cfg.Rebalancing, cfg.Risk)
	if err != nil {
		return reject(validationErr(err))
	}

	if e.metrics != nil && plan.Trigger != domain.TriggerNone {
		e.metrics.TriggersTotal.WithLabelValues(plan.Trigger).Inc()
	}

	if !plan.ShouldRebalance {
		if plan.Trigger == domain.TriggerRisk {
			// Breached but nothing left to rotate; freeze without trading.
			return e.commitRiskFreeze(ctx, b, cfg, now)
		}
		return &domain.ExecutionResult{
			BasketID: basketID,
			Outcome:  domain.OutcomeNoActionNeeded,
		}, nil
	}

	legResults := e.executeLegs(ctx, b, cfg, plan, prices, now)

	if err := e.commit(ctx, b, cfg, plan, prices, vols, now); err != nil {
		return reject(err)
	}

	result := &domain.ExecutionResult{
		BasketID: basketID,
		Outcome:  domain.OutcomeRebalanced,
		Trigger:  plan.Trigger,
		Legs:     legResults,
		NewNav:   b.TotalValue,
	}
	for _, lr := range legResults {
		if lr.Err == "" {
			result.LegsExecuted++
		} else {
			result.LegsFailed++
		}
	}
	e.logf("basket %d rebalanced: trigger=%s legs=%d failed=%d nav=%d",
		basketID, plan.Trigger, result.LegsExecuted, result.LegsFailed, result.NewNav)
	return result, nil
}

// fetchPrices pulls a spot quote for every constituent and enforces the
// freshness bound.
func (e *Engine) fetchPrices(ctx context.Context, b *domain.BasketIndexState, opt domain.OptimizationSettings, now int64) (map[string]uint64, error) {
	prices := make(map[string]uint64, len(b.Constituents))
	for _, c := range b.Constituents {
		callCtx, cancel := adapterCtx(ctx, opt)
		q, err := e.oracle.GetPrice(callCtx, c.Symbol)
		cancel()
		if err != nil {
			e.countLookup("missing")
			return nil, adapterErr(fmt.Errorf("price for %s: %w", c.Symbol, err))
		}
		if opt.MaxPriceAgeSec > 0 && now-q.AsOf > opt.MaxPriceAgeSec {
			e.countLookup("stale")
			return nil, adapterErr(fmt.Errorf("price for %s: %w", c.Symbol, oracle.ErrStaleData))
		}
		e.countLookup("ok")
		prices[c.Symbol] = q.Price
	}
	return prices, nil
}

// fetchVolatility loads per-symbol volatility when the bound strategy or
// the risk path needs it. Returns nil when nothing needs it.
func (e *Engine) fetchVolatility(ctx context.Context, b *domain.BasketIndexState, cfg *domain.StrategyConfig, riskBreach bool) (map[string]uint64, error) {
	if cfg.Weight.Algorithm != domain.WeightAlgoRiskParity && !riskBreach {
		return nil, nil
	}
	if e.volatility == nil {
		return nil, validationErr(errors.New("no volatility source configured"))
	}

	vols := make(map[string]uint64, len(b.Constituents))
	for _, c := range b.Constituents {
		callCtx, cancel := adapterCtx(ctx, cfg.Optimization)
		v, err := e.volatility.VolatilityBps(callCtx, c.Symbol)
		cancel()
		if err != nil {
			return nil, adapterErr(fmt.Errorf("volatility for %s: %w", c.Symbol, err))
		}
		vols[c.Symbol] = v
	}
	return vols, nil
}

// computeTargetWeights resolves the bound algorithm through the registry
// and runs the weight strategy.
func (e *Engine) computeTargetWeights(ctx context.Context, b *domain.BasketIndexState, cfg *domain.StrategyConfig, prices, vols map[string]uint64) ([]uint64, error) {
	if e.algorithms != nil {
		if _, err := e.algorithms.Lookup(cfg.Weight.Algorithm, true); err != nil {
			return nil, stateErr(fmt.Errorf("algorithm %s: %w", cfg.Weight.Algorithm, err))
		}
	}

	strat, err := weights.FromConfig(cfg.Weight)
	if err != nil {
		return nil, validationErr(err)
	}

	input := &weights.Input{
		Constituents:    b.Constituents,
		Prices:          prices,
		VolatilityBps:   vols,
		AISignals:       b.AISignals,
		ExternalSignals: b.ExternalSignals,
	}

	if cfg.Weight.Algorithm == domain.WeightAlgoMomentum {
		input.TwapPrices, err = e.fetchTwaps(ctx, b, cfg)
		if err != nil {
			return nil, err
		}
	}

	target, err := strat.ComputeTargetWeights(ctx, input)
	if err != nil {
		return nil, validationErr(err)
	}
	return target, nil
}

// Momentum compares spot against the trailing hour by default.
const defaultTwapInterval = time.Hour

func (e *Engine) fetchTwaps(ctx context.Context, b *domain.BasketIndexState, cfg *domain.StrategyConfig) (map[string]uint64, error) {
	twaps := make(map[string]uint64, len(b.Constituents))
	for _, c := range b.Constituents {
		callCtx, cancel := adapterCtx(ctx, cfg.Optimization)
		p, err := e.oracle.GetTWAP(callCtx, c.Symbol, defaultTwapInterval)
		cancel()
		if err != nil {
			return nil, adapterErr(fmt.Errorf("twap for %s: %w", c.Symbol, err))
		}
		twaps[c.Symbol] = p
	}
	return twaps, nil
}

// executeLegs runs the plan against the DEX. Each leg is independent: a
// failed quote or swap is recorded and the next leg proceeds. Balances
// reflect actual executed amounts, not planned ones.
func (e *Engine) executeLegs(ctx context.Context, b *domain.BasketIndexState, cfg *domain.StrategyConfig, plan *domain.TradePlan, prices map[string]uint64, now int64) []domain.LegResult {
	results := make([]domain.LegResult, 0, len(plan.Legs))

	if e.metrics != nil && plan.DeferredValue > 0 {
		e.metrics.DeferredValue.Add(float64(plan.DeferredValue))
	}

	for _, leg := range plan.Legs {
		lr := e.executeLeg(ctx, b, cfg, leg, prices, now)
		if e.metrics != nil {
			if lr.Err == "" {
				e.metrics.LegsExecuted.Inc()
			} else {
				e.metrics.LegsFailed.Inc()
			}
		}
		results = append(results, lr)
	}
	return results
}

func (e *Engine) executeLeg(ctx context.Context, b *domain.BasketIndexState, cfg *domain.StrategyConfig, leg domain.TradeLeg, prices map[string]uint64, now int64) domain.LegResult {
	lr := domain.LegResult{Leg: leg}
	started := time.Now()

	fail := func(err error) domain.LegResult {
		lr.Err = err.Error()
		b.ExecutionStats.RecordFailure(0, elapsedMs(started), now)
		e.logf("basket %d leg %s->%s failed: %v", b.ID, leg.SellSymbol, leg.BuySymbol, err)
		return lr
	}

	sellPrice := prices[leg.SellSymbol]
	buyPrice := prices[leg.BuySymbol]
	if sellPrice == 0 || buyPrice == 0 {
		return fail(domain.ErrPriceUnavailable)
	}

	amountIn, err := domain.MulDiv(leg.Value, domain.PricePrecision, sellPrice)
	if err != nil {
		return fail(err)
	}
	expectedOut, err := domain.MulDiv(leg.Value, domain.PricePrecision, buyPrice)
	if err != nil {
		return fail(err)
	}
	minOut, err := domain.MulDiv(expectedOut, domain.BasisPointsMax-cfg.Rebalancing.MaxSlippageBps, domain.BasisPointsMax)
	if err != nil {
		return fail(err)
	}
	lr.AmountIn = amountIn

	sell, err := b.Constituent(leg.SellMint)
	if err != nil {
		return fail(err)
	}
	buy, err := b.Constituent(leg.BuyMint)
	if err != nil {
		return fail(err)
	}
	if sell.Balance < amountIn {
		return fail(fmt.Errorf("sell balance %d below leg size %d", sell.Balance, amountIn))
	}

	callCtx, cancel := adapterCtx(ctx, cfg.Optimization)
	quoted, err := e.dex.Quote(callCtx, leg.SellMint, leg.BuyMint, amountIn)
	cancel()
	if err != nil {
		return fail(fmt.Errorf("quote: %w", err))
	}
	if quoted < minOut {
		return fail(fmt.Errorf("quote %d below slippage floor %d", quoted, minOut))
	}

	callCtx, cancel = adapterCtx(ctx, cfg.Optimization)
	out, err := e.dex.Swap(callCtx, leg.SellMint, leg.BuyMint, amountIn, minOut)
	cancel()
	if e.metrics != nil {
		e.metrics.SwapSeconds.Observe(time.Since(started).Seconds())
	}
	if err != nil {
		return fail(fmt.Errorf("swap: %w", err))
	}

	sell.Balance -= amountIn
	buy.Balance += out
	lr.AmountOut = out
	b.ExecutionStats.RecordSuccess(swapComputeUnits, elapsedMs(started), now)
	return lr
}

// commit folds execution results back into the aggregate and persists.
// Invariants are validated before the store write so a bad plan cannot
// corrupt state.
func (e *Engine) commit(ctx context.Context, b *domain.BasketIndexState, cfg *domain.StrategyConfig, plan *domain.TradePlan, prices, vols map[string]uint64, now int64) error {
	nav, err := b.ComputeNav(prices)
	if err != nil {
		return validationErr(err)
	}
	b.TotalValue = nav
	if err := b.UpdateNavPerToken(); err != nil {
		return validationErr(err)
	}

	if err := e.renormalizeWeights(b, prices); err != nil {
		return validationErr(err)
	}

	if b.RiskMetrics != nil {
		b.RiskMetrics.ObserveNav(nav)
		if maxVol := maxOf(vols); maxVol > 0 {
			b.RiskMetrics.RiskScore = uint32(analytics.RiskScore(b.RiskMetrics.MaxDrawdownBps, maxVol))
		}
	}

	if b.LastRebalanced < now {
		b.LastRebalanced = now
	}
	if b.UpdatedAt < now {
		b.UpdatedAt = now
	}

	if plan.Trigger == domain.TriggerRisk && cfg.Risk.FreezeOnBreach && b.Status != domain.StatusFrozen {
		if err := b.Freeze(now); err != nil {
			return stateErr(err)
		}
		if e.metrics != nil {
			e.metrics.BasketsFrozen.Inc()
		}
		e.logf("basket %d frozen after risk-reduction rebalance", b.ID)
	}

	if err := b.Validate(); err != nil {
		return validationErr(err)
	}

	if err := e.baskets.Update(ctx, b); err != nil {
		return stateErr(fmt.Errorf("commit basket %d: %w", b.ID, err))
	}

	e.appendNavHistory(ctx, b, now)
	e.updateGauges(b)
	return nil
}

// commitRiskFreeze handles a breach with an empty risk plan: every
// constituent already sits at or below the defensive floor, so the only
// action left is to freeze.
func (e *Engine) commitRiskFreeze(ctx context.Context, b *domain.BasketIndexState, cfg *domain.StrategyConfig, now int64) (*domain.ExecutionResult, error) {
	if !cfg.Risk.FreezeOnBreach || b.Status == domain.StatusFrozen {
		return &domain.ExecutionResult{
			BasketID: b.ID,
			Outcome:  domain.OutcomeNoActionNeeded,
		}, nil
	}

	if err := b.Freeze(now); err != nil {
		return nil, stateErr(err)
	}
	if b.UpdatedAt < now {
		b.UpdatedAt = now
	}
	if err := e.baskets.Update(ctx, b); err != nil {
		return nil, stateErr(fmt.Errorf("commit basket %d: %w", b.ID, err))
	}
	if e.metrics != nil {
		e.metrics.BasketsFrozen.Inc()
	}
	e.logf("basket %d frozen on risk breach with nothing to rotate", b.ID)
	return &domain.ExecutionResult{
		BasketID: b.ID,
		Outcome:  domain.OutcomeNoActionNeeded,
	}, nil
}

// renormalizeWeights recomputes WeightBps from live values so the
// composition sums to exactly 10000 bps after every commit.
func (e *Engine) renormalizeWeights(b *domain.BasketIndexState, prices map[string]uint64) error {
	scores := make([]float64, len(b.Constituents))
	for i, c := range b.Constituents {
		scores[i] = float64(c.Balance) * float64(prices[c.Symbol])
	}
	w, err := weights.NormalizeBps(scores)
	if err != nil {
		return err
	}
	for i := range b.Constituents {
		b.Constituents[i].WeightBps = w[i]
	}
	return nil
}

func (e *Engine) appendNavHistory(ctx context.Context, b *domain.BasketIndexState, now int64) {
	if e.history == nil {
		return
	}
	point := &domain.NavPoint{
		BasketID:    b.ID,
		Timestamp:   now,
		Nav:         b.TotalValue,
		NavPerToken: b.NavPerToken,
		TotalSupply: b.TotalSupply,
	}
	if err := e.history.InsertBulk(ctx, []*domain.NavPoint{point}); err != nil {
		// Two commits in the same second collide on the series key;
		// history is advisory, the aggregate commit already happened.
		if !errors.Is(err, storage.ErrDuplicateKey) {
			e.logf("basket %d nav history append failed: %v", b.ID, err)
		}
	}
}

func (e *Engine) updateGauges(b *domain.BasketIndexState) {
	if e.metrics == nil {
		return
	}
	id := strconv.FormatUint(b.ID, 10)
	e.metrics.BasketNav.WithLabelValues(id).Set(float64(b.TotalValue))
	if b.RiskMetrics != nil {
		e.metrics.BasketDrawdown.WithLabelValues(id).Set(float64(b.RiskMetrics.MaxDrawdownBps))
	}
}

func (e *Engine) countLookup(result string) {
	if e.metrics != nil {
		e.metrics.OracleLookups.WithLabelValues(result).Inc()
	}
}

func riskBreached(m *domain.RiskMetrics, settings domain.RiskSettings) bool {
	if m == nil || settings.MaxDrawdownLimitBps == 0 {
		return false
	}
	return m.MaxDrawdownBps > settings.MaxDrawdownLimitBps
}

func maxOf(m map[string]uint64) uint64 {
	var max uint64
	for _, v := range m {
		if v > max {
			max = v
		}
	}
	return max
}

func elapsedMs(started time.Time) uint64 {
	ms := time.Since(started).Milliseconds()
	if ms < 0 {
		return 0
	}
	return uint64(ms)
}
