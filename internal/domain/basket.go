package domain

import (
	"errors"
	"fmt"
)

// Numeric scale constants.
const (
	// BasisPointsMax is the full weight scale (100% = 10000 bps).
	BasisPointsMax uint64 = 10_000

	// PricePrecision is the fixed-point scale for prices and NAV-per-token.
	PricePrecision uint64 = 1_000_000_000

	// MaxFeeBps caps creation and redemption fees.
	MaxFeeBps uint16 = 10_000

	// MaxConstituents bounds basket composition size.
	MaxConstituents = 32
)

// Validation and state errors.
var (
	ErrInvalidWeightSum     = errors.New("constituent weights do not sum to 10000 bps")
	ErrWeightOutOfRange     = errors.New("constituent weight exceeds 10000 bps")
	ErrFeeOutOfRange        = errors.New("fee exceeds 10000 bps")
	ErrNoConstituents       = errors.New("basket has no constituents")
	ErrTooManyConstituents  = errors.New("basket exceeds max constituent count")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrBasketClosed         = errors.New("basket is closed")
	ErrBasketNotActive      = errors.New("basket is not active")
	ErrRebalancingDisabled  = errors.New("rebalancing is disabled for basket")
	ErrBurnExceedsSupply    = errors.New("burn amount exceeds total supply")
	ErrMissingAuthority     = errors.New("basket authority is required")
	ErrStatsInconsistent    = errors.New("execution stats outcome counts exceed total")
	ErrTimestampRegression  = errors.New("timestamp regression")
	ErrUnknownConstituent   = errors.New("constituent not in basket")
	ErrDuplicateConstituent = errors.New("duplicate constituent mint")
	ErrPriceUnavailable     = errors.New("price unavailable for constituent")
)

// Status is the basket lifecycle state.
type Status uint8

const (
	StatusActive Status = iota
	StatusPaused
	StatusFrozen
	StatusClosed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "ACTIVE"
	case StatusPaused:
		return "PAUSED"
	case StatusFrozen:
		return "FROZEN"
	case StatusClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(s))
	}
}

// ParseStatus maps a status name back to its enum value.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "ACTIVE":
		return StatusActive, nil
	case "PAUSED":
		return StatusPaused, nil
	case "FROZEN":
		return StatusFrozen, nil
	case "CLOSED":
		return StatusClosed, nil
	default:
		return 0, fmt.Errorf("unknown status %q", s)
	}
}

// BasketConstituent is one underlying token position.
// Collection order within a basket is canonical: weight-sum checks and
// residual rounding iterate in this order.
type BasketConstituent struct {
	Mint      Mint   // token mint address
	Symbol    string // oracle symbol for price lookup
	Balance   uint64 // current balance in smallest units
	WeightBps uint64 // current weight in basis points
}

// ExecutionStats tracks cumulative execution outcomes for a basket.
// All counters are monotonically non-decreasing; AvgExecutionTimeMs is a
// running mean over recorded executions.
type ExecutionStats struct {
	TotalExecutions      uint64
	SuccessfulExecutions uint64
	FailedExecutions     uint64
	TotalComputeUnits    uint64
	AvgExecutionTimeMs   uint64
	LastExecution        int64 // unix seconds, 0 if never executed
}

// RecordSuccess records one successful execution.
func (s *ExecutionStats) RecordSuccess(computeUnits, elapsedMs uint64, now int64) {
	s.record(computeUnits, elapsedMs, now)
	s.SuccessfulExecutions++
}

// RecordFailure records one failed execution.
func (s *ExecutionStats) RecordFailure(computeUnits, elapsedMs uint64, now int64) {
	s.record(computeUnits, elapsedMs, now)
	s.FailedExecutions++
}

func (s *ExecutionStats) record(computeUnits, elapsedMs uint64, now int64) {
	// Running mean: avg' = (avg*n + x) / (n+1)
	s.AvgExecutionTimeMs = (s.AvgExecutionTimeMs*s.TotalExecutions + elapsedMs) / (s.TotalExecutions + 1)
	s.TotalExecutions++
	s.TotalComputeUnits += computeUnits
	if now > s.LastExecution {
		s.LastExecution = now
	}
}

// Validate checks counter consistency.
func (s *ExecutionStats) Validate() error {
	if s.SuccessfulExecutions+s.FailedExecutions > s.TotalExecutions {
		return ErrStatsInconsistent
	}
	return nil
}

// RiskMetrics holds the basket's risk state.
type RiskMetrics struct {
	RiskScore      uint32 // 0-10000, higher = riskier
	MaxDrawdownBps uint64 // peak-to-trough NAV loss watermark, non-decreasing
	NavPeak        uint64 // highest NAV observed, basis for drawdown
}

// ObserveNav folds a NAV observation into the drawdown watermark.
// The watermark never decreases; the peak only increases.
func (r *RiskMetrics) ObserveNav(nav uint64) {
	if nav > r.NavPeak {
		r.NavPeak = nav
		return
	}
	if r.NavPeak == 0 {
		return
	}
	dd := (r.NavPeak - nav) * BasisPointsMax / r.NavPeak
	if dd > r.MaxDrawdownBps {
		r.MaxDrawdownBps = dd
	}
}

// BasketIndexState is the persistent aggregate for one basket index token.
// It is mutated exclusively through the execution engine's commit step;
// the record is never deleted, StatusClosed is terminal.
type BasketIndexState struct {
	ID           uint64
	Authority    Mint
	Manager      *Mint // optional delegated manager
	FeeCollector Mint

	Constituents []BasketConstituent

	TotalValue  uint64 // NAV in smallest value units
	TotalSupply uint64 // outstanding basket-token units
	NavPerToken uint64 // PricePrecision-scaled, 1.0 when supply is zero

	CreationFeeBps   uint16
	RedemptionFeeBps uint16
	FeesCollected    uint64

	Status            Status
	EnableRebalancing bool
	StrategyConfigID  uint64
	LastRebalanced    int64 // unix seconds

	// Opaque signal vectors consumed by pluggable weight strategies.
	AISignals       []float64
	ExternalSignals []float64

	ExecutionStats ExecutionStats
	RiskMetrics    *RiskMetrics

	CreatedAt int64
	UpdatedAt int64
}

// NewBasketIndexState creates an Active basket with a seeded composition.
// Constituent weights must already sum to exactly 10000 bps.
func NewBasketIndexState(id uint64, authority, feeCollector Mint, constituents []BasketConstituent, creationFeeBps, redemptionFeeBps uint16, strategyConfigID uint64, now int64) (*BasketIndexState, error) {
	b := &BasketIndexState{
		ID:                id,
		Authority:         authority,
		FeeCollector:      feeCollector,
		Constituents:      constituents,
		NavPerToken:       PricePrecision,
		CreationFeeBps:    creationFeeBps,
		RedemptionFeeBps:  redemptionFeeBps,
		Status:            StatusActive,
		EnableRebalancing: true,
		StrategyConfigID:  strategyConfigID,
		RiskMetrics:       &RiskMetrics{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// WeightSumBps returns the sum of constituent weights in canonical order.
func (b *BasketIndexState) WeightSumBps() uint64 {
	var sum uint64
	for _, c := range b.Constituents {
		sum += c.WeightBps
	}
	return sum
}

// Validate checks all structural invariants. A basket failing Validate must
// never be committed.
func (b *BasketIndexState) Validate() error {
	if b.Authority == "" {
		return ErrMissingAuthority
	}
	if len(b.Constituents) == 0 {
		return ErrNoConstituents
	}
	if len(b.Constituents) > MaxConstituents {
		return ErrTooManyConstituents
	}
	seen := make(map[Mint]struct{}, len(b.Constituents))
	for _, c := range b.Constituents {
		if c.WeightBps > BasisPointsMax {
			return fmt.Errorf("%w: %s has %d bps", ErrWeightOutOfRange, c.Symbol, c.WeightBps)
		}
		if _, dup := seen[c.Mint]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateConstituent, c.Mint)
		}
		seen[c.Mint] = struct{}{}
	}
	// Weight-sum invariant holds whenever the basket is Active. Mid-rebalance
	// the sum may drift; commit re-normalizes before the record is persisted.
	if b.Status == StatusActive && b.WeightSumBps() != BasisPointsMax {
		return fmt.Errorf("%w: got %d", ErrInvalidWeightSum, b.WeightSumBps())
	}
	if b.CreationFeeBps > MaxFeeBps || b.RedemptionFeeBps > MaxFeeBps {
		return ErrFeeOutOfRange
	}
	if b.LastRebalanced > b.UpdatedAt {
		return fmt.Errorf("%w: last_rebalanced %d > updated_at %d", ErrTimestampRegression, b.LastRebalanced, b.UpdatedAt)
	}
	return b.ExecutionStats.Validate()
}

// Constituent returns the constituent for a mint.
func (b *BasketIndexState) Constituent(mint Mint) (*BasketConstituent, error) {
	for i := range b.Constituents {
		if b.Constituents[i].Mint == mint {
			return &b.Constituents[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownConstituent, mint)
}

// CanMutate reports whether composition and fee mutations are allowed.
// Only Active permits them.
func (b *BasketIndexState) CanMutate() error {
	switch b.Status {
	case StatusActive:
		return nil
	case StatusClosed:
		return ErrBasketClosed
	default:
		return fmt.Errorf("%w: status %s", ErrBasketNotActive, b.Status)
	}
}

// Pause transitions Active -> Paused.
func (b *BasketIndexState) Pause(now int64) error {
	if b.Status != StatusActive {
		return fmt.Errorf("%w: %s -> PAUSED", ErrInvalidTransition, b.Status)
	}
	b.Status = StatusPaused
	b.touch(now)
	return nil
}

// Resume transitions Paused -> Active.
func (b *BasketIndexState) Resume(now int64) error {
	if b.Status != StatusPaused {
		return fmt.Errorf("%w: %s -> ACTIVE", ErrInvalidTransition, b.Status)
	}
	b.Status = StatusActive
	b.touch(now)
	return nil
}

// Freeze transitions Active|Paused -> Frozen. Triggered on a risk breach
// or by the authority.
func (b *BasketIndexState) Freeze(now int64) error {
	if b.Status != StatusActive && b.Status != StatusPaused {
		return fmt.Errorf("%w: %s -> FROZEN", ErrInvalidTransition, b.Status)
	}
	b.Status = StatusFrozen
	b.touch(now)
	return nil
}

// Unfreeze transitions Frozen -> Paused. Only the authority path calls this;
// a frozen basket never returns directly to Active.
func (b *BasketIndexState) Unfreeze(now int64) error {
	if b.Status != StatusFrozen {
		return fmt.Errorf("%w: %s -> PAUSED", ErrInvalidTransition, b.Status)
	}
	b.Status = StatusPaused
	b.touch(now)
	return nil
}

// Close transitions any non-closed status to Closed. Terminal.
func (b *BasketIndexState) Close(now int64) error {
	if b.Status == StatusClosed {
		return ErrBasketClosed
	}
	b.Status = StatusClosed
	b.touch(now)
	return nil
}

// ComputeNav returns Σ balance_i × price_i / PricePrecision over the
// composition in canonical order. Prices are keyed by oracle symbol.
func (b *BasketIndexState) ComputeNav(prices map[string]uint64) (uint64, error) {
	var nav uint64
	for _, c := range b.Constituents {
		price, ok := prices[c.Symbol]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrPriceUnavailable, c.Symbol)
		}
		v, err := MulDiv(c.Balance, price, PricePrecision)
		if err != nil {
			return 0, fmt.Errorf("value of %s: %w", c.Symbol, err)
		}
		nav, err = SafeAdd(nav, v)
		if err != nil {
			return 0, err
		}
	}
	return nav, nil
}

// UpdateNavPerToken recomputes NAV-per-token from TotalValue and supply.
// When supply is zero NAV-per-token is pinned at 1.0.
func (b *BasketIndexState) UpdateNavPerToken() error {
	if b.TotalSupply == 0 {
		b.NavPerToken = PricePrecision
		return nil
	}
	npt, err := MulDiv(b.TotalValue, PricePrecision, b.TotalSupply)
	if err != nil {
		return err
	}
	b.NavPerToken = npt
	return nil
}

// MintTokens issues basket tokens against a value deposit. The creation fee
// is withheld from the deposit and accrued to FeesCollected. Returns the
// number of basket-token units minted. Constituent balance deltas are the
// token custody layer's job; this record tracks value-level accounting.
func (b *BasketIndexState) MintTokens(depositValue uint64, now int64) (uint64, error) {
	if err := b.CanMutate(); err != nil {
		return 0, err
	}
	fee, err := MulDiv(depositValue, uint64(b.CreationFeeBps), BasisPointsMax)
	if err != nil {
		return 0, err
	}
	net := depositValue - fee
	minted, err := MulDiv(net, PricePrecision, b.NavPerToken)
	if err != nil {
		return 0, err
	}
	if b.TotalSupply, err = SafeAdd(b.TotalSupply, minted); err != nil {
		return 0, err
	}
	if b.TotalValue, err = SafeAdd(b.TotalValue, net); err != nil {
		return 0, err
	}
	b.FeesCollected += fee
	if err := b.UpdateNavPerToken(); err != nil {
		return 0, err
	}
	b.touch(now)
	return minted, nil
}

// BurnTokens redeems basket tokens for underlying value. The redemption fee
// is withheld from the payout. Returns the net value redeemed.
func (b *BasketIndexState) BurnTokens(amount uint64, now int64) (uint64, error) {
	if err := b.CanMutate(); err != nil {
		return 0, err
	}
	if amount > b.TotalSupply {
		return 0, ErrBurnExceedsSupply
	}
	value, err := MulDiv(amount, b.NavPerToken, PricePrecision)
	if err != nil {
		return 0, err
	}
	fee, err := MulDiv(value, uint64(b.RedemptionFeeBps), BasisPointsMax)
	if err != nil {
		return 0, err
	}
	b.TotalSupply -= amount
	if b.TotalValue, err = SafeSub(b.TotalValue, value); err != nil {
		return 0, err
	}
	b.FeesCollected += fee
	if err := b.UpdateNavPerToken(); err != nil {
		return 0, err
	}
	b.touch(now)
	return value - fee, nil
}

// SetFees updates fee settings. Authority-gated at the service boundary.
func (b *BasketIndexState) SetFees(creationFeeBps, redemptionFeeBps uint16, now int64) error {
	if err := b.CanMutate(); err != nil {
		return err
	}
	if creationFeeBps > MaxFeeBps || redemptionFeeBps > MaxFeeBps {
		return ErrFeeOutOfRange
	}
	b.CreationFeeBps = creationFeeBps
	b.RedemptionFeeBps = redemptionFeeBps
	b.touch(now)
	return nil
}

// Clone returns a deep copy.
func (b *BasketIndexState) Clone() *BasketIndexState {
	cp := *b
	cp.Constituents = make([]BasketConstituent, len(b.Constituents))
	copy(cp.Constituents, b.Constituents)
	if b.Manager != nil {
		m := *b.Manager
		cp.Manager = &m
	}
	if b.RiskMetrics != nil {
		rm := *b.RiskMetrics
		cp.RiskMetrics = &rm
	}
	cp.AISignals = append([]float64(nil), b.AISignals...)
	cp.ExternalSignals = append([]float64(nil), b.ExternalSignals...)
	return &cp
}

func (b *BasketIndexState) touch(now int64) {
	if now > b.UpdatedAt {
		b.UpdatedAt = now
	}
}
