package domain

// Weight algorithm names. These double as registry keys: a basket's bound
// algorithm must resolve as active in the algorithm registry before use.
const (
	WeightAlgoEqual      = "EQUAL_WEIGHT"
	WeightAlgoMarketCap  = "MARKET_CAP"
	WeightAlgoRiskParity = "RISK_PARITY"
	WeightAlgoSignal     = "SIGNAL_WEIGHTED"
	WeightAlgoMomentum   = "MOMENTUM"
)

// WeightConfig selects and parameterizes a weight strategy.
type WeightConfig struct {
	Algorithm string // one of the WeightAlgo* names

	// MARKET_CAP / SIGNAL_WEIGHTED / MOMENTUM: per-asset weight clamp.
	MinWeightBps *uint64
	MaxWeightBps *uint64

	// SIGNAL_WEIGHTED: blend factor of the signal tilt over the base
	// weighting, in bps of influence (0 = ignore signals, 10000 = signals only).
	SignalBlendBps *uint64

	// MOMENTUM: lookback window in samples for the return estimate.
	LookbackSamples *int
}

// RebalancingConfig parameterizes trigger detection and plan construction.
type RebalancingConfig struct {
	DriftThresholdBps  uint64 // per-constituent trigger, e.g. 200
	MaxIntervalSec     int64  // forced time-based rebalance
	DustThresholdValue uint64 // smallest tradable leg value
	MaxSlippageBps     uint64 // per-leg slippage bound
}

// RiskSettings parameterizes the emergency risk path.
type RiskSettings struct {
	MaxDrawdownLimitBps uint64 // watermark above this triggers risk reduction
	DefensiveFloorBps   uint64 // non-anchor weight floor in a risk-reduction plan
	FreezeOnBreach      bool   // transition to Frozen after a risk-reduction commit
}

// OptimizationSettings tunes execution behavior.
type OptimizationSettings struct {
	AdapterTimeoutMs uint64 // per oracle/DEX call
	MaxPriceAgeSec   int64  // oracle freshness bound
}

// StrategyConfig is a versioned, immutable-once-referenced bundle.
// Baskets bind a config by ID; strategy changes bind a new ID rather than
// mutating the old record (append-only history).
type StrategyConfig struct {
	ID           uint64
	Weight       WeightConfig
	Rebalancing  RebalancingConfig
	Risk         RiskSettings
	Optimization OptimizationSettings
	CreatedAt    int64
}
