package domain

// Rebalance trigger reasons, in trigger precedence order.
const (
	TriggerNone  = ""
	TriggerDrift = "DRIFT"
	TriggerTime  = "TIME"
	TriggerRisk  = "RISK"
)

// TradeLeg is one swap in a trade plan. Value is expressed in smallest
// value units (the NAV scale); the engine converts to input-token amounts
// at the sell-side price when executing.
type TradeLeg struct {
	SellMint   Mint
	SellSymbol string
	BuyMint    Mint
	BuySymbol  string
	Value      uint64
}

// TradePlan is the rebalancing policy's decision output.
type TradePlan struct {
	ShouldRebalance bool
	Trigger         string // TriggerDrift | TriggerTime | TriggerRisk
	Legs            []TradeLeg

	// DeferredValue is delta value below the dust threshold that was left
	// for the next evaluation instead of being traded.
	DeferredValue uint64
}
