package domain

// ExecutionOutcome classifies the result of one evaluate-and-execute call.
type ExecutionOutcome string

const (
	OutcomeNoActionNeeded ExecutionOutcome = "NO_ACTION_NEEDED"
	OutcomeRebalanced     ExecutionOutcome = "REBALANCED"
	OutcomeRejected       ExecutionOutcome = "REJECTED"
)

// LegResult records one executed or failed trade leg.
type LegResult struct {
	Leg       TradeLeg
	AmountIn  uint64 // input-token amount sent
	AmountOut uint64 // output-token amount actually received, 0 on failure
	Err       string // empty on success
}

// ExecutionResult is returned to the external trigger.
type ExecutionResult struct {
	BasketID uint64
	Outcome  ExecutionOutcome
	Trigger  string // trigger reason when Outcome is REBALANCED

	LegsExecuted int
	LegsFailed   int
	Legs         []LegResult

	NewNav uint64 // NAV after commit, only set when REBALANCED

	// Reason describes a rejection. Empty otherwise.
	Reason string
}
