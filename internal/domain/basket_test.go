package domain

import (
	"errors"
	"testing"
)

func testBasket(t *testing.T) *BasketIndexState {
	t.Helper()
	b, err := NewBasketIndexState(1, "auth", "collector", []BasketConstituent{
		{Mint: "mintA", Symbol: "SOL", Balance: 1_000_000, WeightBps: 6000},
		{Mint: "mintB", Symbol: "USDC", Balance: 4_000_000, WeightBps: 4000},
	}, 50, 30, 1, 1000)
	if err != nil {
		t.Fatalf("NewBasketIndexState failed: %v", err)
	}
	return b
}

func TestValidate_WeightSum(t *testing.T) {
	b := testBasket(t)
	if err := b.Validate(); err != nil {
		t.Fatalf("valid basket rejected: %v", err)
	}

	b.Constituents[0].WeightBps = 6100
	if err := b.Validate(); !errors.Is(err, ErrInvalidWeightSum) {
		t.Errorf("expected ErrInvalidWeightSum, got %v", err)
	}

	// Sum may transiently be out of range while not Active.
	b.Status = StatusPaused
	if err := b.Validate(); err != nil {
		t.Errorf("paused basket should tolerate weight drift: %v", err)
	}
}

func TestValidate_Fees(t *testing.T) {
	b := testBasket(t)
	b.CreationFeeBps = 10001
	if err := b.Validate(); !errors.Is(err, ErrFeeOutOfRange) {
		t.Errorf("expected ErrFeeOutOfRange, got %v", err)
	}
}

func TestValidate_DuplicateMint(t *testing.T) {
	b := testBasket(t)
	b.Constituents[1].Mint = b.Constituents[0].Mint
	if err := b.Validate(); !errors.Is(err, ErrDuplicateConstituent) {
		t.Errorf("expected ErrDuplicateConstituent, got %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	b := testBasket(t)

	if err := b.Pause(1001); err != nil {
		t.Fatalf("Active -> Paused failed: %v", err)
	}
	if err := b.Resume(1002); err != nil {
		t.Fatalf("Paused -> Active failed: %v", err)
	}
	if err := b.Freeze(1003); err != nil {
		t.Fatalf("Active -> Frozen failed: %v", err)
	}
	// Frozen never returns directly to Active.
	if err := b.Resume(1004); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Frozen -> Active should fail, got %v", err)
	}
	if err := b.Unfreeze(1005); err != nil {
		t.Fatalf("Frozen -> Paused failed: %v", err)
	}
	if err := b.Close(1006); err != nil {
		t.Fatalf("Paused -> Closed failed: %v", err)
	}
	// Closed is terminal.
	if err := b.Close(1007); !errors.Is(err, ErrBasketClosed) {
		t.Errorf("double close should fail, got %v", err)
	}
	if err := b.Pause(1008); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Closed -> Paused should fail, got %v", err)
	}
}

func TestClosedRejectsMutations(t *testing.T) {
	b := testBasket(t)
	if err := b.Close(1001); err != nil {
		t.Fatal(err)
	}

	if _, err := b.MintTokens(1000, 1002); !errors.Is(err, ErrBasketClosed) {
		t.Errorf("mint on closed basket: got %v", err)
	}
	if _, err := b.BurnTokens(1, 1002); !errors.Is(err, ErrBasketClosed) {
		t.Errorf("burn on closed basket: got %v", err)
	}
	if err := b.SetFees(1, 1, 1002); !errors.Is(err, ErrBasketClosed) {
		t.Errorf("fee change on closed basket: got %v", err)
	}
}

func TestMintBurn_Roundtrip(t *testing.T) {
	b := testBasket(t)
	b.CreationFeeBps = 0
	b.RedemptionFeeBps = 0

	minted, err := b.MintTokens(1_000_000, 1001)
	if err != nil {
		t.Fatalf("MintTokens failed: %v", err)
	}
	// NAV-per-token starts at 1.0, so the first mint is 1:1.
	if minted != 1_000_000 {
		t.Errorf("expected 1000000 minted, got %d", minted)
	}
	if b.NavPerToken != PricePrecision {
		t.Errorf("NAV-per-token should stay 1.0, got %d", b.NavPerToken)
	}

	redeemed, err := b.BurnTokens(minted, 1002)
	if err != nil {
		t.Fatalf("BurnTokens failed: %v", err)
	}
	if redeemed != 1_000_000 {
		t.Errorf("expected 1000000 redeemed, got %d", redeemed)
	}
	if b.TotalSupply != 0 || b.TotalValue != 0 {
		t.Errorf("supply/value not drained: %d/%d", b.TotalSupply, b.TotalValue)
	}
}

func TestMintTokens_FeeAccrual(t *testing.T) {
	b := testBasket(t)
	// 50 bps creation fee on 1_000_000 = 5000 withheld.
	minted, err := b.MintTokens(1_000_000, 1001)
	if err != nil {
		t.Fatal(err)
	}
	if minted != 995_000 {
		t.Errorf("expected 995000 minted net of fee, got %d", minted)
	}
	if b.FeesCollected != 5000 {
		t.Errorf("expected 5000 fees collected, got %d", b.FeesCollected)
	}
}

func TestBurnTokens_ExceedsSupply(t *testing.T) {
	b := testBasket(t)
	if _, err := b.BurnTokens(1, 1001); !errors.Is(err, ErrBurnExceedsSupply) {
		t.Errorf("expected ErrBurnExceedsSupply, got %v", err)
	}
}

func TestComputeNav(t *testing.T) {
	b := testBasket(t)
	prices := map[string]uint64{
		"SOL":  2 * PricePrecision, // 2.0
		"USDC": PricePrecision,     // 1.0
	}
	nav, err := b.ComputeNav(prices)
	if err != nil {
		t.Fatal(err)
	}
	if nav != 6_000_000 {
		t.Errorf("expected NAV 6000000, got %d", nav)
	}

	delete(prices, "USDC")
	if _, err := b.ComputeNav(prices); err == nil {
		t.Error("expected error for missing price")
	}
}

func TestExecutionStats_RunningMean(t *testing.T) {
	var s ExecutionStats
	s.RecordSuccess(100, 10, 1001)
	s.RecordSuccess(100, 30, 1002)
	s.RecordFailure(100, 20, 1003)

	if s.TotalExecutions != 3 || s.SuccessfulExecutions != 2 || s.FailedExecutions != 1 {
		t.Errorf("counts wrong: %+v", s)
	}
	if s.AvgExecutionTimeMs != 20 {
		t.Errorf("expected running mean 20ms, got %d", s.AvgExecutionTimeMs)
	}
	if s.TotalComputeUnits != 300 {
		t.Errorf("expected 300 compute units, got %d", s.TotalComputeUnits)
	}
	if s.LastExecution != 1003 {
		t.Errorf("expected last execution 1003, got %d", s.LastExecution)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("stats should be consistent: %v", err)
	}
}

func TestRiskMetrics_DrawdownWatermark(t *testing.T) {
	var r RiskMetrics
	r.ObserveNav(1000)
	if r.MaxDrawdownBps != 0 {
		t.Errorf("no drawdown at peak, got %d", r.MaxDrawdownBps)
	}
	r.ObserveNav(900) // -10% from peak
	if r.MaxDrawdownBps != 1000 {
		t.Errorf("expected 1000 bps drawdown, got %d", r.MaxDrawdownBps)
	}
	r.ObserveNav(950) // recovery must not lower the watermark
	if r.MaxDrawdownBps != 1000 {
		t.Errorf("watermark decreased: %d", r.MaxDrawdownBps)
	}
	r.ObserveNav(1200) // new peak
	r.ObserveNav(1100)
	// 100/1200 = 8.33% < recorded 10%
	if r.MaxDrawdownBps != 1000 {
		t.Errorf("watermark should keep historical max, got %d", r.MaxDrawdownBps)
	}
	if r.NavPeak != 1200 {
		t.Errorf("expected peak 1200, got %d", r.NavPeak)
	}
}
