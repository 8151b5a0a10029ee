package weights

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"solana-basket-engine/internal/domain"
)

const pp = domain.PricePrecision

func threeConstituents() []domain.BasketConstituent {
	return []domain.BasketConstituent{
		{Mint: "mintA", Symbol: "SOL", Balance: 100},
		{Mint: "mintB", Symbol: "ETH", Balance: 50},
		{Mint: "mintC", Symbol: "USDC", Balance: 1000},
	}
}

func sumBps(t *testing.T, w []uint64) uint64 {
	t.Helper()
	var sum uint64
	for _, x := range w {
		sum += x
	}
	return sum
}

func TestEqual_ResidualToLowIndexes(t *testing.T) {
	s := NewEqual()
	w, err := s.ComputeTargetWeights(context.Background(), &Input{Constituents: threeConstituents()})
	if err != nil {
		t.Fatal(err)
	}
	// 10000/3 = 3333 rem 1; the single residual bp goes to index 0.
	want := []uint64{3334, 3333, 3333}
	if !reflect.DeepEqual(w, want) {
		t.Errorf("expected %v, got %v", want, w)
	}
}

func TestMarketCap_ProportionalToValue(t *testing.T) {
	s := NewMarketCap(nil, nil)
	input := &Input{
		Constituents: threeConstituents(),
		Prices: map[string]uint64{
			"SOL":  10 * pp, // value 1000
			"ETH":  40 * pp, // value 2000
			"USDC": 1 * pp,  // value 1000
		},
	}
	w, err := s.ComputeTargetWeights(context.Background(), input)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{2500, 5000, 2500}
	if !reflect.DeepEqual(w, want) {
		t.Errorf("expected %v, got %v", want, w)
	}
}

func TestRiskParity_InverseVolatility(t *testing.T) {
	s := NewRiskParity()
	input := &Input{
		Constituents: threeConstituents(),
		VolatilityBps: map[string]uint64{
			"SOL":  400,
			"ETH":  200,
			"USDC": 100,
		},
	}
	w, err := s.ComputeTargetWeights(context.Background(), input)
	if err != nil {
		t.Fatal(err)
	}
	// inverse vol shares: 1/4 : 1/2 : 1 -> 1/7, 2/7, 4/7
	if sumBps(t, w) != 10000 {
		t.Fatalf("weights sum %d != 10000", sumBps(t, w))
	}
	if !(w[2] > w[1] && w[1] > w[0]) {
		t.Errorf("lowest-vol constituent should dominate: %v", w)
	}

	delete(input.VolatilityBps, "ETH")
	if _, err := s.ComputeTargetWeights(context.Background(), input); !errors.Is(err, ErrMissingVolatility) {
		t.Errorf("expected ErrMissingVolatility, got %v", err)
	}
}

func TestSignal_BlendExtremes(t *testing.T) {
	input := &Input{
		Constituents:    threeConstituents(),
		ExternalSignals: []float64{0, 0, 1},
	}
	ctx := context.Background()

	// Zero blend ignores signals entirely.
	zero := NewSignal(0, nil, nil)
	w, err := zero.ComputeTargetWeights(ctx, input)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(w, []uint64{3334, 3333, 3333}) {
		t.Errorf("zero blend should equal-weight: %v", w)
	}

	// Full blend follows the signal.
	full := NewSignal(10000, nil, nil)
	w, err = full.ComputeTargetWeights(ctx, input)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(w, []uint64{0, 0, 10000}) {
		t.Errorf("full blend should follow signal: %v", w)
	}
}

func TestSignal_ClampBounds(t *testing.T) {
	minW, maxW := uint64(500), uint64(6000)
	s := NewSignal(10000, &minW, &maxW)
	input := &Input{
		Constituents:    threeConstituents(),
		ExternalSignals: []float64{0, 0, 1},
	}
	w, err := s.ComputeTargetWeights(context.Background(), input)
	if err != nil {
		t.Fatal(err)
	}
	if sumBps(t, w) != 10000 {
		t.Fatalf("weights sum %d != 10000", sumBps(t, w))
	}
	if w[2] <= w[0] || w[0] == 0 {
		t.Errorf("clamp should keep a floor on unsignaled assets: %v", w)
	}
}

func TestMomentum_FavorsRisingPrices(t *testing.T) {
	s := NewMomentum(nil, nil)
	input := &Input{
		Constituents: threeConstituents(),
		Prices: map[string]uint64{
			"SOL":  11 * pp,
			"ETH":  40 * pp,
			"USDC": 1 * pp,
		},
		TwapPrices: map[string]uint64{
			"SOL":  10 * pp, // +10% vs TWAP
			"ETH":  40 * pp, // flat
			"USDC": 1 * pp,  // flat
		},
	}
	w, err := s.ComputeTargetWeights(context.Background(), input)
	if err != nil {
		t.Fatal(err)
	}
	if sumBps(t, w) != 10000 {
		t.Fatalf("weights sum %d != 10000", sumBps(t, w))
	}
	if w[0] <= w[1] || w[1]-w[2] > 1 {
		t.Errorf("rising asset should lead, flat assets should be near-equal: %v", w)
	}
}

func TestDeterminism(t *testing.T) {
	s := NewMarketCap(nil, nil)
	input := &Input{
		Constituents: threeConstituents(),
		Prices: map[string]uint64{
			"SOL":  17 * pp,
			"ETH":  39 * pp,
			"USDC": 1 * pp,
		},
	}
	first, err := s.ComputeTargetWeights(context.Background(), input)
	if err != nil {
		t.Fatal(err)
	}
	for run := 0; run < 10; run++ {
		again, err := s.ComputeTargetWeights(context.Background(), input)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d: nondeterministic weights: %v vs %v", run, first, again)
		}
	}
	if sumBps(t, first) != 10000 {
		t.Errorf("weights sum %d != 10000", sumBps(t, first))
	}
}
