package weights

import (
	"errors"
	"testing"

	"solana-basket-engine/internal/domain"
)

func TestFromConfig(t *testing.T) {
	blend := uint64(3000)
	minW := uint64(500)

	cases := []struct {
		name   string
		cfg    domain.WeightConfig
		wantID string
		errIs  error
	}{
		{
			name:   "equal",
			cfg:    domain.WeightConfig{Algorithm: domain.WeightAlgoEqual},
			wantID: "EQUAL_WEIGHT",
		},
		{
			name:   "market cap with clamp",
			cfg:    domain.WeightConfig{Algorithm: domain.WeightAlgoMarketCap, MinWeightBps: &minW},
			wantID: "MARKET_CAP_min500",
		},
		{
			name:   "risk parity",
			cfg:    domain.WeightConfig{Algorithm: domain.WeightAlgoRiskParity},
			wantID: "RISK_PARITY",
		},
		{
			name:   "signal weighted",
			cfg:    domain.WeightConfig{Algorithm: domain.WeightAlgoSignal, SignalBlendBps: &blend},
			wantID: "SIGNAL_WEIGHTED_blend3000",
		},
		{
			name:  "signal weighted without blend",
			cfg:   domain.WeightConfig{Algorithm: domain.WeightAlgoSignal},
			errIs: ErrMissingSignalBlend,
		},
		{
			name:   "momentum",
			cfg:    domain.WeightConfig{Algorithm: domain.WeightAlgoMomentum},
			wantID: "MOMENTUM",
		},
		{
			name:  "unknown",
			cfg:   domain.WeightConfig{Algorithm: "PSYCHIC"},
			errIs: ErrUnknownAlgorithm,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := FromConfig(tc.cfg)
			if tc.errIs != nil {
				if !errors.Is(err, tc.errIs) {
					t.Fatalf("expected %v, got %v", tc.errIs, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if s.ID() != tc.wantID {
				t.Errorf("expected ID %q, got %q", tc.wantID, s.ID())
			}
		})
	}
}
