package weights

import (
	"errors"

	"solana-basket-engine/internal/domain"
)

// Factory errors.
var (
	ErrUnknownAlgorithm   = errors.New("unknown weight algorithm")
	ErrMissingSignalBlend = errors.New("SIGNAL_WEIGHTED requires SignalBlendBps")
)

// FromConfig creates a Strategy from a WeightConfig. Validates required
// parameters per algorithm and returns clear errors for missing ones.
func FromConfig(cfg domain.WeightConfig) (Strategy, error) {
	switch cfg.Algorithm {
	case domain.WeightAlgoEqual:
		return NewEqual(), nil
	case domain.WeightAlgoMarketCap:
		return NewMarketCap(cfg.MinWeightBps, cfg.MaxWeightBps), nil
	case domain.WeightAlgoRiskParity:
		return NewRiskParity(), nil
	case domain.WeightAlgoSignal:
		if cfg.SignalBlendBps == nil {
			return nil, ErrMissingSignalBlend
		}
		return NewSignal(*cfg.SignalBlendBps, cfg.MinWeightBps, cfg.MaxWeightBps), nil
	case domain.WeightAlgoMomentum:
		return NewMomentum(cfg.MinWeightBps, cfg.MaxWeightBps), nil
	default:
		return nil, ErrUnknownAlgorithm
	}
}
