package dex

import (
	"context"
	"fmt"
	"sync"

	"solana-basket-engine/internal/domain"
)

// pairKey identifies a pool regardless of swap direction.
type pairKey struct {
	a, b domain.Mint
}

func newPairKey(x, y domain.Mint) pairKey {
	if x < y {
		return pairKey{a: x, b: y}
	}
	return pairKey{a: y, b: x}
}

// pool is a constant-product reserve pair.
type pool struct {
	reserves map[domain.Mint]uint64
}

// Sim is a constant-product AMM simulator implementing Adapter. Used by
// tests and paper runs in place of a live venue.
type Sim struct {
	feeBps uint64

	mu    sync.Mutex
	pools map[pairKey]*pool
}

// NewSim creates a simulator with the given swap fee.
func NewSim(feeBps uint64) *Sim {
	return &Sim{
		feeBps: feeBps,
		pools:  make(map[pairKey]*pool),
	}
}

// AddPool seeds reserves for a token pair.
func (s *Sim) AddPool(x domain.Mint, reserveX uint64, y domain.Mint, reserveY uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pools[newPairKey(x, y)] = &pool{
		reserves: map[domain.Mint]uint64{x: reserveX, y: reserveY},
	}
}

// Quote estimates constant-product output net of the pool fee.
func (s *Sim) Quote(_ context.Context, input, output domain.Mint, amountIn uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quoteLocked(input, output, amountIn)
}

// Swap executes against the pool, moving reserves. Fails with
// ErrSlippageExceeded before any reserve change if the realized output is
// below minAmountOut.
func (s *Sim) Swap(_ context.Context, input, output domain.Mint, amountIn, minAmountOut uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.quoteLocked(input, output, amountIn)
	if err != nil {
		return 0, err
	}
	if out < minAmountOut {
		return 0, fmt.Errorf("%w: quoted %d < min %d", ErrSlippageExceeded, out, minAmountOut)
	}

	p := s.pools[newPairKey(input, output)]
	p.reserves[input] += amountIn
	p.reserves[output] -= out
	return out, nil
}

func (s *Sim) quoteLocked(input, output domain.Mint, amountIn uint64) (uint64, error) {
	p, ok := s.pools[newPairKey(input, output)]
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s", ErrUnknownPair, input, output)
	}
	rIn, rOut := p.reserves[input], p.reserves[output]
	if rIn == 0 || rOut == 0 {
		return 0, fmt.Errorf("%w: %s/%s pool drained", ErrInsufficientLiquidity, input, output)
	}

	// x*y=k with fee taken from the input side.
	inAfterFee, err := domain.MulDiv(amountIn, domain.BasisPointsMax-s.feeBps, domain.BasisPointsMax)
	if err != nil {
		return 0, err
	}
	out, err := domain.MulDiv(rOut, inAfterFee, rIn+inAfterFee)
	if err != nil {
		return 0, err
	}
	if out == 0 || out >= rOut {
		return 0, fmt.Errorf("%w: %s/%s cannot fill %d", ErrInsufficientLiquidity, input, output, amountIn)
	}
	return out, nil
}

var _ Adapter = (*Sim)(nil)
