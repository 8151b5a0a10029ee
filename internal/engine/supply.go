package engine

import (
	"context"
	"errors"
	"fmt"

	"solana-basket-engine/internal/domain"
	"solana-basket-engine/internal/storage"
)

// MintTokens issues basket tokens against a value deposit at the current
// NAV-per-token. The NAV is marked to live oracle prices before the issue
// price is fixed.
func (e *Engine) MintTokens(ctx context.Context, basketID, depositValue uint64) (uint64, error) {
	var minted uint64
	err := e.mutateSupply(ctx, basketID, func(b *domain.BasketIndexState, now int64) error {
		var err error
		minted, err = b.MintTokens(depositValue, now)
		return err
	})
	if err != nil {
		return 0, err
	}
	if e.metrics != nil {
		e.metrics.TokensMinted.Add(float64(minted))
	}
	return minted, nil
}

// BurnTokens redeems basket tokens at the current NAV-per-token and
// returns the net value paid out after the redemption fee.
func (e *Engine) BurnTokens(ctx context.Context, basketID, amount uint64) (uint64, error) {
	var redeemed uint64
	err := e.mutateSupply(ctx, basketID, func(b *domain.BasketIndexState, now int64) error {
		var err error
		redeemed, err = b.BurnTokens(amount, now)
		return err
	})
	if err != nil {
		return 0, err
	}
	if e.metrics != nil {
		e.metrics.TokensBurned.Add(float64(amount))
	}
	return redeemed, nil
}

// SetFees updates the basket's creation and redemption fees.
func (e *Engine) SetFees(ctx context.Context, basketID uint64, creationFeeBps, redemptionFeeBps uint16) error {
	return e.mutateSupply(ctx, basketID, func(b *domain.BasketIndexState, now int64) error {
		return b.SetFees(creationFeeBps, redemptionFeeBps, now)
	})
}

// mutateSupply loads a basket under its lock, refreshes NAV-per-token
// against live prices, applies the mutation and persists.
func (e *Engine) mutateSupply(ctx context.Context, basketID uint64, mutate func(*domain.BasketIndexState, int64) error) error {
	lock := e.basketLock(basketID)
	lock.Lock()
	defer lock.Unlock()

	b, err := e.baskets.GetByID(ctx, basketID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return stateErr(fmt.Errorf("basket %d: %w", basketID, err))
		}
		return adapterErr(err)
	}

	cfg, err := e.configs.GetByID(ctx, b.StrategyConfigID)
	if err != nil {
		return stateErr(fmt.Errorf("strategy config %d: %w", b.StrategyConfigID, err))
	}

	now := e.clock()
	feesBefore := b.FeesCollected

	// Mark NAV to live prices so mint and burn price at current value,
	// not the value recorded at the last rebalance.
	prices, err := e.fetchPrices(ctx, b, cfg.Optimization, now)
	if err != nil {
		return err
	}
	nav, err := b.ComputeNav(prices)
	if err != nil {
		return validationErr(err)
	}
	b.TotalValue = nav
	if err := b.UpdateNavPerToken(); err != nil {
		return validationErr(err)
	}

	if err := mutate(b, now); err != nil {
		return classifySupplyErr(err)
	}

	if err := b.Validate(); err != nil {
		return validationErr(err)
	}
	if err := e.baskets.Update(ctx, b); err != nil {
		return stateErr(fmt.Errorf("commit basket %d: %w", basketID, err))
	}

	if e.metrics != nil && b.FeesCollected > feesBefore {
		e.metrics.FeesCollected.Add(float64(b.FeesCollected - feesBefore))
	}
	e.updateGauges(b)
	return nil
}

func classifySupplyErr(err error) error {
	switch {
	case errors.Is(err, domain.ErrBasketClosed),
		errors.Is(err, domain.ErrBasketNotActive),
		errors.Is(err, domain.ErrInvalidTransition):
		return stateErr(err)
	default:
		return validationErr(err)
	}
}
