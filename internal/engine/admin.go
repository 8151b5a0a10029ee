package engine

import (
	"context"
	"errors"
	"fmt"

	"solana-basket-engine/internal/domain"
	"solana-basket-engine/internal/storage"
)

// Lifecycle operations. Each runs under the basket lock and persists the
// transition; the domain layer enforces which transitions are legal.

func (e *Engine) PauseBasket(ctx context.Context, basketID uint64) error {
	return e.transition(ctx, basketID, (*domain.BasketIndexState).Pause)
}

func (e *Engine) ResumeBasket(ctx context.Context, basketID uint64) error {
	return e.transition(ctx, basketID, (*domain.BasketIndexState).Resume)
}

func (e *Engine) FreezeBasket(ctx context.Context, basketID uint64) error {
	err := e.transition(ctx, basketID, (*domain.BasketIndexState).Freeze)
	if err == nil && e.metrics != nil {
		e.metrics.BasketsFrozen.Inc()
	}
	return err
}

// UnfreezeBasket returns a frozen basket to Paused. Resuming to Active is
// a separate, deliberate step.
func (e *Engine) UnfreezeBasket(ctx context.Context, basketID uint64) error {
	return e.transition(ctx, basketID, (*domain.BasketIndexState).Unfreeze)
}

func (e *Engine) CloseBasket(ctx context.Context, basketID uint64) error {
	return e.transition(ctx, basketID, (*domain.BasketIndexState).Close)
}

func (e *Engine) transition(ctx context.Context, basketID uint64, apply func(*domain.BasketIndexState, int64) error) error {
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

	if err := apply(b, e.clock()); err != nil {
		return stateErr(err)
	}
	if err := e.baskets.Update(ctx, b); err != nil {
		return stateErr(fmt.Errorf("commit basket %d: %w", basketID, err))
	}
	e.logf("basket %d status -> %s", basketID, b.Status)
	return nil
}
