package oracle

import (
	"context"
	"fmt"
	"time"
)

// Static is a fixed-quote PriceOracle for tests and paper runs.
type Static struct {
	Quotes map[string]Quote
}

// NewStatic creates a static oracle from a symbol -> quote map.
func NewStatic(quotes map[string]Quote) *Static {
	return &Static{Quotes: quotes}
}

// GetPrice returns the configured quote as-is. Staleness is the caller's
// concern: the quote carries whatever AsOf it was configured with.
func (s *Static) GetPrice(_ context.Context, symbol string) (Quote, error) {
	q, ok := s.Quotes[symbol]
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	return q, nil
}

// GetTWAP returns the spot price; a static oracle has no history.
func (s *Static) GetTWAP(ctx context.Context, symbol string, _ time.Duration) (uint64, error) {
	q, err := s.GetPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return q.Price, nil
}

// GetVWAP returns the spot price; a static oracle has no history.
func (s *Static) GetVWAP(ctx context.Context, symbol string, _ time.Duration) (uint64, error) {
	q, err := s.GetPrice(ctx, symbol)
	if err != nil {
		return 0, err
	}
	return q.Price, nil
}

var _ PriceOracle = (*Static)(nil)
