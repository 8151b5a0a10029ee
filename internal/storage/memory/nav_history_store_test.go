package memory

import (
	"context"
	"errors"
	"testing"

	"solana-basket-engine/internal/domain"
	"solana-basket-engine/internal/storage"
)

func navPoint(basketID uint64, ts int64, nav uint64) *domain.NavPoint {
	return &domain.NavPoint{
		BasketID:    basketID,
		Timestamp:   ts,
		Nav:         nav,
		NavPerToken: domain.PricePrecision,
		TotalSupply: 1000,
	}
}

func TestNavHistoryStore_InsertBulkAndGet(t *testing.T) {
	store := NewNavHistoryStore()
	ctx := context.Background()

	points := []*domain.NavPoint{
		navPoint(1, 300, 1050),
		navPoint(1, 100, 1000),
		navPoint(1, 200, 1020),
		navPoint(2, 100, 5000),
	}
	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByBasketID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByBasketID failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 points, got %d", len(got))
	}
	// Timestamp ASC regardless of insert order.
	if got[0].Timestamp != 100 || got[1].Timestamp != 200 || got[2].Timestamp != 300 {
		t.Errorf("points out of order: %+v", got)
	}
}

func TestNavHistoryStore_DuplicateFailsWholeBatch(t *testing.T) {
	store := NewNavHistoryStore()
	ctx := context.Background()

	if err := store.InsertBulk(ctx, []*domain.NavPoint{navPoint(1, 100, 1000)}); err != nil {
		t.Fatalf("seed InsertBulk failed: %v", err)
	}

	err := store.InsertBulk(ctx, []*domain.NavPoint{
		navPoint(1, 200, 1010),
		navPoint(1, 100, 999), // duplicate key
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	// The non-duplicate point must not have been written.
	got, err := store.GetByBasketID(ctx, 1)
	if err != nil {
		t.Fatalf("GetByBasketID failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("batch was partially written: %+v", got)
	}
}

func TestNavHistoryStore_GetByTimeRange(t *testing.T) {
	store := NewNavHistoryStore()
	ctx := context.Background()

	points := []*domain.NavPoint{
		navPoint(1, 100, 1000),
		navPoint(1, 200, 1020),
		navPoint(1, 300, 1050),
	}
	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByTimeRange(ctx, 1, 100, 200)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected inclusive bounds to return 2 points, got %d", len(got))
	}
}
