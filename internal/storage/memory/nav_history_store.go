package memory

import (
	"context"
	"sort"
	"sync"

	"solana-basket-engine/internal/domain"
	"solana-basket-engine/internal/storage"
)

type navKey struct {
	basketID  uint64
	timestamp int64
}

// NavHistoryStore is an in-memory implementation of
// storage.NavHistoryStore.
type NavHistoryStore struct {
	mu   sync.RWMutex
	data map[navKey]*domain.NavPoint
}

// NewNavHistoryStore creates a new in-memory NAV history store.
func NewNavHistoryStore() *NavHistoryStore {
	return &NavHistoryStore{
		data: make(map[navKey]*domain.NavPoint),
	}
}

// InsertBulk adds multiple points. Fails the whole batch on a duplicate
// (basket_id, timestamp); nothing is written on failure.
func (s *NavHistoryStore) InsertBulk(_ context.Context, points []*domain.NavPoint) error {
	if len(points) == 0 {
		return nil
	}
	for _, p := range points {
		if p == nil || p.BasketID == 0 {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the full batch before writing anything.
	seen := make(map[navKey]struct{}, len(points))
	for _, p := range points {
		key := navKey{basketID: p.BasketID, timestamp: p.Timestamp}
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, dup := seen[key]; dup {
			return storage.ErrDuplicateKey
		}
		seen[key] = struct{}{}
	}

	for _, p := range points {
		pointCopy := *p
		s.data[navKey{basketID: p.BasketID, timestamp: p.Timestamp}] = &pointCopy
	}
	return nil
}

// GetByBasketID retrieves all points for a basket, timestamp ASC.
func (s *NavHistoryStore) GetByBasketID(ctx context.Context, basketID uint64) ([]*domain.NavPoint, error) {
	return s.GetByTimeRange(ctx, basketID, 0, 1<<62)
}

// GetByTimeRange retrieves points within [start, end] inclusive.
func (s *NavHistoryStore) GetByTimeRange(_ context.Context, basketID uint64, start, end int64) ([]*domain.NavPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.NavPoint
	for key, p := range s.data {
		if key.basketID != basketID || key.timestamp < start || key.timestamp > end {
			continue
		}
		pointCopy := *p
		result = append(result, &pointCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.NavHistoryStore = (*NavHistoryStore)(nil)
