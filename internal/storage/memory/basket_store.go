package memory

import (
	"context"
	"sort"
	"sync"

	"solana-basket-engine/internal/domain"
	"solana-basket-engine/internal/storage"
)

// BasketStore is an in-memory implementation of storage.BasketStore.
type BasketStore struct {
	mu   sync.RWMutex
	data map[uint64]*domain.BasketIndexState
}

// NewBasketStore creates a new in-memory basket store.
func NewBasketStore() *BasketStore {
	return &BasketStore{
		data: make(map[uint64]*domain.BasketIndexState),
	}
}

// Insert adds a new basket. Returns ErrDuplicateKey if the id exists.
func (s *BasketStore) Insert(_ context.Context, b *domain.BasketIndexState) error {
	if b == nil || b.ID == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[b.ID]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a deep copy to prevent external mutation
	s.data[b.ID] = b.Clone()
	return nil
}

// GetByID retrieves a basket by id. Returns ErrNotFound if absent.
func (s *BasketStore) GetByID(_ context.Context, id uint64) (*domain.BasketIndexState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return b.Clone(), nil
}

// Update replaces the stored aggregate. Returns ErrNotFound if absent.
func (s *BasketStore) Update(_ context.Context, b *domain.BasketIndexState) error {
	if b == nil || b.ID == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[b.ID]; !exists {
		return storage.ErrNotFound
	}
	s.data[b.ID] = b.Clone()
	return nil
}

// List retrieves all baskets ordered by id ASC.
func (s *BasketStore) List(_ context.Context) ([]*domain.BasketIndexState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.BasketIndexState, 0, len(s.data))
	for _, b := range s.data {
		result = append(result, b.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.BasketStore = (*BasketStore)(nil)
