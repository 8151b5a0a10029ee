package memory

import (
	"context"
	"sync"

	"solana-basket-engine/internal/domain"
	"solana-basket-engine/internal/storage"
)

// StrategyConfigStore is an in-memory implementation of
// storage.StrategyConfigStore. Records are immutable once inserted.
type StrategyConfigStore struct {
	mu   sync.RWMutex
	data map[uint64]*domain.StrategyConfig
}

// NewStrategyConfigStore creates a new in-memory strategy config store.
func NewStrategyConfigStore() *StrategyConfigStore {
	return &StrategyConfigStore{
		data: make(map[uint64]*domain.StrategyConfig),
	}
}

// Insert adds a new config. Returns ErrDuplicateKey if the id exists.
func (s *StrategyConfigStore) Insert(_ context.Context, cfg *domain.StrategyConfig) error {
	if cfg == nil || cfg.ID == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[cfg.ID]; exists {
		return storage.ErrDuplicateKey
	}

	configCopy := *cfg
	s.data[cfg.ID] = &configCopy
	return nil
}

// GetByID retrieves a config by id. Returns ErrNotFound if absent.
func (s *StrategyConfigStore) GetByID(_ context.Context, id uint64) (*domain.StrategyConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	configCopy := *cfg
	return &configCopy, nil
}

// Verify interface compliance at compile time.
var _ storage.StrategyConfigStore = (*StrategyConfigStore)(nil)
