package memory

import (
	"context"
	"sort"
	"sync"

	"solana-basket-engine/internal/domain"
	"solana-basket-engine/internal/storage"
)

type registryKey struct {
	kind domain.RegistryKind
	name string
}

// RegistryStore is an in-memory implementation of storage.RegistryStore.
type RegistryStore struct {
	mu   sync.RWMutex
	data map[registryKey]*domain.RegistryRecord
}

// NewRegistryStore creates a new in-memory registry store.
func NewRegistryStore() *RegistryStore {
	return &RegistryStore{
		data: make(map[registryKey]*domain.RegistryRecord),
	}
}

// Save inserts or replaces one registry record.
func (s *RegistryStore) Save(_ context.Context, rec *domain.RegistryRecord) error {
	if rec == nil || rec.Kind == "" || rec.Name == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recCopy := *rec
	recCopy.Meta = append([]byte(nil), rec.Meta...)
	s.data[registryKey{kind: rec.Kind, name: rec.Name}] = &recCopy
	return nil
}

// GetByKind retrieves all records of one kind ordered by name ASC.
func (s *RegistryStore) GetByKind(_ context.Context, kind domain.RegistryKind) ([]*domain.RegistryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RegistryRecord
	for key, rec := range s.data {
		if key.kind != kind {
			continue
		}
		recCopy := *rec
		recCopy.Meta = append([]byte(nil), rec.Meta...)
		result = append(result, &recCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.RegistryStore = (*RegistryStore)(nil)
