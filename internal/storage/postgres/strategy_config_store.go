package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"solana-basket-engine/internal/domain"
	"solana-basket-engine/internal/storage"
)

// StrategyConfigStore implements storage.StrategyConfigStore using
// PostgreSQL. Configs are immutable; the whole bundle is one JSONB value
// keyed by id, there is no update path.
type StrategyConfigStore struct {
	pool *Pool
}

// NewStrategyConfigStore creates a new StrategyConfigStore.
func NewStrategyConfigStore(pool *Pool) *StrategyConfigStore {
	return &StrategyConfigStore{pool: pool}
}

// Compile-time interface check.
var _ storage.StrategyConfigStore = (*StrategyConfigStore)(nil)

// Insert adds a new config. Returns ErrDuplicateKey if the id exists.
func (s *StrategyConfigStore) Insert(ctx context.Context, cfg *domain.StrategyConfig) error {
	if cfg == nil || cfg.ID == 0 {
		return storage.ErrInvalidInput
	}

	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal strategy config: %w", err)
	}

	query := `
		INSERT INTO strategy_configs (id, config, created_at)
		VALUES ($1, $2, $3)
	`
	if _, err := s.pool.Exec(ctx, query, int64(cfg.ID), payload, cfg.CreatedAt); err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert strategy config: %w", err)
	}
	return nil
}

// GetByID retrieves a config by id. Returns ErrNotFound if absent.
func (s *StrategyConfigStore) GetByID(ctx context.Context, id uint64) (*domain.StrategyConfig, error) {
	query := `SELECT config FROM strategy_configs WHERE id = $1`

	var payload []byte
	if err := s.pool.QueryRow(ctx, query, int64(id)).Scan(&payload); err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get strategy config by id: %w", err)
	}

	var cfg domain.StrategyConfig
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal strategy config: %w", err)
	}
	return &cfg, nil
}
