package storage

import (
	"context"

	"solana-basket-engine/internal/domain"
)

// BasketStore persists BasketIndexState aggregates. The engine loads a
// basket at the start of an evaluation and commits the mutated aggregate
// at the end; the store replaces the whole record on Update.
type BasketStore interface {
	// Insert adds a new basket. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, b *domain.BasketIndexState) error

	// GetByID retrieves a basket by id. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id uint64) (*domain.BasketIndexState, error)

	// Update replaces the stored aggregate. Returns ErrNotFound if absent.
	Update(ctx context.Context, b *domain.BasketIndexState) error

	// List retrieves all baskets ordered by id ASC.
	List(ctx context.Context) ([]*domain.BasketIndexState, error)
}

// StrategyConfigStore is append-only: configs are immutable once written,
// strategy changes bind a new config id.
type StrategyConfigStore interface {
	// Insert adds a new config. Returns ErrDuplicateKey if the id exists.
	Insert(ctx context.Context, cfg *domain.StrategyConfig) error

	// GetByID retrieves a config by id. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id uint64) (*domain.StrategyConfig, error)
}

// RegistryStore persists registry entries across restarts. Entries are
// keyed by (kind, name); Save upserts so activate/deactivate round-trips.
type RegistryStore interface {
	// Save inserts or replaces one registry record.
	Save(ctx context.Context, rec *domain.RegistryRecord) error

	// GetByKind retrieves all records of one kind ordered by name ASC.
	GetByKind(ctx context.Context, kind domain.RegistryKind) ([]*domain.RegistryRecord, error)
}

// NavHistoryStore persists NAV snapshots, the input series for
// volatility and drawdown analytics.
type NavHistoryStore interface {
	// InsertBulk adds multiple points. Fails the whole batch on a
	// duplicate (basket_id, timestamp).
	InsertBulk(ctx context.Context, points []*domain.NavPoint) error

	// GetByBasketID retrieves all points for a basket, timestamp ASC.
	GetByBasketID(ctx context.Context, basketID uint64) ([]*domain.NavPoint, error)

	// GetByTimeRange retrieves points within [start, end] inclusive.
	GetByTimeRange(ctx context.Context, basketID uint64, start, end int64) ([]*domain.NavPoint, error)
}
