package postgres

import (
	"context"
	"fmt"

	"solana-basket-engine/internal/domain"
	"solana-basket-engine/internal/storage"
)

// RegistryStore implements storage.RegistryStore using PostgreSQL.
// Records are keyed by (kind, name); Save upserts so activation toggles
// round-trip across restarts.
type RegistryStore struct {
	pool *Pool
}

// NewRegistryStore creates a new RegistryStore.
func NewRegistryStore(pool *Pool) *RegistryStore {
	return &RegistryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RegistryStore = (*RegistryStore)(nil)

// Save inserts or replaces one registry record.
func (s *RegistryStore) Save(ctx context.Context, rec *domain.RegistryRecord) error {
	if rec == nil || rec.Kind == "" || rec.Name == "" {
		return storage.ErrInvalidInput
	}

	meta := rec.Meta
	if len(meta) == 0 {
		meta = []byte("{}")
	}

	query := `
		INSERT INTO registry_entries (kind, name, creator, created_at, last_updated, is_active, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (kind, name) DO UPDATE SET
			last_updated = EXCLUDED.last_updated,
			is_active = EXCLUDED.is_active,
			meta = EXCLUDED.meta
	`
	_, err := s.pool.Exec(ctx, query,
		string(rec.Kind),
		rec.Name,
		string(rec.Creator),
		rec.CreatedAt,
		rec.LastUpdated,
		rec.IsActive,
		meta,
	)
	if err != nil {
		return fmt.Errorf("save registry entry: %w", err)
	}
	return nil
}

// GetByKind retrieves all records of one kind ordered by name ASC.
func (s *RegistryStore) GetByKind(ctx context.Context, kind domain.RegistryKind) ([]*domain.RegistryRecord, error) {
	query := `
		SELECT kind, name, creator, created_at, last_updated, is_active, meta
		FROM registry_entries
		WHERE kind = $1
		ORDER BY name ASC
	`

	rows, err := s.pool.Query(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("get registry entries by kind: %w", err)
	}
	defer rows.Close()

	var records []*domain.RegistryRecord
	for rows.Next() {
		var rec domain.RegistryRecord
		var kindStr, creator string
		if err := rows.Scan(&kindStr, &rec.Name, &creator, &rec.CreatedAt, &rec.LastUpdated, &rec.IsActive, &rec.Meta); err != nil {
			return nil, fmt.Errorf("scan registry row: %w", err)
		}
		rec.Kind = domain.RegistryKind(kindStr)
		rec.Creator = domain.Mint(creator)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registry rows: %w", err)
	}
	return records, nil
}
