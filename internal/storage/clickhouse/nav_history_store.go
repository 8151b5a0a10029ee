package clickhouse

import (
	"context"
	"fmt"

	"solana-basket-engine/internal/domain"
	"solana-basket-engine/internal/storage"
)

// NavHistoryStore implements storage.NavHistoryStore using ClickHouse.
// MergeTree does not enforce uniqueness, so duplicates are rejected with
// explicit lookups before the batch insert.
type NavHistoryStore struct {
	conn *Conn
}

// NewNavHistoryStore creates a new NavHistoryStore.
func NewNavHistoryStore(conn *Conn) *NavHistoryStore {
	return &NavHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.NavHistoryStore = (*NavHistoryStore)(nil)

// InsertBulk adds multiple points. Fails the whole batch on a duplicate
// (basket_id, timestamp).
func (s *NavHistoryStore) InsertBulk(ctx context.Context, points []*domain.NavPoint) error {
	if len(points) == 0 {
		return nil
	}

	type key struct {
		basketID  uint64
		timestamp int64
	}
	seen := make(map[key]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.BasketID == 0 {
			return storage.ErrInvalidInput
		}
		k := key{p.BasketID, p.Timestamp}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, p := range points {
		exists, err := s.exists(ctx, p.BasketID, p.Timestamp)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO nav_history (
			basket_id, timestamp, nav, nav_per_token, total_supply
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.BasketID, uint64(p.Timestamp), p.Nav, p.NavPerToken, p.TotalSupply,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByBasketID retrieves all points for a basket, timestamp ASC.
func (s *NavHistoryStore) GetByBasketID(ctx context.Context, basketID uint64) ([]*domain.NavPoint, error) {
	query := `
		SELECT basket_id, timestamp, nav, nav_per_token, total_supply
		FROM nav_history
		WHERE basket_id = ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, basketID)
	if err != nil {
		return nil, fmt.Errorf("query by basket id: %w", err)
	}
	defer rows.Close()

	return scanNavPoints(rows)
}

// GetByTimeRange retrieves points within [start, end] inclusive.
func (s *NavHistoryStore) GetByTimeRange(ctx context.Context, basketID uint64, start, end int64) ([]*domain.NavPoint, error) {
	query := `
		SELECT basket_id, timestamp, nav, nav_per_token, total_supply
		FROM nav_history
		WHERE basket_id = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`

	rows, err := s.conn.Query(ctx, query, basketID, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanNavPoints(rows)
}

// exists checks if a point with the given key exists.
func (s *NavHistoryStore) exists(ctx context.Context, basketID uint64, timestamp int64) (bool, error) {
	query := `
		SELECT count(*) FROM nav_history
		WHERE basket_id = ? AND timestamp = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, basketID, uint64(timestamp)).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// chRows is the subset of driver.Rows the scanner needs.
type chRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanNavPoints scans multiple rows.
func scanNavPoints(rows chRows) ([]*domain.NavPoint, error) {
	var points []*domain.NavPoint

	for rows.Next() {
		var p domain.NavPoint
		var timestamp uint64

		if err := rows.Scan(&p.BasketID, &timestamp, &p.Nav, &p.NavPerToken, &p.TotalSupply); err != nil {
			return nil, fmt.Errorf("scan nav history row: %w", err)
		}
		p.Timestamp = int64(timestamp)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nav history rows: %w", err)
	}
	return points, nil
}
