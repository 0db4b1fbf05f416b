package clickhouse

import (
	"context"
	"fmt"
	"time"

	"zilswap-dashboard/internal/domain"
	"zilswap-dashboard/internal/storage"
)

// PriceHistoryStore implements storage.PriceHistoryStore using ClickHouse.
type PriceHistoryStore struct {
	conn *Conn
}

// NewPriceHistoryStore creates a new PriceHistoryStore.
func NewPriceHistoryStore(conn *Conn) *PriceHistoryStore {
	return &PriceHistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate (symbol, timestamp_ms).
// MergeTree does not enforce keys, so duplicates are checked before the insert.
func (s *PriceHistoryStore) InsertBulk(ctx context.Context, points []*domain.PricePoint) (err error) {
	if len(points) == 0 {
		return nil
	}
	defer func(start time.Time) { s.conn.observe("price_history_insert", start, err) }(time.Now())

	// Check for intra-batch duplicates
	type key struct {
		symbol      string
		timestampMs int64
	}
	seen := make(map[key]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.Symbol == "" || p.TimestampMs < 0 {
			return storage.ErrInvalidInput
		}
		k := key{p.Symbol, p.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing rows
	for _, p := range points {
		exists, err := s.exists(ctx, p.Symbol, p.TimestampMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO price_history (symbol, timestamp_ms, price)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err = batch.Append(p.Symbol, uint64(p.TimestampMs), p.Price); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves points for a symbol within [start, end] (inclusive).
func (s *PriceHistoryStore) GetByTimeRange(ctx context.Context, symbol string, start, end int64) (result []*domain.PricePoint, err error) {
	defer func(t time.Time) { s.conn.observe("price_history_range", t, err) }(time.Now())

	query := `
		SELECT symbol, timestamp_ms, price
		FROM price_history
		WHERE symbol = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, symbol, uint64(max(start, 0)), uint64(max(end, 0)))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanPricePoints(rows)
}

// GetLatest returns the most recent point for a symbol. Returns ErrNotFound if none.
func (s *PriceHistoryStore) GetLatest(ctx context.Context, symbol string) (result *domain.PricePoint, err error) {
	defer func(t time.Time) { s.conn.observe("price_history_latest", t, err) }(time.Now())

	query := `
		SELECT symbol, timestamp_ms, price
		FROM price_history
		WHERE symbol = ?
		ORDER BY timestamp_ms DESC
		LIMIT 1
	`

	rows, err := s.conn.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("query latest: %w", err)
	}
	defer rows.Close()

	points, err := scanPricePoints(rows)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, storage.ErrNotFound
	}
	return points[0], nil
}

// exists checks if a point with the given key exists.
func (s *PriceHistoryStore) exists(ctx context.Context, symbol string, timestampMs int64) (bool, error) {
	query := `
		SELECT count(*) FROM price_history
		WHERE symbol = ? AND timestamp_ms = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, symbol, uint64(timestampMs)).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanPricePoints scans multiple rows.
func scanPricePoints(rows chRows) ([]*domain.PricePoint, error) {
	var points []*domain.PricePoint

	for rows.Next() {
		var p domain.PricePoint
		var timestampMs uint64

		if err := rows.Scan(&p.Symbol, &timestampMs, &p.Price); err != nil {
			return nil, fmt.Errorf("scan price history row: %w", err)
		}

		p.TimestampMs = int64(timestampMs)
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price history rows: %w", err)
	}

	return points, nil
}
