package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"zilswap-dashboard/internal/domain"
	"zilswap-dashboard/internal/storage"
)

// BridgeStore implements storage.BridgeStore using PostgreSQL.
// Order is kept in the position column.
type BridgeStore struct {
	pool *Pool
}

// NewBridgeStore creates a new BridgeStore.
func NewBridgeStore(pool *Pool) *BridgeStore {
	return &BridgeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BridgeStore = (*BridgeStore)(nil)

var bridgeColumns = []string{
	"position", "source_chain", "source_address", "dest_chain", "dest_address", "denom",
}

// ReplaceAll deletes all mappings and copies in the new list in one transaction.
func (s *BridgeStore) ReplaceAll(ctx context.Context, mappings []domain.BridgeMapping) (err error) {
	for _, m := range mappings {
		if strings.TrimSpace(m.SourceAddress) == "" || strings.TrimSpace(m.DestAddress) == "" {
			return storage.ErrInvalidInput
		}
	}
	defer func(start time.Time) { s.pool.observe("bridge_replace_all", start, err) }(time.Now())

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, `DELETE FROM bridge_mappings`); err != nil {
		return fmt.Errorf("clear bridge mappings: %w", err)
	}

	rows := make([][]any, 0, len(mappings))
	for i, m := range mappings {
		rows = append(rows, []any{
			int32(i),
			string(m.SourceChain),
			m.SourceAddress,
			string(m.DestChain),
			m.DestAddress,
			m.Denom,
		})
	}

	if len(rows) > 0 {
		if _, err = tx.CopyFrom(ctx, pgx.Identifier{"bridge_mappings"}, bridgeColumns, pgx.CopyFromRows(rows)); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("copy bridge mappings: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetAll returns mappings in stored order.
func (s *BridgeStore) GetAll(ctx context.Context) (result []domain.BridgeMapping, err error) {
	defer func(start time.Time) { s.pool.observe("bridge_get_all", start, err) }(time.Now())

	query := `
		SELECT source_chain, source_address, dest_chain, dest_address, denom
		FROM bridge_mappings
		ORDER BY position ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query bridge mappings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.BridgeMapping
		var sourceChain, destChain string
		if err := rows.Scan(&sourceChain, &m.SourceAddress, &destChain, &m.DestAddress, &m.Denom); err != nil {
			return nil, fmt.Errorf("scan bridge mapping: %w", err)
		}
		m.SourceChain = domain.Blockchain(sourceChain)
		m.DestChain = domain.Blockchain(destChain)
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bridge mappings: %w", err)
	}
	return result, nil
}
