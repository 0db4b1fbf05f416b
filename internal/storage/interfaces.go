// Package storage defines the persistence interfaces for the token registry,
// bridge mappings and price history.
package storage

import (
	"context"

	"zilswap-dashboard/internal/domain"
)

// TokenStore persists the token registry. Only registry fields are stored;
// balances and pool contributions belong to the connected wallet and are not persisted.
type TokenStore interface {
	// Upsert inserts or replaces a token keyed by (blockchain, lowercased address).
	// Returns ErrInvalidInput if blockchain or address is empty.
	Upsert(ctx context.Context, t *domain.Token) error

	// UpsertBulk upserts tokens atomically.
	UpsertBulk(ctx context.Context, tokens []*domain.Token) error

	// GetAll returns every token ordered by blockchain, then address.
	GetAll(ctx context.Context) ([]*domain.Token, error)

	// GetByAddress returns one token. Address matching is case-insensitive.
	// Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, chain domain.Blockchain, address string) (*domain.Token, error)
}

// BridgeStore persists the bridge mapping list.
type BridgeStore interface {
	// ReplaceAll atomically replaces all mappings. Order is preserved.
	ReplaceAll(ctx context.Context, mappings []domain.BridgeMapping) error

	// GetAll returns mappings in the order they were stored.
	GetAll(ctx context.Context) ([]domain.BridgeMapping, error)
}

// PriceHistoryStore provides access to price_history storage.
type PriceHistoryStore interface {
	// InsertBulk adds multiple points. Fails entire batch on duplicate (symbol, timestamp_ms).
	InsertBulk(ctx context.Context, points []*domain.PricePoint) error

	// GetByTimeRange retrieves points for a symbol within [start, end] (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, symbol string, start, end int64) ([]*domain.PricePoint, error)

	// GetLatest returns the most recent point for a symbol. Returns ErrNotFound if none.
	GetLatest(ctx context.Context, symbol string) (*domain.PricePoint, error)
}
