package memory

import (
	"context"
	"sort"
	"sync"

	"zilswap-dashboard/internal/domain"
	"zilswap-dashboard/internal/storage"
)

// priceKey is the composite key for price points.
type priceKey struct {
	symbol      string
	timestampMs int64
}

// PriceHistoryStore is an in-memory implementation of storage.PriceHistoryStore.
type PriceHistoryStore struct {
	mu       sync.RWMutex
	data     map[priceKey]*domain.PricePoint
	bySymbol map[string][]*domain.PricePoint // sorted by timestamp
}

// NewPriceHistoryStore creates a new in-memory price history store.
func NewPriceHistoryStore() *PriceHistoryStore {
	return &PriceHistoryStore{
		data:     make(map[priceKey]*domain.PricePoint),
		bySymbol: make(map[string][]*domain.PricePoint),
	}
}

// InsertBulk adds multiple points. Fails entire batch on duplicate.
func (s *PriceHistoryStore) InsertBulk(_ context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check all keys first (atomic: all or nothing)
	seen := make(map[priceKey]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.Symbol == "" {
			return storage.ErrInvalidInput
		}
		key := priceKey{symbol: p.Symbol, timestampMs: p.TimestampMs}
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, dup := seen[key]; dup {
			return storage.ErrDuplicateKey
		}
		seen[key] = struct{}{}
	}

	touched := make(map[string]struct{})
	for _, p := range points {
		pCopy := *p
		s.data[priceKey{symbol: p.Symbol, timestampMs: p.TimestampMs}] = &pCopy
		s.bySymbol[p.Symbol] = append(s.bySymbol[p.Symbol], &pCopy)
		touched[p.Symbol] = struct{}{}
	}

	for sym := range touched {
		list := s.bySymbol[sym]
		sort.Slice(list, func(i, j int) bool {
			return list[i].TimestampMs < list[j].TimestampMs
		})
	}
	return nil
}

// GetByTimeRange retrieves points within [start, end] (inclusive).
func (s *PriceHistoryStore) GetByTimeRange(_ context.Context, symbol string, start, end int64) ([]*domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PricePoint
	for _, p := range s.bySymbol[symbol] {
		if p.TimestampMs >= start && p.TimestampMs <= end {
			pCopy := *p
			result = append(result, &pCopy)
		}
	}
	return result, nil
}

// GetLatest returns the most recent point. Returns ErrNotFound if none.
func (s *PriceHistoryStore) GetLatest(_ context.Context, symbol string) (*domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.bySymbol[symbol]
	if len(list) == 0 {
		return nil, storage.ErrNotFound
	}
	pCopy := *list[len(list)-1]
	return &pCopy, nil
}

var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)
