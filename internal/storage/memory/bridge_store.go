package memory

import (
	"context"
	"strings"
	"sync"

	"zilswap-dashboard/internal/domain"
	"zilswap-dashboard/internal/storage"
)

// BridgeStore is an in-memory implementation of storage.BridgeStore.
type BridgeStore struct {
	mu       sync.RWMutex
	mappings []domain.BridgeMapping
}

// NewBridgeStore creates a new in-memory bridge store.
func NewBridgeStore() *BridgeStore {
	return &BridgeStore{}
}

// ReplaceAll replaces all mappings. Mappings without addresses are rejected.
func (s *BridgeStore) ReplaceAll(_ context.Context, mappings []domain.BridgeMapping) error {
	for _, m := range mappings {
		if strings.TrimSpace(m.SourceAddress) == "" || strings.TrimSpace(m.DestAddress) == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.mappings = domain.BridgeState{Mappings: mappings}.Clone().Mappings
	return nil
}

// GetAll returns mappings in stored order.
func (s *BridgeStore) GetAll(_ context.Context) ([]domain.BridgeMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.BridgeMapping, len(s.mappings))
	copy(result, s.mappings)
	return result, nil
}

var _ storage.BridgeStore = (*BridgeStore)(nil)
