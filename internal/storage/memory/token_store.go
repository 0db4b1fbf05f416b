package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"zilswap-dashboard/internal/domain"
	"zilswap-dashboard/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]*domain.Token // keyed by Token.Key()
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{tokens: make(map[string]*domain.Token)}
}

// Upsert inserts or replaces a token.
func (s *TokenStore) Upsert(_ context.Context, t *domain.Token) error {
	if err := validateToken(t); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[t.Key()] = registryCopy(t)
	return nil
}

// UpsertBulk upserts all tokens or none.
func (s *TokenStore) UpsertBulk(_ context.Context, tokens []*domain.Token) error {
	for _, t := range tokens {
		if err := validateToken(t); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tokens {
		s.tokens[t.Key()] = registryCopy(t)
	}
	return nil
}

// GetAll returns every token ordered by blockchain, then address.
func (s *TokenStore) GetAll(_ context.Context) ([]*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Token, 0, len(s.tokens))
	for _, t := range s.tokens {
		tCopy := *t
		result = append(result, &tCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key() < result[j].Key()
	})
	return result, nil
}

// GetByAddress retrieves a token. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByAddress(_ context.Context, chain domain.Blockchain, address string) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.tokens[domain.TokenKey(chain, address)]
	if !exists {
		return nil, storage.ErrNotFound
	}
	tCopy := *t
	return &tCopy, nil
}

func validateToken(t *domain.Token) error {
	if t == nil || t.Blockchain == "" || strings.TrimSpace(t.Address) == "" {
		return storage.ErrInvalidInput
	}
	return nil
}

// registryCopy drops the wallet-dependent fields.
func registryCopy(t *domain.Token) *domain.Token {
	return &domain.Token{
		Blockchain: t.Blockchain,
		Address:    t.Address,
		Symbol:     t.Symbol,
		Name:       t.Name,
		Decimals:   t.Decimals,
		Registered: t.Registered,
	}
}

var _ storage.TokenStore = (*TokenStore)(nil)
