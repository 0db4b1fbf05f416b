// Package state holds the shared application state read by the resolver and
// written by refresh tasks. Every slice has its own update functions; nothing
// outside this package mutates state directly.
package state

import (
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"zilswap-dashboard/internal/domain"
)

// Slice names one independently updated part of the state.
type Slice string

const (
	SliceToken  Slice = "token"
	SliceBridge Slice = "bridge"
	SliceWallet Slice = "wallet"
	SlicePrice  Slice = "price"
	SliceStats  Slice = "stats"
	SliceZap    Slice = "zap"
)

// AllSlices lists every slice in a stable order.
var AllSlices = []Slice{SliceToken, SliceBridge, SliceWallet, SlicePrice, SliceStats, SliceZap}

// Update is delivered to listeners after a slice changes.
type Update struct {
	Slice   Slice
	Version uint64 // store-wide, strictly increasing
}

// Listener receives updates. It is called outside the store lock, on the
// goroutine that performed the mutation.
type Listener func(Update)

// TokenState is the token registry slice.
type TokenState struct {
	Initialized bool
	Tokens      []domain.Token // sorted by key
	UserTokens  []string       // addresses the user added manually
}

// Snapshot is a consistent copy of all slices.
type Snapshot struct {
	Version uint64
	Token   TokenState
	Bridge  domain.BridgeState
	Wallet  domain.WalletState
	Prices  domain.PriceMap
	Stats   []domain.PoolStats // sorted by token address
	Zap     domain.Optional[domain.ZapRecord]
}

// Store is the explicit state container. Safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	version     uint64
	initialized bool
	tokens      map[string]domain.Token
	userTokens  []string
	bridge      domain.BridgeState
	wallet      domain.WalletState
	prices      domain.PriceMap
	stats       map[string]domain.PoolStats
	zap         domain.Optional[domain.ZapRecord]

	listenersMu sync.RWMutex
	listeners   []Listener
}

// NewStore creates an empty store with no wallet connected.
func NewStore() *Store {
	return &Store{
		tokens: make(map[string]domain.Token),
		prices: make(domain.PriceMap),
		stats:  make(map[string]domain.PoolStats),
		wallet: domain.NoWallet(),
	}
}

// Subscribe registers a listener for slice updates.
func (s *Store) Subscribe(l Listener) {
	if l == nil {
		return
	}
	s.listenersMu.Lock()
	s.listeners = append(s.listeners, l)
	s.listenersMu.Unlock()
}

// mutate runs fn under the write lock and notifies listeners if fn reports a change.
func (s *Store) mutate(slice Slice, fn func() bool) {
	s.mu.Lock()
	changed := fn()
	var version uint64
	if changed {
		s.version++
		version = s.version
	}
	s.mu.Unlock()

	if !changed {
		return
	}

	s.listenersMu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenersMu.RUnlock()

	for _, l := range listeners {
		l(Update{Slice: slice, Version: version})
	}
}

// InitTokens replaces the registry and marks the token slice initialized.
func (s *Store) InitTokens(tokens []domain.Token) {
	s.mutate(SliceToken, func() bool {
		s.tokens = make(map[string]domain.Token, len(tokens))
		for _, t := range tokens {
			s.tokens[t.Key()] = t
		}
		s.initialized = true
		return true
	})
}

// UpsertTokens adds or replaces registry entries, keeping wallet-dependent
// fields of existing entries when the incoming token does not carry them.
func (s *Store) UpsertTokens(tokens []domain.Token) {
	if len(tokens) == 0 {
		return
	}
	s.mutate(SliceToken, func() bool {
		for _, t := range tokens {
			if existing, ok := s.tokens[t.Key()]; ok {
				if !t.Balance.IsSome() {
					t.Balance = existing.Balance
				}
				if !t.Pool.IsSome() {
					t.Pool = existing.Pool
				}
			}
			s.tokens[t.Key()] = t
		}
		return true
	})
}

// SetTokenBalance sets the wallet balance of a known token.
// Returns false if the token is not in the registry.
func (s *Store) SetTokenBalance(key string, balance domain.Optional[decimal.Decimal]) bool {
	var found bool
	s.mutate(SliceToken, func() bool {
		t, ok := s.tokens[key]
		if !ok {
			return false
		}
		t.Balance = balance
		s.tokens[key] = t
		found = true
		return true
	})
	return found
}

// SetPoolContribution sets the wallet's pool contribution for a known token.
// Returns false if the token is not in the registry.
func (s *Store) SetPoolContribution(key string, pool domain.Optional[domain.PoolContribution]) bool {
	var found bool
	s.mutate(SliceToken, func() bool {
		t, ok := s.tokens[key]
		if !ok {
			return false
		}
		t.Pool = pool
		s.tokens[key] = t
		found = true
		return true
	})
	return found
}

// ToggleUserToken adds address to the user token list, or removes it if present.
// Returns true if the address is in the list after the call.
func (s *Store) ToggleUserToken(address string) bool {
	address = strings.TrimSpace(address)
	var present bool
	s.mutate(SliceToken, func() bool {
		if address == "" {
			return false
		}
		for i, a := range s.userTokens {
			if a == address {
				s.userTokens = append(s.userTokens[:i:i], s.userTokens[i+1:]...)
				present = false
				return true
			}
		}
		s.userTokens = append(s.userTokens, address)
		present = true
		return true
	})
	return present
}

// SetBridgeMappings replaces the bridge slice. Input order is preserved.
func (s *Store) SetBridgeMappings(mappings []domain.BridgeMapping) {
	s.mutate(SliceBridge, func() bool {
		s.bridge = domain.BridgeState{Mappings: mappings}.Clone()
		return true
	})
}

// ConnectWallet replaces the wallet slice with a connected wallet.
func (s *Store) ConnectWallet(w domain.Wallet) {
	s.mutate(SliceWallet, func() bool {
		s.wallet = domain.ConnectedWallet(w)
		return true
	})
}

// DisconnectWallet clears the wallet and the wallet-dependent token fields.
func (s *Store) DisconnectWallet() {
	s.mutate(SliceWallet, func() bool {
		if !s.wallet.Connected() {
			return false
		}
		s.wallet = domain.NoWallet()
		for k, t := range s.tokens {
			t.Balance = domain.None[decimal.Decimal]()
			t.Pool = domain.None[domain.PoolContribution]()
			s.tokens[k] = t
		}
		return true
	})
}

// MergePrices overwrites the given symbols and keeps the rest.
func (s *Store) MergePrices(prices domain.PriceMap) {
	if len(prices) == 0 {
		return
	}
	s.mutate(SlicePrice, func() bool {
		for sym, p := range prices {
			s.prices[sym] = p
		}
		return true
	})
}

// MergeStats replaces stats for the given pools and keeps the rest.
func (s *Store) MergeStats(stats []domain.PoolStats) {
	if len(stats) == 0 {
		return
	}
	s.mutate(SliceStats, func() bool {
		for _, st := range stats {
			s.stats[strings.ToLower(st.TokenAddress)] = st
		}
		return true
	})
}

// SetZap replaces the zap slice.
func (s *Store) SetZap(z domain.ZapRecord) {
	s.mutate(SliceZap, func() bool {
		s.zap = domain.Some(z.Clone())
		return true
	})
}

// Tokens returns a copy of the token slice.
func (s *Store) Tokens() TokenState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokenStateLocked()
}

// Token returns a single registry entry by key.
func (s *Store) Token(key string) (domain.Token, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[key]
	return t, ok
}

// Bridge returns a copy of the bridge slice.
func (s *Store) Bridge() domain.BridgeState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bridge.Clone()
}

// Wallet returns the wallet slice.
func (s *Store) Wallet() domain.WalletState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wallet
}

// Prices returns a copy of the price slice.
func (s *Store) Prices() domain.PriceMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prices.Clone()
}

// Stats returns a copy of the stats slice sorted by token address.
func (s *Store) Stats() []domain.PoolStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statsLocked()
}

// Zap returns the zap slice.
func (s *Store) Zap() domain.Optional[domain.ZapRecord] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zapLocked()
}

// Snapshot returns all slices read under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Version: s.version,
		Token:   s.tokenStateLocked(),
		Bridge:  s.bridge.Clone(),
		Wallet:  s.wallet,
		Prices:  s.prices.Clone(),
		Stats:   s.statsLocked(),
		Zap:     s.zapLocked(),
	}
}

func (s *Store) tokenStateLocked() TokenState {
	tokens := make([]domain.Token, 0, len(s.tokens))
	for _, t := range s.tokens {
		tokens = append(tokens, t)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Key() < tokens[j].Key() })

	userTokens := make([]string, len(s.userTokens))
	copy(userTokens, s.userTokens)

	return TokenState{
		Initialized: s.initialized,
		Tokens:      tokens,
		UserTokens:  userTokens,
	}
}

func (s *Store) statsLocked() []domain.PoolStats {
	out := make([]domain.PoolStats, 0, len(s.stats))
	for _, st := range s.stats {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].TokenAddress) < strings.ToLower(out[j].TokenAddress)
	})
	return out
}

func (s *Store) zapLocked() domain.Optional[domain.ZapRecord] {
	if z, ok := s.zap.Get(); ok {
		return domain.Some(z.Clone())
	}
	return domain.None[domain.ZapRecord]()
}
