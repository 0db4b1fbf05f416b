// Package stub provides controllable in-memory sources for tests.
package stub

import (
	"context"
	"sync"
	"sync/atomic"

	"zilswap-dashboard/internal/domain"
	"zilswap-dashboard/internal/sources"
)

// fixed returns a configurable result and can hold calls until released.
type fixed[T any] struct {
	mu    sync.Mutex
	value T
	err   error
	gate  chan struct{}
	calls atomic.Int32
}

func (f *fixed[T]) fetch(ctx context.Context) (T, error) {
	f.calls.Add(1)

	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// Set replaces the result returned by later calls and clears any error.
func (f *fixed[T]) Set(v T) {
	f.mu.Lock()
	f.value, f.err = v, nil
	f.mu.Unlock()
}

// Fail makes later calls return err.
func (f *fixed[T]) Fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// Block holds every later call until the returned release func is called.
func (f *fixed[T]) Block() (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.gate == gate {
				f.gate = nil
			}
			f.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns how many times the source was invoked.
func (f *fixed[T]) Calls() int {
	return int(f.calls.Load())
}

// PriceSource returns a fixed price map.
// Implements sources.PriceSource interface.
type PriceSource struct {
	fixed[domain.PriceMap]
}

var _ sources.PriceSource = (*PriceSource)(nil)

// NewPriceSource creates a stub price source.
func NewPriceSource(prices domain.PriceMap) *PriceSource {
	s := &PriceSource{}
	s.Set(prices)
	return s
}

// FetchPrices returns a copy of the configured prices.
func (s *PriceSource) FetchPrices(ctx context.Context) (domain.PriceMap, error) {
	p, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

// StatsSource returns fixed pool stats.
// Implements sources.StatsSource interface.
type StatsSource struct {
	fixed[[]domain.PoolStats]
}

var _ sources.StatsSource = (*StatsSource)(nil)

// NewStatsSource creates a stub stats source.
func NewStatsSource(stats []domain.PoolStats) *StatsSource {
	s := &StatsSource{}
	s.Set(stats)
	return s
}

// FetchStats returns a copy of the configured stats.
func (s *StatsSource) FetchStats(ctx context.Context) ([]domain.PoolStats, error) {
	st, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PoolStats, len(st))
	copy(out, st)
	return out, nil
}

// ZapSource returns a fixed zap record.
// Implements sources.ZapSource interface.
type ZapSource struct {
	fixed[domain.ZapRecord]
}

var _ sources.ZapSource = (*ZapSource)(nil)

// NewZapSource creates a stub zap source.
func NewZapSource(z domain.ZapRecord) *ZapSource {
	s := &ZapSource{}
	s.Set(z)
	return s
}

// FetchZap returns a copy of the configured record.
func (s *ZapSource) FetchZap(ctx context.Context) (domain.ZapRecord, error) {
	z, err := s.fetch(ctx)
	if err != nil {
		return domain.ZapRecord{}, err
	}
	return z.Clone(), nil
}

// BridgeSource returns fixed bridge mappings.
// Implements sources.BridgeSource interface.
type BridgeSource struct {
	fixed[[]domain.BridgeMapping]
}

var _ sources.BridgeSource = (*BridgeSource)(nil)

// NewBridgeSource creates a stub bridge source.
func NewBridgeSource(mappings []domain.BridgeMapping) *BridgeSource {
	s := &BridgeSource{}
	s.Set(mappings)
	return s
}

// FetchBridgeMappings returns a copy of the configured mappings.
func (s *BridgeSource) FetchBridgeMappings(ctx context.Context) ([]domain.BridgeMapping, error) {
	m, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return domain.BridgeState{Mappings: m}.Clone().Mappings, nil
}
