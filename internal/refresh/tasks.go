// Package refresh binds the upstream sources to state slices as orchestrator tasks.
package refresh

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"zilswap-dashboard/internal/domain"
	"zilswap-dashboard/internal/orchestrator"
	"zilswap-dashboard/internal/sources"
	"zilswap-dashboard/internal/state"
	"zilswap-dashboard/internal/storage"
)

// Task names.
const (
	TaskPrice  = "price"
	TaskStats  = "stats"
	TaskZap    = "zap"
	TaskBridge = "bridge"
)

// Intervals configures how often each task polls its source.
type Intervals struct {
	Price  time.Duration
	Stats  time.Duration
	Zap    time.Duration
	Bridge time.Duration
}

// DefaultIntervals returns the polling intervals used when none are configured.
func DefaultIntervals() Intervals {
	return Intervals{
		Price:  time.Minute,
		Stats:  30 * time.Second,
		Zap:    5 * time.Minute,
		Bridge: 10 * time.Minute,
	}
}

// Options configures task construction. A nil source disables its task.
type Options struct {
	Store *state.Store

	Prices sources.PriceSource
	Stats  sources.StatsSource
	Zap    sources.ZapSource
	Bridge sources.BridgeSource

	// Optional persistence. Nil means the slice is kept in memory only.
	PriceHistory storage.PriceHistoryStore
	BridgeStore  storage.BridgeStore

	Intervals Intervals
	Logger    *logrus.Entry
	Now       func() time.Time
}

// Tasks builds the refresh tasks for every configured source.
func Tasks(opts Options) ([]orchestrator.RefreshTask, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("refresh: store is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	defaults := DefaultIntervals()
	iv := opts.Intervals
	if iv.Price <= 0 {
		iv.Price = defaults.Price
	}
	if iv.Stats <= 0 {
		iv.Stats = defaults.Stats
	}
	if iv.Zap <= 0 {
		iv.Zap = defaults.Zap
	}
	if iv.Bridge <= 0 {
		iv.Bridge = defaults.Bridge
	}

	var tasks []orchestrator.RefreshTask
	if opts.Prices != nil {
		tasks = append(tasks, priceTask(opts, iv.Price))
	}
	if opts.Stats != nil {
		tasks = append(tasks, orchestrator.NewTask(TaskStats, iv.Stats, opts.Stats.FetchStats,
			func(_ context.Context, stats []domain.PoolStats) error {
				opts.Store.MergeStats(stats)
				return nil
			}))
	}
	if opts.Zap != nil {
		tasks = append(tasks, orchestrator.NewTask(TaskZap, iv.Zap, opts.Zap.FetchZap,
			func(_ context.Context, z domain.ZapRecord) error {
				opts.Store.SetZap(z)
				return nil
			}))
	}
	if opts.Bridge != nil {
		tasks = append(tasks, bridgeTask(opts, iv.Bridge))
	}
	return tasks, nil
}

func priceTask(opts Options, interval time.Duration) orchestrator.RefreshTask {
	return orchestrator.NewTask(TaskPrice, interval, opts.Prices.FetchPrices,
		func(ctx context.Context, prices domain.PriceMap) error {
			opts.Store.MergePrices(prices)
			if opts.PriceHistory == nil || len(prices) == 0 {
				return nil
			}
			points := pricePoints(prices, opts.Now().UnixMilli())
			if err := opts.PriceHistory.InsertBulk(ctx, points); err != nil {
				return fmt.Errorf("persist price history: %w", err)
			}
			opts.Logger.WithField("points", len(points)).Debug("price history persisted")
			return nil
		})
}

func bridgeTask(opts Options, interval time.Duration) orchestrator.RefreshTask {
	return orchestrator.NewTask(TaskBridge, interval, opts.Bridge.FetchBridgeMappings,
		func(ctx context.Context, mappings []domain.BridgeMapping) error {
			opts.Store.SetBridgeMappings(mappings)
			if opts.BridgeStore == nil {
				return nil
			}
			if err := opts.BridgeStore.ReplaceAll(ctx, mappings); err != nil {
				return fmt.Errorf("persist bridge mappings: %w", err)
			}
			return nil
		})
}

// pricePoints converts a price map into history rows sharing one timestamp,
// ordered by symbol.
func pricePoints(prices domain.PriceMap, tsMs int64) []*domain.PricePoint {
	points := make([]*domain.PricePoint, 0, len(prices))
	for sym, p := range prices {
		points = append(points, &domain.PricePoint{Symbol: sym, Price: p, TimestampMs: tsMs})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Symbol < points[j].Symbol })
	return points
}
