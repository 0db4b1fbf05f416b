// Package sources fetches market, pool, reward and bridge data from the
// upstream HTTP APIs. Each source is consumed by exactly one refresh task.
package sources

import (
	"context"

	"zilswap-dashboard/internal/domain"
)

// PriceSource fetches USD prices keyed by token symbol.
type PriceSource interface {
	FetchPrices(ctx context.Context) (domain.PriceMap, error)
}

// StatsSource fetches per-pool statistics.
type StatsSource interface {
	FetchStats(ctx context.Context) ([]domain.PoolStats, error)
}

// ZapSource fetches the current ZAP distribution epoch.
type ZapSource interface {
	FetchZap(ctx context.Context) (domain.ZapRecord, error)
}

// BridgeSource fetches the bridge token mappings in publication order.
type BridgeSource interface {
	FetchBridgeMappings(ctx context.Context) ([]domain.BridgeMapping, error)
}
