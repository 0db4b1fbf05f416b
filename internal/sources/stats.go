package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"zilswap-dashboard/internal/domain"
)

// StatsClient reads pool statistics from the stats API.
type StatsClient struct {
	client *HTTPClient
}

var _ StatsSource = (*StatsClient)(nil)

// NewStatsClient creates a stats source.
func NewStatsClient(client *HTTPClient) *StatsClient {
	return &StatsClient{client: client}
}

type poolStatsJSON struct {
	TokenAddress string          `json:"token_address"`
	Liquidity    decimal.Decimal `json:"liquidity"`
	Volume24h    decimal.Decimal `json:"volume_24h"`
	Fees24h      decimal.Decimal `json:"fees_24h"`
	APR          decimal.Decimal `json:"apr"`
	UpdatedAt    int64           `json:"updated_at"`
}

// FetchStats returns all pools. Entries without a token address are dropped.
func (c *StatsClient) FetchStats(ctx context.Context) ([]domain.PoolStats, error) {
	var resp []poolStatsJSON
	if err := c.client.GetJSON(ctx, "/pools", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch stats: %w", err)
	}

	out := make([]domain.PoolStats, 0, len(resp))
	for _, p := range resp {
		if strings.TrimSpace(p.TokenAddress) == "" {
			continue
		}
		out = append(out, domain.PoolStats{
			TokenAddress: p.TokenAddress,
			Liquidity:    p.Liquidity,
			Volume24h:    p.Volume24h,
			Fees24h:      p.Fees24h,
			APR:          p.APR,
			UpdatedAt:    p.UpdatedAt,
		})
	}
	return out, nil
}
