package sources

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"zilswap-dashboard/internal/domain"
)

// ZapClient reads the reward distribution epoch and pool weights.
type ZapClient struct {
	client *HTTPClient
}

var _ ZapSource = (*ZapClient)(nil)

// NewZapClient creates a zap source.
func NewZapClient(client *HTTPClient) *ZapClient {
	return &ZapClient{client: client}
}

type epochInfoJSON struct {
	CurrentEpoch   int             `json:"current_epoch"`
	EpochPeriod    int64           `json:"epoch_period"`
	EpochStart     int64           `json:"first_epoch_start"`
	NextEpochStart int64           `json:"next_epoch_start"`
	TokensPerEpoch decimal.Decimal `json:"tokens_per_epoch"`
}

// FetchZap combines /epoch/info and /distribution/pool_weights.
// Both must succeed; a partial record is never returned.
func (c *ZapClient) FetchZap(ctx context.Context) (domain.ZapRecord, error) {
	var info epochInfoJSON
	if err := c.client.GetJSON(ctx, "/epoch/info", nil, &info); err != nil {
		return domain.ZapRecord{}, fmt.Errorf("fetch epoch info: %w", err)
	}

	var weights map[string]int
	if err := c.client.GetJSON(ctx, "/distribution/pool_weights", nil, &weights); err != nil {
		return domain.ZapRecord{}, fmt.Errorf("fetch pool weights: %w", err)
	}
	if weights == nil {
		weights = map[string]int{}
	}

	return domain.ZapRecord{
		CurrentEpoch:   info.CurrentEpoch,
		EpochPeriod:    info.EpochPeriod,
		EpochStart:     info.EpochStart,
		NextEpochStart: info.NextEpochStart,
		TokensPerEpoch: info.TokensPerEpoch,
		PoolWeights:    weights,
	}, nil
}
