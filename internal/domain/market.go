package domain

import (
	"github.com/shopspring/decimal"
)

// PriceMap maps a token symbol to its USD price.
type PriceMap map[string]decimal.Decimal

// Clone returns a copy of the map.
func (m PriceMap) Clone() PriceMap {
	out := make(PriceMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// PoolStats is the per-pool statistics record published by the stats API.
type PoolStats struct {
	TokenAddress string
	Liquidity    decimal.Decimal // USD
	Volume24h    decimal.Decimal // USD
	Fees24h      decimal.Decimal // USD
	APR          decimal.Decimal // percent
	UpdatedAt    int64           // Unix ms
}

// ZapRecord describes the current ZAP reward distribution epoch.
type ZapRecord struct {
	CurrentEpoch   int
	EpochPeriod    int64 // seconds
	EpochStart     int64 // Unix seconds
	NextEpochStart int64 // Unix seconds
	TokensPerEpoch decimal.Decimal
	PoolWeights    map[string]int // pool token address -> weight
}

// Clone returns a deep copy of the record.
func (z ZapRecord) Clone() ZapRecord {
	out := z
	if z.PoolWeights != nil {
		out.PoolWeights = make(map[string]int, len(z.PoolWeights))
		for k, v := range z.PoolWeights {
			out.PoolWeights[k] = v
		}
	}
	return out
}

// PricePoint is one persisted price observation.
// Corresponds to price_history table in ClickHouse.
type PricePoint struct {
	Symbol      string
	Price       decimal.Decimal
	TimestampMs int64
}
