package sources

import (
	"context"
	"fmt"

	"zilswap-dashboard/internal/domain"
)

// BridgeClient reads bridgeable tokens from the bridge API.
type BridgeClient struct {
	client *HTTPClient
}

var _ BridgeSource = (*BridgeClient)(nil)

// NewBridgeClient creates a bridge source.
func NewBridgeClient(client *HTTPClient) *BridgeClient {
	return &BridgeClient{client: client}
}

type bridgeTokenJSON struct {
	TokenAddress   string `json:"tokenAddress"`
	ToTokenAddress string `json:"toTokenAddress"`
	ToBlockchain   string `json:"toBlockchain"`
	Denom          string `json:"denom"`
}

// FetchBridgeMappings returns the mappings keyed by source chain. Order
// within each chain is kept as published; chains are emitted Ethereum first.
func (c *BridgeClient) FetchBridgeMappings(ctx context.Context) ([]domain.BridgeMapping, error) {
	var resp map[string][]bridgeTokenJSON
	if err := c.client.GetJSON(ctx, "/bridge/tokens", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch bridge tokens: %w", err)
	}

	var out []domain.BridgeMapping
	for _, chain := range []domain.Blockchain{domain.BlockchainEthereum, domain.BlockchainZilliqa} {
		for _, t := range resp[string(chain)] {
			if t.TokenAddress == "" || t.ToTokenAddress == "" {
				continue
			}
			dest := domain.Blockchain(t.ToBlockchain)
			if !dest.IsValid() {
				dest = domain.BlockchainZilliqa
			}
			out = append(out, domain.BridgeMapping{
				SourceChain:   chain,
				SourceAddress: t.TokenAddress,
				DestChain:     dest,
				DestAddress:   t.ToTokenAddress,
				Denom:         t.Denom,
			})
		}
	}
	return out, nil
}
