package sources

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"zilswap-dashboard/internal/domain"
)

// PriceClient reads USD prices from a CoinGecko-compatible /simple/price endpoint.
type PriceClient struct {
	client     *HTTPClient
	ids        map[string]string // coin id -> symbol
	vsCurrency string
}

var _ PriceSource = (*PriceClient)(nil)

// NewPriceClient creates a price source. ids maps upstream coin ids to the
// symbols used in state, e.g. "zilliqa" -> "ZIL".
func NewPriceClient(client *HTTPClient, ids map[string]string) *PriceClient {
	m := make(map[string]string, len(ids))
	for id, sym := range ids {
		m[id] = sym
	}
	return &PriceClient{client: client, ids: m, vsCurrency: "usd"}
}

// FetchPrices returns prices for every configured coin the upstream knows.
// Coins missing from the response are left out, not zeroed.
func (c *PriceClient) FetchPrices(ctx context.Context) (domain.PriceMap, error) {
	if len(c.ids) == 0 {
		return domain.PriceMap{}, nil
	}

	ids := make([]string, 0, len(c.ids))
	for id := range c.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", c.vsCurrency)

	var resp map[string]map[string]decimal.Decimal
	if err := c.client.GetJSON(ctx, "/simple/price", q, &resp); err != nil {
		return nil, fmt.Errorf("fetch prices: %w", err)
	}

	out := make(domain.PriceMap, len(resp))
	for id, quotes := range resp {
		sym, ok := c.ids[id]
		if !ok {
			continue
		}
		if p, ok := quotes[c.vsCurrency]; ok {
			out[sym] = p
		}
	}
	return out, nil
}
