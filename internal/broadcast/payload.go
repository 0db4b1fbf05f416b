package broadcast

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"zilswap-dashboard/internal/domain"
	"zilswap-dashboard/internal/state"
)

// Envelope is the JSON message published for one slice.
type Envelope struct {
	Slice   state.Slice     `json:"slice"`
	Version uint64          `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// TokenPayload is the JSON form of a registry token.
type TokenPayload struct {
	Blockchain             string           `json:"blockchain"`
	Address                string           `json:"address"`
	Symbol                 string           `json:"symbol"`
	Name                   string           `json:"name"`
	Decimals               int              `json:"decimals"`
	Registered             bool             `json:"registered"`
	Balance                *decimal.Decimal `json:"balance,omitempty"`
	UserContribution       *decimal.Decimal `json:"user_contribution,omitempty"`
	ContributionPercentage *decimal.Decimal `json:"contribution_percentage,omitempty"`
}

type tokenSlicePayload struct {
	Initialized bool           `json:"initialized"`
	Tokens      []TokenPayload `json:"tokens"`
	UserTokens  []string       `json:"user_tokens"`
}

type bridgeMappingPayload struct {
	SourceChain   string `json:"source_chain"`
	SourceAddress string `json:"source_address"`
	DestChain     string `json:"dest_chain"`
	DestAddress   string `json:"dest_address"`
	Denom         string `json:"denom,omitempty"`
}

type walletPayload struct {
	Connected bool   `json:"connected"`
	Address   string `json:"address,omitempty"`
	Provider  string `json:"provider,omitempty"`
}

type poolStatsPayload struct {
	TokenAddress string          `json:"token_address"`
	Liquidity    decimal.Decimal `json:"liquidity"`
	Volume24h    decimal.Decimal `json:"volume_24h"`
	Fees24h      decimal.Decimal `json:"fees_24h"`
	APR          decimal.Decimal `json:"apr"`
	UpdatedAt    int64           `json:"updated_at"`
}

type zapPayload struct {
	CurrentEpoch   int             `json:"current_epoch"`
	EpochPeriod    int64           `json:"epoch_period"`
	EpochStart     int64           `json:"epoch_start"`
	NextEpochStart int64           `json:"next_epoch_start"`
	TokensPerEpoch decimal.Decimal `json:"tokens_per_epoch"`
	PoolWeights    map[string]int  `json:"pool_weights"`
}

// NewTokenPayload converts a token for JSON output.
func NewTokenPayload(t domain.Token) TokenPayload {
	p := TokenPayload{
		Blockchain: t.Blockchain.String(),
		Address:    t.Address,
		Symbol:     t.Symbol,
		Name:       t.Name,
		Decimals:   t.Decimals,
		Registered: t.Registered,
	}
	if b, ok := t.Balance.Get(); ok {
		p.Balance = &b
	}
	if pool, ok := t.Pool.Get(); ok {
		if c, ok := pool.UserContribution.Get(); ok {
			p.UserContribution = &c
		}
		if pct, ok := pool.ContributionPercentage.Get(); ok {
			p.ContributionPercentage = &pct
		}
	}
	return p
}

// Encode builds the envelope for one slice of snap.
func Encode(snap state.Snapshot, slice state.Slice) ([]byte, error) {
	data, err := json.Marshal(slicePayload(snap, slice))
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Slice: slice, Version: snap.Version, Data: data})
}

func slicePayload(snap state.Snapshot, slice state.Slice) any {
	switch slice {
	case state.SliceToken:
		tokens := make([]TokenPayload, 0, len(snap.Token.Tokens))
		for _, t := range snap.Token.Tokens {
			tokens = append(tokens, NewTokenPayload(t))
		}
		return tokenSlicePayload{
			Initialized: snap.Token.Initialized,
			Tokens:      tokens,
			UserTokens:  snap.Token.UserTokens,
		}
	case state.SliceBridge:
		out := make([]bridgeMappingPayload, 0, len(snap.Bridge.Mappings))
		for _, m := range snap.Bridge.Mappings {
			out = append(out, bridgeMappingPayload{
				SourceChain:   m.SourceChain.String(),
				SourceAddress: m.SourceAddress,
				DestChain:     m.DestChain.String(),
				DestAddress:   m.DestAddress,
				Denom:         m.Denom,
			})
		}
		return out
	case state.SliceWallet:
		w, ok := snap.Wallet.Wallet.Get()
		return walletPayload{Connected: ok, Address: w.Address, Provider: w.Provider}
	case state.SlicePrice:
		return snap.Prices
	case state.SliceStats:
		out := make([]poolStatsPayload, 0, len(snap.Stats))
		for _, s := range snap.Stats {
			out = append(out, poolStatsPayload(s))
		}
		return out
	case state.SliceZap:
		z, ok := snap.Zap.Get()
		if !ok {
			return nil
		}
		return zapPayload(z)
	default:
		return nil
	}
}
