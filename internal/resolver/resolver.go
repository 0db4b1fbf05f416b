// Package resolver derives presentation values from token, wallet and bridge
// state. Every function here is pure: no I/O, no hidden state, inputs are not
// modified.
package resolver

import (
	"errors"

	"github.com/shopspring/decimal"

	"zilswap-dashboard/internal/domain"
)

// ErrMappingNotFound is returned by LookupBridge when no mapping matches.
// ResolveDisplay absorbs it by falling back to the token's own address.
var ErrMappingNotFound = errors.New("bridge mapping not found")

// DisplayValues are the derived values shown for one token.
type DisplayValues struct {
	Balance                decimal.Decimal // smallest units
	ContributionPercentage decimal.Decimal // 0-100
	LogoAddress            string
}

// ResolveDisplay computes the display values of token.
//
// Without a wallet, balance and percentage are zero. With a wallet, balance
// is the pool contribution when showContribution is set and the raw balance
// otherwise, each zero when absent.
func ResolveDisplay(token domain.Token, wallet domain.WalletState, bridge domain.BridgeState, showContribution bool) DisplayValues {
	return DisplayValues{
		Balance:                Balance(token, wallet, showContribution),
		ContributionPercentage: ContributionPercentage(token, wallet),
		LogoAddress:            LogoAddress(token, bridge),
	}
}

// Balance returns the balance shown for token.
func Balance(token domain.Token, wallet domain.WalletState, showContribution bool) decimal.Decimal {
	if !wallet.Connected() {
		return decimal.Zero
	}
	if showContribution {
		pool, ok := token.Pool.Get()
		if !ok {
			return decimal.Zero
		}
		return pool.UserContribution.OrElse(decimal.Zero)
	}
	return token.Balance.OrElse(decimal.Zero)
}

// ContributionPercentage returns the wallet's pool share for token.
func ContributionPercentage(token domain.Token, wallet domain.WalletState) decimal.Decimal {
	if !wallet.Connected() {
		return decimal.Zero
	}
	pool, ok := token.Pool.Get()
	if !ok {
		return decimal.Zero
	}
	return pool.ContributionPercentage.OrElse(decimal.Zero)
}

// LogoAddress returns the address whose logo represents token.
// Tokens on the bridged source chain use their Zilliqa counterpart when a
// mapping exists; everything else uses its own address unchanged.
func LogoAddress(token domain.Token, bridge domain.BridgeState) string {
	if token.Blockchain != domain.BridgedSourceChain {
		return token.Address
	}

	mapping, err := LookupBridge(bridge, token.Address)
	if err != nil {
		return token.Address
	}

	dest, err := ToBech32Address(mapping.DestAddress)
	if err != nil {
		// Not a hex address, use it as published.
		return mapping.DestAddress
	}
	return dest
}

// LookupBridge finds the mapping whose source address matches address after
// normalization. When several mappings share a source address the first one
// in bridge order wins.
func LookupBridge(bridge domain.BridgeState, address string) (domain.BridgeMapping, error) {
	want := NormalizeAddress(address)
	if want == "" {
		return domain.BridgeMapping{}, ErrMappingNotFound
	}

	for _, m := range bridge.Mappings {
		if m.SourceChain != "" && m.SourceChain != domain.BridgedSourceChain {
			continue
		}
		if NormalizeAddress(m.SourceAddress) == want {
			return m, nil
		}
	}
	return domain.BridgeMapping{}, ErrMappingNotFound
}

// NormalizeAddress trims spaces, drops a 0x prefix and lowercases.
// Registry keys use the same form.
func NormalizeAddress(address string) string {
	return domain.NormalizeAddress(address)
}
