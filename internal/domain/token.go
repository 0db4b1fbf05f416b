package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Token is a registry entry plus the wallet-dependent fields filled in once a wallet connects.
type Token struct {
	Blockchain Blockchain                // chain the token lives on
	Address    string                    // contract address (hex or bech32)
	Symbol     string                    // ticker, may be empty for unregistered tokens
	Name       string                    // display name, may be empty
	Decimals   int                       // decimal precision of the smallest unit
	Registered bool                      // listed in the curated registry
	Balance    Optional[decimal.Decimal] // wallet balance in smallest units
	Pool       Optional[PoolContribution]
}

// PoolContribution is the connected wallet's share of the token's liquidity pool.
type PoolContribution struct {
	UserContribution       Optional[decimal.Decimal] // smallest units
	ContributionPercentage Optional[decimal.Decimal] // 0-100
}

// Key returns the registry key of the token: chain plus normalized address.
func (t Token) Key() string {
	return TokenKey(t.Blockchain, t.Address)
}

// TokenKey builds the registry key for a chain/address pair.
// Addresses that differ only in case or a 0x prefix share a key.
func TokenKey(chain Blockchain, address string) string {
	return string(chain) + ":" + NormalizeAddress(address)
}

// NormalizeAddress trims spaces, drops a 0x prefix and lowercases.
func NormalizeAddress(address string) string {
	a := strings.TrimSpace(address)
	if len(a) >= 2 && a[0] == '0' && (a[1] == 'x' || a[1] == 'X') {
		a = a[2:]
	}
	return strings.ToLower(a)
}
