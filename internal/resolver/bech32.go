package resolver

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/ethereum/go-ethereum/common"
)

// ZilliqaHRP is the human-readable part of Zilliqa bech32 addresses.
const ZilliqaHRP = "zil"

// ToBech32Address converts a 20-byte hex address, with or without 0x, to
// its zil1... form. Addresses that are already bech32 are returned lowercased.
func ToBech32Address(address string) (string, error) {
	a := strings.TrimSpace(address)

	if strings.HasPrefix(strings.ToLower(a), ZilliqaHRP+"1") {
		hrp, _, err := bech32.Decode(a)
		if err != nil {
			return "", fmt.Errorf("decode %q: %w", a, err)
		}
		if hrp != ZilliqaHRP {
			return "", fmt.Errorf("unexpected hrp %q", hrp)
		}
		return strings.ToLower(a), nil
	}

	if !common.IsHexAddress(a) {
		return "", fmt.Errorf("not a hex address: %q", address)
	}

	conv, err := bech32.ConvertBits(common.HexToAddress(a).Bytes(), 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("convert bits: %w", err)
	}
	return bech32.Encode(ZilliqaHRP, conv)
}

// FromBech32Address converts a zil1... address back to lowercase hex without 0x.
func FromBech32Address(address string) (string, error) {
	hrp, data, err := bech32.Decode(strings.TrimSpace(address))
	if err != nil {
		return "", fmt.Errorf("decode %q: %w", address, err)
	}
	if hrp != ZilliqaHRP {
		return "", fmt.Errorf("unexpected hrp %q", hrp)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", fmt.Errorf("convert bits: %w", err)
	}
	if len(raw) != common.AddressLength {
		return "", fmt.Errorf("decoded address has %d bytes", len(raw))
	}
	return common.Bytes2Hex(raw), nil
}
