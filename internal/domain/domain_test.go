package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOptional(t *testing.T) {
	var zero Optional[int]
	assert.False(t, zero.IsSome())
	assert.Equal(t, 7, zero.OrElse(7))

	v, ok := Some(3).Get()
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 3, Some(3).OrElse(7))

	_, ok = None[decimal.Decimal]().Get()
	assert.False(t, ok)
}

func TestTokenKey_NormalizesAddress(t *testing.T) {
	a := Token{Blockchain: BlockchainZilliqa, Address: " ZIL1ABC "}
	b := Token{Blockchain: BlockchainZilliqa, Address: "zil1abc"}
	c := Token{Blockchain: BlockchainEthereum, Address: "zil1abc"}

	assert.Equal(t, "zil:zil1abc", a.Key())
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, b.Key(), c.Key())
}

func TestTokenKey_IgnoresHexPrefix(t *testing.T) {
	prefixed := Token{Blockchain: BlockchainEthereum, Address: "0xABC"}
	bare := Token{Blockchain: BlockchainEthereum, Address: "abc"}

	assert.Equal(t, "eth:abc", prefixed.Key())
	assert.Equal(t, prefixed.Key(), bare.Key())
	assert.Equal(t, "eth:abc", TokenKey(BlockchainEthereum, " 0Xabc "))
}

func TestBlockchain_IsValid(t *testing.T) {
	assert.True(t, BlockchainZilliqa.IsValid())
	assert.True(t, BlockchainEthereum.IsValid())
	assert.False(t, Blockchain("sol").IsValid())
	assert.Equal(t, BlockchainEthereum, BridgedSourceChain)
}

func TestWalletState(t *testing.T) {
	assert.False(t, NoWallet().Connected())
	s := ConnectedWallet(Wallet{Address: "zil1w"})
	assert.True(t, s.Connected())
	w, _ := s.Wallet.Get()
	assert.Equal(t, "zil1w", w.Address)
}

func TestClones(t *testing.T) {
	b := BridgeState{Mappings: []BridgeMapping{{SourceAddress: "abc"}}}
	bc := b.Clone()
	bc.Mappings[0].SourceAddress = "changed"
	assert.Equal(t, "abc", b.Mappings[0].SourceAddress)
	assert.Nil(t, BridgeState{}.Clone().Mappings)

	z := ZapRecord{PoolWeights: map[string]int{"a": 1}}
	zc := z.Clone()
	zc.PoolWeights["a"] = 2
	assert.Equal(t, 1, z.PoolWeights["a"])

	p := PriceMap{"ZIL": decimal.NewFromInt(1)}
	pc := p.Clone()
	pc["ZIL"] = decimal.Zero
	assert.True(t, p["ZIL"].Equal(decimal.NewFromInt(1)))
}
