package domain

// Blockchain identifies the chain a token lives on.
type Blockchain string

const (
	BlockchainZilliqa  Blockchain = "zil"
	BlockchainEthereum Blockchain = "eth"
)

// BridgedSourceChain is the chain whose tokens are wrapped onto Zilliqa by the bridge.
const BridgedSourceChain = BlockchainEthereum

// String returns the string representation of Blockchain.
func (b Blockchain) String() string {
	return string(b)
}

// IsValid checks if the blockchain is a known value.
func (b Blockchain) IsValid() bool {
	return b == BlockchainZilliqa || b == BlockchainEthereum
}
