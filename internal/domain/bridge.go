package domain

// BridgeMapping associates a source-chain token with its wrapped counterpart.
// Many-to-one by source address.
type BridgeMapping struct {
	SourceChain   Blockchain
	SourceAddress string // as published by the bridge, usually hex without 0x
	DestChain     Blockchain
	DestAddress   string // hex or bech32
	Denom         string // bridge denomination, informational
}

// BridgeState is the set of known bridge mappings in arrival order.
// Order matters: on duplicate source addresses the earliest entry wins.
type BridgeState struct {
	Mappings []BridgeMapping
}

// Clone returns a copy that shares no backing array with b.
func (b BridgeState) Clone() BridgeState {
	if b.Mappings == nil {
		return BridgeState{}
	}
	out := make([]BridgeMapping, len(b.Mappings))
	copy(out, b.Mappings)
	return BridgeState{Mappings: out}
}
