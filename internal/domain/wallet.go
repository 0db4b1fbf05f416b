package domain

// Wallet is a connected user wallet.
type Wallet struct {
	Address  string
	Provider string // e.g. "zilpay", "private-key"
}

// WalletState is either connected (Some) or disconnected (None).
// It is replaced as a whole on connect/disconnect, never partially.
type WalletState struct {
	Wallet Optional[Wallet]
}

// ConnectedWallet returns a WalletState holding w.
func ConnectedWallet(w Wallet) WalletState {
	return WalletState{Wallet: Some(w)}
}

// NoWallet returns the disconnected WalletState.
func NoWallet() WalletState {
	return WalletState{}
}

// Connected reports whether a wallet is present.
func (s WalletState) Connected() bool {
	return s.Wallet.IsSome()
}
