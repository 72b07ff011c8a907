package wallet

import (
	"context"

	"stellar-swap/pkg/types"
)

// Unavailable is a wallet product this client cannot reach. Every
// operation fails with WalletUnavailable.
type Unavailable struct {
	id      string
	name    string
	url     string
	network Network
}

// NewUnavailable creates a stub wallet for a product
func NewUnavailable(id, name, url string, network Network) *Unavailable {
	return &Unavailable{id: id, name: name, url: url, network: network}
}

func (u *Unavailable) ID() string   { return u.id }
func (u *Unavailable) Name() string { return u.name }
func (u *Unavailable) URL() string  { return u.url }

func (u *Unavailable) IsAvailable(ctx context.Context) bool { return false }

func (u *Unavailable) GetAddress(ctx context.Context) (string, error) {
	return "", u.notInstalled()
}

func (u *Unavailable) SignTransaction(ctx context.Context, envelope string, opts SignOptions) (string, error) {
	return "", u.notInstalled()
}

func (u *Unavailable) GetNetwork(ctx context.Context) (Network, error) {
	return u.network, nil
}

func (u *Unavailable) notInstalled() error {
	return types.Errorf(types.WalletUnavailable, "%s is not installed. Please install it from %s", u.name, u.url)
}

// BrowserWallets returns stubs for the browser extension wallets
func BrowserWallets(network Network) []Wallet {
	return []Wallet{
		NewUnavailable("freighter", "Freighter", "https://freighter.app", network),
		NewUnavailable("xbull", "xBull", "https://xbull.app", network),
		NewUnavailable("albedo", "Albedo", "https://albedo.link", network),
		NewUnavailable("lobstr", "LOBSTR", "https://lobstr.co", network),
		NewUnavailable("rabet", "Rabet", "https://rabet.io", network),
	}
}
