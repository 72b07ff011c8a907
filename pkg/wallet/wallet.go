// Package wallet connects to the wallet backends that hold the user's keys.
package wallet

import (
	"context"
)

// Network identifies the network a wallet signs for
type Network struct {
	Name       string `json:"network"`
	Passphrase string `json:"network_passphrase"`
}

// SignOptions tells the wallet which network and account to sign with
type SignOptions struct {
	NetworkPassphrase string
	Address           string
}

// Wallet is the capability set every wallet backend provides.
// Failures are returned as *types.Error with a wallet kind.
type Wallet interface {
	ID() string
	Name() string
	URL() string
	IsAvailable(ctx context.Context) bool
	GetAddress(ctx context.Context) (string, error)
	SignTransaction(ctx context.Context, envelope string, opts SignOptions) (string, error)
	GetNetwork(ctx context.Context) (Network, error)
}
