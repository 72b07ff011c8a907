package wallet

import (
	"context"
	"fmt"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/txnbuild"

	"stellar-swap/pkg/types"
)

// Keystore is a wallet backed by a local secret seed
type Keystore struct {
	network  Network
	keys     *keypair.Full
	prompter Prompter
}

// NewKeystore creates a keystore wallet. An invalid or empty seed yields a
// keystore that reports itself unavailable.
func NewKeystore(secret string, network Network, prompter Prompter) *Keystore {
	k := &Keystore{
		network:  network,
		prompter: prompter,
	}
	if secret != "" {
		if full, err := keypair.ParseFull(secret); err == nil {
			k.keys = full
		}
	}
	if k.prompter == nil {
		k.prompter = AutoApprove{}
	}
	return k
}

func (k *Keystore) ID() string   { return "local" }
func (k *Keystore) Name() string { return "Local Keystore" }
func (k *Keystore) URL() string  { return "https://developers.stellar.org/docs/tools/cli" }

// IsAvailable returns true if a valid secret seed is configured
func (k *Keystore) IsAvailable(ctx context.Context) bool {
	return k.keys != nil
}

// GetAddress asks the user to grant access and returns the public address
func (k *Keystore) GetAddress(ctx context.Context) (string, error) {
	if k.keys == nil {
		return "", types.Errorf(types.WalletUnavailable,
			"no secret key configured, set STELLAR_SWAP_SECRET_KEY or secret_key in .stellar-swap.yaml")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	address := k.keys.Address()
	if !k.prompter.Confirm(fmt.Sprintf("Allow stellar-swap to use account %s?", address)) {
		return "", types.Errorf(types.AccessRejected, "connection rejected by user")
	}
	return address, nil
}

// SignTransaction signs a base64 envelope and returns it in the same encoding
func (k *Keystore) SignTransaction(ctx context.Context, envelope string, opts SignOptions) (string, error) {
	if k.keys == nil {
		return "", types.Errorf(types.WalletUnavailable, "no secret key configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if opts.Address != "" && opts.Address != k.keys.Address() {
		return "", types.Errorf(types.SigningRejected,
			"wallet holds %s, cannot sign for %s", k.keys.Address(), opts.Address)
	}

	passphrase := opts.NetworkPassphrase
	if passphrase == "" {
		passphrase = k.network.Passphrase
	}

	gtx, err := txnbuild.TransactionFromXDR(envelope)
	if err != nil {
		return "", types.NewError(types.SigningRejected, "could not decode transaction", err)
	}
	tx, ok := gtx.Transaction()
	if !ok {
		return "", types.Errorf(types.SigningRejected, "fee bump transactions are not supported")
	}

	hash, err := tx.HashHex(passphrase)
	if err != nil {
		return "", types.NewError(types.SigningRejected, "could not hash transaction", err)
	}
	if !k.prompter.Confirm(fmt.Sprintf("Sign transaction %s with %s?", hash, k.keys.Address())) {
		return "", types.Errorf(types.SigningRejected, "transaction signing was rejected")
	}

	signed, err := tx.Sign(passphrase, k.keys)
	if err != nil {
		return "", types.NewError(types.SigningRejected, "signing failed", err)
	}

	out, err := signed.Base64()
	if err != nil {
		return "", fmt.Errorf("failed to encode signed transaction: %w", err)
	}
	return out, nil
}

// GetNetwork returns the configured network
func (k *Keystore) GetNetwork(ctx context.Context) (Network, error) {
	return k.network, nil
}
