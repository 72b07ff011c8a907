package swap

import (
	"context"
	"errors"
	"fmt"

	"stellar-swap/pkg/client"
	"stellar-swap/pkg/types"
	"stellar-swap/pkg/wallet"
)

// Connect connects the chosen wallet and loads the account's XLM balance
func Connect(ctx context.Context, manager *wallet.Manager, accounts AccountLoader, walletID string) (*types.WalletSession, error) {
	address, err := manager.Connect(ctx, walletID)
	if err != nil {
		return nil, err
	}

	session := &types.WalletSession{WalletID: walletID, Address: address}
	if err := loadBalance(ctx, accounts, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ConnectForSwap connects the chosen wallet ahead of a swap. Wallet failures
// are returned unchanged. A failed balance lookup still yields the session,
// with an empty balance, so the workflow classifies the account failure.
func ConnectForSwap(ctx context.Context, manager *wallet.Manager, accounts AccountLoader, walletID string) (*types.WalletSession, error) {
	address, err := manager.Connect(ctx, walletID)
	if err != nil {
		return nil, err
	}

	session := &types.WalletSession{WalletID: walletID, Address: address}
	_ = loadBalance(ctx, accounts, session)
	return session, nil
}

func loadBalance(ctx context.Context, accounts AccountLoader, session *types.WalletSession) error {
	account, err := accounts.LoadAccount(ctx, session.Address)
	if err != nil {
		if errors.Is(err, client.ErrAccountNotFound) {
			return types.NewError(types.AccountLoadFailed, client.ErrAccountNotFound.Error(), err)
		}
		return types.NewError(types.AccountLoadFailed, fmt.Sprintf("failed to load account: %v", err), err)
	}

	session.Balance = account.NativeBalance()
	return nil
}
