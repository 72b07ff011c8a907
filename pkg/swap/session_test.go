package swap

import (
	"context"
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stellar-swap/pkg/client"
	"stellar-swap/pkg/rates"
	"stellar-swap/pkg/types"
	"stellar-swap/pkg/wallet"
)

type denyAll struct{}

func (denyAll) Confirm(string) bool { return false }

func TestConnect(t *testing.T) {
	kp := keypair.MustRandom()
	net := wallet.Network{Name: "TESTNET", Passphrase: network.TestNetworkPassphrase}
	manager := wallet.NewManager(append(wallet.BrowserWallets(net),
		wallet.NewKeystore(kp.Seed(), net, wallet.AutoApprove{}))...)

	t.Run("loads balance", func(t *testing.T) {
		accounts := &mockAccounts{}
		accounts.On("LoadAccount", mock.Anything, kp.Address()).Return(&client.Account{
			ID:       kp.Address(),
			Balances: []client.Balance{{AssetType: "native", Amount: "9999.5000000"}},
		}, nil)

		session, err := Connect(context.Background(), manager, accounts, "local")
		require.NoError(t, err)
		assert.Equal(t, "local", session.WalletID)
		assert.Equal(t, kp.Address(), session.Address)
		assert.Equal(t, "9999.5000000", session.Balance)
	})

	t.Run("unfunded account", func(t *testing.T) {
		accounts := &mockAccounts{}
		accounts.On("LoadAccount", mock.Anything, kp.Address()).Return(nil, client.ErrAccountNotFound)

		_, err := Connect(context.Background(), manager, accounts, "local")
		assert.Equal(t, types.AccountLoadFailed, types.KindOf(err))
		assert.ErrorIs(t, err, client.ErrAccountNotFound)
	})

	t.Run("stub wallet", func(t *testing.T) {
		accounts := &mockAccounts{}

		_, err := Connect(context.Background(), manager, accounts, "albedo")
		assert.Equal(t, types.WalletUnavailable, types.KindOf(err))
		assert.Empty(t, accounts.Calls)
	})
}

func TestConnectForSwap_UnfundedAccountReachesWorkflow(t *testing.T) {
	kp := keypair.MustRandom()
	net := wallet.Network{Name: "TESTNET", Passphrase: network.TestNetworkPassphrase}
	manager := wallet.NewManager(wallet.NewKeystore(kp.Seed(), net, wallet.AutoApprove{}))

	f := newFixture(t)
	f.address = kp.Address()
	f.accounts.On("LoadAccount", mock.Anything, kp.Address()).Return(nil, client.ErrAccountNotFound)

	session, err := ConnectForSwap(context.Background(), manager, f.accounts, "local")
	require.NoError(t, err)
	assert.Equal(t, kp.Address(), session.Address)
	assert.Empty(t, session.Balance)

	attempt := f.workflow.Run(context.Background(), f.request("100", rates.XLM, rates.USDC))

	assert.Equal(t, types.StatusFail, attempt.Status)
	assert.Equal(t, types.AccountLoadFailed, attempt.Err.Kind)
	assert.ErrorIs(t, attempt.Err, client.ErrAccountNotFound)
	f.accounts.AssertNumberOfCalls(t, "LoadAccount", 2)
	assert.Empty(t, f.rpc.Calls)
}

func TestConnectForSwap_WalletErrorsPassThrough(t *testing.T) {
	kp := keypair.MustRandom()
	net := wallet.Network{Name: "TESTNET", Passphrase: network.TestNetworkPassphrase}
	manager := wallet.NewManager(append(wallet.BrowserWallets(net),
		wallet.NewKeystore(kp.Seed(), net, denyAll{}))...)

	tests := []struct {
		name     string
		walletID string
		kind     types.ErrorKind
	}{
		{name: "access rejected", walletID: "local", kind: types.AccessRejected},
		{name: "not installed", walletID: "freighter", kind: types.WalletUnavailable},
		{name: "unknown wallet", walletID: "metamask", kind: types.WalletUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := &mockAccounts{}

			session, err := ConnectForSwap(context.Background(), manager, accounts, tt.walletID)
			require.Error(t, err)
			assert.Nil(t, session)
			assert.Equal(t, tt.kind, types.KindOf(err))
			assert.Empty(t, accounts.Calls)
		})
	}
}

func TestConnectForSwap_LoadsBalance(t *testing.T) {
	kp := keypair.MustRandom()
	net := wallet.Network{Name: "TESTNET", Passphrase: network.TestNetworkPassphrase}
	manager := wallet.NewManager(wallet.NewKeystore(kp.Seed(), net, wallet.AutoApprove{}))

	accounts := &mockAccounts{}
	accounts.On("LoadAccount", mock.Anything, kp.Address()).Return(&client.Account{
		ID:       kp.Address(),
		Balances: []client.Balance{{AssetType: "native", Amount: "42.0000000"}},
	}, nil)

	session, err := ConnectForSwap(context.Background(), manager, accounts, "local")
	require.NoError(t, err)
	assert.Equal(t, "42.0000000", session.Balance)
}
