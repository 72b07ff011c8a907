package swap

import (
	"context"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stellar-swap/pkg/client"
	"stellar-swap/pkg/contract"
	"stellar-swap/pkg/rates"
	"stellar-swap/pkg/types"
	"stellar-swap/pkg/wallet"
)

type mockAccounts struct{ mock.Mock }

func (m *mockAccounts) LoadAccount(ctx context.Context, address string) (*client.Account, error) {
	args := m.Called(ctx, address)
	if acc := args.Get(0); acc != nil {
		return acc.(*client.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockRPC struct{ mock.Mock }

func (m *mockRPC) SimulateTransaction(ctx context.Context, envelope string) (*client.SimulateTransactionResult, error) {
	args := m.Called(ctx, envelope)
	if res := args.Get(0); res != nil {
		return res.(*client.SimulateTransactionResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRPC) SendTransaction(ctx context.Context, envelope string) (*client.SendTransactionResult, error) {
	args := m.Called(ctx, envelope)
	if res := args.Get(0); res != nil {
		return res.(*client.SendTransactionResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRPC) GetTransaction(ctx context.Context, hash string) (*client.GetTransactionResult, error) {
	args := m.Called(ctx, hash)
	if res := args.Get(0); res != nil {
		return res.(*client.GetTransactionResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) SignTransaction(ctx context.Context, envelope string, opts wallet.SignOptions) (string, error) {
	args := m.Called(ctx, envelope, opts)
	return args.String(0), args.Error(1)
}

type fixture struct {
	address  string
	accounts *mockAccounts
	rpc      *mockRPC
	signer   *mockSigner
	workflow *Workflow
	statuses []types.SwapStatus
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	raw := make([]byte, 32)
	_, err := rand.Read(raw)
	require.NoError(t, err)
	contractID, err := strkey.Encode(strkey.VersionByteContract, raw)
	require.NoError(t, err)

	builder, err := contract.NewBuilder(contractID, network.TestNetworkPassphrase, 100, 30*time.Second)
	require.NoError(t, err)

	f := &fixture{
		address:  keypair.MustRandom().Address(),
		accounts: &mockAccounts{},
		rpc:      &mockRPC{},
		signer:   &mockSigner{},
	}
	opts = append([]Option{
		WithPollInterval(time.Millisecond),
		WithObserver(func(a types.SwapAttempt) { f.statuses = append(f.statuses, a.Status) }),
	}, opts...)
	f.workflow = NewWorkflow(f.accounts, f.rpc, f.signer, builder, rates.Default(), opts...)
	return f
}

func (f *fixture) request(amount string, from, to rates.Symbol) types.SwapRequest {
	return types.SwapRequest{AmountIn: amount, From: from, To: to, Address: f.address}
}

func (f *fixture) expectAccount() {
	f.accounts.On("LoadAccount", mock.Anything, f.address).
		Return(&client.Account{ID: f.address, Sequence: 100}, nil)
}

func (f *fixture) expectSimulation() {
	data, err := xdr.MarshalBase64(xdr.SorobanTransactionData{ResourceFee: 500})
	if err != nil {
		panic(err)
	}
	f.rpc.On("SimulateTransaction", mock.Anything, mock.Anything).
		Return(&client.SimulateTransactionResult{TransactionData: data, MinResourceFee: 500}, nil)
}

func (f *fixture) expectSignAndSend(hash string) {
	f.signer.On("SignTransaction", mock.Anything, mock.Anything, wallet.SignOptions{
		NetworkPassphrase: network.TestNetworkPassphrase,
		Address:           f.address,
	}).Return("signed-envelope", nil)
	f.rpc.On("SendTransaction", mock.Anything, "signed-envelope").
		Return(&client.SendTransactionResult{Hash: hash, Status: client.SendStatusPending}, nil)
}

// swapArgs extracts the contract arguments from the simulated envelope
func swapArgs(t *testing.T, rpc *mockRPC) []xdr.ScVal {
	t.Helper()
	for _, call := range rpc.Calls {
		if call.Method != "SimulateTransaction" {
			continue
		}
		gtx, err := txnbuild.TransactionFromXDR(call.Arguments.String(1))
		require.NoError(t, err)
		tx, ok := gtx.Transaction()
		require.True(t, ok)
		op, ok := tx.Operations()[0].(*txnbuild.InvokeHostFunction)
		require.True(t, ok)
		return op.HostFunction.InvokeContract.Args
	}
	t.Fatal("SimulateTransaction was not called")
	return nil
}

func TestRun_NotConnected(t *testing.T) {
	f := newFixture(t)

	req := f.request("100", rates.XLM, rates.USDC)
	req.Address = ""
	attempt := f.workflow.Run(context.Background(), req)

	assert.Equal(t, types.StatusFail, attempt.Status)
	require.NotNil(t, attempt.Err)
	assert.Equal(t, types.NotConnected, attempt.Err.Kind)
	f.accounts.AssertNotCalled(t, "LoadAccount", mock.Anything, mock.Anything)
	assert.Empty(t, f.rpc.Calls)
	assert.Equal(t, []types.SwapStatus{types.StatusFail}, f.statuses)
}

func TestRun_InvalidAmount(t *testing.T) {
	for _, amount := range []string{"0", "-5", "abc", "", "0.000"} {
		t.Run(amount, func(t *testing.T) {
			f := newFixture(t)

			attempt := f.workflow.Run(context.Background(), f.request(amount, rates.XLM, rates.USDC))

			assert.Equal(t, types.StatusFail, attempt.Status)
			assert.Equal(t, types.InvalidAmount, attempt.Err.Kind)
			assert.Empty(t, f.accounts.Calls)
			assert.Empty(t, f.rpc.Calls)
			assert.Empty(t, f.signer.Calls)
		})
	}
}

func TestRun_AccountLoadFailed(t *testing.T) {
	f := newFixture(t)
	f.accounts.On("LoadAccount", mock.Anything, f.address).
		Return(nil, client.ErrAccountNotFound)

	attempt := f.workflow.Run(context.Background(), f.request("100", rates.XLM, rates.USDC))

	assert.Equal(t, types.AccountLoadFailed, attempt.Err.Kind)
	assert.ErrorIs(t, attempt.Err, client.ErrAccountNotFound)
	assert.Empty(t, f.rpc.Calls)
	assert.Equal(t, []types.SwapStatus{types.StatusPending, types.StatusFail}, f.statuses)
}

func TestRun_SimulationFailed(t *testing.T) {
	t.Run("rpc error", func(t *testing.T) {
		f := newFixture(t)
		f.expectAccount()
		f.rpc.On("SimulateTransaction", mock.Anything, mock.Anything).
			Return(nil, &client.RPCError{Code: -32602, Message: "invalid params"})

		attempt := f.workflow.Run(context.Background(), f.request("100", rates.XLM, rates.USDC))

		assert.Equal(t, types.SimulationFailed, attempt.Err.Kind)
		assert.Contains(t, attempt.ErrorMessage(), "invalid params")
		f.rpc.AssertNotCalled(t, "SendTransaction", mock.Anything, mock.Anything)
		assert.Empty(t, f.signer.Calls)
	})

	t.Run("host error", func(t *testing.T) {
		f := newFixture(t)
		f.expectAccount()
		f.rpc.On("SimulateTransaction", mock.Anything, mock.Anything).
			Return(&client.SimulateTransactionResult{Error: "HostError: Error(Contract, #1)"}, nil)

		attempt := f.workflow.Run(context.Background(), f.request("100", rates.XLM, rates.USDC))

		assert.Equal(t, types.SimulationFailed, attempt.Err.Kind)
		assert.Contains(t, attempt.ErrorMessage(), "HostError")
		f.rpc.AssertNotCalled(t, "SendTransaction", mock.Anything, mock.Anything)
	})

	t.Run("bad footprint", func(t *testing.T) {
		f := newFixture(t)
		f.expectAccount()
		f.rpc.On("SimulateTransaction", mock.Anything, mock.Anything).
			Return(&client.SimulateTransactionResult{TransactionData: "AAAA"}, nil)

		attempt := f.workflow.Run(context.Background(), f.request("100", rates.XLM, rates.USDC))

		assert.Equal(t, types.SimulationFailed, attempt.Err.Kind)
		assert.Empty(t, f.signer.Calls)
	})
}

func TestRun_SigningRejected(t *testing.T) {
	f := newFixture(t)
	f.expectAccount()
	f.expectSimulation()
	f.signer.On("SignTransaction", mock.Anything, mock.Anything, mock.Anything).
		Return("", types.Errorf(types.SigningRejected, "transaction signing was rejected"))

	attempt := f.workflow.Run(context.Background(), f.request("100", rates.XLM, rates.USDC))

	assert.Equal(t, types.SigningRejected, attempt.Err.Kind)
	f.rpc.AssertNotCalled(t, "SendTransaction", mock.Anything, mock.Anything)
}

func TestRun_SubmissionRejected(t *testing.T) {
	f := newFixture(t)
	f.expectAccount()
	f.expectSimulation()
	f.signer.On("SignTransaction", mock.Anything, mock.Anything, mock.Anything).Return("signed-envelope", nil)
	f.rpc.On("SendTransaction", mock.Anything, "signed-envelope").
		Return(&client.SendTransactionResult{Hash: "abc", Status: client.SendStatusError, ErrorResultXDR: "AAAAAA=="}, nil)

	attempt := f.workflow.Run(context.Background(), f.request("100", rates.XLM, rates.USDC))

	assert.Equal(t, types.SubmissionRejected, attempt.Err.Kind)
	assert.Contains(t, attempt.ErrorMessage(), "AAAAAA==")
	f.rpc.AssertNotCalled(t, "GetTransaction", mock.Anything, mock.Anything)
}

func TestRun_SuccessOnFirstPoll(t *testing.T) {
	f := newFixture(t)
	f.expectAccount()
	f.expectSimulation()
	f.expectSignAndSend("deadbeef")
	f.rpc.On("GetTransaction", mock.Anything, "deadbeef").
		Return(&client.GetTransactionResult{Status: client.TxStatusSuccess}, nil).Once()

	attempt := f.workflow.Run(context.Background(), f.request("100", rates.XLM, rates.USDC))

	assert.Equal(t, types.StatusSuccess, attempt.Status)
	assert.Nil(t, attempt.Err)
	assert.Equal(t, "deadbeef", attempt.TxHash)
	assert.Equal(t, 1, attempt.Polls)
	assert.NotEmpty(t, attempt.ID)
	assert.False(t, attempt.FinishedAt.IsZero())
	assert.Equal(t, []types.SwapStatus{types.StatusPending, types.StatusSuccess}, f.statuses)
	f.rpc.AssertNumberOfCalls(t, "GetTransaction", 1)

	args := swapArgs(t, f.rpc)
	require.Len(t, args, 4)
	assert.Equal(t, xdr.ScValTypeScvAddress, args[0].Type)
	assert.Equal(t, xdr.Uint64(100), args[1].I128.Lo)
	assert.Equal(t, xdr.Uint64(12), args[2].I128.Lo)
	assert.Equal(t, xdr.Uint64(100), args[3].I128.Lo)
}

func TestRun_OnChainFailure(t *testing.T) {
	f := newFixture(t)
	f.expectAccount()
	f.expectSimulation()
	f.expectSignAndSend("cafe")
	f.rpc.On("GetTransaction", mock.Anything, "cafe").
		Return(&client.GetTransactionResult{Status: client.TxStatusNotFound}, nil).Once()
	f.rpc.On("GetTransaction", mock.Anything, "cafe").
		Return(&client.GetTransactionResult{Status: client.TxStatusFailed}, nil).Once()

	attempt := f.workflow.Run(context.Background(), f.request("100", rates.XLM, rates.USDC))

	assert.Equal(t, types.StatusFail, attempt.Status)
	assert.Equal(t, types.OnChainFailure, attempt.Err.Kind)
	assert.Contains(t, attempt.ErrorMessage(), "FAILED")
	assert.Equal(t, 2, attempt.Polls)
	f.rpc.AssertNumberOfCalls(t, "GetTransaction", 2)
}

func TestRun_TruncatesFractionalAmount(t *testing.T) {
	f := newFixture(t)
	f.expectAccount()
	f.expectSimulation()
	f.expectSignAndSend("feed")
	f.rpc.On("GetTransaction", mock.Anything, "feed").
		Return(&client.GetTransactionResult{Status: client.TxStatusSuccess}, nil)

	attempt := f.workflow.Run(context.Background(), f.request("1.9", rates.XLM, rates.USDC))
	require.Equal(t, types.StatusSuccess, attempt.Status)

	args := swapArgs(t, f.rpc)
	assert.Equal(t, xdr.Uint64(1), args[1].I128.Lo)
	assert.Equal(t, xdr.Int64(0), args[1].I128.Hi)
}

func TestRun_MissingPairUsesPar(t *testing.T) {
	f := newFixture(t)
	f.expectAccount()
	f.expectSimulation()
	f.expectSignAndSend("beef")
	f.rpc.On("GetTransaction", mock.Anything, "beef").
		Return(&client.GetTransactionResult{Status: client.TxStatusSuccess}, nil)

	attempt := f.workflow.Run(context.Background(), f.request("5", rates.XLM, rates.XLM))
	require.Equal(t, types.StatusSuccess, attempt.Status)

	args := swapArgs(t, f.rpc)
	assert.Equal(t, xdr.Uint64(1), args[2].I128.Lo)
	assert.Equal(t, xdr.Uint64(1), args[3].I128.Lo)
}

func TestRun_FinalityTimeout(t *testing.T) {
	f := newFixture(t, WithMaxPolls(3))
	f.expectAccount()
	f.expectSimulation()
	f.expectSignAndSend("slow")
	f.rpc.On("GetTransaction", mock.Anything, "slow").
		Return(&client.GetTransactionResult{Status: client.TxStatusPending}, nil)

	attempt := f.workflow.Run(context.Background(), f.request("100", rates.XLM, rates.USDC))

	assert.Equal(t, types.FinalityTimeout, attempt.Err.Kind)
	assert.Equal(t, "slow", attempt.TxHash)
	assert.Equal(t, 3, attempt.Polls)
	f.rpc.AssertNumberOfCalls(t, "GetTransaction", 3)
}

func TestRun_PollTransportError(t *testing.T) {
	f := newFixture(t)
	f.expectAccount()
	f.expectSimulation()
	f.expectSignAndSend("lost")
	f.rpc.On("GetTransaction", mock.Anything, "lost").
		Return(nil, errors.New("connection reset"))

	attempt := f.workflow.Run(context.Background(), f.request("100", rates.XLM, rates.USDC))

	assert.Equal(t, types.UnknownFailure, attempt.Err.Kind)
	assert.Contains(t, attempt.ErrorMessage(), "connection reset")
	assert.Equal(t, 1, attempt.Polls)
}

func TestRun_CancelledWhileWaiting(t *testing.T) {
	f := newFixture(t, WithPollInterval(time.Hour))
	f.expectAccount()
	f.expectSimulation()
	f.signer.On("SignTransaction", mock.Anything, mock.Anything, mock.Anything).Return("signed-envelope", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.rpc.On("SendTransaction", mock.Anything, "signed-envelope").
		Run(func(mock.Arguments) { cancel() }).
		Return(&client.SendTransactionResult{Hash: "wait", Status: client.SendStatusPending}, nil)

	attempt := f.workflow.Run(ctx, f.request("100", rates.XLM, rates.USDC))

	assert.Equal(t, types.UnknownFailure, attempt.Err.Kind)
	assert.Contains(t, attempt.ErrorMessage(), "finality wait abandoned")
	assert.ErrorIs(t, attempt.Err, context.Canceled)
	assert.Equal(t, "wait", attempt.TxHash)
	f.rpc.AssertNotCalled(t, "GetTransaction", mock.Anything, mock.Anything)
}

func TestRun_RecoversFromPanic(t *testing.T) {
	f := newFixture(t)
	f.accounts.On("LoadAccount", mock.Anything, f.address).Run(func(mock.Arguments) {
		panic("boom")
	})

	var attempt *types.SwapAttempt
	require.NotPanics(t, func() {
		attempt = f.workflow.Run(context.Background(), f.request("100", rates.XLM, rates.USDC))
	})

	assert.Equal(t, types.StatusFail, attempt.Status)
	assert.Equal(t, types.UnknownFailure, attempt.Err.Kind)
	assert.Contains(t, attempt.ErrorMessage(), "boom")
}
