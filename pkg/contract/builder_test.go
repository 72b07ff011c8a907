package contract

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomContractID(t *testing.T) string {
	t.Helper()
	raw := make([]byte, 32)
	_, err := rand.Read(raw)
	require.NoError(t, err)
	id, err := strkey.Encode(strkey.VersionByteContract, raw)
	require.NoError(t, err)
	return id
}

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder(randomContractID(t), network.TestNetworkPassphrase, 0, 0)
	require.NoError(t, err)
	return b
}

func decodeInvocation(t *testing.T, envelope string) (*txnbuild.Transaction, *txnbuild.InvokeHostFunction) {
	t.Helper()
	gtx, err := txnbuild.TransactionFromXDR(envelope)
	require.NoError(t, err)
	tx, ok := gtx.Transaction()
	require.True(t, ok)
	ops := tx.Operations()
	require.Len(t, ops, 1)
	op, ok := ops[0].(*txnbuild.InvokeHostFunction)
	require.True(t, ok)
	return tx, op
}

func TestNewBuilder_Defaults(t *testing.T) {
	b := newTestBuilder(t)
	assert.Equal(t, int64(txnbuild.MinBaseFee), b.BaseFee)
	assert.Equal(t, 30*time.Second, b.Timeout)

	_, err := NewBuilder("not-a-contract", network.TestNetworkPassphrase, 100, time.Second)
	assert.Error(t, err)
}

func TestBuilder_BuildSwap(t *testing.T) {
	b := newTestBuilder(t)
	caller := keypair.MustRandom().Address()

	args, err := SwapArgs(caller, 100, 12, 100)
	require.NoError(t, err)

	inv, err := b.Build(Call{Source: caller, Sequence: 41, Function: FnSwap, Args: args})
	require.NoError(t, err)
	assert.NotEmpty(t, inv.Hash)
	assert.Equal(t, int64(100), inv.Fee)

	tx, op := decodeInvocation(t, inv.Envelope)
	assert.Equal(t, int64(42), tx.SequenceNumber())
	assert.Equal(t, caller, tx.SourceAccount().AccountID)

	invoke := op.HostFunction.InvokeContract
	require.NotNil(t, invoke)
	assert.Equal(t, xdr.ScSymbol(FnSwap), invoke.FunctionName)
	require.Len(t, invoke.Args, 4)
	assert.Equal(t, xdr.ScValTypeScvAddress, invoke.Args[0].Type)
	assert.Equal(t, xdr.Uint64(100), invoke.Args[1].I128.Lo)
	assert.Equal(t, xdr.Uint64(12), invoke.Args[2].I128.Lo)
	assert.Equal(t, xdr.Uint64(100), invoke.Args[3].I128.Lo)

	contractID, err := strkey.Encode(strkey.VersionByteContract, invoke.ContractAddress.ContractId[:])
	require.NoError(t, err)
	assert.Equal(t, b.ContractID, contractID)
}

func TestBuilder_AssembleAddsResources(t *testing.T) {
	b := newTestBuilder(t)
	caller := keypair.MustRandom().Address()
	args, err := CountArgs(caller)
	require.NoError(t, err)
	call := Call{Source: caller, Sequence: 7, Function: FnGetCount, Args: args}

	unsigned, err := b.Build(call)
	require.NoError(t, err)

	data, err := xdr.MarshalBase64(xdr.SorobanTransactionData{ResourceFee: 500})
	require.NoError(t, err)

	assembled, err := b.Assemble(call, Footprint{TransactionData: data, MinResourceFee: 500})
	require.NoError(t, err)
	assert.Equal(t, int64(600), assembled.Fee)
	assert.NotEqual(t, unsigned.Hash, assembled.Hash)

	var env xdr.TransactionEnvelope
	require.NoError(t, xdr.SafeUnmarshalBase64(assembled.Envelope, &env))
	assert.Equal(t, int32(1), env.V1.Tx.Ext.V)
	assert.Equal(t, xdr.Int64(500), env.V1.Tx.Ext.SorobanData.ResourceFee)
	assert.Equal(t, xdr.SequenceNumber(8), env.V1.Tx.SeqNum)
}

func TestBuilder_AssembleRejectsBadFootprint(t *testing.T) {
	b := newTestBuilder(t)
	caller := keypair.MustRandom().Address()
	call := Call{Source: caller, Sequence: 1, Function: FnGetCount}

	_, err := b.Assemble(call, Footprint{TransactionData: "!!not-base64"})
	assert.Error(t, err)

	_, err = b.Assemble(call, Footprint{Auth: []string{"AAAA"}})
	assert.Error(t, err)

	_, err = b.Assemble(call, Footprint{MinResourceFee: -1})
	assert.Error(t, err)
}

func TestAddressArg_Invalid(t *testing.T) {
	_, err := AddressArg("GNOTANADDRESS")
	assert.Error(t, err)

	_, err = SwapArgs("", 1, 1, 1)
	assert.Error(t, err)
}

func TestI128Arg(t *testing.T) {
	pos := I128Arg(555555)
	assert.Equal(t, xdr.Int64(0), pos.I128.Hi)
	assert.Equal(t, xdr.Uint64(555555), pos.I128.Lo)

	neg := I128Arg(-1)
	assert.Equal(t, xdr.Int64(-1), neg.I128.Hi)
	assert.Equal(t, xdr.Uint64(^uint64(0)), neg.I128.Lo)
}

func TestDecodeUint(t *testing.T) {
	u32 := xdr.Uint32(3)
	i128 := xdr.Int128Parts{Hi: 0, Lo: 9}
	negI64 := xdr.Int64(-4)
	big := xdr.Int128Parts{Hi: 1, Lo: 0}
	sym := xdr.ScSymbol("swap")

	tests := []struct {
		name      string
		val       xdr.ScVal
		want      uint64
		expectErr bool
	}{
		{name: "u32", val: xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &u32}, want: 3},
		{name: "i128", val: xdr.ScVal{Type: xdr.ScValTypeScvI128, I128: &i128}, want: 9},
		{name: "negative i64", val: xdr.ScVal{Type: xdr.ScValTypeScvI64, I64: &negI64}, expectErr: true},
		{name: "i128 overflow", val: xdr.ScVal{Type: xdr.ScValTypeScvI128, I128: &big}, expectErr: true},
		{name: "symbol", val: xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &sym}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b64, err := xdr.MarshalBase64(tt.val)
			require.NoError(t, err)

			got, err := DecodeUint(b64)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DecodeUint("garbage")
	assert.Error(t, err)
}

func TestDecodeSymbol(t *testing.T) {
	sym := xdr.ScSymbol("swap")
	b64, err := xdr.MarshalBase64(xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &sym})
	require.NoError(t, err)

	got, err := DecodeSymbol(b64)
	require.NoError(t, err)
	assert.Equal(t, "swap", got)

	u32 := xdr.Uint32(1)
	b64, err = xdr.MarshalBase64(xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &u32})
	require.NoError(t, err)
	_, err = DecodeSymbol(b64)
	assert.Error(t, err)
}
