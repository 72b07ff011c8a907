// Package contract builds Soroban invocations of the swap contract.
package contract

import (
	"fmt"
	"time"

	"github.com/stellar/go/txnbuild"
	"github.com/stellar/go/xdr"
)

// DefaultTimeout is the validity window of built transactions
const DefaultTimeout = 30 * time.Second

// Builder creates transaction envelopes that call the fixed contract
type Builder struct {
	ContractID        string
	NetworkPassphrase string
	BaseFee           int64
	Timeout           time.Duration
}

// NewBuilder creates a builder for contractID on the given network
func NewBuilder(contractID, passphrase string, baseFee int64, timeout time.Duration) (*Builder, error) {
	if err := ValidateContractID(contractID); err != nil {
		return nil, err
	}
	if baseFee <= 0 {
		baseFee = txnbuild.MinBaseFee
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Builder{
		ContractID:        contractID,
		NetworkPassphrase: passphrase,
		BaseFee:           baseFee,
		Timeout:           timeout,
	}, nil
}

// Call describes one contract invocation from a source account
type Call struct {
	Source   string
	Sequence int64
	Function string
	Args     []xdr.ScVal
}

// Footprint is the part of a simulation needed to assemble a transaction
type Footprint struct {
	TransactionData string
	Auth            []string
	MinResourceFee  int64
}

// Invocation is a built, unsigned transaction
type Invocation struct {
	Envelope string
	Hash     string
	Fee      int64
}

// Build creates the unsigned envelope used for simulation
func (b *Builder) Build(call Call) (*Invocation, error) {
	return b.build(call, nil, nil, 0)
}

// Assemble rebuilds the call with the simulation's resources, auth entries and fee
func (b *Builder) Assemble(call Call, fp Footprint) (*Invocation, error) {
	var data *xdr.SorobanTransactionData
	if fp.TransactionData != "" {
		data = &xdr.SorobanTransactionData{}
		if err := xdr.SafeUnmarshalBase64(fp.TransactionData, data); err != nil {
			return nil, fmt.Errorf("failed to decode transaction data: %w", err)
		}
	}

	auth := make([]xdr.SorobanAuthorizationEntry, 0, len(fp.Auth))
	for i, a := range fp.Auth {
		var entry xdr.SorobanAuthorizationEntry
		if err := xdr.SafeUnmarshalBase64(a, &entry); err != nil {
			return nil, fmt.Errorf("failed to decode auth entry %d: %w", i, err)
		}
		auth = append(auth, entry)
	}

	if fp.MinResourceFee < 0 {
		return nil, fmt.Errorf("invalid resource fee %d", fp.MinResourceFee)
	}

	return b.build(call, data, auth, fp.MinResourceFee)
}

func (b *Builder) build(call Call, data *xdr.SorobanTransactionData, auth []xdr.SorobanAuthorizationEntry, resourceFee int64) (*Invocation, error) {
	contractAddr, err := contractAddress(b.ContractID)
	if err != nil {
		return nil, err
	}

	op := &txnbuild.InvokeHostFunction{
		HostFunction: xdr.HostFunction{
			Type: xdr.HostFunctionTypeHostFunctionTypeInvokeContract,
			InvokeContract: &xdr.InvokeContractArgs{
				ContractAddress: contractAddr,
				FunctionName:    xdr.ScSymbol(call.Function),
				Args:            call.Args,
			},
		},
		Auth:          auth,
		SourceAccount: call.Source,
	}
	if data != nil {
		op.Ext = xdr.TransactionExt{V: 1, SorobanData: data}
	}

	// Each build starts from the loaded sequence so Build and Assemble agree.
	source := txnbuild.NewSimpleAccount(call.Source, call.Sequence)
	fee := b.BaseFee + resourceFee

	tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
		SourceAccount:        &source,
		IncrementSequenceNum: true,
		Operations:           []txnbuild.Operation{op},
		BaseFee:              fee,
		Preconditions: txnbuild.Preconditions{
			TimeBounds: txnbuild.NewTimeout(int64(b.Timeout / time.Second)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction: %w", err)
	}

	envelope, err := tx.Base64()
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}

	hash, err := tx.HashHex(b.NetworkPassphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to hash transaction: %w", err)
	}

	return &Invocation{Envelope: envelope, Hash: hash, Fee: fee}, nil
}
