package contract

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"
)

// Contract function names
const (
	FnSwap     = "swap"
	FnGetCount = "get_count"
)

// ValidateContractID checks that id is a C... contract strkey
func ValidateContractID(id string) error {
	if _, err := strkey.Decode(strkey.VersionByteContract, id); err != nil {
		return fmt.Errorf("invalid contract id '%s': %w", id, err)
	}
	return nil
}

// ValidateAccountID checks that id is a G... account strkey
func ValidateAccountID(id string) error {
	if !strkey.IsValidEd25519PublicKey(id) {
		return fmt.Errorf("invalid account address '%s'", id)
	}
	return nil
}

// contractAddress decodes a contract strkey into an ScAddress
func contractAddress(id string) (xdr.ScAddress, error) {
	raw, err := strkey.Decode(strkey.VersionByteContract, id)
	if err != nil {
		return xdr.ScAddress{}, fmt.Errorf("invalid contract id '%s': %w", id, err)
	}

	// Wire form: 4-byte union discriminant followed by the 32-byte contract hash.
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, int32(xdr.ScAddressTypeScAddressTypeContract))
	buf.Write(raw)

	var addr xdr.ScAddress
	if err := xdr.SafeUnmarshal(buf.Bytes(), &addr); err != nil {
		return xdr.ScAddress{}, fmt.Errorf("failed to encode contract address: %w", err)
	}
	return addr, nil
}

// AddressArg encodes a G... account as an ScVal address argument
func AddressArg(address string) (xdr.ScVal, error) {
	if err := ValidateAccountID(address); err != nil {
		return xdr.ScVal{}, err
	}

	var accountID xdr.AccountId
	if err := accountID.SetAddress(address); err != nil {
		return xdr.ScVal{}, fmt.Errorf("invalid account address: %w", err)
	}

	scAddr := xdr.ScAddress{
		Type:      xdr.ScAddressTypeScAddressTypeAccount,
		AccountId: &accountID,
	}
	return xdr.ScVal{Type: xdr.ScValTypeScvAddress, Address: &scAddr}, nil
}

// I128Arg encodes a signed integer as an i128 ScVal
func I128Arg(v int64) xdr.ScVal {
	hi := int64(0)
	if v < 0 {
		hi = -1
	}
	parts := xdr.Int128Parts{
		Hi: xdr.Int64(hi),
		Lo: xdr.Uint64(uint64(v)),
	}
	return xdr.ScVal{Type: xdr.ScValTypeScvI128, I128: &parts}
}

// SwapArgs returns the swap arguments in contract order:
// caller, amount, rate numerator, rate denominator.
func SwapArgs(caller string, amount, rateNum, rateDen int64) ([]xdr.ScVal, error) {
	callerArg, err := AddressArg(caller)
	if err != nil {
		return nil, err
	}
	return []xdr.ScVal{callerArg, I128Arg(amount), I128Arg(rateNum), I128Arg(rateDen)}, nil
}

// CountArgs returns the get_count arguments
func CountArgs(caller string) ([]xdr.ScVal, error) {
	callerArg, err := AddressArg(caller)
	if err != nil {
		return nil, err
	}
	return []xdr.ScVal{callerArg}, nil
}

// DecodeUint decodes a base64 ScVal holding a non-negative integer
func DecodeUint(b64 string) (uint64, error) {
	var val xdr.ScVal
	if err := xdr.SafeUnmarshalBase64(b64, &val); err != nil {
		return 0, fmt.Errorf("failed to decode return value: %w", err)
	}

	switch val.Type {
	case xdr.ScValTypeScvU32:
		return uint64(*val.U32), nil
	case xdr.ScValTypeScvU64:
		return uint64(*val.U64), nil
	case xdr.ScValTypeScvI32:
		if *val.I32 < 0 {
			return 0, fmt.Errorf("negative return value %d", *val.I32)
		}
		return uint64(*val.I32), nil
	case xdr.ScValTypeScvI64:
		if *val.I64 < 0 {
			return 0, fmt.Errorf("negative return value %d", *val.I64)
		}
		return uint64(*val.I64), nil
	case xdr.ScValTypeScvI128:
		if val.I128.Hi != 0 {
			return 0, fmt.Errorf("i128 return value out of range")
		}
		return uint64(val.I128.Lo), nil
	default:
		return 0, fmt.Errorf("unexpected return type %s", val.Type)
	}
}

// DecodeSymbol decodes a base64 ScVal holding a symbol or string
func DecodeSymbol(b64 string) (string, error) {
	var val xdr.ScVal
	if err := xdr.SafeUnmarshalBase64(b64, &val); err != nil {
		return "", fmt.Errorf("failed to decode topic: %w", err)
	}

	switch val.Type {
	case xdr.ScValTypeScvSymbol:
		return string(*val.Sym), nil
	case xdr.ScValTypeScvString:
		return string(*val.Str), nil
	default:
		return "", fmt.Errorf("unexpected topic type %s", val.Type)
	}
}
