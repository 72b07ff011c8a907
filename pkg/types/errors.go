package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a swap or wallet interaction failed
type ErrorKind int

const (
	UnknownFailure ErrorKind = iota
	NotConnected
	InvalidAmount
	WalletUnavailable
	AccessRejected
	SigningRejected
	AccountLoadFailed
	SimulationFailed
	SubmissionRejected
	OnChainFailure
	FinalityTimeout
)

var kindNames = map[ErrorKind]string{
	UnknownFailure:     "UnknownFailure",
	NotConnected:       "NotConnected",
	InvalidAmount:      "InvalidAmount",
	WalletUnavailable:  "WalletUnavailable",
	AccessRejected:     "AccessRejected",
	SigningRejected:    "SigningRejected",
	AccountLoadFailed:  "AccountLoadFailed",
	SimulationFailed:   "SimulationFailed",
	SubmissionRejected: "SubmissionRejected",
	OnChainFailure:     "OnChainFailure",
	FinalityTimeout:    "FinalityTimeout",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Retryable reports whether the same request can safely be attempted again.
// Only failures that happen before submission qualify.
func (k ErrorKind) Retryable() bool {
	switch k {
	case SimulationFailed, AccountLoadFailed:
		return true
	default:
		return false
	}
}

// Error is a classified failure with a human-readable message
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewError creates a classified error
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Errorf creates a classified error with a formatted message
func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the kind from err, defaulting to UnknownFailure
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return UnknownFailure
}
