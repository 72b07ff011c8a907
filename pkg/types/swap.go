package types

import (
	"time"

	"stellar-swap/pkg/rates"
)

// SwapRequest represents a user's swap command
type SwapRequest struct {
	AmountIn string       `json:"amount_in" validate:"required"`
	From     rates.Symbol `json:"from" validate:"required"`
	To       rates.Symbol `json:"to" validate:"required,nefield=From"`
	Address  string       `json:"address"`
}

// SwapStatus is the state of a single swap attempt
type SwapStatus string

const (
	StatusIdle    SwapStatus = "idle"    // Attempt created, nothing checked yet
	StatusPending SwapStatus = "pending" // Transaction is being built, signed or confirmed
	StatusSuccess SwapStatus = "success" // Transaction included with SUCCESS
	StatusFail    SwapStatus = "fail"    // Attempt ended with an error
)

// SwapAttempt tracks one in-flight swap
type SwapAttempt struct {
	ID         string      `json:"id"`
	Request    SwapRequest `json:"request"`
	Status     SwapStatus  `json:"status"`
	TxHash     string      `json:"tx_hash,omitempty"`
	Err        *Error      `json:"-"`
	Polls      int         `json:"polls"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at,omitempty"`
}

// Terminal returns true once the attempt has succeeded or failed
func (a *SwapAttempt) Terminal() bool {
	return a.Status == StatusSuccess || a.Status == StatusFail
}

// ErrorMessage returns the failure text, or an empty string
func (a *SwapAttempt) ErrorMessage() string {
	if a.Err == nil {
		return ""
	}
	return a.Err.Error()
}

// WalletSession holds a successful wallet connection
type WalletSession struct {
	WalletID string `json:"wallet"`
	Address  string `json:"address"`
	Balance  string `json:"balance"`
}

// ContractEvent is a contract event observed on the ledger
type ContractEvent struct {
	ID       string    `json:"id"`
	Ledger   uint32    `json:"ledger"`
	Type     string    `json:"type"`
	Topics   []string  `json:"topics,omitempty"`
	Value    string    `json:"value,omitempty"`
	ClosedAt time.Time `json:"ledger_closed_at"`
}
