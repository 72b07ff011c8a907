package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stellar/go/clients/horizonclient"
)

// ErrAccountNotFound is returned when the account does not exist on the network
var ErrAccountNotFound = errors.New("account not found on network, fund it at friendbot.stellar.org")

// Balance is one asset balance of an account
type Balance struct {
	AssetType string `json:"asset_type"`
	AssetCode string `json:"asset_code,omitempty"`
	Issuer    string `json:"asset_issuer,omitempty"`
	Amount    string `json:"balance"`
}

// Account is the ledger state needed to build transactions
type Account struct {
	ID       string    `json:"account_id"`
	Sequence int64     `json:"sequence"`
	Balances []Balance `json:"balances"`
}

// NativeBalance returns the XLM balance, or "0" when absent
func (a *Account) NativeBalance() string {
	for _, b := range a.Balances {
		if b.AssetType == "native" {
			return b.Amount
		}
	}
	return "0"
}

// HorizonClient loads account state from a Horizon server
type HorizonClient struct {
	client horizonclient.ClientInterface
}

// NewHorizonClient creates a new Horizon client
func NewHorizonClient(horizonURL string, httpClient *http.Client) *HorizonClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultRPCTimeout}
	}
	return &HorizonClient{
		client: &horizonclient.Client{
			HorizonURL: horizonURL,
			HTTP:       httpClient,
		},
	}
}

// LoadAccount fetches the account with its sequence number and balances
func (h *HorizonClient) LoadAccount(ctx context.Context, address string) (*Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detail, err := h.client.AccountDetail(horizonclient.AccountRequest{AccountID: address})
	if err != nil {
		if horizonclient.IsNotFoundError(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}

	seq, err := detail.GetSequenceNumber()
	if err != nil {
		return nil, fmt.Errorf("invalid account sequence: %w", err)
	}

	account := &Account{
		ID:       detail.AccountID,
		Sequence: seq,
		Balances: make([]Balance, 0, len(detail.Balances)),
	}
	for _, b := range detail.Balances {
		account.Balances = append(account.Balances, Balance{
			AssetType: b.Type,
			AssetCode: b.Code,
			Issuer:    b.Issuer,
			Amount:    b.Balance,
		})
	}

	return account, nil
}
