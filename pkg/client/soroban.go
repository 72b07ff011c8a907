package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"stellar-swap/pkg/metrics"
)

// DefaultRPCTimeout bounds a single HTTP round trip
const DefaultRPCTimeout = 30 * time.Second

// Transaction statuses reported by getTransaction
const (
	TxStatusNotFound = "NOT_FOUND"
	TxStatusPending  = "PENDING"
	TxStatusSuccess  = "SUCCESS"
	TxStatusFailed   = "FAILED"
)

// Submission statuses reported by sendTransaction
const (
	SendStatusPending       = "PENDING"
	SendStatusDuplicate     = "DUPLICATE"
	SendStatusTryAgainLater = "TRY_AGAIN_LATER"
	SendStatusError         = "ERROR"
)

// RPCClient talks to a Soroban RPC endpoint using JSON-RPC 2.0
type RPCClient struct {
	endpoint  string
	client    *http.Client
	metrics   *metrics.Metrics
	requestID atomic.Uint64
}

// RPCOption configures RPCClient
type RPCOption func(*RPCClient)

// WithHTTPClient sets a custom http.Client
func WithHTTPClient(c *http.Client) RPCOption {
	return func(r *RPCClient) {
		r.client = c
	}
}

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) RPCOption {
	return func(r *RPCClient) {
		r.client.Timeout = d
	}
}

// WithMetrics records call latency per method
func WithMetrics(m *metrics.Metrics) RPCOption {
	return func(r *RPCClient) {
		r.metrics = m
	}
}

// NewRPCClient creates a new Soroban RPC client
func NewRPCClient(endpoint string, opts ...RPCOption) *RPCClient {
	c := &RPCClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultRPCTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC request
type rpcRequest struct {
	JSONRpc string      `json:"jsonrpc"`
	ID      uint64      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC response
type rpcResponse struct {
	JSONRpc string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the error object of a JSON-RPC response
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error (code %d): %s", e.Code, e.Message)
}

// call makes a JSON-RPC call and decodes the result into out
func (c *RPCClient) call(ctx context.Context, method string, params interface{}, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveRPC(method, time.Since(start), err)
	}()

	rpcReq := rpcRequest{
		JSONRpc: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	reqBody, err := json.Marshal(rpcReq)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("RPC request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("RPC returned status %d: %s", resp.StatusCode, string(body))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if rpcResp.Error != nil {
		return rpcResp.Error
	}

	if out != nil && len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return fmt.Errorf("failed to parse %s result: %w", method, err)
		}
	}

	return nil
}

// SimulateResult is one host function result of a simulation
type SimulateResult struct {
	Auth []string `json:"auth"`
	XDR  string   `json:"xdr"`
}

// SimulateTransactionResult is the result of simulateTransaction
type SimulateTransactionResult struct {
	TransactionData string           `json:"transactionData"`
	MinResourceFee  int64            `json:"minResourceFee,string"`
	Results         []SimulateResult `json:"results"`
	Error           string           `json:"error,omitempty"`
	LatestLedger    uint32           `json:"latestLedger"`
}

// Failed returns true if the simulation reported a host or contract error
func (r *SimulateTransactionResult) Failed() bool {
	return r.Error != ""
}

// ReturnValue returns the base64 ScVal of the first host function
func (r *SimulateTransactionResult) ReturnValue() (string, error) {
	if len(r.Results) == 0 || r.Results[0].XDR == "" {
		return "", fmt.Errorf("simulation returned no result value")
	}
	return r.Results[0].XDR, nil
}

// SendTransactionResult is the result of sendTransaction
type SendTransactionResult struct {
	Hash           string `json:"hash"`
	Status         string `json:"status"`
	ErrorResultXDR string `json:"errorResultXdr,omitempty"`
	LatestLedger   uint32 `json:"latestLedger"`
}

// GetTransactionResult is the result of getTransaction
type GetTransactionResult struct {
	Status           string `json:"status"`
	Ledger           uint32 `json:"ledger,omitempty"`
	CreatedAt        string `json:"createdAt,omitempty"`
	ApplicationOrder int    `json:"applicationOrder,omitempty"`
	EnvelopeXDR      string `json:"envelopeXdr,omitempty"`
	ResultXDR        string `json:"resultXdr,omitempty"`
	ResultMetaXDR    string `json:"resultMetaXdr,omitempty"`
	LatestLedger     uint32 `json:"latestLedger"`
}

// Pending returns true while the network has not reached a terminal status
func (r *GetTransactionResult) Pending() bool {
	return r.Status == TxStatusNotFound || r.Status == TxStatusPending
}

// LatestLedgerResult is the result of getLatestLedger
type LatestLedgerResult struct {
	ID              string `json:"id"`
	Sequence        uint32 `json:"sequence"`
	ProtocolVersion int    `json:"protocolVersion"`
}

// EventFilter selects events for getEvents
type EventFilter struct {
	Type        string     `json:"type,omitempty"`
	ContractIDs []string   `json:"contractIds,omitempty"`
	Topics      [][]string `json:"topics,omitempty"`
}

// EventsRequest holds getEvents parameters
type EventsRequest struct {
	StartLedger uint32
	Filters     []EventFilter
	Limit       int
}

// Event is a single contract event
type Event struct {
	Type                     string   `json:"type"`
	Ledger                   uint32   `json:"ledger"`
	LedgerClosedAt           string   `json:"ledgerClosedAt"`
	ContractID               string   `json:"contractId"`
	ID                       string   `json:"id"`
	InSuccessfulContractCall bool     `json:"inSuccessfulContractCall"`
	Topic                    []string `json:"topic"`
	Value                    string   `json:"value"`
	TxHash                   string   `json:"txHash,omitempty"`
}

// EventsResult is the result of getEvents
type EventsResult struct {
	Events       []Event `json:"events"`
	LatestLedger uint32  `json:"latestLedger"`
}

// SimulateTransaction dry-runs an unsigned envelope
func (c *RPCClient) SimulateTransaction(ctx context.Context, envelope string) (*SimulateTransactionResult, error) {
	var result SimulateTransactionResult
	params := map[string]interface{}{"transaction": envelope}
	if err := c.call(ctx, "simulateTransaction", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SendTransaction submits a signed envelope
func (c *RPCClient) SendTransaction(ctx context.Context, envelope string) (*SendTransactionResult, error) {
	var result SendTransactionResult
	params := map[string]interface{}{"transaction": envelope}
	if err := c.call(ctx, "sendTransaction", params, &result); err != nil {
		return nil, err
	}
	if result.Hash == "" {
		return nil, fmt.Errorf("sendTransaction returned an empty hash")
	}
	return &result, nil
}

// GetTransaction queries the status of a transaction by hash
func (c *RPCClient) GetTransaction(ctx context.Context, hash string) (*GetTransactionResult, error) {
	var result GetTransactionResult
	params := map[string]interface{}{"hash": hash}
	if err := c.call(ctx, "getTransaction", params, &result); err != nil {
		return nil, err
	}
	if result.Status == "" {
		return nil, fmt.Errorf("getTransaction returned no status")
	}
	return &result, nil
}

// GetLatestLedger returns the most recent ledger known to the node
func (c *RPCClient) GetLatestLedger(ctx context.Context) (*LatestLedgerResult, error) {
	var result LatestLedgerResult
	if err := c.call(ctx, "getLatestLedger", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetEvents returns events matching the request
func (c *RPCClient) GetEvents(ctx context.Context, req EventsRequest) (*EventsResult, error) {
	params := map[string]interface{}{
		"startLedger": req.StartLedger,
		"filters":     req.Filters,
	}
	if req.Limit > 0 {
		params["pagination"] = map[string]interface{}{"limit": req.Limit}
	}

	var result EventsResult
	if err := c.call(ctx, "getEvents", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
