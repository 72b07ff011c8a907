// Package swap runs a swap request through its lifecycle on the network.
package swap

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"stellar-swap/pkg/client"
	"stellar-swap/pkg/contract"
	"stellar-swap/pkg/metrics"
	"stellar-swap/pkg/rates"
	"stellar-swap/pkg/types"
	"stellar-swap/pkg/wallet"
)

const (
	DefaultPollInterval = 2 * time.Second // Wait before each getTransaction
	DefaultMaxPolls     = 60              // Give up on finality after two minutes
)

// AccountLoader loads the source account of a transaction
type AccountLoader interface {
	LoadAccount(ctx context.Context, address string) (*client.Account, error)
}

// Simulator dry-runs transactions
type Simulator interface {
	SimulateTransaction(ctx context.Context, envelope string) (*client.SimulateTransactionResult, error)
}

// ContractRPC is the part of the Soroban RPC the workflow needs
type ContractRPC interface {
	Simulator
	SendTransaction(ctx context.Context, envelope string) (*client.SendTransactionResult, error)
	GetTransaction(ctx context.Context, hash string) (*client.GetTransactionResult, error)
}

// Signer signs envelopes on behalf of the connected address
type Signer interface {
	SignTransaction(ctx context.Context, envelope string, opts wallet.SignOptions) (string, error)
}

// Observer is notified whenever an attempt changes status
type Observer func(attempt types.SwapAttempt)

// Option configures a Workflow
type Option func(*Workflow)

// WithPollInterval sets the wait before each finality poll
func WithPollInterval(d time.Duration) Option {
	return func(w *Workflow) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithMaxPolls bounds the finality wait
func WithMaxPolls(n int) Option {
	return func(w *Workflow) {
		if n > 0 {
			w.maxPolls = n
		}
	}
}

// WithLogger sets the workflow logger
func WithLogger(l zerolog.Logger) Option {
	return func(w *Workflow) {
		w.logger = l
	}
}

// WithMetrics records attempts and polls
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Workflow) {
		w.metrics = m
	}
}

// WithObserver registers a status observer
func WithObserver(o Observer) Option {
	return func(w *Workflow) {
		w.observer = o
	}
}

// Workflow drives one swap request from validation to finality
type Workflow struct {
	accounts AccountLoader
	rpc      ContractRPC
	signer   Signer
	builder  *contract.Builder
	table    *rates.Table

	pollInterval time.Duration
	maxPolls     int
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	observer     Observer
}

// NewWorkflow creates a new swap workflow
func NewWorkflow(accounts AccountLoader, rpc ContractRPC, signer Signer, builder *contract.Builder, table *rates.Table, opts ...Option) *Workflow {
	w := &Workflow{
		accounts:     accounts,
		rpc:          rpc,
		signer:       signer,
		builder:      builder,
		table:        table,
		pollInterval: DefaultPollInterval,
		maxPolls:     DefaultMaxPolls,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run executes a swap request and returns the finished attempt.
// Failures are reported on the attempt, never as a panic.
func (w *Workflow) Run(ctx context.Context, req types.SwapRequest) (attempt *types.SwapAttempt) {
	attempt = &types.SwapAttempt{
		ID:        uuid.NewString(),
		Request:   req,
		Status:    types.StatusIdle,
		StartedAt: time.Now(),
	}
	log := w.logger.With().Str("attempt", attempt.ID).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("swap workflow panicked")
			w.fail(attempt, types.Errorf(types.UnknownFailure, "unexpected failure: %v", r))
		}
		outcome := "success"
		if attempt.Err != nil {
			outcome = attempt.Err.Kind.String()
		}
		w.metrics.ObserveSwap(outcome, attempt.FinishedAt.Sub(attempt.StartedAt))
	}()

	if err := w.execute(ctx, attempt, log); err != nil {
		classified := classify(err)
		log.Warn().Err(err).Str("kind", classified.Kind.String()).Msg("swap failed")
		w.fail(attempt, classified)
		return attempt
	}

	attempt.FinishedAt = time.Now()
	w.transition(attempt, types.StatusSuccess)
	log.Info().Str("hash", attempt.TxHash).Int("polls", attempt.Polls).Msg("swap confirmed")
	return attempt
}

func (w *Workflow) execute(ctx context.Context, attempt *types.SwapAttempt, log zerolog.Logger) error {
	req := attempt.Request
	if req.Address == "" {
		return types.Errorf(types.NotConnected, "connect a wallet first")
	}

	amount, err := parseAmount(req.AmountIn)
	if err != nil {
		return err
	}

	w.transition(attempt, types.StatusPending)

	account, err := w.accounts.LoadAccount(ctx, req.Address)
	if err != nil {
		if errors.Is(err, client.ErrAccountNotFound) {
			return types.NewError(types.AccountLoadFailed, client.ErrAccountNotFound.Error(), err)
		}
		return types.NewError(types.AccountLoadFailed, fmt.Sprintf("failed to load account: %v", err), err)
	}

	units := amount.Truncate(0)
	if !units.Equal(amount) {
		log.Warn().Str("amount", req.AmountIn).Str("submitted", units.String()).
			Msg("fractional amount truncated before submission")
	}

	rate := w.table.RateOrPar(req.From, req.To)
	args, err := contract.SwapArgs(req.Address, units.IntPart(), rate.Num, rate.Den)
	if err != nil {
		return fmt.Errorf("failed to build swap arguments: %w", err)
	}

	call := contract.Call{
		Source:   account.ID,
		Sequence: account.Sequence,
		Function: contract.FnSwap,
		Args:     args,
	}
	unsigned, err := w.builder.Build(call)
	if err != nil {
		return fmt.Errorf("failed to build transaction: %w", err)
	}

	sim, err := w.rpc.SimulateTransaction(ctx, unsigned.Envelope)
	if err != nil {
		return types.NewError(types.SimulationFailed, fmt.Sprintf("simulation failed: %v", err), err)
	}
	if sim.Failed() {
		return types.Errorf(types.SimulationFailed, "simulation failed: %s", sim.Error)
	}

	fp := contract.Footprint{
		TransactionData: sim.TransactionData,
		MinResourceFee:  sim.MinResourceFee,
	}
	if len(sim.Results) > 0 {
		fp.Auth = sim.Results[0].Auth
	}
	assembled, err := w.builder.Assemble(call, fp)
	if err != nil {
		return types.NewError(types.SimulationFailed, fmt.Sprintf("could not assemble transaction: %v", err), err)
	}
	log.Debug().Int64("fee", assembled.Fee).Str("hash", assembled.Hash).Msg("transaction assembled")

	signed, err := w.signer.SignTransaction(ctx, assembled.Envelope, wallet.SignOptions{
		NetworkPassphrase: w.builder.NetworkPassphrase,
		Address:           req.Address,
	})
	if err != nil {
		var typed *types.Error
		if errors.As(err, &typed) {
			return typed
		}
		return types.NewError(types.SigningRejected, fmt.Sprintf("signing failed: %v", err), err)
	}

	sent, err := w.rpc.SendTransaction(ctx, signed)
	if err != nil {
		return types.NewError(types.SubmissionRejected, fmt.Sprintf("submission failed: %v", err), err)
	}
	switch sent.Status {
	case client.SendStatusError:
		msg := "transaction rejected by the network"
		if sent.ErrorResultXDR != "" {
			msg = fmt.Sprintf("%s (result %s)", msg, sent.ErrorResultXDR)
		}
		return types.Errorf(types.SubmissionRejected, "%s", msg)
	case client.SendStatusTryAgainLater:
		return types.Errorf(types.SubmissionRejected, "network is busy, try again later")
	}

	attempt.TxHash = sent.Hash
	log.Info().Str("hash", sent.Hash).Str("status", sent.Status).Msg("transaction submitted")

	return w.awaitFinality(ctx, attempt, log)
}

// awaitFinality polls getTransaction until the network reports a terminal status
func (w *Workflow) awaitFinality(ctx context.Context, attempt *types.SwapAttempt, log zerolog.Logger) error {
	timer := time.NewTimer(w.pollInterval)
	defer timer.Stop()

	for attempt.Polls < w.maxPolls {
		select {
		case <-ctx.Done():
			return types.NewError(types.UnknownFailure, "finality wait abandoned", ctx.Err())
		case <-timer.C:
		}

		attempt.Polls++
		w.metrics.IncFinalityPolls()

		res, err := w.rpc.GetTransaction(ctx, attempt.TxHash)
		if err != nil {
			if ctx.Err() != nil {
				return types.NewError(types.UnknownFailure, "finality wait abandoned", ctx.Err())
			}
			return types.NewError(types.UnknownFailure, fmt.Sprintf("failed to poll transaction: %v", err), err)
		}

		if res.Pending() {
			log.Debug().Int("poll", attempt.Polls).Str("status", res.Status).Msg("transaction not final yet")
			timer.Reset(w.pollInterval)
			continue
		}

		if res.Status == client.TxStatusSuccess {
			return nil
		}
		return types.Errorf(types.OnChainFailure, "transaction failed with status %s", res.Status)
	}

	return types.Errorf(types.FinalityTimeout,
		"transaction %s not final after %d polls", attempt.TxHash, w.maxPolls)
}

func (w *Workflow) transition(attempt *types.SwapAttempt, status types.SwapStatus) {
	attempt.Status = status
	if w.observer != nil {
		w.observer(*attempt)
	}
}

func (w *Workflow) fail(attempt *types.SwapAttempt, err *types.Error) {
	attempt.Err = err
	attempt.FinishedAt = time.Now()
	w.transition(attempt, types.StatusFail)
}

// parseAmount accepts a finite decimal greater than zero
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, types.Errorf(types.InvalidAmount, "enter an amount to swap")
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, types.Errorf(types.InvalidAmount, "'%s' is not a valid amount", s)
	}
	if !amount.IsPositive() {
		return decimal.Zero, types.Errorf(types.InvalidAmount, "amount must be greater than zero")
	}
	if amount.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return decimal.Zero, types.Errorf(types.InvalidAmount, "amount is too large")
	}
	return amount, nil
}

func classify(err error) *types.Error {
	var typed *types.Error
	if errors.As(err, &typed) {
		return typed
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return types.NewError(types.UnknownFailure, "swap abandoned", err)
	}
	return types.NewError(types.UnknownFailure, err.Error(), err)
}
