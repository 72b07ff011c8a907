package swap

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"stellar-swap/pkg/contract"
)

// CounterReader reads the per-user swap counter through a simulation
type CounterReader struct {
	accounts AccountLoader
	sim      Simulator
	builder  *contract.Builder
}

// NewCounterReader creates a new counter reader
func NewCounterReader(accounts AccountLoader, sim Simulator, builder *contract.Builder) *CounterReader {
	return &CounterReader{
		accounts: accounts,
		sim:      sim,
		builder:  builder,
	}
}

// ReadCount returns how many swaps the contract has recorded for address.
// The get_count call is simulated only, never submitted.
func (r *CounterReader) ReadCount(ctx context.Context, address string) (uint64, error) {
	account, err := r.accounts.LoadAccount(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("failed to load account: %w", err)
	}

	args, err := contract.CountArgs(address)
	if err != nil {
		return 0, err
	}

	inv, err := r.builder.Build(contract.Call{
		Source:   account.ID,
		Sequence: account.Sequence,
		Function: contract.FnGetCount,
		Args:     args,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to build get_count: %w", err)
	}

	res, err := r.sim.SimulateTransaction(ctx, inv.Envelope)
	if err != nil {
		return 0, fmt.Errorf("failed to simulate get_count: %w", err)
	}
	if res.Failed() {
		return 0, fmt.Errorf("get_count simulation failed: %s", res.Error)
	}

	value, err := res.ReturnValue()
	if err != nil {
		return 0, err
	}
	return contract.DecodeUint(value)
}

// Counter caches the last successfully read count for display
type Counter struct {
	reader *CounterReader
	logger zerolog.Logger

	mu      sync.RWMutex
	address string
	value   uint64
	loaded  bool
}

// NewCounter creates a counter view
func NewCounter(reader *CounterReader, logger zerolog.Logger) *Counter {
	return &Counter{
		reader: reader,
		logger: logger,
	}
}

// Refresh re-reads the count for address. A failed read is logged and the
// previous value is kept.
func (c *Counter) Refresh(ctx context.Context, address string) bool {
	if address == "" {
		return false
	}

	count, err := c.reader.ReadCount(ctx, address)
	if err != nil {
		c.logger.Warn().Err(err).Str("address", address).Msg("failed to read swap count")
		return false
	}

	c.mu.Lock()
	c.address = address
	c.value = count
	c.loaded = true
	c.mu.Unlock()
	return true
}

// Value returns the cached count and whether one has been read
func (c *Counter) Value() (uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.loaded
}

// Address returns the address the cached count belongs to
func (c *Counter) Address() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.address
}
