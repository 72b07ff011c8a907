// Package events polls the network for recent swap contract events.
package events

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"stellar-swap/pkg/client"
	"stellar-swap/pkg/contract"
	"stellar-swap/pkg/metrics"
	"stellar-swap/pkg/types"
)

const (
	DefaultInterval = 5 * time.Second // Time between poll cycles
	DefaultWindow   = 5               // Ledgers to look back from the latest
	DefaultLimit    = 5               // Maximum events per poll
)

// Source is the part of the Soroban RPC the poller reads from
type Source interface {
	GetLatestLedger(ctx context.Context) (*client.LatestLedgerResult, error)
	GetEvents(ctx context.Context, req client.EventsRequest) (*client.EventsResult, error)
}

// Config holds poller settings
type Config struct {
	ContractID string
	Interval   time.Duration
	Window     uint32
	Limit      int
}

// Poller keeps the most recent non-empty list of contract events
type Poller struct {
	source  Source
	config  Config
	logger  zerolog.Logger
	metrics *metrics.Metrics

	mu       sync.RWMutex
	events   []types.ContractEvent
	onUpdate func([]types.ContractEvent)

	started atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPoller creates a new event poller
func NewPoller(source Source, cfg Config, logger zerolog.Logger, m *metrics.Metrics) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Window == 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	return &Poller{
		source:  source,
		config:  cfg,
		logger:  logger,
		metrics: m,
	}
}

// OnUpdate registers a callback invoked with the new list after each change
func (p *Poller) OnUpdate(fn func([]types.ContractEvent)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onUpdate = fn
}

// Events returns a copy of the current list, most recent first
func (p *Poller) Events() []types.ContractEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]types.ContractEvent, len(p.events))
	copy(out, p.events)
	return out
}

// Poll runs one cycle and reports whether the list was replaced.
// Errors and empty results leave the current list untouched.
func (p *Poller) Poll(ctx context.Context) bool {
	latest, err := p.source.GetLatestLedger(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to fetch latest ledger")
		p.metrics.ObserveEventPoll("error", len(p.Events()))
		return false
	}

	start := uint32(1)
	if latest.Sequence > p.config.Window {
		start = latest.Sequence - p.config.Window
	}

	res, err := p.source.GetEvents(ctx, client.EventsRequest{
		StartLedger: start,
		Filters: []client.EventFilter{{
			Type:        "contract",
			ContractIDs: []string{p.config.ContractID},
		}},
		Limit: p.config.Limit,
	})
	if err != nil {
		p.logger.Warn().Err(err).Uint32("start_ledger", start).Msg("failed to fetch events")
		p.metrics.ObserveEventPoll("error", len(p.Events()))
		return false
	}

	if len(res.Events) == 0 {
		p.logger.Debug().Uint32("start_ledger", start).Msg("no new events")
		p.metrics.ObserveEventPoll("empty", len(p.Events()))
		return false
	}

	list := make([]types.ContractEvent, 0, len(res.Events))
	for _, ev := range res.Events {
		list = append(list, p.convert(ev))
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Ledger != list[j].Ledger {
			return list[i].Ledger > list[j].Ledger
		}
		return list[i].ID > list[j].ID
	})

	p.mu.Lock()
	p.events = list
	onUpdate := p.onUpdate
	p.mu.Unlock()

	p.metrics.ObserveEventPoll("updated", len(list))
	if onUpdate != nil {
		onUpdate(p.Events())
	}
	return true
}

// Start polls immediately and then on every interval until ctx ends or Stop is called
func (p *Poller) Start(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return fmt.Errorf("event poller is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx)
	}()

	p.logger.Info().Str("contract", p.config.ContractID).Dur("interval", p.config.Interval).Msg("event poller started")
	return nil
}

// Stop cancels the poll loop and waits for it to exit
func (p *Poller) Stop() {
	if !p.started.CompareAndSwap(true, false) {
		return
	}
	p.cancel()
	p.wg.Wait()
	p.logger.Info().Msg("event poller stopped")
}

func (p *Poller) run(ctx context.Context) {
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

func (p *Poller) convert(ev client.Event) types.ContractEvent {
	out := types.ContractEvent{
		ID:     ev.ID,
		Ledger: ev.Ledger,
		Type:   ev.Type,
		Value:  ev.Value,
	}
	if n, err := contract.DecodeUint(ev.Value); err == nil {
		out.Value = strconv.FormatUint(n, 10)
	}
	if closed, err := time.Parse(time.RFC3339, ev.LedgerClosedAt); err == nil {
		out.ClosedAt = closed
	}
	for i, topic := range ev.Topic {
		sym, err := contract.DecodeSymbol(topic)
		if err != nil {
			out.Topics = append(out.Topics, topic)
			continue
		}
		// The first symbol topic names the event
		if i == 0 {
			out.Type = sym
		}
		out.Topics = append(out.Topics, sym)
	}
	return out
}
