// Package metrics provides Prometheus instrumentation for the swap client.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name
const DefaultNamespace = "stellar_swap"

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Swap workflow
	SwapAttempts  *prometheus.CounterVec
	SwapDuration  prometheus.Histogram
	FinalityPolls prometheus.Counter

	// Network
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec

	// Event poller
	EventPollCycles *prometheus.CounterVec
	EventsDisplayed prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New registers all collectors on reg. A nil reg uses a fresh registry.
func New(namespace string, reg *prometheus.Registry) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		SwapAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "attempts_total",
			Help:      "Swap attempts by outcome (success or failure kind)",
		}, []string{"outcome"}),
		SwapDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "duration_seconds",
			Help:      "Time from pending to a terminal status",
			Buckets:   []float64{1, 2, 5, 10, 20, 40, 60, 120},
		}),
		FinalityPolls: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "finality_polls_total",
			Help:      "getTransaction polls issued while waiting for finality",
		}),
		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "Soroban RPC call latency by method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "call_errors_total",
			Help:      "Soroban RPC calls that returned an error",
		}, []string{"method"}),
		EventPollCycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "poll_cycles_total",
			Help:      "Event poll cycles by result (updated, empty, error)",
		}, []string{"result"}),
		EventsDisplayed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "displayed",
			Help:      "Number of events in the current display list",
		}),
		gatherer: reg,
	}
}

// ObserveSwap records a finished attempt
func (m *Metrics) ObserveSwap(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SwapAttempts.WithLabelValues(outcome).Inc()
	m.SwapDuration.Observe(elapsed.Seconds())
}

// IncFinalityPolls counts one getTransaction poll
func (m *Metrics) IncFinalityPolls() {
	if m == nil {
		return
	}
	m.FinalityPolls.Inc()
}

// ObserveRPC records one RPC call
func (m *Metrics) ObserveRPC(method string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.RPCCallLatency.WithLabelValues(method).Observe(elapsed.Seconds())
	if err != nil {
		m.RPCCallErrors.WithLabelValues(method).Inc()
	}
}

// ObserveEventPoll records one poller cycle
func (m *Metrics) ObserveEventPoll(result string, displayed int) {
	if m == nil {
		return
	}
	m.EventPollCycles.WithLabelValues(result).Inc()
	m.EventsDisplayed.Set(float64(displayed))
}

// Handler exposes the registry over HTTP
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
