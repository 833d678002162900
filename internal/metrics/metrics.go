// Package metrics exposes the controller's Prometheus counters/gauges,
// following marmos91-dittofs's per-subsystem metrics struct shape
// (internal/protocol/nfs/rpc/gss.GSSMetrics): a singleton registered
// once, with nil-receiver methods so metrics stay zero-overhead when
// the caller never constructs one.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks controller-wide Prometheus series.
//
//   - Transitions counts completed state transitions by destination state.
//   - TimerFires counts timer expiries by name.
//   - DispatchQueueDepth gauges the Signal Registry's deferred-write queue.
//   - AmbiguousGuards counts AmbiguousGuard faults by state.
//   - Faults counts every fault by kind.
type Metrics struct {
	Transitions        *prometheus.CounterVec
	TimerFires         *prometheus.CounterVec
	DispatchQueueDepth prometheus.Gauge
	AmbiguousGuards    *prometheus.CounterVec
	Faults             *prometheus.CounterVec
}

var (
	once     sync.Once
	instance *Metrics
)

// New registers and returns the controller's metrics. If registerer is
// nil, prometheus.DefaultRegisterer is used. Idempotent: later calls
// return the same instance regardless of registerer.
func New(registerer prometheus.Registerer) *Metrics {
	once.Do(func() {
		if registerer == nil {
			registerer = prometheus.DefaultRegisterer
		}
		m := &Metrics{
			Transitions: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "e84ctl_transitions_total",
					Help: "Total completed state transitions by destination state",
				},
				[]string{"to"},
			),
			TimerFires: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "e84ctl_timer_fires_total",
					Help: "Total timer expiries by name",
				},
				[]string{"timer"},
			),
			DispatchQueueDepth: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "e84ctl_dispatch_queue_depth",
					Help: "Current depth of the Signal Registry's deferred-write queue",
				},
			),
			AmbiguousGuards: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "e84ctl_ambiguous_guards_total",
					Help: "Total AmbiguousGuard detections by state",
				},
				[]string{"state"},
			),
			Faults: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "e84ctl_faults_total",
					Help: "Total fault events by kind",
				},
				[]string{"kind"},
			),
		}
		registerer.MustRegister(m.Transitions, m.TimerFires, m.DispatchQueueDepth, m.AmbiguousGuards, m.Faults)
		instance = m
	})
	return instance
}

// RecordTransition records a completed transition to state `to`.
func (m *Metrics) RecordTransition(to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(to).Inc()
}

// RecordTimerFire records a timer expiry.
func (m *Metrics) RecordTimerFire(name string) {
	if m == nil {
		return
	}
	m.TimerFires.WithLabelValues(name).Inc()
}

// SetDispatchQueueDepth updates the deferred-write queue gauge.
func (m *Metrics) SetDispatchQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.DispatchQueueDepth.Set(float64(depth))
}

// RecordAmbiguousGuard records an AmbiguousGuard detection in state.
func (m *Metrics) RecordAmbiguousGuard(state string) {
	if m == nil {
		return
	}
	m.AmbiguousGuards.WithLabelValues(state).Inc()
}

// RecordFault records a fault of the given kind.
func (m *Metrics) RecordFault(kind string) {
	if m == nil {
		return
	}
	m.Faults.WithLabelValues(kind).Inc()
}
