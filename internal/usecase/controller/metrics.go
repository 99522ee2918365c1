package controller

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for dispatch and session lifecycle.
type Metrics struct {
	actions        *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	restarts       prometheus.Counter
	launchFailures prometheus.Counter
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// DefaultMetrics returns the instance registered with the global registry.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics registers the collectors with reg, reusing ones that are
// already there. Any other registration error panics.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	actions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "browser_pilot",
			Subsystem: "controller",
			Name:      "actions_total",
			Help:      "Dispatched actions by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "browser_pilot",
			Subsystem: "controller",
			Name:      "action_duration_seconds",
			Help:      "Time spent executing one action, session start included.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	restarts := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "browser_pilot",
			Subsystem: "controller",
			Name:      "session_restarts_total",
			Help:      "Sessions started after a crash was detected.",
		},
	)
	launchFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "browser_pilot",
			Subsystem: "controller",
			Name:      "launch_failures_total",
			Help:      "Browser launches that failed.",
		},
	)

	collectors := []prometheus.Collector{actions, duration, restarts, launchFailures}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			already, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				panic(err)
			}
			switch collector {
			case actions:
				actions = already.ExistingCollector.(*prometheus.CounterVec)
			case duration:
				duration = already.ExistingCollector.(*prometheus.HistogramVec)
			case restarts:
				restarts = already.ExistingCollector.(prometheus.Counter)
			case launchFailures:
				launchFailures = already.ExistingCollector.(prometheus.Counter)
			}
		}
	}

	return &Metrics{
		actions:        actions,
		duration:       duration,
		restarts:       restarts,
		launchFailures: launchFailures,
	}
}

func (m *Metrics) observeAction(kind string, success bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.actions.WithLabelValues(kind, outcome).Inc()
	m.duration.WithLabelValues(kind).Observe(d.Seconds())
}

func (m *Metrics) incRestart() {
	if m == nil {
		return
	}
	m.restarts.Inc()
}

func (m *Metrics) incLaunchFailure() {
	if m == nil {
		return
	}
	m.launchFailures.Inc()
}
