package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "notes"

// Cycle results.
const (
	ResultSuccess   = "success"
	ResultTransient = "transient"
	ResultAuth      = "auth_required"
	ResultError     = "error"
)

// SyncMetrics are the collectors updated by the sync coordinator.
type SyncMetrics struct {
	cycles     *prometheus.CounterVec
	duration   prometheus.Histogram
	pushed     prometheus.Counter
	pulled     prometheus.Counter
	conflicts  *prometheus.CounterVec
	queueDepth prometheus.Gauge
	backoff    prometheus.Gauge
	online     prometheus.Gauge
}

func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	factory := promauto.With(reg)

	return &SyncMetrics{
		cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "cycles_total",
			Help:      "Finished sync cycles by result.",
		}, []string{"result"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of sync cycles.",
			Buckets:   prometheus.DefBuckets,
		}),
		pushed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "pushed_notes_total",
			Help:      "Mutations confirmed by the remote store.",
		}),
		pulled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "pulled_notes_total",
			Help:      "Remote records folded into the local store by pulls.",
		}),
		conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "conflicts_total",
			Help:      "Mutations not applied as written, by reason.",
		}, []string{"reason"}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "queue_depth",
			Help:      "Pending entries in the mutation queue.",
		}),
		backoff: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "backoff_seconds",
			Help:      "Current retry delay.",
		}),
		online: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "online",
			Help:      "1 when the remote store is reachable.",
		}),
	}
}

func (m *SyncMetrics) CycleFinished(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(result).Inc()
	m.duration.Observe(took.Seconds())
}

func (m *SyncMetrics) Pushed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.pushed.Add(float64(n))
}

func (m *SyncMetrics) Pulled(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.pulled.Add(float64(n))
}

func (m *SyncMetrics) Conflict(reason string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(reason).Inc()
}

func (m *SyncMetrics) QueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *SyncMetrics) Backoff(d time.Duration) {
	if m == nil {
		return
	}
	m.backoff.Set(d.Seconds())
}

func (m *SyncMetrics) Online(online bool) {
	if m == nil {
		return
	}
	if online {
		m.online.Set(1)
		return
	}
	m.online.Set(0)
}
