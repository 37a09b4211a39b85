package telemetry

import (
	"time"

	"github.com/gcci/certgen/internal/application/batch"
	"github.com/prometheus/client_golang/prometheus"
)

// BatchMetrics implements batch.Observer with Prometheus collectors.
type BatchMetrics struct {
	attempts        *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	records         *prometheus.CounterVec
	recordAttempts  prometheus.Histogram
	recordDuration  prometheus.Histogram
	rejected        prometheus.Counter
	pauses          prometheus.Counter
}

// NewBatchMetrics registers the batch collectors on reg.
func NewBatchMetrics(reg prometheus.Registerer) *BatchMetrics {
	m := &BatchMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "batch",
			Name:      "attempts_total",
			Help:      "Render attempts by result (success, rejected, transport).",
		}, []string{"result"}),
		attemptDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "batch",
			Name:      "attempt_duration_seconds",
			Help:      "Duration of individual render attempts.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"result"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "batch",
			Name:      "records_total",
			Help:      "Records by terminal status.",
		}, []string{"status"}),
		recordAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "batch",
			Name:      "record_attempts",
			Help:      "Attempts used per record.",
			Buckets:   []float64{1, 2, 3, 4, 5, 10, 20, 50},
		}),
		recordDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "batch",
			Name:      "record_duration_seconds",
			Help:      "Time from first attempt to terminal outcome per record.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 12),
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "batch",
			Name:      "source_rejections_total",
			Help:      "Source rows rejected by validation.",
		}),
		pauses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "batch",
			Name:      "breaker_pauses_total",
			Help:      "Circuit breaker cool-down pauses.",
		}),
	}
	reg.MustRegister(m.attempts, m.attemptDuration, m.records, m.recordAttempts, m.recordDuration, m.rejected, m.pauses)
	return m
}

func (m *BatchMetrics) ObserveAttempt(result string, d time.Duration) {
	m.attempts.WithLabelValues(result).Inc()
	m.attemptDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (m *BatchMetrics) ObserveRecord(status string, attempts int, d time.Duration) {
	m.records.WithLabelValues(status).Inc()
	m.recordAttempts.Observe(float64(attempts))
	m.recordDuration.Observe(d.Seconds())
}

func (m *BatchMetrics) ObserveRejected(n int) {
	m.rejected.Add(float64(n))
}

func (m *BatchMetrics) ObservePause() {
	m.pauses.Inc()
}

var _ batch.Observer = (*BatchMetrics)(nil)
