package reminders

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Metrics exposes Prometheus collectors for reminder evaluation.
type Metrics struct {
	evaluationDuration *prometheus.HistogramVec
	remindersByStatus  *prometheus.GaugeVec
	pairsEvaluated     prometheus.Counter
	schedulesSkipped   *prometheus.CounterVec
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// DefaultMetrics returns the metrics registered with the global registry.
// Collectors are created once so several engines can share them.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics registers the collectors with reg and panics on conflicts.
// Tests should pass a fresh prometheus.NewRegistry().
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fleet",
				Subsystem: "reminders",
				Name:      "evaluation_duration_seconds",
				Help:      "Time spent computing the reminder set for one query.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		remindersByStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "fleet",
				Subsystem: "reminders",
				Name:      "current",
				Help:      "Reminders in the most recent full evaluation, by status.",
			},
			[]string{"status"},
		),
		pairsEvaluated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "fleet",
				Subsystem: "reminders",
				Name:      "pairs_evaluated_total",
				Help:      "Vehicle and schedule pairs run through the reminder pipeline.",
			},
		),
		schedulesSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fleet",
				Subsystem: "reminders",
				Name:      "schedules_skipped_total",
				Help:      "Schedules or pairs excluded from evaluation.",
			},
			[]string{"reason"},
		),
	}
	reg.MustRegister(m.evaluationDuration, m.remindersByStatus, m.pairsEvaluated, m.schedulesSkipped)
	return m
}

func (m *Metrics) observeEvaluation(start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.evaluationDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

func (m *Metrics) addPairs(n int) {
	if m == nil {
		return
	}
	m.pairsEvaluated.Add(float64(n))
}

func (m *Metrics) skipped(reason string) {
	if m == nil {
		return
	}
	m.schedulesSkipped.WithLabelValues(reason).Inc()
}

// RecordSummary publishes the status counts of a full evaluation.
func (m *Metrics) RecordSummary(s Summary) {
	if m == nil {
		return
	}
	for _, status := range []models.ReminderStatus{models.StatusUpcoming, models.StatusDueSoon, models.StatusOverdue} {
		m.remindersByStatus.WithLabelValues(string(status)).Set(float64(s.ByStatus[status]))
	}
}
