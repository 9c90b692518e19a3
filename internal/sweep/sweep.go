// Package sweep periodically evaluates every reminder and reports the
// counts. It delivers no notifications.
package sweep

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/reminders"
)

// Summarizer evaluates the full reminder set.
type Summarizer interface {
	Summary(ctx context.Context) (*reminders.Summary, error)
}

type metrics struct {
	runs        *prometheus.CounterVec
	lastSuccess prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fleet",
			Subsystem: "sweep",
			Name:      "runs_total",
			Help:      "Reminder sweeps by outcome.",
		}, []string{"outcome"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fleet",
			Subsystem: "sweep",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful sweep.",
		}),
	}
	reg.MustRegister(m.runs, m.lastSuccess)
	return m
}

// Sweeper runs the reminder sweep on a cron schedule.
type Sweeper struct {
	cron    *cron.Cron
	engine  Summarizer
	timeout time.Duration
	metrics *metrics

	mu   sync.RWMutex
	last *reminders.Summary

	stopOnce sync.Once
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithTimeout bounds a single sweep.
func WithTimeout(d time.Duration) Option {
	return func(s *Sweeper) { s.timeout = d }
}

// WithRegisterer records sweep metrics in reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *Sweeper) { s.metrics = newMetrics(reg) }
}

// New creates a sweeper that runs at spec (standard five-field cron or a
// descriptor such as "@every 15m") in loc.
func New(engine Summarizer, spec string, loc *time.Location, opts ...Option) (*Sweeper, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Sweeper{
		engine:  engine,
		timeout: 2 * time.Minute,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log.StandardLogger()))),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := s.cron.AddFunc(spec, func() { _, _ = s.Run(context.Background()) }); err != nil {
		return nil, fmt.Errorf("add sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the schedule until ctx is done.
func (s *Sweeper) Start(ctx context.Context) {
	s.cron.Start()
	log.Info("Reminder sweep started")
	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop waits for a running sweep to finish. Safe to call multiple times.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		stopCtx := s.cron.Stop()
		<-stopCtx.Done()
		log.Info("Reminder sweep stopped")
	})
}

// Run performs one sweep.
func (s *Sweeper) Run(ctx context.Context) (*reminders.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	summary, err := s.engine.Summary(ctx)
	if err != nil {
		s.observe("error")
		log.WithError(err).Error("Reminder sweep failed")
		return nil, err
	}
	s.observe("ok")
	if s.metrics != nil {
		s.metrics.lastSuccess.Set(float64(summary.EvaluatedAt.Unix()))
	}

	s.mu.Lock()
	s.last = summary
	s.mu.Unlock()

	entry := log.WithFields(log.Fields{
		"total":       summary.Total,
		"overdue":     summary.ByStatus[models.StatusOverdue],
		"due_soon":    summary.ByStatus[models.StatusDueSoon],
		"upcoming":    summary.ByStatus[models.StatusUpcoming],
		"critical":    summary.ByPriority[models.PriorityCritical],
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if summary.ByPriority[models.PriorityCritical] > 0 {
		entry.Warn("Reminder sweep found critical reminders")
	} else {
		entry.Info("Reminder sweep completed")
	}
	return summary, nil
}

func (s *Sweeper) observe(outcome string) {
	if s.metrics == nil {
		return
	}
	s.metrics.runs.WithLabelValues(outcome).Inc()
}

// Last returns the most recent successful sweep, or nil before the first.
func (s *Sweeper) Last() *reminders.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}
