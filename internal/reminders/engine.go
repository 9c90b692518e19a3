package reminders

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Source is the read-only persistence collaborator. Each method is one bulk
// read; the engine never fetches per pair.
type Source interface {
	ListVehicles(ctx context.Context) ([]models.Vehicle, error)
	// ListActiveSchedules returns active schedules with their program and
	// tasks loaded.
	ListActiveSchedules(ctx context.Context) ([]models.ScheduleDetail, error)
	ListEnrollments(ctx context.Context) ([]models.ProgramEnrollment, error)
}

// Engine computes service reminders on demand. It holds no state between
// calls.
type Engine struct {
	source  Source
	logger  *log.Logger
	metrics *Metrics
	now     func() time.Time
	workers int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger used for skipped schedules.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithWorkers bounds the evaluation fan-out.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewEngine creates an engine reading from source.
func NewEngine(source Source, opts ...Option) *Engine {
	e := &Engine{
		source:  source,
		logger:  log.StandardLogger(),
		now:     time.Now,
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Summary counts the current reminders by status and priority.
type Summary struct {
	Total       int                           `json:"total"`
	ByStatus    map[models.ReminderStatus]int `json:"by_status"`
	ByPriority  map[models.Priority]int       `json:"by_priority"`
	EvaluatedAt time.Time                     `json:"evaluated_at"`
}

// Query validates params, evaluates every eligible pair and returns the
// requested page of the filtered, sorted result.
func (e *Engine) Query(ctx context.Context, params QueryParams) (*models.Page[models.ServiceReminder], error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	all, _, err := e.Evaluate(ctx)
	if err != nil {
		return nil, err
	}

	filtered := Filter(all, params)
	Sort(filtered, params.SortBy, params.SortDescending)
	page := models.NewPage(filtered, params.PageNumber, params.PageSize)
	return &page, nil
}

// Summary evaluates every pair and counts the results.
func (e *Engine) Summary(ctx context.Context) (*Summary, error) {
	all, now, err := e.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	s := Summary{
		Total:       len(all),
		ByStatus:    map[models.ReminderStatus]int{},
		ByPriority:  map[models.Priority]int{},
		EvaluatedAt: now,
	}
	for _, r := range all {
		s.ByStatus[r.Status]++
		s.ByPriority[r.Priority]++
	}
	e.metrics.RecordSummary(s)
	return &s, nil
}

type pair struct {
	vehicle models.Vehicle
	detail  *models.ScheduleDetail
	anchor  time.Time
}

// Evaluate computes every current reminder, unfiltered and unsorted, together
// with the instant they were evaluated against.
func (e *Engine) Evaluate(ctx context.Context) (out []models.ServiceReminder, now time.Time, err error) {
	start := time.Now()
	defer func() { e.metrics.observeEvaluation(start, err) }()

	// One snapshot of now for every pair in this evaluation.
	now = e.now()

	vehicles, schedules, enrollments, err := e.load(ctx)
	if err != nil {
		return nil, now, err
	}

	pairs := e.pairs(vehicles, schedules, enrollments)
	e.metrics.addPairs(len(pairs))

	results := make([]*models.ServiceReminder, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, p := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := Evaluate(p.vehicle, *p.detail, p.anchor, now)
			if err != nil {
				if errors.Is(err, models.ErrInvalidConfiguration) {
					e.logger.WithError(err).WithFields(log.Fields{
						"vehicle_id":  p.vehicle.ID.Hex(),
						"schedule_id": p.detail.Schedule.ID.Hex(),
					}).Warn("Skipping reminder for invalid schedule")
					e.metrics.skipped("projection")
					return nil
				}
				return err
			}
			results[i] = &r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, now, err
	}
	// A cancellation after the last worker finished still aborts the query.
	if err := ctx.Err(); err != nil {
		return nil, now, err
	}

	out = make([]models.ServiceReminder, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, now, nil
}

func (e *Engine) load(ctx context.Context) ([]models.Vehicle, []models.ScheduleDetail, []models.ProgramEnrollment, error) {
	var (
		vehicles    []models.Vehicle
		schedules   []models.ScheduleDetail
		enrollments []models.ProgramEnrollment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if vehicles, err = e.source.ListVehicles(gctx); err != nil {
			return fmt.Errorf("list vehicles: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if schedules, err = e.source.ListActiveSchedules(gctx); err != nil {
			return fmt.Errorf("list schedules: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if enrollments, err = e.source.ListEnrollments(gctx); err != nil {
			return fmt.Errorf("list enrollments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return vehicles, schedules, enrollments, nil
}

type enrollmentKey struct {
	vehicle primitive.ObjectID
	program primitive.ObjectID
}

// pairs enumerates the (vehicle, schedule) pairs eligible for reminders:
// the vehicle is enrolled in the schedule's program and both the schedule
// and the program are active.
func (e *Engine) pairs(vehicles []models.Vehicle, schedules []models.ScheduleDetail, enrollments []models.ProgramEnrollment) []pair {
	byID := make(map[primitive.ObjectID]models.Vehicle, len(vehicles))
	for _, v := range vehicles {
		byID[v.ID] = v
	}

	// Earliest enrollment wins when a vehicle was enrolled twice.
	enrolledAt := make(map[enrollmentKey]time.Time, len(enrollments))
	byProgram := make(map[primitive.ObjectID][]primitive.ObjectID)
	for _, en := range enrollments {
		key := enrollmentKey{vehicle: en.VehicleID, program: en.ProgramID}
		prev, seen := enrolledAt[key]
		if !seen {
			byProgram[en.ProgramID] = append(byProgram[en.ProgramID], en.VehicleID)
		}
		if !seen || en.EnrolledAt.Before(prev) {
			enrolledAt[key] = en.EnrolledAt
		}
	}

	var out []pair
	for i := range schedules {
		d := &schedules[i]
		if !d.Schedule.IsActive || !d.Program.IsActive {
			continue
		}
		if d.Schedule.ProgramID != d.Program.ID {
			e.logger.WithField("schedule_id", d.Schedule.ID.Hex()).Warn("Schedule loaded with a foreign program, skipping")
			e.metrics.skipped("program_mismatch")
			continue
		}
		if err := d.Schedule.Validate(); err != nil {
			e.logger.WithError(err).WithField("schedule_id", d.Schedule.ID.Hex()).Warn("Skipping invalid schedule")
			e.metrics.skipped("invalid")
			continue
		}
		for _, vehicleID := range byProgram[d.Program.ID] {
			v, ok := byID[vehicleID]
			if !ok {
				continue
			}
			out = append(out, pair{
				vehicle: v,
				detail:  d,
				anchor:  Anchor(enrolledAt[enrollmentKey{vehicle: vehicleID, program: d.Program.ID}], d.Schedule.CreatedAt),
			})
		}
	}
	return out
}

// Anchor is the baseline time-based schedules count from: the later of the
// vehicle's enrollment and the schedule's creation.
func Anchor(enrolledAt, scheduleCreatedAt time.Time) time.Time {
	if scheduleCreatedAt.After(enrolledAt) {
		return scheduleCreatedAt
	}
	return enrolledAt
}
