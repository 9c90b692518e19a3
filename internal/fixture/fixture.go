// Package fixture loads a maintenance data set from YAML. It backs the CLI
// and tests where no database is available.
package fixture

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gopkg.in/yaml.v3"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:fleet-maintenance:fixture"))

// File is the YAML document layout. Records refer to each other by key.
type File struct {
	Now         *time.Time   `yaml:"now"`
	Vehicles    []Vehicle    `yaml:"vehicles"`
	Programs    []Program    `yaml:"programs"`
	Tasks       []Task       `yaml:"tasks"`
	Schedules   []Schedule   `yaml:"schedules"`
	Enrollments []Enrollment `yaml:"enrollments"`
}

type Vehicle struct {
	Key            string `yaml:"key"`
	models.Vehicle `yaml:",inline"`
}

type Program struct {
	Key                   string `yaml:"key"`
	models.ServiceProgram `yaml:",inline"`
}

type Task struct {
	Key                string `yaml:"key"`
	models.ServiceTask `yaml:",inline"`
}

type Schedule struct {
	Key                 string               `yaml:"key"`
	Program             string               `yaml:"program"`
	Name                string               `yaml:"name"`
	Active              *bool                `yaml:"active"`
	TimeInterval        *models.TimeInterval `yaml:"time_interval"`
	TimeBuffer          *models.TimeInterval `yaml:"time_buffer"`
	MileageInterval     *float64             `yaml:"mileage_interval"`
	MileageBuffer       *float64             `yaml:"mileage_buffer"`
	FirstServiceDate    *time.Time           `yaml:"first_service_date"`
	FirstServiceMileage *float64             `yaml:"first_service_mileage"`
	Tasks               []string             `yaml:"tasks"`
	CreatedAt           time.Time            `yaml:"created_at"`
}

type Enrollment struct {
	Vehicle    string    `yaml:"vehicle"`
	Program    string    `yaml:"program"`
	EnrolledAt time.Time `yaml:"enrolled_at"`
}

// Source serves a resolved fixture. It implements reminders.Source.
type Source struct {
	now         *time.Time
	vehicles    []models.Vehicle
	programs    []models.ServiceProgram
	tasks       []models.ServiceTask
	schedules   []models.ScheduleDetail
	enrollments []models.ProgramEnrollment
}

// ID derives the stable ObjectID of a fixture record, so reminder IDs stay
// the same across runs.
func ID(kind, key string) primitive.ObjectID {
	u := uuid.NewSHA1(idNamespace, []byte(kind+":"+key))
	var id primitive.ObjectID
	copy(id[:], u[:len(id)])
	return id
}

// Load reads and resolves the fixture at path.
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(data)
}

// Parse resolves a YAML fixture document.
func Parse(data []byte) (*Source, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return f.Resolve()
}

// Resolve assigns IDs and replaces keys with references. Schedules are not
// validated here; the engine reports and skips invalid ones.
func (f File) Resolve() (*Source, error) {
	s := &Source{now: f.Now}

	vehicleIDs := map[string]primitive.ObjectID{}
	for _, v := range f.Vehicles {
		if err := claim(vehicleIDs, "vehicle", v.Key); err != nil {
			return nil, err
		}
		vehicle := v.Vehicle
		vehicle.ID = vehicleIDs[v.Key]
		s.vehicles = append(s.vehicles, vehicle)
	}

	programs := map[string]models.ServiceProgram{}
	programIDs := map[string]primitive.ObjectID{}
	for _, p := range f.Programs {
		if err := claim(programIDs, "program", p.Key); err != nil {
			return nil, err
		}
		program := p.ServiceProgram
		program.ID = programIDs[p.Key]
		programs[p.Key] = program
		s.programs = append(s.programs, program)
	}

	tasks := map[string]models.ServiceTask{}
	taskIDs := map[string]primitive.ObjectID{}
	for _, t := range f.Tasks {
		if err := claim(taskIDs, "task", t.Key); err != nil {
			return nil, err
		}
		task := t.ServiceTask
		task.ID = taskIDs[t.Key]
		if task.Category == "" {
			task.Category = models.CategoryOther
		}
		if !models.IsValidCategory(task.Category) {
			return nil, fmt.Errorf("task %q: unknown category %q", t.Key, task.Category)
		}
		tasks[t.Key] = task
		s.tasks = append(s.tasks, task)
	}

	scheduleIDs := map[string]primitive.ObjectID{}
	for _, sc := range f.Schedules {
		if err := claim(scheduleIDs, "schedule", sc.Key); err != nil {
			return nil, err
		}
		program, ok := programs[sc.Program]
		if !ok {
			return nil, fmt.Errorf("schedule %q: unknown program %q", sc.Key, sc.Program)
		}
		detail := models.ScheduleDetail{
			Schedule: models.ServiceSchedule{
				ID:                  scheduleIDs[sc.Key],
				ProgramID:           program.ID,
				Name:                sc.Name,
				IsActive:            sc.Active == nil || *sc.Active,
				TimeInterval:        normalizeUnit(sc.TimeInterval),
				TimeBuffer:          normalizeUnit(sc.TimeBuffer),
				MileageInterval:     sc.MileageInterval,
				MileageBuffer:       sc.MileageBuffer,
				FirstServiceDate:    sc.FirstServiceDate,
				FirstServiceMileage: sc.FirstServiceMileage,
				CreatedAt:           sc.CreatedAt,
				UpdatedAt:           sc.CreatedAt,
			},
			Program: program,
		}
		for _, key := range sc.Tasks {
			task, ok := tasks[key]
			if !ok {
				return nil, fmt.Errorf("schedule %q: unknown task %q", sc.Key, key)
			}
			detail.Schedule.TaskIDs = append(detail.Schedule.TaskIDs, task.ID)
			detail.Tasks = append(detail.Tasks, task)
		}
		s.schedules = append(s.schedules, detail)
	}

	for i, e := range f.Enrollments {
		vehicleID, ok := vehicleIDs[e.Vehicle]
		if !ok {
			return nil, fmt.Errorf("enrollment %d: unknown vehicle %q", i, e.Vehicle)
		}
		program, ok := programs[e.Program]
		if !ok {
			return nil, fmt.Errorf("enrollment %d: unknown program %q", i, e.Program)
		}
		s.enrollments = append(s.enrollments, models.ProgramEnrollment{
			VehicleID:  vehicleID,
			ProgramID:  program.ID,
			EnrolledAt: e.EnrolledAt,
		})
	}
	return s, nil
}

func claim(ids map[string]primitive.ObjectID, kind, key string) error {
	if key == "" {
		return fmt.Errorf("%s without key", kind)
	}
	if _, dup := ids[key]; dup {
		return fmt.Errorf("duplicate %s key %q", kind, key)
	}
	ids[key] = ID(kind, key)
	return nil
}

// normalizeUnit maps unit aliases such as "week" onto their canonical
// name. Unknown units are kept so validation can report them.
func normalizeUnit(iv *models.TimeInterval) *models.TimeInterval {
	if iv == nil {
		return nil
	}
	out := *iv
	if unit, err := models.ParseTimeUnit(string(iv.Unit)); err == nil {
		out.Unit = unit
	}
	return &out
}

// Now returns the evaluation time pinned by the fixture, if any.
func (s *Source) Now() (time.Time, bool) {
	if s.now == nil {
		return time.Time{}, false
	}
	return *s.now, true
}

// ListVehicles implements reminders.Source.
func (s *Source) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]models.Vehicle(nil), s.vehicles...), nil
}

// ListActiveSchedules implements reminders.Source.
func (s *Source) ListActiveSchedules(ctx context.Context) ([]models.ScheduleDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.ScheduleDetail, 0, len(s.schedules))
	for _, d := range s.schedules {
		if d.Schedule.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}

// ListEnrollments implements reminders.Source.
func (s *Source) ListEnrollments(ctx context.Context) ([]models.ProgramEnrollment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]models.ProgramEnrollment(nil), s.enrollments...), nil
}

// Programs returns the resolved service programs.
func (s *Source) Programs() []models.ServiceProgram {
	return append([]models.ServiceProgram(nil), s.programs...)
}

// Tasks returns the resolved service tasks.
func (s *Source) Tasks() []models.ServiceTask {
	return append([]models.ServiceTask(nil), s.tasks...)
}

// AllSchedules returns every schedule, including inactive ones.
func (s *Source) AllSchedules() []models.ServiceSchedule {
	out := make([]models.ServiceSchedule, 0, len(s.schedules))
	for _, d := range s.schedules {
		out = append(out, d.Schedule)
	}
	return out
}
