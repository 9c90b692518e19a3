package db

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// MaintenanceStore reads and writes the maintenance data set. Its list
// methods are bulk reads and satisfy reminders.Source.
type MaintenanceStore struct {
	vehicles    Collection
	programs    Collection
	schedules   Collection
	tasks       Collection
	enrollments Collection
	now         func() time.Time
}

// NewMaintenanceStore creates a store over the given collections.
func NewMaintenanceStore(vehicles, programs, schedules, tasks, enrollments Collection) *MaintenanceStore {
	return &MaintenanceStore{
		vehicles:    vehicles,
		programs:    programs,
		schedules:   schedules,
		tasks:       tasks,
		enrollments: enrollments,
		now:         time.Now,
	}
}

// ListVehicles returns every vehicle.
func (s *MaintenanceStore) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	if err := findAll(ctx, s.vehicles, bson.M{}, &vehicles); err != nil {
		return nil, fmt.Errorf("find vehicles: %w", err)
	}
	return vehicles, nil
}

// ListEnrollments returns every program enrollment.
func (s *MaintenanceStore) ListEnrollments(ctx context.Context) ([]models.ProgramEnrollment, error) {
	var enrollments []models.ProgramEnrollment
	if err := findAll(ctx, s.enrollments, bson.M{}, &enrollments); err != nil {
		return nil, fmt.Errorf("find enrollments: %w", err)
	}
	return enrollments, nil
}

// ListActiveSchedules returns the active schedules joined with their program
// and tasks. It issues three queries regardless of the number of schedules.
// Schedules whose program is missing are dropped; missing tasks are omitted.
func (s *MaintenanceStore) ListActiveSchedules(ctx context.Context) ([]models.ScheduleDetail, error) {
	var schedules []models.ServiceSchedule
	if err := findAll(ctx, s.schedules, bson.M{"is_active": true}, &schedules); err != nil {
		return nil, fmt.Errorf("find schedules: %w", err)
	}
	if len(schedules) == 0 {
		return []models.ScheduleDetail{}, nil
	}

	programIDs := make([]primitive.ObjectID, 0, len(schedules))
	var taskIDs []primitive.ObjectID
	seenProgram := make(map[primitive.ObjectID]bool)
	seenTask := make(map[primitive.ObjectID]bool)
	for _, sch := range schedules {
		if !seenProgram[sch.ProgramID] {
			seenProgram[sch.ProgramID] = true
			programIDs = append(programIDs, sch.ProgramID)
		}
		for _, id := range sch.TaskIDs {
			if !seenTask[id] {
				seenTask[id] = true
				taskIDs = append(taskIDs, id)
			}
		}
	}

	var programs []models.ServiceProgram
	if err := findAll(ctx, s.programs, bson.M{"_id": bson.M{"$in": programIDs}}, &programs); err != nil {
		return nil, fmt.Errorf("find programs: %w", err)
	}
	var tasks []models.ServiceTask
	if len(taskIDs) > 0 {
		if err := findAll(ctx, s.tasks, bson.M{"_id": bson.M{"$in": taskIDs}}, &tasks); err != nil {
			return nil, fmt.Errorf("find tasks: %w", err)
		}
	}

	programByID := make(map[primitive.ObjectID]models.ServiceProgram, len(programs))
	for _, p := range programs {
		programByID[p.ID] = p
	}
	taskByID := make(map[primitive.ObjectID]models.ServiceTask, len(tasks))
	for _, t := range tasks {
		taskByID[t.ID] = t
	}

	details := make([]models.ScheduleDetail, 0, len(schedules))
	for _, sch := range schedules {
		program, ok := programByID[sch.ProgramID]
		if !ok {
			log.WithFields(log.Fields{
				"schedule_id": sch.ID.Hex(),
				"program_id":  sch.ProgramID.Hex(),
			}).Warn("Schedule references a missing program")
			continue
		}
		detail := models.ScheduleDetail{Schedule: sch, Program: program}
		for _, id := range sch.TaskIDs {
			if t, ok := taskByID[id]; ok {
				detail.Tasks = append(detail.Tasks, t)
			}
		}
		details = append(details, detail)
	}
	return details, nil
}

// CreateSchedule validates s and inserts it. The program must exist. A
// preset CreatedAt is kept so imported schedules keep their anchor.
func (s *MaintenanceStore) CreateSchedule(ctx context.Context, sch *models.ServiceSchedule) error {
	if err := sch.Validate(); err != nil {
		return err
	}
	var programs []models.ServiceProgram
	if err := findAll(ctx, s.programs, bson.M{"_id": sch.ProgramID}, &programs); err != nil {
		return fmt.Errorf("find program: %w", err)
	}
	if len(programs) == 0 {
		return fmt.Errorf("program %s: %w", sch.ProgramID.Hex(), models.ErrNotFound)
	}

	if sch.ID.IsZero() {
		sch.ID = primitive.NewObjectID()
	}
	now := s.now()
	if sch.CreatedAt.IsZero() {
		sch.CreatedAt = now
	}
	sch.UpdatedAt = now
	if err := s.schedules.InsertOne(ctx, sch); err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// InsertVehicle inserts a vehicle, assigning an ID when missing.
func (s *MaintenanceStore) InsertVehicle(ctx context.Context, v *models.Vehicle) error {
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	now := s.now()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now
	return s.vehicles.InsertOne(ctx, v)
}

// InsertProgram inserts a service program, assigning an ID when missing.
func (s *MaintenanceStore) InsertProgram(ctx context.Context, p *models.ServiceProgram) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return s.programs.InsertOne(ctx, p)
}

// InsertTask inserts a service task, assigning an ID when missing.
func (s *MaintenanceStore) InsertTask(ctx context.Context, t *models.ServiceTask) error {
	if !models.IsValidCategory(t.Category) {
		return fmt.Errorf("%w: unknown task category %q", models.ErrInvalidConfiguration, t.Category)
	}
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	return s.tasks.InsertOne(ctx, t)
}

// Enroll records that a vehicle joined a program.
func (s *MaintenanceStore) Enroll(ctx context.Context, e models.ProgramEnrollment) error {
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = s.now()
	}
	return s.enrollments.InsertOne(ctx, e)
}

// RaiseVehicleMileage sets the vehicle's current mileage to mileage unless
// the stored value is already higher. Odometers never go backwards.
func (s *MaintenanceStore) RaiseVehicleMileage(ctx context.Context, vehicleID primitive.ObjectID, mileage float64, at time.Time) error {
	if mileage < 0 {
		return fmt.Errorf("mileage cannot be negative, got %g", mileage)
	}
	matched, err := s.vehicles.UpdateOne(ctx,
		bson.M{"_id": vehicleID},
		bson.M{
			"$max": bson.M{"current_mileage": mileage, "updated_at": at},
		},
	)
	if err != nil {
		return fmt.Errorf("update vehicle mileage: %w", err)
	}
	if matched == 0 {
		return fmt.Errorf("vehicle %s: %w", vehicleID.Hex(), models.ErrNotFound)
	}
	return nil
}
