package reminders

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

func ptr[T any](v T) *T { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mileageSchedule(interval, buffer float64) models.ServiceSchedule {
	s := models.ServiceSchedule{
		ID:              primitive.NewObjectID(),
		Name:            "Oil change",
		IsActive:        true,
		MileageInterval: ptr(interval),
		TaskIDs:         []primitive.ObjectID{primitive.NewObjectID()},
	}
	if buffer > 0 {
		s.MileageBuffer = ptr(buffer)
	}
	return s
}

func timeSchedule(value int, unit models.TimeUnit) models.ServiceSchedule {
	return models.ServiceSchedule{
		ID:           primitive.NewObjectID(),
		Name:         "Safety inspection",
		IsActive:     true,
		TimeInterval: &models.TimeInterval{Value: value, Unit: unit},
		TaskIDs:      []primitive.ObjectID{primitive.NewObjectID()},
	}
}

// MockSource is a mock implementation of Source
type MockSource struct {
	mock.Mock
}

func (m *MockSource) ListVehicles(ctx context.Context) ([]models.Vehicle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Vehicle), args.Error(1)
}

func (m *MockSource) ListActiveSchedules(ctx context.Context) ([]models.ScheduleDetail, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ScheduleDetail), args.Error(1)
}

func (m *MockSource) ListEnrollments(ctx context.Context) ([]models.ProgramEnrollment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProgramEnrollment), args.Error(1)
}

// fleet is a small in-memory data set used by the engine tests.
type fleet struct {
	vehicles    []models.Vehicle
	schedules   []models.ScheduleDetail
	enrollments []models.ProgramEnrollment
}

func (f *fleet) source() *MockSource {
	src := new(MockSource)
	src.On("ListVehicles", mock.Anything).Return(f.vehicles, nil)
	src.On("ListActiveSchedules", mock.Anything).Return(f.schedules, nil)
	src.On("ListEnrollments", mock.Anything).Return(f.enrollments, nil)
	return src
}

func (f *fleet) addVehicle(name string, mileage float64) models.Vehicle {
	v := models.Vehicle{ID: primitive.NewObjectID(), Name: name, CurrentMileage: mileage, Status: "active"}
	f.vehicles = append(f.vehicles, v)
	return v
}

func (f *fleet) addProgram(name string, active bool) models.ServiceProgram {
	return models.ServiceProgram{ID: primitive.NewObjectID(), Name: name, IsActive: active}
}

func (f *fleet) addSchedule(p models.ServiceProgram, s models.ServiceSchedule, tasks ...models.ServiceTask) models.ServiceSchedule {
	s.ProgramID = p.ID
	s.TaskIDs = nil
	for i := range tasks {
		if tasks[i].ID.IsZero() {
			tasks[i].ID = primitive.NewObjectID()
		}
		s.TaskIDs = append(s.TaskIDs, tasks[i].ID)
	}
	f.schedules = append(f.schedules, models.ScheduleDetail{Schedule: s, Program: p, Tasks: tasks})
	return s
}

func (f *fleet) enroll(v models.Vehicle, p models.ServiceProgram, at time.Time) {
	f.enrollments = append(f.enrollments, models.ProgramEnrollment{VehicleID: v.ID, ProgramID: p.ID, EnrolledAt: at})
}

func oilTasks() []models.ServiceTask {
	return []models.ServiceTask{
		{Name: "Engine oil", Category: models.CategoryFluids, EstimatedLabourHours: 0.5, EstimatedCost: 60.1, IsRequired: true},
		{Name: "Oil filter", Category: models.CategoryFilters, EstimatedLabourHours: 0.2, EstimatedCost: 14.2},
	}
}
