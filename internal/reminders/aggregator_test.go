package reminders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

func TestAggregate_SumsTasks(t *testing.T) {
	f := &fleet{}
	v := f.addVehicle("Van 1", 4800)
	p := f.addProgram("Light vans", true)
	tasks := []models.ServiceTask{
		{Name: "A", Category: models.CategoryFluids, EstimatedLabourHours: 0.1, EstimatedCost: 0.1},
		{Name: "B", Category: models.CategoryFluids, EstimatedLabourHours: 0.2, EstimatedCost: 0.2},
		{Name: "C", Category: models.CategoryBrakes, EstimatedLabourHours: 1.7, EstimatedCost: 99.7},
	}
	f.addSchedule(p, mileageSchedule(5000, 250), tasks...)

	r, err := Evaluate(v, f.schedules[0], time.Time{}, date(2024, 1, 1))
	require.NoError(t, err)

	assert.Equal(t, 3, r.TaskCount)
	assert.Equal(t, 100.0, r.TotalEstimatedCost)
	assert.Equal(t, 2.0, r.TotalEstimatedLabourHours)
	assert.Equal(t, "A, B, C", r.TaskNames())
	assert.Equal(t, "Light vans", r.ProgramName)
	assert.Equal(t, "Van 1", r.VehicleName)
}

func TestAggregate_RoundsTotalsToCents(t *testing.T) {
	f := &fleet{}
	v := f.addVehicle("Van 1", 0)
	p := f.addProgram("Light vans", true)
	f.addSchedule(p, mileageSchedule(5000, 0),
		models.ServiceTask{Name: "Bulbs", Category: models.CategoryElectrical, EstimatedLabourHours: 0.333, EstimatedCost: 12.345},
		models.ServiceTask{Name: "Fuses", Category: models.CategoryElectrical, EstimatedLabourHours: 0.333, EstimatedCost: 7.001},
	)

	r, err := Evaluate(v, f.schedules[0], time.Time{}, date(2024, 1, 1))
	require.NoError(t, err)

	assert.Equal(t, 19.35, r.TotalEstimatedCost)
	assert.Equal(t, 0.67, r.TotalEstimatedLabourHours)
	breakdown := r.CategoryBreakdown()
	require.Len(t, breakdown, 1)
	assert.Equal(t, r.TotalEstimatedCost, breakdown[0].TotalCost)
	assert.Equal(t, r.TotalEstimatedLabourHours, breakdown[0].TotalLabourHours)
}

func TestAggregate_NoTasks(t *testing.T) {
	v := models.Vehicle{ID: primitive.NewObjectID(), Name: "Van"}
	detail := models.ScheduleDetail{Schedule: mileageSchedule(5000, 0)}
	ev := Evaluation{
		Mileage:  &MileageOccurrence{Number: 1, DueMileage: 5000},
		Results:  []ConstraintResult{{Kind: ConstraintMileage, Occurrence: 1, Variance: -5000, Status: models.StatusUpcoming, Priority: models.PriorityLow}},
		Decisive: ConstraintResult{Kind: ConstraintMileage, Occurrence: 1, Status: models.StatusUpcoming, Priority: models.PriorityLow},
	}

	r := Aggregate(v, detail, ev)
	assert.Equal(t, 0, r.TaskCount)
	assert.Zero(t, r.TotalEstimatedCost)
	assert.Zero(t, r.AverageCostPerTask())
	assert.Zero(t, r.AverageLabourHoursPerTask())
}

func TestEvaluate_MileageExample(t *testing.T) {
	f := &fleet{}
	p := f.addProgram("Vans", true)
	f.addSchedule(p, mileageSchedule(5000, 250), oilTasks()...)

	tests := []struct {
		mileage      float64
		wantStatus   models.ReminderStatus
		wantVariance float64
	}{
		{4800, models.StatusDueSoon, -200},
		{5200, models.StatusOverdue, 200},
	}
	for _, tt := range tests {
		v := models.Vehicle{ID: primitive.NewObjectID(), Name: "Van", CurrentMileage: tt.mileage}
		r, err := Evaluate(v, f.schedules[0], time.Time{}, date(2024, 6, 1))
		require.NoError(t, err)

		require.NotNil(t, r.DueMileage)
		require.NotNil(t, r.MileageVariance)
		assert.Equal(t, 5000.0, *r.DueMileage)
		assert.Equal(t, 1, r.OccurrenceNumber)
		assert.Equal(t, tt.wantVariance, *r.MileageVariance)
		assert.Equal(t, tt.wantStatus, r.Status)
		assert.True(t, r.IsMileageBasedReminder)
		assert.False(t, r.IsTimeBasedReminder)
		assert.Nil(t, r.DueDate)
		assert.Nil(t, r.DaysUntilDue)
		assert.Equal(t, tt.mileage, r.CurrentMileage)
	}
}

func TestEvaluate_TimeExample(t *testing.T) {
	v := models.Vehicle{ID: primitive.NewObjectID(), Name: "Truck"}
	s := timeSchedule(6, models.UnitWeeks)
	detail := models.ScheduleDetail{Schedule: s, Program: models.ServiceProgram{Name: "Trucks"}}

	r, err := Evaluate(v, detail, date(2024, 1, 1), date(2024, 1, 20))
	require.NoError(t, err)

	require.NotNil(t, r.DueDate)
	require.NotNil(t, r.DaysUntilDue)
	assert.True(t, date(2024, 2, 12).Equal(*r.DueDate))
	assert.Equal(t, -23, *r.DaysUntilDue)
	assert.Equal(t, 1, r.OccurrenceNumber)
	assert.Equal(t, models.StatusUpcoming, r.Status)
	assert.True(t, r.IsTimeBasedReminder)
	assert.False(t, r.IsMileageBasedReminder)
	assert.True(t, date(2024, 1, 20).Equal(r.EvaluatedAt))
}

func TestEvaluate_DualRecurrenceTakesMostSevere(t *testing.T) {
	s := timeSchedule(4, models.UnitWeeks)
	s.MileageInterval = ptr(10000.0)
	s.MileageBuffer = ptr(500.0)
	detail := models.ScheduleDetail{Schedule: s}
	v := models.Vehicle{ID: primitive.NewObjectID(), Name: "Car", CurrentMileage: 2000}

	// Time is three days overdue, mileage is far from due.
	r, err := Evaluate(v, detail, date(2024, 1, 1), date(2024, 2, 1))
	require.NoError(t, err)

	assert.True(t, r.IsDualReminder())
	assert.Equal(t, models.StatusOverdue, r.Status)
	require.NotNil(t, r.DaysUntilDue)
	require.NotNil(t, r.MileageVariance)
	assert.Equal(t, 3, *r.DaysUntilDue)
	assert.Equal(t, -8000.0, *r.MileageVariance)
	assert.Equal(t, r.TimeOccurrence, r.OccurrenceNumber)

	// Now mileage is inside its buffer and time is not near due.
	v.CurrentMileage = 9700
	r, err = Evaluate(v, detail, date(2024, 1, 1), date(2024, 1, 5))
	require.NoError(t, err)
	assert.Equal(t, models.StatusDueSoon, r.Status)
	assert.Equal(t, models.PriorityMedium, r.Priority)
	assert.Equal(t, r.MileageOccurrence, r.OccurrenceNumber)
}

func TestReminderID(t *testing.T) {
	v, s := primitive.NewObjectID(), primitive.NewObjectID()

	assert.Equal(t, ReminderID(v, s, 1), ReminderID(v, s, 1))
	assert.NotEqual(t, ReminderID(v, s, 1), ReminderID(v, s, 2))
	assert.NotEqual(t, ReminderID(v, s, 1), ReminderID(s, v, 1))
}
