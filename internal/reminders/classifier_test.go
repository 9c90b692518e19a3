package reminders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

func classifyMileageAt(t *testing.T, s models.ServiceSchedule, mileage float64) ConstraintResult {
	t.Helper()
	occ, err := ProjectMileage(s, mileage)
	require.NoError(t, err)
	return ClassifyMileage(s, occ, mileage)
}

func TestClassifyMileage(t *testing.T) {
	withBuffer := mileageSchedule(5000, 250)
	noBuffer := mileageSchedule(5000, 0)
	zeroBuffer := mileageSchedule(5000, 0)
	zeroBuffer.MileageBuffer = ptr(0.0)

	tests := []struct {
		name         string
		schedule     models.ServiceSchedule
		mileage      float64
		wantStatus   models.ReminderStatus
		wantPriority models.Priority
		wantVariance float64
	}{
		{"due soon inside buffer", withBuffer, 4800, models.StatusDueSoon, models.PriorityMedium, -200},
		{"buffer edge is due soon", withBuffer, 4750, models.StatusDueSoon, models.PriorityMedium, -250},
		{"outside buffer", withBuffer, 4700, models.StatusUpcoming, models.PriorityLow, -300},
		{"exactly due", withBuffer, 5000, models.StatusOverdue, models.PriorityHigh, 0},
		{"overdue within one buffer", withBuffer, 5200, models.StatusOverdue, models.PriorityHigh, 200},
		{"overdue by a full buffer", withBuffer, 5250, models.StatusOverdue, models.PriorityCritical, 250},
		{"unserviced past the midpoint stays overdue", withBuffer, 7600, models.StatusOverdue, models.PriorityCritical, 2600},
		{"no buffer skips due soon", noBuffer, 4999, models.StatusUpcoming, models.PriorityLow, -1},
		{"zero buffer skips due soon", zeroBuffer, 4999, models.StatusUpcoming, models.PriorityLow, -1},
		{"no buffer overdue below ten percent", noBuffer, 5400, models.StatusOverdue, models.PriorityHigh, 400},
		{"no buffer overdue by ten percent", noBuffer, 5500, models.StatusOverdue, models.PriorityCritical, 500},
		{"no buffer critical", noBuffer, 5600, models.StatusOverdue, models.PriorityCritical, 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := classifyMileageAt(t, tt.schedule, tt.mileage)
			assert.Equal(t, ConstraintMileage, res.Kind)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantPriority, res.Priority)
			assert.Equal(t, tt.wantVariance, res.Variance)
		})
	}
}

func TestClassifyTime_WeeklyExample(t *testing.T) {
	anchor := date(2024, 1, 1)
	now := date(2024, 1, 20)

	s := timeSchedule(6, models.UnitWeeks)
	occ, err := ProjectTime(s, anchor, now)
	require.NoError(t, err)

	res, err := ClassifyTime(s, occ, now)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpcoming, res.Status)
	assert.Equal(t, models.PriorityLow, res.Priority)
	assert.Equal(t, -23, daysVariance(res.Variance))

	s.TimeBuffer = &models.TimeInterval{Value: 4, Unit: models.UnitWeeks}
	res, err = ClassifyTime(s, occ, now)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDueSoon, res.Status)
	assert.Equal(t, models.PriorityMedium, res.Priority)

	s.TimeBuffer = &models.TimeInterval{Value: 3, Unit: models.UnitWeeks}
	res, err = ClassifyTime(s, occ, now)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpcoming, res.Status)
}

func TestDaysVariance_SignConvention(t *testing.T) {
	assert.Equal(t, -1, daysVariance(-12))
	assert.Equal(t, -1, daysVariance(-24))
	assert.Equal(t, -2, daysVariance(-25))
	assert.Equal(t, 0, daysVariance(0))
	assert.Equal(t, 0, daysVariance(12))
	assert.Equal(t, 1, daysVariance(24))
}

func TestStatusMonotonicity_Mileage(t *testing.T) {
	s := mileageSchedule(5000, 250)

	prev := -1
	for mileage := 0.0; mileage <= 12000; mileage += 10 {
		res := classifyMileageAt(t, s, mileage)
		if mileage < 10000 {
			require.Equal(t, 1, res.Occurrence, "at %v", mileage)
		} else {
			require.Equal(t, 2, res.Occurrence, "at %v", mileage)
		}

		sev := res.Status.Severity()
		require.GreaterOrEqual(t, sev, prev, "status went backwards at %v", mileage)
		prev = sev

		if res.Status == models.StatusOverdue {
			assert.GreaterOrEqual(t, res.Variance, 0.0)
		} else {
			assert.Less(t, res.Variance, 0.0)
		}
	}
	assert.Equal(t, models.StatusOverdue.Severity(), prev)
}

func TestStatusMonotonicity_Time(t *testing.T) {
	s := timeSchedule(10, models.UnitDays)
	s.TimeBuffer = &models.TimeInterval{Value: 48, Unit: models.UnitHours}
	anchor := date(2024, 5, 1)
	due := date(2024, 5, 11)

	prev := -1
	for now := anchor; !now.After(due.Add(20 * 24 * time.Hour)); now = now.Add(3 * time.Hour) {
		occ, err := ProjectTime(s, anchor, now)
		require.NoError(t, err)

		res, err := ClassifyTime(s, occ, now)
		require.NoError(t, err)

		sev := res.Status.Severity()
		require.GreaterOrEqual(t, sev, prev, "status went backwards at %v", now)
		prev = sev

		days := daysVariance(res.Variance)
		if res.Status == models.StatusOverdue {
			assert.GreaterOrEqual(t, days, 0, "at %v", now)
		} else {
			assert.Less(t, days, 0, "at %v", now)
		}
	}
	assert.Equal(t, models.StatusOverdue.Severity(), prev)
}

func TestMostUrgent(t *testing.T) {
	overdue := ConstraintResult{Kind: ConstraintTime, Status: models.StatusOverdue, Priority: models.PriorityHigh}
	upcoming := ConstraintResult{Kind: ConstraintMileage, Status: models.StatusUpcoming, Priority: models.PriorityLow}
	critical := ConstraintResult{Kind: ConstraintMileage, Status: models.StatusOverdue, Priority: models.PriorityCritical}
	dueSoon := ConstraintResult{Kind: ConstraintMileage, Status: models.StatusDueSoon, Priority: models.PriorityMedium}

	assert.Equal(t, overdue, MostUrgent(overdue, upcoming))
	assert.Equal(t, overdue, MostUrgent(upcoming, overdue))
	assert.Equal(t, critical, MostUrgent(overdue, critical))
	assert.Equal(t, dueSoon, MostUrgent(upcoming, dueSoon))
	assert.Equal(t, ConstraintTime, MostUrgent(overdue, ConstraintResult{Kind: ConstraintMileage, Status: models.StatusOverdue, Priority: models.PriorityHigh}).Kind)
}
