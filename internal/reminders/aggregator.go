package reminders

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

var reminderNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:fleet-maintenance:service-reminder"))

// ReminderID derives a stable identifier from the reminder identity tuple.
func ReminderID(vehicleID, scheduleID primitive.ObjectID, occurrence int) string {
	key := fmt.Sprintf("%s:%s:%d", vehicleID.Hex(), scheduleID.Hex(), occurrence)
	return uuid.NewSHA1(reminderNamespace, []byte(key)).String()
}

// Evaluation is the projected and classified state of one (vehicle,
// schedule) pair, ready to be aggregated.
type Evaluation struct {
	Time        *TimeOccurrence
	Mileage     *MileageOccurrence
	Results     []ConstraintResult
	Decisive    ConstraintResult
	EvaluatedAt time.Time
}

// Aggregate collapses every task of the schedule into a single reminder.
func Aggregate(vehicle models.Vehicle, detail models.ScheduleDetail, ev Evaluation) models.ServiceReminder {
	tasks := make([]models.ServiceTask, len(detail.Tasks))
	copy(tasks, detail.Tasks)
	cost, hours := models.TaskTotals(tasks)

	s := detail.Schedule
	r := models.ServiceReminder{
		ID:                        ReminderID(vehicle.ID, s.ID, ev.Decisive.Occurrence),
		VehicleID:                 vehicle.ID,
		VehicleName:               vehicle.DisplayName(),
		ProgramID:                 detail.Program.ID,
		ProgramName:               detail.Program.Name,
		ScheduleID:                s.ID,
		ScheduleName:              s.Name,
		OccurrenceNumber:          ev.Decisive.Occurrence,
		Tasks:                     tasks,
		TaskCount:                 len(tasks),
		TotalEstimatedLabourHours: hours,
		TotalEstimatedCost:        cost,
		CurrentMileage:            vehicle.CurrentMileage,
		Status:                    ev.Decisive.Status,
		Priority:                  ev.Decisive.Priority,
		IsTimeBasedReminder:       ev.Time != nil,
		IsMileageBasedReminder:    ev.Mileage != nil,
		EvaluatedAt:               ev.EvaluatedAt,
	}

	for _, res := range ev.Results {
		switch res.Kind {
		case ConstraintTime:
			due := ev.Time.DueDate
			days := daysVariance(res.Variance)
			r.DueDate = &due
			r.DaysUntilDue = &days
			r.TimeOccurrence = res.Occurrence
		case ConstraintMileage:
			due := ev.Mileage.DueMileage
			variance := res.Variance
			r.DueMileage = &due
			r.MileageVariance = &variance
			r.MileageOccurrence = res.Occurrence
		}
	}
	return r
}

// Evaluate runs projection, classification and aggregation for one pair.
// anchor is the enrollment baseline used by time-based schedules without a
// first service date.
func Evaluate(vehicle models.Vehicle, detail models.ScheduleDetail, anchor, now time.Time) (models.ServiceReminder, error) {
	s := detail.Schedule
	ev := Evaluation{EvaluatedAt: now}

	if s.IsTimeBased() {
		occ, err := ProjectTime(s, anchor, now)
		if err != nil {
			return models.ServiceReminder{}, err
		}
		res, err := ClassifyTime(s, occ, now)
		if err != nil {
			return models.ServiceReminder{}, err
		}
		ev.Time = &occ
		ev.Results = append(ev.Results, res)
	}
	if s.IsMileageBased() {
		occ, err := ProjectMileage(s, vehicle.CurrentMileage)
		if err != nil {
			return models.ServiceReminder{}, err
		}
		ev.Mileage = &occ
		ev.Results = append(ev.Results, ClassifyMileage(s, occ, vehicle.CurrentMileage))
	}
	if len(ev.Results) == 0 {
		return models.ServiceReminder{}, fmt.Errorf("%w: schedule %q has no recurrence", models.ErrInvalidConfiguration, s.Name)
	}

	ev.Decisive = MostUrgent(ev.Results...)
	return Aggregate(vehicle, detail, ev), nil
}
