package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServiceSchedule is a maintenance recurrence rule. It recurs by elapsed
// time, by elapsed mileage, or both.
type ServiceSchedule struct {
	ID                  primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	ProgramID           primitive.ObjectID   `bson:"program_id" json:"program_id"`
	Name                string               `bson:"name" json:"name"`
	IsActive            bool                 `bson:"is_active" json:"is_active"`
	TimeInterval        *TimeInterval        `bson:"time_interval,omitempty" json:"time_interval,omitempty"`
	TimeBuffer          *TimeInterval        `bson:"time_buffer,omitempty" json:"time_buffer,omitempty"`
	MileageInterval     *float64             `bson:"mileage_interval,omitempty" json:"mileage_interval,omitempty"`
	MileageBuffer       *float64             `bson:"mileage_buffer,omitempty" json:"mileage_buffer,omitempty"`
	FirstServiceDate    *time.Time           `bson:"first_service_date,omitempty" json:"first_service_date,omitempty"`
	FirstServiceMileage *float64             `bson:"first_service_mileage,omitempty" json:"first_service_mileage,omitempty"`
	TaskIDs             []primitive.ObjectID `bson:"task_ids" json:"task_ids"`
	CreatedAt           time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt           time.Time            `bson:"updated_at" json:"updated_at"`
}

// IsTimeBased reports whether the schedule recurs by elapsed time.
func (s ServiceSchedule) IsTimeBased() bool {
	return s.TimeInterval != nil
}

// IsMileageBased reports whether the schedule recurs by elapsed mileage.
func (s ServiceSchedule) IsMileageBased() bool {
	return s.MileageInterval != nil
}

// Validate checks the recurrence invariants. Every failure wraps
// ErrInvalidConfiguration.
func (s ServiceSchedule) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return invalidf("schedule name is required")
	}
	if len(s.TaskIDs) == 0 {
		return invalidf("schedule %q must reference at least one task", s.Name)
	}
	if !s.IsTimeBased() && !s.IsMileageBased() {
		return invalidf("schedule %q needs a time interval, a mileage interval or both", s.Name)
	}

	if s.TimeInterval != nil {
		if s.TimeInterval.Value <= 0 {
			return invalidf("time interval must be positive, got %d", s.TimeInterval.Value)
		}
		intervalHours, err := s.TimeInterval.Hours()
		if err != nil {
			return err
		}
		if s.TimeBuffer != nil {
			if s.TimeBuffer.Value < 0 {
				return invalidf("time buffer cannot be negative, got %d", s.TimeBuffer.Value)
			}
			bufferHours, err := s.TimeBuffer.Hours()
			if err != nil {
				return err
			}
			if bufferHours >= intervalHours {
				return invalidf("time buffer %s must be shorter than interval %s", s.TimeBuffer, s.TimeInterval)
			}
		}
	} else {
		if s.TimeBuffer != nil {
			return invalidf("time buffer requires a time interval")
		}
		if s.FirstServiceDate != nil {
			return invalidf("first service date requires a time interval")
		}
	}

	if s.MileageInterval != nil {
		if *s.MileageInterval <= 0 {
			return invalidf("mileage interval must be positive, got %g", *s.MileageInterval)
		}
		if s.MileageBuffer != nil {
			if *s.MileageBuffer < 0 {
				return invalidf("mileage buffer cannot be negative, got %g", *s.MileageBuffer)
			}
			if *s.MileageBuffer >= *s.MileageInterval {
				return invalidf("mileage buffer %g must be less than interval %g", *s.MileageBuffer, *s.MileageInterval)
			}
		}
		if s.FirstServiceMileage != nil && *s.FirstServiceMileage < 0 {
			return invalidf("first service mileage cannot be negative, got %g", *s.FirstServiceMileage)
		}
	} else {
		if s.MileageBuffer != nil {
			return invalidf("mileage buffer requires a mileage interval")
		}
		if s.FirstServiceMileage != nil {
			return invalidf("first service mileage requires a mileage interval")
		}
	}

	if s.FirstServiceDate != nil && s.FirstServiceMileage != nil {
		return invalidf("set either a first service date or a first service mileage, not both")
	}
	return nil
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfiguration, fmt.Sprintf(format, args...))
}

// ScheduleDetail is a schedule with its owning program and linked tasks
// loaded, as returned by the bulk schedule fetch.
type ScheduleDetail struct {
	Schedule ServiceSchedule
	Program  ServiceProgram
	Tasks    []ServiceTask
}
