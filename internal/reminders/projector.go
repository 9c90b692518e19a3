package reminders

import (
	"fmt"
	"math"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// TimeOccurrence is the current occurrence of a time-based schedule.
type TimeOccurrence struct {
	Number  int
	DueDate time.Time
}

// MileageOccurrence is the current occurrence of a mileage-based schedule.
type MileageOccurrence struct {
	Number     int
	DueMileage float64
}

// ProjectTime finds the current occurrence of a time-based schedule.
//
// Occurrence k is due at first + (k-1) intervals, where first is the first
// service date override or anchor + one interval. Before the first due
// date occurrence 1 is reported; after it, the most recently passed
// occurrence stays current until the next one falls due, so an unserviced
// reminder never drops back from overdue.
func ProjectTime(s models.ServiceSchedule, anchor, now time.Time) (TimeOccurrence, error) {
	iv := s.TimeInterval
	if iv == nil {
		return TimeOccurrence{}, fmt.Errorf("%w: schedule %q has no time interval", models.ErrInvalidConfiguration, s.Name)
	}
	if iv.Value <= 0 {
		return TimeOccurrence{}, fmt.Errorf("%w: time interval must be positive", models.ErrInvalidConfiguration)
	}
	intervalHours, err := iv.Hours()
	if err != nil {
		return TimeOccurrence{}, err
	}

	var first time.Time
	if s.FirstServiceDate != nil {
		first = *s.FirstServiceDate
	} else {
		if anchor.IsZero() {
			return TimeOccurrence{}, fmt.Errorf("%w: schedule %q has no anchor date", models.ErrInvalidConfiguration, s.Name)
		}
		if first, err = models.AddInterval(anchor, iv.Value, iv.Unit); err != nil {
			return TimeOccurrence{}, err
		}
	}

	due := func(k int) time.Time {
		// The unit was validated by Hours above.
		t, _ := models.AddInterval(first, (k-1)*iv.Value, iv.Unit)
		return t
	}

	if now.Before(first) {
		return TimeOccurrence{Number: 1, DueDate: first}, nil
	}

	passed := int(math.Floor(now.Sub(first).Hours()/intervalHours)) + 1
	// Calendar days are not always 24 hours long; settle on
	// due(passed) <= now < due(passed+1).
	for passed > 1 && due(passed).After(now) {
		passed--
	}
	for !due(passed + 1).After(now) {
		passed++
	}

	return TimeOccurrence{Number: passed, DueDate: due(passed)}, nil
}

// ProjectMileage finds the current occurrence of a mileage-based schedule,
// using the first service mileage override or zero as the anchor. Like
// ProjectTime it reports the most recently passed occurrence once the first
// one is reached.
func ProjectMileage(s models.ServiceSchedule, currentMileage float64) (MileageOccurrence, error) {
	if s.MileageInterval == nil {
		return MileageOccurrence{}, fmt.Errorf("%w: schedule %q has no mileage interval", models.ErrInvalidConfiguration, s.Name)
	}
	interval := *s.MileageInterval
	if interval <= 0 {
		return MileageOccurrence{}, fmt.Errorf("%w: mileage interval must be positive", models.ErrInvalidConfiguration)
	}

	first := interval
	if s.FirstServiceMileage != nil {
		first = *s.FirstServiceMileage
	}
	if currentMileage < first {
		return MileageOccurrence{Number: 1, DueMileage: first}, nil
	}

	passed := int(math.Floor((currentMileage-first)/interval)) + 1
	return MileageOccurrence{Number: passed, DueMileage: first + float64(passed-1)*interval}, nil
}
