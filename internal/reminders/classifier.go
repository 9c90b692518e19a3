package reminders

import (
	"math"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// criticalFraction of the interval a reminder must be overdue by to become
// CRITICAL when its schedule has no buffer.
const criticalFraction = 0.1

// ConstraintKind names the recurrence a classification came from.
type ConstraintKind string

const (
	ConstraintTime    ConstraintKind = "time"
	ConstraintMileage ConstraintKind = "mileage"
)

// ConstraintResult is the classification of a single recurrence constraint.
// Variance is current minus due, in hours for time and in distance for
// mileage: negative before the due point, zero or more after it.
type ConstraintResult struct {
	Kind       ConstraintKind
	Occurrence int
	Variance   float64
	Status     models.ReminderStatus
	Priority   models.Priority
}

// ClassifyTime classifies a time occurrence against now.
func ClassifyTime(s models.ServiceSchedule, occ TimeOccurrence, now time.Time) (ConstraintResult, error) {
	intervalHours, err := s.TimeInterval.Hours()
	if err != nil {
		return ConstraintResult{}, err
	}
	var buffer *float64
	if s.TimeBuffer != nil {
		h, err := s.TimeBuffer.Hours()
		if err != nil {
			return ConstraintResult{}, err
		}
		buffer = &h
	}
	variance := now.Sub(occ.DueDate).Hours()
	status := classify(variance, buffer)
	return ConstraintResult{
		Kind:       ConstraintTime,
		Occurrence: occ.Number,
		Variance:   variance,
		Status:     status,
		Priority:   prioritize(status, variance, buffer, intervalHours),
	}, nil
}

// ClassifyMileage classifies a mileage occurrence against the current mileage.
func ClassifyMileage(s models.ServiceSchedule, occ MileageOccurrence, currentMileage float64) ConstraintResult {
	variance := currentMileage - occ.DueMileage
	status := classify(variance, s.MileageBuffer)
	return ConstraintResult{
		Kind:       ConstraintMileage,
		Occurrence: occ.Number,
		Variance:   variance,
		Status:     status,
		Priority:   prioritize(status, variance, s.MileageBuffer, *s.MileageInterval),
	}
}

func classify(variance float64, buffer *float64) models.ReminderStatus {
	switch {
	case variance >= 0:
		return models.StatusOverdue
	case buffer != nil && -variance <= *buffer:
		return models.StatusDueSoon
	default:
		return models.StatusUpcoming
	}
}

func prioritize(status models.ReminderStatus, variance float64, buffer *float64, interval float64) models.Priority {
	switch status {
	case models.StatusOverdue:
		threshold := interval * criticalFraction
		if buffer != nil && *buffer > 0 {
			threshold = *buffer
		}
		if variance >= threshold {
			return models.PriorityCritical
		}
		return models.PriorityHigh
	case models.StatusDueSoon:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// MostUrgent picks the result that drives a dual-recurrence reminder: the
// higher status severity, then the higher priority. The earlier argument wins
// a full tie.
func MostUrgent(results ...ConstraintResult) ConstraintResult {
	var best ConstraintResult
	for i, r := range results {
		if i == 0 {
			best = r
			continue
		}
		if r.Status.Severity() > best.Status.Severity() ||
			(r.Status == best.Status && r.Priority.Rank() > best.Priority.Rank()) {
			best = r
		}
	}
	return best
}

// daysVariance turns an hour variance into whole days, rounding toward
// negative infinity so that any time before the due point is negative.
func daysVariance(hours float64) int {
	return int(math.Floor(hours / 24))
}
