package models

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReminderStatus is the urgency of a computed reminder.
type ReminderStatus string

const (
	StatusUpcoming ReminderStatus = "UPCOMING"
	StatusDueSoon  ReminderStatus = "DUE_SOON"
	StatusOverdue  ReminderStatus = "OVERDUE"
)

// Severity orders statuses from least (0) to most (2) urgent.
func (s ReminderStatus) Severity() int {
	switch s {
	case StatusOverdue:
		return 2
	case StatusDueSoon:
		return 1
	default:
		return 0
	}
}

// ParseReminderStatus accepts "overdue", "due-soon", "DUE_SOON" and so on.
func ParseReminderStatus(s string) (ReminderStatus, bool) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")) {
	case string(StatusUpcoming):
		return StatusUpcoming, true
	case string(StatusDueSoon):
		return StatusDueSoon, true
	case string(StatusOverdue):
		return StatusOverdue, true
	default:
		return "", false
	}
}

// Priority is derived from the reminder status.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// Rank orders priorities from LOW (0) to CRITICAL (3).
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// ServiceReminder is one due occurrence of a schedule for one vehicle. It is
// recomputed on every query and never stored.
type ServiceReminder struct {
	ID                        string             `json:"id"`
	VehicleID                 primitive.ObjectID `json:"vehicle_id"`
	VehicleName               string             `json:"vehicle_name"`
	ProgramID                 primitive.ObjectID `json:"program_id"`
	ProgramName               string             `json:"program_name"`
	ScheduleID                primitive.ObjectID `json:"schedule_id"`
	ScheduleName              string             `json:"schedule_name"`
	OccurrenceNumber          int                `json:"occurrence_number"`
	TimeOccurrence            int                `json:"time_occurrence,omitempty"`
	MileageOccurrence         int                `json:"mileage_occurrence,omitempty"`
	Tasks                     []ServiceTask      `json:"tasks"`
	TaskCount                 int                `json:"task_count"`
	TotalEstimatedLabourHours float64            `json:"total_estimated_labour_hours"`
	TotalEstimatedCost        float64            `json:"total_estimated_cost"`
	DueDate                   *time.Time         `json:"due_date,omitempty"`
	DueMileage                *float64           `json:"due_mileage,omitempty"`
	CurrentMileage            float64            `json:"current_mileage"`
	// DaysUntilDue is now minus the due date in whole days: negative while
	// the reminder is not yet due, zero or more once overdue.
	DaysUntilDue *int `json:"days_until_due,omitempty"`
	// MileageVariance is current minus due mileage, with the same sign rule.
	MileageVariance        *float64       `json:"mileage_variance,omitempty"`
	Status                 ReminderStatus `json:"status"`
	Priority               Priority       `json:"priority"`
	IsTimeBasedReminder    bool           `json:"is_time_based_reminder"`
	IsMileageBasedReminder bool           `json:"is_mileage_based_reminder"`
	EvaluatedAt            time.Time      `json:"evaluated_at"`
}

// CategorySummary is the per-category cost and labour breakdown of a reminder.
type CategorySummary struct {
	Category         TaskCategory `json:"category"`
	TaskCount        int          `json:"task_count"`
	TotalCost        float64      `json:"total_cost"`
	TotalLabourHours float64      `json:"total_labour_hours"`
}

// IsDualReminder reports whether both time and mileage recurrences apply.
func (r ServiceReminder) IsDualReminder() bool {
	return r.IsTimeBasedReminder && r.IsMileageBasedReminder
}

// TaskNames joins the task names in schedule order.
func (r ServiceReminder) TaskNames() string {
	names := make([]string, 0, len(r.Tasks))
	for _, t := range r.Tasks {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}

// Categories returns the distinct task categories in first-seen order.
func (r ServiceReminder) Categories() []TaskCategory {
	seen := make(map[TaskCategory]bool, len(r.Tasks))
	var out []TaskCategory
	for _, t := range r.Tasks {
		if !seen[t.Category] {
			seen[t.Category] = true
			out = append(out, t.Category)
		}
	}
	return out
}

// HasRequiredTask reports whether any bundled task is mandatory.
func (r ServiceReminder) HasRequiredTask() bool {
	for _, t := range r.Tasks {
		if t.IsRequired {
			return true
		}
	}
	return false
}

// MostExpensiveTask returns nil when the reminder has no tasks.
func (r ServiceReminder) MostExpensiveTask() *ServiceTask {
	var best *ServiceTask
	for i := range r.Tasks {
		if best == nil || r.Tasks[i].EstimatedCost > best.EstimatedCost {
			best = &r.Tasks[i]
		}
	}
	return best
}

// MostTimeConsumingTask returns nil when the reminder has no tasks.
func (r ServiceReminder) MostTimeConsumingTask() *ServiceTask {
	var best *ServiceTask
	for i := range r.Tasks {
		if best == nil || r.Tasks[i].EstimatedLabourHours > best.EstimatedLabourHours {
			best = &r.Tasks[i]
		}
	}
	return best
}

// TaskTotals sums estimated cost and labour hours exactly and rounds both
// to two decimal places.
func TaskTotals(tasks []ServiceTask) (cost, hours float64) {
	c, h := decimal.Zero, decimal.Zero
	for _, t := range tasks {
		c = c.Add(decimal.NewFromFloat(t.EstimatedCost))
		h = h.Add(decimal.NewFromFloat(t.EstimatedLabourHours))
	}
	return c.Round(2).InexactFloat64(), h.Round(2).InexactFloat64()
}

// CategoryBreakdown groups the tasks by category, sorted by category name.
// Sums are computed like TaskTotals.
func (r ServiceReminder) CategoryBreakdown() []CategorySummary {
	byCategory := make(map[TaskCategory][]ServiceTask)
	for _, t := range r.Tasks {
		byCategory[t.Category] = append(byCategory[t.Category], t)
	}
	out := make([]CategorySummary, 0, len(byCategory))
	for category, tasks := range byCategory {
		cost, hours := TaskTotals(tasks)
		out = append(out, CategorySummary{
			Category:         category,
			TaskCount:        len(tasks),
			TotalCost:        cost,
			TotalLabourHours: hours,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// AverageCostPerTask is zero for a reminder without tasks.
func (r ServiceReminder) AverageCostPerTask() float64 {
	if r.TaskCount == 0 {
		return 0
	}
	return r.TotalEstimatedCost / float64(r.TaskCount)
}

// AverageLabourHoursPerTask is zero for a reminder without tasks.
func (r ServiceReminder) AverageLabourHoursPerTask() float64 {
	if r.TaskCount == 0 {
		return 0
	}
	return r.TotalEstimatedLabourHours / float64(r.TaskCount)
}
