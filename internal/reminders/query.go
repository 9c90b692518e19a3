package reminders

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ErrBadRequest is returned for invalid paging, sorting or filter parameters.
var ErrBadRequest = errors.New("bad request")

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Sort fields accepted by QueryParams.SortBy. An empty value means SortDue.
const (
	SortDue         = "due"
	SortVehicle     = "vehicle"
	SortProgram     = "program"
	SortSchedule    = "schedule"
	SortStatus      = "status"
	SortPriority    = "priority"
	SortDueDate     = "duedate"
	SortDueMileage  = "duemileage"
	SortCost        = "cost"
	SortLabourHours = "labourhours"
)

type compareFunc func(a, b *models.ServiceReminder) int

var sortFields = map[string]compareFunc{
	SortDue:        compareUrgency,
	SortVehicle:    func(a, b *models.ServiceReminder) int { return cmpFold(a.VehicleName, b.VehicleName) },
	SortProgram:    func(a, b *models.ServiceReminder) int { return cmpFold(a.ProgramName, b.ProgramName) },
	SortSchedule:   func(a, b *models.ServiceReminder) int { return cmpFold(a.ScheduleName, b.ScheduleName) },
	SortStatus:     func(a, b *models.ServiceReminder) int { return cmp.Compare(b.Status.Severity(), a.Status.Severity()) },
	SortPriority:   func(a, b *models.ServiceReminder) int { return cmp.Compare(b.Priority.Rank(), a.Priority.Rank()) },
	SortDueDate:    func(a, b *models.ServiceReminder) int { return compareTimes(a.DueDate, b.DueDate) },
	SortDueMileage: func(a, b *models.ServiceReminder) int { return compareFloats(a.DueMileage, b.DueMileage) },
	SortCost:       func(a, b *models.ServiceReminder) int { return cmp.Compare(a.TotalEstimatedCost, b.TotalEstimatedCost) },
	SortLabourHours: func(a, b *models.ServiceReminder) int {
		return cmp.Compare(a.TotalEstimatedLabourHours, b.TotalEstimatedLabourHours)
	},
}

// QueryParams describes one page of the reminder listing.
type QueryParams struct {
	PageNumber     int
	PageSize       int
	Search         string
	SortBy         string
	SortDescending bool
	VehicleID      *primitive.ObjectID
	ProgramID      *primitive.ObjectID
	Statuses       []models.ReminderStatus
}

// Validate rejects parameters the engine cannot serve. It runs before any
// data is fetched.
func (p QueryParams) Validate() error {
	if p.PageNumber < 1 {
		return fmt.Errorf("%w: page number must be at least 1, got %d", ErrBadRequest, p.PageNumber)
	}
	if p.PageSize < 1 || p.PageSize > MaxPageSize {
		return fmt.Errorf("%w: page size must be between 1 and %d, got %d", ErrBadRequest, MaxPageSize, p.PageSize)
	}
	if p.PageNumber > math.MaxInt/p.PageSize {
		return fmt.Errorf("%w: page number %d is out of range", ErrBadRequest, p.PageNumber)
	}
	if _, ok := sortFields[normalizeSortField(p.SortBy)]; !ok {
		return fmt.Errorf("%w: unknown sort field %q", ErrBadRequest, p.SortBy)
	}
	for _, s := range p.Statuses {
		if _, ok := models.ParseReminderStatus(string(s)); !ok {
			return fmt.Errorf("%w: unknown status %q", ErrBadRequest, s)
		}
	}
	return nil
}

func normalizeSortField(field string) string {
	f := strings.ToLower(strings.TrimSpace(field))
	f = strings.NewReplacer("_", "", "-", "").Replace(f)
	if f == "" {
		return SortDue
	}
	return f
}

// Filter applies the search term and the id and status filters.
func Filter(items []models.ServiceReminder, p QueryParams) []models.ServiceReminder {
	term := strings.ToLower(strings.TrimSpace(p.Search))
	out := make([]models.ServiceReminder, 0, len(items))
	for _, r := range items {
		if p.VehicleID != nil && r.VehicleID != *p.VehicleID {
			continue
		}
		if p.ProgramID != nil && r.ProgramID != *p.ProgramID {
			continue
		}
		if len(p.Statuses) > 0 && !slices.Contains(p.Statuses, r.Status) {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(r.VehicleName), term) &&
			!strings.Contains(strings.ToLower(r.ProgramName), term) &&
			!strings.Contains(strings.ToLower(r.ScheduleName), term) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Sort orders items in place by the requested field. Ties are broken by
// vehicle id and then schedule id, independent of the direction.
func Sort(items []models.ServiceReminder, sortBy string, descending bool) {
	primary := sortFields[normalizeSortField(sortBy)]
	if primary == nil {
		primary = compareUrgency
	}
	slices.SortStableFunc(items, func(a, b models.ServiceReminder) int {
		c := primary(&a, &b)
		if descending {
			c = -c
		}
		if c != 0 {
			return c
		}
		if c = cmp.Compare(a.VehicleID.Hex(), b.VehicleID.Hex()); c != 0 {
			return c
		}
		return cmp.Compare(a.ScheduleID.Hex(), b.ScheduleID.Hex())
	})
}

// compareUrgency puts overdue reminders first, then the earliest due date,
// then the least remaining mileage.
func compareUrgency(a, b *models.ServiceReminder) int {
	if c := cmp.Compare(b.Status.Severity(), a.Status.Severity()); c != 0 {
		return c
	}
	if c := compareTimes(a.DueDate, b.DueDate); c != 0 {
		return c
	}
	return compareFloats(remainingMileage(a), remainingMileage(b))
}

func remainingMileage(r *models.ServiceReminder) *float64 {
	if r.MileageVariance == nil {
		return nil
	}
	v := -*r.MileageVariance
	return &v
}

// compareTimes sorts missing values last.
func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}

// compareFloats sorts missing values last.
func compareFloats(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return cmp.Compare(*a, *b)
	}
}

func cmpFold(a, b string) int {
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}
