package reminders

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

func TestQueryParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  QueryParams
		wantErr bool
	}{
		{"defaults", QueryParams{PageNumber: 1, PageSize: DefaultPageSize}, false},
		{"max page size", QueryParams{PageNumber: 3, PageSize: MaxPageSize}, false},
		{"known sort field any case", QueryParams{PageNumber: 1, PageSize: 10, SortBy: "DueDate"}, false},
		{"snake case sort field", QueryParams{PageNumber: 1, PageSize: 10, SortBy: "labour_hours"}, false},
		{"status filter", QueryParams{PageNumber: 1, PageSize: 10, Statuses: []models.ReminderStatus{models.StatusOverdue}}, false},
		{"page zero", QueryParams{PageNumber: 0, PageSize: 10}, true},
		{"page size zero", QueryParams{PageNumber: 1, PageSize: 0}, true},
		{"page size too large", QueryParams{PageNumber: 1, PageSize: MaxPageSize + 1}, true},
		{"unknown sort field", QueryParams{PageNumber: 1, PageSize: 10, SortBy: "colour"}, true},
		{"page offset overflows", QueryParams{PageNumber: 1 << 62, PageSize: MaxPageSize}, true},
		{"largest addressable page", QueryParams{PageNumber: math.MaxInt / MaxPageSize, PageSize: MaxPageSize}, false},
		{"unknown status", QueryParams{PageNumber: 1, PageSize: 10, Statuses: []models.ReminderStatus{"LATE"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadRequest)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func reminder(vehicle, program, schedule string, status models.ReminderStatus) models.ServiceReminder {
	return models.ServiceReminder{
		VehicleID:    primitive.NewObjectID(),
		VehicleName:  vehicle,
		ProgramName:  program,
		ScheduleID:   primitive.NewObjectID(),
		ScheduleName: schedule,
		Status:       status,
	}
}

func TestFilter_Search(t *testing.T) {
	items := []models.ServiceReminder{
		reminder("Ford Transit", "Vans", "Oil change", models.StatusUpcoming),
		reminder("Tesla Model 3", "Cars", "Tyre rotation", models.StatusOverdue),
		reminder("Iveco Daily", "Heavy", "Brake check", models.StatusDueSoon),
	}

	names := func(rs []models.ServiceReminder) []string {
		var out []string
		for _, r := range rs {
			out = append(out, r.VehicleName)
		}
		return out
	}

	assert.Equal(t, []string{"Ford Transit"}, names(Filter(items, QueryParams{Search: "TRANSIT"})))
	assert.Equal(t, []string{"Tesla Model 3"}, names(Filter(items, QueryParams{Search: "cars"})))
	assert.Equal(t, []string{"Iveco Daily"}, names(Filter(items, QueryParams{Search: "brake"})))
	assert.Equal(t, []string{"Ford Transit", "Tesla Model 3", "Iveco Daily"}, names(Filter(items, QueryParams{Search: "  "})))
	assert.Empty(t, Filter(items, QueryParams{Search: "scania"}))
	assert.Equal(t, []string{"Tesla Model 3", "Iveco Daily"},
		names(Filter(items, QueryParams{Statuses: []models.ReminderStatus{models.StatusOverdue, models.StatusDueSoon}})))

	id := items[1].VehicleID
	assert.Equal(t, []string{"Tesla Model 3"}, names(Filter(items, QueryParams{VehicleID: &id})))
}

func TestSort_DefaultUrgency(t *testing.T) {
	early := date(2024, 3, 1)
	late := date(2024, 4, 1)

	overdueLate := reminder("a", "p", "s", models.StatusOverdue)
	overdueLate.DueDate = &late
	overdueEarly := reminder("b", "p", "s", models.StatusOverdue)
	overdueEarly.DueDate = &early
	dueSoonMileage := reminder("c", "p", "s", models.StatusDueSoon)
	dueSoonMileage.MileageVariance = ptr(-100.0)
	dueSoonFar := reminder("d", "p", "s", models.StatusDueSoon)
	dueSoonFar.MileageVariance = ptr(-200.0)
	upcoming := reminder("e", "p", "s", models.StatusUpcoming)
	upcoming.DueDate = &early

	items := []models.ServiceReminder{upcoming, dueSoonFar, overdueLate, dueSoonMileage, overdueEarly}
	Sort(items, "", false)

	var order []string
	for _, r := range items {
		order = append(order, r.VehicleName)
	}
	assert.Equal(t, []string{"b", "a", "c", "d", "e"}, order)
}

func TestSort_TieBreakByIDs(t *testing.T) {
	v1 := primitive.NewObjectIDFromTimestamp(time.Unix(1000, 0))
	v2 := primitive.NewObjectIDFromTimestamp(time.Unix(2000, 0))
	s1 := primitive.NewObjectIDFromTimestamp(time.Unix(3000, 0))
	s2 := primitive.NewObjectIDFromTimestamp(time.Unix(4000, 0))

	items := []models.ServiceReminder{
		{VehicleID: v2, ScheduleID: s1, VehicleName: "x", Status: models.StatusUpcoming},
		{VehicleID: v1, ScheduleID: s2, VehicleName: "x", Status: models.StatusUpcoming},
		{VehicleID: v1, ScheduleID: s1, VehicleName: "x", Status: models.StatusUpcoming},
	}

	for _, desc := range []bool{false, true} {
		Sort(items, SortVehicle, desc)
		assert.Equal(t, v1, items[0].VehicleID)
		assert.Equal(t, s1, items[0].ScheduleID)
		assert.Equal(t, v1, items[1].VehicleID)
		assert.Equal(t, s2, items[1].ScheduleID)
		assert.Equal(t, v2, items[2].VehicleID)
	}
}

func TestSort_ByFieldDescending(t *testing.T) {
	a := reminder("a", "p", "s", models.StatusUpcoming)
	a.TotalEstimatedCost = 10
	b := reminder("b", "p", "s", models.StatusUpcoming)
	b.TotalEstimatedCost = 30
	c := reminder("c", "p", "s", models.StatusUpcoming)
	c.TotalEstimatedCost = 20

	items := []models.ServiceReminder{a, b, c}
	Sort(items, "cost", true)
	assert.Equal(t, []float64{30, 20, 10}, []float64{items[0].TotalEstimatedCost, items[1].TotalEstimatedCost, items[2].TotalEstimatedCost})

	Sort(items, "vehicle", false)
	assert.Equal(t, "a", items[0].VehicleName)
	assert.Equal(t, "c", items[2].VehicleName)
}
