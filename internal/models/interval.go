package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidConfiguration is returned when a service schedule breaks one of
// its recurrence invariants.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ErrNotFound is returned by stores when a referenced record does not exist.
var ErrNotFound = errors.New("not found")

// TimeUnit is the unit of a time-based service interval.
type TimeUnit string

const (
	UnitHours TimeUnit = "hours"
	UnitDays  TimeUnit = "days"
	UnitWeeks TimeUnit = "weeks"
)

// Valid reports whether the unit is one the engine can do arithmetic with.
func (u TimeUnit) Valid() bool {
	switch u {
	case UnitHours, UnitDays, UnitWeeks:
		return true
	default:
		return false
	}
}

// ParseTimeUnit accepts singular and plural unit names in any case.
func ParseTimeUnit(s string) (TimeUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hour", "hours":
		return UnitHours, nil
	case "day", "days":
		return UnitDays, nil
	case "week", "weeks":
		return UnitWeeks, nil
	default:
		return "", fmt.Errorf("%w: unsupported time unit %q", ErrInvalidConfiguration, s)
	}
}

// TimeInterval is a value paired with its unit, e.g. 6 weeks.
type TimeInterval struct {
	Value int      `bson:"value" json:"value" yaml:"value"`
	Unit  TimeUnit `bson:"unit" json:"unit" yaml:"unit"`
}

// Hours converts the interval into hours for comparison purposes.
func (i TimeInterval) Hours() (float64, error) {
	return ToHours(i.Value, i.Unit)
}

func (i TimeInterval) String() string {
	return fmt.Sprintf("%d %s", i.Value, i.Unit)
}

// ToHours converts value×unit into hours. Only use it to compare intervals;
// calendar dates are computed with AddInterval.
func ToHours(value int, unit TimeUnit) (float64, error) {
	switch unit {
	case UnitHours:
		return float64(value), nil
	case UnitDays:
		return float64(value) * 24, nil
	case UnitWeeks:
		return float64(value) * 168, nil
	default:
		return 0, fmt.Errorf("%w: unsupported time unit %q", ErrInvalidConfiguration, unit)
	}
}

// AddInterval adds value×unit to t. Days and weeks are calendar days, so the
// wall-clock time is preserved across DST transitions.
func AddInterval(t time.Time, value int, unit TimeUnit) (time.Time, error) {
	switch unit {
	case UnitHours:
		return t.Add(time.Duration(value) * time.Hour), nil
	case UnitDays:
		return t.AddDate(0, 0, value), nil
	case UnitWeeks:
		return t.AddDate(0, 0, value*7), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported time unit %q", ErrInvalidConfiguration, unit)
	}
}
