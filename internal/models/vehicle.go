package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle represents a fleet vehicle. The reminder engine only reads it.
type Vehicle struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id" yaml:"-"`
	Name           string             `bson:"name" json:"name" yaml:"name"`
	Type           string             `bson:"type" json:"type" yaml:"type"` // "ICE" or "EV"
	Make           string             `bson:"make" json:"make" yaml:"make"`
	Model          string             `bson:"model" json:"model" yaml:"model"`
	Year           int                `bson:"year" json:"year" yaml:"year"`
	CurrentMileage float64            `bson:"current_mileage" json:"current_mileage" yaml:"current_mileage"`
	Status         string             `bson:"status" json:"status" yaml:"status"` // "active" or "inactive"
	CreatedAt      time.Time          `bson:"created_at" json:"created_at" yaml:"-"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at" yaml:"-"`
}

// DisplayName falls back to "<year> <make> <model>" for unnamed vehicles.
func (v Vehicle) DisplayName() string {
	if strings.TrimSpace(v.Name) != "" {
		return v.Name
	}
	return strings.TrimSpace(fmt.Sprintf("%d %s %s", v.Year, v.Make, v.Model))
}
