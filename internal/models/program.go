package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServiceProgram groups service schedules and the vehicles enrolled in them.
type ServiceProgram struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id" yaml:"-"`
	Name        string             `bson:"name" json:"name" yaml:"name"`
	Description string             `bson:"description" json:"description" yaml:"description"`
	IsActive    bool               `bson:"is_active" json:"is_active" yaml:"is_active"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at" yaml:"-"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at" yaml:"-"`
}

// ProgramEnrollment links a vehicle to a service program.
type ProgramEnrollment struct {
	VehicleID  primitive.ObjectID `bson:"vehicle_id" json:"vehicle_id"`
	ProgramID  primitive.ObjectID `bson:"program_id" json:"program_id"`
	EnrolledAt time.Time          `bson:"enrolled_at" json:"enrolled_at"`
}
