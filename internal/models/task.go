package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskCategory classifies a service task.
type TaskCategory string

const (
	CategoryInspection TaskCategory = "inspection"
	CategoryFluids     TaskCategory = "fluids"
	CategoryFilters    TaskCategory = "filters"
	CategoryBrakes     TaskCategory = "brakes"
	CategoryTires      TaskCategory = "tires"
	CategoryElectrical TaskCategory = "electrical"
	CategoryEngine     TaskCategory = "engine"
	CategoryBody       TaskCategory = "body"
	CategoryOther      TaskCategory = "other"
)

// IsValidCategory checks if a task category is known
func IsValidCategory(c TaskCategory) bool {
	switch c {
	case CategoryInspection, CategoryFluids, CategoryFilters, CategoryBrakes, CategoryTires,
		CategoryElectrical, CategoryEngine, CategoryBody, CategoryOther:
		return true
	default:
		return false
	}
}

// ServiceTask is a single unit of maintenance work bundled into schedules.
type ServiceTask struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id" yaml:"-"`
	Name                 string             `bson:"name" json:"name" yaml:"name"`
	Category             TaskCategory       `bson:"category" json:"category" yaml:"category"`
	EstimatedLabourHours float64            `bson:"estimated_labour_hours" json:"estimated_labour_hours" yaml:"estimated_labour_hours"`
	EstimatedCost        float64            `bson:"estimated_cost" json:"estimated_cost" yaml:"estimated_cost"` // in USD
	IsRequired           bool               `bson:"is_required" json:"is_required" yaml:"is_required"`
	Description          string             `bson:"description,omitempty" json:"description,omitempty" yaml:"description"`
}
