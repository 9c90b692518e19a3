package models

import (
	"time"
)

// Location represents a geographical location with latitude and longitude coordinates.
type Location struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lon float64 `bson:"lon" json:"lon"`
}

// OdometerReading is published by vehicles over MQTT and raises the
// vehicle's current mileage.
type OdometerReading struct {
	VehicleID string    `json:"vehicle_id"`
	Timestamp time.Time `json:"timestamp"`
	Mileage   float64   `json:"mileage"`
	Location  *Location `json:"location,omitempty"`
}
