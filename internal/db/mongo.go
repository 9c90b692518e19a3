package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by the maintenance stores.
const (
	VehiclesCollection    = "vehicles"
	ProgramsCollection    = "service_programs"
	SchedulesCollection   = "service_schedules"
	TasksCollection       = "service_tasks"
	EnrollmentsCollection = "program_enrollments"
	ClientsCollection     = "api_clients"
)

// ConnectMongo connects to MongoDB at uri and verifies the connection with a
// ping bounded by timeout.
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// NewMaintenanceStoreFromDatabase wires a MaintenanceStore to the standard
// collections of database.
func NewMaintenanceStoreFromDatabase(database *mongo.Database) *MaintenanceStore {
	return NewMaintenanceStore(
		&MongoCollection{Collection: database.Collection(VehiclesCollection)},
		&MongoCollection{Collection: database.Collection(ProgramsCollection)},
		&MongoCollection{Collection: database.Collection(SchedulesCollection)},
		&MongoCollection{Collection: database.Collection(TasksCollection)},
		&MongoCollection{Collection: database.Collection(EnrollmentsCollection)},
	)
}
