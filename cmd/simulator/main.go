package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/telemetry"
)

// Depots vehicles drive between.
var depots = []models.Location{
	{Lat: 51.5074, Lon: -0.1278}, // London
	{Lat: 51.4816, Lon: -3.1791}, // Cardiff
	{Lat: 52.4862, Lon: -1.8904}, // Birmingham
	{Lat: 53.4808, Lon: -2.2426}, // Manchester
	{Lat: 53.8008, Lon: -1.5491}, // Leeds
	{Lat: 51.4545, Lon: -2.5879}, // Bristol
	{Lat: 55.9533, Lon: -3.1883}, // Edinburgh
	{Lat: 48.8566, Lon: 2.3522},  // Paris
}

// VehicleState is the simulated position and odometer of one vehicle.
type VehicleState struct {
	VehicleID string
	Position  models.Location
	Target    models.Location
	SpeedKmh  float64
	Odometer  float64
}

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

func haversineKm(a, b models.Location) float64 {
	R := 6371.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	s := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
	return R * c
}

func lerp(a, b models.Location, t float64) models.Location {
	return models.Location{Lat: a.Lat + (b.Lat-a.Lat)*t, Lon: a.Lon + (b.Lon-a.Lon)*t}
}

func pickTarget(from models.Location) models.Location {
	for i := 0; i < 10; i++ {
		cand := depots[rand.Intn(len(depots))]
		if haversineKm(from, cand) > 50 {
			return cand
		}
	}
	return depots[0]
}

func newVehicleState(id string, odometer float64) *VehicleState {
	start := depots[rand.Intn(len(depots))]
	return &VehicleState{
		VehicleID: id,
		Position:  start,
		Target:    pickTarget(start),
		SpeedKmh:  40 + rand.Float64()*40,
		Odometer:  odometer,
	}
}

// step advances the vehicle by tickSec of driving and returns the distance
// covered in kilometres. The odometer never decreases.
func step(s *VehicleState, tickSec float64) float64 {
	s.SpeedKmh += (rand.Float64()*2 - 1) * 2
	if s.SpeedKmh < 20 {
		s.SpeedKmh = 20
	}
	if s.SpeedKmh > 110 {
		s.SpeedKmh = 110
	}

	km := s.SpeedKmh * (tickSec / 3600.0)
	left := haversineKm(s.Position, s.Target)
	if km >= left {
		s.Position = s.Target
		s.Target = pickTarget(s.Position)
	} else {
		s.Position = lerp(s.Position, s.Target, km/left)
	}
	s.Odometer += km
	return km
}

func readingFromState(s *VehicleState, at time.Time) models.OdometerReading {
	pos := s.Position
	return models.OdometerReading{
		VehicleID: s.VehicleID,
		Timestamp: at,
		Mileage:   math.Round(s.Odometer*10) / 10,
		Location:  &pos,
	}
}

func publishReading(p publisher, reading models.OdometerReading) error {
	data, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}
	token := p.Publish(telemetry.TopicFor(reading.VehicleID), 1, false, data)
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("publish timed out")
	}
	return token.Error()
}

func simulateVehicle(ctx context.Context, p publisher, s *VehicleState, interval, simulated time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
		step(s, simulated.Seconds())
		reading := readingFromState(s, time.Now().UTC())
		if err := publishReading(p, reading); err != nil {
			log.WithError(err).WithField("vehicle_id", s.VehicleID).Error("Failed to publish odometer reading")
			continue
		}
		log.WithFields(log.Fields{"vehicle_id": s.VehicleID, "mileage": reading.Mileage}).Debug("Published odometer reading")
	}
}

// parseVehicleIDs splits a comma separated list, dropping blanks.
func parseVehicleIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// loadStates starts one simulated vehicle per ID in SIM_VEHICLE_IDS, or per
// vehicle stored in Mongo when the list is empty.
func loadStates(ctx context.Context, cfg *config.Config) ([]*VehicleState, error) {
	if ids := parseVehicleIDs(os.Getenv("SIM_VEHICLE_IDS")); len(ids) > 0 {
		states := make([]*VehicleState, 0, len(ids))
		for _, id := range ids {
			states = append(states, newVehicleState(id, 0))
		}
		return states, nil
	}

	client, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoTimeout)
	if err != nil {
		return nil, err
	}
	defer client.Disconnect(context.Background())

	vehicles, err := db.NewMaintenanceStoreFromDatabase(client.Database(cfg.MongoDB)).ListVehicles(ctx)
	if err != nil {
		return nil, err
	}
	states := make([]*VehicleState, 0, len(vehicles))
	for _, v := range vehicles {
		if v.Status == "inactive" {
			continue
		}
		states = append(states, newVehicleState(v.ID.Hex(), v.CurrentMileage))
	}
	return states, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	cfg.ConfigureLogging()

	if cfg.MQTTBroker == "" {
		log.Fatal("MQTT_BROKER is required")
	}

	interval := 2 * time.Second
	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			interval = time.Duration(n) * time.Second
		}
	}
	// Each tick stands for this much driving, so mileage builds up quickly.
	simulated := 10 * time.Minute
	if v := os.Getenv("SIM_DRIVE_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			simulated = time.Duration(n) * time.Minute
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	states, err := loadStates(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to load vehicles")
	}
	if len(states) == 0 {
		log.Error("No vehicles to simulate. Set SIM_VEHICLE_IDS or seed the database. Exiting.")
		return
	}

	client := mqtt.NewClient(telemetry.ClientOptions(cfg.MQTTBroker, cfg.MQTTClientID+"-simulator", nil))
	if err := telemetry.Connect(client, 30*time.Second); err != nil {
		log.WithError(err).Fatal("Failed to connect to MQTT broker")
	}
	defer client.Disconnect(250)

	log.WithFields(log.Fields{
		"vehicles":  len(states),
		"broker":    cfg.MQTTBroker,
		"interval":  interval,
		"simulated": simulated,
	}).Info("Starting odometer simulation")

	for _, s := range states {
		go simulateVehicle(ctx, client, s, interval, simulated)
	}

	<-ctx.Done()
	log.Info("Odometer simulation stopped")
}
