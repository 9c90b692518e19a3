// Package telemetry ingests odometer readings published by vehicles over
// MQTT and raises the stored vehicle mileage.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// DefaultTopic matches the odometer topic of every vehicle.
const DefaultTopic = "fleet/+/odometer"

// ErrInvalidReading is returned for payloads that cannot be applied.
var ErrInvalidReading = errors.New("invalid odometer reading")

// MileageRecorder persists odometer readings.
type MileageRecorder interface {
	RaiseVehicleMileage(ctx context.Context, vehicleID primitive.ObjectID, mileage float64, at time.Time) error
}

// Subscriber applies odometer readings received on an MQTT topic.
type Subscriber struct {
	client   mqtt.Client
	topic    string
	qos      byte
	recorder MileageRecorder
	timeout  time.Duration
	now      func() time.Time
}

// NewSubscriber creates a subscriber for topic. An empty topic means
// DefaultTopic.
func NewSubscriber(client mqtt.Client, topic string, recorder MileageRecorder) *Subscriber {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Subscriber{
		client:   client,
		topic:    topic,
		qos:      1,
		recorder: recorder,
		timeout:  10 * time.Second,
		now:      time.Now,
	}
}

// TopicFor returns the odometer topic a vehicle publishes on.
func TopicFor(vehicleID string) string {
	return fmt.Sprintf("fleet/%s/odometer", vehicleID)
}

// ClientOptions builds MQTT client options that reconnect automatically.
// onConnect runs after every (re)connection, which is where subscriptions
// must be renewed.
func ClientOptions(broker, clientID string, onConnect mqtt.OnConnectHandler) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOrderMatters(false)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.WithError(err).Warn("MQTT connection lost")
	})
	if onConnect != nil {
		opts.SetOnConnectHandler(onConnect)
	}
	return opts
}

// Connect connects client and waits at most timeout for the broker. With
// connect retry enabled the token only completes once a connection is made,
// so a timeout means the broker is unreachable.
func Connect(client mqtt.Client, timeout time.Duration) error {
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("connect to MQTT broker: timed out after %s", timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to MQTT broker: %w", err)
	}
	return nil
}

// Subscribe registers the message handler with the broker.
func (s *Subscriber) Subscribe() error {
	token := s.client.Subscribe(s.topic, s.qos, s.handleMessage)
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("subscribe to %s: timed out", s.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.topic, err)
	}
	log.WithField("topic", s.topic).Info("Subscribed to odometer readings")
	return nil
}

// Unsubscribe removes the subscription.
func (s *Subscriber) Unsubscribe() error {
	token := s.client.Unsubscribe(s.topic)
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("unsubscribe from %s: timed out", s.topic)
	}
	return token.Error()
}

func (s *Subscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	fields := log.Fields{"topic": msg.Topic()}
	if err := s.Handle(ctx, msg.Topic(), msg.Payload()); err != nil {
		switch {
		case errors.Is(err, ErrInvalidReading):
			log.WithError(err).WithFields(fields).Warn("Dropping odometer reading")
		case errors.Is(err, models.ErrNotFound):
			log.WithError(err).WithFields(fields).Warn("Odometer reading for unknown vehicle")
		default:
			log.WithError(err).WithFields(fields).Error("Failed to record odometer reading")
		}
		return
	}
	log.WithFields(fields).Debug("Recorded odometer reading")
}

// Handle decodes and applies one odometer payload received on topic.
func (s *Subscriber) Handle(ctx context.Context, topic string, payload []byte) error {
	reading, err := ParseReading(topic, payload)
	if err != nil {
		return err
	}
	vehicleID, err := primitive.ObjectIDFromHex(reading.VehicleID)
	if err != nil {
		return fmt.Errorf("%w: vehicle id %q", ErrInvalidReading, reading.VehicleID)
	}
	at := reading.Timestamp
	if at.IsZero() {
		at = s.now()
	}
	return s.recorder.RaiseVehicleMileage(ctx, vehicleID, reading.Mileage, at)
}

// ParseReading decodes a payload. The vehicle segment of the topic fills a
// missing vehicle_id and must agree with it otherwise.
func ParseReading(topic string, payload []byte) (models.OdometerReading, error) {
	var reading models.OdometerReading
	if err := json.Unmarshal(payload, &reading); err != nil {
		return reading, fmt.Errorf("%w: %v", ErrInvalidReading, err)
	}
	if fromTopic := vehicleFromTopic(topic); fromTopic != "" {
		if reading.VehicleID == "" {
			reading.VehicleID = fromTopic
		} else if reading.VehicleID != fromTopic {
			return reading, fmt.Errorf("%w: payload vehicle %q does not match topic %q", ErrInvalidReading, reading.VehicleID, topic)
		}
	}
	if reading.VehicleID == "" {
		return reading, fmt.Errorf("%w: missing vehicle_id", ErrInvalidReading)
	}
	if math.IsNaN(reading.Mileage) || math.IsInf(reading.Mileage, 0) || reading.Mileage < 0 {
		return reading, fmt.Errorf("%w: mileage %v", ErrInvalidReading, reading.Mileage)
	}
	return reading, nil
}

func vehicleFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) == 3 && parts[0] == "fleet" && parts[2] == "odometer" {
		return parts[1]
	}
	return ""
}
