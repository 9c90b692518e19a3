package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-maintenance/internal/auth"
	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/handlers"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/reminders"
	"github.com/ukydev/fleet-maintenance/internal/sweep"
	"github.com/ukydev/fleet-maintenance/internal/telemetry"
)

// newAPI wires the HTTP surface on top of an engine and schedule store.
func newAPI(cfg *config.Config, engine handlers.ReminderService, schedules handlers.ScheduleCreator, sweeps handlers.SweepReporter, metrics http.Handler, stores ...auth.ClientStore) (http.Handler, error) {
	authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry, stores...)
	if err != nil {
		return nil, err
	}
	limiter, err := middleware.NewRateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow, cfg.RateLimitClients)
	if err != nil {
		return nil, err
	}
	rt := handlers.Router{
		Reminders: handlers.NewReminderHandler(engine),
		Schedules: handlers.NewScheduleHandler(schedules),
		Tokens:    handlers.NewTokenHandler(authService),
		Auth:      middleware.NewAuthMiddleware(authService),
		RateLimit: limiter,
		Metrics:   metrics,
	}
	if sweeps != nil {
		rt.Sweeps = handlers.NewSweepHandler(sweeps)
	}
	return rt.Handler(), nil
}

func startTelemetry(cfg *config.Config, store telemetry.MileageRecorder) (mqtt.Client, error) {
	var sub *telemetry.Subscriber
	opts := telemetry.ClientOptions(cfg.MQTTBroker, cfg.MQTTClientID, func(mqtt.Client) {
		if err := sub.Subscribe(); err != nil {
			log.WithError(err).Error("Failed to subscribe to odometer topic")
		}
	})
	client := mqtt.NewClient(opts)
	sub = telemetry.NewSubscriber(client, cfg.MQTTTopic, store)
	if err := telemetry.Connect(client, 10*time.Second); err != nil {
		client.Disconnect(0)
		return nil, err
	}
	return client, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	cfg.ConfigureLogging()
	if cfg.UsesDefaultSecret() {
		log.Warn("JWT_SECRET is not set; using the development default")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoTimeout)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	database := client.Database(cfg.MongoDB)
	store := db.NewMaintenanceStoreFromDatabase(database)
	engine := reminders.NewEngine(store,
		reminders.WithMetrics(reminders.DefaultMetrics()),
		reminders.WithWorkers(cfg.EvaluationWorkers),
	)

	loc, err := time.LoadLocation(cfg.SweepTimezone)
	if err != nil {
		log.WithError(err).Fatal("Invalid sweep timezone")
	}
	sweeper, err := sweep.New(engine, cfg.SweepSchedule, loc,
		sweep.WithTimeout(cfg.SweepTimeout),
		sweep.WithRegisterer(prometheus.DefaultRegisterer),
	)
	if err != nil {
		log.WithError(err).Fatal("Failed to schedule reminder sweep")
	}
	sweeper.Start(ctx)
	defer sweeper.Stop()

	api, err := newAPI(cfg, engine, store, sweeper, promhttp.Handler(),
		auth.StaticClients(cfg.APIClients),
		&db.ClientCollection{Collection: &db.MongoCollection{Collection: database.Collection(db.ClientsCollection)}},
	)
	if err != nil {
		log.WithError(err).Fatal("Failed to build API")
	}

	if cfg.MQTTBroker != "" {
		mq, err := startTelemetry(cfg, store)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to MQTT broker")
		}
		defer mq.Disconnect(250)
		log.WithField("broker", cfg.MQTTBroker).Info("Odometer ingestion enabled")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}
}
