package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ScheduleCreator persists validated service schedules.
type ScheduleCreator interface {
	CreateSchedule(ctx context.Context, s *models.ServiceSchedule) error
}

// ScheduleHandler handles schedule management requests
type ScheduleHandler struct {
	store ScheduleCreator
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(store ScheduleCreator) *ScheduleHandler {
	return &ScheduleHandler{store: store}
}

type intervalRequest struct {
	Value int    `json:"value"`
	Unit  string `json:"unit"`
}

// ScheduleRequest is the body of POST /api/schedules.
type ScheduleRequest struct {
	ProgramID           string           `json:"program_id"`
	Name                string           `json:"name"`
	IsActive            *bool            `json:"is_active"`
	TimeInterval        *intervalRequest `json:"time_interval"`
	TimeBuffer          *intervalRequest `json:"time_buffer"`
	MileageInterval     *float64         `json:"mileage_interval"`
	MileageBuffer       *float64         `json:"mileage_buffer"`
	FirstServiceDate    *time.Time       `json:"first_service_date"`
	FirstServiceMileage *float64         `json:"first_service_mileage"`
	TaskIDs             []string         `json:"task_ids"`
}

func (i *intervalRequest) toModel() (*models.TimeInterval, error) {
	if i == nil {
		return nil, nil
	}
	unit, err := models.ParseTimeUnit(i.Unit)
	if err != nil {
		return nil, err
	}
	return &models.TimeInterval{Value: i.Value, Unit: unit}, nil
}

// toSchedule converts the request into a schedule. Malformed IDs are
// reported as plain errors, unit problems as ErrInvalidConfiguration.
func (req ScheduleRequest) toSchedule() (*models.ServiceSchedule, error) {
	programID, err := primitive.ObjectIDFromHex(req.ProgramID)
	if err != nil {
		return nil, errors.New("invalid program_id")
	}
	s := &models.ServiceSchedule{
		ProgramID:           programID,
		Name:                req.Name,
		IsActive:            req.IsActive == nil || *req.IsActive,
		MileageInterval:     req.MileageInterval,
		MileageBuffer:       req.MileageBuffer,
		FirstServiceDate:    req.FirstServiceDate,
		FirstServiceMileage: req.FirstServiceMileage,
	}
	if s.TimeInterval, err = req.TimeInterval.toModel(); err != nil {
		return nil, err
	}
	if s.TimeBuffer, err = req.TimeBuffer.toModel(); err != nil {
		return nil, err
	}
	for _, raw := range req.TaskIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, errors.New("invalid task id " + raw)
		}
		s.TaskIDs = append(s.TaskIDs, id)
	}
	return s, nil
}

// Create handles POST /api/schedules.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	var req ScheduleRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	schedule, err := req.toSchedule()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.store.CreateSchedule(r.Context(), schedule); err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidConfiguration):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, models.ErrNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			log.WithError(err).Error("Failed to create schedule")
			http.Error(w, "Failed to create schedule", http.StatusInternalServerError)
		}
		return
	}

	fields := log.Fields{"schedule_id": schedule.ID.Hex(), "program_id": schedule.ProgramID.Hex()}
	if claims, ok := middleware.GetClaimsFromContext(r.Context()); ok {
		fields["subject"] = claims.Subject
	}
	log.WithFields(fields).Info("Created service schedule")
	writeJSON(w, http.StatusCreated, schedule)
}
