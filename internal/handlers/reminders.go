package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/reminders"
)

// ReminderService computes reminder pages and summaries.
type ReminderService interface {
	Query(ctx context.Context, params reminders.QueryParams) (*models.Page[models.ServiceReminder], error)
	Summary(ctx context.Context) (*reminders.Summary, error)
}

// ReminderHandler serves the reminder listing endpoints.
type ReminderHandler struct {
	service ReminderService
}

// NewReminderHandler creates a new reminder handler
func NewReminderHandler(service ReminderService) *ReminderHandler {
	return &ReminderHandler{service: service}
}

// List handles GET /api/reminders.
func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	params, err := parseQueryParams(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.query(w, r, params)
}

// ListForVehicle handles GET /api/vehicles/{id}/reminders.
func (h *ReminderHandler) ListForVehicle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	vehicleID, err := primitive.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid vehicle ID", http.StatusBadRequest)
		return
	}
	params, err := parseQueryParams(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	params.VehicleID = &vehicleID
	h.query(w, r, params)
}

func (h *ReminderHandler) query(w http.ResponseWriter, r *http.Request, params reminders.QueryParams) {
	page, err := h.service.Query(r.Context(), params)
	if err != nil {
		if errors.Is(err, reminders.ErrBadRequest) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if errors.Is(err, context.Canceled) {
			log.WithField("path", r.URL.Path).Debug("Reminder query canceled by client")
			return
		}
		log.WithError(err).Error("Failed to compute reminders")
		http.Error(w, "Failed to compute reminders", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Summary handles GET /api/reminders/summary.
func (h *ReminderHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		log.WithError(err).Error("Failed to compute reminder summary")
		http.Error(w, "Failed to compute reminder summary", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// parseQueryParams reads the listing parameters. Range checks are left to
// QueryParams.Validate.
func parseQueryParams(q url.Values) (reminders.QueryParams, error) {
	params := reminders.QueryParams{
		PageNumber: 1,
		PageSize:   reminders.DefaultPageSize,
		Search:     q.Get("search"),
		SortBy:     q.Get("sortBy"),
	}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, fmt.Errorf("invalid page %q", v)
		}
		params.PageNumber = n
	}
	if v := q.Get("pageSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return params, fmt.Errorf("invalid pageSize %q", v)
		}
		params.PageSize = n
	}
	if v := q.Get("sortDesc"); v != "" {
		desc, err := strconv.ParseBool(v)
		if err != nil {
			return params, fmt.Errorf("invalid sortDesc %q", v)
		}
		params.SortDescending = desc
	}
	if v := q.Get("vehicleId"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return params, fmt.Errorf("invalid vehicleId %q", v)
		}
		params.VehicleID = &id
	}
	if v := q.Get("programId"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return params, fmt.Errorf("invalid programId %q", v)
		}
		params.ProgramID = &id
	}
	for _, raw := range q["status"] {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			status, ok := models.ParseReminderStatus(part)
			if !ok {
				return params, fmt.Errorf("invalid status %q", part)
			}
			params.Statuses = append(params.Statuses, status)
		}
	}
	return params, nil
}
