package handlers

import (
	"net/http"

	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Router bundles the handlers and middleware served by the API.
type Router struct {
	Reminders *ReminderHandler
	Schedules *ScheduleHandler
	Tokens    *TokenHandler
	// Sweeps serves /api/reminders/sweep when set.
	Sweeps    *SweepHandler
	Auth      *middleware.AuthMiddleware
	RateLimit *middleware.RateLimitMiddleware
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// Handler builds the request multiplexer with authentication, rate limiting
// and request logging applied.
func (rt Router) Handler() http.Handler {
	mux := http.NewServeMux()
	view := rt.Auth.RequirePermission(models.ActionViewReminders)
	manage := rt.Auth.RequirePermission(models.ActionManageSchedules)

	mux.HandleFunc("/health", HealthCheck)
	if rt.Metrics != nil {
		mux.Handle("/metrics", rt.Metrics)
	}
	mux.HandleFunc("/api/auth/token", rt.Tokens.IssueToken)
	mux.Handle("/api/reminders", view(http.HandlerFunc(rt.Reminders.List)))
	mux.Handle("/api/reminders/summary", view(http.HandlerFunc(rt.Reminders.Summary)))
	if rt.Sweeps != nil {
		mux.Handle("/api/reminders/sweep", view(http.HandlerFunc(rt.Sweeps.LastSweep)))
	}
	mux.Handle("/api/vehicles/{id}/reminders", view(http.HandlerFunc(rt.Reminders.ListForVehicle)))
	mux.Handle("/api/schedules", manage(http.HandlerFunc(rt.Schedules.Create)))

	var h http.Handler = rt.Auth.Authenticate(mux)
	if rt.RateLimit != nil {
		h = rt.RateLimit.RateLimit(h)
	}
	return middleware.RequestLogger(h)
}
