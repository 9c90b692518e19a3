package handlers

import (
	"net/http"

	"github.com/ukydev/fleet-maintenance/internal/reminders"
)

// SweepReporter exposes the result of the most recent periodic sweep.
type SweepReporter interface {
	Last() *reminders.Summary
}

// SweepHandler serves the last sweep result.
type SweepHandler struct {
	sweeps SweepReporter
}

// NewSweepHandler creates a new sweep handler
func NewSweepHandler(sweeps SweepReporter) *SweepHandler {
	return &SweepHandler{sweeps: sweeps}
}

// LastSweep handles GET /api/reminders/sweep. It answers 404 until the
// first sweep has completed.
func (h *SweepHandler) LastSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	last := h.sweeps.Last()
	if last == nil {
		http.Error(w, "No sweep has completed yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, last)
}
