package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-maintenance/internal/auth"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

const maxBodyBytes = 1 << 20

// TokenIssuer exchanges client credentials for an access token.
type TokenIssuer interface {
	IssueToken(ctx context.Context, req models.TokenRequest) (*models.TokenResponse, error)
}

// TokenHandler handles token requests
type TokenHandler struct {
	issuer TokenIssuer
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(issuer TokenIssuer) *TokenHandler {
	return &TokenHandler{issuer: issuer}
}

// IssueToken handles POST /api/auth/token.
func (h *TokenHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req models.TokenRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.ClientID == "" || req.ClientSecret == "" {
		http.Error(w, "client_id and client_secret are required", http.StatusBadRequest)
		return
	}

	resp, err := h.issuer.IssueToken(r.Context(), req)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	case errors.Is(err, auth.ErrClientDisabled):
		http.Error(w, "Client is disabled", http.StatusForbidden)
		return
	case err != nil:
		log.WithError(err).WithField("client_id", req.ClientID).Error("Failed to issue token")
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}

	log.WithField("client_id", req.ClientID).Info("Issued access token")
	writeJSON(w, http.StatusOK, resp)
}
