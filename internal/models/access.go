package models

// Role represents an API caller role
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// Actions checked by the permission middleware.
const (
	ActionViewReminders   = "view_reminders"
	ActionManageSchedules = "manage_schedules"
)

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleOperator, RoleViewer:
		return true
	default:
		return false
	}
}

// Can reports whether the role may perform action.
func (r Role) Can(action string) bool {
	switch r {
	case RoleAdmin, RoleManager:
		return action == ActionViewReminders || action == ActionManageSchedules
	case RoleOperator, RoleViewer:
		return action == ActionViewReminders
	default:
		return false
	}
}

// Claims represents JWT claims
type Claims struct {
	Subject string `json:"sub"`
	Role    Role   `json:"role"`
	Exp     int64  `json:"exp"`
}

// APIClient is a machine caller allowed to exchange its secret for a token.
type APIClient struct {
	ID         string `bson:"_id" json:"id" yaml:"id"`
	SecretHash string `bson:"secret_hash" json:"-" yaml:"secret_hash"`
	Role       Role   `bson:"role" json:"role" yaml:"role"`
	Disabled   bool   `bson:"disabled" json:"disabled" yaml:"disabled"`
}

// TokenRequest is the body of POST /api/auth/token.
type TokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// TokenResponse is returned on a successful token exchange.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}
