package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrClientDisabled     = errors.New("client is disabled")
)

// ClientStore looks up API clients by ID. Implementations return an error
// wrapping models.ErrNotFound for unknown IDs.
type ClientStore interface {
	FindClient(ctx context.Context, id string) (*models.APIClient, error)
}

// StaticClients serves API clients from configuration.
type StaticClients []models.APIClient

// FindClient implements ClientStore.
func (s StaticClients) FindClient(_ context.Context, id string) (*models.APIClient, error) {
	for i := range s {
		if s[i].ID == id {
			c := s[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("client %q: %w", id, models.ErrNotFound)
}

// Service handles authentication operations
type Service struct {
	jwtSecret []byte
	tokenExp  time.Duration
	stores    []ClientStore
	now       func() time.Time
}

// NewService creates a new authentication service. Client stores are
// consulted in order.
func NewService(secret string, tokenExp time.Duration, stores ...ClientStore) (*Service, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if tokenExp <= 0 {
		return nil, errors.New("token expiry must be positive")
	}
	return &Service{
		jwtSecret: []byte(secret),
		tokenExp:  tokenExp,
		stores:    stores,
		now:       time.Now,
	}, nil
}

// HashSecret hashes a client secret using bcrypt
func HashSecret(secret string) (string, error) {
	if len(secret) < 12 {
		return "", errors.New("client secret must be at least 12 characters long")
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(bytes), nil
}

// CheckSecret checks if a secret matches a hash
func CheckSecret(secret, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	return err == nil
}

// IssueToken exchanges client credentials for a signed token.
func (s *Service) IssueToken(ctx context.Context, req models.TokenRequest) (*models.TokenResponse, error) {
	if req.ClientID == "" || req.ClientSecret == "" {
		return nil, ErrInvalidCredentials
	}
	client, err := s.findClient(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}
	if !CheckSecret(req.ClientSecret, client.SecretHash) {
		return nil, ErrInvalidCredentials
	}
	if client.Disabled {
		return nil, ErrClientDisabled
	}
	token, exp, err := s.GenerateToken(client.ID, client.Role)
	if err != nil {
		return nil, err
	}
	return &models.TokenResponse{Token: token, ExpiresAt: exp.Unix()}, nil
}

func (s *Service) findClient(ctx context.Context, id string) (*models.APIClient, error) {
	for _, store := range s.stores {
		client, err := store.FindClient(ctx, id)
		if err == nil {
			return client, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("find client: %w", err)
		}
	}
	return nil, ErrInvalidCredentials
}

// GenerateToken generates a JWT token for a subject with the given role
func (s *Service) GenerateToken(subject string, role models.Role) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.tokenExp)
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": string(role),
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*models.Claims, error) {
	// Remove "Bearer " prefix if present
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return nil, ErrInvalidToken
	}

	roleStr, ok := claims["role"].(string)
	if !ok || !models.IsValidRole(models.Role(roleStr)) {
		return nil, ErrInvalidToken
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &models.Claims{
		Subject: subject,
		Role:    models.Role(roleStr),
		Exp:     int64(exp),
	}, nil
}

// ExtractTokenFromHeader extracts token from Authorization header
func ExtractTokenFromHeader(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrInvalidToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", ErrInvalidToken
	}

	return parts[1], nil
}
