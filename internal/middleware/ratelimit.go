package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"
)

// RateLimitMiddleware provides sliding-window rate limiting per client IP.
// At most maxClients IPs are tracked; the least recently seen is evicted.
type RateLimitMiddleware struct {
	requests    *lru.Cache[string, []time.Time]
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	now         func() time.Time
}

// NewRateLimitMiddleware creates a new rate limiting middleware
func NewRateLimitMiddleware(maxRequests int, window time.Duration, maxClients int) (*RateLimitMiddleware, error) {
	cache, err := lru.New[string, []time.Time](maxClients)
	if err != nil {
		return nil, err
	}
	return &RateLimitMiddleware{
		requests:    cache,
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}, nil
}

// allow records a request from clientIP and reports whether it fits in the
// window.
func (m *RateLimitMiddleware) allow(clientIP string) bool {
	now := m.now()
	windowStart := now.Add(-m.window)

	m.mu.Lock()
	defer m.mu.Unlock()

	timestamps, _ := m.requests.Get(clientIP)
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if ts.After(windowStart) {
			valid = append(valid, ts)
		}
	}
	if len(valid) >= m.maxRequests {
		m.requests.Add(clientIP, valid)
		return false
	}
	m.requests.Add(clientIP, append(valid, now))
	return true
}

// RateLimit applies rate limiting based on IP address
func (m *RateLimitMiddleware) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := getClientIP(r)
		if !m.allow(clientIP) {
			log.WithField("client_ip", clientIP).Warn("Rate limit exceeded")
			w.Header().Set("Retry-After", strconv.Itoa(int(m.window.Seconds())))
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// Check for forwarded headers first
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	// Fall back to remote address
	ip := r.RemoteAddr
	if colonIndex := strings.LastIndex(ip, ":"); colonIndex != -1 {
		ip = ip[:colonIndex]
	}
	return ip
}
