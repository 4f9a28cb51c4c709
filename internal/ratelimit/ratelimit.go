package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleTTL is how long a client's bucket is kept after its last request
const idleTTL = 30 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a per-client token bucket
type RateLimiter struct {
	requestsPerMinute int
	burst             int
	enabled           bool

	clients   map[string]*clientLimiter
	lastSweep time.Time
	allowed   int64
	rejected  int64
	mu        sync.Mutex
	nowFunc   func() time.Time
}

// NewRateLimiter creates a new rate limiter with the given limits
func NewRateLimiter(requestsPerMinute, burst int, enabled bool) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		burst:             burst,
		enabled:           enabled && requestsPerMinute > 0,
		clients:           make(map[string]*clientLimiter),
		nowFunc:           time.Now,
	}
}

// AllowRequest checks if a request from client is allowed
// Returns true if allowed, false if rate limit exceeded
func (rl *RateLimiter) AllowRequest(client string) bool {
	if !rl.enabled {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.nowFunc()
	rl.sweep(now)

	cl, ok := rl.clients[client]
	if !ok {
		cl = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(rl.requestsPerMinute)/60), rl.burst),
		}
		rl.clients[client] = cl
	}
	cl.lastSeen = now

	if !cl.limiter.AllowN(now, 1) {
		rl.rejected++
		return false
	}
	rl.allowed++
	return true
}

// sweep drops buckets of clients not seen for idleTTL, at most once a minute
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < time.Minute {
		return
	}
	rl.lastSweep = now
	for key, cl := range rl.clients {
		if now.Sub(cl.lastSeen) > idleTTL {
			delete(rl.clients, key)
		}
	}
}

// GetStats returns current rate limiter statistics
func (rl *RateLimiter) GetStats() Stats {
	if !rl.enabled {
		return Stats{Enabled: false}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	return Stats{
		Enabled:          true,
		TrackedClients:   len(rl.clients),
		AllowedRequests:  rl.allowed,
		RejectedRequests: rl.rejected,
		LimitPerMinute:   rl.requestsPerMinute,
		Burst:            rl.burst,
	}
}

// Stats contains rate limiter statistics
type Stats struct {
	Enabled          bool  `json:"enabled"`
	TrackedClients   int   `json:"tracked_clients"`
	AllowedRequests  int64 `json:"allowed_requests"`
	RejectedRequests int64 `json:"rejected_requests"`
	LimitPerMinute   int   `json:"limit_per_minute"`
	Burst            int   `json:"burst"`
}

// Reset clears all tracked clients (useful for testing)
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.clients = make(map[string]*clientLimiter)
	rl.allowed = 0
	rl.rejected = 0
}
