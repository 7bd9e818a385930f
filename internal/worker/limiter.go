package worker

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// DefaultClientIdleTimeout is how long an idle client's limiter is kept
const DefaultClientIdleTimeout = 10 * time.Minute

// Limiter implements per-client rate limiting.
// Clients that stay idle for longer than the idle timeout are forgotten.
type Limiter struct {
	clients      *gocache.Cache
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter
func NewLimiter(requestsPerSecond float64, burst int, idleTimeout time.Duration) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultClientIdleTimeout
	}

	return &Limiter{
		clients:      gocache.New(idleTimeout, idleTimeout),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// Allow checks if a request is allowed without waiting
func (l *Limiter) Allow(key string) bool {
	return l.getLimiter(key).Allow()
}

// Clients returns the number of tracked clients, including expired ones not yet cleaned up
func (l *Limiter) Clients() int {
	return l.clients.ItemCount()
}

// getLimiter returns the rate limiter for a client and pushes back its expiry
func (l *Limiter) getLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, found := l.clients.Get(key); found {
		limiter := v.(*rate.Limiter)
		l.clients.SetDefault(key, limiter)
		return limiter
	}

	limiter := rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.clients.SetDefault(key, limiter)

	return limiter
}
