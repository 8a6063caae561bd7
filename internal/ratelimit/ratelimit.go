// Package ratelimit enforces a per-client request budget with token
// buckets. Buckets refill at the configured requests-per-minute rate and
// idle clients are swept so the map cannot grow without bound.
package ratelimit

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/cvparse/cvparse/internal/common"
)

type Config struct {
	// RPM is the sustained request rate per client, per minute.
	RPM int
	// Burst is how many requests a client may send at once.
	Burst int
	// IdleTTL evicts a client's bucket after this much inactivity.
	IdleTTL time.Duration
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out one token bucket per client key.
type Limiter struct {
	cfg    Config
	logger *slog.Logger

	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
}

func NewLimiter(cfg Config, logger *slog.Logger) *Limiter {
	if cfg.RPM <= 0 {
		cfg.RPM = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		cfg:       cfg,
		logger:    logger,
		clients:   make(map[string]*client),
		lastSweep: time.Now(),
	}
}

// Allow consumes one token for the client, returning a RateLimited error
// when the bucket is empty.
func (l *Limiter) Allow(key string) error {
	l.mu.Lock()
	c, ok := l.clients[key]
	if !ok {
		c = &client{
			limiter: rate.NewLimiter(rate.Limit(float64(l.cfg.RPM))/60.0, l.cfg.Burst),
		}
		l.clients[key] = c
	}
	c.lastSeen = time.Now()
	l.sweepLocked()
	l.mu.Unlock()

	if !c.limiter.Allow() {
		l.logger.Warn("ratelimit.rejected", "client", key)
		return common.RateLimitedError()
	}
	return nil
}

// RetryAfter is the wait, in whole seconds, until a drained bucket earns
// its next token. Served as the Retry-After hint on rejections.
func (l *Limiter) RetryAfter() int {
	return (60 + l.cfg.RPM - 1) / l.cfg.RPM
}

// sweepLocked drops buckets idle past the TTL, at most once per TTL.
func (l *Limiter) sweepLocked() {
	now := time.Now()
	if now.Sub(l.lastSweep) < l.cfg.IdleTTL {
		return
	}
	for k, c := range l.clients {
		if now.Sub(c.lastSeen) > l.cfg.IdleTTL {
			delete(l.clients, k)
		}
	}
	l.lastSweep = now
}
