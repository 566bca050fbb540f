package main

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultRateLimit   = 10
	defaultRateBurst   = 20
	defaultRateExpires = 3 * time.Minute
	rateCleanupPeriod  = time.Minute
)

// visitor holds a per-IP limiter and the time it was last seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter tracks one token bucket per source IP.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	expires  time.Duration
	enabled  bool
	clock    Clocker
}

// NewIPRateLimiter provides a limiter configured from config. Missing
// values fall back to 10 req/s with a burst of 20.
func NewIPRateLimiter(config *RateConfig, clock Clocker) *IPRateLimiter {
	rl := &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    defaultRateLimit,
		burst:    defaultRateBurst,
		expires:  defaultRateExpires,
		clock:    clock,
	}
	if config == nil {
		return rl
	}
	rl.enabled = config.Enable
	if config.Rate > 0 {
		rl.limit = rate.Limit(config.Rate)
	}
	if config.Burst > 0 {
		rl.burst = config.Burst
	}
	if config.Expires > 0 {
		rl.expires = config.Expires
	}
	return rl
}

// Enabled tells whether requests should go through the limiter.
func (rl *IPRateLimiter) Enabled() bool {
	return rl.enabled
}

// Allow consumes one token from the bucket of ip.
func (rl *IPRateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	v, found := rl.visitors[ip]
	if !found {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = rl.clock.Now()
	return v.limiter.Allow()
}

// evict removes visitors not seen since the expiry duration.
func (rl *IPRateLimiter) evict() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.clock.Now()
	removed := 0
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.expires {
			delete(rl.visitors, ip)
			removed++
		}
	}
	return removed
}

// Cleanup evicts stale visitors every minute until ctx is done.
func (rl *IPRateLimiter) Cleanup(ctx context.Context) error {
	ticker := NewTickerFrom(rl.clock, rateCleanupPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rl.evict()
		}
	}
}
