package ratelimiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// unlimited stands in for rate.Inf, which disables burst accounting entirely.
const unlimited = 1_000_000_000

// RateLimiter is a token bucket limiter for API requests.
//
// A zero rate disables limiting. All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter allowing requestsPerSecond sustained with bursts
// of up to burst requests. A burst of zero defaults to the rate.
func New(requestsPerSecond, burst uint) *RateLimiter {
	rps, b := normalize(requestsPerSecond, burst)
	return &RateLimiter{limiter: rate.NewLimiter(rps, b)}
}

func normalize(requestsPerSecond, burst uint) (rate.Limit, int) {
	if requestsPerSecond == 0 {
		return rate.Limit(unlimited), unlimited
	}
	if burst == 0 {
		burst = requestsPerSecond
	}
	return rate.Limit(requestsPerSecond), int(burst)
}

// Allow reports whether a request may proceed now, consuming a token if so.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Reconfigure updates the rate and burst in place, e.g. after a config reload.
func (r *RateLimiter) Reconfigure(requestsPerSecond, burst uint) {
	rps, b := normalize(requestsPerSecond, burst)
	r.limiter.SetLimit(rps)
	r.limiter.SetBurst(b)
}

// KeyedLimiter keeps one RateLimiter per key (client address or token).
// Limiters idle for longer than the TTL are dropped on the next Sweep.
type KeyedLimiter struct {
	mu       sync.Mutex
	rps      uint
	burst    uint
	ttl      time.Duration
	limiters map[string]*keyedEntry
	now      func() time.Time
}

type keyedEntry struct {
	limiter  *RateLimiter
	lastSeen time.Time
}

// NewKeyed creates a KeyedLimiter handing out New(rps, burst) limiters.
func NewKeyed(requestsPerSecond, burst uint, ttl time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		rps:      requestsPerSecond,
		burst:    burst,
		ttl:      ttl,
		limiters: make(map[string]*keyedEntry),
		now:      time.Now,
	}
}

// Allow reports whether the request identified by key may proceed.
func (k *KeyedLimiter) Allow(key string) bool {
	k.mu.Lock()
	e, ok := k.limiters[key]
	if !ok {
		e = &keyedEntry{limiter: New(k.rps, k.burst)}
		k.limiters[key] = e
	}
	e.lastSeen = k.now()
	k.mu.Unlock()

	return e.limiter.Allow()
}

// Reconfigure changes the rate of every tracked key and of keys seen
// later. A zero rate disables limiting.
func (k *KeyedLimiter) Reconfigure(requestsPerSecond, burst uint) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.rps, k.burst = requestsPerSecond, burst
	for _, e := range k.limiters {
		e.limiter.Reconfigure(requestsPerSecond, burst)
	}
}

// Sweep removes limiters that have not been used within the TTL and returns
// how many were removed.
func (k *KeyedLimiter) Sweep() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	cutoff := k.now().Add(-k.ttl)
	removed := 0
	for key, e := range k.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(k.limiters, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (k *KeyedLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limiters)
}
