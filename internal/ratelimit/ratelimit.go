// Package ratelimit throttles outbound calls to search backends and fetched hosts
// using a token bucket per key.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket represents a token bucket rate limiter.
// Tokens refill at a steady rate up to capacity.
type TokenBucket struct {
	capacity   int       // Maximum tokens (burst capacity)
	refillRate float64   // Tokens per second
	tokens     float64   // Current tokens available
	lastRefill time.Time // Last time tokens were refilled
	mu         sync.Mutex
}

// NewTokenBucket creates a full bucket with the given capacity and refill rate.
func NewTokenBucket(capacity int, refillRate float64) *TokenBucket {
	if capacity <= 0 {
		capacity = 1
	}
	return &TokenBucket{
		capacity:   capacity,
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// refill must be called with mu held.
func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill)
	tb.tokens = min(float64(tb.capacity), tb.tokens+elapsed.Seconds()*tb.refillRate)
	tb.lastRefill = now
}

// Allow consumes a token if one is available.
func (tb *TokenBucket) Allow() bool {
	ok, _ := tb.reserve()
	return ok
}

// reserve consumes a token, or reports how long until one is available.
func (tb *TokenBucket) reserve() (bool, time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(time.Now())
	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true, 0
	}
	if tb.refillRate <= 0 {
		return false, -1
	}
	missing := 1.0 - tb.tokens
	return false, time.Duration(missing / tb.refillRate * float64(time.Second))
}

// remaining returns the whole tokens currently available.
func (tb *TokenBucket) remaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill(time.Now())
	return int(tb.tokens)
}

// Wait blocks until a token is consumed or ctx is done.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		ok, delay := tb.reserve()
		if ok {
			return nil
		}
		if delay < 0 {
			// Never refills; only cancellation ends the wait.
			<-ctx.Done()
			return ctx.Err()
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Config controls the per-key buckets a Limiter creates.
type Config struct {
	Enabled bool
	Limit   int           // Requests per Window
	Window  time.Duration // Refill window
	Burst   int           // Bucket capacity (defaults to Limit if 0)
}

// DefaultConfig allows one request per second per key with a burst of 5.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Limit:   60,
		Window:  time.Minute,
		Burst:   5,
	}
}

// Limiter manages one token bucket per key (a search backend or a host).
type Limiter struct {
	config  Config
	buckets map[string]*TokenBucket
	mu      sync.RWMutex
}

// NewLimiter creates a limiter. A zero Limit or Window disables throttling.
func NewLimiter(config Config) *Limiter {
	if config.Limit <= 0 || config.Window <= 0 {
		config.Enabled = false
	}
	return &Limiter{
		config:  config,
		buckets: make(map[string]*TokenBucket),
	}
}

// Wait blocks until the bucket for key grants a token. A nil or disabled limiter never blocks.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	if l == nil || !l.config.Enabled {
		return ctx.Err()
	}
	return l.bucket(key).Wait(ctx)
}

// Allow reports whether key may proceed now, consuming a token if so.
func (l *Limiter) Allow(key string) bool {
	if l == nil || !l.config.Enabled {
		return true
	}
	return l.bucket(key).Allow()
}

func (l *Limiter) bucket(key string) *TokenBucket {
	l.mu.RLock()
	bucket, exists := l.buckets[key]
	l.mu.RUnlock()
	if exists {
		return bucket
	}

	capacity := l.config.Burst
	if capacity <= 0 {
		capacity = l.config.Limit
	}
	bucket = NewTokenBucket(capacity, float64(l.config.Limit)/l.config.Window.Seconds())

	l.mu.Lock()
	defer l.mu.Unlock()
	// Double-check after acquiring write lock
	if existing, exists := l.buckets[key]; exists {
		return existing
	}
	l.buckets[key] = bucket
	return bucket
}
