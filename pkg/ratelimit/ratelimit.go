// Package ratelimit holds the in-memory limiters used by the HTTP layer:
// a fixed-window login limiter keyed by IP, a per-user chat limiter with a
// cooldown, and a token-bucket API limiter keyed by IP.
//
// The package imports nothing from the project, so both handlers and
// middleware can use it without import cycles.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

type bucket struct {
	count       int
	windowStart time.Time
}

// LoginRateLimiter allows maxAttempts requests per key inside window.
//
//	limiter := NewLoginRateLimiter(5, 2*time.Minute)
//	if !limiter.Allow(ip) { /* 429 */ }
//	limiter.Reset(ip) // after a successful login
type LoginRateLimiter struct {
	mu          sync.RWMutex
	buckets     map[string]*bucket
	maxAttempts int
	window      time.Duration
	now         func() time.Time
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewLoginRateLimiter creates the limiter and starts its cleanup goroutine.
func NewLoginRateLimiter(maxAttempts int, window time.Duration) *LoginRateLimiter {
	rl := &LoginRateLimiter{
		buckets:     make(map[string]*bucket),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow counts one attempt for key and reports whether it is within the limit.
func (rl *LoginRateLimiter) Allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[key]
	if !exists {
		rl.buckets[key] = &bucket{count: 1, windowStart: now}
		return true
	}

	if now.Sub(b.windowStart) > rl.window {
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	return b.count <= rl.maxAttempts
}

// Reset forgets key. Call it after a successful login.
func (rl *LoginRateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, key)
}

// RetryAfterSeconds returns the seconds left in key's window, rounded up.
func (rl *LoginRateLimiter) RetryAfterSeconds(key string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	b, exists := rl.buckets[key]
	if !exists {
		return 0
	}

	remaining := rl.window - rl.now().Sub(b.windowStart)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

// Stop ends the cleanup goroutine.
func (rl *LoginRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

func (rl *LoginRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *LoginRateLimiter) cleanup() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, b := range rl.buckets {
		if now.Sub(b.windowStart) > rl.window {
			delete(rl.buckets, key)
		}
	}
}

// FormatRetryMessage renders a wait time for humans: "2 minute(s)", "45 second(s)".
func FormatRetryMessage(seconds int) string {
	if seconds >= 60 {
		return fmt.Sprintf("%d minute(s)", seconds/60)
	}
	return fmt.Sprintf("%d second(s)", seconds)
}
