package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// APIRateLimiter is a token bucket per key (client IP) backed by
// golang.org/x/time/rate. Idle keys are evicted after idleTTL.
type APIRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewAPIRateLimiter allows rps requests per second with the given burst.
// rps <= 0 disables limiting.
func NewAPIRateLimiter(rps float64, burst int) *APIRateLimiter {
	if burst < 1 {
		burst = 1
	}
	rl := &APIRateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		idleTTL:  3 * time.Minute,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Enabled reports whether the limiter restricts anything.
func (rl *APIRateLimiter) Enabled() bool {
	return rl.rps > 0
}

// Allow takes one token from key's bucket.
func (rl *APIRateLimiter) Allow(key string) bool {
	if !rl.Enabled() {
		return true
	}

	now := rl.now()

	rl.mu.Lock()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	rl.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// RetryAfterSeconds estimates when key gets its next token.
func (rl *APIRateLimiter) RetryAfterSeconds() int {
	if !rl.Enabled() {
		return 0
	}
	secs := int(1 / float64(rl.rps))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Stop ends the cleanup goroutine.
func (rl *APIRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *APIRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

func (rl *APIRateLimiter) cleanup() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idleTTL {
			delete(rl.visitors, key)
		}
	}
}
