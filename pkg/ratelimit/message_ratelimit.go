package ratelimit

import (
	"sync"
	"time"
)

type messageBucket struct {
	count         int
	windowStart   time.Time
	cooldownUntil time.Time
}

// MessageRateLimiter is the per-user chat limiter. Unlike the login limiter,
// exceeding the window starts a separate cooldown during which every message
// is refused; after the cooldown a fresh window begins.
//
//	limiter := NewMessageRateLimiter(5, 5*time.Second, 15*time.Second)
type MessageRateLimiter struct {
	mu          sync.RWMutex
	buckets     map[string]*messageBucket
	maxMessages int
	window      time.Duration
	cooldown    time.Duration
	now         func() time.Time
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewMessageRateLimiter creates the limiter and starts its cleanup goroutine.
func NewMessageRateLimiter(maxMessages int, window, cooldown time.Duration) *MessageRateLimiter {
	rl := &MessageRateLimiter{
		buckets:     make(map[string]*messageBucket),
		maxMessages: maxMessages,
		window:      window,
		cooldown:    cooldown,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow counts one message for userID and reports whether it may be sent.
func (rl *MessageRateLimiter) Allow(userID string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, exists := rl.buckets[userID]
	if !exists {
		rl.buckets[userID] = &messageBucket{count: 1, windowStart: now}
		return true
	}

	if !b.cooldownUntil.IsZero() {
		if now.Before(b.cooldownUntil) {
			return false
		}
		b.count = 1
		b.windowStart = now
		b.cooldownUntil = time.Time{}
		return true
	}

	if now.Sub(b.windowStart) > rl.window {
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	if b.count > rl.maxMessages {
		b.cooldownUntil = now.Add(rl.cooldown)
		return false
	}
	return true
}

// CooldownSeconds returns the remaining cooldown for userID, rounded up, or 0.
func (rl *MessageRateLimiter) CooldownSeconds(userID string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	b, exists := rl.buckets[userID]
	if !exists || b.cooldownUntil.IsZero() {
		return 0
	}

	remaining := b.cooldownUntil.Sub(rl.now())
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

// Stop ends the cleanup goroutine.
func (rl *MessageRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

func (rl *MessageRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(30 * time.Second)
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

// cleanup drops buckets whose window is over and that are not cooling down.
func (rl *MessageRateLimiter) cleanup() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for userID, b := range rl.buckets {
		windowExpired := now.Sub(b.windowStart) > rl.window
		cooldownExpired := b.cooldownUntil.IsZero() || now.After(b.cooldownUntil)
		if windowExpired && cooldownExpired {
			delete(rl.buckets, userID)
		}
	}
}
