package ratelimit

import (
	"sync"
	"time"
)

// Limiter defines the interface for per-user rate limiting
type Limiter interface {
	// Allow checks if a request from the given user is allowed right
	// now. It never blocks; callers reject over-limit requests with a
	// "too fast" reply instead of serializing the handler pool.
	Allow(userID int64) bool
	// Reset forgets all recorded user state
	Reset()
}

// bucket is a token bucket for a single user
type bucket struct {
	tokens     int
	lastRefill time.Time
}

// PerUser implements a keyed token bucket: each user gets their own
// bucket so one chatty user cannot starve everyone else.
type PerUser struct {
	capacity     int
	refillPeriod time.Duration
	buckets      map[int64]*bucket
	lastPrune    time.Time
	mu           sync.Mutex
}

// NewPerUser creates a per-user rate limiter allowing capacity requests
// per refillPeriod for each user.
func NewPerUser(capacity int, refillPeriod time.Duration) *PerUser {
	return &PerUser{
		capacity:     capacity,
		refillPeriod: refillPeriod,
		buckets:      make(map[int64]*bucket),
		lastPrune:    time.Now(),
	}
}

// Allow checks if a request from userID can proceed
func (p *PerUser) Allow(userID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	p.maybePrune(now)

	b, ok := p.buckets[userID]
	if !ok {
		b = &bucket{tokens: p.capacity, lastRefill: now}
		p.buckets[userID] = b
	}

	if now.Sub(b.lastRefill) >= p.refillPeriod {
		b.tokens = p.capacity
		b.lastRefill = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// Reset clears all user buckets
func (p *PerUser) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buckets = make(map[int64]*bucket)
	p.lastPrune = time.Now()
}

// maybePrune drops buckets idle long enough to be full again, bounding
// memory across many one-off users. Caller holds the mutex.
func (p *PerUser) maybePrune(now time.Time) {
	if now.Sub(p.lastPrune) < 10*p.refillPeriod {
		return
	}
	for id, b := range p.buckets {
		if now.Sub(b.lastRefill) >= p.refillPeriod {
			delete(p.buckets, id)
		}
	}
	p.lastPrune = now
}
