package gateway

import (
	"sync"
	"time"
)

// Limits configures the two fixed rate-limit windows.
type Limits struct {
	PerMinute int
	PerHour   int
}

// RateResult is the outcome of one rate-limit check.
type RateResult struct {
	Allowed bool
	// Remaining is what is left of the minute window after this request,
	// clamped to zero.
	Remaining int
	// ResetTime is when the minute window resets.
	ResetTime time.Time
}

// RateLimitStore tracks per-identifier request counters. Implementations must
// be safe for concurrent use; the in-memory store below is the single-process
// default, a shared-counter store can be swapped in for multi-instance
// deployments without touching call sites.
type RateLimitStore interface {
	// Check applies both windows for the identifier and, when allowed,
	// increments the counters.
	Check(identifier string, limits Limits) RateResult
	// Sweep evicts counters whose windows have all expired and returns the
	// number evicted.
	Sweep() int
	// Len reports the number of tracked identifiers.
	Len() int
}

type rateCounter struct {
	count           int
	resetTime       time.Time
	hourlyCount     int
	hourlyResetTime time.Time
}

// MemoryRateLimitStore is a mutex-guarded in-memory RateLimitStore. Construct
// one per process with NewMemoryRateLimitStore; never share via a package
// global so tests can run isolated instances.
type MemoryRateLimitStore struct {
	mu       sync.Mutex
	counters map[string]*rateCounter
	now      func() time.Time
}

// NewMemoryRateLimitStore returns an empty in-memory store.
func NewMemoryRateLimitStore() *MemoryRateLimitStore {
	return &MemoryRateLimitStore{
		counters: make(map[string]*rateCounter),
		now:      time.Now,
	}
}

// Check implements the dual fixed-window algorithm: expired windows reset
// before the limit test, a request at either limit is rejected without
// incrementing, and exactly PerMinute requests pass per minute window.
func (s *MemoryRateLimitStore) Check(identifier string, limits Limits) RateResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c, ok := s.counters[identifier]
	if !ok {
		c = &rateCounter{
			resetTime:       now.Add(time.Minute),
			hourlyResetTime: now.Add(time.Hour),
		}
		s.counters[identifier] = c
	}

	if now.After(c.resetTime) {
		c.count = 0
		c.resetTime = now.Add(time.Minute)
	}
	if now.After(c.hourlyResetTime) {
		c.hourlyCount = 0
		c.hourlyResetTime = now.Add(time.Hour)
	}

	if c.count >= limits.PerMinute || c.hourlyCount >= limits.PerHour {
		return RateResult{Allowed: false, Remaining: 0, ResetTime: c.resetTime}
	}

	c.count++
	c.hourlyCount++

	remaining := limits.PerMinute - c.count
	if remaining < 0 {
		remaining = 0
	}
	return RateResult{Allowed: true, Remaining: remaining, ResetTime: c.resetTime}
}

// Sweep drops counters whose minute and hourly windows have both expired.
func (s *MemoryRateLimitStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	evicted := 0
	for id, c := range s.counters {
		if now.After(c.resetTime) && now.After(c.hourlyResetTime) {
			delete(s.counters, id)
			evicted++
		}
	}
	return evicted
}

// Len reports the number of tracked identifiers.
func (s *MemoryRateLimitStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}
