// Package ratelimit implements the speed limit applied to free-text address
// lookups, so end-user input cannot hammer the external geocoders.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SpeedLimiter tracks one limiter per key, each allowing a single lookup per
// interval. Admin-entered addresses bypass it entirely; only end-user
// searches are gated.
type SpeedLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	limiters map[string]*rate.Limiter
}

// New creates a limiter allowing one use per key per interval.
func New(interval time.Duration) *SpeedLimiter {
	return &SpeedLimiter{
		interval: interval,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (s *SpeedLimiter) limiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Every(s.interval), 1)
		s.limiters[key] = l
	}
	return l
}

// CheckLimit returns the number of seconds until the key is allowed another
// use, or zero if it may proceed now. Checking does not consume a use.
func (s *SpeedLimiter) CheckLimit(key string) int {
	l := s.limiter(key)
	if l.Tokens() >= 1 {
		return 0
	}
	res := l.Reserve()
	delay := res.Delay()
	res.Cancel()
	secs := int(delay.Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}

// RecordUse consumes one use for the key. Called after a successful lookup.
func (s *SpeedLimiter) RecordUse(key string) {
	s.limiter(key).Allow()
}
