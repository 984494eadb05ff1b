package security

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when a sender exceeds the rate limit.
var ErrRateLimited = errors.New("rate limit exceeded")

// RateLimitConfig holds configurable rate limits.
type RateLimitConfig struct {
	// EventsPerMin caps inbound events per sender. 0 uses the default.
	EventsPerMin int `yaml:"events_per_min"`
	// MaxSenders bounds the number of tracked senders. Idle senders are
	// evicted first once the bound is reached.
	MaxSenders int `yaml:"max_senders"`
}

func rateLimitConfigDefaults() RateLimitConfig {
	return RateLimitConfig{
		EventsPerMin: 30,
		MaxSenders:   10000,
	}
}

// RateLimiter implements a per-key sliding window. Keys are usually
// "<channel>:<sender>" so one noisy user cannot starve the worker pool.
type RateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	config  RateLimitConfig
	buckets map[string][]time.Time
	now     func() time.Time
}

// NewRateLimiter creates a rate limiter with the given config.
// Zero-value fields in cfg are replaced with defaults.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	defaults := rateLimitConfigDefaults()
	if cfg.EventsPerMin <= 0 {
		cfg.EventsPerMin = defaults.EventsPerMin
	}
	if cfg.MaxSenders <= 0 {
		cfg.MaxSenders = defaults.MaxSenders
	}
	return &RateLimiter{
		window:  time.Minute,
		config:  cfg,
		buckets: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow records an event for key. It returns ErrRateLimited when key
// already reached its limit within the window.
func (rl *RateLimiter) Allow(key string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	events := evict(rl.buckets[key], now.Add(-rl.window))

	if len(events) >= rl.config.EventsPerMin {
		rl.buckets[key] = events
		return ErrRateLimited
	}

	if _, known := rl.buckets[key]; !known && len(rl.buckets) >= rl.config.MaxSenders {
		rl.prune(now)
	}
	rl.buckets[key] = append(events, now)
	return nil
}

// Len returns the number of tracked keys.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// prune drops keys with no events inside the window. If that frees
// nothing, the key with the oldest last event goes. Caller holds mu.
func (rl *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-rl.window)
	for k, events := range rl.buckets {
		if len(evict(events, cutoff)) == 0 {
			delete(rl.buckets, k)
		}
	}
	if len(rl.buckets) < rl.config.MaxSenders {
		return
	}

	var oldestKey string
	var oldest time.Time
	for k, events := range rl.buckets {
		last := events[len(events)-1]
		if oldestKey == "" || last.Before(oldest) {
			oldestKey, oldest = k, last
		}
	}
	delete(rl.buckets, oldestKey)
}

// evict removes events before cutoff. Events are chronologically ordered.
func evict(events []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(events) && events[i].Before(cutoff) {
		i++
	}
	return events[i:]
}
