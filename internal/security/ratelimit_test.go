package security

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRateLimiter_AllowWithinLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{EventsPerMin: 5})

	for i := range 5 {
		if err := rl.Allow("messenger:1"); err != nil {
			t.Fatalf("Allow(%d) returned error: %v", i, err)
		}
	}

	// 6th should be denied.
	if err := rl.Allow("messenger:1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{EventsPerMin: 1})

	if err := rl.Allow("messenger:1"); err != nil {
		t.Fatal(err)
	}
	if err := rl.Allow("messenger:2"); err != nil {
		t.Fatalf("second sender limited by first: %v", err)
	}
	if err := rl.Allow("messenger:1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(RateLimitConfig{EventsPerMin: 2})
	rl.now = func() time.Time { return now }

	for range 2 {
		if err := rl.Allow("k"); err != nil {
			t.Fatal(err)
		}
	}
	if err := rl.Allow("k"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	now = now.Add(61 * time.Second)
	if err := rl.Allow("k"); err != nil {
		t.Fatalf("expected window to slide, got %v", err)
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{})
	if rl.config.EventsPerMin != 30 {
		t.Errorf("EventsPerMin = %d, want 30", rl.config.EventsPerMin)
	}
	if rl.config.MaxSenders != 10000 {
		t.Errorf("MaxSenders = %d, want 10000", rl.config.MaxSenders)
	}
}

func TestRateLimiter_MaxSendersEvictsIdle(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(RateLimitConfig{EventsPerMin: 5, MaxSenders: 2})
	rl.now = func() time.Time { return now }

	_ = rl.Allow("a")
	now = now.Add(time.Second)
	_ = rl.Allow("b")
	now = now.Add(time.Second)
	_ = rl.Allow("c")

	if got := rl.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
	rl.mu.Lock()
	_, hasA := rl.buckets["a"]
	rl.mu.Unlock()
	if hasA {
		t.Error("oldest sender should have been evicted")
	}
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{EventsPerMin: 1000})
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				_ = rl.Allow("shared")
			}
		}()
	}
	wg.Wait()

	if err := rl.Allow("shared"); err != nil {
		t.Fatalf("500 of 1000 used, got %v", err)
	}
}
