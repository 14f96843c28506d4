package security

import (
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func TestRateLimiter_BurstThenLimited(t *testing.T) {
	rl := NewRateLimiter(10, 3, slog.Default())
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("demo-client") {
			t.Errorf("Allow() request %d within burst = false, want true", i+1)
		}
	}
	if rl.Allow("demo-client") {
		t.Error("Allow() past burst = true, want false")
	}
}

func TestRateLimiter_IdentifiersAreIndependent(t *testing.T) {
	rl := NewRateLimiter(10, 1, slog.Default())
	defer rl.Stop()

	if !rl.Allow("203.0.113.7") {
		t.Fatal("Allow() first request = false, want true")
	}
	if rl.Allow("203.0.113.7") {
		t.Error("Allow() exhausted identifier = true, want false")
	}

	// An exhausted bucket must not affect other identifiers.
	if !rl.Allow("203.0.113.8") {
		t.Error("Allow() fresh identifier = false, want true")
	}
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	rl := NewRateLimiter(2, 1, slog.Default())
	defer rl.Stop()

	if !rl.Allow("demo-client") {
		t.Fatal("Allow() first request = false, want true")
	}
	if rl.Allow("demo-client") {
		t.Fatal("Allow() exhausted bucket = true, want false")
	}

	// 2 req/s refills one token within 500ms.
	time.Sleep(550 * time.Millisecond)

	if !rl.Allow("demo-client") {
		t.Error("Allow() after refill = false, want true")
	}
}

func TestRateLimiter_EvictsOldestAtCapacity(t *testing.T) {
	rl := newRateLimiter(10, 5, 2, slog.Default())
	defer rl.Stop()

	rl.Allow("client-a")
	rl.Allow("client-b")
	rl.Allow("client-c") // table full, client-a is least recently used

	rl.mu.Lock()
	_, hasOldest := rl.limiters["client-a"]
	_, hasNewest := rl.limiters["client-c"]
	tracked := len(rl.limiters)
	rl.mu.Unlock()

	if tracked != 2 {
		t.Errorf("tracked identifiers = %d, want 2", tracked)
	}
	if hasOldest {
		t.Error("least recently used identifier should have been evicted")
	}
	if !hasNewest {
		t.Error("newest identifier should be tracked")
	}
}

func TestRateLimiter_EvictionFollowsRecency(t *testing.T) {
	rl := newRateLimiter(10, 5, 2, slog.Default())
	defer rl.Stop()

	rl.Allow("client-a")
	rl.Allow("client-b")
	rl.Allow("client-a") // refresh client-a, client-b becomes oldest
	rl.Allow("client-c")

	rl.mu.Lock()
	_, hasRefreshed := rl.limiters["client-a"]
	_, hasStale := rl.limiters["client-b"]
	rl.mu.Unlock()

	if !hasRefreshed {
		t.Error("recently used identifier should survive eviction")
	}
	if hasStale {
		t.Error("stale identifier should have been evicted")
	}
}

func TestRateLimiter_RemoveIdle(t *testing.T) {
	rl := NewRateLimiter(10, 5, slog.Default())
	defer rl.Stop()

	rl.Allow("client-a")
	rl.Allow("client-b")

	// Age one bucket past the idle cutoff.
	rl.mu.Lock()
	elem := rl.limiters["client-a"]
	elem.Value.(*limiterEntry).lastAccess = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	rl.removeIdle(30 * time.Minute)

	rl.mu.Lock()
	_, hasIdle := rl.limiters["client-a"]
	_, hasActive := rl.limiters["client-b"]
	rl.mu.Unlock()

	if hasIdle {
		t.Error("idle bucket should have been removed")
	}
	if !hasActive {
		t.Error("active bucket should remain")
	}
}

func TestRateLimiter_ConcurrentAllow(t *testing.T) {
	rl := NewRateLimiter(100, 100, slog.Default())
	defer rl.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			identifier := fmt.Sprintf("client-%d", id)
			for j := 0; j < 10; j++ {
				rl.Allow(identifier)
			}
		}(i)
	}
	wg.Wait()
}

func TestRateLimiter_NilLoggerDefaults(t *testing.T) {
	rl := NewRateLimiter(10, 20, nil)
	defer rl.Stop()

	if rl.logger == nil {
		t.Error("logger should default when nil is passed")
	}
}
