package security

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRateLimiter_AllowWithinLimit(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{PostsPerMin: 5})

	for i := range 5 {
		if err := rl.Allow(KindPost, "u1"); err != nil {
			t.Fatalf("Allow(%d) returned error: %v", i, err)
		}
	}
	if err := rl.Allow(KindPost, "u1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{PostsPerMin: 1})

	if err := rl.Allow(KindPost, "u1"); err != nil {
		t.Fatal(err)
	}
	if err := rl.Allow(KindPost, "u2"); err != nil {
		t.Errorf("u2 should have its own window: %v", err)
	}
	if err := rl.Allow(KindAuth, "u1"); err != nil {
		t.Errorf("auth kind should have its own window: %v", err)
	}
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(RateLimitConfig{AuthPerMin: 2})
	rl.now = func() time.Time { return now }

	_ = rl.Allow(KindAuth, "1.2.3.4")
	_ = rl.Allow(KindAuth, "1.2.3.4")
	if err := rl.Allow(KindAuth, "1.2.3.4"); !errors.Is(err, ErrRateLimited) {
		t.Fatal("expected rate limit")
	}

	now = now.Add(61 * time.Second)
	if err := rl.Allow(KindAuth, "1.2.3.4"); err != nil {
		t.Fatalf("expected allow after window, got %v", err)
	}
}

func TestRateLimiter_AllowN(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{PostsPerMin: 3})

	if err := rl.AllowN(KindPost, "u1", 4); !errors.Is(err, ErrRateLimited) {
		t.Fatal("a thread larger than the limit must be refused")
	}
	if err := rl.AllowN(KindPost, "u1", 3); err != nil {
		t.Fatalf("refused batch must not consume budget: %v", err)
	}
	if err := rl.AllowN("unknown", "u1", 100); err != nil {
		t.Errorf("unknown kind should be unlimited: %v", err)
	}
}

func TestRateLimiter_ZeroConfigNeverLimits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     RateLimitConfig
		kind    string
		enabled bool
	}{
		{name: "empty config auth", cfg: RateLimitConfig{}, kind: KindAuth},
		{name: "empty config post", cfg: RateLimitConfig{}, kind: KindPost},
		{name: "only posts limited", cfg: RateLimitConfig{PostsPerMin: 1}, kind: KindAuth, enabled: true},
		{name: "only auth limited", cfg: RateLimitConfig{AuthPerMin: 1}, kind: KindPost, enabled: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rl := NewRateLimiter(tt.cfg)
			if rl.Enabled() != tt.enabled {
				t.Errorf("Enabled() = %v, want %v", rl.Enabled(), tt.enabled)
			}
			for i := range 500 {
				if err := rl.Allow(tt.kind, "127.0.0.1"); err != nil {
					t.Fatalf("request %d rejected: %v", i+1, err)
				}
			}
			if len(rl.windows) != 0 {
				t.Errorf("unlimited kind kept %d windows", len(rl.windows))
			}
		})
	}
}

func TestRateLimiter_Prune(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(RateLimitConfig{AuthPerMin: 10})
	rl.now = func() time.Time { return now }

	_ = rl.Allow(KindAuth, "a")
	_ = rl.Allow(KindAuth, "b")
	now = now.Add(2 * time.Minute)
	_ = rl.Allow(KindAuth, "c")

	rl.Prune()
	if len(rl.windows) != 1 {
		t.Errorf("windows = %d, want 1", len(rl.windows))
	}
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{PostsPerMin: 50})

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow(KindPost, "u1") == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("allowed = %d, want 50", allowed)
	}
}
