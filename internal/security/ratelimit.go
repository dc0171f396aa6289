package security

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when a caller exceeds a local rate limit.
var ErrRateLimited = errors.New("rate limit exceeded")

// Limit kinds.
const (
	KindAuth = "auth" // authenticated requests, keyed by client address
	KindPost = "post" // immediate posts and thread items, keyed by user
)

// RateLimitConfig caps events per minute for each kind. Zero leaves the
// kind unlimited.
type RateLimitConfig struct {
	AuthPerMin  int
	PostsPerMin int
}

// RateLimiter is a sliding window limiter with one window per
// (kind, key) pair.
type RateLimiter struct {
	mu      sync.Mutex
	limits  map[string]int
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	events []time.Time
}

// NewRateLimiter creates a limiter from cfg. A zero config never limits.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	limits := make(map[string]int, 2)
	if cfg.AuthPerMin > 0 {
		limits[KindAuth] = cfg.AuthPerMin
	}
	if cfg.PostsPerMin > 0 {
		limits[KindPost] = cfg.PostsPerMin
	}
	return &RateLimiter{
		limits:  limits,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// Enabled reports whether any kind is limited.
func (rl *RateLimiter) Enabled() bool {
	return rl != nil && len(rl.limits) > 0
}

// Allow records one event of kind for key, or returns ErrRateLimited.
// Unknown and unconfigured kinds are never limited.
func (rl *RateLimiter) Allow(kind, key string) error {
	return rl.AllowN(kind, key, 1)
}

// AllowN records n events at once, all or nothing.
func (rl *RateLimiter) AllowN(kind, key string, n int) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limit, ok := rl.limits[kind]
	if !ok {
		return nil
	}

	now := rl.now()
	id := kind + "\x00" + key
	w := rl.windows[id]
	if w == nil {
		w = &window{}
		rl.windows[id] = w
	}
	w.evict(now.Add(-time.Minute))

	if len(w.events)+n > limit {
		return ErrRateLimited
	}
	for range n {
		w.events = append(w.events, now)
	}
	return nil
}

// Prune drops windows with no event in the last minute.
func (rl *RateLimiter) Prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-time.Minute)
	for id, w := range rl.windows {
		w.evict(cutoff)
		if len(w.events) == 0 {
			delete(rl.windows, id)
		}
	}
}

// evict removes events before cutoff. Events are chronological.
func (w *window) evict(cutoff time.Time) {
	i := 0
	for i < len(w.events) && w.events[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		w.events = w.events[i:]
	}
}
