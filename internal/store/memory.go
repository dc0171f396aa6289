package store

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ Store = (*Memory)(nil)

// Memory is a process-local Store used when no database module is
// configured. Contents are lost on restart.
type Memory struct {
	mu     sync.RWMutex
	users  map[string]User
	tweets []Tweet
	now    func() time.Time
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{users: make(map[string]User), now: time.Now}
}

// UpsertUser implements Users.
func (m *Memory) UpsertUser(_ context.Context, u User) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	if old, ok := m.users[u.ID]; ok {
		u.CreatedAt = old.CreatedAt
	} else {
		u.CreatedAt = now
	}
	u.LastLogin = now
	m.users[u.ID] = u
	return u, nil
}

// GetUser implements Users.
func (m *Memory) GetUser(_ context.Context, id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// TouchLogin implements Users.
func (m *Memory) TouchLogin(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.LastLogin = m.now().UTC()
	m.users[id] = u
	return nil
}

// ClearTokens implements Users.
func (m *Memory) ClearTokens(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	u.AccessToken, u.RefreshToken = "", ""
	m.users[id] = u
	return nil
}

// RecordTweet implements Tweets.
func (m *Memory) RecordTweet(_ context.Context, t Tweet) (Tweet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = m.now().UTC()
	}
	m.tweets = append(m.tweets, t)
	return t, nil
}

// ListTweets implements Tweets.
func (m *Memory) ListTweets(_ context.Context, userID string, limit int) ([]Tweet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Tweet
	for i := len(m.tweets) - 1; i >= 0; i-- {
		if m.tweets[i].UserID == userID {
			out = append(out, m.tweets[i])
		}
	}
	slices.SortStableFunc(out, func(a, b Tweet) int { return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano()) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Ping implements Store.
func (m *Memory) Ping(context.Context) error { return nil }
