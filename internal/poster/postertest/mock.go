// Package postertest provides test helpers for the poster package.
package postertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/flemzord/tweetcron/internal/poster"
)

// MockClient is a configurable test double for poster.Client. Unset funcs
// fall back to a successful response; CreateTweet returns sequential ids
// ("1", "2", ...). All methods are safe for concurrent use.
type MockClient struct {
	CreateTweetFunc  func(ctx context.Context, accessToken string, req poster.CreateRequest) (poster.Tweet, error)
	UploadMediaFunc  func(ctx context.Context, accessToken string, media poster.MediaRef) (string, error)
	MeFunc           func(ctx context.Context, accessToken string) (poster.Identity, error)
	RefreshTokenFunc func(ctx context.Context, refreshToken string) (poster.TokenPair, error)

	mu       sync.Mutex
	created  []poster.CreateRequest
	tokens   []string
	uploads  int
	meCalls  int
	refreshs int
}

var _ poster.Client = (*MockClient)(nil)

// CreateTweet records req and delegates to CreateTweetFunc.
func (m *MockClient) CreateTweet(ctx context.Context, accessToken string, req poster.CreateRequest) (poster.Tweet, error) {
	m.mu.Lock()
	m.created = append(m.created, req)
	m.tokens = append(m.tokens, accessToken)
	n := len(m.created)
	m.mu.Unlock()

	if m.CreateTweetFunc != nil {
		return m.CreateTweetFunc(ctx, accessToken, req)
	}
	return poster.Tweet{ID: fmt.Sprint(n), Text: req.Text}, nil
}

// UploadMedia delegates to UploadMediaFunc.
func (m *MockClient) UploadMedia(ctx context.Context, accessToken string, media poster.MediaRef) (string, error) {
	m.mu.Lock()
	m.uploads++
	m.mu.Unlock()

	if m.UploadMediaFunc != nil {
		return m.UploadMediaFunc(ctx, accessToken, media)
	}
	return "media-1", nil
}

// Me delegates to MeFunc.
func (m *MockClient) Me(ctx context.Context, accessToken string) (poster.Identity, error) {
	m.mu.Lock()
	m.meCalls++
	m.mu.Unlock()

	if m.MeFunc != nil {
		return m.MeFunc(ctx, accessToken)
	}
	return poster.Identity{ID: "tw-1", Username: "someone"}, nil
}

// RefreshToken delegates to RefreshTokenFunc.
func (m *MockClient) RefreshToken(ctx context.Context, refreshToken string) (poster.TokenPair, error) {
	m.mu.Lock()
	m.refreshs++
	m.mu.Unlock()

	if m.RefreshTokenFunc != nil {
		return m.RefreshTokenFunc(ctx, refreshToken)
	}
	return poster.TokenPair{AccessToken: "new-" + refreshToken, RefreshToken: refreshToken}, nil
}

// Created returns a copy of every CreateTweet request received.
func (m *MockClient) Created() []poster.CreateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]poster.CreateRequest, len(m.created))
	copy(out, m.created)
	return out
}

// Tokens returns the access tokens passed to CreateTweet, in call order.
func (m *MockClient) Tokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.tokens))
	copy(out, m.tokens)
	return out
}

// Uploads returns the number of UploadMedia calls.
func (m *MockClient) Uploads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads
}

// MeCalls returns the number of Me calls.
func (m *MockClient) MeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meCalls
}

// Refreshes returns the number of RefreshToken calls.
func (m *MockClient) Refreshes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshs
}
