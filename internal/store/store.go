// Package store defines persistence for user profiles and tweet history.
// Schedules and credentials are never persisted.
package store

import (
	"context"
	"errors"
	"time"
)

// Service is the name the active Store is published under.
const Service = "store"

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("store: not found")

// User is a connected account.
type User struct {
	ID           string    `json:"id"`
	TwitterID    string    `json:"twitterId,omitempty"`
	Username     string    `json:"username,omitempty"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email,omitempty"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	LastLogin    time.Time `json:"lastLogin"`
}

// Connected reports whether the user still holds an access token.
func (u User) Connected() bool { return u.AccessToken != "" }

// TweetStatus is the outcome of a post attempt.
type TweetStatus string

// Post attempt outcomes.
const (
	StatusPosted TweetStatus = "posted"
	StatusFailed TweetStatus = "failed"
)

// Tweet is one post attempt. ScheduleID is empty for immediate posts.
type Tweet struct {
	ID            string      `json:"id"`
	UserID        string      `json:"userId"`
	Content       string      `json:"content"`
	ScheduleID    string      `json:"scheduleId,omitempty"`
	Status        TweetStatus `json:"status"`
	TwitterPostID string      `json:"twitterPostId,omitempty"`
	Error         string      `json:"error,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	PostedAt      time.Time   `json:"postedAt,omitzero"`
}

// Users persists profiles.
type Users interface {
	// UpsertUser creates or updates the profile keyed by u.ID and sets
	// LastLogin to now. CreatedAt is kept on update.
	UpsertUser(ctx context.Context, u User) (User, error)

	// GetUser returns ErrNotFound for unknown ids.
	GetUser(ctx context.Context, id string) (User, error)

	// TouchLogin sets LastLogin to now. ErrNotFound for unknown ids.
	TouchLogin(ctx context.Context, id string) error

	// ClearTokens removes the stored tokens, keeping the profile.
	ClearTokens(ctx context.Context, id string) error
}

// Tweets persists the post history.
type Tweets interface {
	// RecordTweet assigns ID and CreatedAt when unset and stores t.
	RecordTweet(ctx context.Context, t Tweet) (Tweet, error)

	// ListTweets returns the user's most recent attempts first. limit <= 0
	// means no limit.
	ListTweets(ctx context.Context, userID string, limit int) ([]Tweet, error)
}

// Store is the full persistence surface.
type Store interface {
	Users
	Tweets
	Ping(ctx context.Context) error
}
