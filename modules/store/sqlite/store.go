package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flemzord/tweetcron/internal/store"
)

// sqlStore implements store.Store backed by SQLite.
type sqlStore struct {
	db  *sql.DB
	now func() time.Time
}

func (s *sqlStore) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

// UpsertUser implements store.Users. Empty profile fields in u leave the
// stored values untouched; tokens are always overwritten.
func (s *sqlStore) UpsertUser(ctx context.Context, u store.User) (store.User, error) {
	now := formatTime(s.clock())

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, twitter_id, username, name, email, access_token, refresh_token, created_at, last_login)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			twitter_id    = COALESCE(NULLIF(excluded.twitter_id, ''), users.twitter_id),
			username      = COALESCE(NULLIF(excluded.username, ''), users.username),
			name          = COALESCE(NULLIF(excluded.name, ''), users.name),
			email         = COALESCE(NULLIF(excluded.email, ''), users.email),
			access_token  = excluded.access_token,
			refresh_token = excluded.refresh_token,
			last_login    = excluded.last_login`,
		u.ID, u.TwitterID, u.Username, u.Name, u.Email, u.AccessToken, u.RefreshToken, now, now,
	)
	if err != nil {
		return store.User{}, fmt.Errorf("sqlite: upsert user: %w", err)
	}
	return s.GetUser(ctx, u.ID)
}

// GetUser implements store.Users.
func (s *sqlStore) GetUser(ctx context.Context, id string) (store.User, error) {
	var (
		u                  store.User
		created, lastLogin string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, twitter_id, username, name, email, access_token, refresh_token, created_at, last_login
		FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.TwitterID, &u.Username, &u.Name, &u.Email, &u.AccessToken, &u.RefreshToken, &created, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, store.ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("sqlite: get user: %w", err)
	}
	u.CreatedAt = parseTime(created)
	u.LastLogin = parseTime(lastLogin)
	return u, nil
}

// TouchLogin implements store.Users.
func (s *sqlStore) TouchLogin(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE users SET last_login = ? WHERE id = ?", formatTime(s.clock()), id)
	if err != nil {
		return fmt.Errorf("sqlite: touch login: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ClearTokens implements store.Users.
func (s *sqlStore) ClearTokens(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE users SET access_token = '', refresh_token = '' WHERE id = ?", id); err != nil {
		return fmt.Errorf("sqlite: clear tokens: %w", err)
	}
	return nil
}

// RecordTweet implements store.Tweets.
func (s *sqlStore) RecordTweet(ctx context.Context, t store.Tweet) (store.Tweet, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.clock()
	}

	var posted string
	if !t.PostedAt.IsZero() {
		posted = formatTime(t.PostedAt)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tweets (id, user_id, content, schedule_id, status, twitter_post_id, error, created_at, posted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Content, t.ScheduleID, string(t.Status), t.TwitterPostID, t.Error, formatTime(t.CreatedAt), posted,
	)
	if err != nil {
		return store.Tweet{}, fmt.Errorf("sqlite: record tweet: %w", err)
	}
	return t, nil
}

// ListTweets implements store.Tweets.
func (s *sqlStore) ListTweets(ctx context.Context, userID string, limit int) ([]store.Tweet, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, content, schedule_id, status, twitter_post_id, error, created_at, posted_at
		FROM tweets WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list tweets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []store.Tweet
	for rows.Next() {
		var (
			t               store.Tweet
			status          string
			created, posted string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Content, &t.ScheduleID, &status, &t.TwitterPostID, &t.Error, &created, &posted); err != nil {
			return nil, fmt.Errorf("sqlite: scan tweet: %w", err)
		}
		t.Status = store.TweetStatus(status)
		t.CreatedAt = parseTime(created)
		t.PostedAt = parseTime(posted)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list tweets: %w", err)
	}
	return out, nil
}

// Ping implements store.Store.
func (s *sqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Timestamps are stored as fixed-width RFC 3339 text so lexical order
// matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
