// Package tweet schedules recurring posts per user on top of the cron
// engine and cleans up a user's jobs and credentials on logout.
package tweet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/flemzord/tweetcron/internal/credential"
	"github.com/flemzord/tweetcron/internal/cron"
	"github.com/flemzord/tweetcron/internal/events"
	"github.com/flemzord/tweetcron/internal/poster"
	"github.com/flemzord/tweetcron/internal/store"
)

// Errors returned by the scheduler.
var (
	ErrInvalidCronExpression = errors.New("invalid cron expression")
	ErrNoCredentials         = errors.New("no credentials stored for user")
)

// Credentials is the read side of the credential store.
type Credentials interface {
	Get(userID string) (credential.Record, bool)
}

// Poster posts a single tweet.
type Poster interface {
	PostOne(ctx context.Context, accessToken, content string) (poster.Tweet, error)
}

// ScheduleInfo describes one live schedule.
type ScheduleInfo struct {
	ScheduleID     string     `json:"scheduleId"`
	CronExpression string     `json:"cronExpression"`
	Content        string     `json:"content"`
	NextRun        *time.Time `json:"nextRun,omitempty"`
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithHistory records every firing in h.
func WithHistory(h store.Tweets) Option {
	return func(s *Scheduler) { s.history = h }
}

// WithEvents publishes scheduling activity on p.
func WithEvents(p events.Publisher) Option {
	return func(s *Scheduler) { s.events = p }
}

// WithMetrics counts firings in m.
func WithMetrics(m *Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// Scheduler keeps one recurring job per schedule id. A job reads the
// user's credential at every firing, so a token refreshed after scheduling
// is picked up and a job whose user logged out fails instead of posting.
type Scheduler struct {
	engine  *cron.Scheduler
	creds   Credentials
	poster  Poster
	history store.Tweets
	events  events.Publisher
	metrics *Metrics
	logger  *slog.Logger
}

// NewScheduler wires a Scheduler onto engine. The engine's lifecycle stays
// with the caller.
func NewScheduler(engine *cron.Scheduler, creds Credentials, p Poster, opts ...Option) *Scheduler {
	s := &Scheduler{
		engine: engine,
		creds:  creds,
		poster: p,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScheduleTweet validates cronExpr and registers a recurring post of
// content for userID under scheduleID, replacing any existing job with the
// same id. Content is not validated here.
func (s *Scheduler) ScheduleTweet(scheduleID, userID, cronExpr, content string) error {
	if _, err := cron.ParseSchedule(cronExpr); err != nil {
		return fmt.Errorf("tweet: %w: %w", ErrInvalidCronExpression, err)
	}

	job := &Job{
		ScheduleID: scheduleID,
		UserID:     userID,
		CronExpr:   cronExpr,
		Content:    content,
		fire:       s.fire,
	}
	if err := s.engine.Add(job); err != nil {
		return fmt.Errorf("tweet: %w: %w", ErrInvalidCronExpression, err)
	}

	s.logger.Info("tweet scheduled", "schedule", scheduleID, "user", userID, "cron", cronExpr)
	s.publish(events.Event{Type: events.TypeScheduled, UserID: userID, ScheduleID: scheduleID})
	return nil
}

// CancelScheduledTweet stops the job and reports whether it existed. A
// firing already in progress is not interrupted.
func (s *Scheduler) CancelScheduledTweet(scheduleID string) bool {
	j, ok := s.job(scheduleID)
	if !ok || !s.engine.Remove(scheduleID) {
		return false
	}
	s.logger.Info("tweet schedule cancelled", "schedule", scheduleID, "user", j.UserID)
	s.publish(events.Event{Type: events.TypeCancelled, UserID: j.UserID, ScheduleID: scheduleID})
	return true
}

// UserSchedules returns the ids of userID's jobs in the order they were
// (re)scheduled. The result is never nil.
func (s *Scheduler) UserSchedules(userID string) []string {
	return s.engine.Names(ownedBy(userID))
}

// Describe returns userID's jobs with their next activation.
func (s *Scheduler) Describe(userID string) []ScheduleInfo {
	entries := s.engine.Entries(ownedBy(userID))
	out := make([]ScheduleInfo, 0, len(entries))
	for _, e := range entries {
		j := e.Job.(*Job)
		info := ScheduleInfo{
			ScheduleID:     j.ScheduleID,
			CronExpression: j.CronExpr,
			Content:        j.Content,
		}
		if !e.Next.IsZero() {
			next := e.Next
			info.NextRun = &next
		}
		out = append(out, info)
	}
	return out
}

// Owner returns the user owning scheduleID.
func (s *Scheduler) Owner(scheduleID string) (string, bool) {
	j, ok := s.job(scheduleID)
	if !ok {
		return "", false
	}
	return j.UserID, true
}

// Len returns the number of live jobs across all users.
func (s *Scheduler) Len() int {
	return s.engine.Len()
}

func (s *Scheduler) job(scheduleID string) (*Job, bool) {
	cj, ok := s.engine.Get(scheduleID)
	if !ok {
		return nil, false
	}
	j, ok := cj.(*Job)
	return j, ok
}

// fire runs one activation of j. Every outcome is logged, counted,
// recorded and published; the returned error never unschedules the job.
func (s *Scheduler) fire(ctx context.Context, j *Job) error {
	rec, ok := s.creds.Get(j.UserID)
	if !ok {
		s.logger.Warn("scheduled tweet skipped: no credentials", "schedule", j.ScheduleID, "user", j.UserID)
		s.metrics.fired(outcomeNoCredentials)
		s.record(ctx, j, poster.Tweet{}, ErrNoCredentials)
		return ErrNoCredentials
	}

	tw, err := s.poster.PostOne(ctx, rec.AccessToken, j.Content)
	if err != nil {
		s.logger.Error("scheduled tweet failed", "schedule", j.ScheduleID, "user", j.UserID, "error", err)
		s.metrics.fired(outcomeFailed)
		s.record(ctx, j, tw, err)
		return err
	}

	s.logger.Info("scheduled tweet posted", "schedule", j.ScheduleID, "user", j.UserID, "tweet_id", tw.ID)
	s.metrics.fired(outcomePosted)
	s.record(ctx, j, tw, nil)
	return nil
}

func (s *Scheduler) record(ctx context.Context, j *Job, tw poster.Tweet, postErr error) {
	rec := store.Tweet{
		UserID:     j.UserID,
		Content:    j.Content,
		ScheduleID: j.ScheduleID,
		Status:     store.StatusPosted,
	}
	ev := events.Event{Type: events.TypePosted, UserID: j.UserID, ScheduleID: j.ScheduleID}

	if postErr != nil {
		rec.Status = store.StatusFailed
		rec.Error = postErr.Error()
		ev.Type = events.TypeFailed
		ev.Error = postErr.Error()
	} else {
		rec.TwitterPostID = tw.ID
		rec.PostedAt = time.Now().UTC()
		ev.TweetID = tw.ID
	}

	if s.history != nil {
		if _, err := s.history.RecordTweet(context.WithoutCancel(ctx), rec); err != nil {
			s.logger.Warn("recording tweet history failed", "schedule", j.ScheduleID, "error", err)
		}
	}
	s.publish(ev)
}

func (s *Scheduler) publish(e events.Event) {
	if s.events != nil {
		s.events.Publish(e)
	}
}

func ownedBy(userID string) func(cron.Job) bool {
	return func(cj cron.Job) bool {
		j, ok := cj.(*Job)
		return ok && j.UserID == userID
	}
}
