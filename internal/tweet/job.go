package tweet

import (
	"context"

	"github.com/flemzord/tweetcron/internal/cron"
)

var _ cron.Job = (*Job)(nil)

// Job is a recurring post. It references its user by id only.
type Job struct {
	ScheduleID string
	UserID     string
	CronExpr   string
	Content    string

	fire func(ctx context.Context, j *Job) error
}

// Name implements cron.Job.
func (j *Job) Name() string { return j.ScheduleID }

// Schedule implements cron.Job.
func (j *Job) Schedule() string { return j.CronExpr }

// Run implements cron.Job.
func (j *Job) Run(ctx context.Context) error { return j.fire(ctx, j) }
