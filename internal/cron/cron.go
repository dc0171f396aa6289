// Package cron runs named recurring jobs on cron expressions. Jobs can be
// added, replaced and removed while the scheduler is running.
package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a recurring task.
type Job interface {
	// Name identifies the job. Adding a job whose name is already scheduled
	// replaces the existing entry.
	Name() string

	// Schedule returns a 5-field cron expression ("0 9 * * *"), a 6-field
	// expression with leading seconds, or a descriptor such as "@hourly".
	Schedule() string

	// Run executes one firing. Returned errors are logged and never
	// unschedule the job.
	Run(ctx context.Context) error
}

// ErrInvalidSchedule wraps every cron expression parse failure.
var ErrInvalidSchedule = errors.New("invalid cron expression")

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule validates expr and returns its schedule.
func ParseSchedule(expr string) (cron.Schedule, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSchedule, expr, err)
	}
	return sched, nil
}

// NextRuns returns the next n activation times of expr strictly after from.
func NextRuns(expr string, from time.Time, n int) ([]time.Time, error) {
	if n < 0 {
		return nil, fmt.Errorf("cron: negative run count %d", n)
	}
	sched, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}
	runs := make([]time.Time, 0, n)
	t := from
	for range n {
		t = sched.Next(t)
		if t.IsZero() {
			break
		}
		runs = append(runs, t)
	}
	return runs, nil
}

// Result describes the outcome of one firing, reported to observers.
type Result struct {
	Name     string
	Err      error
	Skipped  bool
	Duration time.Duration
}
