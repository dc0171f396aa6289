package cron

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLocation evaluates expressions in loc instead of time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) { s.location = loc }
}

// WithObserver registers fn to be called after every firing, including
// skipped ones.
func WithObserver(fn func(Result)) Option {
	return func(s *Scheduler) { s.observers = append(s.observers, fn) }
}

// Entry is a point-in-time view of a scheduled job.
type Entry struct {
	Job  Job
	Next time.Time // zero until the scheduler is started
}

type entry struct {
	job  Job
	id   cron.EntryID
	seq  uint64
	lock *sync.Mutex
}

// Scheduler keeps at most one live cron entry per job name. Each entry has
// its own mutex so a slow firing never overlaps with the next tick of the
// same job (TryLock: the late tick is skipped).
type Scheduler struct {
	mu        sync.Mutex
	cron      *cron.Cron
	entries   map[string]*entry
	seq       uint64
	location  *time.Location
	observers []func(Result)
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	started   bool
}

// NewScheduler creates a stopped scheduler. Jobs may be added before or
// after Start.
func NewScheduler(logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		entries:  make(map[string]*entry),
		location: time.Local,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron = cron.New(cron.WithParser(parser), cron.WithLocation(s.location))
	return s
}

// Add schedules j, replacing any job with the same name. The expression is
// validated first; on error nothing changes.
func (s *Scheduler) Add(j Job) error {
	sched, err := ParseSchedule(j.Schedule())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := j.Name()
	if old, ok := s.entries[name]; ok {
		s.cron.Remove(old.id)
		delete(s.entries, name)
		s.logger.Debug("cron: job replaced", "job", name)
	}

	s.seq++
	e := &entry{job: j, seq: s.seq, lock: &sync.Mutex{}}
	e.id = s.cron.Schedule(sched, cron.FuncJob(s.fire(e)))
	s.entries[name] = e

	s.logger.Info("cron: job scheduled", "job", name, "schedule", j.Schedule())
	return nil
}

// Remove unschedules the named job and reports whether it existed.
// A firing already in progress runs to completion.
func (s *Scheduler) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return false
	}
	s.cron.Remove(e.id)
	delete(s.entries, name)
	s.logger.Info("cron: job removed", "job", name)
	return true
}

// Get returns the scheduled job with the given name.
func (s *Scheduler) Get(name string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	if !ok {
		return nil, false
	}
	return e.job, true
}

// Entries returns the jobs accepted by keep (all jobs when keep is nil) in
// the order they were added. A replaced job moves to the end.
func (s *Scheduler) Entries(keep func(Job) bool) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		if keep == nil || keep(e.job) {
			matched = append(matched, e)
		}
	}
	slices.SortFunc(matched, func(a, b *entry) int { return cmp.Compare(a.seq, b.seq) })

	out := make([]Entry, len(matched))
	for i, e := range matched {
		out[i] = Entry{Job: e.job, Next: s.cron.Entry(e.id).Next}
	}
	return out
}

// Next returns the next activation of the named job. It is zero until the
// scheduler is started.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(e.id).Next, true
}

// Names is Entries reduced to job names.
func (s *Scheduler) Names(keep func(Job) bool) []string {
	entries := s.Entries(keep)
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Job.Name()
	}
	return names
}

// Len returns the number of scheduled jobs.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Start begins firing jobs. Calling Start twice is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.cron.Start()
	s.started = true
	s.logger.Info("cron: scheduler started", "jobs", len(s.entries))
	return nil
}

// Stop halts the scheduler, cancels the context passed to running jobs and
// waits for them to return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		s.cancel()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	s.cancel()
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("cron: scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cron: waiting for running jobs: %w", ctx.Err())
	}
}

// fire returns the cron callback for e.
func (s *Scheduler) fire(e *entry) func() {
	return func() {
		name := e.job.Name()
		if !e.lock.TryLock() {
			s.logger.Warn("cron: job still running, skipping tick", "job", name)
			s.notify(Result{Name: name, Skipped: true})
			return
		}
		defer e.lock.Unlock()

		start := time.Now()
		s.logger.Debug("cron: job started", "job", name)
		err := s.run(e.job)
		elapsed := time.Since(start)

		if err != nil {
			s.logger.Error("cron: job failed", "job", name, "error", err, "duration", elapsed)
		} else {
			s.logger.Debug("cron: job completed", "job", name, "duration", elapsed)
		}
		s.notify(Result{Name: name, Err: err, Duration: elapsed})
	}
}

// run calls job.Run, turning a panic into an error so one bad firing cannot
// take down the cron goroutine.
func (s *Scheduler) run(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cron: job %q panicked: %v", job.Name(), r)
		}
	}()
	return job.Run(s.ctx)
}

func (s *Scheduler) notify(r Result) {
	for _, fn := range s.observers {
		fn(r)
	}
}
