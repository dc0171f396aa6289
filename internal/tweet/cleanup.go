package tweet

import "log/slog"

// CredentialRemover is the write side of the credential store used on
// logout.
type CredentialRemover interface {
	Remove(userID string)
}

// Cleaner tears down a user's server-side state.
type Cleaner struct {
	scheduler *Scheduler
	creds     CredentialRemover
	logger    *slog.Logger
}

// NewCleaner creates a Cleaner.
func NewCleaner(s *Scheduler, creds CredentialRemover, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{scheduler: s, creds: creds, logger: logger}
}

// CleanupUserData cancels every job owned by userID and then removes the
// user's credentials. It is best effort and returns the number of jobs
// cancelled.
func (c *Cleaner) CleanupUserData(userID string) int {
	cancelled := 0
	for _, id := range c.scheduler.UserSchedules(userID) {
		if c.scheduler.CancelScheduledTweet(id) {
			cancelled++
		}
	}
	c.creds.Remove(userID)

	c.logger.Info("user data cleaned up", "user", userID, "cancelled", cancelled)
	return cancelled
}
