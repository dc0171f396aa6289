// Package securitytest provides test doubles for the security package.
package securitytest

import (
	"sync"

	"github.com/flemzord/tweetcron/internal/security"
)

// NewTestRedactor creates a Redactor with no patterns, so tests can log
// token-like strings verbatim unless they register literals.
func NewTestRedactor() *security.Redactor {
	return &security.Redactor{}
}

// StaticSecrets is a fixed security.SecretSource.
type StaticSecrets []string

// Secrets implements security.SecretSource.
func (s StaticSecrets) Secrets() []string { return s }

// NewTestAuditLogger creates an AuditLogger that records events in memory.
// The returned func yields a snapshot of the recorded events.
func NewTestAuditLogger() (*security.AuditLogger, func() []security.AuditEvent) {
	var (
		mu     sync.Mutex
		events []security.AuditEvent
	)
	logger := security.NewAuditLogger(security.AuditLoggerConfig{
		OnEvent: func(e security.AuditEvent) {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		},
	})
	return logger, func() []security.AuditEvent {
		mu.Lock()
		defer mu.Unlock()
		return append([]security.AuditEvent(nil), events...)
	}
}
