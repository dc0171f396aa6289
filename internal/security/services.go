package security

// Service names the process-wide security helpers are published under.
const (
	RedactorService    = "security.redactor"
	AuditService       = "security.audit"
	RateLimiterService = "security.ratelimit"
)
