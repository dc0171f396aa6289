package security

import (
	"regexp"
	"slices"
	"strings"
	"sync"
)

// RedactPlaceholder is the replacement string for redacted secrets.
const RedactPlaceholder = "***REDACTED***"

// SecretSource lists secret values known at runtime.
type SecretSource interface {
	Secrets() []string
}

// Redactor replaces secrets in log output. It matches fixed patterns
// (bearer headers, OAuth2 form fields) plus literal values: static ones
// added with AddLiteral and every token ever seen by Sync.
// All methods are safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	static   []string
	dynamic  []string
	seen     map[string]struct{}
}

// NewRedactor creates a Redactor with DefaultPatterns.
func NewRedactor() *Redactor {
	return &Redactor{patterns: DefaultPatterns()}
}

// AddPattern adds a compiled regex pattern.
func (r *Redactor) AddPattern(pattern *regexp.Regexp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, pattern)
}

// AddLiteral registers a value that is always redacted, such as the OAuth2
// client secret. Empty strings are ignored.
func (r *Redactor) AddLiteral(secret string) {
	if secret == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.static = append(r.static, secret)
}

// Sync adds the current contents of src to the dynamic literals. Values
// stay redacted after they leave src, so a revoked token replayed by a
// stale client never reaches the logs. Call it after tokens are saved.
func (r *Redactor) Sync(src SecretSource) {
	values := src.Secrets()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen == nil {
		r.seen = make(map[string]struct{}, len(values))
	}
	var added []string
	for _, v := range values {
		if _, ok := r.seen[v]; ok || v == "" {
			continue
		}
		r.seen[v] = struct{}{}
		added = append(added, v)
	}
	if len(added) > 0 {
		// Copy so readers holding the previous slice are unaffected.
		r.dynamic = append(slices.Clip(r.dynamic), added...)
	}
}

// Redact replaces every known secret in s with RedactPlaceholder.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	patterns, static, dynamic := r.patterns, r.static, r.dynamic
	r.mu.RUnlock()

	for _, p := range patterns {
		s = p.ReplaceAllString(s, "${1}"+RedactPlaceholder)
	}
	for _, lits := range [][]string{static, dynamic} {
		for _, lit := range lits {
			if strings.Contains(s, lit) {
				s = strings.ReplaceAll(s, lit, RedactPlaceholder)
			}
		}
	}
	return s
}

// DefaultPatterns returns patterns for credentials that can appear in
// request dumps and upstream error bodies. Group 1 is kept.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(`((?i)bearer\s+)[A-Za-z0-9\-._~+/]+=*`),
		regexp.MustCompile(`((?:access_token|refresh_token|client_secret)=)[^&\s"]+`),
		regexp.MustCompile(`("(?:accessToken|refreshToken|access_token|refresh_token)"\s*:\s*")[^"]+`),
	}
}
