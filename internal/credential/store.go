// Package credential keeps the current access/refresh token pair of every
// signed-in user. State lives in memory only and is lost on restart.
package credential

import (
	"slices"
	"sync"
)

// Record is the credential pair stored for one user.
type Record struct {
	UserID       string
	AccessToken  string
	RefreshToken string
}

// Store maps user IDs to their latest Record. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{records: make(map[string]Record)}
}

// Save stores the user's tokens, replacing any previous record.
func (s *Store) Save(userID, accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[userID] = Record{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
}

// Get returns the user's record, or false when none is stored.
func (s *Store) Get(userID string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[userID]
	return rec, ok
}

// Remove deletes the user's record. Removing an absent user is a no-op.
func (s *Store) Remove(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, userID)
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Secrets returns every non-empty token value, sorted. The log redactor is
// synced from this list.
func (s *Store) Secrets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	secrets := make([]string, 0, 2*len(s.records))
	for _, rec := range s.records {
		if rec.AccessToken != "" {
			secrets = append(secrets, rec.AccessToken)
		}
		if rec.RefreshToken != "" {
			secrets = append(secrets, rec.RefreshToken)
		}
	}
	slices.Sort(secrets)
	return secrets
}

// Service is the name the process-wide Store is published under.
const Service = "credentials"
