package poster

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Client implementations and the Poster.
var (
	// ErrUnauthorized indicates the upstream rejected the access token (401/403).
	ErrUnauthorized = errors.New("posting api: unauthorized")

	// ErrRateLimited indicates the upstream returned 429.
	ErrRateLimited = errors.New("posting api: rate limited")

	// ErrRejected indicates the upstream refused the request as malformed (400).
	ErrRejected = errors.New("posting api: request rejected")

	// ErrUnavailable indicates a 5xx response or a transport failure.
	ErrUnavailable = errors.New("posting api: unavailable")

	// ErrEmptyContent is returned for blank post text.
	ErrEmptyContent = errors.New("content is required")

	// ErrContentTooLong is returned when text exceeds MaxContentLength.
	ErrContentTooLong = errors.New("content exceeds 280 characters")

	// ErrEmptyThread is returned when a thread has no items.
	ErrEmptyThread = errors.New("thread has no items")

	// ErrNoRefreshToken is returned by Refresh when no refresh token is known.
	ErrNoRefreshToken = errors.New("no refresh token available")
)

// IsValidation reports whether err was caused by invalid input rather than
// an upstream failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyContent) ||
		errors.Is(err, ErrContentTooLong) ||
		errors.Is(err, ErrEmptyThread)
}

// ThreadError reports the item at which a thread stopped. Index is 1-based.
type ThreadError struct {
	Index int
	Err   error
}

func (e *ThreadError) Error() string {
	return fmt.Sprintf("thread item %d: %v", e.Index, e.Err)
}

func (e *ThreadError) Unwrap() error { return e.Err }
