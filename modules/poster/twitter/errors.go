package twitter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/flemzord/tweetcron/internal/poster"
)

// apiError covers both the v2 problem format and the v1.1 errors array.
type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
	ErrorDescription string `json:"error_description"`
}

func (e apiError) message() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case len(e.Errors) > 0 && e.Errors[0].Message != "":
		return e.Errors[0].Message
	case e.ErrorDescription != "":
		return e.ErrorDescription
	default:
		return e.Title
	}
}

// mapHTTPError converts a non-2xx response into a poster sentinel error.
func mapHTTPError(statusCode int, body io.Reader) error {
	var ae apiError

	data, readErr := io.ReadAll(io.LimitReader(body, 4096))
	if readErr == nil && len(data) > 0 {
		_ = json.Unmarshal(data, &ae)
	}

	msg := ae.message()
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", statusCode)
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("twitter: %s: %w", msg, poster.ErrRateLimited)
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return fmt.Errorf("twitter: %s: %w", msg, poster.ErrUnauthorized)
	case statusCode == http.StatusBadRequest:
		return fmt.Errorf("twitter: %s: %w", msg, poster.ErrRejected)
	case statusCode >= 500:
		return fmt.Errorf("twitter: %s: %w", msg, poster.ErrUnavailable)
	default:
		return fmt.Errorf("twitter: %s", msg)
	}
}
