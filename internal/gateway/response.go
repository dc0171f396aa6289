package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/flemzord/tweetcron/internal/poster"
	"github.com/flemzord/tweetcron/internal/security"
	"github.com/flemzord/tweetcron/internal/store"
	"github.com/flemzord/tweetcron/internal/tweet"
)

// Error codes returned in the "code" field.
const (
	CodeNoAuthToken         = "NO_AUTH_TOKEN"
	CodeInvalidTokenFormat  = "INVALID_TOKEN_FORMAT"
	CodeInvalidSession      = "INVALID_SESSION"
	CodeInvalidTwitterToken = "INVALID_TWITTER_TOKEN"
	CodeAuthFailed          = "AUTH_FAILED"
	CodeTwitterAuthFailed   = "TWITTER_AUTH_FAILED"
	CodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeGone                = "GONE"
	CodeInternal            = "INTERNAL_ERROR"
)

// envelope is the success body shared by every JSON endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// errorBody is the failure body.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`

	// Thread failures only.
	Index  int            `json:"index,omitempty"`
	Posted []poster.Tweet `json:"posted,omitempty"`
}

// apiError carries an explicit status and code to writeError.
type apiError struct {
	status int
	code   string
	msg    string
	err    error
}

func (e *apiError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *apiError) Unwrap() error { return e.err }

func newAPIError(status int, code, msg string) *apiError {
	return &apiError{status: status, code: code, msg: msg}
}

func validationError(format string, args ...any) *apiError {
	return &apiError{status: http.StatusBadRequest, code: CodeValidation, msg: fmt.Sprintf(format, args...)}
}

// classify maps err onto a status, code and public message.
func classify(err error) (int, string, string) {
	var ae *apiError
	switch {
	case errors.As(err, &ae):
		return ae.status, ae.code, ae.msg
	case poster.IsValidation(err),
		errors.Is(err, tweet.ErrInvalidCronExpression),
		errors.Is(err, poster.ErrNoRefreshToken),
		errors.Is(err, security.ErrInvalidJSON),
		errors.Is(err, security.ErrJSONTooDeep),
		errors.Is(err, security.ErrBodyTooLarge):
		return http.StatusBadRequest, CodeValidation, validationMessage(err)
	case errors.Is(err, poster.ErrUnauthorized):
		return http.StatusUnauthorized, CodeTwitterAuthFailed, "Twitter authentication failed. Please re-login."
	case errors.Is(err, poster.ErrRateLimited), errors.Is(err, security.ErrRateLimited):
		return http.StatusTooManyRequests, CodeRateLimitExceeded, "Rate limit exceeded. Please try again later."
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, CodeNotFound, "User not found"
	default:
		return http.StatusInternalServerError, CodeInternal, "Internal server error"
	}
}

// validationMessage picks the client-facing text for a validation failure.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, poster.ErrEmptyContent):
		return "Tweet content is required"
	case errors.Is(err, poster.ErrContentTooLong):
		return fmt.Sprintf("Tweet exceeds %d characters", poster.MaxContentLength)
	case errors.Is(err, poster.ErrEmptyThread):
		return "Thread must contain at least one tweet"
	case errors.Is(err, tweet.ErrInvalidCronExpression):
		return "Invalid cron expression"
	case errors.Is(err, poster.ErrNoRefreshToken):
		return "No refresh token available"
	case errors.Is(err, security.ErrBodyTooLarge):
		return "Request body too large"
	default:
		return "Invalid request body"
	}
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeOK writes a success envelope.
func writeOK(w http.ResponseWriter, data any, message string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Message: message})
}

// writeError maps err to an error body and writes it.
func (g *Gateway) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := g.errorResponse(r, err)
	writeJSON(w, status, body)
}

// errorResponse builds the failure body for err. 5xx errors are logged;
// the internal error text is only exposed when Debug is on.
func (g *Gateway) errorResponse(r *http.Request, err error) (int, errorBody) {
	status, code, msg := classify(err)
	body := errorBody{Error: msg, Code: code}

	var te *poster.ThreadError
	if errors.As(err, &te) {
		body.Index = te.Index
		body.Error = fmt.Sprintf("Tweet %d: %s", te.Index, msg)
	}
	if g.config.Debug {
		body.Message = err.Error()
	}

	if status >= http.StatusInternalServerError {
		g.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		g.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	return status, body
}
