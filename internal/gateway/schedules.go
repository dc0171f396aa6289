package gateway

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/flemzord/tweetcron/internal/poster"
	"github.com/flemzord/tweetcron/internal/security"
)

type scheduleRequest struct {
	ScheduleID     string `json:"scheduleId"`
	CronExpression string `json:"cronExpression"`
	Content        string `json:"content"`
}

type scheduleResponse struct {
	ScheduleID string `json:"scheduleId"`
}

var errScheduleNotFound = newAPIError(http.StatusNotFound, CodeNotFound, "Schedule not found")

// qualifyScheduleID prefixes id with the owner's user id. Ids that already
// carry the prefix are returned unchanged.
func qualifyScheduleID(userID, id string) string {
	prefix := userID + "_"
	if strings.HasPrefix(id, prefix) {
		return id
	}
	return prefix + id
}

// handleSchedule returns an http.HandlerFunc for POST /schedule.
func (g *Gateway) handleSchedule() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())

		var req scheduleRequest
		if err := security.DecodeJSON(r.Body, &req); err != nil {
			g.writeError(w, r, err)
			return
		}
		if strings.TrimSpace(req.ScheduleID) == "" || strings.TrimSpace(req.CronExpression) == "" {
			g.writeError(w, r, validationError("scheduleId, cronExpression and content are required"))
			return
		}
		if err := poster.ValidateContent(req.Content); err != nil {
			g.writeError(w, r, err)
			return
		}

		scheduleID := qualifyScheduleID(id.UserID, req.ScheduleID)
		if owner, ok := g.scheduler.Owner(scheduleID); ok && owner != id.UserID {
			g.writeError(w, r, newAPIError(http.StatusConflict, CodeConflict, "Schedule id already in use"))
			return
		}

		if err := g.scheduler.ScheduleTweet(scheduleID, id.UserID, req.CronExpression, req.Content); err != nil {
			g.writeError(w, r, err)
			return
		}
		g.audit.Log(security.AuditEvent{
			Type:       security.EventScheduleCreate,
			UserID:     id.UserID,
			ScheduleID: scheduleID,
			Metadata:   map[string]string{"cron": req.CronExpression},
		})
		writeOK(w, scheduleResponse{ScheduleID: scheduleID}, "Tweet scheduled successfully")
	}
}

// handleListSchedules returns an http.HandlerFunc for GET /schedules.
func (g *Gateway) handleListSchedules() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())
		writeJSON(w, http.StatusOK, envelope{Success: true, Data: g.scheduler.UserSchedules(id.UserID)})
	}
}

// handleScheduleDetails returns an http.HandlerFunc for
// GET /schedules/details.
func (g *Gateway) handleScheduleDetails() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())
		writeJSON(w, http.StatusOK, envelope{Success: true, Data: g.scheduler.Describe(id.UserID)})
	}
}

// handleCancelSchedule returns an http.HandlerFunc for
// DELETE /schedule/{scheduleId}. Other users' schedules are reported as
// not found.
func (g *Gateway) handleCancelSchedule() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())
		scheduleID := qualifyScheduleID(id.UserID, chi.URLParam(r, "scheduleId"))

		if owner, ok := g.scheduler.Owner(scheduleID); !ok || owner != id.UserID {
			g.writeError(w, r, errScheduleNotFound)
			return
		}
		if !g.scheduler.CancelScheduledTweet(scheduleID) {
			g.writeError(w, r, errScheduleNotFound)
			return
		}
		g.audit.Log(security.AuditEvent{Type: security.EventScheduleCancel, UserID: id.UserID, ScheduleID: scheduleID})
		writeOK(w, nil, "Schedule cancelled")
	}
}

// handleLogout returns an http.HandlerFunc for POST /logout. It cancels
// every schedule of the caller and forgets their tokens.
func (g *Gateway) handleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())

		cancelled := g.cleaner.CleanupUserData(id.UserID)
		if g.redactor != nil {
			g.redactor.Sync(g.creds)
		}
		g.audit.Log(security.AuditEvent{Type: security.EventLogout, UserID: id.UserID})
		writeOK(w, map[string]int{"cancelled": cancelled}, "Logged out successfully")
	}
}
