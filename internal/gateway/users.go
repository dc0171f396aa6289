package gateway

import (
	"cmp"
	"errors"
	"net/http"
	"time"

	"github.com/flemzord/tweetcron/internal/security"
	"github.com/flemzord/tweetcron/internal/store"
)

const defaultDisplayName = "Twitter User"

type connectResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	TwitterUsername string `json:"twitterUsername,omitempty"`
	Connected       bool   `json:"connected"`
}

type profileResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	TwitterUsername string    `json:"twitterUsername,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	LastLogin       time.Time `json:"lastLogin"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int    `json:"expiresIn,omitempty"`
}

var errGone = newAPIError(http.StatusGone, CodeGone,
	"Credentials-based signup/login is no longer supported. Please sign in with Twitter.")

// profileFromIdentity fills the profile fields the session left out.
func profileFromIdentity(id Identity) store.User {
	return store.User{
		ID:           id.UserID,
		TwitterID:    cmp.Or(id.TwitterID, id.UserID),
		Username:     id.Username,
		Name:         cmp.Or(id.Username, defaultDisplayName),
		Email:        cmp.Or(id.Email, cmp.Or(id.Username, id.UserID)+"@twitter.local"),
		AccessToken:  id.AccessToken,
		RefreshToken: id.RefreshToken,
	}
}

// handleConnect returns an http.HandlerFunc for POST /user/connect. It
// creates or updates the caller's profile.
func (g *Gateway) handleConnect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())

		u, err := g.store.UpsertUser(r.Context(), profileFromIdentity(id))
		if err != nil {
			g.writeError(w, r, err)
			return
		}
		writeOK(w, connectResponse{
			ID:              u.ID,
			Name:            u.Name,
			Email:           u.Email,
			TwitterUsername: u.Username,
			Connected:       true,
		}, "Twitter account connected successfully")
	}
}

// handleProfile returns an http.HandlerFunc for GET /user/profile.
func (g *Gateway) handleProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())

		u, err := g.store.GetUser(r.Context(), id.UserID)
		if err != nil {
			g.writeError(w, r, err)
			return
		}
		writeOK(w, profileResponse{
			ID:              u.ID,
			Name:            u.Name,
			Email:           u.Email,
			TwitterUsername: u.Username,
			CreatedAt:       u.CreatedAt,
			LastLogin:       u.LastLogin,
		}, "")
	}
}

// handleLogin returns an http.HandlerFunc for POST /user/login.
func (g *Gateway) handleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())

		if err := g.store.TouchLogin(r.Context(), id.UserID); err != nil {
			g.writeError(w, r, err)
			return
		}
		writeOK(w, nil, "Login recorded successfully")
	}
}

// handleDisconnect returns an http.HandlerFunc for POST /user/disconnect.
// The profile is kept; only its stored tokens are cleared.
func (g *Gateway) handleDisconnect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())

		if err := g.store.ClearTokens(r.Context(), id.UserID); err != nil && !errors.Is(err, store.ErrNotFound) {
			g.writeError(w, r, err)
			return
		}
		writeOK(w, nil, "Twitter account disconnected successfully")
	}
}

// handleRefreshToken returns an http.HandlerFunc for POST /token/refresh.
// The new pair replaces the caller's credentials and is returned so the
// client can rebuild its session token.
func (g *Gateway) handleRefreshToken() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())

		refreshToken := id.RefreshToken
		if rec, ok := g.creds.Get(id.UserID); ok && refreshToken == "" {
			refreshToken = rec.RefreshToken
		}

		pair, err := g.poster.Refresh(r.Context(), refreshToken)
		if err != nil {
			g.writeError(w, r, err)
			return
		}
		pair.RefreshToken = cmp.Or(pair.RefreshToken, refreshToken)

		g.creds.Save(id.UserID, pair.AccessToken, pair.RefreshToken)
		if g.redactor != nil {
			g.redactor.Sync(g.creds)
		}
		if g.store != nil {
			g.persistTokens(r, id, pair.AccessToken, pair.RefreshToken)
		}
		g.audit.Log(security.AuditEvent{Type: security.EventTokenRefresh, UserID: id.UserID})

		writeOK(w, refreshResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			ExpiresIn:    int(pair.ExpiresIn.Seconds()),
		}, "Token refreshed successfully")
	}
}

// persistTokens updates the stored profile of a connected user. Users who
// never connected are left alone.
func (g *Gateway) persistTokens(r *http.Request, id Identity, access, refresh string) {
	u, err := g.store.GetUser(r.Context(), id.UserID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			g.logger.Warn("loading profile for token refresh failed", "user", id.UserID, "error", err)
		}
		return
	}
	u.AccessToken, u.RefreshToken = access, refresh
	if _, err := g.store.UpsertUser(r.Context(), u); err != nil {
		g.logger.Warn("persisting refreshed tokens failed", "user", id.UserID, "error", err)
	}
}

// handleGone returns an http.HandlerFunc for the retired credential
// signup and login endpoints.
func (g *Gateway) handleGone() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.writeError(w, r, errGone)
	}
}
