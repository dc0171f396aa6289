package gateway

import (
	"cmp"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/flemzord/tweetcron/internal/poster"
	"github.com/flemzord/tweetcron/internal/security"
)

// Identity is the caller decoded from the bearer session token.
type Identity struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	TwitterID    string
	Username     string
	Email        string
}

// session is the JSON carried, base64 encoded, in the bearer token. It is
// not signed; the access token is what the upstream API trusts.
type session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ID           string `json:"id"`
	Sub          string `json:"sub"`
	TwitterID    string `json:"twitterId"`
	Username     string `json:"username"`
	Email        string `json:"email"`
}

var (
	errNoAuthToken    = newAPIError(http.StatusUnauthorized, CodeNoAuthToken, "No authorization token provided")
	errTokenFormat    = newAPIError(http.StatusUnauthorized, CodeInvalidTokenFormat, "Invalid token format")
	errInvalidSession = newAPIError(http.StatusUnauthorized, CodeInvalidSession, "Invalid session data")
	errTwitterToken   = newAPIError(http.StatusUnauthorized, CodeInvalidTwitterToken, "Invalid Twitter access token")
)

// sessionEncodings are tried in order; clients send std or URL-safe
// alphabets, with or without padding.
var sessionEncodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// EncodeSession builds a bearer token for id. Clients and tests use it.
func EncodeSession(id Identity) string {
	data, _ := json.Marshal(session{
		AccessToken:  id.AccessToken,
		RefreshToken: id.RefreshToken,
		ID:           id.UserID,
		TwitterID:    id.TwitterID,
		Username:     id.Username,
		Email:        id.Email,
	})
	return base64.StdEncoding.EncodeToString(data)
}

// decodeSession parses a bearer token. The user id is "id", falling back
// to "sub"; a token with neither, or without an access token, is rejected.
func decodeSession(token string) (Identity, error) {
	var raw []byte
	for _, enc := range sessionEncodings {
		if b, err := enc.DecodeString(token); err == nil {
			raw = b
			break
		}
	}
	if raw == nil {
		return Identity{}, errTokenFormat
	}

	var s session
	if err := json.Unmarshal(raw, &s); err != nil {
		return Identity{}, errTokenFormat
	}
	userID := cmp.Or(s.ID, s.Sub)
	if s.AccessToken == "" || userID == "" {
		return Identity{}, errInvalidSession
	}

	return Identity{
		UserID:       userID,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TwitterID:    s.TwitterID,
		Username:     s.Username,
		Email:        s.Email,
	}, nil
}

// bearerToken extracts the token from the Authorization header. When
// allowQuery is set the "token" query parameter is accepted as well;
// browsers cannot set headers on WebSocket upgrades.
func bearerToken(r *http.Request, allowQuery bool) (string, bool) {
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && after != "" {
		return after, true
	}
	if allowQuery {
		if t := r.URL.Query().Get("token"); t != "" {
			return t, true
		}
	}
	return "", false
}

type identityKey struct{}

func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the caller stored by the auth middleware.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// authMiddleware decodes the bearer session, optionally verifies it
// upstream, and stores the caller's tokens in the credential store so
// scheduled jobs fire with the latest pair. Attempts are rate limited per
// client address using the "auth" bucket.
func (g *Gateway) authMiddleware(allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr := clientAddr(r)
			if g.limiter != nil {
				if err := g.limiter.Allow(security.KindAuth, addr); err != nil {
					g.emitAuthEvent(security.EventRateLimit, r, "", "auth")
					g.writeError(w, r, err)
					return
				}
			}

			token, ok := bearerToken(r, allowQuery)
			if !ok {
				g.emitAuthEvent(security.EventAuthFailure, r, "", "missing bearer token")
				g.writeError(w, r, errNoAuthToken)
				return
			}

			id, err := decodeSession(token)
			if err != nil {
				g.emitAuthEvent(security.EventAuthFailure, r, "", err.Error())
				g.writeError(w, r, err)
				return
			}

			if g.config.Auth.VerifyUpstream {
				if err := g.verifyUpstream(r.Context(), &id); err != nil {
					g.emitAuthEvent(security.EventAuthFailure, r, id.UserID, "upstream verification failed")
					g.writeError(w, r, err)
					return
				}
			}

			g.remember(r, id)
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
		})
	}
}

// verifyUpstream checks the access token against users/me and fills the
// Twitter id and username the session left out.
func (g *Gateway) verifyUpstream(ctx context.Context, id *Identity) error {
	me, err := g.poster.Me(ctx, id.AccessToken)
	if errors.Is(err, poster.ErrUnauthorized) {
		return errTwitterToken
	}
	if err != nil {
		return err
	}
	id.TwitterID = cmp.Or(id.TwitterID, me.ID)
	id.Username = cmp.Or(id.Username, me.Username)
	return nil
}

// remember saves the caller's tokens when they differ from the stored pair
// and re-syncs the log redactor.
func (g *Gateway) remember(r *http.Request, id Identity) {
	if rec, ok := g.creds.Get(id.UserID); ok &&
		rec.AccessToken == id.AccessToken && rec.RefreshToken == id.RefreshToken {
		return
	}
	g.creds.Save(id.UserID, id.AccessToken, id.RefreshToken)
	if g.redactor != nil {
		g.redactor.Sync(g.creds)
	}
	g.emitAuthEvent(security.EventAuthSuccess, r, id.UserID, "credentials stored")
}

// emitAuthEvent logs an auth event to the audit logger if available.
func (g *Gateway) emitAuthEvent(eventType security.EventType, r *http.Request, userID, detail string) {
	g.audit.Log(security.AuditEvent{
		Type:       eventType,
		UserID:     userID,
		RemoteAddr: clientAddr(r),
		Detail:     detail,
		Metadata: map[string]string{
			"method": r.Method,
			"path":   r.URL.Path,
		},
	})
}

// clientAddr strips the port from r.RemoteAddr.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
