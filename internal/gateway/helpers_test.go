package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flemzord/tweetcron/internal/credential"
	"github.com/flemzord/tweetcron/internal/cron"
	"github.com/flemzord/tweetcron/internal/events"
	"github.com/flemzord/tweetcron/internal/poster"
	"github.com/flemzord/tweetcron/internal/poster/postertest"
	"github.com/flemzord/tweetcron/internal/security"
	"github.com/flemzord/tweetcron/internal/security/securitytest"
	"github.com/flemzord/tweetcron/internal/store"
	"github.com/flemzord/tweetcron/internal/tweet"
)

// testEnv is a fully wired gateway over in-memory fakes.
type testEnv struct {
	gw      *Gateway
	handler http.Handler
	client  *postertest.MockClient
	creds   *credential.Store
	store   *store.Memory
	sched   *tweet.Scheduler
	engine  *cron.Scheduler
	hub     *events.Hub
	reg     *prometheus.Registry
	audit   func() []security.AuditEvent
}

func newTestEnv(t *testing.T, mutate ...func(*Gateway)) *testEnv {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	engine := cron.NewScheduler(logger, cron.WithLocation(time.UTC))
	t.Cleanup(func() { _ = engine.Stop(context.Background()) })

	env := &testEnv{
		client: &postertest.MockClient{},
		creds:  credential.NewStore(),
		store:  store.NewMemory(),
		hub:    events.NewHub(logger),
		reg:    prometheus.NewRegistry(),
		engine: engine,
	}
	p := poster.New(env.client, poster.WithThreadDelay(0))
	env.sched = tweet.NewScheduler(engine, env.creds, p,
		tweet.WithLogger(logger),
		tweet.WithHistory(env.store),
		tweet.WithEvents(env.hub),
	)

	var auditLogger *security.AuditLogger
	auditLogger, env.audit = securitytest.NewTestAuditLogger()

	env.gw = &Gateway{
		logger:    logger,
		baseCtx:   t.Context(),
		creds:     env.creds,
		scheduler: env.sched,
		cleaner:   tweet.NewCleaner(env.sched, env.creds, logger),
		poster:    p,
		store:     env.store,
		hub:       env.hub,
		gatherer:  env.reg,
		metrics:   NewMetrics(env.reg),
		redactor:  security.NewRedactor(),
		audit:     auditLogger,
		limiter:   security.NewRateLimiter(security.RateLimitConfig{AuthPerMin: 1000, PostsPerMin: 1000}),
	}
	env.gw.config.defaults()
	for _, m := range mutate {
		m(env.gw)
	}
	env.handler = env.gw.buildRouter()
	return env
}

// sessionFor builds the bearer token of a test user.
func sessionFor(userID string) string {
	return EncodeSession(Identity{
		UserID:       userID,
		AccessToken:  "at-" + userID,
		RefreshToken: "rt-" + userID,
		Username:     userID + "_name",
	})
}

// do sends a request with an optional JSON body and bearer token.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rd = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

// apiResponse is the union of success and error bodies.
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Index   int             `json:"index"`
	Posted  []poster.Tweet  `json:"posted"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return resp
}

func decodeData[T any](t *testing.T, resp apiResponse) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(resp.Data, &v); err != nil {
		t.Fatalf("decode data %s: %v", resp.Data, err)
	}
	return v
}

func wantStatus(t *testing.T, rr *httptest.ResponseRecorder, status int) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, status, rr.Body.String())
	}
}

func newRecorder(e *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

// jobFor returns the cron job registered under scheduleID.
func jobFor(e *testEnv, scheduleID string) (cron.Job, bool) {
	return e.engine.Get(scheduleID)
}
