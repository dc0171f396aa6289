package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if g.metrics != nil {
		r.Use(g.metrics.middleware)
	}

	// Public. No auth required.
	r.Get("/health", g.handleHealth())
	if g.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(g.gatherer, promhttp.HandlerOpts{}))
	}
	r.Post("/users/createUser", g.handleGone())
	r.Post("/users/login", g.handleGone())

	r.Group(func(r chi.Router) {
		r.Use(g.authMiddleware(false))

		r.Post("/tweet", g.handlePostTweet())
		r.Post("/tweet/media", g.handlePostMedia())
		r.Post("/thread", g.handlePostThread())

		r.Post("/schedule", g.handleSchedule())
		r.Delete("/schedule/{scheduleId}", g.handleCancelSchedule())
		r.Get("/schedules", g.handleListSchedules())
		r.Get("/schedules/details", g.handleScheduleDetails())

		r.Post("/logout", g.handleLogout())
		r.Post("/token/refresh", g.handleRefreshToken())

		// Profile and history need a store.
		if g.store != nil {
			r.Get("/tweets", g.handleListTweets())
			r.Route("/user", func(r chi.Router) {
				r.Post("/connect", g.handleConnect())
				r.Get("/profile", g.handleProfile())
				r.Post("/login", g.handleLogin())
				r.Post("/disconnect", g.handleDisconnect())
			})
		}
	})

	// Event stream. Browsers pass the session as ?token=.
	if g.hub != nil {
		r.With(g.authMiddleware(true)).Get("/ws/events", g.handleEvents())
	}

	return r
}

// handleEvents returns an http.HandlerFunc for GET /ws/events.
func (g *Gateway) handleEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := IdentityFrom(r.Context())
		g.hub.ServeWS(g.baseCtx, w, r, id.UserID)
	}
}
