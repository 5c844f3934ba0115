package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// newRouter wires every endpoint. Handlers stay closures over their
// dependencies; the router only does dispatch.
func newRouter(db *sql.DB, engine *MatchEngine, store ProfileStore, cfg *Config, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(dataLoaderMiddleware(db))

	// Health check endpoint for Docker
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", registerHandler(db, log))
			r.Post("/login", loginHandler(db, log))
			r.Get("/me", meHandler(db))
		})

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", listProfilesHandler(db, log))
			r.Get("/me", myProfileHandler(store))
			r.Put("/me", upsertProfileHandler(db, log))
			r.Get("/{id}", getProfileHandler(store))
		})

		r.Route("/matching", func(r chi.Router) {
			r.Get("/mentors", mentorMatchesHandler(engine, log))
			r.Get("/career", careerMatchesHandler(engine, log))
			r.Get("/suggestions", suggestionsHandler(engine, log))
		})

		r.Route("/giveback", func(r chi.Router) {
			r.Post("/activity", recordActivityHandler(db, log))
			r.Get("/me", myGiveBackHandler(db))
			r.Get("/top", topContributorsHandler(db, log))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/dashboard", adminDashboardHandler(db, log))
			r.Post("/transition-students", transitionStudentsHandler(db, log))
			r.Post("/verify/{id}", verifyAlumniHandler(db, log))
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", listEventsHandler(db, log))
			r.Post("/", createEventHandler(db, log))
			r.Post("/{id}/register", registerForEventHandler(db, log))
		})

		r.Route("/opportunities", func(r chi.Router) {
			r.Get("/", listOpportunitiesHandler(db, log))
			r.Post("/", createOpportunityHandler(db, log))
			r.Get("/{id}", getOpportunityHandler(db, log))
			r.Post("/{id}/apply", applyToOpportunityHandler(db, log))
		})

		r.Route("/donations", func(r chi.Router) {
			r.Post("/", recordDonationHandler(db, log))
			r.Get("/me", myDonationsHandler(db, log))
		})

		r.Get("/messages/{peerId}", messageHistoryHandler(db))
	})

	// WebSocket messaging endpoint
	r.Get("/ws/messages", wsMessagesHandler(db, log))

	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
			)
		})
	}
}
