package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/middleware"
	"github.com/Santiagopro2002/Denuncias-gad-api/pkg/logger"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	JWTSecret         string
	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration

	Health        *HealthHandler
	Conversations *ConversationHandler
	Messages      *MessageHandler
	Complaints    *ComplaintHandler
	Logger        *logger.Logger
}

// NewRouter builds the API routes.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", cfg.Health.Health)
	r.Get("/ready", cfg.Health.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RequireCitizen)
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/chatbot", func(r chi.Router) {
			r.Post("/start", cfg.Conversations.Start)
			r.Post("/message", cfg.Messages.Send)
			r.Get("/conversations/{id}/messages", cfg.Conversations.Turns)
		})

		r.Get("/categories", cfg.Complaints.Categories)

		r.Route("/complaints", func(r chi.Router) {
			r.Post("/", cfg.Complaints.Create)
			r.Get("/mine", cfg.Complaints.Mine)
			r.Get("/map", cfg.Complaints.Map)
		})
	})

	return r
}
