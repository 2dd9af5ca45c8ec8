package http

import (
	"net/http"

	"habit-hero/internal/middleware"

	"github.com/charmbracelet/log"
)

// Router sets up HTTP routes
type Router struct {
	habitHandler   *HabitHandler
	rateLimiter    *middleware.RateLimiter
	proxies        *middleware.TrustedProxies
	allowedOrigins []string
	logger         *log.Logger
	mux            *http.ServeMux
}

// NewRouter creates a new router
func NewRouter(habitHandler *HabitHandler, rateLimiter *middleware.RateLimiter, proxies *middleware.TrustedProxies, allowedOrigins []string, logger *log.Logger) *Router {
	return &Router{
		habitHandler:   habitHandler,
		rateLimiter:    rateLimiter,
		proxies:        proxies,
		allowedOrigins: allowedOrigins,
		logger:         logger,
		mux:            http.NewServeMux(),
	}
}

// Setup configures all routes
func (r *Router) Setup() http.Handler {
	h := r.habitHandler

	r.mux.HandleFunc("GET /{$}", h.Root)
	r.mux.HandleFunc("GET /health", h.Health)

	// Habit routes accept both /habits and /habits/
	for _, prefix := range []string{"/habits", "/habits/{$}"} {
		r.mux.HandleFunc("POST "+prefix, h.CreateHabit)
		r.mux.HandleFunc("GET "+prefix, h.ListHabits)
	}
	r.mux.HandleFunc("GET /habits/{id}", h.GetHabit)
	r.mux.HandleFunc("PATCH /habits/{id}", h.UpdateHabit)
	r.mux.HandleFunc("PUT /habits/{id}", h.UpdateHabit)
	r.mux.HandleFunc("DELETE /habits/{id}", h.DeleteHabit)

	r.mux.HandleFunc("POST /habits/{id}/checkin", h.CheckIn)
	r.mux.HandleFunc("DELETE /habits/{id}/checkin/{date}", h.RemoveCheckIn)
	r.mux.HandleFunc("GET /habits/{id}/summary", h.GetSummary)
	r.mux.HandleFunc("GET /habits/{id}/calendar", h.GetCalendar)

	r.mux.HandleFunc("GET /analytics/{id}/streak", h.GetStreak)

	var handler http.Handler = r.mux

	handler = middleware.CORS(r.allowedOrigins)(handler)

	if r.rateLimiter != nil {
		handler = r.rateLimiter.Middleware(handler)
	}

	handler = middleware.Logging(r.logger, r.proxies)(handler)

	handler = middleware.Recover(r.logger)(handler)

	return handler
}
