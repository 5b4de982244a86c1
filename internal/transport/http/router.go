package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"campusmantri/internal/handler"
	"campusmantri/internal/httputil"
	authmw "campusmantri/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler        *handler.AuthHandler
	ProfileHandler     *handler.ProfileHandler
	LeaderboardHandler *handler.LeaderboardHandler
	JWTSecret          string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
		r.Post("/refresh", cfg.AuthHandler.Refresh)
	})

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		// Current user endpoints
		r.Get("/me", cfg.AuthHandler.Me)

		// Auth actions that require authentication
		r.Post("/auth/logout", cfg.AuthHandler.Logout)
		r.Post("/auth/logout-all", cfg.AuthHandler.LogoutAll)

		// Routing gate: tells the client which screen the user belongs on
		r.Get("/gate", cfg.ProfileHandler.Gate)

		// Profile endpoints
		r.Get("/profile", cfg.ProfileHandler.GetProfile)
		r.Post("/profile", cfg.ProfileHandler.Onboard)
		r.Post("/profile/intro", cfg.ProfileHandler.AcknowledgeIntro)
		r.Put("/profile/days/{day}", cfg.ProfileHandler.SaveDay)
		r.Put("/profile/gfg", cfg.ProfileHandler.SaveGfg)

		// Progress leaderboard
		r.Get("/leaderboard", cfg.LeaderboardHandler.Top)
	})

	return r
}
