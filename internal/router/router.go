package router

import (
	"net/http"

	"github.com/JustIkra/tg-restorants-bot/internal/config"
	"github.com/JustIkra/tg-restorants-bot/internal/enum"
	"github.com/JustIkra/tg-restorants-bot/internal/handler"
	"github.com/JustIkra/tg-restorants-bot/internal/handoff"
	mw "github.com/JustIkra/tg-restorants-bot/internal/middleware"
	"github.com/JustIkra/tg-restorants-bot/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Deps are the wired components the routes dispatch to.
type Deps struct {
	Sessions handler.SessionManager
	Handoffs handoff.Store
	Checkout handler.CheckoutSubmitter
	Admin    handler.Deleter
	Hub      *ws.Hub
	Logger   *zap.Logger
}

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, d Deps) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(mw.RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Admin console WebSocket (handles auth internally via query param)
	r.Get("/ws/admin", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(d.Hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		sessionHandler := handler.NewSessionHandler(d.Sessions, d.Handoffs, d.Logger)
		r.Route("/sessions", sessionHandler.RegisterRoutes)

		checkoutHandler := handler.NewCheckoutHandler(d.Checkout, d.Sessions, d.Logger)
		r.Route("/checkout", checkoutHandler.RegisterRoutes)

		// Manager-only routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleManager))
			adminHandler := handler.NewAdminHandler(d.Admin, d.Hub, d.Logger)
			adminHandler.RegisterRoutes(r)
		})
	})

	d.Logger.Debug("router initialized")
	return r
}
