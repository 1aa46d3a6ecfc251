// Package server assembles the HTTP API: handlers, middleware chains and
// route registration.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/authkeeper/internal/config"
	"github.com/iudanet/authkeeper/internal/server/auth"
	"github.com/iudanet/authkeeper/internal/server/events"
	"github.com/iudanet/authkeeper/internal/server/handlers"
	"github.com/iudanet/authkeeper/internal/server/middleware"
	"github.com/iudanet/authkeeper/internal/server/storage"
)

// Credential endpoints share one per-IP rate allowance
const (
	credentialRateLimit  = 10
	credentialRateWindow = time.Minute
)

// Config carries everything the router needs
type Config struct {
	Logger   *slog.Logger
	Users    storage.UserStorage
	Tokens   storage.TokenStorage
	Sessions storage.SessionStorage
	Settings *config.Store
	Events   events.Sink
	Version  string
}

// NewRouter builds the API handler tree.
// Every route goes through recovery and request logging; the credential
// endpoints additionally go through the IP rate limiter, and the
// authenticated endpoints through combined token/session auth.
func NewRouter(cfg Config) http.Handler {
	manager := auth.NewManager(cfg.Logger, cfg.Tokens, cfg.Settings)
	authenticator := auth.NewAuthenticator(cfg.Logger, cfg.Tokens, cfg.Users, cfg.Settings, cfg.Events)

	authHandler := handlers.NewAuthHandler(cfg.Logger, cfg.Users, cfg.Tokens, manager, cfg.Settings, cfg.Events)
	sessionHandler := handlers.NewSessionHandler(cfg.Logger, cfg.Users, cfg.Sessions, cfg.Settings)
	meHandler := handlers.NewMeHandler(cfg.Logger)
	healthHandler := handlers.NewHealthHandler(cfg.Logger, cfg.Version)

	limitCredentials := middleware.RateLimit(credentialRateLimit, credentialRateWindow, cfg.Logger)
	requireAuth := middleware.CombinedAuth(cfg.Logger, authenticator, cfg.Sessions, cfg.Users, cfg.Settings)

	mux := http.NewServeMux()

	mux.Handle("POST /api/v1/auth/register", limitCredentials(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/v1/auth/login", limitCredentials(http.HandlerFunc(authHandler.Login)))
	mux.Handle("POST /api/v1/auth/logout", requireAuth(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("POST /api/v1/auth/logoutall", requireAuth(http.HandlerFunc(authHandler.LogoutAll)))

	mux.Handle("POST /api/v1/auth/session/login", limitCredentials(http.HandlerFunc(sessionHandler.Login)))
	mux.HandleFunc("POST /api/v1/auth/session/logout", sessionHandler.Logout)

	mux.Handle("GET /api/v1/me", requireAuth(http.HandlerFunc(meHandler.Me)))
	mux.HandleFunc("GET /api/v1/health", healthHandler.Health)

	var handler http.Handler = mux
	handler = middleware.Logging(cfg.Logger)(handler)
	handler = middleware.Recovery(cfg.Logger)(handler)

	return handler
}
