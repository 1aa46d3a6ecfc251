package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/authkeeper/internal/config"
	"github.com/iudanet/authkeeper/internal/crypto"
	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/storage"
	"github.com/iudanet/authkeeper/internal/validation"
	"github.com/iudanet/authkeeper/pkg/api"
)

// sessionIDLength is the character length of generated session IDs
const sessionIDLength = 64

// SessionHandler serves the cookie-based session login/logout endpoints.
// Sessions never touch the token tables.
type SessionHandler struct {
	logger   *slog.Logger
	users    storage.UserStorage
	sessions storage.SessionStorage
	settings *config.Store
	now      func() time.Time
}

// NewSessionHandler creates the session handler
func NewSessionHandler(
	logger *slog.Logger,
	users storage.UserStorage,
	sessions storage.SessionStorage,
	settings *config.Store,
) *SessionHandler {
	return &SessionHandler{
		logger:   logger,
		users:    users,
		sessions: sessions,
		settings: settings,
		now:      time.Now,
	}
}

// Login handles POST /api/v1/auth/session/login
// Verifies credentials and establishes a server-side session
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode session login request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateUsername(req.Username); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := verifyCredentials(ctx, h.users, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			h.logger.WarnContext(ctx, "session login failed", slog.String("username", req.Username))
			sendError(h.logger, w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to verify credentials", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	id, err := crypto.GenerateTokenString(sessionIDLength)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate session id", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	s := h.settings.Snapshot()
	now := h.now()
	session := &models.Session{
		ID:        id,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.SessionTTL),
	}

	if err := h.sessions.SaveSession(ctx, session); err != nil {
		h.logger.ErrorContext(ctx, "failed to save session", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.InfoContext(ctx, "session established",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID))

	sendJSON(h.logger, w, api.MessageResponse{Message: "session established"}, http.StatusOK)
}

// Logout handles POST /api/v1/auth/session/logout
// Destroys the server-side session and clears the cookie
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := h.settings.Snapshot()

	cookie, err := r.Cookie(s.SessionCookieName)
	if err != nil || cookie.Value == "" {
		sendError(h.logger, w, "not authenticated", http.StatusUnauthorized)
		return
	}

	if err := h.sessions.DeleteSession(ctx, cookie.Value); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			sendError(h.logger, w, "not authenticated", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to delete session", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}
