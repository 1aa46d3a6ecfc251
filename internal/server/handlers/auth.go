package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/authkeeper/internal/config"
	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/auth"
	"github.com/iudanet/authkeeper/internal/server/events"
	"github.com/iudanet/authkeeper/internal/server/storage"
	"github.com/iudanet/authkeeper/internal/validation"
	"github.com/iudanet/authkeeper/pkg/api"
)

// AuthHandler serves registration and the token login/logout endpoints
type AuthHandler struct {
	logger   *slog.Logger
	users    storage.UserStorage
	tokens   storage.TokenStorage
	manager  *auth.Manager
	settings *config.Store
	events   events.Sink
	now      func() time.Time
}

// NewAuthHandler creates the auth handler
func NewAuthHandler(
	logger *slog.Logger,
	users storage.UserStorage,
	tokens storage.TokenStorage,
	manager *auth.Manager,
	settings *config.Store,
	sink events.Sink,
) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		users:    users,
		tokens:   tokens,
		manager:  manager,
		settings: settings,
		events:   sink,
		now:      time.Now,
	}
}

// Register handles POST /api/v1/auth/register
// Creates an account; no token is issued
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode register request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateUsername(req.Username); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePasswordConfirmation(req.Password, req.PasswordConfirm); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    h.now(),
	}

	if err := h.users.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, storage.ErrUserAlreadyExists):
			sendError(h.logger, w, "username already taken", http.StatusConflict)
		case errors.Is(err, storage.ErrEmailAlreadyExists):
			sendError(h.logger, w, "email already taken", http.StatusConflict)
		default:
			h.logger.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
			sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	h.logger.InfoContext(ctx, "user registered",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID))

	sendJSON(h.logger, w, api.RegisterResponse{
		UserID:  user.ID,
		Message: "user registered successfully",
	}, http.StatusCreated)
}

// Login handles POST /api/v1/auth/login
// Issues a new auth token after the per-user limit check and credential
// verification, in that order
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode login request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidateUsername(req.Username); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	s := h.settings.Snapshot()

	if s.TokenLimitPerUser > 0 {
		account, err := h.users.GetUserByUsername(ctx, req.Username)
		if err != nil && !errors.Is(err, storage.ErrUserNotFound) {
			h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
			sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
			return
		}

		if account != nil {
			count, err := h.tokens.CountUserTokens(ctx, account.ID, h.limitWindowStart(s))
			if err != nil {
				h.logger.ErrorContext(ctx, "failed to count user tokens", slog.Any("error", err))
				sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
				return
			}
			if count >= s.TokenLimitPerUser {
				h.logger.WarnContext(ctx, "token limit exceeded", slog.String("username", req.Username))
				sendError(h.logger, w, "maximum amount of tokens allowed per user exceeded", http.StatusForbidden)
				return
			}
		}
	}

	user, err := verifyCredentials(ctx, h.users, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			h.logger.WarnContext(ctx, "login failed", slog.String("username", req.Username))
			sendError(h.logger, w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to verify credentials", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	record, raw, err := h.manager.CreateToken(ctx, user, s.TokenTTL, s.TokenPrefix)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Not critical; log and keep going
	if err := h.users.UpdateLastLogin(ctx, user.ID, h.now()); err != nil {
		h.logger.WarnContext(ctx, "failed to update last login", slog.Any("error", err))
	}

	h.events.LoggedIn(ctx, user)

	h.logger.InfoContext(ctx, "token issued",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID))

	sendJSON(h.logger, w, api.LoginResponse{
		Token:  raw,
		Expiry: record.Expiry,
	}, http.StatusOK)
}

// limitWindowStart returns the lower bound for the token-limit count.
// With a TTL configured the window covers one token lifetime; without one,
// every token the user holds counts.
func (h *AuthHandler) limitWindowStart(s *config.Settings) time.Time {
	if s.TokenTTL != nil {
		return h.now().Add(-*s.TokenTTL)
	}
	return time.Time{}
}

// Logout handles POST /api/v1/auth/logout
// Revokes exactly the token that authenticated this request
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, ok := h.requireTokenAuth(w, r)
	if !ok {
		return
	}

	if err := h.manager.Revoke(ctx, result.Token); err != nil && !errors.Is(err, storage.ErrTokenNotFound) {
		h.logger.ErrorContext(ctx, "failed to revoke token", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.events.LoggedOut(ctx, result.User)

	w.WriteHeader(http.StatusNoContent)
}

// LogoutAll handles POST /api/v1/auth/logoutall
// Revokes every token the authenticated user owns
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, ok := h.requireTokenAuth(w, r)
	if !ok {
		return
	}

	deleted, err := h.manager.RevokeAll(ctx, result.User.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke user tokens", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.events.LoggedOut(ctx, result.User)

	h.logger.InfoContext(ctx, "all tokens revoked",
		slog.String("user_id", result.User.ID),
		slog.Int("tokens_deleted", deleted))

	w.WriteHeader(http.StatusNoContent)
}

// requireTokenAuth enforces that the request was authenticated by a token.
// A request that reached here through a session gets a distinct error so
// the client learns it used the wrong mechanism, not that it is anonymous.
func (h *AuthHandler) requireTokenAuth(w http.ResponseWriter, r *http.Request) (*auth.Result, bool) {
	result := AuthResultFrom(r.Context())
	if result != nil {
		return result, true
	}

	if SessionIdentityFrom(r.Context()) != nil {
		sendError(h.logger, w,
			"request is authenticated with a session, not a token", http.StatusBadRequest)
		return nil, false
	}

	sendError(h.logger, w, "not authenticated", http.StatusUnauthorized)
	return nil, false
}
