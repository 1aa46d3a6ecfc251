package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/authkeeper/internal/config"
	"github.com/iudanet/authkeeper/internal/server/auth"
	"github.com/iudanet/authkeeper/internal/server/handlers"
	"github.com/iudanet/authkeeper/internal/server/storage"
)

// bearerToken extracts the raw token from the Authorization header.
// The expected form is "<scheme> <token>" with the configured scheme.
func bearerToken(r *http.Request, scheme string) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], scheme) {
		return "", false
	}

	return parts[1], true
}

// TokenAuth authenticates requests by bearer token only.
// No-match responds 401; a storage failure responds 500.
func TokenAuth(logger *slog.Logger, authenticator *auth.Authenticator, settings *config.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r, settings.Snapshot().AuthHeaderScheme)
			if !ok {
				http.Error(w, "Unauthorized: missing token", http.StatusUnauthorized)
				return
			}

			result, err := authenticator.Authenticate(r.Context(), raw)
			if err != nil {
				logger.Error("token verification failed", slog.Any("error", err))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if result == nil {
				http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(handlers.WithAuthResult(r.Context(), result)))
		})
	}
}

// CombinedAuth authenticates by token first, then by session cookie.
// Handlers inspect the context to learn which mechanism succeeded; the
// token logout endpoints rely on this to reject session-authenticated
// callers with a distinct error.
func CombinedAuth(
	logger *slog.Logger,
	authenticator *auth.Authenticator,
	sessions storage.SessionStorage,
	users storage.UserStorage,
	settings *config.Store,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := settings.Snapshot()

			if raw, ok := bearerToken(r, s.AuthHeaderScheme); ok {
				result, err := authenticator.Authenticate(r.Context(), raw)
				if err != nil {
					logger.Error("token verification failed", slog.Any("error", err))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
					return
				}
				if result == nil {
					http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r.WithContext(handlers.WithAuthResult(r.Context(), result)))
				return
			}

			identity, err := sessionIdentity(r, sessions, users, s.SessionCookieName)
			if err != nil {
				logger.Error("session lookup failed", slog.Any("error", err))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if identity == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(handlers.WithSessionIdentity(r.Context(), identity)))
		})
	}
}

// sessionIdentity resolves the request's session cookie to a user.
// Returns (nil, nil) when there is no usable session.
func sessionIdentity(r *http.Request, sessions storage.SessionStorage, users storage.UserStorage, cookieName string) (*handlers.SessionIdentity, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	session, err := sessions.GetSession(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}

	user, err := users.GetUserByID(r.Context(), session.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, nil
	}

	return &handlers.SessionIdentity{User: user, Session: session}, nil
}
