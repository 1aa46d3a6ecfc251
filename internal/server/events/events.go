// Package events defines the fire-and-forget notification sink for auth
// lifecycle events. The core guarantees where emissions happen; what
// observers do with them is out of its hands.
package events

import (
	"context"
	"log/slog"

	"github.com/iudanet/authkeeper/internal/models"
)

// Expiry event sources
const (
	// SourceAuthToken marks a token deleted because it was presented expired
	SourceAuthToken = "auth_token"
	// SourceOtherToken marks a sibling token swept during another token's verification
	SourceOtherToken = "other_token"
)

// Sink receives auth lifecycle notifications
//
//go:generate moq -out sink_mock.go . Sink
type Sink interface {
	// TokenExpired fires when an expired token record is lazily deleted
	TokenExpired(ctx context.Context, username, source string)

	// LoggedIn fires after a successful token login
	LoggedIn(ctx context.Context, user *models.User)

	// LoggedOut fires after token logout or logout-all
	LoggedOut(ctx context.Context, user *models.User)
}

// LogSink is the default Sink that writes slog records
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a Sink backed by the given logger
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) TokenExpired(ctx context.Context, username, source string) {
	s.logger.InfoContext(ctx, "auth token expired",
		slog.String("username", username),
		slog.String("source", source))
}

func (s *LogSink) LoggedIn(ctx context.Context, user *models.User) {
	s.logger.InfoContext(ctx, "user logged in",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID))
}

func (s *LogSink) LoggedOut(ctx context.Context, user *models.User) {
	s.logger.InfoContext(ctx, "user logged out",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID))
}
