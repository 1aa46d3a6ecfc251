package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iudanet/authkeeper/internal/config"
	"github.com/iudanet/authkeeper/internal/crypto"
	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/events"
	"github.com/iudanet/authkeeper/internal/server/storage"
)

// Result carries a successful verification outcome: the resolved user and
// the exact token record that matched. Logout uses the record to revoke
// precisely the credential that authenticated the request.
type Result struct {
	User  *models.User
	Token *models.AuthToken
}

// Authenticator verifies raw bearer tokens against stored digests
type Authenticator struct {
	logger   *slog.Logger
	tokens   storage.TokenStorage
	users    storage.UserStorage
	settings *config.Store
	events   events.Sink
	now      func() time.Time
}

// NewAuthenticator creates an authenticator
func NewAuthenticator(
	logger *slog.Logger,
	tokens storage.TokenStorage,
	users storage.UserStorage,
	settings *config.Store,
	sink events.Sink,
) *Authenticator {
	return &Authenticator{
		logger:   logger,
		tokens:   tokens,
		users:    users,
		settings: settings,
		events:   sink,
		now:      time.Now,
	}
}

// Authenticate verifies a raw token and resolves its owner.
// A nil Result with a nil error is the uniform no-match outcome: the caller
// cannot tell a bad token from an expired one or an inactive account.
// Only storage failures surface as errors.
//
// Verification piggybacks garbage collection: any expired token belonging
// to a candidate's owner is deleted along the way.
func (a *Authenticator) Authenticate(ctx context.Context, raw string) (*Result, error) {
	if raw == "" {
		return nil, nil
	}

	s := a.settings.Snapshot()

	candidates, err := a.tokens.ListTokensByKey(ctx, tokenKey(raw))
	if err != nil {
		return nil, err
	}

	for _, candidate := range candidates {
		owner, err := a.users.GetUserByID(ctx, candidate.UserID)
		if err != nil {
			if errors.Is(err, storage.ErrUserNotFound) {
				// Owner deleted concurrently; the record is unusable
				continue
			}
			return nil, err
		}

		if err := a.sweepSiblings(ctx, owner, candidate); err != nil {
			return nil, err
		}

		if candidate.Expired(a.now()) {
			if err := a.deleteExpired(ctx, candidate); err != nil {
				return nil, err
			}
			a.events.TokenExpired(ctx, owner.Username, events.SourceAuthToken)
			continue
		}

		digest, err := crypto.HashToken(raw, s.HashAlgorithm)
		if err != nil {
			if errors.Is(err, crypto.ErrMalformedToken) {
				// Undecodable input is decisively invalid; fail closed
				return nil, nil
			}
			return nil, err
		}

		if !crypto.ConstantTimeEqual(digest, candidate.Digest) {
			continue
		}

		if s.AutoRefresh && candidate.Expiry != nil && s.TokenTTL != nil {
			if err := a.renewToken(ctx, candidate, s); err != nil {
				return nil, err
			}
		}

		// A digest match is proof of possession of this exact token,
		// so an inactive owner ends the attempt rather than moving on
		if !owner.IsActive {
			return nil, nil
		}

		return &Result{User: owner, Token: candidate}, nil
	}

	return nil, nil
}

// sweepSiblings deletes the owner's other expired tokens.
// This runs for every candidate, matching or not, so expired records are
// collected by ordinary authentication traffic instead of a background job.
func (a *Authenticator) sweepSiblings(ctx context.Context, owner *models.User, candidate *models.AuthToken) error {
	siblings, err := a.tokens.ListUserTokens(ctx, candidate.UserID)
	if err != nil {
		return err
	}

	now := a.now()
	for _, sibling := range siblings {
		if sibling.Digest == candidate.Digest || !sibling.Expired(now) {
			continue
		}
		if err := a.deleteExpired(ctx, sibling); err != nil {
			return err
		}
		a.events.TokenExpired(ctx, owner.Username, events.SourceOtherToken)
	}

	return nil
}

// deleteExpired removes an expired record, tolerating a concurrent delete
func (a *Authenticator) deleteExpired(ctx context.Context, token *models.AuthToken) error {
	if err := a.tokens.DeleteToken(ctx, token.Digest); err != nil && !errors.Is(err, storage.ErrTokenNotFound) {
		return err
	}
	return nil
}

// renewToken extends the matched token's expiry.
// The new expiry is persisted only when it moves forward by more than the
// configured refresh interval; otherwise only the in-memory record is
// updated, and the next request recomputes the same decision. This bounds
// expiry writes under heavy authenticated traffic.
func (a *Authenticator) renewToken(ctx context.Context, token *models.AuthToken, s *config.Settings) error {
	current := *token.Expiry
	newExpiry := a.now().Add(*s.TokenTTL)
	token.Expiry = &newExpiry

	if newExpiry.Sub(current) <= s.MinRefreshInterval {
		return nil
	}

	err := a.tokens.UpdateTokenExpiry(ctx, token.Digest, newExpiry)
	if err != nil && !errors.Is(err, storage.ErrTokenNotFound) {
		return err
	}

	a.logger.DebugContext(ctx, "auth token renewed",
		slog.String("token_key", token.TokenKey),
		slog.Time("expiry", newExpiry))

	return nil
}
