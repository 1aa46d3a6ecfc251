package handlers

import (
	"context"
	"time"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/storage"
)

// memUserStore is an in-memory UserStorage enforcing the same uniqueness
// rules as the sqlite implementation
type memUserStore struct {
	users     map[string]*models.User // keyed by ID
	createErr error
	getErr    error
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*models.User)}
}

func (s *memUserStore) CreateUser(_ context.Context, user *models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	for _, u := range s.users {
		if u.Username == user.Username {
			return storage.ErrUserAlreadyExists
		}
		if u.Email == user.Email {
			return storage.ErrEmailAlreadyExists
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *memUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (s *memUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (s *memUserStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memUserStore) UpdateLastLogin(_ context.Context, userID string, loginTime time.Time) error {
	u, ok := s.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	u.LastLoginAt = &loginTime
	return nil
}

func (s *memUserStore) DeleteUser(_ context.Context, id string) error {
	if _, ok := s.users[id]; !ok {
		return storage.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

// memTokenStore is an in-memory TokenStorage
type memTokenStore struct {
	tokens   map[string]*models.AuthToken // keyed by digest
	saveErr  error
	countErr error
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: make(map[string]*models.AuthToken)}
}

func (s *memTokenStore) SaveToken(_ context.Context, token *models.AuthToken) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	cp := *token
	s.tokens[token.Digest] = &cp
	return nil
}

func (s *memTokenStore) ListTokensByKey(_ context.Context, key string) ([]*models.AuthToken, error) {
	var out []*models.AuthToken
	for _, t := range s.tokens {
		if t.TokenKey == key {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memTokenStore) ListUserTokens(_ context.Context, userID string) ([]*models.AuthToken, error) {
	var out []*models.AuthToken
	for _, t := range s.tokens {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memTokenStore) CountUserTokens(_ context.Context, userID string, createdAfter time.Time) (int, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	n := 0
	for _, t := range s.tokens {
		if t.UserID == userID && !t.CreatedAt.Before(createdAfter) {
			n++
		}
	}
	return n, nil
}

func (s *memTokenStore) UpdateTokenExpiry(_ context.Context, digest string, expiry time.Time) error {
	t, ok := s.tokens[digest]
	if !ok {
		return storage.ErrTokenNotFound
	}
	t.Expiry = &expiry
	return nil
}

func (s *memTokenStore) DeleteToken(_ context.Context, digest string) error {
	if _, ok := s.tokens[digest]; !ok {
		return storage.ErrTokenNotFound
	}
	delete(s.tokens, digest)
	return nil
}

func (s *memTokenStore) DeleteUserTokens(_ context.Context, userID string) (int, error) {
	n := 0
	for digest, t := range s.tokens {
		if t.UserID == userID {
			delete(s.tokens, digest)
			n++
		}
	}
	return n, nil
}

func (s *memTokenStore) DeleteExpiredTokens(_ context.Context) (int, error) {
	now := time.Now()
	n := 0
	for digest, t := range s.tokens {
		if t.Expired(now) {
			delete(s.tokens, digest)
			n++
		}
	}
	return n, nil
}

// memSessionStore is an in-memory SessionStorage
type memSessionStore struct {
	sessions map[string]*models.Session
	saveErr  error
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]*models.Session)}
}

func (s *memSessionStore) SaveSession(_ context.Context, session *models.Session) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *memSessionStore) GetSession(_ context.Context, id string) (*models.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, storage.ErrSessionNotFound
	}
	if time.Now().After(sess.ExpiresAt) {
		delete(s.sessions, id)
		return nil, storage.ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *memSessionStore) DeleteSession(_ context.Context, id string) error {
	if _, ok := s.sessions[id]; !ok {
		return storage.ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *memSessionStore) DeleteUserSessions(_ context.Context, userID string) (int, error) {
	n := 0
	for id, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

// recordingSink captures emitted auth events
type recordingSink struct {
	expired   []string // "username/source"
	loggedIn  []string
	loggedOut []string
}

func (r *recordingSink) TokenExpired(_ context.Context, username, source string) {
	r.expired = append(r.expired, username+"/"+source)
}

func (r *recordingSink) LoggedIn(_ context.Context, user *models.User) {
	r.loggedIn = append(r.loggedIn, user.Username)
}

func (r *recordingSink) LoggedOut(_ context.Context, user *models.User) {
	r.loggedOut = append(r.loggedOut, user.Username)
}
