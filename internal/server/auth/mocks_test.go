package auth

import (
	"context"
	"sync"
	"time"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/storage"
)

// mockTokenStorage is an in-memory TokenStorage preserving insertion order
type mockTokenStorage struct {
	mu      sync.Mutex
	tokens  []*models.AuthToken
	saveErr error
	listErr error
}

func newMockTokenStorage() *mockTokenStorage {
	return &mockTokenStorage{}
}

func (m *mockTokenStorage) SaveToken(ctx context.Context, token *models.AuthToken) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *token
	m.tokens = append(m.tokens, &copied)
	return nil
}

func (m *mockTokenStorage) ListTokensByKey(ctx context.Context, key string) ([]*models.AuthToken, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AuthToken
	for _, t := range m.tokens {
		if t.TokenKey == key {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockTokenStorage) ListUserTokens(ctx context.Context, userID string) ([]*models.AuthToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.AuthToken
	for _, t := range m.tokens {
		if t.UserID == userID {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockTokenStorage) CountUserTokens(ctx context.Context, userID string, createdAfter time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, t := range m.tokens {
		if t.UserID == userID && !t.CreatedAt.Before(createdAfter) {
			count++
		}
	}
	return count, nil
}

func (m *mockTokenStorage) UpdateTokenExpiry(ctx context.Context, digest string, expiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.Digest == digest {
			e := expiry
			t.Expiry = &e
			return nil
		}
	}
	return storage.ErrTokenNotFound
}

func (m *mockTokenStorage) DeleteToken(ctx context.Context, digest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tokens {
		if t.Digest == digest {
			m.tokens = append(m.tokens[:i], m.tokens[i+1:]...)
			return nil
		}
	}
	return storage.ErrTokenNotFound
}

func (m *mockTokenStorage) DeleteUserTokens(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*models.AuthToken
	deleted := 0
	for _, t := range m.tokens {
		if t.UserID == userID {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	m.tokens = kept
	return deleted, nil
}

func (m *mockTokenStorage) DeleteExpiredTokens(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var kept []*models.AuthToken
	deleted := 0
	for _, t := range m.tokens {
		if t.Expired(now) {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	m.tokens = kept
	return deleted, nil
}

// get returns the stored record by digest, or nil
func (m *mockTokenStorage) get(digest string) *models.AuthToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.Digest == digest {
			copied := *t
			return &copied
		}
	}
	return nil
}

func (m *mockTokenStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

// mockUserStorage is an in-memory UserStorage
type mockUserStorage struct {
	mu    sync.Mutex
	users map[string]*models.User // id -> user
}

func newMockUserStorage() *mockUserStorage {
	return &mockUserStorage{users: make(map[string]*models.User)}
}

func (m *mockUserStorage) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return storage.ErrUserAlreadyExists
		}
		if u.Email == user.Email {
			return storage.ErrEmailAlreadyExists
		}
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *mockUserStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *mockUserStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (m *mockUserStorage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, storage.ErrUserNotFound
}

func (m *mockUserStorage) UpdateLastLogin(ctx context.Context, userID string, loginTime time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		t := loginTime
		u.LastLoginAt = &t
		return nil
	}
	return storage.ErrUserNotFound
}

func (m *mockUserStorage) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return storage.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

// expiredEvent records one TokenExpired emission
type expiredEvent struct {
	username string
	source   string
}

// recordingSink captures emitted events for assertions
type recordingSink struct {
	mu        sync.Mutex
	expired   []expiredEvent
	loggedIn  []string
	loggedOut []string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{}
}

func (r *recordingSink) TokenExpired(ctx context.Context, username, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expired = append(r.expired, expiredEvent{username: username, source: source})
}

func (r *recordingSink) LoggedIn(ctx context.Context, user *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loggedIn = append(r.loggedIn, user.Username)
}

func (r *recordingSink) LoggedOut(ctx context.Context, user *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loggedOut = append(r.loggedOut, user.Username)
}
