// Package tokenstore persists the dashboard session: the bearer token, the
// cached user, the cached role and the display name. Values live in a
// key-value Backend so the same Store works over a local file, the OS
// keyring, a browser cookie or Redis.
package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/drimsoft/planifika-admin/internal/models"
)

// Persisted keys
const (
	KeyAuthToken = "authToken"
	KeyUser      = "user"
	KeyUserRole  = "userRole"
	KeyUserName  = "userName"
)

// AllKeys lists every key owned by the store
var AllKeys = []string{KeyAuthToken, KeyUser, KeyUserRole, KeyUserName}

// Backend is a flat string key-value area. Set writes all given keys in one
// operation.
type Backend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// Credentials is everything written at login
type Credentials struct {
	Token    string
	User     *models.UserRecord
	Role     *models.Role
	UserName string
}

// Store is the typed view over a Backend
type Store struct {
	backend     Backend
	compactUser bool
}

// Option configures a Store
type Option func(*Store)

// WithCompactUser stores only the id, name, email and role of the user.
// Backends with a hard size limit, such as a browser cookie, need it.
func WithCompactUser() Option {
	return func(s *Store) {
		s.compactUser = true
	}
}

// New wraps a backend
func New(backend Backend, opts ...Option) *Store {
	s := &Store{backend: backend}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) marshalUser(user *models.UserRecord) ([]byte, error) {
	if s.compactUser {
		user = user.Compact()
	}
	return json.Marshal(user)
}

// Token returns the stored bearer token. Read failures count as no token.
func (s *Store) Token(ctx context.Context) (string, bool) {
	token, ok, err := s.backend.Get(ctx, KeyAuthToken)
	if err != nil || !ok || token == "" {
		return "", false
	}
	return token, true
}

// HasToken reports whether a token is stored
func (s *Store) HasToken(ctx context.Context) bool {
	_, ok := s.Token(ctx)
	return ok
}

// User returns the cached user record. A corrupt value counts as absent.
func (s *Store) User(ctx context.Context) (*models.UserRecord, bool) {
	raw, ok, err := s.backend.Get(ctx, KeyUser)
	if err != nil || !ok || raw == "" {
		return nil, false
	}
	var user models.UserRecord
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, false
	}
	return &user, true
}

// Role returns the cached role. A corrupt value counts as absent.
func (s *Store) Role(ctx context.Context) (*models.Role, bool) {
	raw, ok, err := s.backend.Get(ctx, KeyUserRole)
	if err != nil || !ok || raw == "" {
		return nil, false
	}
	var role models.Role
	if err := json.Unmarshal([]byte(raw), &role); err != nil {
		return nil, false
	}
	return &role, true
}

// UserName returns the cached display name, or "" if none
func (s *Store) UserName(ctx context.Context) string {
	name, ok, err := s.backend.Get(ctx, KeyUserName)
	if err != nil || !ok {
		return ""
	}
	return name
}

// SaveLogin writes the four keys together. Keys with no value in creds are
// removed so nothing from a previous session survives.
func (s *Store) SaveLogin(ctx context.Context, creds Credentials) error {
	values := map[string]string{}
	var missing []string

	if creds.Token != "" {
		values[KeyAuthToken] = creds.Token
	} else {
		missing = append(missing, KeyAuthToken)
	}

	if creds.User != nil {
		data, err := s.marshalUser(creds.User)
		if err != nil {
			return fmt.Errorf("failed to marshal user: %w", err)
		}
		values[KeyUser] = string(data)
	} else {
		missing = append(missing, KeyUser)
	}

	if creds.Role != nil {
		data, err := json.Marshal(creds.Role)
		if err != nil {
			return fmt.Errorf("failed to marshal role: %w", err)
		}
		values[KeyUserRole] = string(data)
	} else {
		missing = append(missing, KeyUserRole)
	}

	if creds.UserName != "" {
		values[KeyUserName] = creds.UserName
	} else {
		missing = append(missing, KeyUserName)
	}

	if len(missing) > 0 {
		if err := s.backend.Delete(ctx, missing...); err != nil {
			return fmt.Errorf("failed to clear stale session keys: %w", err)
		}
	}

	if err := s.backend.Set(ctx, values); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// SaveUser replaces the cached user record and display name
func (s *Store) SaveUser(ctx context.Context, user *models.UserRecord) error {
	if user == nil {
		return nil
	}
	data, err := s.marshalUser(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	values := map[string]string{KeyUser: string(data)}
	if user.Name != "" {
		values[KeyUserName] = user.Name
	}
	if err := s.backend.Set(ctx, values); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// SaveProfileHints refreshes the role and display name reported by /auth/me.
// Empty values leave the stored ones untouched.
func (s *Store) SaveProfileHints(ctx context.Context, role *models.Role, name string) error {
	values := map[string]string{}
	if role != nil {
		data, err := json.Marshal(role)
		if err != nil {
			return fmt.Errorf("failed to marshal role: %w", err)
		}
		values[KeyUserRole] = string(data)
	}
	if name != "" {
		values[KeyUserName] = name
	}
	if len(values) == 0 {
		return nil
	}
	if err := s.backend.Set(ctx, values); err != nil {
		return fmt.Errorf("failed to save profile hints: %w", err)
	}
	return nil
}

// Clear removes every key. Clearing an empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.backend.Delete(ctx, AllKeys...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
