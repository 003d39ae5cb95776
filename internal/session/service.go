// Package session holds the dashboard session: the Service that talks to the
// auth API and the token store, and the Gate that tracks authentication
// state and decides route redirects.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/drimsoft/planifika-admin/internal/client"
	"github.com/drimsoft/planifika-admin/internal/models"
	"github.com/drimsoft/planifika-admin/internal/tokenstore"
)

// AuthBackend is the part of the auth API the session needs
type AuthBackend interface {
	Login(ctx context.Context, email, password string) (*client.LoginResult, error)
	Me(ctx context.Context, token string) (*client.Profile, error)
	UpdateProfile(ctx context.Context, token string, update client.ProfileUpdate) (json.RawMessage, error)
}

// Service combines the auth API with the token store
type Service struct {
	auth  AuthBackend
	store *tokenstore.Store
}

// NewService creates a session service
func NewService(auth AuthBackend, store *tokenstore.Store) *Service {
	return &Service{auth: auth, store: store}
}

// Token returns the stored token. It satisfies client.TokenSource.
func (s *Service) Token(ctx context.Context) (string, bool) {
	return s.store.Token(ctx)
}

// IsAuthenticated reports whether a token is stored
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	return s.store.HasToken(ctx)
}

// Authenticate checks the credentials against the backend without touching
// the store
func (s *Service) Authenticate(ctx context.Context, email, password string) (*client.LoginResult, error) {
	return s.auth.Login(ctx, email, password)
}

// Persist writes a login result to the store
func (s *Service) Persist(ctx context.Context, res *client.LoginResult) error {
	return s.store.SaveLogin(ctx, tokenstore.Credentials{
		Token:    res.Token,
		User:     res.User,
		Role:     res.Role,
		UserName: res.UserName,
	})
}

// Login authenticates and persists the session
func (s *Service) Login(ctx context.Context, email, password string) (*client.LoginResult, error) {
	res, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.Persist(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// FetchCurrentUser loads the user behind token without touching the store
func (s *Service) FetchCurrentUser(ctx context.Context, token string) (*client.Profile, error) {
	return s.auth.Me(ctx, token)
}

// RememberProfile stores the role and display name reported by the backend
func (s *Service) RememberProfile(ctx context.Context, profile *client.Profile) error {
	return s.store.SaveProfileHints(ctx, profile.Role, profile.UserName)
}

// CurrentUser loads the user behind the stored token and refreshes the
// stored role and display name
func (s *Service) CurrentUser(ctx context.Context) (*models.UserRecord, error) {
	token, ok := s.Token(ctx)
	if !ok {
		return nil, client.ErrNotAuthenticated
	}
	profile, err := s.FetchCurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.RememberProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile.User, nil
}

// UpdateProfile sends a profile change for token and decodes the response
func (s *Service) UpdateProfile(ctx context.Context, token string, update client.ProfileUpdate) (ProfileUpdate, error) {
	raw, err := s.auth.UpdateProfile(ctx, token, update)
	if err != nil {
		return ProfileUpdate{}, err
	}
	return DecodeProfileUpdate(raw), nil
}

// RememberUser stores an updated user record
func (s *Service) RememberUser(ctx context.Context, user *models.UserRecord) error {
	return s.store.SaveUser(ctx, user)
}

// Logout removes every stored key. It never calls the backend.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	return nil
}

// Role returns the stored role
func (s *Service) Role(ctx context.Context) (*models.Role, bool) {
	return s.store.Role(ctx)
}

// IsAdministrator reports whether the stored role is Administrator
func (s *Service) IsAdministrator(ctx context.Context) bool {
	role, ok := s.Role(ctx)
	return ok && role.ID == models.RoleAdministrator
}

// IsSupportTeam reports whether the stored role is the support team
func (s *Service) IsSupportTeam(ctx context.Context) bool {
	role, ok := s.Role(ctx)
	return ok && role.ID == models.RoleSupportTeam
}

// RoleName returns the backend's name for the stored role
func (s *Service) RoleName(ctx context.Context) string {
	role, ok := s.Role(ctx)
	if !ok {
		return ""
	}
	return role.Name
}

// StoredUser returns the stored user record
func (s *Service) StoredUser(ctx context.Context) (*models.UserRecord, bool) {
	return s.store.User(ctx)
}

// UserName returns the stored display name
func (s *Service) UserName(ctx context.Context) string {
	return s.store.UserName(ctx)
}

// DisplayName picks the name to prefill the profile form with: the cached
// user's name, then the stored display name, then the stored user's name
func (s *Service) DisplayName(ctx context.Context, cached *models.UserRecord) string {
	if cached != nil && cached.Name != "" {
		return cached.Name
	}
	if name := s.UserName(ctx); name != "" {
		return name
	}
	if stored, ok := s.StoredUser(ctx); ok {
		return stored.Name
	}
	return ""
}
