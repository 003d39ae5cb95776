package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/drimsoft/planifika-admin/internal/models"
)

// UsersAPI manages internal Drimsoft users on the core API
type UsersAPI struct {
	c    *Client
	auth *AuthAPI
}

// NewUsersAPI creates the users service over c
func NewUsersAPI(c *Client) *UsersAPI {
	return &UsersAPI{c: c, auth: NewAuthAPI(c)}
}

// CreateUserRequest is everything needed to create an internal user
type CreateUserRequest struct {
	Name     string
	Email    string
	Password string
	RoleID   int64
	StatusID int64
}

type createUserBody struct {
	Name           string         `json:"name"`
	SupabaseUserID string         `json:"supabaseUserId"`
	Status         map[string]any `json:"status"`
	Role           map[string]any `json:"role"`
}

// List returns all internal users
func (u *UsersAPI) List(ctx context.Context) ([]models.DrimsoftUser, error) {
	var users []models.DrimsoftUser
	err := u.c.do(ctx, call{method: http.MethodGet, path: "/users", auth: authRequired, failure: "Could not load users"}, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// ResolveInternalID maps the signed-in identity to the internal idUser the
// ticket endpoints expect. The identity id is matched against
// supabaseUserId first, then against idUser when it is numeric. It returns
// 0 and ErrNotFound when no user matches.
func (u *UsersAPI) ResolveInternalID(ctx context.Context, identityID string) (int64, error) {
	identityID = strings.TrimSpace(identityID)
	if identityID == "" {
		return 0, ErrNotFound
	}
	users, err := u.List(ctx)
	if err != nil {
		return 0, err
	}
	for _, user := range users {
		if user.SupabaseUserID != "" && user.SupabaseUserID == identityID {
			return user.IDUser, nil
		}
	}
	if n, err := strconv.ParseInt(identityID, 10, 64); err == nil {
		for _, user := range users {
			if user.IDUser == n {
				return user.IDUser, nil
			}
		}
	}
	return 0, ErrNotFound
}

// Get returns one internal user
func (u *UsersAPI) Get(ctx context.Context, id int64) (*models.DrimsoftUser, error) {
	var user models.DrimsoftUser
	err := u.c.do(ctx, call{
		method:  http.MethodGet,
		path:    fmt.Sprintf("/users/%d", id),
		auth:    authRequired,
		failure: "Could not load user",
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create registers the credentials with the identity provider, then creates
// the user record linked to the new identity
func (u *UsersAPI) Create(ctx context.Context, req CreateUserRequest) (*models.DrimsoftUser, error) {
	if !u.c.hasToken(ctx) {
		return nil, ErrNotAuthenticated
	}

	identityID, err := u.auth.Signup(ctx, req.Email, req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	var user models.DrimsoftUser
	err = u.c.do(ctx, call{
		method: http.MethodPost,
		path:   "/users",
		body: createUserBody{
			Name:           req.Name,
			SupabaseUserID: identityID,
			Status:         map[string]any{"idUserStatus": req.StatusID},
			Role:           map[string]any{"idRole": req.RoleID},
		},
		auth:    authRequired,
		failure: "Could not create user",
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update sends a partial user record
func (u *UsersAPI) Update(ctx context.Context, id int64, fields map[string]any) (*models.DrimsoftUser, error) {
	var user models.DrimsoftUser
	err := u.c.do(ctx, call{
		method:  http.MethodPut,
		path:    fmt.Sprintf("/users/%d", id),
		body:    fields,
		auth:    authRequired,
		failure: "Could not update user",
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete logically deletes a user
func (u *UsersAPI) Delete(ctx context.Context, id int64) error {
	return u.c.do(ctx, call{
		method:  http.MethodDelete,
		path:    fmt.Sprintf("/users/%d", id),
		auth:    authRequired,
		failure: "Could not delete user",
	}, nil)
}

// AssignRole sets a user's role
func (u *UsersAPI) AssignRole(ctx context.Context, userID, roleID int64) (*models.DrimsoftUser, error) {
	var user models.DrimsoftUser
	err := u.c.do(ctx, call{
		method:  http.MethodPatch,
		path:    fmt.Sprintf("/users/%d/roles/%d", userID, roleID),
		auth:    authRequired,
		failure: "Could not assign role",
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateStatus sets a user's status
func (u *UsersAPI) UpdateStatus(ctx context.Context, userID, statusID int64) (*models.DrimsoftUser, error) {
	var user models.DrimsoftUser
	err := u.c.do(ctx, call{
		method:  http.MethodPut,
		path:    fmt.Sprintf("/users/%d/status/%d", userID, statusID),
		auth:    authRequired,
		failure: "Could not update status",
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ApplyChanges moves current to the given role and status, calling only the
// endpoints whose value actually changed. It returns the last response, or
// current when nothing changed.
func (u *UsersAPI) ApplyChanges(ctx context.Context, current models.DrimsoftUser, roleID, statusID int64) (*models.DrimsoftUser, error) {
	result := current

	if roleID != 0 && roleID != current.Role.ID {
		updated, err := u.AssignRole(ctx, current.IDUser, roleID)
		if err != nil {
			return nil, err
		}
		result = *updated
	}

	if statusID != 0 && statusID != current.Status.ID {
		updated, err := u.UpdateStatus(ctx, current.IDUser, statusID)
		if err != nil {
			return nil, err
		}
		result = *updated
	}

	return &result, nil
}
