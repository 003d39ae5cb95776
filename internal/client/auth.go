package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/drimsoft/planifika-admin/internal/models"
)

// AuthAPI wraps the /auth endpoints of the core API
type AuthAPI struct {
	c *Client
}

// NewAuthAPI creates the auth service over c
func NewAuthAPI(c *Client) *AuthAPI {
	return &AuthAPI{c: c}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is a decoded login response
type LoginResult struct {
	Token    string
	User     *models.UserRecord
	Role     *models.Role
	UserName string
}

// ProfileUpdate is a partial profile change. Empty fields are not sent.
type ProfileUpdate struct {
	Name     string `json:"name,omitempty"`
	Password string `json:"password,omitempty"`
}

// Profile is a decoded /auth/me response
type Profile struct {
	User     *models.UserRecord
	Role     *models.Role
	UserName string
}

// Login authenticates the user. Any 4xx answer is reported as
// ErrInvalidCredentials.
func (a *AuthAPI) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var raw struct {
		AccessToken string             `json:"access_token"`
		User        *models.UserRecord `json:"user"`
		Role        json.RawMessage    `json:"role"`
		UserName    string             `json:"userName"`
	}

	err := a.c.do(ctx, call{
		method:  http.MethodPost,
		path:    "/auth/login",
		body:    LoginRequest{Email: email, Password: password},
		failure: "Login failed",
	}, &raw)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
			apiErr.Kind = ErrInvalidCredentials
		}
		return nil, err
	}

	if raw.AccessToken == "" {
		return nil, &APIError{Status: http.StatusOK, Message: "Login response did not include a token", Kind: ErrServer}
	}

	return &LoginResult{
		Token:    raw.AccessToken,
		User:     raw.User,
		Role:     decodeRole(raw.Role),
		UserName: raw.UserName,
	}, nil
}

// Me fetches the user behind token
func (a *AuthAPI) Me(ctx context.Context, token string) (*Profile, error) {
	var raw json.RawMessage
	err := a.c.do(ctx, call{
		method:  http.MethodGet,
		path:    "/auth/me",
		auth:    authRequired,
		token:   token,
		failure: "Could not load the current user",
	}, &raw)
	if err != nil {
		return nil, err
	}

	var user models.UserRecord
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}

	var hints struct {
		Role     json.RawMessage `json:"role"`
		UserName string          `json:"userName"`
	}
	_ = json.Unmarshal(raw, &hints)

	return &Profile{User: &user, Role: decodeRole(hints.Role), UserName: hints.UserName}, nil
}

// UpdateProfile changes the name and/or password of the user behind token.
// The response shape varies between backend versions so it is returned raw.
func (a *AuthAPI) UpdateProfile(ctx context.Context, token string, update ProfileUpdate) (json.RawMessage, error) {
	if update.Name == "" && update.Password == "" {
		return nil, &APIError{Status: http.StatusBadRequest, Message: "Nothing to update", Kind: ErrValidation}
	}

	var raw json.RawMessage
	err := a.c.do(ctx, call{
		method:  http.MethodPut,
		path:    "/auth/me",
		body:    update,
		auth:    authRequired,
		token:   token,
		failure: "Could not update the profile",
	}, &raw)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Signup registers credentials with the identity provider and returns the
// new identity id
func (a *AuthAPI) Signup(ctx context.Context, email, password string) (string, error) {
	var raw json.RawMessage
	err := a.c.do(ctx, call{
		method:  http.MethodPost,
		path:    "/auth/signup",
		body:    LoginRequest{Email: email, Password: password},
		failure: "Could not create the account",
	}, &raw)
	if err != nil {
		return "", err
	}

	id := extractSignupID(raw)
	if id == "" {
		return "", &APIError{Status: http.StatusOK, Message: "Signup response did not include a user id", Kind: ErrServer}
	}
	return id, nil
}

// signupIDPaths are the places the identity id has been seen in signup
// responses, in lookup order
var signupIDPaths = [][]string{
	{"user", "id"},
	{"id"},
	{"userId"},
	{"supabaseUserId"},
	{"data", "user", "id"},
	{"data", "id"},
}

func extractSignupID(raw json.RawMessage) string {
	for _, path := range signupIDPaths {
		if v := lookupScalar(raw, path); v != "" {
			return v
		}
	}
	return ""
}

// lookupScalar walks path through nested objects and returns the leaf as a
// string if it is a non-empty string or a number
func lookupScalar(raw json.RawMessage, path []string) string {
	cur := raw
	for _, key := range path {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(cur, &obj); err != nil {
			return ""
		}
		next, ok := obj[key]
		if !ok {
			return ""
		}
		cur = next
	}

	var s string
	if err := json.Unmarshal(cur, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(cur))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return ""
}

// decodeRole returns the role only when the backend sent an object
func decodeRole(raw json.RawMessage) *models.Role {
	trimmed := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(trimmed, []byte("{")) {
		return nil
	}
	var role models.Role
	if err := json.Unmarshal(trimmed, &role); err != nil {
		return nil
	}
	return &role
}
