package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error kinds. Every failed call returns an error matching exactly one of
// these with errors.Is.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNetwork            = errors.New("backend unreachable")
	ErrValidation         = errors.New("validation failed")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrServer             = errors.New("backend error")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// APIError is a non-2xx response from a backend
type APIError struct {
	Status  int
	Message string
	Kind    error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// KindForStatus maps an HTTP status to an error kind
func KindForStatus(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusConflict:
		return ErrValidation
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	return ErrServer
}

// newAPIError builds an APIError from a failed response body. The backend's
// own "error" or "message" field wins over the fallback.
func newAPIError(status int, body []byte, fallback string) *APIError {
	msg := backendMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("%s (status %d)", fallback, status)
	}
	return &APIError{Status: status, Message: msg, Kind: KindForStatus(status)}
}

func backendMessage(body []byte) string {
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	var s string
	if len(payload.Error) > 0 && json.Unmarshal(payload.Error, &s) == nil && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(payload.Message)
}

// Status returns the HTTP status carried by err, or 0
func Status(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Message returns a human-readable message for err suitable for display
func Message(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrNetwork):
		return "Cannot reach the server. Check your connection and try again."
	case errors.Is(err, ErrNotAuthenticated):
		return "Not authenticated"
	}
	return err.Error()
}
