package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Role identifiers mirrored from the backend
const (
	RoleAdministrator = 1
	RoleSupportTeam   = 2
)

// User status identifiers mirrored from the backend
const (
	UserStatusActive   = 1
	UserStatusInactive = 2
	UserStatusDeleted  = 3
)

// Role is the {id, name} pair the backend attaches to a session
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Label returns the display name for well-known roles, falling back to the
// backend's name for anything else
func (r *Role) Label() string {
	if r == nil {
		return ""
	}
	switch r.ID {
	case RoleAdministrator:
		return "Administrator"
	case RoleSupportTeam:
		return "Drimsoft Team"
	}
	return r.Name
}

// UserRecord is the loosely typed user echoed by the backend at login and on
// /auth/me. Only id, name, email and an object role are interpreted; every
// other field is preserved verbatim in Extra so the record round-trips.
//
// ID is opaque. It is usually the identity provider's user id (a UUID) and
// only ever compared for equality.
type UserRecord struct {
	ID    string
	Name  string
	Email string
	Role  *Role
	Extra map[string]json.RawMessage

	// rawID is the id as the backend sent it, number or string
	rawID json.RawMessage
}

// Clone returns a deep copy of the record
func (u *UserRecord) Clone() *UserRecord {
	if u == nil {
		return nil
	}
	out := *u
	if u.Role != nil {
		role := *u.Role
		out.Role = &role
	}
	if u.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(u.Extra))
		for k, v := range u.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &out
}

// Compact returns a copy holding only the id, name, email and role
func (u *UserRecord) Compact() *UserRecord {
	if u == nil {
		return nil
	}
	out := &UserRecord{ID: u.ID, Name: u.Name, Email: u.Email, rawID: u.rawID}
	if u.Role != nil {
		role := *u.Role
		out.Role = &role
	}
	return out
}

// UnmarshalJSON accepts "id" or "idUser" as the identifier, as a number or a
// string. A role that is not an object is dropped.
func (u *UserRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*u = UserRecord{}

	for _, key := range []string{"id", "idUser"} {
		v, ok := raw[key]
		if !ok {
			continue
		}
		id, err := parseID(v)
		if err != nil {
			return fmt.Errorf("invalid user %s: %w", key, err)
		}
		u.ID = id
		u.rawID = v
		delete(raw, key)
		break
	}

	if v, ok := raw["name"]; ok {
		_ = json.Unmarshal(v, &u.Name)
		delete(raw, "name")
	}
	if v, ok := raw["email"]; ok {
		_ = json.Unmarshal(v, &u.Email)
		delete(raw, "email")
	}
	if v, ok := raw["role"]; ok {
		if bytes.HasPrefix(bytes.TrimSpace(v), []byte("{")) {
			var role Role
			if err := json.Unmarshal(v, &role); err == nil {
				u.Role = &role
			}
		}
		delete(raw, "role")
	}

	if len(raw) > 0 {
		u.Extra = raw
	}
	return nil
}

// MarshalJSON writes the interpreted fields back alongside Extra
func (u UserRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Extra)+4)
	for k, v := range u.Extra {
		out[k] = v
	}
	if id, err := parseID(u.rawID); err == nil && id == u.ID {
		out["id"] = u.rawID
	} else {
		out["id"] = u.ID
	}
	out["name"] = u.Name
	if u.Email != "" {
		out["email"] = u.Email
	}
	if u.Role != nil {
		out["role"] = u.Role
	}
	return json.Marshal(out)
}

// parseID reads a scalar id. Numbers keep their literal form so 42 and "42"
// are the same id.
func parseID(v json.RawMessage) (string, error) {
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String(), nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", fmt.Errorf("expected a number or a string, got %s", bytes.TrimSpace(v))
	}
	return strings.TrimSpace(s), nil
}

// UserStatus is a status entry of an internal user
type UserStatus struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DrimsoftUser is an internal staff member managed from the dashboard
type DrimsoftUser struct {
	IDUser         int64      `json:"idUser"`
	Name           string     `json:"name"`
	SupabaseUserID string     `json:"supabaseUserId"`
	Status         UserStatus `json:"status"`
	Role           Role       `json:"role"`
}

// AvailableRoles lists the roles an internal user can hold
func AvailableRoles() []Role {
	return []Role{
		{ID: RoleAdministrator, Name: "Administrator"},
		{ID: RoleSupportTeam, Name: "Drimsoft Team"},
	}
}

// AvailableUserStatuses lists the statuses an internal user can hold
func AvailableUserStatuses() []UserStatus {
	return []UserStatus{
		{ID: UserStatusActive, Name: "Active"},
		{ID: UserStatusInactive, Name: "Inactive"},
		{ID: UserStatusDeleted, Name: "Deleted"},
	}
}
