package models

import (
	"encoding/json"
	"strconv"
)

// PlanifikaUserTypeOrgAdmin marks a Planifika user that administers an organization
const PlanifikaUserTypeOrgAdmin = 1

// PlanifikaUser is a user of the Planifika product itself. The external API is
// not under our control, so the record is kept as raw fields with accessors
// for the handful of values the dashboard reads.
type PlanifikaUser map[string]json.RawMessage

// ID returns the user identifier from "id" or "idUser"
func (u PlanifikaUser) ID() (int64, bool) {
	return u.firstNumber("id", "idUser")
}

// DisplayName returns "name" or "fullName"
func (u PlanifikaUser) DisplayName() string {
	return u.firstString("name", "fullName")
}

// Email returns the user's email, if present
func (u PlanifikaUser) Email() string {
	return u.firstString("email")
}

// UserType returns idUserType (or userType)
func (u PlanifikaUser) UserType() (int64, bool) {
	return u.firstNumber("idUserType", "userType")
}

// IsOrgAdmin reports whether the user administers an organization
func (u PlanifikaUser) IsOrgAdmin() bool {
	t, ok := u.UserType()
	return ok && t == PlanifikaUserTypeOrgAdmin
}

// OrganizationID looks up the organization id under the keys the Planifika
// API has used over time, including a nested organization object
func (u PlanifikaUser) OrganizationID() (int64, bool) {
	if id, ok := u.firstNumber("idOrganization", "organizationId", "idOrg", "orgId"); ok {
		return id, true
	}
	raw, ok := u["organization"]
	if !ok {
		return 0, false
	}
	var nested PlanifikaUser
	if err := json.Unmarshal(raw, &nested); err != nil {
		return 0, false
	}
	return nested.firstNumber("id")
}

// PhotoURL returns the first avatar-like field present
func (u PlanifikaUser) PhotoURL() string {
	return u.firstString("photoURL", "photoUrl", "avatarUrl", "avatar", "imageUrl",
		"image", "picture", "profilePhotoUrl", "profilePictureUrl")
}

func (u PlanifikaUser) firstString(keys ...string) string {
	for _, k := range keys {
		raw, ok := u[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}

func (u PlanifikaUser) firstNumber(keys ...string) (int64, bool) {
	for _, k := range keys {
		raw, ok := u[k]
		if !ok {
			continue
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			if v, err := n.Int64(); err == nil {
				return v, true
			}
			if f, err := n.Float64(); err == nil {
				return int64(f), true
			}
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if v, err := strconv.ParseInt(s, 10, 64); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}
