package session

import (
	"bytes"
	"encoding/json"

	"github.com/drimsoft/planifika-admin/internal/models"
)

// ProfileUpdate is the decoded response of a profile update. Backend versions
// answer with the user itself, with {"db": user} or with {"user": {"db": user}};
// each shape that was present is decoded into its own field.
type ProfileUpdate struct {
	Raw      json.RawMessage
	TopLevel *models.UserRecord
	DB       *models.UserRecord
	UserDB   *models.UserRecord
}

// DecodeProfileUpdate decodes every known shape present in raw
func DecodeProfileUpdate(raw json.RawMessage) ProfileUpdate {
	return ProfileUpdate{
		Raw:      raw,
		TopLevel: decodeTopLevel(raw),
		DB:       decodeDB(raw),
		UserDB:   decodeUserDB(raw),
	}
}

func decodeTopLevel(raw json.RawMessage) *models.UserRecord {
	return decodeRecord(raw)
}

func decodeDB(raw json.RawMessage) *models.UserRecord {
	var wrapper struct {
		DB json.RawMessage `json:"db"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil
	}
	return decodeRecord(wrapper.DB)
}

func decodeUserDB(raw json.RawMessage) *models.UserRecord {
	var wrapper struct {
		User json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil
	}
	return decodeDB(wrapper.User)
}

func decodeRecord(raw json.RawMessage) *models.UserRecord {
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return nil
	}
	var user models.UserRecord
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil
	}
	return &user
}

// Name returns the updated display name: top level first, then db, then
// user.db. fallback is returned when no shape carries a name.
func (p ProfileUpdate) Name(fallback string) string {
	for _, u := range []*models.UserRecord{p.TopLevel, p.DB, p.UserDB} {
		if u != nil && u.Name != "" {
			return u.Name
		}
	}
	return fallback
}

// Record returns the most specific user record in the response: user.db,
// then db, then the top level
func (p ProfileUpdate) Record() *models.UserRecord {
	for _, u := range []*models.UserRecord{p.UserDB, p.DB, p.TopLevel} {
		if u != nil {
			return u
		}
	}
	return nil
}

// MergeInto applies the update to the cached user. Only the name is merged;
// with nothing cached the response record is adopted as is.
func (p ProfileUpdate) MergeInto(cached *models.UserRecord) *models.UserRecord {
	if cached == nil {
		return p.Record().Clone()
	}
	merged := cached.Clone()
	merged.Name = p.Name(cached.Name)
	return merged
}
