package model

import (
	"strings"
	"time"
)

// OriginChat marks records produced through the chatbot.
const OriginChat = "chat"

// OriginForm marks complaints submitted through the regular form.
const OriginForm = "form"

// DraftFields is the partial complaint being assembled in a conversation.
// A nil pointer means the field has not been provided yet.
type DraftFields struct {
	CategoryID  *int64   `json:"category_id,omitempty"`
	Description *string  `json:"description,omitempty"`
	Reference   *string  `json:"reference,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	AddressText *string  `json:"address_text,omitempty"`
	Origin      string   `json:"origin,omitempty"`
}

// Merge overwrites every field that is set in update. Nested values are not
// merged; the last write for a key wins.
func (f DraftFields) Merge(update DraftFields) DraftFields {
	if update.CategoryID != nil {
		f.CategoryID = update.CategoryID
	}
	if update.Description != nil {
		f.Description = update.Description
	}
	if update.Reference != nil {
		f.Reference = update.Reference
	}
	if update.Latitude != nil {
		f.Latitude = update.Latitude
	}
	if update.Longitude != nil {
		f.Longitude = update.Longitude
	}
	if update.AddressText != nil {
		f.AddressText = update.AddressText
	}
	if update.Origin != "" {
		f.Origin = update.Origin
	}
	return f
}

// Empty reports whether no complaint field is set.
func (f DraftFields) Empty() bool {
	return f.CategoryID == nil && f.Description == nil && f.Reference == nil &&
		f.Latitude == nil && f.Longitude == nil && f.AddressText == nil
}

// Missing lists the required fields that are absent or blank.
func (f DraftFields) Missing() []string {
	var missing []string
	if f.CategoryID == nil || *f.CategoryID == 0 {
		missing = append(missing, "category_id")
	}
	if f.Description == nil || strings.TrimSpace(*f.Description) == "" {
		missing = append(missing, "description")
	}
	if f.Latitude == nil {
		missing = append(missing, "latitude")
	}
	if f.Longitude == nil {
		missing = append(missing, "longitude")
	}
	return missing
}

// Complete reports whether every required field is present.
func (f DraftFields) Complete() bool {
	return len(f.Missing()) == 0
}

// Draft is the mutable partial complaint attached to a conversation.
type Draft struct {
	ID             string      `json:"id"`
	CitizenID      string      `json:"citizen_id"`
	ConversationID *string     `json:"conversation_id,omitempty"`
	Fields         DraftFields `json:"fields"`
	ReadyToSubmit  bool        `json:"ready_to_submit"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// DraftSnapshot is the client-facing view of a draft.
type DraftSnapshot struct {
	ID            string      `json:"id"`
	ReadyToSubmit bool        `json:"ready_to_submit"`
	Fields        DraftFields `json:"fields"`
}

// Snapshot returns the client-facing view of the draft.
func (d *Draft) Snapshot() *DraftSnapshot {
	return &DraftSnapshot{
		ID:            d.ID,
		ReadyToSubmit: d.ReadyToSubmit,
		Fields:        d.Fields,
	}
}
