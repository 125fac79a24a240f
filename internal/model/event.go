package model

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

const (
	EventTypeComplaintCreated EventType = "complaint_created"
	EventTypeAssistantError   EventType = "assistant_error"
)

// ComplaintEvent is published when something notable happens to a complaint
// or conversation.
type ComplaintEvent struct {
	ID             string         `json:"id"`
	Type           EventType      `json:"type"`
	CitizenID      string         `json:"citizen_id"`
	ConversationID string         `json:"conversation_id,omitempty"`
	ComplaintID    string         `json:"complaint_id,omitempty"`
	Origin         string         `json:"origin,omitempty"`
	Reason         string         `json:"reason,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
