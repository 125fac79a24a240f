// Package model defines data structures for the complaint drafting service.
package model

import (
	"time"
)

// Conversation represents a chatbot session owned by a citizen.
type Conversation struct {
	ID          string    `json:"id"`
	CitizenID   string    `json:"citizen_id"`
	ComplaintID *string   `json:"complaint_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StartConversationResponse is returned when a chatbot session starts.
type StartConversationResponse struct {
	ConversationID string `json:"conversation_id"`
	DraftID        string `json:"draft_id"`
}
