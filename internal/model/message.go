package model

import (
	"time"
)

// Sender identifies who wrote a turn.
type Sender string

const (
	SenderCitizen   Sender = "citizen"
	SenderAssistant Sender = "assistant"
)

// Turn is one immutable message in a conversation log.
type Turn struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Sender         Sender    `json:"sender"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

// SendMessageRequest is the request to send a citizen message.
type SendMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

// SendMessageResponse is the reply to a citizen message.
// Draft is nil once the complaint has been submitted.
type SendMessageResponse struct {
	Reply          string         `json:"reply"`
	ConversationID string         `json:"conversation_id"`
	Draft          *DraftSnapshot `json:"draft"`
	ComplaintID    string         `json:"complaint_id,omitempty"`
}

// ListTurnsResponse is the response for listing conversation turns.
type ListTurnsResponse struct {
	Turns []Turn `json:"turns"`
}
