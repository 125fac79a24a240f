package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength bounds a citizen chat message in bytes.
const MaxMessageLength = 4000

// ValidateMessageContent validates a chat message.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("message cannot be empty")
	}
	if len(content) > MaxMessageLength {
		return errors.New("message exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("message must be valid UTF-8")
	}
	return nil
}

// ValidateConversationID checks that a conversation id was supplied.
// Unknown or malformed ids are reported as not found further down.
func ValidateConversationID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("conversation_id is required")
	}
	if len(id) > 64 {
		return errors.New("conversation_id exceeds maximum length")
	}
	return nil
}
