// Package history builds the bounded turn window supplied to the model.
package history

import (
	"context"
	"fmt"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/llm"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/model"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/store"
)

// DefaultLimit is the number of most recent turns kept in the window.
const DefaultLimit = 30

// Builder creates history windows over the turn log.
type Builder struct {
	turns store.TurnReader
	limit int
}

// NewBuilder creates a builder. A non-positive limit uses DefaultLimit.
func NewBuilder(turns store.TurnReader, limit int) *Builder {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Builder{turns: turns, limit: limit}
}

// Window is a read-only view of a conversation's latest turns. Nothing is
// read until Messages is called, and each call reads the log afresh.
type Window struct {
	turns          store.TurnReader
	conversationID string
	limit          int
}

// Window returns the view for a conversation.
func (b *Builder) Window(conversationID string) Window {
	return Window{turns: b.turns, conversationID: conversationID, limit: b.limit}
}

// Messages returns the newest turns, oldest first, as model chat messages.
func (w Window) Messages(ctx context.Context) ([]llm.ChatMessage, error) {
	turns, err := w.turns.RecentTurns(ctx, w.conversationID, w.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	out := make([]llm.ChatMessage, 0, len(turns))
	for _, t := range turns {
		out = append(out, llm.ChatMessage{Role: roleFor(t.Sender), Content: t.Body})
	}
	return out, nil
}

func roleFor(s model.Sender) string {
	if s == model.SenderCitizen {
		return llm.RoleUser
	}
	return llm.RoleAssistant
}
