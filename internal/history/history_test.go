package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/llm"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/model"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/store"
)

func seedConversation(t *testing.T, n int) (*store.MemoryStore, string) {
	t.Helper()
	s := store.NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	conv := &model.Conversation{ID: uuid.NewString(), CitizenID: "c1", CreatedAt: base, UpdatedAt: base}
	d := &model.Draft{ID: uuid.NewString(), CitizenID: "c1", ConversationID: &conv.ID}
	require.NoError(t, s.CreateSession(ctx, conv, d, nil))

	for i := 0; i < n; i++ {
		sender := model.SenderCitizen
		if i%2 == 1 {
			sender = model.SenderAssistant
		}
		require.NoError(t, s.AppendTurn(ctx, &model.Turn{
			ID:             uuid.NewString(),
			ConversationID: conv.ID,
			Sender:         sender,
			Body:           fmt.Sprintf("turn %d", i),
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}))
	}
	return s, conv.ID
}

func TestWindowKeepsMostRecentOldestFirst(t *testing.T) {
	s, convID := seedConversation(t, 40)
	w := NewBuilder(s, 0).Window(convID)

	msgs, err := w.Messages(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 30)
	assert.Equal(t, "turn 10", msgs[0].Content)
	assert.Equal(t, "turn 39", msgs[29].Content)
	assert.Equal(t, llm.RoleUser, msgs[0].Role)
	assert.Equal(t, llm.RoleAssistant, msgs[29].Role)
}

func TestWindowIsRestartable(t *testing.T) {
	s, convID := seedConversation(t, 5)
	w := NewBuilder(s, 3).Window(convID)
	ctx := context.Background()

	first, err := w.Messages(ctx)
	require.NoError(t, err)
	second, err := w.Messages(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 3)

	all, err := s.ListTurns(ctx, convID)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestWindowShortConversation(t *testing.T) {
	s, convID := seedConversation(t, 2)

	msgs, err := NewBuilder(s, 30).Window(convID).Messages(context.Background())
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}
