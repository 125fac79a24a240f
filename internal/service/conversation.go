package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/assistant"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/model"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/store"
	"github.com/Santiagopro2002/Denuncias-gad-api/pkg/logger"
	"github.com/Santiagopro2002/Denuncias-gad-api/pkg/metrics"
)

// ConversationService handles chatbot session operations.
type ConversationService struct {
	store     store.Store
	publisher EventPublisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewConversationService creates a new conversation service.
func NewConversationService(st store.Store, publisher EventPublisher, log *logger.Logger) *ConversationService {
	return &ConversationService{
		store:     st,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

// Start opens a conversation with an empty chat draft and a greeting turn.
func (s *ConversationService) Start(ctx context.Context, citizenID string) (*model.StartConversationResponse, error) {
	ok, err := s.store.CitizenExists(ctx, citizenID)
	if err != nil {
		return nil, fmt.Errorf("failed to check citizen: %w", err)
	}
	if !ok {
		return nil, ErrNoCitizenProfile
	}

	now := s.now()
	conv := &model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		CitizenID: citizenID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	draft := &model.Draft{
		ID:             uuid.Must(uuid.NewV7()).String(),
		CitizenID:      citizenID,
		ConversationID: &conv.ID,
		Fields:         model.DraftFields{Origin: model.OriginChat},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	greeting := &model.Turn{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conv.ID,
		Sender:         model.SenderAssistant,
		Body:           assistant.GreetingReply,
		CreatedAt:      now,
	}

	if err := s.store.CreateSession(ctx, conv, draft, greeting); err != nil {
		return nil, fmt.Errorf("failed to start conversation: %w", err)
	}

	metrics.ConversationsTotal.Inc()
	metrics.MessagesTotal.WithLabelValues(string(model.SenderAssistant)).Inc()
	publishTurn(ctx, s.publisher, s.logger, greeting)

	s.logger.Info("conversation started",
		zap.String("conversation_id", conv.ID),
		zap.String("draft_id", draft.ID),
		zap.String("citizen_id", citizenID),
	)

	return &model.StartConversationResponse{ConversationID: conv.ID, DraftID: draft.ID}, nil
}

// ListTurns returns every turn of a conversation owned by the citizen.
func (s *ConversationService) ListTurns(ctx context.Context, citizenID, conversationID string) (*model.ListTurnsResponse, error) {
	if _, err := s.conversation(ctx, citizenID, conversationID); err != nil {
		return nil, err
	}

	turns, err := s.store.ListTurns(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	if turns == nil {
		turns = []model.Turn{}
	}
	return &model.ListTurnsResponse{Turns: turns}, nil
}

func (s *ConversationService) conversation(ctx context.Context, citizenID, conversationID string) (*model.Conversation, error) {
	return getConversation(ctx, s.store, citizenID, conversationID)
}

func getConversation(ctx context.Context, st store.Store, citizenID, conversationID string) (*model.Conversation, error) {
	if _, err := uuid.Parse(conversationID); err != nil {
		return nil, ErrNotFound
	}
	conv, err := st.GetConversation(ctx, conversationID, citizenID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return conv, nil
}

// publishTurn forwards a stored turn. Failures are logged, never returned.
func publishTurn(ctx context.Context, p EventPublisher, log *logger.Logger, turn *model.Turn) {
	err := p.PublishTurn(ctx, turn)
	if err != nil {
		metrics.EventsPublished.WithLabelValues("turn", "error").Inc()
		log.Warn("failed to publish turn",
			zap.String("conversation_id", turn.ConversationID),
			zap.String("turn_id", turn.ID),
			zap.Error(err),
		)
		return
	}
	metrics.EventsPublished.WithLabelValues("turn", "ok").Inc()
}

func publishEvent(ctx context.Context, p EventPublisher, log *logger.Logger, ev *model.ComplaintEvent) {
	err := p.PublishEvent(ctx, ev)
	if err != nil {
		metrics.EventsPublished.WithLabelValues(string(ev.Type), "error").Inc()
		log.Warn("failed to publish event",
			zap.String("event_type", string(ev.Type)),
			zap.String("citizen_id", ev.CitizenID),
			zap.Error(err),
		)
		return
	}
	metrics.EventsPublished.WithLabelValues(string(ev.Type), "ok").Inc()
}
