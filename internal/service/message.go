package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/assistant"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/model"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/store"
	"github.com/Santiagopro2002/Denuncias-gad-api/pkg/logger"
	"github.com/Santiagopro2002/Denuncias-gad-api/pkg/metrics"
)

// Responder produces the assistant's reply to a stored citizen turn.
type Responder interface {
	Respond(ctx context.Context, t assistant.Turn) (*assistant.Outcome, error)
}

// MessageService handles citizen messages.
type MessageService struct {
	store     store.Store
	responder Responder
	publisher EventPublisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewMessageService creates a new message service.
func NewMessageService(st store.Store, responder Responder, publisher EventPublisher, log *logger.Logger) *MessageService {
	return &MessageService{
		store:     st,
		responder: responder,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

// Send stores the citizen's message, runs the assistant and stores its reply.
// The returned draft snapshot is nil once the complaint has been submitted.
func (s *MessageService) Send(ctx context.Context, citizenID string, req *model.SendMessageRequest) (*model.SendMessageResponse, error) {
	convID := strings.TrimSpace(req.ConversationID)
	text := strings.TrimSpace(req.Message)
	if convID == "" || text == "" {
		return nil, fmt.Errorf("%w: conversation_id and message are required", ErrInvalidInput)
	}

	if _, err := getConversation(ctx, s.store, citizenID, convID); err != nil {
		return nil, err
	}
	draft, err := s.store.DraftForConversation(ctx, convID, citizenID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	log := s.logger.With(
		zap.String("conversation_id", convID),
		zap.String("citizen_id", citizenID),
	)

	if _, err := s.appendTurn(ctx, log, convID, model.SenderCitizen, text); err != nil {
		return nil, err
	}

	reply := ""
	var complaint *model.Complaint
	out, err := s.responder.Respond(ctx, assistant.Turn{
		CitizenID:      citizenID,
		ConversationID: convID,
		DraftID:        draft.ID,
		Text:           text,
	})
	if err != nil {
		log.Error("assistant failed", zap.Error(err), zap.Bool("upstream", errors.Is(err, assistant.ErrUpstream)))
		publishEvent(ctx, s.publisher, log, &model.ComplaintEvent{
			ID:             uuid.Must(uuid.NewV7()).String(),
			Type:           model.EventTypeAssistantError,
			CitizenID:      citizenID,
			ConversationID: convID,
			Reason:         err.Error(),
			CreatedAt:      s.now(),
		})
		reply = assistant.UpstreamReply
	} else {
		reply = out.Reply
		complaint = out.Complaint
	}

	if _, err := s.appendTurn(ctx, log, convID, model.SenderAssistant, reply); err != nil {
		return nil, err
	}

	resp := &model.SendMessageResponse{Reply: reply, ConversationID: convID}
	if complaint != nil {
		resp.ComplaintID = complaint.ID
		publishEvent(ctx, s.publisher, log, &model.ComplaintEvent{
			ID:             uuid.Must(uuid.NewV7()).String(),
			Type:           model.EventTypeComplaintCreated,
			CitizenID:      citizenID,
			ConversationID: convID,
			ComplaintID:    complaint.ID,
			Origin:         complaint.Origin,
			CreatedAt:      s.now(),
		})
		return resp, nil
	}

	current, err := s.store.GetDraft(ctx, draft.ID, citizenID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		log.Warn("failed to refresh draft", zap.Error(err))
	default:
		resp.Draft = current.Snapshot()
	}
	return resp, nil
}

func (s *MessageService) appendTurn(ctx context.Context, log *logger.Logger, convID string, sender model.Sender, body string) (*model.Turn, error) {
	turn := &model.Turn{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: convID,
		Sender:         sender,
		Body:           body,
		CreatedAt:      s.now(),
	}
	if err := s.store.AppendTurn(ctx, turn); err != nil {
		return nil, fmt.Errorf("failed to store %s turn: %w", sender, err)
	}
	metrics.MessagesTotal.WithLabelValues(string(sender)).Inc()
	publishTurn(ctx, s.publisher, log, turn)
	return turn, nil
}
