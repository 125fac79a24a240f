package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/model"
	"github.com/Santiagopro2002/Denuncias-gad-api/pkg/metrics"
)

const (
	// StreamName is the name of the complaints stream.
	StreamName = "DENUNCIAS"

	// SubjectPrefix is the prefix for all published subjects.
	SubjectPrefix = "denuncias"
)

// StreamManager publishes conversation turns and complaint events.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStream creates the stream if it does not exist.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream: %w", err)
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      365 * 24 * time.Hour,
		MaxBytes:    10 * 1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		DenyDelete:  true,
		DenyPurge:   true,
		Description: "Chatbot turns and complaint events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// TurnSubject returns the subject for a conversation turn.
func TurnSubject(conversationID string, sender model.Sender) string {
	return fmt.Sprintf("%s.conv.%s.turn.%s", SubjectPrefix, conversationID, sender)
}

// EventSubject returns the subject for a complaint event.
func EventSubject(eventType model.EventType, citizenID string) string {
	return fmt.Sprintf("%s.event.%s.%s", SubjectPrefix, eventType, citizenID)
}

// PublishTurn publishes a stored turn.
func (m *StreamManager) PublishTurn(ctx context.Context, turn *model.Turn) error {
	return m.publish(ctx, TurnSubject(turn.ConversationID, turn.Sender), turn.ID, turn)
}

// PublishEvent publishes a complaint event.
func (m *StreamManager) PublishEvent(ctx context.Context, event *model.ComplaintEvent) error {
	return m.publish(ctx, EventSubject(event.Type, event.CitizenID), event.ID, event)
}

func (m *StreamManager) publish(ctx context.Context, subject, msgID string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", subject, err)
	}

	if _, err := m.client.JetStream().Publish(ctx, subject, data, jetstream.WithMsgID(msgID)); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	return nil
}

// Check verifies the stream is reachable and exports its size.
func (m *StreamManager) Check(ctx context.Context) error {
	if !m.client.IsConnected() {
		return errors.New("NATS not connected")
	}

	stream, err := m.client.JetStream().Stream(ctx, StreamName)
	if err != nil {
		return fmt.Errorf("failed to get stream: %w", err)
	}
	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get stream info: %w", err)
	}

	metrics.NATSStreamMessages.WithLabelValues(StreamName).Set(float64(info.State.Msgs))
	metrics.NATSStreamBytes.WithLabelValues(StreamName).Set(float64(info.State.Bytes))
	return nil
}
