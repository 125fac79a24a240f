// Package service provides business logic for the complaint drafting service.
package service

import (
	"context"
	"errors"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/model"
)

var (
	// ErrInvalidInput is returned for requests rejected before any persistence.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound hides whether a resource is missing or owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrNoCitizenProfile is returned when the caller has no citizen record.
	ErrNoCitizenProfile = errors.New("citizen profile does not exist")
)

// EventPublisher receives turns and complaint events for downstream consumers.
type EventPublisher interface {
	PublishTurn(ctx context.Context, turn *model.Turn) error
	PublishEvent(ctx context.Context, event *model.ComplaintEvent) error
}

// NoopPublisher discards everything. Used when NATS is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishTurn(context.Context, *model.Turn) error { return nil }

func (NoopPublisher) PublishEvent(context.Context, *model.ComplaintEvent) error { return nil }
