// Package store provides persistence for conversations, turns, drafts,
// complaints and the category catalog.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/model"
)

// ErrNotFound is returned when a record does not exist for the given owner.
// It never distinguishes "owned by someone else" from "missing".
var ErrNotFound = errors.New("not found")

// TurnReader reads the turn log of a conversation.
type TurnReader interface {
	// RecentTurns returns at most limit of the newest turns, oldest first.
	RecentTurns(ctx context.Context, conversationID string, limit int) ([]model.Turn, error)
}

// CategoryReader reads the complaint type catalog.
type CategoryReader interface {
	// ActiveCategories returns the active categories sorted by name.
	ActiveCategories(ctx context.Context) ([]model.Category, error)
	// MatchCategories returns active categories whose name contains term or is
	// contained in term, case-insensitively, in catalog order.
	MatchCategories(ctx context.Context, term string) ([]model.Category, error)
}

// DraftTx is the set of writes allowed while a draft row is locked. All of
// them commit together with the lock release or not at all.
type DraftTx interface {
	CreateComplaint(ctx context.Context, c *model.Complaint) error
	LinkConversation(ctx context.Context, conversationID, complaintID string, at time.Time) error
	DeleteDraft(ctx context.Context, draftID string) error
}

// DraftRepository owns drafts.
type DraftRepository interface {
	GetDraft(ctx context.Context, id, citizenID string) (*model.Draft, error)
	DraftForConversation(ctx context.Context, conversationID, citizenID string) (*model.Draft, error)
	UpdateDraft(ctx context.Context, d *model.Draft) error
	// WithDraftLock runs fn while holding an exclusive lock on the draft.
	// It returns ErrNotFound without calling fn when the draft is absent.
	// Writes made through tx are committed only if fn returns nil.
	WithDraftLock(ctx context.Context, id, citizenID string, fn func(ctx context.Context, d *model.Draft, tx DraftTx) error) error
}

// ComplaintFilter narrows complaint searches for the map.
type ComplaintFilter struct {
	CitizenID  string
	CategoryID *int64
	Since      *time.Time
	Search     string
	Box        *BoundingBox
	Limit      int
}

// BoundingBox is an inclusive latitude/longitude rectangle.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// ComplaintRow is a complaint joined with its category name.
type ComplaintRow struct {
	model.Complaint
	CategoryName string
}

// Store is the full persistence contract of the service.
type Store interface {
	TurnReader
	CategoryReader
	DraftRepository

	CitizenExists(ctx context.Context, citizenID string) (bool, error)
	// CreateSession persists a new conversation, its draft and the greeting
	// turn atomically.
	CreateSession(ctx context.Context, conv *model.Conversation, draft *model.Draft, greeting *model.Turn) error
	GetConversation(ctx context.Context, id, citizenID string) (*model.Conversation, error)
	AppendTurn(ctx context.Context, turn *model.Turn) error
	ListTurns(ctx context.Context, conversationID string) ([]model.Turn, error)

	CreateComplaint(ctx context.Context, c *model.Complaint) error
	ListComplaints(ctx context.Context, citizenID string, limit int) ([]model.Complaint, error)
	SearchComplaints(ctx context.Context, f ComplaintFilter) ([]ComplaintRow, error)

	Ping(ctx context.Context) error
	Close()
}
