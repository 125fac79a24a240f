// Package draft owns the merge, completeness and finalize rules of complaint
// drafts.
package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/model"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/store"
)

// ErrNotFound is returned when no draft matches the id and owner.
var ErrNotFound = store.ErrNotFound

// FinalizeStatus is the outcome of a finalize attempt.
type FinalizeStatus string

const (
	StatusFinalized    FinalizeStatus = "finalized"
	StatusNotConfirmed FinalizeStatus = "not_confirmed"
	StatusNotFound     FinalizeStatus = "draft_not_found"
	StatusIncomplete   FinalizeStatus = "draft_incomplete"
)

// FinalizeResult describes a finalize attempt. Fields and Missing are set
// when the draft was incomplete.
type FinalizeResult struct {
	Status    FinalizeStatus
	Complaint *model.Complaint
	Fields    model.DraftFields
	Missing   []string
}

// Service applies draft rules on top of a draft repository.
type Service struct {
	drafts store.DraftRepository
	now    func() time.Time
}

// NewService creates a draft service.
func NewService(drafts store.DraftRepository) *Service {
	return &Service{drafts: drafts, now: time.Now}
}

// Get returns the current draft.
func (s *Service) Get(ctx context.Context, draftID, citizenID string) (*model.Draft, error) {
	d, err := s.drafts.GetDraft(ctx, draftID, citizenID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	return d, nil
}

// Merge overwrites the keys set in update, stamps the chat origin and
// recomputes readiness. Concurrent merges are last-write-wins.
func (s *Service) Merge(ctx context.Context, draftID, citizenID string, update model.DraftFields) (*model.Draft, error) {
	d, err := s.Get(ctx, draftID, citizenID)
	if err != nil {
		return nil, err
	}

	d.Fields = d.Fields.Merge(update)
	d.Fields.Origin = model.OriginChat
	d.ReadyToSubmit = d.Fields.Complete()
	d.UpdatedAt = s.now()

	if err := s.drafts.UpdateDraft(ctx, d); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update draft: %w", err)
	}
	return d, nil
}

var errIncomplete = errors.New("draft incomplete")

// Finalize converts a confirmed, complete draft into a pending complaint. The
// completeness check, complaint insert, conversation link and draft delete
// run under the draft lock and commit together.
func (s *Service) Finalize(ctx context.Context, draftID, citizenID string, confirmed bool) (*FinalizeResult, error) {
	if !confirmed {
		return &FinalizeResult{Status: StatusNotConfirmed}, nil
	}

	result := &FinalizeResult{}
	err := s.drafts.WithDraftLock(ctx, draftID, citizenID, func(ctx context.Context, d *model.Draft, tx store.DraftTx) error {
		if missing := d.Fields.Missing(); len(missing) > 0 {
			result.Fields = d.Fields
			result.Missing = missing
			return errIncomplete
		}

		now := s.now()
		c := complaintFromDraft(d, now)
		if err := tx.CreateComplaint(ctx, c); err != nil {
			return err
		}
		if d.ConversationID != nil {
			if err := tx.LinkConversation(ctx, *d.ConversationID, c.ID, now); err != nil {
				return err
			}
		}
		if err := tx.DeleteDraft(ctx, d.ID); err != nil {
			return err
		}
		result.Complaint = c
		return nil
	})

	switch {
	case err == nil:
		result.Status = StatusFinalized
		return result, nil
	case errors.Is(err, errIncomplete):
		result.Status = StatusIncomplete
		return result, nil
	case errors.Is(err, store.ErrNotFound):
		return &FinalizeResult{Status: StatusNotFound}, nil
	default:
		return nil, fmt.Errorf("failed to finalize draft: %w", err)
	}
}

func complaintFromDraft(d *model.Draft, now time.Time) *model.Complaint {
	f := d.Fields
	return &model.Complaint{
		ID:          uuid.Must(uuid.NewV7()).String(),
		CitizenID:   d.CitizenID,
		CategoryID:  *f.CategoryID,
		Description: *f.Description,
		Reference:   f.Reference,
		Latitude:    *f.Latitude,
		Longitude:   *f.Longitude,
		AddressText: f.AddressText,
		Origin:      model.OriginChat,
		Status:      model.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
