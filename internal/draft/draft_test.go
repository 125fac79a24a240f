package draft

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/model"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/store"
)

const citizenID = "0190b6a4-0000-7000-8000-000000000001"

func ptr[T any](v T) *T { return &v }

func newSession(t *testing.T) (*store.MemoryStore, *Service, *model.Draft) {
	t.Helper()
	s := store.NewMemoryStore()
	s.AddCitizen(citizenID)

	now := time.Now()
	conv := &model.Conversation{ID: uuid.NewString(), CitizenID: citizenID, CreatedAt: now, UpdatedAt: now}
	d := &model.Draft{
		ID:             uuid.NewString(),
		CitizenID:      citizenID,
		ConversationID: &conv.ID,
		Fields:         model.DraftFields{Origin: model.OriginChat},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, s.CreateSession(context.Background(), conv, d, nil))
	return s, NewService(s), d
}

func completeFields() model.DraftFields {
	return model.DraftFields{
		CategoryID:  ptr(int64(3)),
		Description: ptr("pothole on main street"),
		Latitude:    ptr(-0.93),
		Longitude:   ptr(-78.61),
	}
}

func TestMergeKeepsEarlierKeys(t *testing.T) {
	_, svc, d := newSession(t)
	ctx := context.Background()

	_, err := svc.Merge(ctx, d.ID, citizenID, model.DraftFields{Description: ptr("X")})
	require.NoError(t, err)
	got, err := svc.Merge(ctx, d.ID, citizenID, model.DraftFields{Reference: ptr("Y")})
	require.NoError(t, err)

	require.NotNil(t, got.Fields.Description)
	assert.Equal(t, "X", *got.Fields.Description)
	require.NotNil(t, got.Fields.Reference)
	assert.Equal(t, "Y", *got.Fields.Reference)
	assert.Equal(t, model.OriginChat, got.Fields.Origin)
}

func TestMergeRecomputesReadiness(t *testing.T) {
	_, svc, d := newSession(t)
	ctx := context.Background()

	steps := []struct {
		update model.DraftFields
		ready  bool
	}{
		{update: model.DraftFields{CategoryID: ptr(int64(3))}, ready: false},
		{update: model.DraftFields{Description: ptr("pothole")}, ready: false},
		{update: model.DraftFields{Latitude: ptr(-0.93)}, ready: false},
		{update: model.DraftFields{Longitude: ptr(-78.61)}, ready: true},
		{update: model.DraftFields{Description: ptr("  ")}, ready: false},
		{update: model.DraftFields{Description: ptr("pothole again")}, ready: true},
	}

	for i, step := range steps {
		got, err := svc.Merge(ctx, d.ID, citizenID, step.update)
		require.NoError(t, err)
		assert.Equal(t, step.ready, got.ReadyToSubmit, "step %d", i)
		assert.Equal(t, got.Fields.Complete(), got.ReadyToSubmit, "step %d", i)

		stored, err := svc.Get(ctx, d.ID, citizenID)
		require.NoError(t, err)
		assert.Equal(t, step.ready, stored.ReadyToSubmit, "step %d", i)
	}
}

func TestMergeUnknownDraft(t *testing.T) {
	_, svc, _ := newSession(t)

	_, err := svc.Merge(context.Background(), uuid.NewString(), citizenID, model.DraftFields{Description: ptr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetForeignDraftIsNotFound(t *testing.T) {
	_, svc, d := newSession(t)

	_, err := svc.Get(context.Background(), d.ID, "someone-else")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFinalizeNotConfirmed(t *testing.T) {
	s, svc, d := newSession(t)
	ctx := context.Background()
	_, err := svc.Merge(ctx, d.ID, citizenID, completeFields())
	require.NoError(t, err)

	res, err := svc.Finalize(ctx, d.ID, citizenID, false)
	require.NoError(t, err)
	assert.Equal(t, StatusNotConfirmed, res.Status)
	assert.Equal(t, 0, s.ComplaintCount())

	still, err := svc.Get(ctx, d.ID, citizenID)
	require.NoError(t, err)
	assert.True(t, still.ReadyToSubmit)
}

func TestFinalizeIncompleteEchoesFields(t *testing.T) {
	s, svc, d := newSession(t)
	ctx := context.Background()
	f := completeFields()
	f.Latitude = nil
	_, err := svc.Merge(ctx, d.ID, citizenID, f)
	require.NoError(t, err)

	res, err := svc.Finalize(ctx, d.ID, citizenID, true)
	require.NoError(t, err)
	assert.Equal(t, StatusIncomplete, res.Status)
	assert.Equal(t, []string{"latitude"}, res.Missing)
	require.NotNil(t, res.Fields.Description)
	assert.Equal(t, "pothole on main street", *res.Fields.Description)
	assert.Equal(t, 0, s.ComplaintCount())

	_, err = svc.Get(ctx, d.ID, citizenID)
	assert.NoError(t, err)
}

func TestFinalizeCreatesComplaintAndDeletesDraft(t *testing.T) {
	s, svc, d := newSession(t)
	ctx := context.Background()
	_, err := svc.Merge(ctx, d.ID, citizenID, completeFields())
	require.NoError(t, err)

	res, err := svc.Finalize(ctx, d.ID, citizenID, true)
	require.NoError(t, err)
	require.Equal(t, StatusFinalized, res.Status)
	require.NotNil(t, res.Complaint)

	c := res.Complaint
	assert.Equal(t, int64(3), c.CategoryID)
	assert.Equal(t, "pothole on main street", c.Description)
	assert.Equal(t, -0.93, c.Latitude)
	assert.Equal(t, -78.61, c.Longitude)
	assert.Equal(t, model.OriginChat, c.Origin)
	assert.Equal(t, model.StatusPending, c.Status)

	_, err = svc.Get(ctx, d.ID, citizenID)
	assert.ErrorIs(t, err, ErrNotFound)

	conv, err := s.GetConversation(ctx, *d.ConversationID, citizenID)
	require.NoError(t, err)
	require.NotNil(t, conv.ComplaintID)
	assert.Equal(t, c.ID, *conv.ComplaintID)

	again, err := svc.Finalize(ctx, d.ID, citizenID, true)
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, again.Status)
	assert.Equal(t, 1, s.ComplaintCount())
}

func TestConcurrentFinalizeCreatesOneComplaint(t *testing.T) {
	s, svc, d := newSession(t)
	ctx := context.Background()
	_, err := svc.Merge(ctx, d.ID, citizenID, completeFields())
	require.NoError(t, err)

	const attempts = 8
	results := make([]*FinalizeResult, attempts)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			res, err := svc.Finalize(ctx, d.ID, citizenID, true)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	close(start)
	wg.Wait()

	counts := map[FinalizeStatus]int{}
	for _, r := range results {
		require.NotNil(t, r)
		counts[r.Status]++
	}
	assert.Equal(t, 1, counts[StatusFinalized])
	assert.Equal(t, attempts-1, counts[StatusNotFound])
	assert.Equal(t, 1, s.ComplaintCount())
}
