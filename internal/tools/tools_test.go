package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/catalog"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/draft"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/model"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/store"
)

const citizenID = "0190b6a4-0000-7000-8000-000000000001"

type fixture struct {
	store *store.MemoryStore
	d     *Dispatcher
	scope Scope
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := store.NewMemoryStore()
	s.AddCitizen(citizenID)
	s.AddCategory(model.Category{ID: 1, Name: "Alumbrado público", Active: true})
	s.AddCategory(model.Category{ID: 2, Name: "Basura", Active: true})
	s.AddCategory(model.Category{ID: 3, Name: "Vías y baches", Active: true})

	now := time.Now()
	conv := &model.Conversation{ID: uuid.NewString(), CitizenID: citizenID, CreatedAt: now, UpdatedAt: now}
	dr := &model.Draft{
		ID:             uuid.NewString(),
		CitizenID:      citizenID,
		ConversationID: &conv.ID,
		Fields:         model.DraftFields{Origin: model.OriginChat},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, s.CreateSession(context.Background(), conv, dr, nil))

	return &fixture{
		store: s,
		d:     NewDispatcher(catalog.NewLookup(s), draft.NewService(s)),
		scope: Scope{CitizenID: citizenID, DraftID: dr.ID},
	}
}

func (f *fixture) call(t *testing.T, name, args string) *Result {
	t.Helper()
	res, err := f.d.Dispatch(context.Background(), f.scope, name, json.RawMessage(args))
	require.NoError(t, err)
	return res
}

func TestListCategories(t *testing.T) {
	f := newFixture(t)
	res := f.call(t, "list_categories", `{}`)

	require.Len(t, res.Categories, 3)
	assert.Equal(t, "Alumbrado público", res.Categories[0].Name)
	assert.JSONEq(t,
		`{"categories":[{"id":1,"name":"Alumbrado público"},{"id":2,"name":"Basura"},{"id":3,"name":"Vías y baches"}]}`,
		res.JSON())
}

func TestReadDraftFallsBackToScope(t *testing.T) {
	f := newFixture(t)
	res := f.call(t, "read_draft", `{}`)

	assert.Equal(t, f.scope.DraftID, res.DraftID)
	require.NotNil(t, res.ReadyToSubmit)
	assert.False(t, *res.ReadyToSubmit)
}

func TestInvalidDraftID(t *testing.T) {
	f := newFixture(t)
	for _, tool := range []string{"read_draft", "update_draft"} {
		res := f.call(t, tool, `{"draft_id":"not-a-uuid"}`)
		assert.Equal(t, ErrTagDraftNotFound, res.Error, tool)
	}
	res := f.call(t, "finalize", `{"draft_id":"not-a-uuid","confirmation":true}`)
	assert.Equal(t, ErrTagDraftNotFound, res.Error)
}

func TestForeignDraftIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.scope.CitizenID = uuid.NewString()
	res := f.call(t, "read_draft", `{}`)
	assert.Equal(t, ErrTagDraftNotFound, res.Error)
}

func TestUpdateDraftFlexibleArgs(t *testing.T) {
	f := newFixture(t)
	res := f.call(t, "update_draft",
		`{"category_id":"3","description":"hueco grande","latitude":"-0.93","longitude":-78.61}`)

	assert.True(t, res.Updated)
	require.NotNil(t, res.Fields)
	require.NotNil(t, res.Fields.CategoryID)
	assert.Equal(t, int64(3), *res.Fields.CategoryID)
	assert.InDelta(t, -0.93, *res.Fields.Latitude, 1e-9)
	assert.InDelta(t, -78.61, *res.Fields.Longitude, 1e-9)
	require.NotNil(t, res.ReadyToSubmit)
	assert.True(t, *res.ReadyToSubmit)
}

func TestUpdateDraftResolvesCategoryName(t *testing.T) {
	f := newFixture(t)
	res := f.call(t, "update_draft", `{"category_id":"basura"}`)
	require.NotNil(t, res.Fields.CategoryID)
	assert.Equal(t, int64(2), *res.Fields.CategoryID)
}

func TestUpdateDraftDropsUnknownCategoryIDs(t *testing.T) {
	f := newFixture(t)
	f.store.AddCategory(model.Category{ID: 9, Name: "Obsoleta", Active: false})

	for _, id := range []string{`9`, `42`, `"9"`, `1e19`, `9223372036854775807`} {
		res := f.call(t, "update_draft", `{"category_id":`+id+`,"description":"poste caído"}`)
		assert.True(t, res.Updated, id)
		assert.Nil(t, res.Fields.CategoryID, id)
	}

	res := f.call(t, "update_draft", `{"category_id":1}`)
	require.NotNil(t, res.Fields.CategoryID)
	assert.Equal(t, int64(1), *res.Fields.CategoryID)
}

func TestFinalizeRejectsDraftWithInactiveCategory(t *testing.T) {
	f := newFixture(t)
	f.store.AddCategory(model.Category{ID: 9, Name: "Obsoleta", Active: false})

	f.call(t, "update_draft", `{"category_id":9,"description":"poste caído","latitude":-0.93,"longitude":-78.61}`)
	res := f.call(t, "finalize", `{"confirmation":true}`)

	assert.Equal(t, ErrTagDraftIncomplete, res.Error)
	assert.Contains(t, res.Missing, "category_id")
	assert.Zero(t, f.store.ComplaintCount())
}

func TestUpdateDraftDropsOutOfRangeCoordinates(t *testing.T) {
	f := newFixture(t)
	res := f.call(t, "update_draft", `{"latitude":123,"longitude":-78.6}`)
	assert.Nil(t, res.Fields.Latitude)
	require.NotNil(t, res.Fields.Longitude)
}

func TestMalformedArgsTreatedAsEmpty(t *testing.T) {
	f := newFixture(t)
	res := f.call(t, "update_draft", `{"description": "x"`)
	assert.True(t, res.Updated)
	assert.Nil(t, res.Fields.Description)

	res = f.call(t, "finalize", `not json`)
	assert.Equal(t, ErrTagNotConfirmed, res.Error)
}

func TestUnknownTool(t *testing.T) {
	f := newFixture(t)
	res := f.call(t, "delete_everything", `{}`)
	assert.JSONEq(t, `{"error":"unknown_tool"}`, res.JSON())
}

func TestFinalizeFlow(t *testing.T) {
	f := newFixture(t)

	res := f.call(t, "finalize", `{"confirmation":false}`)
	assert.Equal(t, ErrTagNotConfirmed, res.Error)

	res = f.call(t, "finalize", `{"confirmation":true}`)
	assert.Equal(t, ErrTagDraftIncomplete, res.Error)
	assert.ElementsMatch(t, []string{"category_id", "description", "latitude", "longitude"}, res.Missing)
	require.NotNil(t, res.Fields)

	f.call(t, "update_draft", `{"category_id":3,"description":"bache","latitude":-0.93,"longitude":-78.61}`)
	res = f.call(t, "finalize", `{"confirmation":"true"}`)
	require.Empty(t, res.Error)
	assert.True(t, res.OK)
	require.NotNil(t, res.Complaint)
	assert.Equal(t, res.Complaint.ID, res.ComplaintID)
	assert.Equal(t, 1, f.store.ComplaintCount())

	res = f.call(t, "finalize", `{"confirmation":true}`)
	assert.Equal(t, ErrTagDraftNotFound, res.Error)
	assert.Equal(t, 1, f.store.ComplaintCount())
}

func TestDefinitionsCoverAllTools(t *testing.T) {
	var names []string
	for _, def := range Definitions() {
		names = append(names, def.Name)
		assert.Equal(t, "object", def.Parameters["type"])
	}
	assert.Equal(t, []string{"list_categories", "read_draft", "update_draft", "finalize"}, names)
}
