package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Santiagopro2002/Denuncias-gad-api/internal/model"
	"github.com/Santiagopro2002/Denuncias-gad-api/internal/store"
)

func newTestLookup() *Lookup {
	s := store.NewMemoryStore()
	s.AddCategory(model.Category{ID: 1, Name: "Alumbrado público", Active: true})
	s.AddCategory(model.Category{ID: 2, Name: "Basura", Active: true})
	s.AddCategory(model.Category{ID: 3, Name: "Vías y baches", Active: true})
	s.AddCategory(model.Category{ID: 4, Name: "Parques", Active: false})
	return NewLookup(s)
}

func TestResolve(t *testing.T) {
	l := newTestLookup()
	ctx := context.Background()

	tests := []struct {
		input string
		id    int64
		ok    bool
	}{
		{input: "basura", id: 2, ok: true},
		{input: "BASURA", id: 2, ok: true},
		{input: "hay basura en la calle", id: 2, ok: true},
		{input: "alumbrado", id: 1, ok: true},
		{input: "baches", id: 3, ok: true},
		{input: "desechos", id: 2, ok: true},
		{input: "poste de luz", id: 1, ok: true},
		{input: "parques", ok: false},
		{input: "impuestos", ok: false},
		{input: "   ", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			id, ok, err := l.Resolve(ctx, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.id, id)
			}
		})
	}
}

func TestListIsNameSortedAndActiveOnly(t *testing.T) {
	cats, err := newTestLookup().List(context.Background())
	require.NoError(t, err)

	var names []string
	for _, c := range cats {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Alumbrado público", "Basura", "Vías y baches"}, names)
}

func TestActive(t *testing.T) {
	l := newTestLookup()
	ctx := context.Background()

	for id, want := range map[int64]bool{1: true, 3: true, 4: false, 99: false} {
		got, err := l.Active(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got, id)
	}
}
