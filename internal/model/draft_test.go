package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestDraftFieldsMerge(t *testing.T) {
	base := DraftFields{
		CategoryID:  ptr(int64(2)),
		Description: ptr("poste caído"),
		Origin:      OriginChat,
	}

	merged := base.Merge(DraftFields{
		Description: ptr("poste caído frente a la escuela"),
		Latitude:    ptr(-1.05),
	})

	assert.Equal(t, int64(2), *merged.CategoryID)
	assert.Equal(t, "poste caído frente a la escuela", *merged.Description)
	assert.Equal(t, -1.05, *merged.Latitude)
	assert.Nil(t, merged.Longitude)
	assert.Equal(t, OriginChat, merged.Origin)

	// the receiver is a value; the original is untouched
	assert.Equal(t, "poste caído", *base.Description)
	assert.Nil(t, base.Latitude)
}

func TestDraftFieldsMergeEmptyUpdate(t *testing.T) {
	base := DraftFields{CategoryID: ptr(int64(1)), Origin: OriginChat}
	assert.Equal(t, base, base.Merge(DraftFields{}))
}

func TestDraftFieldsMissing(t *testing.T) {
	tests := []struct {
		name   string
		fields DraftFields
		want   []string
	}{
		{
			name:   "empty",
			fields: DraftFields{},
			want:   []string{"category_id", "description", "latitude", "longitude"},
		},
		{
			name: "zero category and blank description",
			fields: DraftFields{
				CategoryID:  ptr(int64(0)),
				Description: ptr("   "),
				Latitude:    ptr(-1.0),
				Longitude:   ptr(-80.0),
			},
			want: []string{"category_id", "description"},
		},
		{
			name: "coordinates at zero are present",
			fields: DraftFields{
				CategoryID:  ptr(int64(3)),
				Description: ptr("bache"),
				Latitude:    ptr(0.0),
				Longitude:   ptr(0.0),
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fields.Missing())
			assert.Equal(t, tt.want == nil, tt.fields.Complete())
		})
	}
}

func TestDraftFieldsEmpty(t *testing.T) {
	assert.True(t, DraftFields{Origin: OriginChat}.Empty())
	assert.False(t, DraftFields{Reference: ptr("junto al parque")}.Empty())
}

func TestDraftSnapshot(t *testing.T) {
	d := &Draft{
		ID:            "d-1",
		CitizenID:     "c-1",
		Fields:        DraftFields{CategoryID: ptr(int64(4))},
		ReadyToSubmit: true,
	}

	snap := d.Snapshot()
	assert.Equal(t, "d-1", snap.ID)
	assert.True(t, snap.ReadyToSubmit)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"d-1","ready_to_submit":true,"fields":{"category_id":4}}`, string(raw))
}
