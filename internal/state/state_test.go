package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStateType(t *testing.T) {
	for _, st := range All {
		got, err := ParseStateType(string(st))
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}

	_, err := ParseStateType("grid_view")
	assert.Error(t, err)
	_, err = ParseStateType("")
	assert.Error(t, err)
}

func TestStateTypeForView(t *testing.T) {
	tests := []struct {
		view string
		want StateType
		ok   bool
	}{
		{ViewImage, PageView, true},
		{ViewThumbnails, ThumbnailView, true},
		{ViewBook, OpeningView, true},
		{ViewScroll, ScrollView, true},
		{"GalleryView", None, false},
	}
	for _, tt := range tests {
		t.Run(tt.view, func(t *testing.T) {
			got, ok := StateTypeForView(tt.view)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			if ok {
				assert.Equal(t, tt.view, got.ViewType())
				assert.True(t, got.IsView())
			}
		})
	}
	assert.Equal(t, "", Collection.ViewType())
	assert.False(t, CollectionSearch.IsView())
	assert.True(t, ItemSearch.IsSearch())
}

func TestEqual(t *testing.T) {
	base := HistoryState{
		Type:     PageView,
		Fragment: "aor/m1/p1/image",
		Data: Data{
			WindowID:     "w1",
			CollectionID: "aor",
			ManifestID:   "m1",
			CanvasID:     "p1",
			ViewType:     ViewImage,
		},
	}

	same := base
	same.Fragment = "something/else"
	assert.True(t, Equal(base, same), "fragment is not part of equality")

	otherCanvas := base
	otherCanvas.Data.CanvasID = "p2"
	assert.False(t, Equal(base, otherCanvas))

	otherType := base
	otherType.Type = OpeningView
	assert.False(t, Equal(base, otherType))
}

func TestEqual_Search(t *testing.T) {
	a := HistoryState{Type: CollectionSearch, Data: Data{
		CollectionID: "aor",
		Search:       &Search{Query: "rose", IsBasic: true},
	}}
	b := HistoryState{Type: CollectionSearch, Data: Data{
		CollectionID: "aor",
		Search:       &Search{Query: "rose", IsBasic: true, Rows: []SearchRow{}},
	}}
	assert.True(t, Equal(a, b), "nil and empty rows are equal")

	c := b
	c.Data.Search = &Search{Query: "rose", Rows: []SearchRow{{Category: "title", Term: "rose"}}}
	assert.False(t, Equal(a, c))

	d := a
	d.Data.Search = nil
	assert.False(t, Equal(a, d))
	assert.True(t, Equal(d, d))
}

func TestValid(t *testing.T) {
	assert.False(t, HistoryState{}.Valid())
	assert.True(t, HistoryState{Type: Collection}.Valid())
}
