package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyasagar/iiifnav/internal/signal"
	"github.com/vidyasagar/iiifnav/internal/state"
)

type recorder struct {
	posted []signal.Signal
}

func (r *recorder) Post(s signal.Signal) { r.posted = append(r.posted, s) }

func (r *recorder) last(t *testing.T) signal.PopState {
	t.Helper()
	require.NotEmpty(t, r.posted)
	ps, ok := r.posted[len(r.posted)-1].(signal.PopState)
	require.True(t, ok)
	return ps
}

func TestSession_PushAndBack(t *testing.T) {
	rec := &recorder{}
	s := NewSession("iiif://viewer/#", rec)
	assert.Equal(t, "iiif://viewer/#", s.Location())
	assert.False(t, s.CanGoBack())

	aor := state.HistoryState{Type: state.Collection, Data: state.Data{CollectionID: "aor"}}
	s.PushState(aor, "Collection: aor", "iiif://viewer/#aor")
	page := state.HistoryState{Type: state.PageView, Data: state.Data{CollectionID: "aor", ManifestID: "m1", CanvasID: "p1"}}
	s.PushState(page, "Page p1", "iiif://viewer/#aor/m1/p1/image")

	assert.Empty(t, rec.posted, "pushState does not fire popstate")
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, "Page p1", s.Title())

	require.True(t, s.Back())
	ps := rec.last(t)
	require.NotNil(t, ps.State)
	assert.True(t, state.Equal(aor, *ps.State))
	assert.Equal(t, "iiif://viewer/#aor", ps.Address)
	assert.True(t, s.CanGoForward())

	require.True(t, s.Forward())
	assert.Equal(t, "iiif://viewer/#aor/m1/p1/image", rec.last(t).Address)
	assert.False(t, s.Forward())
	assert.Len(t, rec.posted, 2)
}

func TestSession_GoToStart(t *testing.T) {
	rec := &recorder{}
	s := NewSession("iiif://viewer/#aor", rec)
	s.PushState(state.HistoryState{Type: state.Collection}, "", "iiif://viewer/#rose")

	require.True(t, s.Go(-5))
	ps := rec.last(t)
	assert.Nil(t, ps.State)
	assert.Equal(t, "iiif://viewer/#aor", ps.Address)
	assert.False(t, s.Back())
}

func TestSession_NavigateTruncatesForward(t *testing.T) {
	rec := &recorder{}
	s := NewSession("", rec)
	s.PushState(state.HistoryState{Type: state.Collection}, "", "iiif://viewer/#aor")
	s.PushState(state.HistoryState{Type: state.Collection}, "", "iiif://viewer/#rose")
	s.Back()

	s.Navigate("iiif://viewer/#pizan")
	ps := rec.last(t)
	assert.Nil(t, ps.State)
	assert.Equal(t, "iiif://viewer/#pizan", ps.Address)
	assert.Equal(t, 3, s.Len())
	assert.False(t, s.CanGoForward())
}
