package navigation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyasagar/iiifnav/internal/iiif"
	"github.com/vidyasagar/iiifnav/internal/logging"
	"github.com/vidyasagar/iiifnav/internal/signal"
	"github.com/vidyasagar/iiifnav/internal/state"
	"github.com/vidyasagar/iiifnav/internal/urlslicer"
)

const (
	base   = "iiif://viewer/#"
	aorID  = "https://example.org/iiif-pres/aor/collection"
	roseID = "https://example.org/iiif-pres/rose/collection"
)

type push struct {
	state   state.HistoryState
	title   string
	address string
}

type fakeNative struct {
	location string
	pushes   []push
}

func (f *fakeNative) PushState(st state.HistoryState, title, address string) {
	f.pushes = append(f.pushes, push{st, title, address})
	f.location = address
}

func (f *fakeNative) Location() string { return f.location }

type harness struct {
	bus         *signal.Bus
	native      *fakeNative
	ctl         *Controller
	collections map[string]*iiif.Collection
	manifests   map[string]*iiif.Manifest
	hold        bool
	held        []signal.ResourceFound
	produced    []signal.Signal
}

func record[T signal.Signal](h *harness) {
	signal.Subscribe(h.bus, func(s T) { h.produced = append(h.produced, s) })
}

func newHarness(t *testing.T, location string) *harness {
	t.Helper()
	h := &harness{
		bus:    signal.NewBus(),
		native: &fakeNative{location: location},
		collections: map[string]*iiif.Collection{
			aorID: {ID: aorID, Label: "AOR", SearchService: "svc-aor", Manifests: []iiif.ManifestRef{{ID: "m1"}}},
			roseID: {ID: roseID, Label: "Rose", SearchService: "svc-rose", Manifests: []iiif.ManifestRef{{ID: "r1"}}},
		},
		manifests: map[string]*iiif.Manifest{
			"m1": {ID: "m1", SearchService: "svc-m1", Canvases: []iiif.Canvas{{ID: "p1"}, {ID: "p2"}}},
			"r1": {ID: "r1", Canvases: []iiif.Canvas{{ID: "c1"}}},
		},
	}

	signal.Subscribe(h.bus, func(req signal.ResourceRequest) {
		found := signal.ResourceFound{CorrelationID: req.CorrelationID, Kind: req.Kind, ID: req.ID}
		switch req.Kind {
		case signal.KindCollection:
			found.Collection = h.collections[req.ID]
		case signal.KindManifest:
			found.Manifest = h.manifests[req.ID]
		}
		if found.Collection == nil && found.Manifest == nil {
			found.Err = errors.New("not found")
		}
		if h.hold {
			h.held = append(h.held, found)
			return
		}
		h.bus.Publish(found)
	})
	record[signal.OpenWindowRequest](h)
	record[signal.SwitchSearchServiceRequest](h)
	record[signal.PickSearchServiceRequest](h)
	record[signal.PanelVisibilityRequest](h)
	record[signal.SearchContextUpdate](h)
	record[signal.SearchExecuteRequest](h)
	record[signal.Alert](h)

	h.ctl = New(h.bus, h.native, urlslicer.New(base), Options{
		Collections: []string{aorID, roseID},
	}, logging.Nop())
	h.ctl.Start()
	return h
}

func (h *harness) receive(ids ...string) {
	for _, id := range ids {
		h.bus.Publish(signal.CollectionReceived{Collection: h.collections[id]})
	}
}

func newActive(t *testing.T, location string) *harness {
	t.Helper()
	h := newHarness(t, location)
	h.receive(aorID, roseID)
	require.Equal(t, PhaseActive, h.ctl.Phase())
	return h
}

func produced[T signal.Signal](h *harness) []T {
	var out []T
	for _, s := range h.produced {
		if v, ok := s.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func (h *harness) reset() {
	h.produced = nil
}

func (h *harness) lastPush(t *testing.T) push {
	t.Helper()
	require.NotEmpty(t, h.native.pushes)
	return h.native.pushes[len(h.native.pushes)-1]
}

func pageView(window, canvas string) signal.WindowViewUpdated {
	return signal.WindowViewUpdated{WindowID: window, ViewType: state.ViewImage, ManifestID: "m1", CanvasID: canvas}
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestActivation_WaitsForEveryCollection(t *testing.T) {
	h := newHarness(t, "")
	assert.Equal(t, PhaseAwaitingInitialLoad, h.ctl.Phase())

	h.receive(aorID)
	assert.Equal(t, PhaseAwaitingInitialLoad, h.ctl.Phase())
	assert.False(t, isClosed(h.ctl.Ready()))

	h.bus.Publish(pageView("w1", "p1"))
	assert.Empty(t, h.native.pushes, "no recording before activation")

	h.receive(roseID)
	assert.Equal(t, PhaseActive, h.ctl.Phase())
	assert.True(t, isClosed(h.ctl.Ready()))

	require.Len(t, h.native.pushes, 1)
	assert.Equal(t, base+"aor", h.native.pushes[0].address)
	assert.Equal(t, "Collection: aor", h.native.pushes[0].title)
	assert.Len(t, produced[signal.PanelVisibilityRequest](h), 1)
}

func TestActivation_FailedCollectionIsSettled(t *testing.T) {
	h := newHarness(t, "")
	h.receive(aorID)
	h.bus.Publish(signal.ResourceFound{Kind: signal.KindCollection, ID: roseID, Err: errors.New("boom")})

	assert.Equal(t, PhaseActive, h.ctl.Phase())
}

func TestActivation_ExpectedCollectionMustArrive(t *testing.T) {
	h := newHarness(t, base+"rose")
	h.receive(aorID)
	h.bus.Publish(signal.ResourceFound{Kind: signal.KindCollection, ID: roseID, Err: errors.New("boom")})

	assert.Equal(t, PhaseAwaitingInitialLoad, h.ctl.Phase())
	alerts := produced[signal.Alert](h)
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0].Message, "rose")
}

func TestActivation_DeclaredIDDiffersFromRequested(t *testing.T) {
	h := newHarness(t, "")
	declared := aorID + "/"
	aor := *h.collections[aorID]
	aor.ID = declared
	h.bus.Publish(signal.CollectionReceived{Collection: &aor, RequestedID: aorID})
	h.receive(roseID)

	require.Equal(t, PhaseActive, h.ctl.Phase())
	require.Len(t, h.native.pushes, 1)
	assert.Equal(t, base+"aor", h.native.pushes[0].address)
	assert.Equal(t, declared, h.native.pushes[0].state.Data.CollectionID)
	assert.Equal(t, declared, h.ctl.CurrentCollection())

	h.bus.Publish(signal.PopState{Address: base + "rose"})
	h.bus.Publish(signal.PopState{Address: base + "aor"})
	cur, ok := h.ctl.Current()
	require.True(t, ok)
	assert.Equal(t, declared, cur.Data.CollectionID)
	assert.Empty(t, produced[signal.Alert](h))
}

func TestActivation_RestoresStartingAddress(t *testing.T) {
	h := newActive(t, base+"aor/m1/p1/image")

	assert.Empty(t, h.native.pushes, "starting address is adopted without a push")
	entries, cursor := h.ctl.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 0, cursor)
	assert.Equal(t, state.PageView, entries[0].Type)
	assert.Equal(t, aorID, entries[0].Data.CollectionID)

	opens := produced[signal.OpenWindowRequest](h)
	require.Len(t, opens, 1)
	assert.Equal(t, "m1", opens[0].ManifestID)
	assert.Equal(t, "p1", opens[0].CanvasID)
	assert.Equal(t, state.ViewImage, opens[0].ViewType)
	assert.True(t, opens[0].IgnoreHistory)
	assert.NotEmpty(t, opens[0].WindowID)
}

func TestRecord_WindowView(t *testing.T) {
	h := newActive(t, "")
	h.bus.Publish(pageView("w1", "p1"))

	p := h.lastPush(t)
	assert.Equal(t, state.PageView, p.state.Type)
	assert.Equal(t, base+"aor/m1/p1/image", p.address)
	assert.True(t, strings.HasSuffix(p.address, "m1/p1/image"))
	assert.Equal(t, "aor/m1/p1/image", p.state.Fragment)
	assert.Equal(t, "w1", p.state.Data.WindowID)

	cur, ok := h.ctl.Current()
	require.True(t, ok)
	assert.True(t, state.Equal(p.state, cur))
}

func TestRecord_DuplicateRejected(t *testing.T) {
	h := newActive(t, "")
	h.bus.Publish(pageView("w1", "p1"))
	h.bus.Publish(pageView("w1", "p1"))

	assert.Len(t, h.native.pushes, 2)
	entries, _ := h.ctl.Entries()
	assert.Len(t, entries, 2)
}

func TestRecord_Ignored(t *testing.T) {
	h := newActive(t, "")
	before := len(h.native.pushes)

	h.bus.Publish(signal.SearchServiceSwitched{ServiceID: "svc-rose", OriginWindowID: "w1"})
	h.bus.Publish(signal.SearchServiceSwitched{ServiceID: "svc-rose", IgnoreHistory: true})
	h.bus.Publish(signal.SearchResultsClosed{OriginWindowID: "w1"})
	h.bus.Publish(signal.PanelVisibilityChanged{Visible: false})
	h.bus.Publish(signal.PanelVisibilityChanged{Visible: true, IgnoreHistory: true})
	h.bus.Publish(signal.WindowViewUpdated{ViewType: "GalleryView", ManifestID: "m1"})
	h.bus.Publish(signal.SearchExecuted{IgnoreHistory: true})

	assert.Len(t, h.native.pushes, before)
}

func TestRecord_SearchServiceSwitched(t *testing.T) {
	h := newActive(t, "")
	h.bus.Publish(signal.SearchServiceSwitched{ServiceID: "svc-rose"})

	assert.Equal(t, base+"rose", h.lastPush(t).address)
	assert.Equal(t, roseID, h.ctl.CurrentCollection())

	h.bus.Publish(signal.SearchResultsClosed{})
	assert.Len(t, h.native.pushes, 2, "current collection is already recorded")
}

func TestRecord_Searches(t *testing.T) {
	h := newActive(t, "")

	h.bus.Publish(signal.SearchExecuted{Context: signal.SearchContext{
		ServiceID: "svc-aor", TargetID: aorID, TargetKind: signal.KindCollection, Query: "rose", IsBasic: true,
	}})
	p := h.lastPush(t)
	assert.Equal(t, state.CollectionSearch, p.state.Type)
	assert.Equal(t, base+"aor/search?q=rose", p.address)

	h.bus.Publish(signal.SearchExecuted{Context: signal.SearchContext{
		ServiceID: "svc-m1", TargetID: "m1", TargetKind: signal.KindManifest, Query: "love", Offset: 20,
	}})
	p = h.lastPush(t)
	assert.Equal(t, state.ItemSearch, p.state.Type)
	assert.Equal(t, base+"aor/m1/search?offset=20&q=love", p.address)
}

func TestRecord_UnencodableRaisesAlert(t *testing.T) {
	h := newActive(t, "")
	before := len(h.native.pushes)

	h.bus.Publish(signal.SearchExecuted{Context: signal.SearchContext{TargetID: aorID, TargetKind: signal.KindCollection}})

	assert.Len(t, h.native.pushes, before)
	entries, _ := h.ctl.Entries()
	assert.Len(t, entries, before)
	assert.Len(t, produced[signal.Alert](h), 1)
}

func TestPopState_ReplaysIntermediateStates(t *testing.T) {
	h := newActive(t, "")
	h.bus.Publish(pageView("w1", "p1"))
	h.bus.Publish(pageView("w1", "p2"))
	first := h.native.pushes[0].state
	h.reset()

	h.bus.Publish(signal.PopState{State: &first, Address: h.native.pushes[0].address})

	_, cursor := h.ctl.Entries()
	assert.Equal(t, 0, cursor)
	assert.Len(t, h.native.pushes, 3, "popstate never pushes")
	assert.Empty(t, produced[signal.OpenWindowRequest](h), "superseded page is dropped")
	switches := produced[signal.SwitchSearchServiceRequest](h)
	require.Len(t, switches, 1)
	assert.Equal(t, "svc-aor", switches[0].ServiceID)
	assert.True(t, switches[0].IgnoreHistory)
}

func TestPopState_Forward(t *testing.T) {
	h := newActive(t, "")
	h.bus.Publish(pageView("w1", "p1"))
	h.bus.Publish(pageView("w1", "p2"))
	p1, p2 := h.native.pushes[1], h.native.pushes[2]

	h.bus.Publish(signal.PopState{State: &p1.state, Address: p1.address})
	h.reset()
	h.bus.Publish(signal.PopState{State: &p2.state, Address: p2.address})

	opens := produced[signal.OpenWindowRequest](h)
	require.Len(t, opens, 1)
	assert.Equal(t, signal.OpenWindowRequest{
		WindowID: "w1", ManifestID: "m1", CanvasID: "p2", ViewType: state.ViewImage, IgnoreHistory: true,
	}, opens[0])
	_, cursor := h.ctl.Entries()
	assert.Equal(t, 2, cursor)
}

func TestPopState_UnknownEntryIsDecoded(t *testing.T) {
	h := newActive(t, "")
	h.reset()

	h.bus.Publish(signal.PopState{Address: base + "rose/r1/thumb"})

	entries, cursor := h.ctl.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, 1, cursor)
	assert.Equal(t, state.ThumbnailView, entries[1].Type)
	assert.Equal(t, roseID, entries[1].Data.CollectionID)
	assert.Len(t, h.native.pushes, 1)

	opens := produced[signal.OpenWindowRequest](h)
	require.Len(t, opens, 1)
	assert.Equal(t, state.ViewThumbnails, opens[0].ViewType)
	assert.Equal(t, "c1", opens[0].CanvasID)
	assert.Equal(t, roseID, h.ctl.CurrentCollection())
}

func TestPopState_BadAddresses(t *testing.T) {
	h := newActive(t, "")
	h.reset()

	h.bus.Publish(signal.PopState{Address: base + "aor/m1/p1/p2/p3/image"})
	h.bus.Publish(signal.PopState{Address: base + "pizan"})

	alerts := produced[signal.Alert](h)
	require.Len(t, alerts, 2)
	assert.Contains(t, alerts[0].Message, "Cannot load address")
	assert.Contains(t, alerts[1].Message, "pizan")
	entries, _ := h.ctl.Entries()
	assert.Len(t, entries, 1)
}

func TestPopState_EmptyFragmentShowsDefault(t *testing.T) {
	h := newActive(t, "")
	h.bus.Publish(signal.SearchServiceSwitched{ServiceID: "svc-rose"})
	h.reset()

	h.bus.Publish(signal.PopState{Address: base})

	_, cursor := h.ctl.Entries()
	assert.Equal(t, 0, cursor)
	assert.Equal(t, aorID, h.ctl.CurrentCollection())
}

func TestPopState_ItemSearchWithoutService(t *testing.T) {
	h := newActive(t, "")
	h.reset()

	h.bus.Publish(signal.PopState{Address: base + "rose/r1/search?q=amor"})

	picks := produced[signal.PickSearchServiceRequest](h)
	require.Len(t, picks, 1)
	assert.Equal(t, UnknownService, picks[0].ServiceID)

	updates := produced[signal.SearchContextUpdate](h)
	require.Len(t, updates, 1)
	ctx := updates[0].Context
	assert.Equal(t, UnknownService, ctx.ServiceID)
	assert.Equal(t, "r1", ctx.TargetID)
	assert.Equal(t, signal.KindManifest, ctx.TargetKind)
	assert.Equal(t, "amor", ctx.Query)
	assert.True(t, ctx.IsBasic)
	assert.Len(t, produced[signal.SearchExecuteRequest](h), 1)
}

func TestPopState_StaleCompletionDropped(t *testing.T) {
	h := newActive(t, "")
	h.hold = true
	h.reset()

	h.bus.Publish(signal.PopState{Address: base + "rose/r1/thumb"})
	h.bus.Publish(signal.PopState{Address: base + "aor/m1/p2/image"})
	require.Len(t, h.held, 2)

	h.hold = false
	for _, f := range h.held {
		h.bus.Publish(f)
	}

	opens := produced[signal.OpenWindowRequest](h)
	require.Len(t, opens, 1)
	assert.Equal(t, "m1", opens[0].ManifestID)
	assert.Equal(t, "p2", opens[0].CanvasID)
}

func TestPopState_RecordedViewSupersedesPendingReplay(t *testing.T) {
	h := newActive(t, "")
	h.hold = true
	h.reset()

	h.bus.Publish(signal.PopState{Address: base + "rose/r1/thumb"})
	require.Len(t, h.held, 1)
	h.bus.Publish(pageView("w1", "p1"))

	h.hold = false
	for _, f := range h.held {
		h.bus.Publish(f)
	}

	cur, ok := h.ctl.Current()
	require.True(t, ok)
	assert.Equal(t, state.PageView, cur.Type)
	assert.Equal(t, "p1", cur.Data.CanvasID)
	assert.Empty(t, produced[signal.OpenWindowRequest](h), "the replayed thumbnails view arrived after a newer view was recorded")
}

func TestCurrentCollection_Fallback(t *testing.T) {
	h := newHarness(t, "")
	assert.Equal(t, aorID, h.ctl.CurrentCollection())
}

func TestSearchContext_Advanced(t *testing.T) {
	rows := []state.SearchRow{{Category: "title", Operator: "and", Term: "rose"}}
	ctx := searchContext("svc", "t", signal.KindCollection, &state.Search{Query: "title:rose", Rows: rows})
	assert.False(t, ctx.IsBasic)
	assert.Equal(t, rows, ctx.Rows)

	ctx = searchContext("svc", "t", signal.KindCollection, &state.Search{Query: "rose", IsBasic: true, Rows: rows})
	assert.True(t, ctx.IsBasic)
	assert.Nil(t, ctx.Rows)
}
