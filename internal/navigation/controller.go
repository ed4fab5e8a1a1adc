// Package navigation keeps the viewer's navigation history and the browser
// address in step. User actions arriving on the signal bus are recorded as
// history entries; back, forward and address edits are turned back into the
// requests that restore the recorded view.
package navigation

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/vidyasagar/iiifnav/internal/history"
	"github.com/vidyasagar/iiifnav/internal/iiif"
	"github.com/vidyasagar/iiifnav/internal/logging"
	"github.com/vidyasagar/iiifnav/internal/signal"
	"github.com/vidyasagar/iiifnav/internal/state"
	"github.com/vidyasagar/iiifnav/internal/urlslicer"
)

// UnknownService is the search service used when the target of a restored
// item search does not advertise one.
const UnknownService = "unknown-service"

// NativeHistory is the host's session history.
type NativeHistory interface {
	PushState(st state.HistoryState, title, address string)
	Location() string
}

// Phase is the controller's lifecycle stage.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseAwaitingInitialLoad
	PhaseActive
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseAwaitingInitialLoad:
		return "awaiting-initial-load"
	case PhaseActive:
		return "active"
	default:
		return "unknown"
	}
}

// Options configures a Controller.
type Options struct {
	// Collections are the configured collection ids, all of which must be
	// settled before the controller activates.
	Collections []string
	// DefaultCollection is shown when the starting address names none.
	DefaultCollection string
	// ManifestKey normalizes manifest ids before they are compared, e.g.
	// reducing URLs to short ids. Identity when nil.
	ManifestKey func(string) string
}

type continuation struct {
	generation uint64
	fn         func(signal.ResourceFound)
}

// Controller records user navigation into a Timeline and the native history,
// and restores recorded states on popstate. All methods except Ready must be
// called on the bus dispatch goroutine.
type Controller struct {
	bus      *signal.Bus
	native   NativeHistory
	slicer   *urlslicer.Slicer
	timeline *history.Timeline[state.HistoryState]
	log      *logging.Logger
	opts     Options

	phase     Phase
	readiness *Readiness
	expected  string

	collections map[string]*iiif.Collection
	order       []string
	names       map[string]string
	services    map[string]string
	current     string

	generation uint64
	pending    map[string]continuation

	subs        []func()
	readySub    func()
	newWindowID func() string
}

// New creates a controller. It does nothing until Start is called.
func New(bus *signal.Bus, native NativeHistory, slicer *urlslicer.Slicer, opts Options, log *logging.Logger) *Controller {
	if opts.ManifestKey == nil {
		opts.ManifestKey = func(id string) string { return id }
	}
	if opts.DefaultCollection == "" && len(opts.Collections) > 0 {
		opts.DefaultCollection = opts.Collections[0]
	}
	return &Controller{
		bus:         bus,
		native:      native,
		slicer:      slicer,
		timeline:    history.NewTimeline(state.Equal),
		log:         log.WithComponent("navigation"),
		opts:        opts,
		collections: make(map[string]*iiif.Collection),
		names:       make(map[string]string),
		services:    make(map[string]string),
		pending:     make(map[string]continuation),
		newWindowID: func() string { return "window-" + uuid.NewString()[:8] },
	}
}

// Start registers the collection registry and begins waiting for the
// configured collections. The controller activates on its own once they
// have all been settled.
func (c *Controller) Start() {
	if c.phase != PhaseUninitialized {
		return
	}
	c.expected = c.expectedCollection()
	c.readiness = NewReadiness(c.opts.Collections, c.expected)
	c.phase = PhaseAwaitingInitialLoad
	c.log.Debug().
		Str("expected", c.expected).
		Int("collections", len(c.opts.Collections)).
		Msg("awaiting initial collections")

	c.subs = append(c.subs,
		signal.Subscribe(c.bus, c.onCollectionReceived),
		signal.Subscribe(c.bus, c.onResourceFound),
	)
	c.readySub = signal.Subscribe(c.bus, c.onConfiguredFailure)
}

// Stop removes every subscription. Pending continuations are discarded.
func (c *Controller) Stop() {
	for _, unsub := range c.subs {
		unsub()
	}
	c.subs = nil
	if c.readySub != nil {
		c.readySub()
		c.readySub = nil
	}
	c.pending = make(map[string]continuation)
}

// Ready is closed once the controller is active. Safe from any goroutine.
func (c *Controller) Ready() <-chan struct{} {
	if c.readiness == nil {
		return nil
	}
	return c.readiness.Done()
}

// Phase returns the lifecycle stage.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Entries returns a copy of the recorded history and the cursor position.
func (c *Controller) Entries() ([]state.HistoryState, int) {
	return c.timeline.Entries(), c.timeline.Cursor()
}

// Current returns the state at the cursor.
func (c *Controller) Current() (state.HistoryState, bool) {
	return c.timeline.Current()
}

// expectedCollection picks the collection named by the starting address, or
// the default collection.
func (c *Controller) expectedCollection() string {
	if st, err := c.slicer.Decode(c.native.Location()); err == nil {
		name := st.Data.CollectionID
		for _, id := range c.opts.Collections {
			if id == name || urlslicer.CollectionName(id) == name {
				return id
			}
		}
		c.log.Warn().Str("collection", name).Msg("starting address names an unconfigured collection")
	}
	return c.opts.DefaultCollection
}

func (c *Controller) onCollectionReceived(s signal.CollectionReceived) {
	coll := s.Collection
	if coll == nil || coll.ID == "" {
		return
	}
	if _, ok := c.collections[coll.ID]; !ok {
		c.order = append(c.order, coll.ID)
	}
	c.collections[coll.ID] = coll
	c.names[urlslicer.CollectionName(coll.ID)] = coll.ID
	ids := []string{coll.ID}
	if req := s.RequestedID; req != "" && req != coll.ID {
		c.collections[req] = coll
		if name := urlslicer.CollectionName(req); c.names[name] == "" {
			c.names[name] = coll.ID
		}
		ids = append(ids, req)
	}
	if coll.SearchService != "" {
		c.services[coll.SearchService] = coll.ID
	}

	if c.phase == PhaseAwaitingInitialLoad && c.readiness.Observe(ids...) {
		c.activate()
	}
}

// onConfiguredFailure settles configured collections whose load failed so
// that activation is not blocked by them. The expected collection must
// still arrive.
func (c *Controller) onConfiguredFailure(s signal.ResourceFound) {
	if s.Err == nil || s.Kind != signal.KindCollection || c.phase != PhaseAwaitingInitialLoad {
		return
	}
	if !c.isConfigured(s.ID) {
		return
	}
	if s.ID == c.expected {
		c.log.Error().Err(s.Err).Str("collection", s.ID).Msg("initial collection failed to load")
		c.alert(fmt.Sprintf("Could not load collection %s", urlslicer.CollectionName(s.ID)))
		return
	}
	c.log.Warn().Err(s.Err).Str("collection", s.ID).Msg("configured collection failed to load")
	if c.readiness.Settle(s.ID) {
		c.activate()
	}
}

func (c *Controller) isConfigured(id string) bool {
	for _, cid := range c.opts.Collections {
		if cid == id {
			return true
		}
	}
	return false
}

// activate installs the domain handlers and restores the starting address.
func (c *Controller) activate() {
	if c.readySub != nil {
		c.readySub()
		c.readySub = nil
	}
	c.phase = PhaseActive
	c.subs = append(c.subs,
		signal.Subscribe(c.bus, c.onSearchServiceSwitched),
		signal.Subscribe(c.bus, c.onSearchResultsClosed),
		signal.Subscribe(c.bus, c.onPanelVisibilityChanged),
		signal.Subscribe(c.bus, c.onWindowViewUpdated),
		signal.Subscribe(c.bus, c.onSearchExecuted),
		signal.Subscribe(c.bus, c.onPopState),
	)
	c.log.Info().Int("collections", len(c.collections)).Msg("navigation active")

	location := c.native.Location()
	if c.slicer.Fragment(location) != "" {
		c.restore(location)
		return
	}
	expected := c.expected
	if id, ok := c.collectionByID(expected); ok {
		expected = id
	}
	st := collectionState(expected)
	c.record(st)
	c.apply(st)
}

func (c *Controller) onSearchServiceSwitched(s signal.SearchServiceSwitched) {
	if s.OriginWindowID != "" || s.IgnoreHistory {
		return
	}
	id, ok := c.services[s.ServiceID]
	if !ok {
		id, ok = c.collectionByID(s.ServiceID)
	}
	if !ok {
		c.log.Warn().Str("service", s.ServiceID).Msg("search service belongs to no known collection")
		return
	}
	c.current = id
	c.record(collectionState(id))
}

func (c *Controller) onSearchResultsClosed(s signal.SearchResultsClosed) {
	if s.OriginWindowID != "" {
		return
	}
	c.recordCurrentCollection()
}

func (c *Controller) onPanelVisibilityChanged(s signal.PanelVisibilityChanged) {
	if !s.Visible || s.IgnoreHistory {
		return
	}
	c.recordCurrentCollection()
}

func (c *Controller) recordCurrentCollection() {
	id := c.CurrentCollection()
	if id == "" {
		c.log.Warn().Msg("no current collection to record")
		return
	}
	c.record(collectionState(id))
}

func (c *Controller) onWindowViewUpdated(s signal.WindowViewUpdated) {
	if s.IgnoreHistory {
		return
	}
	typ, ok := state.StateTypeForView(s.ViewType)
	if !ok {
		c.log.Debug().Str("view", s.ViewType).Msg("view type is not recorded")
		return
	}
	coll := c.collectionForManifest(s.ManifestID)
	c.current = coll
	c.record(state.HistoryState{
		Type: typ,
		Data: state.Data{
			WindowID:     s.WindowID,
			CollectionID: coll,
			ManifestID:   s.ManifestID,
			CanvasID:     s.CanvasID,
			ViewType:     s.ViewType,
		},
	})
}

func (c *Controller) onSearchExecuted(s signal.SearchExecuted) {
	if s.IgnoreHistory {
		return
	}
	ctx := s.Context
	search := &state.Search{
		Query:      ctx.Query,
		Offset:     ctx.Offset,
		MaxPerPage: ctx.MaxPerPage,
		SortOrder:  ctx.SortOrder,
		IsBasic:    ctx.IsBasic,
		Rows:       append([]state.SearchRow(nil), ctx.Rows...),
	}

	var st state.HistoryState
	switch ctx.TargetKind {
	case signal.KindCollection:
		id, ok := c.collectionByID(ctx.TargetID)
		if !ok {
			id = c.services[ctx.ServiceID]
		}
		st = state.HistoryState{Type: state.CollectionSearch, Data: state.Data{CollectionID: id, Search: search}}
	case signal.KindManifest:
		st = state.HistoryState{Type: state.ItemSearch, Data: state.Data{
			CollectionID: c.collectionForManifest(ctx.TargetID),
			ManifestID:   ctx.TargetID,
			Search:       search,
		}}
	default:
		c.log.Warn().Stringer("kind", ctx.TargetKind).Msg("search target kind is not recorded")
		return
	}
	c.record(st)
}

// record pushes st to the native history and the Timeline. Either both
// happen or neither does.
func (c *Controller) record(st state.HistoryState) bool {
	if !st.Valid() {
		c.log.Warn().Msg("rejected history entry without a type")
		return false
	}
	address, err := c.slicer.Encode(st)
	if err != nil {
		c.log.Warn().Err(err).Stringer("state", st).Msg("rejected unencodable history entry")
		c.alert(fmt.Sprintf("Cannot record this view in the address bar: %v", err))
		return false
	}
	if cur, ok := c.timeline.Current(); ok && state.Equal(cur, st) {
		c.log.Warn().Str("address", address).Msg("rejected duplicate history entry")
		return false
	}

	st.Fragment = c.slicer.Fragment(address)
	c.native.PushState(st, c.slicer.Title(st), address)
	c.timeline.Add(st)
	// Answers still owed to an earlier replay must not override st.
	c.generation++
	c.log.Debug().Str("address", address).Int("entries", c.timeline.Len()).Msg("history entry recorded")
	return true
}

// CurrentCollection returns the collection in context: the one last shown,
// else the most recent collection entry at or behind the cursor, else the
// first configured collection.
func (c *Controller) CurrentCollection() string {
	if c.current != "" {
		return c.current
	}
	entries := c.timeline.Entries()
	for i := c.timeline.Cursor(); i >= 0 && i < len(entries); i-- {
		if entries[i].Type == state.Collection && entries[i].Data.CollectionID != "" {
			return entries[i].Data.CollectionID
		}
	}
	if len(c.opts.Collections) > 0 {
		return c.opts.Collections[0]
	}
	return ""
}

// collectionByID resolves a collection id or name to a known collection id.
func (c *Controller) collectionByID(idOrName string) (string, bool) {
	if idOrName == "" {
		return "", false
	}
	if coll, ok := c.collections[idOrName]; ok {
		return coll.ID, true
	}
	if id, ok := c.names[idOrName]; ok {
		return id, true
	}
	for _, id := range c.opts.Collections {
		if id == idOrName || urlslicer.CollectionName(id) == idOrName {
			return id, true
		}
	}
	return "", false
}

// collectionForManifest finds the collection listing the manifest, falling
// back to the current collection.
func (c *Controller) collectionForManifest(manifestID string) string {
	key := c.opts.ManifestKey(manifestID)
	for _, id := range c.order {
		for _, ref := range c.collections[id].Manifests {
			if ref.ID == manifestID || c.opts.ManifestKey(ref.ID) == key {
				return id
			}
		}
	}
	return c.CurrentCollection()
}

func (c *Controller) alert(msg string) {
	c.bus.Publish(signal.Alert{Message: msg})
}

func collectionState(id string) state.HistoryState {
	return state.HistoryState{Type: state.Collection, Data: state.Data{CollectionID: id}}
}
