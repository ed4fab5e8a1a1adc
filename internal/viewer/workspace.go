// Package viewer is the workspace the navigation controller drives: one
// viewer window, the collection panel and the search widget. It answers the
// controller's requests and reports user actions back on the bus.
package viewer

import (
	"github.com/vidyasagar/iiifnav/internal/iiif"
	"github.com/vidyasagar/iiifnav/internal/logging"
	"github.com/vidyasagar/iiifnav/internal/signal"
	"github.com/vidyasagar/iiifnav/internal/state"
)

// Views in the order CycleView walks them.
var viewCycle = []string{state.ViewImage, state.ViewBook, state.ViewScroll, state.ViewThumbnails}

// Cache gives access to manifests the resource loader already holds.
type Cache interface {
	CachedManifest(id string) (*iiif.Manifest, bool)
}

// Window is the single viewer window.
type Window struct {
	ID         string
	ManifestID string
	CanvasID   string
	ViewType   string
	Manifest   *iiif.Manifest
}

// CanvasIndex returns the position of the current canvas, or -1.
func (w *Window) CanvasIndex() int {
	if w.Manifest == nil {
		return -1
	}
	return w.Manifest.CanvasIndex(w.CanvasID)
}

// Workspace holds what is on screen. It is driven from the bus dispatch
// goroutine only.
type Workspace struct {
	bus     *signal.Bus
	cache   Cache
	shortID func(string) string
	log     *logging.Logger

	collections map[string]*iiif.Collection
	order       []string
	services    map[string]string

	collection   string
	serviceID    string
	panelVisible bool
	window       *Window
	search       signal.SearchContext
	searchOpen   bool
	executed     int

	pending     map[string]string
	newWindowID func() string
	subs        []func()
}

// New creates a workspace. shortID reduces manifest URLs to the ids used in
// addresses; identity when nil.
func New(bus *signal.Bus, cache Cache, shortID func(string) string, log *logging.Logger) *Workspace {
	if shortID == nil {
		shortID = func(id string) string { return id }
	}
	return &Workspace{
		bus:         bus,
		cache:       cache,
		shortID:     shortID,
		log:         log.WithComponent("viewer"),
		collections: make(map[string]*iiif.Collection),
		services:    make(map[string]string),
		pending:     make(map[string]string),
		newWindowID: func() string { return "window-" + signal.NewCorrelationID()[:8] },
	}
}

// Start subscribes the workspace to the bus.
func (w *Workspace) Start() {
	w.subs = append(w.subs,
		signal.Subscribe(w.bus, w.onCollectionReceived),
		signal.Subscribe(w.bus, w.onOpenWindow),
		signal.Subscribe(w.bus, w.onSwitchSearchService),
		signal.Subscribe(w.bus, w.onPickSearchService),
		signal.Subscribe(w.bus, w.onPanelVisibility),
		signal.Subscribe(w.bus, w.onSearchContext),
		signal.Subscribe(w.bus, w.onSearchExecute),
		signal.Subscribe(w.bus, w.onResourceFound),
	)
}

// Stop unsubscribes the workspace.
func (w *Workspace) Stop() {
	for _, unsub := range w.subs {
		unsub()
	}
	w.subs = nil
}

// Window returns the open window, or nil.
func (w *Workspace) Window() *Window { return w.window }

// Collection returns the collection shown in the panel, or nil.
func (w *Workspace) Collection() *iiif.Collection { return w.collections[w.collection] }

// Collections returns the known collections in arrival order.
func (w *Workspace) Collections() []*iiif.Collection {
	out := make([]*iiif.Collection, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.collections[id])
	}
	return out
}

// PanelVisible reports whether the collection panel is shown.
func (w *Workspace) PanelVisible() bool { return w.panelVisible }

// Search returns the search context and whether results are shown.
func (w *Workspace) Search() (signal.SearchContext, bool) { return w.search, w.searchOpen }

// ServiceID returns the selected search service.
func (w *Workspace) ServiceID() string { return w.serviceID }

// Executed counts searches run by the widget.
func (w *Workspace) Executed() int { return w.executed }

func (w *Workspace) onCollectionReceived(s signal.CollectionReceived) {
	c := s.Collection
	if c == nil {
		return
	}
	if _, ok := w.collections[c.ID]; !ok {
		w.order = append(w.order, c.ID)
	}
	w.collections[c.ID] = c
	if c.SearchService != "" {
		w.services[c.SearchService] = c.ID
	}
	if w.collection == "" {
		w.collection = c.ID
	}
}

func (w *Workspace) onOpenWindow(r signal.OpenWindowRequest) {
	m, _ := w.cache.CachedManifest(r.ManifestID)
	w.window = &Window{
		ID:         r.WindowID,
		ManifestID: r.ManifestID,
		CanvasID:   r.CanvasID,
		ViewType:   r.ViewType,
		Manifest:   m,
	}
	w.panelVisible = false
	w.searchOpen = false
	w.log.Debug().Str("manifest", r.ManifestID).Str("view", r.ViewType).Msg("window opened")
	w.publishView(r.IgnoreHistory)
}

func (w *Workspace) onSwitchSearchService(r signal.SwitchSearchServiceRequest) {
	w.serviceID = r.ServiceID
	if id, ok := w.services[r.ServiceID]; ok {
		w.collection = id
	}
	w.bus.Publish(signal.SearchServiceSwitched{ServiceID: r.ServiceID, IgnoreHistory: r.IgnoreHistory})
}

func (w *Workspace) onPickSearchService(r signal.PickSearchServiceRequest) {
	w.serviceID = r.ServiceID
}

func (w *Workspace) onPanelVisibility(r signal.PanelVisibilityRequest) {
	w.panelVisible = r.Visible
	if r.Visible {
		w.window = nil
		w.searchOpen = false
	}
	w.bus.Publish(signal.PanelVisibilityChanged{Visible: r.Visible, IgnoreHistory: r.IgnoreHistory})
}

func (w *Workspace) onSearchContext(r signal.SearchContextUpdate) {
	w.search = r.Context
}

func (w *Workspace) onSearchExecute(r signal.SearchExecuteRequest) {
	w.searchOpen = true
	w.executed++
	w.bus.Publish(signal.SearchExecuted{Context: w.search, IgnoreHistory: r.IgnoreHistory})
}

func (w *Workspace) onResourceFound(f signal.ResourceFound) {
	windowID, ok := w.pending[f.CorrelationID]
	if !ok {
		return
	}
	delete(w.pending, f.CorrelationID)
	if f.Err != nil || f.Manifest == nil {
		w.log.Error().Err(f.Err).Str("manifest", f.ID).Msg("cannot open item")
		w.bus.Publish(signal.Alert{Message: "Could not load item " + f.ID})
		return
	}
	w.show(windowID, f.ID, f.Manifest)
}

func (w *Workspace) publishView(ignoreHistory bool) {
	win := w.window
	w.bus.Publish(signal.WindowViewUpdated{
		WindowID:      win.ID,
		ViewType:      win.ViewType,
		CanvasID:      win.CanvasID,
		ManifestID:    win.ManifestID,
		IgnoreHistory: ignoreHistory,
	})
}

// show opens m in the window at its first canvas as a user action.
func (w *Workspace) show(windowID, manifestID string, m *iiif.Manifest) {
	canvas := ""
	if len(m.Canvases) > 0 {
		canvas = m.Canvases[0].ID
	}
	w.window = &Window{
		ID:         windowID,
		ManifestID: manifestID,
		CanvasID:   canvas,
		ViewType:   state.ViewImage,
		Manifest:   m,
	}
	w.panelVisible = false
	w.searchOpen = false
	w.publishView(false)
}
