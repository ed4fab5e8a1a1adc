package viewer

import (
	"errors"

	"github.com/vidyasagar/iiifnav/internal/signal"
)

var (
	// ErrNoWindow is returned by window actions when no item is open.
	ErrNoWindow = errors.New("no item is open")
	// ErrNoCollection is returned when no collection is loaded.
	ErrNoCollection = errors.New("no collection loaded")
	// ErrOutOfRange is returned for a manifest index outside the collection.
	ErrOutOfRange = errors.New("no such item")
	// ErrEmptyQuery is returned when searching for nothing.
	ErrEmptyQuery = errors.New("empty search")
)

// SelectCollection shows another collection's panel.
func (w *Workspace) SelectCollection(id string) error {
	c, ok := w.collections[id]
	if !ok {
		return ErrNoCollection
	}
	w.collection = id
	w.serviceID = c.SearchService
	w.window = nil
	w.searchOpen = false
	w.panelVisible = true

	service := c.SearchService
	if service == "" {
		service = c.ID
	}
	w.bus.Publish(signal.SearchServiceSwitched{ServiceID: service})
	return nil
}

// NextCollection moves the panel to the collection after the current one.
func (w *Workspace) NextCollection() error {
	if len(w.order) == 0 {
		return ErrNoCollection
	}
	next := w.order[0]
	for i, id := range w.order {
		if id == w.collection {
			next = w.order[(i+1)%len(w.order)]
			break
		}
	}
	return w.SelectCollection(next)
}

// ShowCollection closes the window and shows the collection panel.
func (w *Workspace) ShowCollection() {
	w.window = nil
	w.searchOpen = false
	w.panelVisible = true
	w.bus.Publish(signal.PanelVisibilityChanged{Visible: true})
}

// OpenManifest opens the i-th manifest (0-based) of the current collection.
// The manifest is fetched first when the loader does not hold it yet.
func (w *Workspace) OpenManifest(i int) error {
	c := w.Collection()
	if c == nil {
		return ErrNoCollection
	}
	if i < 0 || i >= len(c.Manifests) {
		return ErrOutOfRange
	}
	ref := c.Manifests[i].ID
	id := w.shortID(ref)
	windowID := w.newWindowID()
	if w.window != nil {
		windowID = w.window.ID
	}

	if m, ok := w.cache.CachedManifest(ref); ok {
		w.show(windowID, id, m)
		return nil
	}
	corr := signal.NewCorrelationID()
	w.pending[corr] = windowID
	w.bus.Publish(signal.ResourceRequest{CorrelationID: corr, Kind: signal.KindManifest, ID: id})
	return nil
}

// NextCanvas moves the window one canvas forward.
func (w *Workspace) NextCanvas() error { return w.stepCanvas(1) }

// PreviousCanvas moves the window one canvas back.
func (w *Workspace) PreviousCanvas() error { return w.stepCanvas(-1) }

func (w *Workspace) stepCanvas(d int) error {
	win := w.window
	if win == nil || win.Manifest == nil {
		return ErrNoWindow
	}
	i := win.CanvasIndex() + d
	if i < 0 || i >= len(win.Manifest.Canvases) {
		return nil
	}
	win.CanvasID = win.Manifest.Canvases[i].ID
	w.publishView(false)
	return nil
}

// CycleView switches the window to the next view type.
func (w *Workspace) CycleView() error {
	win := w.window
	if win == nil {
		return ErrNoWindow
	}
	next := viewCycle[0]
	for i, v := range viewCycle {
		if v == win.ViewType {
			next = viewCycle[(i+1)%len(viewCycle)]
			break
		}
	}
	win.ViewType = next
	w.publishView(false)
	return nil
}

// RunSearch searches the open item, or the current collection when no item
// is open.
func (w *Workspace) RunSearch(query string) error {
	if query == "" {
		return ErrEmptyQuery
	}
	ctx := signal.SearchContext{Query: query, IsBasic: true}
	switch {
	case w.window != nil:
		ctx.TargetID = w.window.ManifestID
		ctx.TargetKind = signal.KindManifest
		if w.window.Manifest != nil {
			ctx.ServiceID = w.window.Manifest.SearchService
		}
	case w.Collection() != nil:
		c := w.Collection()
		ctx.TargetID = c.ID
		ctx.TargetKind = signal.KindCollection
		ctx.ServiceID = c.SearchService
	default:
		return ErrNoCollection
	}
	w.search = ctx
	w.serviceID = ctx.ServiceID
	w.searchOpen = true
	w.executed++
	w.bus.Publish(signal.SearchExecuted{Context: ctx})
	return nil
}

// CloseSearch dismisses the search results.
func (w *Workspace) CloseSearch() {
	if !w.searchOpen {
		return
	}
	w.searchOpen = false
	w.bus.Publish(signal.SearchResultsClosed{})
}
