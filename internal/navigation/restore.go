package navigation

import (
	"fmt"

	"github.com/vidyasagar/iiifnav/internal/iiif"
	"github.com/vidyasagar/iiifnav/internal/signal"
	"github.com/vidyasagar/iiifnav/internal/state"
)

func (c *Controller) onPopState(s signal.PopState) {
	if s.State != nil && s.State.Valid() {
		if cur, ok := c.timeline.Current(); ok && state.Equal(cur, *s.State) {
			c.log.Debug().Str("address", s.Address).Msg("popstate to the current entry")
			return
		}
		if d, ok := c.timeline.Search(*s.State); ok {
			c.replay(d)
			return
		}
	}
	c.restore(s.Address)
}

// restore decodes an address and shows it. A state already recorded next
// to the cursor is reached by replay; anything else is adopted as a new
// entry without touching the native history.
func (c *Controller) restore(address string) {
	st, ok := c.decode(address)
	if !ok {
		return
	}
	if cur, ok := c.timeline.Current(); ok && state.Equal(cur, st) {
		c.log.Debug().Str("address", address).Msg("address matches the current entry")
		return
	}
	if d, ok := c.timeline.Search(st); ok {
		c.replay(d)
		return
	}
	c.timeline.Add(st)
	c.apply(st)
}

// decode turns an address into a state whose collection is a known
// collection id. An address without a fragment means the default collection.
func (c *Controller) decode(address string) (state.HistoryState, bool) {
	log := c.log.WithAddress(address)
	if c.slicer.Fragment(address) == "" {
		return collectionState(c.opts.DefaultCollection), c.opts.DefaultCollection != ""
	}
	st, err := c.slicer.Decode(address)
	if err != nil {
		log.Warn().Err(err).Msg("cannot decode address")
		c.alert(fmt.Sprintf("Cannot load address %s", address))
		return state.HistoryState{}, false
	}
	id, ok := c.collectionByID(st.Data.CollectionID)
	if !ok {
		log.Warn().Str("collection", st.Data.CollectionID).Msg("address names an unknown collection")
		c.alert(fmt.Sprintf("Unknown collection %s", st.Data.CollectionID))
		return state.HistoryState{}, false
	}
	st.Data.CollectionID = id
	return st, true
}

// replay walks the cursor d entries, applying every state passed on the way.
func (c *Controller) replay(d int) {
	step := 1
	if d < 0 {
		step = -1
	}
	for moved := 0; moved != d; moved += step {
		var st state.HistoryState
		if step > 0 {
			st, _ = c.timeline.NextState(1)
		} else {
			st, _ = c.timeline.PreviousState(1)
		}
		c.apply(st)
	}
}

// apply issues the requests that make the viewer show st. Each call starts
// a new generation; resource answers for older generations are dropped.
func (c *Controller) apply(st state.HistoryState) {
	c.generation++
	gen := c.generation
	log := c.log.With().Stringer("state", st).Uint64("generation", gen).Logger()

	if !st.Valid() || st.Data.CollectionID == "" {
		log.Warn().Msg("cannot apply incomplete state")
		c.alert("Cannot restore this view")
		return
	}
	log.Debug().Msg("applying state")

	d := st.Data
	switch {
	case st.Type == state.Collection:
		c.withCollection(gen, d.CollectionID, c.showCollection)

	case st.Type.IsView():
		c.withCollection(gen, d.CollectionID, func(coll *iiif.Collection) {
			c.current = coll.ID
			c.withManifest(gen, d.ManifestID, func(m *iiif.Manifest) {
				c.openWindow(st, m)
			})
		})

	case st.Type == state.CollectionSearch:
		c.withCollection(gen, d.CollectionID, func(coll *iiif.Collection) {
			c.showCollection(coll)
			service := coll.SearchService
			if service == "" {
				service = UnknownService
			}
			c.runSearch(searchContext(service, coll.ID, signal.KindCollection, d.Search))
		})

	case st.Type == state.ItemSearch:
		c.withCollection(gen, d.CollectionID, func(coll *iiif.Collection) {
			c.current = coll.ID
			c.withManifest(gen, d.ManifestID, func(m *iiif.Manifest) {
				service := m.SearchService
				if service == "" {
					log.Warn().Str("manifest", d.ManifestID).Msg("item has no search service")
					service = UnknownService
				}
				c.bus.Publish(signal.PickSearchServiceRequest{ServiceID: service})
				c.runSearch(searchContext(service, d.ManifestID, signal.KindManifest, d.Search))
			})
		})

	case st.Type == state.SlotChange:
		log.Debug().Msg("slot changes have no visible effect")

	default:
		log.Warn().Msg("unhandled state type")
	}
}

func (c *Controller) showCollection(coll *iiif.Collection) {
	c.current = coll.ID
	c.bus.Publish(signal.SwitchSearchServiceRequest{ServiceID: coll.SearchService, IgnoreHistory: true})
	c.bus.Publish(signal.PanelVisibilityRequest{Visible: true, IgnoreHistory: true})
}

func (c *Controller) openWindow(st state.HistoryState, m *iiif.Manifest) {
	d := st.Data
	windowID := d.WindowID
	if windowID == "" {
		windowID = c.newWindowID()
	}
	canvas := d.CanvasID
	if canvas == "" && len(m.Canvases) > 0 {
		canvas = m.Canvases[0].ID
	}
	c.bus.Publish(signal.OpenWindowRequest{
		WindowID:      windowID,
		ManifestID:    d.ManifestID,
		CanvasID:      canvas,
		ViewType:      st.Type.ViewType(),
		IgnoreHistory: true,
	})
}

func (c *Controller) runSearch(ctx signal.SearchContext) {
	c.bus.Publish(signal.SearchContextUpdate{Context: ctx})
	c.bus.Publish(signal.SearchExecuteRequest{IgnoreHistory: true})
}

// searchContext rebuilds a search widget context. Free-text searches are
// restored from the query alone; structured searches keep their rows.
func searchContext(serviceID, targetID string, kind signal.ResourceKind, s *state.Search) signal.SearchContext {
	ctx := signal.SearchContext{ServiceID: serviceID, TargetID: targetID, TargetKind: kind}
	if s == nil {
		ctx.IsBasic = true
		return ctx
	}
	ctx.Query = s.Query
	ctx.Offset = s.Offset
	ctx.MaxPerPage = s.MaxPerPage
	ctx.SortOrder = s.SortOrder
	if s.IsBasic || len(s.Rows) == 0 {
		ctx.IsBasic = true
		return ctx
	}
	ctx.Rows = append([]state.SearchRow(nil), s.Rows...)
	return ctx
}

// withCollection runs fn with the collection, directly when it is already
// known and through a resource request otherwise.
func (c *Controller) withCollection(gen uint64, id string, fn func(*iiif.Collection)) {
	if coll, ok := c.collections[id]; ok {
		fn(coll)
		return
	}
	c.request(gen, signal.KindCollection, id, func(f signal.ResourceFound) {
		if f.Err != nil || f.Collection == nil {
			c.log.Error().Err(f.Err).Str("collection", id).Msg("cannot restore collection")
			c.alert(fmt.Sprintf("Could not load collection %s", id))
			return
		}
		fn(f.Collection)
	})
}

func (c *Controller) withManifest(gen uint64, id string, fn func(*iiif.Manifest)) {
	c.request(gen, signal.KindManifest, id, func(f signal.ResourceFound) {
		if f.Err != nil || f.Manifest == nil {
			c.log.Error().Err(f.Err).Str("manifest", id).Msg("cannot restore item")
			c.alert(fmt.Sprintf("Could not load item %s", id))
			return
		}
		fn(f.Manifest)
	})
}

func (c *Controller) request(gen uint64, kind signal.ResourceKind, id string, fn func(signal.ResourceFound)) {
	corr := signal.NewCorrelationID()
	c.pending[corr] = continuation{generation: gen, fn: fn}
	c.bus.Publish(signal.ResourceRequest{CorrelationID: corr, Kind: kind, ID: id})
}

func (c *Controller) onResourceFound(f signal.ResourceFound) {
	cont, ok := c.pending[f.CorrelationID]
	if !ok {
		return
	}
	delete(c.pending, f.CorrelationID)
	if cont.generation != c.generation {
		c.log.Debug().
			Str("id", f.ID).
			Uint64("generation", cont.generation).
			Uint64("current", c.generation).
			Msg("dropping stale resource")
		return
	}
	cont.fn(f)
}
