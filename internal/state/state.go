// Package state defines the navigable viewer states recorded in the
// navigation timeline and carried as native history payloads.
package state

import (
	"fmt"
	"reflect"
)

// StateType identifies what kind of view a HistoryState restores.
type StateType string

const (
	None             StateType = ""
	Collection       StateType = "collection"
	CollectionSearch StateType = "collection_search"
	ItemSearch       StateType = "item_search"
	ThumbnailView    StateType = "thumbnail_view"
	PageView         StateType = "page_view"
	OpeningView      StateType = "opening_view"
	ScrollView       StateType = "scroll_view"
	SlotChange       StateType = "slot_change"
)

// All lists every valid StateType in declaration order.
var All = []StateType{
	Collection,
	CollectionSearch,
	ItemSearch,
	ThumbnailView,
	PageView,
	OpeningView,
	ScrollView,
	SlotChange,
}

// Viewer view-type names as reported by viewer windows.
const (
	ViewThumbnails = "ThumbnailsView"
	ViewImage      = "ImageView"
	ViewBook       = "BookView"
	ViewScroll     = "ScrollView"
)

var viewTypes = map[string]StateType{
	ViewThumbnails: ThumbnailView,
	ViewImage:      PageView,
	ViewBook:       OpeningView,
	ViewScroll:     ScrollView,
}

// ParseStateType validates s against the closed set of state types.
func ParseStateType(s string) (StateType, error) {
	for _, t := range All {
		if string(t) == s {
			return t, nil
		}
	}
	return None, fmt.Errorf("unknown state type %q", s)
}

// StateTypeForView maps a viewer view-type name to its StateType.
// The second result is false for unrecognized view types.
func StateTypeForView(viewType string) (StateType, bool) {
	t, ok := viewTypes[viewType]
	return t, ok
}

// IsView reports whether t is one of the four viewer window states.
func (t StateType) IsView() bool {
	switch t {
	case ThumbnailView, PageView, OpeningView, ScrollView:
		return true
	}
	return false
}

// IsSearch reports whether t is a collection or item search.
func (t StateType) IsSearch() bool {
	return t == CollectionSearch || t == ItemSearch
}

// ViewType returns the viewer view-type name for a view state, or "".
func (t StateType) ViewType() string {
	for name, st := range viewTypes {
		if st == t {
			return name
		}
	}
	return ""
}

func (t StateType) String() string {
	if t == None {
		return "none"
	}
	return string(t)
}

// SearchRow is one row of the advanced search form.
type SearchRow struct {
	Category string `json:"category"`
	Operator string `json:"operator,omitempty"`
	Term     string `json:"term"`
}

// Search holds what is needed to rebuild and rerun a search.
type Search struct {
	Query      string      `json:"query"`
	Offset     int         `json:"offset,omitempty"`
	MaxPerPage int         `json:"maxPerPage,omitempty"`
	SortOrder  string      `json:"sortOrder,omitempty"`
	IsBasic    bool        `json:"isBasic"`
	Rows       []SearchRow `json:"rows,omitempty"`
}

// Data is the payload of a HistoryState. Every field is optional.
type Data struct {
	WindowID     string  `json:"windowId,omitempty"`
	CollectionID string  `json:"collectionId,omitempty"`
	ManifestID   string  `json:"manifestId,omitempty"`
	CanvasID     string  `json:"canvasId,omitempty"`
	ViewType     string  `json:"viewType,omitempty"`
	Search       *Search `json:"search,omitempty"`
}

// HistoryState is one entry of the navigation timeline. Values are treated
// as immutable once constructed.
type HistoryState struct {
	Type     StateType `json:"type"`
	Fragment string    `json:"fragment,omitempty"`
	Data     Data      `json:"data"`
}

// Valid reports whether the state carries a type and can be acted upon.
func (s HistoryState) Valid() bool {
	return s.Type != None
}

// Equal reports whether a and b describe the same state. The captured
// fragment is not compared.
func Equal(a, b HistoryState) bool {
	if a.Type != b.Type {
		return false
	}
	da, db := a.Data, b.Data
	if da.WindowID != db.WindowID ||
		da.CollectionID != db.CollectionID ||
		da.ManifestID != db.ManifestID ||
		da.CanvasID != db.CanvasID ||
		da.ViewType != db.ViewType {
		return false
	}
	return equalSearch(da.Search, db.Search)
}

func equalSearch(a, b *Search) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Query != b.Query || a.Offset != b.Offset || a.MaxPerPage != b.MaxPerPage ||
		a.SortOrder != b.SortOrder || a.IsBasic != b.IsBasic {
		return false
	}
	if len(a.Rows) == 0 && len(b.Rows) == 0 {
		return true
	}
	return reflect.DeepEqual(a.Rows, b.Rows)
}

func (s HistoryState) String() string {
	return fmt.Sprintf("%s{collection=%s manifest=%s canvas=%s}",
		s.Type, s.Data.CollectionID, s.Data.ManifestID, s.Data.CanvasID)
}
