// Package signal defines the typed events exchanged between the navigation
// controller and the rest of the viewer, and the bus that dispatches them.
package signal

import (
	"github.com/vidyasagar/iiifnav/internal/iiif"
	"github.com/vidyasagar/iiifnav/internal/state"
)

// Signal is implemented by every event type in this package.
type Signal interface {
	signal()
}

// ResourceKind tells collections and manifests apart.
type ResourceKind int

const (
	KindCollection ResourceKind = iota
	KindManifest
)

func (k ResourceKind) String() string {
	switch k {
	case KindCollection:
		return "collection"
	case KindManifest:
		return "manifest"
	default:
		return "unknown"
	}
}

// SearchContext is everything the search widget needs to run a query.
type SearchContext struct {
	ServiceID  string
	TargetID   string
	TargetKind ResourceKind
	Query      string
	Offset     int
	MaxPerPage int
	SortOrder  string
	IsBasic    bool
	Rows       []state.SearchRow
}

// Consumed by the navigation controller.

// CollectionReceived reports that a collection document has been loaded.
type CollectionReceived struct {
	Collection *iiif.Collection
	// RequestedID is the id the collection was fetched by. It may differ
	// from Collection.ID.
	RequestedID string
}

// SearchServiceSwitched reports that the active search service changed.
type SearchServiceSwitched struct {
	ServiceID      string
	OriginWindowID string
	IgnoreHistory  bool
}

// SearchResultsClosed reports that the search results list was dismissed.
type SearchResultsClosed struct {
	OriginWindowID string
}

// PanelVisibilityChanged reports that the collection browser panel was
// shown or hidden.
type PanelVisibilityChanged struct {
	Visible       bool
	IgnoreHistory bool
}

// WindowViewUpdated reports what a viewer window is now showing.
type WindowViewUpdated struct {
	WindowID      string
	ViewType      string
	CanvasID      string
	ManifestID    string
	IgnoreHistory bool
}

// SearchExecuted reports that a search was run.
type SearchExecuted struct {
	Context       SearchContext
	IgnoreHistory bool
}

// PopState is delivered on back/forward navigation and address edits.
// State is the payload recorded with the native entry, nil when unknown.
type PopState struct {
	State   *state.HistoryState
	Address string
}

// Produced by the navigation controller.

// SwitchSearchServiceRequest asks the search panel to use a collection's service.
type SwitchSearchServiceRequest struct {
	ServiceID     string
	IgnoreHistory bool
}

// PickSearchServiceRequest asks the search panel to select a service.
type PickSearchServiceRequest struct {
	ServiceID string
}

// PanelVisibilityRequest asks for the collection browser panel to be shown or hidden.
type PanelVisibilityRequest struct {
	Visible       bool
	IgnoreHistory bool
}

// OpenWindowRequest asks the workspace to open or update a viewer window.
type OpenWindowRequest struct {
	WindowID      string
	ManifestID    string
	CanvasID      string
	ViewType      string
	IgnoreHistory bool
}

// SearchContextUpdate replaces the search widget's context.
type SearchContextUpdate struct {
	Context SearchContext
}

// SearchExecuteRequest asks the search widget to run its current context.
type SearchExecuteRequest struct {
	IgnoreHistory bool
}

// ResourceRequest asks for a collection or manifest. The answer is a
// ResourceFound with the same CorrelationID.
type ResourceRequest struct {
	CorrelationID string
	Kind          ResourceKind
	ID            string
}

// ResourceFound answers a ResourceRequest.
type ResourceFound struct {
	CorrelationID string
	Kind          ResourceKind
	ID            string
	Collection    *iiif.Collection
	Manifest      *iiif.Manifest
	Err           error
}

// Alert is a user-visible, blocking message.
type Alert struct {
	Message string
}

func (CollectionReceived) signal()         {}
func (SearchServiceSwitched) signal()      {}
func (SearchResultsClosed) signal()        {}
func (PanelVisibilityChanged) signal()     {}
func (WindowViewUpdated) signal()          {}
func (SearchExecuted) signal()             {}
func (PopState) signal()                   {}
func (SwitchSearchServiceRequest) signal() {}
func (PickSearchServiceRequest) signal()   {}
func (PanelVisibilityRequest) signal()     {}
func (OpenWindowRequest) signal()          {}
func (SearchContextUpdate) signal()        {}
func (SearchExecuteRequest) signal()       {}
func (ResourceRequest) signal()            {}
func (ResourceFound) signal()              {}
func (Alert) signal()                      {}
