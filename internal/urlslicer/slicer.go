// Package urlslicer maps viewer states to and from address fragments.
//
// The grammar is a single route table used by both directions:
//
//	{collection}                                 collection view
//	{collection}/{manifest}/thumb|scroll         thumbnail / scroll view
//	{collection}/{manifest}/{canvas}/image|opening  page / opening view
//	{collection}/search?q={query}                collection search
//	{collection}/{manifest}/search?q={query}     item search
package urlslicer

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/vidyasagar/iiifnav/internal/state"
)

var (
	// ErrUnencodable is returned when a state cannot be rendered as an address.
	ErrUnencodable = errors.New("state cannot be encoded")
	// ErrInvalidAddress is returned when an address matches no route.
	ErrInvalidAddress = errors.New("invalid address")
)

// Query parameter names used by search addresses.
const (
	paramQuery  = "q"
	paramOffset = "offset"
	paramRows   = "rows"
	paramSort   = "sort"
)

type field int

const (
	fieldCollection field = iota
	fieldManifest
	fieldCanvas
)

// route is one production of the address grammar.
type route struct {
	typ    state.StateType
	fields []field
	tail   string // trailing keyword, "" for the collection route
}

func (r route) segments() int {
	if r.tail == "" {
		return len(r.fields)
	}
	return len(r.fields) + 1
}

var routes = []route{
	{typ: state.Collection, fields: []field{fieldCollection}},
	{typ: state.ThumbnailView, fields: []field{fieldCollection, fieldManifest}, tail: "thumb"},
	{typ: state.ScrollView, fields: []field{fieldCollection, fieldManifest}, tail: "scroll"},
	{typ: state.PageView, fields: []field{fieldCollection, fieldManifest, fieldCanvas}, tail: "image"},
	{typ: state.OpeningView, fields: []field{fieldCollection, fieldManifest, fieldCanvas}, tail: "opening"},
	{typ: state.CollectionSearch, fields: []field{fieldCollection}, tail: "search"},
	{typ: state.ItemSearch, fields: []field{fieldCollection, fieldManifest}, tail: "search"},
}

func routeFor(t state.StateType) (route, bool) {
	for _, r := range routes {
		if r.typ == t {
			return r, true
		}
	}
	return route{}, false
}

// Slicer converts between HistoryState values and addresses rooted at a
// fixed base. It holds no mutable state and is safe for concurrent use.
type Slicer struct {
	base string
}

// New creates a Slicer producing addresses that start with base.
func New(base string) *Slicer {
	return &Slicer{base: base}
}

// Base returns the configured address prefix.
func (s *Slicer) Base() string {
	return s.base
}

// Fragment strips the base prefix (or anything up to the last '#') from an
// address and returns the bare fragment.
func (s *Slicer) Fragment(address string) string {
	switch {
	case s.base != "" && strings.HasPrefix(address, s.base):
		address = strings.TrimPrefix(address, s.base)
	case strings.Contains(address, "#"):
		address = address[strings.LastIndex(address, "#")+1:]
	}
	return strings.TrimLeft(address, "/")
}

type parsed struct {
	segments []string
	query    url.Values
	hasQuery bool
}

func (s *Slicer) parse(address string) (parsed, error) {
	frag := s.Fragment(address)
	var p parsed
	path := frag
	if i := strings.IndexByte(frag, '?'); i >= 0 {
		path = frag[:i]
		q, err := url.ParseQuery(frag[i+1:])
		if err != nil {
			return p, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
		}
		p.query = q
		p.hasQuery = true
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		un, err := url.PathUnescape(seg)
		if err != nil {
			return p, fmt.Errorf("%w: segment %q: %v", ErrInvalidAddress, seg, err)
		}
		p.segments = append(p.segments, un)
	}
	return p, nil
}

func match(p parsed) (route, bool) {
	n := len(p.segments)
	if n == 0 {
		return route{}, false
	}
	last := p.segments[n-1]
	for _, r := range routes {
		if r.segments() != n {
			continue
		}
		if r.tail == "" {
			if n == 1 && !isKeyword(last) {
				return r, true
			}
			continue
		}
		if r.tail != last {
			continue
		}
		if r.typ.IsSearch() && (!p.hasQuery || p.query.Get(paramQuery) == "") {
			return route{}, false
		}
		return r, true
	}
	return route{}, false
}

func isKeyword(seg string) bool {
	for _, r := range routes {
		if r.tail != "" && r.tail == seg {
			return true
		}
	}
	return false
}

// Classify returns the state type an address describes. Addresses matching
// no route yield state.None and ErrInvalidAddress.
func (s *Slicer) Classify(address string) (state.StateType, error) {
	p, err := s.parse(address)
	if err != nil {
		return state.None, err
	}
	r, ok := match(p)
	if !ok {
		return state.None, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return r.typ, nil
}

// Decode rebuilds a HistoryState from an address. The collection is
// identified by name only; callers resolve it against known collections.
func (s *Slicer) Decode(address string) (state.HistoryState, error) {
	p, err := s.parse(address)
	if err != nil {
		return state.HistoryState{}, err
	}
	r, ok := match(p)
	if !ok {
		return state.HistoryState{}, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	st := state.HistoryState{Type: r.typ, Fragment: s.Fragment(address)}
	for i, f := range r.fields {
		switch f {
		case fieldCollection:
			st.Data.CollectionID = p.segments[i]
		case fieldManifest:
			st.Data.ManifestID = p.segments[i]
		case fieldCanvas:
			st.Data.CanvasID = p.segments[i]
		}
	}
	st.Data.ViewType = r.typ.ViewType()

	if r.typ.IsSearch() {
		st.Data.Search = &state.Search{
			Query:      p.query.Get(paramQuery),
			Offset:     atoi(p.query.Get(paramOffset)),
			MaxPerPage: atoi(p.query.Get(paramRows)),
			SortOrder:  p.query.Get(paramSort),
			IsBasic:    true,
		}
	}
	return st, nil
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Encode renders st as a full address (base + fragment).
func (s *Slicer) Encode(st state.HistoryState) (string, error) {
	frag, err := s.EncodeFragment(st)
	if err != nil {
		return "", err
	}
	return s.base + frag, nil
}

// EncodeFragment renders st as a bare fragment without the base prefix.
func (s *Slicer) EncodeFragment(st state.HistoryState) (string, error) {
	if st.Data.CollectionID == "" {
		return "", fmt.Errorf("%w: %s has no collection", ErrUnencodable, st.Type)
	}
	r, ok := routeFor(st.Type)
	if !ok {
		return "", fmt.Errorf("%w: type %s has no address form", ErrUnencodable, st.Type)
	}

	parts := make([]string, 0, r.segments())
	for _, f := range r.fields {
		var v string
		switch f {
		case fieldCollection:
			v = CollectionName(st.Data.CollectionID)
		case fieldManifest:
			v = st.Data.ManifestID
		case fieldCanvas:
			v = st.Data.CanvasID
		}
		if v == "" {
			return "", fmt.Errorf("%w: %s is missing a required identifier", ErrUnencodable, st.Type)
		}
		parts = append(parts, url.PathEscape(v))
	}
	if r.tail != "" {
		parts = append(parts, r.tail)
	}
	frag := strings.Join(parts, "/")

	if r.typ.IsSearch() {
		if st.Data.Search == nil || st.Data.Search.Query == "" {
			return "", fmt.Errorf("%w: %s without a query", ErrUnencodable, st.Type)
		}
		frag += "?" + searchQuery(st.Data.Search).Encode()
	}
	return frag, nil
}

func searchQuery(sr *state.Search) url.Values {
	q := url.Values{}
	q.Set(paramQuery, sr.Query)
	if sr.Offset > 0 {
		q.Set(paramOffset, strconv.Itoa(sr.Offset))
	}
	if sr.MaxPerPage > 0 {
		q.Set(paramRows, strconv.Itoa(sr.MaxPerPage))
	}
	if sr.SortOrder != "" {
		q.Set(paramSort, sr.SortOrder)
	}
	return q
}

// Title returns a human-readable label for st. It is diagnostic only.
func (s *Slicer) Title(st state.HistoryState) string {
	d := st.Data
	name := CollectionName(d.CollectionID)
	query := ""
	if d.Search != nil {
		query = d.Search.Query
	}
	switch st.Type {
	case state.Collection:
		return "Collection: " + name
	case state.CollectionSearch:
		return fmt.Sprintf("Search %s for %q", name, query)
	case state.ItemSearch:
		return fmt.Sprintf("Search %s in %s for %q", d.ManifestID, name, query)
	case state.ThumbnailView:
		return fmt.Sprintf("Thumbnails: %s (%s)", d.ManifestID, name)
	case state.ScrollView:
		return fmt.Sprintf("Scroll: %s (%s)", d.ManifestID, name)
	case state.PageView:
		return fmt.Sprintf("Page %s of %s (%s)", d.CanvasID, d.ManifestID, name)
	case state.OpeningView:
		return fmt.Sprintf("Opening %s of %s (%s)", d.CanvasID, d.ManifestID, name)
	default:
		return "Unknown state"
	}
}

// CollectionName extracts the logical collection name from a collection
// identifier: the second path segment of the identifier's URI. Identifiers
// without path structure are already names and are returned unchanged.
func CollectionName(collectionID string) string {
	if !strings.Contains(collectionID, "/") {
		return collectionID
	}
	path := collectionID
	if u, err := url.Parse(collectionID); err == nil && u.Host != "" {
		path = u.Path
	}
	var segs []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segs = append(segs, seg)
		}
	}
	switch len(segs) {
	case 0:
		return collectionID
	case 1:
		return segs[0]
	default:
		return segs[1]
	}
}
