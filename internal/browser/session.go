package browser

import (
	"sync"

	"github.com/vidyasagar/iiifnav/internal/history"
	"github.com/vidyasagar/iiifnav/internal/signal"
	"github.com/vidyasagar/iiifnav/internal/state"
)

// Poster accepts signals from any goroutine.
type Poster interface {
	Post(signal.Signal)
}

// Entry is one native history entry: an address, a title and the state
// object recorded with it (nil for entries created by address edits).
type Entry struct {
	id      uint64
	State   *state.HistoryState
	Title   string
	Address string
}

// Session emulates the host browser's history stack for one tab. Moving
// through it delivers signal.PopState, like a browser's popstate event.
type Session struct {
	mu       sync.Mutex
	timeline *history.Timeline[Entry]
	poster   Poster
	nextID   uint64
}

// NewSession creates a session whose first entry is start (may be empty).
func NewSession(start string, poster Poster) *Session {
	s := &Session{
		timeline: history.NewTimeline(func(a, b Entry) bool { return a.id == b.id }),
		poster:   poster,
	}
	s.timeline.Add(s.entry(nil, "", start))
	return s
}

func (s *Session) entry(st *state.HistoryState, title, address string) Entry {
	s.nextID++
	return Entry{id: s.nextID, State: st, Title: title, Address: address}
}

// PushState records a new entry after the current one, dropping forward
// entries. No PopState is delivered.
func (s *Session) PushState(st state.HistoryState, title, address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeline.Add(s.entry(&st, title, address))
}

// Navigate emulates editing the address bar: a new stateless entry is
// created and PopState is delivered with a nil state.
func (s *Session) Navigate(address string) {
	s.mu.Lock()
	s.timeline.Add(s.entry(nil, "", address))
	s.mu.Unlock()
	s.poster.Post(signal.PopState{Address: address})
}

// Back moves one entry back. It reports false at the first entry.
func (s *Session) Back() bool {
	return s.Go(-1)
}

// Forward moves one entry forward. It reports false at the last entry.
func (s *Session) Forward() bool {
	return s.Go(1)
}

// Go moves delta entries through the session, clamped to its bounds, and
// delivers PopState when the current entry changed.
func (s *Session) Go(delta int) bool {
	s.mu.Lock()
	before := s.timeline.Cursor()
	var e Entry
	if delta < 0 {
		e, _ = s.timeline.PreviousState(-delta)
	} else {
		e, _ = s.timeline.NextState(delta)
	}
	moved := s.timeline.Cursor() != before
	s.mu.Unlock()

	if !moved {
		return false
	}
	s.poster.Post(signal.PopState{State: e.State, Address: e.Address})
	return true
}

// Location returns the current address.
func (s *Session) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, _ := s.timeline.Current()
	return e.Address
}

// Title returns the title recorded with the current entry.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, _ := s.timeline.Current()
	return e.Title
}

// CanGoBack reports whether there is a previous entry.
func (s *Session) CanGoBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.Less()
}

// CanGoForward reports whether there is a next entry.
func (s *Session) CanGoForward() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.More()
}

// Len returns the number of entries.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline.Len()
}
