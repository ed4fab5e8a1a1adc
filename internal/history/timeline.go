// Package history implements a browser-like timeline: an ordered list of
// entries with a cursor, linear back/forward moves and branch truncation.
package history

// Timeline manages a back/forward navigation stack.
// It is not safe for concurrent use; its owner serializes access.
type Timeline[T any] struct {
	entries []T
	cursor  int // index of the current entry
	equal   func(a, b T) bool
}

// NewTimeline creates an empty timeline. equal is used by Search.
func NewTimeline[T any](equal func(a, b T) bool) *Timeline[T] {
	return &Timeline[T]{equal: equal}
}

// Current returns the entry at the cursor.
func (t *Timeline[T]) Current() (T, bool) {
	return t.at(t.cursor)
}

// Add appends an entry after the cursor, truncating any forward entries,
// and moves the cursor onto it.
func (t *Timeline[T]) Add(entry T) {
	if len(t.entries) > 0 {
		t.entries = t.entries[:t.cursor+1]
	}
	t.entries = append(t.entries, entry)
	t.cursor = len(t.entries) - 1
}

// Len returns the total number of entries.
func (t *Timeline[T]) Len() int {
	return len(t.entries)
}

// Cursor returns the index of the current entry.
func (t *Timeline[T]) Cursor() int {
	return t.cursor
}

// Less reports whether there is an entry behind the cursor, i.e.
// cursor > 0. It is false at the first entry and on an empty timeline.
func (t *Timeline[T]) Less() bool {
	return len(t.entries) > 0 && t.cursor > 0
}

// More reports whether there is an entry ahead of the cursor, i.e.
// cursor < Len()-1. Add leaves the cursor on the last entry, so More is
// false right after any Add. Comparing against Len() instead would keep it
// true there and let Forward step past the end.
func (t *Timeline[T]) More() bool {
	return len(t.entries) > 0 && t.cursor < len(t.entries)-1
}

// PeekForward returns the entry delta steps ahead without moving.
func (t *Timeline[T]) PeekForward(delta int) (T, bool) {
	return t.at(t.cursor + delta)
}

// PeekBack returns the entry delta steps behind without moving.
func (t *Timeline[T]) PeekBack(delta int) (T, bool) {
	return t.at(t.cursor - delta)
}

// PreviousState moves the cursor back by delta, clamped to the first entry.
func (t *Timeline[T]) PreviousState(delta int) (T, bool) {
	t.cursor -= delta
	t.clamp()
	return t.Current()
}

// NextState moves the cursor forward by delta, clamped to the last entry.
func (t *Timeline[T]) NextState(delta int) (T, bool) {
	t.cursor += delta
	t.clamp()
	return t.Current()
}

// Search returns the signed distance from the cursor to the nearest entry
// equal to target: positive ahead, negative behind. At equal distance the
// entry ahead wins. The cursor entry itself is not considered.
func (t *Timeline[T]) Search(target T) (int, bool) {
	for d := 1; t.cursor+d < len(t.entries) || t.cursor-d >= 0; d++ {
		if e, ok := t.PeekForward(d); ok && t.equal(e, target) {
			return d, true
		}
		if e, ok := t.PeekBack(d); ok && t.equal(e, target) {
			return -d, true
		}
	}
	return 0, false
}

// Entries returns a copy of all entries, oldest first.
func (t *Timeline[T]) Entries() []T {
	out := make([]T, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Timeline[T]) at(i int) (T, bool) {
	if i < 0 || i >= len(t.entries) {
		var zero T
		return zero, false
	}
	return t.entries[i], true
}

func (t *Timeline[T]) clamp() {
	if t.cursor > len(t.entries)-1 {
		t.cursor = len(t.entries) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}
