package navigation

import "sync"

// Readiness is a one-shot future that resolves once every configured
// collection has been settled and the initially expected collection has
// actually been received.
type Readiness struct {
	mu       sync.Mutex
	pending  map[string]struct{}
	expected string
	seen     bool
	done     chan struct{}
	once     sync.Once
}

// NewReadiness waits for configured, and for expected to be observed.
func NewReadiness(configured []string, expected string) *Readiness {
	r := &Readiness{
		pending:  make(map[string]struct{}, len(configured)),
		expected: expected,
		done:     make(chan struct{}),
	}
	for _, id := range configured {
		r.pending[id] = struct{}{}
	}
	return r
}

// Observe records a received collection under every id it is known by:
// the id it was requested with and the id its document declares. It
// reports true only for the call that resolved the future.
func (r *Readiness) Observe(ids ...string) bool {
	r.mu.Lock()
	for _, id := range ids {
		delete(r.pending, id)
		if id == r.expected {
			r.seen = true
		}
	}
	ok := r.seen && len(r.pending) == 0
	r.mu.Unlock()
	return ok && r.resolve()
}

// Settle removes a collection that failed to load from the pending set
// without counting it as observed.
func (r *Readiness) Settle(id string) bool {
	r.mu.Lock()
	delete(r.pending, id)
	ok := r.seen && len(r.pending) == 0
	r.mu.Unlock()
	return ok && r.resolve()
}

func (r *Readiness) resolve() bool {
	resolved := false
	r.once.Do(func() {
		close(r.done)
		resolved = true
	})
	return resolved
}

// Done is closed when the future resolves.
func (r *Readiness) Done() <-chan struct{} {
	return r.done
}

// Resolved reports whether the future has resolved.
func (r *Readiness) Resolved() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Pending returns how many configured collections are still outstanding.
func (r *Readiness) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
