package signal

import (
	"context"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

type subscription struct {
	id uint64
	fn func(Signal)
}

// Bus dispatches signals to handlers registered per signal type.
//
// Dispatch is run-to-completion on a single loop goroutine: a signal
// published from inside a handler is queued and delivered after the current
// one. Publish and Drain must only be called from the loop goroutine; Post
// may be called from any goroutine.
type Bus struct {
	mu       sync.Mutex
	handlers map[reflect.Type][]subscription
	queue    []Signal
	draining bool
	nextID   uint64
	wake     chan struct{}
	onWake   func()
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[reflect.Type][]subscription),
		wake:     make(chan struct{}, 1),
	}
}

// Subscribe registers fn for signals of type T and returns a function that
// removes the registration.
func Subscribe[T Signal](b *Bus, fn func(T)) func() {
	typ := reflect.TypeOf((*T)(nil)).Elem()

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[typ] = append(b.handlers[typ], subscription{
		id: id,
		fn: func(s Signal) { fn(s.(T)) },
	})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[typ]
		for i, s := range subs {
			if s.id == id {
				b.handlers[typ] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// OnWake sets a hook called whenever Post queues a signal, so a host event
// loop can schedule a Drain on its own goroutine.
func (b *Bus) OnWake(fn func()) {
	b.mu.Lock()
	b.onWake = fn
	b.mu.Unlock()
}

// Publish queues s and, unless a dispatch is already in progress, drains the
// queue. Loop goroutine only.
func (b *Bus) Publish(s Signal) {
	b.mu.Lock()
	b.queue = append(b.queue, s)
	busy := b.draining
	b.mu.Unlock()
	if !busy {
		b.Drain()
	}
}

// Post queues s from any goroutine and wakes the loop.
func (b *Bus) Post(s Signal) {
	b.mu.Lock()
	b.queue = append(b.queue, s)
	hook := b.onWake
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
	if hook != nil {
		hook()
	}
}

// Drain dispatches queued signals until the queue is empty and returns how
// many were delivered. Loop goroutine only.
func (b *Bus) Drain() int {
	b.mu.Lock()
	if b.draining {
		b.mu.Unlock()
		return 0
	}
	b.draining = true
	b.mu.Unlock()

	n := 0
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.draining = false
			b.mu.Unlock()
			return n
		}
		s := b.queue[0]
		b.queue[0] = nil
		b.queue = b.queue[1:]
		subs := append([]subscription(nil), b.handlers[reflect.TypeOf(s)]...)
		b.mu.Unlock()

		for _, sub := range subs {
			sub.fn(s)
		}
		n++
	}
}

// Pending returns the number of queued, undelivered signals.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Run makes the calling goroutine the loop goroutine: it drains the queue
// every time Post wakes it, until ctx is done.
func (b *Bus) Run(ctx context.Context) error {
	b.Drain()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.wake:
			b.Drain()
		}
	}
}

// NewCorrelationID returns a fresh id pairing a request with its response.
func NewCorrelationID() string {
	return uuid.NewString()
}
