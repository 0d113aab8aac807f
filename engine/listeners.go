package engine

import (
	"fmt"
	"sync"

	"github.com/hupe1980/swm/core"
	"github.com/hupe1980/swm/logging"
)

// Registry keeps listeners in registration order and notifies them of
// lifecycle events.
//
// Registration is copy-on-write: Notify iterates a snapshot taken under the
// lock and releases it before calling any listener, so listeners may add or
// remove listeners (or call back into the engine) without deadlocking. A
// listener registered during a notification first sees the next event.
//
// The same listener may be registered more than once and is then notified
// once per registration.
type Registry[R any] struct {
	mu        sync.Mutex
	listeners []*core.Listener[R]
	logger    logging.Logger
}

// NewRegistry creates an empty registry. A nil logger discards panic reports.
func NewRegistry[R any](logger logging.Logger) *Registry[R] {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Registry[R]{logger: logger}
}

// Add appends l to the notification order. Nil listeners are ignored.
func (r *Registry[R]) Add(l *core.Listener[R]) {
	if l == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	next := make([]*core.Listener[R], len(r.listeners), len(r.listeners)+1)
	copy(next, r.listeners)
	r.listeners = append(next, l)
}

// Remove drops the earliest registration of l and reports whether one was found.
func (r *Registry[R]) Remove(l *core.Listener[R]) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.listeners {
		if cur != l {
			continue
		}
		next := make([]*core.Listener[R], 0, len(r.listeners)-1)
		next = append(next, r.listeners[:i]...)
		r.listeners = append(next, r.listeners[i+1:]...)
		return true
	}
	return false
}

// Len returns the number of registrations.
func (r *Registry[R]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.listeners)
}

// Notify delivers ev to every listener on the calling goroutine, in
// registration order. A listener that panics is logged and the remaining
// listeners are still notified.
func (r *Registry[R]) Notify(ev core.Event) {
	r.mu.Lock()
	snapshot := r.listeners
	r.mu.Unlock()

	for i, l := range snapshot {
		r.dispatch(i, l, ev)
	}
}

func (r *Registry[R]) dispatch(index int, l *core.Listener[R], ev core.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("listener panic: %v", rec)
			if sl, ok := r.logger.(stackLogger); ok {
				sl.ErrorWithStack(err, "Listener failed during notification", "event", string(ev.Kind()), "listener_index", index)
				return
			}
			r.logger.Error("Listener failed during notification", "event", string(ev.Kind()), "listener_index", index, "error", err)
		}
	}()
	l.Dispatch(ev)
}
