// intr/handlers.go
package intr

import (
	"sync"
	"sync/atomic"

	"irqcore-go/errcode"
	"irqcore-go/types"
)

// Handlers is the per-backend table mapping interrupt id to (callback,
// context). Registering the same id again overwrites the prior entry:
// last write wins, there is no unregister. Clients that want a handler
// inert disable the id instead; the entry stays in place.
//
// Invoke runs on the hardware dispatch context and may be re-entered if
// the same id re-fires before a prior invocation returns; handler
// bodies must treat their ctx accordingly. The lock here guards the
// table only, never a running handler.
type Handlers struct {
	mu       sync.RWMutex
	entries  map[int]handlerEntry
	fallback types.Handler
	dropped  uint64
}

type handlerEntry struct {
	fn  types.Handler
	ctx any
}

func NewHandlers() *Handlers {
	return &Handlers{entries: map[int]handlerEntry{}}
}

// Register stores fn for id. A nil fn is rejected; it would otherwise
// turn a later Invoke into a nil call.
func (h *Handlers) Register(id int, fn types.Handler, ctx any) error {
	if fn == nil {
		return errcode.InvalidArgument
	}
	h.mu.Lock()
	h.entries[id] = handlerEntry{fn: fn, ctx: ctx}
	h.mu.Unlock()
	return nil
}

// Registered reports whether id has a handler.
func (h *Handlers) Registered(id int) bool {
	h.mu.RLock()
	_, ok := h.entries[id]
	h.mu.RUnlock()
	return ok
}

// SetFallback installs the handler for ids that fire without a
// registered entry. Without one, such events are counted and dropped.
func (h *Handlers) SetFallback(fn types.Handler) {
	h.mu.Lock()
	h.fallback = fn
	h.mu.Unlock()
}

// Invoke calls the handler for id exactly once with (id, ctx). For an
// unhandled id it runs the fallback if set, else drops deterministically.
// It reports whether any callback ran.
func (h *Handlers) Invoke(id int) bool {
	h.mu.RLock()
	e, ok := h.entries[id]
	fb := h.fallback
	h.mu.RUnlock()

	if ok {
		e.fn(id, e.ctx)
		return true
	}
	if fb != nil {
		fb(id, nil)
		return true
	}
	atomic.AddUint64(&h.dropped, 1)
	return false
}

// Dropped returns how many unhandled events were discarded.
func (h *Handlers) Dropped() uint64 {
	return atomic.LoadUint64(&h.dropped)
}
