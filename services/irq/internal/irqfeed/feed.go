// services/irq/internal/irqfeed/feed.go

// Package irqfeed carries dispatch notifications from controller
// backends to the irq service. The producing side runs on the hardware
// dispatch context and must never block there, so delivery is a
// non-blocking send with a drop counter.
package irqfeed

import (
	"sync/atomic"
	"time"

	"irqcore-go/types"
)

// Event is one dispatched interrupt, stamped at dispatch time.
type Event struct {
	Kind  types.ControllerKind
	Index int
	ID    int
	TS    time.Time
}

type Feed struct {
	ch    chan Event
	drops uint32
}

func New(buf int) *Feed {
	if buf <= 0 {
		buf = 64
	}
	return &Feed{ch: make(chan Event, buf)}
}

// Notify returns the dispatch hook for one controller instance,
// suitable for the backend's SetNotify.
func (f *Feed) Notify(kind types.ControllerKind, index int) func(id int) {
	return func(id int) {
		ev := Event{Kind: kind, Index: index, ID: id, TS: time.Now()}
		select {
		case f.ch <- ev:
		default:
			atomic.AddUint32(&f.drops, 1)
		}
	}
}

// Events is consumed by the irq service.
func (f *Feed) Events() <-chan Event { return f.ch }

// Drops returns how many notifications were discarded on a full queue.
func (f *Feed) Drops() uint32 { return atomic.LoadUint32(&f.drops) }
