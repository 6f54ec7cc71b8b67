// backends/clic/clic.go

// Package clic implements the compact vectored local interrupt
// controller backend: per-id priorities, a level threshold, and the
// full set of vector dispatch modes.
package clic

import (
	"sync"

	"irqcore-go/errcode"
	"irqcore-go/intr"
	"irqcore-go/types"
	"irqcore-go/x/mathx"
)

const (
	// MaxPriority is the top interrupt level. Writes above it clamp,
	// matching the hardware's write-ones-read-legal level fields.
	MaxPriority = 255
)

// Controller is a simulated compact vectored local controller. Ids run
// 0..ids-1. Vector mode and enable/disable are orthogonal: an id can be
// vectored while disabled and keeps its mode across enable cycles.
type Controller struct {
	intr.Unsupported

	mu        sync.Mutex
	ids       int
	enabled   map[int]bool
	priority  map[int]uint32
	vector    map[int]types.VectorMode // absent = vectoring disabled
	pending   map[int]bool
	threshold uint32

	handlers   *intr.Handlers
	dispatched uint64
	notify     func(id int)
}

var _ intr.Ops = (*Controller)(nil)

// New creates a controller with the given id count.
func New(ids int) *Controller {
	if ids <= 0 {
		ids = 64
	}
	return &Controller{
		ids:      ids,
		enabled:  map[int]bool{},
		priority: map[int]uint32{},
		vector:   map[int]types.VectorMode{},
		pending:  map[int]bool{},
		handlers: intr.NewHandlers(),
	}
}

// SetNotify installs a hook called after every dispatched interrupt.
// Set once at setup, before any interrupt can fire.
func (c *Controller) SetNotify(fn func(id int)) { c.notify = fn }

// Handlers exposes the handler table for fallback configuration.
func (c *Controller) Handlers() *intr.Handlers { return c.handlers }

func (c *Controller) validID(id int) bool { return id >= 0 && id < c.ids }

func (c *Controller) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = map[int]bool{}
	c.priority = map[int]uint32{}
	c.vector = map[int]types.VectorMode{}
	c.pending = map[int]bool{}
	c.threshold = 0
	return nil
}

func (c *Controller) Register(id int, fn types.Handler, ctx any) error {
	if !c.validID(id) {
		return errcode.InvalidArgument
	}
	return c.handlers.Register(id, fn, ctx)
}

func (c *Controller) Enable(id int) error {
	if !c.validID(id) {
		return errcode.InvalidArgument
	}
	c.mu.Lock()
	c.enabled[id] = true
	c.mu.Unlock()
	c.drain()
	return nil
}

func (c *Controller) Disable(id int) error {
	if !c.validID(id) {
		return errcode.InvalidArgument
	}
	c.mu.Lock()
	delete(c.enabled, id)
	c.mu.Unlock()
	return nil
}

func (c *Controller) VectorEnable(id int, mode types.VectorMode) error {
	if !c.validID(id) || mode > types.HardwareVectored {
		return errcode.InvalidArgument
	}
	c.mu.Lock()
	c.vector[id] = mode
	c.mu.Unlock()
	return nil
}

func (c *Controller) VectorDisable(id int) error {
	if !c.validID(id) {
		return errcode.InvalidArgument
	}
	c.mu.Lock()
	delete(c.vector, id)
	c.mu.Unlock()
	return nil
}

// VectorMode reports id's mode; ok is false while vectoring is in its
// initial disabled state.
func (c *Controller) VectorMode(id int) (types.VectorMode, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.vector[id]
	return m, ok
}

func (c *Controller) Threshold() (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.threshold, nil
}

func (c *Controller) SetThreshold(v uint32) error {
	c.mu.Lock()
	c.threshold = mathx.Clamp(v, 0, MaxPriority)
	c.mu.Unlock()
	c.drain()
	return nil
}

func (c *Controller) Priority(id int) (uint32, error) {
	if !c.validID(id) {
		return 0, errcode.InvalidArgument
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.priority[id], nil
}

func (c *Controller) SetPriority(id int, v uint32) error {
	if !c.validID(id) {
		return errcode.InvalidArgument
	}
	c.mu.Lock()
	c.priority[id] = mathx.Clamp(v, 0, MaxPriority)
	c.mu.Unlock()
	c.drain()
	return nil
}

func (c *Controller) CommandRequest(cmd int, data any) (any, error) {
	switch cmd {
	case types.CmdPendingGet:
		id, ok := data.(int)
		if !ok || !c.validID(id) {
			return nil, errcode.InvalidArgument
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.pending[id], nil
	case types.CmdDispatchCount:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.dispatched, nil
	case types.CmdFire:
		id, ok := data.(int)
		if !ok {
			return nil, errcode.InvalidArgument
		}
		return nil, c.Fire(id)
	}
	return nil, errcode.Unsupported
}

// Fire is the hardware-side entry point: id was asserted. Masked ids
// latch pending and deliver when unmasked.
func (c *Controller) Fire(id int) error {
	if !c.validID(id) {
		return errcode.InvalidArgument
	}
	c.mu.Lock()
	c.pending[id] = true
	c.mu.Unlock()
	c.drain()
	return nil
}

// Pending reports whether id is latched but not yet delivered.
func (c *Controller) Pending(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[id]
}

// DispatchCount returns the number of delivered interrupts since init.
func (c *Controller) DispatchCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dispatched
}

func (c *Controller) drain() {
	for {
		id, ok := c.take()
		if !ok {
			return
		}
		c.handlers.Invoke(id)
		if c.notify != nil {
			c.notify(id)
		}
	}
}

// take picks the highest-level deliverable pending id, if any. An id
// delivers when enabled and its level exceeds the threshold; a zero
// threshold masks nothing, so ids left at the default level still fire.
func (c *Controller) take() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	best, bestPrio := -1, uint32(0)
	for id := range c.pending {
		if !c.pending[id] || !c.enabled[id] {
			continue
		}
		p := c.priority[id]
		if p <= c.threshold && c.threshold > 0 {
			continue
		}
		if best < 0 || p > bestPrio {
			best, bestPrio = id, p
		}
	}
	if best < 0 {
		return 0, false
	}
	c.pending[best] = false
	c.dispatched++
	return best, true
}
