// backends/plic/plic.go

// Package plic implements the platform-level external interrupt
// controller backend: per-source priorities, a controller-wide
// threshold, and a pending/claim/complete cycle for external lines.
package plic

import (
	"sync"

	"irqcore-go/errcode"
	"irqcore-go/intr"
	"irqcore-go/types"
	"irqcore-go/x/mathx"
)

const (
	// MaxPriority is the highest programmable source priority.
	MaxPriority = 7
)

// Controller is a simulated platform-level controller. Source ids run
// 1..sources; id 0 is reserved and always rejected. A source fires only
// when enabled and its priority exceeds the threshold; otherwise the
// event is latched pending and re-examined when the masking changes.
type Controller struct {
	intr.Unsupported

	mu        sync.Mutex
	sources   int
	enabled   map[int]bool
	priority  map[int]uint32
	pending   map[int]bool
	served    map[int]bool
	threshold uint32

	handlers   *intr.Handlers
	dispatched uint64
	notify     func(id int)
}

var _ intr.Ops = (*Controller)(nil)

// New creates a controller with the given number of source lines.
func New(sources int) *Controller {
	if sources <= 0 {
		sources = 32
	}
	return &Controller{
		sources:  sources,
		enabled:  map[int]bool{},
		priority: map[int]uint32{},
		pending:  map[int]bool{},
		served:   map[int]bool{},
		handlers: intr.NewHandlers(),
	}
}

// SetNotify installs a hook called after every dispatched interrupt.
// Set once at setup, before any line can fire.
func (c *Controller) SetNotify(fn func(id int)) { c.notify = fn }

// Handlers exposes the handler table for fallback configuration.
func (c *Controller) Handlers() *intr.Handlers { return c.handlers }

func (c *Controller) validID(id int) bool { return mathx.Between(id, 1, c.sources) }

func (c *Controller) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Reset to the hardware power-on state: all sources masked at
	// priority 0, nothing pending, threshold 0.
	c.enabled = map[int]bool{}
	c.priority = map[int]uint32{}
	c.pending = map[int]bool{}
	c.served = map[int]bool{}
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

func (c *Controller) Threshold() (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.threshold, nil
}

func (c *Controller) SetThreshold(v uint32) error {
	if v > MaxPriority {
		return errcode.InvalidArgument
	}
	c.mu.Lock()
	c.threshold = v
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
	if !c.validID(id) || v > MaxPriority {
		return errcode.InvalidArgument
	}
	c.mu.Lock()
	c.priority[id] = v
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

// Fire is the hardware-side entry point: a device asserted source id.
// Masked or disabled sources latch pending; deliverable ones go through
// the claim/complete cycle and invoke the registered handler once.
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

// Pending reports whether a source is latched but not yet delivered.
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

// drain delivers every claimable pending source. The claim marks the
// source served so a re-fire during its handler latches pending instead
// of recursing; complete clears it afterwards.
func (c *Controller) drain() {
	for {
		id, ok := c.claim()
		if !ok {
			return
		}
		c.handlers.Invoke(id)
		if c.notify != nil {
			c.notify(id)
		}
		c.complete(id)
	}
}

// claim picks the highest-priority deliverable pending source, if any.
func (c *Controller) claim() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	best, bestPrio := 0, uint32(0)
	for id := 1; id <= c.sources; id++ {
		if !c.pending[id] || c.served[id] || !c.enabled[id] {
			continue
		}
		p := c.priority[id]
		if p <= c.threshold {
			continue
		}
		if best == 0 || p > bestPrio {
			best, bestPrio = id, p
		}
	}
	if best == 0 {
		return 0, false
	}
	c.pending[best] = false
	c.served[best] = true
	c.dispatched++
	return best, true
}

func (c *Controller) complete(id int) {
	c.mu.Lock()
	delete(c.served, id)
	c.mu.Unlock()
}
