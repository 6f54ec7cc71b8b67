// backends/cpu/cpu.go

// Package cpu implements the core-local (per-hart) controller backend,
// keyed by exception cause code. It has no priority arbitration and no
// timer; vector dispatch covers the direct and fully-vectored trap
// entry modes only.
package cpu

import (
	"sync"

	"irqcore-go/errcode"
	"irqcore-go/intr"
	"irqcore-go/types"
)

// MaxCause is the highest cause code this controller accepts.
const MaxCause = 15

// Controller is a simulated core-local controller for one hart.
type Controller struct {
	intr.Unsupported

	mu      sync.Mutex
	hart    types.HartID
	enabled map[int]bool
	vector  map[int]types.VectorMode // absent = vectoring disabled

	handlers   *intr.Handlers
	dispatched uint64
	notify     func(id int)
}

var _ intr.Ops = (*Controller)(nil)

// New creates the controller for the given hart.
func New(hart types.HartID) *Controller {
	return &Controller{
		hart:     hart,
		enabled:  map[int]bool{},
		vector:   map[int]types.VectorMode{},
		handlers: intr.NewHandlers(),
	}
}

// SetNotify installs a hook called after every dispatched interrupt.
// Set once at setup, before any interrupt can fire.
func (c *Controller) SetNotify(fn func(id int)) { c.notify = fn }

// Handlers exposes the handler table for fallback configuration.
func (c *Controller) Handlers() *intr.Handlers { return c.handlers }

// Hart returns the hart this controller is local to.
func (c *Controller) Hart() types.HartID { return c.hart }

func (c *Controller) validID(id int) bool { return id >= 0 && id <= MaxCause }

func (c *Controller) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = map[int]bool{}
	c.vector = map[int]types.VectorMode{}
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

// VectorEnable accepts the trap-entry modes this hardware has: Direct
// and Vectored. The selective and hardware-vectored modes belong to the
// compact local controller and are rejected here.
func (c *Controller) VectorEnable(id int, mode types.VectorMode) error {
	if !c.validID(id) {
		return errcode.InvalidArgument
	}
	if mode != types.Direct && mode != types.Vectored {
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

func (c *Controller) CommandRequest(cmd int, data any) (any, error) {
	switch cmd {
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

// Fire is the trap-entry collaborator's entry point: the decoded cause
// id trapped on this hart. Disabled causes are dropped; the trap entry
// has already committed to this hart, there is nothing to latch.
func (c *Controller) Fire(id int) error {
	if !c.validID(id) {
		return errcode.InvalidArgument
	}
	c.mu.Lock()
	deliver := c.enabled[id]
	if deliver {
		c.dispatched++
	}
	c.mu.Unlock()
	if deliver {
		c.handlers.Invoke(id)
		if c.notify != nil {
			c.notify(id)
		}
	}
	return nil
}

// DispatchCount returns the number of delivered interrupts since init.
func (c *Controller) DispatchCount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dispatched
}
