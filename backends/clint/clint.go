// backends/clint/clint.go

// Package clint implements the core-local interruptor backend: machine
// software and timer interrupts plus the per-hart timer compare
// registers, programmable cross-hart.
package clint

import (
	"sync"
	"time"

	"irqcore-go/errcode"
	"irqcore-go/intr"
	"irqcore-go/types"
	"irqcore-go/x/timex"
)

// Interrupt ids, matching the machine cause codes.
const (
	IDSoftware = 3
	IDTimer    = 7
)

const noCompare = ^uint64(0)

// Controller is a simulated core-local interruptor. It has no priority
// arbitration and no vectored dispatch; those operations stay on the
// embedded unsupported base.
//
// Timer compare writes are per hart and carry no cross-hart ordering:
// a hart programming another hart's compare supplies its own fences.
type Controller struct {
	intr.Unsupported

	mu       sync.Mutex
	harts    int
	enabled  map[int]bool
	msip     []bool
	mtimecmp []uint64

	start     time.Time
	nsPerTick uint64

	handlers   *intr.Handlers
	dispatched uint64
	notify     func(id int)
}

var _ intr.Ops = (*Controller)(nil)

// New creates a controller for the given hart count ticking at freqHz.
func New(harts int, freqHz uint32) *Controller {
	if harts <= 0 {
		harts = 1
	}
	c := &Controller{
		harts:     harts,
		enabled:   map[int]bool{},
		msip:      make([]bool, harts),
		mtimecmp:  make([]uint64, harts),
		start:     time.Now(),
		nsPerTick: timex.PeriodFromHz(freqHz),
		handlers:  intr.NewHandlers(),
	}
	for i := range c.mtimecmp {
		c.mtimecmp[i] = noCompare // no interrupt until programmed
	}
	return c
}

// SetNotify installs a hook called after every dispatched interrupt.
// Set once at setup, before any interrupt can fire.
func (c *Controller) SetNotify(fn func(id int)) { c.notify = fn }

// Handlers exposes the handler table for fallback configuration.
func (c *Controller) Handlers() *intr.Handlers { return c.handlers }

func (c *Controller) validID(id int) bool { return id == IDSoftware || id == IDTimer }

func (c *Controller) validHart(h types.HartID) bool { return h >= 0 && int(h) < c.harts }

func (c *Controller) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = map[int]bool{}
	for i := range c.msip {
		c.msip[i] = false
		c.mtimecmp[i] = noCompare
	}
	c.start = time.Now()
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

// SetTimerCompare programs hart's compare register. The write is whole:
// an invalid hart leaves every register untouched.
func (c *Controller) SetTimerCompare(hart types.HartID, t uint64) error {
	if !c.validHart(hart) {
		return errcode.InvalidArgument
	}
	c.mu.Lock()
	c.mtimecmp[hart] = t
	c.mu.Unlock()
	return nil
}

// hartOf accepts the hart argument of a command as either a HartID or
// a plain int, since command data may arrive through a bus boundary.
func hartOf(data any) (types.HartID, bool) {
	switch v := data.(type) {
	case types.HartID:
		return v, true
	case int:
		return types.HartID(v), true
	}
	return 0, false
}

func (c *Controller) CommandRequest(cmd int, data any) (any, error) {
	switch cmd {
	case types.CmdTimerCompareGet:
		hart, ok := hartOf(data)
		if !ok || !c.validHart(hart) {
			return nil, errcode.InvalidArgument
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.mtimecmp[hart], nil

	case types.CmdSoftwareSet:
		hart, ok := hartOf(data)
		if !ok || !c.validHart(hart) {
			return nil, errcode.InvalidArgument
		}
		c.mu.Lock()
		c.msip[hart] = true
		deliver := c.enabled[IDSoftware]
		if deliver {
			c.msip[hart] = false
			c.dispatched++
		}
		c.mu.Unlock()
		if deliver {
			c.dispatch(IDSoftware)
		}
		return nil, nil

	case types.CmdSoftwareClear:
		hart, ok := hartOf(data)
		if !ok || !c.validHart(hart) {
			return nil, errcode.InvalidArgument
		}
		c.mu.Lock()
		c.msip[hart] = false
		c.mu.Unlock()
		return nil, nil

	case types.CmdDispatchCount:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.dispatched, nil
	}
	return nil, errcode.Unsupported
}

// Mtime returns the current timer value in ticks.
func (c *Controller) Mtime() uint64 {
	c.mu.Lock()
	start, ns := c.start, c.nsPerTick
	c.mu.Unlock()
	return timex.TicksSince(start, ns)
}

// Tick is the hardware-side entry point: compare mtime against hart's
// compare register and dispatch the timer interrupt when due. A
// delivered interrupt rearms only when the compare is reprogrammed,
// mirroring the one-shot compare semantics of the hardware.
func (c *Controller) Tick(hart types.HartID, now uint64) bool {
	if !c.validHart(hart) {
		return false
	}
	c.mu.Lock()
	due := c.enabled[IDTimer] && c.mtimecmp[hart] != noCompare && now >= c.mtimecmp[hart]
	if due {
		c.mtimecmp[hart] = noCompare
		c.dispatched++
	}
	c.mu.Unlock()
	if due {
		c.dispatch(IDTimer)
	}
	return due
}

// SoftwarePending reports hart's software-interrupt pending bit.
func (c *Controller) SoftwarePending(hart types.HartID) bool {
	if !c.validHart(hart) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.msip[hart]
}

func (c *Controller) dispatch(id int) {
	c.handlers.Invoke(id)
	if c.notify != nil {
		c.notify(id)
	}
}
