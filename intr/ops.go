// intr/ops.go
package intr

import (
	"irqcore-go/errcode"
	"irqcore-go/types"
)

// Ops is the full operation surface a controller backend may implement.
// A backend embeds Unsupported and overrides only the operations its
// hardware provides; everything else fails with errcode.Unsupported
// rather than silently no-opping.
//
// No operation may be partially applied: each either fully succeeds or
// fails with no hardware mutation.
type Ops interface {
	// Init brings the controller to its operational state. Called at
	// most once per instance; the Handle enforces this.
	Init() error
	// Register stores a handler for id, overwriting any prior entry
	// (last write wins).
	Register(id int, h types.Handler, ctx any) error
	Enable(id int) error
	Disable(id int) error
	// VectorEnable moves id into the given vector mode; VectorDisable
	// returns it to the implicit non-vectored initial state. Vector
	// mode and enable/disable are orthogonal axes.
	VectorEnable(id int, mode types.VectorMode) error
	VectorDisable(id int) error
	// Threshold and priority only exist on controllers with priority
	// arbitration. Interrupts at or below the threshold are masked.
	Threshold() (uint32, error)
	SetThreshold(v uint32) error
	Priority(id int) (uint32, error)
	SetPriority(id int, v uint32) error
	// CommandRequest is the backend-defined escape hatch for controls
	// not covered by the fixed surface.
	CommandRequest(cmd int, data any) (any, error)
	// SetTimerCompare programs another hart's timer compare register.
	// Cross-hart ordering is the caller's problem; the core adds none.
	SetTimerCompare(hart types.HartID, t uint64) error
}

// Unsupported is the embeddable base: every operation reports
// errcode.Unsupported and touches nothing.
type Unsupported struct{}

func (Unsupported) Init() error                                { return errcode.Unsupported }
func (Unsupported) Register(int, types.Handler, any) error     { return errcode.Unsupported }
func (Unsupported) Enable(int) error                           { return errcode.Unsupported }
func (Unsupported) Disable(int) error                          { return errcode.Unsupported }
func (Unsupported) VectorEnable(int, types.VectorMode) error   { return errcode.Unsupported }
func (Unsupported) VectorDisable(int) error                    { return errcode.Unsupported }
func (Unsupported) Threshold() (uint32, error)                 { return 0, errcode.Unsupported }
func (Unsupported) SetThreshold(uint32) error                  { return errcode.Unsupported }
func (Unsupported) Priority(int) (uint32, error)               { return 0, errcode.Unsupported }
func (Unsupported) SetPriority(int, uint32) error              { return errcode.Unsupported }
func (Unsupported) CommandRequest(int, any) (any, error)       { return nil, errcode.Unsupported }
func (Unsupported) SetTimerCompare(types.HartID, uint64) error { return errcode.Unsupported }

var _ Ops = Unsupported{}
