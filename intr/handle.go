// intr/handle.go
package intr

import (
	"irqcore-go/errcode"
	"irqcore-go/types"
)

// Handle is the opaque client-facing reference to one controller
// instance. It borrows its Ops (backend lifetime is process-wide) and
// forwards every call unchanged: no caching, no retries, no id-range
// checks (valid ranges differ per kind and belong to the backend).
//
// Init must be called exactly once before anything else; the handle
// tracks that, the backend does not have to.
type Handle struct {
	kind   types.ControllerKind
	index  int
	ops    Ops
	inited bool
}

func newHandle(kind types.ControllerKind, index int, ops Ops) *Handle {
	return &Handle{kind: kind, index: index, ops: ops}
}

func (h *Handle) Kind() types.ControllerKind { return h.kind }
func (h *Handle) Index() int                 { return h.index }

// guard rejects nil/unbound handles and pre-init use.
func (h *Handle) guard() error {
	if h == nil || h.ops == nil {
		return errcode.InvalidHandle
	}
	if !h.inited {
		return errcode.NotInitialized
	}
	return nil
}

func (h *Handle) Init() error {
	if h == nil || h.ops == nil {
		return errcode.InvalidHandle
	}
	if h.inited {
		return errcode.AlreadyInitialized
	}
	if err := h.ops.Init(); err != nil {
		return err
	}
	h.inited = true
	return nil
}

func (h *Handle) Register(id int, fn types.Handler, ctx any) error {
	if err := h.guard(); err != nil {
		return err
	}
	return h.ops.Register(id, fn, ctx)
}

func (h *Handle) Enable(id int) error {
	if err := h.guard(); err != nil {
		return err
	}
	return h.ops.Enable(id)
}

func (h *Handle) Disable(id int) error {
	if err := h.guard(); err != nil {
		return err
	}
	return h.ops.Disable(id)
}

func (h *Handle) VectorEnable(id int, mode types.VectorMode) error {
	if err := h.guard(); err != nil {
		return err
	}
	return h.ops.VectorEnable(id, mode)
}

func (h *Handle) VectorDisable(id int) error {
	if err := h.guard(); err != nil {
		return err
	}
	return h.ops.VectorDisable(id)
}

func (h *Handle) Threshold() (uint32, error) {
	if err := h.guard(); err != nil {
		return 0, err
	}
	return h.ops.Threshold()
}

func (h *Handle) SetThreshold(v uint32) error {
	if err := h.guard(); err != nil {
		return err
	}
	return h.ops.SetThreshold(v)
}

func (h *Handle) Priority(id int) (uint32, error) {
	if err := h.guard(); err != nil {
		return 0, err
	}
	return h.ops.Priority(id)
}

func (h *Handle) SetPriority(id int, v uint32) error {
	if err := h.guard(); err != nil {
		return err
	}
	return h.ops.SetPriority(id, v)
}

func (h *Handle) CommandRequest(cmd int, data any) (any, error) {
	if err := h.guard(); err != nil {
		return nil, err
	}
	return h.ops.CommandRequest(cmd, data)
}

func (h *Handle) SetTimerCompare(hart types.HartID, t uint64) error {
	if err := h.guard(); err != nil {
		return err
	}
	return h.ops.SetTimerCompare(hart, t)
}
