// intr/handle_test.go
package intr

import (
	"testing"

	"irqcore-go/errcode"
	"irqcore-go/types"
)

// fakeOps supports init, register, enable/disable and priority; nothing
// else. It counts every mutation so tests can assert "no state touched".
type fakeOps struct {
	Unsupported

	inits     int
	mutations int
	enabled   map[int]bool
	prio      map[int]uint32
	handlers  *Handlers
	failNext  error
}

func newFakeOps() *fakeOps {
	return &fakeOps{
		enabled:  map[int]bool{},
		prio:     map[int]uint32{},
		handlers: NewHandlers(),
	}
}

func (f *fakeOps) Init() error {
	f.inits++
	return nil
}

func (f *fakeOps) Register(id int, fn types.Handler, ctx any) error {
	f.mutations++
	return f.handlers.Register(id, fn, ctx)
}

func (f *fakeOps) Enable(id int) error {
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.mutations++
	f.enabled[id] = true
	return nil
}

func (f *fakeOps) Disable(id int) error {
	f.mutations++
	delete(f.enabled, id)
	return nil
}

func (f *fakeOps) Priority(id int) (uint32, error) {
	return f.prio[id], nil
}

func (f *fakeOps) SetPriority(id int, v uint32) error {
	f.mutations++
	f.prio[id] = v
	return nil
}

func initedHandle(t *testing.T, ops Ops) *Handle {
	t.Helper()
	h := newHandle(types.KindPLIC, 0, ops)
	if err := h.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	return h
}

func TestHandle_NilIsInvalid(t *testing.T) {
	var h *Handle
	if err := h.Enable(1); err != errcode.InvalidHandle {
		t.Fatalf("nil handle Enable: got %v", err)
	}
	if err := h.Init(); err != errcode.InvalidHandle {
		t.Fatalf("nil handle Init: got %v", err)
	}
	unbound := &Handle{}
	if _, err := unbound.Threshold(); err != errcode.InvalidHandle {
		t.Fatalf("unbound handle Threshold: got %v", err)
	}
}

func TestHandle_InitGate(t *testing.T) {
	ops := newFakeOps()
	h := newHandle(types.KindPLIC, 0, ops)

	if err := h.Enable(1); err != errcode.NotInitialized {
		t.Fatalf("pre-init Enable: got %v", err)
	}
	if ops.mutations != 0 {
		t.Fatal("pre-init call reached the backend")
	}

	if err := h.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := h.Init(); err != errcode.AlreadyInitialized {
		t.Fatalf("double init: got %v", err)
	}
	if ops.inits != 1 {
		t.Fatalf("backend init calls = %d, want 1", ops.inits)
	}
}

func TestHandle_UnsupportedDoesNotTouchState(t *testing.T) {
	ops := newFakeOps()
	h := initedHandle(t, ops)

	before := ops.mutations
	if _, err := h.Threshold(); err != errcode.Unsupported {
		t.Fatalf("Threshold: got %v", err)
	}
	if err := h.SetThreshold(3); err != errcode.Unsupported {
		t.Fatalf("SetThreshold: got %v", err)
	}
	if err := h.VectorEnable(1, types.Vectored); err != errcode.Unsupported {
		t.Fatalf("VectorEnable: got %v", err)
	}
	if err := h.SetTimerCompare(0, 100); err != errcode.Unsupported {
		t.Fatalf("SetTimerCompare: got %v", err)
	}
	if ops.mutations != before {
		t.Fatal("unsupported operation mutated backend state")
	}
}

func TestHandle_ForwardsVerbatim(t *testing.T) {
	ops := newFakeOps()
	h := initedHandle(t, ops)

	if err := h.SetPriority(5, 3); err != nil {
		t.Fatalf("SetPriority: %v", err)
	}
	if v, err := h.Priority(5); err != nil || v != 3 {
		t.Fatalf("Priority: got %d, %v", v, err)
	}

	ops.failNext = errcode.BackendFailure
	if err := h.Enable(5); err != errcode.BackendFailure {
		t.Fatalf("backend failure not propagated verbatim: %v", err)
	}
}

func TestHandle_DisableIdempotent(t *testing.T) {
	ops := newFakeOps()
	h := initedHandle(t, ops)

	if err := h.Enable(2); err != nil {
		t.Fatal(err)
	}
	if err := h.Disable(2); err != nil {
		t.Fatal(err)
	}
	if err := h.Disable(2); err != nil {
		t.Fatal(err)
	}
	if ops.enabled[2] {
		t.Fatal("id 2 still enabled")
	}
}
