// backends/cpu/cpu_test.go
package cpu

import (
	"testing"

	"irqcore-go/errcode"
	"irqcore-go/types"
)

func newInited(t *testing.T) *Controller {
	t.Helper()
	c := New(0)
	if err := c.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	return c
}

func TestFireRespectsEnable(t *testing.T) {
	c := newInited(t)

	fired := 0
	_ = c.Register(11, func(id int, _ any) { fired++ }, nil)

	_ = c.Fire(11)
	if fired != 0 {
		t.Fatal("disabled cause dispatched")
	}

	_ = c.Enable(11)
	_ = c.Fire(11)
	_ = c.Fire(11)
	if fired != 2 {
		t.Fatalf("fired = %d, want 2", fired)
	}

	_ = c.Disable(11)
	_ = c.Fire(11)
	if fired != 2 {
		t.Fatal("disabled cause dispatched after disable")
	}
	if got := c.DispatchCount(); got != 2 {
		t.Fatalf("dispatch count = %d, want 2", got)
	}
}

func TestTrapEntryModesOnly(t *testing.T) {
	c := newInited(t)

	if err := c.VectorEnable(3, types.Vectored); err != nil {
		t.Fatal(err)
	}
	if m, ok := c.VectorMode(3); !ok || m != types.Vectored {
		t.Fatalf("mode = %v, %v", m, ok)
	}

	if err := c.VectorEnable(3, types.SelectiveVectored); err != errcode.InvalidArgument {
		t.Fatalf("selective on cpu: got %v", err)
	}
	if err := c.VectorEnable(3, types.HardwareVectored); err != errcode.InvalidArgument {
		t.Fatalf("hardware on cpu: got %v", err)
	}

	// A rejected mode change leaves the previous mode in place.
	if m, ok := c.VectorMode(3); !ok || m != types.Vectored {
		t.Fatalf("mode after rejected change = %v, %v", m, ok)
	}

	if err := c.VectorDisable(3); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.VectorMode(3); ok {
		t.Fatal("vector state not back to initial")
	}
}

func TestNoPriorityOrTimer(t *testing.T) {
	c := newInited(t)

	if _, err := c.Priority(1); err != errcode.Unsupported {
		t.Fatalf("Priority: got %v", err)
	}
	if err := c.SetThreshold(1); err != errcode.Unsupported {
		t.Fatalf("SetThreshold: got %v", err)
	}
	if err := c.SetTimerCompare(0, 1); err != errcode.Unsupported {
		t.Fatalf("SetTimerCompare: got %v", err)
	}
}

func TestCauseRange(t *testing.T) {
	c := newInited(t)

	if err := c.Enable(MaxCause + 1); err != errcode.InvalidArgument {
		t.Fatalf("cause %d: got %v", MaxCause+1, err)
	}
	if err := c.Register(-1, func(int, any) {}, nil); err != errcode.InvalidArgument {
		t.Fatalf("cause -1: got %v", err)
	}
}
