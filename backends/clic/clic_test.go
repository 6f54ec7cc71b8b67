// backends/clic/clic_test.go
package clic

import (
	"testing"

	"irqcore-go/errcode"
	"irqcore-go/types"
)

func newInited(t *testing.T, ids int) *Controller {
	t.Helper()
	c := New(ids)
	if err := c.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	return c
}

func TestVectorModeRoundTrip(t *testing.T) {
	c := newInited(t, 16)

	if _, ok := c.VectorMode(4); ok {
		t.Fatal("fresh id already vectored")
	}

	if err := c.VectorEnable(4, types.Vectored); err != nil {
		t.Fatal(err)
	}
	if m, ok := c.VectorMode(4); !ok || m != types.Vectored {
		t.Fatalf("mode = %v, %v; want Vectored", m, ok)
	}

	// Any mode moves from any state.
	if err := c.VectorEnable(4, types.SelectiveVectored); err != nil {
		t.Fatal(err)
	}
	if m, _ := c.VectorMode(4); m != types.SelectiveVectored {
		t.Fatalf("mode = %v; want SelectiveVectored", m)
	}

	if err := c.VectorDisable(4); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.VectorMode(4); ok {
		t.Fatal("disable did not return id to the initial vector state")
	}
}

func TestVectorOrthogonalToEnable(t *testing.T) {
	c := newInited(t, 16)

	_ = c.VectorEnable(2, types.HardwareVectored)
	_ = c.Enable(2)
	_ = c.Disable(2)

	// Disabling the interrupt leaves the vector mode alone.
	if m, ok := c.VectorMode(2); !ok || m != types.HardwareVectored {
		t.Fatalf("mode after disable = %v, %v", m, ok)
	}
}

func TestThresholdMasking(t *testing.T) {
	c := newInited(t, 16)

	fired := 0
	_ = c.Register(6, func(int, any) { fired++ }, nil)
	_ = c.SetPriority(6, 10)
	_ = c.Enable(6)

	_ = c.SetThreshold(10) // at-or-below masks
	_ = c.Fire(6)
	if fired != 0 || !c.Pending(6) {
		t.Fatalf("masked fire: fired=%d pending=%v", fired, c.Pending(6))
	}

	_ = c.SetThreshold(9)
	if fired != 1 {
		t.Fatalf("unmask did not deliver, fired=%d", fired)
	}
}

func TestZeroThresholdMasksNothing(t *testing.T) {
	c := newInited(t, 16)

	fired := 0
	_ = c.Register(1, func(int, any) { fired++ }, nil)
	_ = c.Enable(1)

	// Default level, default threshold: still deliverable.
	_ = c.Fire(1)
	if fired != 1 {
		t.Fatalf("default-level fire not delivered, fired=%d", fired)
	}
}

func TestPriorityClamps(t *testing.T) {
	c := newInited(t, 16)

	if err := c.SetPriority(3, MaxPriority+100); err != nil {
		t.Fatal(err)
	}
	if v, _ := c.Priority(3); v != MaxPriority {
		t.Fatalf("priority = %d, want clamp to %d", v, MaxPriority)
	}

	if err := c.SetThreshold(MaxPriority + 100); err != nil {
		t.Fatal(err)
	}
	if v, _ := c.Threshold(); v != MaxPriority {
		t.Fatalf("threshold = %d, want clamp to %d", v, MaxPriority)
	}
}

func TestRangeChecks(t *testing.T) {
	c := newInited(t, 16)

	if err := c.Enable(16); err != errcode.InvalidArgument {
		t.Fatalf("out-of-range enable: got %v", err)
	}
	if err := c.VectorEnable(-1, types.Direct); err != errcode.InvalidArgument {
		t.Fatalf("negative id: got %v", err)
	}
	if err := c.SetTimerCompare(0, 1); err != errcode.Unsupported {
		t.Fatalf("SetTimerCompare: got %v", err)
	}
}
