package types

// ------------------------
// Controller kinds
// ------------------------

// ControllerKind identifies which family of interrupt hardware a handle
// targets. The set is closed; a given board exposes a subset of it.
type ControllerKind string

const (
	// KindCPU is the core-local (per-hart) controller driven by the
	// exception cause codes.
	KindCPU ControllerKind = "cpu"
	// KindCLINT is the core-local interruptor: software and timer
	// interrupts plus the per-hart timer compare registers.
	KindCLINT ControllerKind = "clint"
	// KindCLIC is the compact vectored local interrupt controller.
	KindCLIC ControllerKind = "clic"
	// KindPLIC is the platform-level external interrupt controller.
	KindPLIC ControllerKind = "plic"
)

// ------------------------
// Vector modes
// ------------------------

// VectorMode selects the dispatch style used when an interrupt fires.
// Orthogonal to ControllerKind; not every kind supports every mode.
type VectorMode uint8

const (
	Direct VectorMode = iota
	Vectored
	SelectiveVectored
	HardwareVectored
)

func (m VectorMode) String() string {
	switch m {
	case Direct:
		return "direct"
	case Vectored:
		return "vectored"
	case SelectiveVectored:
		return "selective"
	case HardwareVectored:
		return "hardware"
	}
	return "unknown"
}

// ParseVectorMode maps the config-facing string form back to a mode.
func ParseVectorMode(s string) (VectorMode, bool) {
	switch s {
	case "direct":
		return Direct, true
	case "vectored":
		return Vectored, true
	case "selective":
		return SelectiveVectored, true
	case "hardware":
		return HardwareVectored, true
	}
	return Direct, false
}

// ------------------------
// Handlers
// ------------------------

// Handler is the callback invoked when a registered interrupt fires.
// It runs on the hardware dispatch context: it may be re-entered if the
// same id re-fires before a prior invocation returns, so ctx must be
// treated as potentially accessed concurrently with itself.
type Handler func(id int, ctx any)

// ------------------------
// Command requests
// ------------------------

// Command codes for the generic command-request escape hatch. The data
// argument and result shape are backend-defined per code.
const (
	// CmdTimerCompareGet queries a hart's timer compare value.
	// data: HartID; result: uint64.
	CmdTimerCompareGet = 1
	// CmdSoftwareSet raises the software interrupt for a hart.
	// data: HartID.
	CmdSoftwareSet = 2
	// CmdSoftwareClear clears the software interrupt for a hart.
	// data: HartID.
	CmdSoftwareClear = 3
	// CmdPendingGet queries whether an id is pending. data: int (id);
	// result: bool.
	CmdPendingGet = 4
	// CmdDispatchCount queries how many interrupts the backend has
	// dispatched since init. result: uint64.
	CmdDispatchCount = 5
	// CmdFire injects an interrupt event as if the hardware asserted
	// it, where the backend supports software triggering. data: int (id).
	CmdFire = 6
)

// HartID names a hardware thread for cross-hart operations. It is a
// distinct integer space from interrupt ids and must not be conflated
// with them.
type HartID int

// ------------------------
// Link state (retained per controller)
// ------------------------

type Link string

const (
	LinkUp       Link = "up"
	LinkDown     Link = "down"
	LinkDegraded Link = "degraded"
)

// ControllerState is published retained on irq/controller/<kind>/<idx>/state.
type ControllerState struct {
	Link  Link   `json:"link"`
	TS    int64  `json:"ts_ms"`
	Error string `json:"error,omitempty"` // machine-readable short code
}

// ControllerInfo is published retained on irq/controller/<kind>/<idx>/info.
type ControllerInfo struct {
	Kind  ControllerKind `json:"kind"`
	Index int            `json:"index"`
	// Ops lists the operation names this backend supports, for clients
	// that probe capabilities over the bus instead of by trial call.
	Ops []string `json:"ops,omitempty"`
}

// IRQEvent is published (non-retained) on irq/controller/<kind>/<idx>/event
// for every dispatched interrupt.
type IRQEvent struct {
	ID   int   `json:"id"`
	TsMs int64 `json:"ts_ms"`
}

// ------------------------
// Control payloads (irq/controller/<kind>/<idx>/control/<verb>)
// ------------------------

type LineControl struct {
	ID int `json:"id"`
}

type PriorityControl struct {
	ID    int    `json:"id"`
	Value uint32 `json:"value"`
}

type ThresholdControl struct {
	Value uint32 `json:"value"`
}

type VectorControl struct {
	ID   int    `json:"id"`
	Mode string `json:"mode,omitempty"` // parsed via ParseVectorMode
}

type TimerCompareControl struct {
	Hart int    `json:"hart"`
	Time uint64 `json:"time"`
}

type CommandControl struct {
	Cmd  int `json:"cmd"`
	Data any `json:"data,omitempty"`
}

// ------------------------
// Generic replies
// ------------------------

type OKReply struct {
	OK bool `json:"ok"`
}

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// ValueReply answers the get-style control verbs.
type ValueReply struct {
	OK    bool `json:"ok"`
	Value any  `json:"value"`
}
