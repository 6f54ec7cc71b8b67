package types

// ------------------------
// IRQ service configuration
// ------------------------

// IRQConfig is supplied on the "config/irq" bus topic.
type IRQConfig struct {
	Controllers []ControllerSpec `json:"controllers"`
	Devices     []DeviceSpec     `json:"devices,omitempty"`
}

// ControllerSpec declares one controller instance to bring up, with the
// line programming to apply after init.
type ControllerSpec struct {
	Kind      ControllerKind `json:"kind"`
	Index     int            `json:"index"`
	Threshold *uint32        `json:"threshold,omitempty"` // nil = leave default
	Lines     []LineSpec     `json:"lines,omitempty"`
}

// LineSpec programs one interrupt id on its controller.
type LineSpec struct {
	ID       int     `json:"id"`
	Priority *uint32 `json:"priority,omitempty"` // nil = backend default
	Vector   string  `json:"vector,omitempty"`   // "", "direct", "vectored", "selective", "hardware"
	Enable   bool    `json:"enable"`
}

// ControllerRef names a controller instance from a device spec.
type ControllerRef struct {
	Kind  ControllerKind `json:"kind"`
	Index int            `json:"index"`
}

// DeviceSpec describes one interrupt-driven device to be built by a
// registered builder and attached to a line.
type DeviceSpec struct {
	ID         string        `json:"id"`   // logical device id, e.g. "rdy0"
	Type       string        `json:"type"` // builder key, e.g. "i2c_ack"
	Controller ControllerRef `json:"controller"`
	Line       int           `json:"line"`
	Params     any           `json:"params,omitempty"`
}
