// services/irq/internal/devices/i2cack/adaptor.go

// Package i2cack provides the "i2c_ack" device type: a peripheral that
// raises an external interrupt line and expects its status register to
// be read over I²C to acknowledge it. The read both captures the cause
// bits and drops the device's interrupt output.
package i2cack

import (
	"sync"

	"tinygo.org/x/drivers"

	"irqcore-go/errcode"
	"irqcore-go/services/irq/internal/registry"
	"irqcore-go/services/irq/internal/util"
)

// Params is the device config shape.
type Params struct {
	Bus  string `json:"bus"`  // e.g. "i2c0"
	Addr uint16 `json:"addr"` // 7-bit device address
	Reg  uint8  `json:"reg"`  // status/ack register
}

// Adaptor owns the bus transaction for one device. Its HandleIRQ method
// is the registered interrupt handler; it may be re-entered if the line
// re-fires, hence the lock around the transaction and counters.
type Adaptor struct {
	id   string
	bus  drivers.I2C
	addr uint16
	reg  uint8

	mu     sync.Mutex
	acks   uint64
	faults uint64
	status byte
}

func (a *Adaptor) ID() string { return a.id }

// HandleIRQ acknowledges one interrupt: write the register index, read
// one status byte back in the same transaction.
func (a *Adaptor) HandleIRQ(id int, _ any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var buf [1]byte
	if err := a.bus.Tx(a.addr, []byte{a.reg}, buf[:]); err != nil {
		a.faults++
		return
	}
	a.status = buf[0]
	a.acks++
}

// LastStatus returns the most recent status byte and the ack/fault
// counters.
func (a *Adaptor) LastStatus() (status byte, acks, faults uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status, a.acks, a.faults
}

type builder struct{}

func (builder) Build(in registry.BuildInput) (registry.BuildOutput, error) {
	var p Params
	if err := util.DecodeJSON(in.Params, &p); err != nil {
		return registry.BuildOutput{}, errcode.InvalidPayload
	}
	if p.Bus == "" || p.Addr == 0 {
		return registry.BuildOutput{}, errcode.InvalidPayload
	}
	bus, ok := in.Buses.ByID(p.Bus)
	if !ok {
		return registry.BuildOutput{}, &errcode.E{C: errcode.InvalidPayload, Msg: "unknown bus " + p.Bus}
	}
	a := &Adaptor{id: in.DeviceID, bus: bus, addr: p.Addr, reg: p.Reg}
	return registry.BuildOutput{
		Handler: a.HandleIRQ,
		Ctx:     a,
		Info: map[string]any{
			"driver": "i2c_ack",
			"bus":    p.Bus,
			"addr":   p.Addr,
			"reg":    p.Reg,
		},
	}, nil
}

func init() {
	registry.RegisterBuilder("i2c_ack", builder{})
}
