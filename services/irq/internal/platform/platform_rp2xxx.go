// services/irq/internal/platform/platform_rp2xxx.go
//go:build rp2040 || rp2350

package platform

import (
	"context"
	"sync"

	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"

	"irqcore-go/backends/clic"
	"irqcore-go/backends/cpu"
	"irqcore-go/backends/plic"
	"irqcore-go/intr"
	"irqcore-go/services/irq/internal/irqfeed"
	"irqcore-go/services/irq/internal/registry"
	"irqcore-go/types"
)

// Board holds the controllers backing the RP2 family. There is no
// core-local interruptor on this part: clients that look one up get a
// directory miss, which is the normal absent-hardware outcome.
type Board struct {
	CPU  *cpu.Controller
	CLIC *clic.Controller
	PLIC *plic.Controller
}

var (
	setupOnce sync.Once
	board     *Board
)

// Setup registers the RP2 controller set into the directory, wiring
// every dispatch into feed. First caller wins.
func Setup(feed *irqfeed.Feed) *Board {
	setupOnce.Do(func() {
		b := &Board{
			CPU:  cpu.New(0),
			CLIC: clic.New(64),
			PLIC: plic.New(32),
		}
		b.CPU.SetNotify(feed.Notify(types.KindCPU, 0))
		b.CLIC.SetNotify(feed.Notify(types.KindCLIC, 0))
		b.PLIC.SetNotify(feed.Notify(types.KindPLIC, 0))

		intr.RegisterController(types.KindCPU, 0, b.CPU)
		intr.RegisterController(types.KindCLIC, 0, b.CLIC)
		intr.RegisterController(types.KindPLIC, 0, b.PLIC)
		board = b
	})
	return board
}

// WireLine routes a GPIO edge into an external line: the pin interrupt
// asserts the line from the ISR, the controller does the rest.
func WireLine(b *Board, line int, pin machine.Pin, change machine.PinChange) error {
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return pin.SetInterrupt(change, func(machine.Pin) {
		_ = b.PLIC.Fire(line)
	})
}

// WireUARTRx routes UART receive activity into an external line. The
// reader drains the port so the line fires once per received chunk.
func WireUARTRx(ctx context.Context, b *Board, line int, u *uartx.UART) {
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := u.RecvSomeContext(ctx, buf)
			if err != nil {
				return
			}
			if n > 0 {
				_ = b.PLIC.Fire(line)
			}
		}
	}()
}

// DefaultUART configures uart0/uart1 with the given baud on board
// defaults; zero fields fall back to uartx defaults.
func DefaultUART(id string, baud uint32, tx, rx machine.Pin) *uartx.UART {
	var hw *uartx.UART
	switch id {
	case "uart0":
		hw = uartx.UART0
	case "uart1":
		hw = uartx.UART1
	default:
		return nil
	}
	_ = hw.Configure(uartx.UARTConfig{
		BaudRate: baud,
		TX:       tx,
		RX:       rx,
	})
	return hw
}

// DefaultI2CFactory configures i2c0 and i2c1 with board-default pins at
// 400 kHz.
func DefaultI2CFactory() registry.I2CBusFactory {
	f := &rp2I2CFactory{buses: make(map[string]drivers.I2C)}

	b0 := machine.I2C0
	_ = b0.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	})
	f.buses["i2c0"] = b0

	b1 := machine.I2C1
	_ = b1.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C1_SDA_PIN,
		SCL:       machine.I2C1_SCL_PIN,
	})
	f.buses["i2c1"] = b1

	return f
}

type rp2I2CFactory struct {
	buses map[string]drivers.I2C
}

func (f *rp2I2CFactory) ByID(id string) (drivers.I2C, bool) {
	b, ok := f.buses[id]
	return b, ok
}
