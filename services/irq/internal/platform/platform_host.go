// services/irq/internal/platform/platform_host.go
//go:build !rp2040 && !rp2350

package platform

import (
	"sync"

	"tinygo.org/x/drivers"

	"irqcore-go/backends/clic"
	"irqcore-go/backends/clint"
	"irqcore-go/backends/cpu"
	"irqcore-go/backends/plic"
	"irqcore-go/intr"
	"irqcore-go/services/irq/internal/irqfeed"
	"irqcore-go/services/irq/internal/registry"
	"irqcore-go/types"
)

// Board holds the concrete host-side controllers so selftests can reach
// their hardware-side entry points (Fire, Tick) directly.
type Board struct {
	CPU   *cpu.Controller
	CLINT *clint.Controller
	CLIC  *clic.Controller
	PLIC  *plic.Controller
}

var (
	setupOnce sync.Once
	board     *Board
)

// Setup registers the default simulated controller set into the
// directory, wiring every dispatch into feed. First caller wins; the
// directory and hooks are process-wide and write-once.
func Setup(feed *irqfeed.Feed) *Board {
	setupOnce.Do(func() {
		b := &Board{
			CPU:   cpu.New(0),
			CLINT: clint.New(2, 10_000_000),
			CLIC:  clic.New(64),
			PLIC:  plic.New(32),
		}
		b.CPU.SetNotify(feed.Notify(types.KindCPU, 0))
		b.CLINT.SetNotify(feed.Notify(types.KindCLINT, 0))
		b.CLIC.SetNotify(feed.Notify(types.KindCLIC, 0))
		b.PLIC.SetNotify(feed.Notify(types.KindPLIC, 0))

		intr.RegisterController(types.KindCPU, 0, b.CPU)
		intr.RegisterController(types.KindCLINT, 0, b.CLINT)
		intr.RegisterController(types.KindCLIC, 0, b.CLIC)
		intr.RegisterController(types.KindPLIC, 0, b.PLIC)
		board = b
	})
	return board
}

// ----------------------------- I²C (host) ------------------------------------

// HostI2C implements tinygo drivers.I2C for host-side runs. Reads
// return NextStatus; the last transaction is recorded for assertions.
type HostI2C struct {
	mu         sync.Mutex
	NextStatus byte
	LastTx     struct {
		Addr uint16
		W    []byte
		Rn   int
	}
	txs int
}

func (h *HostI2C) Tx(addr uint16, w, r []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.LastTx.Addr = addr
	h.LastTx.W = append([]byte(nil), w...)
	h.LastTx.Rn = len(r)
	for i := range r {
		r[i] = h.NextStatus
	}
	h.txs++
	return nil
}

// TxCount returns how many transactions the bus has seen.
func (h *HostI2C) TxCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.txs
}

type hostI2CFactory struct {
	buses map[string]drivers.I2C
}

func (f *hostI2CFactory) ByID(id string) (drivers.I2C, bool) {
	b, ok := f.buses[id]
	return b, ok
}

// DefaultI2CFactory creates inert host I²C buses "i2c0" and "i2c1".
func DefaultI2CFactory() registry.I2CBusFactory {
	return &hostI2CFactory{
		buses: map[string]drivers.I2C{
			"i2c0": &HostI2C{},
			"i2c1": &HostI2C{},
		},
	}
}

// I2CFactoryOf exposes a factory over caller-supplied buses, for tests
// that need to script bus behaviour.
func I2CFactoryOf(buses map[string]drivers.I2C) registry.I2CBusFactory {
	return &hostI2CFactory{buses: buses}
}
