// services/irq/irq.go
package irq

import (
	"context"

	"irqcore-go/bus"
	"irqcore-go/services/irq/internal/irqfeed"
	"irqcore-go/services/irq/internal/platform"
	"irqcore-go/services/irq/internal/registry"

	// Built-in device builders register themselves in init.
	_ "irqcore-go/services/irq/internal/devices/i2cack"
)

// Builder surface, re-exported so device packages outside this service
// can register their own types.
type (
	I2CBusFactory = registry.I2CBusFactory
	BuildInput    = registry.BuildInput
	BuildOutput   = registry.BuildOutput
	Builder       = registry.Builder
)

// RegisterBuilder installs a builder for a device type string. It
// panics on duplicate registration to catch mistakes at start-up.
func RegisterBuilder(deviceType string, b Builder) {
	registry.RegisterBuilder(deviceType, b)
}

// Run brings up the board's interrupt controllers, registers them in
// the directory and runs the service loop until ctx is cancelled.
// The platform build decides which controllers exist; a controller the
// board lacks simply never appears in the directory.
func Run(ctx context.Context, conn *bus.Connection) {
	feed := irqfeed.New(64)
	platform.Setup(feed)
	New(conn, platform.DefaultI2CFactory(), feed).Run(ctx)
}
