// services/irq/internal/registry/registry.go
package registry

import (
	"context"
	"fmt"
	"sync"

	"tinygo.org/x/drivers"

	"irqcore-go/types"
)

// I2CBusFactory injects configured I²C instances by id.
type I2CBusFactory interface {
	ByID(id string) (drivers.I2C, bool)
}

// BuildInput is passed to a device builder.
type BuildInput struct {
	Ctx      context.Context
	Buses    I2CBusFactory
	DeviceID string
	Type     string
	Params   any
}

// BuildOutput describes a constructed interrupt-driven device: the
// handler to register on its line, the context object handed to that
// handler on every dispatch, and the retained info document.
type BuildOutput struct {
	Handler types.Handler
	Ctx     any
	Info    map[string]any
}

// Builder creates a device from config and factories.
type Builder interface {
	Build(in BuildInput) (BuildOutput, error)
}

var (
	mu       sync.RWMutex
	builders = map[string]Builder{}
)

// RegisterBuilder installs a builder for a device type string. It
// panics on duplicate registration to catch mistakes at start-up.
func RegisterBuilder(deviceType string, b Builder) {
	mu.Lock()
	defer mu.Unlock()
	if deviceType == "" {
		panic("registry: empty device type for builder")
	}
	if _, exists := builders[deviceType]; exists {
		panic(fmt.Sprintf("registry: builder already registered for type %q", deviceType))
	}
	builders[deviceType] = b
}

// Lookup finds a registered builder by type.
func Lookup(deviceType string) (Builder, bool) {
	mu.RLock()
	defer mu.RUnlock()
	b, ok := builders[deviceType]
	return b, ok
}
