// intr/directory.go
package intr

import (
	"fmt"
	"sync"

	"irqcore-go/types"
)

// The controller directory maps (kind, instance index) to a Handle.
// Backends register at process setup, before any interrupt activity;
// the mapping is never mutated or torn down afterwards, so lookups are
// race-free by construction. The lock only serialises setup itself.

type ctrlKey struct {
	kind  types.ControllerKind
	index int
}

var (
	dirMu       sync.RWMutex
	controllers = map[ctrlKey]*Handle{}
)

// RegisterController installs a backend under (kind, index) and returns
// its handle. It panics on duplicate registration or a nil backend to
// catch wiring mistakes at start-up.
func RegisterController(kind types.ControllerKind, index int, ops Ops) *Handle {
	dirMu.Lock()
	defer dirMu.Unlock()
	if ops == nil {
		panic(fmt.Sprintf("intr: nil ops for controller %s/%d", kind, index))
	}
	key := ctrlKey{kind: kind, index: index}
	if _, exists := controllers[key]; exists {
		panic(fmt.Sprintf("intr: controller already registered for %s/%d", kind, index))
	}
	h := newHandle(kind, index, ops)
	controllers[key] = h
	return h
}

// Lookup resolves (kind, index) to a handle. A miss is a normal outcome
// (the board simply lacks that controller), so it reports false rather
// than an error; callers branch on it.
func Lookup(kind types.ControllerKind, index int) (*Handle, bool) {
	dirMu.RLock()
	defer dirMu.RUnlock()
	h, ok := controllers[ctrlKey{kind: kind, index: index}]
	return h, ok
}

// Registered lists all registered controller instances.
func Registered() []types.ControllerRef {
	dirMu.RLock()
	defer dirMu.RUnlock()
	out := make([]types.ControllerRef, 0, len(controllers))
	for k := range controllers {
		out = append(out, types.ControllerRef{Kind: k.kind, Index: k.index})
	}
	return out
}
