// Package meosrt is the runtime the generated MEOS bindings call into. It
// owns the boundary concerns: symbol binding, memory, value conversion,
// handle ownership and the native error state.
package meosrt

import (
	"errors"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("meosbind.meosrt")

// DefaultRelease is the symbol of the release routine used for owned values
// that have no type-specific one.
const DefaultRelease = "free"

// Runtime bundles what generated wrappers need to reach the native library.
type Runtime struct {
	Binder Binder
	Memory Memory
	Bridge *ErrorBridge

	closers []func() error
}

// New assembles a runtime from its parts.
func New(b Binder, mem Memory, state ErrorState) *Runtime {
	return &Runtime{Binder: b, Memory: mem, Bridge: NewErrorBridge(state)}
}

// Free releases p with the default release routine.
func (rt *Runtime) Free(p uintptr) {
	rt.Bridge.CallUnchecked(DefaultRelease, func() { rt.Memory.Free(p) })
}

// Releaser adapts a type-specific native release function.
func (rt *Runtime) Releaser(symbol string, fn func(uintptr)) func(uintptr) {
	return func(p uintptr) {
		rt.Bridge.CallUnchecked(symbol, func() { fn(p) })
	}
}

// InstallErrorHandler routes native errors to the bridge. It must run before
// the first native call that can fail.
func (rt *Runtime) InstallErrorHandler() error {
	return rt.Bridge.Install()
}

// Close unloads the libraries opened for this runtime.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i]())
	}
	rt.closers = nil
	return errors.Join(errs...)
}
