package meosrt

import (
	"sync"
)

// ErrorState is the native library's process-wide error indicator.
type ErrorState interface {
	Code() int32
	Message() string
	Reset()
}

type installer interface {
	Install() error
}

// ErrorBridge serializes native calls and converts the error state each call
// leaves behind into a Go error. The state is read and reset inside the
// same critical section as the call, so an error raised by one call is never
// observed by another.
type ErrorBridge struct {
	mu    sync.Mutex
	state ErrorState
}

// NewErrorBridge creates a bridge over state.
func NewErrorBridge(state ErrorState) *ErrorBridge {
	return &ErrorBridge{state: state}
}

// Call runs fn, which must perform exactly one native call to symbol, then
// checks and resets the error state. A non-success code becomes a
// *NativeError.
func (b *ErrorBridge) Call(symbol string, fn func()) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn()
	code := b.state.Code()
	if code == NoError {
		b.state.Reset()
		return nil
	}
	err := &NativeError{Symbol: symbol, Code: code, Message: b.state.Message()}
	b.state.Reset()
	log.Debugf("%s", err)
	return err
}

// CallUnchecked runs fn without turning the error state into an error. The
// state is still reset afterwards.
func (b *ErrorBridge) CallUnchecked(symbol string, fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn()
	if code := b.state.Code(); code != NoError {
		log.Debugf("%s: ignoring error state %s", symbol, ErrorCodeName(code))
	}
	b.state.Reset()
}

// Install registers the bridge's error handler with the native library when
// the error state needs one.
func (b *ErrorBridge) Install() error {
	in, ok := b.state.(installer)
	if !ok {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return in.Install()
}
