//go:build darwin || linux

package meosrt

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
)

// Library is a shared library opened with dlopen.
type Library struct {
	path   string
	handle uintptr
}

// Dlopen loads the shared library at path.
func Dlopen(path string) (*Library, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("meosrt: cannot load %s: %w", path, err)
	}
	log.Infof("loaded %s", path)
	return &Library{path: path, handle: h}, nil
}

// Bind implements Binder with purego.RegisterLibFunc.
func (l *Library) Bind(fptr any, symbol string) (err error) {
	if _, err := purego.Dlsym(l.handle, symbol); err != nil {
		return &SymbolError{Symbol: symbol, Err: ErrSymbolNotFound}
	}
	defer func() {
		if r := recover(); r != nil {
			err = &SymbolError{Symbol: symbol, Err: fmt.Errorf("%v", r)}
		}
	}()
	purego.RegisterLibFunc(fptr, l.handle, symbol)
	return nil
}

// Close unloads the library.
func (l *Library) Close() error {
	return purego.Dlclose(l.handle)
}

func (l *Library) String() string { return l.path }

// DefaultLibrary is the file name of the MEOS shared library on this
// platform.
func DefaultLibrary() string {
	if runtime.GOOS == "darwin" {
		return "libmeos.dylib"
	}
	return "libmeos.so"
}

func libcPath() string {
	if runtime.GOOS == "darwin" {
		return "/usr/lib/libSystem.B.dylib"
	}
	return "libc.so.6"
}

// NativeErrorState reads the MEOS error number and captures the message
// passed to the error handler installed by Install.
type NativeErrorState struct {
	errno       func() int32
	errnoReset  func() int32
	setHandler  func(handler uintptr)
	installOnce sync.Once
	installErr  error
	handlerCode int32
	handlerMsg  string
}

// NewNativeErrorState binds the error accessors of the MEOS library.
func NewNativeErrorState(lib Binder) (*NativeErrorState, error) {
	s := &NativeErrorState{}
	b := NewBinding(lib)
	b.Bind(&s.errno, "meos_errno")
	b.Bind(&s.errnoReset, "meos_errno_reset")
	b.Bind(&s.setHandler, "meos_initialize_error_handler")
	if err := b.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *NativeErrorState) Code() int32 {
	if code := s.errno(); code != NoError {
		return code
	}
	return s.handlerCode
}

func (s *NativeErrorState) Message() string { return s.handlerMsg }

func (s *NativeErrorState) Reset() {
	s.errnoReset()
	s.handlerCode = NoError
	s.handlerMsg = ""
}

// Install replaces the library's default error handler, which terminates
// the process, with one that records the error for the bridge.
func (s *NativeErrorState) Install() error {
	s.installOnce.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				s.installErr = fmt.Errorf("meosrt: cannot create error callback: %v", r)
			}
		}()
		s.setHandler(purego.NewCallback(s.handle))
	})
	return s.installErr
}

// handle runs on the thread of the failing native call, which holds the
// bridge lock.
func (s *NativeErrorState) handle(level, code, msg uintptr) {
	s.handlerCode = int32(code)
	s.handlerMsg, _ = GoString(msg)
	log.Debugf("native error level %d: %s: %s", int(level), ErrorCodeName(s.handlerCode), s.handlerMsg)
}

// OpenNative loads the MEOS library at path (DefaultLibrary when empty)
// together with libc and returns a runtime bound to them.
func OpenNative(path string) (*Runtime, error) {
	if path == "" {
		path = DefaultLibrary()
	}
	libc, err := Dlopen(libcPath())
	if err != nil {
		return nil, err
	}
	mem, err := NewNativeMemory(libc)
	if err != nil {
		libc.Close()
		return nil, err
	}
	lib, err := Dlopen(path)
	if err != nil {
		libc.Close()
		return nil, err
	}
	state, err := NewNativeErrorState(lib)
	if err != nil {
		lib.Close()
		libc.Close()
		return nil, err
	}
	rt := New(lib, mem, state)
	rt.closers = append(rt.closers, libc.Close, lib.Close)
	return rt, nil
}
