package meosrt

import (
	"fmt"
	"sync/atomic"
)

// Pointer is anything that can be passed where the native side expects a
// pointer to an opaque value.
type Pointer interface {
	Ptr() uintptr
}

// Owned is a handle to a native value the caller must release. Release is
// explicit: nothing frees an Owned behind the caller's back.
type Owned struct {
	ptr     uintptr
	typ     string
	release func(uintptr)
	done    atomic.Bool
}

// Own wraps a pointer the caller now owns. A NULL pointer yields nil.
func Own(p uintptr, typ string, release func(uintptr)) *Owned {
	if p == 0 {
		return nil
	}
	return &Owned{ptr: p, typ: typ, release: release}
}

// Ptr returns the native address, or 0 once the handle was released or
// detached.
func (h *Owned) Ptr() uintptr {
	if h == nil || h.done.Load() {
		return 0
	}
	return h.ptr
}

// Type is the native type name the handle points to.
func (h *Owned) Type() string {
	if h == nil {
		return ""
	}
	return h.typ
}

// Release frees the native value exactly once. It reports whether this call
// performed the release; releasing a released handle is a no-op.
func (h *Owned) Release() bool {
	if h == nil || !h.done.CompareAndSwap(false, true) {
		return false
	}
	h.release(h.ptr)
	return true
}

// Detach gives up ownership without releasing, returning the address the
// handle held. Used when a native call takes ownership of the value.
func (h *Owned) Detach() uintptr {
	if h == nil || !h.done.CompareAndSwap(false, true) {
		return 0
	}
	return h.ptr
}

// Released reports whether the handle was released or detached.
func (h *Owned) Released() bool {
	return h == nil || h.done.Load()
}

func (h *Owned) String() string {
	if h.Released() {
		return fmt.Sprintf("%s(released)", h.Type())
	}
	return fmt.Sprintf("%s(%#x)", h.typ, h.ptr)
}

// Ref is a borrowed pointer into memory the native side keeps owning.
type Ref struct {
	ptr uintptr
	typ string
}

// Borrow wraps a borrowed native pointer.
func Borrow(p uintptr, typ string) Ref {
	return Ref{ptr: p, typ: typ}
}

func (r Ref) Ptr() uintptr   { return r.ptr }
func (r Ref) Type() string   { return r.typ }
func (r Ref) IsNil() bool    { return r.ptr == 0 }
func (r Ref) String() string { return fmt.Sprintf("%s(%#x, borrowed)", r.typ, r.ptr) }

// Address is a raw native address used as an untyped pointer argument.
type Address uintptr

func (a Address) Ptr() uintptr { return uintptr(a) }

// Addr returns the address behind h, treating nil and released handles
// as NULL.
func Addr(h Pointer) uintptr {
	if h == nil {
		return 0
	}
	return h.Ptr()
}

// Deref returns the address behind a handle that must not be NULL.
func Deref(h Pointer) (uintptr, error) {
	if p := Addr(h); p != 0 {
		return p, nil
	}
	if o, ok := h.(*Owned); ok && o != nil {
		return 0, &ConversionError{Reason: "handle already released", Err: ErrReleased}
	}
	return 0, conversionErr("NULL handle")
}

// Take transfers ownership of h to a native call. The handle is detached
// and must not be used afterwards.
func Take(h *Owned) (uintptr, error) {
	if h == nil {
		return 0, conversionErr("NULL handle")
	}
	p := h.Detach()
	if p == 0 {
		return 0, &ConversionError{Reason: "handle already released", Err: ErrReleased}
	}
	return p, nil
}

// TakeOpt is Take for nullable parameters: a nil handle passes NULL.
func TakeOpt(h *Owned) (uintptr, error) {
	if h == nil {
		return 0, nil
	}
	return Take(h)
}
