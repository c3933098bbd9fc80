package meosrt

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
	"unsafe"
)

// Integer is the set of integer types that cross the boundary by value.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Scalar is the set of element types that arrays are copied as.
type Scalar interface {
	Integer | ~float32 | ~float64 | ~bool
}

// maxCString bounds the scan for a terminating NUL.
const maxCString = 1 << 30

func nop() {}

// at reinterprets a native address as an unsafe.Pointer.
func at(p uintptr) unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Pointer(&p))
}

// Narrow converts a Go int to a native integer type, failing instead of
// truncating when the value does not fit.
func Narrow[T Integer](v int) (T, error) {
	t := T(v)
	if int(t) != v || (v < 0) != (t < 0) {
		var zero T
		return zero, conversionErr("value %d out of range for %T", v, zero)
	}
	return t, nil
}

// Length converts a native element count to a Go length.
func Length[T Integer](n T) (int, error) {
	if n < 0 {
		return 0, conversionErr("negative length %d", n)
	}
	if uint64(n) > math.MaxInt {
		return 0, conversionErr("length %d too large", n)
	}
	return int(n), nil
}

// CString copies s into a NUL-terminated native buffer. The returned func
// releases the buffer and must be called once the native call returns.
func CString(mem Memory, s string) (uintptr, func(), error) {
	if strings.IndexByte(s, 0) >= 0 {
		return 0, nop, conversionErr("string contains a NUL byte")
	}
	p, err := mem.Alloc(len(s) + 1)
	if err != nil {
		return 0, nop, err
	}
	buf := unsafe.Slice((*byte)(at(p)), len(s)+1)
	copy(buf, s)
	buf[len(s)] = 0
	return p, func() { mem.Free(p) }, nil
}

// CStringOpt is CString for nullable parameters: a nil s passes NULL.
func CStringOpt(mem Memory, s *string) (uintptr, func(), error) {
	if s == nil {
		return 0, nop, nil
	}
	return CString(mem, *s)
}

// GoString copies a NUL-terminated native string. NULL yields "".
func GoString(p uintptr) (string, error) {
	if p == 0 {
		return "", nil
	}
	base := at(p)
	n := 0
	for *(*byte)(unsafe.Add(base, n)) != 0 {
		n++
		if n >= maxCString {
			return "", conversionErr("unterminated string")
		}
	}
	s := string(unsafe.Slice((*byte)(base), n))
	if !utf8.ValidString(s) {
		return "", conversionErr("string is not valid UTF-8")
	}
	return s, nil
}

// TakeString copies a native string the caller owns and releases it.
func TakeString(free func(uintptr), p uintptr) (string, error) {
	s, err := GoString(p)
	if p != 0 {
		free(p)
	}
	return s, err
}

// CBytes copies b into a native buffer released by the returned func.
func CBytes(mem Memory, b []byte) (uintptr, func(), error) {
	p, err := mem.Alloc(len(b))
	if err != nil {
		return 0, nop, err
	}
	copy(unsafe.Slice((*byte)(at(p)), len(b)), b)
	return p, func() { mem.Free(p) }, nil
}

// GoBytes copies n bytes of native memory.
func GoBytes[N Integer](p uintptr, n N) ([]byte, error) {
	size, err := Length(n)
	if err != nil {
		return nil, err
	}
	return GoSlice[byte](p, size)
}

// TakeBytes copies a native buffer the caller owns and releases it.
func TakeBytes[N Integer](free func(uintptr), p uintptr, n N) ([]byte, error) {
	b, err := GoBytes(p, n)
	if p != 0 {
		free(p)
	}
	return b, err
}

// CArray copies vals into a contiguous native array released by the
// returned func. An empty slice passes NULL.
func CArray[T Scalar](mem Memory, vals []T) (uintptr, func(), error) {
	if len(vals) == 0 {
		return 0, nop, nil
	}
	p, err := mem.Alloc(len(vals) * int(unsafe.Sizeof(vals[0])))
	if err != nil {
		return 0, nop, err
	}
	copy(unsafe.Slice((*T)(at(p)), len(vals)), vals)
	return p, func() { mem.Free(p) }, nil
}

// GoSlice copies n elements of a native array.
func GoSlice[T Scalar](p uintptr, n int) ([]T, error) {
	switch {
	case n < 0:
		return nil, conversionErr("negative length %d", n)
	case n == 0:
		return []T{}, nil
	case p == 0:
		return nil, conversionErr("NULL array with %d elements", n)
	}
	out := make([]T, n)
	copy(out, unsafe.Slice((*T)(at(p)), n))
	return out, nil
}

// TakeSlice copies a native array of n elements the caller owns and
// releases it.
func TakeSlice[T Scalar, N Integer](free func(uintptr), p uintptr, n N) ([]T, error) {
	if p != 0 {
		defer free(p)
	}
	size, err := Length(n)
	if err != nil {
		return nil, err
	}
	return GoSlice[T](p, size)
}

// CPointers builds a native array of handle addresses. Every element must
// be live; the handles keep their ownership.
func CPointers(mem Memory, hs []Pointer) (uintptr, func(), error) {
	addrs := make([]uintptr, len(hs))
	for i, h := range hs {
		p, err := Deref(h)
		if err != nil {
			return 0, nop, fmt.Errorf("element %d: %w", i, err)
		}
		addrs[i] = p
	}
	return CArray(mem, addrs)
}

// TakeOwned converts a native array of n owned handles. The array itself is
// released with free; each element is released with release when the
// caller is done with it.
func TakeOwned[N Integer](free func(uintptr), p uintptr, n N, typ string, release func(uintptr)) ([]*Owned, error) {
	addrs, err := TakeSlice[uintptr](free, p, n)
	if err != nil {
		return nil, err
	}
	out := make([]*Owned, len(addrs))
	for i, a := range addrs {
		out[i] = Own(a, typ, release)
	}
	return out, nil
}

// TakeRefs converts a native array of n borrowed handles and releases
// the array.
func TakeRefs[N Integer](free func(uintptr), p uintptr, n N, typ string) ([]Ref, error) {
	addrs, err := TakeSlice[uintptr](free, p, n)
	if err != nil {
		return nil, err
	}
	out := make([]Ref, len(addrs))
	for i, a := range addrs {
		out[i] = Borrow(a, typ)
	}
	return out, nil
}

// Discard releases an owned native result that will not be converted.
func Discard(release func(uintptr), p uintptr) {
	if p != 0 {
		release(p)
	}
}

// DiscardOwned releases a native array of n owned handles, elements first.
func DiscardOwned[N Integer](free func(uintptr), p uintptr, n N, release func(uintptr)) {
	if p == 0 {
		return
	}
	addrs, err := TakeSlice[uintptr](free, p, n)
	if err != nil {
		log.Warningf("discarding handle array: %v", err)
		return
	}
	for _, a := range addrs {
		Discard(release, a)
	}
}

// Arg attributes a conversion failure to a parameter of a native call.
func Arg(symbol, param string, err error) error {
	var ce *ConversionError
	if errors.As(err, &ce) {
		c := *ce
		c.Symbol, c.Param = symbol, param
		return &c
	}
	return fmt.Errorf("%s: %s: %w", symbol, param, err)
}

// EnumName renders an enum value by its native constant name, falling back
// to "<type>(<value>)" for values the table does not list.
func EnumName[T ~int32](names map[T]string, v T, typ string) string {
	if name, ok := names[v]; ok {
		return name
	}
	return fmt.Sprintf("%s(%d)", typ, int32(v))
}
