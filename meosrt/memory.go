package meosrt

import (
	"fmt"
	"sync"
	"unsafe"
)

// Memory allocates and frees buffers that native code can read and that
// native code may have allocated. Free must accept every pointer the native
// library documents as caller-released with the default release routine.
type Memory interface {
	Alloc(n int) (uintptr, error)
	Free(p uintptr)
}

// HeapMemory serves allocations from the Go heap and keeps them reachable
// until freed. It stands in for the C allocator when the native library is
// simulated in-process, and counts live blocks so leaks and double frees
// show up in tests.
type HeapMemory struct {
	mu     sync.Mutex
	blocks map[uintptr][]byte
	frees  int
	bad    []uintptr
}

// NewHeapMemory returns an empty HeapMemory.
func NewHeapMemory() *HeapMemory {
	return &HeapMemory{blocks: make(map[uintptr][]byte)}
}

func (m *HeapMemory) Alloc(n int) (uintptr, error) {
	if n < 0 {
		return 0, fmt.Errorf("meosrt: negative allocation size %d", n)
	}
	if n == 0 {
		n = 1
	}
	buf := make([]byte, n)
	p := uintptr(unsafe.Pointer(&buf[0]))
	m.mu.Lock()
	m.blocks[p] = buf
	m.mu.Unlock()
	return p, nil
}

func (m *HeapMemory) Free(p uintptr) {
	if p == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blocks[p]; !ok {
		m.bad = append(m.bad, p)
		return
	}
	delete(m.blocks, p)
	m.frees++
}

// Live is the number of blocks allocated and not yet freed.
func (m *HeapMemory) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blocks)
}

// Frees is the number of successful frees.
func (m *HeapMemory) Frees() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frees
}

// BadFrees lists pointers passed to Free that were not live, which covers
// double frees and frees of foreign memory.
func (m *HeapMemory) BadFrees() []uintptr {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uintptr(nil), m.bad...)
}

// Owns reports whether p is a live block of this allocator.
func (m *HeapMemory) Owns(p uintptr) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blocks[p]
	return ok
}

// NativeMemory allocates with the C library's malloc and free, which is
// what the native library releases its own results with.
type NativeMemory struct {
	malloc func(size uintptr) uintptr
	free   func(p uintptr)
}

// NewNativeMemory binds malloc and free from libc.
func NewNativeMemory(libc Binder) (*NativeMemory, error) {
	m := &NativeMemory{}
	b := NewBinding(libc)
	b.Bind(&m.malloc, "malloc")
	b.Bind(&m.free, "free")
	if err := b.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *NativeMemory) Alloc(n int) (uintptr, error) {
	if n < 0 {
		return 0, fmt.Errorf("meosrt: negative allocation size %d", n)
	}
	if n == 0 {
		n = 1
	}
	p := m.malloc(uintptr(n))
	if p == 0 {
		return 0, fmt.Errorf("meosrt: malloc(%d) failed", n)
	}
	return p, nil
}

func (m *NativeMemory) Free(p uintptr) {
	if p != 0 {
		m.free(p)
	}
}
