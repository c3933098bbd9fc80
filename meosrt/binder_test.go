package meosrt

import (
	"errors"
	"strings"
	"testing"
)

func TestFuncTable_Bind(t *testing.T) {
	table := FuncTable{
		"intspan_lower": func(s uintptr) int32 { return int32(s) + 1 },
	}
	var fn func(uintptr) int32
	if err := table.Bind(&fn, "intspan_lower"); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if fn(41) != 42 {
		t.Error("bound function not called")
	}
}

func TestFuncTable_Errors(t *testing.T) {
	table := FuncTable{
		"span_eq": func(a, b uintptr) bool { return a == b },
		"nilimpl": nil,
	}

	var wrong func(uintptr) bool
	err := table.Bind(&wrong, "span_eq")
	if err == nil || !strings.Contains(err.Error(), "signature mismatch") {
		t.Errorf("mismatch err = %v", err)
	}

	var fn func()
	if err := table.Bind(&fn, "missing"); !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("missing err = %v", err)
	}
	if err := table.Bind(&fn, "nilimpl"); err == nil {
		t.Error("nil implementation bound")
	}
	if err := table.Bind(fn, "span_eq"); err == nil {
		t.Error("non-pointer target bound")
	}
}

func TestBinding_CollectsAll(t *testing.T) {
	table := FuncTable{"meos_errno": func() int32 { return 0 }}
	var a func() int32
	var b, c func()
	bind := NewBinding(table)
	bind.Bind(&a, "meos_errno")
	bind.Bind(&b, "meos_initialize")
	bind.Bind(&c, "meos_finalize")

	err := bind.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, sym := range []string{"meos_initialize", "meos_finalize"} {
		if !strings.Contains(err.Error(), sym) {
			t.Errorf("error %q does not mention %s", err, sym)
		}
	}
	if a == nil {
		t.Error("available symbol not bound")
	}
}

func TestNativeMemory_BindsLibc(t *testing.T) {
	heap := NewHeapMemory()
	libc := FuncTable{
		"malloc": func(n uintptr) uintptr {
			p, _ := heap.Alloc(int(n))
			return p
		},
		"free": func(p uintptr) { heap.Free(p) },
	}
	mem, err := NewNativeMemory(libc)
	if err != nil {
		t.Fatal(err)
	}
	p, err := mem.Alloc(16)
	if err != nil || p == 0 {
		t.Fatalf("Alloc = %#x, %v", p, err)
	}
	mem.Free(p)
	mem.Free(0)
	if heap.Live() != 0 || len(heap.BadFrees()) != 0 {
		t.Errorf("live=%d bad=%v", heap.Live(), heap.BadFrees())
	}

	if _, err := NewNativeMemory(FuncTable{}); err == nil {
		t.Error("expected error binding empty libc")
	}
}

func TestHeapMemory_BadFrees(t *testing.T) {
	mem := NewHeapMemory()
	p, _ := mem.Alloc(0)
	if !mem.Owns(p) {
		t.Fatal("zero-size allocation not tracked")
	}
	mem.Free(p)
	mem.Free(p)
	if bad := mem.BadFrees(); len(bad) != 1 || bad[0] != p {
		t.Errorf("BadFrees = %#x", bad)
	}
	if _, err := mem.Alloc(-1); err == nil {
		t.Error("negative allocation succeeded")
	}
}
