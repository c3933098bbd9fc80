package meos

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"

	"github.com/chazu/meosbind/meosrt"
)

// fakeState stands in for meos_errno and the error handler message.
type fakeState struct {
	code      int32
	msg       string
	installed int
}

func (s *fakeState) Code() int32     { return s.code }
func (s *fakeState) Message() string { return s.msg }
func (s *fakeState) Reset()          { s.code, s.msg = 0, "" }
func (s *fakeState) Install() error  { s.installed++; return nil }

type fakeSpan struct {
	lower, upper       int32
	lowerInc, upperInc bool
}

// String renders the span in canonical integer form.
func (s fakeSpan) String() string {
	l, r := "(", ")"
	if s.lowerInc {
		l = "["
	}
	if s.upperInc {
		r = "]"
	}
	return fmt.Sprintf("%s%d, %d%s", l, s.lower, s.upper, r)
}

type fakeTemporal struct {
	values []int32
	times  []int64
	interp int32
}

// fakeMEOS simulates the subset of libmeos the bindings wrap. Every
// native function runs under the runtime's bridge lock, so its maps need
// no locking of their own.
type fakeMEOS struct {
	t      *testing.T
	mem    *meosrt.HeapMemory
	static *meosrt.HeapMemory // storage the library owns
	state  *fakeState

	spans    map[uintptr]fakeSpan
	sets     map[uintptr][]int32
	texts    map[uintptr]string
	textsets map[uintptr][]string
	periods  map[uintptr][2]int64 // timestamptz extents
	temps    map[uintptr]fakeTemporal
	trees    map[uintptr][]int64
	calls    map[string]int
	interp   map[int32]uintptr // borrowed interpolation names
}

func newFake(t *testing.T) (*fakeMEOS, *Library) {
	t.Helper()
	f := &fakeMEOS{
		t:        t,
		mem:      meosrt.NewHeapMemory(),
		static:   meosrt.NewHeapMemory(),
		state:    &fakeState{},
		spans:    make(map[uintptr]fakeSpan),
		sets:     make(map[uintptr][]int32),
		texts:    make(map[uintptr]string),
		textsets: make(map[uintptr][]string),
		periods:  make(map[uintptr][2]int64),
		temps:    make(map[uintptr]fakeTemporal),
		trees:    make(map[uintptr][]int64),
		calls:    make(map[string]int),
		interp:   make(map[int32]uintptr),
	}
	for code, name := range map[int32]string{0: "None", 1: "Discrete", 2: "Step", 3: "Linear"} {
		p, _, err := meosrt.CString(f.static, name)
		if err != nil {
			t.Fatal(err)
		}
		f.interp[code] = p
	}
	rt := meosrt.New(f.table(), f.mem, f.state)
	lib, err := Open(rt)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return f, lib
}

func (f *fakeMEOS) raise(code ErrorCode, format string, args ...any) {
	f.state.code, f.state.msg = int32(code), fmt.Sprintf(format, args...)
}

func (f *fakeMEOS) alloc(n int) uintptr {
	p, err := f.mem.Alloc(n)
	if err != nil {
		f.t.Fatal(err)
	}
	return p
}

func (f *fakeMEOS) cstring(s string) uintptr {
	p, _, err := meosrt.CString(f.mem, s)
	if err != nil {
		f.t.Fatal(err)
	}
	return p
}

func (f *fakeMEOS) newSpan(s fakeSpan) uintptr {
	p := f.alloc(24)
	f.spans[p] = s
	return p
}

func (f *fakeMEOS) span(p uintptr) fakeSpan {
	s, ok := f.spans[p]
	if !ok {
		f.t.Errorf("unknown span %#x", p)
	}
	return s
}

func (f *fakeMEOS) newTemporal(tp fakeTemporal) uintptr {
	p := f.alloc(16)
	f.temps[p] = tp
	return p
}

func parseSpan(str string) (fakeSpan, bool) {
	var s fakeSpan
	str = strings.TrimSpace(str)
	if len(str) < 5 {
		return s, false
	}
	s.lowerInc = str[0] == '['
	s.upperInc = str[len(str)-1] == ']'
	if _, err := fmt.Sscanf(str[1:len(str)-1], "%d, %d", &s.lower, &s.upper); err != nil {
		return s, false
	}
	return s, true
}

func (f *fakeMEOS) wkb(s fakeSpan) []byte {
	b := make([]byte, 10)
	binary.LittleEndian.PutUint32(b[0:], uint32(s.lower))
	binary.LittleEndian.PutUint32(b[4:], uint32(s.upper))
	if s.lowerInc {
		b[8] = 1
	}
	if s.upperInc {
		b[9] = 1
	}
	return b
}

func (f *fakeMEOS) table() meosrt.FuncTable {
	count := func(name string) { f.calls[name]++ }
	return meosrt.FuncTable{
		"meos_initialize": func() { count("meos_initialize") },
		"meos_finalize": func() {
			count("meos_finalize")
			f.raise(MeosErrInternalError, "finalize left an error behind")
		},
		"intspan_in": func(str uintptr) uintptr {
			count("intspan_in")
			text, err := meosrt.GoString(str)
			if err != nil {
				f.t.Errorf("intspan_in: %v", err)
			}
			s, ok := parseSpan(text)
			if !ok {
				f.raise(MeosErrTextInput, "Could not parse span value: %s", text)
				return 0
			}
			return f.newSpan(s)
		},
		"intspan_out": func(s uintptr) uintptr {
			return f.cstring(f.span(s).String())
		},
		"span_out": func(s uintptr, maxdd int32) uintptr {
			if maxdd < 0 {
				f.raise(MeosErrInvalidArgValue, "The value must be positive: %d", maxdd)
				return 0
			}
			return f.cstring(f.span(s).String())
		},
		"span_as_hexwkb": func(s uintptr, variant uint8, sizeOut *uint64) uintptr {
			text := strings.ToUpper(hex.EncodeToString(f.wkb(f.span(s))))
			*sizeOut = uint64(len(text))
			p := f.cstring(text)
			if variant == 0xFF {
				// The result is already allocated when the variant is rejected.
				f.raise(MeosErrWkbOutput, "Unknown WKB variant: %d", variant)
			}
			return p
		},
		"span_as_wkb": func(s uintptr, variant uint8, sizeOut *uint64) uintptr {
			b := f.wkb(f.span(s))
			p, _, err := meosrt.CBytes(f.mem, b)
			if err != nil {
				f.t.Fatal(err)
			}
			*sizeOut = uint64(len(b))
			return p
		},
		"span_from_wkb": func(wkb uintptr, size uint64) uintptr {
			b, err := meosrt.GoBytes(wkb, size)
			if err != nil || len(b) != 10 {
				f.raise(MeosErrWkbInput, "Invalid WKB of %d bytes", size)
				return 0
			}
			return f.newSpan(fakeSpan{
				lower:    int32(binary.LittleEndian.Uint32(b[0:])),
				upper:    int32(binary.LittleEndian.Uint32(b[4:])),
				lowerInc: b[8] == 1,
				upperInc: b[9] == 1,
			})
		},
		"intset_make": func(values uintptr, n int32) uintptr {
			vals, err := meosrt.GoSlice[int32](values, int(n))
			if err != nil {
				f.t.Errorf("intset_make: %v", err)
			}
			if n == 0 {
				f.raise(MeosErrInvalidArgValue, "The set must have at least one value")
				return 0
			}
			p := f.alloc(8)
			f.sets[p] = vals
			return p
		},
		"intspan_make": func(lower, upper int32, lowerInc, upperInc bool) uintptr {
			count("intspan_make")
			if lower > upper {
				f.raise(MeosErrInvalidArgValue, "Span lower bound must be less than or equal to span upper bound")
				return 0
			}
			return f.newSpan(fakeSpan{lower, upper, lowerInc, upperInc})
		},
		"span_copy": func(s uintptr) uintptr {
			return f.newSpan(f.span(s))
		},
		"intspan_lower": func(s uintptr) int32 {
			count("intspan_lower")
			return f.span(s).lower
		},
		"span_eq": func(s1, s2 uintptr) bool {
			return f.span(s1) == f.span(s2)
		},
		"intset_out": func(set uintptr) uintptr {
			vals := f.sets[set]
			parts := make([]string, len(vals))
			for i, v := range vals {
				parts[i] = fmt.Sprint(v)
			}
			return f.cstring("{" + strings.Join(parts, ", ") + "}")
		},
		"intset_value_n": func(s uintptr, n int32, result *int32) bool {
			vals := f.sets[s]
			if n < 1 || int(n) > len(vals) {
				return false
			}
			*result = vals[n-1]
			return true
		},
		"spanset_num_spans": func(ss uintptr) int32 { return 1 },
		"spanset_span_n": func(ss uintptr, i int32) uintptr {
			return f.newSpan(fakeSpan{lower: i, upper: i + 1, lowerInc: true})
		},
		"cstring2text": func(str uintptr) uintptr {
			text, err := meosrt.GoString(str)
			if err != nil {
				f.t.Errorf("cstring2text: %v", err)
			}
			p := f.cstring(text)
			f.texts[p] = text
			return p
		},
		"textset_make": func(values uintptr, n int32) uintptr {
			ptrs, err := meosrt.GoSlice[uintptr](values, int(n))
			if err != nil {
				f.t.Errorf("textset_make: %v", err)
			}
			if n == 0 {
				f.raise(MeosErrInvalidArgValue, "The set must have at least one value")
				return 0
			}
			vals := make([]string, len(ptrs))
			for i, p := range ptrs {
				text, ok := f.texts[p]
				if !ok {
					f.t.Errorf("textset_make: unknown text %#x", p)
				}
				vals[i] = text
			}
			p := f.alloc(8)
			f.textsets[p] = vals
			return p
		},
		"tint_in": func(str uintptr) uintptr {
			text, _ := meosrt.GoString(str)
			if !strings.Contains(text, "@") {
				f.raise(MeosErrTextInput, "Could not parse temporal value")
				return 0
			}
			return f.newTemporal(fakeTemporal{values: []int32{1, 2}, times: []int64{100, 200}, interp: 2})
		},
		"temporal_as_mfjson": func(temp uintptr, withBbox bool, flags, precision int32, srs uintptr) uintptr {
			crs := "null"
			if srs != 0 {
				s, _ := meosrt.GoString(srs)
				crs = fmt.Sprintf("%q", s)
			}
			return f.cstring(fmt.Sprintf(`{"type":"MovingInteger","bbox":%v,"crs":%s}`, withBbox, crs))
		},
		"temporal_interp": func(temp uintptr) uintptr {
			return f.interp[f.temps[temp].interp]
		},
		"temporal_set_interp": func(temp uintptr, interp int32) uintptr {
			if interp == 3 {
				f.raise(MeosErrInvalidArgValue, "The temporal type cannot have linear interpolation")
				return 0
			}
			tp := f.temps[temp]
			tp.interp = interp
			return f.newTemporal(tp)
		},
		"interptype_from_string": func(str uintptr) int32 {
			text, _ := meosrt.GoString(str)
			switch strings.ToLower(text) {
			case "discrete":
				return 1
			case "step":
				return 2
			case "linear":
				return 3
			case "bogus":
				return 42
			}
			f.raise(MeosErrInvalidArgValue, "Unknown interpolation type: %s", text)
			return 0
		},
		"tint_start_value": func(temp uintptr) int32 {
			return f.temps[temp].values[0]
		},
		"temporal_sequences": func(temp uintptr, n *int32) uintptr {
			tp := f.temps[temp]
			seqs := make([]uintptr, len(tp.values))
			for i := range tp.values {
				seqs[i] = f.newTemporal(fakeTemporal{values: tp.values[i : i+1], times: tp.times[i : i+1], interp: tp.interp})
			}
			p, _, err := meosrt.CArray(f.mem, seqs)
			if err != nil {
				f.t.Fatal(err)
			}
			*n = int32(len(seqs))
			if tp.interp == 1 {
				f.raise(MeosErrInvalidArgValue, "The temporal value must be continuous")
			}
			return p
		},
		"temporal_timestamps": func(temp uintptr, n *int32) uintptr {
			times := f.temps[temp].times
			p, _, err := meosrt.CArray(f.mem, times)
			if err != nil {
				f.t.Fatal(err)
			}
			*n = int32(len(times))
			return p
		},
		"timestamptz_extent_transfn": func(state uintptr, t int64) uintptr {
			count("timestamptz_extent_transfn")
			if state == 0 {
				state = f.alloc(24)
				f.periods[state] = [2]int64{t, t}
			} else {
				pr, ok := f.periods[state]
				if !ok {
					f.t.Errorf("timestamptz_extent_transfn: unknown state %#x", state)
				}
				pr[0], pr[1] = min(pr[0], t), max(pr[1], t)
				f.periods[state] = pr
			}
			if t < 0 {
				f.raise(MeosErrValueOutOfRange, "Timestamp out of range: %d", t)
			}
			return state
		},
		"rtree_create_intspan": func() uintptr {
			p := f.alloc(32)
			f.trees[p] = nil
			return p
		},
		"rtree_free": func(rtree uintptr) {
			count("rtree_free")
			if _, ok := f.trees[rtree]; !ok {
				f.t.Errorf("rtree_free of unknown tree %#x", rtree)
				return
			}
			delete(f.trees, rtree)
			f.mem.Free(rtree)
		},
		"rtree_insert": func(rtree, box uintptr, id int64) {
			f.span(box)
			f.trees[rtree] = append(f.trees[rtree], id)
		},
		"rtree_search": func(rtree, query uintptr, n *int32) uintptr {
			ids := f.trees[rtree]
			hits := make([]int32, len(ids))
			for i, id := range ids {
				hits[i] = int32(id)
			}
			*n = int32(len(hits))
			if len(hits) == 0 {
				return 0
			}
			p, _, err := meosrt.CArray(f.mem, hits)
			if err != nil {
				f.t.Fatal(err)
			}
			return p
		},
	}
}
