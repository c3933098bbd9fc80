package cdecl

import (
	"reflect"
	"testing"
)

const snapshotSrc = `
typedef struct { int a; } Span;
typedef enum { INTERP_NONE = 0, LINEAR = 3 } interpType;
extern Span *intspan_make(int lower, int upper, bool lower_inc, bool upper_inc);
extern char *span_out(const Span *s, int maxdd);
extern void meos_finalize(void);
extern void meos_error(int errlevel, int errcode, const char *format, ...);
`

func TestSnapshot_RoundTrip(t *testing.T) {
	s := Parse(snapshotSrc)
	data, err := MarshalSurface(s)
	if err != nil {
		t.Fatalf("MarshalSurface: %v", err)
	}
	got, err := UnmarshalSurface(data)
	if err != nil {
		t.Fatalf("UnmarshalSurface: %v", err)
	}
	if !reflect.DeepEqual(s, got) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, s)
	}
}

func TestSnapshot_Deterministic(t *testing.T) {
	a, err := MarshalSurface(Parse(snapshotSrc))
	if err != nil {
		t.Fatal(err)
	}
	b, err := MarshalSurface(Parse(snapshotSrc))
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("encoding of equal surfaces differs")
	}
}

func TestSnapshot_Fingerprint(t *testing.T) {
	fa, err := Parse(snapshotSrc).Fingerprint()
	if err != nil {
		t.Fatal(err)
	}
	fb, err := Parse(snapshotSrc).Fingerprint()
	if err != nil {
		t.Fatal(err)
	}
	if fa != fb {
		t.Errorf("fingerprints differ: %s vs %s", fa, fb)
	}
	if len(fa) != 16 {
		t.Errorf("fingerprint %q is not 16 hex digits", fa)
	}

	fc, err := Parse(snapshotSrc + "extern int meos_errno(void);\n").Fingerprint()
	if err != nil {
		t.Fatal(err)
	}
	if fc == fa {
		t.Error("adding a function did not change the fingerprint")
	}
}

func TestSnapshot_RejectsOtherVersions(t *testing.T) {
	data, err := cborEncMode.Marshal(snapshot{Version: snapshotVersion + 1, Surface: &Surface{}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := UnmarshalSurface(data); err == nil {
		t.Error("expected version error")
	}

	data, err = cborEncMode.Marshal(snapshot{Version: snapshotVersion})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := UnmarshalSurface(data); err == nil {
		t.Error("expected error for missing surface")
	}

	if _, err := UnmarshalSurface([]byte{0xff, 0x00}); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestDiff(t *testing.T) {
	old := Parse(snapshotSrc)
	cur := Parse(`
typedef struct { int a; } Span;
extern Span *intspan_make(int lower, int upper, bool lower_inc, bool upper_inc);
extern char *span_out(const Span *s, int maxdd, int flags);
extern Span *span_copy(const Span *s);
`)
	d := Diff(old, cur)
	if !reflect.DeepEqual(d.Added, []string{"span_copy"}) {
		t.Errorf("Added = %v", d.Added)
	}
	if !reflect.DeepEqual(d.Removed, []string{"meos_finalize"}) {
		t.Errorf("Removed = %v", d.Removed)
	}
	if !reflect.DeepEqual(d.Changed, []string{"span_out"}) {
		t.Errorf("Changed = %v", d.Changed)
	}
	if d.Empty() || !Diff(cur, cur).Empty() {
		t.Error("Empty() wrong")
	}
}
