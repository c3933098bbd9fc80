package overrides

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/meosbind/cdecl"
)

func TestDefault(t *testing.T) {
	r, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	fin, ok := r.Lookup("meos_finalize")
	if !ok || !fin.NoErrorCheck {
		t.Errorf("meos_finalize = %+v", fin)
	}
	errno, ok := r.Lookup("meos_errno")
	if !ok || !errno.Exclude || errno.Source != DefaultSource {
		t.Errorf("meos_errno = %+v", errno)
	}
	ini, ok := r.Lookup("meos_initialize")
	if !ok || !strings.Contains(ini.Body, "InstallErrorHandler") {
		t.Errorf("meos_initialize = %+v", ini)
	}
	mf, _ := r.Lookup("temporal_as_mfjson")
	if p, ok := mf.Param("srs"); !ok || !p.Nullable {
		t.Errorf("temporal_as_mfjson srs = %+v", p)
	}
	split, _ := r.Lookup("tint_value_time_split")
	if len(split.Params) != 2 || split.Params[1].Name != "time_bins" || split.Params[1].Count != "count" {
		t.Errorf("tint_value_time_split params = %+v", split.Params)
	}
}

func TestParse(t *testing.T) {
	src := `
[[override]]
function = "interptype_from_string"
rename = "ParseInterpType"

[[override]]
function = "rtree_search"
no_error_check = true
param = [{ name = "query", nullable = true }]
`
	r, err := Parse("test.toml", []byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("Len = %d", r.Len())
	}
	if got := strings.Join(r.Names(), ","); got != "interptype_from_string,rtree_search" {
		t.Errorf("Names = %s", got)
	}
	e, _ := r.Lookup("interptype_from_string")
	if e.Rename != "ParseInterpType" || e.Source != "test.toml" {
		t.Errorf("entry = %+v", e)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"duplicate",
			"[[override]]\nfunction = \"f\"\n[[override]]\nfunction = \"f\"\n",
			"duplicate override for f",
		},
		{
			"exclude and rename",
			"[[override]]\nfunction = \"f\"\nexclude = true\nrename = \"F\"\n",
			"excluded function cannot also be patched",
		},
		{
			"unknown key",
			"[[override]]\nfunction = \"f\"\nrenam = \"F\"\n",
			"renam",
		},
		{
			"bad direction",
			"[[override]]\nfunction = \"f\"\nparam = [{ name = \"x\", direction = \"sideways\" }]\n",
			"direction",
		},
		{
			"missing function",
			"[[override]]\nexclude = true\n",
			"function",
		},
		{
			"lowercase rename",
			"[[override]]\nfunction = \"f\"\nrename = \"notExported\"\n",
			"rename",
		},
		{
			"nullable output",
			"[[override]]\nfunction = \"f\"\nparam = [{ name = \"x\", direction = \"out\", nullable = true }]\n",
			"cannot be nullable",
		},
		{
			"transferred-in output",
			"[[override]]\nfunction = \"f\"\nparam = [{ name = \"x\", direction = \"out\", ownership = \"transferred-in\" }]\n",
			"transferred-in ownership",
		},
		{
			"borrowed with release",
			"[[override]]\nfunction = \"f\"\nreturn_ownership = \"borrowed\"\nrelease = \"f_free\"\n",
			"borrowed return cannot have a release function",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.toml", []byte(tt.src))
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %v, want *ConfigurationError", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestParse_MalformedTOML(t *testing.T) {
	if _, err := Parse("broken.toml", []byte("[[override]\n")); err == nil {
		t.Error("expected TOML error")
	}
}

func TestMerge(t *testing.T) {
	base, err := New("base", []Entry{
		{Function: "meos_finalize", NoErrorCheck: true},
		{Function: "span_out"},
	})
	if err != nil {
		t.Fatal(err)
	}

	clash, _ := New("user", []Entry{{Function: "meos_finalize", Rename: "Shutdown"}})
	if _, err := base.Merge(clash); err == nil || !strings.Contains(err.Error(), "set replace = true") {
		t.Errorf("merge without replace: %v", err)
	}

	repl, _ := New("user", []Entry{
		{Function: "meos_finalize", Rename: "Shutdown", Replace: true},
		{Function: "intspan_in", Rename: "ParseIntSpan"},
	})
	merged, err := base.Merge(repl)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged.Len() != 3 {
		t.Errorf("Len = %d", merged.Len())
	}
	fin, _ := merged.Lookup("meos_finalize")
	if fin.Rename != "Shutdown" || fin.NoErrorCheck {
		t.Errorf("replaced entry = %+v", fin)
	}
	if orig, _ := base.Lookup("meos_finalize"); !orig.NoErrorCheck {
		t.Error("Merge modified the base registry")
	}
}

func TestCheck(t *testing.T) {
	s := cdecl.Parse(`
extern char *temporal_as_mfjson(const Temporal *temp, bool with_bbox, int flags, int precision, const char *srs);
`)
	r, err := New("user.toml", []Entry{
		{Function: "temporal_as_mfjson", Params: []Param{{Name: "srs", Nullable: true}}},
		{Function: "no_such_function"},
	})
	if err != nil {
		t.Fatal(err)
	}
	warnings, err := r.Check(s)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "no_such_function") {
		t.Errorf("warnings = %v", warnings)
	}

	bad, _ := New("user.toml", []Entry{
		{Function: "temporal_as_mfjson", Params: []Param{{Name: "srid", Nullable: true}}},
	})
	if _, err := bad.Check(s); err == nil || !strings.Contains(err.Error(), "no parameter srid") {
		t.Errorf("Check err = %v", err)
	}
}

func TestCheck_DefaultsAreQuiet(t *testing.T) {
	r, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	warnings, err := r.Check(cdecl.Parse("extern void meos_finalize(void);"))
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("default overrides produced warnings: %v", warnings)
	}
}

func TestNilRegistry(t *testing.T) {
	var r *Registry
	if _, ok := r.Lookup("f"); ok || r.Len() != 0 || r.Names() != nil {
		t.Error("nil registry is not empty")
	}
}
