package classify

import (
	"strings"

	"github.com/chazu/meosbind/cdecl"
)

// scalars maps C scalar spellings to Go types for LP64 platforms.
var scalars = map[string]string{
	"char":                   "int8",
	"signed char":            "int8",
	"unsigned char":          "uint8",
	"short":                  "int16",
	"short int":              "int16",
	"signed short":           "int16",
	"signed short int":       "int16",
	"unsigned short":         "uint16",
	"unsigned short int":     "uint16",
	"int":                    "int32",
	"signed":                 "int32",
	"signed int":             "int32",
	"unsigned":               "uint32",
	"unsigned int":           "uint32",
	"long":                   "int64",
	"long int":               "int64",
	"signed long":            "int64",
	"signed long int":        "int64",
	"long long":              "int64",
	"long long int":          "int64",
	"signed long long":       "int64",
	"signed long long int":   "int64",
	"unsigned long":          "uint64",
	"unsigned long int":      "uint64",
	"unsigned long long":     "uint64",
	"unsigned long long int": "uint64",
	"float":                  "float32",
	"double":                 "float64",
	"int8_t":                 "int8",
	"int16_t":                "int16",
	"int32_t":                "int32",
	"int64_t":                "int64",
	"uint8_t":                "uint8",
	"uint16_t":               "uint16",
	"uint32_t":               "uint32",
	"uint64_t":               "uint64",
	"size_t":                 "uint64",
	"ssize_t":                "int64",
	"intptr_t":               "int64",
	"uintptr_t":              "uintptr",
}

// Options tune type resolution.
type Options struct {
	// Opaque lists extra type names to treat as opaque handles.
	Opaque []string
	// DefaultRelease releases owned values that have no type-specific
	// release function. Empty means such values cannot be returned.
	DefaultRelease string
	// ReleaseSuffix finds type-specific release functions: a function
	// "<lowercase type><suffix>" taking one pointer to the type.
	ReleaseSuffix string
}

// DefaultOptions match the MEOS conventions.
func DefaultOptions() Options {
	return Options{DefaultRelease: "free", ReleaseSuffix: "_free"}
}

// Types answers questions about the named types of a surface.
type Types struct {
	surface        *cdecl.Surface
	opaque         map[string]bool
	enums          map[string]bool
	callbacks      map[string]bool
	releases       map[string]string
	defaultRelease string
}

// NewTypes indexes the typedefs of s.
func NewTypes(s *cdecl.Surface, opts Options) *Types {
	t := &Types{
		surface:        s,
		opaque:         make(map[string]bool),
		enums:          make(map[string]bool),
		callbacks:      make(map[string]bool),
		releases:       make(map[string]string),
		defaultRelease: opts.DefaultRelease,
	}
	for _, name := range s.OpaqueTypes() {
		t.opaque[name] = true
	}
	for _, name := range s.Structs {
		t.opaque[name] = true
	}
	for _, name := range opts.Opaque {
		t.opaque[name] = true
	}
	for _, td := range s.Typedefs {
		if td.Enum {
			t.enums[td.Name] = true
		}
		if td.Func {
			t.callbacks[td.Name] = true
		}
	}
	for _, e := range s.Enums {
		t.enums[e.Name] = true
	}
	if opts.ReleaseSuffix != "" {
		for name := range t.opaque {
			sym := strings.ToLower(name) + opts.ReleaseSuffix
			if fn, ok := s.Function(sym); ok && isRelease(fn, name) {
				t.releases[name] = sym
			}
		}
	}
	return t
}

// isRelease reports whether fn has the shape "void f(T *)".
func isRelease(fn *cdecl.Signature, typ string) bool {
	return fn.Return.Base == "void" && fn.Return.Pointer == 0 &&
		len(fn.Params) == 1 && fn.Params[0].Type.Base == typ && fn.Params[0].Type.Depth() == 1
}

// ReleaseFor returns the function that releases owned values of typ.
func (t *Types) ReleaseFor(typ string) (string, bool) {
	if sym, ok := t.releases[typ]; ok {
		return sym, true
	}
	if t.defaultRelease != "" {
		return t.defaultRelease, true
	}
	return "", false
}

// IsReleaseFunction reports whether sym is the type-specific release
// function of typ.
func (t *Types) IsReleaseFunction(sym, typ string) bool {
	return t.releases[typ] == sym
}

// resolved is a type occurrence with typedef aliases expanded.
type resolved struct {
	kind    cdecl.Kind // KindScalar, KindBool, KindEnum, KindOpaque, KindVoid, KindCallback or KindUnknown
	goType  string     // Go type of a scalar
	name    string     // opaque or enum type name as written
	pointer int        // effective depth, alias pointers included
	char    bool       // plain char: a string when pointed to
	byte    bool       // uint8-like: a byte buffer when pointed to
}

// resolve follows typedef aliases until a known kind is reached.
func (t *Types) resolve(ct cdecl.Type) resolved {
	r := resolved{pointer: ct.Depth()}
	base := ct.Base
	for range 16 {
		switch {
		case base == "void":
			r.kind = cdecl.KindVoid
			return r
		case base == "bool" || base == "_Bool":
			r.kind = cdecl.KindBool
			return r
		case t.opaque[base]:
			r.kind, r.name = cdecl.KindOpaque, base
			return r
		case t.enums[base]:
			r.kind, r.name = cdecl.KindEnum, base
			return r
		case t.callbacks[base]:
			r.kind, r.name = cdecl.KindCallback, base
			return r
		}
		if goType, ok := scalars[base]; ok {
			r.kind, r.goType = cdecl.KindScalar, goType
			r.char = base == "char"
			r.byte = goType == "uint8"
			return r
		}
		td, ok := t.surface.Typedef(base)
		if !ok || td.Target == "" {
			break
		}
		r.pointer += td.Pointer
		if r.name == "" {
			r.name = base
		}
		base = td.Target
	}
	r.kind = cdecl.KindUnknown
	r.name = ct.Base
	return r
}
