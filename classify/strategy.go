// Package classify decides, for every parameter and return value of a
// native function, how the value crosses the boundary.
package classify

import (
	"fmt"
	"strings"

	"github.com/chazu/meosbind/cdecl"
)

// Kind selects the conversion template for one value.
type Kind int

const (
	Void            Kind = iota
	Scalar               // numeric passed by value
	Bool                 // C bool
	Enum                 // enum passed as its integer value
	CStringIn            // host string copied into a scoped NUL-terminated buffer
	CStringOwned         // returned string the caller releases
	CStringBorrowed      // returned string owned by the native side
	BytesIn              // host bytes copied into a scoped buffer, length in a Count parameter
	BytesOut             // returned buffer the caller releases, length in an out parameter
	HandleIn             // borrowed pointer to an opaque value
	HandleTake           // pointer whose ownership moves to the native side
	HandleOwned          // returned pointer the caller releases
	HandleBorrowed       // returned pointer owned by the native side
	ArrayIn              // host slice copied into a scoped array, length in a Count parameter
	ArrayOut             // returned array the caller releases, length in an out parameter
	OutScalar            // pointer the native side writes a single value through
	OutHandle            // pointer the native side writes an owned handle through
	OutArray             // pointer the native side writes an owned array through
	Count                // length of another array, never visible to the host
	StructValue          // struct passed or returned by value
)

var kindNames = [...]string{
	Void:            "void",
	Scalar:          "scalar",
	Bool:            "bool",
	Enum:            "enum",
	CStringIn:       "cstring-in",
	CStringOwned:    "cstring-owned",
	CStringBorrowed: "cstring-borrowed",
	BytesIn:         "bytes-in",
	BytesOut:        "bytes-out",
	HandleIn:        "handle-in",
	HandleTake:      "handle-take",
	HandleOwned:     "handle-owned",
	HandleBorrowed:  "handle-borrowed",
	ArrayIn:         "array-in",
	ArrayOut:        "array-out",
	OutScalar:       "out-scalar",
	OutHandle:       "out-handle",
	OutArray:        "out-array",
	Count:           "count",
	StructValue:     "struct-value",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Strategy is the conversion chosen for one parameter or return value.
type Strategy struct {
	Kind      Kind
	Scalar    string // Go type of a scalar value or scalar element
	Enum      string // C enum name for enum values and elements
	Handle    string // C type name for handles and handle elements
	Elem      Kind   // element kind of ArrayIn, ArrayOut and OutArray
	Release   string // release function for owned values
	Ownership cdecl.Ownership
	Nullable  bool
	Count     int // index of the parameter carrying the length, -1 if none
	For       int // for Count: index of the sized parameter, -1 for the return value
}

// Key identifies the strategy by content. Equal keys mean equal
// conversions.
func (s Strategy) Key() string {
	return fmt.Sprintf("%+v", s)
}

// Hidden reports whether the value has no host-side counterpart.
func (s Strategy) Hidden() bool { return s.Kind == Count }

// Output reports whether the value is written by the native side through
// a pointer parameter.
func (s Strategy) Output() bool {
	switch s.Kind {
	case OutScalar, OutHandle, OutArray:
		return true
	}
	return false
}

func (s Strategy) cKind() cdecl.Kind {
	switch s.Kind {
	case Void:
		return cdecl.KindVoid
	case Scalar, Count:
		return cdecl.KindScalar
	case Bool:
		return cdecl.KindBool
	case Enum:
		return cdecl.KindEnum
	case CStringIn, CStringOwned, CStringBorrowed:
		return cdecl.KindCString
	case BytesIn, BytesOut:
		return cdecl.KindBytes
	case HandleIn, HandleTake, HandleOwned, HandleBorrowed, OutHandle:
		return cdecl.KindOpaque
	case ArrayIn, ArrayOut, OutArray:
		return cdecl.KindArray
	case OutScalar:
		switch {
		case s.Enum != "":
			return cdecl.KindEnum
		case s.Scalar == "bool":
			return cdecl.KindBool
		}
		return cdecl.KindScalar
	case StructValue:
		return cdecl.KindStruct
	}
	return cdecl.KindUnsupported
}

// Function is a classified native function.
type Function struct {
	Sig          cdecl.Signature // copy with kinds, ownership and directions filled in
	Return       Strategy
	Params       []Strategy
	Rename       string // host name from an override
	Body         string // replacement wrapper body from an override
	NoErrorCheck bool
}

// Name is the native symbol.
func (f *Function) Name() string { return f.Sig.Name }

// TemplateKey names the combination of templates the wrapper is built from.
func (f *Function) TemplateKey() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.Kind.String()
	}
	return f.Return.Kind.String() + "(" + strings.Join(parts, ",") + ")"
}

// Inputs returns the indexes of parameters the host passes.
func (f *Function) Inputs() []int {
	var idx []int
	for i, p := range f.Params {
		if !p.Hidden() && !p.Output() {
			idx = append(idx, i)
		}
	}
	return idx
}

// Outputs returns the indexes of parameters returned to the host.
func (f *Function) Outputs() []int {
	var idx []int
	for i, p := range f.Params {
		if p.Output() {
			idx = append(idx, i)
		}
	}
	return idx
}

// Releases lists the type-specific release functions the wrapper needs.
func (f *Function) Releases() []string {
	var out []string
	add := func(s Strategy) {
		if s.Release != "" {
			out = append(out, s.Release)
		}
	}
	add(f.Return)
	for _, p := range f.Params {
		add(p)
	}
	return out
}

// ClassificationError reports a function whose signature the rules cannot
// map. The function is left out of the generated bindings.
type ClassificationError struct {
	Function string
	Param    string // parameter name, "return", or empty
	Reason   string
}

func (e *ClassificationError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s: %s", e.Function, e.Param, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Function, e.Reason)
}
