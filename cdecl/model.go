// Package cdecl parses C header declarations into signature descriptors.
package cdecl

import (
	"fmt"
	"strings"
)

// Kind is the base kind of a type occurrence. The parser leaves it as
// KindUnknown; the classifier fills it in.
type Kind int

const (
	KindUnknown Kind = iota
	KindVoid
	KindScalar
	KindBool
	KindCString
	KindBytes
	KindOpaque
	KindEnum
	KindStruct
	KindArray
	KindCallback
	KindUnsupported
)

var kindNames = [...]string{
	KindUnknown:     "unknown",
	KindVoid:        "void",
	KindScalar:      "scalar-numeric",
	KindBool:        "boolean",
	KindCString:     "c-string",
	KindBytes:       "byte-buffer",
	KindOpaque:      "opaque-pointer",
	KindEnum:        "enum",
	KindStruct:      "struct-by-value",
	KindArray:       "array-of",
	KindCallback:    "callback",
	KindUnsupported: "unsupported",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Ownership says who releases the memory behind a pointer-shaped value.
type Ownership int

const (
	OwnNone Ownership = iota // not pointer-shaped
	Borrowed
	TransferredIn
	TransferredOut
)

func (o Ownership) String() string {
	switch o {
	case OwnNone:
		return "none"
	case Borrowed:
		return "borrowed"
	case TransferredIn:
		return "transferred-in"
	case TransferredOut:
		return "transferred-out"
	}
	return fmt.Sprintf("Ownership(%d)", int(o))
}

// ParseOwnership accepts the spellings used in override files.
func ParseOwnership(s string) (Ownership, error) {
	switch s {
	case "borrowed":
		return Borrowed, nil
	case "transferred-in":
		return TransferredIn, nil
	case "transferred-out":
		return TransferredOut, nil
	}
	return OwnNone, fmt.Errorf("unknown ownership %q", s)
}

// Direction of a parameter relative to the caller.
type Direction int

const (
	In Direction = iota
	Out
	InOut
)

func (d Direction) String() string {
	switch d {
	case In:
		return "in"
	case Out:
		return "out"
	case InOut:
		return "inout"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection accepts "in", "out" and "inout".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "in":
		return In, nil
	case "out":
		return Out, nil
	case "inout":
		return InOut, nil
	}
	return In, fmt.Errorf("unknown direction %q", s)
}

// Type describes one C type occurrence.
type Type struct {
	Base      string // base type words without qualifiers, e.g. "Span", "unsigned long int"
	Pointer   int    // 0 value, 1 pointer, 2 pointer-to-pointer
	Const     bool   // pointee is const
	Array     bool   // declared with a [] suffix
	Kind      Kind
	Ownership Ownership
	Elem      *Type // element type for KindArray
}

// String renders the type in C spelling.
func (t Type) String() string {
	var b strings.Builder
	if t.Const {
		b.WriteString("const ")
	}
	b.WriteString(t.Base)
	if t.Pointer > 0 {
		b.WriteByte(' ')
		b.WriteString(strings.Repeat("*", t.Pointer))
	}
	if t.Array {
		b.WriteString("[]")
	}
	return b.String()
}

// Depth is the effective indirection, counting a [] suffix as one pointer.
func (t Type) Depth() int {
	if t.Array {
		return t.Pointer + 1
	}
	return t.Pointer
}

// Param is one function parameter.
type Param struct {
	Name      string
	Type      Type
	Direction Direction
}

// Signature is the descriptor of one native function declaration.
type Signature struct {
	Name   string
	Return Type
	Params []Param
	Line   int
}

// Param returns the parameter with the given name.
func (s *Signature) Param(name string) (int, bool) {
	for i, p := range s.Params {
		if p.Name == name {
			return i, true
		}
	}
	return -1, false
}

// String renders the declaration back in C form.
func (s *Signature) String() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = declare(p.Type, p.Name)
	}
	if len(parts) == 0 {
		parts = []string{"void"}
	}
	return fmt.Sprintf("%s(%s)", declare(s.Return, s.Name), strings.Join(parts, ", "))
}

// declare renders "type name" with the stars and brackets attached to the
// name the way headers spell it.
func declare(t Type, name string) string {
	array := t.Array
	t.Array = false
	decl := t.String()
	if !strings.HasSuffix(decl, "*") {
		decl += " "
	}
	decl += name
	if array {
		decl += "[]"
	}
	return decl
}

// Typedef records a name introduced by typedef.
type Typedef struct {
	Name    string
	Target  string // aliased base type; empty for struct and enum typedefs
	Pointer int    // pointer depth of the alias, e.g. 1 for "typedef char *Pointer"
	Struct  bool   // typedef of a struct (opaque to the host)
	Enum    bool
	Func    bool // function pointer typedef
}

// Enumerator is one named constant of an enum.
type Enumerator struct {
	Name  string
	Value int64
}

// Enum is an enum typedef and its constants in declaration order.
type Enum struct {
	Name   string
	Values []Enumerator
}

// ParseError records a declaration that was left out of the surface.
type ParseError struct {
	Line   int
	Name   string // function name when known
	Reason string
}

func (e *ParseError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Name, e.Reason)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Surface is the parsed content of one header.
type Surface struct {
	Functions []Signature
	Typedefs  []Typedef
	Enums     []Enum
	Structs   []string // struct tags seen in forward declarations
	Skipped   []ParseError
}

// Function looks up a function by name.
func (s *Surface) Function(name string) (*Signature, bool) {
	for i := range s.Functions {
		if s.Functions[i].Name == name {
			return &s.Functions[i], true
		}
	}
	return nil, false
}

// Typedef looks up a typedef by name.
func (s *Surface) Typedef(name string) (*Typedef, bool) {
	for i := range s.Typedefs {
		if s.Typedefs[i].Name == name {
			return &s.Typedefs[i], true
		}
	}
	return nil, false
}

// Enum looks up an enum typedef by name.
func (s *Surface) Enum(name string) (*Enum, bool) {
	for i := range s.Enums {
		if s.Enums[i].Name == name {
			return &s.Enums[i], true
		}
	}
	return nil, false
}

// OpaqueTypes returns the struct typedef names in declaration order.
// Aliases of struct typedefs ("typedef varlena text") are included.
func (s *Surface) OpaqueTypes() []string {
	var names []string
	for _, td := range s.Typedefs {
		if td.Struct {
			names = append(names, td.Name)
			continue
		}
		if td.Pointer == 0 && td.Target != "" && s.isStruct(td.Target, 0) {
			names = append(names, td.Name)
		}
	}
	return names
}

func (s *Surface) isStruct(name string, depth int) bool {
	if depth > 16 {
		return false
	}
	for _, tag := range s.Structs {
		if tag == name {
			return true
		}
	}
	td, ok := s.Typedef(name)
	if !ok {
		return false
	}
	if td.Struct {
		return true
	}
	return td.Pointer == 0 && td.Target != "" && s.isStruct(td.Target, depth+1)
}
