package classify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/meosbind/cdecl"
	"github.com/chazu/meosbind/overrides"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("meosbind.classify")

// Classifier applies the classification rules, then the override patch of
// the function being classified. The result for a function depends only on
// its own signature and its own override.
type Classifier struct {
	types *Types
	over  *overrides.Registry
}

// New creates a classifier. over may be nil.
func New(types *Types, over *overrides.Registry) *Classifier {
	return &Classifier{types: types, over: over}
}

// Exclusion records a function an override removed from the bindings.
type Exclusion struct {
	Function string
	Reason   string
}

// Result is the classification of a whole surface.
type Result struct {
	Functions []*Function
	Excluded  []Exclusion
	Errors    []*ClassificationError
}

// ClassifyAll classifies every function of s in declaration order. A
// function that cannot be classified is reported and skipped.
func (c *Classifier) ClassifyAll(s *cdecl.Surface) *Result {
	res := &Result{}
	for _, sig := range s.Functions {
		if e, ok := c.over.Lookup(sig.Name); ok && e.Exclude {
			res.Excluded = append(res.Excluded, Exclusion{Function: sig.Name, Reason: e.Reason})
			continue
		}
		fn, err := c.Classify(sig)
		if err != nil {
			var ce *ClassificationError
			if !errors.As(err, &ce) {
				ce = &ClassificationError{Function: sig.Name, Reason: err.Error()}
			}
			log.Warningf("%s", ce)
			res.Errors = append(res.Errors, ce)
			continue
		}
		res.Functions = append(res.Functions, fn)
	}
	log.Infof("classified %d functions, %d excluded, %d unresolved",
		len(res.Functions), len(res.Excluded), len(res.Errors))
	return res
}

// Classify classifies one function.
func (c *Classifier) Classify(sig cdecl.Signature) (*Function, error) {
	e, _ := c.over.Lookup(sig.Name)
	st := newState(c.types, sig, e)
	if err := st.run(); err != nil {
		return nil, err
	}
	return st.fn, nil
}

type state struct {
	types *Types
	sig   cdecl.Signature
	entry *overrides.Entry
	res   []resolved
	dir   []cdecl.Direction
	done  []bool
	fn    *Function
}

func newState(types *Types, sig cdecl.Signature, e *overrides.Entry) *state {
	sig.Params = append([]cdecl.Param(nil), sig.Params...)
	n := len(sig.Params)
	st := &state{
		types: types,
		sig:   sig,
		entry: e,
		res:   make([]resolved, n),
		dir:   make([]cdecl.Direction, n),
		done:  make([]bool, n),
		fn:    &Function{Params: make([]Strategy, n)},
	}
	if e != nil {
		st.fn.Rename = e.Rename
		st.fn.Body = e.Body
		st.fn.NoErrorCheck = e.NoErrorCheck
	}
	return st
}

func (st *state) fail(param, format string, args ...any) error {
	return &ClassificationError{Function: st.sig.Name, Param: param, Reason: fmt.Sprintf(format, args...)}
}

func (st *state) patch(i int) *overrides.Param {
	if st.entry == nil {
		return nil
	}
	p, _ := st.entry.Param(st.sig.Params[i].Name)
	return p
}

func (st *state) run() error {
	for i, p := range st.sig.Params {
		st.res[i] = st.types.resolve(p.Type)
		st.fn.Params[i] = Strategy{Count: -1, For: -1}
		d, err := st.direction(i)
		if err != nil {
			return err
		}
		st.dir[i] = d
	}
	ret, err := st.returnValue()
	if err != nil {
		return err
	}
	st.fn.Return = ret
	for i := range st.sig.Params {
		if err := st.array(i); err != nil {
			return err
		}
	}
	for i := range st.sig.Params {
		if st.done[i] {
			continue
		}
		s, err := st.param(i)
		if err != nil {
			return err
		}
		st.fn.Params[i] = s
		st.done[i] = true
	}
	st.annotate()
	st.fn.Sig = st.sig
	return nil
}

func isOutName(name string) bool {
	return name == "result" || name == "count" || strings.HasSuffix(name, "_out")
}

func isCountName(name string) bool {
	switch name {
	case "count", "size", "n", "len", "length":
		return true
	}
	return strings.HasPrefix(name, "num") || strings.HasSuffix(name, "_count") || strings.HasSuffix(name, "_size")
}

func valueKind(r resolved) bool {
	return r.kind == cdecl.KindScalar || r.kind == cdecl.KindBool || r.kind == cdecl.KindEnum
}

func (st *state) direction(i int) (cdecl.Direction, error) {
	p := st.sig.Params[i]
	if pp := st.patch(i); pp != nil && pp.Direction != "" {
		d, err := cdecl.ParseDirection(pp.Direction)
		if err != nil {
			return cdecl.In, st.fail(p.Name, "%v", err)
		}
		return d, nil
	}
	if p.Type.Const || p.Type.Array {
		return cdecl.In, nil
	}
	r := st.res[i]
	switch {
	case r.pointer == 1 && valueKind(r) && !r.char && isOutName(p.Name):
		return cdecl.Out, nil
	case r.pointer == 2 && r.kind == cdecl.KindOpaque && p.Name == "result":
		return cdecl.Out, nil
	}
	return cdecl.In, nil
}

// integerAt reports whether parameter j can carry a length.
func (st *state) integerAt(j int, dir cdecl.Direction) bool {
	r := st.res[j]
	if r.kind != cdecl.KindScalar || strings.HasPrefix(r.goType, "float") || st.dir[j] != dir {
		return false
	}
	if dir == cdecl.In {
		return r.pointer == 0
	}
	return r.pointer == 1
}

// inCount finds the length parameter of the input array at i: the one an
// override names, else a length-named integer right after it.
func (st *state) inCount(i int) (int, error) {
	if pp := st.patch(i); pp != nil && pp.Count != "" {
		j, ok := st.sig.Param(pp.Count)
		if !ok || !st.integerAt(j, cdecl.In) {
			return -1, st.fail(st.sig.Params[i].Name, "count parameter %s is not an integer input", pp.Count)
		}
		return j, nil
	}
	j := i + 1
	if j < len(st.sig.Params) && !st.done[j] && st.integerAt(j, cdecl.In) && isCountName(st.sig.Params[j].Name) {
		return j, nil
	}
	return -1, nil
}

// outCount finds an integer output parameter carrying a length, by the
// override's count for param i (if i >= 0) or by name.
func (st *state) outCount(i int, names ...string) (int, error) {
	if i >= 0 {
		if pp := st.patch(i); pp != nil && pp.Count != "" {
			j, ok := st.sig.Param(pp.Count)
			if !ok || !st.integerAt(j, cdecl.Out) {
				return -1, st.fail(st.sig.Params[i].Name, "count parameter %s is not an integer output", pp.Count)
			}
			return j, nil
		}
	}
	for _, name := range names {
		if j, ok := st.sig.Param(name); ok && st.integerAt(j, cdecl.Out) {
			return j, nil
		}
	}
	return -1, nil
}

func (st *state) markCount(j, forIdx int) {
	if st.done[j] {
		return
	}
	st.fn.Params[j] = Strategy{Kind: Count, Scalar: st.res[j].goType, Count: -1, For: forIdx}
	st.done[j] = true
}

func (st *state) defaultFree(param string) (string, error) {
	if st.types.defaultRelease == "" {
		return "", st.fail(param, "no default release function for returned memory")
	}
	return st.types.defaultRelease, nil
}

func (st *state) release(param, typ string) (string, error) {
	sym, ok := st.types.ReleaseFor(typ)
	if !ok {
		return "", st.fail(param, "no release function for %s", typ)
	}
	return sym, nil
}

func (st *state) returnValue() (Strategy, error) {
	const where = "return"
	t := st.sig.Return
	r := st.types.resolve(t)
	s := Strategy{Count: -1, For: -1}

	switch r.kind {
	case cdecl.KindUnknown:
		return s, st.fail(where, "unknown type %s", r.name)
	case cdecl.KindCallback:
		return s, st.fail(where, "returns a callback; requires override")
	}

	switch {
	case r.pointer == 0:
		switch r.kind {
		case cdecl.KindVoid:
			s.Kind = Void
		case cdecl.KindScalar:
			s.Kind, s.Scalar = Scalar, r.goType
		case cdecl.KindBool:
			s.Kind = Bool
		case cdecl.KindEnum:
			s.Kind, s.Enum = Enum, r.name
		case cdecl.KindOpaque:
			s.Kind, s.Handle = StructValue, r.name
		}
		return s, nil

	case r.pointer == 1 && r.char:
		if t.Const {
			s.Kind, s.Ownership = CStringBorrowed, cdecl.Borrowed
			return s, nil
		}
		free, err := st.defaultFree(where)
		if err != nil {
			return s, err
		}
		s.Kind, s.Ownership, s.Release = CStringOwned, cdecl.TransferredOut, free
		return s, nil

	case r.pointer == 1 && valueKind(r):
		if r.byte {
			j, err := st.outCount(-1, "size_out", "size")
			if err != nil {
				return s, err
			}
			if j >= 0 {
				free, err := st.defaultFree(where)
				if err != nil {
					return s, err
				}
				st.markCount(j, -1)
				s.Kind, s.Ownership, s.Release, s.Count = BytesOut, cdecl.TransferredOut, free, j
				return s, nil
			}
		}
		j, err := st.outCount(-1, "count")
		if err != nil {
			return s, err
		}
		if j < 0 {
			return s, st.fail(where, "returned array has no length parameter")
		}
		free, err := st.defaultFree(where)
		if err != nil {
			return s, err
		}
		st.markCount(j, -1)
		s.Kind, s.Ownership, s.Release, s.Count = ArrayOut, cdecl.TransferredOut, free, j
		s.Elem, s.Scalar, s.Enum = elemKind(r), scalarName(r), enumName(r)
		return s, nil

	case r.pointer == 1 && (r.kind == cdecl.KindOpaque || r.kind == cdecl.KindVoid):
		typ := r.name
		if r.kind == cdecl.KindVoid {
			typ = "void"
		}
		if r.kind == cdecl.KindOpaque && (st.entry == nil || st.entry.Body == "") {
			j, err := st.outCount(-1, "count")
			if err != nil {
				return s, err
			}
			if j >= 0 {
				return s, st.fail(where, "returns a contiguous array of %s; requires an override body", typ)
			}
		}
		own := ""
		if st.entry != nil {
			own = st.entry.ReturnOwnership
		}
		if own == "" {
			switch {
			case t.Const:
				own = "borrowed"
			case r.kind == cdecl.KindVoid:
				return s, st.fail(where, "ownership of void pointer is unknown; set return_ownership")
			default:
				own = "transferred-out"
			}
		}
		if own == "borrowed" {
			s.Kind, s.Handle, s.Ownership = HandleBorrowed, typ, cdecl.Borrowed
			return s, nil
		}
		rel := ""
		if st.entry != nil {
			rel = st.entry.Release
		}
		if rel == "" {
			var err error
			if rel, err = st.release(where, typ); err != nil {
				return s, err
			}
		}
		s.Kind, s.Handle, s.Ownership, s.Release = HandleOwned, typ, cdecl.TransferredOut, rel
		return s, nil

	case r.pointer == 2 && r.kind == cdecl.KindOpaque:
		j, err := st.outCount(-1, "count")
		if err != nil {
			return s, err
		}
		if j < 0 {
			return s, st.fail(where, "returned array has no length parameter")
		}
		if _, err := st.defaultFree(where); err != nil {
			return s, err
		}
		st.markCount(j, -1)
		s.Kind, s.Handle, s.Ownership, s.Count = ArrayOut, r.name, cdecl.TransferredOut, j
		if t.Const {
			s.Elem = HandleBorrowed
			return s, nil
		}
		rel, err := st.release(where, r.name)
		if err != nil {
			return s, err
		}
		s.Elem, s.Release = HandleOwned, rel
		return s, nil
	}
	return s, st.fail(where, "unsupported return type %s", t)
}

func elemKind(r resolved) Kind {
	switch r.kind {
	case cdecl.KindEnum:
		return Enum
	case cdecl.KindBool:
		return Bool
	}
	return Scalar
}

func scalarName(r resolved) string {
	if r.kind == cdecl.KindBool {
		return "bool"
	}
	return r.goType
}

func enumName(r resolved) string {
	if r.kind == cdecl.KindEnum {
		return r.name
	}
	return ""
}

// array classifies parameter i when it is an array or buffer, together
// with its length parameter.
func (st *state) array(i int) error {
	if st.done[i] {
		return nil
	}
	p := st.sig.Params[i]
	r := st.res[i]
	s := Strategy{Count: -1, For: -1}

	switch {
	case st.dir[i] == cdecl.In && r.pointer == 1 && valueKind(r) && !r.char:
		j, err := st.inCount(i)
		if err != nil {
			return err
		}
		if j < 0 {
			if r.byte {
				return st.fail(p.Name, "byte buffer has no length parameter")
			}
			return st.fail(p.Name, "pointer to %s has no length parameter", p.Type.Base)
		}
		st.markCount(j, i)
		if r.byte {
			s.Kind, s.Ownership, s.Count = BytesIn, cdecl.Borrowed, j
		} else {
			s.Kind, s.Ownership, s.Count = ArrayIn, cdecl.Borrowed, j
			s.Elem, s.Scalar, s.Enum = elemKind(r), scalarName(r), enumName(r)
		}

	case st.dir[i] == cdecl.In && r.pointer == 2 && r.kind == cdecl.KindOpaque:
		j, err := st.inCount(i)
		if err != nil {
			return err
		}
		if j < 0 {
			return st.fail(p.Name, "array of %s has no length parameter", r.name)
		}
		st.markCount(j, i)
		s.Kind, s.Elem, s.Handle, s.Ownership, s.Count = ArrayIn, HandleIn, r.name, cdecl.Borrowed, j

	case st.dir[i] == cdecl.Out && r.pointer == 2 && valueKind(r) && !r.char:
		j, err := st.outCount(i, "count")
		if err != nil {
			return err
		}
		if j < 0 {
			return st.fail(p.Name, "output array has no length parameter")
		}
		free, err := st.defaultFree(p.Name)
		if err != nil {
			return err
		}
		st.markCount(j, i)
		s.Kind, s.Ownership, s.Release, s.Count = OutArray, cdecl.TransferredOut, free, j
		s.Elem, s.Scalar, s.Enum = elemKind(r), scalarName(r), enumName(r)

	default:
		return nil
	}
	st.fn.Params[i] = s
	st.done[i] = true
	return nil
}

// param classifies a parameter that is neither an array nor a length.
func (st *state) param(i int) (Strategy, error) {
	p := st.sig.Params[i]
	r := st.res[i]
	pp := st.patch(i)
	s := Strategy{Count: -1, For: -1}
	if pp != nil {
		s.Nullable = pp.Nullable
	}

	switch r.kind {
	case cdecl.KindUnknown:
		return s, st.fail(p.Name, "unknown type %s", r.name)
	case cdecl.KindCallback:
		return s, st.fail(p.Name, "callback parameter requires override")
	}
	if st.dir[i] == cdecl.InOut {
		return s, st.fail(p.Name, "in-out parameters are not supported")
	}

	switch {
	case r.pointer == 0:
		switch r.kind {
		case cdecl.KindScalar:
			s.Kind, s.Scalar = Scalar, r.goType
		case cdecl.KindBool:
			s.Kind = Bool
		case cdecl.KindEnum:
			s.Kind, s.Enum = Enum, r.name
		case cdecl.KindOpaque:
			s.Kind, s.Handle = StructValue, r.name
		default:
			return s, st.fail(p.Name, "unsupported type %s", p.Type)
		}
		return s, nil

	case r.pointer == 1 && r.char && st.dir[i] == cdecl.In:
		s.Kind, s.Ownership = CStringIn, cdecl.Borrowed
		return s, nil

	case r.pointer == 1 && (r.kind == cdecl.KindOpaque || r.kind == cdecl.KindVoid) && st.dir[i] == cdecl.In:
		typ := r.name
		if r.kind == cdecl.KindVoid {
			typ = "void"
		}
		s.Handle = typ
		take := !p.Type.Const && i == 0 && st.types.IsReleaseFunction(st.sig.Name, typ)
		if pp != nil && pp.Ownership != "" {
			own, err := cdecl.ParseOwnership(pp.Ownership)
			if err != nil {
				return s, st.fail(p.Name, "%v", err)
			}
			take = own == cdecl.TransferredIn
		}
		if take {
			s.Kind, s.Ownership = HandleTake, cdecl.TransferredIn
		} else {
			s.Kind, s.Ownership = HandleIn, cdecl.Borrowed
		}
		return s, nil

	case r.pointer == 1 && valueKind(r) && st.dir[i] == cdecl.Out:
		s.Kind, s.Scalar, s.Enum = OutScalar, scalarName(r), enumName(r)
		return s, nil

	case r.pointer == 2 && r.kind == cdecl.KindOpaque && st.dir[i] == cdecl.Out:
		rel, err := st.release(p.Name, r.name)
		if err != nil {
			return s, err
		}
		s.Kind, s.Handle, s.Ownership, s.Release = OutHandle, r.name, cdecl.TransferredOut, rel
		return s, nil
	}
	return s, st.fail(p.Name, "unsupported %s parameter of type %s", st.dir[i], p.Type)
}

// annotate copies the decisions into the signature's type descriptors.
func (st *state) annotate() {
	for i := range st.sig.Params {
		p := &st.sig.Params[i]
		s := st.fn.Params[i]
		p.Direction = st.dir[i]
		p.Type.Kind = s.cKind()
		p.Type.Ownership = s.Ownership
		if p.Type.Kind == cdecl.KindArray {
			p.Type.Elem = elemType(s)
		}
	}
	ret := &st.sig.Return
	ret.Kind = st.fn.Return.cKind()
	ret.Ownership = st.fn.Return.Ownership
	if ret.Kind == cdecl.KindArray {
		ret.Elem = elemType(st.fn.Return)
	}
}

func elemType(s Strategy) *cdecl.Type {
	switch s.Elem {
	case HandleIn, HandleOwned, HandleBorrowed:
		own := cdecl.Borrowed
		if s.Elem == HandleOwned {
			own = cdecl.TransferredOut
		}
		return &cdecl.Type{Base: s.Handle, Pointer: 1, Kind: cdecl.KindOpaque, Ownership: own}
	case Enum:
		return &cdecl.Type{Base: s.Enum, Kind: cdecl.KindEnum}
	case Bool:
		return &cdecl.Type{Base: "bool", Kind: cdecl.KindBool}
	}
	return &cdecl.Type{Base: s.Scalar, Kind: cdecl.KindScalar}
}
