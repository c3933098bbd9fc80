package gen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/chazu/meosbind/cdecl"
	"github.com/chazu/meosbind/classify"
	"github.com/dave/jennifer/jen"
)

// locals are the identifiers wrapper bodies declare.
var locals = regexp.MustCompile(`^(err|lib|r0|ret|meosrt|(a|free|o)[0-9]+)$`)

type method struct {
	fn     *classify.Function
	sym    string
	name   string   // Go method name
	field  string   // Library field holding the symbol
	params []string // Go name per native parameter
	types  []jen.Code
	zeros  []jen.Code // zero value per result, error excluded
	result []jen.Code // result types, error excluded
}

// prepare names the method and its parameters and rejects strategies no
// template covers.
func (g *generator) prepare(fn *classify.Function) (*method, error) {
	m := &method{fn: fn, sym: fn.Name()}
	m.name = fn.Rename
	if m.name == "" {
		m.name = MethodName(m.sym)
	}
	if other, ok := g.methods[m.name]; ok {
		return nil, fmt.Errorf("method %s already wraps %s", m.name, other)
	}

	if fn.Return.Kind == classify.StructValue {
		return nil, fmt.Errorf("returns struct %s by value", fn.Return.Handle)
	}
	used := make(map[string]bool)
	m.params = make([]string, len(fn.Params))
	m.types = make([]jen.Code, len(fn.Params))
	for i, s := range fn.Params {
		p := fn.Sig.Params[i]
		if s.Kind == classify.StructValue {
			return nil, fmt.Errorf("parameter %s passes struct %s by value", p.Name, s.Handle)
		}
		name := toCamel(p.Name)
		for used[name] || locals.MatchString(name) {
			name += "_"
		}
		name = safeIdent(name, used)
		used[name] = true
		m.params[i] = name
		t, err := g.nativeType(fn, i)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		m.types[i] = t
	}

	if fn.Return.Kind != classify.Void {
		t, z, err := g.goType(fn.Return)
		if err != nil {
			return nil, fmt.Errorf("return: %w", err)
		}
		m.result = append(m.result, t)
		m.zeros = append(m.zeros, z)
	}
	for _, i := range fn.Outputs() {
		t, z, err := g.goType(fn.Params[i])
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", fn.Sig.Params[i].Name, err)
		}
		m.result = append(m.result, t)
		m.zeros = append(m.zeros, z)
	}
	for _, i := range fn.Inputs() {
		if _, err := g.paramType(fn.Params[i]); err != nil {
			return nil, fmt.Errorf("parameter %s: %w", fn.Sig.Params[i].Name, err)
		}
	}

	m.field = g.fieldName(m.sym)
	g.fields[m.sym] = m.field
	g.methods[m.name] = m.sym
	return m, nil
}

// nativeFunc is the Go type of the bound symbol.
func (g *generator) nativeFunc(m *method) *jen.Statement {
	params := make([]jen.Code, len(m.params))
	for i, name := range m.params {
		params[i] = jen.Id(name).Add(m.types[i])
	}
	fn := jen.Func().Params(params...)
	if r := g.nativeReturn(m.fn.Return); r != nil {
		fn.Add(r)
	}
	return fn
}

func (g *generator) nativeReturn(s classify.Strategy) jen.Code {
	switch s.Kind {
	case classify.Void:
		return nil
	case classify.Scalar:
		return jen.Id(s.Scalar)
	case classify.Bool:
		return jen.Bool()
	case classify.Enum:
		return jen.Int32()
	}
	return jen.Uintptr()
}

// nativeType is the Go type parameter i is passed to the symbol as.
func (g *generator) nativeType(fn *classify.Function, i int) (jen.Code, error) {
	s := fn.Params[i]
	switch s.Kind {
	case classify.Scalar:
		return jen.Id(s.Scalar), nil
	case classify.Bool:
		return jen.Bool(), nil
	case classify.Enum:
		return jen.Int32(), nil
	case classify.Count:
		if fn.Sig.Params[i].Direction == cdecl.Out {
			return jen.Op("*").Id(s.Scalar), nil
		}
		return jen.Id(s.Scalar), nil
	case classify.OutScalar:
		switch {
		case s.Enum != "":
			return jen.Op("*").Int32(), nil
		case s.Scalar == "bool":
			return jen.Op("*").Bool(), nil
		}
		return jen.Op("*").Id(s.Scalar), nil
	case classify.OutHandle, classify.OutArray:
		return jen.Op("*").Uintptr(), nil
	case classify.CStringIn, classify.BytesIn, classify.HandleIn, classify.HandleTake, classify.ArrayIn:
		return jen.Uintptr(), nil
	}
	return nil, fmt.Errorf("no template for %s parameter", s.Kind)
}

// elemType is the Go element type of a scalar array.
func (g *generator) elemType(s classify.Strategy) (jen.Code, error) {
	switch s.Elem {
	case classify.Enum:
		name, err := g.enumType(s.Enum)
		if err != nil {
			return nil, err
		}
		return jen.Id(name), nil
	case classify.Bool:
		return jen.Bool(), nil
	case classify.Scalar:
		return jen.Id(s.Scalar), nil
	}
	return nil, fmt.Errorf("no element template for %s", s.Elem)
}

// paramType is the Go type callers pass for an input parameter.
func (g *generator) paramType(s classify.Strategy) (jen.Code, error) {
	switch s.Kind {
	case classify.Scalar:
		return jen.Id(s.Scalar), nil
	case classify.Bool:
		return jen.Bool(), nil
	case classify.Enum:
		name, err := g.enumType(s.Enum)
		if err != nil {
			return nil, err
		}
		return jen.Id(name), nil
	case classify.CStringIn:
		if s.Nullable {
			return jen.Op("*").String(), nil
		}
		return jen.String(), nil
	case classify.BytesIn:
		return jen.Index().Byte(), nil
	case classify.HandleIn:
		return g.rt("Pointer"), nil
	case classify.HandleTake:
		return jen.Op("*").Add(g.rt("Owned")), nil
	case classify.ArrayIn:
		if s.Elem == classify.HandleIn {
			return jen.Index().Add(g.rt("Pointer")), nil
		}
		t, err := g.elemType(s)
		if err != nil {
			return nil, err
		}
		return jen.Index().Add(t), nil
	}
	return nil, fmt.Errorf("no input template for %s", s.Kind)
}

// goType is the Go type and zero value of a returned value.
func (g *generator) goType(s classify.Strategy) (jen.Code, jen.Code, error) {
	switch s.Kind {
	case classify.Scalar:
		return jen.Id(s.Scalar), jen.Lit(0), nil
	case classify.Bool:
		return jen.Bool(), jen.False(), nil
	case classify.Enum:
		name, err := g.enumType(s.Enum)
		if err != nil {
			return nil, nil, err
		}
		return jen.Id(name), jen.Lit(0), nil
	case classify.OutScalar:
		switch {
		case s.Enum != "":
			name, err := g.enumType(s.Enum)
			if err != nil {
				return nil, nil, err
			}
			return jen.Id(name), jen.Lit(0), nil
		case s.Scalar == "bool":
			return jen.Bool(), jen.False(), nil
		}
		return jen.Id(s.Scalar), jen.Lit(0), nil
	case classify.CStringOwned, classify.CStringBorrowed:
		return jen.String(), jen.Lit(""), nil
	case classify.BytesOut:
		return jen.Index().Byte(), jen.Nil(), nil
	case classify.HandleOwned, classify.OutHandle:
		return jen.Op("*").Add(g.rt("Owned")), jen.Nil(), nil
	case classify.HandleBorrowed:
		return g.rt("Ref"), g.rt("Ref").Values(), nil
	case classify.ArrayOut, classify.OutArray:
		switch s.Elem {
		case classify.HandleOwned:
			return jen.Index().Op("*").Add(g.rt("Owned")), jen.Nil(), nil
		case classify.HandleBorrowed:
			return jen.Index().Add(g.rt("Ref")), jen.Nil(), nil
		}
		t, err := g.elemType(s)
		if err != nil {
			return nil, nil, err
		}
		return jen.Index().Add(t), jen.Nil(), nil
	}
	return nil, nil, fmt.Errorf("no output template for %s", s.Kind)
}

func arg(i int) string     { return "a" + strconv.Itoa(i) }
func freeVar(i int) string { return "free" + strconv.Itoa(i) }
func result(i int) string  { return "o" + strconv.Itoa(i) }

// fail returns zero values and err.
func (m *method) fail(err jen.Code) jen.Code {
	return jen.Return(append(append([]jen.Code{}, m.zeros...), err)...)
}

// check returns a conversion failure attributed to param.
func (g *generator) check(m *method, param string) jen.Code {
	return jen.If(jen.Err().Op("!=").Nil()).Block(
		m.fail(g.rt("Arg").Call(jen.Lit(m.sym), jen.Lit(param), jen.Err())),
	)
}

func (g *generator) emitMethod(f *jen.File, m *method) {
	fn := m.fn
	var params []jen.Code
	for _, i := range fn.Inputs() {
		t, _ := g.paramType(fn.Params[i])
		params = append(params, jen.Id(m.params[i]).Add(t))
	}
	results := append(append([]jen.Code{}, m.result...), jen.Error())

	f.Comment(fmt.Sprintf("// %s calls %s.", m.name, m.sym))
	f.Comment("//")
	f.Comment("//\t" + fn.Sig.String())

	var body []jen.Code
	if fn.Body != "" {
		body = []jen.Code{jen.Id(strings.TrimSpace(fn.Body))}
	} else {
		body = g.body(m)
	}
	f.Func().Params(jen.Id("lib").Op("*").Id("Library")).Id(m.name).
		Params(params...).Params(results...).
		Block(body...)
	f.Line()
}

// body converts inputs, makes the native call under the error bridge and
// converts outputs once the bridge is released.
func (g *generator) body(m *method) []jen.Code {
	fn := m.fn
	var stmts []jen.Code
	mem := jen.Id("lib").Dot("rt").Dot("Memory")

	convert := func(i int, call jen.Code) {
		stmts = append(stmts,
			jen.List(jen.Id(arg(i)), jen.Id(freeVar(i)), jen.Err()).Op(":=").Add(call),
			g.check(m, fn.Sig.Params[i].Name),
			jen.Defer().Id(freeVar(i)).Call(),
		)
	}

	// Transfers go last so a failed conversion never strands a detached
	// handle.
	var takes []int
	for i, s := range fn.Params {
		name := jen.Id(m.params[i])
		cname := fn.Sig.Params[i].Name
		switch s.Kind {
		case classify.CStringIn:
			if s.Nullable {
				convert(i, g.rt("CStringOpt").Call(mem, name))
			} else {
				convert(i, g.rt("CString").Call(mem, name))
			}
		case classify.BytesIn:
			convert(i, g.rt("CBytes").Call(mem, name))
		case classify.ArrayIn:
			if s.Elem == classify.HandleIn {
				convert(i, g.rt("CPointers").Call(mem, name))
			} else {
				convert(i, g.rt("CArray").Call(mem, name))
			}
		case classify.HandleIn:
			if s.Nullable {
				stmts = append(stmts, jen.Id(arg(i)).Op(":=").Add(g.rt("Addr")).Call(name))
				continue
			}
			stmts = append(stmts,
				jen.List(jen.Id(arg(i)), jen.Err()).Op(":=").Add(g.rt("Deref")).Call(name),
				g.check(m, cname),
			)
		case classify.HandleTake:
			takes = append(takes, i)
		case classify.Count:
			if fn.Sig.Params[i].Direction == cdecl.Out {
				stmts = append(stmts, jen.Var().Id(arg(i)).Id(s.Scalar))
				continue
			}
			stmts = append(stmts,
				jen.List(jen.Id(arg(i)), jen.Err()).Op(":=").
					Add(g.rt("Narrow")).Types(jen.Id(s.Scalar)).
					Call(jen.Len(jen.Id(m.params[s.For]))),
				g.check(m, fn.Sig.Params[s.For].Name),
			)
		case classify.OutScalar:
			stmts = append(stmts, jen.Var().Id(arg(i)).Add(outValueType(s)))
		case classify.OutHandle, classify.OutArray:
			stmts = append(stmts, jen.Var().Id(arg(i)).Uintptr())
		}
	}
	for _, i := range takes {
		take := "Take"
		if fn.Params[i].Nullable {
			take = "TakeOpt"
		}
		stmts = append(stmts,
			jen.List(jen.Id(arg(i)), jen.Err()).Op(":=").Add(g.rt(take)).Call(jen.Id(m.params[i])),
			g.check(m, fn.Sig.Params[i].Name),
		)
	}

	args := make([]jen.Code, len(fn.Params))
	for i, s := range fn.Params {
		switch s.Kind {
		case classify.Scalar, classify.Bool:
			args[i] = jen.Id(m.params[i])
		case classify.Enum:
			args[i] = jen.Int32().Call(jen.Id(m.params[i]))
		case classify.OutScalar, classify.OutHandle, classify.OutArray:
			args[i] = jen.Op("&").Id(arg(i))
		case classify.Count:
			if fn.Sig.Params[i].Direction == cdecl.Out {
				args[i] = jen.Op("&").Id(arg(i))
			} else {
				args[i] = jen.Id(arg(i))
			}
		default:
			args[i] = jen.Id(arg(i))
		}
	}
	call := jen.Id("lib").Dot(m.field).Call(args...)
	void := fn.Return.Kind == classify.Void
	if !void {
		stmts = append(stmts, jen.Var().Id("r0").Add(g.nativeReturn(fn.Return)))
		call = jen.Id("r0").Op("=").Add(call)
	}
	closure := jen.Func().Params().Block(call)
	bridge := jen.Id("lib").Dot("rt").Dot("Bridge")

	switch {
	case fn.NoErrorCheck:
		stmts = append(stmts, bridge.Clone().Dot("CallUnchecked").Call(jen.Lit(m.sym), closure))
	case void && len(fn.Outputs()) == 0:
		return append(stmts, jen.Return(bridge.Clone().Dot("Call").Call(jen.Lit(m.sym), closure)))
	default:
		// Owned results a failed call still produced are released.
		var discard []jen.Code
		if !void {
			if d := g.discard(fn.Return, jen.Id("r0")); d != nil {
				discard = append(discard, d)
			}
		}
		for _, i := range fn.Outputs() {
			if d := g.discard(fn.Params[i], jen.Id(arg(i))); d != nil {
				discard = append(discard, d)
			}
		}
		stmts = append(stmts, jen.If(
			jen.Err().Op(":=").Add(bridge.Clone().Dot("Call").Call(jen.Lit(m.sym), closure)),
			jen.Err().Op("!=").Nil(),
		).Block(append(discard, m.fail(jen.Err()))...))
	}

	var values []jen.Code
	if !void {
		v, conv := g.convertReturn(m)
		stmts = append(stmts, conv...)
		values = append(values, v)
	}
	for _, i := range fn.Outputs() {
		v, conv := g.convertOutput(m, i)
		stmts = append(stmts, conv...)
		values = append(values, v)
	}
	return append(stmts, jen.Return(append(values, jen.Nil())...))
}

func outValueType(s classify.Strategy) jen.Code {
	switch {
	case s.Enum != "":
		return jen.Int32()
	case s.Scalar == "bool":
		return jen.Bool()
	}
	return jen.Id(s.Scalar)
}

// take renders a checked conversion into the local name.
func (g *generator) take(m *method, name, param string, call jen.Code) []jen.Code {
	return []jen.Code{
		jen.List(jen.Id(name), jen.Err()).Op(":=").Add(call),
		g.check(m, param),
	}
}

// convertReturn converts r0 into the value the method returns.
func (g *generator) convertReturn(m *method) (jen.Code, []jen.Code) {
	s := m.fn.Return
	r0 := jen.Id("r0")
	switch s.Kind {
	case classify.Scalar, classify.Bool:
		return r0, nil
	case classify.Enum:
		name, _ := g.enumType(s.Enum)
		return jen.Id(name).Call(r0), nil
	case classify.CStringOwned:
		return jen.Id("ret"), g.take(m, "ret", "return", g.rt("TakeString").Call(g.release(s.Release), r0))
	case classify.CStringBorrowed:
		return jen.Id("ret"), g.take(m, "ret", "return", g.rt("GoString").Call(r0))
	case classify.BytesOut:
		return jen.Id("ret"), g.take(m, "ret", "return", g.rt("TakeBytes").Call(g.release(s.Release), r0, jen.Id(arg(s.Count))))
	case classify.HandleOwned:
		return g.rt("Own").Call(r0, jen.Lit(s.Handle), g.release(s.Release)), nil
	case classify.HandleBorrowed:
		return g.rt("Borrow").Call(r0, jen.Lit(s.Handle)), nil
	case classify.ArrayOut:
		return jen.Id("ret"), g.take(m, "ret", "return", g.array(s, r0, jen.Id(arg(s.Count))))
	}
	return r0, nil
}

// convertOutput converts the out parameter i.
func (g *generator) convertOutput(m *method, i int) (jen.Code, []jen.Code) {
	s := m.fn.Params[i]
	a := jen.Id(arg(i))
	switch s.Kind {
	case classify.OutScalar:
		if s.Enum != "" {
			name, _ := g.enumType(s.Enum)
			return jen.Id(name).Call(a), nil
		}
		return a, nil
	case classify.OutHandle:
		return g.rt("Own").Call(a, jen.Lit(s.Handle), g.release(s.Release)), nil
	case classify.OutArray:
		return jen.Id(result(i)), g.take(m, result(i), m.fn.Sig.Params[i].Name, g.array(s, a, jen.Id(arg(s.Count))))
	}
	return a, nil
}

// discard releases an owned native value at p without converting it.
func (g *generator) discard(s classify.Strategy, p jen.Code) jen.Code {
	switch s.Kind {
	case classify.CStringOwned, classify.BytesOut, classify.HandleOwned, classify.OutHandle:
		return g.rt("Discard").Call(g.release(s.Release), p)
	case classify.ArrayOut, classify.OutArray:
		switch s.Elem {
		case classify.HandleOwned:
			return g.rt("DiscardOwned").Call(g.release(""), p, jen.Id(arg(s.Count)), g.release(s.Release))
		case classify.HandleBorrowed:
			return g.rt("Discard").Call(g.release(""), p)
		}
		return g.rt("Discard").Call(g.release(s.Release), p)
	}
	return nil
}

// array converts an owned native array of n elements at p.
func (g *generator) array(s classify.Strategy, p, n jen.Code) jen.Code {
	switch s.Elem {
	case classify.HandleOwned:
		return g.rt("TakeOwned").Call(g.release(""), p, n, jen.Lit(s.Handle), g.release(s.Release))
	case classify.HandleBorrowed:
		return g.rt("TakeRefs").Call(g.release(""), p, n, jen.Lit(s.Handle))
	}
	t, _ := g.elemType(s)
	return g.rt("TakeSlice").Types(t).Call(g.release(s.Release), p, n)
}
