package gen

import (
	"fmt"
	"sort"

	"github.com/dave/jennifer/jen"
)

type enumDecl struct {
	cname  string
	name   string
	order  int
	values []enumValue
}

type enumValue struct {
	cname string
	name  string
	value int64
	alias bool // repeats an earlier value
}

// collectEnums names every enum of the surface. Enumerator names that
// collide with another package-level name are prefixed with their type.
func (g *generator) collectEnums() {
	for i, e := range g.surface.Enums {
		d := &enumDecl{cname: e.Name, name: EnumTypeName(e.Name), order: i}
		for g.globals[d.name] {
			d.name += "_"
		}
		g.globals[d.name] = true
		g.enums[e.Name] = d
	}
	for _, e := range g.surface.Enums {
		d := g.enums[e.Name]
		seen := make(map[int64]bool)
		for _, v := range e.Values {
			name := EnumConstName(v.Name)
			if name == "" || g.globals[name] {
				name = d.name + name
			}
			for g.globals[name] {
				name += "_"
			}
			g.globals[name] = true
			d.values = append(d.values, enumValue{cname: v.Name, name: name, value: v.Value, alias: seen[v.Value]})
			seen[v.Value] = true
		}
	}
}

func (g *generator) sortedEnums() []*enumDecl {
	out := make([]*enumDecl, 0, len(g.enums))
	for _, d := range g.enums {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].order < out[j].order })
	return out
}

// enumType returns the Go type of the C enum name.
func (g *generator) enumType(cname string) (string, error) {
	d, ok := g.enums[cname]
	if !ok {
		return "", fmt.Errorf("enum %s is not declared", cname)
	}
	return d.name, nil
}

func (g *generator) emitEnum(f *jen.File, d *enumDecl) {
	names := toCamel(d.name) + "Names"

	f.Comment(fmt.Sprintf("// %s mirrors the native %s enum.", d.name, d.cname))
	f.Type().Id(d.name).Int32()
	f.Line()

	if len(d.values) > 0 {
		consts := make([]jen.Code, len(d.values))
		for i, v := range d.values {
			consts[i] = jen.Id(v.name).Id(d.name).Op("=").Lit(int(v.value))
		}
		f.Const().Defs(consts...)
		f.Line()
	}

	dict := jen.Dict{}
	for _, v := range d.values {
		if v.alias {
			continue
		}
		dict[jen.Id(v.name)] = jen.Lit(v.cname)
	}
	f.Var().Id(names).Op("=").Map(jen.Id(d.name)).String().Values(dict)
	f.Line()

	f.Comment("// String returns the native constant name.")
	f.Func().Params(jen.Id("v").Id(d.name)).Id("String").Params().String().Block(
		jen.Return(g.rt("EnumName").Call(jen.Id(names), jen.Id("v"), jen.Lit(d.cname))),
	)
	f.Line()

	f.Comment("// Known reports whether v is a declared constant.")
	f.Func().Params(jen.Id("v").Id(d.name)).Id("Known").Params().Bool().Block(
		jen.List(jen.Id("_"), jen.Id("ok")).Op(":=").Id(names).Index(jen.Id("v")),
		jen.Return(jen.Id("ok")),
	)
	f.Line()
}
