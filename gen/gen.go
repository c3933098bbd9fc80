// Package gen emits the Go source of a bindings package from classified
// native functions.
package gen

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/chazu/meosbind/cdecl"
	"github.com/chazu/meosbind/classify"
	"github.com/dave/jennifer/jen"
	"github.com/tliron/commonlog"
	"golang.org/x/tools/imports"
)

var log = commonlog.GetLogger("meosbind.gen")

// DefaultRuntime is the import path of the runtime generated code calls.
const DefaultRuntime = "github.com/chazu/meosbind/meosrt"

// Options control the generated file.
type Options struct {
	Package        string // Go package name
	Header         string // header the bindings were generated from
	Runtime        string // import path of the runtime package
	DefaultRelease string // release symbol served by the runtime's Free
}

// DefaultOptions generate package meos against the bundled runtime.
func DefaultOptions() Options {
	return Options{
		Package:        "meos",
		Header:         "meos.h",
		Runtime:        DefaultRuntime,
		DefaultRelease: "free",
	}
}

// GenerationError reports a classified function no wrapper template can
// express. The function is left out of the generated file.
type GenerationError struct {
	Function string
	Reason   string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Function, e.Reason)
}

// Result is one generated file.
type Result struct {
	Source    []byte
	Functions []string // native symbols wrapped, in output order
	Errors    []*GenerationError
}

type generator struct {
	opts    Options
	surface *cdecl.Surface
	enums   map[string]*enumDecl // by C name
	globals map[string]bool      // package-level Go names
	methods map[string]string    // Go method name -> symbol
	fields  map[string]string    // symbol -> Library field
	natives map[string]*classify.Function
	extra   []string // release symbols bound without a wrapper
	errs    []*GenerationError
}

// Generate renders the bindings for every function of res. Functions that
// cannot be rendered are reported in the result and skipped; the error
// return is reserved for failures to produce the file at all.
func Generate(res *classify.Result, s *cdecl.Surface, opts Options) (*Result, error) {
	if opts.Package == "" {
		opts.Package = "meos"
	}
	if opts.Runtime == "" {
		opts.Runtime = DefaultRuntime
	}
	if opts.DefaultRelease == "" {
		opts.DefaultRelease = "free"
	}
	g := &generator{
		opts:    opts,
		surface: s,
		enums:   make(map[string]*enumDecl),
		globals: map[string]bool{"Library": true, "Open": true},
		methods: make(map[string]string),
		fields:  map[string]string{"": "rt"},
		natives: make(map[string]*classify.Function),
	}
	g.collectEnums()

	var methods []*method
	for _, fn := range res.Functions {
		m, err := g.prepare(fn)
		if err != nil {
			g.fail(fn.Name(), "%v", err)
			continue
		}
		methods = append(methods, m)
	}
	methods = g.resolveReleases(methods)

	f := jen.NewFile(opts.Package)
	f.ImportName(opts.Runtime, "meosrt")
	f.HeaderComment(fmt.Sprintf("Code generated by meosbind from %s. DO NOT EDIT.", filepath.Base(opts.Header)))

	for _, e := range g.sortedEnums() {
		g.emitEnum(f, e)
	}
	g.emitLibrary(f, methods)
	out := &Result{}
	for _, m := range methods {
		g.emitMethod(f, m)
		out.Functions = append(out.Functions, m.sym)
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("rendering %s bindings: %w", opts.Package, err)
	}
	src, err := imports.Process(opts.Package+".go", buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("formatting %s bindings: %w", opts.Package, err)
	}
	out.Source = src
	out.Errors = g.errs
	log.Infof("generated %d wrappers, %d enums, %d skipped", len(methods), len(g.enums), len(g.errs))
	return out, nil
}

func (g *generator) fail(fn, format string, args ...any) {
	e := &GenerationError{Function: fn, Reason: fmt.Sprintf(format, args...)}
	log.Warningf("%s", e)
	g.errs = append(g.errs, e)
}

func (g *generator) rt(name string) *jen.Statement {
	return jen.Qual(g.opts.Runtime, name)
}

// resolveReleases binds the release functions owned values need. A release
// symbol must be the runtime default, a wrapped function of shape
// void f(T *), or a declared function of that shape.
func (g *generator) resolveReleases(methods []*method) []*method {
	for _, m := range methods {
		g.natives[m.sym] = m.fn
	}
	bound := make(map[string]bool)
	var kept []*method
	for _, m := range methods {
		ok := true
		for _, rel := range m.fn.Releases() {
			if rel == g.opts.DefaultRelease || bound[rel] {
				continue
			}
			if err := g.bindRelease(rel); err != nil {
				g.fail(m.sym, "%v", err)
				ok = false
				break
			}
			bound[rel] = true
		}
		if ok {
			kept = append(kept, m)
			continue
		}
		delete(g.natives, m.sym)
		delete(g.methods, m.name)
	}
	return kept
}

func (g *generator) bindRelease(sym string) error {
	if fn, ok := g.natives[sym]; ok {
		if !releaseShaped(&fn.Sig) {
			return fmt.Errorf("release function %s does not take a single pointer", sym)
		}
		return nil
	}
	sig, ok := g.surface.Function(sym)
	if !ok {
		return fmt.Errorf("release function %s is not declared", sym)
	}
	if !releaseShaped(sig) {
		return fmt.Errorf("release function %s does not take a single pointer", sym)
	}
	if _, ok := g.fields[sym]; !ok {
		g.fields[sym] = g.fieldName(sym)
		g.extra = append(g.extra, sym)
	}
	return nil
}

func releaseShaped(sig *cdecl.Signature) bool {
	if len(sig.Params) != 1 || sig.Params[0].Type.Depth() != 1 {
		return false
	}
	return sig.Return.Base == "void" && sig.Return.Pointer == 0
}

// fieldName picks the Library field for sym, unique among fields.
func (g *generator) fieldName(sym string) string {
	name := FieldName(sym)
	taken := func(n string) bool {
		for _, f := range g.fields {
			if f == n {
				return true
			}
		}
		return false
	}
	for taken(name) {
		name += "_"
	}
	return name
}

// release renders the func(uintptr) that releases values from sym.
func (g *generator) release(sym string) *jen.Statement {
	if sym == "" || sym == g.opts.DefaultRelease {
		return jen.Id("lib").Dot("rt").Dot("Free")
	}
	return jen.Id("lib").Dot("rt").Dot("Releaser").Call(jen.Lit(sym), jen.Id("lib").Dot(g.fields[sym]))
}

func (g *generator) emitLibrary(f *jen.File, methods []*method) {
	fields := []jen.Code{
		jen.Id("rt").Op("*").Add(g.rt("Runtime")),
		jen.Line(),
	}
	for _, m := range methods {
		fields = append(fields, jen.Id(m.field).Add(g.nativeFunc(m)))
	}
	for _, sym := range g.extra {
		fields = append(fields, jen.Id(g.fields[sym]).Func().Params(jen.Id("p").Uintptr()))
	}

	f.Comment(fmt.Sprintf("// Library is the bound native surface of %s. Methods are safe", filepath.Base(g.opts.Header)))
	f.Comment("// for concurrent use; native calls are serialized by the runtime.")
	f.Type().Id("Library").Struct(fields...)
	f.Line()

	body := []jen.Code{
		jen.Id("lib").Op(":=").Op("&").Id("Library").Values(jen.Dict{jen.Id("rt"): jen.Id("rt")}),
		jen.Id("b").Op(":=").Add(g.rt("NewBinding")).Call(jen.Id("rt").Dot("Binder")),
	}
	for _, m := range methods {
		body = append(body, jen.Id("b").Dot("Bind").Call(jen.Op("&").Id("lib").Dot(m.field), jen.Lit(m.sym)))
	}
	for _, sym := range g.extra {
		body = append(body, jen.Id("b").Dot("Bind").Call(jen.Op("&").Id("lib").Dot(g.fields[sym]), jen.Lit(sym)))
	}
	body = append(body,
		jen.If(jen.Err().Op(":=").Id("b").Dot("Err").Call(), jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Nil(), jen.Err()),
		),
		jen.Return(jen.Id("lib"), jen.Nil()),
	)

	f.Comment("// Open binds every symbol the methods of Library call. Missing symbols")
	f.Comment("// are reported together.")
	f.Func().Id("Open").Params(jen.Id("rt").Op("*").Add(g.rt("Runtime"))).
		Params(jen.Op("*").Id("Library"), jen.Error()).
		Block(body...)
	f.Line()
}
