package gen

import (
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"strings"

	"golang.org/x/tools/go/packages"
)

// ValidationError is a problem found in generated source.
type ValidationError struct {
	Line     int
	Column   int
	Function string // function or method containing the error
	Receiver string // receiver type for methods
	Message  string
}

// Validator parses and type-checks generated source in memory.
type Validator struct {
	filename string
	fset     *token.FileSet

	// Unresolved lists import paths whose failure to import is not an
	// error. Uses of such packages are not checked.
	Unresolved []string
}

// NewValidator creates a validator for the given filename (used in error
// messages).
func NewValidator(filename string) *Validator {
	return &Validator{filename: filename}
}

// Validate returns every parse and type error in source.
func (v *Validator) Validate(source []byte) []ValidationError {
	v.fset = token.NewFileSet()

	file, err := parser.ParseFile(v.fset, v.filename, source, parser.AllErrors|parser.ParseComments)
	if err != nil {
		return parseErrors(err)
	}
	funcs := v.functionMap(file)

	var errs []ValidationError
	conf := types.Config{
		Importer: importer.Default(),
		Error: func(err error) {
			terr, ok := err.(types.Error)
			if !ok {
				return
			}
			if v.tolerated(terr.Msg) {
				return
			}
			pos := v.fset.Position(terr.Pos)
			fn := funcs[pos.Line]
			if fn == nil {
				fn = &functionInfo{Name: "<package>"}
			}
			errs = append(errs, ValidationError{
				Line:     pos.Line,
				Column:   pos.Column,
				Function: fn.Name,
				Receiver: fn.Receiver,
				Message:  terr.Msg,
			})
		},
	}
	_, _ = conf.Check(file.Name.Name, v.fset, []*ast.File{file}, nil)
	return errs
}

func (v *Validator) tolerated(msg string) bool {
	if !strings.HasPrefix(msg, "could not import ") {
		return false
	}
	for _, path := range v.Unresolved {
		if strings.HasPrefix(msg, "could not import "+path+" ") {
			return true
		}
	}
	return false
}

func parseErrors(err error) []ValidationError {
	list, ok := err.(scanner.ErrorList)
	if !ok {
		return []ValidationError{{Line: 1, Column: 1, Message: err.Error()}}
	}
	out := make([]ValidationError, len(list))
	for i, e := range list {
		out[i] = ValidationError{Line: e.Pos.Line, Column: e.Pos.Column, Message: e.Msg}
	}
	return out
}

type functionInfo struct {
	Name     string
	Receiver string
}

func (v *Validator) functionMap(file *ast.File) map[int]*functionInfo {
	funcs := make(map[int]*functionInfo)
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		info := &functionInfo{Name: fn.Name.Name}
		if fn.Recv != nil && len(fn.Recv.List) > 0 {
			info.Receiver = receiverType(fn.Recv.List[0].Type)
		}
		start := v.fset.Position(fn.Pos()).Line
		end := v.fset.Position(fn.End()).Line
		for line := start; line <= end; line++ {
			funcs[line] = info
		}
	}
	return funcs
}

func receiverType(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		if ident, ok := t.X.(*ast.Ident); ok {
			return "*" + ident.Name
		}
	}
	return ""
}

// FormatValidationErrors returns a human-readable error report.
func FormatValidationErrors(errs []ValidationError) string {
	var sb strings.Builder
	for _, err := range errs {
		sb.WriteString("  ")
		fmt.Fprintf(&sb, "%d:%d: ", err.Line, err.Column)
		if err.Function != "" && err.Function != "<package>" {
			if err.Receiver != "" {
				sb.WriteString("(" + err.Receiver + ")." + err.Function)
			} else {
				sb.WriteString(err.Function)
			}
			sb.WriteString(": ")
		}
		sb.WriteString(err.Message)
		sb.WriteString("\n")
	}
	return sb.String()
}

// TypeCheck loads the package in dir with the go toolchain and reports its
// type errors. It checks generated code against the real runtime package.
func TypeCheck(dir string) error {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedSyntax,
		Dir:  dir,
	}
	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		return fmt.Errorf("loading %s: %w", dir, err)
	}
	if len(pkgs) == 0 {
		return fmt.Errorf("no packages found in %s", dir)
	}
	var msgs []string
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		for _, e := range p.Errors {
			msgs = append(msgs, e.Error())
		}
	})
	if len(msgs) > 0 {
		return fmt.Errorf("package errors in %s:\n  %s", dir, strings.Join(msgs, "\n  "))
	}
	return nil
}
