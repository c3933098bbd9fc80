package cdecl

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("meosbind.cdecl")

// MaxPointerDepth is the deepest indirection the surface uses.
const MaxPointerDepth = 2

var storageClasses = map[string]bool{
	"extern":        true,
	"static":        true,
	"inline":        true,
	"__inline":      true,
	"__extension__": true,
}

var typeKeywords = map[string]bool{
	"void": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "signed": true, "unsigned": true,
	"bool": true, "_Bool": true, "const": true, "volatile": true,
	"struct": true, "enum": true, "union": true,
}

// Parser turns header text into a Surface. It never fails as a whole: a
// declaration it cannot read is recorded in Surface.Skipped.
type Parser struct {
	toks    []Token
	pos     int
	surface *Surface
	seen    map[string]bool
}

// Parse parses header text.
func Parse(src string) *Surface {
	p := &Parser{
		toks:    NewLexer(src).Tokens(),
		surface: &Surface{},
		seen:    make(map[string]bool),
	}
	p.run()
	return p.surface
}

// ParseFile reads and parses a header file.
func ParseFile(path string) (*Surface, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	s := Parse(string(data))
	log.Infof("parsed %s: %d functions, %d typedefs, %d skipped",
		path, len(s.Functions), len(s.Typedefs), len(s.Skipped))
	return s, nil
}

func (p *Parser) run() {
	for {
		decl, ok := p.nextDecl()
		if !ok {
			return
		}
		if len(decl) == 0 {
			continue
		}
		if err := p.declaration(decl); err != nil {
			log.Warningf("skipping declaration: %s", err)
			p.surface.Skipped = append(p.surface.Skipped, *err)
		}
	}
}

// nextDecl collects tokens up to the next top-level semicolon. A brace
// block that follows a parameter list (a function body) also ends the
// declaration. A semicolon outside braces always ends it, so one
// malformed prototype cannot swallow the declarations after it.
func (p *Parser) nextDecl() ([]Token, bool) {
	if p.toks[p.pos].Type == TokenEOF {
		return nil, false
	}
	var decl []Token
	braces, parens := 0, 0
	bodyDepth := -1
	for {
		t := p.toks[p.pos]
		if t.Type == TokenEOF {
			if len(decl) > 0 {
				p.surface.Skipped = append(p.surface.Skipped, ParseError{
					Line: decl[0].Line, Reason: "unterminated declaration",
				})
			}
			return nil, false
		}
		p.pos++
		if t.Type == TokenPunct {
			switch t.Value {
			case "{":
				if braces == 0 && parens == 0 && len(decl) > 0 && decl[len(decl)-1].Value == ")" {
					bodyDepth = braces
				}
				braces++
			case "(", "[":
				parens++
			case "}":
				if braces == 0 {
					p.malformed(decl, t, "unexpected }")
					return nil, true
				}
				braces--
				if bodyDepth >= 0 && braces == bodyDepth {
					log.Debugf("line %d: skipping function definition", decl[0].Line)
					return nil, true
				}
			case ")", "]":
				if parens > 0 {
					parens--
				} else if braces == 0 {
					p.malformed(decl, t, "unexpected "+t.Value)
					return nil, true
				}
			case ";":
				if braces > 0 {
					break
				}
				if parens > 0 {
					p.malformed(decl, t, "unbalanced parentheses")
					return nil, true
				}
				return decl, true
			}
		}
		if bodyDepth < 0 {
			decl = append(decl, t)
		}
	}
}

// malformed records the declaration collected so far as skipped.
func (p *Parser) malformed(decl []Token, at Token, reason string) {
	e := ParseError{Line: at.Line, Reason: reason}
	if len(decl) > 0 {
		e.Line = decl[0].Line
		if open := indexPunct(decl, "("); open > 0 && decl[open-1].Type == TokenIdent {
			e.Name = decl[open-1].Value
		}
	}
	log.Warningf("skipping declaration: %s", &e)
	p.surface.Skipped = append(p.surface.Skipped, e)
}

func (p *Parser) declaration(toks []Token) *ParseError {
	for len(toks) > 0 && storageClasses[toks[0].Value] {
		toks = toks[1:]
	}
	if len(toks) == 0 {
		return nil
	}
	if toks[0].Value == "typedef" {
		return p.typedef(toks[1:])
	}
	if indexPunct(toks, "(") >= 0 {
		return p.function(toks)
	}
	switch toks[0].Value {
	case "struct", "union":
		if len(toks) >= 2 && toks[1].Type == TokenIdent {
			p.addStruct(toks[1].Value)
		}
		return nil
	case "enum":
		if open := indexPunct(toks, "{"); open >= 0 && len(toks) >= 2 && toks[1].Type == TokenIdent {
			closeIdx := matching(toks, open)
			if closeIdx < 0 {
				return &ParseError{Line: toks[0].Line, Reason: "unbalanced enum body"}
			}
			values, err := p.enumerators(toks[open+1 : closeIdx])
			if err != nil {
				return err
			}
			p.surface.Enums = append(p.surface.Enums, Enum{Name: toks[1].Value, Values: values})
		}
		return nil
	}
	log.Debugf("line %d: ignoring non-function declaration", toks[0].Line)
	return nil
}

func (p *Parser) function(toks []Token) *ParseError {
	open := indexPunct(toks, "(")
	line := toks[0].Line
	if open < 1 || toks[open-1].Type != TokenIdent || typeKeywords[toks[open-1].Value] {
		return &ParseError{Line: line, Reason: "function pointer declaration requires override"}
	}
	name := toks[open-1].Value
	if open+1 < len(toks) && toks[open+1].Value == "*" {
		return &ParseError{Line: line, Name: name, Reason: "function returning function pointer requires override"}
	}
	closeIdx := matching(toks, open)
	if closeIdx < 0 {
		return &ParseError{Line: line, Name: name, Reason: "unbalanced parameter list"}
	}
	if closeIdx != len(toks)-1 {
		return &ParseError{Line: line, Name: name, Reason: fmt.Sprintf("unexpected %s after parameter list", toks[closeIdx+1])}
	}
	if p.seen[name] {
		return &ParseError{Line: line, Name: name, Reason: "duplicate declaration"}
	}

	ret, err := parseType(toks[:open-1])
	if err != nil {
		return &ParseError{Line: line, Name: name, Reason: "return type: " + err.Error()}
	}
	sig := Signature{Name: name, Return: ret, Line: line}

	groups := splitTopLevel(toks[open+1 : closeIdx])
	if len(groups) == 1 && len(groups[0]) == 1 && groups[0][0].Value == "void" {
		groups = nil
	}
	for i, g := range groups {
		if len(g) == 0 {
			return &ParseError{Line: line, Name: name, Reason: "empty parameter"}
		}
		if g[0].Type == TokenEllipsis {
			return &ParseError{Line: line, Name: name, Reason: "variadic function not supported"}
		}
		if indexPunct(g, "(") >= 0 {
			return &ParseError{Line: line, Name: name, Reason: "function pointer parameter requires override"}
		}
		param, err := parseParam(g, i)
		if err != nil {
			return &ParseError{Line: line, Name: name, Reason: fmt.Sprintf("parameter %d: %v", i, err)}
		}
		sig.Params = append(sig.Params, param)
	}

	p.seen[name] = true
	p.surface.Functions = append(p.surface.Functions, sig)
	return nil
}

func (p *Parser) typedef(toks []Token) *ParseError {
	if len(toks) < 2 {
		return &ParseError{Line: lineOf(toks), Reason: "incomplete typedef"}
	}
	line := toks[0].Line
	switch toks[0].Value {
	case "struct", "union":
		if open := indexPunct(toks, "{"); open >= 0 {
			closeIdx := matching(toks, open)
			if closeIdx < 0 {
				return &ParseError{Line: line, Reason: "unbalanced struct body"}
			}
			if open == 2 && toks[1].Type == TokenIdent {
				p.addStruct(toks[1].Value)
			}
			return p.structAlias(toks[closeIdx+1:], "", line)
		}
		if toks[1].Type != TokenIdent {
			return &ParseError{Line: line, Reason: "struct typedef without tag"}
		}
		p.addStruct(toks[1].Value)
		return p.structAlias(toks[2:], toks[1].Value, line)

	case "enum":
		var values []Enumerator
		rest := toks[1:]
		if open := indexPunct(toks, "{"); open >= 0 {
			closeIdx := matching(toks, open)
			if closeIdx < 0 {
				return &ParseError{Line: line, Reason: "unbalanced enum body"}
			}
			vals, err := p.enumerators(toks[open+1 : closeIdx])
			if err != nil {
				return err
			}
			values = vals
			rest = toks[closeIdx+1:]
		} else if len(rest) > 0 && rest[0].Type == TokenIdent {
			if e, ok := p.surface.Enum(rest[0].Value); ok {
				values = e.Values
			}
			rest = rest[1:]
		}
		if len(rest) != 1 || rest[0].Type != TokenIdent {
			return &ParseError{Line: line, Reason: "malformed enum typedef"}
		}
		name := rest[0].Value
		p.surface.Enums = append(p.surface.Enums, Enum{Name: name, Values: values})
		p.surface.Typedefs = append(p.surface.Typedefs, Typedef{Name: name, Enum: true})
		return nil
	}

	if open := indexPunct(toks, "("); open >= 0 {
		// ret (*name)(params)
		if open+3 < len(toks) && toks[open+1].Value == "*" && toks[open+2].Type == TokenIdent && toks[open+3].Value == ")" {
			p.surface.Typedefs = append(p.surface.Typedefs, Typedef{Name: toks[open+2].Value, Func: true})
			return nil
		}
		return &ParseError{Line: line, Reason: "unsupported function typedef"}
	}

	last := toks[len(toks)-1]
	if last.Type != TokenIdent {
		return &ParseError{Line: line, Reason: "typedef without name"}
	}
	target, err := parseType(toks[:len(toks)-1])
	if err != nil {
		return &ParseError{Line: line, Name: last.Value, Reason: err.Error()}
	}
	p.surface.Typedefs = append(p.surface.Typedefs, Typedef{
		Name:    last.Value,
		Target:  target.Base,
		Pointer: target.Pointer,
	})
	return nil
}

// structAlias handles the declarator part of a struct typedef: "Name",
// "*Name", or "Name, *NamePtr".
func (p *Parser) structAlias(decl []Token, tag string, line int) *ParseError {
	if len(decl) == 0 {
		return &ParseError{Line: line, Reason: "struct typedef without name"}
	}
	for _, g := range splitTopLevel(decl) {
		stars := 0
		for len(g) > 0 && g[0].Value == "*" {
			stars++
			g = g[1:]
		}
		if len(g) != 1 || g[0].Type != TokenIdent {
			return &ParseError{Line: line, Reason: "malformed struct typedef"}
		}
		name := g[0].Value
		switch {
		case stars == 0:
			p.surface.Typedefs = append(p.surface.Typedefs, Typedef{Name: name, Struct: true})
		case tag == "":
			return &ParseError{Line: line, Name: name, Reason: "pointer typedef of anonymous struct"}
		default:
			p.surface.Typedefs = append(p.surface.Typedefs, Typedef{Name: name, Target: tag, Pointer: stars})
		}
	}
	return nil
}

func (p *Parser) addStruct(tag string) {
	for _, s := range p.surface.Structs {
		if s == tag {
			return
		}
	}
	p.surface.Structs = append(p.surface.Structs, tag)
}

func (p *Parser) enumerators(body []Token) ([]Enumerator, *ParseError) {
	var values []Enumerator
	next := int64(0)
	for _, g := range splitTopLevel(body) {
		if len(g) == 0 {
			continue // trailing comma
		}
		if g[0].Type != TokenIdent {
			return nil, &ParseError{Line: g[0].Line, Reason: "malformed enumerator"}
		}
		v := next
		if len(g) > 1 {
			if g[1].Value != "=" {
				return nil, &ParseError{Line: g[0].Line, Name: g[0].Value, Reason: "malformed enumerator"}
			}
			val, err := evalConst(g[2:], values)
			if err != nil {
				return nil, &ParseError{Line: g[0].Line, Name: g[0].Value, Reason: err.Error()}
			}
			v = val
		}
		values = append(values, Enumerator{Name: g[0].Value, Value: v})
		next = v + 1
	}
	return values, nil
}

// evalConst evaluates the integer constant expressions found in enum
// initializers: literals, earlier enumerators, unary minus, and the binary
// operators + - | << evaluated left to right.
func evalConst(toks []Token, known []Enumerator) (int64, error) {
	if len(toks) == 0 {
		return 0, fmt.Errorf("empty initializer")
	}
	operand := func() (int64, error) {
		neg := false
		if len(toks) > 0 && toks[0].Value == "-" {
			neg = true
			toks = toks[1:]
		}
		if len(toks) == 0 {
			return 0, fmt.Errorf("missing operand")
		}
		t := toks[0]
		toks = toks[1:]
		var v int64
		switch t.Type {
		case TokenNumber:
			n, err := strconv.ParseInt(strings.TrimRight(t.Value, "uUlL"), 0, 64)
			if err != nil {
				return 0, fmt.Errorf("bad literal %s", t.Value)
			}
			v = n
		case TokenIdent:
			found := false
			for _, e := range known {
				if e.Name == t.Value {
					v, found = e.Value, true
				}
			}
			if !found {
				return 0, fmt.Errorf("unknown constant %s", t.Value)
			}
		default:
			return 0, fmt.Errorf("unsupported initializer %s", t)
		}
		if neg {
			v = -v
		}
		return v, nil
	}

	acc, err := operand()
	if err != nil {
		return 0, err
	}
	for len(toks) > 0 {
		op := toks[0].Value
		toks = toks[1:]
		if op == "<" {
			if len(toks) == 0 || toks[0].Value != "<" {
				return 0, fmt.Errorf("unsupported operator <")
			}
			toks = toks[1:]
			op = "<<"
		}
		rhs, err := operand()
		if err != nil {
			return 0, err
		}
		switch op {
		case "+":
			acc += rhs
		case "-":
			acc -= rhs
		case "|":
			acc |= rhs
		case "<<":
			acc <<= uint(rhs)
		default:
			return 0, fmt.Errorf("unsupported operator %s", op)
		}
	}
	return acc, nil
}

// parseType reads qualifiers, base words and stars. A const after the first
// star qualifies the pointer itself and is ignored.
func parseType(toks []Token) (Type, error) {
	var t Type
	var words []string
	for _, tok := range toks {
		switch {
		case tok.Value == "const" || tok.Value == "volatile":
			if t.Pointer == 0 && tok.Value == "const" {
				t.Const = true
			}
		case tok.Value == "struct" || tok.Value == "enum" || tok.Value == "union":
		case tok.Value == "*":
			t.Pointer++
		case tok.Type == TokenIdent:
			if t.Pointer > 0 {
				return Type{}, fmt.Errorf("unexpected %s after *", tok)
			}
			words = append(words, tok.Value)
		default:
			return Type{}, fmt.Errorf("unexpected %s in type", tok)
		}
	}
	if len(words) == 0 {
		return Type{}, fmt.Errorf("missing base type")
	}
	if t.Pointer > MaxPointerDepth {
		return Type{}, fmt.Errorf("pointer depth %d not supported", t.Pointer)
	}
	t.Base = strings.Join(words, " ")
	return t, nil
}

func parseParam(toks []Token, index int) (Param, error) {
	array := false
	if toks[len(toks)-1].Value == "]" {
		open := indexPunct(toks, "[")
		if open < 0 {
			return Param{}, fmt.Errorf("unbalanced []")
		}
		toks = toks[:open]
		array = true
	}
	if len(toks) == 0 {
		return Param{}, fmt.Errorf("missing type")
	}

	name := ""
	last := toks[len(toks)-1]
	if len(toks) > 1 && last.Type == TokenIdent && !typeKeywords[last.Value] && hasBaseWord(toks[:len(toks)-1]) {
		name = last.Value
		toks = toks[:len(toks)-1]
	}
	if name == "" {
		name = fmt.Sprintf("arg%d", index)
	}

	t, err := parseType(toks)
	if err != nil {
		return Param{}, err
	}
	if array {
		t.Array = true
		if t.Depth() > MaxPointerDepth {
			return Param{}, fmt.Errorf("pointer depth %d not supported", t.Depth())
		}
	}
	return Param{Name: name, Type: t}, nil
}

func hasBaseWord(toks []Token) bool {
	for _, t := range toks {
		if t.Type != TokenIdent {
			continue
		}
		switch t.Value {
		case "const", "volatile", "struct", "enum", "union":
			continue
		}
		return true
	}
	return false
}

func splitTopLevel(toks []Token) [][]Token {
	if len(toks) == 0 {
		return nil
	}
	var groups [][]Token
	depth := 0
	start := 0
	for i, t := range toks {
		if t.Type != TokenPunct {
			continue
		}
		switch t.Value {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case ",":
			if depth == 0 {
				groups = append(groups, toks[start:i])
				start = i + 1
			}
		}
	}
	return append(groups, toks[start:])
}

func indexPunct(toks []Token, v string) int {
	for i, t := range toks {
		if t.Type == TokenPunct && t.Value == v {
			return i
		}
	}
	return -1
}

// matching returns the index of the bracket closing toks[open], or -1.
func matching(toks []Token, open int) int {
	pairs := map[string]string{"(": ")", "[": "]", "{": "}"}
	want := pairs[toks[open].Value]
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].Value {
		case toks[open].Value:
			depth++
		case want:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func lineOf(toks []Token) int {
	if len(toks) == 0 {
		return 0
	}
	return toks[0].Line
}
