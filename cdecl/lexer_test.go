package cdecl

import (
	"testing"
)

func TestLexer_Tokens(t *testing.T) {
	src := "extern const char *span_out(const Span *s, int maxdd);"
	toks := NewLexer(src).Tokens()

	want := []struct {
		typ TokenType
		val string
	}{
		{TokenIdent, "extern"},
		{TokenIdent, "const"},
		{TokenIdent, "char"},
		{TokenPunct, "*"},
		{TokenIdent, "span_out"},
		{TokenPunct, "("},
		{TokenIdent, "const"},
		{TokenIdent, "Span"},
		{TokenPunct, "*"},
		{TokenIdent, "s"},
		{TokenPunct, ","},
		{TokenIdent, "int"},
		{TokenIdent, "maxdd"},
		{TokenPunct, ")"},
		{TokenPunct, ";"},
		{TokenEOF, ""},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, w := range want {
		if toks[i].Type != w.typ || toks[i].Value != w.val {
			t.Errorf("token %d = (%d, %q), want (%d, %q)", i, toks[i].Type, toks[i].Value, w.typ, w.val)
		}
	}
}

func TestLexer_SkipsCommentsAndDirectives(t *testing.T) {
	src := `/* block
comment */
#include <stdint.h>
#define LONG_MACRO(x) \
    ((x) + 1)
// line comment
int a; /* trailing */
`
	toks := NewLexer(src).Tokens()
	var vals []string
	for _, tok := range toks {
		if tok.Type != TokenEOF {
			vals = append(vals, tok.Value)
		}
	}
	if len(vals) != 3 || vals[0] != "int" || vals[1] != "a" || vals[2] != ";" {
		t.Fatalf("unexpected tokens %v", vals)
	}
	if toks[0].Line != 7 {
		t.Errorf("line = %d, want 7", toks[0].Line)
	}
}

func TestLexer_HashInsideLineIsPunct(t *testing.T) {
	toks := NewLexer("a # b").Tokens()
	if len(toks) != 4 || toks[1].Type != TokenPunct || toks[1].Value != "#" {
		t.Fatalf("unexpected tokens %v", toks)
	}
}

func TestLexer_EllipsisAndNumbers(t *testing.T) {
	toks := NewLexer("f(int n, ...) 0x1F 10UL").Tokens()
	var got []Token
	for _, tok := range toks {
		if tok.Type == TokenEllipsis || tok.Type == TokenNumber {
			got = append(got, tok)
		}
	}
	if len(got) != 3 {
		t.Fatalf("got %v", got)
	}
	if got[0].Value != "..." || got[1].Value != "0x1F" || got[2].Value != "10UL" {
		t.Errorf("got %v", got)
	}
}

func TestLexer_String(t *testing.T) {
	toks := NewLexer(`x = "a\"b";`).Tokens()
	if toks[2].Type != TokenString || toks[2].Value != `"a\"b"` {
		t.Errorf("got %v", toks[2])
	}
}
