package cdecl

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// TokenType classifies lexer tokens.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenNumber
	TokenPunct
	TokenEllipsis
	TokenString
)

// Token is one lexical token of C declaration text.
type Token struct {
	Type  TokenType
	Value string
	Line  int
}

func (t Token) String() string {
	if t.Type == TokenEOF {
		return "EOF"
	}
	return fmt.Sprintf("%q", t.Value)
}

// Lexer tokenizes the subset of C used by declaration headers. Comments and
// preprocessor lines are dropped.
type Lexer struct {
	input   string
	pos     int
	readPos int
	ch      rune
	line    int
	bol     bool // at beginning of line (only whitespace seen)
}

// NewLexer creates a lexer over src.
func NewLexer(src string) *Lexer {
	l := &Lexer{input: src, line: 1, bol: true}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
		l.pos = l.readPos
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.pos = l.readPos
	l.readPos += size
}

func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// advance consumes the current character, tracking lines.
func (l *Lexer) advance() {
	if l.ch == '\n' {
		l.line++
		l.bol = true
	}
	l.readChar()
}

// Tokens returns every token up to and including EOF.
func (l *Lexer) Tokens() []Token {
	var toks []Token
	for {
		t := l.Next()
		toks = append(toks, t)
		if t.Type == TokenEOF {
			return toks
		}
	}
}

// Next returns the next token.
func (l *Lexer) Next() Token {
	for {
		l.skipSpace()
		switch {
		case l.ch == '/' && l.peekChar() == '/':
			l.skipLine()
			continue
		case l.ch == '/' && l.peekChar() == '*':
			l.skipBlockComment()
			continue
		case l.ch == '#' && l.bol:
			l.skipDirective()
			continue
		}
		break
	}
	l.bol = false

	line := l.line
	switch {
	case l.ch == 0:
		return Token{Type: TokenEOF, Line: line}
	case isIdentStart(l.ch):
		start := l.pos
		for isIdentPart(l.ch) {
			l.advance()
		}
		return Token{Type: TokenIdent, Value: l.input[start:l.pos], Line: line}
	case unicode.IsDigit(l.ch):
		start := l.pos
		for isIdentPart(l.ch) || l.ch == '.' {
			l.advance()
		}
		return Token{Type: TokenNumber, Value: l.input[start:l.pos], Line: line}
	case l.ch == '.' && l.peekChar() == '.':
		start := l.pos
		for l.ch == '.' {
			l.advance()
		}
		return Token{Type: TokenEllipsis, Value: l.input[start:l.pos], Line: line}
	case l.ch == '"' || l.ch == '\'':
		quote := l.ch
		start := l.pos
		l.advance()
		for l.ch != quote && l.ch != 0 && l.ch != '\n' {
			if l.ch == '\\' {
				l.advance()
			}
			l.advance()
		}
		l.advance()
		return Token{Type: TokenString, Value: l.input[start:l.pos], Line: line}
	}
	ch := l.ch
	l.advance()
	return Token{Type: TokenPunct, Value: string(ch), Line: line}
}

func (l *Lexer) skipSpace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' || l.ch == '\f' || l.ch == '\v' {
		l.advance()
	}
}

func (l *Lexer) skipLine() {
	for l.ch != '\n' && l.ch != 0 {
		l.advance()
	}
}

func (l *Lexer) skipBlockComment() {
	l.advance()
	l.advance()
	for l.ch != 0 {
		if l.ch == '*' && l.peekChar() == '/' {
			l.advance()
			l.advance()
			return
		}
		l.advance()
	}
}

// skipDirective drops a preprocessor line, honoring backslash continuations.
func (l *Lexer) skipDirective() {
	for l.ch != 0 {
		if l.ch == '\\' && l.peekChar() == '\n' {
			l.advance()
			l.advance()
			continue
		}
		if l.ch == '\n' {
			return
		}
		l.advance()
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
