package gen

import (
	"go/token"
	"go/types"
	"strings"
	"unicode"
)

// toPascal converts a string to PascalCase.
// Handles hyphenated and underscore-separated names.
func toPascal(s string) string {
	if len(s) == 0 {
		return s
	}

	var b strings.Builder
	nextUpper := true
	for _, r := range s {
		if r == '-' || r == '_' {
			nextUpper = true
			continue
		}
		if nextUpper {
			b.WriteRune(unicode.ToUpper(r))
			nextUpper = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// toCamel converts a snake_case C name to lowerCamelCase.
// e.g., "intspan_make" → "intspanMake", "lower_inc" → "lowerInc"
func toCamel(s string) string {
	p := toPascal(s)
	if p == "" {
		return p
	}
	r := []rune(p)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// MethodName is the exported Go name of a native function.
// e.g., "intspan_make" → "IntspanMake"
func MethodName(symbol string) string {
	return toPascal(symbol)
}

// FieldName is the unexported Library field holding a bound symbol.
func FieldName(symbol string) string {
	return safeIdent(toCamel(symbol), nil)
}

// EnumTypeName is the Go type of a C enum typedef.
// e.g., "interpType" → "InterpType"
func EnumTypeName(name string) string {
	return toPascal(name)
}

// EnumConstName is the Go constant of an enumerator.
// e.g., "MEOS_ERR_WKB_INPUT" → "MeosErrWkbInput"
func EnumConstName(name string) string {
	return toPascal(strings.ToLower(name))
}

// safeIdent escapes names that would clash with Go keywords, predeclared
// identifiers or a name in reserved by appending underscores.
func safeIdent(name string, reserved map[string]bool) string {
	for token.IsKeyword(name) || types.Universe.Lookup(name) != nil || reserved[name] {
		name += "_"
	}
	return name
}
