package meosrt

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrSymbolNotFound is wrapped by SymbolError when a symbol is missing.
var ErrSymbolNotFound = errors.New("symbol not found")

// Binder resolves native symbols into typed Go function values.
type Binder interface {
	// Bind points *fptr, a pointer to a func variable, at symbol.
	Bind(fptr any, symbol string) error
}

// SymbolError reports a symbol that could not be bound.
type SymbolError struct {
	Symbol string
	Err    error
}

func (e *SymbolError) Error() string { return fmt.Sprintf("bind %s: %v", e.Symbol, e.Err) }
func (e *SymbolError) Unwrap() error { return e.Err }

// Binding binds a batch of symbols and collects every failure, so a
// library missing several symbols reports all of them at once.
type Binding struct {
	b    Binder
	errs []error
}

// NewBinding starts a batch on b.
func NewBinding(b Binder) *Binding {
	return &Binding{b: b}
}

// Bind binds one symbol, recording any failure.
func (b *Binding) Bind(fptr any, symbol string) {
	if err := b.b.Bind(fptr, symbol); err != nil {
		b.errs = append(b.errs, err)
	}
}

// Err joins the failures seen so far.
func (b *Binding) Err() error {
	return errors.Join(b.errs...)
}

// FuncTable binds symbols to Go implementations with the exact Go type of
// the target func variable. It serves in-process stand-ins for the native
// library.
type FuncTable map[string]any

func (t FuncTable) Bind(fptr any, symbol string) error {
	impl, ok := t[symbol]
	if !ok {
		return &SymbolError{Symbol: symbol, Err: ErrSymbolNotFound}
	}
	dst := reflect.ValueOf(fptr)
	if dst.Kind() != reflect.Pointer || dst.Elem().Kind() != reflect.Func {
		return &SymbolError{Symbol: symbol, Err: fmt.Errorf("target must be a pointer to a func, got %T", fptr)}
	}
	src := reflect.ValueOf(impl)
	if !src.IsValid() || src.Type() != dst.Elem().Type() {
		return &SymbolError{Symbol: symbol, Err: fmt.Errorf("signature mismatch: have %T, want %s", impl, dst.Elem().Type())}
	}
	dst.Elem().Set(src)
	return nil
}
