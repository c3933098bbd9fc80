package gen

import (
	"bytes"
	"fmt"

	"github.com/chazu/meosbind/cdecl"
	"github.com/chazu/meosbind/classify"
)

// CheckOwnership verifies that every value a wrapper hands to the caller
// as owned has a release function that the generated package can bind.
func CheckOwnership(res *classify.Result, s *cdecl.Surface, defaultRelease string) []*GenerationError {
	var errs []*GenerationError
	for _, fn := range res.Functions {
		owned := ownedValues(fn)
		for _, o := range owned {
			switch {
			case o.release == "":
				errs = append(errs, &GenerationError{Function: fn.Name(), Reason: o.what + " is owned but has no release function"})
			case o.release == defaultRelease:
			default:
				sig, ok := s.Function(o.release)
				if !ok {
					errs = append(errs, &GenerationError{Function: fn.Name(), Reason: fmt.Sprintf("%s: release function %s is not declared", o.what, o.release)})
				} else if !releaseShaped(sig) {
					errs = append(errs, &GenerationError{Function: fn.Name(), Reason: fmt.Sprintf("%s: release function %s does not take a single pointer", o.what, o.release)})
				}
			}
		}
	}
	return errs
}

type ownedValue struct {
	what    string
	release string
}

func ownedValues(fn *classify.Function) []ownedValue {
	var out []ownedValue
	add := func(what string, s classify.Strategy) {
		switch s.Kind {
		case classify.CStringOwned, classify.BytesOut, classify.HandleOwned, classify.OutHandle, classify.OutArray:
			out = append(out, ownedValue{what, s.Release})
		case classify.ArrayOut:
			if s.Elem != classify.HandleBorrowed {
				out = append(out, ownedValue{what, s.Release})
			}
		}
	}
	add("return", fn.Return)
	for i, p := range fn.Params {
		add(fn.Sig.Params[i].Name, p)
	}
	return out
}

// CheckDeterministic generates the bindings twice and compares the output.
func CheckDeterministic(res *classify.Result, s *cdecl.Surface, opts Options) error {
	first, err := Generate(res, s, opts)
	if err != nil {
		return err
	}
	second, err := Generate(res, s, opts)
	if err != nil {
		return err
	}
	if !bytes.Equal(first.Source, second.Source) {
		return fmt.Errorf("generated %s bindings differ between runs", opts.Package)
	}
	return nil
}
