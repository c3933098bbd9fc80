// Package overrides loads the per-function corrections applied on top of
// automatic classification.
package overrides

import (
	_ "embed"
	"fmt"
	"go/token"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/chazu/meosbind/cdecl"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("meosbind.overrides")

// DefaultSource names the overrides embedded in the binary.
const DefaultSource = "<defaults>"

//go:embed defaults.toml
var defaultsTOML []byte

// Param patches one parameter.
type Param struct {
	Name      string `toml:"name"`
	Direction string `toml:"direction"`
	Ownership string `toml:"ownership"`
	Nullable  bool   `toml:"nullable"`
	Count     string `toml:"count"` // sibling parameter carrying the element count
}

// Entry is the override for one native function.
type Entry struct {
	Function        string  `toml:"function"`
	Rename          string  `toml:"rename"`
	Exclude         bool    `toml:"exclude"`
	Reason          string  `toml:"reason"`
	Body            string  `toml:"body"`
	NoErrorCheck    bool    `toml:"no_error_check"`
	ReturnOwnership string  `toml:"return_ownership"`
	Release         string  `toml:"release"`
	Replace         bool    `toml:"replace"`
	Params          []Param `toml:"param"`

	Source string `toml:"-"`
}

// Param returns the patch for the named parameter.
func (e *Entry) Param(name string) (*Param, bool) {
	for i := range e.Params {
		if e.Params[i].Name == name {
			return &e.Params[i], true
		}
	}
	return nil, false
}

type file struct {
	Overrides []Entry `toml:"override"`
}

// ConfigurationError lists every problem found in an override source.
type ConfigurationError struct {
	Source   string
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("overrides %s: %s", e.Source, strings.Join(e.Problems, "; "))
}

// Registry holds at most one override per function.
type Registry struct {
	entries map[string]*Entry
}

// New builds a registry, rejecting duplicate and contradictory entries.
func New(source string, entries []Entry) (*Registry, error) {
	r := &Registry{entries: make(map[string]*Entry, len(entries))}
	var problems []string
	for i := range entries {
		e := entries[i]
		e.Source = source
		if _, dup := r.entries[e.Function]; dup {
			problems = append(problems, fmt.Sprintf("duplicate override for %s", e.Function))
			continue
		}
		problems = append(problems, checkEntry(&e)...)
		r.entries[e.Function] = &e
	}
	if len(problems) > 0 {
		return nil, &ConfigurationError{Source: source, Problems: problems}
	}
	return r, nil
}

func checkEntry(e *Entry) []string {
	var problems []string
	bad := func(format string, args ...any) {
		problems = append(problems, e.Function+": "+fmt.Sprintf(format, args...))
	}

	if e.Function == "" {
		return []string{"override without function name"}
	}
	if e.Exclude && (e.Rename != "" || e.Body != "" || len(e.Params) > 0 || e.ReturnOwnership != "" || e.Release != "") {
		bad("excluded function cannot also be patched")
	}
	if e.Rename != "" && (!token.IsIdentifier(e.Rename) || !token.IsExported(e.Rename)) {
		bad("rename %q is not an exported Go identifier", e.Rename)
	}
	switch e.ReturnOwnership {
	case "", "transferred-out":
	case "borrowed":
		if e.Release != "" {
			bad("borrowed return cannot have a release function")
		}
	default:
		bad("invalid return_ownership %q", e.ReturnOwnership)
	}

	seen := make(map[string]bool)
	for _, p := range e.Params {
		if p.Name == "" {
			bad("parameter patch without name")
			continue
		}
		if seen[p.Name] {
			bad("parameter %s patched twice", p.Name)
		}
		seen[p.Name] = true

		dir := cdecl.In
		if p.Direction != "" {
			d, err := cdecl.ParseDirection(p.Direction)
			if err != nil {
				bad("parameter %s: %v", p.Name, err)
			}
			dir = d
		}
		if p.Ownership != "" {
			own, err := cdecl.ParseOwnership(p.Ownership)
			if err != nil {
				bad("parameter %s: %v", p.Name, err)
			}
			if own == cdecl.TransferredIn && dir != cdecl.In {
				bad("parameter %s: transferred-in ownership on an %s parameter", p.Name, dir)
			}
			if own == cdecl.TransferredOut && dir == cdecl.In {
				bad("parameter %s: transferred-out ownership on an input parameter", p.Name)
			}
		}
		if p.Nullable && dir == cdecl.Out {
			bad("parameter %s: output parameter cannot be nullable", p.Name)
		}
		if p.Count == p.Name {
			bad("parameter %s: counts itself", p.Name)
		}
	}
	return problems
}

// Parse validates and decodes override TOML.
func Parse(source string, data []byte) (*Registry, error) {
	if err := validate(source, data); err != nil {
		return nil, err
	}
	var f file
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("overrides %s: %w", source, err)
	}
	return New(source, f.Overrides)
}

// Load reads an override file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read overrides: %w", err)
	}
	r, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	log.Infof("loaded %d overrides from %s", r.Len(), path)
	return r, nil
}

// Default returns the overrides every MEOS binding needs.
func Default() (*Registry, error) {
	return Parse(DefaultSource, defaultsTOML)
}

// Merge returns a registry holding the entries of r and other. An entry of
// other for a function r already covers must set replace.
func (r *Registry) Merge(other *Registry) (*Registry, error) {
	out := &Registry{entries: make(map[string]*Entry, len(r.entries)+len(other.entries))}
	for name, e := range r.entries {
		out.entries[name] = e
	}
	var problems []string
	source := ""
	for _, name := range other.Names() {
		e := other.entries[name]
		source = e.Source
		if prev, ok := out.entries[name]; ok && !e.Replace {
			problems = append(problems, fmt.Sprintf("%s: already overridden in %s (set replace = true)", name, prev.Source))
			continue
		}
		out.entries[name] = e
	}
	if len(problems) > 0 {
		return nil, &ConfigurationError{Source: source, Problems: problems}
	}
	return out, nil
}

// Lookup returns the override for a function.
func (r *Registry) Lookup(function string) (*Entry, bool) {
	if r == nil {
		return nil, false
	}
	e, ok := r.entries[function]
	return e, ok
}

// Len is the number of overrides.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Names returns the overridden function names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Check compares the overrides against a parsed surface. Overrides for
// functions the surface lacks are reported as warnings; patches naming
// parameters a function lacks are errors.
func (r *Registry) Check(s *cdecl.Surface) ([]string, error) {
	var warnings, problems []string
	for _, name := range r.Names() {
		e := r.entries[name]
		sig, ok := s.Function(name)
		if !ok {
			msg := fmt.Sprintf("override for unknown function %s", name)
			if e.Source == DefaultSource {
				log.Debugf("%s", msg)
				continue
			}
			log.Warningf("%s (%s)", msg, e.Source)
			warnings = append(warnings, msg)
			continue
		}
		for _, p := range e.Params {
			if _, ok := sig.Param(p.Name); !ok {
				problems = append(problems, fmt.Sprintf("%s: no parameter %s", name, p.Name))
			}
			if p.Count != "" {
				if _, ok := sig.Param(p.Count); !ok {
					problems = append(problems, fmt.Sprintf("%s: count parameter %s not found", name, p.Count))
				}
			}
		}
	}
	if len(problems) > 0 {
		return warnings, &ConfigurationError{Source: "overrides", Problems: problems}
	}
	return warnings, nil
}
