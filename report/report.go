// Package report aggregates the problems a binding run collects across
// parsing, override checking, classification and generation.
package report

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/chazu/meosbind/cdecl"
	"github.com/chazu/meosbind/classify"
	"github.com/chazu/meosbind/gen"
	"github.com/chazu/meosbind/overrides"
)

// Stage is the pipeline step that raised an issue.
type Stage string

const (
	StageParse     Stage = "parse"
	StageOverrides Stage = "overrides"
	StageClassify  Stage = "classify"
	StageGenerate  Stage = "generate"
	StageOwnership Stage = "ownership"
)

// stageOrder is the order stages run in.
var stageOrder = map[Stage]int{
	StageParse:     0,
	StageOverrides: 1,
	StageClassify:  2,
	StageGenerate:  3,
	StageOwnership: 4,
}

// Issue is one problem found during a run.
type Issue struct {
	Stage    Stage
	Function string // empty when not tied to a function
	Line     int    // header line, 0 when unknown
	Reason   string
	Fatal    bool
}

func (i Issue) String() string {
	var b strings.Builder
	b.WriteString(string(i.Stage))
	if i.Line > 0 {
		fmt.Fprintf(&b, ":%d", i.Line)
	}
	if i.Function != "" {
		fmt.Fprintf(&b, ": %s", i.Function)
	}
	fmt.Fprintf(&b, ": %s", i.Reason)
	return b.String()
}

// key identifies an issue across runs.
func (i Issue) key() string {
	return string(i.Stage) + "\x00" + i.Function + "\x00" + i.Reason
}

// Report is the outcome of one run over a header.
type Report struct {
	Header      string
	Fingerprint string
	Generated   time.Time

	Declared int      // functions parsed from the header
	Excluded []string // functions removed by overrides
	Wrapped  []string // functions with a generated wrapper

	Issues   []Issue
	Warnings []string
}

// New starts a report for the parsed surface s.
func New(header string, s *cdecl.Surface) (*Report, error) {
	fp, err := s.Fingerprint()
	if err != nil {
		return nil, err
	}
	r := &Report{
		Header:      header,
		Fingerprint: fp,
		Generated:   time.Now().UTC(),
		Declared:    len(s.Functions),
	}
	for _, e := range s.Skipped {
		r.Issues = append(r.Issues, Issue{Stage: StageParse, Function: e.Name, Line: e.Line, Reason: e.Reason})
	}
	return r, nil
}

// AddOverrides records the outcome of checking overrides against the
// surface. Configuration errors are fatal.
func (r *Report) AddOverrides(warnings []string, err error) {
	r.Warnings = append(r.Warnings, warnings...)
	if err == nil {
		return
	}
	var ce *overrides.ConfigurationError
	if !errors.As(err, &ce) {
		r.Issues = append(r.Issues, Issue{Stage: StageOverrides, Reason: err.Error(), Fatal: true})
		return
	}
	for _, p := range ce.Problems {
		r.Issues = append(r.Issues, Issue{Stage: StageOverrides, Reason: ce.Source + ": " + p, Fatal: true})
	}
}

// AddClassification records unresolved and excluded functions.
func (r *Report) AddClassification(res *classify.Result) {
	for _, e := range res.Excluded {
		r.Excluded = append(r.Excluded, e.Function)
	}
	for _, e := range res.Errors {
		reason := e.Reason
		if e.Param != "" {
			reason = e.Param + ": " + reason
		}
		r.Issues = append(r.Issues, Issue{Stage: StageClassify, Function: e.Function, Reason: reason})
	}
}

// AddOwnership records ownership check failures, which are fatal.
func (r *Report) AddOwnership(errs []*gen.GenerationError) {
	for _, e := range errs {
		r.Issues = append(r.Issues, Issue{Stage: StageOwnership, Function: e.Function, Reason: e.Reason, Fatal: true})
	}
}

// AddGeneration records the wrapped functions and those the generator
// rejected.
func (r *Report) AddGeneration(res *gen.Result) {
	r.Wrapped = append(r.Wrapped, res.Functions...)
	for _, e := range res.Errors {
		r.Issues = append(r.Issues, Issue{Stage: StageGenerate, Function: e.Function, Reason: e.Reason})
	}
}

// Sort orders issues by stage, then line, then function.
func (r *Report) Sort() {
	sort.SliceStable(r.Issues, func(i, j int) bool {
		a, b := r.Issues[i], r.Issues[j]
		if a.Stage != b.Stage {
			return stageOrder[a.Stage] < stageOrder[b.Stage]
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Function < b.Function
	})
}

// Count returns the number of issues raised in stage.
func (r *Report) Count(stage Stage) int {
	n := 0
	for _, i := range r.Issues {
		if i.Stage == stage {
			n++
		}
	}
	return n
}

// Err returns the fatal issues joined into one error, or nil.
func (r *Report) Err() error {
	var errs []error
	for _, i := range r.Issues {
		if i.Fatal {
			errs = append(errs, errors.New(i.String()))
		}
	}
	return errors.Join(errs...)
}

// Write renders a human readable summary.
func (r *Report) Write(w io.Writer) error {
	r.Sort()
	var b strings.Builder
	fmt.Fprintf(&b, "%s (surface %s)\n", r.Header, r.Fingerprint)
	fmt.Fprintf(&b, "  declared  %d\n", r.Declared)
	fmt.Fprintf(&b, "  wrapped   %d\n", len(r.Wrapped))
	fmt.Fprintf(&b, "  excluded  %d\n", len(r.Excluded))
	for _, st := range []Stage{StageParse, StageOverrides, StageClassify, StageGenerate, StageOwnership} {
		if n := r.Count(st); n > 0 {
			fmt.Fprintf(&b, "  %-9s %d\n", st, n)
		}
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", warn)
	}
	for _, i := range r.Issues {
		prefix := "skipped"
		if i.Fatal {
			prefix = "error"
		}
		fmt.Fprintf(&b, "%s: %s\n", prefix, i)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Compare lists the issues of cur that prev lacks and the issues of prev
// that cur no longer has.
func Compare(prev, cur *Report) (added, resolved []Issue) {
	seen := make(map[string]bool)
	if prev != nil {
		for _, i := range prev.Issues {
			seen[i.key()] = true
		}
	}
	now := make(map[string]bool)
	for _, i := range cur.Issues {
		now[i.key()] = true
		if !seen[i.key()] {
			added = append(added, i)
		}
	}
	if prev != nil {
		for _, i := range prev.Issues {
			if !now[i.key()] {
				resolved = append(resolved, i)
			}
		}
	}
	return added, resolved
}
