package report

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chazu/meosbind/cdecl"
	"github.com/chazu/meosbind/classify"
	"github.com/chazu/meosbind/gen"
	"github.com/chazu/meosbind/overrides"
)

const header = `
typedef struct Span Span;
Span *intspan_in(const char *str);
void span_free(Span *s);
int broken(int x) int;
int sum_all(int n, ...);
`

func newReport(t *testing.T) *Report {
	t.Helper()
	s := cdecl.Parse(header)
	r, err := New("span.h", s)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func sampleReport(t *testing.T) *Report {
	t.Helper()
	r := newReport(t)
	r.AddOverrides([]string{"override for unknown function span_gone"}, nil)
	r.AddClassification(&classify.Result{
		Excluded: []classify.Exclusion{{Function: "span_free", Reason: "runtime releases spans"}},
		Errors: []*classify.ClassificationError{
			{Function: "span_values", Param: "return", Reason: "array without a count"},
		},
	})
	r.AddGeneration(&gen.Result{
		Functions: []string{"intspan_in"},
		Errors:    []*gen.GenerationError{{Function: "span_center", Reason: "returns struct Point by value"}},
	})
	return r
}

func TestNew_RecordsParseIssues(t *testing.T) {
	r := newReport(t)
	if r.Declared != 2 {
		t.Errorf("Declared = %d, want 2", r.Declared)
	}
	if n := r.Count(StageParse); n != 2 {
		t.Fatalf("parse issues = %d, want 2: %v", n, r.Issues)
	}
	for _, i := range r.Issues {
		if i.Line == 0 || i.Fatal {
			t.Errorf("parse issue %+v", i)
		}
	}
	if len(r.Fingerprint) != 16 {
		t.Errorf("Fingerprint = %q", r.Fingerprint)
	}
	if err := r.Err(); err != nil {
		t.Errorf("parse issues are not fatal: %v", err)
	}
}

func TestReport_FatalStages(t *testing.T) {
	r := sampleReport(t)
	if err := r.Err(); err != nil {
		t.Fatalf("Err() = %v before any fatal issue", err)
	}

	r.AddOverrides(nil, &overrides.ConfigurationError{
		Source:   "overrides.toml",
		Problems: []string{"span_eq: no parameter named s3", "span_eq: duplicate override"},
	})
	r.AddOwnership([]*gen.GenerationError{{Function: "rtree_create", Reason: "RTree is owned but has no release function"}})

	err := r.Err()
	if err == nil {
		t.Fatal("Err() = nil")
	}
	for _, want := range []string{"no parameter named s3", "duplicate override", "ownership: rtree_create"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Err() = %v, missing %q", err, want)
		}
	}

	r.AddOverrides(nil, errors.New("cannot read overrides"))
	if r.Count(StageOverrides) != 3 {
		t.Errorf("override issues = %d", r.Count(StageOverrides))
	}
}

func TestReport_Write(t *testing.T) {
	r := sampleReport(t)
	r.AddOwnership([]*gen.GenerationError{{Function: "rtree_create", Reason: "no release"}})

	var buf bytes.Buffer
	if err := r.Write(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"span.h (surface ",
		"declared  2",
		"wrapped   1",
		"excluded  1",
		"classify  1",
		"warning: override for unknown function span_gone",
		"skipped: classify: span_values: return: array without a count",
		"skipped: generate: span_center: returns struct Point by value",
		"error: ownership: rtree_create: no release",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "skipped: parse") > strings.Index(out, "skipped: classify") {
		t.Errorf("issues not in stage order:\n%s", out)
	}
}

func TestCompare(t *testing.T) {
	prev := sampleReport(t)
	cur := sampleReport(t)
	cur.Issues = cur.Issues[:len(cur.Issues)-1] // span_center fixed
	cur.Issues = append(cur.Issues, Issue{Stage: StageClassify, Function: "span_split", Reason: "unknown type Bins"})

	added, resolved := Compare(prev, cur)
	if len(added) != 1 || added[0].Function != "span_split" {
		t.Errorf("added = %v", added)
	}
	if len(resolved) != 1 || resolved[0].Function != "span_center" {
		t.Errorf("resolved = %v", resolved)
	}

	added, resolved = Compare(nil, cur)
	if len(added) != len(cur.Issues) || resolved != nil {
		t.Errorf("against no previous run: added %d, resolved %v", len(added), resolved)
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	st, err := OpenStore(filepath.Join(t.TempDir(), "reports", "runs.db"))
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer st.Close()

	if _, err := st.Latest("span.h"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Latest on empty store: %v", err)
	}

	first := sampleReport(t)
	first.Generated = time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	id1, err := st.Save(first)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	second := sampleReport(t)
	second.AddOwnership([]*gen.GenerationError{{Function: "rtree_create", Reason: "no release"}})
	id2, err := st.Save(second)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id2 <= id1 {
		t.Errorf("ids %d, %d not increasing", id1, id2)
	}

	latest, err := st.Latest("span.h")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(latest.Issues) != len(second.Issues) {
		t.Fatalf("issues = %d, want %d", len(latest.Issues), len(second.Issues))
	}
	last := latest.Issues[len(latest.Issues)-1]
	if last.Stage != StageOwnership || !last.Fatal || last.Function != "rtree_create" {
		t.Errorf("last issue = %+v", last)
	}
	if latest.Fingerprint != second.Fingerprint || latest.Declared != 2 {
		t.Errorf("latest = %+v", latest)
	}
	if len(latest.Wrapped) != 1 || latest.Wrapped[0] != "intspan_in" {
		t.Errorf("wrapped = %v", latest.Wrapped)
	}
	if len(latest.Warnings) != 1 {
		t.Errorf("warnings = %v", latest.Warnings)
	}

	prev, err := st.Previous("span.h")
	if err != nil {
		t.Fatalf("Previous: %v", err)
	}
	if !prev.Generated.Equal(first.Generated) {
		t.Errorf("previous generated = %v", prev.Generated)
	}
	added, resolved := Compare(prev, latest)
	if len(added) != 1 || len(resolved) != 0 {
		t.Errorf("compare stored runs: added %v, resolved %v", added, resolved)
	}

	hist, err := st.History("span.h", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 2 || hist[0].ID != id2 || hist[0].Issues != len(second.Issues) || hist[1].Wrapped != 1 {
		t.Errorf("history = %+v", hist)
	}
	if other, _ := st.History("other.h", 5); len(other) != 0 {
		t.Errorf("history for other header = %v", other)
	}
}

func TestStore_Prune(t *testing.T) {
	st, err := OpenStore(":memory:")
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer st.Close()

	for i := 0; i < 4; i++ {
		if _, err := st.Save(sampleReport(t)); err != nil {
			t.Fatal(err)
		}
	}
	n, err := st.Prune("span.h", 1)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 3 {
		t.Errorf("pruned %d runs, want 3", n)
	}
	hist, _ := st.History("span.h", 0)
	if len(hist) != 1 {
		t.Errorf("history after prune = %+v", hist)
	}
	var orphans int
	if err := st.db.QueryRow("SELECT COUNT(*) FROM issues WHERE run_id NOT IN (SELECT id FROM runs)").Scan(&orphans); err != nil {
		t.Fatal(err)
	}
	if orphans != 0 {
		t.Errorf("%d issues outlived their run", orphans)
	}
}
