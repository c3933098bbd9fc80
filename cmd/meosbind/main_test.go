package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/meosbind/cdecl"
	"github.com/chazu/meosbind/manifest"
)

// newProject lays out a binding project around the fixture header.
func newProject(t *testing.T, config string) string {
	t.Helper()
	dir := t.TempDir()
	header, err := os.ReadFile(filepath.Join("..", "..", "meos", "meos_min.h"))
	if err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"include/meos_min.h": string(header),
		"overrides.toml":     "[[override]]\nfunction = \"interptype_from_string\"\nrename = \"ParseInterpType\"\n",
		manifest.FileName:    config,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

const projectConfig = `
[binding]
header = "include/meos_min.h"
package = "meos"
output = "meos/meos.go"
overrides = ["overrides.toml"]

[report]
db = ".meosbind/report.db"
snapshot = ".meosbind/surface.cbor"
`

func runCmd(t *testing.T, dir, cmd string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(dir, cmd, args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func appendHeader(t *testing.T, dir, decl string) {
	t.Helper()
	path := filepath.Join(dir, "include", "meos_min.h")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data = bytes.Replace(data, []byte("#endif"), []byte(decl+"\n\n#endif"), 1)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestGenerateThenCheck(t *testing.T) {
	dir := newProject(t, projectConfig)

	out, errOut, err := runCmd(t, dir, "generate")
	if err != nil {
		t.Fatalf("generate: %v\n%s", err, errOut)
	}
	if !strings.Contains(out, "wrote meos/meos.go: 32 wrappers") {
		t.Errorf("generate output = %q", out)
	}

	src, err := os.ReadFile(filepath.Join(dir, "meos", "meos.go"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"// Code generated by meosbind from meos_min.h. DO NOT EDIT.",
		"func (lib *Library) ParseInterpType(",
		"func Open(rt *meosrt.Runtime) (*Library, error) {",
	} {
		if !bytes.Contains(src, []byte(want)) {
			t.Errorf("bindings missing %q", want)
		}
	}
	for _, name := range []string{"meosbind.lock", ".meosbind/report.db", ".meosbind/surface.cbor"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	out, errOut, err = runCmd(t, dir, "check")
	if err != nil {
		t.Fatalf("check after generate: %v\n%s", err, errOut)
	}
	if !strings.Contains(out, "meos/meos.go: ok (32 wrappers") {
		t.Errorf("check output = %q", out)
	}
}

func TestCheck_DetectsDrift(t *testing.T) {
	dir := newProject(t, projectConfig)
	if _, errOut, err := runCmd(t, dir, "generate"); err != nil {
		t.Fatalf("generate: %v\n%s", err, errOut)
	}

	output := filepath.Join(dir, "meos", "meos.go")
	if err := os.WriteFile(output, []byte("package meos\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, errOut, err := runCmd(t, dir, "check")
	if !errors.Is(err, errFailed) || !strings.Contains(errOut, "out of date") {
		t.Errorf("edited output: err = %v, stderr = %q", err, errOut)
	}

	if _, errOut, err := runCmd(t, dir, "generate"); err != nil {
		t.Fatalf("generate: %v\n%s", err, errOut)
	}
	appendHeader(t, dir, "extern int intspan_upper(const Span *s);")
	_, errOut, err = runCmd(t, dir, "check")
	if !errors.Is(err, errFailed) {
		t.Fatalf("changed header: err = %v", err)
	}
	for _, want := range []string{"out of date", "changed since the bindings were generated"} {
		if !strings.Contains(errOut, want) {
			t.Errorf("stderr missing %q:\n%s", want, errOut)
		}
	}
}

func TestGenerate_FatalOverrideError(t *testing.T) {
	dir := newProject(t, projectConfig)
	bad := "[[override]]\nfunction = \"span_out\"\n[[override.param]]\nname = \"nope\"\nnullable = true\n"
	if err := os.WriteFile(filepath.Join(dir, "overrides.toml"), []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}

	_, errOut, err := runCmd(t, dir, "generate")
	if !errors.Is(err, errFailed) {
		t.Fatalf("err = %v, want a reported failure", err)
	}
	if !strings.Contains(errOut, "error: overrides: ") || !strings.Contains(errOut, "span_out: no parameter nope") {
		t.Errorf("stderr = %q", errOut)
	}
	if _, err := os.Stat(filepath.Join(dir, "meos", "meos.go")); !os.IsNotExist(err) {
		t.Errorf("bindings written despite a fatal error: %v", err)
	}

	out, _, err := runCmd(t, dir, "report")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(out, "error: overrides") {
		t.Errorf("stored report = %q", out)
	}
}

func TestGenerate_DryRun(t *testing.T) {
	dir := newProject(t, projectConfig)
	out, _, err := runCmd(t, dir, "generate", "-n")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "// Code generated by meosbind") {
		t.Errorf("dry run printed %.60q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "meosbind.lock")); !os.IsNotExist(err) {
		t.Error("dry run wrote a lock file")
	}
}

func TestReport_ComparesRuns(t *testing.T) {
	dir := newProject(t, projectConfig)
	if _, _, err := runCmd(t, dir, "generate"); err != nil {
		t.Fatal(err)
	}
	appendHeader(t, dir, "extern void span_weird(int (*cb)(int));")
	if _, _, err := runCmd(t, dir, "generate"); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCmd(t, dir, "report")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	for _, want := range []string{"meos_min.h (surface", "surface changed since previous run", "new: parse:"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	out, _, err = runCmd(t, dir, "report", "-history", "5")
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(out, "wrapped"); n != 2 {
		t.Errorf("history lists %d runs:\n%s", n, out)
	}
	out, _, _ = runCmd(t, dir, "report", "-prune", "1")
	if !strings.Contains(out, "pruned 1 runs") {
		t.Errorf("prune output = %q", out)
	}
}

func TestSurface(t *testing.T) {
	dir := newProject(t, projectConfig)
	snap := filepath.Join(t.TempDir(), "surface.cbor")

	out, _, err := runCmd(t, dir, "surface", "-o", snap)
	if err != nil {
		t.Fatalf("surface: %v", err)
	}
	s, err := cdecl.ParseFile(filepath.Join(dir, "include", "meos_min.h"))
	if err != nil {
		t.Fatal(err)
	}
	if want := fmt.Sprintf("meos_min.h: %d functions", len(s.Functions)); !strings.Contains(out, want) {
		t.Errorf("surface output = %q, want %q", out, want)
	}

	if _, _, err := runCmd(t, dir, "surface", "-diff", snap); err != nil {
		t.Errorf("diff against own snapshot: %v", err)
	}

	appendHeader(t, dir, "extern int intspan_upper(const Span *s);")
	out, _, err = runCmd(t, dir, "surface", "-diff", snap)
	if err == nil || !strings.Contains(out, "+ intspan_upper") {
		t.Errorf("diff after adding a function: err = %v, out = %q", err, out)
	}

	header := filepath.Join(dir, "include", "meos_min.h")
	out, _, err = runCmd(t, t.TempDir(), "surface", "-list", header)
	if err != nil {
		t.Fatalf("surface with explicit header: %v", err)
	}
	if !strings.Contains(out, "Span *intspan_in(const char *str)") {
		t.Errorf("listing = %q", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, _, err := runCmd(t, t.TempDir(), "frobnicate"); err == nil {
		t.Error("unknown command accepted")
	}
	if _, _, err := runCmd(t, t.TempDir(), "generate"); err == nil || !strings.Contains(err.Error(), "no meosbind.toml") {
		t.Errorf("generate without manifest: %v", err)
	}
}
