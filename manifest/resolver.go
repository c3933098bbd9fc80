package manifest

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths are the manifest's file references resolved against its directory.
type Paths struct {
	Header    string
	Output    string   // generated Go file
	Overrides []string // in layering order
	ReportDB  string   // empty when reports are not stored
	Snapshot  string   // empty when no surface snapshot is written
}

// Resolve makes every configured path absolute and checks that the inputs
// exist. The output file and the report database may be missing.
func (m *Manifest) Resolve() (*Paths, error) {
	p := &Paths{
		Header:   m.path(m.Binding.Header),
		Output:   m.path(m.Binding.Output),
		ReportDB: m.path(m.Report.DB),
		Snapshot: m.path(m.Report.Snapshot),
	}
	if err := exists("header", p.Header); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, o := range m.Binding.Overrides {
		path := m.path(o)
		if seen[path] {
			return nil, fmt.Errorf("override file %s listed twice", o)
		}
		seen[path] = true
		if err := exists("override file", path); err != nil {
			return nil, err
		}
		p.Overrides = append(p.Overrides, path)
	}
	return p, nil
}

// path resolves a manifest-relative path. Empty stays empty.
func (m *Manifest) path(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(m.Dir, rel)
}

func exists(what, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s not found at %s: %w", what, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s %s is a directory", what, path)
	}
	return nil
}
