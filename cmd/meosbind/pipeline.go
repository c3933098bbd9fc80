package main

import (
	"fmt"

	"github.com/chazu/meosbind/cdecl"
	"github.com/chazu/meosbind/classify"
	"github.com/chazu/meosbind/gen"
	"github.com/chazu/meosbind/manifest"
	"github.com/chazu/meosbind/overrides"
	"github.com/chazu/meosbind/report"
)

// pipeline holds everything one run over a header produced.
type pipeline struct {
	m       *manifest.Manifest
	paths   *manifest.Paths
	surface *cdecl.Surface
	over    *overrides.Registry
	classes *classify.Result
	out     *gen.Result
	report  *report.Report
}

func loadManifest(dir string) (*manifest.Manifest, error) {
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("no %s found in %s or its parents", manifest.FileName, dir)
	}
	return m, nil
}

// runPipeline parses, classifies and generates. Once the header is parsed
// the returned pipeline is non-nil and carries the report, even when a
// fatal issue stopped the run.
func runPipeline(m *manifest.Manifest) (*pipeline, error) {
	paths, err := m.Resolve()
	if err != nil {
		return nil, err
	}
	surface, err := cdecl.ParseFile(paths.Header)
	if err != nil {
		return nil, err
	}
	rep, err := report.New(m.Binding.Header, surface)
	if err != nil {
		return nil, err
	}
	p := &pipeline{m: m, paths: paths, surface: surface, report: rep}

	p.over, err = loadOverrides(m, paths)
	if err != nil {
		rep.AddOverrides(nil, err)
		return p, rep.Err()
	}
	rep.AddOverrides(p.over.Check(surface))
	if err := rep.Err(); err != nil {
		return p, err
	}

	types := classify.NewTypes(surface, m.ClassifyOptions())
	p.classes = classify.New(types, p.over).ClassifyAll(surface)
	rep.AddClassification(p.classes)
	rep.AddOwnership(gen.CheckOwnership(p.classes, surface, m.Types.DefaultRelease))
	if err := rep.Err(); err != nil {
		return p, err
	}

	p.out, err = gen.Generate(p.classes, surface, m.GenOptions())
	if err != nil {
		return p, err
	}
	rep.AddGeneration(p.out)
	return p, nil
}

// loadOverrides layers the project's override files over the embedded
// defaults.
func loadOverrides(m *manifest.Manifest, paths *manifest.Paths) (*overrides.Registry, error) {
	var reg *overrides.Registry
	if !m.Binding.NoDefaults {
		def, err := overrides.Default()
		if err != nil {
			return nil, err
		}
		reg = def
	}
	for _, path := range paths.Overrides {
		o, err := overrides.Load(path)
		if err != nil {
			return nil, err
		}
		if reg == nil {
			reg = o
			continue
		}
		if reg, err = reg.Merge(o); err != nil {
			return nil, err
		}
	}
	if reg == nil {
		return overrides.New("", nil)
	}
	return reg, nil
}

// saveReport stores the run when the manifest names a report database.
func (p *pipeline) saveReport() error {
	if p.paths.ReportDB == "" {
		return nil
	}
	st, err := report.OpenStore(p.paths.ReportDB)
	if err != nil {
		return err
	}
	defer st.Close()
	id, err := st.Save(p.report)
	if err != nil {
		return err
	}
	log.Infof("stored report %d in %s", id, p.paths.ReportDB)
	return nil
}
