package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chazu/meosbind/cdecl"
	"github.com/chazu/meosbind/manifest"
)

// handleGenerateCommand processes the `meosbind generate` subcommand.
// Usage:
//
//	meosbind generate      # write the bindings named in meosbind.toml
//	meosbind generate -n   # print them instead
func handleGenerateCommand(dir string, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dryRun := fs.Bool("n", false, "Print the bindings instead of writing files")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, err := loadManifest(dir)
	if err != nil {
		return err
	}
	p, err := runPipeline(m)
	if p != nil && !*dryRun {
		if serr := p.saveReport(); serr != nil {
			log.Warningf("saving report: %s", serr)
		}
	}
	if err != nil {
		if p != nil {
			p.report.Write(stderr)
			return errFailed
		}
		return err
	}

	if *dryRun {
		_, err := stdout.Write(p.out.Source)
		return err
	}

	if err := writeFile(p.paths.Output, p.out.Source); err != nil {
		return err
	}
	if p.paths.Snapshot != "" {
		snap, err := cdecl.MarshalSurface(p.surface)
		if err != nil {
			return err
		}
		if err := writeFile(p.paths.Snapshot, snap); err != nil {
			return err
		}
	}
	lock := &manifest.LockFile{
		Header:      m.Binding.Header,
		Fingerprint: p.report.Fingerprint,
		Overrides:   m.Binding.Overrides,
		Functions:   len(p.out.Functions),
		Generated:   p.report.Generated,
	}
	if err := manifest.WriteLock(m.LockFilePath(), lock); err != nil {
		return fmt.Errorf("writing lock file: %w", err)
	}

	rel, _ := filepath.Rel(m.Dir, p.paths.Output)
	fmt.Fprintf(stdout, "wrote %s: %d wrappers, %d excluded, %d skipped\n",
		rel, len(p.out.Functions), len(p.report.Excluded), len(p.report.Issues))
	for _, w := range p.report.Warnings {
		fmt.Fprintf(stderr, "warning: %s\n", w)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
