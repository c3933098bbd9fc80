package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/chazu/meosbind/gen"
	"github.com/chazu/meosbind/manifest"
)

// handleCheckCommand processes the `meosbind check` subcommand. It
// regenerates the bindings in memory and fails when anything about them
// would change or does not hold.
// Usage:
//
//	meosbind check              # determinism, ownership, freshness
//	meosbind check -typecheck   # also type-check the output package
func handleCheckCommand(dir string, args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("check", flag.ContinueOnError)
	flags.SetOutput(stderr)
	typecheck := flags.Bool("typecheck", false, "Type-check the output package with the go toolchain")
	if err := flags.Parse(args); err != nil {
		return err
	}

	m, err := loadManifest(dir)
	if err != nil {
		return err
	}
	p, err := runPipeline(m)
	if err != nil {
		if p != nil {
			p.report.Write(stderr)
			return errFailed
		}
		return err
	}

	var problems []string
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if err := gen.CheckDeterministic(p.classes, p.surface, m.GenOptions()); err != nil {
		fail("%v", err)
	}

	v := gen.NewValidator(filepath.Base(p.paths.Output))
	v.Unresolved = []string{m.Binding.Runtime}
	if errs := v.Validate(p.out.Source); len(errs) > 0 {
		fail("generated source does not compile:\n%s", gen.FormatValidationErrors(errs))
	}

	onDisk, err := os.ReadFile(p.paths.Output)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		fail("%s has not been generated", m.Binding.Output)
	case err != nil:
		return err
	case !bytes.Equal(onDisk, p.out.Source):
		fail("%s is out of date; run meosbind generate", m.Binding.Output)
	}

	lock, err := manifest.ReadLock(m.LockFilePath())
	if err != nil {
		return err
	}
	if lock == nil {
		fmt.Fprintf(stderr, "warning: no %s; run meosbind generate to record the surface\n", filepath.Base(m.LockFilePath()))
	}
	if why := lock.Stale(p.report.Fingerprint); why != "" {
		fail("%s", why)
	}

	if *typecheck && len(problems) == 0 {
		if err := gen.TypeCheck(filepath.Dir(p.paths.Output)); err != nil {
			fail("%v", err)
		}
	}

	if len(problems) > 0 {
		for _, msg := range problems {
			fmt.Fprintf(stderr, "check: %s\n", msg)
		}
		return errFailed
	}
	fmt.Fprintf(stdout, "%s: ok (%d wrappers, surface %s)\n",
		m.Binding.Output, len(p.out.Functions), p.report.Fingerprint)
	return nil
}
