package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chazu/meosbind/cdecl"
)

// handleSurfaceCommand processes the `meosbind surface` subcommand.
// Usage:
//
//	meosbind surface                    # header from meosbind.toml
//	meosbind surface meos.h             # any header
//	meosbind surface -o meos.cbor       # write a snapshot
//	meosbind surface -diff meos.cbor    # compare against a snapshot
//	meosbind surface -list              # print every parsed declaration
func handleSurfaceCommand(dir string, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("surface", flag.ContinueOnError)
	output := fs.String("o", "", "Write a CBOR snapshot of the surface to this file")
	against := fs.String("diff", "", "Compare with a snapshot written by -o")
	list := fs.Bool("list", false, "List the parsed declarations")
	if err := fs.Parse(args); err != nil {
		return err
	}

	header := fs.Arg(0)
	if header == "" {
		m, err := loadManifest(dir)
		if err != nil {
			return err
		}
		paths, err := m.Resolve()
		if err != nil {
			return err
		}
		header = paths.Header
	}
	s, err := cdecl.ParseFile(header)
	if err != nil {
		return err
	}
	fp, err := s.Fingerprint()
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%s: %d functions, %d typedefs, %d enums, %d skipped (surface %s)\n",
		header, len(s.Functions), len(s.Typedefs), len(s.Enums), len(s.Skipped), fp)
	if *list {
		for i := range s.Functions {
			fmt.Fprintf(stdout, "  %4d  %s\n", s.Functions[i].Line, s.Functions[i].String())
		}
		for _, e := range s.Skipped {
			fmt.Fprintf(stdout, "  skipped %s\n", e.Error())
		}
	}

	if *output != "" {
		data, err := cdecl.MarshalSurface(s)
		if err != nil {
			return err
		}
		if err := writeFile(*output, data); err != nil {
			return err
		}
	}

	if *against != "" {
		data, err := os.ReadFile(*against)
		if err != nil {
			return err
		}
		old, err := cdecl.UnmarshalSurface(data)
		if err != nil {
			return fmt.Errorf("%s: %w", *against, err)
		}
		d := cdecl.Diff(old, s)
		for _, name := range d.Added {
			fmt.Fprintf(stdout, "+ %s\n", name)
		}
		for _, name := range d.Removed {
			fmt.Fprintf(stdout, "- %s\n", name)
		}
		for _, name := range d.Changed {
			fmt.Fprintf(stdout, "~ %s\n", name)
		}
		if !d.Empty() {
			return fmt.Errorf("surface differs from %s", *against)
		}
	}
	return nil
}
