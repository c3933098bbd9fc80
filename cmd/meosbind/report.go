package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/chazu/meosbind/manifest"
	"github.com/chazu/meosbind/report"
)

// handleReportCommand processes the `meosbind report` subcommand.
// Usage:
//
//	meosbind report               # latest run and what changed since the one before
//	meosbind report -history 10   # list recent runs
//	meosbind report -prune 5      # keep the five most recent runs
func handleReportCommand(dir string, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	history := fs.Int("history", 0, "List this many recent runs")
	prune := fs.Int("prune", 0, "Delete all but this many recent runs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m, err := loadManifest(dir)
	if err != nil {
		return err
	}
	if m.Report.DB == "" {
		return fmt.Errorf("no [report] db configured in %s", filepath.Join(m.Dir, manifest.FileName))
	}
	paths, err := m.Resolve()
	if err != nil {
		return err
	}
	st, err := report.OpenStore(paths.ReportDB)
	if err != nil {
		return err
	}
	defer st.Close()
	header := m.Binding.Header

	switch {
	case *prune > 0:
		n, err := st.Prune(header, *prune)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "pruned %d runs\n", n)
		return nil

	case *history > 0:
		runs, err := st.History(header, *history)
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Fprintf(stdout, "%4d  %s  %s  %3d wrapped  %3d issues\n",
				r.ID, r.Generated.Local().Format(time.DateTime), r.Fingerprint, r.Wrapped, r.Issues)
		}
		return nil
	}

	cur, err := st.Latest(header)
	if errors.Is(err, report.ErrRunNotFound) {
		return fmt.Errorf("no runs stored for %s; run meosbind generate", header)
	}
	if err != nil {
		return err
	}
	if err := cur.Write(stdout); err != nil {
		return err
	}

	prev, err := st.Previous(header)
	if errors.Is(err, report.ErrRunNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	added, resolved := report.Compare(prev, cur)
	if prev.Fingerprint != cur.Fingerprint {
		fmt.Fprintf(stdout, "surface changed since previous run (%s)\n", prev.Fingerprint)
	}
	for _, i := range added {
		fmt.Fprintf(stdout, "new: %s\n", i)
	}
	for _, i := range resolved {
		fmt.Fprintf(stdout, "fixed: %s\n", i)
	}
	return nil
}
