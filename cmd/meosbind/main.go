// meosbind generates Go bindings for the MEOS C library from its header.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("meosbind")

// errFailed marks a command that already reported its failure.
var errFailed = errors.New("failed")

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	debug := flag.Bool("debug", false, "Debug logging")
	dir := flag.String("C", ".", "Directory to search for meosbind.toml")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: meosbind [options] <command> [command options]\n\n")
		fmt.Fprintf(os.Stderr, "Generates Go bindings for the MEOS C library from its header.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nCommands:\n")
		fmt.Fprintf(os.Stderr, "  generate [-n]              Write the bindings, lock file and report\n")
		fmt.Fprintf(os.Stderr, "  check [-typecheck]         Verify the checked-in bindings are current\n")
		fmt.Fprintf(os.Stderr, "  surface [-o file] [-diff file] [header]\n")
		fmt.Fprintf(os.Stderr, "                             Print or snapshot the parsed header surface\n")
		fmt.Fprintf(os.Stderr, "  report [-history n] [-prune n]\n")
		fmt.Fprintf(os.Stderr, "                             Show stored generation reports\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  meosbind generate           # regenerate from ./meosbind.toml\n")
		fmt.Fprintf(os.Stderr, "  meosbind -C meos check      # fail if meos/ bindings are stale\n")
		fmt.Fprintf(os.Stderr, "  meosbind surface meos.h     # summarize a header\n")
	}
	flag.Parse()

	verbosity := 0
	switch {
	case *debug:
		verbosity = 2
	case *verbose:
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(*dir, flag.Arg(0), flag.Args()[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// run dispatches a subcommand.
func run(dir, cmd string, args []string, stdout, stderr io.Writer) error {
	switch cmd {
	case "generate", "gen":
		return handleGenerateCommand(dir, args, stdout, stderr)
	case "check":
		return handleCheckCommand(dir, args, stdout, stderr)
	case "surface":
		return handleSurfaceCommand(dir, args, stdout)
	case "report":
		return handleReportCommand(dir, args, stdout)
	}
	return fmt.Errorf("unknown command %q (run meosbind -h)", cmd)
}
