// hostlink-log inspects HostLink protocol log files (.hlog).
//
// Usage:
//
//	hostlink-log <command> [flags] <file>
//
// Commands:
//
//	view    Pretty-print events from a log file
//	export  Export events to jsonl or csv
//	filter  Write matching events to a new log file
//	stats   Print aggregate statistics
//
// Examples:
//
//	hostlink-log view session.hlog
//	hostlink-log view -layer wire -direction in session.hlog
//	hostlink-log export -format csv -output events.csv session.hlog
//	hostlink-log filter -op invokeMethod -output calls.hlog session.hlog
//	hostlink-log filter -category error -output errors.hlog session.hlog
//	hostlink-log stats session.hlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hostlink-protocol/hostlink-go/cmd/hostlink-log/commands"
)

const usage = `hostlink-log - inspect HostLink protocol log files

Usage:
  hostlink-log <command> [flags] <file>

Commands:
  view    Pretty-print events from a log file
  export  Export events to jsonl or csv
  filter  Write matching events to a new log file
  stats   Print aggregate statistics

Run 'hostlink-log <command> -h' for command-specific flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "view":
		err = runView(os.Args[2:])
	case "export":
		err = runExport(os.Args[2:])
	case "filter":
		err = runFilter(os.Args[2:])
	case "stats":
		err = runStats(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runView(args []string) error {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	opts := filterFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: hostlink-log view [flags] <file>")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}

	filter, err := commands.BuildFilter(*opts)
	if err != nil {
		return err
	}
	return commands.RunView(fs.Arg(0), filter, os.Stdout)
}

// filterFlags registers the event selection flags shared by view and
// filter.
func filterFlags(fs *flag.FlagSet) *commands.FilterOptions {
	opts := &commands.FilterOptions{}
	fs.StringVar(&opts.ConnID, "conn", "", "Filter by connection ID")
	fs.StringVar(&opts.AppName, "app", "", "Filter by application-host name")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Events at or after this time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Events before this time (RFC3339)")
	fs.StringVar(&opts.Layer, "layer", "", "Filter by layer (transport, wire, bridge)")
	fs.StringVar(&opts.Direction, "direction", "", "Filter by direction (in, out)")
	fs.StringVar(&opts.Category, "category", "", "Filter by category (message, control, state, error)")
	fs.StringVar(&opts.Kind, "kind", "", "Filter by event kind (frame, request, response, state, error)")
	fs.StringVar(&opts.Operation, "op", "", "Filter by bridge operation (e.g. invokeMethod)")
	fs.StringVar(&opts.Status, "status", "", "Filter by response status (e.g. notFound)")
	return opts
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	formatFlag := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	outputFlag := fs.String("output", "", "Output file (default stdout)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: hostlink-log export [flags] <file>")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}

	return commands.RunExport(fs.Arg(0), *formatFlag, *outputFlag)
}

func runFilter(args []string) error {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	opts := filterFlags(fs)
	fs.StringVar(&opts.Output, "output", "", "Output log file (required)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: hostlink-log filter [flags] <file>")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() != 1 || opts.Output == "" {
		fs.Usage()
		os.Exit(2)
	}

	return commands.RunFilter(fs.Arg(0), *opts)
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: hostlink-log stats <file>")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}

	return commands.RunStats(fs.Arg(0), os.Stdout)
}
