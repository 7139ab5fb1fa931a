// Package cli parses and runs the tenji subcommands. Parsing is
// deterministic and never reads os.Args directly, so tests can drive it
// with arbitrary slices.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"
)

// Exit codes. A regression is a normal terminal state and gets its own code
// so CI can tell "the gate said no" from "the tool broke".
const (
	ExitOK         = 0
	ExitRegression = 1
	ExitError      = 2
)

// CLIArgs are the parsed command-line arguments for a single invocation.
type CLIArgs struct {
	// Command is the subcommand: scan|diff|gate|baseline|serve|demo.
	Command string

	// Origin is the root URL to enumerate and scan (scan, gate).
	Origin string

	// BaseFile and HeadFile are scan documents for file-based diffing.
	BaseFile string
	HeadFile string

	// Label names a stored baseline (gate, baseline).
	Label string

	// BaselineAction is "save" or "list".
	BaselineAction string

	// ScanFile is an existing scan document to store as a baseline.
	ScanFile string

	// OutFile receives the JSON report or scan document.
	OutFile string

	// MarkdownFile receives the rendered markdown report.
	MarkdownFile string

	// Backend overrides the scan backend for this run.
	Backend string

	// Tags restricts the rule set (comma-separated).
	Tags string

	// MinImpact drops violations below this severity.
	MinImpact string

	// NoFail disables the fail-on-regression policy (report-only mode).
	NoFail bool

	// Summarize enables the AI summary paragraph in markdown output.
	Summarize bool

	// Concurrency overrides parallel page scans; 0 means "use config default".
	Concurrency int

	// MaxDepth and MaxPages bound the spider.
	MaxDepth int
	MaxPages int

	// Timeout bounds a single page scan.
	Timeout time.Duration

	// Addr is the listen address (serve, demo).
	Addr string

	// SiteVersion selects the demo site revision (demo).
	SiteVersion string

	// StorageRoot overrides the baseline storage location.
	StorageRoot string

	// RawArgs is the original args slice (useful for debugging/tests).
	RawArgs []string
}

// ParseArgs parses a slice of args of the form "subcommand [flags]" and
// returns CLIArgs. The function is deterministic and does not read os.Args.
func ParseArgs(args []string) (*CLIArgs, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("missing subcommand: expected one of scan|diff|gate|baseline|serve|demo")
	}

	out := &CLIArgs{
		Command: args[0],
		RawArgs: args,
	}

	fs := flag.NewFlagSet("tenji-"+out.Command, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// Shared scan-producer flags
	addScanFlags := func() {
		fs.StringVar(&out.Backend, "backend", "", "Scan backend: chromedp|static (default from config)")
		fs.StringVar(&out.Tags, "tags", "", "Comma-separated rule tags (e.g. wcag2a,wcag2aa)")
		fs.StringVar(&out.MinImpact, "min-impact", "", "Drop violations below this severity tier")
		fs.IntVar(&out.Concurrency, "concurrency", 0, "Parallel page scans (0=use default)")
		fs.IntVar(&out.MaxDepth, "max-depth", 0, "Spider depth bound (0=use default)")
		fs.IntVar(&out.MaxPages, "max-pages", 0, "Spider page cap (0=use default)")
		fs.DurationVar(&out.Timeout, "timeout", 0, "Per-page scan timeout (0=use default)")
	}

	switch out.Command {
	case "scan":
		fs.StringVar(&out.Origin, "origin", "", "Root URL to enumerate and scan (required)")
		fs.StringVar(&out.OutFile, "out", "", "Path for the scan document (default stdout)")
		addScanFlags()

	case "diff":
		fs.StringVar(&out.BaseFile, "base", "", "Baseline scan document (required)")
		fs.StringVar(&out.HeadFile, "head", "", "Head scan document (required)")
		fs.StringVar(&out.OutFile, "out", "", "Path for the JSON report (default stdout)")
		fs.StringVar(&out.MarkdownFile, "markdown", "", "Path for the markdown report")
		fs.BoolVar(&out.NoFail, "no-fail", false, "Report only; exit 0 even on regression")
		fs.BoolVar(&out.Summarize, "summarize", false, "Add an AI summary to the markdown report")

	case "gate":
		fs.StringVar(&out.Label, "baseline", "", "Stored baseline label (required)")
		fs.StringVar(&out.Origin, "origin", "", "Root URL to scan as head (required)")
		fs.StringVar(&out.OutFile, "out", "", "Path for the JSON report (default stdout)")
		fs.StringVar(&out.MarkdownFile, "markdown", "", "Path for the markdown report")
		fs.BoolVar(&out.NoFail, "no-fail", false, "Report only; exit 0 even on regression")
		fs.BoolVar(&out.Summarize, "summarize", false, "Add an AI summary to the markdown report")
		fs.StringVar(&out.StorageRoot, "storage", "", "Baseline storage root (default from config)")
		addScanFlags()

	case "baseline":
		if len(args) < 2 {
			return nil, fmt.Errorf("baseline: expected action save|list")
		}
		out.BaselineAction = args[1]
		args = args[1:]
		switch out.BaselineAction {
		case "save":
			fs.StringVar(&out.Label, "label", "", "Baseline label (required)")
			fs.StringVar(&out.ScanFile, "scan", "", "Existing scan document to store")
			fs.StringVar(&out.Origin, "origin", "", "Scan this origin and store the result")
			fs.StringVar(&out.StorageRoot, "storage", "", "Baseline storage root (default from config)")
			addScanFlags()
		case "list":
			fs.StringVar(&out.StorageRoot, "storage", "", "Baseline storage root (default from config)")
		default:
			return nil, fmt.Errorf("baseline: unknown action %q, expected save|list", out.BaselineAction)
		}

	case "serve":
		fs.StringVar(&out.Addr, "addr", ":8080", "HTTP listen address")
		fs.StringVar(&out.StorageRoot, "storage", "", "Baseline storage root (default from config)")

	case "demo":
		fs.StringVar(&out.Addr, "addr", ":9999", "HTTP listen address")
		fs.StringVar(&out.SiteVersion, "site", "v1", "Demo site revision: v1|v2")

	default:
		return nil, fmt.Errorf("unknown subcommand %q: expected one of scan|diff|gate|baseline|serve|demo", out.Command)
	}

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}

	if err := validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

func validate(a *CLIArgs) error {
	missing := func(name string) error {
		return fmt.Errorf("%s: missing required -%s argument", a.Command, name)
	}

	switch a.Command {
	case "scan":
		if strings.TrimSpace(a.Origin) == "" {
			return missing("origin")
		}
	case "diff":
		if strings.TrimSpace(a.BaseFile) == "" {
			return missing("base")
		}
		if strings.TrimSpace(a.HeadFile) == "" {
			return missing("head")
		}
	case "gate":
		if strings.TrimSpace(a.Label) == "" {
			return missing("baseline")
		}
		if strings.TrimSpace(a.Origin) == "" {
			return missing("origin")
		}
	case "baseline":
		if a.BaselineAction == "save" {
			if strings.TrimSpace(a.Label) == "" {
				return missing("label")
			}
			if a.ScanFile == "" && a.Origin == "" {
				return fmt.Errorf("baseline save: need either -scan or -origin")
			}
		}
	case "demo":
		if a.SiteVersion != "v1" && a.SiteVersion != "v2" {
			return fmt.Errorf("demo: unknown -site %q, expected v1|v2", a.SiteVersion)
		}
	}
	return nil
}
