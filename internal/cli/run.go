package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/raysh454/tenji/internal/app"
	"github.com/raysh454/tenji/internal/baseline"
	"github.com/raysh454/tenji/internal/demosite"
	"github.com/raysh454/tenji/internal/diff"
	"github.com/raysh454/tenji/internal/logging"
	"github.com/raysh454/tenji/internal/model"
	"github.com/raysh454/tenji/internal/report"
	"github.com/raysh454/tenji/internal/scanner"
	"github.com/raysh454/tenji/internal/server"
	"github.com/raysh454/tenji/internal/utils"
)

// Run executes a parsed invocation and returns the process exit code.
// Output documents go to stdout unless -out redirects them; human-facing
// status lines go to stderr so piping JSON stays clean.
func Run(ctx context.Context, args *CLIArgs, stdout, stderr io.Writer, logger logging.Logger) int {
	if logger == nil {
		logger = logging.Nop{}
	}

	var err error
	exit := ExitOK

	switch args.Command {
	case "scan":
		exit, err = runScan(ctx, args, stdout, logger)
	case "diff":
		exit, err = runDiff(ctx, args, stdout, logger)
	case "gate":
		exit, err = runGate(ctx, args, stdout, logger)
	case "baseline":
		exit, err = runBaseline(ctx, args, stdout, logger)
	case "serve":
		exit, err = runServe(args, logger)
	case "demo":
		exit, err = runDemo(args)
	default:
		err = fmt.Errorf("unknown subcommand %q", args.Command)
		exit = ExitError
	}

	if err != nil {
		fmt.Fprintf(stderr, "tenji %s: %v\n", args.Command, err)
	}
	return exit
}

// buildConfig applies per-invocation flag overrides onto the defaults.
func buildConfig(args *CLIArgs) *app.Config {
	cfg := app.DefaultConfig()

	if args.Backend != "" {
		cfg.ScannerCfg.Backend = scanner.Backend(args.Backend)
	}
	if args.Tags != "" {
		var tags []string
		for _, t := range strings.Split(args.Tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		cfg.ScannerCfg.RunTags = tags
	}
	if args.MinImpact != "" {
		cfg.ScannerCfg.MinImpact = model.Severity(args.MinImpact)
	}
	if args.Concurrency > 0 {
		cfg.ScannerCfg.MaxConcurrency = args.Concurrency
	}
	if args.Timeout > 0 {
		cfg.ScannerCfg.PageTimeout = args.Timeout
	}
	if args.MaxDepth > 0 {
		cfg.SpiderMaxDepth = args.MaxDepth
	}
	if args.MaxPages > 0 {
		cfg.SpiderMaxPages = args.MaxPages
	}
	if args.StorageRoot != "" {
		cfg.StorageRoot = args.StorageRoot
	}
	if args.NoFail {
		cfg.FailOnRegression = false
	}
	return cfg
}

func openStore(cfg *app.Config, logger logging.Logger) (*baseline.Store, error) {
	root, err := utils.ExpandPath(cfg.StorageRoot)
	if err != nil {
		return nil, fmt.Errorf("expanding storage root: %w", err)
	}
	return baseline.Open(filepath.Join(root, "baselines"), logger)
}

func runScan(ctx context.Context, args *CLIArgs, stdout io.Writer, logger logging.Logger) (int, error) {
	cfg := buildConfig(args)
	o := app.NewOrchestrator(cfg, nil, logger)

	scan, err := o.RunScan(ctx, args.Origin)
	if err != nil {
		return ExitError, err
	}

	if err := writeDoc(args.OutFile, stdout, scan); err != nil {
		return ExitError, err
	}
	return ExitOK, nil
}

func runDiff(ctx context.Context, args *CLIArgs, stdout io.Writer, logger logging.Logger) (int, error) {
	base, err := model.LoadScanResult(args.BaseFile)
	if err != nil {
		return ExitError, err
	}
	head, err := model.LoadScanResult(args.HeadFile)
	if err != nil {
		return ExitError, err
	}

	cfg := buildConfig(args)
	o := app.NewOrchestrator(cfg, nil, logger)
	decision := o.CompareScans(base, head)

	return emitDecision(ctx, args, cfg, stdout, decision, logger)
}

func runGate(ctx context.Context, args *CLIArgs, stdout io.Writer, logger logging.Logger) (int, error) {
	cfg := buildConfig(args)
	store, err := openStore(cfg, logger)
	if err != nil {
		return ExitError, err
	}
	defer store.Close()

	o := app.NewOrchestrator(cfg, store, logger)
	decision, _, err := o.RunGate(ctx, args.Label, args.Origin)
	if err != nil {
		return ExitError, err
	}

	return emitDecision(ctx, args, cfg, stdout, *decision, logger)
}

// emitDecision writes the report in the requested formats and maps the gate
// verdict to an exit code.
func emitDecision(ctx context.Context, args *CLIArgs, cfg *app.Config, stdout io.Writer, decision diff.Decision, logger logging.Logger) (int, error) {
	if args.OutFile != "" {
		if err := report.WriteJSON(args.OutFile, decision.Report); err != nil {
			return ExitError, err
		}
	} else if err := writeDoc("", stdout, decision.Report); err != nil {
		return ExitError, err
	}

	if args.MarkdownFile != "" {
		summary := ""
		if args.Summarize {
			s := report.NewOpenRouterSummarizer(cfg.OpenRouterAPIKey, logger)
			text, err := s.Summarize(ctx, decision.Report)
			if err != nil {
				// The summary is advisory; the report must still ship.
				logger.Warn("summarizer unavailable", logging.Field{Key: "error", Value: err.Error()})
			} else {
				summary = text
			}
		}
		md := report.Markdown(decision.Report, summary)
		if err := os.WriteFile(args.MarkdownFile, []byte(md), 0644); err != nil {
			return ExitError, fmt.Errorf("writing markdown report: %w", err)
		}
	}

	if decision.ShouldFail {
		return ExitRegression, nil
	}
	return ExitOK, nil
}

func runBaseline(ctx context.Context, args *CLIArgs, stdout io.Writer, logger logging.Logger) (int, error) {
	cfg := buildConfig(args)
	store, err := openStore(cfg, logger)
	if err != nil {
		return ExitError, err
	}
	defer store.Close()

	switch args.BaselineAction {
	case "save":
		var scan *model.ScanResult
		if args.ScanFile != "" {
			scan, err = model.LoadScanResult(args.ScanFile)
		} else {
			o := app.NewOrchestrator(cfg, store, logger)
			scan, err = o.RunScan(ctx, args.Origin)
		}
		if err != nil {
			return ExitError, err
		}

		entry, err := store.Save(ctx, args.Label, scan)
		if err != nil {
			return ExitError, err
		}
		return ExitOK, writeDoc(args.OutFile, stdout, entry)

	case "list":
		entries, err := store.List(ctx, 0)
		if err != nil {
			return ExitError, err
		}
		return ExitOK, writeDoc(args.OutFile, stdout, entries)
	}
	return ExitError, fmt.Errorf("unknown baseline action %q", args.BaselineAction)
}

func runServe(args *CLIArgs, logger logging.Logger) (int, error) {
	cfg := buildConfig(args)
	srv, err := server.NewServer(server.Config{
		ListenAddr: args.Addr,
		AppConfig:  cfg,
		Logger:     logger,
	})
	if err != nil {
		return ExitError, err
	}
	defer srv.Close()

	logger.Info("api server listening", logging.Field{Key: "addr", Value: args.Addr})
	if err := srv.HTTPServer().ListenAndServe(); err != nil {
		return ExitError, err
	}
	return ExitOK, nil
}

func runDemo(args *CLIArgs) (int, error) {
	cfg := demosite.DefaultConfig()
	if args.Addr != "" {
		_, port, ok := strings.Cut(args.Addr, ":")
		if !ok {
			return ExitError, fmt.Errorf("bad -addr %q: expected host:port", args.Addr)
		}
		n, err := strconv.Atoi(port)
		if err != nil {
			return ExitError, fmt.Errorf("bad -addr %q: port is not a number", args.Addr)
		}
		cfg.Port = n
	}
	if args.SiteVersion == "v2" {
		cfg.InitialVersion = 2
	}

	site := demosite.NewDemoSite(cfg)
	if err := site.Start(); err != nil {
		return ExitError, err
	}
	return ExitOK, nil
}

// writeDoc marshals v as indented JSON to path, or to fallback when path is
// empty.
func writeDoc(path string, fallback io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	data = append(data, '\n')

	if path == "" {
		_, err = fallback.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
