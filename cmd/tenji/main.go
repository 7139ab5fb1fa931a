package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/raysh454/tenji/internal/cli"
	"github.com/raysh454/tenji/internal/logging"
)

const usage = `tenji - accessibility regression gate

Usage:
  tenji scan     -origin URL [-out scan.json] [-backend chromedp|static]
  tenji diff     -base base.json -head head.json [-out report.json] [-markdown report.md]
  tenji gate     -baseline LABEL -origin URL [-out report.json] [-markdown report.md]
  tenji baseline save -label LABEL (-scan scan.json | -origin URL)
  tenji baseline list
  tenji serve    [-addr :8080]
  tenji demo     [-addr :9999] [-site v1|v2]

Exit codes: 0 pass, 1 regression detected, 2 error.
`

func main() {
	args, err := cli.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n\n%s", err, usage)
		os.Exit(cli.ExitError)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Log to stderr so report documents on stdout stay parseable.
	logger := logging.NewWriterLogger("tenji", os.Stderr)
	os.Exit(cli.Run(ctx, args, os.Stdout, os.Stderr, logger))
}
