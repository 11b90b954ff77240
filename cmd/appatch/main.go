package main

import (
	"fmt"
	"os"

	"github.com/unxed/ap/appatch"
	"github.com/unxed/ap/cli"
	"github.com/unxed/ap/internal/ui"
)

func main() {
	cfg, err := cli.ParseFlags()
	if err != nil {
		// pflag exits on its own parse errors; what reaches here is a flag
		// value cli rejected, which nothing has printed yet.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app, err := appatch.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	summary, err := app.Execute()
	if err != nil {
		ui.ReportError(err)
		os.Exit(1)
	}

	if !cfg.Quiet {
		ui.PrintSummary(summary)
	}
}
