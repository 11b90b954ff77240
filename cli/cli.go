// Package cli defines and parses the command's flags, adapted from the
// teacher's pflag-based Config (cli/cli.go in the retrieval pack).
package cli

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/unxed/ap/internal/patchdoc"
)

// Config holds all the command-line flag values.
type Config struct {
	PatchPath string
	DryRun    bool
	Force     bool
	Debug     bool
	Quiet     bool
	Format    patchdoc.Format
}

// ParseFlags defines and parses command-line flags using pflag.
func ParseFlags() (*Config, error) {
	cfg := &Config{}
	var format string

	pflag.StringVar(&cfg.PatchPath, "patch", "", "Path to the patch document (default: positional argument, stdin, or clipboard).")
	pflag.BoolVar(&cfg.DryRun, "dry-run", false, "Compute the result without writing any file to disk.")
	pflag.BoolVar(&cfg.Force, "force", false, "Skip modifications that fail to locate instead of aborting the whole patch.")
	pflag.BoolVar(&cfg.Debug, "debug", false, "Print verbose diagnostics for every located modification.")
	pflag.BoolVarP(&cfg.Quiet, "quiet", "q", false, "Do not print the final summary; errors still go to stderr.")
	pflag.StringVar(&format, "format", "", "Force the patch document dialect: 'yaml' or 'line-prefixed' (default: auto-detect).")

	pflag.Usage = func() {
		fmt.Println("Usage: ap [patch-file] [flags]")
		fmt.Println("\nApply a declarative, AI-authored patch document to a text-file tree.")
		fmt.Println("\nExample: ap changes.yaml")
		fmt.Println("         pbpaste | ap --dry-run")
		fmt.Println("\nFlags:")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if cfg.PatchPath == "" && pflag.NArg() > 0 {
		cfg.PatchPath = pflag.Arg(0)
	}

	switch format {
	case "":
		cfg.Format = patchdoc.FormatAuto
	case "yaml":
		cfg.Format = patchdoc.FormatYAML
	case "line-prefixed":
		cfg.Format = patchdoc.FormatLinePrefixed
	default:
		return nil, fmt.Errorf("error: --format must be 'yaml' or 'line-prefixed', got %q", format)
	}

	return cfg, nil
}
