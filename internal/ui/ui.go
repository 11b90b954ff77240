// Package ui renders the CLI's diagnostics: colored progress headers,
// per-modification error reports (file path + 1-based modification index,
// per spec §7), and the final created/updated/skipped/failed summary.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/unxed/ap/internal/perr"
	"github.com/unxed/ap/model"
)

var (
	HeaderColor  = color.New(color.FgBlue, color.Bold)
	InfoColor    = color.New(color.FgCyan)
	SuccessColor = color.New(color.FgGreen)
	WarningColor = color.New(color.FgYellow)
	ErrorColor   = color.New(color.FgRed)
	PathColor    = color.New(color.FgYellow)
)

func Header(format string, a ...interface{}) {
	HeaderColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Info(format string, a ...interface{}) {
	InfoColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Success(format string, a ...interface{}) {
	SuccessColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Warning(format string, a ...interface{}) {
	WarningColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Error(format string, a ...interface{}) {
	ErrorColor.Fprintf(os.Stderr, format+"\n", a...)
}

func Path(format string, a ...interface{}) {
	PathColor.Fprintf(os.Stderr, "  "+format+"\n", a...)
}

// ReportError prints an engine error to stderr, including the file path
// and 1-based modification index spec §7 requires, plus any fuzzy-match
// suggestions (§3A) attached to the underlying *perr.Error.
func ReportError(err error) {
	pe, ok := err.(*perr.Error)
	if !ok {
		Error("%v", err)
		return
	}

	loc := ""
	if pe.FilePath != "" {
		loc = " in " + pe.FilePath
		if pe.ModIndex > 0 {
			loc += fmt.Sprintf(" (modification #%d)", pe.ModIndex)
		}
	}
	Error("%s%s: %s", pe.Kind, loc, pe.Message)
	if len(pe.Fuzzy) > 0 {
		Warning("  Did you mean one of these?")
		for _, m := range pe.Fuzzy {
			Path("line %d (score %.2f): %s", m.LineNumber, m.Score, m.Text)
		}
	}
}

// PrintSummary reports the outcome of a completed transaction, grouped
// the way the teacher's PrintUpdateSummary groups created/modified/failed
// file lists.
func PrintSummary(s model.Summary) {
	Header("\n--- Summary ---")
	if len(s.Created) == 0 && len(s.Updated) == 0 && len(s.Skipped) == 0 && len(s.Failed) == 0 {
		Info("No files were changed.")
		return
	}
	if len(s.Created) > 0 {
		Success("Created %d file(s):", len(s.Created))
		for _, f := range s.Created {
			Path("%s", f)
		}
	}
	if len(s.Updated) > 0 {
		Success("Updated %d file(s):", len(s.Updated))
		for _, f := range s.Updated {
			Path("%s", f)
		}
	}
	if len(s.Skipped) > 0 {
		Info("Skipped %d already-applied file(s).", len(s.Skipped))
	}
	if len(s.Failed) > 0 {
		Error("Failed %d file(s):", len(s.Failed))
		for _, f := range s.Failed {
			Path("%s", f)
		}
	}
}
