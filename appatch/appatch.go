// Package appatch orchestrates the whole application: resolving the
// patch document's source, parsing it, and driving a transaction against
// the target tree — adapted from the teacher's App (itf/itf.go in the
// retrieval pack).
package appatch

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/unxed/ap/cli"
	"github.com/unxed/ap/internal/patchdoc"
	"github.com/unxed/ap/internal/source"
	"github.com/unxed/ap/internal/txn"
	"github.com/unxed/ap/model"
)

// DetailedError enhances a standard error with a stack trace, for panics
// recovered while running a transaction.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string { return e.Err.Error() }
func (e *DetailedError) Unwrap() error { return e.Err }

// App orchestrates one invocation of the patch engine: locating the patch
// document, parsing it, and running it against the working directory.
type App struct {
	cfg            *cli.Config
	sourceProvider *source.Provider
	root           string
}

// New creates an App rooted at the current working directory.
func New(cfg *cli.Config) (*App, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("appatch: determining working directory: %w", err)
	}
	return &App{cfg: cfg, sourceProvider: source.New(), root: root}, nil
}

// Execute runs the configured patch document to completion, recovering
// from any panic in the engine the way the teacher's App.Execute does.
func (a *App) Execute() (summary model.Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()

	content, err := a.sourceProvider.GetContent(a.cfg.PatchPath)
	if err != nil {
		return model.Summary{}, err
	}
	if content == "" {
		return model.Summary{Message: "Patch source is empty. Nothing to process."}, nil
	}

	return a.Apply(content)
}

// Apply parses content as a patch document and runs it against the
// working directory. Exposed directly so library callers (and tests) can
// bypass source resolution entirely.
func (a *App) Apply(content string) (model.Summary, error) {
	doc, err := patchdoc.Parse([]byte(content), a.cfg.Format)
	if err != nil {
		return model.Summary{}, err
	}
	if len(doc.Changes) == 0 {
		return model.Summary{Message: "Patch document has no changes. Nothing to do."}, nil
	}

	driver, err := txn.New(a.root, a.cfg.DryRun, a.cfg.Force, a.cfg.Debug)
	if err != nil {
		return model.Summary{}, err
	}
	driver.FailedOutputPath = failedPatchPath(a.cfg.PatchPath)

	summary, err := driver.Run(doc)
	if err != nil {
		return model.Summary{}, err
	}
	a.relativizeSummaryPaths(&summary)
	return summary, nil
}

// failedPatchPath names the sibling document --force writes its skipped
// modifications to, derived from the original patch path (ap.py always
// wrote a fixed "afailed.ap"; a path-source document gets a sibling name
// instead so concurrent invocations on different patches don't collide).
func failedPatchPath(patchPath string) string {
	base := patchPath
	if base == "" {
		base = "patch"
	}
	return base + ".failed.yaml"
}

// relativizeSummaryPaths converts absolute file paths in a summary to be
// relative to the current working directory for cleaner display, mirroring
// the teacher's App.relativizeSummaryPaths.
func (a *App) relativizeSummaryPaths(summary *model.Summary) {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	makeRelative := func(paths []string) []string {
		rel := make([]string, len(paths))
		for i, p := range paths {
			if r, err := filepath.Rel(wd, p); err == nil {
				rel[i] = r
			} else {
				rel[i] = p
			}
		}
		return rel
	}
	summary.Created = makeRelative(summary.Created)
	summary.Updated = makeRelative(summary.Updated)
	summary.Skipped = makeRelative(summary.Skipped)
	summary.Failed = makeRelative(summary.Failed)
}
