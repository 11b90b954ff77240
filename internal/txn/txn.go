// Package txn implements the transaction driver from spec §4.7: it
// iterates a parsed patch document's file changes, drives a
// internal/session.Session per file through internal/mutate, and commits
// every touched file atomically via temp-file-plus-rename only after every
// modification in every file has succeeded, per spec §4.7 step 5 and the
// all-or-nothing invariant in §8.
package txn

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/unxed/ap/internal/fs"
	"github.com/unxed/ap/internal/mutate"
	"github.com/unxed/ap/internal/patchdoc"
	"github.com/unxed/ap/internal/perr"
	"github.com/unxed/ap/internal/session"
	"github.com/unxed/ap/internal/ui"
	"github.com/unxed/ap/model"
)

// defaultFailedOutputPath is used when the caller doesn't name one
// explicitly, mirroring ap.py's fixed "afailed.ap" output name.
const defaultFailedOutputPath = "patch.failed.yaml"

// Driver runs one patch document against the filesystem rooted at Root.
type Driver struct {
	Root string

	// DryRun computes the result without writing anything to disk.
	DryRun bool

	// Force suppresses idempotency-unrelated locator failures for
	// individual modifications (SPEC_FULL.md §3A's forgiving-apply mode)
	// instead of aborting the whole transaction; the offending
	// modification is skipped and recorded, but other files still commit.
	// The skipped modifications are written back out as a fresh patch
	// document at FailedOutputPath, per ap.py's afailed.ap.
	Force bool

	// Debug prints a line per modification as it locates/skips/applies,
	// per SPEC_FULL.md §3A's --debug flag.
	Debug bool

	// FailedOutputPath names the sibling patch document Force writes its
	// skipped modifications to. Relative paths resolve under Root.
	// Defaults to "patch.failed.yaml" when empty.
	FailedOutputPath string
}

// New creates a Driver rooted at root.
func New(root string, dryRun, force, debug bool) (*Driver, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("txn: resolving root %q: %w", root, err)
	}
	return &Driver{Root: abs, DryRun: dryRun, Force: force, Debug: debug}, nil
}

// Run applies doc to the driver's root, returning a summary on success. On
// any unrecovered error it returns immediately without touching disk
// (spec §8's atomicity invariant) unless Force is set, in which case the
// failing modification is recorded as skipped and the file's remaining
// modifications continue.
func (d *Driver) Run(doc model.PatchDocument) (model.Summary, error) {
	resolver, err := fs.New(d.Root)
	if err != nil {
		return model.Summary{}, perr.Wrap(perr.KindIOError, "resolving root", err)
	}

	type pending struct {
		path    string
		sess    *session.Session
		created bool
	}
	var plan []pending
	var failedChanges []model.FileChange
	var summary model.Summary

	for _, fc := range doc.Changes {
		absPath, err := resolver.Resolve(fc.FilePath)
		if err != nil {
			return model.Summary{}, perr.Wrap(perr.KindMalformedPatch, "invalid file_path", err).WithLocation(fc.FilePath, 0)
		}

		sess, err := session.Load(absPath)
		if err != nil {
			return model.Summary{}, perr.Wrap(perr.KindIOError, "loading file", err).WithLocation(fc.FilePath, 0)
		}

		created := false
		anyApplied := false
		anyIdempotentSkip := false
		var failedMods []model.Modification

		for modIdx, mod := range fc.Modifications {
			if mod.Action == model.ActionCreateFile {
				// CREATE_FILE is always the terminal modification for a
				// file change, matching ap.py's apply_patch, which breaks
				// out of the modifications loop right after handling it
				// (success, idempotent skip, or forced failure alike).
				ok, skip, err := applyCreateFile(sess, mod, fc.Newline)
				if err != nil {
					if d.Force {
						failedMods = append(failedMods, mod)
						if d.Debug {
							ui.Info("debug: %s modification #%d in %s skipped (forced): %v", mod.Action, modIdx+1, fc.FilePath, err)
						}
						break
					}
					return model.Summary{}, err.WithLocation(fc.FilePath, modIdx+1)
				}
				if ok {
					created = true
					anyApplied = true
				}
				if skip {
					anyIdempotentSkip = true
				}
				break
			}

			if !sess.Exists() {
				e := perr.New(perr.KindFileNotFound, "target file does not exist")
				if d.Force {
					failedMods = append(failedMods, mod)
					continue
				}
				return model.Summary{}, e.WithLocation(fc.FilePath, modIdx+1)
			}

			out, skipped, err := mutate.Apply(sess.Lines(), mod)
			if err != nil {
				if d.Force {
					failedMods = append(failedMods, mod)
					if d.Debug {
						ui.Info("debug: %s modification #%d in %s skipped (forced): %v", mod.Action, modIdx+1, fc.FilePath, err)
					}
					continue
				}
				pe, ok := err.(*perr.Error)
				if !ok {
					pe = perr.Wrap(perr.KindIOError, "applying modification", err)
				}
				return model.Summary{}, pe.WithLocation(fc.FilePath, modIdx+1)
			}
			if skipped {
				anyIdempotentSkip = true
				if d.Debug {
					ui.Info("debug: %s modification #%d in %s already applied, skipping", mod.Action, modIdx+1, fc.FilePath)
				}
				continue
			}
			if d.Debug {
				ui.Info("debug: %s modification #%d in %s applied", mod.Action, modIdx+1, fc.FilePath)
			}
			sess.SetLines(out)
			anyApplied = true
		}

		switch {
		case created:
			summary.Created = append(summary.Created, fc.FilePath)
		case anyApplied:
			summary.Updated = append(summary.Updated, fc.FilePath)
		case anyIdempotentSkip && len(failedMods) == 0:
			summary.Skipped = append(summary.Skipped, fc.FilePath)
		}

		if len(failedMods) > 0 {
			summary.Failed = append(summary.Failed, fc.FilePath)
			failedChanges = append(failedChanges, model.FileChange{
				FilePath:      fc.FilePath,
				Newline:       fc.Newline,
				Modifications: failedMods,
			})
		}

		if anyApplied || created {
			plan = append(plan, pending{path: absPath, sess: sess, created: created})
		}
	}

	// The failed-modifications document is written whenever Force skipped
	// something, independent of DryRun — it is a diagnostic side file for
	// re-authoring, not a mutation of the target tree, matching ap.py's
	// unconditional afailed.ap write.
	if d.Force && len(failedChanges) > 0 {
		if err := d.writeFailedDocument(failedChanges); err != nil {
			return model.Summary{}, err
		}
	}

	if d.DryRun {
		return summary, nil
	}

	for _, p := range plan {
		if err := fs.EnsureParentDir(p.path); err != nil {
			return model.Summary{}, perr.Wrap(perr.KindIOError, "creating parent directory", err).WithLocation(p.path, 0)
		}
		if err := writeAtomic(p.path, p.sess.Finalize()); err != nil {
			return model.Summary{}, perr.Wrap(perr.KindIOError, "committing file", err).WithLocation(p.path, 0)
		}
	}

	return summary, nil
}

// writeFailedDocument writes changes (the skipped modifications Force
// collected) back out as a fresh YAML patch document at d.FailedOutputPath,
// ported from ap.py's afailed.ap writer (SPEC_FULL.md §3A).
func (d *Driver) writeFailedDocument(changes []model.FileChange) *perr.Error {
	data, err := patchdoc.MarshalYAML(model.PatchDocument{Version: "2.0", Changes: changes})
	if err != nil {
		pe, ok := err.(*perr.Error)
		if !ok {
			pe = perr.Wrap(perr.KindIOError, "encoding failed-modifications document", err)
		}
		return pe
	}

	outPath := d.FailedOutputPath
	if outPath == "" {
		outPath = defaultFailedOutputPath
	}
	if !filepath.IsAbs(outPath) {
		outPath = filepath.Join(d.Root, outPath)
	}

	if err := fs.EnsureParentDir(outPath); err != nil {
		return perr.Wrap(perr.KindIOError, "creating parent directory for failed-modifications document", err).WithLocation(outPath, 0)
	}
	if err := writeAtomic(outPath, data); err != nil {
		return perr.Wrap(perr.KindIOError, "writing failed-modifications document", err).WithLocation(outPath, 0)
	}
	modCount := 0
	for _, fc := range changes {
		modCount += len(fc.Modifications)
	}
	ui.Warning("%d modification(s) could not be applied; written to %s for re-authoring", modCount, outPath)
	return nil
}

// applyCreateFile implements spec §4.4's CREATE_FILE idempotency rule: a
// no-op if the file already exists with byte-identical content, a hard
// error if it exists with different content.
func applyCreateFile(sess *session.Session, mod model.Modification, newline model.Newline) (created, skipped bool, err *perr.Error) {
	content := ""
	if mod.Content != nil {
		content = *mod.Content
	}
	if sess.Exists() {
		if string(sess.Original()) == content {
			return false, true, nil
		}
		return false, false, perr.New(perr.KindFileExistsMismatch, "file exists with different content")
	}
	sess.SetCreated()
	sess.SetLines(splitContentLines(content))
	sess.SetNewline(newline)
	return true, false, nil
}

// splitContentLines splits content into a line sequence the way
// internal/session loads an existing file: a trailing newline is implied
// by SetCreated's terminal-newline policy, not represented as a final
// empty line.
func splitContentLines(content string) []string {
	if content == "" {
		return nil
	}
	trimmed := strings.TrimSuffix(content, "\n")
	return strings.Split(trimmed, "\n")
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".ap-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if info, err := os.Stat(path); err == nil {
		os.Chmod(tmpPath, info.Mode())
	}
	return os.Rename(tmpPath, path)
}
