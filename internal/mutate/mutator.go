package mutate

import (
	"fmt"

	"github.com/unxed/ap/internal/indent"
	"github.com/unxed/ap/internal/locator"
	"github.com/unxed/ap/model"
)

// Apply executes one modification (every action except CREATE_FILE, which
// is a whole-file operation handled directly by internal/txn) against
// lines, returning the new buffer. skipped reports that the modification
// was already reflected in the buffer and nothing changed (spec §4.4's
// idempotent-skip semantics); err is non-nil only for a genuine failure.
func Apply(lines []string, mod model.Modification) (out []string, skipped bool, err error) {
	switch mod.Action {
	case model.ActionDelete:
		return applyDelete(lines, mod)
	case model.ActionReplace:
		return applyReplace(lines, mod)
	case model.ActionInsertAfter:
		return applyInsert(lines, mod, true)
	case model.ActionInsertBefore:
		return applyInsert(lines, mod, false)
	default:
		return lines, false, fmt.Errorf("mutate: action %q is not a buffer mutation", mod.Action)
	}
}

func locateAnchor(lines []string, anchorText string) (*locator.LineRange, error) {
	if anchorText == "" {
		return nil, nil
	}
	a, err := locator.LocateAnchor(lines, anchorText)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func locateTarget(lines []string, mod model.Modification) (locator.LineRange, error) {
	anchor, err := locateAnchor(lines, mod.Anchor)
	if err != nil {
		return locator.LineRange{}, err
	}
	if mod.HasRange() {
		return locator.LocateRange(lines, mod.StartSnippet, mod.EndSnippet, anchor)
	}
	return locator.LocateSnippet(lines, mod.Snippet, anchor)
}

func contentOf(mod model.Modification) string {
	if mod.Content == nil {
		return ""
	}
	return *mod.Content
}

func applyDelete(lines []string, mod model.Modification) ([]string, bool, error) {
	rng, err := locateTarget(lines, mod)
	if err != nil {
		if isAbsenceKind(err) {
			return lines, true, nil
		}
		return lines, false, err
	}
	rng = locator.ExpandBlankLines(lines, rng, mod.IncludeLeadingBlankLines, mod.IncludeTrailingBlankLines)

	out := make([]string, 0, len(lines)-rng.Len())
	out = append(out, lines[:rng.Start]...)
	out = append(out, lines[rng.End+1:]...)
	return out, false, nil
}

func applyReplace(lines []string, mod model.Modification) ([]string, bool, error) {
	rng, err := locateTarget(lines, mod)
	if err != nil {
		if isAbsenceKind(err) {
			// The original snippet is gone; if the replacement content is
			// already present at the same anchor, the edit has already
			// been applied (original_source/ap.py's REPLACE fallback
			// idempotency check).
			probe := model.Modification{Anchor: mod.Anchor, Snippet: contentOf(mod)}
			if _, perr := locateTarget(lines, probe); perr == nil {
				return lines, true, nil
			}
		}
		return lines, false, err
	}
	rng = locator.ExpandBlankLines(lines, rng, mod.IncludeLeadingBlankLines, mod.IncludeTrailingBlankLines)

	ind := indent.EffectiveIndent(lines[rng.Start])
	replacement := indent.Apply(contentOf(mod), ind)

	if equalIgnoringTrailingWhitespace(lines[rng.Start:rng.End+1], replacement) {
		return lines, true, nil
	}

	out := make([]string, 0, len(lines)-rng.Len()+len(replacement))
	out = append(out, lines[:rng.Start]...)
	out = append(out, replacement...)
	out = append(out, lines[rng.End+1:]...)
	return out, false, nil
}

func applyInsert(lines []string, mod model.Modification, after bool) ([]string, bool, error) {
	anchor, err := locateAnchor(lines, mod.Anchor)
	if err != nil {
		return lines, false, err
	}
	rng, err := locator.LocateSnippet(lines, mod.Snippet, anchor)
	if err != nil {
		return lines, false, err
	}

	ind := indent.EffectiveIndent(lines[rng.Start])
	block := indent.Apply(contentOf(mod), ind)

	if after {
		existing := sliceWindow(lines, rng.End+1, len(block))
		if equalIgnoringTrailingWhitespace(existing, block) {
			return lines, true, nil
		}
		out := make([]string, 0, len(lines)+len(block))
		out = append(out, lines[:rng.End+1]...)
		out = append(out, block...)
		out = append(out, lines[rng.End+1:]...)
		return out, false, nil
	}

	existing := sliceWindow(lines, rng.Start-len(block), len(block))
	if equalIgnoringTrailingWhitespace(existing, block) {
		return lines, true, nil
	}
	out := make([]string, 0, len(lines)+len(block))
	out = append(out, lines[:rng.Start]...)
	out = append(out, block...)
	out = append(out, lines[rng.Start:]...)
	return out, false, nil
}
