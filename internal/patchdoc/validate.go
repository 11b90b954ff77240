package patchdoc

import (
	"fmt"

	"github.com/unxed/ap/internal/perr"
	"github.com/unxed/ap/model"
)

// Validate enforces spec.md §3's cross-field invariants on a decoded
// modification, independent of which dialect produced it.
func Validate(m model.Modification) error {
	hasSnippet := m.Snippet != ""
	hasRange := m.StartSnippet != "" || m.EndSnippet != ""

	switch m.Action {
	case model.ActionCreateFile:
		if hasSnippet || hasRange {
			return perr.New(perr.KindMalformedPatch, "CREATE_FILE must not specify snippet or start_snippet/end_snippet")
		}
		if m.Content == nil {
			return perr.New(perr.KindMalformedPatch, "CREATE_FILE requires content")
		}
		return nil

	case model.ActionInsertAfter, model.ActionInsertBefore:
		if hasRange {
			return perr.New(perr.KindMalformedPatch, fmt.Sprintf("%s must use a point snippet, not start_snippet/end_snippet", m.Action))
		}
		if !hasSnippet {
			return perr.New(perr.KindMalformedPatch, fmt.Sprintf("%s requires snippet", m.Action))
		}
		if m.Content == nil {
			return perr.New(perr.KindMalformedPatch, fmt.Sprintf("%s requires content", m.Action))
		}
		return nil

	case model.ActionReplace:
		if hasSnippet == hasRange {
			return perr.New(perr.KindMalformedPatch, "REPLACE requires exactly one of snippet or (start_snippet,end_snippet)")
		}
		if m.Content == nil {
			return perr.New(perr.KindMalformedPatch, "REPLACE requires content")
		}
		return nil

	case model.ActionDelete:
		if hasSnippet == hasRange {
			return perr.New(perr.KindMalformedPatch, "DELETE requires exactly one of snippet or (start_snippet,end_snippet)")
		}
		if m.Content != nil {
			return perr.New(perr.KindMalformedPatch, "DELETE must not specify content")
		}
		return nil

	default:
		return perr.New(perr.KindMalformedPatch, fmt.Sprintf("unknown action %q", m.Action))
	}
}
