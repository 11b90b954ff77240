// Package mutate implements the idempotency checker and mutator
// components from spec §4.4/§4.5: deciding whether a modification is
// already reflected in a buffer, and — when it is not — splicing the
// buffer to apply it.
package mutate

import (
	"strings"

	"github.com/unxed/ap/internal/perr"
)

// isAbsenceKind reports whether err is one of the "could not locate"
// kinds (as opposed to Ambiguous or EmptyPattern, which are real failures
// even for an idempotency check) — spec §4.4's DELETE/REPLACE skip
// conditions only fire on these.
func isAbsenceKind(err error) bool {
	e, ok := err.(*perr.Error)
	if !ok {
		return false
	}
	switch e.Kind {
	case perr.KindAnchorNotFound, perr.KindSnippetNotFound, perr.KindEndSnippetNotFound:
		return true
	default:
		return false
	}
}

// equalIgnoringTrailingWhitespace reports whether a and b are the same
// length and, line for line, equal once trailing horizontal whitespace is
// stripped from each side — the comparison spec §4.4 calls "byte-identical
// after trailing-whitespace normalization".
func equalIgnoringTrailingWhitespace(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if strings.TrimRight(a[i], " \t") != strings.TrimRight(b[i], " \t") {
			return false
		}
	}
	return true
}

// sliceWindow returns lines[start:start+count], clipped to the valid
// range of lines. A request that falls partly or fully outside the
// buffer yields a shorter (or nil) slice, which simply fails the
// equality check in equalIgnoringTrailingWhitespace rather than panicking.
func sliceWindow(lines []string, start, count int) []string {
	if count <= 0 {
		return nil
	}
	if start < 0 {
		count += start
		start = 0
	}
	if start >= len(lines) || count <= 0 {
		return nil
	}
	end := start + count
	if end > len(lines) {
		end = len(lines)
	}
	return lines[start:end]
}
