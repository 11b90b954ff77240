// Package normalize implements the line-normalizer component: splitting
// text into lines, identifying blank lines, and trimming horizontal
// whitespace so the locator can match on content alone.
package normalize

import "strings"

// IsBlank reports whether line is empty or contains only horizontal
// whitespace.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// Trim removes leading and trailing horizontal whitespace from line.
func Trim(line string) string {
	return strings.TrimSpace(line)
}

// Lines splits text into raw lines on "\n", matching the file-session's
// internal line representation (callers have already normalized CRLF/CR to
// LF before reaching here).
func Lines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// Result is a normalized view of a block of text: the non-blank, trimmed
// lines, alongside a parallel mapping from each normalized line back to its
// zero-based origin index in the input slice the view was built from.
type Result struct {
	Lines  []string
	Origin []int
}

// Build produces the normalized view of lines: blank lines are dropped,
// remaining lines are trimmed, and Origin[i] records lines' index that
// produced Lines[i].
func Build(lines []string) Result {
	var r Result
	for i, line := range lines {
		if IsBlank(line) {
			continue
		}
		r.Lines = append(r.Lines, Trim(line))
		r.Origin = append(r.Origin, i)
	}
	return r
}

// Pattern normalizes a snippet/anchor block of text into the sequence of
// non-blank trimmed lines used as a search pattern. It never returns an
// Origin mapping since patterns are not matched back into any buffer.
func Pattern(text string) []string {
	return Build(Lines(text)).Lines
}
