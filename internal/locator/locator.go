// Package locator implements the locate_anchor / locate_snippet /
// locate_range contract from spec §4.2: resolving an anchor or snippet
// fragment to a line range in a target file buffer under the normalized
// matching discipline from internal/normalize.
//
// The locator is a pure function over []string — it never touches the
// filesystem, which is what makes it directly unit-testable (spec §9,
// "Locator as pure function").
package locator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/unxed/ap/internal/normalize"
	"github.com/unxed/ap/internal/perr"
)

// LineRange is an inclusive, 0-based [Start,End] span of original line
// indices in a file buffer.
type LineRange struct {
	Start int
	End   int
}

// Len returns the number of lines the range covers.
func (r LineRange) Len() int { return r.End - r.Start + 1 }

func matchAll(lines []string, pattern []string) []LineRange {
	n := len(pattern)
	if n == 0 {
		return nil
	}
	norm := normalize.Build(lines)
	var ranges []LineRange
	for i := 0; i+n <= len(norm.Lines); i++ {
		ok := true
		for j := 0; j < n; j++ {
			if norm.Lines[i+j] != pattern[j] {
				ok = false
				break
			}
		}
		if ok {
			ranges = append(ranges, LineRange{Start: norm.Origin[i], End: norm.Origin[i+n-1]})
		}
	}
	return ranges
}

// LocateAnchor resolves anchorText to the unique line range it matches in
// fileLines. It fails with AnchorNotFound or AnchorAmbiguous unless exactly
// one normalized match exists.
func LocateAnchor(fileLines []string, anchorText string) (LineRange, error) {
	pattern := normalize.Pattern(anchorText)
	if len(pattern) == 0 {
		return LineRange{}, perr.New(perr.KindEmptyPattern, "anchor is empty after normalization")
	}
	matches := matchAll(fileLines, pattern)
	switch len(matches) {
	case 0:
		return LineRange{}, perr.New(perr.KindAnchorNotFound, "anchor not found")
	case 1:
		return matches[0], nil
	default:
		return LineRange{}, perr.New(perr.KindAnchorAmbiguous, fmt.Sprintf("anchor found %d times", len(matches)))
	}
}

// LocateSnippet resolves snippetText to a line range. When anchor is nil,
// the search spans the whole file and a second match is an error
// (SnippetAmbiguous). When anchor is non-nil, the search begins on the
// line following anchor.End and the first match wins (SnippetNotFound
// otherwise) — per spec §4.2/§9 ("search begins on the line following the
// anchor's last line").
func LocateSnippet(fileLines []string, snippetText string, anchor *LineRange) (LineRange, error) {
	pattern := normalize.Pattern(snippetText)
	if len(pattern) == 0 {
		return LineRange{}, perr.New(perr.KindEmptyPattern, "snippet is empty after normalization")
	}

	offset := 0
	searchLines := fileLines
	anchored := anchor != nil
	if anchored {
		offset = anchor.End + 1
		if offset > len(fileLines) {
			searchLines = nil
		} else {
			searchLines = fileLines[offset:]
		}
	}

	matches := matchAll(searchLines, pattern)
	for i := range matches {
		matches[i].Start += offset
		matches[i].End += offset
	}

	if len(matches) == 0 {
		err := perr.New(perr.KindSnippetNotFound, "snippet not found")
		err.Fuzzy = FuzzyMatches(fileLines, snippetText)
		return LineRange{}, err
	}
	if !anchored && len(matches) > 1 {
		return LineRange{}, perr.New(perr.KindSnippetAmbiguous, fmt.Sprintf("snippet found %d times", len(matches)))
	}
	return matches[0], nil
}

// LocateRange resolves a (startSnippet, endSnippet) pair to the line range
// spanning from the start of the start match through the end of the first
// end match whose first line index is greater than the start match's last
// line.
func LocateRange(fileLines []string, startSnippet, endSnippet string, anchor *LineRange) (LineRange, error) {
	start, err := LocateSnippet(fileLines, startSnippet, anchor)
	if err != nil {
		return LineRange{}, err
	}

	endPattern := normalize.Pattern(endSnippet)
	if len(endPattern) == 0 {
		return LineRange{}, perr.New(perr.KindEmptyPattern, "end_snippet is empty after normalization")
	}

	tailOffset := start.End + 1
	var tail []string
	if tailOffset < len(fileLines) {
		tail = fileLines[tailOffset:]
	}
	matches := matchAll(tail, endPattern)
	if len(matches) == 0 {
		e := perr.New(perr.KindEndSnippetNotFound, "end_snippet not found after start_snippet")
		e.Fuzzy = FuzzyMatches(fileLines, endSnippet)
		return LineRange{}, e
	}
	end := matches[0]
	return LineRange{Start: start.Start, End: end.End + tailOffset}, nil
}

// ExpandBlankLines grows r upward by up to `leading` contiguous blank
// lines immediately preceding it, and downward by up to `trailing`
// contiguous blank lines immediately following it, stopping at the first
// non-blank line or a file boundary, per spec §4.2.
func ExpandBlankLines(fileLines []string, r LineRange, leading, trailing int) LineRange {
	start := r.Start
	for i := 0; i < leading && start > 0; i++ {
		if normalize.IsBlank(fileLines[start-1]) {
			start--
		} else {
			break
		}
	}
	end := r.End
	for i := 0; i < trailing && end < len(fileLines)-1; i++ {
		if normalize.IsBlank(fileLines[end+1]) {
			end++
		} else {
			break
		}
	}
	return LineRange{Start: start, End: end}
}

// FuzzyMatches returns up to three near-miss lines for a snippet that
// failed to match, ranked by similarity to the snippet's first line. This
// is a diagnostic aid ported from original_source/ap.py's
// get_fuzzy_matches; it never participates in actual matching.
func FuzzyMatches(fileLines []string, snippet string) []perr.FuzzyMatch {
	trimmedSnippet := strings.TrimSpace(snippet)
	if trimmedSnippet == "" {
		return nil
	}
	firstLine := strings.SplitN(trimmedSnippet, "\n", 2)[0]
	firstLine = strings.TrimSpace(firstLine)
	if firstLine == "" {
		return nil
	}

	var candidates []perr.FuzzyMatch
	for i, line := range fileLines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		score := similarityRatio(firstLine, trimmed)
		if score >= 0.7 {
			candidates = append(candidates, perr.FuzzyMatch{
				LineNumber: i + 1,
				Score:      score,
				Text:       trimmed,
			})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > 3 {
		candidates = candidates[:3]
	}
	return candidates
}

// similarityRatio approximates difflib.SequenceMatcher.ratio(): twice the
// length of the longest common subsequence, divided by the combined
// length of both strings.
func similarityRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	lcs := longestCommonSubsequence(a, b)
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	return float64(2*lcs) / float64(total)
}

func longestCommonSubsequence(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
