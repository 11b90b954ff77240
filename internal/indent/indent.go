// Package indent implements the indenter component from spec §4.3:
// reflowing inserted/replacement content to the effective indent of the
// region it is placed at, without touching the content's own relative
// indentation.
package indent

import "strings"

// EffectiveIndent returns the leading horizontal whitespace of line,
// i.e. the effective indent to apply to content placed at that line.
func EffectiveIndent(line string) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[:i]
}

// Apply prepends indent to every non-blank line of content, leaving blank
// lines untouched and never altering content's internal relative
// indentation. content is split on "\n"; the returned slice has the same
// number of elements, except that empty content yields nil.
func Apply(content string, indent string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	out := make([]string, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			out[i] = line
			continue
		}
		out[i] = indent + line
	}
	return out
}
