package patchdoc

import (
	"github.com/unxed/ap/model"
)

// Format names a surface dialect, for callers (the CLI's --format flag)
// that want to force one instead of relying on auto-detection.
type Format string

const (
	FormatAuto         Format = ""
	FormatYAML         Format = "yaml"
	FormatLinePrefixed Format = "line-prefixed"
)

// Parse unwraps a markdown code fence if present, then decodes the patch
// document using format, or — when format is FormatAuto — by detecting
// the line-prefixed dialect's header and falling back to YAML otherwise,
// per SPEC_FULL.md §6.
func Parse(raw []byte, format Format) (model.PatchDocument, error) {
	content := UnwrapFence(raw)

	switch format {
	case FormatLinePrefixed:
		return ParseLinePrefixed(string(content))
	case FormatYAML:
		return ParseYAML(content)
	default:
		if looksLinePrefixed(string(content)) {
			return ParseLinePrefixed(string(content))
		}
		return ParseYAML(content)
	}
}
