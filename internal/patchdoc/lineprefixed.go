package patchdoc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/unxed/ap/internal/perr"
	"github.com/unxed/ap/model"
)

var (
	headerPattern = regexp.MustCompile(`^([a-f0-9]{8})\s+AP\s+3\.0$`)

	actionKeys  = map[string]bool{"REPLACE": true, "INSERT_AFTER": true, "INSERT_BEFORE": true, "DELETE": true, "CREATE_FILE": true}
	valueKeys   = map[string]bool{"path": true, "snippet": true, "anchor": true, "content": true, "start_snippet": true, "end_snippet": true}
	argKeys     = map[string]bool{"include_leading_blank_lines": true, "include_trailing_blank_lines": true}
	newlineVals = map[string]bool{"LF": true, "CRLF": true, "CR": true}
)

// rawModification accumulates directive values before conversion to
// model.Modification; a plain map mirrors ap.py's dict-of-str-to-value.
type rawModification struct {
	action string
	values map[string]string
	args   map[string]int
}

// rawFileChange accumulates one FILE block's directives.
type rawFileChange struct {
	filePath      string
	newline       string
	modifications []*rawModification
}

// ParseLinePrefixed decodes the line-prefixed dialect: an 8-hex-digit
// header line "<id> AP 3.0", followed by directive lines each prefixed
// with that same id, one directive per line. Directly grounded on
// original_source/ap.py's parse_ap3_format, which this reproduces
// line-for-line in Go idiom (regex-anchored directive matching, a
// reading-key/value-lines accumulator for multi-line directive bodies).
func ParseLinePrefixed(data string) (model.PatchDocument, error) {
	lines := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n")

	var patchID string
	var directivePattern *regexp.Regexp
	var headerLine int

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		m := headerPattern.FindStringSubmatch(trimmed)
		if m == nil {
			return model.PatchDocument{}, perr.New(perr.KindMalformedPatch,
				fmt.Sprintf("invalid AP 3.0 header on line %d", i+1))
		}
		patchID = m[1]
		directivePattern = regexp.MustCompile(`^` + regexp.QuoteMeta(patchID) + `\s+(.*)$`)
		headerLine = i + 1
		break
	}

	doc := model.PatchDocument{Version: "3.0"}
	if patchID == "" {
		return doc, nil
	}

	var changes []*rawFileChange
	var currentChange *rawFileChange
	var currentMod *rawModification
	var readingKey string
	var valueLines []string

	flush := func() {
		if readingKey == "" {
			return
		}
		value := trimBlankEdges(valueLines)
		if readingKey == "path" && currentChange != nil {
			currentChange.filePath = value
		} else if currentMod != nil {
			if currentMod.values == nil {
				currentMod.values = map[string]string{}
			}
			currentMod.values[readingKey] = value
		}
		readingKey, valueLines = "", nil
	}

	for i := headerLine; i < len(lines); i++ {
		line := lines[i]
		lineNum := i + 1

		m := directivePattern.FindStringSubmatch(line)
		if m == nil {
			if readingKey != "" {
				valueLines = append(valueLines, line)
				continue
			}
			if strings.TrimSpace(line) != "" {
				return model.PatchDocument{}, perr.New(perr.KindMalformedPatch,
					fmt.Sprintf("unexpected content on line %d", lineNum))
			}
			continue
		}

		flush()

		parts := strings.SplitN(strings.TrimSpace(m[1]), " ", 2)
		key := parts[0]
		var args string
		if len(parts) > 1 {
			args = strings.TrimSpace(parts[1])
		}

		switch {
		case key == "FILE":
			currentChange = &rawFileChange{}
			changes = append(changes, currentChange)
			if args != "" && newlineVals[args] {
				currentChange.newline = args
			}
			currentMod, readingKey = nil, "path"

		case actionKeys[key]:
			if currentChange == nil {
				return model.PatchDocument{}, perr.New(perr.KindMalformedPatch,
					fmt.Sprintf("action %q on line %d before FILE", key, lineNum))
			}
			currentMod = &rawModification{action: key}
			currentChange.modifications = append(currentChange.modifications, currentMod)

		case valueKeys[key]:
			if args != "" {
				return model.PatchDocument{}, perr.New(perr.KindMalformedPatch,
					fmt.Sprintf("directive %q on line %d takes no arguments", key, lineNum))
			}
			if key != "path" && currentMod == nil {
				return model.PatchDocument{}, perr.New(perr.KindMalformedPatch,
					fmt.Sprintf("%q on line %d outside modification", key, lineNum))
			}
			readingKey = key

		case argKeys[key]:
			if currentMod == nil {
				return model.PatchDocument{}, perr.New(perr.KindMalformedPatch,
					fmt.Sprintf("%q on line %d outside modification", key, lineNum))
			}
			if args == "" {
				return model.PatchDocument{}, perr.New(perr.KindMalformedPatch,
					fmt.Sprintf("directive %q on line %d requires an argument", key, lineNum))
			}
			n, err := strconv.Atoi(args)
			if err != nil {
				return model.PatchDocument{}, perr.New(perr.KindMalformedPatch,
					fmt.Sprintf("argument for %q on line %d must be an integer", key, lineNum))
			}
			if currentMod.args == nil {
				currentMod.args = map[string]int{}
			}
			currentMod.args[key] = n

		case newlineVals[key]:
			if currentChange == nil {
				return model.PatchDocument{}, perr.New(perr.KindMalformedPatch,
					fmt.Sprintf("newline %q on line %d before FILE", key, lineNum))
			}
			currentChange.newline = key

		default:
			return model.PatchDocument{}, perr.New(perr.KindMalformedPatch,
				fmt.Sprintf("unknown directive %q on line %d", key, lineNum))
		}
	}
	flush()

	for _, rc := range changes {
		fc, err := convertRawFileChange(rc)
		if err != nil {
			return model.PatchDocument{}, err
		}
		doc.Changes = append(doc.Changes, fc)
	}
	return doc, nil
}

func trimBlankEdges(lines []string) string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

func convertRawFileChange(rc *rawFileChange) (model.FileChange, error) {
	if strings.TrimSpace(rc.filePath) == "" {
		return model.FileChange{}, perr.New(perr.KindMalformedPatch, "FILE directive requires a path")
	}
	for _, part := range strings.Split(strings.ReplaceAll(rc.filePath, "\\", "/"), "/") {
		if part == ".." {
			return model.FileChange{}, perr.New(perr.KindMalformedPatch,
				fmt.Sprintf("file_path %q must not traverse parent directories", rc.filePath))
		}
	}
	nl, err := convertNewline(rc.newline)
	if err != nil {
		return model.FileChange{}, err
	}

	fc := model.FileChange{FilePath: rc.filePath, Newline: nl}
	for i, rm := range rc.modifications {
		mod, err := convertRawModification(rm)
		if err != nil {
			return model.FileChange{}, perr.Wrap(perr.KindMalformedPatch,
				fmt.Sprintf("modification #%d in %q", i+1, rc.filePath), err)
		}
		fc.Modifications = append(fc.Modifications, mod)
	}
	return fc, nil
}

func convertRawModification(rm *rawModification) (model.Modification, error) {
	mod := model.Modification{
		Action:       model.Action(rm.action),
		Snippet:      rm.values["snippet"],
		StartSnippet: rm.values["start_snippet"],
		EndSnippet:   rm.values["end_snippet"],
		Anchor:       rm.values["anchor"],
	}
	if content, ok := rm.values["content"]; ok {
		mod.Content = &content
	}
	mod.IncludeLeadingBlankLines = rm.args["include_leading_blank_lines"]
	mod.IncludeTrailingBlankLines = rm.args["include_trailing_blank_lines"]

	return mod, Validate(mod)
}
