// Package patchdoc decodes a patch document in either of its two surface
// dialects — YAML-structured (v1.0/v2.0) or line-prefixed (grounded on
// original_source/ap.py's parse_ap3_format) — into a single
// dialect-agnostic model.PatchDocument, per spec.md §6 and §9's Open
// Question resolution.
package patchdoc

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/unxed/ap/internal/perr"
	"github.com/unxed/ap/model"
)

// yamlDocument mirrors the root mapping of the YAML dialect.
type yamlDocument struct {
	Version string           `yaml:"version"`
	Changes []yamlFileChange `yaml:"changes"`
}

type yamlFileChange struct {
	FilePath      string             `yaml:"file_path"`
	Newline       string             `yaml:"newline,omitempty"`
	Modifications []yamlModification `yaml:"modifications"`
}

// yamlModification accepts both the v1.0 nested `target:` shape and the
// v2.0 flat-field shape; whichever is present wins.
type yamlModification struct {
	Action       string      `yaml:"action"`
	Target       *yamlTarget `yaml:"target,omitempty"`
	Snippet      string      `yaml:"snippet,omitempty"`
	StartSnippet string      `yaml:"start_snippet,omitempty"`
	EndSnippet   string      `yaml:"end_snippet,omitempty"`
	Anchor       string      `yaml:"anchor,omitempty"`

	IncludeLeadingBlankLines  *int `yaml:"include_leading_blank_lines,omitempty"`
	IncludeTrailingBlankLines *int `yaml:"include_trailing_blank_lines,omitempty"`

	Content *string `yaml:"content,omitempty"`
}

type yamlTarget struct {
	Snippet                   string `yaml:"snippet"`
	Anchor                    string `yaml:"anchor"`
	IncludeLeadingBlankLines  *int   `yaml:"include_leading_blank_lines"`
	IncludeTrailingBlankLines *int   `yaml:"include_trailing_blank_lines"`
}

// ParseYAML decodes the YAML dialect (spec.md §6) into a model.PatchDocument,
// validating the cross-field invariants spec §3/§4.7 require at parse time.
func ParseYAML(data []byte) (model.PatchDocument, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return model.PatchDocument{}, perr.Wrap(perr.KindMalformedPatch, "invalid YAML patch document", err)
	}

	out := model.PatchDocument{Version: doc.Version, Changes: make([]model.FileChange, 0, len(doc.Changes))}
	for _, fc := range doc.Changes {
		change, err := convertFileChange(fc)
		if err != nil {
			return model.PatchDocument{}, err
		}
		out.Changes = append(out.Changes, change)
	}
	return out, nil
}

func convertFileChange(fc yamlFileChange) (model.FileChange, error) {
	if strings.TrimSpace(fc.FilePath) == "" {
		return model.FileChange{}, perr.New(perr.KindMalformedPatch, "file_path is required")
	}
	for _, part := range strings.Split(strings.ReplaceAll(fc.FilePath, "\\", "/"), "/") {
		if part == ".." {
			return model.FileChange{}, perr.New(perr.KindMalformedPatch, fmt.Sprintf("file_path %q must not traverse parent directories", fc.FilePath))
		}
	}

	nl, err := convertNewline(fc.Newline)
	if err != nil {
		return model.FileChange{}, err
	}

	change := model.FileChange{FilePath: fc.FilePath, Newline: nl}
	for i, m := range fc.Modifications {
		mod, err := convertModification(m)
		if err != nil {
			return model.FileChange{}, perr.Wrap(perr.KindMalformedPatch,
				fmt.Sprintf("modification #%d in %q", i+1, fc.FilePath), err)
		}
		change.Modifications = append(change.Modifications, mod)
	}
	return change, nil
}

func convertNewline(s string) (model.Newline, error) {
	switch s {
	case "":
		return "", nil
	case string(model.NewlineLF), string(model.NewlineCRLF), string(model.NewlineCR):
		return model.Newline(s), nil
	default:
		return "", perr.New(perr.KindMalformedPatch, fmt.Sprintf("newline %q must be one of LF, CRLF, CR", s))
	}
}

func convertModification(m yamlModification) (model.Modification, error) {
	action := model.Action(strings.ToUpper(m.Action))
	switch action {
	case model.ActionReplace, model.ActionInsertAfter, model.ActionInsertBefore, model.ActionDelete, model.ActionCreateFile:
	default:
		return model.Modification{}, perr.New(perr.KindMalformedPatch, fmt.Sprintf("unknown action %q", m.Action))
	}

	mod := model.Modification{Action: action, Content: m.Content}

	// The v1.0 nested `target:` shape takes precedence when present; it is
	// mutually exclusive with the v2.0 flat fields by construction (a
	// well-formed document uses one or the other).
	if m.Target != nil {
		mod.Snippet = m.Target.Snippet
		mod.Anchor = m.Target.Anchor
		mod.IncludeLeadingBlankLines = intOrZero(m.Target.IncludeLeadingBlankLines)
		mod.IncludeTrailingBlankLines = intOrZero(m.Target.IncludeTrailingBlankLines)
	} else {
		mod.Snippet = m.Snippet
		mod.StartSnippet = m.StartSnippet
		mod.EndSnippet = m.EndSnippet
		mod.Anchor = m.Anchor
		mod.IncludeLeadingBlankLines = intOrZero(m.IncludeLeadingBlankLines)
		mod.IncludeTrailingBlankLines = intOrZero(m.IncludeTrailingBlankLines)
	}

	return mod, Validate(mod)
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// MarshalYAML encodes doc in the v2.0 flat-field YAML dialect. It is used
// by internal/txn to write the "--force" failed-modifications document
// back out for re-authoring (ported from ap.py's afailed.ap writer,
// adapted to this dialect instead of the line-prefixed one).
func MarshalYAML(doc model.PatchDocument) ([]byte, error) {
	out := yamlDocument{Version: "2.0"}
	for _, fc := range doc.Changes {
		yfc := yamlFileChange{FilePath: fc.FilePath, Newline: string(fc.Newline)}
		for _, m := range fc.Modifications {
			yfc.Modifications = append(yfc.Modifications, modificationToYAML(m))
		}
		out.Changes = append(out.Changes, yfc)
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return nil, perr.Wrap(perr.KindIOError, "encoding YAML patch document", err)
	}
	return data, nil
}

func modificationToYAML(m model.Modification) yamlModification {
	ym := yamlModification{
		Action:       string(m.Action),
		Snippet:      m.Snippet,
		StartSnippet: m.StartSnippet,
		EndSnippet:   m.EndSnippet,
		Anchor:       m.Anchor,
		Content:      m.Content,
	}
	if m.IncludeLeadingBlankLines != 0 {
		v := m.IncludeLeadingBlankLines
		ym.IncludeLeadingBlankLines = &v
	}
	if m.IncludeTrailingBlankLines != 0 {
		v := m.IncludeTrailingBlankLines
		ym.IncludeTrailingBlankLines = &v
	}
	return ym
}
