package patchdoc_test

import (
	"testing"

	"github.com/unxed/ap/internal/patchdoc"
	"github.com/unxed/ap/model"
)

func TestParseYAMLv2Flat(t *testing.T) {
	doc := `
version: "2.0"
changes:
  - file_path: g.py
    modifications:
      - action: REPLACE
        snippet: |
          print("a")
        content: |
          print("b")
`
	got, err := patchdoc.ParseYAML([]byte(doc))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if got.Version != "2.0" {
		t.Errorf("version = %q, want 2.0", got.Version)
	}
	if len(got.Changes) != 1 || len(got.Changes[0].Modifications) != 1 {
		t.Fatalf("unexpected shape: %+v", got)
	}
	mod := got.Changes[0].Modifications[0]
	if mod.Action != model.ActionReplace {
		t.Errorf("action = %q, want REPLACE", mod.Action)
	}
	if mod.Content == nil || *mod.Content != "print(\"b\")\n" {
		t.Errorf("content = %v", mod.Content)
	}
}

func TestParseYAMLv1Nested(t *testing.T) {
	doc := `
version: "1.0"
changes:
  - file_path: a.txt
    modifications:
      - action: INSERT_AFTER
        target:
          snippet: marker
          anchor: top
        content: inserted
`
	got, err := patchdoc.ParseYAML([]byte(doc))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	mod := got.Changes[0].Modifications[0]
	if mod.Snippet != "marker" || mod.Anchor != "top" {
		t.Errorf("got snippet=%q anchor=%q", mod.Snippet, mod.Anchor)
	}
}

func TestParseYAMLRejectsPathTraversal(t *testing.T) {
	doc := `
version: "2.0"
changes:
  - file_path: ../escape.txt
    modifications:
      - action: CREATE_FILE
        content: x
`
	if _, err := patchdoc.ParseYAML([]byte(doc)); err == nil {
		t.Fatal("expected an error for a path-traversing file_path")
	}
}

func TestParseYAMLRejectsBothSnippetShapes(t *testing.T) {
	doc := `
version: "2.0"
changes:
  - file_path: a.txt
    modifications:
      - action: REPLACE
        snippet: x
        start_snippet: y
        end_snippet: z
        content: w
`
	if _, err := patchdoc.ParseYAML([]byte(doc)); err == nil {
		t.Fatal("expected an error when both snippet and start/end_snippet are present")
	}
}

func TestMarshalYAMLRoundTrips(t *testing.T) {
	content := "print(\"b\")"
	doc := model.PatchDocument{Version: "2.0", Changes: []model.FileChange{{
		FilePath: "g.py",
		Newline:  model.NewlineLF,
		Modifications: []model.Modification{{
			Action:  model.ActionReplace,
			Snippet: "print(\"a\")",
			Content: &content,
		}},
	}}}

	data, err := patchdoc.MarshalYAML(doc)
	if err != nil {
		t.Fatalf("MarshalYAML: %v", err)
	}

	got, err := patchdoc.ParseYAML(data)
	if err != nil {
		t.Fatalf("ParseYAML(MarshalYAML(doc)): %v\n%s", err, data)
	}
	if len(got.Changes) != 1 || len(got.Changes[0].Modifications) != 1 {
		t.Fatalf("unexpected round-trip shape: %+v", got)
	}
	mod := got.Changes[0].Modifications[0]
	if mod.Action != model.ActionReplace || mod.Snippet != "print(\"a\")" {
		t.Errorf("got %+v", mod)
	}
	if mod.Content == nil || *mod.Content != content {
		t.Errorf("content = %v, want %q", mod.Content, content)
	}
}

func TestParseDetectsFencedEnvelope(t *testing.T) {
	wrapped := "Here is the patch:\n\n```yaml\nversion: \"2.0\"\nchanges: []\n```\n"
	doc, err := patchdoc.Parse([]byte(wrapped), patchdoc.FormatAuto)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Version != "2.0" {
		t.Errorf("version = %q, want 2.0", doc.Version)
	}
}
