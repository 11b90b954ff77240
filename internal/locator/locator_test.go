package locator_test

import (
	"testing"

	"github.com/unxed/ap/internal/locator"
	"github.com/unxed/ap/internal/perr"
)

func TestLocateAnchorUnique(t *testing.T) {
	lines := []string{"function configure() {", "  setting: \"default\"", "}"}
	r, err := locator.LocateAnchor(lines, "function configure() {")
	if err != nil {
		t.Fatalf("LocateAnchor: %v", err)
	}
	if r.Start != 0 || r.End != 0 {
		t.Errorf("got range %+v, want {0 0}", r)
	}
}

func TestLocateAnchorAmbiguous(t *testing.T) {
	lines := []string{"x", "x"}
	_, err := locator.LocateAnchor(lines, "x")
	assertKind(t, err, perr.KindAnchorAmbiguous)
}

func TestLocateAnchorNotFound(t *testing.T) {
	lines := []string{"x"}
	_, err := locator.LocateAnchor(lines, "y")
	assertKind(t, err, perr.KindAnchorNotFound)
}

func TestLocateSnippetAnchorScoped(t *testing.T) {
	// Two identical setting lines; only the one after the anchor should be
	// found when the search is anchor-scoped.
	lines := []string{
		"safeConfig = {",
		"  setting: \"default\"",
		"}",
		"function configure() {",
		"  setting: \"default\"",
		"}",
	}
	anchor, err := locator.LocateAnchor(lines, "function configure() {")
	if err != nil {
		t.Fatalf("LocateAnchor: %v", err)
	}
	r, err := locator.LocateSnippet(lines, "setting: \"default\"", &anchor)
	if err != nil {
		t.Fatalf("LocateSnippet: %v", err)
	}
	if r.Start != 4 || r.End != 4 {
		t.Errorf("got range %+v, want {4 4}", r)
	}
}

func TestLocateSnippetUnanchoredAmbiguous(t *testing.T) {
	lines := []string{"setting: \"default\"", "other", "setting: \"default\""}
	_, err := locator.LocateSnippet(lines, "setting: \"default\"", nil)
	assertKind(t, err, perr.KindSnippetAmbiguous)
}

func TestLocateSnippetSearchStartsAfterAnchor(t *testing.T) {
	// The snippet sits on the line right after the anchor; per spec
	// §4.2/§9 the search begins there, and the match is reported at its
	// original file index rather than relative to the search start.
	lines := []string{"START", "value"}
	anchor, err := locator.LocateAnchor(lines, "START")
	if err != nil {
		t.Fatalf("LocateAnchor: %v", err)
	}
	r, err := locator.LocateSnippet(lines, "value", &anchor)
	if err != nil {
		t.Fatalf("LocateSnippet: %v", err)
	}
	if r.Start != 1 {
		t.Errorf("got start %d, want 1", r.Start)
	}
}

func TestLocateRange(t *testing.T) {
	lines := []string{
		"def get_pi():",
		"    return 3.14",
		"",
		"def get_e():",
	}
	r, err := locator.LocateRange(lines, "def get_pi():", "return 3.14", nil)
	if err != nil {
		t.Fatalf("LocateRange: %v", err)
	}
	if r.Start != 0 || r.End != 1 {
		t.Errorf("got range %+v, want {0 1}", r)
	}
}

func TestExpandBlankLinesTrailing(t *testing.T) {
	lines := []string{"def get_pi():", "    return 3.14", "", "def get_e():"}
	r := locator.LineRange{Start: 0, End: 1}
	got := locator.ExpandBlankLines(lines, r, 0, 1)
	if got.End != 2 {
		t.Errorf("got End=%d, want 2", got.End)
	}
}

func TestEmptyPatternRejected(t *testing.T) {
	_, err := locator.LocateAnchor([]string{"x"}, "   \n\t")
	assertKind(t, err, perr.KindEmptyPattern)
}

func assertKind(t *testing.T, err error, want perr.Kind) {
	t.Helper()
	pe, ok := err.(*perr.Error)
	if !ok {
		t.Fatalf("error %v is not *perr.Error", err)
	}
	if pe.Kind != want {
		t.Errorf("got kind %v, want %v", pe.Kind, want)
	}
}
