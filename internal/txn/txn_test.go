package txn_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/unxed/ap/internal/perr"
	"github.com/unxed/ap/internal/txn"
	"github.com/unxed/ap/model"
)

func content(s string) *string { return &s }

func tempRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "ap-txn-test-")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func writeFile(t *testing.T, root, rel, data string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return string(data)
}

func TestRunSimpleReplaceCommits(t *testing.T) {
	root := tempRoot(t)
	writeFile(t, root, "g.py", "def f():\n    print(\"a\")\n")

	driver, err := txn.New(root, false, false, false)
	if err != nil {
		t.Fatalf("txn.New: %v", err)
	}

	doc := model.PatchDocument{Changes: []model.FileChange{{
		FilePath: "g.py",
		Modifications: []model.Modification{{
			Action:  model.ActionReplace,
			Snippet: `print("a")`,
			Content: content(`print("b")`),
		}},
	}}}

	summary, err := driver.Run(doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Updated) != 1 {
		t.Fatalf("expected one updated file, got %+v", summary)
	}
	got := readFile(t, root, "g.py")
	want := "def f():\n    print(\"b\")\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRunMultiFileAtomicAbort(t *testing.T) {
	root := tempRoot(t)
	writeFile(t, root, "a.txt", "hello\n")
	writeFile(t, root, "b.txt", "unrelated\n")

	driver, err := txn.New(root, false, false, false)
	if err != nil {
		t.Fatalf("txn.New: %v", err)
	}

	doc := model.PatchDocument{Changes: []model.FileChange{
		{
			FilePath: "a.txt",
			Modifications: []model.Modification{{
				Action:  model.ActionReplace,
				Snippet: "hello",
				Content: content("goodbye"),
			}},
		},
		{
			FilePath: "b.txt",
			Modifications: []model.Modification{{
				Action:  model.ActionReplace,
				Snippet: "does not exist",
				Content: content("x"),
			}},
		},
	}}

	_, err = driver.Run(doc)
	if err == nil {
		t.Fatal("expected Run to fail")
	}
	pe, ok := err.(*perr.Error)
	if !ok {
		t.Fatalf("error %v is not *perr.Error", err)
	}
	if pe.FilePath != "b.txt" {
		t.Errorf("error names file %q, want b.txt", pe.FilePath)
	}
	if pe.ModIndex != 1 {
		t.Errorf("error names modification #%d, want #1", pe.ModIndex)
	}

	if got := readFile(t, root, "a.txt"); got != "hello\n" {
		t.Errorf("a.txt was mutated despite the aborted transaction: %q", got)
	}
	if got := readFile(t, root, "b.txt"); got != "unrelated\n" {
		t.Errorf("b.txt was mutated despite the aborted transaction: %q", got)
	}
}

func TestRunCreateFileIdempotent(t *testing.T) {
	root := tempRoot(t)
	writeFile(t, root, "new.txt", "hello\n")

	driver, err := txn.New(root, false, false, false)
	if err != nil {
		t.Fatalf("txn.New: %v", err)
	}
	doc := model.PatchDocument{Changes: []model.FileChange{{
		FilePath: "new.txt",
		Modifications: []model.Modification{{
			Action:  model.ActionCreateFile,
			Content: content("hello\n"),
		}},
	}}}

	summary, err := driver.Run(doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Skipped) != 1 {
		t.Fatalf("expected the create to be skipped as idempotent, got %+v", summary)
	}
}

func TestRunCreateFileMismatchFails(t *testing.T) {
	root := tempRoot(t)
	writeFile(t, root, "new.txt", "original\n")

	driver, err := txn.New(root, false, false, false)
	if err != nil {
		t.Fatalf("txn.New: %v", err)
	}
	doc := model.PatchDocument{Changes: []model.FileChange{{
		FilePath: "new.txt",
		Modifications: []model.Modification{{
			Action:  model.ActionCreateFile,
			Content: content("different\n"),
		}},
	}}}

	_, err = driver.Run(doc)
	if err == nil {
		t.Fatal("expected an error for CREATE_FILE against a mismatched existing file")
	}
	pe, ok := err.(*perr.Error)
	if !ok || pe.Kind != perr.KindFileExistsMismatch {
		t.Fatalf("got %v, want KindFileExistsMismatch", err)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	root := tempRoot(t)
	writeFile(t, root, "g.py", "print(\"a\")\n")

	driver, err := txn.New(root, true, false, false)
	if err != nil {
		t.Fatalf("txn.New: %v", err)
	}
	doc := model.PatchDocument{Changes: []model.FileChange{{
		FilePath: "g.py",
		Modifications: []model.Modification{{
			Action:  model.ActionReplace,
			Snippet: `print("a")`,
			Content: content(`print("b")`),
		}},
	}}}

	summary, err := driver.Run(doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Updated) != 1 {
		t.Fatalf("expected one updated file in the summary, got %+v", summary)
	}
	if got := readFile(t, root, "g.py"); got != "print(\"a\")\n" {
		t.Errorf("dry-run modified disk: %q", got)
	}
}

func TestRunForceSkipWiresSummaryFailedAndWritesDocument(t *testing.T) {
	root := tempRoot(t)
	writeFile(t, root, "g.py", "def f():\n    print(\"a\")\n")

	driver, err := txn.New(root, false, true, false)
	if err != nil {
		t.Fatalf("txn.New: %v", err)
	}

	doc := model.PatchDocument{Changes: []model.FileChange{{
		FilePath: "g.py",
		Modifications: []model.Modification{{
			Action:  model.ActionReplace,
			Snippet: "does not exist",
			Content: content("x"),
		}},
	}}}

	summary, err := driver.Run(doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Failed) != 1 || summary.Failed[0] != "g.py" {
		t.Fatalf("expected g.py in summary.Failed, got %+v", summary)
	}
	if len(summary.Updated) != 0 {
		t.Errorf("expected no updated files, got %+v", summary)
	}

	data, err := os.ReadFile(filepath.Join(root, "patch.failed.yaml"))
	if err != nil {
		t.Fatalf("expected a failed-modifications document to be written: %v", err)
	}
	if !strings.Contains(string(data), "g.py") || !strings.Contains(string(data), "does not exist") {
		t.Errorf("failed document missing expected content: %s", data)
	}
}

func TestRunCreateFileIgnoresTrailingModifications(t *testing.T) {
	root := tempRoot(t)

	driver, err := txn.New(root, false, false, false)
	if err != nil {
		t.Fatalf("txn.New: %v", err)
	}

	doc := model.PatchDocument{Changes: []model.FileChange{{
		FilePath: "new.txt",
		Modifications: []model.Modification{
			{Action: model.ActionCreateFile, Content: content("hello\n")},
			{Action: model.ActionReplace, Snippet: "hello", Content: content("goodbye")},
		},
	}}}

	summary, err := driver.Run(doc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Created) != 1 {
		t.Fatalf("expected one created file, got %+v", summary)
	}
	if got := readFile(t, root, "new.txt"); got != "hello\n" {
		t.Errorf("got %q, want the CREATE_FILE content unchanged by the trailing modification", got)
	}
}

func TestRunRejectsPathTraversal(t *testing.T) {
	root := tempRoot(t)
	driver, err := txn.New(root, false, false, false)
	if err != nil {
		t.Fatalf("txn.New: %v", err)
	}
	doc := model.PatchDocument{Changes: []model.FileChange{{
		FilePath: "../escape.txt",
		Modifications: []model.Modification{{
			Action:  model.ActionCreateFile,
			Content: content("x"),
		}},
	}}}
	if _, err := driver.Run(doc); err == nil {
		t.Fatal("expected an error for a path-traversing file_path")
	}
}
