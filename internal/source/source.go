// Package source resolves where the patch document text comes from: an
// explicit path argument, piped stdin, or — failing both — the clipboard,
// adapted from the teacher's stdin-or-clipboard SourceProvider
// (internal/source/source.go in the retrieval pack).
package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/unxed/ap/internal/ui"
)

// Provider determines and retrieves the patch document's source text.
type Provider struct{}

// New creates a new Provider.
func New() *Provider {
	return &Provider{}
}

// GetContent returns the patch document text. Precedence: an explicit
// path (read from disk), then piped stdin, then the clipboard — matching
// SPEC_FULL.md §2A and the teacher's original stdin-or-clipboard fallback.
func (p *Provider) GetContent(path string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading patch file %q: %w", path, err)
		}
		return string(data), nil
	}

	stat, _ := os.Stdin.Stat()
	isPiped := (stat.Mode() & os.ModeCharDevice) == 0

	if isPiped {
		ui.Header("--- Reading patch from stdin ---")
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read from stdin: %w", err)
		}
		return string(content), nil
	}

	ui.Header("--- Reading patch from clipboard ---")
	content, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read from clipboard: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		ui.Warning("Clipboard is empty. Nothing to process.")
		return "", nil
	}
	return content, nil
}
