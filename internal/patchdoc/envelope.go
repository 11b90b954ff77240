package patchdoc

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// UnwrapFence extracts the content of the first fenced code block found in
// source, if any — repurposing the teacher's markdown-AST code-block
// extraction (internal/parser/ast.go in the retrieval pack) to strip the
// conversational prose an AI assistant wraps a patch document in before
// internal/patchdoc parses what remains. If source contains no fenced code
// block, it is returned unchanged on the assumption it is already a bare
// patch document.
func UnwrapFence(source []byte) []byte {
	parser := goldmark.DefaultParser()
	root := parser.Parse(text.NewReader(source))

	var content []byte
	_ = ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || content != nil {
			return ast.WalkContinue, nil
		}
		fenced, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		var buf bytes.Buffer
		lines := fenced.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(source))
		}
		content = buf.Bytes()
		return ast.WalkSkipChildren, nil
	})

	if content == nil {
		return source
	}
	return content
}

// looksLinePrefixed reports whether text's first non-blank, non-comment
// line matches the line-prefixed dialect's "<8 hex digits> AP 3.0" header,
// letting Parse auto-detect the dialect without a --format flag.
func looksLinePrefixed(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return headerPattern.MatchString(trimmed)
	}
	return false
}
