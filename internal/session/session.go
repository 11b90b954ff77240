// Package session implements the file-session component from spec §4.6:
// a per-file buffer holding the current text as a line sequence, the
// file's original line ending, and a dirty flag, with Finalize performing
// the trailing-whitespace strip, line-ending rejoin, and terminal-newline
// policy before a commit.
package session

import (
	"os"
	"strings"

	"github.com/unxed/ap/model"
)

// Session is one file's in-memory buffer for the duration of a
// transaction. Disk is untouched until the transaction driver commits it.
type Session struct {
	Path string

	lines        []string
	newline      model.Newline
	hadTrailingNL bool
	existed      bool
	original     []byte
	dirty        bool
}

// Load reads path (if it exists) into a new Session. A missing file is not
// an error here — it yields an empty, non-existent session so CREATE_FILE
// can still use it; every other action will reject it via
// internal/txn's FileNotFound check.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Session{Path: path, newline: model.NewlineLF}, nil
		}
		return nil, err
	}
	return loadBytes(path, data), nil
}

func loadBytes(path string, data []byte) *Session {
	s := &Session{
		Path:     path,
		existed:  true,
		original: data,
		newline:  detectNewline(data),
	}
	text := normalizeToLF(data, s.newline)
	s.hadTrailingNL = strings.HasSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" && len(data) == 0 {
		s.lines = nil
	} else {
		s.lines = strings.Split(text, "\n")
	}
	return s
}

// Exists reports whether the file was present on disk when loaded.
func (s *Session) Exists() bool { return s.existed }

// Original returns the file's raw bytes as read from disk (empty if it did
// not exist), for CREATE_FILE idempotency comparisons.
func (s *Session) Original() []byte { return s.original }

// Lines returns the current buffer as a line sequence.
func (s *Session) Lines() []string { return s.lines }

// SetLines replaces the buffer and marks the session dirty.
func (s *Session) SetLines(lines []string) {
	s.lines = lines
	s.dirty = true
}

// Dirty reports whether the buffer has been modified since load.
func (s *Session) Dirty() bool { return s.dirty }

// SetNewline overrides the line ending used at Finalize, for newly created
// files whose FileChange specifies one explicitly.
func (s *Session) SetNewline(n model.Newline) {
	if n != "" {
		s.newline = n
	}
}

// SetCreated marks a brand-new file: it did not exist before, and receives
// a terminal newline per spec §4.6 ("new files receive a terminal
// newline").
func (s *Session) SetCreated() {
	s.hadTrailingNL = true
}

// Finalize strips trailing horizontal whitespace from every line, rejoins
// using the session's line ending, and restores the original
// presence/absence of a terminal newline.
func (s *Session) Finalize() []byte {
	stripped := make([]string, len(s.lines))
	for i, line := range s.lines {
		stripped[i] = strings.TrimRight(line, " \t")
	}
	nl := s.newline.Bytes()
	var buf strings.Builder
	for i, line := range stripped {
		buf.WriteString(line)
		if i != len(stripped)-1 {
			buf.Write(nl)
		}
	}
	if s.hadTrailingNL && len(stripped) > 0 {
		buf.Write(nl)
	}
	return []byte(buf.String())
}

func detectNewline(data []byte) model.Newline {
	crlf, lf, cr := 0, 0, 0
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case '\r':
			if i+1 < len(data) && data[i+1] == '\n' {
				crlf++
				i++
			} else {
				cr++
			}
		case '\n':
			lf++
		}
	}
	switch {
	case crlf >= lf && crlf >= cr && crlf > 0:
		return model.NewlineCRLF
	case cr > lf && cr > crlf:
		return model.NewlineCR
	default:
		return model.NewlineLF
	}
}

func normalizeToLF(data []byte, detected model.Newline) string {
	text := string(data)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text
}
