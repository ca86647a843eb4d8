// Package source holds the assembler's notion of where a piece of text
// came from: the owned text of one loaded file (AssemblyUnit) and an
// immutable pointer into it (SourceToken).
package source

import (
	"strconv"
	"strings"
)

// Unit owns the full text of one loaded assembly file and a stable index
// of its lines. Once created it lives for the whole run of the assembler:
// tokens and symbols hold slices that borrow directly from Text, so Unit
// must never be copied or have its fields mutated after Load returns.
type Unit struct {
	// Path is the canonical path this unit was loaded from (see package
	// module), used as the map key and printed in diagnostics.
	Path string
	// Text is the raw file content, kept alive for the lifetime of the
	// unit so that Lines entries remain valid.
	Text string
	// Lines is Text split on line boundaries, trailing newline stripped.
	Lines []string
}

// NewUnit builds a Unit from already-read file content.
func NewUnit(path, text string) *Unit {
	lines := strings.Split(text, "\n")
	// A trailing newline produces a spurious empty final line; drop it so
	// that line numbers line up with what an editor would show.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return &Unit{Path: path, Text: text, Lines: lines}
}

// Line returns the 0-indexed source line, or "" if out of range (used by
// diagnostics when printing a context window that runs off either end of
// the file).
func (u *Unit) Line(i int) string {
	if i < 0 || i >= len(u.Lines) {
		return ""
	}
	return u.Lines[i]
}

// Token is an immutable lexeme together with its origin. It borrows its
// Text from the owning Unit and must not outlive it.
type Token struct {
	Text   string
	Unit   *Unit
	Line   int // 0-indexed
	Column int // 1-indexed, byte offset from start of line
}

// LineNumber returns the 1-indexed line number, as shown to users.
func (t Token) LineNumber() int { return t.Line + 1 }

// String renders a "path:line:column" locator, the form used throughout
// diagnostics.
func (t Token) String() string {
	path := "<unknown>"
	if t.Unit != nil {
		path = t.Unit.Path
	}
	return path + ":" + strconv.Itoa(t.LineNumber()) + ":" + strconv.Itoa(t.Column)
}
