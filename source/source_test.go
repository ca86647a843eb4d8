package source

import "testing"

func TestNewUnitStripsTrailingNewline(t *testing.T) {
	u := NewUnit("f.asm", "a\nb\nc\n")
	if len(u.Lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(u.Lines), u.Lines)
	}
	if u.Lines[2] != "c" {
		t.Errorf("Lines[2] = %q, want %q", u.Lines[2], "c")
	}
}

func TestNewUnitNoTrailingNewline(t *testing.T) {
	u := NewUnit("f.asm", "a\nb")
	if len(u.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(u.Lines))
	}
}

func TestLineOutOfRange(t *testing.T) {
	u := NewUnit("f.asm", "only\n")
	if u.Line(-1) != "" || u.Line(5) != "" {
		t.Error("out-of-range Line should return empty string")
	}
}

func TestTokenString(t *testing.T) {
	u := NewUnit("dir/f.asm", "nop\n")
	tok := Token{Text: "nop", Unit: u, Line: 0, Column: 1}
	if got, want := tok.String(), "dir/f.asm:1:1"; got != want {
		t.Errorf("Token.String() = %q, want %q", got, want)
	}
}
