package lexer

import (
	"testing"

	"github.com/hivm-go/hivm/isa"
	"github.com/hivm-go/hivm/source"
	"github.com/hivm-go/hivm/symtab"
)

func lex(t *testing.T, text string) []LineTokens {
	t.Helper()
	u := source.NewUnit("t.asm", text)
	tab := symtab.New()
	lines, err := Lex(u, tab)
	if err != nil {
		t.Fatal(err)
	}
	return lines
}

func TestEmptyAndCommentLinesDropped(t *testing.T) {
	lines := lex(t, "\n   \n; just a comment\nnop\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %+v", len(lines), lines)
	}
	if lines[0].Tokens[0].Kind != KindInstruction {
		t.Errorf("expected instruction token, got %+v", lines[0].Tokens[0])
	}
}

func TestNumberClassification(t *testing.T) {
	lines := lex(t, "loadconst8 0xFF -12 3.5 7\n")
	toks := lines[0].Tokens
	if toks[1].Number.Kind != symtab.NumUint || toks[1].Number.Uint != 0xFF {
		t.Errorf("hex: %+v", toks[1])
	}
	if toks[2].Number.Kind != symtab.NumInt || toks[2].Number.Int != -12 {
		t.Errorf("neg int: %+v", toks[2])
	}
	if toks[3].Number.Kind != symtab.NumFloat || toks[3].Number.Float != 3.5 {
		t.Errorf("float: %+v", toks[3])
	}
	if toks[4].Number.Kind != symtab.NumUint || toks[4].Number.Uint != 7 {
		t.Errorf("int: %+v", toks[4])
	}
}

func TestInstructionRecognition(t *testing.T) {
	lines := lex(t, "exit\n")
	if lines[0].Tokens[0].Kind != KindInstruction || lines[0].Tokens[0].Opcode != isa.Exit {
		t.Errorf("got %+v", lines[0].Tokens[0])
	}
}

func TestPseudoInstructionRecognition(t *testing.T) {
	lines := lex(t, "ds \"hi\"\n")
	if lines[0].Tokens[0].Kind != KindPseudoInstruction || lines[0].Tokens[0].Pseudo != PseudoDefineString {
		t.Errorf("got %+v", lines[0].Tokens[0])
	}
}

func TestIdentifierInterning(t *testing.T) {
	lines := lex(t, "foo foo bar\n")
	toks := lines[0].Tokens
	if toks[0].SymbolID != toks[1].SymbolID {
		t.Error("repeated identifier should intern to the same SymbolID")
	}
	if toks[0].SymbolID == toks[2].SymbolID {
		t.Error("different identifiers should intern to different SymbolIDs")
	}
}

func TestStringEscape(t *testing.T) {
	u := source.NewUnit("t.asm", `ds "a\nb"`+"\n")
	tab := symtab.New()
	lines, err := Lex(u, tab)
	if err != nil {
		t.Fatal(err)
	}
	tok := lines[0].Tokens[1]
	if tok.Kind != KindStringLiteral {
		t.Fatalf("got %+v", tok)
	}
	if got := tab.Static(tok.StaticID); got != "a\nb" {
		t.Errorf("got %q, want %q", got, "a\nb")
	}
}

func TestCharEscape(t *testing.T) {
	lines := lex(t, `loadconst1 '\t'`+"\n")
	tok := lines[0].Tokens[1]
	if tok.Kind != KindCharLiteral || tok.Char != '\t' {
		t.Errorf("got %+v", tok)
	}
}

func TestInvalidEscapeIsFatal(t *testing.T) {
	u := source.NewUnit("t.asm", `ds "a\qb"`+"\n")
	tab := symtab.New()
	if _, err := Lex(u, tab); err == nil {
		t.Error("expected error for invalid escape sequence")
	}
}

func TestPunctuationAndMacroSigils(t *testing.T) {
	lines := lex(t, "%= two 2\n")
	toks := lines[0].Tokens
	if toks[0].Kind != KindValueMacroDef {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestMacroParamSigilAndNameAreSeparateTokens(t *testing.T) {
	lines := lex(t, "loadconst4 %a\n")
	toks := lines[0].Tokens
	if len(toks) != 3 || toks[1].Kind != KindMod || toks[2].Kind != KindIdentifier {
		t.Fatalf("got %+v", toks)
	}
}
