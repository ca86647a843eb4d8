package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hivm-go/hivm/isa"
	"github.com/hivm-go/hivm/module"
	"github.com/hivm-go/hivm/symtab"
)

func parseText(t *testing.T, text string) ([]Node, *Parser) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.asm")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	table := symtab.New()
	mgr := module.New(nil)
	p := New(table, mgr)
	nodes, err := p.ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return nodes, p
}

func TestLabelAndSection(t *testing.T) {
	nodes, _ := parseText(t, ".text\n@start\nnop\n")
	if _, ok := nodes[0].Value.(Section); !ok {
		t.Fatalf("node 0: %+v", nodes[0])
	}
	if _, ok := nodes[1].Value.(Label); !ok {
		t.Fatalf("node 1: %+v", nodes[1])
	}
	if instr, ok := nodes[2].Value.(SimpleInstr); !ok || instr.Op != isa.Nop {
		t.Fatalf("node 2: %+v", nodes[2])
	}
}

func TestLabelRedeclarationIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.asm")
	os.WriteFile(path, []byte("@foo\nnop\n@foo\n"), 0o644)
	p := New(symtab.New(), module.New(nil))
	if _, err := p.ParseFile(path); err == nil {
		t.Fatal("expected redeclaration error")
	}
}

func TestValueMacro(t *testing.T) {
	nodes, p := parseText(t, "%= two 2\nloadconst4 two\n")
	if len(nodes) != 1 {
		t.Fatalf("value-macro should not emit a node, got %+v", nodes)
	}
	instr := nodes[0].Value.(NumberInstr)
	if instr.Value.Value.Kind != symtab.ValueSymbol {
		t.Fatalf("got %+v", instr.Value.Value)
	}
	id := instr.Value.Value.SymbolID
	sym := p.Table.Symbol(id)
	if sym.Value.Kind != symtab.ValueConst || sym.Value.Const.Uint != 2 {
		t.Fatalf("two should resolve to the constant 2, got %+v", sym.Value)
	}
}

func TestMacroExpansion(t *testing.T) {
	nodes, _ := parseText(t, "% pushtwo a b\nloadconst4 %a\nloadconst4 %b\n%endmacro\n!pushtwo 3 4\n")
	if len(nodes) != 2 {
		t.Fatalf("expected 2 expanded instructions, got %d: %+v", len(nodes), nodes)
	}
	a := nodes[0].Value.(NumberInstr)
	b := nodes[1].Value.(NumberInstr)
	if a.Value.Value.Const.Uint != 3 || b.Value.Value.Const.Uint != 4 {
		t.Fatalf("got %+v, %+v", a, b)
	}
}

func TestMacroArityMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.asm")
	os.WriteFile(path, []byte("% one a\nnop\n%endmacro\n!one 1 2\n"), 0o644)
	p := New(symtab.New(), module.New(nil))
	if _, err := p.ParseFile(path); err == nil {
		t.Fatal("expected arity mismatch error")
	}
}

func TestInclude(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "lib.asm"), []byte("nop\n"), 0o644)
	root := filepath.Join(dir, "main.asm")
	os.WriteFile(root, []byte("include \"lib.asm\"\nexit\n"), 0o644)

	p := New(symtab.New(), module.New(nil))
	nodes, err := p.ParseFile(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes (spliced include + exit), got %+v", nodes)
	}
}

func TestIncludeIdempotence(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "lib.asm"), []byte("nop\n"), 0o644)
	root := filepath.Join(dir, "main.asm")
	os.WriteFile(root, []byte("include \"lib.asm\"\ninclude \"lib.asm\"\nexit\n"), 0o644)

	p := New(symtab.New(), module.New(nil))
	nodes, err := p.ParseFile(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 2 {
		t.Fatalf("second include should be a no-op, got %+v", nodes)
	}
}

func TestDefineNumberBytesString(t *testing.T) {
	nodes, p := parseText(t, "dn 2 0xABCD\ndb 1 2 3\nds \"hi\"\n")
	dn := nodes[0].Value.(DefineNumberInstr)
	if dn.Size != 2 || dn.Value.Value.Const.Uint != 0xABCD {
		t.Fatalf("got %+v", dn)
	}
	db := nodes[1].Value.(DefineBytesInstr)
	if len(db.Bytes) != 3 {
		t.Fatalf("got %+v", db)
	}
	ds := nodes[2].Value.(DefineStringInstr)
	if p.Table.Static(ds.StaticID) != "hi" {
		t.Fatalf("got %q", p.Table.Static(ds.StaticID))
	}
}

func TestLoadConstBytesRejectsOversizeConstant(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.asm")
	os.WriteFile(path, []byte("loadconstn 300\n"), 0o644)
	p := New(symtab.New(), module.New(nil))
	if _, err := p.ParseFile(path); err == nil {
		t.Fatal("expected error for byte operand that doesn't fit in one byte")
	}
}

func TestAddressInstruction(t *testing.T) {
	nodes, _ := parseText(t, "@loop\njmpconst loop\n")
	instr := nodes[1].Value.(AddressInstr)
	if instr.Op != isa.JumpConst || instr.Addr.Value.Kind != symtab.ValueSymbol {
		t.Fatalf("got %+v", instr)
	}
}

func TestCurrentPositionOperand(t *testing.T) {
	nodes, _ := parseText(t, "jmpconst $\n")
	instr := nodes[0].Value.(AddressInstr)
	if instr.Addr.Value.Kind != symtab.ValueCurrentPosition {
		t.Fatalf("got %+v", instr.Addr.Value)
	}
}

func TestMacroParamOutsideMacroIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.asm")
	os.WriteFile(path, []byte("loadconst4 %a\n"), 0o644)
	p := New(symtab.New(), module.New(nil))
	if _, err := p.ParseFile(path); err == nil {
		t.Fatal("expected fatal error for macro parameter used outside a macro")
	}
}
