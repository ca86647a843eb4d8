package vm_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hivm-go/hivm/codegen"
	"github.com/hivm-go/hivm/module"
	"github.com/hivm-go/hivm/parser"
	"github.com/hivm-go/hivm/symtab"
	"github.com/hivm-go/hivm/vm"
)

// assemble builds text into a bytecode image, failing the test on any
// parse or codegen error.
func assemble(t *testing.T, text string) []byte {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.asm")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	table := symtab.New()
	p := parser.New(table, module.New(nil))
	nodes, err := p.ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	img, err := codegen.Generate(table, nodes)
	if err != nil {
		t.Fatal(err)
	}
	return img
}

// run assembles and executes text, returning the running Instance so the
// caller can inspect its final state.
func run(t *testing.T, text string, opts ...vm.Option) *vm.Instance {
	t.Helper()
	img := assemble(t, text)
	i, err := vm.New(img, opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := i.Run(); err != nil {
		t.Fatal(err)
	}
	return i
}

func TestMinimalExitHalts(t *testing.T) {
	i := run(t, ".text\nloadconst4 0\nexit\n")
	if i.InstructionCount() != 3 {
		t.Fatalf("expected JumpConst + loadconst4 + exit to execute, got %d instructions", i.InstructionCount())
	}
	if i.Error() != 0 {
		t.Fatalf("got %v", i.Error())
	}
}

func TestExitCarriesErrorCode(t *testing.T) {
	i := run(t, ".text\nloadconst4 7\nexit\n")
	if got := i.Error(); got != 7 {
		t.Fatalf("got error register %v", got)
	}
}

func TestFallingOffTheEndStops(t *testing.T) {
	// No exit at all: the run loop should simply stop once PC walks past
	// the end of the image, leaving the default NoError in place.
	i := run(t, ".text\nnop\n")
	if i.Error() != 0 {
		t.Fatalf("got %v", i.Error())
	}
}

func TestIntegerArithmeticWrapsAtWidth(t *testing.T) {
	// 200 + 100 overflows a single byte and should wrap to 44 (300 mod 256).
	var out bytes.Buffer
	run(t, ".text\nloadconst1 200\nloadconst1 100\naddi1\nintrconst 0\nloadconst4 0\nexit\n", vm.Output(&out))
	if out.String() != "44" {
		t.Fatalf("got %q", out.String())
	}
}

func TestPrintStaticStringWritesRawBytes(t *testing.T) {
	var out bytes.Buffer
	run(t, `
.data
@greeting
ds "hello"
.text
loadconst8 greeting
loadconst8 5
intrconst 8
loadconst4 0
exit
`, vm.Output(&out))
	if out.String() != "hello" {
		t.Fatalf("got %q", out.String())
	}
}

func TestPrintCharWritesASCII(t *testing.T) {
	var out bytes.Buffer
	run(t, ".text\nloadconst1 65\nintrconst 5\nloadconst4 0\nexit\n", vm.Output(&out))
	if out.String() != "A" {
		t.Fatalf("got %q", out.String())
	}
}

func TestReadBytesSetsUnexpectedEOFOnShortRead(t *testing.T) {
	// No trailing exit: Exit unconditionally overwrites the error
	// register, so the read failure is observed by falling off the end
	// of the program instead.
	i := run(t, ".text\nloadconst8 10\nintrconst 9\n", vm.Input(strings.NewReader("ab")))
	if i.Error() != -2 {
		t.Fatalf("expected UnexpectedEOF, got %v", i.Error())
	}
}

func TestJumpConstSkipsDeadCode(t *testing.T) {
	var out bytes.Buffer
	run(t, `
.text
jmpconst live
loadconst1 66
intrconst 5
exit
@dead
loadconst1 68
intrconst 5
exit
@live
loadconst1 65
intrconst 5
loadconst4 0
exit
`, vm.Output(&out))
	if out.String() != "A" {
		t.Fatalf("jump should have skipped straight to @live, got %q", out.String())
	}
}

func TestCallReturnRoundTrips(t *testing.T) {
	var out bytes.Buffer
	run(t, `
.text
call greet
loadconst4 0
exit
@greet
loadconst1 65
intrconst 5
ret
`, vm.Output(&out))
	if out.String() != "A" {
		t.Fatalf("got %q", out.String())
	}
}

func TestStoreLoadRoundTripsThroughMemory(t *testing.T) {
	// Store4 pops the address (top of stack) then the data beneath it, so
	// the data must be pushed first and the address last.
	i := run(t, `
.text
loadconst4 123
loadconst8 1000
store4
loadconst8 1000
load4
exit
`)
	if i.Error() != 123 {
		t.Fatalf("got %v", i.Error())
	}
}

func TestMallocGrowsTheArenaWithoutPanicking(t *testing.T) {
	i := run(t, ".text\nloadconst8 64\nmalloc\nloadconst4 0\nexit\n")
	if i.MemSize() == 0 {
		t.Fatal("expected a non-empty arena after malloc")
	}
}
