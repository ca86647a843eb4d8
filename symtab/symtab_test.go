package symtab

import (
	"testing"

	"github.com/hivm-go/hivm/source"
)

func TestDeclareIsIdempotent(t *testing.T) {
	tab := New()
	u := source.NewUnit("f.asm", "foo\n")
	tok := source.Token{Text: "foo", Unit: u, Line: 0, Column: 1}

	id1 := tab.Declare("foo", tok)
	id2 := tab.Declare("foo", tok)
	if id1 != id2 {
		t.Fatalf("Declare not idempotent: %d != %d", id1, id2)
	}
	if tab.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tab.Len())
	}
}

func TestDefineSetsValue(t *testing.T) {
	tab := New()
	u := source.NewUnit("f.asm", "foo\n")
	tok := source.Token{Text: "foo", Unit: u, Line: 0, Column: 1}
	id := tab.Declare("foo", tok)

	if tab.Symbol(id).Value != nil {
		t.Fatal("freshly declared symbol should be undefined")
	}
	tab.Define(id, ConstValue(Number{Kind: NumUint, Uint: 42}), tok)
	v := tab.Symbol(id).Value
	if v == nil || v.Kind != ValueConst || v.Const.Uint != 42 {
		t.Fatalf("unexpected value: %+v", v)
	}
}

func TestLookupMissing(t *testing.T) {
	tab := New()
	if _, ok := tab.Lookup("nope"); ok {
		t.Error("Lookup of undeclared name should fail")
	}
}

func TestStaticPool(t *testing.T) {
	tab := New()
	id1 := tab.DeclareStatic("hi", false)
	id2 := tab.DeclareStatic("hi", false)
	if id1 == id2 {
		t.Error("each DeclareStatic call should yield a distinct ID")
	}
	if tab.Static(id1) != "hi" {
		t.Errorf("Static(id1) = %q, want %q", tab.Static(id1), "hi")
	}
}

func TestNumberMinSize(t *testing.T) {
	cases := []struct {
		n    Number
		want int
	}{
		{Number{Kind: NumUint, Uint: 0xFF}, 1},
		{Number{Kind: NumUint, Uint: 0x100}, 2},
		{Number{Kind: NumUint, Uint: 0x10000}, 4},
		{Number{Kind: NumUint, Uint: 1 << 40}, 8},
		{Number{Kind: NumInt, Int: -1}, 1},
		{Number{Kind: NumInt, Int: -200}, 2},
		{Number{Kind: NumFloat, Float: 1.5}, 4},
		{Number{Kind: NumFloat, Float: 1.0 / 3.0}, 8},
	}
	for _, c := range cases {
		if got := c.n.MinSize(); got != c.want {
			t.Errorf("MinSize(%+v) = %d, want %d", c.n, got, c.want)
		}
	}
}
