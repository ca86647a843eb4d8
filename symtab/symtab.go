// Package symtab interns identifiers and string literals for the
// assembler. It is the sole owner of every Symbol and static string; the
// parser and code generator only ever hold the stable SymbolID/StaticID
// handles returned from here.
//
// Go's garbage collector gives heap-allocated values address stability for
// free, so unlike the Rust original (which leans on UnsafeCell<Vec<RefCell<_>>>
// plus raw pointers, see DESIGN.md), this table stores symbols behind a
// plain slice of pointers: appending to the slice never moves the pointees.
package symtab

import (
	"github.com/hivm-go/hivm/source"
)

// SymbolID is a stable index into a Table's symbol list.
type SymbolID int

// StaticID is a stable index into a Table's interned string literal pool.
type StaticID int

// ValueKind tags the meaning of an AsmValue.
type ValueKind int

const (
	ValueNone ValueKind = iota
	ValueConst
	ValueCurrentPosition
	ValueStringLiteral
	ValueSymbol
)

// Number is a tagged numeric literal: unsigned, signed, or floating point.
// MinSize is the smallest operand width (in bytes) that can represent the
// value without loss, used by the code generator to reject operands that
// don't fit their declared width.
type Number struct {
	Kind  NumberKind
	Uint  uint64
	Int   int64
	Float float64
}

// NumberKind tags which field of Number is meaningful.
type NumberKind int

const (
	NumUint NumberKind = iota
	NumInt
	NumFloat
)

// MinSize returns the smallest byte width (1, 2, 4 or 8 for integers; 4 or
// 8 for floats) that losslessly represents n.
func (n Number) MinSize() int {
	switch n.Kind {
	case NumFloat:
		f32 := float32(n.Float)
		if float64(f32) == n.Float {
			return 4
		}
		return 8
	case NumInt:
		v := n.Int
		switch {
		case v >= -(1<<7) && v < 1<<7:
			return 1
		case v >= -(1<<15) && v < 1<<15:
			return 2
		case v >= -(1<<31) && v < 1<<31:
			return 4
		default:
			return 8
		}
	default: // NumUint
		v := n.Uint
		switch {
		case v < 1<<8:
			return 1
		case v < 1<<16:
			return 2
		case v < 1<<32:
			return 4
		default:
			return 8
		}
	}
}

// AsUint64 returns the value's unsigned 64-bit interpretation and whether
// that interpretation is valid (false for negative signed values).
func (n Number) AsUint64() (uint64, bool) {
	switch n.Kind {
	case NumUint:
		return n.Uint, true
	case NumInt:
		if n.Int < 0 {
			return 0, false
		}
		return uint64(n.Int), true
	default:
		return 0, false
	}
}

// AsValue is the resolved meaning of a Symbol: a numeric constant, the
// position of the next emitted byte at definition time, a reference to an
// interned string, or an alias for another symbol.
type AsValue struct {
	Kind     ValueKind
	Const    Number
	StaticID StaticID
	SymbolID SymbolID
}

// ConstValue builds an AsValue wrapping a numeric constant.
func ConstValue(n Number) AsValue { return AsValue{Kind: ValueConst, Const: n} }

// CurrentPositionValue builds an AsValue standing for "$" at definition time.
func CurrentPositionValue() AsValue { return AsValue{Kind: ValueCurrentPosition} }

// StringValue builds an AsValue referencing an interned string literal.
func StringValue(id StaticID) AsValue { return AsValue{Kind: ValueStringLiteral, StaticID: id} }

// SymbolValue builds an AsValue that aliases another symbol.
func SymbolValue(id SymbolID) AsValue { return AsValue{Kind: ValueSymbol, SymbolID: id} }

// Symbol is a named entity: a label, section, macro name, value-macro, or
// macro parameter. Value is nil until the symbol is defined.
type Symbol struct {
	Name   string
	Source source.Token
	Value  *AsValue
}

// staticEntry is one interned string literal. Owned is true when the
// string had to be copied (e.g. escape processing produced new bytes);
// otherwise String borrows directly from the originating Unit's Text.
type staticEntry struct {
	String string
	Owned  bool
}

// Table owns every Symbol and static string literal for one assembler run.
type Table struct {
	symbols []*Symbol
	byName  map[string]SymbolID
	statics []staticEntry
}

// New returns an empty symbol table.
func New() *Table {
	return &Table{byName: make(map[string]SymbolID)}
}

// Declare returns the SymbolID for name, creating a new, as-yet-undefined
// symbol if this is the first time name has been seen. Declaration is
// idempotent: calling it again for the same name returns the existing ID
// without touching its value.
func (t *Table) Declare(name string, src source.Token) SymbolID {
	if id, ok := t.byName[name]; ok {
		return id
	}
	id := SymbolID(len(t.symbols))
	t.symbols = append(t.symbols, &Symbol{Name: name, Source: src})
	t.byName[name] = id
	return id
}

// Lookup returns the SymbolID for name if it has already been declared.
func (t *Table) Lookup(name string) (SymbolID, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// Define sets the value of an already-declared symbol and updates its
// declaring source token to the definition site. It is the caller's
// responsibility to reject redefinition of an already-defined symbol
// (see parser.Parser, which owns that policy so it can produce a
// "Symbol redeclaration" diagnostic with both source locations).
func (t *Table) Define(id SymbolID, value AsValue, src source.Token) {
	sym := t.symbols[id]
	v := value
	sym.Value = &v
	sym.Source = src
}

// Symbol returns the live Symbol for id. The returned pointer remains
// valid for the lifetime of the Table.
func (t *Table) Symbol(id SymbolID) *Symbol {
	return t.symbols[id]
}

// DeclareStatic interns a string literal and returns its StaticID.
// Interning is not deduplicated: each call yields a fresh ID, matching the
// assembler's use (every `ds` / string-literal token is a distinct datum,
// even if two literals happen to have the same contents).
func (t *Table) DeclareStatic(s string, owned bool) StaticID {
	id := StaticID(len(t.statics))
	t.statics = append(t.statics, staticEntry{String: s, Owned: owned})
	return id
}

// Static returns the interned string for id.
func (t *Table) Static(id StaticID) string {
	return t.statics[id].String
}

// Len returns the number of declared symbols, for diagnostics/tests.
func (t *Table) Len() int { return len(t.symbols) }
