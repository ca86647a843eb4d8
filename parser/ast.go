package parser

import (
	"github.com/hivm-go/hivm/isa"
	"github.com/hivm-go/hivm/source"
	"github.com/hivm-go/hivm/symtab"
)

// Operand is one parsed instruction argument: a numeric constant, the
// current-position marker, a reference to an interned string, or a
// reference to a symbol (constant, label or section) to be resolved by
// the code generator.
type Operand struct {
	Value  symtab.AsValue
	Source source.Token
}

// Node is one top-level assembly item in source order.
type Node struct {
	Source source.Token
	Value  NodeValue
}

// NodeValue is implemented by Label, Section and an Instruction.
type NodeValue interface {
	isNodeValue()
}

// Label is an "@name" definition: a symbol bound to the byte offset of the
// next emitted instruction.
type Label struct {
	Name string
	ID   symtab.SymbolID
}

// Section is a ".name" directive. The code generator accepts any name,
// recording it the same way a Label is recorded so forward/backward
// references resolve identically; only ".text" is special, as its offset
// becomes the entry point.
type Section struct {
	Name string
	ID   symtab.SymbolID
}

func (Label) isNodeValue()   {}
func (Section) isNodeValue() {}

// Instruction is implemented by every concrete instruction shape. The code
// generator type-switches on it.
type Instruction interface {
	isInstruction()
}

func (SimpleInstr) isNodeValue()      {}
func (AddressInstr) isNodeValue()     {}
func (TwoAddressInstr) isNodeValue()  {}
func (NumberInstr) isNodeValue()      {}
func (ConstBytesInstr) isNodeValue()  {}
func (DefineNumberInstr) isNodeValue() {}
func (DefineBytesInstr) isNodeValue()  {}
func (DefineStringInstr) isNodeValue() {}

func (SimpleInstr) isInstruction()      {}
func (AddressInstr) isInstruction()     {}
func (TwoAddressInstr) isInstruction()  {}
func (NumberInstr) isInstruction()      {}
func (ConstBytesInstr) isInstruction()  {}
func (DefineNumberInstr) isInstruction() {}
func (DefineBytesInstr) isInstruction()  {}
func (DefineStringInstr) isInstruction() {}

// SimpleInstr is any opcode that takes no assembly-level operand (it pulls
// everything it needs from the VM's operand stack at run time).
type SimpleInstr struct {
	Op isa.Opcode
}

// AddressInstr is an opcode with a single 8-byte AddressLike operand
// (jump/call targets, LoadStatic* addresses, VirtualConstToReal).
type AddressInstr struct {
	Op   isa.Opcode
	Addr Operand
}

// TwoAddressInstr is LoadStaticBytes: an address and a count, each an
// 8-byte AddressLike operand.
type TwoAddressInstr struct {
	Op    isa.Opcode
	Addr  Operand
	Count Operand
}

// NumberInstr is an opcode with a single NumberLike operand of a declared
// width (LoadConst1/2/4/8, IntrConst, SetErrorConst).
type NumberInstr struct {
	Op    isa.Opcode
	Width int
	Value Operand
}

// ConstBytesInstr is LoadConstBytes: a variable-length list of one-byte
// NumberLike operands: the emitted count is len(Bytes).
type ConstBytesInstr struct {
	Bytes []Operand
}

// DefineNumberInstr is the "dn size value" pseudo-instruction.
type DefineNumberInstr struct {
	Size  int
	Value Operand
}

// DefineBytesInstr is the "db b1 b2 ..." pseudo-instruction.
type DefineBytesInstr struct {
	Bytes []Operand
}

// DefineStringInstr is the "ds \"literal\"" pseudo-instruction: raw bytes,
// no length prefix, no terminator.
type DefineStringInstr struct {
	StaticID symtab.StaticID
}
