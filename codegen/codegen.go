// Package codegen walks a parser.Node list and emits a bytecode image: a
// fixed header holding the entry point, followed by one opcode byte (plus
// operand bytes) per instruction node and the raw bytes of each dn/db/ds
// data node, in source order. Forward references
// to labels are back-patched once the whole program has been walked.
package codegen

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/hivm-go/hivm/diag"
	"github.com/hivm-go/hivm/isa"
	"github.com/hivm-go/hivm/parser"
	"github.com/hivm-go/hivm/source"
	"github.com/hivm-go/hivm/symtab"
)

// HeaderSize is the fixed prefix written before any instruction byte: a
// JumpConst opcode followed by its 8-byte little-endian address operand,
// resolved to the offset of the "text" section (or 0 if none was
// declared). The header is itself a valid instruction — a VM that simply
// starts executing at byte 0 jumps straight to the program's real entry
// point, no special-cased bootstrap required.
const HeaderSize = isa.InstructionSize + isa.AddressSize

// unresolved is a back-patch site: Width bytes at Offset in the output
// buffer must be overwritten with the little-endian value of the symbol
// named Name once it resolves.
type unresolved struct {
	Offset int
	Width  int
	Name   string
	Source source.Token
}

// Generator accumulates the bytecode image for one assembly run.
type Generator struct {
	table    *symtab.Table
	out      bytes.Buffer
	labelMap map[string]int
	pending  []unresolved
	section  string // name of the most recently declared section, "" if none yet
}

// New returns a Generator bound to table, the same symbol table the
// parser populated.
func New(table *symtab.Table) *Generator {
	return &Generator{table: table, labelMap: make(map[string]int)}
}

// Generate walks nodes in order and returns the finished bytecode image,
// header included.
func Generate(table *symtab.Table, nodes []parser.Node) ([]byte, error) {
	g := New(table)
	// Reserve the header; it is patched with the real entry point last.
	g.out.Write(make([]byte, HeaderSize))

	for _, n := range nodes {
		if err := g.emitNode(n); err != nil {
			return nil, err
		}
	}

	if err := g.backpatch(); err != nil {
		return nil, err
	}

	entry := g.labelMap["text"]
	buf := g.out.Bytes()
	buf[0] = byte(isa.JumpConst)
	binary.LittleEndian.PutUint64(buf[1:9], uint64(entry))

	return buf, nil
}

// offset is the current byte address: the absolute position in the final
// image, header included. This is the value labels resolve to and that
// JumpConst/Call targets carry, matching the wire format directly — a
// label's value is exactly the PC a jump to it should set.
func (g *Generator) offset() int { return g.out.Len() }

func (g *Generator) emitNode(n parser.Node) error {
	switch v := n.Value.(type) {
	case parser.Label:
		if err := g.requireSection(n.Source); err != nil {
			return err
		}
		g.labelMap[v.Name] = g.offset()
		return nil

	case parser.Section:
		g.labelMap[v.Name] = g.offset()
		g.section = v.Name
		return nil

	case parser.SimpleInstr:
		if err := g.requireSection(n.Source); err != nil {
			return err
		}
		g.out.WriteByte(byte(v.Op))
		return nil

	case parser.AddressInstr:
		if err := g.requireSection(n.Source); err != nil {
			return err
		}
		g.out.WriteByte(byte(v.Op))
		return g.emitAddress(v.Addr)

	case parser.TwoAddressInstr:
		if err := g.requireSection(n.Source); err != nil {
			return err
		}
		g.out.WriteByte(byte(v.Op))
		if err := g.emitAddress(v.Addr); err != nil {
			return err
		}
		return g.emitAddress(v.Count)

	case parser.NumberInstr:
		if err := g.requireSection(n.Source); err != nil {
			return err
		}
		g.out.WriteByte(byte(v.Op))
		return g.emitNumber(v.Value, v.Width)

	case parser.ConstBytesInstr:
		if err := g.requireSection(n.Source); err != nil {
			return err
		}
		g.out.WriteByte(byte(isa.LoadConstBytes))
		g.emitUint64(uint64(len(v.Bytes)))
		for _, b := range v.Bytes {
			if err := g.emitNumber(b, 1); err != nil {
				return err
			}
		}
		return nil

	case parser.DefineNumberInstr:
		if err := g.requireSection(n.Source); err != nil {
			return err
		}
		return g.emitNumber(v.Value, v.Size)

	case parser.DefineBytesInstr:
		if err := g.requireSection(n.Source); err != nil {
			return err
		}
		for _, b := range v.Bytes {
			if err := g.emitNumber(b, 1); err != nil {
				return err
			}
		}
		return nil

	case parser.DefineStringInstr:
		if err := g.requireSection(n.Source); err != nil {
			return err
		}
		g.out.WriteString(g.table.Static(v.StaticID))
		return nil

	default:
		return diag.New(diag.ParsingError, n.Source, "codegen: unhandled node type")
	}
}

func (g *Generator) requireSection(at source.Token) error {
	if g.section == "" {
		return diag.New(diag.OutsideSection, at, "instruction or data outside any declared section")
	}
	return nil
}

func (g *Generator) emitUint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	g.out.Write(b[:])
}

// emitAddress writes an 8-byte AddressLike operand, recording a back-patch
// if it names a symbol not yet resolvable to a concrete offset.
func (g *Generator) emitAddress(op parser.Operand) error {
	switch op.Value.Kind {
	case symtab.ValueConst:
		v, ok := op.Value.Const.AsUint64()
		if !ok {
			return diag.New(diag.InvalidArgument, op.Source, "negative constant used where an unsigned address is required")
		}
		g.emitUint64(v)
		return nil

	case symtab.ValueCurrentPosition:
		g.emitUint64(uint64(g.offset()))
		return nil

	case symtab.ValueSymbol:
		v, name, ok := g.resolveSymbol(op.Value.SymbolID)
		if ok {
			g.emitUint64(v)
			return nil
		}
		g.pending = append(g.pending, unresolved{Offset: g.out.Len(), Width: isa.AddressSize, Name: name, Source: op.Source})
		g.emitUint64(0)
		return nil

	default:
		return diag.New(diag.InvalidArgument, op.Source, "a string literal cannot be used as an address operand")
	}
}

// emitNumber writes a NumberLike operand truncated/zero-extended to width
// bytes. Literal constants are fatal if they don't fit; symbols are
// truncated silently once resolved, matching the code generator's
// documented asymmetry between literal and symbolic operands.
func (g *Generator) emitNumber(op parser.Operand, width int) error {
	switch op.Value.Kind {
	case symtab.ValueConst:
		bs, err := numberBytes(op.Value.Const, width, op.Source)
		if err != nil {
			return err
		}
		g.out.Write(bs)
		return nil

	case symtab.ValueCurrentPosition:
		g.out.Write(leTruncated(uint64(g.offset()), width))
		return nil

	case symtab.ValueSymbol:
		v, name, ok := g.resolveSymbol(op.Value.SymbolID)
		if ok {
			g.out.Write(leTruncated(v, width))
			return nil
		}
		g.pending = append(g.pending, unresolved{Offset: g.out.Len(), Width: width, Name: name, Source: op.Source})
		g.out.Write(make([]byte, width))
		return nil

	default:
		return diag.New(diag.InvalidArgument, op.Source, "a string literal cannot be used as a numeric operand")
	}
}

// numberBytes renders n as exactly width little-endian bytes, failing
// fatally if n does not fit.
func numberBytes(n symtab.Number, width int, at source.Token) ([]byte, error) {
	if n.Kind == symtab.NumFloat {
		switch width {
		case 4:
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], math.Float32bits(float32(n.Float)))
			return b[:], nil
		case 8:
			var b [8]byte
			binary.LittleEndian.PutUint64(b[:], math.Float64bits(n.Float))
			return b[:], nil
		default:
			return nil, diag.New(diag.InvalidArgument, at, "a floating-point constant requires a 4 or 8 byte operand")
		}
	}
	if n.MinSize() > width {
		return nil, diag.New(diag.InvalidArgument, at, "constant does not fit in the declared operand width")
	}
	v, ok := n.AsUint64()
	if !ok {
		// Negative signed value that nonetheless fits width bytes in two's
		// complement (e.g. -1 in a 1-byte slot): re-derive via Int.
		v = uint64(n.Int)
	}
	return leTruncated(v, width), nil
}

func leTruncated(v uint64, width int) []byte {
	var full [8]byte
	binary.LittleEndian.PutUint64(full[:], v)
	return full[:width]
}

// resolveSymbol follows value-macro alias chains down to a terminal
// constant or a label/section. ok is false if the chain bottoms out in a
// not-yet-declared-offset label; name is then the label name to watch in
// labelMap during back-patching.
func (g *Generator) resolveSymbol(id symtab.SymbolID) (value uint64, watchName string, ok bool) {
	sym := g.table.Symbol(id)
	if sym.Value == nil {
		return 0, sym.Name, false
	}
	switch sym.Value.Kind {
	case symtab.ValueConst:
		v, _ := sym.Value.Const.AsUint64()
		return v, "", true
	case symtab.ValueCurrentPosition:
		if off, found := g.labelMap[sym.Name]; found {
			return uint64(off), "", true
		}
		return 0, sym.Name, false
	case symtab.ValueSymbol:
		return g.resolveSymbol(sym.Value.SymbolID)
	default:
		return 0, "", false
	}
}

func (g *Generator) backpatch() error {
	buf := g.out.Bytes()
	for _, u := range g.pending {
		off, ok := g.labelMap[u.Name]
		if !ok {
			return diag.New(diag.UndefinedSymbol, u.Source, "undefined symbol "+u.Name)
		}
		copy(buf[u.Offset:u.Offset+u.Width], leTruncated(uint64(off), u.Width))
	}
	return nil
}
