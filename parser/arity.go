package parser

import "github.com/hivm-go/hivm/isa"

// argShape tags how many assembly-level operands an opcode consumes and
// what kind they are. Every opcode not listed in argShapes takes none: it
// is a pure stack-machine operation that reads everything it needs from
// the VM's operand stack at run time.
type argShape int

const (
	shapeNone argShape = iota
	shapeAddress
	shapeTwoAddress // LoadStaticBytes: addr, count
	shapeNumber     // width carried alongside in argShapes
	shapeConstBytes // LoadConstBytes: variable-length 1-byte operand list
)

type opSpec struct {
	shape argShape
	width int // meaningful only for shapeNumber
}

var argShapes = map[isa.Opcode]opSpec{
	isa.LoadStatic1: {shapeAddress, 0},
	isa.LoadStatic2: {shapeAddress, 0},
	isa.LoadStatic4: {shapeAddress, 0},
	isa.LoadStatic8: {shapeAddress, 0},

	isa.LoadStaticBytes: {shapeTwoAddress, 0},

	isa.LoadConst1: {shapeNumber, 1},
	isa.LoadConst2: {shapeNumber, 2},
	isa.LoadConst4: {shapeNumber, 4},
	isa.LoadConst8: {shapeNumber, 8},

	isa.LoadConstBytes: {shapeConstBytes, 0},

	isa.VirtualConstToReal: {shapeAddress, 0},

	isa.IntrConst: {shapeNumber, isa.InterruptSize},

	isa.JumpConst:        {shapeAddress, 0},
	isa.JumpErrorConst:   {shapeAddress, 0},
	isa.JumpNoErrorConst: {shapeAddress, 0},
	isa.Call:             {shapeAddress, 0},

	isa.JumpNotZeroConst1: {shapeAddress, 0},
	isa.JumpNotZeroConst2: {shapeAddress, 0},
	isa.JumpNotZeroConst4: {shapeAddress, 0},
	isa.JumpNotZeroConst8: {shapeAddress, 0},
	isa.JumpZeroConst1:    {shapeAddress, 0},
	isa.JumpZeroConst2:    {shapeAddress, 0},
	isa.JumpZeroConst4:    {shapeAddress, 0},
	isa.JumpZeroConst8:    {shapeAddress, 0},

	isa.SetErrorConst: {shapeNumber, isa.ErrorCodeSize},
}

func operandSpec(op isa.Opcode) opSpec {
	if s, ok := argShapes[op]; ok {
		return s
	}
	return opSpec{shape: shapeNone}
}
