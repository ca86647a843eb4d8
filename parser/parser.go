// Package parser turns a token stream from package lexer into an ordered
// []Node AST: labels, sections and instructions, with macros expanded and
// includes spliced in inline. There is no error-recovery mode; the first
// fatal condition aborts the whole run, matching spec.md's "no partial
// assembly" design.
package parser

import (
	"path/filepath"
	"strconv"

	"github.com/hivm-go/hivm/diag"
	"github.com/hivm-go/hivm/isa"
	"github.com/hivm-go/hivm/lexer"
	"github.com/hivm-go/hivm/module"
	"github.com/hivm-go/hivm/source"
	"github.com/hivm-go/hivm/symtab"
)

// Parser owns the symbol table, module manager and macro namespace shared
// by a whole assembly run, plus the accumulated node list.
type Parser struct {
	Table  *symtab.Table
	Mgr    *module.Manager
	Macros map[string]*MacroDef
	Nodes  []Node

	lineFallback source.Token
}

// New returns a Parser ready to assemble one program, sharing table and
// mgr with the caller (so the caller can still query the symbol table and
// module manager after parsing finishes).
func New(table *symtab.Table, mgr *module.Manager) *Parser {
	return &Parser{
		Table:  table,
		Mgr:    mgr,
		Macros: make(map[string]*MacroDef),
	}
}

// ParseFile loads path as the root source unit and returns the flattened
// node list for the whole program, includes spliced in at the point of
// their "include" directive.
func (p *Parser) ParseFile(path string) ([]Node, error) {
	unit, err := p.Mgr.Load(path)
	if err != nil {
		return nil, err
	}
	if err := p.processUnit(unit); err != nil {
		return nil, err
	}
	return p.Nodes, nil
}

// processUnit tokenizes unit and dispatches every logical line in order,
// consuming macro definitions inline (they span multiple LineTokens) and
// recursing into included units at the point of their include directive.
func (p *Parser) processUnit(unit *source.Unit) error {
	lines, err := lexer.Lex(unit, p.Table)
	if err != nil {
		return err
	}
	for i := 0; i < len(lines); i++ {
		toks := lines[i].Tokens
		main := toks[0]
		operands := toks[1:]
		p.lineFallback = main.Source

		if main.Kind == lexer.KindMod && len(operands) >= 1 && operands[0].Kind == lexer.KindIdentifier {
			consumed, err := p.parseMacroDef(lines, i)
			if err != nil {
				return err
			}
			i += consumed - 1
			continue
		}

		if err := p.dispatchLine(unit, main, operands); err != nil {
			return err
		}
	}
	return nil
}

// dispatchLine interprets one already-substituted logical line: a label,
// section, value-macro definition, macro call, pseudo-instruction or real
// opcode. It is the single re-entry point macro expansion calls back into.
func (p *Parser) dispatchLine(unit *source.Unit, main lexer.Token, operands []lexer.Token) error {
	switch main.Kind {
	case lexer.KindAt:
		return p.defineLabelLike(main, operands, false)

	case lexer.KindDot:
		return p.defineLabelLike(main, operands, true)

	case lexer.KindValueMacroDef:
		return p.defineValueMacro(main, operands)

	case lexer.KindBang:
		return p.dispatchMacroCall(unit, main, operands)

	case lexer.KindPseudoInstruction:
		return p.dispatchPseudo(unit, main, operands)

	case lexer.KindInstruction:
		return p.dispatchInstruction(main, operands)

	default:
		return diag.New(diag.ParsingError, main.Source, "unexpected token "+main.Text+" at start of line")
	}
}

func (p *Parser) defineLabelLike(main lexer.Token, operands []lexer.Token, isSection bool) error {
	if len(operands) != 1 || operands[0].Kind != lexer.KindIdentifier {
		kind := "label"
		if isSection {
			kind = "section"
		}
		return diag.New(diag.ParsingError, main.Source, kind+" definition requires exactly one identifier")
	}
	nameTok := operands[0]
	sym := p.Table.Symbol(nameTok.SymbolID)
	if sym.Value != nil {
		return diag.Redeclared(nameTok.Source, sym.Source, "symbol "+sym.Name+" already defined")
	}
	p.Table.Define(nameTok.SymbolID, symtab.CurrentPositionValue(), nameTok.Source)

	var val NodeValue
	if isSection {
		val = Section{Name: sym.Name, ID: nameTok.SymbolID}
	} else {
		val = Label{Name: sym.Name, ID: nameTok.SymbolID}
	}
	p.Nodes = append(p.Nodes, Node{Source: main.Source, Value: val})
	return nil
}

func (p *Parser) defineValueMacro(main lexer.Token, operands []lexer.Token) error {
	if len(operands) == 0 || operands[0].Kind != lexer.KindIdentifier {
		return diag.New(diag.ParsingError, main.Source, "value-macro definition requires a name")
	}
	nameTok := operands[0]
	sym := p.Table.Symbol(nameTok.SymbolID)
	if sym.Value != nil {
		return diag.Redeclared(nameTok.Source, sym.Source, "symbol "+sym.Name+" already defined")
	}
	val, next, err := p.parseOperand(operands, 1)
	if err != nil {
		return err
	}
	if next != len(operands) {
		return diag.New(diag.ParsingError, operands[next].Source, "unexpected extra token after value-macro definition")
	}
	p.Table.Define(nameTok.SymbolID, val.Value, nameTok.Source)
	return nil
}

func (p *Parser) dispatchMacroCall(unit *source.Unit, main lexer.Token, operands []lexer.Token) error {
	if len(operands) == 0 || operands[0].Kind != lexer.KindIdentifier {
		return diag.New(diag.ParsingError, main.Source, "macro call requires a macro name")
	}
	name := operands[0].Text
	def, ok := p.Macros[name]
	if !ok {
		return diag.New(diag.UndefinedSymbol, operands[0].Source, "call to undefined macro "+name)
	}
	return p.expandCall(unit, def, operands[1:], main.Source)
}

func (p *Parser) dispatchPseudo(unit *source.Unit, main lexer.Token, operands []lexer.Token) error {
	switch main.Pseudo {
	case lexer.PseudoInclude:
		return p.dispatchInclude(unit, main, operands)

	case lexer.PseudoDefineNumber:
		return p.dispatchDefineNumber(main, operands)

	case lexer.PseudoDefineBytes:
		return p.dispatchDefineBytes(main, operands)

	case lexer.PseudoDefineString:
		return p.dispatchDefineString(main, operands)

	case lexer.PseudoReturn:
		p.Nodes = append(p.Nodes, Node{Source: main.Source, Value: SimpleInstr{Op: isa.Return}})
		return nil

	default:
		return diag.New(diag.ParsingError, main.Source, "unknown pseudo-instruction")
	}
}

func (p *Parser) dispatchInclude(unit *source.Unit, main lexer.Token, operands []lexer.Token) error {
	if len(operands) != 1 || operands[0].Kind != lexer.KindStringLiteral {
		return diag.New(diag.ParsingError, main.Source, "include requires exactly one string literal path")
	}
	path := p.Table.Static(operands[0].StaticID)
	fromDir := filepath.Dir(unit.Path)
	included, loaded, err := p.Mgr.Resolve(fromDir, path)
	if err != nil {
		return diag.New(diag.IOError, operands[0].Source, err.Error())
	}
	if !loaded {
		return nil
	}
	return p.processUnit(included)
}

func (p *Parser) dispatchDefineNumber(main lexer.Token, operands []lexer.Token) error {
	if len(operands) != 2 || operands[0].Kind != lexer.KindNumber {
		return diag.New(diag.ParsingError, main.Source, "dn requires a literal size and a value")
	}
	size, ok := operands[0].Number.AsUint64()
	if !ok || size == 0 || size > 8 {
		return diag.New(diag.InvalidArgument, operands[0].Source, "dn size must be a literal unsigned integer between 1 and 8")
	}
	val, next, err := p.parseOperand(operands, 1)
	if err != nil {
		return err
	}
	if next != len(operands) {
		return diag.New(diag.ParsingError, operands[next].Source, "unexpected extra token after dn value")
	}
	p.Nodes = append(p.Nodes, Node{Source: main.Source, Value: DefineNumberInstr{Size: int(size), Value: val}})
	return nil
}

func (p *Parser) dispatchDefineBytes(main lexer.Token, operands []lexer.Token) error {
	if len(operands) == 0 {
		return diag.New(diag.ParsingError, main.Source, "db requires at least one byte operand")
	}
	bytes, err := p.parseOperandList(operands)
	if err != nil {
		return err
	}
	p.Nodes = append(p.Nodes, Node{Source: main.Source, Value: DefineBytesInstr{Bytes: bytes}})
	return nil
}

func (p *Parser) dispatchDefineString(main lexer.Token, operands []lexer.Token) error {
	if len(operands) != 1 || operands[0].Kind != lexer.KindStringLiteral {
		return diag.New(diag.ParsingError, main.Source, "ds requires exactly one string literal")
	}
	p.Nodes = append(p.Nodes, Node{Source: main.Source, Value: DefineStringInstr{StaticID: operands[0].StaticID}})
	return nil
}

// parseOperandList consumes operands greedily until exhausted, used by
// loadconstn/db which both take a variable-length operand list.
func (p *Parser) parseOperandList(operands []lexer.Token) ([]Operand, error) {
	var out []Operand
	idx := 0
	for idx < len(operands) {
		o, next, err := p.parseOperand(operands, idx)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
		idx = next
	}
	return out, nil
}

func (p *Parser) dispatchInstruction(main lexer.Token, operands []lexer.Token) error {
	op := main.Opcode
	spec := operandSpec(op)

	switch spec.shape {
	case shapeNone:
		if len(operands) != 0 {
			return diag.New(diag.InvalidArgument, operands[0].Source, op.String()+" takes no operands")
		}
		p.Nodes = append(p.Nodes, Node{Source: main.Source, Value: SimpleInstr{Op: op}})

	case shapeAddress:
		if len(operands) == 0 {
			return diag.New(diag.ParsingError, main.Source, op.String()+" requires one address operand")
		}
		addr, next, err := p.parseOperand(operands, 0)
		if err != nil {
			return err
		}
		if next != len(operands) {
			return diag.New(diag.ParsingError, operands[next].Source, op.String()+" takes exactly one operand")
		}
		p.Nodes = append(p.Nodes, Node{Source: main.Source, Value: AddressInstr{Op: op, Addr: addr}})

	case shapeTwoAddress:
		addr, next, err := p.parseOperand(operands, 0)
		if err != nil {
			return err
		}
		count, next2, err := p.parseOperand(operands, next)
		if err != nil {
			return err
		}
		if next2 != len(operands) {
			return diag.New(diag.ParsingError, operands[next2].Source, op.String()+" takes exactly two operands")
		}
		p.Nodes = append(p.Nodes, Node{Source: main.Source, Value: TwoAddressInstr{Op: op, Addr: addr, Count: count}})

	case shapeNumber:
		if len(operands) == 0 {
			return diag.New(diag.ParsingError, main.Source, op.String()+" requires one numeric operand")
		}
		val, next, err := p.parseOperand(operands, 0)
		if err != nil {
			return err
		}
		if next != len(operands) {
			return diag.New(diag.ParsingError, operands[next].Source, op.String()+" takes exactly one operand")
		}
		if val.Value.Kind == symtab.ValueConst && val.Value.Const.MinSize() > spec.width {
			return diag.New(diag.InvalidArgument, val.Source, "constant too large for a "+strconv.Itoa(spec.width)+"-byte operand")
		}
		p.Nodes = append(p.Nodes, Node{Source: main.Source, Value: NumberInstr{Op: op, Width: spec.width, Value: val}})

	case shapeConstBytes:
		bytes, err := p.parseOperandList(operands)
		if err != nil {
			return err
		}
		if len(bytes) == 0 {
			return diag.New(diag.ParsingError, main.Source, op.String()+" requires at least one byte operand")
		}
		for _, b := range bytes {
			if b.Value.Kind == symtab.ValueConst && (b.Value.Const.Kind == symtab.NumFloat || b.Value.Const.MinSize() > 1) {
				return diag.New(diag.InvalidArgument, b.Source, "loadconstn operands must fit in one byte")
			}
		}
		p.Nodes = append(p.Nodes, Node{Source: main.Source, Value: ConstBytesInstr{Bytes: bytes}})
	}
	return nil
}
