package parser

import (
	"github.com/hivm-go/hivm/diag"
	"github.com/hivm-go/hivm/lexer"
	"github.com/hivm-go/hivm/source"
	"github.com/hivm-go/hivm/symtab"
)

// parseOperand consumes one operand starting at tokens[i] and returns it
// together with the index just past it. A bare '%' here is always an
// error: legitimate macro-parameter references are substituted away, at
// the raw token level, before a macro body line ever reaches this
// function (see macro.go).
func (p *Parser) parseOperand(tokens []lexer.Token, i int) (Operand, int, error) {
	if i >= len(tokens) {
		return Operand{}, i, diag.New(diag.ParsingError, p.lastSource(tokens), "expected an operand")
	}
	tok := tokens[i]
	switch tok.Kind {
	case lexer.KindStringLiteral:
		return Operand{Value: symtab.StringValue(tok.StaticID), Source: tok.Source}, i + 1, nil

	case lexer.KindCharLiteral:
		n := symtab.Number{Kind: symtab.NumUint, Uint: uint64(tok.Char)}
		return Operand{Value: symtab.ConstValue(n), Source: tok.Source}, i + 1, nil

	case lexer.KindNumber:
		return Operand{Value: symtab.ConstValue(tok.Number), Source: tok.Source}, i + 1, nil

	case lexer.KindIdentifier:
		return Operand{Value: symtab.SymbolValue(tok.SymbolID), Source: tok.Source}, i + 1, nil

	case lexer.KindDollar:
		return Operand{Value: symtab.CurrentPositionValue(), Source: tok.Source}, i + 1, nil

	case lexer.KindBang:
		if i+1 >= len(tokens) || tokens[i+1].Kind != lexer.KindIdentifier {
			return Operand{}, i, diag.New(diag.ParsingError, tok.Source, "'!' must be followed by a symbol name")
		}
		nameTok := tokens[i+1]
		sym := p.Table.Symbol(nameTok.SymbolID)
		if sym.Value == nil {
			return Operand{}, i, diag.New(diag.UndefinedSymbol, nameTok.Source, "undefined symbol "+sym.Name+" in macro-value expansion")
		}
		return Operand{Value: *sym.Value, Source: tok.Source}, i + 2, nil

	case lexer.KindMod:
		return Operand{}, i, diag.New(diag.ParsingError, tok.Source, "macro parameter reference used outside a macro body")

	default:
		return Operand{}, i, diag.New(diag.ParsingError, tok.Source, "unexpected token "+tok.Text+" in operand position")
	}
}

// lastSource returns a source.Token to anchor a "missing operand"
// diagnostic to: the line's last token if there is one.
func (p *Parser) lastSource(tokens []lexer.Token) source.Token {
	if len(tokens) == 0 {
		return p.lineFallback
	}
	return tokens[len(tokens)-1].Source
}
