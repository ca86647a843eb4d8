package parser

import (
	"strconv"

	"github.com/hivm-go/hivm/diag"
	"github.com/hivm-go/hivm/lexer"
	"github.com/hivm-go/hivm/source"
	"github.com/hivm-go/hivm/symtab"
)

// rawLine is one macro body line, split into its main token and operand
// tokens but otherwise unparsed: parameter substitution happens at the
// token level, and the result is re-dispatched through dispatchLine.
type rawLine struct {
	Main     lexer.Token
	Operands []lexer.Token
}

// MacroDef is a "% name p1 p2 ... %endmacro" definition.
type MacroDef struct {
	Name   string
	Params []symtab.SymbolID
	Body   []rawLine
	Source source.Token
}

// parseMacroDef consumes the header line at lines[start] (already known to
// begin with KindMod followed by an identifier) and every following line
// up to and including the matching "%endmacro", recording a MacroDef. It
// returns the number of LineTokens entries consumed, so the caller can
// skip over them.
func (p *Parser) parseMacroDef(lines []lexer.LineTokens, start int) (int, error) {
	header := lines[start].Tokens
	nameTok := header[1]
	name := nameTok.Text

	if _, exists := p.Macros[name]; exists {
		return 0, diag.New(diag.SymbolRedeclaration, nameTok.Source, "macro "+name+" already defined")
	}

	params := make([]symtab.SymbolID, 0, len(header)-2)
	for _, t := range header[2:] {
		if t.Kind != lexer.KindIdentifier {
			return 0, diag.New(diag.ParsingError, t.Source, "macro parameter must be a plain identifier")
		}
		params = append(params, t.SymbolID)
	}

	def := &MacroDef{Name: name, Params: params, Source: header[0].Source}

	i := start + 1
	for {
		if i >= len(lines) {
			return 0, diag.New(diag.ParsingError, header[0].Source, "macro "+name+" is missing %endmacro")
		}
		toks := lines[i].Tokens
		if len(toks) == 2 && toks[0].Kind == lexer.KindMod &&
			toks[1].Kind == lexer.KindIdentifier && toks[1].Text == "endmacro" {
			i++
			break
		}
		def.Body = append(def.Body, rawLine{Main: toks[0], Operands: toks[1:]})
		i++
	}

	p.Macros[name] = def
	return i - start, nil
}

// expandCall substitutes call's arguments for def's parameters in every
// body line and re-dispatches each resulting line through dispatchLine.
func (p *Parser) expandCall(unit *source.Unit, def *MacroDef, args []lexer.Token, callSite source.Token) error {
	if len(args) != len(def.Params) {
		return diag.New(diag.InvalidArgument, callSite,
			"macro "+def.Name+" takes "+strconv.Itoa(len(def.Params))+" argument(s), got "+strconv.Itoa(len(args)))
	}
	for _, line := range def.Body {
		substituted := make([]lexer.Token, 0, len(line.Operands))
		for i := 0; i < len(line.Operands); i++ {
			tok := line.Operands[i]
			if tok.Kind == lexer.KindMod && i+1 < len(line.Operands) && line.Operands[i+1].Kind == lexer.KindIdentifier {
				if argIdx, ok := paramIndex(def.Params, line.Operands[i+1].SymbolID); ok {
					substituted = append(substituted, args[argIdx])
					i++
					continue
				}
			}
			substituted = append(substituted, tok)
		}
		if err := p.dispatchLine(unit, line.Main, substituted); err != nil {
			return err
		}
	}
	return nil
}

func paramIndex(params []symtab.SymbolID, id symtab.SymbolID) (int, bool) {
	for i, p := range params {
		if p == id {
			return i, true
		}
	}
	return 0, false
}

