// Package lexer is the assembler's tokenizer: a regexp-driven scanner that
// turns one AssemblyUnit's lines into one token list per non-empty,
// non-comment-only line, interning identifiers and string literals into
// the shared symtab.Table as it goes.
package lexer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hivm-go/hivm/diag"
	"github.com/hivm-go/hivm/isa"
	"github.com/hivm-go/hivm/source"
	"github.com/hivm-go/hivm/symtab"
)

// lexemeRegexp recognizes, in priority order: quoted char/string literals
// (with embedded-escape awareness so an escaped quote doesn't end the
// literal early), identifiers, hex integers, decimal floats, decimal
// integers, the two-character value-macro sigil, single punctuation
// glyphs, and finally any other single non-whitespace rune.
var lexemeRegexp = regexp.MustCompile(
	`'(?:\\.|[^'\\])*'` + `|"(?:\\.|[^"\\])*"` +
		`|[_A-Za-z][_A-Za-z0-9]*` +
		`|0[xX][0-9A-Fa-f]+` +
		`|[+-]?[0-9]+\.[0-9]*` +
		`|[+-]?[0-9]+` +
		`|%=` +
		`|[-+*/%@#$:.!]` +
		`|\S`,
)

// Kind classifies a Token.
type Kind int

const (
	KindStringLiteral Kind = iota
	KindCharLiteral
	KindNumber
	KindIdentifier
	KindInstruction
	KindPseudoInstruction
	KindColon            // :
	KindDot              // .
	KindDollar           // $
	KindAt               // @
	KindPlus             // +
	KindMinus            // -
	KindStar             // *
	KindDiv              // /
	KindMod              // % (macro-def sigil / macro-parameter sigil)
	KindValueMacroDef    // %=
	KindBang             // ! (macro-call sigil / macro-value-expansion sigil)
	KindOther            // any unrecognized single character
)

// Priority is an operator-precedence tier, reserved per spec.md §4.1 for a
// future inline-arithmetic evaluator. Nothing in this assembler currently
// reorders tokens by priority; it is carried on Token purely so that
// future work doesn't need to touch the tokenizer again.
type Priority int

const (
	PriorityNone Priority = iota
	PriorityInstruction
	PriorityPlusMinus
	PriorityMulDivMod
	PriorityAsmOperator
)

// PseudoKind names a pseudo-instruction keyword.
type PseudoKind int

const (
	PseudoInclude PseudoKind = iota
	PseudoDefineNumber
	PseudoDefineBytes
	PseudoDefineString
	PseudoReturn
)

var pseudoKeywords = map[string]PseudoKind{
	"include": PseudoInclude,
	"dn":      PseudoDefineNumber,
	"db":      PseudoDefineBytes,
	"ds":      PseudoDefineString,
	"ret":     PseudoReturn,
}

// Token is one lexed unit together with everything the parser needs to
// interpret it, without having to re-inspect the raw lexeme text.
type Token struct {
	Kind     Kind
	Source   source.Token
	Priority Priority

	Text     string // raw lexeme, post-escape for literals
	Number   symtab.Number
	SymbolID symtab.SymbolID
	StaticID symtab.StaticID
	Char     rune
	Opcode   isa.Opcode
	Pseudo   PseudoKind
}

func basePriority(k Kind) Priority {
	switch k {
	case KindInstruction:
		return PriorityInstruction
	case KindPlus, KindMinus:
		return PriorityPlusMinus
	case KindStar, KindDiv, KindMod:
		return PriorityMulDivMod
	case KindDollar, KindAt, KindDot:
		return PriorityAsmOperator
	default:
		return PriorityNone
	}
}

// Lex tokenizes every line of unit, declaring plain identifiers in table
// and interning string literal text into table's static pool.
// It returns one Token slice per non-empty, non-comment-only source line,
// together with the 0-indexed line number each slice came from.
func Lex(unit *source.Unit, table *symtab.Table) ([]LineTokens, error) {
	var out []LineTokens
	for lineIdx, line := range unit.Lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		toks, err := lexLine(unit, lineIdx, line, table)
		if err != nil {
			return nil, err
		}
		if len(toks) == 0 {
			continue
		}
		out = append(out, LineTokens{Line: lineIdx, Tokens: toks})
	}
	return out, nil
}

// LineTokens is every token produced from one source line.
type LineTokens struct {
	Line   int
	Tokens []Token
}

func lexLine(unit *source.Unit, lineIdx int, line string, table *symtab.Table) ([]Token, error) {
	idxs := lexemeRegexp.FindAllStringIndex(line, -1)
	toks := make([]Token, 0, len(idxs))
	for _, pair := range idxs {
		start, end := pair[0], pair[1]
		lexeme := line[start:end]
		srcTok := source.Token{Text: lexeme, Unit: unit, Line: lineIdx, Column: start + 1}

		if lexeme == ";" {
			break
		}

		tok, err := classify(lexeme, srcTok, table)
		if err != nil {
			return nil, err
		}
		tok.Priority = basePriority(tok.Kind)
		toks = append(toks, tok)
	}
	return toks, nil
}

func classify(lexeme string, src source.Token, table *symtab.Table) (Token, error) {
	switch {
	case len(lexeme) >= 2 && lexeme[0] == '\'' && lexeme[len(lexeme)-1] == '\'':
		return classifyCharLiteral(lexeme, src)
	case len(lexeme) >= 2 && lexeme[0] == '"' && lexeme[len(lexeme)-1] == '"':
		return classifyStringLiteral(lexeme, src, table)
	case isIdentifierLexeme(lexeme):
		return classifyIdentifier(lexeme, src, table), nil
	case strings.HasPrefix(lexeme, "0x") || strings.HasPrefix(lexeme, "0X"):
		return classifyHex(lexeme, src)
	case isFloatLexeme(lexeme):
		return classifyFloat(lexeme, src)
	case isIntLexeme(lexeme):
		return classifyInt(lexeme, src)
	default:
		return classifyPunctuation(lexeme, src), nil
	}
}

func isIdentifierLexeme(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	if !(c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !(c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}

func isFloatLexeme(s string) bool {
	t := s
	if len(t) > 0 && (t[0] == '+' || t[0] == '-') {
		t = t[1:]
	}
	dot := strings.IndexByte(t, '.')
	if dot < 0 {
		return false
	}
	intPart, fracPart := t[:dot], t[dot+1:]
	return intPart != "" && allDigits(intPart) && allDigits(fracPart)
}

func isIntLexeme(s string) bool {
	t := s
	if len(t) > 0 && (t[0] == '+' || t[0] == '-') {
		t = t[1:]
	}
	return t != "" && allDigits(t)
}

func allDigits(s string) bool {
	if s == "" {
		return true
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func classifyIdentifier(lexeme string, src source.Token, table *symtab.Table) Token {
	if op, ok := isa.FromMnemonic(lexeme); ok {
		return Token{Kind: KindInstruction, Source: src, Text: lexeme, Opcode: op}
	}
	if kind, ok := pseudoKeywords[lexeme]; ok {
		return Token{Kind: KindPseudoInstruction, Source: src, Text: lexeme, Pseudo: kind}
	}
	id := table.Declare(lexeme, src)
	return Token{Kind: KindIdentifier, Source: src, Text: lexeme, SymbolID: id}
}

func classifyHex(lexeme string, src source.Token) (Token, error) {
	v, err := strconv.ParseUint(lexeme[2:], 16, 64)
	if err != nil {
		return Token{}, diag.New(diag.LexicalError, src, "invalid hex integer literal "+lexeme)
	}
	return Token{Kind: KindNumber, Source: src, Text: lexeme, Number: symtab.Number{Kind: symtab.NumUint, Uint: v}}, nil
}

func classifyFloat(lexeme string, src source.Token) (Token, error) {
	v, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		return Token{}, diag.New(diag.LexicalError, src, "invalid float literal "+lexeme)
	}
	return Token{Kind: KindNumber, Source: src, Text: lexeme, Number: symtab.Number{Kind: symtab.NumFloat, Float: v}}, nil
}

func classifyInt(lexeme string, src source.Token) (Token, error) {
	if lexeme[0] == '-' {
		v, err := strconv.ParseInt(lexeme, 10, 64)
		if err != nil {
			return Token{}, diag.New(diag.LexicalError, src, "invalid integer literal "+lexeme)
		}
		return Token{Kind: KindNumber, Source: src, Text: lexeme, Number: symtab.Number{Kind: symtab.NumInt, Int: v}}, nil
	}
	t := lexeme
	if t[0] == '+' {
		t = t[1:]
	}
	v, err := strconv.ParseUint(t, 10, 64)
	if err != nil {
		return Token{}, diag.New(diag.LexicalError, src, "invalid integer literal "+lexeme)
	}
	return Token{Kind: KindNumber, Source: src, Text: lexeme, Number: symtab.Number{Kind: symtab.NumUint, Uint: v}}, nil
}

func classifyPunctuation(lexeme string, src source.Token) Token {
	kind := KindOther
	switch lexeme {
	case ":":
		kind = KindColon
	case ".":
		kind = KindDot
	case "$":
		kind = KindDollar
	case "@":
		kind = KindAt
	case "+":
		kind = KindPlus
	case "-":
		kind = KindMinus
	case "*":
		kind = KindStar
	case "/":
		kind = KindDiv
	case "%":
		kind = KindMod
	case "%=":
		kind = KindValueMacroDef
	case "!":
		kind = KindBang
	}
	return Token{Kind: kind, Source: src, Text: lexeme}
}

var escapeTable = map[byte]byte{
	'n': '\n', 'r': '\r', '0': 0, 't': '\t', '\\': '\\', '\'': '\'', '"': '"',
}

// unescape processes the supported backslash-escape set (\n \r \0 \t \\ \'
// \") and fails fatally, pointing at the exact column, on anything else.
func unescape(body string, src source.Token) (string, bool, error) {
	if !strings.ContainsRune(body, '\\') {
		return body, false, nil
	}
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", false, diag.New(diag.InvalidEscape, src, "unterminated escape sequence")
		}
		esc, ok := escapeTable[body[i]]
		if !ok {
			col := src.Column + i
			at := source.Token{Text: src.Text, Unit: src.Unit, Line: src.Line, Column: col}
			return "", false, diag.New(diag.InvalidEscape, at, "invalid escape sequence \\"+string(body[i]))
		}
		b.WriteByte(esc)
	}
	return b.String(), true, nil
}

func classifyCharLiteral(lexeme string, src source.Token) (Token, error) {
	body := lexeme[1 : len(lexeme)-1]
	unescaped, _, err := unescape(body, src)
	if err != nil {
		return Token{}, err
	}
	runes := []rune(unescaped)
	if len(runes) != 1 {
		return Token{}, diag.New(diag.LexicalError, src, "char literal must decode to exactly one codepoint, got "+strconv.Itoa(len(runes)))
	}
	return Token{Kind: KindCharLiteral, Source: src, Text: unescaped, Char: runes[0]}, nil
}

func classifyStringLiteral(lexeme string, src source.Token, table *symtab.Table) (Token, error) {
	body := lexeme[1 : len(lexeme)-1]
	unescaped, owned, err := unescape(body, src)
	if err != nil {
		return Token{}, err
	}
	id := table.DeclareStatic(unescaped, owned)
	return Token{Kind: KindStringLiteral, Source: src, Text: unescaped, StaticID: id}, nil
}
