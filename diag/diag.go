// Package diag is the assembler's single diagnostics surface: one error
// type carrying a category and up to two source locations, and one
// printer that renders a ±3-line context window with a caret under the
// offending column. hiasm reports every assembly diagnostic through Exit,
// which is where it decides exit code 1 for a fatal error.
package diag

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/hivm-go/hivm/source"
)

// Category names one of the fatal error classes from spec.md §6.
type Category string

const (
	IOError               Category = "IO error"
	LexicalError          Category = "Tokenizer error"
	InvalidEscape         Category = "Invalid escape sequence"
	ParsingError          Category = "Parsing error"
	InvalidArgument       Category = "Invalid argument"
	SymbolRedeclaration   Category = "Symbol redeclaration"
	UndefinedSymbol       Category = "Undefined symbol"
	OutsideSection        Category = "Item outside an assembly section"
)

// Error is the uniform fatal diagnostic. Every fatal condition raised by
// lexer, parser, module or codegen is (or is wrapped into) one of these
// before it reaches main.
type Error struct {
	Category  Category
	Msg       string
	Primary   source.Token
	Secondary *source.Token // set for redeclaration: the previous declaration site
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Primary.String(), e.Category, e.Msg)
}

// New builds a plain single-location Error.
func New(cat Category, at source.Token, msg string) *Error {
	return &Error{Category: cat, Msg: msg, Primary: at}
}

// Redeclared builds a redeclaration Error carrying both the new and the
// previous declaration sites.
func Redeclared(at source.Token, prev source.Token, msg string) *Error {
	p := prev
	return &Error{Category: SymbolRedeclaration, Msg: msg, Primary: at, Secondary: &p}
}

const contextLines = 3

// Fprint renders err to w. If err is a *diag.Error it gets the full
// category + source-window treatment; any other error (e.g. a bare I/O
// failure from os.ReadFile) is printed as a plain "IO error" line.
func Fprint(w io.Writer, err error, color bool) {
	de, ok := err.(*Error)
	if !ok {
		fmt.Fprintf(w, "%s: %v\n", IOError, err)
		return
	}
	fmt.Fprintf(w, "%s: %s: %s\n", de.Primary.String(), de.Category, de.Msg)
	printWindow(w, de.Primary, color)
	if de.Secondary != nil {
		fmt.Fprintf(w, "previously declared at %s:\n", de.Secondary.String())
		printWindow(w, *de.Secondary, color)
	}
}

func printWindow(w io.Writer, at source.Token, color bool) {
	u := at.Unit
	if u == nil {
		return
	}
	from := at.Line - contextLines
	to := at.Line + contextLines
	if from < 0 {
		from = 0
	}
	for i := from; i <= to && i < len(u.Lines); i++ {
		marker := " "
		line := u.Lines[i]
		if i == at.Line {
			marker = ">"
			if color {
				line = ansiRed + line + ansiReset
				marker = ansiRed + marker + ansiReset
			}
		}
		fmt.Fprintf(w, "%s %4d | %s\n", marker, i+1, line)
		if i == at.Line {
			pad := strings.Repeat(" ", at.Column-1)
			caret := "^"
			if color {
				caret = ansiRed + caret + ansiReset
			}
			fmt.Fprintf(w, "         %s%s\n", pad, caret)
		}
	}
}

const (
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

// Exit prints err to stderr with the requested color setting and
// terminates the process with code 1. If err is nil, it returns without
// doing anything.
func Exit(err error, color bool) {
	if err == nil {
		return
	}
	Fprint(os.Stderr, err, color)
	os.Exit(1)
}

// Logger is the verbose/progress logger used by hiasm: a thin
// wrapper around the standard log package that prefixes every line with
// the calling tool's name, the way the teacher's cmd/retro writes
// unadorned status lines straight to stderr.
type Logger struct {
	*log.Logger
	enabled bool
}

// NewLogger returns a Logger prefixed with name. When enabled is false,
// every method is a no-op; callers do not need to guard call sites with
// their own "if verbose" checks.
func NewLogger(name string, enabled bool) *Logger {
	return &Logger{Logger: log.New(os.Stderr, name+": ", 0), enabled: enabled}
}

// Printf logs a formatted line if the logger is enabled.
func (l *Logger) Printf(format string, args ...interface{}) {
	if l.enabled {
		l.Logger.Printf(format, args...)
	}
}
