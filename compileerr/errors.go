// Package compileerr holds the compiler's error taxonomy. Every stage
// returns one of these four kinds; the first one produced aborts
// compilation. There is no recovery and no multi-error reporting.
package compileerr

import "fmt"

// LexError is raised by the lexer: an unrecognized byte, a `!` not
// followed by `=`, or an all-digit integer literal that does not fit
// in 64 bits.
type LexError struct {
	Message string
	Line    int
	Column  int
}

func (e *LexError) Error() string {
	return fmt.Sprintf("LexError: %s (line %d, column %d)", e.Message, e.Line, e.Column)
}

// ParseError is raised by the parser: unexpected token, missing
// terminator, redeclaration, unknown identifier, break outside a
// while loop, and similar syntactic failures.
type ParseError struct {
	Message string
	Token   string
	Line    int
	Column  int
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("ParseError: %s (got %q at line %d, column %d)", e.Message, e.Token, e.Line, e.Column)
	}
	return fmt.Sprintf("ParseError: %s (line %d, column %d)", e.Message, e.Line, e.Column)
}

// TypeError is raised by the type checker embedded in the parser:
// operand mismatches, non-bool guards, list heterogeneity,
// pointer-of-temporary, deref of non-pointer, and pointer-init RHS
// that isn't address-producing.
type TypeError struct {
	Message string
	Line    int
	Column  int
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("TypeError: %s (line %d, column %d)", e.Message, e.Line, e.Column)
}

// GenError is raised by the backend. These should be unreachable
// given a well-typed AST produced by the parser; they exist as an
// internal-invariant backstop (e.g. a break reached with no enclosing
// loop, or a symbol reference the parser never resolved).
type GenError struct {
	Message string
}

func (e *GenError) Error() string {
	return fmt.Sprintf("GenError: %s", e.Message)
}
