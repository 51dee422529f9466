// Package compiler ties the lexer, parser and backend together into
// the single public entry point the rest of the program (and its
// tests) use: hand it source text, get back NASM assembly or a
// compile-time error.
package compiler

import (
	"github.com/skx/ttc/ast"
	"github.com/skx/ttc/backend"
	"github.com/skx/ttc/lexer"
	"github.com/skx/ttc/parser"
	"github.com/skx/ttc/symtab"
)

// Compiler holds our object-state.
type Compiler struct {
	// source holds the program text we're compiling.
	source string

	// debug, when set, retains the lexed token stream after a
	// successful parse, letting callers (the --dump-tokens CLI flag)
	// inspect it.
	debug bool

	tokens []tokenRecord
	stmts  []ast.Statement
	table  *symtab.Table
}

type tokenRecord struct {
	Kind, Type, Literal string
	Line, Column        int
}

// New creates a new compiler, given the program's source text.
func New(source string) *Compiler {
	return &Compiler{source: source}
}

// SetDebug changes the debug-flag for our output. When enabled,
// Compile additionally retains the raw token stream for inspection.
func (c *Compiler) SetDebug(val bool) {
	c.debug = val
}

// Tokens returns the token stream captured during the most recent
// Compile call, if SetDebug(true) was set beforehand.
func (c *Compiler) Tokens() []tokenRecord {
	return c.tokens
}

// Statements returns the parsed, type-checked statement tree produced
// by the most recent successful Compile call.
func (c *Compiler) Statements() []ast.Statement {
	return c.stmts
}

// Compile runs the full pipeline: lex, parse-and-typecheck, generate.
// Any stage's error (compileerr.LexError, ParseError, TypeError or
// GenError) aborts immediately; there is no error recovery.
func (c *Compiler) Compile() (string, error) {
	l := lexer.New(c.source)

	if c.debug {
		if err := c.captureTokens(); err != nil {
			return "", err
		}
		// Re-create the lexer: captureTokens drained it.
		l = lexer.New(c.source)
	}

	p, err := parser.New(l)
	if err != nil {
		return "", err
	}

	stmts, table, err := p.Parse()
	if err != nil {
		return "", err
	}
	c.stmts, c.table = stmts, table

	return backend.Generate(stmts, table)
}

// captureTokens drains a fresh lexer over the source purely for
// debugging output; it never returns a token-stream error the parser
// wouldn't also surface, but surfaces lex errors early for --dump-tokens.
func (c *Compiler) captureTokens() error {
	l := lexer.New(c.source)
	for {
		tok, err := l.NextToken()
		if err != nil {
			return err
		}
		c.tokens = append(c.tokens, tokenRecord{
			Kind:    string(tok.Kind),
			Type:    string(tok.Type),
			Literal: tok.Literal,
			Line:    tok.Line,
			Column:  tok.Column,
		})
		if string(tok.Kind) == "EOF" {
			break
		}
	}
	return nil
}
