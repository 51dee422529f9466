// Package parser implements the recursive-descent parser, type
// checker, and symbol-table builder for TTC. Parsing and type
// checking are interleaved: every expression-parsing function
// returns both the ast.Expression it built and (embedded on the node)
// its static type, and every statement-parsing function enforces the
// relevant typing rule before returning.
package parser

import (
	"fmt"
	"strconv"

	"github.com/skx/ttc/ast"
	"github.com/skx/ttc/compileerr"
	"github.com/skx/ttc/lexer"
	"github.com/skx/ttc/symtab"
	"github.com/skx/ttc/token"
	"github.com/skx/ttc/types"
)

// loopContext tracks whether we are currently inside a while body, so
// that `break` can be rejected outside of one.
type loopContext int

const (
	contextNone loopContext = iota
	contextWhile
)

// Parser holds our object-state: the lexer we're pulling tokens from,
// a one-token lookahead, the symbol table we build as we go, and the
// current loop-context used to gate `break`.
type Parser struct {
	lex *lexer.Lexer

	cur  token.Token
	peek token.Token

	table   *symtab.Table
	context loopContext
}

// New creates a parser over the given lexer, priming the two-token
// lookahead buffer.
func New(l *lexer.Lexer) (*Parser, error) {
	p := &Parser{lex: l, table: symtab.New()}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

// advance shifts the lookahead window forward by one token.
func (p *Parser) advance() error {
	p.cur = p.peek
	tok, err := p.lex.NextToken()
	if err != nil {
		return err
	}
	p.peek = tok
	return nil
}

// Parse consumes the entire token stream, returning the program as an
// ordered statement sequence plus the fully-populated (but not yet
// offset-assigned — that's the backend's job) symbol table.
func (p *Parser) Parse() ([]ast.Statement, *symtab.Table, error) {
	var stmts []ast.Statement

	for p.cur.Kind != token.EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, nil, err
		}
		stmts = append(stmts, *stmt)
	}

	if p.table.Len() == 0 {
		return nil, nil, &compileerr.ParseError{
			Message: "program declares no variables; nothing to exit with",
			Line:    p.cur.Line,
			Column:  p.cur.Column,
		}
	}

	return stmts, p.table, nil
}

// parseStatement dispatches on the current token to one of the
// statement productions in the grammar (§4.2).
func (p *Parser) parseStatement() (*ast.Statement, error) {
	switch {
	case p.isKeyword("const"), p.isKeyword("mut"):
		return p.parseDecl()
	case p.isKeyword("if"):
		return p.parseIf()
	case p.isKeyword("while"):
		return p.parseWhile()
	case p.isKeyword("break"):
		return p.parseBreak()
	case p.isTerminal("{"):
		return p.parseBlock()
	case p.cur.Kind == token.Identifier:
		return p.parseReassign()
	default:
		return nil, p.unexpected("expected a statement")
	}
}

// parseDecl handles `("const"|"mut") type name "=" expression ";"`.
func (p *Parser) parseDecl() (*ast.Statement, error) {
	mutable := p.cur.Literal == "mut"
	line := p.cur.Line
	if err := p.advance(); err != nil {
		return nil, err
	}

	declType, isPointerForm, err := p.parseType()
	if err != nil {
		return nil, err
	}

	if p.cur.Kind != token.Identifier {
		return nil, p.unexpected("expected a name in declaration")
	}
	name := p.cur.Literal
	if p.table.Has(name) {
		return nil, &compileerr.ParseError{
			Message: fmt.Sprintf("redeclaration of %q", name),
			Token:   name,
			Line:    p.cur.Line,
			Column:  p.cur.Column,
		}
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	if !p.isAssignment() {
		return nil, p.unexpected("expected '=' in declaration")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if !p.isTerminal(";") {
		return nil, p.unexpected("expected ';' to terminate declaration")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	kind := ast.Value
	if isPointerForm {
		kind = ast.Pointer
		if !expr.Type.IsPointer() {
			return nil, &compileerr.TypeError{
				Message: "pointer declaration's right-hand side must be address-producing (&name, a list literal, or another pointer-typed expression)",
				Line:    line,
			}
		}
	}

	if !expr.Type.Equal(declType) {
		return nil, &compileerr.TypeError{
			Message: fmt.Sprintf("declared type %s does not match expression type %s", declType, expr.Type),
			Line:    line,
		}
	}

	sym := p.table.Declare(name, declType, mutable, line)
	p.table.Touch(name, line)

	return ast.NewAssignment(kind, name, declType, expr, sym), nil
}

// parseReassign handles `identifier "=" expression ";"`.
func (p *Parser) parseReassign() (*ast.Statement, error) {
	nameTok := p.cur
	name := nameTok.Literal

	sym := p.table.Lookup(name)
	if sym == nil {
		return nil, &compileerr.ParseError{
			Message: fmt.Sprintf("unknown identifier %q", name),
			Token:   name,
			Line:    nameTok.Line,
			Column:  nameTok.Column,
		}
	}
	if !sym.Mutable {
		return nil, &compileerr.ParseError{
			Message: fmt.Sprintf("cannot assign to immutable symbol %q", name),
			Token:   name,
			Line:    nameTok.Line,
			Column:  nameTok.Column,
		}
	}

	if err := p.advance(); err != nil {
		return nil, err
	}
	if !p.isAssignment() {
		return nil, p.unexpected("expected '='")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if !p.isTerminal(";") {
		return nil, p.unexpected("expected ';' to terminate assignment")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	if !expr.Type.Equal(sym.Type) {
		return nil, &compileerr.TypeError{
			Message: fmt.Sprintf("mutation of %q: expected %s, got %s", name, sym.Type, expr.Type),
			Line:    nameTok.Line,
		}
	}

	p.table.Touch(name, nameTok.Line)

	return ast.NewAssignment(ast.Mutation, name, sym.Type, expr, sym), nil
}

// parseIf handles `"if" expression statement ("else" statement)?`.
func (p *Parser) parseIf() (*ast.Statement, error) {
	line := p.cur.Line
	if err := p.advance(); err != nil {
		return nil, err
	}

	guard, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if !guard.Type.Equal(types.Bool) {
		return nil, &compileerr.TypeError{Message: fmt.Sprintf("if guard must be bool, got %s", guard.Type), Line: line}
	}

	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	if p.isKeyword("else") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		els, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return ast.NewIfElse(guard, then, els), nil
	}

	return ast.NewIf(guard, then), nil
}

// parseWhile handles `"while" expression statement`.
func (p *Parser) parseWhile() (*ast.Statement, error) {
	line := p.cur.Line
	if err := p.advance(); err != nil {
		return nil, err
	}

	guard, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if !guard.Type.Equal(types.Bool) {
		return nil, &compileerr.TypeError{Message: fmt.Sprintf("while guard must be bool, got %s", guard.Type), Line: line}
	}

	prev := p.context
	p.context = contextWhile
	body, err := p.parseStatement()
	p.context = prev
	if err != nil {
		return nil, err
	}

	return ast.NewWhile(guard, body), nil
}

// parseBreak handles `"break" ";"`, valid only inside a while body.
func (p *Parser) parseBreak() (*ast.Statement, error) {
	tok := p.cur
	if p.context != contextWhile {
		return nil, &compileerr.ParseError{
			Message: "break outside of a while loop",
			Token:   tok.Literal,
			Line:    tok.Line,
			Column:  tok.Column,
		}
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if !p.isTerminal(";") {
		return nil, p.unexpected("expected ';' after break")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return ast.NewBreak(), nil
}

// parseBlock handles `"{" statement+ "}"`. A block is its own name
// scope: a declaration made inside `{ }` stops being visible once the
// closing brace is reached, so sibling blocks (the two arms of one
// if/else, most notably) may each declare the same name without
// tripping the redeclaration check in parseDecl.
func (p *Parser) parseBlock() (*ast.Statement, error) {
	openTok := p.cur
	if err := p.advance(); err != nil {
		return nil, err
	}

	p.table.EnterScope()

	var stmts []ast.Statement
	for !p.isTerminal("}") {
		if p.cur.Kind == token.EOF {
			p.table.ExitScope()
			return nil, &compileerr.ParseError{
				Message: "unterminated block, expected '}'",
				Line:    openTok.Line,
				Column:  openTok.Column,
			}
		}
		stmt, err := p.parseStatement()
		if err != nil {
			p.table.ExitScope()
			return nil, err
		}
		stmts = append(stmts, *stmt)
	}

	p.table.ExitScope()

	if len(stmts) == 0 {
		return nil, &compileerr.ParseError{
			Message: "block must not be empty",
			Line:    openTok.Line,
			Column:  openTok.Column,
		}
	}

	if err := p.advance(); err != nil { // consume '}'
		return nil, err
	}

	return ast.NewBlock(stmts), nil
}

// parseType handles `("int"|"bool") ( "*" | "[" int_literal "]" )?`,
// reporting whether the annotation is one of the two pointer forms.
func (p *Parser) parseType() (types.Type, bool, error) {
	if p.cur.Kind != token.Keyword || (p.cur.Literal != "int" && p.cur.Literal != "bool") {
		return types.None, false, p.unexpected("expected a type (int or bool)")
	}

	base := types.Int
	if p.cur.Literal == "bool" {
		base = types.Bool
	}
	if err := p.advance(); err != nil {
		return types.None, false, err
	}

	switch {
	case p.cur.Kind == token.Operator && p.cur.Literal == "*":
		if err := p.advance(); err != nil {
			return types.None, false, err
		}
		return types.NewPointer(base), true, nil

	case p.isTerminal("["):
		if err := p.advance(); err != nil {
			return types.None, false, err
		}
		if p.cur.Kind != token.Literal || p.cur.Type != token.Int {
			return types.None, false, p.unexpected("expected an integer array length")
		}
		n, convErr := strconv.ParseUint(p.cur.Literal, 10, 64)
		if convErr != nil {
			return types.None, false, &compileerr.ParseError{
				Message: "array length does not fit in 64 bits",
				Token:   p.cur.Literal,
				Line:    p.cur.Line,
				Column:  p.cur.Column,
			}
		}
		if n == 0 {
			return types.None, false, &compileerr.ParseError{
				Message: "array length must be non-zero",
				Line:    p.cur.Line,
				Column:  p.cur.Column,
			}
		}
		if err := p.advance(); err != nil {
			return types.None, false, err
		}
		if !p.isTerminal("]") {
			return types.None, false, p.unexpected("expected ']'")
		}
		if err := p.advance(); err != nil {
			return types.None, false, err
		}
		return types.NewPointer(types.NewArray(base, n)), true, nil

	default:
		return base, false, nil
	}
}

// --- expression parsing (precedence climbing, §4.2) ---

func (p *Parser) parseExpression() (*ast.Expression, error) {
	return p.parseEquality()
}

func (p *Parser) parseEquality() (*ast.Expression, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.Operator && (p.cur.Literal == "==" || p.cur.Literal == "!=") {
		op := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		bothInt := left.Type.Equal(types.Int) && right.Type.Equal(types.Int)
		bothBool := left.Type.Equal(types.Bool) && right.Type.Equal(types.Bool)
		if !bothInt && !bothBool {
			return nil, &compileerr.TypeError{
				Message: fmt.Sprintf("%s requires two ints or two bools, got %s and %s", op.Literal, left.Type, right.Type),
				Line:    op.Line,
			}
		}
		left = ast.NewBinary(left, op, right, types.Bool)
	}
	return left, nil
}

func (p *Parser) parseComparison() (*ast.Expression, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.Operator && isRelational(p.cur.Literal) {
		op := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if !left.Type.Equal(types.Int) || !right.Type.Equal(types.Int) {
			return nil, &compileerr.TypeError{
				Message: fmt.Sprintf("%s requires two ints, got %s and %s", op.Literal, left.Type, right.Type),
				Line:    op.Line,
			}
		}
		left = ast.NewBinary(left, op, right, types.Bool)
	}
	return left, nil
}

func (p *Parser) parseTerm() (*ast.Expression, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.Operator && (p.cur.Literal == "+" || p.cur.Literal == "-") {
		op := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		if !left.Type.Equal(types.Int) || !right.Type.Equal(types.Int) {
			return nil, &compileerr.TypeError{
				Message: fmt.Sprintf("%s requires two ints, got %s and %s", op.Literal, left.Type, right.Type),
				Line:    op.Line,
			}
		}
		left = ast.NewBinary(left, op, right, types.Int)
	}
	return left, nil
}

func (p *Parser) parseFactor() (*ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == token.Operator && (p.cur.Literal == "*" || p.cur.Literal == "/" || p.cur.Literal == "%") {
		op := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if !left.Type.Equal(types.Int) || !right.Type.Equal(types.Int) {
			return nil, &compileerr.TypeError{
				Message: fmt.Sprintf("%s requires two ints, got %s and %s", op.Literal, left.Type, right.Type),
				Line:    op.Line,
			}
		}
		left = ast.NewBinary(left, op, right, types.Int)
	}
	return left, nil
}

func (p *Parser) parseUnary() (*ast.Expression, error) {
	switch {
	case p.cur.Kind == token.Operator && p.cur.Literal == "-":
		op := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if !operand.Type.Equal(types.Int) {
			return nil, &compileerr.TypeError{Message: fmt.Sprintf("unary - requires an int operand, got %s", operand.Type), Line: op.Line}
		}
		return ast.NewUnary(op, operand, types.Int), nil

	case p.cur.Kind == token.Operator && p.cur.Literal == "&":
		op := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if operand.Kind != ast.LiteralExpr || operand.Lit.Kind != ast.SymbolLiteral {
			return nil, &compileerr.TypeError{Message: "cannot take the address of a temporary", Line: op.Line}
		}
		return ast.NewUnary(op, operand, types.NewPointer(operand.Type)), nil

	case p.cur.Kind == token.Operator && p.cur.Literal == "*":
		op := p.cur
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if !operand.Type.IsPointer() {
			return nil, &compileerr.TypeError{Message: fmt.Sprintf("cannot dereference non-pointer type %s", operand.Type), Line: op.Line}
		}
		return ast.NewUnary(op, operand, derefType(operand.Type)), nil

	default:
		return p.parsePrimary()
	}
}

// derefType computes the type yielded by dereferencing a value of
// pointer type t. Pointer(Array(T,n)) decays to the element type T:
// an array only ever exists behind a pointer to its first byte, so
// dereferencing one reads a single element (see DESIGN.md's
// resolution of end-to-end scenario #8).
func derefType(t types.Type) types.Type {
	elem := *t.Elem
	if elem.Kind == types.ArrayKind {
		return *elem.Elem
	}
	return elem
}

func (p *Parser) parsePrimary() (*ast.Expression, error) {
	tok := p.cur

	switch {
	case tok.Kind == token.Literal && tok.Type == token.Int:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewLiteral(ast.Literal{Kind: ast.IntLiteral, Token: tok}, types.Int), nil

	case tok.Kind == token.Literal && tok.Type == token.Bool:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewLiteral(ast.Literal{Kind: ast.BoolLiteral, Token: tok}, types.Bool), nil

	case tok.Kind == token.Identifier:
		sym := p.table.Lookup(tok.Literal)
		if sym == nil {
			return nil, &compileerr.ParseError{
				Message: fmt.Sprintf("unknown identifier %q", tok.Literal),
				Token:   tok.Literal,
				Line:    tok.Line,
				Column:  tok.Column,
			}
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		p.table.Touch(tok.Literal, tok.Line)
		return ast.NewLiteral(ast.Literal{Kind: ast.SymbolLiteral, Token: tok, Sym: sym}, sym.Type), nil

	case p.isTerminal("("):
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if !p.isTerminal(")") {
			return nil, p.unexpected("expected ')'")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewGroup(inner), nil

	case p.isTerminal("["):
		return p.parseListLiteral()

	default:
		return nil, p.unexpected("unexpected token in expression")
	}
}

// parseListLiteral handles `"[" list "]"`, list := primary (","
// primary)*. Every element must itself reduce to a Literal (the
// language's Literal ADT has no case for an embedded non-literal
// expression); elements must share a common type.
func (p *Parser) parseListLiteral() (*ast.Expression, error) {
	openTok := p.cur
	if err := p.advance(); err != nil { // consume '['
		return nil, err
	}

	var elems []*ast.Expression
	for {
		elem, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		if p.isTerminal(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}

	if !p.isTerminal("]") {
		return nil, p.unexpected("expected ']'")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	if len(elems) == 0 {
		return nil, &compileerr.ParseError{
			Message: "list literal must not be empty",
			Line:    openTok.Line,
			Column:  openTok.Column,
		}
	}

	elemType := elems[0].Type
	lits := make([]ast.Literal, len(elems))
	for i, e := range elems {
		if e.Kind != ast.LiteralExpr {
			return nil, &compileerr.ParseError{
				Message: "list literal elements must be literals",
				Line:    openTok.Line,
				Column:  openTok.Column,
			}
		}
		if !e.Type.Equal(elemType) {
			return nil, &compileerr.TypeError{
				Message: fmt.Sprintf("list literal elements must share a common type: %s vs %s", elemType, e.Type),
				Line:    openTok.Line,
			}
		}
		lits[i] = *e.Lit
	}

	listLit := ast.Literal{Kind: ast.ListLiteral, List: lits}
	listType := types.NewPointer(types.NewArray(elemType, uint64(len(elems))))
	return ast.NewLiteral(listLit, listType), nil
}

// --- small token-matching helpers ---

func (p *Parser) isKeyword(lit string) bool {
	return p.cur.Kind == token.Keyword && p.cur.Literal == lit
}

func (p *Parser) isTerminal(lit string) bool {
	return p.cur.Kind == token.Terminal && p.cur.Literal == lit
}

func (p *Parser) isAssignment() bool {
	return p.cur.Kind == token.Assignment
}

func (p *Parser) unexpected(msg string) error {
	return &compileerr.ParseError{
		Message: msg,
		Token:   p.cur.Literal,
		Line:    p.cur.Line,
		Column:  p.cur.Column,
	}
}

func isRelational(lit string) bool {
	switch lit {
	case "<", ">", "<=", ">=":
		return true
	default:
		return false
	}
}
