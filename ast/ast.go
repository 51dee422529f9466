// Package ast holds the TTC abstract syntax: literals, expressions,
// and statements, plus the static type that the parser's type checker
// attaches to every expression node.
package ast

import (
	"github.com/skx/ttc/symtab"
	"github.com/skx/ttc/token"
	"github.com/skx/ttc/types"
)

// LiteralKind distinguishes the cases of Literal.
type LiteralKind int

// pre-defined LiteralKind values.
const (
	IntLiteral LiteralKind = iota
	BoolLiteral
	SymbolLiteral
	ListLiteral
)

// Literal is one of Int(tok) | Bool(tok) | Symbol(tok) | List([]Literal).
type Literal struct {
	Kind  LiteralKind
	Token token.Token // for IntLiteral, BoolLiteral, SymbolLiteral
	List  []Literal   // for ListLiteral; non-empty, homogeneously typed

	// Sym is the symbol Token.Literal resolved to at parse time, set
	// only for SymbolLiteral. A name is looked up once, while it is
	// still in scope; the backend reads this field directly rather
	// than re-resolving the name against the (by then block-exited)
	// symbol table.
	Sym *symtab.Symbol
}

// Op is the operator token carried by Binary/Unary expression nodes;
// kept as the raw token so the backend can recover
// lexeme, position, and kind without a second table.
type Op = token.Token

// ExprKind distinguishes the cases of Expression.
type ExprKind int

// pre-defined ExprKind values.
const (
	BinaryExpr ExprKind = iota
	UnaryExpr
	LiteralExpr
	GroupExpr
)

// Expression is the TTC expression sum type. Every expression node
// carries the static Type assigned to it by the parser's type
// checker.
type Expression struct {
	Kind Kind
	Type types.Type

	// Binary / Group
	Left  *Expression
	Right *Expression

	// Binary / Unary
	Op Op

	// Literal
	Lit *Literal
}

// Kind is an alias retained for readability at call sites
// (ast.BinaryExpr reads naturally as an ast.Kind value).
type Kind = ExprKind

// NewBinary builds a Binary(left, op, right) expression of the given
// result type.
func NewBinary(left *Expression, op Op, right *Expression, t types.Type) *Expression {
	return &Expression{Kind: BinaryExpr, Left: left, Op: op, Right: right, Type: t}
}

// NewUnary builds a Unary(op, operand) expression of the given result
// type.
func NewUnary(op Op, operand *Expression, t types.Type) *Expression {
	return &Expression{Kind: UnaryExpr, Op: op, Right: operand, Type: t}
}

// NewLiteral builds a Literal(lit) expression of the given type.
func NewLiteral(lit Literal, t types.Type) *Expression {
	return &Expression{Kind: LiteralExpr, Lit: &lit, Type: t}
}

// NewGroup builds a Group(left_paren, inner, right_paren) expression;
// its type is the inner expression's type.
func NewGroup(inner *Expression) *Expression {
	return &Expression{Kind: GroupExpr, Left: inner, Type: inner.Type}
}

// IsComparison reports whether op spells one of the six comparison
// operators (used by the backend to route a Binary expression to its
// comparison emitter).
func IsComparison(op token.Token) bool {
	switch op.Literal {
	case "==", "!=", "<", ">", "<=", ">=":
		return true
	default:
		return false
	}
}

// AssignKind distinguishes the three statement-level assignment
// forms: a fresh value-typed declaration, a fresh pointer-typed
// declaration, and a mutation of an existing mutable symbol.
type AssignKind int

// pre-defined AssignKind values.
const (
	Value AssignKind = iota
	Pointer
	Mutation
)

// StmtKind distinguishes the cases of Statement.
type StmtKind int

// pre-defined StmtKind values.
const (
	AssignmentStmt StmtKind = iota
	IfStmt
	IfElseStmt
	WhileStmt
	BlockStmt
	BreakStmt
)

// Statement is the TTC statement sum type.
type Statement struct {
	Kind StmtKind

	// AssignmentStmt
	AssignKind AssignKind
	Name       string
	DeclType   types.Type
	Expr       *Expression

	// Sym is the symbol Name resolved to at parse time: the symbol
	// Declare returned for Value/Pointer, or the one Lookup found for
	// Mutation. The backend stores/loads through this directly instead
	// of re-resolving Name, since by codegen time a block-scoped name
	// may no longer be visible by lookup even though its symbol (and
	// stack slot) still exist.
	Sym *symtab.Symbol

	// IfStmt / IfElseStmt / WhileStmt
	Guard *Expression
	Then  *Statement
	Else  *Statement

	// BlockStmt
	Block []Statement
}

// NewAssignment builds an Assignment statement.
func NewAssignment(kind AssignKind, name string, declType types.Type, expr *Expression, sym *symtab.Symbol) *Statement {
	return &Statement{Kind: AssignmentStmt, AssignKind: kind, Name: name, DeclType: declType, Expr: expr, Sym: sym}
}

// NewIf builds an If(guard, then) statement.
func NewIf(guard *Expression, then *Statement) *Statement {
	return &Statement{Kind: IfStmt, Guard: guard, Then: then}
}

// NewIfElse builds an IfElse(guard, then, else) statement.
func NewIfElse(guard *Expression, then, els *Statement) *Statement {
	return &Statement{Kind: IfElseStmt, Guard: guard, Then: then, Else: els}
}

// NewWhile builds a While(guard, body) statement.
func NewWhile(guard *Expression, body *Statement) *Statement {
	return &Statement{Kind: WhileStmt, Guard: guard, Then: body}
}

// NewBlock builds a Block statement from a non-empty ordered sequence
// of statements.
func NewBlock(stmts []Statement) *Statement {
	return &Statement{Kind: BlockStmt, Block: stmts}
}

// NewBreak builds a Break statement.
func NewBreak() *Statement {
	return &Statement{Kind: BreakStmt}
}
