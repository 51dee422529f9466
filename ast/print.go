package ast

import (
	"fmt"
	"strings"
)

// Print renders an expression as a fully-parenthesized diagnostic
// string: binary expressions wrapped in "( … )", unary operators
// prefixed directly onto their operand, and groups wrapped in
// "[ group … ]". This is a diagnostic aid only (wired as `ttc build
// --dump-ast`); it has no bearing on code generation.
func Print(e *Expression) string {
	var b strings.Builder
	print(&b, e)
	return b.String()
}

func print(b *strings.Builder, e *Expression) {
	switch e.Kind {
	case BinaryExpr:
		b.WriteString("( ")
		print(b, e.Left)
		fmt.Fprintf(b, " %s ", e.Op.Literal)
		print(b, e.Right)
		b.WriteString(" )")
	case UnaryExpr:
		b.WriteString(e.Op.Literal)
		print(b, e.Right)
	case LiteralExpr:
		b.WriteString(printLiteral(e.Lit))
	case GroupExpr:
		b.WriteString("[ group ")
		print(b, e.Left)
		b.WriteString(" ]")
	}
}

func printLiteral(lit *Literal) string {
	switch lit.Kind {
	case ListLiteral:
		parts := make([]string, len(lit.List))
		for i, inner := range lit.List {
			parts[i] = printLiteral(&inner)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return lit.Token.Literal
	}
}

// PrintStatement renders a single statement, one line per simple
// statement, using Print for any embedded expressions. The bodies of
// if/else and while are indented one level.
func PrintStatement(s *Statement) string {
	var b strings.Builder
	printStmt(&b, s, 0)
	return b.String()
}

func printStmt(b *strings.Builder, s *Statement, depth int) {
	indent := strings.Repeat("  ", depth)
	switch s.Kind {
	case AssignmentStmt:
		verb := "mut"
		switch s.AssignKind {
		case Value:
			verb = "const/mut " + s.DeclType.String()
		case Pointer:
			verb = "const/mut " + s.DeclType.String()
		case Mutation:
			verb = "="
		}
		fmt.Fprintf(b, "%s%s %s = %s;\n", indent, verb, s.Name, Print(s.Expr))
	case IfStmt:
		fmt.Fprintf(b, "%sif %s {\n", indent, Print(s.Guard))
		printStmt(b, s.Then, depth+1)
		fmt.Fprintf(b, "%s}\n", indent)
	case IfElseStmt:
		fmt.Fprintf(b, "%sif %s {\n", indent, Print(s.Guard))
		printStmt(b, s.Then, depth+1)
		fmt.Fprintf(b, "%s} else {\n", indent)
		printStmt(b, s.Else, depth+1)
		fmt.Fprintf(b, "%s}\n", indent)
	case WhileStmt:
		fmt.Fprintf(b, "%swhile %s {\n", indent, Print(s.Guard))
		printStmt(b, s.Then, depth+1)
		fmt.Fprintf(b, "%s}\n", indent)
	case BlockStmt:
		for _, inner := range s.Block {
			printStmt(b, &inner, depth)
		}
	case BreakStmt:
		fmt.Fprintf(b, "%sbreak;\n", indent)
	}
}
