package ast

import (
	"testing"

	"github.com/skx/ttc/token"
	"github.com/skx/ttc/types"
)

func intLit(lexeme string) *Expression {
	lit := Literal{Kind: IntLiteral, Token: token.Token{Kind: token.Literal, Type: token.Int, Literal: lexeme}}
	return NewLiteral(lit, types.Int)
}

func TestPrintBinary(t *testing.T) {
	op := token.Token{Kind: token.Operator, Literal: "+"}
	expr := NewBinary(intLit("3"), op, intLit("4"), types.Int)

	got := Print(expr)
	want := "( 3 + 4 )"
	if got != want {
		t.Errorf("Print() = %q, want %q", got, want)
	}
}

func TestPrintGroupAndUnary(t *testing.T) {
	inner := NewBinary(intLit("1"), token.Token{Literal: "+"}, intLit("2"), types.Int)
	group := NewGroup(inner)
	neg := NewUnary(token.Token{Literal: "-"}, group, types.Int)

	got := Print(neg)
	want := "-[ group ( 1 + 2 ) ]"
	if got != want {
		t.Errorf("Print() = %q, want %q", got, want)
	}
}

func TestIsComparison(t *testing.T) {
	for _, op := range []string{"==", "!=", "<", ">", "<=", ">="} {
		if !IsComparison(token.Token{Literal: op}) {
			t.Errorf("%q should be a comparison operator", op)
		}
	}
	for _, op := range []string{"+", "-", "*", "/", "%"} {
		if IsComparison(token.Token{Literal: op}) {
			t.Errorf("%q should not be a comparison operator", op)
		}
	}
}
