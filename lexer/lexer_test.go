package lexer

import (
	"testing"

	"github.com/skx/ttc/token"
)

func TestLexTerminalsAndOperators(t *testing.T) {
	input := `; ( ) { } + - * / % < > & = == != <= >=`

	tests := []struct {
		kind    token.Kind
		literal string
	}{
		{token.Terminal, ";"},
		{token.Terminal, "("},
		{token.Terminal, ")"},
		{token.Terminal, "{"},
		{token.Terminal, "}"},
		{token.Operator, "+"},
		{token.Operator, "-"},
		{token.Operator, "*"},
		{token.Operator, "/"},
		{token.Operator, "%"},
		{token.Operator, "<"},
		{token.Operator, ">"},
		{token.Operator, "&"},
		{token.Assignment, "="},
		{token.Operator, "=="},
		{token.Operator, "!="},
		{token.Operator, "<="},
		{token.Operator, ">="},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("tests[%d]: unexpected error: %s", i, err)
		}
		if tok.Kind != tt.kind {
			t.Errorf("tests[%d]: kind wrong, expected=%q, got=%q", i, tt.kind, tok.Kind)
		}
		if tok.Literal != tt.literal {
			t.Errorf("tests[%d]: literal wrong, expected=%q, got=%q", i, tt.literal, tok.Literal)
		}
	}
}

func TestLexKeywordsLiteralsIdentifiers(t *testing.T) {
	input := `const mut if else while break int bool true false x counter_1`

	tests := []struct {
		kind    token.Kind
		typ     token.IntrinsicType
		literal string
	}{
		{token.Keyword, token.None, "const"},
		{token.Keyword, token.None, "mut"},
		{token.Keyword, token.None, "if"},
		{token.Keyword, token.None, "else"},
		{token.Keyword, token.None, "while"},
		{token.Keyword, token.None, "break"},
		{token.Keyword, token.None, "int"},
		{token.Keyword, token.None, "bool"},
		{token.Literal, token.Bool, "true"},
		{token.Literal, token.Bool, "false"},
		{token.Identifier, token.None, "x"},
		{token.Identifier, token.None, "counter_1"},
	}

	l := New(input)
	for i, tt := range tests {
		tok, err := l.NextToken()
		if err != nil {
			t.Fatalf("tests[%d]: unexpected error: %s", i, err)
		}
		if tok.Kind != tt.kind || tok.Type != tt.typ || tok.Literal != tt.literal {
			t.Errorf("tests[%d]: got {%s %s %q}, want {%s %s %q}", i, tok.Kind, tok.Type, tok.Literal, tt.kind, tt.typ, tt.literal)
		}
	}
}

func TestLexIntegerLiteral(t *testing.T) {
	l := New("42")
	tok, err := l.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if tok.Kind != token.Literal || tok.Type != token.Int || tok.Literal != "42" {
		t.Fatalf("unexpected token: %+v", tok)
	}
}

func TestLexPositionsAndNewlines(t *testing.T) {
	input := "x\n  y"
	l := New(input)

	tok, _ := l.NextToken()
	if tok.Line != 1 || tok.Column != 1 {
		t.Errorf("first token: expected 1:1, got %d:%d", tok.Line, tok.Column)
	}

	tok, _ = l.NextToken()
	if tok.Line != 2 || tok.Column != 3 {
		t.Errorf("second token: expected 2:3, got %d:%d", tok.Line, tok.Column)
	}
}

func TestLexBareBangIsError(t *testing.T) {
	l := New("!")
	_, err := l.NextToken()
	if err == nil {
		t.Fatalf("expected a LexError for a bare '!'")
	}
}

func TestLexUnrecognizedByteIsError(t *testing.T) {
	l := New("@")
	_, err := l.NextToken()
	if err == nil {
		t.Fatalf("expected a LexError for '@'")
	}
}

func TestLexIntegerLiteralOverflowIsError(t *testing.T) {
	l := New("99999999999999999999999999")
	_, err := l.NextToken()
	if err == nil {
		t.Fatalf("expected a LexError for an integer literal that overflows 64 bits")
	}
}

func TestLexIntegerLiteralAtUint64MaxIsAccepted(t *testing.T) {
	l := New("18446744073709551615")
	tok, err := l.NextToken()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if tok.Kind != token.Literal || tok.Type != token.Int {
		t.Fatalf("unexpected token: %+v", tok)
	}
}
