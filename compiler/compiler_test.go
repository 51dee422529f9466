package compiler

import (
	"strings"
	"testing"
)

// TestBogusInput mirrors the end-to-end error-path scenarios: each of
// these must fail somewhere in the pipeline, never produce assembly.
func TestBogusInput(t *testing.T) {
	tests := []string{
		// empty program
		"",

		// unknown identifier
		"const int x = y;",

		// unrecognized byte
		"const int x = 1 @ 2;",

		// type mismatch
		"const int x = 1 + true;",

		// break outside of a loop
		"break;",

		// missing terminator
		"const int x = 1",
	}

	for _, test := range tests {
		c := New(test)
		_, err := c.Compile()
		if err == nil {
			t.Errorf("expected an error compiling %q, but got none", test)
		}
	}
}

// TestValidPrograms exercises the eight literal end-to-end scenarios,
// checking only that compilation succeeds and the emitted assembly
// looks like a real program — that each actually exits with the
// documented code is checked by TestEndToEndExitCodes in the cmd
// package, the only place the assembler and linker are available.
func TestValidPrograms(t *testing.T) {
	tests := []string{
		`const int x = 3 + 4 * 2;`,
		`const int x = (1 + 2) * (3 + 4);`,
		`const int x = 10; const int y = x - 3;`,
		`mut int y = 0; y = y + 5; y = y * 2;`,
		`const int x = 3; if x > 1 { mut int y = 42; } else { mut int y = 0; }`,
		`mut int n = 3; while n > 0 { n = n - 1; }`,
		`const int a = 5; const int* p = &a; const int b = *p;`,
		`const int[3] xs = [7,8,9]; const int y = *xs;`,
	}

	for _, test := range tests {
		c := New(test)
		out, err := c.Compile()
		if err != nil {
			t.Errorf("unexpected error compiling %q: %s", test, err)
			continue
		}
		if !strings.Contains(out, "_start") {
			t.Errorf("generated output for %q looked bogus:\n%s", test, out)
		}
	}
}

func TestDebugCapturesTokens(t *testing.T) {
	c := New(`const int x = 1;`)
	c.SetDebug(true)
	if _, err := c.Compile(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(c.Tokens()) == 0 {
		t.Errorf("expected SetDebug(true) to retain the token stream")
	}
}
