package symtab

import (
	"testing"

	"github.com/skx/ttc/types"
)

func TestDeclareAndLookup(t *testing.T) {
	tab := New()
	tab.Declare("x", types.Int, false, 1)
	tab.Declare("y", types.NewPointer(types.Int), true, 2)

	if !tab.Has("x") || !tab.Has("y") {
		t.Fatalf("expected both symbols to be present")
	}
	if tab.Has("z") {
		t.Fatalf("z should not be declared")
	}
	if tab.Lookup("x").Type != types.Int {
		t.Errorf("x should have type Int")
	}
	if tab.Len() != 2 {
		t.Errorf("expected 2 symbols, got %d", tab.Len())
	}
}

func TestSymbolsPreservesDeclarationOrder(t *testing.T) {
	tab := New()
	tab.Declare("a", types.Int, false, 1)
	tab.Declare("b", types.Int, false, 2)
	tab.Declare("c", types.Int, false, 3)

	syms := tab.Symbols()
	names := []string{syms[0].Name, syms[1].Name, syms[2].Name}
	want := []string{"a", "b", "c"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Symbols()[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestLastReferenced(t *testing.T) {
	tab := New()
	tab.Declare("a", types.Int, false, 1)
	tab.Declare("b", types.Int, true, 2)
	tab.Touch("a", 5)
	tab.Touch("b", 3)

	last := tab.LastReferenced()
	if last.Name != "a" {
		t.Errorf("expected 'a' (last ref line 5), got %s", last.Name)
	}
}

func TestLastReferencedEmpty(t *testing.T) {
	tab := New()
	if tab.LastReferenced() != nil {
		t.Errorf("expected nil for an empty table")
	}
}

func TestScopeRetractsNameOnExit(t *testing.T) {
	tab := New()
	tab.Declare("x", types.Int, false, 1)

	tab.EnterScope()
	tab.Declare("y", types.Int, true, 2)
	if !tab.Has("y") {
		t.Fatalf("expected y to be visible inside its own scope")
	}
	tab.ExitScope()

	if tab.Has("y") {
		t.Errorf("expected y to be retracted once its scope exited")
	}
	if !tab.Has("x") {
		t.Errorf("expected x, declared outside any scope, to remain visible")
	}
}

func TestSiblingScopesMayReuseAName(t *testing.T) {
	tab := New()

	tab.EnterScope()
	first := tab.Declare("y", types.Int, true, 1)
	tab.ExitScope()

	tab.EnterScope()
	second := tab.Declare("y", types.Int, true, 2)
	tab.ExitScope()

	if first == second {
		t.Fatalf("expected two distinct symbols for the two sibling declarations")
	}
	if tab.Len() != 2 {
		t.Errorf("expected both sibling declarations to remain in the table, got %d", tab.Len())
	}
}

func TestNestedScopeStillForbidsShadowingOuterName(t *testing.T) {
	tab := New()
	tab.Declare("x", types.Int, false, 1)

	tab.EnterScope()
	defer tab.ExitScope()
	if !tab.Has("x") {
		t.Errorf("expected an outer-scope name to remain visible in a nested scope")
	}
}
