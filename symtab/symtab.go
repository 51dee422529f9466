// Package symtab implements the TTC symbol table: names are declared
// into the block currently open, and shadowing within that chain of
// enclosing blocks is forbidden, but a name declared inside a `{ }`
// block stops being visible once that block ends — so sibling blocks
// (the two arms of one if/else) may each declare the same name. The
// table is populated by the parser and completed by the backend's
// offset pre-pass before first use.
package symtab

import "github.com/skx/ttc/types"

// Symbol records everything the compiler knows about one declared
// name.
type Symbol struct {
	Name    string
	Type    types.Type
	Mutable bool

	// Offset is nil until the backend's AssignOffsets pre-pass runs.
	// Afterwards the symbol's storage lives at [rbp - *Offset].
	Offset *uint64

	// ArrayOffset is set only for a pointer-to-array symbol (a list
	// literal declaration). It marks where the backing element data
	// lives; the pointer itself (at Offset) holds rbp - *ArrayOffset,
	// the address of element zero.
	ArrayOffset *uint64

	InitLine int
	LastRef  int
}

// scopeFrame tracks the names declared directly inside one open
// block, so ExitScope knows which byName entries to retract.
type scopeFrame struct {
	names []string
}

// Table is the compiler's symbol table. order holds every symbol ever
// declared, in declaration order, for the lifetime of the table — the
// backend's offset pre-pass and the program epilogue rule both need
// every symbol, including ones whose block has since closed. byName is
// the currently-visible lookup view: EnterScope/ExitScope push and pop
// which names are reachable by Has/Lookup, without ever removing
// anything from order.
type Table struct {
	order  []*Symbol
	byName map[string]*Symbol
	scopes []*scopeFrame
}

// New returns an empty symbol table.
func New() *Table {
	return &Table{byName: make(map[string]*Symbol)}
}

// EnterScope opens a new block scope. Names declared before the
// matching ExitScope are retracted from lookup once it returns.
func (t *Table) EnterScope() {
	t.scopes = append(t.scopes, &scopeFrame{})
}

// ExitScope closes the innermost open block scope, retracting every
// name declared inside it from Has/Lookup — a sibling block (the
// other arm of the same if/else, say) may then reuse those names. The
// symbols themselves stay in Symbols() and remain eligible to be
// LastReferenced(); only their visibility by name ends.
func (t *Table) ExitScope() {
	n := len(t.scopes)
	frame := t.scopes[n-1]
	t.scopes = t.scopes[:n-1]
	for _, name := range frame.names {
		delete(t.byName, name)
	}
}

// Declare inserts a new symbol. The caller must have already checked
// Has(name) is false; Declare does not re-check uniqueness (that is
// the parser's redeclaration-rejection responsibility, §4.2).
func (t *Table) Declare(name string, typ types.Type, mutable bool, line int) *Symbol {
	sym := &Symbol{Name: name, Type: typ, Mutable: mutable, InitLine: line, LastRef: line}
	t.byName[name] = sym
	t.order = append(t.order, sym)
	if n := len(t.scopes); n > 0 {
		t.scopes[n-1].names = append(t.scopes[n-1].names, name)
	}
	return sym
}

// Has reports whether name is currently visible.
func (t *Table) Has(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Lookup returns the symbol currently visible for name, or nil if
// undeclared or out of scope.
func (t *Table) Lookup(name string) *Symbol {
	return t.byName[name]
}

// Touch updates a symbol's last-referenced line. Called by the parser
// on every observed reference to a name (declaration, mutation, or use
// inside an expression); only reachable while the name is in scope, so
// it always resolves through the live byName view.
func (t *Table) Touch(name string, line int) {
	if sym, ok := t.byName[name]; ok && line > sym.LastRef {
		sym.LastRef = line
	}
}

// Symbols returns every declared symbol in declaration order,
// regardless of whether its block scope has since closed. This is the
// deterministic order the backend's offset pre-pass iterates.
func (t *Table) Symbols() []*Symbol {
	out := make([]*Symbol, len(t.order))
	copy(out, t.order)
	return out
}

// Len returns the number of declared symbols.
func (t *Table) Len() int {
	return len(t.order)
}

// LastReferenced returns the symbol with the greatest LastRef line
// number, breaking ties by declaration order (the last declared
// symbol among those tied wins) — a deterministic choice as required
// by the program epilogue rule (§4.3). Returns nil if the table is
// empty.
func (t *Table) LastReferenced() *Symbol {
	var best *Symbol
	for _, sym := range t.order {
		if best == nil || sym.LastRef >= best.LastRef {
			best = sym
		}
	}
	return best
}
