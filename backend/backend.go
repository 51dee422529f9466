// Package backend turns a type-checked statement sequence and its
// symbol table into x86-64 NASM assembly for a Linux _start entry
// point. It owns the one piece of work the parser deliberately leaves
// undone: assigning every symbol its stack-frame offset.
//
// Expression values are tracked with a four-register scratch pool
// (r8, r9, r10, r11) that holds only values which must survive across
// further computation — binary/unary results, and addresses computed
// by "&". A bare variable reference is never allocated a register at
// all: its value is always recoverable from its own stack slot, so it
// is carried as a zero-cost StackOffset location and only loaded the
// moment an instruction actually needs it in a register. When the pool
// is exhausted a genuinely new value is spilled to the runtime stack
// with push/pop instead of failing to compile. Recovering either kind
// of deferred value — a StackOffset or a spilled value — never draws
// from the scratch pool itself; it lands in rax or rcx, the fixed
// default registers reserved for exactly this (and for div/mod's
// rax:rdx pair), which is what keeps a long chain of plain variable
// references from exhausting the pool on its own.
package backend

import (
	"fmt"
	"strings"

	"github.com/skx/ttc/ast"
	"github.com/skx/ttc/compileerr"
	"github.com/skx/ttc/stack"
	"github.com/skx/ttc/symtab"
	"github.com/skx/ttc/types"
)

var scratchRegs = []string{"r8", "r9", "r10", "r11"}

type locKind int

const (
	// locReg: the value already sits in a held scratch-pool register.
	locReg locKind = iota
	// locStack: the value was spilled to the runtime stack (push'd);
	// recovering it pops into a default register.
	locStack
	// locOffset: the value is a variable's own stack slot, read
	// directly; nothing has been emitted yet.
	locOffset
	// locImm: the value is a literal constant, available as text;
	// nothing has been emitted yet.
	locImm
)

// Location records where an intermediate expression value currently
// lives.
type Location struct {
	kind   locKind
	reg    string
	offset uint64
	imm    string
}

// Backend holds the mutable state accumulated while walking one
// program's statements: the free scratch-register list, the label
// counter, the active loop's break targets, and the assembly emitted
// so far. Every statement and symbol-literal expression carries its
// own resolved *symtab.Symbol (attached by the parser), so the
// backend never needs to hold the symbol table itself to look
// anything up by name.
type Backend struct {
	free     []string
	labelN   int
	loopEnds *stack.Stack

	body strings.Builder
}

// New returns a Backend ready to emit code. Every symbol an emitted
// statement touches must already have its offset assigned, via
// AssignOffsets.
func New() *Backend {
	b := &Backend{loopEnds: stack.New()}
	b.free = append(b.free, scratchRegs...)
	return b
}

// AssignOffsets is the backend's pre-pass (kept out of the symbol
// table and the parser, per the layering the parser's doc comment
// promises): it walks symbols in declaration order and assigns each
// one a positive, monotonically increasing stack_offset, returning
// the total frame size. A pointer-to-array symbol additionally
// reserves a backing block for its elements immediately before its
// own 8-byte pointer slot.
func AssignOffsets(table *symtab.Table) uint64 {
	var total uint64
	for _, sym := range table.Symbols() {
		if sym.Type.IsPointer() && sym.Type.Elem.Kind == types.ArrayKind {
			backing := sym.Type.Elem.Length * sym.Type.Elem.Elem.Size()
			total += backing
			off := total
			sym.ArrayOffset = &off
		}
		total += sym.Type.Size()
		off := total
		sym.Offset = &off
	}
	return total
}

const header = `; generated by the TTC compiler — do not edit by hand.
global _start
section .text
_start:
`

// Generate assigns symbol offsets, emits the program body, and wraps
// it in the prologue/epilogue that make the process's exit code equal
// the value of the last-referenced symbol.
func Generate(stmts []ast.Statement, table *symtab.Table) (string, error) {
	total := AssignOffsets(table)
	b := New()

	for i := range stmts {
		if err := b.emitStatement(&stmts[i]); err != nil {
			return "", err
		}
	}

	last := table.LastReferenced()
	if last == nil {
		return "", &compileerr.GenError{Message: "no symbol available to supply the exit code"}
	}

	var out strings.Builder
	out.WriteString(header)
	fmt.Fprintf(&out, "    mov rbp, rsp\n    lea rsp, [rsp-%d]\n\n", total)
	out.WriteString(b.body.String())
	fmt.Fprintf(&out, "\n    ; [EXIT] exit code is the value of %s\n", last.Name)
	fmt.Fprintf(&out, "    mov rdi, [rbp-%d]\n    mov rax, 60\n    syscall\n", *last.Offset)
	return out.String(), nil
}

func (b *Backend) emit(format string, args ...interface{}) {
	fmt.Fprintf(&b.body, "    "+format+"\n", args...)
}

func (b *Backend) label(name string) {
	fmt.Fprintf(&b.body, "%s:\n", name)
}

func (b *Backend) newLabel(prefix string) string {
	b.labelN++
	return fmt.Sprintf("%s_%d", prefix, b.labelN)
}

func (b *Backend) alloc() (string, bool) {
	if len(b.free) == 0 {
		return "", false
	}
	r := b.free[len(b.free)-1]
	b.free = b.free[:len(b.free)-1]
	return r, true
}

// release returns r to the scratch pool if it's actually one of the
// pool's own registers. rax/rcx are handed out as default
// materialization targets, never pool members, so releasing one is a
// harmless no-op rather than a corrupting double-add.
func (b *Backend) release(r string) {
	for _, s := range scratchRegs {
		if r == s {
			b.free = append(b.free, r)
			return
		}
	}
}

func isScratch(r string) bool {
	for _, s := range scratchRegs {
		if r == s {
			return true
		}
	}
	return false
}

// reserve claims a scratch register for a freshly-computed value. If
// the pool is exhausted it reports that the caller must spill the
// value to the runtime stack instead.
func (b *Backend) reserve() (Location, bool) {
	r, ok := b.alloc()
	if ok {
		return Location{kind: locReg, reg: r}, true
	}
	return Location{kind: locStack}, false
}

// hold guarantees reg's value survives past the current call, moving
// it out of a default register (rax/rcx) into a genuine scratch-pool
// register if one is free. If the pool is exhausted it spills to the
// runtime stack instead of failing to compile — every value
// emitBinary/emitUnary hands back to a caller goes through this, so a
// caller's Location can never be silently clobbered by a sibling
// expression's own use of rax/rcx, and deep nesting degrades to a
// spill rather than an internal error.
func (b *Backend) hold(reg string) (Location, error) {
	if isScratch(reg) {
		return Location{kind: locReg, reg: reg}, nil
	}
	if held, ok := b.alloc(); ok {
		b.emit("mov %s, %s", held, reg)
		return Location{kind: locReg, reg: held}, nil
	}
	b.emit("push %s", reg)
	return Location{kind: locStack}, nil
}

// materializeDefault guarantees a Location's value is sitting in a
// register, using def as the landing spot for anything not already
// loaded (a variable's StackOffset, a spilled Stack value, or an
// immediate). A Location already holding locReg is returned unchanged.
// def is always one of the fixed default registers (rax, rcx), never a
// scratch-pool member; release is a safe no-op on the result unless it
// happens to already be a pool register.
func (b *Backend) materializeDefault(loc Location, def string) (string, error) {
	switch loc.kind {
	case locReg:
		return loc.reg, nil
	case locStack:
		b.emit("pop %s", def)
		return def, nil
	case locOffset:
		b.emit("mov %s, [rbp-%d]", def, loc.offset)
		return def, nil
	case locImm:
		b.emit("mov %s, %s", def, loc.imm)
		return def, nil
	default:
		return "", &compileerr.GenError{Message: "unknown value location reached codegen"}
	}
}

// materialize is materializeDefault with rax as the landing register,
// for the single-operand contexts (assignment, guards, unary) where
// there's no sibling operand whose own default-register use could
// clash.
func (b *Backend) materialize(loc Location) (string, error) {
	return b.materializeDefault(loc, "rax")
}

// --- statements ---

func (b *Backend) emitStatement(stmt *ast.Statement) error {
	switch stmt.Kind {
	case ast.AssignmentStmt:
		return b.emitAssignment(stmt)
	case ast.IfStmt:
		return b.emitIf(stmt)
	case ast.IfElseStmt:
		return b.emitIfElse(stmt)
	case ast.WhileStmt:
		return b.emitWhile(stmt)
	case ast.BlockStmt:
		return b.emitBlock(stmt)
	case ast.BreakStmt:
		return b.emitBreak()
	default:
		return &compileerr.GenError{Message: "unknown statement kind reached codegen"}
	}
}

func (b *Backend) emitAssignment(stmt *ast.Statement) error {
	sym := stmt.Sym
	if sym == nil {
		return &compileerr.GenError{Message: fmt.Sprintf("unresolved symbol %q reached codegen", stmt.Name)}
	}

	if stmt.Expr.Kind == ast.LiteralExpr && stmt.Expr.Lit.Kind == ast.ListLiteral {
		return b.emitListInit(sym, stmt.Expr.Lit)
	}

	loc, err := b.emitExpr(stmt.Expr)
	if err != nil {
		return err
	}
	reg, err := b.materialize(loc)
	if err != nil {
		return err
	}
	b.emit("mov [rbp-%d], %s", *sym.Offset, reg)
	b.release(reg)
	return nil
}

// emitListInit writes a list literal's elements into sym's backing
// block (element i at rbp - (*sym.ArrayOffset - i*elemSize), so
// element zero sits at the block's lowest address and the elements
// ascend from there) and then stores
// the block's base address into sym's own pointer slot. This is the
// one place ArrayOffset is ever read directly; every later reference
// to sym goes through its pointer slot instead, so a reassignment like
// `ys = xs;` is honored rather than silently re-reading xs's own
// backing block.
func (b *Backend) emitListInit(sym *symtab.Symbol, lit *ast.Literal) error {
	if sym.ArrayOffset == nil {
		return &compileerr.GenError{Message: fmt.Sprintf("symbol %q has no backing array storage", sym.Name)}
	}
	elemSize := sym.Type.Elem.Elem.Size()

	for i, elem := range lit.List {
		offset := *sym.ArrayOffset - uint64(i)*elemSize
		if elem.Kind == ast.SymbolLiteral {
			b.emit("mov rax, [rbp-%d]", *elem.Sym.Offset)
			b.emit("mov qword [rbp-%d], rax", offset)
			continue
		}
		val := elem.Token.Literal
		if elem.Kind == ast.BoolLiteral {
			if val == "true" {
				val = "1"
			} else {
				val = "0"
			}
		}
		b.emit("mov qword [rbp-%d], %s", offset, val)
	}

	b.emit("lea rax, [rbp-%d]", *sym.ArrayOffset)
	b.emit("mov [rbp-%d], rax", *sym.Offset)
	return nil
}

func (b *Backend) emitIf(stmt *ast.Statement) error {
	reg, err := b.emitGuard(stmt.Guard)
	if err != nil {
		return err
	}
	end := b.newLabel("if_end")
	b.emit("cmp %s, 0", reg)
	b.release(reg)
	b.emit("je %s", end)

	if err := b.emitStatement(stmt.Then); err != nil {
		return err
	}
	b.label(end)
	return nil
}

func (b *Backend) emitIfElse(stmt *ast.Statement) error {
	reg, err := b.emitGuard(stmt.Guard)
	if err != nil {
		return err
	}
	elseLabel := b.newLabel("if_else")
	end := b.newLabel("if_end")
	b.emit("cmp %s, 0", reg)
	b.release(reg)
	b.emit("je %s", elseLabel)

	if err := b.emitStatement(stmt.Then); err != nil {
		return err
	}
	b.emit("jmp %s", end)
	b.label(elseLabel)
	if err := b.emitStatement(stmt.Else); err != nil {
		return err
	}
	b.label(end)
	return nil
}

func (b *Backend) emitWhile(stmt *ast.Statement) error {
	start := b.newLabel("while_start")
	end := b.newLabel("while_end")
	b.label(start)

	reg, err := b.emitGuard(stmt.Guard)
	if err != nil {
		return err
	}
	b.emit("cmp %s, 0", reg)
	b.release(reg)
	b.emit("je %s", end)

	b.loopEnds.Push(end)
	err = b.emitStatement(stmt.Then)
	_, _ = b.loopEnds.Pop()
	if err != nil {
		return err
	}

	b.emit("jmp %s", start)
	b.label(end)
	return nil
}

func (b *Backend) emitBreak() error {
	target, err := b.loopEnds.Peek()
	if err != nil {
		return &compileerr.GenError{Message: "break reached codegen outside of a loop"}
	}
	b.emit("jmp %s", target)
	return nil
}

func (b *Backend) emitBlock(stmt *ast.Statement) error {
	for i := range stmt.Block {
		if err := b.emitStatement(&stmt.Block[i]); err != nil {
			return err
		}
	}
	return nil
}

// emitGuard evaluates a bool-typed guard expression, returning the
// held register containing it (caller releases; a no-op if it's a
// default register rather than a pool one). Any bool-typed expression
// is accepted, not only a comparison; the caller tests it against 0.
func (b *Backend) emitGuard(guard *ast.Expression) (string, error) {
	loc, err := b.emitExpr(guard)
	if err != nil {
		return "", err
	}
	return b.materialize(loc)
}

// --- expressions ---

func (b *Backend) emitExpr(expr *ast.Expression) (Location, error) {
	switch expr.Kind {
	case ast.LiteralExpr:
		return b.emitLiteral(expr)
	case ast.GroupExpr:
		return b.emitExpr(expr.Left)
	case ast.UnaryExpr:
		return b.emitUnary(expr)
	case ast.BinaryExpr:
		return b.emitBinary(expr)
	default:
		return Location{}, &compileerr.GenError{Message: "unknown expression kind reached codegen"}
	}
}

func (b *Backend) emitLiteral(expr *ast.Expression) (Location, error) {
	lit := expr.Lit
	switch lit.Kind {
	case ast.IntLiteral:
		return Location{kind: locImm, imm: lit.Token.Literal}, nil
	case ast.BoolLiteral:
		v := "0"
		if lit.Token.Literal == "true" {
			v = "1"
		}
		return Location{kind: locImm, imm: v}, nil
	case ast.SymbolLiteral:
		return b.loadSymbol(lit.Sym)
	default:
		// ast.ListLiteral: the parser only ever attaches one directly
		// as a declaration's right-hand side, which emitAssignment
		// handles before ever calling emitExpr. Reaching here means a
		// list literal was used some other way the grammar doesn't
		// actually forbid (e.g. `*[1,2,3]`) — unsupported for now.
		return Location{}, &compileerr.GenError{Message: "list literal is only supported as a declaration's initializer"}
	}
}

// loadSymbol is a zero-cost reference to sym's own stack slot: no
// register is consumed and no code is emitted until something actually
// materializes the returned Location. This always reads sym.Offset —
// never sym.ArrayOffset, which only describes a symbol's own backing
// block at the moment it's declared (see emitListInit) — so a pointer
// symbol that has since been reassigned (`ys = xs;`) yields whatever
// address is actually stored there, not its own original block.
func (b *Backend) loadSymbol(sym *symtab.Symbol) (Location, error) {
	if sym == nil {
		return Location{}, &compileerr.GenError{Message: "unresolved symbol reached codegen"}
	}
	return Location{kind: locOffset, offset: *sym.Offset}, nil
}

func (b *Backend) emitUnary(expr *ast.Expression) (Location, error) {
	switch expr.Op.Literal {
	case "-":
		loc, err := b.emitExpr(expr.Right)
		if err != nil {
			return Location{}, err
		}
		reg, err := b.materialize(loc)
		if err != nil {
			return Location{}, err
		}
		b.emit("neg %s", reg)
		return b.hold(reg)

	case "&":
		// The parser guarantees expr.Right is a SymbolLiteral. Taking
		// an address is itself a computed value (lea), so unlike a
		// plain symbol reference it can't be deferred as a
		// StackOffset — it needs a register, or a spill slot, now.
		sym := expr.Right.Lit.Sym
		if sym == nil {
			return Location{}, &compileerr.GenError{Message: "unresolved symbol reached codegen in address-of"}
		}
		loc, ok := b.reserve()
		reg := "rax"
		if ok {
			reg = loc.reg
		}
		b.emit("lea %s, [rbp-%d]", reg, *sym.Offset)
		if !ok {
			b.emit("push rax")
		}
		return loc, nil

	case "*":
		loc, err := b.emitExpr(expr.Right)
		if err != nil {
			return Location{}, err
		}
		reg, err := b.materialize(loc)
		if err != nil {
			return Location{}, err
		}
		b.emit("mov %s, [%s]", reg, reg)
		return b.hold(reg)

	default:
		return Location{}, &compileerr.GenError{Message: "unknown unary operator reached codegen"}
	}
}

var setcc = map[string]string{
	"==": "sete",
	"!=": "setne",
	"<":  "setl",
	">":  "setg",
	"<=": "setle",
	">=": "setge",
}

// emitBinary evaluates both operands before materializing either one:
// a bare variable operand stays a zero-cost StackOffset through the
// other side's entire evaluation (its value is always safely re-readable
// from its own stack slot), so only a genuinely computed sub-result
// ever occupies a scratch-pool register while its sibling is compiled.
//
// The two operands are materialized right-before-left. Evaluation
// itself still runs left-to-right, so if both sides end up spilled to
// the runtime stack, right's spill was pushed last — recovering it
// first is what keeps the pops in the stack's own LIFO order.
func (b *Backend) emitBinary(expr *ast.Expression) (Location, error) {
	if ast.IsComparison(expr.Op) {
		return b.emitComparison(expr)
	}

	leftLoc, err := b.emitExpr(expr.Left)
	if err != nil {
		return Location{}, err
	}
	rightLoc, err := b.emitExpr(expr.Right)
	if err != nil {
		return Location{}, err
	}

	rreg, err := b.materializeDefault(rightLoc, "rcx")
	if err != nil {
		return Location{}, err
	}
	lreg, err := b.materializeDefault(leftLoc, "rax")
	if err != nil {
		b.release(rreg)
		return Location{}, err
	}

	switch expr.Op.Literal {
	case "+":
		b.emit("add %s, %s", lreg, rreg)
	case "-":
		b.emit("sub %s, %s", lreg, rreg)
	case "*":
		b.emit("imul %s, %s", lreg, rreg)
	case "/":
		b.emitDivMod(lreg, rreg, false)
	case "%":
		b.emitDivMod(lreg, rreg, true)
	default:
		b.release(lreg)
		b.release(rreg)
		return Location{}, &compileerr.GenError{Message: "unknown binary operator reached codegen"}
	}
	b.release(rreg)

	return b.hold(lreg)
}

// emitDivMod routes the division through rax:rdx (idiv's fixed
// operands), following the same cqo-then-idiv shape the math-compiler
// backend used for its modulus operator, and leaves the chosen half
// of the result back in lreg.
func (b *Backend) emitDivMod(lreg, rreg string, mod bool) {
	b.emit("mov rax, %s", lreg)
	b.emit("cqo")
	b.emit("idiv %s", rreg)
	if mod {
		b.emit("mov %s, rdx", lreg)
	} else {
		b.emit("mov %s, rax", lreg)
	}
}

// emitComparison follows the same right-before-left materialization
// order as emitBinary, for the same LIFO reason.
func (b *Backend) emitComparison(expr *ast.Expression) (Location, error) {
	leftLoc, err := b.emitExpr(expr.Left)
	if err != nil {
		return Location{}, err
	}
	rightLoc, err := b.emitExpr(expr.Right)
	if err != nil {
		return Location{}, err
	}

	rreg, err := b.materializeDefault(rightLoc, "rcx")
	if err != nil {
		return Location{}, err
	}
	lreg, err := b.materializeDefault(leftLoc, "rax")
	if err != nil {
		b.release(rreg)
		return Location{}, err
	}

	set, ok := setcc[expr.Op.Literal]
	if !ok {
		b.release(lreg)
		b.release(rreg)
		return Location{}, &compileerr.GenError{Message: "unknown comparison operator reached codegen"}
	}

	b.emit("cmp %s, %s", lreg, rreg)
	b.emit("%s al", set)
	b.emit("movzx %s, al", lreg)
	b.release(rreg)

	return b.hold(lreg)
}
