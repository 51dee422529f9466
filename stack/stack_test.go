// stack_test.go - test cases for the break-target stack the backend
// uses to track the label a `break` inside the current loop jumps to.

package stack

import "testing"

// TestEmpty checks Empty() before and after pushing a loop's end label.
func TestEmpty(t *testing.T) {
	s := New()

	if !s.Empty() {
		t.Errorf("a freshly created stack should have no loop on it")
	}

	s.Push(".Lwhile0_end")

	if s.Empty() {
		t.Errorf("pushing a loop end label should leave the stack non-empty")
	}
}

// TestEmptyPop checks that popping a break target fails once no loop
// is open (the backend's break itself reads the target with Peek).
func TestEmptyPop(t *testing.T) {
	s := New()

	_, err := s.Pop()
	if err == nil {
		t.Errorf("expected an error popping a break target with no loop open")
	}
}

// TestPushPop checks that leaving a while loop recovers exactly the
// end label that entering it pushed.
func TestPushPop(t *testing.T) {
	s := New()

	s.Push(".Lwhile0_end")

	out, err := s.Pop()
	if err != nil {
		t.Errorf("popping the loop just entered should not fail: %s", err)
	}
	if out != ".Lwhile0_end" {
		t.Errorf("got break target %q, wanted the label just pushed", out)
	}
}

// TestPeekLeavesLoopOpen checks that Peek reports the innermost loop's
// end label — what a nested break needs to jump to — without closing
// that loop, so a subsequent statement still sees it as the current one.
func TestPeekLeavesLoopOpen(t *testing.T) {
	s := New()
	s.Push(".Lwhile0_end")

	out, err := s.Peek()
	if err != nil {
		t.Errorf("peeking the loop just entered should not fail: %s", err)
	}
	if out != ".Lwhile0_end" {
		t.Errorf("got break target %q, wanted the label just pushed", out)
	}
	if s.Empty() {
		t.Errorf("Peek should not remove the loop it reports")
	}
}

// TestNestedLoopsUnwindInOrder checks that a break inside a nested
// while targets the innermost loop first, and that leaving it exposes
// the outer loop's own end label again.
func TestNestedLoopsUnwindInOrder(t *testing.T) {
	s := New()
	s.Push(".Lwhile0_end")
	s.Push(".Lwhile1_end")

	inner, err := s.Pop()
	if err != nil {
		t.Errorf("popping the inner loop should not fail: %s", err)
	}
	if inner != ".Lwhile1_end" {
		t.Errorf("got break target %q, wanted the inner loop's label", inner)
	}

	outer, err := s.Pop()
	if err != nil {
		t.Errorf("popping the outer loop should not fail: %s", err)
	}
	if outer != ".Lwhile0_end" {
		t.Errorf("got break target %q, wanted the outer loop's label", outer)
	}
}

// TestPeekEmptyPop checks that Peek fails the same way Pop does once
// every loop has been left.
func TestPeekEmptyPop(t *testing.T) {
	s := New()

	_, err := s.Peek()
	if err == nil {
		t.Errorf("expected an error peeking a break target with no loop open")
	}
}
