package history

import "testing"

func TestInitialStateFloorProtected(t *testing.T) {
	h := New(1)
	if h.CanUndo() {
		t.Error("expected CanUndo false on fresh history")
	}
	if got := h.Current(); got != 1 {
		t.Errorf("expected current 1, got %d", got)
	}
	if _, ok := h.Undo(); ok {
		t.Error("expected Undo on seed-only history to fail")
	}
}

func TestPushUndoRedo(t *testing.T) {
	h := New(0)
	h.Push(1)
	h.Push(2)
	if h.Current() != 2 {
		t.Fatalf("expected current 2, got %d", h.Current())
	}
	v, ok := h.Undo()
	if !ok || v != 1 {
		t.Fatalf("expected undo to yield 1, got %d ok=%v", v, ok)
	}
	v, ok = h.Undo()
	if !ok || v != 0 {
		t.Fatalf("expected undo to yield 0, got %d ok=%v", v, ok)
	}
	if h.CanUndo() {
		t.Error("expected floor after two undos")
	}
	v, ok = h.Redo()
	if !ok || v != 1 {
		t.Fatalf("expected redo to yield 1, got %d ok=%v", v, ok)
	}
}

func TestRedoAfterUndoMatchesApply(t *testing.T) {
	h := New("a")
	h.Push("b")
	h.Undo()
	got, ok := h.Redo()
	if !ok || got != "b" {
		t.Fatalf("expected redo to restore 'b', got %q ok=%v", got, ok)
	}
	if h.Current() != "b" {
		t.Fatalf("expected current 'b', got %q", h.Current())
	}
}

func TestNewEditClearsRedo(t *testing.T) {
	h := New(0)
	h.Push(1)
	h.Undo()
	if !h.CanRedo() {
		t.Fatal("expected redo available after undo")
	}
	h.Push(2)
	if h.CanRedo() {
		t.Error("expected redo cleared after a new edit")
	}
	if h.Current() != 2 {
		t.Errorf("expected current 2, got %d", h.Current())
	}
}
