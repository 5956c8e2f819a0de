// Package history implements a generic undo/redo stack with atomic
// current-state publication, so the real-time audio thread can read the
// current state without taking the edit-domain lock that guards mutation.
//
// It is a flat push/pop history with a floor-protected bottom entry: a
// push-on-edit, pop-on-undo protocol over an immutable value of type T,
// which suits a PieceTable snapshot well since it is a cheap persistent
// value rather than something that needs a deep copy to push.
package history

import "sync/atomic"

// StateHistory holds a double-ended undo/redo stack of values of type T,
// plus the atomically published current value.
type StateHistory[T any] struct {
	undoStack []T
	redoStack []T
	current   atomic.Pointer[T]
}

// New seeds the history with an initial state. The initial state is
// floor-protected: Undo can never remove it.
func New[T any](initial T) *StateHistory[T] {
	h := &StateHistory[T]{undoStack: []T{initial}}
	h.current.Store(&initial)
	return h
}

// Current returns the currently published state. Safe to call from any
// goroutine without locking.
func (h *StateHistory[T]) Current() T {
	return *h.current.Load()
}

// Push appends a new state, clearing any redo history. This is the only
// mutating call other than Undo/Redo; callers are responsible for
// serializing calls to Push/Undo/Redo themselves (Sequence does this with
// its own mutex) — StateHistory's atomic publication guarantees only that
// concurrent *readers* of Current never observe a torn state.
func (h *StateHistory[T]) Push(state T) {
	h.undoStack = append(h.undoStack, state)
	h.redoStack = nil
	h.current.Store(&state)
}

// CanUndo reports whether Undo would have any effect. The initial seed
// state is floor-protected, so a single-element undo stack cannot undo.
func (h *StateHistory[T]) CanUndo() bool { return len(h.undoStack) > 1 }

// CanRedo reports whether Redo would have any effect.
func (h *StateHistory[T]) CanRedo() bool { return len(h.redoStack) > 0 }

// Undo moves the current state onto the redo stack and republishes the
// previous state. No-op (returns false) when only the floor-protected
// initial state remains.
func (h *StateHistory[T]) Undo() (T, bool) {
	if !h.CanUndo() {
		var zero T
		return zero, false
	}
	n := len(h.undoStack)
	popped := h.undoStack[n-1]
	h.undoStack = h.undoStack[:n-1]
	h.redoStack = append(h.redoStack, popped)
	newCurrent := h.undoStack[len(h.undoStack)-1]
	h.current.Store(&newCurrent)
	return newCurrent, true
}

// Redo moves the most recently undone state back onto the undo stack and
// republishes it.
func (h *StateHistory[T]) Redo() (T, bool) {
	if !h.CanRedo() {
		var zero T
		return zero, false
	}
	n := len(h.redoStack)
	state := h.redoStack[n-1]
	h.redoStack = h.redoStack[:n-1]
	h.undoStack = append(h.undoStack, state)
	h.current.Store(&state)
	return state, true
}
