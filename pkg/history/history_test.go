package history_test

import (
	"fmt"
	"testing"

	"github.com/perran/datum/pkg/history"
)

func snap(i int) []byte {
	return []byte(fmt.Sprintf("state-%d", i))
}

func TestUndoRedoRoundTrip(t *testing.T) {
	h := history.New(0)
	h.Push(snap(0))

	got, ok := h.Undo(snap(1))
	if !ok || string(got) != "state-0" {
		t.Fatalf("Undo = %q, %t; want state-0, true", got, ok)
	}
	if h.CanUndo() {
		t.Error("CanUndo after draining the stack")
	}
	if !h.CanRedo() {
		t.Fatal("nothing to redo after an undo")
	}

	got, ok = h.Redo(snap(0))
	if !ok || string(got) != "state-1" {
		t.Fatalf("Redo = %q, %t; want state-1, true", got, ok)
	}
	if !h.CanUndo() || h.CanRedo() {
		t.Errorf("CanUndo=%t CanRedo=%t after redo, want true/false", h.CanUndo(), h.CanRedo())
	}
}

func TestEmptyStacks(t *testing.T) {
	h := history.New(0)
	if _, ok := h.Undo(snap(0)); ok {
		t.Error("Undo on empty history succeeded")
	}
	if _, ok := h.Redo(snap(0)); ok {
		t.Error("Redo on empty history succeeded")
	}
}

func TestPushClearsRedo(t *testing.T) {
	h := history.New(0)
	h.Push(snap(0))
	if _, ok := h.Undo(snap(1)); !ok {
		t.Fatal("Undo failed")
	}
	h.Push(snap(2))
	if h.CanRedo() {
		t.Error("redo stack survived a new edit")
	}
}

// Pushing one snapshot over the limit evicts the oldest, so a full
// rewind lands on the state after the first mutation, not the initial
// state.
func TestBoundEvictsOldest(t *testing.T) {
	h := history.New(0)
	for i := 0; i <= history.DefaultLimit; i++ {
		h.Push(snap(i))
	}
	if h.UndoDepth() != history.DefaultLimit {
		t.Fatalf("undo depth = %d, want %d", h.UndoDepth(), history.DefaultLimit)
	}

	var last []byte
	for i := 0; i < history.DefaultLimit; i++ {
		got, ok := h.Undo(snap(-1))
		if !ok {
			t.Fatalf("undo #%d failed", i+1)
		}
		last = got
	}
	if string(last) != "state-1" {
		t.Errorf("deepest snapshot = %q, want state-1", last)
	}
	if _, ok := h.Undo(snap(-1)); ok {
		t.Error("undo past the evicted snapshot succeeded")
	}
}

func TestCustomLimit(t *testing.T) {
	h := history.New(2)
	for i := 0; i < 5; i++ {
		h.Push(snap(i))
	}
	if h.UndoDepth() != 2 {
		t.Fatalf("undo depth = %d, want 2", h.UndoDepth())
	}
	got, _ := h.Undo(nil)
	if string(got) != "state-4" {
		t.Errorf("top snapshot = %q, want state-4", got)
	}
	got, _ = h.Undo(nil)
	if string(got) != "state-3" {
		t.Errorf("next snapshot = %q, want state-3", got)
	}
}

func TestClear(t *testing.T) {
	h := history.New(0)
	h.Push(snap(0))
	h.Undo(snap(1))
	h.Clear()
	if h.CanUndo() || h.CanRedo() {
		t.Error("stacks survived Clear")
	}
}
