// Package history keeps bounded undo/redo stacks of document
// snapshots. Snapshots are opaque serialized bytes; the session layer
// decides what goes into them and how to restore one.
package history

// DefaultLimit bounds the undo stack. The oldest snapshot is evicted
// when a push would exceed it.
const DefaultLimit = 50

// History holds undo and redo snapshots. A new edit clears the redo
// stack; Undo and Redo shuttle the caller's current state between the
// two stacks, so the undo depth never exceeds the limit.
type History struct {
	limit int
	undo  [][]byte
	redo  [][]byte
}

// New returns a history keeping at most limit undo snapshots. A
// non-positive limit falls back to DefaultLimit.
func New(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{limit: limit}
}

// Push records the state before a mutation and discards any redoable
// edits.
func (h *History) Push(snapshot []byte) {
	h.undo = append(h.undo, snapshot)
	if len(h.undo) > h.limit {
		n := copy(h.undo, h.undo[len(h.undo)-h.limit:])
		h.undo = h.undo[:n]
	}
	h.redo = nil
}

// Undo exchanges current for the most recent snapshot. It reports
// false when there is nothing to undo.
func (h *History) Undo(current []byte) ([]byte, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	last := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current)
	return last, true
}

// Redo exchanges current for the most recently undone snapshot. It
// reports false when there is nothing to redo.
func (h *History) Redo(current []byte) ([]byte, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	last := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, current)
	return last, true
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }

func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoDepth returns the number of undoable snapshots.
func (h *History) UndoDepth() int { return len(h.undo) }

// RedoDepth returns the number of redoable snapshots.
func (h *History) RedoDepth() int { return len(h.redo) }

// Clear drops both stacks, e.g. after loading a different document.
func (h *History) Clear() {
	h.undo, h.redo = nil, nil
}
