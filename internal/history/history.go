// Package history implements the linear undo/redo engine: a list of full
// document snapshots plus a cursor. Whole-document snapshots are deliberate;
// diagrams are small and structural diffs have never been worth the
// complexity at observed scales.
package history

import "github.com/rany1024/CodeMapFree/internal/domain"

// History holds the snapshot stack. The entry at index 0 is always the
// state taken at load, so the very first edit can be undone back to it.
type History struct {
	entries []domain.Document
	cursor  int
}

// New creates a history containing exactly the initial snapshot, with the
// cursor pointing at it.
func New(initial domain.Document) *History {
	return &History{entries: []domain.Document{initial.Clone()}}
}

// Record pushes a snapshot taken after a completed mutation. Entries beyond
// the cursor — the redo branch — are discarded first, since new edits
// invalidate redo history.
func (h *History) Record(snap domain.Document) {
	h.entries = append(h.entries[:h.cursor+1], snap.Clone())
	h.cursor = len(h.entries) - 1
}

// Undo steps the cursor back and returns that snapshot. It reports false,
// leaving everything unchanged, when the cursor is already at the initial
// entry.
func (h *History) Undo() (domain.Document, bool) {
	if h.cursor == 0 {
		return domain.Document{}, false
	}
	h.cursor--
	return h.entries[h.cursor].Clone(), true
}

// Redo steps the cursor forward and returns that snapshot. It reports false
// when the cursor is already at the last entry.
func (h *History) Redo() (domain.Document, bool) {
	if h.cursor >= len(h.entries)-1 {
		return domain.Document{}, false
	}
	h.cursor++
	return h.entries[h.cursor].Clone(), true
}

// CanUndo reports whether Undo would restore an earlier snapshot.
func (h *History) CanUndo() bool { return h.cursor > 0 }

// CanRedo reports whether Redo would restore a later snapshot.
func (h *History) CanRedo() bool { return h.cursor < len(h.entries)-1 }

// Len returns the number of stored snapshots.
func (h *History) Len() int { return len(h.entries) }
