package history_test

import (
	"testing"

	"github.com/rany1024/CodeMapFree/internal/domain"
	"github.com/rany1024/CodeMapFree/internal/history"
)

// ─────────────────────────────────────────────────────────────
// History: linear snapshot undo/redo
// ─────────────────────────────────────────────────────────────

func docNamed(name string) domain.Document {
	d := domain.NewDocument()
	d.PageName = name
	return d
}

func TestHistory_New_IsBaseline(t *testing.T) {
	h := history.New(docNamed("v0"))
	if h.Len() != 1 {
		t.Fatalf("len = %d", h.Len())
	}
	if h.CanUndo() || h.CanRedo() {
		t.Error("fresh history should have nothing to undo or redo")
	}
}

func TestHistory_UndoRedo_Walk(t *testing.T) {
	h := history.New(docNamed("v0"))
	h.Record(docNamed("v1"))
	h.Record(docNamed("v2"))

	d, ok := h.Undo()
	if !ok || d.PageName != "v1" {
		t.Fatalf("undo 1: ok=%v name=%q", ok, d.PageName)
	}
	d, ok = h.Undo()
	if !ok || d.PageName != "v0" {
		t.Fatalf("undo 2: ok=%v name=%q", ok, d.PageName)
	}
	if _, ok := h.Undo(); ok {
		t.Error("undo past the baseline should fail")
	}

	d, ok = h.Redo()
	if !ok || d.PageName != "v1" {
		t.Fatalf("redo 1: ok=%v name=%q", ok, d.PageName)
	}
	d, ok = h.Redo()
	if !ok || d.PageName != "v2" {
		t.Fatalf("redo 2: ok=%v name=%q", ok, d.PageName)
	}
	if _, ok := h.Redo(); ok {
		t.Error("redo past the newest state should fail")
	}
}

// Recording while undone discards the redo tail.
func TestHistory_Record_TruncatesRedoBranch(t *testing.T) {
	h := history.New(docNamed("v0"))
	h.Record(docNamed("v1"))
	h.Record(docNamed("v2"))
	h.Undo() // at v1
	h.Record(docNamed("v1b"))

	if h.CanRedo() {
		t.Error("redo branch should be gone after a new record")
	}
	if h.Len() != 3 {
		t.Errorf("len = %d, want v0/v1/v1b", h.Len())
	}
	d, _ := h.Undo()
	if d.PageName != "v1" {
		t.Errorf("undo from v1b landed on %q", d.PageName)
	}
}

// Snapshots are cloned both on record and on restore, so later edits to a
// returned document cannot corrupt stored history.
func TestHistory_SnapshotsAreIsolated(t *testing.T) {
	base := domain.NewDocument()
	base.Blocks["1"] = &domain.Block{ID: "1", Path: "a.go", StartLine: 1, EndLine: 1, W: 400, H: 300}
	h := history.New(base)
	h.Record(docNamed("v1"))

	d, _ := h.Undo()
	d.Blocks["1"].X = 999

	again, _ := h.Redo()
	_ = again
	d2, _ := h.Undo()
	if d2.Blocks["1"].X == 999 {
		t.Error("mutating a restored snapshot leaked into history")
	}
}

func TestHistory_UndoDoesNotShrink(t *testing.T) {
	h := history.New(docNamed("v0"))
	h.Record(docNamed("v1"))
	h.Undo()
	if h.Len() != 2 {
		t.Errorf("undo must move the cursor, not drop entries: len = %d", h.Len())
	}
	if !h.CanRedo() {
		t.Error("redo should be available after undo")
	}
}
