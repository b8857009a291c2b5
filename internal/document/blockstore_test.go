package document_test

import (
	"reflect"
	"testing"

	"github.com/rany1024/CodeMapFree/internal/document"
	"github.com/rany1024/CodeMapFree/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// BlockStore: id allocation, rename, geometry, z-order
// ─────────────────────────────────────────────────────────────

func storeWithIDs(t *testing.T, ids ...string) *document.BlockStore {
	t.Helper()
	s := document.NewBlockStore(nil)
	for _, id := range ids {
		b := &domain.Block{ID: id, Path: "f.go", StartLine: 1, EndLine: 1, W: 400, H: 300}
		if err := s.Add(b); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	return s
}

func TestBlockStore_AllocateID_SmallestFree(t *testing.T) {
	s := storeWithIDs(t, "1", "2", "4")
	if id := s.AllocateID(); id != "3" {
		t.Errorf("allocated %q, want 3 (smallest free)", id)
	}
}

func TestBlockStore_AllocateID_Empty(t *testing.T) {
	s := document.NewBlockStore(nil)
	if id := s.AllocateID(); id != "1" {
		t.Errorf("allocated %q, want 1", id)
	}
}

func TestBlockStore_AllocateID_ReusesDeletedSlot(t *testing.T) {
	s := storeWithIDs(t, "1", "2", "3")
	s.Delete("2")
	if id := s.AllocateID(); id != "2" {
		t.Errorf("allocated %q, want reclaimed 2", id)
	}
}

func TestBlockStore_Add_RejectsDuplicateID(t *testing.T) {
	s := storeWithIDs(t, "1")
	err := s.Add(&domain.Block{ID: "1", Path: "g.go", StartLine: 1, EndLine: 1})
	if err == nil {
		t.Fatal("expected error adding duplicate id")
	}
}

func TestBlockStore_Rename(t *testing.T) {
	s := storeWithIDs(t, "1", "2")

	changed, err := s.Rename("1", "login handler")
	if err != nil || !changed {
		t.Fatalf("rename: changed=%v err=%v", changed, err)
	}
	if s.Get("1").DisplayName != "login handler" {
		t.Errorf("display name = %q", s.Get("1").DisplayName)
	}

	// Unchanged name is a no-op.
	changed, err = s.Rename("1", "login handler")
	if err != nil || changed {
		t.Errorf("repeat rename: changed=%v err=%v", changed, err)
	}

	// Empty input is a no-op, not a reset.
	changed, err = s.Rename("1", "   ")
	if err != nil || changed {
		t.Errorf("blank rename: changed=%v err=%v", changed, err)
	}
	if s.Get("1").DisplayName != "login handler" {
		t.Error("blank rename should keep the old name")
	}
}

func TestBlockStore_Rename_BackToOwnID(t *testing.T) {
	s := storeWithIDs(t, "1")
	if _, err := s.Rename("1", "something"); err != nil {
		t.Fatal(err)
	}

	// Renaming to the block's own id clears the custom name.
	changed, err := s.Rename("1", "1")
	if err != nil || !changed {
		t.Fatalf("rename to own id: changed=%v err=%v", changed, err)
	}
	if s.Get("1").DisplayName != "" {
		t.Errorf("display name should reset, got %q", s.Get("1").DisplayName)
	}
	if s.Get("1").Title() != "1" {
		t.Errorf("title = %q", s.Get("1").Title())
	}
}

func TestBlockStore_Rename_CollidesWithOtherBlockID(t *testing.T) {
	s := storeWithIDs(t, "1", "2")
	if _, err := s.Rename("1", "2"); err == nil {
		t.Fatal("naming a block after another block's id must fail")
	}
	if s.Get("1").DisplayName != "" {
		t.Error("failed rename must not change the name")
	}
}

func TestBlockStore_Rename_UnknownBlock(t *testing.T) {
	s := storeWithIDs(t, "1")
	changed, err := s.Rename("99", "x")
	if err != nil || changed {
		t.Errorf("unknown block: changed=%v err=%v", changed, err)
	}
}

func TestBlockStore_SetGeometry_ClampsToMinimums(t *testing.T) {
	s := storeWithIDs(t, "1")
	s.SetGeometry("1", -10, 20, 10, 5)

	b := s.Get("1")
	if b.X != 0 || b.Y != 20 {
		t.Errorf("position = (%v, %v), want x clamped to 0", b.X, b.Y)
	}
	if b.W != domain.MinBlockW || b.H != domain.MinBlockH {
		t.Errorf("size = (%v, %v), want minimums", b.W, b.H)
	}
}

func TestBlockStore_ZOrder_NumericAscending(t *testing.T) {
	s := storeWithIDs(t, "10", "2", "1")
	want := []string{"1", "2", "10"}
	if got := s.ZOrder(); !reflect.DeepEqual(got, want) {
		t.Errorf("z-order = %v, want %v", got, want)
	}
}

// ─────────────────────────────────────────────────────────────
// Z-order renumbering: ids are permuted within the occupied slots
// ─────────────────────────────────────────────────────────────

func idSet(s *document.BlockStore) map[string]bool {
	m := make(map[string]bool)
	for _, id := range s.IDs() {
		m[id] = true
	}
	return m
}

func TestBlockStore_MoveToTop_SparseSlots(t *testing.T) {
	s := storeWithIDs(t, "1", "3", "4", "7")

	remap := s.MoveToTop("3")
	want := map[string]string{"3": "7", "4": "3", "7": "4"}
	if !reflect.DeepEqual(remap, want) {
		t.Fatalf("remap = %v, want %v", remap, want)
	}

	// The id set is preserved; only which block holds each id changes.
	if !reflect.DeepEqual(idSet(s), map[string]bool{"1": true, "3": true, "4": true, "7": true}) {
		t.Errorf("id set changed: %v", s.IDs())
	}
	if got := s.ZOrder(); got[len(got)-1] != "7" {
		t.Errorf("top of z-order = %v", got)
	}
}

func TestBlockStore_MoveToBottom_SparseSlots(t *testing.T) {
	s := storeWithIDs(t, "1", "3", "4", "7")

	remap := s.MoveToBottom("4")
	want := map[string]string{"4": "1", "1": "3", "3": "4"}
	if !reflect.DeepEqual(remap, want) {
		t.Fatalf("remap = %v, want %v", remap, want)
	}
}

func TestBlockStore_MoveUp_SwapsWithNeighbor(t *testing.T) {
	s := storeWithIDs(t, "1", "3", "7")
	s.Get("1").DisplayName = "bottom block"

	remap := s.MoveUp("1")
	want := map[string]string{"1": "3", "3": "1"}
	if !reflect.DeepEqual(remap, want) {
		t.Fatalf("remap = %v, want %v", remap, want)
	}
	// The custom name travels with the block to its new id.
	if s.Get("3").DisplayName != "bottom block" {
		t.Errorf("block content did not follow the remap: %+v", s.Get("3"))
	}
}

func TestBlockStore_MoveUp_TopIsNoop(t *testing.T) {
	s := storeWithIDs(t, "1", "3")
	if remap := s.MoveUp("3"); remap != nil {
		t.Errorf("moving the top block up should be a no-op, got %v", remap)
	}
}

func TestBlockStore_MoveDown_BottomIsNoop(t *testing.T) {
	s := storeWithIDs(t, "1", "3")
	if remap := s.MoveDown("1"); remap != nil {
		t.Errorf("moving the bottom block down should be a no-op, got %v", remap)
	}
}

func TestBlockStore_MoveToTop_AlreadyTop(t *testing.T) {
	s := storeWithIDs(t, "1", "3", "7")
	if remap := s.MoveToTop("7"); remap != nil {
		t.Errorf("expected no-op, got %v", remap)
	}
}

func TestBlockStore_Renumber_NonNumericID(t *testing.T) {
	s := storeWithIDs(t, "1", "note-a")
	if remap := s.MoveToTop("note-a"); remap != nil {
		t.Errorf("non-numeric ids take no part in renumbering, got %v", remap)
	}
}

// A hand-edited id with leading zeros would alias its canonical form and
// corrupt a renumbering, so it counts as non-numeric throughout.
func TestBlockStore_LeadingZeroID_NotNumeric(t *testing.T) {
	s := storeWithIDs(t, "07", "7", "2")

	if remap := s.MoveToTop("07"); remap != nil {
		t.Errorf("leading-zero id should take no part in renumbering, got %v", remap)
	}

	remap := s.MoveToTop("2")
	want := map[string]string{"2": "7", "7": "2"}
	if !reflect.DeepEqual(remap, want) {
		t.Fatalf("remap = %v, want %v", remap, want)
	}
	if s.Get("07") == nil {
		t.Error("leading-zero block must be untouched by the remap")
	}

	// Allocation likewise ignores it: slot 7 stays distinct from "07".
	s2 := storeWithIDs(t, "07")
	if id := s2.AllocateID(); id != "1" {
		t.Errorf("allocated %q, want 1", id)
	}
}

func TestBlockStore_Renumber_SingleBlock(t *testing.T) {
	s := storeWithIDs(t, "5")
	if remap := s.MoveToTop("5"); remap != nil {
		t.Errorf("expected no-op with one block, got %v", remap)
	}
	if remap := s.MoveToBottom("5"); remap != nil {
		t.Errorf("expected no-op with one block, got %v", remap)
	}
}

// A block whose title was never customized keeps showing its id, so after a
// renumber it shows the new id.
func TestBlockStore_Renumber_DefaultTitleFollowsNewID(t *testing.T) {
	s := storeWithIDs(t, "1", "2")
	remap := s.MoveToTop("1")
	if !reflect.DeepEqual(remap, map[string]string{"1": "2", "2": "1"}) {
		t.Fatalf("remap = %v", remap)
	}
	if got := s.Get("2").Title(); got != "2" {
		t.Errorf("title = %q, want the new id", got)
	}
}
