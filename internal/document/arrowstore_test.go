package document_test

import (
	"testing"

	"github.com/rany1024/CodeMapFree/internal/document"
	"github.com/rany1024/CodeMapFree/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// ArrowStore: ordering, endpoint edits, cascade removal, remap
// ─────────────────────────────────────────────────────────────

func anchor(block string, x, y float64) domain.Anchor {
	return domain.Anchor{Block: block, X: x, Y: y}
}

func TestArrowStore_Add_AppendsInOrder(t *testing.T) {
	s := document.NewArrowStore(nil)

	i0 := s.Add(anchor("1", 0, 0), anchor("2", 5, 5), "", 1)
	i1 := s.Add(anchor("2", 1, 1), anchor("1", 9, 9), "#00ff00", 0.5)
	if i0 != 0 || i1 != 1 {
		t.Fatalf("indices = %d, %d", i0, i1)
	}

	a, _ := s.At(0)
	if a.Color != domain.DefaultArrowColor {
		t.Errorf("empty color should default, got %q", a.Color)
	}
	b, _ := s.At(1)
	if b.Color != "#00ff00" || b.Alpha != 0.5 {
		t.Errorf("arrow 1 style = %q/%v", b.Color, b.Alpha)
	}
}

// Alpha outside [0,1] must never reach the stored document, whatever the
// caller handed in.
func TestArrowStore_Add_ClampsAlpha(t *testing.T) {
	s := document.NewArrowStore(nil)
	s.Add(anchor("1", 0, 0), anchor("2", 5, 5), "", 3.5)
	s.Add(anchor("1", 1, 1), anchor("2", 6, 6), "", -0.5)
	s.Add(anchor("1", 2, 2), anchor("2", 7, 7), "", 0.4)

	want := []float64{1, 0, 0.4}
	for i, alpha := range want {
		a, _ := s.At(i)
		if a.Alpha != alpha {
			t.Errorf("arrow %d alpha = %v, want %v", i, a.Alpha, alpha)
		}
	}
}

func TestArrowStore_Add_RejectsDegenerate(t *testing.T) {
	s := document.NewArrowStore(nil)
	// Same block and identical offset is not a visible arrow.
	if idx := s.Add(anchor("1", 10, 10), anchor("1", 10, 10), "", 1); idx != -1 {
		t.Errorf("degenerate arrow accepted at index %d", idx)
	}
	if s.Len() != 0 {
		t.Errorf("store should stay empty, len = %d", s.Len())
	}
}

func TestArrowStore_Add_SelfLoopWithDistinctOffsets(t *testing.T) {
	s := document.NewArrowStore(nil)
	// Both ends on the same block is fine as long as the offsets differ.
	if idx := s.Add(anchor("1", 0, 0), anchor("1", 30, 40), "", 1); idx != 0 {
		t.Errorf("self-referencing arrow rejected, idx = %d", idx)
	}
}

func TestArrowStore_UpdateEndpoint(t *testing.T) {
	s := document.NewArrowStore(nil)
	s.Add(anchor("1", 0, 0), anchor("2", 5, 5), "", 1)

	if !s.UpdateEndpoint(0, document.EndpointTo, anchor("3", 7, 8)) {
		t.Fatal("update failed")
	}
	a, _ := s.At(0)
	if a.To.Block != "3" || a.To.X != 7 || a.To.Y != 8 {
		t.Errorf("to = %+v", a.To)
	}
	if a.From.Block != "1" {
		t.Errorf("from changed: %+v", a.From)
	}

	if s.UpdateEndpoint(5, document.EndpointFrom, anchor("1", 0, 0)) {
		t.Error("out-of-range update should report false")
	}
}

func TestArrowStore_RemoveAt_ShiftsLaterIndices(t *testing.T) {
	s := document.NewArrowStore(nil)
	s.Add(anchor("1", 0, 0), anchor("2", 1, 1), "", 1)
	s.Add(anchor("1", 2, 2), anchor("2", 3, 3), "", 1)
	s.Add(anchor("1", 4, 4), anchor("2", 5, 5), "", 1)

	if !s.RemoveAt(1) {
		t.Fatal("remove failed")
	}
	if s.Len() != 2 {
		t.Fatalf("len = %d", s.Len())
	}
	a, _ := s.At(1)
	if a.From.X != 4 {
		t.Errorf("third arrow should now be at index 1, got from.x = %v", a.From.X)
	}
}

func TestArrowStore_RemoveAllReferencing(t *testing.T) {
	s := document.NewArrowStore(nil)
	s.Add(anchor("1", 0, 0), anchor("2", 1, 1), "", 1) // touches 1
	s.Add(anchor("2", 0, 0), anchor("3", 1, 1), "", 1) // survives
	s.Add(anchor("3", 0, 0), anchor("1", 1, 1), "", 1) // touches 1

	if n := s.RemoveAllReferencing("1"); n != 2 {
		t.Fatalf("removed %d arrows, want 2", n)
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d", s.Len())
	}
	a, _ := s.At(0)
	if a.From.Block != "2" || a.To.Block != "3" {
		t.Errorf("wrong survivor: %+v", a)
	}
}

func TestArrowStore_RemapBlockIDs_SinglePass(t *testing.T) {
	s := document.NewArrowStore(nil)
	s.Add(anchor("3", 1, 2), anchor("4", 3, 4), "", 1)
	s.Add(anchor("7", 5, 6), anchor("1", 7, 8), "", 1)

	// The cyclic permutation from a bring-to-front must apply to each
	// endpoint exactly once: 3→7 must not then be chased through 7→4.
	s.RemapBlockIDs(map[string]string{"3": "7", "4": "3", "7": "4"})

	a, _ := s.At(0)
	if a.From.Block != "7" || a.To.Block != "3" {
		t.Errorf("arrow 0 endpoints = %s → %s", a.From.Block, a.To.Block)
	}
	b, _ := s.At(1)
	if b.From.Block != "4" || b.To.Block != "1" {
		t.Errorf("arrow 1 endpoints = %s → %s", b.From.Block, b.To.Block)
	}
	// Offsets are content-relative and must survive the renumber untouched.
	if a.From.X != 1 || a.From.Y != 2 {
		t.Errorf("offsets changed: %+v", a.From)
	}
}

func TestArrowStore_All_ReturnsCopy(t *testing.T) {
	s := document.NewArrowStore(nil)
	s.Add(anchor("1", 0, 0), anchor("2", 1, 1), "", 1)

	all := s.All()
	all[0].Color = "#123456"

	a, _ := s.At(0)
	if a.Color == "#123456" {
		t.Error("All must not expose the internal slice")
	}
}
