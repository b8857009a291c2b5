package document

import (
	"math"

	"github.com/rany1024/CodeMapFree/internal/domain"
)

// Endpoint selects which end of an arrow an operation targets.
type Endpoint int

const (
	EndpointFrom Endpoint = iota
	EndpointTo
)

// ArrowStore owns the ordered arrow list. Order has no semantic meaning but
// is preserved for round-trip stability of the persisted array.
type ArrowStore struct {
	arrows []domain.Arrow
}

// NewArrowStore wraps an existing arrow list.
func NewArrowStore(arrows []domain.Arrow) *ArrowStore {
	return &ArrowStore{arrows: arrows}
}

// Add appends an arrow and returns its index. A degenerate arrow — both
// endpoints naming the identical anchor — is silently rejected with index -1.
// Alpha is clamped into [0,1] so no out-of-range value ever reaches the
// persisted document.
func (s *ArrowStore) Add(from, to domain.Anchor, color string, alpha float64) int {
	if from.Equal(to) {
		return -1
	}
	if color == "" {
		color = domain.DefaultArrowColor
	}
	alpha = math.Min(math.Max(alpha, 0), 1)
	s.arrows = append(s.arrows, domain.Arrow{From: from, To: to, Color: color, Alpha: alpha})
	return len(s.arrows) - 1
}

// UpdateEndpoint replaces one end of an existing arrow in place.
func (s *ArrowStore) UpdateEndpoint(index int, which Endpoint, a domain.Anchor) bool {
	if index < 0 || index >= len(s.arrows) {
		return false
	}
	if which == EndpointFrom {
		s.arrows[index].From = a
	} else {
		s.arrows[index].To = a
	}
	return true
}

// RemoveAt deletes the arrow at index, shifting later arrows down.
func (s *ArrowStore) RemoveAt(index int) bool {
	if index < 0 || index >= len(s.arrows) {
		return false
	}
	s.arrows = append(s.arrows[:index], s.arrows[index+1:]...)
	return true
}

// RemoveAllReferencing drops every arrow touching blockID at either end.
// Used by cascading block delete. Returns the number removed.
func (s *ArrowStore) RemoveAllReferencing(blockID string) int {
	kept := s.arrows[:0]
	removed := 0
	for _, a := range s.arrows {
		if a.References(blockID) {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	s.arrows = kept
	return removed
}

// RewriteBlockID repoints every anchor referencing oldID at newID.
func (s *ArrowStore) RewriteBlockID(oldID, newID string) {
	s.RemapBlockIDs(map[string]string{oldID: newID})
}

// RemapBlockIDs applies a precomputed id→id mapping to every anchor in one
// pass. Because the full mapping is applied at once, chained renumberings
// cannot double-rewrite a reference.
func (s *ArrowStore) RemapBlockIDs(remap map[string]string) {
	for i := range s.arrows {
		if newID, ok := remap[s.arrows[i].From.Block]; ok {
			s.arrows[i].From.Block = newID
		}
		if newID, ok := remap[s.arrows[i].To.Block]; ok {
			s.arrows[i].To.Block = newID
		}
	}
}

// At returns the arrow at index.
func (s *ArrowStore) At(index int) (domain.Arrow, bool) {
	if index < 0 || index >= len(s.arrows) {
		return domain.Arrow{}, false
	}
	return s.arrows[index], true
}

// Len returns the number of arrows.
func (s *ArrowStore) Len() int { return len(s.arrows) }

// All returns a copy of the arrow list in order.
func (s *ArrowStore) All() []domain.Arrow {
	out := make([]domain.Arrow, len(s.arrows))
	copy(out, s.arrows)
	return out
}
