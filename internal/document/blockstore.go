package document

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rany1024/CodeMapFree/internal/domain"
)

// BlockStore owns the id→block mapping of the live document: id allocation,
// rename, geometry updates, delete, and z-order renumbering. Renumbering
// operations return the id→id remapping they applied so the caller can
// rewrite arrow references in the same atomic step.
type BlockStore struct {
	blocks map[string]*domain.Block
}

// NewBlockStore wraps an existing block map. The map is shared, not copied.
func NewBlockStore(blocks map[string]*domain.Block) *BlockStore {
	if blocks == nil {
		blocks = map[string]*domain.Block{}
	}
	return &BlockStore{blocks: blocks}
}

// AllocateID returns the smallest positive integer, as a numeric string, not
// currently used as any block id in the document. Allocation walks upward
// from 1, so a candidate taken by a concurrent insert is simply skipped.
func (s *BlockStore) AllocateID() string {
	for n := 1; ; n++ {
		id := strconv.Itoa(n)
		if _, taken := s.blocks[id]; !taken {
			return id
		}
	}
}

// Add inserts a block under its own id. A duplicate id is rejected with the
// store unchanged.
func (s *BlockStore) Add(b *domain.Block) error {
	if _, taken := s.blocks[b.ID]; taken {
		return fmt.Errorf("block id %q already exists", b.ID)
	}
	s.blocks[b.ID] = b
	return nil
}

// Get returns the block for id, or nil when unknown.
func (s *BlockStore) Get(id string) *domain.Block {
	return s.blocks[id]
}

// Len returns the number of blocks.
func (s *BlockStore) Len() int { return len(s.blocks) }

// IDs returns all block ids in unspecified order.
func (s *BlockStore) IDs() []string {
	ids := make([]string, 0, len(s.blocks))
	for id := range s.blocks {
		ids = append(ids, id)
	}
	return ids
}

// ZOrder returns block ids back-to-front: numeric ids ascending (larger
// numbers render on top), then non-numeric ids lexicographically above
// them.
func (s *BlockStore) ZOrder() []string {
	ids := s.IDs()
	sort.Slice(ids, func(i, j int) bool {
		ni, iNum := numericID(ids[i])
		nj, jNum := numericID(ids[j])
		switch {
		case iNum && jNum:
			return ni < nj
		case iNum != jNum:
			return iNum // numeric ids sort below non-numeric
		default:
			return ids[i] < ids[j]
		}
	})
	return ids
}

// Rename sets the display name of a block and reports whether anything
// changed. It is a silent no-op when the id is unknown, the new name is
// empty after trimming, or the name is unchanged. A name equal to the id of
// a different block is rejected with an error, since arrows reference
// blocks by id and a colliding title is actionable user input.
func (s *BlockStore) Rename(id, newName string) (bool, error) {
	b, ok := s.blocks[id]
	if !ok {
		return false, nil
	}
	newName = strings.TrimSpace(newName)
	if newName == "" || newName == b.Title() {
		return false, nil
	}
	if other, taken := s.blocks[newName]; taken && other != b {
		return false, fmt.Errorf("name %q collides with an existing block id", newName)
	}
	if newName == id {
		b.DisplayName = ""
	} else {
		b.DisplayName = newName
	}
	return true, nil
}

// SetGeometry commits a block's rectangle, clamping width/height to the
// minimums and position to be non-negative. Unknown ids are ignored.
func (s *BlockStore) SetGeometry(id string, x, y, w, h float64) {
	b, ok := s.blocks[id]
	if !ok {
		return
	}
	b.X = max(x, 0)
	b.Y = max(y, 0)
	b.W = max(w, domain.MinBlockW)
	b.H = max(h, domain.MinBlockH)
}

// Delete removes a block. Cascading arrow removal is the caller's job.
func (s *BlockStore) Delete(id string) bool {
	if _, ok := s.blocks[id]; !ok {
		return false
	}
	delete(s.blocks, id)
	return true
}

// ── Z-order renumbering ────────────────────────────────────
// Purely-numeric ids double as z-order: larger ids render on top. The four
// operations below permute numeric ids only; non-numeric ids never move.
// Each returns the applied id→id remapping, nil when nothing changed.

// MoveUp swaps the block's id with the next-larger numeric id present.
func (s *BlockStore) MoveUp(id string) map[string]string {
	return s.swapWithNeighbor(id, true)
}

// MoveDown swaps the block's id with the next-smaller numeric id present.
func (s *BlockStore) MoveDown(id string) map[string]string {
	return s.swapWithNeighbor(id, false)
}

// MoveToTop gives the block the current maximum numeric id; every numeric id
// originally greater shifts down one slot, preserving relative order.
func (s *BlockStore) MoveToTop(id string) map[string]string {
	v, ns, idx, ok := s.numericContext(id)
	if !ok || idx == len(ns)-1 {
		return nil
	}
	remap := map[string]string{strconv.Itoa(v): strconv.Itoa(ns[len(ns)-1])}
	for i := idx + 1; i < len(ns); i++ {
		remap[strconv.Itoa(ns[i])] = strconv.Itoa(ns[i-1])
	}
	s.applyRemap(remap)
	return remap
}

// MoveToBottom gives the block the current minimum numeric id; every smaller
// numeric id shifts up one slot.
func (s *BlockStore) MoveToBottom(id string) map[string]string {
	v, ns, idx, ok := s.numericContext(id)
	if !ok || idx == 0 {
		return nil
	}
	remap := map[string]string{strconv.Itoa(v): strconv.Itoa(ns[0])}
	for i := 0; i < idx; i++ {
		remap[strconv.Itoa(ns[i])] = strconv.Itoa(ns[i+1])
	}
	s.applyRemap(remap)
	return remap
}

func (s *BlockStore) swapWithNeighbor(id string, up bool) map[string]string {
	_, ns, idx, ok := s.numericContext(id)
	if !ok {
		return nil
	}
	var neighbor int
	if up {
		if idx == len(ns)-1 {
			return nil
		}
		neighbor = ns[idx+1]
	} else {
		if idx == 0 {
			return nil
		}
		neighbor = ns[idx-1]
	}
	other := strconv.Itoa(neighbor)
	remap := map[string]string{id: other, other: id}
	s.applyRemap(remap)
	return remap
}

// numericContext returns the block's numeric value, the sorted list of all
// numeric ids present, and the block's index in that list. ok is false when
// the id is unknown or not a pure non-negative integer literal.
func (s *BlockStore) numericContext(id string) (v int, ns []int, idx int, ok bool) {
	if _, present := s.blocks[id]; !present {
		return 0, nil, 0, false
	}
	v, numeric := numericID(id)
	if !numeric {
		return 0, nil, 0, false
	}
	for other := range s.blocks {
		if n, isNum := numericID(other); isNum {
			ns = append(ns, n)
		}
	}
	sort.Ints(ns)
	idx = sort.SearchInts(ns, v)
	return v, ns, idx, true
}

// applyRemap moves blocks to their new ids. The mapping is a permutation, so
// all sources are deleted before any insertion to avoid transient
// collisions; no temporary ids are needed.
func (s *BlockStore) applyRemap(remap map[string]string) {
	moved := make(map[string]*domain.Block, len(remap))
	for oldID := range remap {
		if b, ok := s.blocks[oldID]; ok {
			moved[oldID] = b
			delete(s.blocks, oldID)
		}
	}
	for oldID, b := range moved {
		// An empty display name keeps tracking the id, so an unrenamed
		// block shows its new number after the move.
		b.ID = remap[oldID]
		s.blocks[b.ID] = b
	}
}

// numericID parses a canonical non-negative integer literal. Ids with
// leading zeros ("07") are treated as non-numeric: they would alias the
// canonical form and corrupt a renumbering, which keys the remap by
// strconv.Itoa of the slot.
func numericID(id string) (int, bool) {
	if id == "" {
		return 0, false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(id)
	if err != nil || strconv.Itoa(n) != id {
		return 0, false
	}
	return n, true
}
