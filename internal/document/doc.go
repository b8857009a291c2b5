package document

import (
	"strings"

	"github.com/rany1024/CodeMapFree/internal/domain"
)

// PasteOffset is how far a pasted copy lands from its source block.
const PasteOffset = 24.0

// Doc aggregates the block and arrow stores with the page title and
// mediates every composite mutation, so the two stores can never go out of
// sync and each mutation is snapshot-ready as one atomic step.
type Doc struct {
	pageName string
	blocks   *BlockStore
	arrows   *ArrowStore
}

// New builds a live Doc from a loaded document. Arrows whose endpoints
// reference missing blocks (possible in hand-edited files) are dropped here
// so the referential invariant holds for the whole session.
func New(d domain.Document) *Doc {
	doc := &Doc{}
	doc.Restore(d)
	return doc
}

// Restore replaces the entire live state with a snapshot. Used at load and
// by undo/redo; derived view state must be rebuilt by the caller.
func (doc *Doc) Restore(d domain.Document) {
	c := d.Clone()
	if strings.TrimSpace(c.PageName) == "" {
		c.PageName = domain.DefaultPageName
	}
	doc.pageName = c.PageName
	doc.blocks = NewBlockStore(c.Blocks)
	doc.arrows = NewArrowStore(nil)
	for _, a := range c.Arrows {
		if c.Blocks[a.From.Block] == nil || c.Blocks[a.To.Block] == nil {
			continue
		}
		doc.arrows.Add(a.From, a.To, a.Color, a.Alpha)
	}
}

// Snapshot returns a deep copy of the current state.
func (doc *Doc) Snapshot() domain.Document {
	d := domain.Document{
		PageName: doc.pageName,
		Blocks:   make(map[string]*domain.Block, doc.blocks.Len()),
		Arrows:   doc.arrows.All(),
	}
	for _, id := range doc.blocks.IDs() {
		d.Blocks[id] = doc.blocks.Get(id).Clone()
	}
	return d
}

// Blocks exposes the block store.
func (doc *Doc) Blocks() *BlockStore { return doc.blocks }

// Arrows exposes the arrow store.
func (doc *Doc) Arrows() *ArrowStore { return doc.arrows }

// PageName returns the page title.
func (doc *Doc) PageName() string { return doc.pageName }

// SetPageName sets the page title, falling back to the default when the new
// name is empty after trimming. Returns true when the title changed.
func (doc *Doc) SetPageName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		name = domain.DefaultPageName
	}
	if name == doc.pageName {
		return false
	}
	doc.pageName = name
	return true
}

// AddBlockForRange creates a block for a host-supplied file range with the
// next free numeric id, default geometry, and a title equal to the id.
func (doc *Doc) AddBlockForRange(path string, startLine, endLine int) *domain.Block {
	if endLine < startLine {
		startLine, endLine = endLine, startLine
	}
	b := &domain.Block{
		ID:        doc.blocks.AllocateID(),
		Path:      path,
		StartLine: startLine,
		EndLine:   endLine,
		X:         domain.DefaultBlockX,
		Y:         domain.DefaultBlockY,
		W:         domain.DefaultBlockW,
		H:         domain.DefaultBlockH,
	}
	// AllocateID guarantees the id is free, so Add cannot fail.
	_ = doc.blocks.Add(b)
	return b
}

// PasteBlock clones a source block under the next free numeric id, slightly
// offset so the copy is visible.
func (doc *Doc) PasteBlock(src domain.Block) *domain.Block {
	b := src.Clone()
	b.ID = doc.blocks.AllocateID()
	b.X += PasteOffset
	b.Y += PasteOffset
	_ = doc.blocks.Add(b)
	return b
}

// AddArrow appends an arrow after checking that both anchors reference
// existing blocks. Returns the new index, or -1 when the arrow is rejected
// (dangling reference or identical endpoints).
func (doc *Doc) AddArrow(from, to domain.Anchor, color string, alpha float64) int {
	if doc.blocks.Get(from.Block) == nil || doc.blocks.Get(to.Block) == nil {
		return -1
	}
	return doc.arrows.Add(from, to, color, alpha)
}

// DeleteBlock removes a block and every arrow touching it as one atomic
// step.
func (doc *Doc) DeleteBlock(id string) bool {
	if !doc.blocks.Delete(id) {
		return false
	}
	doc.arrows.RemoveAllReferencing(id)
	return true
}

// ── Z-order ────────────────────────────────────────────────
// Each operation renumbers block ids and rewrites arrow references with the
// same id→id mapping in one step. The returned mapping is nil on no-ops.

// RaiseBlock swaps the block with the next numeric id above it.
func (doc *Doc) RaiseBlock(id string) map[string]string {
	return doc.renumber(doc.blocks.MoveUp(id))
}

// LowerBlock swaps the block with the next numeric id below it.
func (doc *Doc) LowerBlock(id string) map[string]string {
	return doc.renumber(doc.blocks.MoveDown(id))
}

// BringToFront gives the block the maximum numeric id.
func (doc *Doc) BringToFront(id string) map[string]string {
	return doc.renumber(doc.blocks.MoveToTop(id))
}

// SendToBack gives the block the minimum numeric id.
func (doc *Doc) SendToBack(id string) map[string]string {
	return doc.renumber(doc.blocks.MoveToBottom(id))
}

func (doc *Doc) renumber(remap map[string]string) map[string]string {
	if len(remap) == 0 {
		return nil
	}
	doc.arrows.RemapBlockIDs(remap)
	return remap
}
