// Package engine drives the diagram: it owns the live document, the
// history stack, and the pointer-gesture state machine that turns raw
// input into store mutations. Rendering hosts read store state back out;
// they never write geometry themselves.
package engine

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/rany1024/CodeMapFree/internal/content"
	"github.com/rany1024/CodeMapFree/internal/document"
	"github.com/rany1024/CodeMapFree/internal/domain"
	"github.com/rany1024/CodeMapFree/internal/geometry"
	"github.com/rany1024/CodeMapFree/internal/history"
)

// Mode is the controller's active gesture state. Exactly one is active at a
// time; selection is orthogonal and layered on top of any of them, except
// while an arrow or endpoint gesture is in progress.
type Mode int

const (
	ModeIdle Mode = iota
	ModeDragging
	ModeResizing
	ModeArrowDrawing
	ModeEndpointEditing
)

// ArrowHitSlop is how close (canvas units) a click must land to an arrow's
// line to select it.
const ArrowHitSlop = 6.0

// Highlighter renders excerpt text to display markup. Cosmetic only.
type Highlighter func(text, languageHint string) (string, error)

// RenderedContent is the per-block display state derived from a fetched
// excerpt. It is never persisted and is rebuilt after undo/redo.
type RenderedContent struct {
	Lines  []string
	Markup string
}

// ResolvedArrow is an arrow with both anchors resolved to canvas points for
// the current block geometry and scroll offsets.
type ResolvedArrow struct {
	Index    int
	From     geometry.Point
	To       geometry.Point
	Color    string
	Alpha    float64
	Selected bool
}

// Controller is the interaction state machine plus everything it mutates.
// All methods are safe for concurrent use; in practice there is one input
// source and one fetch-result pump.
type Controller struct {
	mu sync.Mutex

	doc       *document.Doc
	history   *history.History
	loader    *content.Loader
	emitter   EventEmitter
	highlight Highlighter
	onPersist func(domain.Document)

	viewport geometry.Rect

	// Gesture context. A non-zero dragID/resizeID, a non-nil arrowStart,
	// or editingEndpoint each mark one active mode; see Mode.
	dragID      string
	dragOffset  geometry.Point
	resizeID    string
	resizeDir   geometry.Direction
	resizeStart geometry.Rect
	downAt      geometry.Point
	arrowMode   bool
	arrowStart  *domain.Anchor
	preview     geometry.Point
	editingEnd  bool
	editArrow   int
	editWhich   document.Endpoint

	// Orthogonal selection.
	selectedBlock string
	selectedArrow int

	// Arrow style applied to newly drawn arrows.
	arrowColor string
	arrowAlpha float64

	// Derived view state, keyed by block id.
	scrolls  map[string]geometry.Scroll
	rendered map[string]*RenderedContent

	// Block awaiting its first excerpt for fit-and-center before paint.
	pendingAutoSize string

	redrawPending bool
}

// New builds a controller over a loaded document. The initial snapshot is
// recorded immediately so the first edit can always be undone back to the
// loaded state. onPersist receives every snapshot that must reach disk,
// including states restored by undo/redo.
func New(d domain.Document, loader *content.Loader, emitter EventEmitter, onPersist func(domain.Document)) *Controller {
	doc := document.New(d)
	return &Controller{
		doc:           doc,
		history:       history.New(doc.Snapshot()),
		loader:        loader,
		emitter:       emitter,
		highlight:     content.Highlight,
		onPersist:     onPersist,
		viewport:      geometry.Rect{W: 1280, H: 800},
		selectedArrow: -1,
		arrowColor:    domain.DefaultArrowColor,
		arrowAlpha:    domain.DefaultArrowAlpha,
		scrolls:       map[string]geometry.Scroll{},
		rendered:      map[string]*RenderedContent{},
	}
}

// SetHighlighter overrides the markup renderer. nil disables highlighting.
func (c *Controller) SetHighlighter(h Highlighter) {
	c.mu.Lock()
	c.highlight = h
	c.mu.Unlock()
}

// SetViewport tells the controller the host's visible canvas area, used for
// auto-sizing and centering new blocks.
func (c *Controller) SetViewport(r geometry.Rect) {
	c.mu.Lock()
	c.viewport = r
	c.mu.Unlock()
}

// Mode returns the active gesture state.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modeLocked()
}

func (c *Controller) modeLocked() Mode {
	switch {
	case c.dragID != "":
		return ModeDragging
	case c.resizeID != "":
		return ModeResizing
	case c.arrowStart != nil:
		return ModeArrowDrawing
	case c.editingEnd:
		return ModeEndpointEditing
	default:
		return ModeIdle
	}
}

// Snapshot returns a deep copy of the current document.
func (c *Controller) Snapshot() domain.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.Snapshot()
}

// Selection returns the selected block id ("" when none) and the selected
// arrow index (-1 when none).
func (c *Controller) Selection() (string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedBlock, c.selectedArrow
}

// CanUndo and CanRedo expose history cursor positions for host UI state.
func (c *Controller) CanUndo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.CanUndo()
}

func (c *Controller) CanRedo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.CanRedo()
}

// ── Pointer gestures ───────────────────────────────────────

// PointerDown feeds a press at canvas point p into the state machine.
func (c *Controller) PointerDown(ctx context.Context, p geometry.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.arrowStart != nil:
		// Second click of the two-click arrow gesture.
		if anchor, ok := c.anchorAtLocked(p); ok {
			if anchor.Equal(*c.arrowStart) {
				break // identical anchor: rejected, keep drawing
			}
			if c.doc.AddArrow(*c.arrowStart, anchor, c.arrowColor, c.arrowAlpha) >= 0 {
				c.recordLocked(ctx)
			}
			// Stay in arrow mode for consecutive arrows.
			c.arrowStart = nil
		} else {
			c.arrowStart = nil // empty canvas drops the pending start
		}
	case c.editingEnd:
		if anchor, ok := c.anchorAtLocked(p); ok {
			c.doc.Arrows().UpdateEndpoint(c.editArrow, c.editWhich, anchor)
			c.recordLocked(ctx)
		}
		// Empty canvas cancels the edit; the arrow stays selected.
		c.editingEnd = false
	case c.arrowMode:
		if anchor, ok := c.anchorAtLocked(p); ok {
			a := anchor
			c.arrowStart = &a
			c.preview = p
		}
	default:
		c.pointerDownIdleLocked(p)
	}
	c.scheduleRedrawLocked(ctx)
}

func (c *Controller) pointerDownIdleLocked(p geometry.Point) {
	if c.selectedArrow >= 0 {
		if which, ok := c.hitEndpointHandleLocked(p); ok {
			c.editingEnd = true
			c.editArrow = c.selectedArrow
			c.editWhich = which
			return
		}
	}
	if c.selectedBlock != "" {
		if b := c.doc.Blocks().Get(c.selectedBlock); b != nil {
			if dir, ok := geometry.HitResizeHandle(b, p); ok {
				c.resizeID = b.ID
				c.resizeDir = dir
				c.resizeStart = geometry.Frame(b)
				c.downAt = p
				return
			}
		}
	}
	if b := c.blockAtLocked(p); b != nil {
		c.selectedBlock = b.ID
		c.selectedArrow = -1
		if geometry.HeaderRect(b).Contains(p) {
			c.dragID = b.ID
			c.dragOffset = geometry.Point{X: p.X - b.X, Y: p.Y - b.Y}
		}
		return
	}
	if idx, ok := c.arrowAtLocked(p); ok {
		c.selectedArrow = idx
		c.selectedBlock = ""
		return
	}
	c.selectedBlock = ""
	c.selectedArrow = -1
}

// PointerMove updates the live gesture, if any. Motion never records
// history; only release commits.
func (c *Controller) PointerMove(ctx context.Context, p geometry.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.dragID != "":
		if b := c.doc.Blocks().Get(c.dragID); b != nil {
			b.X = math.Max(p.X-c.dragOffset.X, 0)
			b.Y = math.Max(p.Y-c.dragOffset.Y, 0)
		}
	case c.resizeID != "":
		if b := c.doc.Blocks().Get(c.resizeID); b != nil {
			r := geometry.ResizeRect(c.resizeStart, c.resizeDir, p.X-c.downAt.X, p.Y-c.downAt.Y)
			b.X, b.Y, b.W, b.H = r.X, r.Y, r.W, r.H
		}
	case c.arrowStart != nil:
		c.preview = p
	default:
		return
	}
	c.scheduleRedrawLocked(ctx)
}

// PointerUp commits a settled drag or resize through SetGeometry and
// records one history entry.
func (c *Controller) PointerUp(ctx context.Context, p geometry.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.dragID != "":
		if b := c.doc.Blocks().Get(c.dragID); b != nil {
			c.doc.Blocks().SetGeometry(b.ID, b.X, b.Y, b.W, b.H)
			c.recordLocked(ctx)
		}
		c.dragID = ""
	case c.resizeID != "":
		if b := c.doc.Blocks().Get(c.resizeID); b != nil {
			c.doc.Blocks().SetGeometry(b.ID, b.X, b.Y, b.W, b.H)
			c.recordLocked(ctx)
		}
		c.resizeID = ""
	}
}

// ToggleArrowMode flips arrow-draw mode and returns the new state. Leaving
// the mode drops any half-drawn arrow.
func (c *Controller) ToggleArrowMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.arrowMode = !c.arrowMode
	if !c.arrowMode {
		c.arrowStart = nil
	}
	return c.arrowMode
}

// ArrowModeActive reports whether arrow drawing is toggled on.
func (c *Controller) ArrowModeActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.arrowMode
}

// SetArrowStyle sets the color and alpha applied to newly drawn arrows.
func (c *Controller) SetArrowStyle(color string, alpha float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if color != "" {
		c.arrowColor = color
	}
	c.arrowAlpha = math.Min(math.Max(alpha, 0), 1)
}

// KeyDelete removes the selected arrow, or else the selected block with its
// arrows cascading. Ignored while an arrow or endpoint gesture is active.
func (c *Controller) KeyDelete(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.arrowStart != nil || c.editingEnd {
		return
	}
	switch {
	case c.selectedArrow >= 0:
		if c.doc.Arrows().RemoveAt(c.selectedArrow) {
			c.recordLocked(ctx)
		}
		c.selectedArrow = -1
	case c.selectedBlock != "":
		c.deleteBlockLocked(ctx, c.selectedBlock)
		c.selectedBlock = ""
	}
	c.scheduleRedrawLocked(ctx)
}

// CommitRename applies an explicitly confirmed title edit. Empty or
// unchanged text is a silent no-op; a collision with another block's id is
// rejected and surfaced, since it is user-initiated and actionable.
func (c *Controller) CommitRename(ctx context.Context, id, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed, err := c.doc.Blocks().Rename(id, text)
	if err != nil {
		c.emitter.Emit(ctx, EventRenameRejected, map[string]string{
			"blockId": id,
			"reason":  err.Error(),
		})
		return err
	}
	if changed {
		c.recordLocked(ctx)
		c.scheduleRedrawLocked(ctx)
	}
	return nil
}

// ── Document operations (host/tool driven) ─────────────────

// PageName returns the page title.
func (c *Controller) PageName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc.PageName()
}

// SetPageName renames the page, recording history when it changed.
func (c *Controller) SetPageName(ctx context.Context, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc.SetPageName(name) {
		c.recordLocked(ctx)
	}
}

// AddBlockForRange creates a block for a host-supplied file range and
// starts its excerpt fetch. The create is committed once, when the content
// arrives and the block has been fitted and centered.
func (c *Controller) AddBlockForRange(ctx context.Context, path string, startLine, endLine int) domain.Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.doc.AddBlockForRange(path, startLine, endLine)
	c.pendingAutoSize = b.ID
	c.loader.Request(b)
	return *b
}

// PasteBlock duplicates a block under the next free id and records once.
func (c *Controller) PasteBlock(ctx context.Context, src domain.Block) domain.Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.doc.PasteBlock(src)
	c.selectedBlock = b.ID
	c.selectedArrow = -1
	c.recordLocked(ctx)
	c.loader.Request(b)
	return *b
}

// DeleteBlock removes a block by id with cascading arrow removal.
func (c *Controller) DeleteBlock(ctx context.Context, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ok := c.deleteBlockLocked(ctx, id)
	if ok {
		if c.selectedBlock == id {
			c.selectedBlock = ""
		}
		c.scheduleRedrawLocked(ctx)
	}
	return ok
}

func (c *Controller) deleteBlockLocked(ctx context.Context, id string) bool {
	if !c.doc.DeleteBlock(id) {
		return false
	}
	c.loader.Cancel(id)
	delete(c.rendered, id)
	delete(c.scrolls, id)
	// Arrow indices shifted; drop any arrow selection.
	c.selectedArrow = -1
	if c.pendingAutoSize == id {
		c.pendingAutoSize = ""
	}
	c.recordLocked(ctx)
	return true
}

// MoveBlockTo commits a block position directly (tool-driven move).
func (c *Controller) MoveBlockTo(ctx context.Context, id string, x, y float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.doc.Blocks().Get(id)
	if b == nil {
		return false
	}
	c.doc.Blocks().SetGeometry(id, x, y, b.W, b.H)
	c.recordLocked(ctx)
	c.scheduleRedrawLocked(ctx)
	return true
}

// ResizeBlockTo commits a block size directly (tool-driven resize).
func (c *Controller) ResizeBlockTo(ctx context.Context, id string, w, h float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.doc.Blocks().Get(id)
	if b == nil {
		return false
	}
	c.doc.Blocks().SetGeometry(id, b.X, b.Y, w, h)
	c.recordLocked(ctx)
	c.scheduleRedrawLocked(ctx)
	return true
}

// AddArrow appends an arrow between two anchors, recording on success.
func (c *Controller) AddArrow(ctx context.Context, from, to domain.Anchor, color string, alpha float64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.doc.AddArrow(from, to, color, alpha)
	if idx >= 0 {
		c.recordLocked(ctx)
		c.scheduleRedrawLocked(ctx)
	}
	return idx
}

// DeleteArrowAt removes the arrow at index.
func (c *Controller) DeleteArrowAt(ctx context.Context, index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.doc.Arrows().RemoveAt(index) {
		return false
	}
	c.selectedArrow = -1
	c.recordLocked(ctx)
	c.scheduleRedrawLocked(ctx)
	return true
}

// RaiseBlock, LowerBlock, BringToFront, and SendToBack renumber z-order and
// rewrite every reference — arrows, view state, in-flight fetches — in the
// same step.
func (c *Controller) RaiseBlock(ctx context.Context, id string) bool {
	return c.renumber(ctx, id, (*document.Doc).RaiseBlock)
}

func (c *Controller) LowerBlock(ctx context.Context, id string) bool {
	return c.renumber(ctx, id, (*document.Doc).LowerBlock)
}

func (c *Controller) BringToFront(ctx context.Context, id string) bool {
	return c.renumber(ctx, id, (*document.Doc).BringToFront)
}

func (c *Controller) SendToBack(ctx context.Context, id string) bool {
	return c.renumber(ctx, id, (*document.Doc).SendToBack)
}

func (c *Controller) renumber(ctx context.Context, id string, op func(*document.Doc, string) map[string]string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	remap := op(c.doc, id)
	if remap == nil {
		return false
	}
	c.applyRemapToViewLocked(remap)
	c.recordLocked(ctx)
	c.scheduleRedrawLocked(ctx)
	return true
}

func (c *Controller) applyRemapToViewLocked(remap map[string]string) {
	movedRendered := map[string]*RenderedContent{}
	movedScrolls := map[string]geometry.Scroll{}
	for oldID, newID := range remap {
		if rc, ok := c.rendered[oldID]; ok {
			movedRendered[newID] = rc
			delete(c.rendered, oldID)
		}
		if sc, ok := c.scrolls[oldID]; ok {
			movedScrolls[newID] = sc
			delete(c.scrolls, oldID)
		}
	}
	for id, rc := range movedRendered {
		c.rendered[id] = rc
	}
	for id, sc := range movedScrolls {
		c.scrolls[id] = sc
	}
	if newID, ok := remap[c.selectedBlock]; ok {
		c.selectedBlock = newID
	}
	if newID, ok := remap[c.pendingAutoSize]; ok {
		c.pendingAutoSize = newID
	}
	c.loader.RemapBlockIDs(remap)
}

// ── Undo / redo ────────────────────────────────────────────

// Undo restores the previous snapshot. The restored state is persisted but
// deliberately not re-recorded, otherwise undo would corrupt its own stack.
func (c *Controller) Undo(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.history.Undo()
	if !ok {
		return false
	}
	c.restoreLocked(ctx, snap)
	return true
}

// Redo restores the next snapshot, when one exists.
func (c *Controller) Redo(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.history.Redo()
	if !ok {
		return false
	}
	c.restoreLocked(ctx, snap)
	return true
}

// restoreLocked swaps in a snapshot and rebuilds all derived view state —
// restoration is a full rebuild, never a diff-apply.
func (c *Controller) restoreLocked(ctx context.Context, snap domain.Document) {
	c.doc.Restore(snap)
	c.dragID, c.resizeID, c.arrowStart, c.editingEnd = "", "", nil, false
	for id := range c.rendered {
		if c.doc.Blocks().Get(id) == nil {
			delete(c.rendered, id)
		}
	}
	for id := range c.scrolls {
		if c.doc.Blocks().Get(id) == nil {
			delete(c.scrolls, id)
		}
	}
	if c.selectedBlock != "" && c.doc.Blocks().Get(c.selectedBlock) == nil {
		c.selectedBlock = ""
	}
	if c.selectedArrow >= c.doc.Arrows().Len() {
		c.selectedArrow = -1
	}
	for _, id := range c.doc.Blocks().IDs() {
		if _, have := c.rendered[id]; !have {
			c.loader.Request(c.doc.Blocks().Get(id))
		}
	}
	if c.onPersist != nil {
		c.onPersist(c.doc.Snapshot())
	}
	c.scheduleRedrawLocked(ctx)
}

// RefreshDocument replaces the whole document with a host-supplied one,
// optionally flagging one block id as newly created so it is fitted and
// centered when its excerpt arrives.
func (c *Controller) RefreshDocument(ctx context.Context, d domain.Document, newBlockID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.doc.Restore(d)
	c.dragID, c.resizeID, c.arrowStart, c.editingEnd = "", "", nil, false
	c.selectedBlock, c.selectedArrow = "", -1
	c.rendered = map[string]*RenderedContent{}
	c.scrolls = map[string]geometry.Scroll{}
	c.pendingAutoSize = ""
	if newBlockID != "" && c.doc.Blocks().Get(newBlockID) != nil {
		c.pendingAutoSize = newBlockID
	}
	c.recordLocked(ctx)
	for _, id := range c.doc.Blocks().IDs() {
		c.loader.Request(c.doc.Blocks().Get(id))
	}
	c.emitter.Emit(ctx, EventRefreshed, map[string]string{"pageName": c.doc.PageName()})
	c.scheduleRedrawLocked(ctx)
}

// ── Content arrival ────────────────────────────────────────

// ApplyResult applies one fetch completion. Stale results — superseded
// requests or responses for blocks deleted meanwhile — are dropped without
// touching any state.
func (c *Controller) ApplyResult(ctx context.Context, r content.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.loader.Accept(r)
	if !ok {
		return
	}
	b := c.doc.Blocks().Get(id)
	if b == nil {
		return
	}
	text := r.Text
	if r.Err != nil {
		text = content.Placeholder(b.Path, r.Err)
	}
	rc := &RenderedContent{Lines: strings.Split(text, "\n"), Markup: text}
	if c.highlight != nil {
		if markup, err := c.highlight(text, b.Path); err == nil {
			rc.Markup = markup
		}
	}
	c.rendered[id] = rc

	if c.pendingAutoSize == id {
		c.pendingAutoSize = ""
		// A failed fetch renders a placeholder but leaves the block at
		// its default geometry; only real content drives the fit.
		if r.Err == nil {
			w, h := geometry.FitContent(rc.Lines, c.viewport.W)
			x, y := geometry.CenterIn(c.viewport, w, h)
			c.doc.Blocks().SetGeometry(id, x, y, w, h)
		}
		c.selectedBlock = id
		c.selectedArrow = -1
		c.recordLocked(ctx)
	}
	c.scheduleRedrawLocked(ctx)
}

// Rendered returns the display content for a block, or nil while it is
// still loading.
func (c *Controller) Rendered(id string) *RenderedContent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rendered[id]
}

// ── View state ─────────────────────────────────────────────

// SetScroll records a block's content scroll offset. Scrolling is pure view
// state: it changes where anchors resolve, never what they store.
func (c *Controller) SetScroll(id string, sc geometry.Scroll) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.doc.Blocks().Get(id) != nil {
		c.scrolls[id] = sc
	}
}

// ScrollOf returns a block's current scroll offset.
func (c *Controller) ScrollOf(id string) geometry.Scroll {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scrolls[id]
}

// ResolvedArrows resolves every arrow to canvas coordinates for the current
// geometry and scroll. Arrows that fail to resolve are skipped, never
// rendered dangling.
func (c *Controller) ResolvedArrows() []ResolvedArrow {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolvedArrowsLocked()
}

func (c *Controller) resolvedArrowsLocked() []ResolvedArrow {
	out := make([]ResolvedArrow, 0, c.doc.Arrows().Len())
	for i := 0; i < c.doc.Arrows().Len(); i++ {
		a, _ := c.doc.Arrows().At(i)
		from, err := geometry.ResolveAnchor(c.doc.Blocks().Get(a.From.Block), c.scrolls[a.From.Block], a.From.X, a.From.Y)
		if err != nil {
			continue
		}
		to, err := geometry.ResolveAnchor(c.doc.Blocks().Get(a.To.Block), c.scrolls[a.To.Block], a.To.X, a.To.Y)
		if err != nil {
			continue
		}
		out = append(out, ResolvedArrow{
			Index:    i,
			From:     from,
			To:       to,
			Color:    a.Color,
			Alpha:    a.Alpha,
			Selected: i == c.selectedArrow,
		})
	}
	return out
}

// PreviewSegment returns the live preview of a half-drawn arrow: its start
// point and the current pointer position. ok is false outside arrow
// drawing.
func (c *Controller) PreviewSegment() (from, to geometry.Point, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.arrowStart == nil {
		return geometry.Point{}, geometry.Point{}, false
	}
	b := c.doc.Blocks().Get(c.arrowStart.Block)
	start, err := geometry.ResolveAnchor(b, c.scrolls[c.arrowStart.Block], c.arrowStart.X, c.arrowStart.Y)
	if err != nil {
		return geometry.Point{}, geometry.Point{}, false
	}
	return start, c.preview, true
}

// TakeRedraw consumes the coalesced redraw flag. At most one redraw is
// pending however many mutations or fetch results arrived since the host
// last painted.
func (c *Controller) TakeRedraw() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	was := c.redrawPending
	c.redrawPending = false
	return was
}

// ── Internals ──────────────────────────────────────────────

// recordLocked snapshots the document onto the history stack and hands the
// snapshot to the persist hook. Called exactly once per completed mutation.
func (c *Controller) recordLocked(ctx context.Context) {
	snap := c.doc.Snapshot()
	c.history.Record(snap)
	if c.onPersist != nil {
		c.onPersist(snap)
	}
}

func (c *Controller) scheduleRedrawLocked(ctx context.Context) {
	if c.redrawPending {
		return
	}
	c.redrawPending = true
	if c.emitter != nil {
		c.emitter.Emit(ctx, EventRedraw, nil)
	}
}

// blockAtLocked returns the topmost block whose frame contains p.
func (c *Controller) blockAtLocked(p geometry.Point) *domain.Block {
	order := c.doc.Blocks().ZOrder()
	for i := len(order) - 1; i >= 0; i-- {
		b := c.doc.Blocks().Get(order[i])
		if b != nil && geometry.Frame(b).Contains(p) {
			return b
		}
	}
	return nil
}

// anchorAtLocked maps a click inside some block's content viewport to a
// content-relative anchor on that block.
func (c *Controller) anchorAtLocked(p geometry.Point) (domain.Anchor, bool) {
	order := c.doc.Blocks().ZOrder()
	for i := len(order) - 1; i >= 0; i-- {
		b := c.doc.Blocks().Get(order[i])
		if b == nil || !geometry.ContentRect(b).Contains(p) {
			continue
		}
		x, y := geometry.OffsetFromClick(b, c.scrolls[b.ID], p)
		return domain.Anchor{Block: b.ID, X: x, Y: y}, true
	}
	return domain.Anchor{}, false
}

// arrowAtLocked finds the arrow whose line passes within ArrowHitSlop of p.
func (c *Controller) arrowAtLocked(p geometry.Point) (int, bool) {
	for _, ra := range c.resolvedArrowsLocked() {
		if distToSegment(p, ra.From, ra.To) <= ArrowHitSlop {
			return ra.Index, true
		}
	}
	return -1, false
}

// hitEndpointHandleLocked tests the endpoint handles of the selected arrow.
func (c *Controller) hitEndpointHandleLocked(p geometry.Point) (document.Endpoint, bool) {
	for _, ra := range c.resolvedArrowsLocked() {
		if ra.Index != c.selectedArrow {
			continue
		}
		fromBox := geometry.Rect{X: ra.From.X - geometry.HandleSize/2, Y: ra.From.Y - geometry.HandleSize/2, W: geometry.HandleSize, H: geometry.HandleSize}
		if fromBox.Contains(p) {
			return document.EndpointFrom, true
		}
		toBox := geometry.Rect{X: ra.To.X - geometry.HandleSize/2, Y: ra.To.Y - geometry.HandleSize/2, W: geometry.HandleSize, H: geometry.HandleSize}
		if toBox.Contains(p) {
			return document.EndpointTo, true
		}
	}
	return 0, false
}

func distToSegment(p, a, b geometry.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Min(math.Max(t, 0), 1)
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}
