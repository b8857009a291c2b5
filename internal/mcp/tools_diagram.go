package mcpserver

import (
	"context"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rany1024/CodeMapFree/internal/domain"
)

// ── Page tools ─────────────────────────────────────────────

func (s *Server) registerPageTools() {
	s.mcp.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Return the full diagram: page name, all blocks, all arrows"),
	), s.handleGetPage)

	s.mcp.AddTool(mcp.NewTool("set_page_name",
		mcp.WithDescription("Rename the page. An empty name resets it to the default."),
		mcp.WithString("name", mcp.Description("New page name"), mcp.Required()),
	), s.handleSetPageName)
}

func (s *Server) handleGetPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.controller.Snapshot()
	return jsonResult(pageSummary{
		PageName: snap.PageName,
		Blocks:   summarizeBlocks(snap),
		Arrows:   summarizeArrows(snap),
	})
}

func (s *Server) handleSetPageName(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, _ := args["name"].(string)
	s.controller.SetPageName(ctx, name)
	return textResult(fmt.Sprintf("Page is now named %q", s.controller.PageName())), nil
}

// ── Block tools ────────────────────────────────────────────

func (s *Server) registerBlockTools() {
	s.mcp.AddTool(mcp.NewTool("add_block",
		mcp.WithDescription("Pin a file range onto the canvas as a new block. The block is sized to its content once the excerpt loads."),
		mcp.WithString("path", mcp.Description("Source path relative to the workspace root"), mcp.Required()),
		mcp.WithNumber("startLine", mcp.Description("First line, 1-based inclusive"), mcp.Required()),
		mcp.WithNumber("endLine", mcp.Description("Last line, 1-based inclusive"), mcp.Required()),
	), s.handleAddBlock)

	s.mcp.AddTool(mcp.NewTool("list_blocks",
		mcp.WithDescription("List all blocks with their geometry, back to front"),
	), s.handleListBlocks)

	s.mcp.AddTool(mcp.NewTool("rename_block",
		mcp.WithDescription("Change a block's display title. The id stays stable; arrows keep working."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("name", mcp.Description("New display name"), mcp.Required()),
	), s.handleRenameBlock)

	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Move a block to a new canvas position"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New X position"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("New Y position"), mcp.Required()),
	), s.handleMoveBlock)

	s.mcp.AddTool(mcp.NewTool("resize_block",
		mcp.WithDescription("Resize a block; width and height are clamped to the minimums"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("New width"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("New height"), mcp.Required()),
	), s.handleResizeBlock)

	s.mcp.AddTool(mcp.NewTool("delete_block",
		mcp.WithDescription("Delete a block. Every arrow touching it is removed too."),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
	), s.handleDeleteBlock)

	s.mcp.AddTool(mcp.NewTool("raise_block",
		mcp.WithDescription("Swap the block's z-order with the block just above it"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
	), s.zOrderHandler(s.controllerRaise))

	s.mcp.AddTool(mcp.NewTool("lower_block",
		mcp.WithDescription("Swap the block's z-order with the block just below it"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
	), s.zOrderHandler(s.controllerLower))

	s.mcp.AddTool(mcp.NewTool("bring_to_front",
		mcp.WithDescription("Move the block to the top of the z-order"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
	), s.zOrderHandler(s.controllerFront))

	s.mcp.AddTool(mcp.NewTool("send_to_back",
		mcp.WithDescription("Move the block to the bottom of the z-order"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
	), s.zOrderHandler(s.controllerBack))

	s.mcp.AddTool(mcp.NewTool("paste_block",
		mcp.WithDescription("Duplicate a block under the next free id, slightly offset"),
		mcp.WithString("blockId", mcp.Description("Block ID to copy"), mcp.Required()),
	), s.handlePasteBlock)

	s.mcp.AddTool(mcp.NewTool("open_block",
		mcp.WithDescription("Ask the host editor to navigate to the block's source range"),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
	), s.handleOpenBlock)
}

func (s *Server) handleAddBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, err := requireString(args, "path")
	if err != nil {
		return nil, err
	}
	start := getInt(args, "startLine", 1)
	end := getInt(args, "endLine", start)
	b := s.app.AddBlock(path, start, end)
	return jsonResult(summarizeBlock(&b))
}

func (s *Server) handleListBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(summarizeBlocks(s.controller.Snapshot()))
}

func (s *Server) handleRenameBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "blockId")
	if err != nil {
		return nil, err
	}
	name, err := requireString(args, "name")
	if err != nil {
		return nil, err
	}
	if err := s.controller.CommitRename(ctx, id, name); err != nil {
		return nil, fmt.Errorf("rename block: %w", err)
	}
	return textResult(fmt.Sprintf("Block %s renamed", id)), nil
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "blockId")
	if err != nil {
		return nil, err
	}
	x := getFloat(args, "x", 0)
	y := getFloat(args, "y", 0)
	if !s.controller.MoveBlockTo(ctx, id, x, y) {
		return nil, fmt.Errorf("block %s not found", id)
	}
	return textResult(fmt.Sprintf("Block %s moved to (%.0f, %.0f)", id, x, y)), nil
}

func (s *Server) handleResizeBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "blockId")
	if err != nil {
		return nil, err
	}
	w := getFloat(args, "width", domain.DefaultBlockW)
	h := getFloat(args, "height", domain.DefaultBlockH)
	if !s.controller.ResizeBlockTo(ctx, id, w, h) {
		return nil, fmt.Errorf("block %s not found", id)
	}
	return textResult(fmt.Sprintf("Block %s resized to (%.0f × %.0f)", id, w, h)), nil
}

func (s *Server) handleDeleteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "blockId")
	if err != nil {
		return nil, err
	}
	if !s.controller.DeleteBlock(ctx, id) {
		return nil, fmt.Errorf("block %s not found", id)
	}
	return textResult(fmt.Sprintf("Block %s deleted", id)), nil
}

func (s *Server) handlePasteBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "blockId")
	if err != nil {
		return nil, err
	}
	src := s.controller.Snapshot().Blocks[id]
	if src == nil {
		return nil, fmt.Errorf("block %s not found", id)
	}
	cp := s.controller.PasteBlock(ctx, *src)
	return jsonResult(summarizeBlock(&cp))
}

func (s *Server) handleOpenBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "blockId")
	if err != nil {
		return nil, err
	}
	if !s.app.OpenInEditor(id) {
		return nil, fmt.Errorf("block %s not found", id)
	}
	return textResult(fmt.Sprintf("Opening block %s in the editor", id)), nil
}

// zOrderHandler wraps the four renumbering operations, which share their
// argument shape and replies.
func (s *Server) zOrderHandler(op func(context.Context, string) bool) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		id, err := requireString(args, "blockId")
		if err != nil {
			return nil, err
		}
		if !op(ctx, id) {
			return textResult(fmt.Sprintf("Block %s is already there (or has a non-numeric id)", id)), nil
		}
		return jsonResult(summarizeBlocks(s.controller.Snapshot()))
	}
}

func (s *Server) controllerRaise(ctx context.Context, id string) bool {
	return s.controller.RaiseBlock(ctx, id)
}
func (s *Server) controllerLower(ctx context.Context, id string) bool {
	return s.controller.LowerBlock(ctx, id)
}
func (s *Server) controllerFront(ctx context.Context, id string) bool {
	return s.controller.BringToFront(ctx, id)
}
func (s *Server) controllerBack(ctx context.Context, id string) bool {
	return s.controller.SendToBack(ctx, id)
}

// ── Arrow tools ────────────────────────────────────────────

func (s *Server) registerArrowTools() {
	s.mcp.AddTool(mcp.NewTool("draw_arrow",
		mcp.WithDescription("Connect two content-relative points with an arrow. Offsets are measured from each block's content origin."),
		mcp.WithString("fromBlock", mcp.Description("Source block ID"), mcp.Required()),
		mcp.WithNumber("fromX", mcp.Description("Source offset X"), mcp.Required()),
		mcp.WithNumber("fromY", mcp.Description("Source offset Y"), mcp.Required()),
		mcp.WithString("toBlock", mcp.Description("Target block ID"), mcp.Required()),
		mcp.WithNumber("toX", mcp.Description("Target offset X"), mcp.Required()),
		mcp.WithNumber("toY", mcp.Description("Target offset Y"), mcp.Required()),
		mcp.WithString("color", mcp.Description("CSS color (optional)")),
		mcp.WithNumber("alpha", mcp.Description("Opacity 0..1 (optional, default 1)")),
	), s.handleDrawArrow)

	s.mcp.AddTool(mcp.NewTool("list_arrows",
		mcp.WithDescription("List all arrows in order with their anchors"),
	), s.handleListArrows)

	s.mcp.AddTool(mcp.NewTool("delete_arrow",
		mcp.WithDescription("Delete the arrow at the given index"),
		mcp.WithNumber("index", mcp.Description("Arrow index from list_arrows"), mcp.Required()),
	), s.handleDeleteArrow)
}

func (s *Server) handleDrawArrow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	fromBlock, err := requireString(args, "fromBlock")
	if err != nil {
		return nil, err
	}
	toBlock, err := requireString(args, "toBlock")
	if err != nil {
		return nil, err
	}
	from := domain.Anchor{Block: fromBlock, X: getFloat(args, "fromX", 0), Y: getFloat(args, "fromY", 0)}
	to := domain.Anchor{Block: toBlock, X: getFloat(args, "toX", 0), Y: getFloat(args, "toY", 0)}
	color, _ := args["color"].(string)
	alpha := getFloat(args, "alpha", domain.DefaultArrowAlpha)
	idx := s.controller.AddArrow(ctx, from, to, color, alpha)
	if idx < 0 {
		return nil, fmt.Errorf("arrow rejected: endpoints must reference existing blocks and differ")
	}
	return textResult(fmt.Sprintf("Arrow %d drawn from block %s to block %s", idx, fromBlock, toBlock)), nil
}

func (s *Server) handleListArrows(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(summarizeArrows(s.controller.Snapshot()))
}

func (s *Server) handleDeleteArrow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	idx := getInt(args, "index", -1)
	if !s.controller.DeleteArrowAt(ctx, idx) {
		return nil, fmt.Errorf("no arrow at index %d", idx)
	}
	return textResult(fmt.Sprintf("Arrow %d deleted", idx)), nil
}

// ── History tools ──────────────────────────────────────────

func (s *Server) registerHistoryTools() {
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last edit. No-op at the loaded state."),
	), s.handleUndo)

	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the next edit. No-op at the newest state."),
	), s.handleRedo)
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.controller.Undo(ctx) {
		return textResult("Nothing to undo"), nil
	}
	return textResult("Undone"), nil
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !s.controller.Redo(ctx) {
		return textResult("Nothing to redo"), nil
	}
	return textResult("Redone"), nil
}

// ── Helper types ───────────────────────────────────────────

type pageSummary struct {
	PageName string         `json:"pageName"`
	Blocks   []blockSummary `json:"blocks"`
	Arrows   []arrowSummary `json:"arrows"`
}

type arrowSummary struct {
	Index int           `json:"index"`
	From  domain.Anchor `json:"from"`
	To    domain.Anchor `json:"to"`
	Color string        `json:"color"`
	Alpha float64       `json:"alpha"`
}

type blockSummary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Path      string  `json:"path"`
	StartLine int     `json:"startLine"`
	EndLine   int     `json:"endLine"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	W         float64 `json:"w"`
	H         float64 `json:"h"`
}

func summarizeBlock(b *domain.Block) blockSummary {
	return blockSummary{
		ID:        b.ID,
		Name:      b.Title(),
		Path:      b.Path,
		StartLine: b.StartLine,
		EndLine:   b.EndLine,
		X:         b.X, Y: b.Y, W: b.W, H: b.H,
	}
}

func summarizeBlocks(snap domain.Document) []blockSummary {
	out := make([]blockSummary, 0, len(snap.Blocks))
	for _, b := range snap.Blocks {
		out = append(out, summarizeBlock(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func summarizeArrows(snap domain.Document) []arrowSummary {
	out := make([]arrowSummary, 0, len(snap.Arrows))
	for i, a := range snap.Arrows {
		out = append(out, arrowSummary{Index: i, From: a.From, To: a.To, Color: a.Color, Alpha: a.Alpha})
	}
	return out
}
