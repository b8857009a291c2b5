package domain

// Arrow style defaults applied when the persisted document omits them.
const (
	DefaultArrowColor = "#ff4d4d"
	DefaultArrowAlpha = 1.0
)

// Anchor is a point inside a block's content area, expressed as an offset
// from the content origin — the top-left of the scrollable text area at zero
// scroll. Offsets are canvas units, not line/column indices, so an anchor
// keeps pointing at the same visual spot across scrolling, moving, and
// resizing of its block.
type Anchor struct {
	Block string  `json:"block"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Equal reports whether two anchors name the identical spot.
func (a Anchor) Equal(other Anchor) bool {
	return a.Block == other.Block && a.X == other.X && a.Y == other.Y
}

// Arrow connects two anchors with a colored, translucent line.
type Arrow struct {
	From  Anchor
	To    Anchor
	Color string
	Alpha float64
}

// References reports whether either endpoint names the given block.
func (a Arrow) References(blockID string) bool {
	return a.From.Block == blockID || a.To.Block == blockID
}
