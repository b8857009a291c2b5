// Package geometry converts between the three coordinate frames of the
// canvas: absolute canvas space, block frames, and content-relative anchor
// offsets. Anchor offsets are measured from the content origin — the
// top-left of a block's scrollable text area at zero scroll — so they stay
// valid while the block scrolls, moves, or resizes.
package geometry

import (
	"errors"

	"github.com/rany1024/CodeMapFree/internal/domain"
)

// Frame metrics of a rendered block.
const (
	HeaderHeight = 28.0
	BorderWidth  = 2.0
	HandleSize   = 8.0
)

// ErrBlockGone is returned when resolution is attempted against a deleted
// block; the caller must drop or skip the arrow rather than render a
// dangling anchor.
var ErrBlockGone = errors.New("anchor references a deleted block")

// Point is a position in canvas space.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle in canvas space.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Scroll is the current scroll offset of a block's content pane.
type Scroll struct {
	X, Y float64
}

// Frame returns the block's outer rectangle.
func Frame(b *domain.Block) Rect {
	return Rect{X: b.X, Y: b.Y, W: b.W, H: b.H}
}

// HeaderRect returns the draggable title strip at the top of the block.
func HeaderRect(b *domain.Block) Rect {
	return Rect{X: b.X, Y: b.Y, W: b.W, H: HeaderHeight}
}

// ContentRect returns the visible content viewport inside the borders,
// below the header.
func ContentRect(b *domain.Block) Rect {
	return Rect{
		X: b.X + BorderWidth,
		Y: b.Y + HeaderHeight + BorderWidth,
		W: b.W - 2*BorderWidth,
		H: b.H - HeaderHeight - 2*BorderWidth,
	}
}

// ContentOrigin returns the canvas position of the content area's top-left
// corner, the zero point of the anchor frame before scrolling is applied.
func ContentOrigin(b *domain.Block) Point {
	return Point{X: b.X + BorderWidth, Y: b.Y + HeaderHeight + BorderWidth}
}

// ResolveAnchor maps a content-relative offset to absolute canvas
// coordinates, accounting for the block's current scroll. It must be
// recomputed on every redraw: position, size, and scroll all change
// independently of the stored offset.
func ResolveAnchor(b *domain.Block, sc Scroll, offsetX, offsetY float64) (Point, error) {
	if b == nil {
		return Point{}, ErrBlockGone
	}
	origin := ContentOrigin(b)
	return Point{
		X: origin.X - sc.X + offsetX,
		Y: origin.Y - sc.Y + offsetY,
	}, nil
}

// OffsetFromClick is the inverse of ResolveAnchor: it maps a canvas click
// inside the block's content to a scroll-independent content offset.
func OffsetFromClick(b *domain.Block, sc Scroll, click Point) (float64, float64) {
	origin := ContentOrigin(b)
	return click.X - origin.X + sc.X, click.Y - origin.Y + sc.Y
}
