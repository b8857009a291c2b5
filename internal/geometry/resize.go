package geometry

import "github.com/rany1024/CodeMapFree/internal/domain"

// Direction names one of the eight resize handles on a block's frame.
type Direction int

const (
	DirN Direction = iota
	DirNE
	DirE
	DirSE
	DirS
	DirSW
	DirW
	DirNW
)

// horizontal/vertical report which axes the handle drags.
func (d Direction) horizontal() bool {
	return d == DirE || d == DirW || d == DirNE || d == DirNW || d == DirSE || d == DirSW
}

func (d Direction) vertical() bool {
	return d == DirN || d == DirS || d == DirNE || d == DirNW || d == DirSE || d == DirSW
}

func (d Direction) west() bool { return d == DirW || d == DirNW || d == DirSW }
func (d Direction) north() bool {
	return d == DirN || d == DirNE || d == DirNW
}

// HitResizeHandle tests the click against the eight handle squares on the
// block's frame: four corners and four edge midpoints.
func HitResizeHandle(b *domain.Block, p Point) (Direction, bool) {
	f := Frame(b)
	midX := f.X + f.W/2
	midY := f.Y + f.H/2
	handles := []struct {
		dir  Direction
		x, y float64
	}{
		{DirNW, f.X, f.Y},
		{DirN, midX, f.Y},
		{DirNE, f.X + f.W, f.Y},
		{DirE, f.X + f.W, midY},
		{DirSE, f.X + f.W, f.Y + f.H},
		{DirS, midX, f.Y + f.H},
		{DirSW, f.X, f.Y + f.H},
		{DirW, f.X, midY},
	}
	for _, h := range handles {
		box := Rect{X: h.x - HandleSize/2, Y: h.y - HandleSize/2, W: HandleSize, H: HandleSize}
		if box.Contains(p) {
			return h.dir, true
		}
	}
	return 0, false
}

// ResizeRect recomputes a rectangle from the starting geometry captured at
// press time and the signed pointer delta along the handle's active axes.
// The dragged edge follows the pointer exactly; when that would push a
// dimension under its minimum, the opposite edge is pulled back in instead.
func ResizeRect(start Rect, dir Direction, dx, dy float64) Rect {
	r := start
	if dir.horizontal() {
		if dir.west() {
			r.X = start.X + dx
			r.W = start.W - dx
			if r.W < domain.MinBlockW {
				r.W = domain.MinBlockW
			}
		} else {
			east := start.X + start.W + dx
			r.W = start.W + dx
			if r.W < domain.MinBlockW {
				r.W = domain.MinBlockW
				r.X = east - domain.MinBlockW
			}
		}
	}
	if dir.vertical() {
		if dir.north() {
			r.Y = start.Y + dy
			r.H = start.H - dy
			if r.H < domain.MinBlockH {
				r.H = domain.MinBlockH
			}
		} else {
			south := start.Y + start.H + dy
			r.H = start.H + dy
			if r.H < domain.MinBlockH {
				r.H = domain.MinBlockH
				r.Y = south - domain.MinBlockH
			}
		}
	}
	return r
}
