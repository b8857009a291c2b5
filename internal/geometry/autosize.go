package geometry

import "github.com/rany1024/CodeMapFree/internal/domain"

// Text metrics used to fit a freshly created block around its rendered
// excerpt before first paint. The values match the canvas's monospace
// rendering; anchors are pixel offsets, so they tolerate small drift here.
const (
	CharWidth      = 7.2
	LineHeight     = 16.0
	ContentPadding = 6.0
)

// FitContent measures rendered excerpt lines and returns a block size that
// fits them: at least the block minimums, at most half the viewport width.
func FitContent(lines []string, viewportW float64) (w, h float64) {
	longest := 0
	for _, line := range lines {
		if n := len([]rune(line)); n > longest {
			longest = n
		}
	}
	w = float64(longest)*CharWidth + 2*(BorderWidth+ContentPadding)
	h = float64(len(lines))*LineHeight + HeaderHeight + 2*(BorderWidth+ContentPadding)
	if maxW := viewportW / 2; w > maxW {
		w = maxW
	}
	if w < domain.MinBlockW {
		w = domain.MinBlockW
	}
	if h < domain.MinBlockH {
		h = domain.MinBlockH
	}
	return w, h
}

// CenterIn returns the position that centers a w×h block in the viewport,
// clamped to non-negative canvas coordinates.
func CenterIn(viewport Rect, w, h float64) (x, y float64) {
	x = viewport.X + (viewport.W-w)/2
	y = viewport.Y + (viewport.H-h)/2
	return max(x, 0), max(y, 0)
}
