package domain

// Geometry constants shared by the stores, the resolver, and the controller.
const (
	MinBlockW = 160.0
	MinBlockH = 80.0

	DefaultBlockX = 50.0
	DefaultBlockY = 50.0
	DefaultBlockW = 400.0
	DefaultBlockH = 300.0
)

// DefaultPageName is used when the page title is empty after trimming.
const DefaultPageName = "Code Map"

// Block is one pinned excerpt: a contiguous line range from one source file
// with independent position and size on the canvas. ID is the map key in the
// persisted document and is what arrows reference; it stays stable for the
// block's lifetime. DisplayName is the user-facing title and may change
// freely — an empty DisplayName means the title equals the ID.
type Block struct {
	ID          string
	DisplayName string
	Path        string
	StartLine   int
	EndLine     int
	X           float64
	Y           float64
	W           float64
	H           float64
}

// Title returns the user-facing name of the block.
func (b *Block) Title() string {
	if b.DisplayName != "" {
		return b.DisplayName
	}
	return b.ID
}

// Clone returns a copy of the block.
func (b *Block) Clone() *Block {
	c := *b
	return &c
}
