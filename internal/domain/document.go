package domain

import (
	"encoding/json"
	"math"
	"strings"
)

// Document is the complete persisted state of one diagram: page title, all
// blocks keyed by id, and the ordered arrow list. It is also the unit of
// undo snapshotting. Block iteration order carries no meaning; arrow order
// is preserved exactly as persisted.
type Document struct {
	PageName string
	Blocks   map[string]*Block
	Arrows   []Arrow
}

// NewDocument returns an empty document with the default page name.
func NewDocument() Document {
	return Document{
		PageName: DefaultPageName,
		Blocks:   map[string]*Block{},
	}
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	c := Document{
		PageName: d.PageName,
		Blocks:   make(map[string]*Block, len(d.Blocks)),
	}
	for id, b := range d.Blocks {
		c.Blocks[id] = b.Clone()
	}
	if d.Arrows != nil {
		c.Arrows = make([]Arrow, len(d.Arrows))
		copy(c.Arrows, d.Arrows)
	}
	return c
}

// ── Wire format ────────────────────────────────────────────
// {"page_name": ..., "codeMap": {id: block}, "arrows": [...]}
// Block "name" is optional: absent means the display name equals the id.
// Arrow "color"/"alpha" are optional with engine-side defaults.

type blockJSON struct {
	Name      string  `json:"name,omitempty"`
	Path      string  `json:"path"`
	StartLine int     `json:"start_line"`
	EndLine   int     `json:"end_line"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	W         float64 `json:"w"`
	H         float64 `json:"h"`
}

type arrowJSON struct {
	From  Anchor   `json:"from"`
	To    Anchor   `json:"to"`
	Color string   `json:"color,omitempty"`
	Alpha *float64 `json:"alpha,omitempty"`
}

type documentJSON struct {
	PageName string               `json:"page_name"`
	CodeMap  map[string]blockJSON `json:"codeMap"`
	Arrows   []arrowJSON          `json:"arrows"`
}

// MarshalJSON writes the document in the persisted wire format.
func (d Document) MarshalJSON() ([]byte, error) {
	out := documentJSON{
		PageName: d.PageName,
		CodeMap:  make(map[string]blockJSON, len(d.Blocks)),
		Arrows:   make([]arrowJSON, 0, len(d.Arrows)),
	}
	for id, b := range d.Blocks {
		bj := blockJSON{
			Path:      b.Path,
			StartLine: b.StartLine,
			EndLine:   b.EndLine,
			X:         b.X, Y: b.Y, W: b.W, H: b.H,
		}
		if b.DisplayName != "" && b.DisplayName != id {
			bj.Name = b.DisplayName
		}
		out.CodeMap[id] = bj
	}
	for _, a := range d.Arrows {
		alpha := a.Alpha
		out.Arrows = append(out.Arrows, arrowJSON{
			From:  a.From,
			To:    a.To,
			Color: a.Color,
			Alpha: &alpha,
		})
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the persisted wire format, filling defaults: the page
// name falls back to DefaultPageName, a missing block name means the title
// equals the id, and missing arrow style fields get the engine defaults.
func (d *Document) UnmarshalJSON(data []byte) error {
	var in documentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	d.PageName = strings.TrimSpace(in.PageName)
	if d.PageName == "" {
		d.PageName = DefaultPageName
	}
	d.Blocks = make(map[string]*Block, len(in.CodeMap))
	for id, bj := range in.CodeMap {
		name := bj.Name
		if name == id {
			name = ""
		}
		d.Blocks[id] = &Block{
			ID:          id,
			DisplayName: name,
			Path:        bj.Path,
			StartLine:   bj.StartLine,
			EndLine:     bj.EndLine,
			X:           bj.X, Y: bj.Y, W: bj.W, H: bj.H,
		}
	}
	d.Arrows = nil
	for _, aj := range in.Arrows {
		a := Arrow{From: aj.From, To: aj.To, Color: aj.Color, Alpha: DefaultArrowAlpha}
		if a.Color == "" {
			a.Color = DefaultArrowColor
		}
		if aj.Alpha != nil {
			a.Alpha = math.Min(math.Max(*aj.Alpha, 0), 1)
		}
		d.Arrows = append(d.Arrows, a)
	}
	return nil
}
