package layout

import (
	"github.com/archvision/reportpdf/internal/parser/html"
)

// Box is a positioned element of the layout tree. Coordinates are absolute
// document pixels with the origin at the top left of the viewport.
type Box interface {
	GetX() float64
	GetY() float64
	GetWidth() float64
	GetHeight() float64
	Shift(dx, dy float64)
	GetNode() *html.Node
}

// Edges holds per-side lengths of margins, borders and paddings.
type Edges struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// Horizontal returns Left + Right.
func (e Edges) Horizontal() float64 { return e.Left + e.Right }

// Vertical returns Top + Bottom.
func (e Edges) Vertical() float64 { return e.Top + e.Bottom }

// Walk visits b and its descendants in document order. Returning false from
// fn skips the children of the visited box.
func Walk(b Box, fn func(Box) bool) {
	if b == nil || !fn(b) {
		return
	}
	if bb, ok := b.(*BlockBox); ok {
		for _, c := range bb.Children {
			Walk(c, fn)
		}
	}
}

// FindBlock returns the first block box in document order matching pred.
func FindBlock(root *BlockBox, pred func(*BlockBox) bool) *BlockBox {
	var found *BlockBox
	Walk(root, func(b Box) bool {
		if found != nil {
			return false
		}
		if bb, ok := b.(*BlockBox); ok && pred(bb) {
			found = bb
			return false
		}
		return true
	})
	return found
}
