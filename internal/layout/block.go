package layout

import (
	"github.com/archvision/reportpdf/internal/parser/html"
	"github.com/archvision/reportpdf/internal/style"
)

// BlockBox represents a block-level box in the layout. X, Y, Width and Height
// describe the border box.
type BlockBox struct {
	Node     *html.Node
	Style    style.ComputedStyle
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Margin   Edges
	Padding  Edges
	Border   Edges
	Marker   string // list item marker, empty for other boxes
	Children []Box
}

// Tag returns the lower-cased element name of the box or "".
func (b *BlockBox) Tag() string {
	return b.Node.Tag()
}

// ContentX returns the left edge of the content box.
func (b *BlockBox) ContentX() float64 {
	return b.X + b.Border.Left + b.Padding.Left
}

// ContentY returns the top edge of the content box.
func (b *BlockBox) ContentY() float64 {
	return b.Y + b.Border.Top + b.Padding.Top
}

// ContentWidth returns the width of the content box.
func (b *BlockBox) ContentWidth() float64 {
	return max(0, b.Width-b.Border.Horizontal()-b.Padding.Horizontal())
}

// OuterBottom returns the bottom edge including the bottom margin.
func (b *BlockBox) OuterBottom() float64 {
	return b.Y + b.Height + b.Margin.Bottom
}

// GetX returns the x position of the box
func (b *BlockBox) GetX() float64 {
	return b.X
}

// GetY returns the y position of the box
func (b *BlockBox) GetY() float64 {
	return b.Y
}

// GetWidth returns the width of the box
func (b *BlockBox) GetWidth() float64 {
	return b.Width
}

// GetHeight returns the height of the box
func (b *BlockBox) GetHeight() float64 {
	return b.Height
}

// Shift moves the box and all its descendants.
func (b *BlockBox) Shift(dx, dy float64) {
	b.X += dx
	b.Y += dy
	for _, c := range b.Children {
		c.Shift(dx, dy)
	}
}

// GetNode returns the HTML node associated with this box
func (b *BlockBox) GetNode() *html.Node {
	return b.Node
}

// AddChild adds a child box
func (b *BlockBox) AddChild(child Box) {
	b.Children = append(b.Children, child)
}
