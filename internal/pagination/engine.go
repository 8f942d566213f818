package pagination

import (
	"fmt"
	"math"
	"strings"

	"github.com/archvision/reportpdf/internal/layout"
)

// PageSize is a physical page format in millimeters
type PageSize struct {
	Width  float64
	Height float64
	Name   string
}

// Standard page sizes in portrait orientation
var (
	PageSizeA4     = PageSize{Width: 210, Height: 297, Name: "A4"}
	PageSizeLetter = PageSize{Width: 215.9, Height: 279.4, Name: "Letter"}
	PageSizeLegal  = PageSize{Width: 215.9, Height: 355.6, Name: "Legal"}
	PageSizeA3     = PageSize{Width: 297, Height: 420, Name: "A3"}
	PageSizeA5     = PageSize{Width: 148, Height: 210, Name: "A5"}
)

// LookupPageSize finds a standard page size by name (case-insensitive).
func LookupPageSize(name string) (PageSize, error) {
	for _, ps := range []PageSize{PageSizeA4, PageSizeLetter, PageSizeLegal, PageSizeA3, PageSizeA5} {
		if strings.EqualFold(ps.Name, name) {
			return ps, nil
		}
	}
	return PageSize{}, fmt.Errorf("unknown page size %q", name)
}

// Landscape returns the size with width and height swapped if needed.
func (p PageSize) Landscape() PageSize {
	if p.Width < p.Height {
		p.Width, p.Height = p.Height, p.Width
	}
	return p
}

// Margins represents page margins in millimeters
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// DefaultMargins are the margins of exported reports.
var DefaultMargins = Margins{Top: 15, Right: 10, Bottom: 15, Left: 10}

// Options represents options for the pagination engine
type Options struct {
	PageSize PageSize
	Margins  Margins
}

// Engine maps a captured bitmap onto pages of a physical format.
type Engine struct {
	options Options
}

// NewEngine creates a pagination engine for A4 portrait with default margins
func NewEngine() *Engine {
	return &Engine{
		options: Options{
			PageSize: PageSizeA4,
			Margins:  DefaultMargins,
		},
	}
}

// SetOptions sets the options for the pagination engine
func (e *Engine) SetOptions(options Options) {
	e.options = options
}

// Options returns the current page geometry.
func (e *Engine) Options() Options {
	return e.options
}

// ContentWidthMM is the page width minus left and right margins.
func (e *Engine) ContentWidthMM() float64 {
	return e.options.PageSize.Width - e.options.Margins.Left - e.options.Margins.Right
}

// ContentHeightMM is the page height minus top and bottom margins.
func (e *Engine) ContentHeightMM() float64 {
	return e.options.PageSize.Height - e.options.Margins.Top - e.options.Margins.Bottom
}

// PageHeightPx converts the usable page height into bitmap pixels for a
// bitmap canvasWidth pixels wide that fills the content width.
func (e *Engine) PageHeightPx(canvasWidth int) int {
	return int(math.Floor(float64(canvasWidth) * e.ContentHeightMM() / e.ContentWidthMM()))
}

// Paginate computes the page slices for a bitmap of the given size.
func (e *Engine) Paginate(blocks []layout.BlockPosition, canvasWidth, canvasHeight int, scale float64) []Slice {
	return CalculateSlices(blocks, canvasHeight, e.PageHeightPx(canvasWidth), scale)
}
