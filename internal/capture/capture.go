// Package capture paints a laid out report into a bitmap, the equivalent of a
// DOM-to-canvas screenshot.
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"go.uber.org/zap"

	"github.com/archvision/reportpdf/internal/layout"
	"github.com/archvision/reportpdf/internal/text"
)

var (
	// ErrNoDrawingSurface is returned when the bitmap cannot be allocated,
	// for instance because the content has no area.
	ErrNoDrawingSurface = errors.New("no drawing surface")
	// ErrBitmapTooLarge is returned when the scaled content exceeds the
	// bitmap limits.
	ErrBitmapTooLarge = errors.New("bitmap too large")
)

// Default bitmap limits, the same a browser canvas enforces.
const (
	DefaultMaxDimension = 32767
	DefaultMaxPixels    = 268435456
)

const markerGap = 6.0

// Rasterizer paints layout trees.
type Rasterizer struct {
	Background   color.Color
	MaxDimension int
	MaxPixels    int

	faces  *text.Faces
	logger *zap.Logger
}

// NewRasterizer creates a rasterizer with a white background.
func NewRasterizer(faces *text.Faces, logger *zap.Logger) *Rasterizer {
	if faces == nil {
		faces = text.Shared()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rasterizer{
		Background:   color.White,
		MaxDimension: DefaultMaxDimension,
		MaxPixels:    DefaultMaxPixels,
		faces:        faces,
		logger:       logger,
	}
}

// Capture paints content and its descendants into a bitmap of
// ceil(width*scale) x ceil(height*scale) pixels. The top left corner of the
// content box maps to the bitmap origin.
func (r *Rasterizer) Capture(content *layout.BlockBox, scale float64) (*image.RGBA, error) {
	if content == nil {
		return nil, fmt.Errorf("%w: nothing to capture", ErrNoDrawingSurface)
	}
	if scale <= 0 {
		return nil, fmt.Errorf("invalid scale %v", scale)
	}

	w := int(math.Ceil(content.Width * scale))
	h := int(math.Ceil(content.Height * scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: content is %vx%v", ErrNoDrawingSurface, content.Width, content.Height)
	}
	if w > r.MaxDimension || h > r.MaxDimension || w*h > r.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrBitmapTooLarge, w, h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(r.Background), image.Point{}, draw.Src)

	p := &painter{
		dst:     dst,
		faces:   r.faces,
		scale:   scale,
		originX: content.X,
		originY: content.Y,
	}
	layout.Walk(content, func(b layout.Box) bool {
		p.paint(b)
		return true
	})
	if p.err != nil {
		return nil, p.err
	}

	r.logger.Debug("Captured content",
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Float64("scale", scale))
	return dst, nil
}

type painter struct {
	dst              *image.RGBA
	faces            *text.Faces
	scale            float64
	originX, originY float64
	err              error
}

// rect converts document coordinates into a bitmap rectangle.
func (p *painter) rect(x, y, w, h float64) image.Rectangle {
	x0 := int(math.Round((x - p.originX) * p.scale))
	y0 := int(math.Round((y - p.originY) * p.scale))
	x1 := int(math.Round((x + w - p.originX) * p.scale))
	y1 := int(math.Round((y + h - p.originY) * p.scale))
	return image.Rect(x0, y0, x1, y1)
}

func (p *painter) fill(r image.Rectangle, c color.RGBA) {
	if c.A == 0 || r.Empty() {
		return
	}
	op := draw.Over
	if c.A == 0xff {
		op = draw.Src
	}
	draw.Draw(p.dst, r.Intersect(p.dst.Bounds()), image.NewUniform(c), image.Point{}, op)
}

func (p *painter) text(ft text.Font, x, baseline float64, s string, c color.RGBA) {
	if s == "" || p.err != nil {
		return
	}
	ft.Size *= p.scale
	px := (x - p.originX) * p.scale
	py := (baseline - p.originY) * p.scale
	if err := p.faces.Draw(p.dst, ft, px, py, s, c); err != nil {
		p.err = fmt.Errorf("failed to draw text: %w", err)
	}
}

func (p *painter) paint(b layout.Box) {
	switch v := b.(type) {
	case *layout.BlockBox:
		p.paintBlock(v)
	case *layout.InlineBox:
		p.paintInline(v)
	case *layout.ImageBox:
		p.paintImage(v)
	}
}

func (p *painter) paintBlock(b *layout.BlockBox) {
	if bg, ok := b.Style.Color("background-color"); ok {
		p.fill(p.rect(b.X, b.Y, b.Width, b.Height), bg)
	}

	textColor, ok := b.Style.Color("color")
	if !ok {
		textColor = color.RGBA{A: 0xff}
	}
	side := func(name string) color.RGBA {
		if c, ok := b.Style.Color("border-" + name + "-color"); ok {
			return c
		}
		return textColor
	}
	if b.Border.Top > 0 {
		p.fill(p.rect(b.X, b.Y, b.Width, b.Border.Top), side("top"))
	}
	if b.Border.Bottom > 0 {
		p.fill(p.rect(b.X, b.Y+b.Height-b.Border.Bottom, b.Width, b.Border.Bottom), side("bottom"))
	}
	if b.Border.Left > 0 {
		p.fill(p.rect(b.X, b.Y, b.Border.Left, b.Height), side("left"))
	}
	if b.Border.Right > 0 {
		p.fill(p.rect(b.X+b.Width-b.Border.Right, b.Y, b.Border.Right, b.Height), side("right"))
	}

	if b.Marker != "" {
		ft := text.Font{Size: b.Style.FontSize(), Bold: b.Style.Bold()}
		baseline := b.ContentY() + p.faces.Metrics(ft).Ascent
		if first := firstInline(b); first != nil {
			baseline = first.Baseline
		}
		x := b.ContentX() - markerGap - p.faces.Measure(ft, b.Marker)
		p.text(ft, x, baseline, b.Marker, textColor)
	}
}

func firstInline(b *layout.BlockBox) *layout.InlineBox {
	var found *layout.InlineBox
	layout.Walk(b, func(bx layout.Box) bool {
		if found != nil {
			return false
		}
		if ib, ok := bx.(*layout.InlineBox); ok {
			found = ib
			return false
		}
		return true
	})
	return found
}

func (p *painter) paintInline(ib *layout.InlineBox) {
	p.fill(p.rect(ib.X, ib.Y, ib.Width, ib.Height), ib.Background)
	if ib.Text == " " {
		return
	}
	p.text(ib.Font, ib.X, ib.Baseline, ib.Text, ib.Color)
	if ib.Underline {
		thickness := max(1, ib.Font.Size/16)
		p.fill(p.rect(ib.X, ib.Baseline+thickness, ib.Width, thickness), ib.Color)
	}
}

func (p *painter) paintImage(ib *layout.ImageBox) {
	r := p.rect(ib.X, ib.Y, ib.Width, ib.Height)
	if ib.Image == nil {
		p.fill(r, color.RGBA{0xe5, 0xe7, 0xeb, 0xff})
		return
	}
	xdraw.CatmullRom.Scale(p.dst, r, ib.Image, ib.Image.Bounds(), xdraw.Over, nil)
}
