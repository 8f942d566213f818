package layout

import (
	"image"
	"strconv"
	"strings"

	"github.com/archvision/reportpdf/internal/parser/html"
	"github.com/archvision/reportpdf/internal/style"
	"go.uber.org/zap"
)

// ImageLoader resolves the src attribute of an <img> element.
type ImageLoader func(src string) (image.Image, error)

// ImageBox represents an <img> element laid out as an inline replaced element.
// Image is nil when the source could not be loaded; a placeholder is drawn then.
type ImageBox struct {
	Node   *html.Node
	Style  style.ComputedStyle
	X      float64
	Y      float64
	Width  float64
	Height float64
	Src    string
	Image  image.Image
}

const placeholderSize = 40.0

// newImageBox sizes the image from attributes, CSS width/height or the
// natural size, scaled down to fit maxWidth while keeping the aspect ratio.
func (e *Engine) newImageBox(node *html.Node, maxWidth float64) *ImageBox {
	st := e.styleOf(node)
	src, _ := node.AttrValue("src")
	b := &ImageBox{Node: node, Style: st, Src: src}

	if e.images != nil && src != "" {
		img, err := e.images(src)
		if err != nil {
			e.logger.Debug("Unable to load image", zap.String("src", src), zap.Error(err))
		} else {
			b.Image = img
		}
	}

	w, h := placeholderSize, placeholderSize
	if b.Image != nil {
		r := b.Image.Bounds()
		w, h = float64(r.Dx()), float64(r.Dy())
	}

	cw, okW := dimension(node, st, "width", maxWidth)
	ch, okH := dimension(node, st, "height", maxWidth)
	switch {
	case okW && okH:
		w, h = cw, ch
	case okW:
		h = h * cw / w
		w = cw
	case okH:
		w = w * ch / h
		h = ch
	}

	if maxWidth > 0 && w > maxWidth {
		h = h * maxWidth / w
		w = maxWidth
	}
	b.Width, b.Height = w, h
	return b
}

func dimension(node *html.Node, st style.ComputedStyle, name string, base float64) (float64, bool) {
	if v, ok := style.Length(st.Get(name), st.FontSize(), base); ok && v > 0 {
		return v, true
	}
	if a, ok := node.AttrValue(name); ok {
		if v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(a), "px"), 64); err == nil && v > 0 {
			return v, true
		}
	}
	return 0, false
}

func (b *ImageBox) GetX() float64      { return b.X }
func (b *ImageBox) GetY() float64      { return b.Y }
func (b *ImageBox) GetWidth() float64  { return b.Width }
func (b *ImageBox) GetHeight() float64 { return b.Height }

func (b *ImageBox) Shift(dx, dy float64) { b.X, b.Y = b.X+dx, b.Y+dy }

func (b *ImageBox) GetNode() *html.Node { return b.Node }
