package layout

import (
	"strconv"
	"strings"

	"github.com/archvision/reportpdf/internal/parser/html"
	"github.com/archvision/reportpdf/internal/style"
	"github.com/archvision/reportpdf/internal/text"
	"go.uber.org/zap"
	xhtml "golang.org/x/net/html"
)

// Options represents options for the layout engine
type Options struct {
	// ViewportWidth is the width of the rendered document in px.
	ViewportWidth float64
}

// DefaultViewportWidth matches the width of the report view the export captures.
const DefaultViewportWidth = 800.0

// Engine handles the layout process
type Engine struct {
	options Options
	styles  map[*html.Node]style.ComputedStyle
	faces   *text.Faces
	images  ImageLoader
	logger  *zap.Logger
}

// NewEngine creates a new layout engine
func NewEngine() *Engine {
	return &Engine{
		options: Options{ViewportWidth: DefaultViewportWidth},
		styles:  make(map[*html.Node]style.ComputedStyle),
		faces:   text.Shared(),
		logger:  zap.NewNop(),
	}
}

// SetOptions sets the options for the layout engine
func (e *Engine) SetOptions(options Options) {
	if options.ViewportWidth <= 0 {
		options.ViewportWidth = DefaultViewportWidth
	}
	e.options = options
}

// SetStyles sets the computed styles for the layout engine
func (e *Engine) SetStyles(styles map[*html.Node]style.ComputedStyle) {
	e.styles = styles
}

// SetFaces replaces the font cache used for measuring text.
func (e *Engine) SetFaces(faces *text.Faces) {
	if faces != nil {
		e.faces = faces
	}
}

// SetImageLoader sets the function used to resolve <img> sources.
func (e *Engine) SetImageLoader(l ImageLoader) {
	e.images = l
}

// SetLogger sets the logger for the layout engine
func (e *Engine) SetLogger(logger *zap.Logger) {
	if logger != nil {
		e.logger = logger
	}
}

// Layout creates a layout tree from a document. The returned root box spans
// the viewport width and the full document height.
func (e *Engine) Layout(doc *html.Document) *BlockBox {
	root := &BlockBox{Width: e.options.ViewportWidth, Style: style.ComputedStyle{}}
	if doc == nil || doc.Root == nil {
		return root
	}

	body := html.Find(doc.Root, func(n *html.Node) bool { return n.IsElement("body") })
	if body == nil {
		body = doc.Root
	}

	bodyBox := e.layoutBlock(body, 0, 0, root.Width)
	root.Children = append(root.Children, bodyBox)
	root.Height = bodyBox.OuterBottom()

	e.logger.Debug("Layout complete",
		zap.Float64("width", root.Width),
		zap.Float64("height", root.Height),
		zap.Int("boxes", countBoxes(root)))
	return root
}

type display int

const (
	displayNone display = iota
	displayInline
	displayBlock
)

func (e *Engine) styleOf(n *html.Node) style.ComputedStyle {
	if st, ok := e.styles[n]; ok {
		return st
	}
	return style.ComputedStyle{}
}

func (e *Engine) displayOf(n *html.Node) display {
	switch n.Type {
	case xhtml.TextNode:
		return displayInline
	case xhtml.ElementNode:
	default:
		return displayNone
	}

	switch n.Tag() {
	case "head", "script", "style", "title", "meta", "link", "template":
		return displayNone
	}
	switch e.styleOf(n).Get("display") {
	case "none":
		return displayNone
	case "block", "list-item", "table", "flex", "grid":
		return displayBlock
	case "inline", "inline-block", "inline-flex":
		return displayInline
	}
	if isBlockTag(n.Tag()) {
		return displayBlock
	}
	return displayInline
}

// isBlockTag reports whether a tag name is treated as block-level
func isBlockTag(tag string) bool {
	switch tag {
	case "html", "body", "div", "p", "h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "table", "thead", "tbody", "tfoot",
		"tr", "td", "th", "header", "footer", "section", "article",
		"hr", "blockquote", "pre", "main", "nav", "aside", "figure", "figcaption":
		return true
	default:
		return false
	}
}

func edges(st style.ComputedStyle, prefix, suffix string, base float64) Edges {
	return Edges{
		Top:    st.Length(prefix+"top"+suffix, base),
		Right:  st.Length(prefix+"right"+suffix, base),
		Bottom: st.Length(prefix+"bottom"+suffix, base),
		Left:   st.Length(prefix+"left"+suffix, base),
	}
}

// layoutBlock lays out node as a block whose margin box starts at (x, y) and
// spans avail pixels horizontally.
func (e *Engine) layoutBlock(node *html.Node, x, y, avail float64) *BlockBox {
	st := e.styleOf(node)
	b := &BlockBox{
		Node:    node,
		Style:   st,
		Margin:  edges(st, "margin-", "", avail),
		Padding: edges(st, "padding-", "", avail),
		Border:  edges(st, "border-", "-width", avail),
	}
	b.X = x + b.Margin.Left
	b.Y = y + b.Margin.Top
	b.Width = max(0, avail-b.Margin.Horizontal())
	if w, ok := style.Length(st.Get("width"), st.FontSize(), avail); ok && w > 0 {
		b.Width = min(b.Width, w+b.Padding.Horizontal()+b.Border.Horizontal())
	}

	var contentHeight float64
	switch b.Tag() {
	case "table":
		contentHeight = e.layoutTable(b)
	case "hr":
	default:
		contentHeight = e.layoutChildren(b)
	}
	if h, ok := style.Length(st.Get("height"), st.FontSize(), 0); ok && h > 0 {
		contentHeight = h
	}
	if h, ok := style.Length(st.Get("min-height"), st.FontSize(), 0); ok {
		contentHeight = max(contentHeight, h)
	}
	b.Height = contentHeight + b.Padding.Vertical() + b.Border.Vertical()

	if b.Tag() == "li" {
		b.Marker = listMarker(node, st)
	}
	return b
}

// layoutChildren stacks block children vertically and groups runs of inline
// children into anonymous line boxes. Adjacent sibling margins collapse.
func (e *Engine) layoutChildren(b *BlockBox) float64 {
	x, y, width := b.ContentX(), b.ContentY(), b.ContentWidth()
	cursor := y
	prevMargin := 0.0

	var inline []*html.Node
	flush := func() {
		if len(inline) == 0 {
			return
		}
		if h := e.layoutInline(b, inline, x, cursor, width); h > 0 {
			cursor += h
			prevMargin = 0
		}
		inline = inline[:0]
	}

	for c := b.Node.FirstChild; c != nil; c = c.NextSibling {
		switch e.displayOf(c) {
		case displayNone:
		case displayInline:
			inline = append(inline, c)
		case displayBlock:
			flush()
			child := e.layoutBlock(c, x, cursor, width)
			if collapse := min(prevMargin, child.Margin.Top); collapse > 0 {
				child.Shift(0, -collapse)
			}
			b.Children = append(b.Children, child)
			cursor = child.OuterBottom()
			prevMargin = child.Margin.Bottom
		}
	}
	flush()

	return cursor - y
}

// listMarker returns the bullet or ordinal drawn in front of a list item.
func listMarker(li *html.Node, st style.ComputedStyle) string {
	switch st.Get("list-style-type") {
	case "none":
		return ""
	case "circle":
		return "◦"
	case "square":
		return "▪"
	case "decimal":
		n := 1
		if li.Parent != nil && li.Parent.IsElement("ol") {
			if s, ok := li.Parent.AttrValue("start"); ok {
				if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
					n = v
				}
			}
		}
		for p := li.PrevSibling; p != nil; p = p.PrevSibling {
			if p.IsElement("li") {
				n++
			}
		}
		return strconv.Itoa(n) + "."
	default:
		return "•"
	}
}

func countBoxes(root Box) int {
	n := 0
	Walk(root, func(Box) bool {
		n++
		return true
	})
	return n
}
