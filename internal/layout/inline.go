package layout

import (
	"image/color"
	"strings"

	"github.com/archvision/reportpdf/internal/parser/html"
	"github.com/archvision/reportpdf/internal/style"
	"github.com/archvision/reportpdf/internal/text"
	xhtml "golang.org/x/net/html"
)

// InlineBox is one word, space or preformatted line placed on a line box.
// Y and Height describe the line box; Baseline is absolute.
type InlineBox struct {
	Node       *html.Node // inline element the text belongs to, nil for text directly in the block
	Style      style.ComputedStyle
	X          float64
	Y          float64
	Width      float64
	Height     float64
	Baseline   float64
	Text       string
	Font       text.Font
	Color      color.RGBA
	Background color.RGBA // zero alpha means none
	Underline  bool
}

func (b *InlineBox) GetX() float64      { return b.X }
func (b *InlineBox) GetY() float64      { return b.Y }
func (b *InlineBox) GetWidth() float64  { return b.Width }
func (b *InlineBox) GetHeight() float64 { return b.Height }

func (b *InlineBox) Shift(dx, dy float64) {
	b.X += dx
	b.Y += dy
	b.Baseline += dy
}

func (b *InlineBox) GetNode() *html.Node { return b.Node }

// inlineRun represents a contiguous text run with a specific style
type inlineRun struct {
	text      string
	style     style.ComputedStyle
	owner     *html.Node
	image     *ImageBox
	lineBreak bool
}

type token struct {
	run   *inlineRun
	text  string
	space bool
	brk   bool
	width float64
	above float64 // extent above the baseline including half leading
	below float64
	font  text.Font
}

// fontFor maps a computed style onto an embedded face.
func fontFor(st style.ComputedStyle) text.Font {
	ft := text.Font{Bold: st.Bold(), Italic: st.Italic(), Size: st.FontSize()}
	if st.Monospace() {
		ft.Family = text.FamilyMono
	}
	return ft
}

// collectInlineRuns traverses inline content, collecting text runs with the
// style of the innermost element.
func (e *Engine) collectInlineRuns(n *html.Node, inherited style.ComputedStyle, owner *html.Node, maxWidth float64, out *[]inlineRun) {
	switch n.Type {
	case xhtml.TextNode:
		if n.Data != "" {
			*out = append(*out, inlineRun{text: n.Data, style: inherited, owner: owner})
		}
	case xhtml.ElementNode:
		switch n.Tag() {
		case "br":
			*out = append(*out, inlineRun{lineBreak: true, style: inherited})
			return
		case "img":
			*out = append(*out, inlineRun{image: e.newImageBox(n, maxWidth), style: inherited})
			return
		}
		if e.displayOf(n) == displayNone {
			return
		}
		st := e.styleOf(n)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			e.collectInlineRuns(c, st, n, maxWidth, out)
		}
	}
}

// layoutInline lays out a sequence of inline nodes as wrapped lines inside
// container starting at y. It returns the height consumed.
func (e *Engine) layoutInline(container *BlockBox, nodes []*html.Node, x, y, width float64) float64 {
	var runs []inlineRun
	for _, n := range nodes {
		e.collectInlineRuns(n, container.Style, nil, width, &runs)
	}

	ws := container.Style.Get("white-space")
	pre := ws == "pre" || ws == "pre-wrap"
	tokens := e.tokenize(runs, pre)

	align := strings.ToLower(container.Style.Get("text-align"))
	blankLine := container.Style.LineHeight()

	lineY := y
	var (
		line  []*token
		lineW float64
	)

	emit := func(forced bool) {
		if !pre {
			for len(line) > 0 && line[len(line)-1].space {
				lineW -= line[len(line)-1].width
				line = line[:len(line)-1]
			}
		}
		if len(line) == 0 {
			if forced {
				lineY += blankLine
			}
			return
		}

		var above, below float64
		for _, tk := range line {
			above = max(above, tk.above)
			below = max(below, tk.below)
		}
		baseline := lineY + above
		height := above + below

		offsetX := 0.0
		switch align {
		case "right", "end":
			offsetX = max(0, width-lineW)
		case "center":
			offsetX = max(0, (width-lineW)/2)
		}

		cx := x + offsetX
		for _, tk := range line {
			if img := tk.run.image; img != nil {
				img.X, img.Y = cx, baseline-img.Height
				container.Children = append(container.Children, img)
				cx += tk.width
				continue
			}
			st := tk.run.style
			ib := &InlineBox{
				Node:     tk.run.owner,
				Style:    st,
				X:        cx,
				Y:        lineY,
				Width:    tk.width,
				Height:   height,
				Baseline: baseline,
				Text:     tk.text,
				Font:     tk.font,
			}
			ib.Color, _ = st.Color("color")
			if ib.Color.A == 0 {
				ib.Color = color.RGBA{A: 0xff}
			}
			if tk.run.owner != nil {
				ib.Background, _ = st.Color("background-color")
				ib.Underline = strings.Contains(st.Get("text-decoration"), "underline")
			}
			container.Children = append(container.Children, ib)
			cx += tk.width
		}

		lineY += height
		line = line[:0]
		lineW = 0
	}

	for _, tk := range tokens {
		if tk.brk {
			emit(true)
			continue
		}
		if tk.space && !pre && (len(line) == 0 || line[len(line)-1].space) {
			continue
		}
		if !tk.space && !pre && len(line) > 0 && lineW+tk.width > width {
			emit(false)
		}
		line = append(line, tk)
		lineW += tk.width
	}
	emit(false)

	return lineY - y
}

// tokenize measures runs and splits them into words and spaces, or into
// physical lines when whitespace is preserved.
func (e *Engine) tokenize(runs []inlineRun, pre bool) []*token {
	var tokens []*token
	for i := range runs {
		run := &runs[i]
		switch {
		case run.lineBreak:
			tokens = append(tokens, &token{run: run, brk: true})
			continue
		case run.image != nil:
			tokens = append(tokens, &token{run: run, width: run.image.Width, above: run.image.Height})
			continue
		}

		ft := fontFor(run.style)
		m := e.faces.Metrics(ft)
		lead := (run.style.LineHeight() - (m.Ascent + m.Descent)) / 2
		mk := func(s string, space bool) *token {
			return &token{
				run:   run,
				text:  s,
				space: space,
				width: e.faces.Measure(ft, s),
				above: m.Ascent + lead,
				below: m.Descent + lead,
				font:  ft,
			}
		}

		if pre {
			for j, ln := range strings.Split(strings.ReplaceAll(run.text, "\t", "    "), "\n") {
				if j > 0 {
					tokens = append(tokens, &token{run: run, brk: true})
				}
				if ln != "" {
					tokens = append(tokens, mk(ln, false))
				}
			}
			continue
		}

		for _, t := range text.Tokenize(text.NormalizeWhitespace(run.text)) {
			tokens = append(tokens, mk(t, text.IsSpace(t)))
		}
	}
	// a trailing newline inside <pre> does not open a new line
	for pre && len(tokens) > 0 && tokens[len(tokens)-1].brk {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}
