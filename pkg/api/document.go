package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	xhtml "golang.org/x/net/html"

	"github.com/archvision/reportpdf/internal/layout"
	"github.com/archvision/reportpdf/internal/parser/css"
	"github.com/archvision/reportpdf/internal/parser/html"
	"github.com/archvision/reportpdf/internal/res"
	"github.com/archvision/reportpdf/internal/style"
)

// ErrNoContentRoot is returned when the document has no report content root.
var ErrNoContentRoot = errors.New("report content root not found")

// Document is a laid out report view. It keeps the visual mode and the scroll
// position of the view and lays the report out again when the mode changes.
type Document struct {
	doc    *html.Document
	sheets []*css.Stylesheet
	engine *layout.Engine
	logger *zap.Logger

	theme            style.Theme
	scrollX, scrollY float64
	root             *layout.BlockBox
}

// NewDocument parses markup and lays it out with the given stylesheets
// followed by the <style> and <link rel="stylesheet"> sheets of the document.
func NewDocument(ctx context.Context, markup string, sheets []*css.Stylesheet, engine *layout.Engine, loader *res.Loader, theme style.Theme, logger *zap.Logger) (*Document, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	doc, err := html.NewParser().ParseString(markup)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	cssParser := css.NewParser()
	all := append([]*css.Stylesheet{}, sheets...)
	for _, cssText := range collectDocumentStylesheets(ctx, doc.Root, loader, logger) {
		sheet, err := cssParser.ParseString(cssText)
		if err != nil {
			logger.Warn("Failed to parse stylesheet", zap.Error(err))
			continue
		}
		all = append(all, sheet)
	}

	d := &Document{
		doc:    doc,
		sheets: all,
		engine: engine,
		logger: logger,
		theme:  theme,
	}
	d.relayout()
	return d, nil
}

func (d *Document) relayout() {
	se := style.NewStyleEngine()
	for _, s := range d.sheets {
		se.AddStylesheet(s)
	}
	se.SetTheme(d.theme)
	d.engine.SetStyles(se.ComputeStyles(d.doc))
	d.root = d.engine.Layout(d.doc)
	d.ScrollTo(d.scrollX, d.scrollY)
	d.logger.Debug("Laid out document",
		zap.Stringer("theme", d.theme),
		zap.Float64("height", d.root.Height))
}

// Theme returns the current visual mode.
func (d *Document) Theme() style.Theme { return d.theme }

// SetTheme switches the visual mode and lays the document out again.
func (d *Document) SetTheme(t style.Theme) error {
	if t != style.ThemeLight && t != style.ThemeDark {
		return fmt.Errorf("unsupported theme %v", t)
	}
	if t == d.theme {
		return nil
	}
	d.theme = t
	d.relayout()
	return nil
}

// ScrollOffset returns the scroll position of the view.
func (d *Document) ScrollOffset() (x, y float64) { return d.scrollX, d.scrollY }

// ScrollTo moves the view, clamped to the document extent.
func (d *Document) ScrollTo(x, y float64) {
	d.scrollX = clamp(x, 0, d.root.Width)
	d.scrollY = clamp(y, 0, d.root.Height)
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

// Content returns the box of the report content root.
func (d *Document) Content() (*layout.BlockBox, error) {
	box := layout.FindContentRoot(d.root, layout.ContentRootID)
	if box == nil {
		return nil, ErrNoContentRoot
	}
	return box, nil
}

// Root returns the box of the whole document.
func (d *Document) Root() *layout.BlockBox { return d.root }

// collectDocumentStylesheets walks the HTML node tree in document order and
// returns the author stylesheets (external <link rel="stylesheet"> and inline
// <style> blocks) preserving source order.
func collectDocumentStylesheets(ctx context.Context, n *html.Node, loader *res.Loader, logger *zap.Logger) []string {
	var styles []string
	html.Walk(n, func(cur *html.Node) bool {
		switch {
		case cur.IsElement("link"):
			rel, _ := cur.AttrValue("rel")
			href, _ := cur.AttrValue("href")
			if href == "" || !strings.Contains(strings.ToLower(rel), "stylesheet") || loader == nil {
				return false
			}
			r, err := loader.LoadCSS(ctx, href)
			if err != nil {
				logger.Warn("Failed to load external stylesheet", zap.String("href", href), zap.Error(err))
				return false
			}
			styles = append(styles, r.GetString())
			return false
		case cur.IsElement("style"):
			var b strings.Builder
			for c := cur.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == xhtml.TextNode {
					b.WriteString(c.Data)
					b.WriteString("\n")
				}
			}
			if cssText := strings.TrimSpace(b.String()); cssText != "" {
				styles = append(styles, cssText)
			}
			return false
		}
		return true
	})
	return styles
}
