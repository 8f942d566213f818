// Package markdown turns report markdown into the HTML document that gets
// laid out and exported.
package markdown

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/archvision/reportpdf/internal/report"
)

// Class names and ids of the generated document.
const (
	ContentRootID = "report-content"
	SummaryClass  = "severity-summary"
	ProseClass    = "prose"
	BadgeClass    = "severity"
	ChipClass     = "chip"
)

const nbsp = "\u00a0"

// Renderer converts report markdown. Raw HTML in the markdown is omitted.
type Renderer struct {
	md     goldmark.Markdown
	logger *zap.Logger
}

// New returns a renderer with GitHub flavored markdown enabled.
func New(logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		logger: logger,
	}
}

// Render produces a complete HTML document for the report:
//
//	<div id="report-content">
//	  <div class="severity-summary">chips for non-zero counts</div>
//	  <div class="prose">rendered markdown</div>
//	</div>
//
// Severity tags in the prose are replaced with badges.
func (r *Renderer) Render(rep *report.Report, summary report.SeveritySummary) (string, error) {
	prose, err := r.prose(rep.Markdown)
	if err != nil {
		return "", err
	}

	content := element(atom.Div, "id", ContentRootID)
	if summary.Total() > 0 {
		content.AppendChild(summaryChips(summary))
	}
	content.AppendChild(prose)

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, "charset", "utf-8"))
	if rep.Title != "" {
		title := element(atom.Title)
		title.AppendChild(&xhtml.Node{Type: xhtml.TextNode, Data: rep.Title})
		head.AppendChild(title)
	}
	body := element(atom.Body)
	body.AppendChild(content)
	root := element(atom.Html)
	root.AppendChild(head)
	root.AppendChild(body)

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>")
	if err := xhtml.Render(&buf, root); err != nil {
		return "", fmt.Errorf("failed to render document: %w", err)
	}

	r.logger.Debug("Rendered report markup",
		zap.String("id", rep.ID),
		zap.Int("markdown", len(rep.Markdown)),
		zap.Int("html", buf.Len()))
	return buf.String(), nil
}

func (r *Renderer) prose(source string) (*xhtml.Node, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return nil, fmt.Errorf("failed to convert markdown: %w", err)
	}

	prose := element(atom.Div, "class", ProseClass)
	nodes, err := xhtml.ParseFragment(&buf, prose)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rendered markdown: %w", err)
	}
	for _, n := range nodes {
		prose.AppendChild(n)
	}
	addBadges(prose)
	return prose, nil
}

func element(a atom.Atom, attrs ...string) *xhtml.Node {
	n := &xhtml.Node{Type: xhtml.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, xhtml.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

// Badge returns the inline element marking a finding of the given severity.
func Badge(sev report.Severity) *xhtml.Node {
	n := element(atom.Span, "class", BadgeClass+" "+BadgeClass+"-"+sev.String())
	n.AppendChild(&xhtml.Node{Type: xhtml.TextNode, Data: nbsp + sev.Label() + nbsp})
	return n
}

func summaryChips(s report.SeveritySummary) *xhtml.Node {
	div := element(atom.Div, "class", SummaryClass)
	for _, sev := range report.Severities {
		n := s.Count(sev)
		if n == 0 {
			continue
		}
		chip := element(atom.Span, "class", ChipClass+" "+ChipClass+"-"+sev.String())
		chip.AppendChild(&xhtml.Node{
			Type: xhtml.TextNode,
			Data: nbsp + sev.Label() + nbsp + strconv.Itoa(n) + nbsp,
		})
		if div.FirstChild != nil {
			div.AppendChild(&xhtml.Node{Type: xhtml.TextNode, Data: " "})
		}
		div.AppendChild(chip)
	}
	return div
}

// addBadges replaces severity tags in text outside of code.
func addBadges(n *xhtml.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case xhtml.TextNode:
			replaceTags(c)
		case xhtml.ElementNode:
			if c.DataAtom != atom.Code && c.DataAtom != atom.Pre {
				addBadges(c)
			}
		}
		c = next
	}
}

func replaceTags(t *xhtml.Node) {
	matches := report.TagPattern.FindAllStringSubmatchIndex(t.Data, -1)
	if matches == nil {
		return
	}
	parent := t.Parent
	text := func(s string) {
		if s != "" {
			parent.InsertBefore(&xhtml.Node{Type: xhtml.TextNode, Data: s}, t)
		}
	}
	last := 0
	for _, m := range matches {
		text(t.Data[last:m[0]])
		sev, err := report.ParseSeverityName(t.Data[m[2]:m[3]])
		if err != nil {
			text(t.Data[m[0]:m[1]])
		} else {
			parent.InsertBefore(Badge(sev), t)
		}
		last = m[1]
	}
	text(t.Data[last:])
	parent.RemoveChild(t)
}
