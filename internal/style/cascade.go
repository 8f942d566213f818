package style

import (
	"sort"
	"strconv"
	"strings"

	"github.com/archvision/reportpdf/internal/parser/css"
	"github.com/archvision/reportpdf/internal/parser/html"
	xhtml "golang.org/x/net/html"
)

// Specificity represents the specificity of a CSS selector
type Specificity struct {
	ID      int
	Class   int
	Element int
}

// StyleProperty represents a computed style property
type StyleProperty struct {
	Name      string
	Value     string
	Important bool
	Source    Source
}

// Source represents the origin of a style property. Later origins win at equal importance.
type Source int

const (
	SourceUserAgent Source = iota
	SourceAuthor
	SourceTheme
	SourceInline
)

// ComputedStyle represents the computed style for an element
type ComputedStyle map[string]StyleProperty

// Get returns the trimmed value of a property or "".
func (s ComputedStyle) Get(name string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(s[name].Value)
}

// RootFontSize is the font size of the document root in px.
const RootFontSize = 16.0

var inheritedProperties = []string{
	"color",
	"font-family",
	"font-size",
	"font-style",
	"font-weight",
	"line-height",
	"list-style-type",
	"text-align",
	"white-space",
}

// StyleEngine handles the CSS cascade and style computation
type StyleEngine struct {
	userAgentStyles *css.Stylesheet
	authorStyles    []*css.Stylesheet
	theme           Theme
}

// NewStyleEngine creates a new style engine with the light theme
func NewStyleEngine() *StyleEngine {
	return &StyleEngine{
		userAgentStyles: defaultUserAgentStyles(),
		authorStyles:    []*css.Stylesheet{},
		theme:           ThemeLight,
	}
}

// AddStylesheet adds an author stylesheet to the style engine
func (e *StyleEngine) AddStylesheet(stylesheet *css.Stylesheet) {
	if stylesheet != nil {
		e.authorStyles = append(e.authorStyles, stylesheet)
	}
}

// SetTheme switches the visual mode. Styles must be recomputed afterwards.
func (e *StyleEngine) SetTheme(t Theme) {
	e.theme = t
}

// Theme returns the current visual mode.
func (e *StyleEngine) Theme() Theme {
	return e.theme
}

// ComputeStyles computes styles for all elements in the document
func (e *StyleEngine) ComputeStyles(doc *html.Document) map[*html.Node]ComputedStyle {
	result := make(map[*html.Node]ComputedStyle)
	if doc != nil {
		e.computeStylesRecursive(doc.Root, nil, result)
	}
	return result
}

func (e *StyleEngine) computeStylesRecursive(node *html.Node, parent ComputedStyle, result map[*html.Node]ComputedStyle) {
	if node == nil {
		return
	}

	current := parent
	if node.Type == xhtml.ElementNode {
		current = e.computeStyleForElement(node, parent)
		result[node] = current
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		e.computeStylesRecursive(child, current, result)
	}
}

type matchedDeclaration struct {
	decl        *css.Declaration
	specificity Specificity
	source      Source
	order       int
}

func (e *StyleEngine) computeStyleForElement(node *html.Node, parent ComputedStyle) ComputedStyle {
	var matched []matchedDeclaration

	collect := func(sheet *css.Stylesheet, source Source) {
		if sheet == nil {
			return
		}
		for _, rule := range sheet.Rules {
			for _, selector := range rule.Selectors {
				if !selectorMatches(node, selector) {
					continue
				}
				spec := calculateSpecificity(selector)
				for _, d := range rule.Declarations {
					matched = append(matched, matchedDeclaration{decl: d, specificity: spec, source: source, order: len(matched)})
				}
			}
		}
	}

	collect(e.userAgentStyles, SourceUserAgent)
	for _, sheet := range e.authorStyles {
		collect(sheet, SourceAuthor)
	}
	collect(e.theme.Stylesheet(), SourceTheme)
	if inline, ok := node.AttrValue("style"); ok {
		for _, d := range css.ParseDeclarations(inline) {
			matched = append(matched, matchedDeclaration{decl: d, specificity: Specificity{ID: 1}, source: SourceInline, order: len(matched)})
		}
	}

	// ascending priority, so the last write wins
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.decl.Important != b.decl.Important {
			return !a.decl.Important
		}
		if a.source != b.source {
			return a.source < b.source
		}
		if c := compareSpecificity(a.specificity, b.specificity); c != 0 {
			return c < 0
		}
		return a.order < b.order
	})

	style := make(ComputedStyle)
	for _, m := range matched {
		for _, d := range expandShorthand(m.decl) {
			style[d.Property] = StyleProperty{
				Name:      d.Property,
				Value:     d.Value,
				Important: d.Important,
				Source:    m.source,
			}
		}
	}

	for _, name := range inheritedProperties {
		if _, ok := style[name]; ok {
			continue
		}
		if p, ok := parent[name]; ok {
			style[name] = p
		}
	}

	parentSize := RootFontSize
	if parent != nil {
		parentSize = parent.FontSize()
	}
	size := resolveFontSize(style.Get("font-size"), parentSize)
	style["font-size"] = StyleProperty{
		Name:   "font-size",
		Value:  strconv.FormatFloat(size, 'f', -1, 64) + "px",
		Source: style["font-size"].Source,
	}

	return style
}

// selectorMatches checks if an element matches a selector made of compound
// selectors joined by the descendant combinator.
func selectorMatches(node *html.Node, selector string) bool {
	parts := strings.Fields(selector)
	if len(parts) == 0 || node == nil {
		return false
	}
	if !matchCompoundSelector(node, parts[len(parts)-1]) {
		return false
	}

	current := node.Parent
	for i := len(parts) - 2; i >= 0; i-- {
		found := false
		for anc := current; anc != nil; anc = anc.Parent {
			if anc.Type == xhtml.ElementNode && matchCompoundSelector(anc, parts[i]) {
				found = true
				current = anc.Parent
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// matchCompoundSelector matches a single compound selector against a node.
// Compound selectors can be forms like:
//   - tag
//   - .class
//   - #id
//   - tag.class
//   - tag#id.class1.class2
//
// Attributes, pseudo-classes and combinators other than descendant are not supported.
func matchCompoundSelector(node *html.Node, sel string) bool {
	if node == nil || node.Type != xhtml.ElementNode || sel == "" {
		return false
	}
	if strings.ContainsAny(sel, ":[>+~") {
		return false
	}

	var (
		wantTag     string
		wantID      string
		wantClasses []string
	)

	i := 0
	if sel[0] != '.' && sel[0] != '#' {
		j := strings.IndexAny(sel, ".#")
		if j < 0 {
			j = len(sel)
		}
		wantTag = sel[:j]
		i = j
	}
	for i < len(sel) {
		j := i + 1
		for j < len(sel) && sel[j] != '.' && sel[j] != '#' {
			j++
		}
		name := sel[i+1 : j]
		if sel[i] == '#' {
			wantID = name
		} else {
			wantClasses = append(wantClasses, name)
		}
		i = j
	}

	if wantTag != "" && wantTag != "*" && !strings.EqualFold(wantTag, node.Data) {
		return false
	}
	if wantID != "" && node.ID() != wantID {
		return false
	}
	for _, need := range wantClasses {
		if !node.HasClass(need) {
			return false
		}
	}
	return true
}

func calculateSpecificity(selector string) Specificity {
	var s Specificity
	for _, part := range strings.Fields(selector) {
		s.ID += strings.Count(part, "#")
		s.Class += strings.Count(part, ".")
		if part[0] != '.' && part[0] != '#' && part[0] != '*' {
			s.Element++
		}
	}
	return s
}

func compareSpecificity(a, b Specificity) int {
	if a.ID != b.ID {
		return a.ID - b.ID
	}
	if a.Class != b.Class {
		return a.Class - b.Class
	}
	return a.Element - b.Element
}

func defaultUserAgentStyles() *css.Stylesheet {
	stylesheet, _ := css.NewParser().ParseString(`
		body { margin: 8px; color: #000000; }
		h1 { font-size: 2em; margin: 0.67em 0; font-weight: bold; }
		h2 { font-size: 1.5em; margin: 0.75em 0; font-weight: bold; }
		h3 { font-size: 1.17em; margin: 0.83em 0; font-weight: bold; }
		h4 { margin: 1.12em 0; font-weight: bold; }
		h5 { font-size: 0.83em; margin: 1.5em 0; font-weight: bold; }
		h6 { font-size: 0.75em; margin: 1.67em 0; font-weight: bold; }
		p { margin: 1em 0; }
		ul, ol { margin: 1em 0; padding-left: 40px; }
		ul { list-style-type: disc; }
		ol { list-style-type: decimal; }
		blockquote { margin: 1em 40px; }
		pre { white-space: pre; font-family: monospace; margin: 1em 0; }
		code { font-family: monospace; }
		hr { margin: 0.5em 0; border-top: 1px solid #808080; }
		a { color: #0000EE; }
		b, strong, th { font-weight: bold; }
		i, em { font-style: italic; }
		table { border-spacing: 2px; }
		th, td { padding: 1px; }
	`)
	return stylesheet
}
