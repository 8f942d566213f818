package html

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Parser represents an HTML parser
type Parser struct{}

// Node represents an HTML node in the document tree
type Node struct {
	Type        html.NodeType
	Data        string
	Attr        []html.Attribute
	Parent      *Node
	FirstChild  *Node
	LastChild   *Node
	PrevSibling *Node
	NextSibling *Node
}

// Document represents a parsed HTML document
type Document struct {
	Root *Node
}

// NewParser creates a new HTML parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseString parses HTML from a string
func (p *Parser) ParseString(content string) (*Document, error) {
	return p.Parse(strings.NewReader(content))
}

// Parse parses HTML from an io.Reader
func (p *Parser) Parse(r io.Reader) (*Document, error) {
	node, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return &Document{Root: convertNode(node, nil)}, nil
}

// convertNode converts an html.Node to our Node structure
func convertNode(n *html.Node, parent *Node) *Node {
	if n == nil {
		return nil
	}

	node := &Node{
		Type:   n.Type,
		Data:   n.Data,
		Attr:   n.Attr,
		Parent: parent,
	}

	var lastChild *Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		child := convertNode(c, node)
		if node.FirstChild == nil {
			node.FirstChild = child
		}
		if lastChild != nil {
			lastChild.NextSibling = child
			child.PrevSibling = lastChild
		}
		lastChild = child
	}
	node.LastChild = lastChild

	return node
}

// IsElement reports whether n is an element with the given tag (case-insensitive).
// An empty tag matches any element.
func (n *Node) IsElement(tag string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	return tag == "" || strings.EqualFold(n.Data, tag)
}

// Tag returns the lower-cased tag name of an element node, or "" for other nodes.
func (n *Node) Tag() string {
	if n == nil || n.Type != html.ElementNode {
		return ""
	}
	return strings.ToLower(n.Data)
}

// AttrValue returns the value of the named attribute.
func (n *Node) AttrValue(key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// ID returns the id attribute of the node.
func (n *Node) ID() string {
	v, _ := n.AttrValue("id")
	return v
}

// Classes returns the whitespace separated class list of the node.
func (n *Node) Classes() []string {
	v, _ := n.AttrValue("class")
	return strings.Fields(v)
}

// HasClass reports whether the node carries the given class.
func (n *Node) HasClass(class string) bool {
	for _, c := range n.Classes() {
		if c == class {
			return true
		}
	}
	return false
}

// Walk visits n and all its descendants in document order. Returning false
// from fn skips the children of the visited node.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, fn)
	}
}

// Find returns the first node in document order (n included) matching pred.
func Find(n *Node, pred func(*Node) bool) *Node {
	var found *Node
	Walk(n, func(cur *Node) bool {
		if found != nil {
			return false
		}
		if pred(cur) {
			found = cur
			return false
		}
		return true
	})
	return found
}

// FindByID returns the element with the given id attribute.
func FindByID(n *Node, id string) *Node {
	return Find(n, func(cur *Node) bool {
		return cur.Type == html.ElementNode && cur.ID() == id
	})
}

// FindByClass returns the first element carrying the given class.
func FindByClass(n *Node, class string) *Node {
	return Find(n, func(cur *Node) bool {
		return cur.Type == html.ElementNode && cur.HasClass(class)
	})
}

// TextContent returns concatenated text of all descendant text nodes.
func TextContent(n *Node) string {
	var b strings.Builder
	Walk(n, func(cur *Node) bool {
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
		}
		return true
	})
	return b.String()
}

// Render renders the document back to HTML
func (d *Document) Render() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, toHTML(d.Root)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// toHTML rebuilds an x/net/html tree from n
func toHTML(n *Node) *html.Node {
	if n == nil {
		return nil
	}
	out := &html.Node{Type: n.Type, Data: n.Data, Attr: n.Attr}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out.AppendChild(toHTML(c))
	}
	return out
}
