package html

import (
	"strings"
	"testing"
)

const sample = `<html><body>
<div id="report-content">
  <div class="severity-summary"><span class="chip">2</span></div>
  <div class="prose wide"><h1>Title</h1><p>Hello <b>world</b></p></div>
</div>
</body></html>`

func TestFindByIDAndClass(t *testing.T) {
	doc, err := NewParser().ParseString(sample)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	root := FindByID(doc.Root, "report-content")
	if root == nil {
		t.Fatal("content root not found")
	}
	if root.Tag() != "div" {
		t.Fatalf("unexpected tag %q", root.Tag())
	}

	prose := FindByClass(root, "prose")
	if prose == nil {
		t.Fatal("prose not found")
	}
	if !prose.HasClass("wide") || prose.HasClass("pros") {
		t.Fatalf("unexpected class list %v", prose.Classes())
	}

	if got := strings.TrimSpace(TextContent(prose)); got != "TitleHello world" {
		t.Fatalf("text content = %q", got)
	}

	if FindByClass(doc.Root, "missing") != nil {
		t.Fatal("expected nil for missing class")
	}
}

func TestWalkDocumentOrder(t *testing.T) {
	doc, err := NewParser().ParseString(`<div><h2>a</h2><ul><li><p>b</p></li></ul><p>c</p></div>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var tags []string
	Walk(doc.Root, func(n *Node) bool {
		switch n.Tag() {
		case "h2", "ul", "p":
			tags = append(tags, n.Tag())
		}
		return true
	})
	if got := strings.Join(tags, ","); got != "h2,ul,p,p" {
		t.Fatalf("order = %s", got)
	}
}

func TestRenderRoundTrip(t *testing.T) {
	doc, err := NewParser().ParseString(`<p class="x">hi</p>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := doc.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, `<p class="x">hi</p>`) {
		t.Fatalf("render output missing paragraph: %s", out)
	}
}
