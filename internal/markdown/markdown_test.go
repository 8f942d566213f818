package markdown

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	xhtml "golang.org/x/net/html"

	"github.com/archvision/reportpdf/internal/report"
)

const sample = "# Payments API\n\n" +
	"## Spoofing\n\n" +
	"- [CRITICAL] forged session tokens\n" +
	"- [low] verbose errors\n\n" +
	"| Threat | Severity |\n|---|---|\n| Replay | [High] |\n\n" +
	"```\nlabel = \"[HIGH]\"\n```\n\n" +
	"<script>alert(1)</script>\n"

func render(t *testing.T, md string) *xhtml.Node {
	t.Helper()
	rep := &report.Report{ID: "r1", Title: "Payments API", Markdown: md}
	out, err := New(zap.NewNop()).Render(rep, report.ParseSeverity(md))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Fatalf("missing doctype: %.40q", out)
	}
	if strings.Contains(out, "<script>") {
		t.Fatal("raw HTML passed through")
	}
	doc, err := xhtml.Parse(strings.NewReader(out))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func find(n *xhtml.Node, pred func(*xhtml.Node) bool) []*xhtml.Node {
	var out []*xhtml.Node
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if pred(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *xhtml.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func withClass(class string) func(*xhtml.Node) bool {
	return func(n *xhtml.Node) bool {
		return n.Type == xhtml.ElementNode && strings.Contains(" "+attr(n, "class")+" ", " "+class+" ")
	}
}

func text(n *xhtml.Node) string {
	var sb strings.Builder
	for _, t := range find(n, func(n *xhtml.Node) bool { return n.Type == xhtml.TextNode }) {
		sb.WriteString(t.Data)
	}
	return sb.String()
}

func TestRenderStructure(t *testing.T) {
	doc := render(t, sample)

	roots := find(doc, func(n *xhtml.Node) bool { return attr(n, "id") == ContentRootID })
	if len(roots) != 1 {
		t.Fatalf("expected one content root, got %d", len(roots))
	}
	root := roots[0]

	var kids []string
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		kids = append(kids, attr(c, "class"))
	}
	if len(kids) != 2 || kids[0] != SummaryClass || kids[1] != ProseClass {
		t.Fatalf("content root children = %v", kids)
	}

	chips := find(root.FirstChild, withClass(ChipClass))
	if len(chips) != 3 {
		t.Fatalf("expected 3 chips, got %d", len(chips))
	}
	want := []string{"CRITICAL 1", "HIGH 1", "LOW 1"}
	for i, c := range chips {
		if got := strings.TrimSpace(strings.ReplaceAll(text(c), "\u00a0", " ")); got != want[i] {
			t.Errorf("chip %d = %q, want %q", i, got, want[i])
		}
	}
}

func TestRenderBadges(t *testing.T) {
	doc := render(t, sample)
	badges := find(doc, withClass(BadgeClass))
	var got []string
	for _, b := range badges {
		got = append(got, attr(b, "class"))
	}
	want := []string{"severity severity-critical", "severity severity-low", "severity severity-high"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("badges = %v, want %v", got, want)
	}

	codes := find(doc, func(n *xhtml.Node) bool { return n.Type == xhtml.ElementNode && n.Data == "code" })
	if len(codes) != 1 || !strings.Contains(text(codes[0]), "[HIGH]") {
		t.Fatal("tags inside code must stay untouched")
	}

	items := find(doc, func(n *xhtml.Node) bool { return n.Type == xhtml.ElementNode && n.Data == "li" })
	if len(items) != 2 || !strings.HasSuffix(text(items[0]), " forged session tokens") {
		t.Fatalf("unexpected list item text %q", text(items[0]))
	}
}

func TestRenderWithoutFindings(t *testing.T) {
	doc := render(t, "# Empty\n\nNothing found.\n")
	if n := len(find(doc, withClass(SummaryClass))); n != 0 {
		t.Fatalf("summary rendered for a report without findings")
	}
	if n := len(find(doc, withClass(ProseClass))); n != 1 {
		t.Fatalf("expected prose region, got %d", n)
	}
	titles := find(doc, func(n *xhtml.Node) bool { return n.Type == xhtml.ElementNode && n.Data == "title" })
	if len(titles) != 1 || text(titles[0]) != "Payments API" {
		t.Fatal("title missing")
	}
}
