package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/archvision/reportpdf/internal/layout"
	"github.com/archvision/reportpdf/internal/parser/css"
	"github.com/archvision/reportpdf/internal/report"
	"github.com/archvision/reportpdf/internal/style"
)

type event struct {
	level report.Level
	msg   string
}

type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) Notify(level report.Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{level, msg})
}

func (r *recorder) only(t *testing.T, level report.Level, msg string) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) != 1 || r.events[0].level != level || r.events[0].msg != msg {
		t.Fatalf("events = %+v, want one %s %q", r.events, level, msg)
	}
}

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestExporter(t *testing.T, n report.Notifier, opts ...Option) *Exporter {
	t.Helper()
	base := []Option{
		WithSettle(0),
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(zaptest.NewLogger(t)),
		WithNotifier(n),
	}
	return New(append(base, opts...)...)
}

const shortReport = "# Payments API\n\n" +
	"## Spoofing\n\n" +
	"- [CRITICAL] session tokens can be forged\n" +
	"- [MEDIUM] no MFA for operators\n\n" +
	"## Repudiation\n\n" +
	"Audit logs are kept for 30 days. [low]\n"

func longReport(sections int) string {
	var sb strings.Builder
	sb.WriteString("# Inventory service\n\n")
	for i := 0; i < sections; i++ {
		fmt.Fprintf(&sb, "## Threat %d\n\n", i+1)
		fmt.Fprintf(&sb, "[HIGH] The inventory endpoint %d trusts the caller supplied warehouse id "+
			"and returns stock levels of every tenant sharing the warehouse.\n\n", i+1)
		sb.WriteString("- validate the tenant claim\n- scope queries by tenant\n\n")
	}
	return sb.String()
}

func countPages(pdf []byte) int {
	return bytes.Count(pdf, []byte("<</Type /Page\n"))
}

func TestExport(t *testing.T) {
	rec := &recorder{}
	exp := newTestExporter(t, rec)
	rep := &report.Report{ID: "42", Title: "Payments API", Markdown: shortReport}

	var buf bytes.Buffer
	res, err := exp.Export(context.Background(), rep, &buf)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %.10q", buf.Bytes())
	}
	if res.FileName != "arch-vision-report-42.pdf" {
		t.Errorf("FileName = %q", res.FileName)
	}
	if res.Pages != 1 || len(res.Slices) != 1 || countPages(buf.Bytes()) != 1 {
		t.Errorf("pages = %d, slices = %d, pdf pages = %d", res.Pages, len(res.Slices), countPages(buf.Bytes()))
	}
	if res.Slices[0].StartY != 0 {
		t.Errorf("first slice starts at %d", res.Slices[0].StartY)
	}
	if res.Severity.Count(report.SeverityCritical) != 1 || res.Severity.Count(report.SeverityLow) != 1 || res.Severity.Total() != 3 {
		t.Errorf("Severity = %v", res.Severity)
	}
	// h1, h2, ul, h2, p
	if res.Blocks != 5 {
		t.Errorf("Blocks = %d, want 5", res.Blocks)
	}
	if res.Bytes != buf.Len() {
		t.Errorf("Bytes = %d, written %d", res.Bytes, buf.Len())
	}
	rec.only(t, report.LevelSuccess, MessageExported)
}

func TestExportMultiplePages(t *testing.T) {
	exp := newTestExporter(t, nil)
	rep := &report.Report{ID: "inv", Title: "Inventory service", Markdown: longReport(24)}

	var buf bytes.Buffer
	res, err := exp.Export(context.Background(), rep, &buf)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if res.Pages < 3 {
		t.Fatalf("expected at least 3 pages, got %d", res.Pages)
	}
	if countPages(buf.Bytes()) != res.Pages {
		t.Errorf("pdf has %d pages, result says %d", countPages(buf.Bytes()), res.Pages)
	}
	if res.Slices[0].StartY != 0 {
		t.Errorf("first slice starts at %d", res.Slices[0].StartY)
	}
	for i := 1; i < len(res.Slices); i++ {
		if res.Slices[i].StartY != res.Slices[i-1].EndY {
			t.Errorf("slice %d starts at %d, previous ends at %d", i, res.Slices[i].StartY, res.Slices[i-1].EndY)
		}
		if res.Slices[i].Height() <= 0 {
			t.Errorf("slice %d is empty", i)
		}
	}
	if res.Severity.Count(report.SeverityHigh) != 24 {
		t.Errorf("Severity = %v", res.Severity)
	}
}

func TestExportIgnoresViewMode(t *testing.T) {
	rep := &report.Report{ID: "inv", Markdown: longReport(12)}

	var light, dark bytes.Buffer
	resLight, err := newTestExporter(t, nil).Export(context.Background(), rep, &light)
	if err != nil {
		t.Fatalf("light: %v", err)
	}
	resDark, err := newTestExporter(t, nil, WithTheme(style.ThemeDark)).Export(context.Background(), rep, &dark)
	if err != nil {
		t.Fatalf("dark: %v", err)
	}
	if fmt.Sprint(resLight.Slices) != fmt.Sprint(resDark.Slices) {
		t.Errorf("slices differ: %v vs %v", resLight.Slices, resDark.Slices)
	}
	if resLight.Pages != resDark.Pages || resLight.Blocks != resDark.Blocks {
		t.Errorf("light %d pages %d blocks, dark %d pages %d blocks",
			resLight.Pages, resLight.Blocks, resDark.Pages, resDark.Blocks)
	}
}

func TestExportValidated(t *testing.T) {
	exp := newTestExporter(t, nil, WithValidation(true))
	var buf bytes.Buffer
	res, err := exp.Export(context.Background(), &report.Report{ID: "v", Markdown: longReport(6)}, &buf)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if countPages(buf.Bytes()) != res.Pages {
		t.Errorf("pdf has %d pages, result says %d", countPages(buf.Bytes()), res.Pages)
	}
}

func TestExportUpgradeRequired(t *testing.T) {
	rec := &recorder{}
	exp := newTestExporter(t, rec, WithTier(TierFree))

	var buf bytes.Buffer
	_, err := exp.Export(context.Background(), &report.Report{ID: "1", Markdown: shortReport}, &buf)
	if !errors.Is(err, ErrUpgradeRequired) {
		t.Fatalf("err = %v, want %v", err, ErrUpgradeRequired)
	}
	if buf.Len() != 0 {
		t.Error("nothing must be written")
	}
	rec.only(t, report.LevelError, MessageUpgradeRequired)
}

func TestExportFailureWritesNothing(t *testing.T) {
	rec := &recorder{}
	exp := newTestExporter(t, rec, WithLogo(filepath.Join(t.TempDir(), "missing.png")))

	var buf bytes.Buffer
	if _, err := exp.Export(context.Background(), &report.Report{ID: "1", Markdown: shortReport}, &buf); err == nil {
		t.Fatal("expected error for missing logo")
	}
	if buf.Len() != 0 {
		t.Error("nothing must be written")
	}
	rec.only(t, report.LevelError, MessageExportFailed)
}

func TestExportCancelled(t *testing.T) {
	rec := &recorder{}
	exp := newTestExporter(t, rec, WithSettle(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := exp.Export(ctx, &report.Report{ID: "1", Markdown: shortReport}, &buf)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	rec.only(t, report.LevelError, MessageExportFailed)
}

func TestExportFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	exp := newTestExporter(t, nil, WithProduct("Threat Desk"))

	res, err := exp.ExportFile(context.Background(), &report.Report{ID: "q3", Markdown: shortReport}, dir)
	if err != nil {
		t.Fatalf("ExportFile() error = %v", err)
	}
	if res.FileName != "threat-desk-report-q3.pdf" {
		t.Errorf("FileName = %q", res.FileName)
	}
	data, err := os.ReadFile(filepath.Join(dir, res.FileName))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(data) != res.Bytes {
		t.Errorf("file has %d bytes, result says %d", len(data), res.Bytes)
	}
}

func TestExportBytes(t *testing.T) {
	data, res, err := newTestExporter(t, nil).ExportBytes(context.Background(), &report.Report{Markdown: shortReport})
	if err != nil {
		t.Fatalf("ExportBytes() error = %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("not a PDF")
	}
	// empty ids are replaced by a fresh one
	if !strings.HasPrefix(res.FileName, "arch-vision-report-") || len(res.FileName) <= len("arch-vision-report-.pdf") {
		t.Errorf("FileName = %q", res.FileName)
	}
}

func TestWithOption(t *testing.T) {
	exp := New()
	other := exp.WithOption(WithJPEGQuality(90))
	if exp.Options().JPEGQuality != 95 || other.Options().JPEGQuality != 90 {
		t.Errorf("quality = %d / %d", exp.Options().JPEGQuality, other.Options().JPEGQuality)
	}
}

func testDocument(t *testing.T, markup string, theme style.Theme) *Document {
	t.Helper()
	sheet, err := css.NewParser().ParseString(defaultReportStylesheet)
	if err != nil {
		t.Fatalf("parse stylesheet: %v", err)
	}
	engine := layout.NewEngine()
	doc, err := NewDocument(context.Background(), markup, []*css.Stylesheet{sheet}, engine, nil, theme, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewDocument() error = %v", err)
	}
	return doc
}

func TestDocument(t *testing.T) {
	markup := `<html><head><style>.prose p { margin: 0 0 40px 0; }</style></head><body>
<div id="report-content"><div class="prose"><h1>Title</h1><p>one</p><p>two</p></div></div></body></html>`
	doc := testDocument(t, markup, style.ThemeDark)

	if doc.Theme() != style.ThemeDark {
		t.Fatalf("Theme() = %v", doc.Theme())
	}
	content, err := doc.Content()
	if err != nil {
		t.Fatalf("Content() error = %v", err)
	}
	blocks := layout.LocateBlocks(content)
	if len(blocks) != 3 {
		t.Fatalf("blocks = %+v", blocks)
	}
	// the document <style> applies after the report stylesheet
	if gap := blocks[2].OffsetTop - (blocks[1].OffsetTop + blocks[1].OffsetHeight); math.Abs(gap-40) > 1e-6 {
		t.Errorf("paragraph gap = %v, want 40", gap)
	}

	doc.ScrollTo(-10, 1e9)
	if x, y := doc.ScrollOffset(); x != 0 || y != doc.Root().Height {
		t.Errorf("scroll not clamped: %v, %v", x, y)
	}
	doc.ScrollTo(0, 5)

	if err := doc.SetTheme(style.ThemeLight); err != nil {
		t.Fatalf("SetTheme() error = %v", err)
	}
	if _, y := doc.ScrollOffset(); y != 5 {
		t.Errorf("relayout moved the view to %v", y)
	}
	if err := doc.SetTheme(style.Theme(7)); err == nil {
		t.Error("expected error for unknown theme")
	}
}

func TestDocumentWithoutContentRoot(t *testing.T) {
	doc := testDocument(t, "<p>loose</p>", style.ThemeLight)
	if _, err := doc.Content(); !errors.Is(err, ErrNoContentRoot) {
		t.Fatalf("err = %v, want %v", err, ErrNoContentRoot)
	}
}
