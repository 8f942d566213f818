// Package api exports STRIDE threat model reports as paginated PDF documents.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/archvision/reportpdf/internal/capture"
	"github.com/archvision/reportpdf/internal/layout"
	"github.com/archvision/reportpdf/internal/markdown"
	"github.com/archvision/reportpdf/internal/pagination"
	"github.com/archvision/reportpdf/internal/parser/css"
	"github.com/archvision/reportpdf/internal/render/pdf"
	"github.com/archvision/reportpdf/internal/render/raster"
	"github.com/archvision/reportpdf/internal/report"
	"github.com/archvision/reportpdf/internal/res"
	"github.com/archvision/reportpdf/internal/style"
	"github.com/archvision/reportpdf/internal/text"
)

// ErrUpgradeRequired is returned when the requesting plan does not include
// PDF export.
var ErrUpgradeRequired = errors.New("PDF export requires the pro plan")

// Notification messages.
const (
	MessageExported        = "PDF exported"
	MessageExportFailed    = "Failed to export PDF"
	MessageUpgradeRequired = "Upgrade to Pro to export PDF reports"
)

// Result describes a finished export.
type Result struct {
	FileName string
	Pages    int
	Blocks   int
	Slices   []pagination.Slice
	Severity report.SeveritySummary
	Bytes    int
}

// Exporter is the main API for exporting reports to PDF
type Exporter struct {
	options Options
	logger  *zap.Logger
	faces   *text.Faces
}

// New creates a new exporter with default options modified by opts
func New(opts ...Option) *Exporter {
	options := DefaultOptions()
	for _, o := range opts {
		o(&options)
	}
	return NewWithOptions(options)
}

// NewWithOptions creates a new exporter with the specified options
func NewWithOptions(options Options) *Exporter {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if options.Now == nil {
		options.Now = DefaultOptions().Now
	}
	return &Exporter{
		options: options,
		logger:  logger.Named("export"),
		faces:   text.Shared(),
	}
}

// Options returns a copy of the exporter options.
func (e *Exporter) Options() Options {
	return e.options
}

// WithOption returns a new exporter with the specified option set
func (e *Exporter) WithOption(option Option) *Exporter {
	newOptions := e.options
	option(&newOptions)
	return NewWithOptions(newOptions)
}

func (e *Exporter) notify(level report.Level, msg string) {
	if e.options.Notifier != nil {
		e.options.Notifier.Notify(level, msg)
	}
}

// Export renders the report, forces the view into light mode, captures it,
// slices the capture into pages at block boundaries and writes the PDF to w.
// The notifier receives a success or an error event. Nothing is written to w
// unless the whole export succeeds.
func (e *Exporter) Export(ctx context.Context, rep *report.Report, w io.Writer) (*Result, error) {
	if e.options.Tier != TierPro {
		e.notify(report.LevelError, MessageUpgradeRequired)
		return nil, ErrUpgradeRequired
	}
	if rep == nil {
		return nil, errors.New("no report to export")
	}

	res, err := e.export(ctx, rep, w)
	if err != nil {
		e.logger.Error("Export failed", zap.String("id", rep.ID), zap.Error(err))
		e.notify(report.LevelError, MessageExportFailed)
		return nil, err
	}
	e.logger.Info("Exported report",
		zap.String("id", rep.ID),
		zap.String("file", res.FileName),
		zap.Int("pages", res.Pages))
	e.notify(report.LevelSuccess, MessageExported)
	return res, nil
}

func (e *Exporter) export(ctx context.Context, rep *report.Report, w io.Writer) (*Result, error) {
	o := e.options
	log := e.logger.With(zap.String("id", rep.ID))

	loader := res.NewLoader("", log.Named("res"))
	for _, p := range o.ResourcePaths {
		loader.AddSearchPath(p)
	}

	summary := report.ParseSeverity(rep.Markdown)
	log.Debug("Parsed severity", zap.Stringer("summary", summary))

	markup, err := markdown.New(log.Named("markdown")).Render(rep, summary)
	if err != nil {
		return nil, err
	}

	sheets, err := e.stylesheets(ctx, loader)
	if err != nil {
		return nil, err
	}

	engine := layout.NewEngine()
	engine.SetOptions(layout.Options{ViewportWidth: o.ViewportWidth})
	engine.SetFaces(e.faces)
	engine.SetLogger(log.Named("layout"))
	engine.SetImageLoader(imageLoader(ctx, loader))

	doc, err := NewDocument(ctx, markup, sheets, engine, loader, o.Theme, log.Named("document"))
	if err != nil {
		return nil, err
	}

	rasterizer := capture.NewRasterizer(e.faces, log.Named("capture"))
	rasterizer.Background = style.ThemeLight.Background()
	session := &capture.Session{
		Surface:    doc,
		Rasterizer: rasterizer,
		Scale:      o.Scale,
		Settle:     o.Settle,
		Logger:     log.Named("capture"),
	}
	shot, err := session.Run(ctx)
	if err != nil {
		return nil, err
	}
	bounds := shot.Bitmap.Bounds()
	log.Debug("Captured report",
		zap.Int("blocks", len(shot.Blocks)),
		zap.Int("width", bounds.Dx()),
		zap.Int("height", bounds.Dy()))

	paginator := pagination.NewEngine()
	paginator.SetOptions(pagination.Options{PageSize: o.PageSize, Margins: o.Margins})
	if paginator.ContentWidthMM() <= 0 || paginator.ContentHeightMM() <= 0 {
		return nil, fmt.Errorf("margins leave no room on a %s page", o.PageSize.Name)
	}
	slices := paginator.Paginate(shot.Blocks, bounds.Dx(), bounds.Dy(), shot.Scale)
	log.Debug("Computed slices",
		zap.Int("count", len(slices)),
		zap.Int("page_height_px", paginator.PageHeightPx(bounds.Dx())))

	pages, err := raster.Rasterize(shot.Bitmap, slices, paginator.ContentWidthMM(), raster.Options{
		Quality: o.JPEGQuality,
		Workers: o.Workers,
	})
	if err != nil {
		return nil, err
	}

	renderer := pdf.NewRenderer(log.Named("pdf"))
	renderer.PageSize = o.PageSize
	renderer.Margins = o.Margins
	renderer.Validate = o.Validate
	if o.Overlay {
		renderer.Overlay = pdf.Overlay{
			Enabled:   true,
			Title:     overlayTitle(o.Product, rep.Title),
			Generated: o.Now(),
		}
		if o.Logo != "" {
			logo, err := loader.LoadImage(ctx, o.Logo)
			if err != nil {
				return nil, fmt.Errorf("failed to load logo: %w", err)
			}
			renderer.Overlay.Logo = logo.Data
		}
	}

	var buf bytes.Buffer
	err = renderer.Render(&buf, pages, pdf.RenderOptions{
		Title:        rep.Title,
		Author:       o.Author,
		Subject:      o.Subject,
		Keywords:     o.Keywords,
		Creator:      o.Product,
		Producer:     "reportpdf",
		CreationDate: o.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}

	return &Result{
		FileName: report.FileName(o.Product, rep.ID),
		Pages:    len(pages),
		Blocks:   len(shot.Blocks),
		Slices:   slices,
		Severity: summary,
		Bytes:    buf.Len(),
	}, nil
}

func overlayTitle(product, title string) string {
	switch {
	case title == "":
		return product
	case product == "":
		return title
	}
	return product + " · " + title
}

// stylesheets returns the report stylesheet and any extra ones, in cascade order.
func (e *Exporter) stylesheets(ctx context.Context, loader *res.Loader) ([]*css.Stylesheet, error) {
	parser := css.NewParser()
	var sheets []*css.Stylesheet
	if e.options.Stylesheet != "" {
		s, err := parser.ParseString(e.options.Stylesheet)
		if err != nil {
			return nil, fmt.Errorf("failed to parse report stylesheet: %w", err)
		}
		sheets = append(sheets, s)
	}
	for _, src := range e.options.ExtraStylesheets {
		r, err := loader.LoadCSS(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("failed to load stylesheet: %w", err)
		}
		s, err := parser.ParseString(r.GetString())
		if err != nil {
			return nil, fmt.Errorf("failed to parse stylesheet %s: %w", src, err)
		}
		sheets = append(sheets, s)
	}
	return sheets, nil
}

func imageLoader(ctx context.Context, loader *res.Loader) layout.ImageLoader {
	return func(src string) (image.Image, error) {
		r, err := loader.LoadImage(ctx, src)
		if err != nil {
			return nil, err
		}
		img, _, err := image.Decode(bytes.NewReader(r.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", src, err)
		}
		return img, nil
	}
}

// ExportFile exports the report into dir under its download name and returns
// the result. A partially written file is removed.
func (e *Exporter) ExportFile(ctx context.Context, rep *report.Report, dir string) (res *Result, err error) {
	if rep != nil && strings.ContainsAny(rep.ID, `/\`) {
		return nil, fmt.Errorf("report id %q cannot be used in a file name", rep.ID)
	}
	var buf bytes.Buffer
	if res, err = e.Export(ctx, rep, &buf); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, res.FileName)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
		if err != nil {
			res = nil
			_ = os.Remove(path)
		}
	}()
	if _, err = f.Write(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to write output file: %w", err)
	}
	return res, nil
}

// ExportBytes exports the report and returns the PDF document.
func (e *Exporter) ExportBytes(ctx context.Context, rep *report.Report) ([]byte, *Result, error) {
	var buf bytes.Buffer
	res, err := e.Export(ctx, rep, &buf)
	if err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), res, nil
}
