// Package pdf assembles rasterized report pages into a PDF document.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"codeberg.org/go-pdf/fpdf"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/archvision/reportpdf/internal/pagination"
	"github.com/archvision/reportpdf/internal/render/raster"
)

// ErrNoPages is returned when there is nothing to place.
var ErrNoPages = errors.New("no pages to render")

// DefaultTimeFormat is used for the generation timestamp of the overlay.
const DefaultTimeFormat = "2006-01-02 15:04 MST"

// Overlay describes the per page header and footer drawn over the margins.
type Overlay struct {
	Enabled bool
	Title   string

	// Logo is PNG, JPEG, GIF, WebP, BMP, TIFF or SVG data.
	Logo       []byte
	Generated  time.Time
	TimeFormat string
}

// RenderOptions contains document metadata.
type RenderOptions struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
	Creator  string
	Producer string

	// CreationDate is stored in the document info when set.
	CreationDate time.Time
}

// Renderer handles rendering to PDF
type Renderer struct {
	PageSize pagination.PageSize
	Margins  pagination.Margins
	Overlay  Overlay
	// Validate checks the structure of the generated document before it is
	// written.
	Validate bool

	logger *zap.Logger
}

// NewRenderer creates a new PDF renderer for A4 portrait pages with the
// default margins.
func NewRenderer(logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{
		PageSize: pagination.PageSizeA4,
		Margins:  pagination.DefaultMargins,
		logger:   logger,
	}
}

// ContentWidth returns the width available to page images in mm.
func (r *Renderer) ContentWidth() float64 {
	return r.PageSize.Width - r.Margins.Left - r.Margins.Right
}

// Render places every page image on its own physical page at the top left
// margin, scaled to the content width, and writes the document to w. Nothing
// is written when any step fails.
func (r *Renderer) Render(w io.Writer, pages []raster.Page, options RenderOptions) error {
	if len(pages) == 0 {
		return ErrNoPages
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: r.PageSize.Width, Ht: r.PageSize.Height},
	})
	pdf.SetMargins(r.Margins.Left, r.Margins.Top, r.Margins.Right)
	pdf.SetAutoPageBreak(false, r.Margins.Bottom)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(options.Title, true)
	pdf.SetAuthor(options.Author, true)
	pdf.SetSubject(options.Subject, true)
	pdf.SetKeywords(options.Keywords, true)
	pdf.SetCreator(options.Creator, true)
	pdf.SetProducer(options.Producer, true)
	if !options.CreationDate.IsZero() {
		pdf.SetCreationDate(options.CreationDate)
		pdf.SetModificationDate(options.CreationDate)
	}

	if r.Overlay.Enabled {
		ov, err := r.prepareOverlay(pdf, tr, len(pages))
		if err != nil {
			return err
		}
		pdf.SetFooterFunc(ov.draw)
	}

	contentWidth := r.ContentWidth()
	for i, page := range pages {
		name := fmt.Sprintf("page-%d", i+1)
		opts := fpdf.ImageOptions{ImageType: page.Format}
		if info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(page.Image)); info == nil || pdf.Err() {
			return fmt.Errorf("failed to register image of page %d: %w", i+1, pdf.Error())
		}
		pdf.AddPage()
		pdf.ImageOptions(name, r.Margins.Left, r.Margins.Top, contentWidth, page.HeightMM, false, opts, 0, "")
		r.logger.Debug("Placed page",
			zap.Int("page", i+1),
			zap.Float64("height_mm", page.HeightMM))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("failed to generate PDF: %w", err)
	}
	if r.Validate {
		if err := validate(buf.Bytes(), len(pages)); err != nil {
			return err
		}
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	r.logger.Debug("Rendered document", zap.Int("pages", len(pages)), zap.Int("bytes", buf.Len()))
	return nil
}

var disableConfigDir = sync.OnceFunc(pdfapi.DisableConfigDir)

// validate parses the document back and checks its page count.
func validate(doc []byte, pages int) error {
	disableConfigDir()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := pdfapi.ReadValidateAndOptimize(bytes.NewReader(doc), conf)
	if err != nil {
		return fmt.Errorf("failed to validate PDF: %w", err)
	}
	if ctx.PageCount != pages {
		return fmt.Errorf("failed to validate PDF: %d pages, expected %d", ctx.PageCount, pages)
	}
	return nil
}

type overlay struct {
	pdf      *fpdf.Fpdf
	tr       func(string) string
	total    int
	pageW    float64
	pageH    float64
	margins  pagination.Margins
	title    string
	stamp    string
	logo     string
	logoW    float64
	logoH    float64
	logoOpts fpdf.ImageOptions
}

const (
	overlayFontSize = 8.0
	logoHeight      = 7.0
)

func (r *Renderer) prepareOverlay(pdf *fpdf.Fpdf, tr func(string) string, total int) (*overlay, error) {
	ov := &overlay{
		pdf:     pdf,
		tr:      tr,
		total:   total,
		pageW:   r.PageSize.Width,
		pageH:   r.PageSize.Height,
		margins: r.Margins,
		title:   r.Overlay.Title,
	}
	if !r.Overlay.Generated.IsZero() {
		format := r.Overlay.TimeFormat
		if format == "" {
			format = DefaultTimeFormat
		}
		ov.stamp = r.Overlay.Generated.Format(format)
	}

	if len(r.Overlay.Logo) > 0 {
		logo, err := decodeLogo(r.Overlay.Logo)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare logo: %w", err)
		}
		ov.logo = "logo"
		ov.logoOpts = fpdf.ImageOptions{ImageType: logo.Format}
		info := pdf.RegisterImageOptionsReader(ov.logo, ov.logoOpts, bytes.NewReader(logo.Data))
		if info == nil || pdf.Err() {
			return nil, fmt.Errorf("failed to register logo: %w", pdf.Error())
		}
		ov.logoH = logoHeight
		ov.logoW = logoHeight * float64(logo.Width) / float64(logo.Height)
	}
	return ov, nil
}

// draw runs after the content of each page has been placed.
func (o *overlay) draw() {
	pdf := o.pdf
	pdf.SetFont("Helvetica", "", overlayFontSize)
	pdf.SetTextColor(107, 114, 128)

	// header, vertically centered in the top margin
	x := o.margins.Left
	mid := o.margins.Top / 2
	if o.logo != "" {
		pdf.ImageOptions(o.logo, x, mid-o.logoH/2, o.logoW, o.logoH, false, o.logoOpts, 0, "")
		x += o.logoW + 2
	}
	if o.title != "" {
		pdf.SetXY(x, mid-3)
		pdf.CellFormat(o.pageW-o.margins.Right-x, 6, o.tr(o.title), "", 0, "L", false, 0, "")
	}

	// footer, vertically centered in the bottom margin
	y := o.pageH - o.margins.Bottom/2 - 3
	width := o.pageW - o.margins.Left - o.margins.Right
	if o.stamp != "" {
		pdf.SetXY(o.margins.Left, y)
		pdf.CellFormat(width, 6, o.tr(o.stamp), "", 0, "L", false, 0, "")
	}
	pdf.SetXY(o.margins.Left, y)
	pdf.CellFormat(width, 6, fmt.Sprintf("Page %d / %d", pdf.PageNo(), o.total), "", 0, "R", false, 0, "")
}
