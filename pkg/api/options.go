package api

import (
	_ "embed"
	"time"

	"go.uber.org/zap"

	"github.com/archvision/reportpdf/internal/layout"
	"github.com/archvision/reportpdf/internal/pagination"
	"github.com/archvision/reportpdf/internal/render/raster"
	"github.com/archvision/reportpdf/internal/report"
	"github.com/archvision/reportpdf/internal/style"
)

//go:embed report.css
var defaultReportStylesheet string

// Tier is the subscription plan of the user requesting an export.
type Tier int

const (
	TierPro Tier = iota
	TierFree
)

func (t Tier) String() string {
	if t == TierFree {
		return "free"
	}
	return "pro"
}

// Options represents configuration options for the report exporter
type Options struct {
	// Product names the exported file and heads every page.
	Product string

	// Page geometry in mm
	PageSize pagination.PageSize
	Margins  pagination.Margins

	// Capture
	Scale         float64
	ViewportWidth float64
	// Theme is the visual mode the report view is in. Captures always
	// happen in light mode.
	Theme  style.Theme
	Settle time.Duration

	// Page images
	JPEGQuality int
	Workers     int

	// Overlay draws the logo, product, timestamp and page numbers.
	Overlay bool
	// Logo is a path, URL or data URL.
	Logo string

	// Stylesheet replaces the built in report stylesheet when not empty.
	Stylesheet string
	// ExtraStylesheets are paths or URLs applied after the report stylesheet.
	ExtraStylesheets []string
	ResourcePaths    []string

	// Document metadata
	Author   string
	Subject  string
	Keywords string
	// Validate parses the generated document back before it is written.
	Validate bool

	Tier     Tier
	Logger   *zap.Logger
	Notifier report.Notifier
	// Now is the clock used for the overlay timestamp.
	Now func() time.Time
}

// Option is a function that modifies Options
type Option func(*Options)

// Export defaults, the values the web application used.
const (
	DefaultProduct = "Arch Vision"
	DefaultScale   = 2.0
	DefaultSettle  = 100 * time.Millisecond
)

// DefaultOptions returns the default options
func DefaultOptions() Options {
	return Options{
		Product:       DefaultProduct,
		PageSize:      pagination.PageSizeA4,
		Margins:       pagination.DefaultMargins,
		Scale:         DefaultScale,
		ViewportWidth: layout.DefaultViewportWidth,
		Theme:         style.ThemeLight,
		Settle:        DefaultSettle,
		JPEGQuality:   raster.DefaultJPEGQuality,
		Overlay:       true,
		Stylesheet:    defaultReportStylesheet,
		Tier:          TierPro,
		Now:           time.Now,
	}
}

// WithProduct sets the product name
func WithProduct(product string) Option {
	return func(o *Options) {
		o.Product = product
	}
}

// WithPageSize sets the page size
func WithPageSize(size pagination.PageSize) Option {
	return func(o *Options) {
		o.PageSize = size
	}
}

// WithPageSizeA4 sets the page size to A4
func WithPageSizeA4() Option {
	return WithPageSize(pagination.PageSizeA4)
}

// WithPageSizeLetter sets the page size to US Letter
func WithPageSizeLetter() Option {
	return WithPageSize(pagination.PageSizeLetter)
}

// WithLandscape swaps the page dimensions so that the width is the larger one.
func WithLandscape() Option {
	return func(o *Options) {
		o.PageSize = o.PageSize.Landscape()
	}
}

// WithMargins sets the page margins in mm
func WithMargins(top, right, bottom, left float64) Option {
	return func(o *Options) {
		o.Margins = pagination.Margins{Top: top, Right: right, Bottom: bottom, Left: left}
	}
}

// WithScale sets the capture scale factor
func WithScale(scale float64) Option {
	return func(o *Options) {
		o.Scale = scale
	}
}

// WithViewportWidth sets the width the report is laid out at, in px
func WithViewportWidth(width float64) Option {
	return func(o *Options) {
		o.ViewportWidth = width
	}
}

// WithTheme sets the visual mode of the report view
func WithTheme(theme style.Theme) Option {
	return func(o *Options) {
		o.Theme = theme
	}
}

// WithSettle sets how long layout is given to settle after switching modes
func WithSettle(d time.Duration) Option {
	return func(o *Options) {
		o.Settle = d
	}
}

// WithJPEGQuality sets the quality of page images, 1-100
func WithJPEGQuality(quality int) Option {
	return func(o *Options) {
		o.JPEGQuality = quality
	}
}

// WithWorkers limits the number of pages encoded in parallel
func WithWorkers(n int) Option {
	return func(o *Options) {
		o.Workers = n
	}
}

// WithOverlay enables or disables the page header and footer
func WithOverlay(enabled bool) Option {
	return func(o *Options) {
		o.Overlay = enabled
	}
}

// WithLogo sets the logo drawn in the page header
func WithLogo(src string) Option {
	return func(o *Options) {
		o.Logo = src
	}
}

// WithStylesheet replaces the report stylesheet
func WithStylesheet(css string) Option {
	return func(o *Options) {
		o.Stylesheet = css
	}
}

// WithExtraStylesheet adds a stylesheet loaded from a path or URL
func WithExtraStylesheet(src string) Option {
	return func(o *Options) {
		o.ExtraStylesheets = append(o.ExtraStylesheets, src)
	}
}

// WithResourcePath adds a path to search for resources
func WithResourcePath(path string) Option {
	return func(o *Options) {
		o.ResourcePaths = append(o.ResourcePaths, path)
	}
}

// WithAuthor sets the document author
func WithAuthor(author string) Option {
	return func(o *Options) {
		o.Author = author
	}
}

// WithSubject sets the document subject
func WithSubject(subject string) Option {
	return func(o *Options) {
		o.Subject = subject
	}
}

// WithKeywords sets the document keywords
func WithKeywords(keywords string) Option {
	return func(o *Options) {
		o.Keywords = keywords
	}
}

// WithValidation enables the structure check of generated documents
func WithValidation(enabled bool) Option {
	return func(o *Options) {
		o.Validate = enabled
	}
}

// WithTier sets the plan of the requesting user
func WithTier(tier Tier) Option {
	return func(o *Options) {
		o.Tier = tier
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithNotifier sets the sink of user facing export events
func WithNotifier(n report.Notifier) Option {
	return func(o *Options) {
		o.Notifier = n
	}
}

// WithClock sets the clock used for the overlay timestamp
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Now = now
	}
}
