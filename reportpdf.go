package reportpdf

import (
	"github.com/archvision/reportpdf/internal/pagination"
	"github.com/archvision/reportpdf/internal/report"
	"github.com/archvision/reportpdf/internal/style"
	"github.com/archvision/reportpdf/pkg/api"
)

type Exporter = api.Exporter
type Options = api.Options
type Option = api.Option
type Result = api.Result
type Tier = api.Tier

type Report = report.Report
type SeveritySummary = report.SeveritySummary
type Notifier = report.Notifier
type NotifierFunc = report.NotifierFunc
type Level = report.Level

type PageSize = pagination.PageSize
type Slice = pagination.Slice
type Theme = style.Theme

func New(opts ...Option) *Exporter                  { return api.New(opts...) }
func NewWithOptions(options Options) *Exporter      { return api.NewWithOptions(options) }
func DefaultOptions() Options                       { return api.DefaultOptions() }
func ParseSeverity(markdown string) SeveritySummary { return report.ParseSeverity(markdown) }
func FileName(product, reportID string) string      { return report.FileName(product, reportID) }

var (
	WithProduct         = api.WithProduct
	WithPageSize        = api.WithPageSize
	WithPageSizeA4      = api.WithPageSizeA4
	WithPageSizeLetter  = api.WithPageSizeLetter
	WithLandscape       = api.WithLandscape
	WithMargins         = api.WithMargins
	WithScale           = api.WithScale
	WithViewportWidth   = api.WithViewportWidth
	WithTheme           = api.WithTheme
	WithSettle          = api.WithSettle
	WithJPEGQuality     = api.WithJPEGQuality
	WithWorkers         = api.WithWorkers
	WithOverlay         = api.WithOverlay
	WithLogo            = api.WithLogo
	WithStylesheet      = api.WithStylesheet
	WithExtraStylesheet = api.WithExtraStylesheet
	WithResourcePath    = api.WithResourcePath
	WithAuthor          = api.WithAuthor
	WithSubject         = api.WithSubject
	WithKeywords        = api.WithKeywords
	WithValidation      = api.WithValidation
	WithTier            = api.WithTier
	WithLogger          = api.WithLogger
	WithNotifier        = api.WithNotifier
	WithClock           = api.WithClock

	ErrUpgradeRequired = api.ErrUpgradeRequired
)

var (
	PageSizeA4     = pagination.PageSizeA4
	PageSizeLetter = pagination.PageSizeLetter
	PageSizeLegal  = pagination.PageSizeLegal
	PageSizeA3     = pagination.PageSizeA3
	PageSizeA5     = pagination.PageSizeA5
)

const (
	ThemeLight = style.ThemeLight
	ThemeDark  = style.ThemeDark

	TierPro  = api.TierPro
	TierFree = api.TierFree

	LevelInfo    = report.LevelInfo
	LevelSuccess = report.LevelSuccess
	LevelError   = report.LevelError
)
