package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"github.com/archvision/reportpdf/internal/pagination"
	"github.com/archvision/reportpdf/internal/style"
	"github.com/archvision/reportpdf/pkg/api"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	MarginsConfig struct {
		Top    float64 `yaml:"top" validate:"gte=0"`
		Right  float64 `yaml:"right" validate:"gte=0"`
		Bottom float64 `yaml:"bottom" validate:"gte=0"`
		Left   float64 `yaml:"left" validate:"gte=0"`
	}

	PageConfig struct {
		Format      string        `yaml:"format" validate:"oneof=A4 Letter Legal A3 A5"`
		Orientation string        `yaml:"orientation" validate:"oneof=portrait landscape"`
		Margins     MarginsConfig `yaml:"margins"`
	}

	CaptureConfig struct {
		Scale         float64       `yaml:"scale" validate:"gt=0,lte=8"`
		ViewportWidth float64       `yaml:"viewport_width" validate:"gte=320,lte=4096"`
		Theme         string        `yaml:"theme" validate:"oneof=light dark"`
		Settle        time.Duration `yaml:"settle" validate:"gte=0"`
	}

	ImagesConfig struct {
		JPEGQuality int `yaml:"jpeg_quality" validate:"min=90,max=100"`
		Workers     int `yaml:"workers" validate:"gte=0"`
	}

	OverlayConfig struct {
		Enable bool   `yaml:"enable"`
		Logo   string `yaml:"logo"`
	}

	MetadataConfig struct {
		Author   string `yaml:"author"`
		Subject  string `yaml:"subject"`
		Keywords string `yaml:"keywords"`
	}

	ExportConfig struct {
		Product        string         `yaml:"product" validate:"required"`
		OutputDir      string         `yaml:"output_dir" sanitize:"path_clean" validate:"required"`
		Tier           string         `yaml:"tier" validate:"oneof=pro free"`
		Page           PageConfig     `yaml:"page"`
		Capture        CaptureConfig  `yaml:"capture"`
		Images         ImagesConfig   `yaml:"images"`
		Overlay        OverlayConfig  `yaml:"overlay"`
		Validate       bool           `yaml:"validate"`
		StylesheetPath string         `yaml:"stylesheet_path" sanitize:"assure_file_access"`
		ResourcePaths  []string       `yaml:"resource_paths" validate:"dive,required"`
		Metadata       MetadataConfig `yaml:"metadata"`
	}

	Config struct {
		Version int           `yaml:"version" validate:"eq=1"`
		Export  ExportConfig  `yaml:"export"`
		Logging LoggingConfig `yaml:"logging"`
	}
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// Only fields we defined are allowed, so yaml.Unmarshal cannot be used
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}

// PageSize returns the configured page format in the configured orientation.
func (c *ExportConfig) PageSize() (pagination.PageSize, error) {
	size, err := pagination.LookupPageSize(c.Page.Format)
	if err != nil {
		return pagination.PageSize{}, err
	}
	if c.Page.Orientation == "landscape" {
		size = size.Landscape()
	}
	return size, nil
}

// ToOptions maps the export section onto exporter options.
func (c *ExportConfig) ToOptions() ([]api.Option, error) {
	size, err := c.PageSize()
	if err != nil {
		return nil, err
	}
	theme, err := style.ParseTheme(c.Capture.Theme)
	if err != nil {
		return nil, err
	}
	tier := api.TierPro
	if c.Tier == "free" {
		tier = api.TierFree
	}

	m := c.Page.Margins
	opts := []api.Option{
		api.WithProduct(c.Product),
		api.WithPageSize(size),
		api.WithMargins(m.Top, m.Right, m.Bottom, m.Left),
		api.WithScale(c.Capture.Scale),
		api.WithViewportWidth(c.Capture.ViewportWidth),
		api.WithTheme(theme),
		api.WithSettle(c.Capture.Settle),
		api.WithJPEGQuality(c.Images.JPEGQuality),
		api.WithWorkers(c.Images.Workers),
		api.WithOverlay(c.Overlay.Enable),
		api.WithLogo(c.Overlay.Logo),
		api.WithAuthor(c.Metadata.Author),
		api.WithSubject(c.Metadata.Subject),
		api.WithKeywords(c.Metadata.Keywords),
		api.WithValidation(c.Validate),
		api.WithTier(tier),
	}
	if c.StylesheetPath != "" {
		data, err := os.ReadFile(c.StylesheetPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read stylesheet: %w", err)
		}
		opts = append(opts, api.WithStylesheet(string(data)))
	}
	for _, p := range c.ResourcePaths {
		opts = append(opts, api.WithResourcePath(p))
	}
	return opts, nil
}
