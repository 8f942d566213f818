package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/archvision/reportpdf/internal/pagination"
	"github.com/archvision/reportpdf/internal/style"
	"github.com/archvision/reportpdf/pkg/api"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}

	e := cfg.Export
	if e.Product != "Arch Vision" {
		t.Errorf("Product = %q", e.Product)
	}
	if e.Page.Format != "A4" || e.Page.Orientation != "portrait" {
		t.Errorf("Page = %+v", e.Page)
	}
	if m := e.Page.Margins; m.Top != 15 || m.Right != 10 || m.Bottom != 15 || m.Left != 10 {
		t.Errorf("Margins = %+v", m)
	}
	if e.Capture.Scale != 2 || e.Capture.Settle != 100*time.Millisecond {
		t.Errorf("Capture = %+v", e.Capture)
	}
	if e.Images.JPEGQuality != 95 {
		t.Errorf("JPEGQuality = %d, want 95", e.Images.JPEGQuality)
	}
	if cfg.Logging.ConsoleLogger.Level != "normal" {
		t.Errorf("console level = %q", cfg.Logging.ConsoleLogger.Level)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	path := writeConfig(t, `version: 1
export:
  product: Threat Desk
  page:
    format: Letter
    orientation: landscape
  capture:
    theme: dark
    settle: 250ms
  images:
    jpeg_quality: 92
logging:
  console:
    level: debug
`)
	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	e := cfg.Export
	if e.Product != "Threat Desk" || e.Images.JPEGQuality != 92 {
		t.Errorf("overlay not applied: %+v", e)
	}
	// values not in the file keep their defaults
	if e.Capture.Scale != 2 || e.Page.Margins.Top != 15 {
		t.Errorf("defaults lost: %+v", e)
	}
	if e.Capture.Settle != 250*time.Millisecond {
		t.Errorf("Settle = %v", e.Capture.Settle)
	}

	size, err := e.PageSize()
	if err != nil {
		t.Fatalf("PageSize() error = %v", err)
	}
	if size.Width != pagination.PageSizeLetter.Height || size.Height != pagination.PageSizeLetter.Width {
		t.Errorf("landscape Letter = %+v", size)
	}
}

func TestLoadConfiguration_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "version: 1\nexport:\n  colour: red\n"},
		{"low quality", "version: 1\nexport:\n  images:\n    jpeg_quality: 40\n"},
		{"bad format", "version: 1\nexport:\n  page:\n    format: B5\n"},
		{"bad theme", "version: 1\nexport:\n  capture:\n    theme: sepia\n"},
		{"bad tier", "version: 1\nexport:\n  tier: gold\n"},
		{"bad version", "version: 2\n"},
		{"negative margin", "version: 1\nexport:\n  page:\n    margins:\n      top: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadConfiguration_MissingFile(t *testing.T) {
	if _, err := LoadConfiguration(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	for _, want := range []string{"product: Arch Vision", "jpeg_quality: 95", "format: A4"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("dump misses %q:\n%s", want, data)
		}
	}

	// a dump loads back to the same values
	back, err := LoadConfiguration(writeConfig(t, string(data)))
	if err != nil {
		t.Fatalf("LoadConfiguration(dump) error = %v", err)
	}
	if back.Export.Capture != cfg.Export.Capture {
		t.Errorf("capture after reload = %+v, want %+v", back.Export.Capture, cfg.Export.Capture)
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if !strings.Contains(string(data), "version: 1") {
		t.Errorf("unexpected template output:\n%s", data)
	}
}

func TestToOptions(t *testing.T) {
	css := filepath.Join(t.TempDir(), "report.css")
	if err := os.WriteFile(css, []byte("body { color: #111; }"), 0644); err != nil {
		t.Fatal(err)
	}
	path := writeConfig(t, `version: 1
export:
  product: Threat Desk
  tier: free
  capture:
    theme: dark
  overlay:
    enable: false
  validate: true
  stylesheet_path: `+css+`
  resource_paths: ["/srv/assets"]
`)
	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	opts, err := cfg.Export.ToOptions()
	if err != nil {
		t.Fatalf("ToOptions() error = %v", err)
	}
	o := api.New(opts...).Options()

	if o.Product != "Threat Desk" || o.Tier != api.TierFree || o.Theme != style.ThemeDark {
		t.Errorf("options = %+v", o)
	}
	if o.Overlay || !o.Validate {
		t.Errorf("overlay = %v, validate = %v", o.Overlay, o.Validate)
	}
	if o.Stylesheet != "body { color: #111; }" {
		t.Errorf("Stylesheet = %q", o.Stylesheet)
	}
	if len(o.ResourcePaths) != 1 || o.ResourcePaths[0] != "/srv/assets" {
		t.Errorf("ResourcePaths = %v", o.ResourcePaths)
	}
	if o.Margins != pagination.DefaultMargins || o.PageSize != pagination.PageSizeA4 {
		t.Errorf("page geometry = %+v %+v", o.PageSize, o.Margins)
	}
}

func TestLoggerPrepare(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "export.log")
	conf := LoggingConfig{
		ConsoleLogger: LoggerConfig{Level: "none"},
		FileLogger:    LoggerConfig{Level: "debug", Destination: dest, Mode: "overwrite"},
	}
	log, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	log.Debug("Captured report")
	_ = log.Sync()

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("log file: %v", err)
	}
	if !strings.Contains(string(data), "Captured report") {
		t.Errorf("log file = %q", data)
	}
}
