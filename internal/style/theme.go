package style

import (
	"fmt"
	"image/color"
	"strings"
	"sync"

	"github.com/archvision/reportpdf/internal/parser/css"
)

// Theme is the visual mode of the rendered report.
type Theme int

const (
	ThemeLight Theme = iota
	ThemeDark
)

func (t Theme) String() string {
	switch t {
	case ThemeLight:
		return "light"
	case ThemeDark:
		return "dark"
	default:
		return fmt.Sprintf("Theme(%d)", int(t))
	}
}

// ParseTheme converts a theme name into Theme.
func ParseTheme(s string) (Theme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "light":
		return ThemeLight, nil
	case "dark":
		return ThemeDark, nil
	default:
		return ThemeLight, fmt.Errorf("unknown theme %q", s)
	}
}

// Background is the canvas color painted behind the content in this mode.
func (t Theme) Background() color.RGBA {
	if t == ThemeDark {
		return color.RGBA{0x0b, 0x11, 0x20, 0xff}
	}
	return color.RGBA{0xff, 0xff, 0xff, 0xff}
}

const lightCSS = `
body { background-color: #ffffff; color: #111827; }
.prose a { color: #2563eb; }
.prose pre, .prose code { background-color: #f3f4f6; }
.prose th { background-color: #f9fafb; }
`

const darkCSS = `
body { background-color: #0b1120; color: #e5e7eb; }
.prose h1, .prose h2, .prose h3, .prose h4 { color: #f9fafb; }
.prose a { color: #60a5fa; }
.prose pre, .prose code { background-color: #1f2937; }
.prose th { background-color: #111827; }
.prose th, .prose td { border-color: #374151; }
.prose blockquote { border-left-color: #4b5563; color: #9ca3af; }
`

var themeSheets = sync.OnceValue(func() map[Theme]*css.Stylesheet {
	p := css.NewParser()
	light, _ := p.ParseString(lightCSS)
	dark, _ := p.ParseString(darkCSS)
	return map[Theme]*css.Stylesheet{ThemeLight: light, ThemeDark: dark}
})

// Stylesheet returns the rules applied on top of author styles in this mode.
func (t Theme) Stylesheet() *css.Stylesheet {
	return themeSheets()[t]
}
