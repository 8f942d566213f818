package style

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/archvision/reportpdf/internal/parser/css"
)

// Length parses a CSS length into px. Percentages resolve against base and
// em against fontSize. The second result is false when value is not a length.
func Length(value string, fontSize, base float64) (float64, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return 0, false
	}

	num := func(s string) (float64, bool) {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}

	switch {
	case strings.HasSuffix(v, "%"):
		f, ok := num(v[:len(v)-1])
		return base * f / 100, ok
	case strings.HasSuffix(v, "px"):
		return num(v[:len(v)-2])
	case strings.HasSuffix(v, "pt"):
		f, ok := num(v[:len(v)-2])
		return f * 96 / 72, ok
	case strings.HasSuffix(v, "rem"):
		f, ok := num(v[:len(v)-3])
		return f * RootFontSize, ok
	case strings.HasSuffix(v, "em"):
		f, ok := num(v[:len(v)-2])
		return f * fontSize, ok
	}
	return num(v)
}

// Length returns the named property as px, or 0.
func (s ComputedStyle) Length(name string, base float64) float64 {
	v, _ := Length(s.Get(name), s.FontSize(), base)
	return v
}

// FontSize returns the resolved font size in px.
func (s ComputedStyle) FontSize() float64 {
	if v, ok := Length(s.Get("font-size"), RootFontSize, RootFontSize); ok && v > 0 {
		return v
	}
	return RootFontSize
}

// LineHeight returns the line height in px. Unitless values multiply the font size.
func (s ComputedStyle) LineHeight() float64 {
	fs := s.FontSize()
	v := s.Get("line-height")
	if v == "" || v == "normal" {
		return fs * 1.25
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f * fs
	}
	if px, ok := Length(v, fs, fs); ok && px > 0 {
		return px
	}
	return fs * 1.25
}

// Bold reports whether the font weight is bold.
func (s ComputedStyle) Bold() bool {
	switch w := s.Get("font-weight"); w {
	case "bold", "bolder":
		return true
	default:
		n, err := strconv.Atoi(w)
		return err == nil && n >= 600
	}
}

// Italic reports whether the font style is italic or oblique.
func (s ComputedStyle) Italic() bool {
	v := s.Get("font-style")
	return v == "italic" || v == "oblique"
}

// Monospace reports whether the first font family is a monospace face.
func (s ComputedStyle) Monospace() bool {
	fam := strings.ToLower(s.Get("font-family"))
	return strings.Contains(fam, "mono") || strings.Contains(fam, "courier")
}

// Color returns the named color property.
func (s ComputedStyle) Color(name string) (color.RGBA, bool) {
	return ParseColor(s.Get(name))
}

var namedColors = map[string]color.RGBA{
	"black":       {0, 0, 0, 255},
	"white":       {255, 255, 255, 255},
	"red":         {255, 0, 0, 255},
	"green":       {0, 128, 0, 255},
	"blue":        {0, 0, 255, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
	"silver":      {192, 192, 192, 255},
	"orange":      {255, 165, 0, 255},
	"yellow":      {255, 255, 0, 255},
	"navy":        {0, 0, 128, 255},
	"transparent": {0, 0, 0, 0},
}

// ParseColor parses #rgb, #rrggbb, #rrggbbaa, rgb(), rgba() and a few color names.
func ParseColor(v string) (color.RGBA, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return color.RGBA{}, false
	}
	if c, ok := namedColors[v]; ok {
		return c, true
	}

	if hex, ok := strings.CutPrefix(v, "#"); ok {
		switch len(hex) {
		case 3:
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		case 6, 8:
		default:
			return color.RGBA{}, false
		}
		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, false
		}
		if len(hex) == 6 {
			return color.RGBA{uint8(n >> 16), uint8(n >> 8), uint8(n), 255}, true
		}
		return color.RGBA{uint8(n >> 24), uint8(n >> 16), uint8(n >> 8), uint8(n)}, true
	}

	for _, prefix := range []string{"rgba(", "rgb("} {
		body, ok := strings.CutPrefix(v, prefix)
		if !ok {
			continue
		}
		body, ok = strings.CutSuffix(body, ")")
		if !ok {
			return color.RGBA{}, false
		}
		parts := strings.FieldsFunc(body, func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
		if len(parts) < 3 {
			return color.RGBA{}, false
		}
		var ch [4]uint8
		ch[3] = 255
		for i := 0; i < len(parts) && i < 4; i++ {
			f, err := strconv.ParseFloat(strings.TrimSuffix(parts[i], "%"), 64)
			if err != nil {
				return color.RGBA{}, false
			}
			if i == 3 {
				f *= 255
			}
			ch[i] = uint8(max(0, min(255, f)))
		}
		// colors are premultiplied
		a := float64(ch[3]) / 255
		return color.RGBA{uint8(float64(ch[0]) * a), uint8(float64(ch[1]) * a), uint8(float64(ch[2]) * a), ch[3]}, true
	}
	return color.RGBA{}, false
}

func resolveFontSize(value string, parentSize float64) float64 {
	switch strings.ToLower(value) {
	case "":
		return parentSize
	case "xx-small":
		return 9
	case "x-small":
		return 10
	case "small":
		return 13
	case "medium":
		return 16
	case "large":
		return 18
	case "x-large":
		return 24
	case "xx-large":
		return 32
	case "smaller":
		return parentSize / 1.2
	case "larger":
		return parentSize * 1.2
	}
	if v, ok := Length(value, parentSize, parentSize); ok && v > 0 {
		return v
	}
	return parentSize
}

var sides = [4]string{"top", "right", "bottom", "left"}

// expandShorthand rewrites box and border shorthands into longhand declarations.
func expandShorthand(d *css.Declaration) []*css.Declaration {
	mk := func(prop, val string) *css.Declaration {
		return &css.Declaration{Property: prop, Value: val, Important: d.Important}
	}
	fourSides := func(prefix, suffix string) []*css.Declaration {
		vals := boxValues(d.Value)
		out := make([]*css.Declaration, 0, 4)
		for i, side := range sides {
			out = append(out, mk(prefix+side+suffix, vals[i]))
		}
		return out
	}

	switch d.Property {
	case "margin", "padding":
		return fourSides(d.Property+"-", "")
	case "border-width", "border-style", "border-color":
		return fourSides("border-", strings.TrimPrefix(d.Property, "border"))
	case "border":
		var out []*css.Declaration
		for _, side := range sides {
			out = append(out, borderSide("border-"+side, d)...)
		}
		return out
	case "border-top", "border-right", "border-bottom", "border-left":
		return borderSide(d.Property, d)
	case "background":
		for _, tok := range strings.Fields(d.Value) {
			if _, ok := ParseColor(tok); ok {
				return []*css.Declaration{mk("background-color", tok)}
			}
		}
		return nil
	}
	return []*css.Declaration{d}
}

// boxValues applies the 1-4 value rule of box shorthands.
func boxValues(v string) [4]string {
	p := strings.Fields(v)
	switch len(p) {
	case 0:
		return [4]string{"0", "0", "0", "0"}
	case 1:
		return [4]string{p[0], p[0], p[0], p[0]}
	case 2:
		return [4]string{p[0], p[1], p[0], p[1]}
	case 3:
		return [4]string{p[0], p[1], p[2], p[1]}
	default:
		return [4]string{p[0], p[1], p[2], p[3]}
	}
}

func borderSide(prefix string, d *css.Declaration) []*css.Declaration {
	width, styleName, col := "3px", "none", "currentcolor"
	for _, tok := range strings.Fields(d.Value) {
		switch tok {
		case "none", "hidden", "solid", "dashed", "dotted", "double":
			styleName = tok
		case "thin":
			width = "1px"
		case "medium":
			width = "3px"
		case "thick":
			width = "5px"
		default:
			if _, ok := ParseColor(tok); ok {
				col = tok
			} else if _, ok := Length(tok, RootFontSize, 0); ok {
				width = tok
			}
		}
	}
	if styleName == "none" || styleName == "hidden" {
		width = "0"
	}
	return []*css.Declaration{
		{Property: prefix + "-width", Value: width, Important: d.Important},
		{Property: prefix + "-style", Value: styleName, Important: d.Important},
		{Property: prefix + "-color", Value: col, Important: d.Important},
	}
}
