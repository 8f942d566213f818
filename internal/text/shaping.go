package text

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Family selects one of the embedded font families.
type Family int

const (
	FamilySans Family = iota
	FamilyMono
)

// Font describes a face request. Size is in pixels.
type Font struct {
	Family Family
	Bold   bool
	Italic bool
	Size   float64
}

// Metrics are vertical font metrics in pixels.
type Metrics struct {
	Ascent  float64
	Descent float64
	Height  float64
}

type variant struct {
	family Family
	bold   bool
	italic bool
}

type faceKey struct {
	variant
	size fixed.Int26_6
}

// Faces caches parsed fonts and sized faces. It is safe for concurrent use;
// all measuring and drawing goes through its lock because opentype faces are not.
type Faces struct {
	mu    sync.Mutex
	fonts map[variant]*opentype.Font
	faces map[faceKey]font.Face
}

// NewFaces creates an empty cache.
func NewFaces() *Faces {
	return &Faces{
		fonts: make(map[variant]*opentype.Font),
		faces: make(map[faceKey]font.Face),
	}
}

var shared = sync.OnceValue(NewFaces)

// Shared returns the process wide face cache.
func Shared() *Faces {
	return shared()
}

func fontData(v variant) []byte {
	if v.family == FamilyMono {
		if v.bold {
			return gomonobold.TTF
		}
		return gomono.TTF
	}
	switch {
	case v.bold && v.italic:
		return gobolditalic.TTF
	case v.bold:
		return gobold.TTF
	case v.italic:
		return goitalic.TTF
	default:
		return goregular.TTF
	}
}

// face must be called with f.mu held.
func (f *Faces) face(ft Font) (font.Face, error) {
	if ft.Size <= 0 {
		return nil, fmt.Errorf("invalid font size %v", ft.Size)
	}
	v := variant{family: ft.Family, bold: ft.Bold, italic: ft.Italic}
	key := faceKey{variant: v, size: fixed.Int26_6(math.Round(ft.Size * 64))}
	if fc, ok := f.faces[key]; ok {
		return fc, nil
	}

	otf, ok := f.fonts[v]
	if !ok {
		var err error
		otf, err = opentype.Parse(fontData(v))
		if err != nil {
			return nil, fmt.Errorf("failed to parse font: %w", err)
		}
		f.fonts[v] = otf
	}

	fc, err := opentype.NewFace(otf, &opentype.FaceOptions{
		Size:    float64(key.size) / 64,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}
	f.faces[key] = fc
	return fc, nil
}

// Measure returns the advance width of s in pixels.
func (f *Faces) Measure(ft Font, s string) float64 {
	if s == "" {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	fc, err := f.face(ft)
	if err != nil {
		return 0
	}
	return fix(font.MeasureString(fc, s))
}

// Metrics returns vertical metrics for the font.
func (f *Faces) Metrics(ft Font) Metrics {
	f.mu.Lock()
	defer f.mu.Unlock()

	fc, err := f.face(ft)
	if err != nil {
		return Metrics{}
	}
	m := fc.Metrics()
	return Metrics{Ascent: fix(m.Ascent), Descent: fix(m.Descent), Height: fix(m.Height)}
}

// Draw renders s onto dst with its baseline starting at (x, y).
func (f *Faces) Draw(dst *image.RGBA, ft Font, x, y float64, s string, c color.Color) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fc, err := f.face(ft)
	if err != nil {
		return err
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: fc,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(math.Round(x * 64)), Y: fixed.Int26_6(math.Round(y * 64))},
	}
	d.DrawString(s)
	return nil
}

func fix(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
