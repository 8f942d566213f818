package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/h2non/filetype"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	// decoders for logos fpdf cannot embed directly
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// logoRasterHeight is the pixel height SVG logos are rasterized at.
const logoRasterHeight = 256

var errUnsupportedLogo = errors.New("unsupported logo format")

type logoImage struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// decodeLogo turns logo data into something fpdf can embed. PNG, JPEG and
// GIF are passed through, other raster formats and SVG are converted to PNG.
func decodeLogo(data []byte) (*logoImage, error) {
	kind, _ := filetype.Match(data)
	switch kind.MIME.Value {
	case "image/png", "image/jpeg", "image/gif":
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode logo: %w", err)
		}
		return &logoImage{Data: data, Format: kind.Extension, Width: cfg.Width, Height: cfg.Height}, nil
	}

	var (
		img image.Image
		err error
	)
	switch {
	case filetype.IsImage(data):
		img, _, err = image.Decode(bytes.NewReader(data))
	case looksLikeSVG(data):
		img, err = rasterizeSVG(data, logoRasterHeight)
	default:
		return nil, errUnsupportedLogo
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode logo: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode logo: %w", err)
	}
	b := img.Bounds()
	return &logoImage{Data: buf.Bytes(), Format: "png", Width: b.Dx(), Height: b.Dy()}, nil
}

func looksLikeSVG(data []byte) bool {
	head := data[:min(len(data), 1024)]
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}

// rasterizeSVG renders an SVG icon at the given height keeping its aspect
// ratio, on a transparent background.
func rasterizeSVG(data []byte, height int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	intrW, intrH := icon.ViewBox.W, icon.ViewBox.H
	if intrW <= 0 || intrH <= 0 {
		intrW, intrH = float64(height), float64(height)
	}
	w := max(int(math.Round(float64(height)*intrW/intrH)), 1)
	h := height

	icon.SetTarget(0, 0, float64(w), float64(h))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)
	return dst, nil
}
