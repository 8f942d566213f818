// Package raster cuts a captured report bitmap into page images.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"runtime"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/archvision/reportpdf/internal/pagination"
)

// DefaultJPEGQuality is the encoder quality of page images.
const DefaultJPEGQuality = 95

// ErrEncode is returned when a page image cannot be encoded.
var ErrEncode = errors.New("page encoding failed")

// Options control page image encoding.
type Options struct {
	// Quality is the JPEG quality, 1-100. Zero selects DefaultJPEGQuality.
	Quality int
	// Background fills the part of a page not covered by the source band.
	Background color.Color
	// Workers limits parallel encoders, zero means GOMAXPROCS.
	Workers int
}

// Page is one encoded page image.
type Page struct {
	Image    []byte
	Format   string // image type for the PDF writer
	WidthPx  int
	HeightPx int
	HeightMM float64 // physical height when the image spans contentWidthMM
}

// Rasterize copies every slice of src into its own page image. Slices with a
// non-positive height are skipped. The band is copied unscaled onto a canvas
// of the source width and filled with the background color first, and the
// physical height keeps the aspect ratio for a page content width of
// contentWidthMM. Any encoding failure fails the whole call.
func Rasterize(src image.Image, slices []pagination.Slice, contentWidthMM float64, opts Options) ([]Page, error) {
	quality := opts.Quality
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	quality = min(quality, 100)
	bg := opts.Background
	if bg == nil {
		bg = color.White
	}

	bounds := src.Bounds()
	width := bounds.Dx()
	if width <= 0 {
		return nil, fmt.Errorf("%w: source bitmap has no width", ErrEncode)
	}

	var bands []pagination.Slice
	for _, s := range slices {
		if s.Height() > 0 {
			bands = append(bands, s)
		}
	}

	pages := make([]Page, len(bands))
	var g errgroup.Group
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)

	for i, s := range bands {
		g.Go(func() error {
			h := s.Height()
			canvas := imaging.New(width, h, bg)
			band := imaging.Crop(src, image.Rect(bounds.Min.X, bounds.Min.Y+s.StartY, bounds.Max.X, bounds.Min.Y+s.EndY))
			canvas = imaging.Overlay(canvas, band, image.Pt(0, 0), 1.0)

			var buf bytes.Buffer
			if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
				return fmt.Errorf("%w: page %d: %w", ErrEncode, i+1, err)
			}
			pages[i] = Page{
				Image:    buf.Bytes(),
				Format:   "JPG",
				WidthPx:  width,
				HeightPx: h,
				HeightMM: float64(h) / float64(width) * contentWidthMM,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}
