package capture

import (
	"context"
	"fmt"
	"image"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/archvision/reportpdf/internal/layout"
	"github.com/archvision/reportpdf/internal/style"
)

// Surface is a rendered, scrollable report view.
type Surface interface {
	Theme() style.Theme
	// SetTheme switches the visual mode and lays the content out again.
	SetTheme(style.Theme) error
	ScrollOffset() (x, y float64)
	ScrollTo(x, y float64)
	// Content returns the settled box of the content root.
	Content() (*layout.BlockBox, error)
}

// Result is the outcome of a capture session.
type Result struct {
	Blocks []layout.BlockPosition
	Bitmap *image.RGBA
	Scale  float64
}

// Session captures a surface in light mode and puts the surface back the way
// it found it, whatever the outcome.
type Session struct {
	Surface    Surface
	Rasterizer *Rasterizer
	Scale      float64
	// Settle is waited after switching the visual mode, before capturing.
	Settle time.Duration
	Logger *zap.Logger
}

// Run locates the block boundaries on the settled layout, forces light mode,
// waits for the layout to settle and captures the content root. The previous
// visual mode and scroll offset are restored on every exit path and restore
// failures are combined with the returned error.
func (s *Session) Run(ctx context.Context) (res *Result, err error) {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	scale := s.Scale
	if scale <= 0 {
		scale = 1
	}

	content, err := s.Surface.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to get content root: %w", err)
	}
	blocks := layout.LocateBlocks(content)
	log.Debug("Located blocks", zap.Int("count", len(blocks)))

	wasTheme := s.Surface.Theme()
	scrollX, scrollY := s.Surface.ScrollOffset()
	log.Debug("Saved view state",
		zap.Stringer("theme", wasTheme),
		zap.Float64("scroll_x", scrollX),
		zap.Float64("scroll_y", scrollY))

	defer func() {
		s.Surface.ScrollTo(scrollX, scrollY)
		if s.Surface.Theme() != wasTheme {
			if rerr := s.Surface.SetTheme(wasTheme); rerr != nil {
				err = multierr.Append(err, fmt.Errorf("failed to restore theme: %w", rerr))
				res = nil
			}
		}
		log.Debug("Restored view state")
	}()

	if wasTheme != style.ThemeLight {
		if err := s.Surface.SetTheme(style.ThemeLight); err != nil {
			return nil, fmt.Errorf("failed to switch to light mode: %w", err)
		}
	}
	s.Surface.ScrollTo(0, 0)

	if s.Settle > 0 {
		t := time.NewTimer(s.Settle)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err = s.Surface.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to get content root: %w", err)
	}
	bitmap, err := s.Rasterizer.Capture(content, scale)
	if err != nil {
		return nil, fmt.Errorf("failed to capture content: %w", err)
	}

	return &Result{Blocks: blocks, Bitmap: bitmap, Scale: scale}, nil
}
