package pagination

import (
	"math"

	"github.com/archvision/reportpdf/internal/layout"
)

// Slice is the half-open band [StartY, EndY) of the scaled source bitmap
// placed on one output page.
type Slice struct {
	StartY int
	EndY   int
}

// Height returns EndY - StartY.
func (s Slice) Height() int {
	return s.EndY - s.StartY
}

// CalculateSlices splits a bitmap of canvasHeight pixels into page bands of at
// most pageHeightPx pixels. Cuts prefer the start of a block (offsets are
// multiplied by scale to reach bitmap pixels), choosing the lowest block start
// that still fits on the page. A cut directly below a heading moves up to the
// heading's start so the heading opens the next page. Without a usable block
// start the cut falls exactly at the page limit.
//
// The result covers [0, canvasHeight) with contiguous, strictly increasing
// slices. Only the heading right before the cut is considered; a run of
// headings can still leave the outer one at the bottom of a page.
// Non-positive canvasHeight, pageHeightPx or scale are not supported.
func CalculateSlices(blocks []layout.BlockPosition, canvasHeight, pageHeightPx int, scale float64) []Slice {
	if canvasHeight <= pageHeightPx {
		return []Slice{{StartY: 0, EndY: canvasHeight}}
	}

	cuts := make([]int, len(blocks))
	for i, b := range blocks {
		cuts[i] = boundary(b, scale)
	}

	var slices []Slice
	current := 0
	for current < canvasHeight {
		pageBottom := current + pageHeightPx
		if pageBottom >= canvasHeight {
			slices = append(slices, Slice{StartY: current, EndY: canvasHeight})
			break
		}

		// offsets are non-decreasing, so the last qualifying block is the lowest cut
		best, bestIndex := -1, -1
		for i, cut := range cuts {
			if cut > current && cut <= pageBottom {
				best, bestIndex = cut, i
			}
		}

		if best <= current {
			slices = append(slices, Slice{StartY: current, EndY: pageBottom})
			current = pageBottom
			continue
		}

		if bestIndex > 0 {
			prev := blocks[bestIndex-1]
			if prev.Tag.IsHeading() {
				if headingCut := boundary(prev, scale); headingCut > current {
					best = headingCut
				}
			}
		}

		slices = append(slices, Slice{StartY: current, EndY: best})
		current = best
	}

	return slices
}

func boundary(b layout.BlockPosition, scale float64) int {
	return int(math.Round(b.OffsetTop * scale))
}
