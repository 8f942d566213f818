package pagination

import (
	"math/rand/v2"
	"reflect"
	"sort"
	"testing"

	"github.com/archvision/reportpdf/internal/layout"
)

func block(tag string, top, height float64) layout.BlockPosition {
	return layout.BlockPosition{Tag: layout.Tag(tag), OffsetTop: top, OffsetHeight: height}
}

func checkCoverage(t *testing.T, slices []Slice, canvasHeight, pageHeightPx int) {
	t.Helper()

	if len(slices) == 0 {
		t.Fatal("no slices")
	}
	if slices[0].StartY != 0 {
		t.Fatalf("first slice starts at %d", slices[0].StartY)
	}
	if last := slices[len(slices)-1]; last.EndY != canvasHeight {
		t.Fatalf("last slice ends at %d, want %d", last.EndY, canvasHeight)
	}
	for i, s := range slices {
		if s.Height() <= 0 {
			t.Fatalf("slice %d is empty: %+v", i, s)
		}
		if canvasHeight > pageHeightPx && s.Height() > pageHeightPx {
			t.Fatalf("slice %d taller than a page: %+v", i, s)
		}
		if i > 0 && s.StartY != slices[i-1].EndY {
			t.Fatalf("gap or overlap between slices %d and %d: %+v %+v", i-1, i, slices[i-1], s)
		}
	}
}

func TestSinglePage(t *testing.T) {
	blocks := []layout.BlockPosition{block("h1", 0, 40), block("p", 50, 200)}
	for _, canvas := range []int{1, 500, 2000} {
		got := CalculateSlices(blocks, canvas, 2000, 2)
		want := []Slice{{StartY: 0, EndY: canvas}}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("canvas %d: got %+v, want %+v", canvas, got, want)
		}
	}
}

func TestHeadingFollowedByParagraph(t *testing.T) {
	blocks := []layout.BlockPosition{
		block("h2", 0, 40),
		block("p", 100, 700),
		block("p", 900, 80),
		block("h2", 990, 20),
		block("p", 1010, 1400),
	}
	got := CalculateSlices(blocks, 5000, 2000, 2)
	want := []Slice{
		{StartY: 0, EndY: 1980},
		{StartY: 1980, EndY: 2020},
		{StartY: 2020, EndY: 4020},
		{StartY: 4020, EndY: 5000},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	checkCoverage(t, got, 5000, 2000)
}

func TestOrphanHeadingPulledToNextPage(t *testing.T) {
	blocks := []layout.BlockPosition{
		block("p", 0, 480),
		block("h2", 500, 20),
		block("p", 520, 900),
	}
	got := CalculateSlices(blocks, 3000, 1100, 2)
	if got[0] != (Slice{StartY: 0, EndY: 1000}) {
		t.Fatalf("first cut should move above the heading, got %+v", got[0])
	}
	checkCoverage(t, got, 3000, 1100)
}

func TestOrphanRuleRequiresProgress(t *testing.T) {
	// the heading sits exactly at the top of the page, pulling up would stall
	blocks := []layout.BlockPosition{
		block("h3", 0, 20),
		block("p", 30, 500),
	}
	got := CalculateSlices(blocks, 2000, 1000, 1)
	if got[0] != (Slice{StartY: 0, EndY: 30}) {
		t.Fatalf("got %+v", got)
	}
	checkCoverage(t, got, 2000, 1000)
}

func TestOnlyNearestHeadingIsConsidered(t *testing.T) {
	blocks := []layout.BlockPosition{
		block("p", 0, 380),
		block("h2", 400, 20),
		block("h3", 430, 20),
		block("p", 460, 600),
	}
	got := CalculateSlices(blocks, 2000, 470, 1)
	// cut at 460 moves to the h3 start; the h2 stays at the bottom of page one
	if got[0] != (Slice{StartY: 0, EndY: 430}) {
		t.Fatalf("got %+v", got)
	}
	checkCoverage(t, got, 2000, 470)
}

func TestNoBlocksCutsAtPageHeight(t *testing.T) {
	got := CalculateSlices(nil, 4500, 2000, 2)
	want := []Slice{{0, 2000}, {2000, 4000}, {4000, 4500}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestOversizedBlock(t *testing.T) {
	blocks := []layout.BlockPosition{block("p", 0, 6000)}
	got := CalculateSlices(blocks, 6000, 2000, 1)
	want := []Slice{{0, 2000}, {2000, 4000}, {4000, 6000}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestBoundaryRounding(t *testing.T) {
	blocks := []layout.BlockPosition{block("p", 0, 10), block("p", 333.25, 10)}
	got := CalculateSlices(blocks, 1500, 700, 2)
	if got[0].EndY != 667 {
		t.Fatalf("expected cut at round(333.25*2)=667, got %+v", got[0])
	}
}

func TestSliceInvariantsRandomized(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	tags := []string{"h1", "h2", "h3", "p", "ul", "table", "pre", "blockquote", "hr"}

	for iter := 0; iter < 500; iter++ {
		scale := []float64{1, 1.5, 2, 3}[rng.IntN(4)]
		docHeight := 100 + rng.IntN(8000)
		canvas := int(float64(docHeight) * scale)
		page := 50 + rng.IntN(3000)

		n := rng.IntN(60)
		offsets := make([]float64, n)
		for i := range offsets {
			offsets[i] = float64(rng.IntN(docHeight))
		}
		sort.Float64s(offsets)
		blocks := make([]layout.BlockPosition, n)
		for i, off := range offsets {
			blocks[i] = block(tags[rng.IntN(len(tags))], off, float64(rng.IntN(400)))
		}

		slices := CalculateSlices(blocks, canvas, page, scale)
		checkCoverage(t, slices, canvas, page)

		limit := n + (canvas+page-1)/page + 1
		if len(slices) > limit {
			t.Fatalf("iteration %d: %d slices exceed bound %d", iter, len(slices), limit)
		}
	}
}
