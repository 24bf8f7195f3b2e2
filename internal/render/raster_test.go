package render

import (
	"testing"

	"github.com/papapumpkin/starmap/internal/catalog"
	"github.com/papapumpkin/starmap/internal/filter"
)

func TestRasterize_Empty(t *testing.T) {
	t.Parallel()

	img := Rasterize(nil, filter.FullSky, 8, 6)

	bounds := img.Bounds()
	if bounds.Dx() != 8 || bounds.Dy() != 6 {
		t.Fatalf("dimensions = %dx%d, want 8x6", bounds.Dx(), bounds.Dy())
	}
	for _, p := range img.Pix {
		if p != 0 {
			t.Fatal("empty star sequence must yield an all-zero raster")
		}
	}
}

func TestRasterize_BrightestAndDimmest(t *testing.T) {
	t.Parallel()

	// One star at mag 2 (brightest), one at mag 6 (dimmest).
	stars := []catalog.Star{
		{RA: 90, Dec: -45, Mag: 2},
		{RA: 270, Dec: 45, Mag: 6},
	}
	img := Rasterize(stars, filter.FullSky, 800, 600)

	// x = (ra-0)/360*w, y = (dec+90)/180*h.
	bright := img.GrayAt(200, 150).Y
	dim := img.GrayAt(600, 450).Y

	if bright != 255 {
		t.Errorf("brightest star pixel = %d, want 255", bright)
	}
	if dim != 0 {
		t.Errorf("dimmest star pixel = %d, want 0", dim)
	}
}

func TestRasterize_SingleMagnitude(t *testing.T) {
	t.Parallel()

	// All stars share one magnitude: the normalization guard applies and
	// every plotted star is full brightness.
	stars := []catalog.Star{
		{RA: 10, Dec: 10, Mag: 4},
		{RA: 200, Dec: -30, Mag: 4},
	}
	img := Rasterize(stars, filter.FullSky, 100, 100)

	lit := 0
	for _, p := range img.Pix {
		switch p {
		case 0:
		case 255:
			lit++
		default:
			t.Fatalf("unexpected intermediate pixel value %d", p)
		}
	}
	if lit != 2 {
		t.Errorf("lit pixels = %d, want 2", lit)
	}
}

func TestRasterize_HalfOpenUpperEdge(t *testing.T) {
	t.Parallel()

	// RA exactly at the window maximum maps to x == width and is dropped.
	stars := []catalog.Star{
		{RA: 360, Dec: 0, Mag: 3},
		{RA: 0, Dec: 90, Mag: 3}, // Dec at maximum: y == height
	}
	img := Rasterize(stars, filter.FullSky, 64, 64)

	for _, p := range img.Pix {
		if p != 0 {
			t.Fatal("stars on the far edge must be dropped, not wrapped")
		}
	}
}

func TestRasterize_OutsideWindowDropped(t *testing.T) {
	t.Parallel()

	w := filter.Window{MinRA: 100, MaxRA: 200, MinDec: 0, MaxDec: 50}
	stars := []catalog.Star{
		{RA: 50, Dec: 25, Mag: 1},  // left of window: negative x
		{RA: 150, Dec: -10, Mag: 2}, // below window: negative y
	}
	img := Rasterize(stars, w, 32, 32)

	for _, p := range img.Pix {
		if p != 0 {
			t.Fatal("stars outside the projection window must be dropped")
		}
	}
}

func TestRasterize_ZeroSpanWindow(t *testing.T) {
	t.Parallel()

	// A zero-width window makes every coordinate 0/0. The stars must be
	// dropped rather than crashing or landing at pixel 0.
	w := filter.Window{MinRA: 180, MaxRA: 180, MinDec: -90, MaxDec: 90}
	stars := []catalog.Star{{RA: 180, Dec: 0, Mag: 1}}

	img := Rasterize(stars, w, 16, 16)
	for _, p := range img.Pix {
		if p != 0 {
			t.Fatal("zero-span window must drop every star")
		}
	}
}

func TestRasterize_LastWriteWins(t *testing.T) {
	t.Parallel()

	// Two stars mapping to the same pixel: the later one in catalog
	// order overwrites the earlier, regardless of brightness.
	stars := []catalog.Star{
		{RA: 180.0, Dec: 0.0, Mag: 1},   // brightest
		{RA: 180.1, Dec: 0.1, Mag: 11},  // same pixel at 10x10, dimmest
	}
	img := Rasterize(stars, filter.FullSky, 10, 10)

	got := img.GrayAt(5, 5).Y
	if got != 0 {
		t.Errorf("collision pixel = %d, want 0 (last star in catalog order)", got)
	}
}

func TestBrightness(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		normalized float64
		want       uint8
	}{
		{"brightest", 1.0, 255},
		{"dimmest", 0.0, 0},
		{"midpoint follows power curve", 0.5, 45}, // 0.5^2.5*255 = 45.08
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := brightness(tt.normalized); got != tt.want {
				t.Errorf("brightness(%v) = %d, want %d", tt.normalized, got, tt.want)
			}
		})
	}
}
