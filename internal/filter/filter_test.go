package filter

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/papapumpkin/starmap/internal/catalog"
)

func TestApply_WindowBounds(t *testing.T) {
	t.Parallel()

	w := Window{MinRA: 10, MaxRA: 20, MinDec: -5, MaxDec: 5}
	const maxMag = 6.0

	tests := []struct {
		name string
		star catalog.Star
		kept bool
	}{
		{"inside", catalog.Star{RA: 15, Dec: 0, Mag: 3}, true},
		{"on min RA bound", catalog.Star{RA: 10, Dec: 0, Mag: 3}, true},
		{"on max RA bound", catalog.Star{RA: 20, Dec: 0, Mag: 3}, true},
		{"just past max RA", catalog.Star{RA: 20 + 1e-9, Dec: 0, Mag: 3}, false},
		{"on max Dec bound", catalog.Star{RA: 15, Dec: 5, Mag: 3}, true},
		{"below min Dec", catalog.Star{RA: 15, Dec: -5.1, Mag: 3}, false},
		{"at magnitude limit", catalog.Star{RA: 15, Dec: 0, Mag: 6}, true},
		{"too dim", catalog.Star{RA: 15, Dec: 0, Mag: 6.01}, false},
		{"bright negative magnitude", catalog.Star{RA: 15, Dec: 0, Mag: -1.4}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Apply([]catalog.Star{tt.star}, w, maxMag)
			if kept := len(got) == 1; kept != tt.kept {
				t.Errorf("kept = %v, want %v", kept, tt.kept)
			}
		})
	}
}

func TestApply_PreservesOrder(t *testing.T) {
	t.Parallel()

	stars := []catalog.Star{
		{RA: 1, Dec: 0, Mag: 5},
		{RA: 100, Dec: 0, Mag: 1}, // outside window
		{RA: 2, Dec: 0, Mag: 4},
		{RA: 3, Dec: 0, Mag: 9}, // too dim
		{RA: 4, Dec: 0, Mag: 2},
	}
	w := Window{MinRA: 0, MaxRA: 10, MinDec: -10, MaxDec: 10}

	got := Apply(stars, w, 6)
	want := []catalog.Star{
		{RA: 1, Dec: 0, Mag: 5},
		{RA: 2, Dec: 0, Mag: 4},
		{RA: 4, Dec: 0, Mag: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Apply mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_Idempotent(t *testing.T) {
	t.Parallel()

	stars := []catalog.Star{
		{RA: 5, Dec: 5, Mag: 2},
		{RA: 350, Dec: -80, Mag: 5.5},
		{RA: 180, Dec: 45, Mag: 6},
	}

	once := Apply(stars, FullSky, 6)
	twice := Apply(once, FullSky, 6)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second pass changed the sequence (-once +twice):\n%s", diff)
	}
}

func TestApply_InvertedBoundsAreEmpty(t *testing.T) {
	t.Parallel()

	stars := []catalog.Star{
		{RA: 7, Dec: 0, Mag: 1},
		{RA: 8, Dec: 0, Mag: 2},
	}

	// min_ra=10 > max_ra=5: nothing can satisfy both inclusive bounds.
	w := Window{MinRA: 10, MaxRA: 5, MinDec: -90, MaxDec: 90}
	if got := Apply(stars, w, math.Inf(1)); len(got) != 0 {
		t.Errorf("inverted window kept %d stars, want 0", len(got))
	}
}

func TestWindowSpans(t *testing.T) {
	t.Parallel()

	w := Window{MinRA: 30, MaxRA: 90, MinDec: -10, MaxDec: 40}
	if got := w.RASpan(); got != 60 {
		t.Errorf("RASpan = %v, want 60", got)
	}
	if got := w.DecSpan(); got != 50 {
		t.Errorf("DecSpan = %v, want 50", got)
	}
}
