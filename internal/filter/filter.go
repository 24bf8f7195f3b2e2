// Package filter selects catalog stars inside a rectangular RA/Dec window
// and at or below a maximum visual magnitude. Filtering is a pure,
// order-preserving pass over the decoded catalog.
package filter

import (
	"github.com/papapumpkin/starmap/internal/catalog"
)

// Window is a rectangular sky region in equatorial degrees. Bounds are
// inclusive on all sides. An inverted window (min > max on either axis)
// contains nothing; that is a valid empty selection, not an error.
type Window struct {
	MinRA  float64
	MaxRA  float64
	MinDec float64
	MaxDec float64
}

// FullSky covers the whole celestial sphere.
var FullSky = Window{MinRA: 0, MaxRA: 360, MinDec: -90, MaxDec: 90}

// RASpan returns the window's width in RA degrees.
func (w Window) RASpan() float64 { return w.MaxRA - w.MinRA }

// DecSpan returns the window's height in Dec degrees.
func (w Window) DecSpan() float64 { return w.MaxDec - w.MinDec }

// Contains reports whether the star's coordinates fall inside the window,
// bounds included.
func (w Window) Contains(s catalog.Star) bool {
	return s.RA >= w.MinRA && s.RA <= w.MaxRA &&
		s.Dec >= w.MinDec && s.Dec <= w.MaxDec
}

// Apply returns the subsequence of stars inside the window with magnitude
// at or below maxMag (lower magnitude is brighter, so the cut keeps the
// brighter-or-equal stars). Catalog order is preserved and the input is
// never modified. Applying the same window and cut twice returns the same
// sequence.
func Apply(stars []catalog.Star, w Window, maxMag float64) []catalog.Star {
	kept := make([]catalog.Star, 0, len(stars))
	for _, s := range stars {
		if w.Contains(s) && s.Mag <= maxMag {
			kept = append(kept, s)
		}
	}
	return kept
}
