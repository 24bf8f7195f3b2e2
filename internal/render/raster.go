// Package render rasterizes filtered stars onto a grayscale image. Pixel
// brightness encodes relative magnitude: the brightest star in the set maps
// to white, the dimmest to black, with a power curve in between to
// emphasize bright objects.
package render

import (
	"image"
	"math"

	"github.com/papapumpkin/starmap/internal/catalog"
	"github.com/papapumpkin/starmap/internal/filter"
)

// brightnessGamma is the exponent applied to the normalized magnitude
// before scaling to pixel intensity. Values above 1 push mid-range stars
// toward black so the bright ones stand out.
const brightnessGamma = 2.5

// Rasterize plots stars onto a new width x height grayscale image. The
// window defines the projection plane: it is the same RA/Dec window used
// for filtering, not the tightest bounding box of the stars.
//
// Pixel mapping is linear min-max over the window with half-open ranges
// [0,width) x [0,height); a star landing exactly on the far edge, outside
// the window, or on a zero-span axis (where the projection is undefined)
// is dropped. When several stars land on the same pixel the last one in
// catalog order wins.
func Rasterize(stars []catalog.Star, w filter.Window, width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))

	if len(stars) == 0 {
		return img
	}

	minMag, maxMag := magRange(stars)
	magSpan := maxMag - minMag
	raSpan := w.RASpan()
	decSpan := w.DecSpan()

	fw := float64(width)
	fh := float64(height)
	for _, s := range stars {
		// A zero-span window makes these NaN or Inf; the in-bounds
		// comparison below rejects either, so the star is dropped
		// rather than crashing the plot.
		fx := (s.RA - w.MinRA) / raSpan * fw
		fy := (s.Dec - w.MinDec) / decSpan * fh
		if !(fx >= 0 && fx < fw && fy >= 0 && fy < fh) {
			continue
		}
		x := int(fx)
		y := int(fy)

		// Invert the scale: lower magnitude means brighter. With a
		// single distinct magnitude the lone star is the brightest.
		normalized := 1.0
		if magSpan > 0 {
			normalized = (maxMag - s.Mag) / magSpan
		}
		img.Pix[y*img.Stride+x] = brightness(normalized)
	}

	return img
}

// magRange returns the minimum and maximum magnitude across the stars.
// The slice must be non-empty.
func magRange(stars []catalog.Star) (minMag, maxMag float64) {
	minMag, maxMag = stars[0].Mag, stars[0].Mag
	for _, s := range stars[1:] {
		if s.Mag < minMag {
			minMag = s.Mag
		}
		if s.Mag > maxMag {
			maxMag = s.Mag
		}
	}
	return minMag, maxMag
}

// brightness converts a normalized magnitude in [0,1] to a pixel value,
// applying the power curve and clamping to the 8-bit range.
func brightness(normalized float64) uint8 {
	v := math.Round(math.Pow(normalized, brightnessGamma) * 255)
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return uint8(v)
}
