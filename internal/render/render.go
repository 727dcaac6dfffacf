package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"
	"strconv"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/hamogu/photutils/detection"
	"github.com/hamogu/photutils/grid"
	"github.com/hamogu/photutils/segmentation"
)

// Stretch maps pixel values to display intensities with a linear
// percentile stretch: values at or below the low percentile render black,
// values at or above the high percentile render white. Non-finite pixels
// render black. Astronomical data needs this because source fluxes span
// orders of magnitude more than a display can.
func Stretch(img *grid.Grid, lowPct, highPct float64) (*image.Gray, error) {
	if lowPct < 0 || highPct > 100 || lowPct >= highPct {
		return nil, fmt.Errorf("%w: percentiles must satisfy 0 <= low < high <= 100, got %g and %g",
			grid.ErrInvalidParameter, lowPct, highPct)
	}

	out := image.NewGray(image.Rect(0, 0, img.Width, img.Height))

	finite := make([]float64, 0, len(img.Data))
	for _, v := range img.Data {
		if grid.Finite(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return out, nil
	}
	sort.Float64s(finite)
	lo := percentile(finite, lowPct)
	hi := percentile(finite, highPct)
	if hi == lo {
		return out, nil
	}

	scale := 255 / (hi - lo)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			v := img.At(x, y)
			if !grid.Finite(v) {
				continue
			}
			p := (v - lo) * scale
			if p < 0 {
				p = 0
			} else if p > 255 {
				p = 255
			}
			out.SetGray(x, y, color.Gray{Y: uint8(p + 0.5)})
		}
	}
	return out, nil
}

// percentile picks the nearest-rank value from a sorted slice.
func percentile(sorted []float64, pct float64) float64 {
	idx := int(pct/100*float64(len(sorted)-1) + 0.5)
	return sorted[idx]
}

// Palette returns n distinct label colors. Hues advance by the golden
// angle, so neighboring labels stay distinguishable at any count.
func Palette(n int) []color.RGBA {
	out := make([]color.RGBA, n)
	for i := range out {
		hue := math.Mod(float64(i)*137.50776405, 360)
		r, g, b := colorful.Hsv(hue, 0.65, 0.95).RGB255()
		out[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

// ParseHexColor parses a marker color like "#FF0000" or "#FF000080" (RGB
// or RGBA hex, leading # optional).
func ParseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("%w: marker color is empty", grid.ErrInvalidParameter)
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("%w: marker color %q must be 6 or 8 hex digits",
			grid.ErrInvalidParameter, hex)
	}

	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: marker color %q is not hexadecimal",
			grid.ErrInvalidParameter, hex)
	}

	if len(hex) == 6 {
		val = val<<8 | 0xFF
	}
	return color.RGBA{
		R: uint8(val >> 24),
		G: uint8(val >> 16),
		B: uint8(val >> 8),
		A: uint8(val),
	}, nil
}

// OverlayOptions configures Overlay.
type OverlayOptions struct {
	// LowPercentile and HighPercentile set the display stretch.
	LowPercentile  float64
	HighPercentile float64

	// SegmentAlpha is the tint strength for segment colors, 0 to 1.
	SegmentAlpha float64

	// MarkerColor is the peak marker color.
	MarkerColor color.RGBA

	// MarkerSize is the cross arm length in pixels.
	MarkerSize int
}

// DefaultOverlayOptions returns the standard overlay rendering settings.
func DefaultOverlayOptions() OverlayOptions {
	return OverlayOptions{
		LowPercentile:  1,
		HighPercentile: 99,
		SegmentAlpha:   0.45,
		MarkerColor:    color.RGBA{R: 255, A: 255},
		MarkerSize:     4,
	}
}

// Overlay renders the image as stretched grayscale, tints each detected
// segment with a distinct color, and draws a cross marker on every peak.
// segments and peaks may each be nil or empty to skip their layer.
func Overlay(img *grid.Grid, segments *segmentation.Map, peaks []detection.Peak, opts OverlayOptions) (*image.RGBA, error) {
	if segments != nil && (segments.Width != img.Width || segments.Height != img.Height) {
		return nil, fmt.Errorf("%w: segment map is %dx%d, image is %dx%d",
			grid.ErrShapeMismatch, segments.Width, segments.Height, img.Width, img.Height)
	}
	if opts.SegmentAlpha < 0 || opts.SegmentAlpha > 1 {
		return nil, fmt.Errorf("%w: segment alpha must be in [0,1], got %g",
			grid.ErrInvalidParameter, opts.SegmentAlpha)
	}
	if opts.MarkerSize < 0 {
		return nil, fmt.Errorf("%w: marker size must not be negative, got %d",
			grid.ErrInvalidParameter, opts.MarkerSize)
	}

	base, err := Stretch(img, opts.LowPercentile, opts.HighPercentile)
	if err != nil {
		return nil, err
	}

	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			v := base.GrayAt(x, y).Y
			out.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	if segments != nil && segments.Count > 0 {
		palette := Palette(segments.Count)
		for y := 0; y < img.Height; y++ {
			for x := 0; x < img.Width; x++ {
				lbl := segments.At(x, y)
				if lbl == 0 {
					continue
				}
				tint := palette[lbl-1]
				v := base.GrayAt(x, y).Y
				out.SetRGBA(x, y, color.RGBA{
					R: blend(v, tint.R, opts.SegmentAlpha),
					G: blend(v, tint.G, opts.SegmentAlpha),
					B: blend(v, tint.B, opts.SegmentAlpha),
					A: 255,
				})
			}
		}
	}

	for _, p := range peaks {
		drawMarker(out, p.X, p.Y, opts.MarkerSize, opts.MarkerColor)
	}
	return out, nil
}

func blend(base, tint uint8, alpha float64) uint8 {
	return uint8(float64(base)*(1-alpha) + float64(tint)*alpha + 0.5)
}

// drawMarker draws a cross centered on (x, y), clipped to the image.
func drawMarker(img *image.RGBA, x, y, size int, c color.RGBA) {
	b := img.Bounds()
	for d := -size; d <= size; d++ {
		if px := x + d; px >= b.Min.X && px < b.Max.X && y >= b.Min.Y && y < b.Max.Y {
			img.SetRGBA(px, y, c)
		}
		if py := y + d; py >= b.Min.Y && py < b.Max.Y && x >= b.Min.X && x < b.Max.X {
			img.SetRGBA(x, py, c)
		}
	}
}

// Save writes the image to disk, choosing the format from the file
// extension.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}
	return nil
}
