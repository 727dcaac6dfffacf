package background

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/hamogu/photutils/grid"
)

// DefaultClipSigma is the clipping limit used when Options.ClipSigma is zero.
const DefaultClipSigma = 3.0

// Options controls which pixels enter the statistics and how aggressively
// outliers are clipped.
type Options struct {
	// Mask excludes pixels where it is true. Must match the image shape.
	// When Mask is set, MaskValue is ignored.
	Mask *grid.Mask

	// MaskValue excludes pixels exactly equal to this value, e.g. a fill
	// value of 0.0 in a mosaic. Nil disables value masking.
	MaskValue *float64

	// ClipSigma is the clipping limit in units of the current rms.
	// Zero selects DefaultClipSigma; negative values are rejected.
	ClipSigma float64

	// MaxIters caps the number of clipping passes. Zero iterates until a
	// pass excludes no further pixel; negative values are rejected.
	MaxIters int
}

// Stats holds sigma-clipped image statistics.
//
// Mean is the background level and RMS the background noise in the sense
// used by source detection: the population standard deviation of the
// pixels that survived clipping.
type Stats struct {
	Mean       float64 `json:"mean"`
	Median     float64 `json:"median"`
	RMS        float64 `json:"rms"`
	NPixels    int     `json:"npixels"`
	Iterations int     `json:"iterations"`
}

// Estimate computes sigma-clipped statistics of an image.
//
// Non-finite pixels and pixels excluded by Options never enter the
// statistics. Each clipping pass computes the median and rms of the
// surviving pixels and drops every pixel farther than ClipSigma times the
// rms from the median; iteration stops when a pass drops nothing or
// MaxIters is reached. Iterations counts all passes performed, including
// the final pass that excluded nothing.
//
// The median always survives its own clipping bound, so the surviving set
// can never become empty once it starts non-empty. An image with no valid
// pixels at all returns an error.
func Estimate(img *grid.Grid, opts Options) (*Stats, error) {
	if err := validateOptions(img, opts); err != nil {
		return nil, err
	}
	vals := collectValid(img, opts, nil)
	if len(vals) == 0 {
		return nil, fmt.Errorf("background: no finite unmasked pixels")
	}
	return clipStats(vals, opts), nil
}

func validateOptions(img *grid.Grid, opts Options) error {
	if opts.Mask != nil && (opts.Mask.Width != img.Width || opts.Mask.Height != img.Height) {
		return fmt.Errorf("%w: mask is %dx%d but image is %dx%d", grid.ErrShapeMismatch,
			opts.Mask.Width, opts.Mask.Height, img.Width, img.Height)
	}
	if opts.ClipSigma < 0 {
		return fmt.Errorf("%w: clip sigma must not be negative, got %v",
			grid.ErrInvalidParameter, opts.ClipSigma)
	}
	if opts.MaxIters < 0 {
		return fmt.Errorf("%w: max iterations must not be negative, got %d",
			grid.ErrInvalidParameter, opts.MaxIters)
	}
	return nil
}

// collectValid gathers the pixel values eligible for statistics. When
// indices is non-nil only those positions are examined, otherwise the
// whole image is.
func collectValid(img *grid.Grid, opts Options, indices []int) []float64 {
	var vals []float64
	if indices == nil {
		vals = make([]float64, 0, len(img.Data))
		for i, v := range img.Data {
			if validPixel(img, opts, i, v) {
				vals = append(vals, v)
			}
		}
		return vals
	}
	vals = make([]float64, 0, len(indices))
	for _, i := range indices {
		if v := img.Data[i]; validPixel(img, opts, i, v) {
			vals = append(vals, v)
		}
	}
	return vals
}

func validPixel(img *grid.Grid, opts Options, i int, v float64) bool {
	if !grid.Finite(v) {
		return false
	}
	if opts.Mask != nil {
		return !opts.Mask.Data[i]
	}
	if opts.MaskValue != nil && v == *opts.MaskValue {
		return false
	}
	return true
}

// clipStats runs the clipping loop over vals. vals is consumed.
func clipStats(vals []float64, opts Options) *Stats {
	sigma := opts.ClipSigma
	if sigma == 0 {
		sigma = DefaultClipSigma
	}

	// A sorted slice stays sorted under in-order filtering, so the median
	// is O(1) on every pass.
	sort.Float64s(vals)

	iters := 0
	for {
		iters++
		med := medianSorted(vals)
		sd := stat.PopStdDev(vals, nil)
		lo := med - sigma*sd
		hi := med + sigma*sd

		kept := vals[:0]
		for _, v := range vals {
			if v >= lo && v <= hi {
				kept = append(kept, v)
			}
		}
		removed := len(vals) - len(kept)
		vals = kept

		if removed == 0 {
			break
		}
		if opts.MaxIters > 0 && iters >= opts.MaxIters {
			break
		}
	}

	return &Stats{
		Mean:       stat.Mean(vals, nil),
		Median:     medianSorted(vals),
		RMS:        stat.PopStdDev(vals, nil),
		NPixels:    len(vals),
		Iterations: iters,
	}
}

// medianSorted returns the median of an already-sorted non-empty slice,
// averaging the two central elements for even lengths.
func medianSorted(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
