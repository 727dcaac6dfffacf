package photutils

import (
	"fmt"

	"github.com/hamogu/photutils/background"
	"github.com/hamogu/photutils/detection"
	"github.com/hamogu/photutils/grid"
	"github.com/hamogu/photutils/segmentation"
)

// FindPeaksOptions configures FindPeaks.
type FindPeaksOptions struct {
	// Mask flags pixels to exclude from the background statistics.
	Mask *grid.Mask

	// MaskValue excludes pixels exactly equal to this value from the
	// background statistics. Ignored when Mask is set.
	MaskValue *float64

	// SNRThreshold sets the peak threshold in background noise widths
	// above the background level.
	SNRThreshold float64

	// MinDistance is the minimum peak spacing in pixels; see
	// detection.PeakOptions.
	MinDistance int

	// ExcludeBorder drops peaks near the image edges.
	ExcludeBorder bool

	// Footprint, when non-nil, replaces the square comparison window
	// implied by MinDistance.
	Footprint detection.Footprint

	// Labels restricts the search to previously detected segments.
	Labels *segmentation.Map

	// NumPeaks caps the result at the brightest peaks. Zero means
	// unbounded.
	NumPeaks int

	// Workers sets how many goroutines process label regions.
	Workers int

	// ClipSigma is the clipping width for the background estimate. Zero
	// means background.DefaultClipSigma.
	ClipSigma float64

	// MaxIters caps the background clipping iterations. Zero iterates to
	// convergence.
	MaxIters int

	// Background, when non-nil, is used directly and no background
	// estimation runs.
	Background *segmentation.Background
}

// DefaultFindPeaksOptions returns the standard peak search settings.
func DefaultFindPeaksOptions() FindPeaksOptions {
	return FindPeaksOptions{
		SNRThreshold:  5,
		MinDistance:   5,
		ExcludeBorder: true,
	}
}

// FindPeaksResult is the outcome of one peak search.
type FindPeaksResult struct {
	// Width and Height are the searched image dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Background holds the estimated background statistics, or nil when
	// an explicit background was supplied.
	Background *background.Stats `json:"background,omitempty"`

	// Level is the applied peak threshold in image units.
	Level float64 `json:"level"`

	// Peaks lists the kept peaks, brightest first.
	Peaks []detection.Peak `json:"peaks"`

	// Count is the number of kept peaks.
	Count int `json:"count"`
}

// Mask returns the peak positions as a boolean image mask.
func (r *FindPeaksResult) Mask() *grid.Mask {
	m := &grid.Mask{
		Data:   make([]bool, r.Width*r.Height),
		Width:  r.Width,
		Height: r.Height,
	}
	for _, p := range r.Peaks {
		m.Data[p.Y*r.Width+p.X] = true
	}
	return m
}

// FindPeaks locates locally maximal pixels above a noise-relative
// threshold. The background and its noise width are estimated from the
// image by sigma clipping (unless an explicit background is given), the
// threshold is set to level + SNRThreshold*rms, and the search runs on the
// raw pixel values.
//
// Returns an error wrapping grid.ErrInvalidParameter for a negative
// MinDistance or NumPeaks, and grid.ErrShapeMismatch for a mismatched
// mask, footprint, or label map.
func FindPeaks(img *grid.Grid, opts FindPeaksOptions) (*FindPeaksResult, error) {
	if opts.MinDistance < 0 {
		return nil, fmt.Errorf("%w: min distance must not be negative, got %d",
			grid.ErrInvalidParameter, opts.MinDistance)
	}
	if opts.NumPeaks < 0 {
		return nil, fmt.Errorf("%w: num peaks must not be negative, got %d",
			grid.ErrInvalidParameter, opts.NumPeaks)
	}
	if opts.Mask != nil && (opts.Mask.Width != img.Width || opts.Mask.Height != img.Height) {
		return nil, fmt.Errorf("%w: mask is %dx%d, image is %dx%d",
			grid.ErrShapeMismatch, opts.Mask.Width, opts.Mask.Height, img.Width, img.Height)
	}

	bg, stats, err := resolveBackground(img, opts.Background, background.Options{
		Mask:      opts.Mask,
		MaskValue: opts.MaskValue,
		ClipSigma: opts.ClipSigma,
		MaxIters:  opts.MaxIters,
	})
	if err != nil {
		return nil, err
	}
	level := bg.Level + opts.SNRThreshold*bg.RMS

	res, err := detection.FindPeaks(img, level, detection.PeakOptions{
		MinDistance:   opts.MinDistance,
		Footprint:     opts.Footprint,
		ExcludeBorder: opts.ExcludeBorder,
		Labels:        opts.Labels,
		NumPeaks:      opts.NumPeaks,
		Workers:       opts.Workers,
	})
	if err != nil {
		return nil, err
	}

	return &FindPeaksResult{
		Width:      res.Width,
		Height:     res.Height,
		Background: stats,
		Level:      level,
		Peaks:      res.Peaks,
		Count:      res.Count,
	}, nil
}
