package photutils

import (
	"fmt"
	"math"

	"github.com/hamogu/photutils/background"
	"github.com/hamogu/photutils/convolve"
	"github.com/hamogu/photutils/grid"
	"github.com/hamogu/photutils/segmentation"
)

// DetectSourcesOptions configures DetectSources.
type DetectSourcesOptions struct {
	// Mask flags pixels to exclude from the background statistics, for
	// example bad columns or bleed trails. Masked pixels stay eligible
	// for source membership.
	Mask *grid.Mask

	// MaskValue excludes pixels exactly equal to this value from the
	// background statistics, e.g. a mosaic fill value. Ignored when Mask
	// is set.
	MaskValue *float64

	// SNRThreshold is the detection threshold in background noise widths
	// above the background level.
	SNRThreshold float64

	// NPixels is the minimum source size in pixels. Must be at least 1.
	NPixels int

	// Connectivity groups pixels into sources. Zero means
	// segmentation.Connect4.
	Connectivity segmentation.Connectivity

	// FilterFWHM, when positive, smooths the image with a Gaussian of
	// this full width at half maximum before thresholding. The background
	// statistics always come from the unsmoothed image.
	FilterFWHM float64

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

// DetectSourcesResult is the outcome of one detection run.
type DetectSourcesResult struct {
	// Segments is the full label map.
	Segments *segmentation.Map `json:"-"`

	// Background holds the estimated background statistics, or nil when
	// an explicit background was supplied.
	Background *background.Stats `json:"background,omitempty"`

	// Level is the applied detection threshold in image units.
	Level float64 `json:"level"`

	// Sources summarizes each detected segment.
	Sources []segmentation.Region `json:"sources"`

	// Count is the number of detected sources.
	Count int `json:"count"`
}

// DetectSources finds contiguous sources above a noise-relative threshold.
//
// # Algorithm
//
// The sky background and its noise width are estimated from the unsmoothed
// image by sigma clipping (unless an explicit background is given). When
// FilterFWHM is set the image is then smoothed with a matched Gaussian
// filter, which suppresses single-pixel noise excursions while preserving
// the flux of real sources. The smoothed image is thresholded at
// level + SNRThreshold*rms, the surviving pixels are grouped into
// connected components, and components smaller than NPixels pixels are
// dropped.
//
// Parameters:
//   - img: the image to search
//   - opts: detection settings, see DetectSourcesOptions
//
// Returns an error wrapping grid.ErrInvalidParameter for a non-positive
// NPixels, an invalid connectivity, or a negative or non-finite
// FilterFWHM, and grid.ErrShapeMismatch for a mask that does not match the
// image. Parameters are checked before any estimation work starts.
func DetectSources(img *grid.Grid, opts DetectSourcesOptions) (*DetectSourcesResult, error) {
	if opts.NPixels <= 0 {
		return nil, fmt.Errorf("%w: npixels must be positive, got %d", grid.ErrInvalidParameter, opts.NPixels)
	}
	switch opts.Connectivity {
	case 0, segmentation.Connect4, segmentation.Connect8:
	default:
		return nil, fmt.Errorf("%w: connectivity must be 4 or 8, got %d", grid.ErrInvalidParameter, int(opts.Connectivity))
	}
	if opts.FilterFWHM < 0 || math.IsNaN(opts.FilterFWHM) || math.IsInf(opts.FilterFWHM, 0) {
		return nil, fmt.Errorf("%w: filter fwhm must be finite and non-negative, got %v", grid.ErrInvalidParameter, opts.FilterFWHM)
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

	search := img
	if opts.FilterFWHM > 0 {
		search, err = convolve.Gaussian(img, opts.FilterFWHM)
		if err != nil {
			return nil, err
		}
	}

	segments, err := segmentation.Detect(search, segmentation.DetectOptions{
		Mask:         opts.Mask,
		SNRThreshold: opts.SNRThreshold,
		NPixels:      opts.NPixels,
		Connectivity: opts.Connectivity,
		Background:   bg,
	})
	if err != nil {
		return nil, err
	}

	return &DetectSourcesResult{
		Segments:   segments,
		Background: stats,
		Level:      bg.Level + opts.SNRThreshold*bg.RMS,
		Sources:    segments.Regions(),
		Count:      segments.Count,
	}, nil
}

// resolveBackground returns the supplied background unchanged or estimates
// one from the image. The stats return is nil when no estimation ran.
func resolveBackground(img *grid.Grid, explicit *segmentation.Background, bgOpts background.Options) (segmentation.Background, *background.Stats, error) {
	if explicit != nil {
		return *explicit, nil, nil
	}
	stats, err := background.Estimate(img, bgOpts)
	if err != nil {
		return segmentation.Background{}, nil, fmt.Errorf("failed to estimate background: %w", err)
	}
	return segmentation.Background{Level: stats.Mean, RMS: stats.RMS}, stats, nil
}
