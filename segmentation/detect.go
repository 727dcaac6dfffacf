package segmentation

import (
	"fmt"

	"github.com/hamogu/photutils/grid"
)

// Background carries the scalar background model a detection threshold is
// built from.
type Background struct {
	// Level is the background level in image units.
	Level float64 `json:"level"`

	// RMS is the background noise width in image units.
	RMS float64 `json:"rms"`
}

// DetectOptions configures Detect.
type DetectOptions struct {
	// Mask flags pixels excluded from the background statistics that
	// produced Background. Masked pixels remain eligible for detection;
	// the mask is validated here so a wrong-shaped one fails loudly
	// instead of silently diverging from those statistics.
	Mask *grid.Mask

	// SNRThreshold is the detection threshold in units of Background.RMS
	// above Background.Level.
	SNRThreshold float64

	// NPixels is the minimum component size in pixels. Must be at least 1.
	NPixels int

	// Connectivity groups pixels into components. Zero means Connect4.
	Connectivity Connectivity

	// Background is the background model the threshold is derived from.
	Background Background
}

// Detect runs the full segmentation pipeline on img: threshold at
// Background.Level + SNRThreshold*Background.RMS, label the connected
// components, and drop components smaller than NPixels. Callers that
// smooth the image first pass the smoothed image here; the background
// model should still come from the unsmoothed data.
//
// All parameters are validated before any pixel is touched, so Detect
// either fails immediately or runs to completion.
func Detect(img *grid.Grid, opts DetectOptions) (*Map, error) {
	if opts.NPixels <= 0 {
		return nil, fmt.Errorf("%w: npixels must be positive, got %d", grid.ErrInvalidParameter, opts.NPixels)
	}
	if _, err := opts.Connectivity.diagonals(); err != nil {
		return nil, err
	}
	if opts.Mask != nil && (opts.Mask.Width != img.Width || opts.Mask.Height != img.Height) {
		return nil, fmt.Errorf("%w: mask is %dx%d, image is %dx%d",
			grid.ErrShapeMismatch, opts.Mask.Width, opts.Mask.Height, img.Width, img.Height)
	}

	fg := ThresholdSNR(img, opts.Background.Level, opts.Background.RMS, opts.SNRThreshold)
	m, err := Label(fg, opts.Connectivity)
	if err != nil {
		return nil, err
	}
	return FilterSmall(m, opts.NPixels)
}
