// Package photutils detects astronomical sources in 2-D images.
//
// Two pipelines are provided. DetectSources estimates the sky background
// with sigma clipping, optionally smooths the image with a Gaussian
// matched filter, thresholds at a signal-to-noise level above the
// background, and returns the labeled source segments. FindPeaks derives
// the same noise-relative threshold and returns the locally maximal
// pixels, optionally restricted to previously detected segments.
//
// The pieces are exposed individually in the subpackages: grid (pixel
// arrays and error sentinels), background (sigma-clipped statistics),
// convolve (Gaussian smoothing), segmentation (threshold, label, size
// filter), and detection (peak search). The top-level functions only
// compose them the way a detection run normally does.
package photutils
