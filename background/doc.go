// Package background estimates the background level and noise of an image
// with iterative sigma clipping.
//
// Astronomical frames are mostly empty sky contaminated by a minority of
// bright source pixels. Plain mean and standard deviation are biased high
// by those sources; clipping repeatedly removes pixels far from the median
// until the surviving population is source-free, and the statistics of
// that population describe the background.
//
// The returned Stats feed directly into threshold computation: a detection
// level is Mean + snr*RMS for a chosen signal-to-noise ratio.
//
// Masking supports two forms: an explicit boolean mask, or a sentinel
// pixel value (for instance 0.0 padding around a mosaic). Masked pixels
// are excluded from the statistics only; whether they can be detected as
// sources is decided by the segmentation and detection packages, not here.
package background
