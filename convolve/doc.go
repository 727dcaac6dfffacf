// Package convolve smooths images with Gaussian kernels before detection.
//
// Matched filtering is the usual reason to smooth: convolving with a
// Gaussian whose full-width-half-maximum matches the point-spread function
// maximizes the detectability of sources of that size, at the cost of
// correlating the noise. Callers that smooth before thresholding should
// derive the threshold from statistics of the unsmoothed image.
package convolve
