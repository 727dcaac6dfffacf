package convolve

import (
	"fmt"
	"math"

	"github.com/hamogu/photutils/grid"
)

// FWHMToSigma converts a Gaussian full-width-half-maximum to its standard
// deviation: 1 / (2*sqrt(2*ln 2)).
const FWHMToSigma = 0.42466090014400953

// kernelTruncate is the kernel half-width in units of sigma. Weights beyond
// four sigma are below 3.4e-4 of the peak and are dropped.
const kernelTruncate = 4.0

// GaussianKernel returns the normalized 1D kernel for a Gaussian of the
// given full-width-half-maximum. The kernel has odd length 2r+1 with
// r = int(4*sigma + 0.5) and sums to exactly 1. A fwhm of zero yields the
// identity kernel [1].
func GaussianKernel(fwhm float64) ([]float64, error) {
	if fwhm < 0 || !grid.Finite(fwhm) {
		return nil, fmt.Errorf("%w: fwhm must be a non-negative finite value, got %v",
			grid.ErrInvalidParameter, fwhm)
	}
	sigma := fwhm * FWHMToSigma
	radius := int(kernelTruncate*sigma + 0.5)
	if radius == 0 {
		return []float64{1}, nil
	}

	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := range kernel {
		x := float64(i - radius)
		kernel[i] = math.Exp(-0.5 * x * x / (sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel, nil
}

// Gaussian convolves an image with a circular 2D Gaussian of the given
// full-width-half-maximum. A fwhm of zero returns an unsmoothed copy.
//
// The circular kernel separates into two identical 1D passes, one along
// rows and one along columns. Borders are handled by reflecting indices
// about the image edge with the edge pixel included, which conserves the
// total flux of the image. NaN pixels contaminate their kernel
// neighborhood, exactly as they do through any weighted sum; downstream
// threshold comparisons treat those pixels as non-candidates.
func Gaussian(img *grid.Grid, fwhm float64) (*grid.Grid, error) {
	kernel, err := GaussianKernel(fwhm)
	if err != nil {
		return nil, err
	}
	if len(kernel) == 1 {
		return img.Clone(), nil
	}

	w, h := img.Width, img.Height
	radius := len(kernel) / 2
	tmp := make([]float64, w*h)

	// Horizontal pass. Interior pixels skip the reflection lookup.
	for y := 0; y < h; y++ {
		row := y * w
		for x := 0; x < w; x++ {
			var sum float64
			if x >= radius && x < w-radius {
				base := row + x - radius
				for k, kv := range kernel {
					sum += img.Data[base+k] * kv
				}
			} else {
				for k, kv := range kernel {
					sum += img.Data[row+reflectIndex(x+k-radius, w)] * kv
				}
			}
			tmp[row+x] = sum
		}
	}

	out := &grid.Grid{Data: make([]float64, w*h), Width: w, Height: h}

	// Vertical pass with per-row source offsets hoisted out of the column
	// loop.
	rowOffs := make([]int, len(kernel))
	for y := 0; y < h; y++ {
		for k := range kernel {
			rowOffs[k] = reflectIndex(y+k-radius, h) * w
		}
		row := y * w
		for x := 0; x < w; x++ {
			var sum float64
			for k, kv := range kernel {
				sum += tmp[rowOffs[k]+x] * kv
			}
			out.Data[row+x] = sum
		}
	}

	return out, nil
}

// reflectIndex maps an out-of-range index into [0, size) by reflecting it
// about the array edges, duplicating the edge element: -1 maps to 0, size
// maps to size-1. Repeated reflection handles kernels wider than the
// image.
func reflectIndex(idx, size int) int {
	for idx < 0 || idx >= size {
		if idx < 0 {
			idx = -idx - 1
		} else {
			idx = 2*size - 1 - idx
		}
	}
	return idx
}
