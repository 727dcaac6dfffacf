package segmentation

import (
	"fmt"

	"github.com/hamogu/photutils/grid"
)

// Threshold marks every pixel whose value is at least level. Pixels that
// are NaN or infinite are never marked, regardless of how they compare.
func Threshold(img *grid.Grid, level float64) *grid.Mask {
	out := &grid.Mask{
		Data:   make([]bool, len(img.Data)),
		Width:  img.Width,
		Height: img.Height,
	}
	for i, v := range img.Data {
		out.Data[i] = grid.Finite(v) && v >= level
	}
	return out
}

// ThresholdSNR marks pixels at least snr noise widths above the
// background: value >= background + snr*rms.
func ThresholdSNR(img *grid.Grid, background, rms, snr float64) *grid.Mask {
	return Threshold(img, background+snr*rms)
}

// ThresholdMap is Threshold with a per-pixel threshold image, for spatially
// varying backgrounds. Returns an error wrapping grid.ErrShapeMismatch when
// level does not match the image dimensions.
func ThresholdMap(img *grid.Grid, level *grid.Grid) (*grid.Mask, error) {
	if level.Width != img.Width || level.Height != img.Height {
		return nil, fmt.Errorf("%w: threshold map is %dx%d, image is %dx%d",
			grid.ErrShapeMismatch, level.Width, level.Height, img.Width, img.Height)
	}
	out := &grid.Mask{
		Data:   make([]bool, len(img.Data)),
		Width:  img.Width,
		Height: img.Height,
	}
	for i, v := range img.Data {
		out.Data[i] = grid.Finite(v) && v >= level.Data[i]
	}
	return out, nil
}
