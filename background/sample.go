package background

import (
	"fmt"

	"github.com/valyala/fastrand"

	"github.com/hamogu/photutils/grid"
)

// EstimateSampled computes sigma-clipped statistics from a random subsample
// of at most maxSamples pixels. For large frames this trades a little
// statistical precision for a large reduction in work; survey images are
// dominated by background pixels, so a few thousand samples pin the level
// and rms closely.
//
// Sampling draws positions uniformly with replacement, so the result is not
// reproducible run to run. Images with no more than maxSamples pixels are
// handed to Estimate unchanged, which is deterministic.
func EstimateSampled(img *grid.Grid, opts Options, maxSamples int) (*Stats, error) {
	if maxSamples <= 0 {
		return nil, fmt.Errorf("%w: max samples must be positive, got %d",
			grid.ErrInvalidParameter, maxSamples)
	}
	if len(img.Data) <= maxSamples {
		return Estimate(img, opts)
	}
	if err := validateOptions(img, opts); err != nil {
		return nil, err
	}

	indices := make([]int, maxSamples)
	n := uint32(len(img.Data))
	for i := range indices {
		indices[i] = int(fastrand.Uint32n(n))
	}

	vals := collectValid(img, opts, indices)
	if len(vals) == 0 {
		return nil, fmt.Errorf("background: no finite unmasked pixels in sample")
	}
	return clipStats(vals, opts), nil
}
