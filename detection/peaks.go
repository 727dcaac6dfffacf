package detection

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/hamogu/photutils/grid"
	"github.com/hamogu/photutils/segmentation"
)

// Peak is one locally maximal pixel.
type Peak struct {
	X     int     `json:"x"`
	Y     int     `json:"y"`
	Value float64 `json:"value"`
}

// PeakOptions configures FindPeaks. DefaultPeakOptions returns the
// standard settings; the zero value searches with a 1x1 footprint and no
// border exclusion.
type PeakOptions struct {
	// MinDistance sets the side of the implied square comparison footprint
	// to 2*MinDistance+1 and the width of the border-exclusion band. Must
	// not be negative. Superseded by Footprint when that is set.
	MinDistance int

	// Footprint, when non-nil, replaces the square footprint implied by
	// MinDistance.
	Footprint Footprint

	// ExcludeBorder drops peaks within the footprint's half-extent of any
	// image edge, regardless of label membership.
	ExcludeBorder bool

	// Labels restricts the search to nonzero-labeled pixels. Only pixels
	// sharing a label compete in the maximum test; pixels outside the
	// label neither participate nor suppress.
	Labels *segmentation.Map

	// NumPeaks caps the result at the brightest peaks. Zero means
	// unbounded.
	NumPeaks int

	// Workers sets how many goroutines process label regions. Values
	// below 2, or any value when Labels is nil, run sequentially. The
	// result never depends on Workers.
	Workers int
}

// DefaultPeakOptions returns the standard search settings: minimum peak
// spacing of 5 pixels and border exclusion on.
func DefaultPeakOptions() PeakOptions {
	return PeakOptions{MinDistance: 5, ExcludeBorder: true}
}

// PeaksResult holds the peaks found in one image.
type PeaksResult struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Peaks  []Peak `json:"peaks"`
	Count  int    `json:"count"`
}

// Mask returns the peak positions as a boolean image mask.
func (r *PeaksResult) Mask() *grid.Mask {
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

// FindPeaks locates locally maximal pixels at or above thresholdAbs.
//
// # Algorithm
//
// Every pixel is compared against the maximum of its footprint
// neighborhood (a grayscale dilation). A pixel whose value equals that
// local maximum and reaches the threshold is a peak; on a flat plateau
// every pixel ties the maximum, so all plateau pixels are reported rather
// than one representative. With Labels set, each labeled component is
// searched independently within its bounding box and only same-label
// pixels enter the comparison, so a bright neighboring source cannot
// suppress peaks of the component next to it. Out-of-bounds neighbors
// never participate.
//
// NaN and infinite pixels are never peaks and never suppress their
// neighbors; only finite values take part in the comparisons.
//
// Peaks are returned sorted by intensity descending, equal intensities by
// ascending raster position (lower row first, then lower column). When
// NumPeaks is set, only the first NumPeaks in that order are kept.
//
// Parameters:
//   - img: the image to search (typically unsmoothed data)
//   - thresholdAbs: minimum intensity for a peak, in image units
//   - opts: search settings, see PeakOptions
//
// Returns an error wrapping grid.ErrInvalidParameter for a negative
// MinDistance or NumPeaks, and grid.ErrShapeMismatch for a malformed
// footprint or a label map that does not match the image dimensions. All
// validation happens before any pixel is read.
func FindPeaks(img *grid.Grid, thresholdAbs float64, opts PeakOptions) (*PeaksResult, error) {
	if opts.MinDistance < 0 {
		return nil, fmt.Errorf("%w: min distance must not be negative, got %d",
			grid.ErrInvalidParameter, opts.MinDistance)
	}
	if opts.NumPeaks < 0 {
		return nil, fmt.Errorf("%w: num peaks must not be negative, got %d",
			grid.ErrInvalidParameter, opts.NumPeaks)
	}
	fp := opts.Footprint
	if fp == nil {
		fp = SquareFootprint(opts.MinDistance)
	}
	hx, hy, err := fp.validate()
	if err != nil {
		return nil, err
	}
	if opts.Labels != nil && (opts.Labels.Width != img.Width || opts.Labels.Height != img.Height) {
		return nil, fmt.Errorf("%w: label map is %dx%d, image is %dx%d",
			grid.ErrShapeMismatch, opts.Labels.Width, opts.Labels.Height, img.Width, img.Height)
	}

	s := &peakScanner{
		img:       img,
		labels:    opts.Labels,
		fp:        fp,
		hx:        hx,
		hy:        hy,
		threshold: thresholdAbs,
	}

	var peaks []Peak
	if opts.Labels == nil {
		peaks = s.region(0, segmentation.Bounds{X1: 0, Y1: 0, X2: img.Width - 1, Y2: img.Height - 1})
	} else {
		peaks = s.regions(opts.Labels.Regions(), opts.Workers)
	}

	if opts.ExcludeBorder {
		peaks = discardBorder(peaks, img.Width, img.Height, hx, hy)
	}

	sortPeaks(peaks)
	if opts.NumPeaks > 0 && len(peaks) > opts.NumPeaks {
		peaks = peaks[:opts.NumPeaks]
	}

	return &PeaksResult{
		Width:  img.Width,
		Height: img.Height,
		Peaks:  peaks,
		Count:  len(peaks),
	}, nil
}

// FindPeaksMask is FindPeaks with a boolean-mask result: true at every
// kept peak position.
func FindPeaksMask(img *grid.Grid, thresholdAbs float64, opts PeakOptions) (*grid.Mask, error) {
	res, err := FindPeaks(img, thresholdAbs, opts)
	if err != nil {
		return nil, err
	}
	return res.Mask(), nil
}

// peakScanner carries the shared read-only state of one FindPeaks call.
type peakScanner struct {
	img       *grid.Grid
	labels    *segmentation.Map
	fp        Footprint
	hx, hy    int
	threshold float64
}

// region scans one bounding box for candidate peaks. With a nonzero label,
// only pixels carrying that label are tested and compared. The box must
// lie inside the image.
func (s *peakScanner) region(label int, box segmentation.Bounds) []Peak {
	w := s.img.Width
	var out []Peak
	for y := box.Y1; y <= box.Y2; y++ {
		for x := box.X1; x <= box.X2; x++ {
			if s.labels != nil && s.labels.Data[y*w+x] != label {
				continue
			}
			v := s.img.Data[y*w+x]
			if !grid.Finite(v) || v < s.threshold {
				continue
			}

			// Local maximum over participating neighbors. Non-finite values
			// are no more eligible here than at the threshold stage: they
			// are never candidates and never raise the maximum, so an Inf
			// pixel cannot suppress a real peak beside it.
			dil := math.Inf(-1)
			for fy, row := range s.fp {
				ny := y + fy - s.hy
				if ny < box.Y1 || ny > box.Y2 {
					continue
				}
				for fx, on := range row {
					if !on {
						continue
					}
					nx := x + fx - s.hx
					if nx < box.X1 || nx > box.X2 {
						continue
					}
					if s.labels != nil && s.labels.Data[ny*w+nx] != label {
						continue
					}
					if nv := s.img.Data[ny*w+nx]; grid.Finite(nv) && nv > dil {
						dil = nv
					}
				}
			}
			if v == dil {
				out = append(out, Peak{X: x, Y: y, Value: v})
			}
		}
	}
	return out
}

// regions scans every labeled region, fanning out over workers goroutines
// when asked. Regions read disjoint label sets and write disjoint result
// slots, so the merge is race-free and the outcome identical to the
// sequential path.
func (s *peakScanner) regions(regions []segmentation.Region, workers int) []Peak {
	if workers < 2 || len(regions) < 2 {
		var out []Peak
		for _, r := range regions {
			out = append(out, s.region(r.Label, r.Bounds)...)
		}
		return out
	}

	results := make([][]Peak, len(regions))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				r := regions[idx]
				results[idx] = s.region(r.Label, r.Bounds)
			}
		}()
	}
	for idx := range regions {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	var out []Peak
	for _, ps := range results {
		out = append(out, ps...)
	}
	return out
}

// discardBorder drops peaks within the footprint half-extent of any image
// edge.
func discardBorder(peaks []Peak, w, h, hx, hy int) []Peak {
	kept := peaks[:0]
	for _, p := range peaks {
		if p.X < hx || p.X >= w-hx || p.Y < hy || p.Y >= h-hy {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// sortPeaks orders by intensity descending, breaking ties by ascending
// raster position so equal peaks keep a reproducible order.
func sortPeaks(peaks []Peak) {
	sort.Slice(peaks, func(i, j int) bool {
		a, b := peaks[i], peaks[j]
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
}
