package detection

import (
	"fmt"

	"github.com/hamogu/photutils/grid"
)

// Footprint selects which neighbors participate in the local-maximum
// comparison. It must be rectangular with odd width and height; the window
// is centered on the pixel under test. Standard footprints include their
// own center. A footprint that omits the center compares each pixel
// strictly against its neighbors, so an isolated pixel can never pass the
// maximum test.
type Footprint [][]bool

// SquareFootprint returns the all-true square footprint of side
// 2*minDistance+1 implied by a minimum peak spacing.
func SquareFootprint(minDistance int) Footprint {
	side := 2*minDistance + 1
	fp := make(Footprint, side)
	for y := range fp {
		row := make([]bool, side)
		for x := range row {
			row[x] = true
		}
		fp[y] = row
	}
	return fp
}

// validate checks that the footprint is rectangular with odd dimensions
// and returns its half-extents in x and y.
func (fp Footprint) validate() (hx, hy int, err error) {
	if len(fp) == 0 || len(fp[0]) == 0 {
		return 0, 0, fmt.Errorf("%w: footprint must be non-empty", grid.ErrShapeMismatch)
	}
	w := len(fp[0])
	for y, row := range fp {
		if len(row) != w {
			return 0, 0, fmt.Errorf("%w: footprint row %d has %d columns, want %d",
				grid.ErrShapeMismatch, y, len(row), w)
		}
	}
	h := len(fp)
	if w%2 == 0 || h%2 == 0 {
		return 0, 0, fmt.Errorf("%w: footprint dimensions must be odd, got %dx%d",
			grid.ErrShapeMismatch, w, h)
	}
	return (w - 1) / 2, (h - 1) / 2, nil
}
