package grid

import (
	"errors"
	"fmt"
	"math"
)

// Validation errors shared by every package in this module. Callers match
// them with errors.Is after unwrapping.
var (
	// ErrInvalidParameter indicates a scalar parameter outside its legal range,
	// such as a non-positive minimum pixel count.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrShapeMismatch indicates that two arrays which must share a shape do
	// not, or that a kernel has an illegal shape.
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Grid is a 2D array of float64 intensities stored in row-major order:
// the pixel at column x, row y lives at Data[y*Width+x].
//
// A Grid may contain NaN or infinite values. Such pixels never satisfy
// threshold or local-maximum comparisons; they are carried through
// computations without ever causing an error.
//
// Operations in this module treat their input Grids as read-only and
// allocate fresh Grids for results.
type Grid struct {
	Data   []float64
	Width  int
	Height int
}

// New returns a zero-filled Grid of the given dimensions.
// Both dimensions must be at least 1.
func New(width, height int) (*Grid, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: grid dimensions must be at least 1x1, got %dx%d",
			ErrInvalidParameter, width, height)
	}
	return &Grid{
		Data:   make([]float64, width*height),
		Width:  width,
		Height: height,
	}, nil
}

// FromRows builds a Grid from a slice of rows. All rows must have the same
// non-zero length.
func FromRows(rows [][]float64) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: grid dimensions must be at least 1x1", ErrInvalidParameter)
	}
	width := len(rows[0])
	g, err := New(width, len(rows))
	if err != nil {
		return nil, err
	}
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d",
				ErrShapeMismatch, y, len(row), width)
		}
		copy(g.Data[y*width:(y+1)*width], row)
	}
	return g, nil
}

// At returns the value at column x, row y. No bounds checking is performed
// beyond the slice access itself.
func (g *Grid) At(x, y int) float64 {
	return g.Data[y*g.Width+x]
}

// Set stores v at column x, row y.
func (g *Grid) Set(x, y int, v float64) {
	g.Data[y*g.Width+x] = v
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	out := &Grid{
		Data:   make([]float64, len(g.Data)),
		Width:  g.Width,
		Height: g.Height,
	}
	copy(out.Data, g.Data)
	return out
}

// Mask is a 2D boolean array with the same row-major layout as Grid.
//
// The meaning of a true element depends on context: in a statistics mask it
// marks a pixel to exclude, in a threshold map it marks a pixel above the
// detection level, and in a peak mask it marks a reported peak.
type Mask struct {
	Data   []bool
	Width  int
	Height int
}

// NewMask returns an all-false Mask of the given dimensions.
// Both dimensions must be at least 1.
func NewMask(width, height int) (*Mask, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: mask dimensions must be at least 1x1, got %dx%d",
			ErrInvalidParameter, width, height)
	}
	return &Mask{
		Data:   make([]bool, width*height),
		Width:  width,
		Height: height,
	}, nil
}

// MaskFromRows builds a Mask from a slice of rows. All rows must have the
// same non-zero length.
func MaskFromRows(rows [][]bool) (*Mask, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: mask dimensions must be at least 1x1", ErrInvalidParameter)
	}
	width := len(rows[0])
	m, err := NewMask(width, len(rows))
	if err != nil {
		return nil, err
	}
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d",
				ErrShapeMismatch, y, len(row), width)
		}
		copy(m.Data[y*width:(y+1)*width], row)
	}
	return m, nil
}

// At returns the element at column x, row y.
func (m *Mask) At(x, y int) bool {
	return m.Data[y*m.Width+x]
}

// Set stores v at column x, row y.
func (m *Mask) Set(x, y int, v bool) {
	m.Data[y*m.Width+x] = v
}

// CountTrue returns the number of true elements.
func (m *Mask) CountTrue() int {
	n := 0
	for _, v := range m.Data {
		if v {
			n++
		}
	}
	return n
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
