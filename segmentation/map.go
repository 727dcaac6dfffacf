package segmentation

// Map is a segmentation image: per-pixel integer labels in the same
// row-major layout as the Grid it was derived from. Label 0 is background.
// Nonzero labels are consecutive integers 1..Count with no gaps, numbered
// in order of first appearance in raster scan order.
type Map struct {
	Data   []int
	Width  int
	Height int

	// Count is the number of distinct nonzero labels.
	Count int
}

// At returns the label at column x, row y.
func (m *Map) At(x, y int) int {
	return m.Data[y*m.Width+x]
}

// Bounds is an inclusive bounding box in pixel coordinates: (X1, Y1) is
// the top-left corner and (X2, Y2) the bottom-right corner, both inside
// the region.
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Region summarizes one labeled component.
type Region struct {
	// Label is the component's label in the Map.
	Label int `json:"label"`

	// PixelCount is the number of pixels carrying this label.
	PixelCount int `json:"pixel_count"`

	// Bounds is the tight bounding box around those pixels.
	Bounds Bounds `json:"bounds"`
}

// Regions returns one Region per label, ordered by label. The slice is
// freshly computed on every call.
func (m *Map) Regions() []Region {
	if m.Count == 0 {
		return nil
	}

	regions := make([]Region, m.Count)
	for i := range regions {
		regions[i] = Region{
			Label:  i + 1,
			Bounds: Bounds{X1: m.Width, Y1: m.Height, X2: -1, Y2: -1},
		}
	}

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			lbl := m.Data[y*m.Width+x]
			if lbl == 0 {
				continue
			}
			r := &regions[lbl-1]
			r.PixelCount++
			if x < r.Bounds.X1 {
				r.Bounds.X1 = x
			}
			if x > r.Bounds.X2 {
				r.Bounds.X2 = x
			}
			if y < r.Bounds.Y1 {
				r.Bounds.Y1 = y
			}
			if y > r.Bounds.Y2 {
				r.Bounds.Y2 = y
			}
		}
	}
	return regions
}

// maxLabel returns the largest label actually present in the data. For
// maps produced by this package it equals Count, but filtering tolerates
// hand-built maps with gaps.
func (m *Map) maxLabel() int {
	max := 0
	for _, v := range m.Data {
		if v > max {
			max = v
		}
	}
	return max
}
