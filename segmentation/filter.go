package segmentation

import (
	"fmt"

	"github.com/hamogu/photutils/grid"
)

// FilterSmall removes components with fewer than npixels pixels and
// renumbers the survivors consecutively from 1, walking the old labels in
// increasing numeric order. The input map is not modified; the result may
// be entirely background.
//
// npixels must be at least 1 or an error wrapping grid.ErrInvalidParameter
// is returned.
func FilterSmall(m *Map, npixels int) (*Map, error) {
	if npixels <= 0 {
		return nil, fmt.Errorf("%w: npixels must be positive, got %d", grid.ErrInvalidParameter, npixels)
	}

	max := m.maxLabel()
	areas := make([]int, max+1)
	for _, v := range m.Data {
		if v > 0 {
			areas[v]++
		}
	}

	remap := make([]int, max+1)
	count := 0
	for lbl := 1; lbl <= max; lbl++ {
		if areas[lbl] >= npixels {
			count++
			remap[lbl] = count
		}
	}

	out := &Map{
		Data:   make([]int, len(m.Data)),
		Width:  m.Width,
		Height: m.Height,
		Count:  count,
	}
	for i, v := range m.Data {
		if v > 0 {
			out.Data[i] = remap[v]
		}
	}
	return out, nil
}
