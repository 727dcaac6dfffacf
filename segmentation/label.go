package segmentation

import (
	"fmt"

	"github.com/theodesp/unionfind"

	"github.com/hamogu/photutils/grid"
)

// Connectivity selects which neighbors count as touching when pixels are
// grouped into components. The zero value is treated as Connect4.
type Connectivity int

const (
	// Connect4 connects pixels sharing an edge.
	Connect4 Connectivity = 4
	// Connect8 additionally connects pixels sharing only a corner.
	Connect8 Connectivity = 8
)

func (c Connectivity) diagonals() (bool, error) {
	switch c {
	case 0, Connect4:
		return false, nil
	case Connect8:
		return true, nil
	default:
		return false, fmt.Errorf("%w: connectivity must be 4 or 8, got %d", grid.ErrInvalidParameter, int(c))
	}
}

// Label groups the marked pixels of fg into connected components and
// returns a Map assigning each component a distinct label.
//
// # Algorithm
//
// Two-pass union-find labeling. The first pass scans in raster order and
// looks only at already-visited neighbors (left and up, plus the two upper
// diagonals for Connect8): a pixel with no marked neighbor opens a fresh
// provisional label, otherwise it takes the smallest neighboring label and
// the union-find structure records that all neighboring labels belong to
// one component. The second pass resolves every provisional label to its
// representative and renumbers the components 1..Count in order of first
// appearance in raster order.
//
// The output is fully determined by the input: the same mask and
// connectivity always produce the identical Map.
func Label(fg *grid.Mask, conn Connectivity) (*Map, error) {
	diag, err := conn.diagonals()
	if err != nil {
		return nil, err
	}

	w, h := fg.Width, fg.Height
	labels := make([]int, w*h)

	// Provisional labels are 1..n with n bounded by the marked pixel count.
	uf := unionfind.New(fg.CountTrue() + 1)
	next := 1

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if !fg.Data[i] {
				continue
			}

			var nb [4]int
			n := 0
			if x > 0 && labels[i-1] > 0 {
				nb[n] = labels[i-1]
				n++
			}
			if y > 0 {
				if labels[i-w] > 0 {
					nb[n] = labels[i-w]
					n++
				}
				if diag {
					if x > 0 && labels[i-w-1] > 0 {
						nb[n] = labels[i-w-1]
						n++
					}
					if x < w-1 && labels[i-w+1] > 0 {
						nb[n] = labels[i-w+1]
						n++
					}
				}
			}

			if n == 0 {
				labels[i] = next
				next++
				continue
			}

			min := nb[0]
			for k := 1; k < n; k++ {
				if nb[k] < min {
					min = nb[k]
				}
			}
			labels[i] = min
			for k := 0; k < n; k++ {
				if nb[k] != min {
					uf.Union(min, nb[k])
				}
			}
		}
	}

	// Resolve provisional labels to their representatives and renumber
	// consecutively by first appearance.
	remap := make([]int, next)
	count := 0
	for i, lbl := range labels {
		if lbl == 0 {
			continue
		}
		root := uf.Root(lbl)
		if remap[root] == 0 {
			count++
			remap[root] = count
		}
		labels[i] = remap[root]
	}

	return &Map{Data: labels, Width: w, Height: h, Count: count}, nil
}
